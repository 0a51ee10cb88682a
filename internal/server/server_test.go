package server

import (
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"syscall"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/webulator/internal/config"
)

func testConfig(port int) *config.ServerConfig {
	return &config.ServerConfig{
		Host:            "localhost",
		Port:            port,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		ShutdownTimeout: 2 * time.Second,
		MaxBodyBytes:    1024,
	}
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func waitClosed(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("server did not close")
	}
}

func TestNew(t *testing.T) {
	cfg := testConfig(3000)
	log := quietLogger()

	s := New(cfg, log)

	assert.NotNil(t, s)
	assert.Equal(t, cfg, s.config)
	assert.Equal(t, log, s.logger)
	assert.NotNil(t, s.errorHandler)
	assert.IsType(t, &mux.Router{}, s.GetRouter())
	assert.NotNil(t, s.Handler())
	assert.False(t, s.Running())
	assert.Equal(t, 3000, s.Port())
	assert.Equal(t, "http://localhost:3000", s.URL())
	assert.Equal(t, ":3000", s.Addr())
}

func TestStartServesAndCloses(t *testing.T) {
	s := New(testConfig(0), quietLogger())

	require.NoError(t, s.Start())
	assert.True(t, s.Running())
	port := s.Port()
	require.NotZero(t, port)

	resp, err := http.Get(fmt.Sprintf("http://127.0.0.1:%d/api/hello", port))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	done := s.Close()
	assert.False(t, s.Running(), "reference released before close completes")
	waitClosed(t, done)

	// port is free again
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	require.NoError(t, err)
	ln.Close()
}

func TestStartTwiceReturnsAlreadyRunning(t *testing.T) {
	s := New(testConfig(0), quietLogger())
	require.NoError(t, s.Start())
	defer waitClosed(t, s.Close())

	assert.ErrorIs(t, s.Start(), ErrAlreadyRunning)
}

func TestStartPortInUse(t *testing.T) {
	ln, err := net.Listen("tcp", ":0")
	require.NoError(t, err)
	defer ln.Close()
	port := ln.Addr().(*net.TCPAddr).Port

	s := New(testConfig(port), quietLogger())
	err = s.Start()

	require.Error(t, err)
	assert.True(t, errors.Is(err, syscall.EADDRINUSE))
	assert.False(t, s.Running())
}

func TestCloseWhenNotRunning(t *testing.T) {
	s := New(testConfig(0), quietLogger())

	done := s.Close()
	select {
	case <-done:
	default:
		t.Fatal("close of idle server should complete immediately")
	}
}
