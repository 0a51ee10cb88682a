package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"runtime"
	"time"

	apperrors "github.com/zsiec/webulator/internal/errors"
	"github.com/zsiec/webulator/pkg/version"
)

// Greeting is the fixed message served by /api/hello.
const Greeting = "Hello from Webulator!"

// TimestampFormat renders UTC instants as ISO-8601 with milliseconds.
const TimestampFormat = "2006-01-02T15:04:05.000Z07:00"

type HelloResponse struct {
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Port      int    `json:"port"`
}

type StatusResponse struct {
	Status  string      `json:"status"`
	Uptime  float64     `json:"uptime"`
	Memory  MemoryUsage `json:"memory"`
	Version string      `json:"version"`
}

// MemoryUsage is a process memory snapshot in bytes.
type MemoryUsage struct {
	RSS        uint64 `json:"rss"`
	HeapTotal  uint64 `json:"heapTotal"`
	HeapUsed   uint64 `json:"heapUsed"`
	StackInuse uint64 `json:"stackInuse"`
	NumGC      uint32 `json:"numGC"`
}

type EchoResponse struct {
	Received  json.RawMessage `json:"received"`
	Timestamp string          `json:"timestamp"`
}

func (s *Server) timestamp() string {
	return s.now().UTC().Format(TimestampFormat)
}

func (s *Server) handleHello(w http.ResponseWriter, r *http.Request) {
	s.respond(w, r, HelloResponse{
		Message:   Greeting,
		Timestamp: s.timestamp(),
		Port:      s.config.Port,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	v, err := s.versionFunc()
	if err != nil {
		v = version.FallbackVersion
	}

	s.respond(w, r, StatusResponse{
		Status:  "running",
		Uptime:  time.Since(processStart).Seconds(),
		Memory:  readMemoryUsage(),
		Version: v,
	})
}

// handleEcho returns the JSON request body unchanged. Requests that are not
// application/json, or carry no body, echo an empty object. A body whose
// top level is not an object or array, or that is malformed or oversized,
// is an internal error.
func (s *Server) handleEcho(w http.ResponseWriter, r *http.Request) {
	received := json.RawMessage(`{}`)
	if !isJSONRequest(r) {
		s.respond(w, r, EchoResponse{Received: received, Timestamp: s.timestamp()})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.config.MaxBodyBytes))
	if err != nil {
		s.errorHandler.HandleError(w, r, apperrors.WrapInternalError(fmt.Errorf("read body: %w", err)))
		return
	}

	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 {
		if trimmed[0] != '{' && trimmed[0] != '[' {
			s.errorHandler.HandleError(w, r, apperrors.WrapInternalError(fmt.Errorf("JSON body must be an object or array")))
			return
		}
		if !json.Valid(trimmed) {
			s.errorHandler.HandleError(w, r, apperrors.WrapInternalError(fmt.Errorf("malformed JSON body")))
			return
		}
		received = json.RawMessage(trimmed)
	}

	s.respond(w, r, EchoResponse{
		Received:  received,
		Timestamp: s.timestamp(),
	})
}

func isJSONRequest(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		s.errorHandler.HandleError(w, r, apperrors.WrapInternalError(err))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(append(payload, '\n')); err != nil {
		s.logger.WithError(err).Warn("Failed to write response")
	}
}

func readMemoryUsage() MemoryUsage {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return MemoryUsage{
		RSS:        m.Sys,
		HeapTotal:  m.HeapSys,
		HeapUsed:   m.HeapAlloc,
		StackInuse: m.StackInuse,
		NumGC:      m.NumGC,
	}
}
