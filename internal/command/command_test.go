package command

import (
	"io"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/webulator/internal/host"
)

type fakeController struct {
	mu     sync.Mutex
	starts int
	stops  int
	deacts int
}

func (c *fakeController) Start()      { c.mu.Lock(); c.starts++; c.mu.Unlock() }
func (c *fakeController) Stop()       { c.mu.Lock(); c.stops++; c.mu.Unlock() }
func (c *fakeController) Deactivate() { c.mu.Lock(); c.deacts++; c.mu.Unlock() }

type fakeNotifier struct {
	infos  []string
	errors []string
}

func (n *fakeNotifier) ShowInformationMessage(msg string) { n.infos = append(n.infos, msg) }
func (n *fakeNotifier) ShowErrorMessage(msg string)       { n.errors = append(n.errors, msg) }

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func TestRegistryRegisterAndExecute(t *testing.T) {
	reg := NewRegistry()
	var calls int
	d, err := reg.Register("demo.run", func() { calls++ })
	require.NoError(t, err)

	require.NoError(t, reg.Execute("demo.run"))
	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"demo.run"}, reg.Names())

	d.Dispose()
	assert.ErrorIs(t, reg.Execute("demo.run"), ErrUnknownCommand)
	assert.Empty(t, reg.Names())
}

func TestRegistryRejectsDuplicatesAndInvalid(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Register("demo.run", func() {})
	require.NoError(t, err)

	_, err = reg.Register("demo.run", func() {})
	assert.ErrorIs(t, err, ErrDuplicateCommand)

	_, err = reg.Register("", func() {})
	assert.Error(t, err)

	_, err = reg.Register("demo.nil", nil)
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, Start, Resolve("start"))
	assert.Equal(t, Stop, Resolve(" stop "))
	assert.Equal(t, Start, Resolve(Start))
	assert.Equal(t, "status", Resolve("status"))
}

func TestActivate(t *testing.T) {
	reg := NewRegistry()
	ctrl := &fakeController{}
	notifier := &fakeNotifier{}
	var subs host.Subscriptions

	require.NoError(t, Activate(reg, ctrl, &subs, notifier, quietLogger()))

	assert.Equal(t, []string{Start, Stop}, reg.Names())
	assert.Equal(t, 2, subs.Len())
	assert.Empty(t, notifier.errors)

	require.NoError(t, reg.Execute("start"))
	require.NoError(t, reg.Execute(Start))
	require.NoError(t, reg.Execute("stop"))
	assert.Equal(t, 2, ctrl.starts)
	assert.Equal(t, 1, ctrl.stops)
}

func TestActivateFailure(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Register(Stop, func() {})
	require.NoError(t, err)

	notifier := &fakeNotifier{}
	var subs host.Subscriptions
	err = Activate(reg, &fakeController{}, &subs, notifier, quietLogger())

	require.ErrorIs(t, err, ErrDuplicateCommand)
	require.Len(t, notifier.errors, 1)
	assert.Equal(t, "Failed to activate Webulator extension: command already registered: webulator.stop", notifier.errors[0])
	assert.Equal(t, 1, subs.Len(), "start stays registered")
}

func TestDeactivate(t *testing.T) {
	reg := NewRegistry()
	ctrl := &fakeController{}
	var subs host.Subscriptions
	require.NoError(t, Activate(reg, ctrl, &subs, &fakeNotifier{}, quietLogger()))

	Deactivate(ctrl, &subs)

	assert.Equal(t, 1, ctrl.deacts)
	assert.Empty(t, reg.Names())
	assert.Equal(t, 0, subs.Len())
}
