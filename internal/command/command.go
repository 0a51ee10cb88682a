// Package command is the named-command surface that drives the lifecycle
// controller.
package command

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/zsiec/webulator/internal/host"
	"github.com/zsiec/webulator/internal/metrics"
)

const (
	Start = "webulator.start"
	Stop  = "webulator.stop"
)

var (
	// ErrUnknownCommand is returned by Execute for unregistered names.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrDuplicateCommand is returned when a name is registered twice.
	ErrDuplicateCommand = errors.New("command already registered")
)

// aliases map short palette names to namespaced commands.
var aliases = map[string]string{
	"start": Start,
	"stop":  Stop,
}

// Func is a command body. Commands take no arguments.
type Func func()

// Registry maps command names to their bodies.
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Func
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]Func)}
}

// Register binds name to fn. Disposing the result unregisters it.
func (r *Registry) Register(name string, fn Func) (host.Disposable, error) {
	if name == "" || fn == nil {
		return nil, fmt.Errorf("invalid command registration %q", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.commands[name]; exists {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCommand, name)
	}
	r.commands[name] = fn

	return host.DisposableFunc(func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.commands, name)
	}), nil
}

// Resolve maps an alias to its command name; other names pass through.
func Resolve(name string) string {
	name = strings.TrimSpace(name)
	if full, ok := aliases[name]; ok {
		return full
	}
	return name
}

// Execute runs the named command, accepting aliases.
func (r *Registry) Execute(name string) error {
	name = Resolve(name)

	r.mu.RLock()
	fn, ok := r.commands[name]
	r.mu.RUnlock()

	if !ok {
		err := fmt.Errorf("%w: %s", ErrUnknownCommand, name)
		metrics.RecordCommand(name, err)
		return err
	}

	fn()
	metrics.RecordCommand(name, nil)
	return nil
}

// Names lists the registered commands in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.commands))
	for name := range r.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
