// Package host defines the surface Webulator needs from the application
// that embeds it: notices, display panels and disposable registrations.
package host

import (
	"errors"
	"sync"
)

// Notifier shows user-visible notices.
type Notifier interface {
	ShowInformationMessage(msg string)
	ShowErrorMessage(msg string)
}

// PanelOptions describe a panel to create.
type PanelOptions struct {
	ViewType                string
	Title                   string
	EnableScripts           bool
	RetainContextWhenHidden bool
}

// Panel is a single display surface.
type Panel interface {
	// SetHTML replaces the panel content.
	SetHTML(html string) error
	// Reveal brings the panel to the foreground.
	Reveal()
	// Dispose closes the panel. Disposal hooks run once, whether the panel
	// is disposed here or closed by the user.
	Dispose()
	// OnDidDispose registers fn to run when the panel goes away.
	OnDidDispose(fn func()) Disposable
	Visible() bool
	URL() string
}

// Host is the embedding application.
type Host interface {
	Notifier
	CreatePanel(opts PanelOptions) (Panel, error)
}

// Disposable releases a registration.
type Disposable interface {
	Dispose()
}

// DisposableFunc adapts a function to Disposable.
type DisposableFunc func()

func (f DisposableFunc) Dispose() {
	if f != nil {
		f()
	}
}

// ErrDisposed is returned when operating on a disposed panel.
var ErrDisposed = errors.New("panel disposed")

// Subscriptions collects disposables and releases them in reverse order.
type Subscriptions struct {
	mu    sync.Mutex
	items []Disposable
}

// Add registers d for disposal.
func (s *Subscriptions) Add(d ...Disposable) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, d...)
}

// Len returns the number of pending disposables.
func (s *Subscriptions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.items)
}

// Dispose releases every registration, last added first.
func (s *Subscriptions) Dispose() {
	s.mu.Lock()
	items := s.items
	s.items = nil
	s.mu.Unlock()

	for i := len(items) - 1; i >= 0; i-- {
		items[i].Dispose()
	}
}
