package panel

import (
	"sync"

	"golang.org/x/time/rate"

	"github.com/zsiec/webulator/internal/device"
	"github.com/zsiec/webulator/internal/host"
)

// browserPanel is a panel rendered as a browser page by the panel host.
type browserPanel struct {
	id      string
	opts    host.PanelOptions
	owner   *Host
	frame   *device.Frame
	limiter *rate.Limiter

	mu       sync.Mutex
	html     string
	visible  bool
	disposed bool
	// populated is set by the first SetHTML; a reveal before it is held
	// in pendingOpen so the browser never loads empty content.
	populated   bool
	pendingOpen bool
	nextHook int
	hooks    map[int]func()
	order    []int
}

func newBrowserPanel(id string, opts host.PanelOptions, owner *Host, frame *device.Frame, limiter *rate.Limiter) *browserPanel {
	return &browserPanel{
		id:      id,
		opts:    opts,
		owner:   owner,
		frame:   frame,
		limiter: limiter,
		hooks:   make(map[int]func()),
	}
}

// SetHTML replaces the content shown inside the device frame. The first
// call opens the page if the panel was revealed before it had content.
func (p *browserPanel) SetHTML(html string) error {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return host.ErrDisposed
	}
	p.html = html
	p.populated = true
	openNow := p.pendingOpen
	p.pendingOpen = false
	p.mu.Unlock()

	if openNow {
		p.owner.open(p)
	}
	return nil
}

func (p *browserPanel) content() (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html, !p.disposed
}

// Reveal shows the panel page in the browser.
func (p *browserPanel) Reveal() {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.visible = true
	if !p.populated {
		p.pendingOpen = true
		p.mu.Unlock()
		return
	}
	p.mu.Unlock()

	p.owner.open(p)
}

// Dispose closes the panel and runs its disposal hooks once.
func (p *browserPanel) Dispose() {
	p.mu.Lock()
	if p.disposed {
		p.mu.Unlock()
		return
	}
	p.disposed = true
	p.visible = false

	hooks := make([]func(), 0, len(p.order))
	for _, id := range p.order {
		if fn, ok := p.hooks[id]; ok {
			hooks = append(hooks, fn)
		}
	}
	p.hooks = nil
	p.order = nil
	p.mu.Unlock()

	p.owner.remove(p.id)

	for _, fn := range hooks {
		fn()
	}
}

// OnDidDispose registers fn to run when the panel is disposed. Registering
// on an already disposed panel runs nothing.
func (p *browserPanel) OnDidDispose(fn func()) host.Disposable {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.disposed {
		return host.DisposableFunc(nil)
	}

	id := p.nextHook
	p.nextHook++
	p.hooks[id] = fn
	p.order = append(p.order, id)

	return host.DisposableFunc(func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		delete(p.hooks, id)
	})
}

func (p *browserPanel) Visible() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible
}

func (p *browserPanel) Disposed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.disposed
}

// URL is the address of the panel page.
func (p *browserPanel) URL() string {
	return p.owner.panelURL(p.id)
}

func (p *browserPanel) ID() string {
	return p.id
}
