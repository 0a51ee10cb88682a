package tui

import "sync"

// Notifier delivers host notices to the TUI log. Commands run outside the
// bubbletea event loop, so sends may block until the model drains them.
type Notifier struct {
	ch   chan noticeMsg
	done chan struct{}
	once sync.Once
}

// NewNotifier creates a notifier with room for buffer pending notices.
func NewNotifier(buffer int) *Notifier {
	return &Notifier{
		ch:   make(chan noticeMsg, buffer),
		done: make(chan struct{}),
	}
}

func (n *Notifier) ShowInformationMessage(msg string) {
	n.send(noticeMsg{text: msg, style: styleSuccess})
}

func (n *Notifier) ShowErrorMessage(msg string) {
	n.send(noticeMsg{text: msg, style: styleError})
}

func (n *Notifier) send(msg noticeMsg) {
	select {
	case n.ch <- msg:
	case <-n.done:
	}
}

// Close stops delivery; later notices are dropped.
func (n *Notifier) Close() {
	n.once.Do(func() { close(n.done) })
}
