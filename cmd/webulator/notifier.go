package main

import (
	"github.com/zsiec/webulator/internal/logger"
)

// logNotifier surfaces user notices as log lines when no terminal UI is
// attached.
type logNotifier struct {
	log logger.Logger
}

func newLogNotifier(log logger.Logger) *logNotifier {
	return &logNotifier{log: log.WithField("component", "notice")}
}

func (n *logNotifier) ShowInformationMessage(msg string) {
	n.log.Info(msg)
}

func (n *logNotifier) ShowErrorMessage(msg string) {
	n.log.Error(msg)
}
