package command

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/zsiec/webulator/internal/host"
)

// Controller is what the start and stop commands drive.
type Controller interface {
	Start()
	Stop()
	Deactivate()
}

// Activate registers the start and stop commands and adds their
// registrations to subs. A failure is logged, shown to the user and
// returned; the commands registered so far stay in subs.
func Activate(reg *Registry, ctrl Controller, subs *host.Subscriptions, notifier host.Notifier, log *logrus.Logger) error {
	err := register(reg, ctrl, subs)
	if err != nil {
		log.WithError(err).Error("Error activating Webulator")
		notifier.ShowErrorMessage(fmt.Sprintf("Failed to activate Webulator extension: %v", err))
		return err
	}

	log.WithField("commands", reg.Names()).Info("Webulator commands registered")
	return nil
}

func register(reg *Registry, ctrl Controller, subs *host.Subscriptions) error {
	for _, c := range []struct {
		name string
		fn   Func
	}{
		{Start, ctrl.Start},
		{Stop, ctrl.Stop},
	} {
		d, err := reg.Register(c.name, c.fn)
		if err != nil {
			return err
		}
		subs.Add(d)
	}
	return nil
}

// Deactivate runs the controller's teardown hook then releases the
// registrations.
func Deactivate(ctrl Controller, subs *host.Subscriptions) {
	ctrl.Deactivate()
	subs.Dispose()
}
