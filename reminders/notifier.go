package reminders

import (
	"github.com/gen2brain/beeep"
)

// Notifier delivers a reminder to the user.
type Notifier interface {
	Notify(title, body string) error
}

// DesktopNotifier shows reminders as native desktop notifications.
type DesktopNotifier struct{}

func (DesktopNotifier) Notify(title, body string) error {
	return beeep.Notify(title, body, "")
}
