package desktop

import (
	"context"
	"fmt"

	"github.com/gen2brain/beeep"
)

// AppName is shown as the notification source where the platform supports it
const AppName = "automessage"

// NotifyFunc posts one notification
type NotifyFunc func(title, body string, icon any) error

// Notifier posts desktop notifications
type Notifier struct {
	send NotifyFunc
}

// NewNotifier creates a desktop notifier backed by beeep
func NewNotifier() *Notifier {
	beeep.AppName = AppName
	return NewNotifierWith(beeep.Notify)
}

// NewNotifierWith creates a notifier posting through send
func NewNotifierWith(send NotifyFunc) *Notifier {
	return &Notifier{send: send}
}

// Notify posts a notification and returns when it is handed to the platform
// or ctx is done, whichever comes first. A platform call that outlives ctx
// finishes in the background.
func (n *Notifier) Notify(ctx context.Context, title, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	done := make(chan error, 1)
	go func() {
		done <- n.send(title, body, "")
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("desktop notification: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("desktop notification: %w", ctx.Err())
	}
}
