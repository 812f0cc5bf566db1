package repo

import (
	"context"
	"errors"
)

// ErrInjectionUnsupported is returned when keystrokes cannot be synthesized on this platform
var ErrInjectionUnsupported = errors.New("input injection unsupported on this platform")

// ClipboardRepo writes the system clipboard
type ClipboardRepo interface {
	// SetString replaces the clipboard content
	SetString(text string) error
}

// NotifierRepo posts a user notification
// Delivery is not confirmed
type NotifierRepo interface {
	Notify(ctx context.Context, title, body string) error
}

// InjectorRepo synthesizes keystrokes into the focused application
type InjectorRepo interface {
	// Paste sends the platform paste combination
	Paste(ctx context.Context) error

	// Submit sends the submit (return) key
	Submit(ctx context.Context) error
}
