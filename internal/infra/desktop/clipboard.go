package desktop

import (
	"fmt"

	"github.com/atotto/clipboard"
)

// Clipboard writes the system clipboard
type Clipboard struct{}

// NewClipboard creates a system clipboard writer
func NewClipboard() *Clipboard {
	return &Clipboard{}
}

// SetString replaces the clipboard content
func (c *Clipboard) SetString(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("write clipboard: %w", err)
	}
	return nil
}

// ClipboardAvailable reports whether a clipboard backend exists on this machine
func ClipboardAvailable() bool {
	return !clipboard.Unsupported
}
