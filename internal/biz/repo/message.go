package repo

import (
	"context"
	"errors"

	"github.com/devricklin/automessage/internal/biz/domain"
)

// ErrStoreUnavailable is returned when the message store could not be opened
var ErrStoreUnavailable = errors.New("message store unavailable")

// MessageRepo is the message store interface
// Read-only view over an append-only log that this process does not own
type MessageRepo interface {
	// Latest gets up to limit most recent messages with text, newest first
	Latest(ctx context.Context, limit int) ([]domain.Message, error)

	// After gets every message with text whose ID is greater than id, newest first
	After(ctx context.Context, id int64) ([]domain.Message, error)

	// Close releases the underlying connection
	Close() error
}
