package repo

import (
	"context"

	"github.com/devricklin/automessage/internal/biz/domain"
)

// AuditRepo is the audit log persistence interface
type AuditRepo interface {
	// Load gets persisted entries, newest first.
	// A stored value that cannot be decoded yields an empty list.
	Load(ctx context.Context) ([]domain.AuditEntry, error)

	// Save replaces the persisted entries
	Save(ctx context.Context, entries []domain.AuditEntry) error
}
