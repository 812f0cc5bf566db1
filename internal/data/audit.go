package data

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/devricklin/automessage/internal/biz/domain"
	"github.com/devricklin/automessage/internal/biz/repo"
)

// auditRepo implements the Audit repository as one JSON array
type auditRepo struct {
	store  *Store
	logger *zap.Logger
}

// NewAuditRepo creates a new Audit repository
func NewAuditRepo(store *Store, logger *zap.Logger) repo.AuditRepo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &auditRepo{store: store, logger: logger}
}

// Load reads the saved entries; a value that cannot be decoded yields an empty log
func (r *auditRepo) Load(ctx context.Context) ([]domain.AuditEntry, error) {
	raw, found, err := r.store.Get(ctx, KeySavedLogs)
	if err != nil || !found {
		return nil, err
	}

	var entries []domain.AuditEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		r.logger.Warn("saved audit log unreadable, starting empty", zap.Error(err))
		return nil, nil
	}
	return entries, nil
}

// Save writes the entries, newest first
func (r *auditRepo) Save(ctx context.Context, entries []domain.AuditEntry) error {
	if entries == nil {
		entries = []domain.AuditEntry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, KeySavedLogs, raw)
}
