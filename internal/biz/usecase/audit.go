package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/devricklin/automessage/internal/biz/domain"
	"github.com/devricklin/automessage/internal/biz/repo"
)

// ErrAuditEntryNotFound is returned when no audit entry has the requested id
var ErrAuditEntryNotFound = errors.New("audit entry not found")

// AuditUsecase keeps the capped, newest-first record of extracted codes
type AuditUsecase struct {
	auditRepo repo.AuditRepo
	limit     int
	bus       *EventBus
	logger    *zap.Logger
	now       func() time.Time

	mu      sync.Mutex
	entries []domain.AuditEntry
}

// NewAuditUsecase creates a new audit usecase. A non-positive limit uses DefaultAuditCap.
func NewAuditUsecase(
	auditRepo repo.AuditRepo,
	limit int,
	bus *EventBus,
	logger *zap.Logger,
) *AuditUsecase {
	if limit <= 0 {
		limit = domain.DefaultAuditCap
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditUsecase{
		auditRepo: auditRepo,
		limit:     limit,
		bus:       bus,
		logger:    logger,
		now:       time.Now,
	}
}

// Load reads persisted entries, trimming them to the cap.
// The lock is held across read and commit so a concurrent Append is never overwritten.
func (uc *AuditUsecase) Load(ctx context.Context) error {
	uc.mu.Lock()
	entries, err := uc.auditRepo.Load(ctx)
	if err != nil {
		uc.mu.Unlock()
		return fmt.Errorf("load audit log: %w", err)
	}
	if len(entries) > uc.limit {
		entries = entries[:uc.limit]
	}
	uc.entries = entries
	uc.mu.Unlock()

	uc.publish()
	return nil
}

// Reload re-reads the log after an external edit
func (uc *AuditUsecase) Reload(ctx context.Context) error {
	return uc.Load(ctx)
}

// Append records a match at the front of the log and persists it.
// The entry stays in memory even when persisting fails.
func (uc *AuditUsecase) Append(ctx context.Context, matched, source, ruleName string) (domain.AuditEntry, error) {
	entry := domain.NewAuditEntry(matched, source, ruleName, uc.now())

	uc.mu.Lock()
	uc.entries = domain.PrependCapped(uc.entries, entry, uc.limit)
	snapshot := uc.copyLocked()
	err := uc.auditRepo.Save(ctx, snapshot)
	uc.mu.Unlock()

	uc.publish()
	if err != nil {
		return entry, fmt.Errorf("save audit log: %w", err)
	}
	return entry, nil
}

// List returns up to limit entries, newest first; limit <= 0 returns all
func (uc *AuditUsecase) List(limit int) []domain.AuditEntry {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	out := uc.copyLocked()
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Latest returns the newest entry
func (uc *AuditUsecase) Latest() (domain.AuditEntry, bool) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	if len(uc.entries) == 0 {
		return domain.AuditEntry{}, false
	}
	return uc.entries[0], true
}

// Get returns the entry with id
func (uc *AuditUsecase) Get(id string) (domain.AuditEntry, error) {
	uc.mu.Lock()
	defer uc.mu.Unlock()

	for _, e := range uc.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.AuditEntry{}, fmt.Errorf("%w: %s", ErrAuditEntryNotFound, id)
}

// Len returns the number of entries
func (uc *AuditUsecase) Len() int {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return len(uc.entries)
}

// Clear drops every entry and persists the empty log
func (uc *AuditUsecase) Clear(ctx context.Context) error {
	uc.mu.Lock()
	uc.entries = nil
	err := uc.auditRepo.Save(ctx, []domain.AuditEntry{})
	uc.mu.Unlock()

	uc.publish()
	if err != nil {
		return fmt.Errorf("save audit log: %w", err)
	}
	return nil
}

func (uc *AuditUsecase) copyLocked() []domain.AuditEntry {
	out := make([]domain.AuditEntry, len(uc.entries))
	copy(out, uc.entries)
	return out
}

func (uc *AuditUsecase) publish() {
	uc.bus.Publish(domain.Event{Type: domain.EventAuditChanged, Source: "audit"})
}
