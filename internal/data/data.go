package data

import (
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/devricklin/automessage/internal/biz/repo"
)

// Repositories contains all state repositories
type Repositories struct {
	Rule     repo.RuleRepo
	Audit    repo.AuditRepo
	Settings repo.SettingsRepo

	store *Store
}

// NewRepositories opens the state directory: the state database and the settings file
func NewRepositories(stateDir string, logger *zap.Logger) (*Repositories, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	store, err := OpenStore(filepath.Join(stateDir, StateDBName))
	if err != nil {
		return nil, err
	}

	settingsRepo, err := NewSettingsRepo(filepath.Join(stateDir, SettingsFileName))
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Repositories{
		Rule:     NewRuleRepo(store, logger.Named("rules")),
		Audit:    NewAuditRepo(store, logger.Named("audit")),
		Settings: settingsRepo,
		store:    store,
	}, nil
}

// StatePath returns the state database path
func (r *Repositories) StatePath() string {
	return r.store.Path()
}

// Close releases the state database
func (r *Repositories) Close() error {
	if err := r.store.Close(); err != nil {
		return fmt.Errorf("close state database: %w", err)
	}
	return nil
}
