package data

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/devricklin/automessage/internal/biz/domain"
	"github.com/devricklin/automessage/internal/biz/repo"
)

// Persistence keys in the kv table
const (
	KeySavedRules = "SavedRules"
	KeySavedLogs  = "SavedLogs"
)

// ruleRepo implements the Rule repository as one JSON array
type ruleRepo struct {
	store  *Store
	logger *zap.Logger
}

// NewRuleRepo creates a new Rule repository
func NewRuleRepo(store *Store, logger *zap.Logger) repo.RuleRepo {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ruleRepo{store: store, logger: logger}
}

// Load reads the saved rules; a value that cannot be decoded counts as not found
func (r *ruleRepo) Load(ctx context.Context) (domain.RuleSet, bool, error) {
	raw, found, err := r.store.Get(ctx, KeySavedRules)
	if err != nil || !found {
		return nil, false, err
	}

	var rules domain.RuleSet
	if err := json.Unmarshal(raw, &rules); err != nil {
		r.logger.Warn("saved rules unreadable, falling back to defaults", zap.Error(err))
		return nil, false, nil
	}
	return rules, true, nil
}

// Save writes the rule set in order
func (r *ruleRepo) Save(ctx context.Context, rules domain.RuleSet) error {
	if rules == nil {
		rules = domain.RuleSet{}
	}
	raw, err := json.Marshal(rules)
	if err != nil {
		return err
	}
	return r.store.Put(ctx, KeySavedRules, raw)
}
