package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devricklin/automessage/internal/biz/domain"
	"github.com/devricklin/automessage/internal/biz/repo"
)

var (
	// ErrRuleNotFound is returned when no rule has the requested id
	ErrRuleNotFound = errors.New("rule not found")
	// ErrDuplicateRule is returned when a rule id is already taken
	ErrDuplicateRule = errors.New("duplicate rule id")
)

// RulePatch carries the editable fields of a rule; nil fields are left alone
type RulePatch struct {
	Name        *string
	Pattern     *string
	Description *string
	Enabled     *bool
}

// RuleUsecase owns the ordered rule set.
// Every mutation is persisted before it becomes visible and then announced on the bus.
type RuleUsecase struct {
	ruleRepo repo.RuleRepo
	seed     domain.RuleSet
	bus      *EventBus
	logger   *zap.Logger

	mu    sync.RWMutex
	rules domain.RuleSet
}

// NewRuleUsecase creates a new rule usecase.
// seed is used when nothing is persisted; an empty seed falls back to the built-in defaults.
func NewRuleUsecase(
	ruleRepo repo.RuleRepo,
	seed domain.RuleSet,
	bus *EventBus,
	logger *zap.Logger,
) *RuleUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RuleUsecase{
		ruleRepo: ruleRepo,
		seed:     seed,
		bus:      bus,
		logger:   logger,
	}
}

// Load reads the persisted rule set, seeding defaults when none is stored.
// Seeded defaults are not written back until the first edit.
func (uc *RuleUsecase) Load(ctx context.Context) error {
	uc.mu.Lock()
	rules, found, err := uc.ruleRepo.Load(ctx)
	if err != nil {
		uc.mu.Unlock()
		return fmt.Errorf("load rules: %w", err)
	}
	if !found {
		rules = uc.seedRules()
		uc.logger.Info("no saved rules, using defaults", zap.Int("count", len(rules)))
	}
	uc.rules = rules
	uc.mu.Unlock()

	uc.publish()
	return nil
}

// Reload re-reads the persisted rule set after an external edit.
// When nothing decodable is stored the in-memory set is kept.
// Mutations wait for the reload, so none of them is lost to a stale read.
func (uc *RuleUsecase) Reload(ctx context.Context) error {
	uc.mu.Lock()
	rules, found, err := uc.ruleRepo.Load(ctx)
	if err != nil {
		uc.mu.Unlock()
		return fmt.Errorf("reload rules: %w", err)
	}
	if !found {
		uc.mu.Unlock()
		return nil
	}
	uc.rules = rules
	uc.mu.Unlock()

	uc.publish()
	return nil
}

// Snapshot returns a copy of the current rule set
func (uc *RuleUsecase) Snapshot() domain.RuleSet {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return uc.rules.Clone()
}

// Get returns the rule with id
func (uc *RuleUsecase) Get(id string) (domain.Rule, error) {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	i := uc.rules.IndexOf(id)
	if i < 0 {
		return domain.Rule{}, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
	}
	return uc.rules[i], nil
}

// Add appends a rule at the end of the set.
// A missing id or name is filled in; the pattern is not validated.
func (uc *RuleUsecase) Add(ctx context.Context, rule domain.Rule) (domain.Rule, error) {
	if rule.ID == "" {
		rule.ID = uuid.NewString()
	}
	if rule.Name == "" {
		rule.Name = domain.DefaultRuleName
	}
	rule.LastModified = time.Now()

	err := uc.mutate(ctx, func(rules domain.RuleSet) (domain.RuleSet, error) {
		if rules.IndexOf(rule.ID) >= 0 {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateRule, rule.ID)
		}
		return append(rules, rule), nil
	})
	if err != nil {
		return domain.Rule{}, err
	}
	return rule, nil
}

// Update applies patch to the rule with id in place, keeping its position
func (uc *RuleUsecase) Update(ctx context.Context, id string, patch RulePatch) (domain.Rule, error) {
	var updated domain.Rule
	err := uc.mutate(ctx, func(rules domain.RuleSet) (domain.RuleSet, error) {
		i := rules.IndexOf(id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
		}
		r := rules[i]
		if patch.Name != nil {
			r.Name = *patch.Name
		}
		if patch.Pattern != nil {
			r.Pattern = *patch.Pattern
		}
		if patch.Description != nil {
			r.Description = *patch.Description
		}
		if patch.Enabled != nil {
			r.IsEnabled = *patch.Enabled
		}
		r.LastModified = time.Now()
		rules[i] = r
		updated = r
		return rules, nil
	})
	return updated, err
}

// SetEnabled toggles a rule
func (uc *RuleUsecase) SetEnabled(ctx context.Context, id string, enabled bool) (domain.Rule, error) {
	return uc.Update(ctx, id, RulePatch{Enabled: &enabled})
}

// Remove deletes the rule with id
func (uc *RuleUsecase) Remove(ctx context.Context, id string) error {
	return uc.mutate(ctx, func(rules domain.RuleSet) (domain.RuleSet, error) {
		i := rules.IndexOf(id)
		if i < 0 {
			return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
		}
		return append(rules[:i], rules[i+1:]...), nil
	})
}

// Move places the rule with id at position to, clamped to the set bounds
func (uc *RuleUsecase) Move(ctx context.Context, id string, to int) error {
	return uc.mutate(ctx, func(rules domain.RuleSet) (domain.RuleSet, error) {
		from := rules.IndexOf(id)
		if from < 0 {
			return nil, fmt.Errorf("%w: %s", ErrRuleNotFound, id)
		}
		if to < 0 {
			to = 0
		}
		if to >= len(rules) {
			to = len(rules) - 1
		}
		r := rules[from]
		rules = append(rules[:from], rules[from+1:]...)
		rules = append(rules[:to], append(domain.RuleSet{r}, rules[to:]...)...)
		return rules, nil
	})
}

// Replace swaps the whole set, as done by an import.
// Rules without an id get a fresh one; duplicate ids are rejected.
func (uc *RuleUsecase) Replace(ctx context.Context, rules domain.RuleSet) error {
	next := rules.Clone()
	seen := make(map[string]struct{}, len(next))
	now := time.Now()
	for i := range next {
		if next[i].ID == "" {
			next[i].ID = uuid.NewString()
		}
		if next[i].Name == "" {
			next[i].Name = domain.DefaultRuleName
		}
		if next[i].LastModified.IsZero() {
			next[i].LastModified = now
		}
		if _, dup := seen[next[i].ID]; dup {
			return fmt.Errorf("%w: %s", ErrDuplicateRule, next[i].ID)
		}
		seen[next[i].ID] = struct{}{}
	}

	return uc.mutate(ctx, func(domain.RuleSet) (domain.RuleSet, error) {
		return next, nil
	})
}

// mutate applies fn to a private copy, persists the result and only then commits it
func (uc *RuleUsecase) mutate(ctx context.Context, fn func(domain.RuleSet) (domain.RuleSet, error)) error {
	uc.mu.Lock()
	next, err := fn(uc.rules.Clone())
	if err != nil {
		uc.mu.Unlock()
		return err
	}
	if err := uc.ruleRepo.Save(ctx, next); err != nil {
		uc.mu.Unlock()
		return fmt.Errorf("save rules: %w", err)
	}
	uc.rules = next
	uc.mu.Unlock()

	uc.publish()
	return nil
}

func (uc *RuleUsecase) seedRules() domain.RuleSet {
	if len(uc.seed) > 0 {
		return uc.seed.Clone()
	}
	return domain.DefaultRules()
}

func (uc *RuleUsecase) publish() {
	uc.bus.Publish(domain.Event{Type: domain.EventRulesChanged, Source: "rules"})
}
