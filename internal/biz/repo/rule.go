package repo

import (
	"context"

	"github.com/devricklin/automessage/internal/biz/domain"
)

// RuleRepo is the rule persistence interface
type RuleRepo interface {
	// Load gets the persisted rule set.
	// found is false when nothing was persisted or the stored value could not be decoded.
	Load(ctx context.Context) (rules domain.RuleSet, found bool, err error)

	// Save replaces the persisted rule set, keeping order
	Save(ctx context.Context, rules domain.RuleSet) error
}
