package domain

import (
	"time"

	"github.com/google/uuid"
)

// Rule is a named, enable-able pattern used to extract a substring from message text.
// Pattern is kept as an opaque string; it is only compiled at match time.
type Rule struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Pattern      string    `json:"pattern"`
	IsEnabled    bool      `json:"isEnabled"`
	Description  string    `json:"description"`
	LastModified time.Time `json:"lastModified"`
}

// DefaultRuleName is used when a rule is created without a name
const DefaultRuleName = "New rule"

// NewRule creates an enabled rule with a fresh identifier
func NewRule(name, pattern, description string) Rule {
	if name == "" {
		name = DefaultRuleName
	}
	return Rule{
		ID:           uuid.NewString(),
		Name:         name,
		Pattern:      pattern,
		IsEnabled:    true,
		Description:  description,
		LastModified: time.Now(),
	}
}

// RuleSet is an ordered rule list; order decides which rule wins
type RuleSet []Rule

// Clone returns a copy that does not share backing storage
func (rs RuleSet) Clone() RuleSet {
	if rs == nil {
		return nil
	}
	out := make(RuleSet, len(rs))
	copy(out, rs)
	return out
}

// IndexOf returns the position of the rule with id, or -1
func (rs RuleSet) IndexOf(id string) int {
	for i := range rs {
		if rs[i].ID == id {
			return i
		}
	}
	return -1
}

// EnabledCount counts enabled rules
func (rs RuleSet) EnabledCount() int {
	n := 0
	for _, r := range rs {
		if r.IsEnabled {
			n++
		}
	}
	return n
}

// DefaultRules returns the seed rule set used when nothing is persisted
func DefaultRules() RuleSet {
	return RuleSet{
		NewRule(
			"6-digit code",
			`(?<![0-9])[0-9]{6}(?![0-9])`,
			"Matches a 6 digit verification code such as 123456",
		),
		NewRule(
			"4-8 char alphanumeric code",
			`(?i)(?<![a-z0-9])[a-z0-9]{4,8}(?![a-z0-9])`,
			"Matches 4 to 8 letters and digits such as a2B4 or 12345678",
		),
	}
}
