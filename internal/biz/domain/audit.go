package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultAuditCap is the maximum number of audit entries kept
const DefaultAuditCap = 1000

// AuditEntry records one extracted code
type AuditEntry struct {
	ID                string    `json:"id"`
	MatchedText       string    `json:"code"`
	SourceMessageText string    `json:"message"`
	Timestamp         time.Time `json:"timestamp"`
	RuleName          string    `json:"ruleName"`
}

// NewAuditEntry creates an entry stamped with the given time
func NewAuditEntry(matched, source, ruleName string, at time.Time) AuditEntry {
	return AuditEntry{
		ID:                uuid.NewString(),
		MatchedText:       matched,
		SourceMessageText: source,
		Timestamp:         at,
		RuleName:          ruleName,
	}
}

// PrependCapped inserts entry at the front and drops the oldest entries past limit.
// The returned slice is newest first.
func PrependCapped(entries []AuditEntry, entry AuditEntry, limit int) []AuditEntry {
	out := make([]AuditEntry, 0, len(entries)+1)
	out = append(out, entry)
	out = append(out, entries...)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
