package domain

import "time"

// Message represents a row read from the message store
type Message struct {
	ID        int64 // Store-assigned row identity, monotonically increasing
	Text      string
	Timestamp time.Time
	IsFromMe  bool   // Whether the message was sent by the local user
	Code      string // Extracted code, set once a rule matched (display only)
}

// IsEligible checks if the message may be scanned by rules.
// Messages sent by the local user are never matched.
func (m *Message) IsEligible() bool {
	return !m.IsFromMe
}

// HasCode checks if a code was extracted from the message
func (m *Message) HasCode() bool {
	return m.Code != ""
}

// MaxID returns the largest ID in msgs, or floor when msgs holds nothing larger
func MaxID(floor int64, msgs []Message) int64 {
	max := floor
	for _, m := range msgs {
		if m.ID > max {
			max = m.ID
		}
	}
	return max
}
