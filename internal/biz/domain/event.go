package domain

// EventType identifies what changed
type EventType string

const (
	EventRulesChanged     EventType = "rules_changed"
	EventSettingsChanged  EventType = "settings_changed"
	EventAuditChanged     EventType = "audit_changed"
	EventMonitorStarted   EventType = "monitor_started"
	EventMonitorStopped   EventType = "monitor_stopped"
	EventMessagesAppended EventType = "messages_appended"
)

// Event is published after a state mutation.
// Subscribers re-read the relevant snapshot instead of trusting a payload.
type Event struct {
	Type   EventType
	Source string // Component that published the event
}
