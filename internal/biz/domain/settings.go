package domain

import "time"

// Auto-paste delay bounds in seconds
const (
	MinPasteDelay     = 0.1
	MaxPasteDelay     = 3.0
	DefaultPasteDelay = 0.5

	// SubmitAfterPasteDelay separates the paste keystroke from the submit keystroke
	SubmitAfterPasteDelay = 100 * time.Millisecond
)

// Settings keys in the flat key-value store
const (
	KeyMonitoringEnabled = "monitoring-enabled"
	KeyAutoPasteEnabled  = "autopaste-enabled"
	KeyAutoPasteDelay    = "autopaste-delay"
	KeyAutoPasteEnter    = "autopaste-autoenter"
	KeyLaunchAtLogin     = "launch-at-login-enabled"
	KeyShowNotification  = "show-notification"
	KeyShowMenuBarIcon   = "show-menubar-icon"
	KeyShowWindowHotkey  = "show-window-hotkey"
)

// SettingKeys lists every key the store understands, in display order
var SettingKeys = []string{
	KeyMonitoringEnabled,
	KeyAutoPasteEnabled,
	KeyAutoPasteDelay,
	KeyAutoPasteEnter,
	KeyLaunchAtLogin,
	KeyShowNotification,
	KeyShowMenuBarIcon,
	KeyShowWindowHotkey,
}

// ActionSettings controls what happens after a match
type ActionSettings struct {
	AutoPasteEnabled     bool
	DelaySeconds         float64
	AutoSubmitAfterPaste bool
}

// DefaultActionSettings returns the factory defaults
func DefaultActionSettings() ActionSettings {
	return ActionSettings{DelaySeconds: DefaultPasteDelay}
}

// PasteDelay returns the clamped paste delay as a duration
func (s ActionSettings) PasteDelay() time.Duration {
	return time.Duration(ClampDelay(s.DelaySeconds) * float64(time.Second))
}

// ClampDelay maps a stored delay into the allowed range; zero means default
func ClampDelay(seconds float64) float64 {
	switch {
	case seconds == 0:
		return DefaultPasteDelay
	case seconds < MinPasteDelay:
		return MinPasteDelay
	case seconds > MaxPasteDelay:
		return MaxPasteDelay
	}
	return seconds
}

// GeneralSettings holds values owned by the user surface
type GeneralSettings struct {
	ShowNotification bool
	ShowMenuBarIcon  bool
	LaunchAtLogin    bool
	ShowWindowHotkey string
}

// DefaultGeneralSettings returns the factory defaults
func DefaultGeneralSettings() GeneralSettings {
	return GeneralSettings{
		ShowNotification: true,
		ShowMenuBarIcon:  true,
		ShowWindowHotkey: "cmd+m",
	}
}

// Snapshot is a consistent read of every setting
type Snapshot struct {
	Monitoring bool
	Action     ActionSettings
	General    GeneralSettings
}
