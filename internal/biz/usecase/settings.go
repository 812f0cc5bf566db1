package usecase

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/devricklin/automessage/internal/biz/domain"
	"github.com/devricklin/automessage/internal/biz/repo"
)

var (
	// ErrUnknownSetting is returned for keys the store does not understand
	ErrUnknownSetting = errors.New("unknown setting")
	// ErrInvalidSetting is returned when a value cannot be parsed for its key
	ErrInvalidSetting = errors.New("invalid setting value")
)

// Setting is one key with its effective value rendered as text
type Setting struct {
	Key   string
	Value string
}

// SettingsUsecase reads and writes user preferences with defaults applied
type SettingsUsecase struct {
	settingsRepo repo.SettingsRepo
	bus          *EventBus
	logger       *zap.Logger

	mu sync.Mutex // Serializes writers
}

// NewSettingsUsecase creates a new settings usecase
func NewSettingsUsecase(settingsRepo repo.SettingsRepo, bus *EventBus, logger *zap.Logger) *SettingsUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsUsecase{
		settingsRepo: settingsRepo,
		bus:          bus,
		logger:       logger,
	}
}

// Snapshot reads every setting at once
func (uc *SettingsUsecase) Snapshot() domain.Snapshot {
	return domain.Snapshot{
		Monitoring: uc.Monitoring(),
		Action:     uc.Action(),
		General:    uc.General(),
	}
}

// Monitoring returns the persisted monitor state
func (uc *SettingsUsecase) Monitoring() bool {
	return uc.settingsRepo.GetBool(domain.KeyMonitoringEnabled, false)
}

// Action returns the post-match settings with the delay clamped
func (uc *SettingsUsecase) Action() domain.ActionSettings {
	def := domain.DefaultActionSettings()
	return domain.ActionSettings{
		AutoPasteEnabled:     uc.settingsRepo.GetBool(domain.KeyAutoPasteEnabled, def.AutoPasteEnabled),
		DelaySeconds:         domain.ClampDelay(uc.settingsRepo.GetFloat(domain.KeyAutoPasteDelay, def.DelaySeconds)),
		AutoSubmitAfterPaste: uc.settingsRepo.GetBool(domain.KeyAutoPasteEnter, def.AutoSubmitAfterPaste),
	}
}

// General returns the surface-owned settings
func (uc *SettingsUsecase) General() domain.GeneralSettings {
	def := domain.DefaultGeneralSettings()
	return domain.GeneralSettings{
		ShowNotification: uc.settingsRepo.GetBool(domain.KeyShowNotification, def.ShowNotification),
		ShowMenuBarIcon:  uc.settingsRepo.GetBool(domain.KeyShowMenuBarIcon, def.ShowMenuBarIcon),
		LaunchAtLogin:    uc.settingsRepo.GetBool(domain.KeyLaunchAtLogin, def.LaunchAtLogin),
		ShowWindowHotkey: uc.settingsRepo.GetString(domain.KeyShowWindowHotkey, def.ShowWindowHotkey),
	}
}

// SetMonitoring persists the monitor state
func (uc *SettingsUsecase) SetMonitoring(enabled bool) error {
	return uc.store(domain.KeyMonitoringEnabled, enabled)
}

// Set parses raw for key and persists it
func (uc *SettingsUsecase) Set(key, raw string) error {
	raw = strings.TrimSpace(raw)
	switch key {
	case domain.KeyAutoPasteDelay:
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 {
			return fmt.Errorf("%w: %s=%q", ErrInvalidSetting, key, raw)
		}
		return uc.store(key, domain.ClampDelay(v))
	case domain.KeyShowWindowHotkey:
		return uc.store(key, raw)
	case domain.KeyMonitoringEnabled,
		domain.KeyAutoPasteEnabled,
		domain.KeyAutoPasteEnter,
		domain.KeyLaunchAtLogin,
		domain.KeyShowNotification,
		domain.KeyShowMenuBarIcon:
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidSetting, key, raw)
		}
		return uc.store(key, v)
	}
	return fmt.Errorf("%w: %s", ErrUnknownSetting, key)
}

// Get renders the effective value of key
func (uc *SettingsUsecase) Get(key string) (string, error) {
	for _, s := range uc.List() {
		if s.Key == key {
			return s.Value, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownSetting, key)
}

// List renders every setting in display order
func (uc *SettingsUsecase) List() []Setting {
	snap := uc.Snapshot()
	values := map[string]string{
		domain.KeyMonitoringEnabled: strconv.FormatBool(snap.Monitoring),
		domain.KeyAutoPasteEnabled:  strconv.FormatBool(snap.Action.AutoPasteEnabled),
		domain.KeyAutoPasteDelay:    strconv.FormatFloat(snap.Action.DelaySeconds, 'f', -1, 64),
		domain.KeyAutoPasteEnter:    strconv.FormatBool(snap.Action.AutoSubmitAfterPaste),
		domain.KeyLaunchAtLogin:     strconv.FormatBool(snap.General.LaunchAtLogin),
		domain.KeyShowNotification:  strconv.FormatBool(snap.General.ShowNotification),
		domain.KeyShowMenuBarIcon:   strconv.FormatBool(snap.General.ShowMenuBarIcon),
		domain.KeyShowWindowHotkey:  snap.General.ShowWindowHotkey,
	}

	out := make([]Setting, 0, len(domain.SettingKeys))
	for _, k := range domain.SettingKeys {
		out = append(out, Setting{Key: k, Value: values[k]})
	}
	return out
}

// Reload re-reads the backing file after an external edit
func (uc *SettingsUsecase) Reload() error {
	if err := uc.settingsRepo.Reload(); err != nil {
		return fmt.Errorf("reload settings: %w", err)
	}
	uc.publish()
	return nil
}

// Path returns the settings file location
func (uc *SettingsUsecase) Path() string {
	return uc.settingsRepo.Path()
}

func (uc *SettingsUsecase) store(key string, value any) error {
	uc.mu.Lock()
	err := uc.settingsRepo.Set(key, value)
	uc.mu.Unlock()
	if err != nil {
		return fmt.Errorf("save setting %s: %w", key, err)
	}

	uc.logger.Debug("setting changed", zap.String("key", key), zap.Any("value", value))
	uc.publish()
	return nil
}

func (uc *SettingsUsecase) publish() {
	uc.bus.Publish(domain.Event{Type: domain.EventSettingsChanged, Source: "settings"})
}
