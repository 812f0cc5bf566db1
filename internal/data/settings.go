package data

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/viper"

	"github.com/devricklin/automessage/internal/biz/repo"
)

// SettingsFileName is the settings file inside the state directory
const SettingsFileName = "settings.toml"

// settingsRepo implements the Settings repository over a TOML file.
// Every write goes through a fresh viper instance so that values edited
// on disk are never shadowed by in-memory overrides.
type settingsRepo struct {
	path string

	mu sync.RWMutex
	v  *viper.Viper
}

// NewSettingsRepo creates a new Settings repository backed by path
func NewSettingsRepo(path string) (repo.SettingsRepo, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create settings directory: %w", err)
	}

	v, err := readSettings(path)
	if err != nil {
		return nil, err
	}
	return &settingsRepo{path: path, v: v}, nil
}

func readSettings(path string) (*viper.Viper, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetConfigFile(path)
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return v, nil
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read settings %s: %w", path, err)
	}
	return v, nil
}

// GetBool gets a boolean, or def when unset
func (r *settingsRepo) GetBool(key string, def bool) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.v.IsSet(key) {
		return def
	}
	return r.v.GetBool(key)
}

// GetFloat gets a number, or def when unset
func (r *settingsRepo) GetFloat(key string, def float64) float64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.v.IsSet(key) {
		return def
	}
	return r.v.GetFloat64(key)
}

// GetString gets a string, or def when unset
func (r *settingsRepo) GetString(key string, def string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if !r.v.IsSet(key) {
		return def
	}
	return r.v.GetString(key)
}

// Set writes one key and re-reads the file
func (r *settingsRepo) Set(key string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	w, err := readSettings(r.path)
	if err != nil {
		return err
	}
	w.Set(key, value)
	if err := w.WriteConfigAs(r.path); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	fresh, err := readSettings(r.path)
	if err != nil {
		return err
	}
	r.v = fresh
	return nil
}

// Reload re-reads the file
func (r *settingsRepo) Reload() error {
	fresh, err := readSettings(r.path)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.v = fresh
	r.mu.Unlock()
	return nil
}

// Path returns the settings file path
func (r *settingsRepo) Path() string {
	return r.path
}
