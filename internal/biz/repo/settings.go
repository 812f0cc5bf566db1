package repo

// SettingsRepo is the flat key-value settings store
type SettingsRepo interface {
	GetBool(key string, def bool) bool
	GetFloat(key string, def float64) float64
	GetString(key string, def string) string

	// Set stores a primitive value and persists the store
	Set(key string, value any) error

	// Reload re-reads the backing file after an external edit
	Reload() error

	// Path returns the backing file path
	Path() string
}
