package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/devricklin/automessage/internal/biz/domain"
)

// Config represents application configuration
type Config struct {
	// Message store configuration
	Store StoreConfig

	// Monitor configuration
	Monitor MonitorConfig

	// Audit log configuration
	Audit AuditConfig

	// Rules seed configuration
	Rules RulesConfig

	// Feishu notification configuration (optional)
	Feishu FeishuConfig

	// Logging configuration
	Log LogConfig

	// Debug mode
	Debug bool
}

// StoreConfig contains file locations
type StoreConfig struct {
	ChatDBPath string // Messages chat.db, opened read-only
	StateDir   string // Holds state.db and settings.toml
}

// MonitorConfig contains polling configuration
type MonitorConfig struct {
	PollInterval        time.Duration
	InitialLoadLimit    int
	MaxVisibleMessages  int
	MatchTimeout        time.Duration // Per-pattern backtracking limit, 0 disables it
	CancelPendingOnStop bool          // Retract scheduled paste/submit when monitoring stops
}

// AuditConfig contains audit log configuration
type AuditConfig struct {
	Cap int
}

// RulesConfig contains the rule seed location
type RulesConfig struct {
	SeedPath string
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID        string
	AppSecret    string
	NotifyChatID string // Chat that receives code notifications
}

// Enabled reports whether the Feishu notification sink is configured
func (c FeishuConfig) Enabled() bool {
	return c.AppID != "" && c.AppSecret != "" && c.NotifyChatID != ""
}

// LogConfig contains logging configuration
type LogConfig struct {
	Level string
}

// Defaults
const (
	DefaultPollInterval       = time.Second
	DefaultInitialLoadLimit   = 20
	DefaultMaxVisibleMessages = 200
	DefaultMatchTimeout       = 250 * time.Millisecond
)

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	homeDir, _ := os.UserHomeDir()

	// Message store
	chatDBPath := expandHome(os.Getenv("AUTOMESSAGE_CHAT_DB"), homeDir)
	if chatDBPath == "" {
		chatDBPath = filepath.Join(homeDir, "Library", "Messages", "chat.db")
	}

	// State directory
	stateDir := expandHome(os.Getenv("AUTOMESSAGE_STATE_DIR"), homeDir)
	if stateDir == "" {
		stateDir = filepath.Join(homeDir, ".automessage")
	}

	// Poll interval
	pollInterval := DefaultPollInterval
	if val := os.Getenv("POLL_INTERVAL_MS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			pollInterval = time.Duration(parsed) * time.Millisecond
		}
	}

	// Initial page size on start
	initialLoad := DefaultInitialLoadLimit
	if val := os.Getenv("INITIAL_LOAD_LIMIT"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			initialLoad = parsed
		}
	}

	// Pattern timeout
	matchTimeout := DefaultMatchTimeout
	if val := os.Getenv("MATCH_TIMEOUT_MS"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			matchTimeout = time.Duration(parsed) * time.Millisecond
		}
	}

	// Audit cap
	auditCap := domain.DefaultAuditCap
	if val := os.Getenv("AUDIT_LOG_CAP"); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			auditCap = parsed
		}
	}

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}

	return &Config{
		Store: StoreConfig{
			ChatDBPath: chatDBPath,
			StateDir:   stateDir,
		},
		Monitor: MonitorConfig{
			PollInterval:        pollInterval,
			InitialLoadLimit:    initialLoad,
			MaxVisibleMessages:  DefaultMaxVisibleMessages,
			MatchTimeout:        matchTimeout,
			CancelPendingOnStop: os.Getenv("CANCEL_PENDING_ON_STOP") == "true",
		},
		Audit: AuditConfig{
			Cap: auditCap,
		},
		Rules: RulesConfig{
			SeedPath: os.Getenv("RULES_SEED_PATH"),
		},
		Feishu: FeishuConfig{
			AppID:        os.Getenv("FEISHU_APP_ID"),
			AppSecret:    os.Getenv("FEISHU_APP_SECRET"),
			NotifyChatID: os.Getenv("FEISHU_NOTIFY_CHAT_ID"),
		},
		Log: LogConfig{
			Level: strings.ToLower(logLevel),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}
}

// expandHome replaces a leading ~ with the home directory
func expandHome(path, homeDir string) string {
	if path == "~" {
		return homeDir
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(homeDir, path[2:])
	}
	return path
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Store.StateDir == "" {
		return &ConfigError{Field: "AUTOMESSAGE_STATE_DIR", Message: "required"}
	}
	if c.Monitor.PollInterval <= 0 {
		return &ConfigError{Field: "POLL_INTERVAL_MS", Message: "must be positive"}
	}
	if c.Monitor.InitialLoadLimit <= 0 {
		return &ConfigError{Field: "INITIAL_LOAD_LIMIT", Message: "must be positive"}
	}
	if c.Monitor.MatchTimeout < 0 {
		return &ConfigError{Field: "MATCH_TIMEOUT_MS", Message: "must not be negative"}
	}
	if c.Audit.Cap <= 0 {
		return &ConfigError{Field: "AUDIT_LOG_CAP", Message: "must be positive"}
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ConfigError{Field: "LOG_LEVEL", Message: "must be one of debug, info, warn, error"}
	}

	// Feishu is optional but must be complete when partially set
	f := c.Feishu
	if (f.AppID != "" || f.AppSecret != "" || f.NotifyChatID != "") && !f.Enabled() {
		return &ConfigError{Field: "FEISHU_APP_ID/FEISHU_APP_SECRET/FEISHU_NOTIFY_CHAT_ID", Message: "all three are required together"}
	}
	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Field + ": " + e.Message
}
