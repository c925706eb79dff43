package conf

import (
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/DevRickLin/feishu-watchbot/internal/biz/usecase"
	"github.com/DevRickLin/feishu-watchbot/internal/logger"
)

// Config represents application configuration
type Config struct {
	// Owner is the open_id of the watched account
	OwnerID string

	// Feishu configuration
	Feishu FeishuConfig

	// Webhook configuration
	Webhook WebhookConfig

	// Settings store configuration
	Settings SettingsConfig

	// Watch configuration
	Watch WatchConfig

	// Log configuration
	Log logger.Config

	// Debug mode
	Debug bool
}

// FeishuConfig contains Feishu configuration
type FeishuConfig struct {
	AppID         string
	AppSecret     string
	WorkspaceName string // Label used as the guild name in notifications
}

// WebhookConfig contains outbound webhook configuration
type WebhookConfig struct {
	BaseURL     string
	ID          string
	Token       string
	Timeout     time.Duration
	MaxInFlight int
}

// SettingsConfig contains settings store configuration
type SettingsConfig struct {
	DBPath string
}

// WatchConfig contains mention watcher configuration
type WatchConfig struct {
	PatternMode string // literal or regex
}

// LoadFromEnv loads configuration from environment variables
func LoadFromEnv() *Config {
	// Settings DB path
	settingsDBPath := os.Getenv("SETTINGS_DB_PATH")
	if settingsDBPath == "" {
		homeDir, _ := os.UserHomeDir()
		settingsDBPath = filepath.Join(homeDir, ".feishu-watchbot", "settings.db")
	}

	workspaceName := os.Getenv("WORKSPACE_NAME")
	if workspaceName == "" {
		workspaceName = "Feishu"
	}

	debug := os.Getenv("DEBUG") == "true"
	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" && debug {
		logLevel = "debug"
	}

	return &Config{
		OwnerID: os.Getenv("OWNER_ID"),
		Feishu: FeishuConfig{
			AppID:         os.Getenv("FEISHU_APP_ID"),
			AppSecret:     os.Getenv("FEISHU_APP_SECRET"),
			WorkspaceName: workspaceName,
		},
		Webhook: WebhookConfig{
			BaseURL:     os.Getenv("WEBHOOK_BASE_URL"),
			ID:          os.Getenv("WEBHOOK_ID"),
			Token:       os.Getenv("WEBHOOK_TOKEN"),
			Timeout:     time.Duration(envInt("WEBHOOK_TIMEOUT_SECONDS", 10)) * time.Second,
			MaxInFlight: envInt("WEBHOOK_MAX_INFLIGHT", 16),
		},
		Settings: SettingsConfig{
			DBPath: settingsDBPath,
		},
		Watch: WatchConfig{
			PatternMode: os.Getenv("WATCH_PATTERN_MODE"),
		},
		Log: logger.Config{
			Level:  logLevel,
			Format: os.Getenv("LOG_FORMAT"),
		},
		Debug: debug,
	}
}

// envInt reads a positive integer, falling back to def
func envInt(name string, def int) int {
	if val := os.Getenv(name); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return def
}

// PatternMode returns the parsed watch pattern mode
func (c *Config) PatternMode() usecase.PatternMode {
	mode, _ := usecase.ParsePatternMode(c.Watch.PatternMode)
	return mode
}

// Validate validates the configuration needed to run the agent
func (c *Config) Validate() error {
	if c.OwnerID == "" {
		return &ConfigError{Field: "OWNER_ID", Message: "required"}
	}
	if c.Feishu.AppID == "" || c.Feishu.AppSecret == "" {
		return &ConfigError{Field: "FEISHU_APP_ID/FEISHU_APP_SECRET", Message: "required"}
	}
	if c.Webhook.ID == "" || c.Webhook.Token == "" {
		return &ConfigError{Field: "WEBHOOK_ID/WEBHOOK_TOKEN", Message: "required"}
	}
	if _, err := usecase.ParsePatternMode(c.Watch.PatternMode); err != nil {
		return &ConfigError{Field: "WATCH_PATTERN_MODE", Message: err.Error()}
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
