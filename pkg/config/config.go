package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	envConfigPath       = "DESKBOT_CONFIG"
	envTelegramBotToken = "TELEGRAM_BOT_TOKEN"
	envOpenAIAPIKey     = "OPENAI_API_KEY"
)

// Config is the root runtime configuration loaded from config.json.
type Config struct {
	Loop          LoopConfig           `json:"loop"`
	Driver        DriverConfig         `json:"driver"`
	Conversations []ConversationConfig `json:"conversations"`
	Plugins       PluginsConfig        `json:"plugins,omitempty"`
	Logging       LoggingConfig        `json:"logging,omitempty"`
}

// LoggingConfig controls structured log output format and verbosity.
type LoggingConfig struct {
	Format    string `json:"format,omitempty"`
	Level     string `json:"level,omitempty"`
	AddSource bool   `json:"add_source,omitempty"`
}

// LoopConfig controls the polling scheduler.
type LoopConfig struct {
	Mode             string `json:"mode"`
	PollIntervalMS   int    `json:"poll_interval_ms"`
	BackoffMS        int    `json:"backoff_ms"`
	ConcurrencyLimit int    `json:"concurrency_limit"`
}

// DriverConfig stores automation boundary settings.
type DriverConfig struct {
	SendDelayMS int            `json:"send_delay_ms"`
	Telegram    TelegramConfig `json:"telegram"`
}

// TelegramConfig configures the Telegram boundary adapter. Chats maps a
// conversation name to its numeric chat ID.
type TelegramConfig struct {
	Token string           `json:"token"`
	Chats map[string]int64 `json:"chats"`
}

// ConversationConfig declares one conversation the bot listens to.
type ConversationConfig struct {
	Name        string          `json:"name"`
	Kind        string          `json:"kind"`
	Level       int             `json:"level,omitempty"`
	HistorySize int             `json:"history_size,omitempty"`
	SaveImage   bool            `json:"save_image,omitempty"`
	SaveVoice   bool            `json:"save_voice,omitempty"`
	SaveFile    bool            `json:"save_file,omitempty"`
	Managers    []ManagerConfig `json:"managers,omitempty"`
}

// ManagerConfig grants one group member a manager level.
type ManagerConfig struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

// PluginsConfig groups the built-in plugin settings.
type PluginsConfig struct {
	AdminCommands AdminCommandsConfig `json:"admin_commands"`
	Filters       FiltersConfig       `json:"filters"`
	Responders    RespondersConfig    `json:"responders"`
	Greeting      GreetingConfig      `json:"greeting"`
}

// AdminCommandsConfig toggles the slash-command plugin.
type AdminCommandsConfig struct {
	Enabled bool `json:"enabled"`
}

// FiltersConfig toggles the built-in message filters.
type FiltersConfig struct {
	DropSystem bool     `json:"drop_system"`
	DropTime   bool     `json:"drop_time"`
	DropRecall bool     `json:"drop_recall"`
	DropSelf   bool     `json:"drop_self"`
	Keywords   []string `json:"keywords,omitempty"`
}

// RespondersConfig configures the built-in responders.
type RespondersConfig struct {
	Log     LogResponderConfig `json:"log"`
	Archive ArchiveConfig      `json:"archive"`
	AI      AIResponderConfig  `json:"ai"`
}

// LogResponderConfig toggles the log responder.
type LogResponderConfig struct {
	Enabled bool `json:"enabled"`
}

// ArchiveConfig configures the SQLite message archive.
type ArchiveConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// AIResponderConfig configures the AI chat responder.
type AIResponderConfig struct {
	Enabled       bool     `json:"enabled"`
	APIKey        string   `json:"api_key"`
	Model         string   `json:"model"`
	Prompt        string   `json:"prompt,omitempty"`
	TriggerWords  []string `json:"trigger_words,omitempty"`
	ReplyChance   float64  `json:"reply_chance,omitempty"`
	HistoryWindow int      `json:"history_window,omitempty"`
}

// GreetingConfig holds the static opening and ending announcements. Empty
// strings disable the respective announcement.
type GreetingConfig struct {
	Opening string `json:"opening,omitempty"`
	Ending  string `json:"ending,omitempty"`
}

// LoadConfig resolves config.json, unmarshals it, and applies environment overrides.
func LoadConfig() (*Config, error) {
	configPath, err := findConfigPath()
	if err != nil {
		return nil, err
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(content, &cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	applyEnvOverrides(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// applyEnvOverrides injects selected env-driven settings on top of file config.
func applyEnvOverrides(cfg *Config) {
	if cfg == nil {
		return
	}

	if token := strings.TrimSpace(os.Getenv(envTelegramBotToken)); token != "" {
		cfg.Driver.Telegram.Token = token
	}

	if key := strings.TrimSpace(os.Getenv(envOpenAIAPIKey)); key != "" {
		cfg.Plugins.Responders.AI.APIKey = key
	}
}

// validate rejects configurations that cannot produce a working bot.
func validate(cfg *Config) error {
	if strings.TrimSpace(cfg.Driver.Telegram.Token) == "" {
		return fmt.Errorf("driver.telegram.token is required (or set %s)", envTelegramBotToken)
	}

	seen := make(map[string]struct{}, len(cfg.Conversations))
	for i, conv := range cfg.Conversations {
		name := strings.TrimSpace(conv.Name)
		if name == "" {
			return fmt.Errorf("conversations[%d]: name is required", i)
		}
		if _, dup := seen[name]; dup {
			return fmt.Errorf("conversations[%d]: duplicate name %q", i, name)
		}
		seen[name] = struct{}{}

		if _, ok := cfg.Driver.Telegram.Chats[name]; !ok {
			return fmt.Errorf("conversations[%d]: no chat ID mapped for %q in driver.telegram.chats", i, name)
		}
	}

	return nil
}

// findConfigPath resolves the active config file location.
//
// Precedence is DESKBOT_CONFIG first, then cwd-local fallback paths.
func findConfigPath() (string, error) {
	if value := strings.TrimSpace(os.Getenv(envConfigPath)); value != "" {
		if info, err := os.Stat(value); err == nil && !info.IsDir() {
			return value, nil
		}
		return "", fmt.Errorf("%s does not point to a file: %s", envConfigPath, value)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("get current working directory: %w", err)
	}

	candidates := []string{
		filepath.Join(cwd, "config.json"),
		filepath.Join(cwd, "config", "config.json"),
	}

	for _, candidate := range candidates {
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}

	return "", fmt.Errorf("config.json not found (checked %s and %s)", candidates[0], candidates[1])
}
