package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	return path
}

func TestLoadConfigFromEnvPath(t *testing.T) {
	content := `{
	  "loop": {"mode": "half_concurrent", "poll_interval_ms": 500, "concurrency_limit": 4},
	  "driver": {
	    "send_delay_ms": 250,
	    "telegram": {"token": "test-token", "chats": {"boss": 100, "team": -200}}
	  },
	  "conversations": [
	    {"name": "boss", "kind": "admin", "level": 2},
	    {"name": "team", "kind": "group", "history_size": 300, "managers": [{"name": "alice", "level": 1}]}
	  ],
	  "plugins": {
	    "responders": {"archive": {"enabled": true, "path": "messages.db"}}
	  },
	  "logging": {"format": "json", "level": "debug", "add_source": true}
	}`
	t.Setenv("DESKBOT_CONFIG", writeConfig(t, content))

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}

	if cfg.Loop.Mode != "half_concurrent" {
		t.Fatalf("loop.mode = %q, want %q", cfg.Loop.Mode, "half_concurrent")
	}
	if cfg.Driver.SendDelayMS != 250 {
		t.Fatalf("driver.send_delay_ms = %d, want 250", cfg.Driver.SendDelayMS)
	}
	if cfg.Driver.Telegram.Chats["team"] != -200 {
		t.Fatalf("chats[team] = %d, want -200", cfg.Driver.Telegram.Chats["team"])
	}
	if len(cfg.Conversations) != 2 || cfg.Conversations[1].Managers[0].Name != "alice" {
		t.Fatalf("conversations = %+v", cfg.Conversations)
	}
	if !cfg.Plugins.Responders.Archive.Enabled || cfg.Plugins.Responders.Archive.Path != "messages.db" {
		t.Fatalf("archive = %+v", cfg.Plugins.Responders.Archive)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" || !cfg.Logging.AddSource {
		t.Fatalf("logging = %+v", cfg.Logging)
	}
}

func TestLoadConfigInvalidEnvPath(t *testing.T) {
	t.Setenv("DESKBOT_CONFIG", filepath.Join(t.TempDir(), "missing.json"))

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing config path")
	}
}

func TestEnvTokenOverridesFile(t *testing.T) {
	content := `{
	  "driver": {"telegram": {"token": "file-token", "chats": {}}},
	  "conversations": []
	}`
	t.Setenv("DESKBOT_CONFIG", writeConfig(t, content))
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig error: %v", err)
	}
	if cfg.Driver.Telegram.Token != "env-token" {
		t.Fatalf("token = %q, want env override", cfg.Driver.Telegram.Token)
	}
}

func TestValidateRejectsMissingToken(t *testing.T) {
	t.Setenv("DESKBOT_CONFIG", writeConfig(t, `{"conversations": []}`))
	t.Setenv("TELEGRAM_BOT_TOKEN", "")

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for missing telegram token")
	}
}

func TestValidateRejectsUnmappedConversation(t *testing.T) {
	content := `{
	  "driver": {"telegram": {"token": "t", "chats": {"boss": 1}}},
	  "conversations": [{"name": "stranger", "kind": "friend"}]
	}`
	t.Setenv("DESKBOT_CONFIG", writeConfig(t, content))

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for conversation without a chat mapping")
	}
}

func TestValidateRejectsDuplicateConversation(t *testing.T) {
	content := `{
	  "driver": {"telegram": {"token": "t", "chats": {"boss": 1}}},
	  "conversations": [{"name": "boss", "kind": "admin"}, {"name": "boss", "kind": "friend"}]
	}`
	t.Setenv("DESKBOT_CONFIG", writeConfig(t, content))

	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected error for duplicate conversation names")
	}
}
