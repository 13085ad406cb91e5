package daemon

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want %q", cfg.API.Host, "127.0.0.1")
	}
	if cfg.API.Port != 8090 {
		t.Errorf("API.Port = %d, want %d", cfg.API.Port, 8090)
	}
	if cfg.API.Addr() != "127.0.0.1:8090" {
		t.Errorf("API.Addr() = %q", cfg.API.Addr())
	}
	if cfg.Ledger.LevelSize != 100 {
		t.Errorf("Ledger.LevelSize = %d, want 100", cfg.Ledger.LevelSize)
	}
	if cfg.Ledger.Timezone != "Asia/Manila" {
		t.Errorf("Ledger.Timezone = %q, want Asia/Manila", cfg.Ledger.Timezone)
	}
	if cfg.Validator.Window() != time.Minute {
		t.Errorf("Validator.Window() = %v, want 1m", cfg.Validator.Window())
	}
	if cfg.Validator.MaxAttempts != 10 {
		t.Errorf("Validator.MaxAttempts = %d, want 10", cfg.Validator.MaxAttempts)
	}
	if cfg.Validator.MaxQRAge() != 24*time.Hour {
		t.Errorf("Validator.MaxQRAge() = %v, want 24h", cfg.Validator.MaxQRAge())
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 8090 {
		t.Errorf("API.Port = %d, want default 8090", cfg.API.Port)
	}
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	body := `
[api]
port = 9000

[ledger]
level_size = 250

[ledger.points]
daily_login = 7

[validator]
max_attempts = 3
signing_key = "s3cret"
`
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.API.Port != 9000 {
		t.Errorf("API.Port = %d, want 9000", cfg.API.Port)
	}
	// Defaults survive for omitted keys.
	if cfg.API.Host != "127.0.0.1" {
		t.Errorf("API.Host = %q, want default", cfg.API.Host)
	}
	if cfg.Ledger.LevelSize != 250 {
		t.Errorf("Ledger.LevelSize = %d, want 250", cfg.Ledger.LevelSize)
	}
	if cfg.Ledger.Points["daily_login"] != 7 {
		t.Errorf("Ledger.Points[daily_login] = %d, want 7", cfg.Ledger.Points["daily_login"])
	}
	if cfg.Validator.MaxAttempts != 3 {
		t.Errorf("Validator.MaxAttempts = %d, want 3", cfg.Validator.MaxAttempts)
	}
	if cfg.Validator.SigningKey != "s3cret" {
		t.Errorf("Validator.SigningKey = %q", cfg.Validator.SigningKey)
	}
}

func TestBuildLedgerConfig(t *testing.T) {
	cfg := buildLedgerConfig(LedgerConfig{
		LevelSize: 250,
		Timezone:  "Asia/Manila",
		Points:    map[string]int64{"daily_login": 7},
	})
	if cfg.LevelSize != 250 {
		t.Errorf("LevelSize = %d, want 250", cfg.LevelSize)
	}
	if cfg.Location.String() != "Asia/Manila" {
		t.Errorf("Location = %v, want Asia/Manila", cfg.Location)
	}
	if cfg.Points["daily_login"] != 7 {
		t.Errorf("daily_login = %d, want 7", cfg.Points["daily_login"])
	}
	// Untouched entries keep their defaults.
	if cfg.Points["signup"] != 10 {
		t.Errorf("signup = %d, want 10", cfg.Points["signup"])
	}
}

func TestExpandHome(t *testing.T) {
	home, _ := os.UserHomeDir()
	if got := expandHome("~/data"); got != filepath.Join(home, "data") {
		t.Errorf("expandHome(~/data) = %q", got)
	}
	if got := expandHome("/abs/path"); got != "/abs/path" {
		t.Errorf("expandHome(/abs/path) = %q", got)
	}
}
