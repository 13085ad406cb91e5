// Package daemon loads configuration and runs the engagement service:
// the SQLite store, the ledger and validator services, and the HTTP API.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

// Config is the daemon configuration, loaded from TOML.
type Config struct {
	API       APIConfig       `toml:"api"`
	Storage   StorageConfig   `toml:"storage"`
	Ledger    LedgerConfig    `toml:"ledger"`
	Validator ValidatorConfig `toml:"validator"`
}

// APIConfig controls the HTTP listener.
type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
}

// Addr returns the host:port listen address.
func (a APIConfig) Addr() string {
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// StorageConfig controls where the SQLite database lives.
type StorageConfig struct {
	Path string `toml:"path"`
}

// LedgerConfig controls point values and level pacing.
type LedgerConfig struct {
	LevelSize int64            `toml:"level_size"`
	Timezone  string           `toml:"timezone"`
	Points    map[string]int64 `toml:"points"` // per-activity overrides
}

// ValidatorConfig controls scan limits and QR keys.
type ValidatorConfig struct {
	WindowSeconds int    `toml:"window_seconds"`
	MaxAttempts   int    `toml:"max_attempts"`
	MaxQRAgeHours int    `toml:"max_qr_age_hours"`
	SigningKey    string `toml:"signing_key"`
	SealKey       string `toml:"seal_key"` // 32 bytes enables sealed QR payloads
}

// Window returns the rate-limit window as a duration.
func (v ValidatorConfig) Window() time.Duration {
	return time.Duration(v.WindowSeconds) * time.Second
}

// MaxQRAge returns the QR freshness bound as a duration.
func (v ValidatorConfig) MaxQRAge() time.Duration {
	return time.Duration(v.MaxQRAgeHours) * time.Hour
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    8090,
			Metrics: true,
		},
		Storage: StorageConfig{
			Path: "~/.eserbisyo",
		},
		Ledger: LedgerConfig{
			LevelSize: 100,
			Timezone:  "Asia/Manila",
		},
		Validator: ValidatorConfig{
			WindowSeconds: 60,
			MaxAttempts:   10,
			MaxQRAgeHours: 24,
		},
	}
}

// DefaultConfigPath returns the config file location, honoring ESERBISYO_HOME.
func DefaultConfigPath() string {
	return filepath.Join(homeDir(), "config.toml")
}

// Load reads the config file at path, applying defaults for anything the
// file omits. A missing file yields the defaults with no error.
func Load(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		path = DefaultConfigPath()
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// StorageDir returns the storage path with ~ expanded.
func (c Config) StorageDir() string {
	return expandHome(c.Storage.Path)
}

// homeDir returns the service home directory, honoring ESERBISYO_HOME.
func homeDir() string {
	if env := os.Getenv("ESERBISYO_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".eserbisyo")
}

// expandHome expands a leading ~ to the user home directory.
func expandHome(path string) string {
	if path == "" {
		return homeDir()
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if len(path) > 1 && path[0] == '~' && path[1] == '/' {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}
