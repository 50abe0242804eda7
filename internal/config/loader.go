package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// TokenEnv overrides telegram.token when set.
const TokenEnv = "CRYSTALGATE_TELEGRAM_TOKEN"

// ConfigPath returns the default configuration file path: ~/.crystalgate/config.yaml.
func ConfigPath() string {
	return filepath.Join(DataDir(), "config.yaml")
}

// DataDir returns the crystalgate data directory: ~/.crystalgate.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".crystalgate"
	}
	return filepath.Join(home, ".crystalgate")
}

// LockDir is where pollers keep their single-instance lock files.
func LockDir() string {
	return filepath.Join(DataDir(), "locks")
}

// StateDir holds persisted poller offsets.
func StateDir() string {
	return filepath.Join(DataDir(), "state")
}

// Load reads and parses the config file at path, then applies TokenEnv.
// If path is empty, ConfigPath() is used.
// On parse failure it prints a warning and returns DefaultConfig().
func Load(path string) (*Config, error) {
	cfg, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	if tok := os.Getenv(TokenEnv); tok != "" {
		cfg.Telegram.Token = tok
	}
	return cfg, nil
}

// LoadFile is Load without environment overrides, for rewriting the file.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		path = ConfigPath()
	}

	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to parse config %s: %v\n", path, err)
			fmt.Fprintln(os.Stderr, "Using default configuration.")
			cfg = DefaultConfig()
		}
	}
	return &cfg, nil
}

// Save writes cfg to path as YAML.
// If path is empty, ConfigPath() is used.
func Save(cfg *Config, path string) error {
	if path == "" {
		path = ConfigPath()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	// The file holds the bot token.
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
