// Package config defines the configuration schema for crystalgate.
//
// The file is YAML with camelCase keys, stored at ~/.crystalgate/config.yaml.
package config

import (
	"time"

	"github.com/crystaldolphin/crystalgate/internal/gateway"
)

// TelegramConfig configures the bot connection.
type TelegramConfig struct {
	Token       string        `yaml:"token"`
	APIBase     string        `yaml:"apiBase,omitempty"`
	PollTimeout int           `yaml:"pollTimeout"` // seconds
	PollMargin  time.Duration `yaml:"pollMargin"`
	SendTimeout time.Duration `yaml:"sendTimeout"`
	Backoff     time.Duration `yaml:"backoff"`
	AllowFrom   []string      `yaml:"allowFrom"`
	Echo        bool          `yaml:"echo"`
	// SingleInstance guards against two pollers sharing one token.
	SingleInstance bool `yaml:"singleInstance"`
	// PersistOffset keeps the update cursor on disk so a restart does not
	// replay the last batch.
	PersistOffset bool `yaml:"persistOffset"`
}

func defaultTelegramConfig() TelegramConfig {
	return TelegramConfig{
		APIBase:        gateway.DefaultBaseURL,
		PollTimeout:    gateway.DefaultPollTimeout,
		PollMargin:     10 * time.Second,
		SendTimeout:    10 * time.Second,
		Backoff:        5 * time.Second,
		AllowFrom:      []string{},
		SingleInstance: true,
		PersistOffset:  true,
	}
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Level  string `yaml:"level"`  // debug | info | warn | error
	Format string `yaml:"format"` // text | json
}

func defaultLogConfig() LogConfig {
	return LogConfig{Level: "info", Format: "text"}
}

// ScheduleConfig is one scheduled announcement.
type ScheduleConfig struct {
	Name      string `yaml:"name,omitempty"`
	Spec      string `yaml:"spec"`
	ChatID    int64  `yaml:"chatId"`
	ThreadID  int64  `yaml:"threadId,omitempty"`
	ParseMode string `yaml:"parseMode,omitempty"`
	Text      string `yaml:"text"`
}

// Config is the root configuration.
type Config struct {
	Telegram  TelegramConfig   `yaml:"telegram"`
	Log       LogConfig        `yaml:"log"`
	Schedules []ScheduleConfig `yaml:"schedules"`
}

// DefaultConfig returns a Config with every default filled in.
func DefaultConfig() Config {
	return Config{
		Telegram:  defaultTelegramConfig(),
		Log:       defaultLogConfig(),
		Schedules: []ScheduleConfig{},
	}
}

// TokenHint shows enough of a token to recognise it without revealing it.
func TokenHint(s string) string {
	if s == "" {
		return "(not configured)"
	}
	if len(s) > 10 {
		return s[:6] + "..."
	}
	return "***"
}
