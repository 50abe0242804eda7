// Package cmd implements the crystalgate CLI using cobra.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/crystalgate/internal/config"
	"github.com/crystaldolphin/crystalgate/internal/logging"
)

const version = "0.1.0"
const logo = "🐬"

var (
	configPath string
	logLevel   string
	logFormat  string
)

// rootCmd is the base command.
var rootCmd = &cobra.Command{
	Use:           "crystalgate",
	Short:         logo + " crystalgate — Telegram bot gateway with pluggable skills",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and exits on error.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = version

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default ~/.crystalgate/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: text or json (overrides config)")

	rootCmd.AddCommand(onboardCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(updatesCmd)
	rootCmd.AddCommand(toolsCmd)
	rootCmd.AddCommand(scheduleCmd)
}

// loadConfig reads the config file and installs the logger it describes.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level, format := cfg.Log.Level, cfg.Log.Format
	if logLevel != "" {
		level = logLevel
	}
	if logFormat != "" {
		format = logFormat
	}
	if _, err := logging.Setup(os.Stderr, level, format); err != nil {
		return nil, err
	}
	return cfg, nil
}

// requireToken fails early with a hint when no bot token is configured.
func requireToken(cfg *config.Config) error {
	if cfg.Telegram.Token == "" {
		return fmt.Errorf("telegram bot token not configured: set telegram.token in %s or %s", resolvedConfigPath(), config.TokenEnv)
	}
	return nil
}

func resolvedConfigPath() string {
	if configPath != "" {
		return configPath
	}
	return config.ConfigPath()
}
