package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/crystalgate/internal/config"
	"github.com/crystaldolphin/crystalgate/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show crystalgate status",
	RunE:  runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	cfgPath := resolvedConfigPath()

	fmt.Printf("%s crystalgate Status\n\n", logo)

	_, statErr := os.Stat(cfgPath)
	fmt.Printf("Config:     %s %s\n", cfgPath, yesNo(statErr == nil))

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("  (could not load config: %v)\n", err)
		return nil
	}

	t := cfg.Telegram
	fmt.Printf("Token:      %s\n", config.TokenHint(t.Token))
	fmt.Printf("API base:   %s\n", t.APIBase)
	fmt.Printf("Long poll:  %ds (+%s margin)\n", t.PollTimeout, t.PollMargin)
	fmt.Printf("Send:       %s timeout\n", t.SendTimeout)
	if len(t.AllowFrom) == 0 {
		fmt.Println("Allow from: everyone")
	} else {
		fmt.Printf("Allow from: %v\n", t.AllowFrom)
	}
	fmt.Printf("Echo:       %s\n", yesNo(t.Echo))
	fmt.Printf("Schedules:  %d\n", len(cfg.Schedules))
	if t.PersistOffset && t.Token != "" {
		if off, ok := state.NewOffsetStore(config.StateDir()).Load(t.Token); ok {
			fmt.Printf("Offset:     %d\n", off)
		} else {
			fmt.Println("Offset:     (none saved)")
		}
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "✓"
	}
	return "✗"
}
