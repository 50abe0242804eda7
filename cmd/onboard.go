package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/crystalgate/internal/config"
)

var onboardCmd = &cobra.Command{
	Use:   "onboard",
	Short: "Create or refresh the configuration file",
	RunE:  runOnboard,
}

func runOnboard(_ *cobra.Command, _ []string) error {
	cfgPath := resolvedConfigPath()

	if _, err := os.Stat(cfgPath); err == nil {
		existing, err := config.LoadFile(cfgPath)
		if err != nil {
			return err
		}
		if err := config.Save(existing, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Config refreshed at %s\n", cfgPath)
	} else {
		cfg := config.DefaultConfig()
		if err := config.Save(&cfg, cfgPath); err != nil {
			return err
		}
		fmt.Printf("✓ Created config at %s\n", cfgPath)
	}

	fmt.Printf("\n%s crystalgate is ready!\n\n", logo)
	fmt.Println("Next steps:")
	fmt.Printf("  1. Put your bot token under telegram.token in %s\n", cfgPath)
	fmt.Println("     Get one from @BotFather")
	fmt.Println("  2. Run: crystalgate run")
	return nil
}
