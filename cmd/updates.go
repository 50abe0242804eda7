package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/crystalgate/internal/container"
	"github.com/crystaldolphin/crystalgate/internal/gateway"
)

var (
	updatesOffset  int64
	updatesTimeout int
	updatesReset   bool
)

var updatesCmd = &cobra.Command{
	Use:   "updates",
	Short: "Fetch pending updates once and print them as JSON lines",
	Args:  cobra.NoArgs,
	RunE:  runUpdates,
}

func init() {
	updatesCmd.Flags().Int64Var(&updatesOffset, "offset", 0, "First update ID to return (omit to use the server cursor)")
	updatesCmd.Flags().IntVar(&updatesTimeout, "timeout", 0, "Long-poll wait in seconds")
	updatesCmd.Flags().BoolVar(&updatesReset, "reset-offset", false, "Forget the saved poller offset and exit")
}

func runUpdates(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requireToken(cfg); err != nil {
		return err
	}
	c, err := container.New(cfg)
	if err != nil {
		return err
	}

	if updatesReset {
		if err := c.Offsets().Forget(c.Token()); err != nil {
			return fmt.Errorf("reset offset: %w", err)
		}
		fmt.Println("✓ Saved offset cleared; the next run resumes from the server cursor.")
		return nil
	}

	opts := []gateway.UpdatesOption{gateway.WithPollTimeout(updatesTimeout)}
	if cmd.Flags().Changed("offset") {
		opts = append(opts, gateway.WithOffset(updatesOffset))
	}

	updates, err := c.Gateway().GetUpdates(context.Background(), c.Token(), opts...)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	for _, u := range updates {
		if err := enc.Encode(u); err != nil {
			return err
		}
	}
	if len(updates) > 0 {
		fmt.Fprintf(os.Stderr, "next offset: %d\n", updates[len(updates)-1].UpdateID+1)
	}
	return nil
}
