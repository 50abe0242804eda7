package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/crystaldolphin/crystalgate/internal/container"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll Telegram for messages and run scheduled announcements",
	RunE:  runGateway,
}

func runGateway(_ *cobra.Command, _ []string) error {
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

	fmt.Printf("%s Starting crystalgate (%d tools, %d schedules)...\n",
		logo, len(c.Registry().Tools()), c.Scheduler().Len())

	// Graceful shutdown context.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return c.Poller().Run(gctx) })
	g.Go(func() error { return c.Scheduler().Start(gctx) })

	fmt.Printf("%s Running. Press Ctrl+C to stop.\n", logo)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "crystalgate error: %v\n", err)
		return err
	}
	if off, ok := c.Poller().Offset(); ok {
		fmt.Printf("\nShutdown complete (next offset %d).\n", off)
		return nil
	}
	fmt.Println("\nShutdown complete.")
	return nil
}
