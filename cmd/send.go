package cmd

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/crystalgate/internal/container"
	"github.com/crystaldolphin/crystalgate/internal/gateway"
)

var (
	sendThreadID  int64
	sendParseMode string
)

var sendCmd = &cobra.Command{
	Use:   "send <chat_id> <text>",
	Short: "Send one message",
	Args:  cobra.ExactArgs(2),
	RunE:  runSend,
}

func init() {
	sendCmd.Flags().Int64Var(&sendThreadID, "thread", 0, "Forum topic ID")
	sendCmd.Flags().StringVar(&sendParseMode, "parse-mode", "", "Formatting mode: HTML, MarkdownV2, Markdown")
}

func runSend(cmd *cobra.Command, args []string) error {
	chatID, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid chat_id %q", args[0])
	}

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

	var opts []gateway.SendOption
	if cmd.Flags().Changed("thread") {
		opts = append(opts, gateway.WithThreadID(sendThreadID))
	}
	if sendParseMode != "" {
		opts = append(opts, gateway.WithParseMode(sendParseMode))
	}

	sent, err := c.Gateway().SendMessage(context.Background(), c.Token(), chatID, args[1], opts...)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Sent message %d to chat %d at %s\n", sent.MessageID, sent.ChatID, sent.SentAt().Format("2006-01-02 15:04:05"))
	return nil
}
