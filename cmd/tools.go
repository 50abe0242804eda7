package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/crystaldolphin/crystalgate/internal/container"
	"github.com/crystaldolphin/crystalgate/internal/skill"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "Inspect and call skill tools",
}

func init() {
	toolsCmd.AddCommand(toolsListCmd)
	toolsCmd.AddCommand(toolsCallCmd)
}

// ---- list ------------------------------------------------------------------

var toolsListJSON bool

var toolsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List available tools",
	RunE: func(_ *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		c, err := container.New(cfg)
		if err != nil {
			return err
		}

		if toolsListJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(c.Registry().Definitions())
		}

		fmt.Printf("%-26s %s\n", "Tool", "Description")
		fmt.Println(repeatStr("-", 80))
		for _, td := range c.Registry().Tools() {
			fmt.Printf("%-26s %s\n", td.Name, truncStr(td.Description, 53))
		}
		return nil
	},
}

func init() {
	toolsListCmd.Flags().BoolVar(&toolsListJSON, "json", false, "Print OpenAI function-calling definitions")
}

// ---- call ------------------------------------------------------------------

var (
	toolsCallChat   int64
	toolsCallThread int64
)

var toolsCallCmd = &cobra.Command{
	Use:   "call <tool> [json-arguments]",
	Short: "Run a tool as the host would",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(_ *cobra.Command, args []string) error {
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

		call := skill.ToolCall{Name: args[0]}
		if len(args) == 2 {
			call.Arguments = args[1]
		}
		hc := skill.HostContext{ChatID: toolsCallChat, ThreadID: toolsCallThread}

		res, err := c.Registry().Dispatch(context.Background(), call, hc)
		if err != nil {
			return err
		}
		fmt.Println(res.Content)
		return nil
	},
}

func init() {
	toolsCallCmd.Flags().Int64Var(&toolsCallChat, "chat", 0, "Chat ID supplied as host context")
	toolsCallCmd.Flags().Int64Var(&toolsCallThread, "thread", 0, "Thread ID supplied as host context")
}

func truncStr(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}

func repeatStr(s string, n int) string {
	var b string
	for i := 0; i < n; i++ {
		b += s
	}
	return b
}
