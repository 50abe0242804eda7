// Package host turns inbound chat messages into skill tool calls and sends
// the results back to the chat they came from.
package host

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode"

	"github.com/crystaldolphin/crystalgate/internal/gateway"
	"github.com/crystaldolphin/crystalgate/internal/poller"
	"github.com/crystaldolphin/crystalgate/internal/skill"
)

// Sender is the gateway operation used for replies.
type Sender interface {
	SendMessage(ctx context.Context, token string, chatID int64, text string, opts ...gateway.SendOption) (*gateway.SentMessage, error)
}

// Host dispatches "/<tool> <json>" commands to the skill registry.
type Host struct {
	registry *skill.Registry
	sender   Sender
	token    string
	echo     bool
}

// New creates a Host. With echo set, plain (non-command) messages are sent
// back verbatim.
func New(reg *skill.Registry, sender Sender, token string, echo bool) *Host {
	return &Host{registry: reg, sender: sender, token: token, echo: echo}
}

// HandleMessage is a poller.Handler.
func (h *Host) HandleMessage(ctx context.Context, msg poller.Message) {
	name, args, ok := parseCommand(msg)
	if !ok {
		if h.echo {
			h.reply(ctx, msg, msg.Text)
		}
		return
	}

	slog.Info("host: command", "command", name, "chat", msg.ChatID, "sender", msg.SenderID)

	switch name {
	case "start", "help":
		h.reply(ctx, msg, "Send /tools to list the available tools, then /<tool> {json arguments} to run one.")
	case "tools":
		h.reply(ctx, msg, h.toolList())
	default:
		if _, ok := h.registry.Lookup(name); !ok {
			h.reply(ctx, msg, fmt.Sprintf("Unknown command /%s. Try /tools.", name))
			return
		}
		res, err := h.registry.Dispatch(ctx, skill.ToolCall{Name: name, Arguments: args}, HostContext(msg))
		if err != nil {
			slog.Warn("host: tool failed", "tool", name, "err", err)
			h.reply(ctx, msg, "Error: "+err.Error())
			return
		}
		if res.Content != "" {
			h.reply(ctx, msg, res.Content)
		}
	}
}

// HostContext builds the skill context for a message.
func HostContext(msg poller.Message) skill.HostContext {
	hc := skill.HostContext{
		ChatID:   msg.ChatID,
		ThreadID: msg.ThreadID,
		SenderID: msg.SenderID,
		Values: map[string]string{
			"update_id": strconv.FormatInt(msg.UpdateID, 10),
		},
	}
	if msg.Username != "" {
		hc.Values["username"] = msg.Username
	}
	return hc
}

func (h *Host) toolList() string {
	tools := h.registry.Tools()
	if len(tools) == 0 {
		return "No tools available."
	}
	var sb strings.Builder
	sb.WriteString("Available tools:\n")
	for _, td := range tools {
		fmt.Fprintf(&sb, "/%s - %s\n", td.Name, td.Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func (h *Host) reply(ctx context.Context, msg poller.Message, text string) {
	var opts []gateway.SendOption
	if msg.ThreadID != 0 {
		opts = append(opts, gateway.WithThreadID(msg.ThreadID))
	}
	if _, err := h.sender.SendMessage(ctx, h.token, msg.ChatID, text, opts...); err != nil {
		slog.Error("host: reply failed", "chat", msg.ChatID, "err", err)
	}
}

// parseCommand extracts the command name (without a "@botname" suffix) and
// its argument string.
func parseCommand(msg poller.Message) (name, args string, ok bool) {
	if msg.Raw != nil && msg.Raw.IsCommand() {
		return msg.Raw.Command(), strings.TrimSpace(msg.Raw.CommandArguments()), true
	}

	text := strings.TrimSpace(msg.Text)
	if !strings.HasPrefix(text, "/") || len(text) < 2 {
		return "", "", false
	}
	name = text[1:]
	if i := strings.IndexFunc(name, unicode.IsSpace); i >= 0 {
		name, args = name[:i], name[i+1:]
	}
	if i := strings.Index(name, "@"); i != -1 {
		name = name[:i]
	}
	if name == "" {
		return "", "", false
	}
	return name, strings.TrimSpace(args), true
}
