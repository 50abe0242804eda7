// Package telegram is a skill that lets the host send and read Telegram
// messages through the gateway client.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/crystaldolphin/crystalgate/internal/gateway"
	"github.com/crystaldolphin/crystalgate/internal/skill"
)

// Tool names.
const (
	ToolSendMessage = "telegram_send_message"
	ToolGetUpdates  = "telegram_get_updates"
)

// maxToolPollTimeout caps the wait a tool call may request, since the host
// runs tools on the receive loop.
const maxToolPollTimeout = 5

// Messenger is the subset of the gateway client the skill uses.
type Messenger interface {
	GetUpdates(ctx context.Context, token string, opts ...gateway.UpdatesOption) ([]gateway.Update, error)
	SendMessage(ctx context.Context, token string, chatID int64, text string, opts ...gateway.SendOption) (*gateway.SentMessage, error)
}

// Skill exposes Telegram messaging as tools.
type Skill struct {
	messenger Messenger
	token     string
}

// New creates the skill. token is the bot token used for every call.
func New(m Messenger, token string) *Skill {
	return &Skill{messenger: m, token: token}
}

func (s *Skill) Name() string { return "telegram" }

func (s *Skill) ListTools() []skill.ToolDescriptor {
	return []skill.ToolDescriptor{
		{
			Name:        ToolSendMessage,
			Description: "Send a text message to a Telegram chat. Defaults to the chat the request came from.",
			InputSchema: skill.ObjectSchema(map[string]skill.Property{
				"text":      {Type: "string", Description: "The message text"},
				"chat_id":   {Type: "integer", Description: "Optional: target chat ID"},
				"thread_id": {Type: "integer", Description: "Optional: forum topic ID"},
				"format": {
					Type:        "string",
					Description: "Optional: how to render text",
					Enum:        []string{"plain", "markdown", "html"},
				},
			}, "text"),
		},
		{
			Name:        ToolGetUpdates,
			Description: "Fetch pending inbound Telegram messages.",
			InputSchema: skill.ObjectSchema(map[string]skill.Property{
				"offset":  {Type: "integer", Description: "Optional: first update ID to return"},
				"timeout": {Type: "integer", Description: "Optional: seconds to wait for updates (default 0, max 5)"},
			}),
		},
	}
}

func (s *Skill) Execute(ctx context.Context, call skill.ToolCall, hc skill.HostContext) (skill.Result, error) {
	switch call.Name {
	case ToolSendMessage:
		return s.sendMessage(ctx, call, hc)
	case ToolGetUpdates:
		return s.getUpdates(ctx, call, hc)
	default:
		return skill.Result{}, fmt.Errorf("%w: %s", skill.ErrUnknownTool, call.Name)
	}
}

type sendArgs struct {
	Text     string `json:"text"`
	ChatID   *int64 `json:"chat_id"`
	ThreadID *int64 `json:"thread_id"`
	Format   string `json:"format"`
}

func (s *Skill) sendMessage(ctx context.Context, call skill.ToolCall, hc skill.HostContext) (skill.Result, error) {
	var args sendArgs
	if err := call.DecodeArguments(&args); err != nil {
		return skill.Result{}, err
	}
	if strings.TrimSpace(args.Text) == "" {
		return skill.Result{}, fmt.Errorf("text is required")
	}

	chatID := hc.ChatID
	if args.ChatID != nil {
		chatID = *args.ChatID
	}
	if chatID == 0 {
		return skill.Result{}, fmt.Errorf("no target chat specified")
	}

	var base []gateway.SendOption
	threadID := hc.ThreadID
	if args.ThreadID != nil {
		threadID = *args.ThreadID
	}
	if threadID != 0 {
		base = append(base, gateway.WithThreadID(threadID))
	}

	var ids []string
	for _, chunk := range splitMessage(args.Text, maxMessageLen) {
		sent, err := s.sendChunk(ctx, chatID, chunk, args.Format, base)
		if err != nil {
			return skill.Result{}, err
		}
		ids = append(ids, fmt.Sprintf("%d", sent.MessageID))
	}

	return skill.Result{
		Content: fmt.Sprintf("Sent %d message(s) to chat %d (ids: %s)", len(ids), chatID, strings.Join(ids, ", ")),
	}, nil
}

func (s *Skill) sendChunk(ctx context.Context, chatID int64, chunk, format string, base []gateway.SendOption) (*gateway.SentMessage, error) {
	switch format {
	case "", "plain":
		return s.messenger.SendMessage(ctx, s.token, chatID, chunk, base...)
	case "html":
		return s.messenger.SendMessage(ctx, s.token, chatID, chunk, append(base, gateway.WithParseMode(tgbotapi.ModeHTML))...)
	case "markdown":
		sent, err := s.messenger.SendMessage(ctx, s.token, chatID, markdownToHTML(chunk), append(base, gateway.WithParseMode(tgbotapi.ModeHTML))...)
		if gwErr, ok := gateway.AsError(err); ok && gwErr.StatusCode == http.StatusBadRequest {
			// Telegram rejected the generated markup; plain text still gets through.
			slog.Warn("telegram skill: HTML rejected, resending as plain text", "chat", chatID, "err", gwErr)
			return s.messenger.SendMessage(ctx, s.token, chatID, chunk, base...)
		}
		return sent, err
	default:
		return nil, fmt.Errorf("unsupported format %q", format)
	}
}

type updatesArgs struct {
	Offset  *int64 `json:"offset"`
	Timeout *int   `json:"timeout"`
}

// updateSummary is the tool-facing view of one update.
type updateSummary struct {
	UpdateID int64  `json:"update_id"`
	ChatID   int64  `json:"chat_id,omitempty"`
	ThreadID int64  `json:"thread_id,omitempty"`
	From     string `json:"from,omitempty"`
	Text     string `json:"text,omitempty"`
	Date     int    `json:"date,omitempty"`
}

func (s *Skill) getUpdates(ctx context.Context, call skill.ToolCall, hc skill.HostContext) (skill.Result, error) {
	var args updatesArgs
	if err := call.DecodeArguments(&args); err != nil {
		return skill.Result{}, err
	}
	// An offset confirms updates server-side; from a chat it would make the
	// running poller skip them.
	if args.Offset != nil && hc.ChatID != 0 {
		return skill.Result{}, fmt.Errorf("offset cannot be set from a chat")
	}

	timeout := 0
	if args.Timeout != nil {
		timeout = min(*args.Timeout, maxToolPollTimeout)
	}
	opts := []gateway.UpdatesOption{gateway.WithPollTimeout(timeout)}
	if args.Offset != nil {
		opts = append(opts, gateway.WithOffset(*args.Offset))
	}

	updates, err := s.messenger.GetUpdates(ctx, s.token, opts...)
	if err != nil {
		return skill.Result{}, err
	}

	summaries := make([]updateSummary, 0, len(updates))
	for _, u := range updates {
		sum := updateSummary{UpdateID: u.UpdateID}
		if msg, err := u.DecodeMessage(); err == nil {
			sum.Text = msg.Text
			sum.Date = msg.Date
			if msg.Chat != nil {
				sum.ChatID = msg.Chat.ID
			}
			if msg.From != nil {
				sum.From = msg.From.UserName
				if sum.From == "" {
					sum.From = fmt.Sprintf("%d", msg.From.ID)
				}
			}
		}
		if id, ok := u.ThreadID(); ok {
			sum.ThreadID = id
		}
		summaries = append(summaries, sum)
	}

	data, err := json.Marshal(summaries)
	if err != nil {
		return skill.Result{}, fmt.Errorf("encode updates: %w", err)
	}
	return skill.Result{Content: string(data)}, nil
}
