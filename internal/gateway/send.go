package gateway

import (
	"context"
	"time"
)

// SentMessage is Telegram's acknowledgement of a delivered message.
type SentMessage struct {
	MessageID int64
	Date      int64
	ChatID    int64
	Text      string
	ThreadID  *int64
}

// SentAt returns Date as a time.
func (m *SentMessage) SentAt() time.Time { return time.Unix(m.Date, 0) }

type sentMessageWire struct {
	MessageID int64 `json:"message_id"`
	Date      int64 `json:"date"`
	Chat      struct {
		ID int64 `json:"id"`
	} `json:"chat"`
	Text            string `json:"text"`
	MessageThreadID *int64 `json:"message_thread_id"`
}

type sendParams struct {
	threadID  *int64
	parseMode string
}

// SendOption sets an optional sendMessage field. Unset options are left out
// of the request body entirely.
type SendOption func(*sendParams)

// WithThreadID targets a forum topic.
func WithThreadID(id int64) SendOption {
	return func(p *sendParams) { p.threadID = &id }
}

// WithParseMode sets the text formatting mode, e.g. tgbotapi.ModeHTML.
func WithParseMode(mode string) SendOption {
	return func(p *sendParams) { p.parseMode = mode }
}

// SendMessage sends text to chatID.
func (c *Client) SendMessage(ctx context.Context, token string, chatID int64, text string, opts ...SendOption) (*SentMessage, error) {
	var p sendParams
	for _, opt := range opts {
		opt(&p)
	}

	body := map[string]any{
		"chat_id": chatID,
		"text":    text,
	}
	if p.threadID != nil {
		body["message_thread_id"] = *p.threadID
	}
	if p.parseMode != "" {
		body["parse_mode"] = p.parseMode
	}

	raw, status, err := c.call(ctx, MethodSendMessage, token, body, c.sendTimeout)
	if err != nil {
		return nil, err
	}

	var wire sentMessageWire
	if err := decodeResult(MethodSendMessage, status, raw, &wire); err != nil {
		return nil, err
	}
	return &SentMessage{
		MessageID: wire.MessageID,
		Date:      wire.Date,
		ChatID:    wire.Chat.ID,
		Text:      wire.Text,
		ThreadID:  wire.MessageThreadID,
	}, nil
}
