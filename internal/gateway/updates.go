package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// allowedUpdates restricts polling to plain message events; other kinds are
// filtered by Telegram, not here.
var allowedUpdates = []string{"message"}

// Update is one inbound event. Message is kept as raw JSON; use
// DecodeMessage for typed access.
type Update struct {
	UpdateID int64           `json:"update_id"`
	Message  json.RawMessage `json:"message,omitempty"`
}

// HasMessage reports whether the update carries a message payload.
func (u Update) HasMessage() bool {
	return len(u.Message) > 0 && string(u.Message) != "null"
}

// DecodeMessage decodes the message payload.
func (u Update) DecodeMessage() (*tgbotapi.Message, error) {
	if !u.HasMessage() {
		return nil, errors.New("update has no message")
	}
	var msg tgbotapi.Message
	if err := json.Unmarshal(u.Message, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// ThreadID returns the forum topic the message was posted in, if any.
func (u Update) ThreadID() (int64, bool) {
	if !u.HasMessage() {
		return 0, false
	}
	var m struct {
		MessageThreadID *int64 `json:"message_thread_id"`
	}
	if err := json.Unmarshal(u.Message, &m); err != nil || m.MessageThreadID == nil {
		return 0, false
	}
	return *m.MessageThreadID, true
}

type updatesParams struct {
	offset  *int64
	timeout int
}

// UpdatesOption customises a GetUpdates call.
type UpdatesOption func(*updatesParams)

// WithOffset requests updates starting at offset. Without it the server's
// current cursor is used.
func WithOffset(offset int64) UpdatesOption {
	return func(p *updatesParams) { p.offset = &offset }
}

// WithPollTimeout sets the long-poll wait in seconds (DefaultPollTimeout
// when omitted). Zero performs a short poll.
func WithPollTimeout(seconds int) UpdatesOption {
	return func(p *updatesParams) {
		if seconds < 0 {
			seconds = 0
		}
		p.timeout = seconds
	}
}

// GetUpdates long-polls for new message updates and returns them in the
// order Telegram sent them.
func (c *Client) GetUpdates(ctx context.Context, token string, opts ...UpdatesOption) ([]Update, error) {
	p := updatesParams{timeout: DefaultPollTimeout}
	for _, opt := range opts {
		opt(&p)
	}

	body := map[string]any{
		"timeout":         p.timeout,
		"allowed_updates": allowedUpdates,
	}
	if p.offset != nil {
		body["offset"] = *p.offset
	}

	wait := time.Duration(p.timeout)*time.Second + c.pollMargin
	raw, status, err := c.call(ctx, MethodGetUpdates, token, body, wait)
	if err != nil {
		return nil, err
	}

	var updates []Update
	if err := decodeResult(MethodGetUpdates, status, raw, &updates); err != nil {
		return nil, err
	}
	if updates == nil {
		updates = []Update{}
	}
	return updates, nil
}
