// Package poller drives the getUpdates long-poll loop: it owns the offset
// cursor, backs off on temporary failures and hands text messages to a
// handler in the order Telegram delivered them.
package poller

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/crystaldolphin/crystalgate/internal/gateway"
)

const defaultBackoff = 5 * time.Second

// Message is an inbound text message ready for handling.
type Message struct {
	UpdateID  int64
	ChatID    int64
	ThreadID  int64
	SenderID  int64
	Username  string
	Text      string
	IsGroup   bool
	Timestamp time.Time
	Raw       *tgbotapi.Message
}

// Handler processes one message. It runs on the polling goroutine, so the
// next poll waits for it to return.
type Handler func(ctx context.Context, msg Message)

// Updater is the gateway operation the poller needs.
type Updater interface {
	GetUpdates(ctx context.Context, token string, opts ...gateway.UpdatesOption) ([]gateway.Update, error)
}

// OffsetStore persists the cursor between runs.
type OffsetStore interface {
	Load(token string) (int64, bool)
	Save(token string, offset int64) error
}

// Config tunes a Poller.
type Config struct {
	Token       string
	PollTimeout int           // long-poll wait in seconds
	Backoff     time.Duration // pause after a temporary failure
	AllowFrom   []string      // sender IDs or usernames; empty allows everyone
	LockDir     string        // directory for the single-instance lock; empty disables it
	Store       OffsetStore   // optional; nil keeps the cursor in memory only
}

// Poller runs the receive loop for one bot token.
type Poller struct {
	updater Updater
	cfg     Config
	handler Handler
	offset  *int64
}

// New creates a Poller.
func New(u Updater, cfg Config, h Handler) *Poller {
	if cfg.Backoff <= 0 {
		cfg.Backoff = defaultBackoff
	}
	if cfg.PollTimeout < 0 {
		cfg.PollTimeout = 0
	}
	return &Poller{updater: u, cfg: cfg, handler: h}
}

// Offset returns the next offset the poller will request, if any update has
// been seen yet. Only meaningful while Run is not executing.
func (p *Poller) Offset() (int64, bool) {
	if p.offset == nil {
		return 0, false
	}
	return *p.offset, true
}

// Run polls until ctx is cancelled (returning nil) or the gateway reports a
// failure that retrying cannot fix, such as a revoked token.
func (p *Poller) Run(ctx context.Context) error {
	if p.cfg.LockDir != "" {
		lock, err := acquireLock(p.cfg.LockDir, p.cfg.Token)
		if err != nil {
			return err
		}
		defer func() {
			if err := lock.Release(); err != nil {
				slog.Warn("poller: release lock", "err", err)
			}
		}()
	}

	if p.offset == nil && p.cfg.Store != nil {
		if off, ok := p.cfg.Store.Load(p.cfg.Token); ok {
			p.offset = &off
		}
	}

	slog.Info("poller: started", "timeout", p.cfg.PollTimeout)
	for {
		if ctx.Err() != nil {
			slog.Info("poller: stopped")
			return nil
		}

		opts := []gateway.UpdatesOption{gateway.WithPollTimeout(p.cfg.PollTimeout)}
		if p.offset != nil {
			opts = append(opts, gateway.WithOffset(*p.offset))
		}

		updates, err := p.updater.GetUpdates(ctx, p.cfg.Token, opts...)
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("poller: stopped")
				return nil
			}
			if gwErr, ok := gateway.AsError(err); ok && !gwErr.Temporary() {
				return fmt.Errorf("poller: %w", err)
			}
			slog.Warn("poller: poll failed, backing off", "err", err, "backoff", p.cfg.Backoff)
			select {
			case <-time.After(p.cfg.Backoff):
			case <-ctx.Done():
				slog.Info("poller: stopped")
				return nil
			}
			continue
		}

		for _, u := range updates {
			p.dispatch(ctx, u)
			next := u.UpdateID + 1
			p.offset = &next
		}
		if len(updates) > 0 && p.cfg.Store != nil {
			if err := p.cfg.Store.Save(p.cfg.Token, *p.offset); err != nil {
				slog.Warn("poller: save offset", "err", err)
			}
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, u gateway.Update) {
	raw, err := u.DecodeMessage()
	if err != nil {
		slog.Debug("poller: skipping update", "update_id", u.UpdateID, "err", err)
		return
	}
	if raw.Text == "" {
		return
	}

	msg := Message{
		UpdateID:  u.UpdateID,
		Text:      raw.Text,
		Timestamp: time.Unix(int64(raw.Date), 0),
		Raw:       raw,
	}
	if raw.Chat != nil {
		msg.ChatID = raw.Chat.ID
		msg.IsGroup = raw.Chat.Type != "private"
	}
	if raw.From != nil {
		msg.SenderID = raw.From.ID
		msg.Username = raw.From.UserName
	}
	if id, ok := u.ThreadID(); ok {
		msg.ThreadID = id
	}

	if !p.isAllowed(msg) {
		slog.Warn("poller: access denied", "sender", msg.SenderID, "username", msg.Username)
		return
	}
	p.handler(ctx, msg)
}

// isAllowed checks the sender's numeric ID and username against AllowFrom.
func (p *Poller) isAllowed(msg Message) bool {
	if len(p.cfg.AllowFrom) == 0 {
		return true
	}
	id := strconv.FormatInt(msg.SenderID, 10)
	for _, allowed := range p.cfg.AllowFrom {
		if allowed == id || (msg.Username != "" && allowed == msg.Username) {
			return true
		}
	}
	return false
}
