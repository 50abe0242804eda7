// Package schedule sends configured announcements on cron schedules.
package schedule

import (
	"context"
	"fmt"
	"log/slog"

	robfigcron "github.com/robfig/cron/v3"

	"github.com/crystaldolphin/crystalgate/internal/gateway"
)

// Sender is the gateway operation used for announcements.
type Sender interface {
	SendMessage(ctx context.Context, token string, chatID int64, text string, opts ...gateway.SendOption) (*gateway.SentMessage, error)
}

// Entry is one scheduled message.
type Entry struct {
	Name      string
	Spec      string // cron expression, seconds field optional, or a descriptor like "@every 1h"
	ChatID    int64
	ThreadID  int64
	ParseMode string
	Text      string
}

// specParser accepts both 5- and 6-field expressions plus descriptors.
var specParser = robfigcron.NewParser(
	robfigcron.SecondOptional | robfigcron.Minute | robfigcron.Hour |
		robfigcron.Dom | robfigcron.Month | robfigcron.Dow | robfigcron.Descriptor,
)

// ParseSpec parses spec with the same rules the scheduler uses.
func ParseSpec(spec string) (robfigcron.Schedule, error) {
	return specParser.Parse(spec)
}

// Scheduler owns the cron runner for all entries.
type Scheduler struct {
	sender  Sender
	token   string
	entries []Entry
	cron    *robfigcron.Cron
	ctx     context.Context
}

// New validates every entry and registers it. An invalid cron spec or an
// entry without chat or text is an error.
func New(sender Sender, token string, entries []Entry) (*Scheduler, error) {
	s := &Scheduler{
		sender:  sender,
		token:   token,
		entries: entries,
		cron:    robfigcron.New(robfigcron.WithParser(specParser)),
		ctx:     context.Background(),
	}
	for i, e := range entries {
		if e.ChatID == 0 || e.Text == "" {
			return nil, fmt.Errorf("schedule %s: chat id and text are required", label(i, e))
		}
		entry := e
		if _, err := s.cron.AddFunc(e.Spec, func() { s.fire(s.ctx, entry) }); err != nil {
			return nil, fmt.Errorf("schedule %s: invalid spec %q: %w", label(i, e), e.Spec, err)
		}
	}
	return s, nil
}

// Len returns the number of registered entries.
func (s *Scheduler) Len() int { return len(s.entries) }

// Start runs the schedules until ctx is cancelled, then waits for running
// sends to finish.
func (s *Scheduler) Start(ctx context.Context) error {
	if len(s.entries) == 0 {
		<-ctx.Done()
		return nil
	}
	s.ctx = ctx
	s.cron.Start()
	slog.Info("schedule: started", "entries", len(s.entries))

	<-ctx.Done()
	<-s.cron.Stop().Done()
	slog.Info("schedule: stopped")
	return nil
}

func (s *Scheduler) fire(ctx context.Context, e Entry) {
	if ctx.Err() != nil {
		return
	}
	var opts []gateway.SendOption
	if e.ThreadID != 0 {
		opts = append(opts, gateway.WithThreadID(e.ThreadID))
	}
	if e.ParseMode != "" {
		opts = append(opts, gateway.WithParseMode(e.ParseMode))
	}

	sent, err := s.sender.SendMessage(ctx, s.token, e.ChatID, e.Text, opts...)
	if err != nil {
		slog.Error("schedule: send failed", "name", e.Name, "chat", e.ChatID, "err", err)
		return
	}
	slog.Info("schedule: sent", "name", e.Name, "chat", e.ChatID, "message_id", sent.MessageID)
}

func label(i int, e Entry) string {
	if e.Name != "" {
		return e.Name
	}
	return fmt.Sprintf("#%d", i)
}
