// Package container wires core crystalgate services using go.uber.org/dig.
package container

import (
	"go.uber.org/dig"

	"github.com/crystaldolphin/crystalgate/internal/config"
	"github.com/crystaldolphin/crystalgate/internal/gateway"
	"github.com/crystaldolphin/crystalgate/internal/host"
	"github.com/crystaldolphin/crystalgate/internal/poller"
	"github.com/crystaldolphin/crystalgate/internal/schedule"
	"github.com/crystaldolphin/crystalgate/internal/skill"
	"github.com/crystaldolphin/crystalgate/internal/skill/telegram"
	"github.com/crystaldolphin/crystalgate/internal/state"
)

// Container holds the resolved core service singletons.
// Callers use the typed getter methods; they never need to import dig directly.
type Container struct {
	cfg       *config.Config
	client    *gateway.Client
	registry  *skill.Registry
	host      *host.Host
	poller    *poller.Poller
	scheduler *schedule.Scheduler
	offsets   *state.OffsetStore
}

func (c *Container) Config() *config.Config         { return c.cfg }
func (c *Container) Gateway() *gateway.Client       { return c.client }
func (c *Container) Registry() *skill.Registry      { return c.registry }
func (c *Container) Host() *host.Host               { return c.host }
func (c *Container) Poller() *poller.Poller         { return c.poller }
func (c *Container) Scheduler() *schedule.Scheduler { return c.scheduler }
func (c *Container) Offsets() *state.OffsetStore    { return c.offsets }
func (c *Container) Token() string                  { return c.cfg.Telegram.Token }

// botToken is a named string type so dig can distinguish it from plain
// strings when injecting the credential.
type botToken string

// New builds and wires all core services from cfg.
func New(cfg *config.Config) (*Container, error) {
	d := dig.New()

	providers := []any{
		func() *config.Config { return cfg },
		func(cfg *config.Config) botToken { return botToken(cfg.Telegram.Token) },
		newGatewayClient,
		newTelegramSkill,
		newRegistry,
		newHost,
		newOffsetStore,
		newPoller,
		newScheduler,
	}
	for _, p := range providers {
		if err := d.Provide(p); err != nil {
			return nil, err
		}
	}

	var result *Container
	err := d.Invoke(func(
		client *gateway.Client,
		registry *skill.Registry,
		h *host.Host,
		p *poller.Poller,
		s *schedule.Scheduler,
		offsets *state.OffsetStore,
	) {
		result = &Container{
			cfg:       cfg,
			client:    client,
			registry:  registry,
			host:      h,
			poller:    p,
			scheduler: s,
			offsets:   offsets,
		}
	})
	return result, err
}

func newGatewayClient(cfg *config.Config) *gateway.Client {
	opts := []gateway.Option{
		gateway.WithSendTimeout(cfg.Telegram.SendTimeout),
		gateway.WithPollMargin(cfg.Telegram.PollMargin),
	}
	if cfg.Telegram.APIBase != "" {
		opts = append(opts, gateway.WithBaseURL(cfg.Telegram.APIBase))
	}
	return gateway.New(opts...)
}

func newTelegramSkill(client *gateway.Client, tok botToken) *telegram.Skill {
	return telegram.New(client, string(tok))
}

func newRegistry(ts *telegram.Skill) (*skill.Registry, error) {
	return skill.NewRegistryBuilder().
		WithSkill(ts).
		Build()
}

func newHost(reg *skill.Registry, client *gateway.Client, tok botToken, cfg *config.Config) *host.Host {
	return host.New(reg, client, string(tok), cfg.Telegram.Echo)
}

func newOffsetStore() *state.OffsetStore {
	return state.NewOffsetStore(config.StateDir())
}

func newPoller(client *gateway.Client, h *host.Host, store *state.OffsetStore, cfg *config.Config) *poller.Poller {
	pc := poller.Config{
		Token:       cfg.Telegram.Token,
		PollTimeout: cfg.Telegram.PollTimeout,
		Backoff:     cfg.Telegram.Backoff,
		AllowFrom:   cfg.Telegram.AllowFrom,
	}
	if cfg.Telegram.SingleInstance {
		pc.LockDir = config.LockDir()
	}
	if cfg.Telegram.PersistOffset {
		pc.Store = store
	}
	return poller.New(client, pc, h.HandleMessage)
}

func newScheduler(client *gateway.Client, tok botToken, cfg *config.Config) (*schedule.Scheduler, error) {
	entries := make([]schedule.Entry, 0, len(cfg.Schedules))
	for _, sc := range cfg.Schedules {
		entries = append(entries, schedule.Entry{
			Name:      sc.Name,
			Spec:      sc.Spec,
			ChatID:    sc.ChatID,
			ThreadID:  sc.ThreadID,
			ParseMode: sc.ParseMode,
			Text:      sc.Text,
		})
	}
	return schedule.New(client, string(tok), entries)
}
