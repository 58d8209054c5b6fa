// Package agent wires the portal session to its collaborators and runs the
// poll loop.
package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/me/portalkeep/internal/config"
	"github.com/me/portalkeep/internal/netstack"
	"github.com/me/portalkeep/internal/notify"
	"github.com/me/portalkeep/internal/portal"
	"github.com/me/portalkeep/internal/server"
	"github.com/me/portalkeep/internal/store"
)

// Agent owns the session, its notifiers and the optional history store and
// status server.
type Agent struct {
	cfg       *config.Config
	version   string
	session   *portal.Session
	network   netstack.Network
	notifiers notify.Multi
	store     *store.SQLiteStore // nil when history is disabled
	base      *slog.Logger
	logger    *slog.Logger

	sessionOpts []portal.Option
	clock       func() time.Time
}

// Option configures an Agent.
type Option func(*Agent)

// WithNetwork replaces the network collaborator chosen by network.mode.
func WithNetwork(n netstack.Network) Option {
	return func(a *Agent) { a.network = n }
}

// WithSessionOptions passes extra options to the portal session.
func WithSessionOptions(opts ...portal.Option) Option {
	return func(a *Agent) { a.sessionOpts = append(a.sessionOpts, opts...) }
}

// WithVersion sets the version the status server reports.
func WithVersion(v string) Option {
	return func(a *Agent) { a.version = v }
}

// WithClock replaces the wall clock passed to Tick.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.clock = now }
}

// NewNetwork builds the network collaborator for cfg.
func NewNetwork(cfg config.NetworkConfig) netstack.Network {
	if cfg.Mode == "static" {
		return &netstack.Static{ID: netstack.Identity{
			LocalIP: cfg.LocalIP,
			MAC:     cfg.MAC,
			BSSID:   cfg.BSSID,
			SSID:    cfg.SSID,
		}}
	}
	return netstack.NewLinux(cfg.Interface)
}

// New builds an agent from cfg. The history store is opened and migrated
// when store.path is set. Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...Option) (*Agent, error) {
	a := &Agent{
		cfg:     cfg,
		version: "dev",
		base:    logger,
		logger:  logger.With("component", "agent"),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.network == nil {
		a.network = NewNetwork(cfg.Network)
	}

	sessionOpts := []portal.Option{}
	if cfg.Store.Path != "" {
		st, err := store.NewSQLiteStore(cfg.Store.Path, logger)
		if err != nil {
			return nil, err
		}
		if err := st.Migrate(ctx); err != nil {
			st.Close()
			return nil, fmt.Errorf("migrate %s: %w", cfg.Store.Path, err)
		}
		a.store = st
		sessionOpts = append(sessionOpts, portal.WithRecorder(st))
	}

	a.notifiers = notify.FromConfig(cfg.Notify, cfg.Timing.RequestTimeout, logger)
	if len(a.notifiers) > 0 {
		sessionOpts = append(sessionOpts, portal.WithNotifier(a.notifiers))
		a.logger.Info("connected notification enabled", "notifiers", a.notifiers.Name())
	}

	a.session = portal.New(cfg, a.network, logger, append(sessionOpts, a.sessionOpts...)...)
	return a, nil
}

// Session returns the portal session.
func (a *Agent) Session() *portal.Session {
	return a.session
}

// Store returns the history store, or nil when history is disabled.
func (a *Agent) Store() *store.SQLiteStore {
	return a.store
}

// Run ticks the session every tick_granularity until ctx is cancelled. The
// status server, when status.addr is set, runs alongside it.
func (a *Agent) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.tickLoop(ctx)
	})

	if addr := a.cfg.Status.Addr; addr != "" {
		srvOpts := []server.Option{server.WithVersion(a.version)}
		if a.store != nil {
			srvOpts = append(srvOpts, server.WithStore(a.store))
		}
		srv := server.New(a.session, a.base, srvOpts...)
		g.Go(func() error {
			if err := srv.ListenAndServe(ctx, addr); err != nil {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
	}

	return g.Wait()
}

func (a *Agent) tickLoop(ctx context.Context) error {
	a.logger.Info("polling",
		"check_url", a.cfg.Portal.CheckURL,
		"interval", a.cfg.Timing.CheckInterval,
	)

	a.session.Tick(ctx, a.clock())

	ticker := time.NewTicker(a.cfg.Timing.TickGranularity)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.logger.Info("shutting down")
			return nil
		case <-ticker.C:
			a.session.Tick(ctx, a.clock())
		}
	}
}

// Close releases notifier connections and the history store.
func (a *Agent) Close() error {
	var errs []error
	if err := a.notifiers.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close notifiers: %w", err))
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}
