// Package portal implements the captive portal session: the reachability
// probe, the login form submission, the one-time connected notification and
// the interval-gated tick that composes them.
package portal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/me/portalkeep/internal/config"
	"github.com/me/portalkeep/internal/netstack"
	"github.com/me/portalkeep/internal/notify"
	"github.com/me/portalkeep/internal/transport"
)

// Event kinds passed to a Recorder.
const (
	KindProbe  = "probe"
	KindLogin  = "login"
	KindNotify = "notify"
)

// Outcome is the result of one probe, login or notification.
type Outcome struct {
	Kind       string
	OK         bool
	StatusCode int
	Detail     string
	At         time.Time
}

// Recorder receives every outcome. The store implements it.
type Recorder interface {
	Record(ctx context.Context, o Outcome) error
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	LastCheck     time.Time
	Checked       bool
	Interval      time.Duration
	Notified      bool
	NotifyEnabled bool
}

// Session keeps one host logged in to a captive portal. It is safe for
// concurrent use.
type Session struct {
	creds    config.Credentials
	portal   config.PortalConfig
	label    string
	timeout  time.Duration
	pause    time.Duration
	hostname string

	probeClient transport.Doer
	loginClient transport.Doer
	network     netstack.Network
	notifier    notify.Notifier
	recorder    Recorder
	logger      *slog.Logger
	sleep       func(ctx context.Context, d time.Duration) error
	now         func() time.Time

	mu        sync.Mutex
	lastCheck time.Time
	checked   bool
	interval  time.Duration

	// notifyMu spans check, send and set of notified.
	notifyMu sync.Mutex
	notified atomic.Bool
}

// Option customizes a Session.
type Option func(*Session)

// WithProbeClient replaces the client used for the reachability probe.
func WithProbeClient(d transport.Doer) Option {
	return func(s *Session) { s.probeClient = d }
}

// WithLoginClient replaces the client used for the login POST.
func WithLoginClient(d transport.Doer) Option {
	return func(s *Session) { s.loginClient = d }
}

// WithNotifier enables the connected notification. Without it no
// notification is ever sent.
func WithNotifier(n notify.Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithRecorder records every outcome.
func WithRecorder(r Recorder) Option {
	return func(s *Session) { s.recorder = r }
}

// WithSleep replaces the post-login pause.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Session) { s.sleep = fn }
}

// WithHostname overrides the hostname reported in notifications.
func WithHostname(h string) Option {
	return func(s *Session) { s.hostname = h }
}

// WithClock replaces the clock used to timestamp outcomes.
func WithClock(now func() time.Time) Option {
	return func(s *Session) { s.now = now }
}

// New creates a session from cfg. Clients default to the transport package's
// no-redirect clients. The login client skips certificate checks when the
// portal config asks for it, and keeps connections alive so the configured
// Connection header is the only one sent.
func New(cfg *config.Config, network netstack.Network, logger *slog.Logger, opts ...Option) *Session {
	hostname, _ := os.Hostname()
	s := &Session{
		creds:    cfg.Credentials,
		portal:   cfg.Portal,
		label:    cfg.Notify.Label,
		timeout:  cfg.Timing.RequestTimeout,
		pause:    cfg.Timing.LoginPause,
		interval: cfg.Timing.CheckInterval,
		hostname: hostname,
		network:  network,
		logger:   logger.With("component", "portal"),
		sleep:    sleepContext,
		now:      time.Now,
	}
	s.probeClient = transport.Plain(cfg.Timing.RequestTimeout)
	s.loginClient = transport.New(transport.Options{
		Timeout:            cfg.Timing.RequestTimeout,
		InsecureSkipVerify: cfg.Portal.InsecureSkipVerify,
		KeepAlive:          true,
	})
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetCheckInterval changes the minimum time between checks.
func (s *Session) SetCheckInterval(d time.Duration) {
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()
}

// Snapshot returns the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		LastCheck:     s.lastCheck,
		Checked:       s.checked,
		Interval:      s.interval,
		Notified:      s.notified.Load(),
		NotifyEnabled: s.notifier != nil,
	}
}

// Probe reports whether the reachability endpoint answered 204 or 200.
func (s *Session) Probe(ctx context.Context) bool {
	if err := s.CheckConnectivity(ctx); err != nil {
		s.logger.Info("probe failed", "error", err)
		return false
	}
	s.logger.Debug("probe ok")
	return true
}

// CheckConnectivity issues one GET to the reachability endpoint. It returns
// nil for 204 or 200, an *UnexpectedStatusError for any other status, and an
// error wrapping ErrTransportOpen or ErrTransport otherwise.
func (s *Session) CheckConnectivity(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	code, err := s.roundTrip(ctx, s.probeClient, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodGet, s.portal.CheckURL, nil)
	})
	if err == nil && code != http.StatusNoContent && code != http.StatusOK {
		err = &UnexpectedStatusError{Op: KindProbe, Code: code}
	}
	s.record(ctx, KindProbe, code, err)
	return err
}

// Login reports whether the portal accepted the login form.
func (s *Session) Login(ctx context.Context) bool {
	if err := s.Authenticate(ctx); err != nil {
		s.logger.Warn("login failed", "error", err)
		return false
	}
	s.logger.Info("login accepted")
	return true
}

// Authenticate submits the login form once. It makes no request when the
// host is not associated. 200 and 302 count as success; redirects are
// observed, not followed.
func (s *Session) Authenticate(ctx context.Context) error {
	if !s.network.Associated(ctx) {
		s.record(ctx, KindLogin, 0, ErrNotAssociated)
		return ErrNotAssociated
	}
	id, err := s.network.Identity(ctx)
	if err != nil {
		err = fmt.Errorf("read identity: %w", err)
		s.record(ctx, KindLogin, 0, err)
		return err
	}

	form := LoginForm{
		Username:    s.creds.Username,
		Password:    s.creds.Password,
		Domain:      s.portal.Domain,
		RedirectURL: s.portal.RedirectURL,
		Identity:    id,
	}
	body := form.Encode()

	s.logger.Info("login attempt", "ssid", id.SSID, "ip", id.LocalIP, "bssid", id.BSSID)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	code, err := s.roundTrip(ctx, s.loginClient, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.portal.LoginURL, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		// Assigned directly so the header names go out exactly as configured.
		for k, v := range s.portal.Headers {
			req.Header[k] = []string{v}
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err == nil && code != http.StatusOK && code != http.StatusFound {
		err = &UnexpectedStatusError{Op: KindLogin, Code: code}
	}
	s.record(ctx, KindLogin, code, err)
	return err
}

// MaybeNotifyOnFirstSuccess sends the connected notification if a notifier
// is configured and none has been delivered yet. It returns true only when
// this call delivered it. A failed delivery leaves the session un-notified
// so a later call retries.
func (s *Session) MaybeNotifyOnFirstSuccess(ctx context.Context) bool {
	if s.notifier == nil {
		return false
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	if s.notified.Load() {
		return false
	}
	if !s.network.Associated(ctx) {
		s.logger.Debug("notification skipped", "error", ErrNotAssociated)
		return false
	}
	id, err := s.network.Identity(ctx)
	if err != nil {
		s.logger.Warn("notification skipped", "error", err)
		return false
	}

	ev := notify.NewEvent(s.label, s.hostname, id, s.now())
	if err := s.notifier.Notify(ctx, ev); err != nil {
		s.logger.Warn("notification failed", "notifier", s.notifier.Name(), "error", err)
		s.record(ctx, KindNotify, 0, err)
		return false
	}

	s.notified.Store(true)
	s.logger.Info("notification sent", "notifier", s.notifier.Name())
	s.record(ctx, KindNotify, 0, nil)
	return true
}

// Tick runs one poll step. The first call always checks; later calls do
// nothing until the interval has elapsed since the previous check. A failed
// probe triggers a single login attempt followed by the login pause.
func (s *Session) Tick(ctx context.Context, now time.Time) {
	s.mu.Lock()
	due := !s.checked || now.Sub(s.lastCheck) >= s.interval
	s.mu.Unlock()
	if !due {
		return
	}

	if s.Probe(ctx) {
		s.MaybeNotifyOnFirstSuccess(ctx)
	} else {
		s.Login(ctx)
		if err := s.sleep(ctx, s.pause); err != nil {
			s.logger.Debug("login pause interrupted", "error", err)
		}
	}

	s.mu.Lock()
	s.lastCheck = now
	s.checked = true
	s.mu.Unlock()
}

func (s *Session) roundTrip(ctx context.Context, client transport.Doer, build func(context.Context) (*http.Request, error)) (int, error) {
	req, err := build(ctx)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransportOpen, err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode, nil
}

func (s *Session) record(ctx context.Context, kind string, code int, err error) {
	if s.recorder == nil {
		return
	}
	o := Outcome{Kind: kind, OK: err == nil, StatusCode: code, At: s.now()}
	if err != nil {
		o.Detail = err.Error()
		if o.StatusCode == 0 {
			o.StatusCode = StatusCode(err)
		}
	}
	// The request context may already be past its deadline.
	if rerr := s.recorder.Record(context.WithoutCancel(ctx), o); rerr != nil {
		s.logger.Warn("record outcome", "kind", kind, "error", rerr)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
