package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/nats-io/nats.go"

	"github.com/me/portalkeep/internal/config"
)

// Brokers are usually unreachable until the portal login succeeds, so both
// broker notifiers connect lazily on the first Notify call.

// MQTT publishes the event as JSON to a topic.
type MQTT struct {
	cfg     config.MQTTConfig
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.Mutex
	client mqtt.Client
}

// NewMQTT creates an MQTT notifier. timeout bounds connect and publish.
func NewMQTT(cfg config.MQTTConfig, timeout time.Duration, logger *slog.Logger) *MQTT {
	return &MQTT{cfg: cfg, timeout: timeout, logger: logger.With("notifier", "mqtt")}
}

func (m *MQTT) Name() string { return "mqtt" }

func (m *MQTT) Notify(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	client, err := m.connect()
	if err != nil {
		return err
	}

	token := client.Publish(m.cfg.Topic, m.cfg.QoS, false, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(m.timeout):
		return errors.New("mqtt publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt publish: %w", err)
	}
	m.logger.Debug("published", "topic", m.cfg.Topic)
	return nil
}

func (m *MQTT) connect() (mqtt.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.client != nil && m.client.IsConnected() {
		return m.client, nil
	}

	opts := mqtt.NewClientOptions()
	opts.AddBroker(m.cfg.Broker)
	opts.SetClientID(m.cfg.ClientID)
	if m.cfg.Username != "" {
		opts.SetUsername(m.cfg.Username)
		opts.SetPassword(m.cfg.Password)
	}
	opts.SetAutoReconnect(false)
	opts.SetConnectRetry(false)
	opts.SetConnectTimeout(m.timeout)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		m.logger.Warn("connection lost", "error", err)
	})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(m.timeout) {
		return nil, errors.New("mqtt connect timeout")
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("mqtt connect %s: %w", m.cfg.Broker, err)
	}
	m.client = client
	return client, nil
}

// Close disconnects from the broker.
func (m *MQTT) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.client != nil && m.client.IsConnected() {
		m.client.Disconnect(250)
	}
	m.client = nil
	return nil
}

// NATS publishes the event as JSON to a subject.
type NATS struct {
	cfg     config.NATSConfig
	timeout time.Duration
	logger  *slog.Logger

	mu sync.Mutex
	nc *nats.Conn
}

// NewNATS creates a NATS notifier. timeout bounds connect and flush.
func NewNATS(cfg config.NATSConfig, timeout time.Duration, logger *slog.Logger) *NATS {
	return &NATS{cfg: cfg, timeout: timeout, logger: logger.With("notifier", "nats")}
}

func (n *NATS) Name() string { return "nats" }

func (n *NATS) Notify(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	nc, err := n.connect()
	if err != nil {
		return err
	}
	if err := nc.Publish(n.cfg.Subject, payload); err != nil {
		return fmt.Errorf("nats publish: %w", err)
	}

	flushCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()
	if err := nc.FlushWithContext(flushCtx); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}
	n.logger.Debug("published", "subject", n.cfg.Subject)
	return nil
}

func (n *NATS) connect() (*nats.Conn, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.nc != nil && n.nc.IsConnected() {
		return n.nc, nil
	}
	nc, err := nats.Connect(n.cfg.URL,
		nats.Name("portalkeep"),
		nats.Timeout(n.timeout),
		nats.MaxReconnects(0))
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", n.cfg.URL, err)
	}
	n.nc = nc
	return nc, nil
}

// Close closes the connection.
func (n *NATS) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.nc != nil {
		n.nc.Close()
		n.nc = nil
	}
	return nil
}
