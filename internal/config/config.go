package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the complete portalkeep configuration.
type Config struct {
	Credentials Credentials   `yaml:"credentials"`
	Portal      PortalConfig  `yaml:"portal"`
	Timing      TimingConfig  `yaml:"timing"`
	Network     NetworkConfig `yaml:"network"`
	Notify      NotifyConfig  `yaml:"notify"`
	Store       StoreConfig   `yaml:"store"`
	Status      StatusConfig  `yaml:"status"`
	Log         LogConfig     `yaml:"log"`
}

// Credentials are the portal account details. They never leave the login request.
type Credentials struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// PortalConfig describes the captive portal endpoints and the login form.
type PortalConfig struct {
	CheckURL           string            `yaml:"check_url"`
	LoginURL           string            `yaml:"login_url"`
	Domain             string            `yaml:"domain"`       // sent as both sip and dn
	RedirectURL        string            `yaml:"redirect_url"` // sent pre-encoded as url
	Headers            map[string]string `yaml:"headers"`
	InsecureSkipVerify bool              `yaml:"insecure_skip_verify"`
}

// TimingConfig controls the poll cadence and request bounds.
type TimingConfig struct {
	CheckInterval   time.Duration `yaml:"check_interval"`
	RequestTimeout  time.Duration `yaml:"request_timeout"`
	LoginPause      time.Duration `yaml:"login_pause"`
	TickGranularity time.Duration `yaml:"tick_granularity"`
}

// NetworkConfig selects how association status and identity are read.
type NetworkConfig struct {
	Mode      string `yaml:"mode"` // linux | static
	Interface string `yaml:"interface"`
	LocalIP   string `yaml:"local_ip"`
	MAC       string `yaml:"mac"`
	BSSID     string `yaml:"bssid"`
	SSID      string `yaml:"ssid"`
}

// NotifyConfig holds the optional owner-configured "connected" notifiers.
// With nothing enabled, no notification is ever sent.
type NotifyConfig struct {
	Label   string        `yaml:"label"`
	Webhook WebhookConfig `yaml:"webhook"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	NATS    NATSConfig    `yaml:"nats"`
}

// WebhookConfig posts (or GETs) the notification to an HTTP endpoint.
type WebhookConfig struct {
	Enabled            bool              `yaml:"enabled"`
	URL                string            `yaml:"url"`
	Method             string            `yaml:"method"`     // GET | POST
	TextParam          string            `yaml:"text_param"` // GET only
	Params             map[string]string `yaml:"params"`     // GET only
	Headers            map[string]string `yaml:"headers"`
	InsecureSkipVerify bool              `yaml:"insecure_skip_verify"`
}

// MQTTConfig publishes the notification to an MQTT broker.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
	QoS      byte   `yaml:"qos"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// NATSConfig publishes the notification to a NATS subject.
type NATSConfig struct {
	Enabled bool   `yaml:"enabled"`
	URL     string `yaml:"url"`
	Subject string `yaml:"subject"`
}

// StoreConfig locates the event history database. Empty disables history.
type StoreConfig struct {
	Path string `yaml:"path"`
}

// StatusConfig enables the local status API. Empty Addr disables it.
type StatusConfig struct {
	Addr string `yaml:"addr"`
}

// LogConfig represents logging configuration.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// DefaultHeaders is the browser header set the UTM portal's request filter expects.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Referer":                   "https://wifi.utm.my/",
		"Origin":                    "https://wifi.utm.my",
		"User-Agent":                "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/141.0.0.0 Safari/537.36 Edg/141.0.0.0",
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8,application/signed-exchange;v=b3;q=0.7",
		"Accept-Language":           "en-GB,en;q=0.9,en-US;q=0.8,ms;q=0.7,af;q=0.6",
		"Cache-Control":             "max-age=0",
		"Connection":                "keep-alive",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "same-site",
		"Sec-Fetch-User":            "?1",
		"Upgrade-Insecure-Requests": "1",
		"sec-ch-ua":                 `"Microsoft Edge";v="141", "Not?A_Brand";v="8", "Chromium";v="141"`,
		"sec-ch-ua-mobile":          "?0",
		"sec-ch-ua-platform":        `"Windows"`,
	}
}

// Default returns the configuration for the UTM SmartZone portal.
func Default() Config {
	return Config{
		Portal: PortalConfig{
			CheckURL:           "http://connectivitycheck.gstatic.com/generate_204",
			LoginURL:           "https://smartzone22.utm.my:9998/SubscriberPortal/hotspotlogin",
			Domain:             "utm-vsz-new.utm.my",
			RedirectURL:        "http://www.msftconnecttest.com/redirect",
			Headers:            DefaultHeaders(),
			InsecureSkipVerify: true,
		},
		Timing: TimingConfig{
			CheckInterval:   5 * time.Minute,
			RequestTimeout:  5 * time.Second,
			LoginPause:      time.Second,
			TickGranularity: time.Second,
		},
		Network: NetworkConfig{
			Mode: "linux",
		},
		Notify: NotifyConfig{
			Label: "portalkeep connected",
			Webhook: WebhookConfig{
				Method:    "POST",
				TextParam: "text",
			},
			MQTT: MQTTConfig{
				ClientID: "portalkeep",
				Topic:    "portalkeep/connected",
			},
			NATS: NATSConfig{
				Subject: "portalkeep.connected",
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads a YAML file over the defaults, applies environment overrides and validates.
// Headers in the file are merged into the default header set.
func Load(filename string) (*Config, error) {
	cfg := Default()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("unmarshal config: %w", err)
		}
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

// applyEnvOverrides applies environment variable overrides
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("PORTALKEEP_USERNAME"); v != "" {
		c.Credentials.Username = v
	}
	if v := os.Getenv("PORTALKEEP_PASSWORD"); v != "" {
		c.Credentials.Password = v
	}
	if v := os.Getenv("PORTALKEEP_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("PORTALKEEP_DB"); v != "" {
		c.Store.Path = v
	}
}

// Validate checks the configuration for values the session cannot run with.
func (c *Config) Validate() error {
	var errs []error

	if c.Credentials.Username == "" {
		errs = append(errs, errors.New("credentials.username is required"))
	}
	if err := checkURL("portal.check_url", c.Portal.CheckURL); err != nil {
		errs = append(errs, err)
	}
	if err := checkURL("portal.login_url", c.Portal.LoginURL); err != nil {
		errs = append(errs, err)
	}
	if c.Timing.CheckInterval <= 0 {
		errs = append(errs, errors.New("timing.check_interval must be positive"))
	}
	if c.Timing.RequestTimeout <= 0 {
		errs = append(errs, errors.New("timing.request_timeout must be positive"))
	}
	if c.Timing.LoginPause < 0 {
		errs = append(errs, errors.New("timing.login_pause must not be negative"))
	}
	if c.Timing.TickGranularity <= 0 {
		errs = append(errs, errors.New("timing.tick_granularity must be positive"))
	}

	switch c.Network.Mode {
	case "linux", "static":
	default:
		errs = append(errs, fmt.Errorf("network.mode %q: want linux or static", c.Network.Mode))
	}

	if w := c.Notify.Webhook; w.Enabled {
		if err := checkURL("notify.webhook.url", w.URL); err != nil {
			errs = append(errs, err)
		}
		switch strings.ToUpper(w.Method) {
		case "GET", "POST":
		default:
			errs = append(errs, fmt.Errorf("notify.webhook.method %q: want GET or POST", w.Method))
		}
	}
	if m := c.Notify.MQTT; m.Enabled {
		if m.Broker == "" || m.Topic == "" {
			errs = append(errs, errors.New("notify.mqtt requires broker and topic"))
		}
		if m.QoS > 2 {
			errs = append(errs, fmt.Errorf("notify.mqtt.qos %d: want 0, 1 or 2", m.QoS))
		}
	}
	if n := c.Notify.NATS; n.Enabled && (n.URL == "" || n.Subject == "") {
		errs = append(errs, errors.New("notify.nats requires url and subject"))
	}

	return errors.Join(errs...)
}

// NotifyEnabled reports whether any notifier is configured.
func (c *Config) NotifyEnabled() bool {
	return c.Notify.Webhook.Enabled || c.Notify.MQTT.Enabled || c.Notify.NATS.Enabled
}

// Redacted returns a copy safe to print: secrets are masked.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	c.Credentials.Password = mask(c.Credentials.Password)
	c.Notify.MQTT.Password = mask(c.Notify.MQTT.Password)
	return c
}

// YAML renders the redacted configuration.
func (c Config) YAML() ([]byte, error) {
	return yaml.Marshal(c.Redacted())
}

func checkURL(field, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", field)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s: unsupported scheme %q", field, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s: missing host", field)
	}
	return nil
}
