package notify

import (
	"log/slog"
	"time"

	"github.com/me/portalkeep/internal/config"
	"github.com/me/portalkeep/internal/transport"
)

// FromConfig builds the enabled notifiers. The result is empty when the
// owner configured none.
func FromConfig(cfg config.NotifyConfig, timeout time.Duration, logger *slog.Logger) Multi {
	var m Multi
	if cfg.Webhook.Enabled {
		client := transport.New(transport.Options{
			Timeout:            timeout,
			InsecureSkipVerify: cfg.Webhook.InsecureSkipVerify,
		})
		m = append(m, NewWebhook(cfg.Webhook, client))
	}
	if cfg.MQTT.Enabled {
		m = append(m, NewMQTT(cfg.MQTT, timeout, logger))
	}
	if cfg.NATS.Enabled {
		m = append(m, NewNATS(cfg.NATS, timeout, logger))
	}
	return m
}
