// Package notify delivers the one-time "connected" notification to sinks the
// device owner configured. Events carry network identity only; credentials
// are never part of an event.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/me/portalkeep/internal/netstack"
)

// Event describes a host that just gained internet access.
type Event struct {
	Label    string    `json:"label"`
	Hostname string    `json:"hostname"`
	LocalIP  string    `json:"local_ip"`
	MAC      string    `json:"mac"`
	BSSID    string    `json:"bssid"`
	SSID     string    `json:"ssid"`
	Time     time.Time `json:"time"`
}

// NewEvent builds an event from the identity read at send time.
func NewEvent(label, hostname string, id netstack.Identity, now time.Time) Event {
	return Event{
		Label:    label,
		Hostname: hostname,
		LocalIP:  id.LocalIP,
		MAC:      id.MAC,
		BSSID:    id.BSSID,
		SSID:     id.SSID,
		Time:     now.UTC(),
	}
}

// Text renders the event as a message, one field per line.
func (e Event) Text() string {
	var b strings.Builder
	b.WriteString(e.Label)
	b.WriteByte('\n')
	fmt.Fprintf(&b, "Host: %s\n", e.Hostname)
	fmt.Fprintf(&b, "IP: %s\n", e.LocalIP)
	fmt.Fprintf(&b, "MAC: %s\n", e.MAC)
	fmt.Fprintf(&b, "SSID: %s", e.SSID)
	return b.String()
}

// Notifier delivers an event to one sink.
type Notifier interface {
	Notify(ctx context.Context, ev Event) error
	Name() string
}

// Closer is implemented by notifiers holding a connection.
type Closer interface {
	Close() error
}

// Multi fans an event out to several notifiers. Delivery succeeds when at
// least one sink accepted the event.
type Multi []Notifier

func (m Multi) Name() string {
	names := make([]string, len(m))
	for i, n := range m {
		names[i] = n.Name()
	}
	return strings.Join(names, ",")
}

func (m Multi) Notify(ctx context.Context, ev Event) error {
	if len(m) == 0 {
		return errors.New("no notifiers configured")
	}
	var errs []error
	delivered := false
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", n.Name(), err))
			continue
		}
		delivered = true
	}
	if delivered {
		return nil
	}
	return errors.Join(errs...)
}

// Close closes every notifier that holds a connection.
func (m Multi) Close() error {
	var errs []error
	for _, n := range m {
		if c, ok := n.(Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// EncodeMessage percent-encodes a message for use as a query parameter value.
// Space, newline and colon are encoded, as is every byte with the high bit
// set (so multi-byte UTF-8 is encoded byte by byte). Characters that would
// break the query string (% & + # = ?) are encoded too. Everything else is
// passed through.
func EncodeMessage(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == ' ', c == '\n', c == ':', c == '%', c == '&', c == '+', c == '#', c == '=', c == '?', c >= 0x80:
			b.WriteByte('%')
			b.WriteByte(hex[c>>4])
			b.WriteByte(hex[c&0x0f])
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
