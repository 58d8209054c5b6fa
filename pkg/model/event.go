package model

import "time"

// EventKind names what a history event records.
type EventKind string

const (
	EventKindProbe  EventKind = "probe"
	EventKindLogin  EventKind = "login"
	EventKindNotify EventKind = "notify"
)

// String returns the string representation of the kind.
func (k EventKind) String() string {
	return string(k)
}

// Valid reports whether k is a known kind.
func (k EventKind) Valid() bool {
	switch k {
	case EventKindProbe, EventKindLogin, EventKindNotify:
		return true
	}
	return false
}

// ParseEventKind converts a query value to an EventKind. Empty means "all".
func ParseEventKind(s string) (EventKind, bool) {
	if s == "" {
		return "", true
	}
	k := EventKind(s)
	return k, k.Valid()
}

// Event is one recorded probe, login attempt or notification. It never
// carries credentials.
type Event struct {
	ID         string    `json:"id"`
	Kind       EventKind `json:"kind"`
	OK         bool      `json:"ok"`
	StatusCode int       `json:"status_code,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
