// Package netstack answers the two questions the portal session asks of the
// host's network stack: is it associated, and with what identity.
package netstack

import (
	"context"
	"errors"
)

// ErrNoIdentity is returned when the stack cannot produce an address.
var ErrNoIdentity = errors.New("network identity unavailable")

// Identity is read fresh on every login or notification; never cache it.
type Identity struct {
	LocalIP string // dotted text
	MAC     string // device MAC, colon-separated hex
	BSSID   string // access point MAC, colon-separated hex
	SSID    string
}

// Network is the network-stack collaborator.
type Network interface {
	Associated(ctx context.Context) bool
	Identity(ctx context.Context) (Identity, error)
}

// Static reports fixed values. Useful for wired hosts behind the portal
// and for tests.
type Static struct {
	ID           Identity
	Disconnected bool
}

// Associated reports true unless the stack was marked disconnected.
func (s *Static) Associated(context.Context) bool { return !s.Disconnected }

// Identity returns the configured identity.
func (s *Static) Identity(context.Context) (Identity, error) {
	if s.Disconnected {
		return Identity{}, ErrNoIdentity
	}
	return s.ID, nil
}

// Func adapts plain functions to Network.
type Func struct {
	AssociatedFunc func(ctx context.Context) bool
	IdentityFunc   func(ctx context.Context) (Identity, error)
}

func (f Func) Associated(ctx context.Context) bool { return f.AssociatedFunc(ctx) }

func (f Func) Identity(ctx context.Context) (Identity, error) { return f.IdentityFunc(ctx) }
