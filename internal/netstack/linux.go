package netstack

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os/exec"
	"strings"
)

// CommandRunner abstracts command execution for testing.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, err error)
}

type osCommandRunner struct{}

func (osCommandRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", err
	}
	return out.String(), nil
}

// link is the slice of net.Interface the identity lookup needs.
type link struct {
	Name     string
	MAC      string
	Up       bool
	Loopback bool
	IPv4     string
}

func systemLinks() ([]link, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("list interfaces: %w", err)
	}
	links := make([]link, 0, len(ifaces))
	for _, ifc := range ifaces {
		l := link{
			Name:     ifc.Name,
			MAC:      ifc.HardwareAddr.String(),
			Up:       ifc.Flags&net.FlagUp != 0,
			Loopback: ifc.Flags&net.FlagLoopback != 0,
		}
		addrs, err := ifc.Addrs()
		if err == nil {
			for _, a := range addrs {
				if ipn, ok := a.(*net.IPNet); ok {
					if v4 := ipn.IP.To4(); v4 != nil {
						l.IPv4 = v4.String()
						break
					}
				}
			}
		}
		links = append(links, l)
	}
	return links, nil
}

// Linux reads identity from the kernel's interface table and the wireless
// association from iwgetid (wireless-tools).
type Linux struct {
	iface  string
	runner CommandRunner
	links  func() ([]link, error)
}

// NewLinux creates a Linux network stack. An empty iface picks the first
// interface that is up, not loopback and has an IPv4 address.
func NewLinux(iface string) *Linux {
	return &Linux{iface: iface, runner: osCommandRunner{}, links: systemLinks}
}

// Associated reports whether the interface is up with an address and
// associated with an access point.
func (l *Linux) Associated(ctx context.Context) bool {
	lk, err := l.pick()
	if err != nil {
		return false
	}
	ssid, err := l.runner.Run(ctx, "iwgetid", lk.Name, "--raw")
	return err == nil && strings.TrimSpace(ssid) != ""
}

// Identity returns the current address, MAC, BSSID and SSID.
func (l *Linux) Identity(ctx context.Context) (Identity, error) {
	lk, err := l.pick()
	if err != nil {
		return Identity{}, err
	}
	id := Identity{LocalIP: lk.IPv4, MAC: lk.MAC}

	ssid, err := l.runner.Run(ctx, "iwgetid", lk.Name, "--raw")
	if err != nil {
		return Identity{}, fmt.Errorf("read ssid on %s: %w", lk.Name, err)
	}
	id.SSID = strings.TrimSpace(ssid)

	bssid, err := l.runner.Run(ctx, "iwgetid", lk.Name, "--ap", "--raw")
	if err != nil {
		return Identity{}, fmt.Errorf("read bssid on %s: %w", lk.Name, err)
	}
	id.BSSID = strings.TrimSpace(bssid)

	return id, nil
}

func (l *Linux) pick() (link, error) {
	links, err := l.links()
	if err != nil {
		return link{}, err
	}
	for _, lk := range links {
		if l.iface != "" && lk.Name != l.iface {
			continue
		}
		if !lk.Up || lk.Loopback || lk.IPv4 == "" {
			continue
		}
		return lk, nil
	}
	if l.iface != "" {
		return link{}, fmt.Errorf("%w: interface %s is down or has no IPv4 address", ErrNoIdentity, l.iface)
	}
	return link{}, fmt.Errorf("%w: no usable interface", ErrNoIdentity)
}
