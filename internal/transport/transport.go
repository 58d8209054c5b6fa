// Package transport builds the HTTP clients used to talk to the portal,
// the reachability endpoint and notification webhooks.
package transport

import (
	"crypto/tls"
	"net/http"
	"time"
)

// Doer is the capability the session depends on. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Options configures a client.
type Options struct {
	// Timeout bounds the whole request, including reading the status line.
	Timeout time.Duration

	// InsecureSkipVerify disables certificate verification. The UTM portal
	// presents an untrusted certificate, so its login endpoint needs this.
	InsecureSkipVerify bool

	// FollowRedirects makes the client chase 3xx responses. Off by default:
	// the portal signals a successful login with 302 and that status must
	// be observed, not followed.
	FollowRedirects bool

	// KeepAlive leaves connection reuse on. Without it net/http adds its own
	// "Connection: close" to every request, which would sit next to a
	// configured Connection header instead of replacing it.
	KeepAlive bool
}

// idleTimeout bounds how long a kept-alive connection waits between polls.
const idleTimeout = 30 * time.Second

// New creates an http.Client for the given options. Connections are not
// pooled across calls unless KeepAlive is set; each poll is minutes apart.
func New(opts Options) *http.Client {
	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DisableKeepAlives:   !opts.KeepAlive,
		TLSHandshakeTimeout: opts.Timeout,
	}
	if opts.KeepAlive {
		transport.MaxIdleConns = 1
		transport.IdleConnTimeout = idleTimeout
	}
	if opts.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // portal certificate is self-signed
	}

	client := &http.Client{
		Timeout:   opts.Timeout,
		Transport: transport,
	}
	if !opts.FollowRedirects {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client
}

// Plain returns a client for plain HTTP endpoints such as the reachability check.
func Plain(timeout time.Duration) *http.Client {
	return New(Options{Timeout: timeout})
}

// Insecure returns a client that skips TLS certificate validation.
func Insecure(timeout time.Duration) *http.Client {
	return New(Options{Timeout: timeout, InsecureSkipVerify: true})
}
