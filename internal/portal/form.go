package portal

import (
	"net/url"
	"strings"

	"github.com/me/portalkeep/internal/netstack"
)

// EncodeMAC lowercases a colon-separated MAC and percent-encodes the colons,
// the form the portal expects in mac and client_mac.
func EncodeMAC(mac string) string {
	return strings.ReplaceAll(strings.ToLower(mac), ":", "%3A")
}

// LoginForm is the portal login form. Fields are written in the fixed order
// the portal's own page submits them.
type LoginForm struct {
	Username    string
	Password    string
	Domain      string
	RedirectURL string
	Identity    netstack.Identity
}

// Encode renders the form as an application/x-www-form-urlencoded body.
func (f LoginForm) Encode() string {
	fields := [][2]string{
		{"username", url.QueryEscape(f.Username)},
		{"password", url.QueryEscape(f.Password)},
		{"sip", f.Domain},
		{"mac", EncodeMAC(f.Identity.BSSID)},
		{"uip", f.Identity.LocalIP},
		{"client_mac", EncodeMAC(f.Identity.MAC)},
		{"dn", f.Domain},
		{"url", url.QueryEscape(f.RedirectURL)},
		{"ssid", url.QueryEscape(f.Identity.SSID)},
	}

	var b strings.Builder
	for i, kv := range fields {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(kv[0])
		b.WriteByte('=')
		b.WriteString(kv[1])
	}
	return b.String()
}
