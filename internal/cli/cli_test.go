package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/me/portalkeep/internal/logging"
	"github.com/me/portalkeep/internal/portal"
	"github.com/me/portalkeep/internal/server"
)

func statusServer(t *testing.T, status int) string {
	t.Helper()
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
	}))
	t.Cleanup(ts.Close)
	return ts.URL
}

// writeConfig writes a config file using a static network and a temp history DB.
func writeConfig(t *testing.T, checkURL, loginURL string, withStore bool) string {
	t.Helper()
	dir := t.TempDir()
	storePath := ""
	if withStore {
		storePath = filepath.Join(dir, "events.db")
	}
	content := fmt.Sprintf(`credentials:
  username: bob
  password: s3cret
portal:
  check_url: %s
  login_url: %s
timing:
  request_timeout: 2s
  login_pause: 0s
network:
  mode: static
  local_ip: 10.0.0.2
  mac: "AA:BB:CC:DD:EE:FF"
  bssid: "11:22:33:44:55:66"
  ssid: lab
store:
  path: %q
log:
  level: error
`, checkURL, loginURL, storePath)

	path := filepath.Join(dir, "portalkeep.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()

	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)

	err := root.Execute()
	return buf.String(), err
}

func TestConfigValidate(t *testing.T) {
	cfgPath := writeConfig(t, "http://127.0.0.1:1/generate_204", "http://127.0.0.1:1/login", false)
	out, err := runCLI(t, "--config", cfgPath, "config", "validate")
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "Config OK (notification disabled)") {
		t.Errorf("output = %q", out)
	}
}

func TestConfigValidate_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("portal:\n  check_url: ftp://x\n"), 0o600)

	_, err := runCLI(t, "--config", path, "config", "validate")
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"credentials.username", "portal.check_url"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

func TestConfigShow_MasksPassword(t *testing.T) {
	cfgPath := writeConfig(t, "http://127.0.0.1:1/generate_204", "http://127.0.0.1:1/login", false)
	out, err := runCLI(t, "--config", cfgPath, "config", "show")
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	if strings.Contains(out, "s3cret") {
		t.Error("password printed in clear")
	}
	if !strings.Contains(out, "username: bob") {
		t.Errorf("output missing username:\n%s", out)
	}
}

func TestProbeCommand(t *testing.T) {
	online := writeConfig(t, statusServer(t, http.StatusNoContent), "http://127.0.0.1:1/login", false)
	out, err := runCLI(t, "--config", online, "probe")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if !strings.HasPrefix(out, "online") {
		t.Errorf("output = %q", out)
	}

	offline := writeConfig(t, statusServer(t, http.StatusFound), "http://127.0.0.1:1/login", false)
	out, err = runCLI(t, "--config", offline, "probe")
	if err == nil {
		t.Fatal("expected probe failure")
	}
	if !strings.Contains(out, "unexpected status 302") {
		t.Errorf("output = %q", out)
	}
}

func TestLoginCommand(t *testing.T) {
	cfgPath := writeConfig(t, "http://127.0.0.1:1/generate_204", statusServer(t, http.StatusFound), false)
	out, err := runCLI(t, "--config", cfgPath, "login")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, "Login accepted for bob") {
		t.Errorf("output = %q", out)
	}

	rejected := writeConfig(t, "http://127.0.0.1:1/generate_204", statusServer(t, http.StatusNotFound), false)
	if _, err := runCLI(t, "--config", rejected, "login"); err == nil || !strings.Contains(err.Error(), "404") {
		t.Errorf("err = %v, want 404 failure", err)
	}
}

func TestStatusAndHistory(t *testing.T) {
	cfgPath := writeConfig(t, statusServer(t, http.StatusNoContent), statusServer(t, http.StatusFound), true)

	out, err := runCLI(t, "--config", cfgPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out, "Last probe:   never") {
		t.Errorf("empty status output:\n%s", out)
	}

	if _, err := runCLI(t, "--config", cfgPath, "probe"); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if _, err := runCLI(t, "--config", cfgPath, "login"); err != nil {
		t.Fatalf("login: %v", err)
	}

	out, err = runCLI(t, "--config", cfgPath, "status")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	for _, want := range []string{"ok (HTTP 204)", "ok (HTTP 302)", "Last notify:  never", "now"} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}

	out, err = runCLI(t, "--config", cfgPath, "history")
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if !strings.Contains(out, "probe") || !strings.Contains(out, "login") {
		t.Errorf("history output:\n%s", out)
	}

	out, err = runCLI(t, "--config", cfgPath, "history", "--kind", "login")
	if err != nil {
		t.Fatalf("history --kind: %v", err)
	}
	if strings.Contains(out, "probe ") {
		t.Errorf("filtered history shows probes:\n%s", out)
	}

	out, err = runCLI(t, "--config", cfgPath, "history", "--limit", "1")
	if err != nil {
		t.Fatalf("history --limit: %v", err)
	}
	if !strings.Contains(out, "(1 of 2 shown)") {
		t.Errorf("limited history:\n%s", out)
	}
}

func TestHistory_Errors(t *testing.T) {
	cfgPath := writeConfig(t, "http://127.0.0.1:1/", "http://127.0.0.1:1/", false)

	if _, err := runCLI(t, "--config", cfgPath, "history", "--kind", "bogus"); err == nil {
		t.Error("expected error for unknown kind")
	}
	_, err := runCLI(t, "--config", cfgPath, "history")
	if err == nil || !strings.Contains(err.Error(), "history is disabled") {
		t.Errorf("err = %v, want disabled history error", err)
	}
}

type fixedStatus portal.Snapshot

func (f fixedStatus) Snapshot() portal.Snapshot { return portal.Snapshot(f) }

func TestStatusRemote(t *testing.T) {
	srv := server.New(fixedStatus{
		LastCheck:     time.Now().Add(-150 * time.Second),
		Checked:       true,
		Interval:      5 * time.Minute,
		NotifyEnabled: true,
	}, logging.Discard())
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	out, err := runCLI(t, "status", "--remote", ts.URL)
	if err != nil {
		t.Fatalf("status --remote: %v", err)
	}
	for _, want := range []string{"Interval:   5m0s", "Last check: 2 minutes ago", "Next check: 2 minutes from now", "Notify:     pending"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestStatusRemote_Unreachable(t *testing.T) {
	if _, err := runCLI(t, "status", "--remote", "http://127.0.0.1:1"); err == nil {
		t.Error("expected error for unreachable daemon")
	}
}
