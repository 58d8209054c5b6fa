package transport

import (
	"bufio"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNew_DoesNotFollowRedirects(t *testing.T) {
	var landed bool
	mux := http.NewServeMux()
	mux.HandleFunc("/login", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/welcome", http.StatusFound)
	})
	mux.HandleFunc("/welcome", func(w http.ResponseWriter, r *http.Request) {
		landed = true
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := Plain(time.Second).Get(srv.URL + "/login")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Errorf("status = %d, want 302", resp.StatusCode)
	}
	if landed {
		t.Error("redirect target should not have been requested")
	}
}

func TestNew_FollowRedirectsWhenAsked(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/b", http.StatusFound)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	resp, err := New(Options{Timeout: time.Second, FollowRedirects: true}).Get(srv.URL + "/a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("status = %d, want 204", resp.StatusCode)
	}
}

func TestInsecure_AcceptsSelfSignedCertificate(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if _, err := Plain(time.Second).Get(srv.URL); err == nil {
		t.Error("verifying client should reject the test certificate")
	}

	resp, err := Insecure(time.Second).Get(srv.URL)
	if err != nil {
		t.Fatalf("insecure Get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d, want 200", resp.StatusCode)
	}
}

func TestNew_Timeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	_, err := Plain(50 * time.Millisecond).Get(srv.URL)
	if err == nil {
		t.Fatal("expected timeout error")
	}
}

// connectionHeader sends one GET through client to a raw listener and
// returns the Connection header lines it received.
func connectionHeader(t *testing.T, client *http.Client, set string) []string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	got := make(chan []string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		req, err := http.ReadRequest(bufio.NewReader(conn))
		if err != nil {
			return
		}
		got <- req.Header["Connection"]
		conn.Write([]byte("HTTP/1.1 204 No Content\r\n\r\n"))
	}()

	req, err := http.NewRequest(http.MethodGet, "http://"+ln.Addr().String()+"/", nil)
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if set != "" {
		req.Header["Connection"] = []string{set}
	}
	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	resp.Body.Close()

	select {
	case h := <-got:
		return h
	case <-time.After(5 * time.Second):
		t.Fatal("no request received")
		return nil
	}
}

func TestNew_KeepAliveSendsConfiguredConnectionOnly(t *testing.T) {
	h := connectionHeader(t, New(Options{Timeout: time.Second, KeepAlive: true}), "keep-alive")
	if len(h) != 1 || h[0] != "keep-alive" {
		t.Errorf("Connection = %q, want [keep-alive]", h)
	}
}

func TestNew_NoKeepAliveClosesConnection(t *testing.T) {
	h := connectionHeader(t, Plain(time.Second), "")
	if len(h) != 1 || h[0] != "close" {
		t.Errorf("Connection = %q, want [close]", h)
	}
}
