package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"

	"github.com/me/portalkeep/internal/config"
	"github.com/me/portalkeep/internal/transport"
)

// Webhook delivers the event over HTTP.
//
// GET mode puts the rendered text in a query parameter next to the
// configured extra parameters and expects 200. POST mode sends the event
// as JSON and accepts any 2xx.
type Webhook struct {
	url       string
	method    string
	textParam string
	params    map[string]string
	headers   map[string]string
	client    transport.Doer
}

// NewWebhook creates a webhook notifier using the given client.
func NewWebhook(cfg config.WebhookConfig, client transport.Doer) *Webhook {
	method := strings.ToUpper(cfg.Method)
	if method == "" {
		method = http.MethodPost
	}
	textParam := cfg.TextParam
	if textParam == "" {
		textParam = "text"
	}
	return &Webhook{
		url:       cfg.URL,
		method:    method,
		textParam: textParam,
		params:    cfg.Params,
		headers:   cfg.Headers,
		client:    client,
	}
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Notify(ctx context.Context, ev Event) error {
	req, err := w.buildRequest(ctx, ev)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	// Assigned directly so the header names go out exactly as configured.
	for k, v := range w.headers {
		req.Header[k] = []string{v}
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

	ok := resp.StatusCode == http.StatusOK
	if w.method == http.MethodPost {
		ok = resp.StatusCode >= 200 && resp.StatusCode < 300
	}
	if !ok {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

func (w *Webhook) buildRequest(ctx context.Context, ev Event) (*http.Request, error) {
	if w.method == http.MethodGet {
		return http.NewRequestWithContext(ctx, http.MethodGet, w.getURL(ev.Text()), nil)
	}

	body, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

// getURL appends the extra params (sorted, for stable URLs) and the encoded text.
func (w *Webhook) getURL(text string) string {
	var b strings.Builder
	b.WriteString(w.url)
	sep := byte('?')
	if strings.Contains(w.url, "?") {
		sep = '&'
	}

	keys := make([]string, 0, len(w.params))
	for k := range w.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteByte(sep)
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(w.params[k]))
		sep = '&'
	}

	b.WriteByte(sep)
	b.WriteString(url.QueryEscape(w.textParam))
	b.WriteByte('=')
	b.WriteString(EncodeMessage(text))
	return b.String()
}
