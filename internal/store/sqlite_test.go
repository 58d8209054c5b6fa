package store

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/me/portalkeep/internal/portal"
	"github.com/me/portalkeep/pkg/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	st, err := NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

var t0 = time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)

func seed(t *testing.T, st *SQLiteStore) {
	t.Helper()
	events := []*model.Event{
		{Kind: model.EventKindProbe, OK: false, StatusCode: 302, Detail: "probe: unexpected status 302", CreatedAt: t0},
		{Kind: model.EventKindLogin, OK: true, StatusCode: 302, CreatedAt: t0.Add(time.Second)},
		{Kind: model.EventKindProbe, OK: true, StatusCode: 204, CreatedAt: t0.Add(5 * time.Minute)},
		{Kind: model.EventKindNotify, OK: true, CreatedAt: t0.Add(5*time.Minute + 10*time.Millisecond)},
		{Kind: model.EventKindProbe, OK: true, StatusCode: 204, CreatedAt: t0.Add(10 * time.Minute)},
	}
	for _, ev := range events {
		if err := st.RecordEvent(context.Background(), ev); err != nil {
			t.Fatalf("RecordEvent: %v", err)
		}
	}
}

func TestRecordAndGetEvent(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	ev := &model.Event{Kind: model.EventKindLogin, OK: false, StatusCode: 404, Detail: "login: unexpected status 404", CreatedAt: t0}
	if err := st.RecordEvent(ctx, ev); err != nil {
		t.Fatalf("RecordEvent: %v", err)
	}
	if !strings.HasPrefix(ev.ID, "ev_") {
		t.Errorf("ID = %q, want ev_ prefix", ev.ID)
	}

	got, err := st.GetEvent(ctx, ev.ID)
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if got == nil {
		t.Fatal("GetEvent returned nil")
	}
	if got.Kind != model.EventKindLogin || got.OK || got.StatusCode != 404 || got.Detail != ev.Detail {
		t.Errorf("got %+v", got)
	}
	if !got.CreatedAt.Equal(t0) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, t0)
	}
}

func TestGetEvent_NotFound(t *testing.T) {
	st := testStore(t)
	got, err := st.GetEvent(context.Background(), "ev_missing")
	if err != nil {
		t.Fatalf("GetEvent: %v", err)
	}
	if got != nil {
		t.Errorf("got %+v, want nil", got)
	}
}

func TestListEvents(t *testing.T) {
	st := testStore(t)
	seed(t, st)
	ctx := context.Background()

	all, total, err := st.ListEvents(ctx, model.ListOptions{})
	if err != nil {
		t.Fatalf("ListEvents: %v", err)
	}
	if total != 5 || len(all) != 5 {
		t.Fatalf("total=%d len=%d, want 5/5", total, len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].CreatedAt.After(all[i-1].CreatedAt) {
			t.Errorf("events not newest first at %d", i)
		}
	}

	probes, total, err := st.ListEvents(ctx, model.ListOptions{Kind: model.EventKindProbe, Limit: 2})
	if err != nil {
		t.Fatalf("ListEvents(probe): %v", err)
	}
	if total != 3 {
		t.Errorf("probe total = %d, want 3", total)
	}
	if len(probes) != 2 {
		t.Fatalf("len = %d, want 2", len(probes))
	}
	if !probes[0].CreatedAt.Equal(t0.Add(10 * time.Minute)) {
		t.Errorf("first probe at %v", probes[0].CreatedAt)
	}

	page, _, err := st.ListEvents(ctx, model.ListOptions{Kind: model.EventKindProbe, Limit: 2, Offset: 2})
	if err != nil {
		t.Fatalf("ListEvents(offset): %v", err)
	}
	if len(page) != 1 || page[0].OK {
		t.Errorf("last page = %+v", page)
	}
}

func TestLastEvent(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	if ev, err := st.LastEvent(ctx, model.EventKindLogin); err != nil || ev != nil {
		t.Fatalf("empty store: %+v, %v", ev, err)
	}

	seed(t, st)
	ev, err := st.LastEvent(ctx, model.EventKindProbe)
	if err != nil {
		t.Fatalf("LastEvent: %v", err)
	}
	if ev == nil || !ev.CreatedAt.Equal(t0.Add(10*time.Minute)) {
		t.Errorf("last probe = %+v", ev)
	}
	ev, err = st.LastEvent(ctx, model.EventKindNotify)
	if err != nil || ev == nil || !ev.OK {
		t.Errorf("last notify = %+v, %v", ev, err)
	}
}

func TestRecord_PortalOutcome(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()

	var rec portal.Recorder = st
	err := rec.Record(ctx, portal.Outcome{Kind: portal.KindProbe, OK: true, StatusCode: 204, At: t0})
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	ev, err := st.LastEvent(ctx, model.EventKindProbe)
	if err != nil || ev == nil {
		t.Fatalf("LastEvent: %+v, %v", ev, err)
	}
	if !ev.OK || ev.StatusCode != 204 || !ev.CreatedAt.Equal(t0) {
		t.Errorf("event = %+v", ev)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.db")
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	for i := 0; i < 2; i++ {
		st, err := NewSQLiteStore(path, logger)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		if err := st.Migrate(context.Background()); err != nil {
			t.Fatalf("migrate %d: %v", i, err)
		}
		if err := st.RecordEvent(context.Background(), &model.Event{Kind: model.EventKindProbe, OK: true}); err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		st.Close()
	}

	st, err := NewSQLiteStore(path, logger)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer st.Close()
	_, total, err := st.ListEvents(context.Background(), model.ListOptions{})
	if err != nil || total != 2 {
		t.Errorf("total = %d, %v; want 2 persisted events", total, err)
	}
}
