package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/me/portalkeep/internal/portal"
	"github.com/me/portalkeep/pkg/model"

	_ "modernc.org/sqlite"
)

// timeFormat is fixed-width so created_at sorts correctly as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and returns a Store.
// Use ":memory:" for an in-memory database (useful in tests).
func NewSQLiteStore(dbPath string, logger *slog.Logger) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	// Each :memory: connection is a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma wal: %w", err)
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("pragma busy_timeout: %w", err)
	}

	return &SQLiteStore{
		db:     db,
		logger: logger.With("component", "store"),
	}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Migrate creates all required tables and indexes.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	s.logger.Debug("sql", "op", "migrate")
	return migrate(ctx, s.db)
}

// NewEventID returns a fresh event identifier.
func NewEventID() string {
	return "ev_" + uuid.New().String()
}

// RecordEvent inserts ev, assigning an ID and timestamp when missing.
func (s *SQLiteStore) RecordEvent(ctx context.Context, ev *model.Event) error {
	if ev.ID == "" {
		ev.ID = NewEventID()
	}
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	ev.CreatedAt = ev.CreatedAt.UTC()
	s.logger.Debug("sql", "op", "insert", "table", "events", "id", ev.ID, "kind", ev.Kind)

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO events (id, kind, ok, status_code, detail, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ID, string(ev.Kind), boolToInt(ev.OK), ev.StatusCode, ev.Detail,
		ev.CreatedAt.Format(timeFormat),
	)
	return err
}

// Record implements portal.Recorder.
func (s *SQLiteStore) Record(ctx context.Context, o portal.Outcome) error {
	return s.RecordEvent(ctx, &model.Event{
		Kind:       model.EventKind(o.Kind),
		OK:         o.OK,
		StatusCode: o.StatusCode,
		Detail:     o.Detail,
		CreatedAt:  o.At,
	})
}

func (s *SQLiteStore) GetEvent(ctx context.Context, id string) (*model.Event, error) {
	s.logger.Debug("sql", "op", "select", "table", "events", "id", id)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, ok, status_code, detail, created_at FROM events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ev, err
}

// ListEvents returns events newest first, optionally filtered by kind,
// together with the total number of matching events.
func (s *SQLiteStore) ListEvents(ctx context.Context, opts model.ListOptions) ([]*model.Event, int, error) {
	s.logger.Debug("sql", "op", "list", "table", "events", "kind", opts.Kind, "limit", opts.Limit, "offset", opts.Offset)
	opts.Clamp()

	where := ""
	var args []any
	if opts.Kind != "" {
		where = " WHERE kind = ?"
		args = append(args, string(opts.Kind))
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, ok, status_code, detail, created_at FROM events`+where+
			` ORDER BY created_at DESC, rowid DESC LIMIT ? OFFSET ?`,
		append(args, opts.Limit, opts.Offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var events []*model.Event
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, 0, err
		}
		events = append(events, ev)
	}
	return events, total, rows.Err()
}

// LastEvent returns the most recent event of the given kind, or nil.
func (s *SQLiteStore) LastEvent(ctx context.Context, kind model.EventKind) (*model.Event, error) {
	s.logger.Debug("sql", "op", "select", "table", "events", "kind", kind, "last", true)

	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, ok, status_code, detail, created_at FROM events
		 WHERE kind = ? ORDER BY created_at DESC, rowid DESC LIMIT 1`, string(kind))
	ev, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return ev, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(sc scanner) (*model.Event, error) {
	var ev model.Event
	var kind, createdAt string
	var ok int
	if err := sc.Scan(&ev.ID, &kind, &ok, &ev.StatusCode, &ev.Detail, &createdAt); err != nil {
		return nil, err
	}
	ev.Kind = model.EventKind(kind)
	ev.OK = ok != 0
	ev.CreatedAt, _ = time.Parse(timeFormat, createdAt)
	return &ev, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
