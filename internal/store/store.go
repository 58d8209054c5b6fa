package store

import (
	"context"

	"github.com/me/portalkeep/pkg/model"
)

// Store defines the persistence layer for the session's event history.
type Store interface {
	RecordEvent(ctx context.Context, ev *model.Event) error
	GetEvent(ctx context.Context, id string) (*model.Event, error)
	ListEvents(ctx context.Context, opts model.ListOptions) ([]*model.Event, int, error)
	LastEvent(ctx context.Context, kind model.EventKind) (*model.Event, error)

	// Lifecycle
	Close() error
	Migrate(ctx context.Context) error
}
