package contract

import (
	"context"
	"time"

	"whiteboard-relay/internal/entity"
)

// NoteRepository is the durable mirror of the note store. Every write is
// idempotent by id so retries and concurrent writers cannot corrupt state.
type NoteRepository interface {
	FindAll(ctx context.Context) ([]*entity.Note, error)
	Upsert(ctx context.Context, note *entity.Note) error
	Merge(ctx context.Context, id string, patch entity.NotePatch) error
	Delete(ctx context.Context, id string) error
	// DeleteExpired removes notes with a timer created before cutoff.
	DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error)
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	Name() string
}
