package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"whiteboard-relay/internal/constant"
	"whiteboard-relay/internal/entity"
	"whiteboard-relay/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDisabledMirrorIsStoreOnly(t *testing.T) {
	m := NewMirrorService(nil, 0, 0, logger.NewNopLogger())

	assert.False(t, m.Enabled())
	assert.Equal(t, "memory", m.Backend())

	notes, err := m.Load(context.Background())
	assert.NoError(t, err)
	assert.Empty(t, notes)

	// writes are silently ignored
	m.Upsert(&entity.Note{Id: "1"})
	m.Delete("1")
	assert.NoError(t, m.Close(context.Background()))
}

func TestMirrorLoadReturnsDurableNotes(t *testing.T) {
	repo := newFakeRepository()
	repo.notes["a"] = &entity.Note{Id: "a", Color: "#fff"}
	m := NewMirrorService(repo, 8, time.Second, logger.NewNopLogger())
	defer m.Close(context.Background())

	notes, err := m.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "a", notes[0].Id)
	assert.Equal(t, "fake", m.Backend())
}

func TestMirrorLoadWrapsFailure(t *testing.T) {
	repo := newFakeRepository()
	repo.failWith(errors.New("no route to host"))
	m := NewMirrorService(repo, 8, time.Second, logger.NewNopLogger())
	defer m.Close(context.Background())

	_, err := m.Load(context.Background())
	assert.ErrorIs(t, err, constant.ErrDurableUnavailable)
}

func TestMirrorUpsertCopiesNote(t *testing.T) {
	repo := newFakeRepository()
	m := NewMirrorService(repo, 8, time.Second, logger.NewNopLogger())

	note := &entity.Note{Id: "1", Content: "original"}
	m.Upsert(note)
	note.Content = "mutated after enqueue"
	require.NoError(t, m.Close(context.Background()))

	assert.Equal(t, "original", repo.get("1").Content)
}

func TestMirrorKeepsAcceptingWritesAfterFailures(t *testing.T) {
	repo := newFakeRepository()
	repo.failWith(errors.New("timeout"))
	m := NewMirrorService(repo, 8, time.Second, logger.NewNopLogger())

	m.Upsert(&entity.Note{Id: "1"})
	m.Delete("1")
	require.NoError(t, m.Close(context.Background()))

	assert.Equal(t, []string{"upsert:1", "delete:1"}, repo.calls())
}

func TestMirrorDeleteExpiredPassesCutoff(t *testing.T) {
	repo := newFakeRepository()
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	repo.notes["old"] = &entity.Note{Id: "old", Timer: ptr(20.0), CreatedAt: created}
	repo.notes["pinned"] = &entity.Note{Id: "pinned", CreatedAt: created}
	m := NewMirrorService(repo, 8, time.Second, logger.NewNopLogger())

	cutoff := created.Add(time.Hour)
	m.DeleteExpired(cutoff)
	require.NoError(t, m.Close(context.Background()))

	assert.Equal(t, []time.Time{cutoff}, repo.cutoffs)
	assert.Nil(t, repo.get("old"))
	assert.NotNil(t, repo.get("pinned"))
}
