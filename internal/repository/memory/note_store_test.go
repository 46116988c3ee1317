package memory

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"whiteboard-relay/internal/constant"
	"whiteboard-relay/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

var base = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func note(id string, timer *float64, createdAt time.Time) *entity.Note {
	return &entity.Note{Id: id, X: 10, Y: 20, Color: "#FFB3B3", Timer: timer, CreatedAt: createdAt}
}

func TestInsertRejectsDuplicateId(t *testing.T) {
	s := NewNoteStore()
	require.NoError(t, s.Insert(note("1", nil, base)))

	err := s.Insert(note("1", nil, base))
	assert.ErrorIs(t, err, constant.ErrDuplicateId)
	assert.Equal(t, 1, s.Len())
}

func TestPutOverwrites(t *testing.T) {
	s := NewNoteStore()
	s.Put(note("1", nil, base))

	replacement := note("1", nil, base.Add(time.Minute))
	replacement.Content = "second"
	s.Put(replacement)

	got, ok := s.Get("1")
	require.True(t, ok)
	assert.Equal(t, "second", got.Content)
	assert.Equal(t, 1, s.Len())
}

func TestUpdateMissingIsNotFound(t *testing.T) {
	s := NewNoteStore()
	_, err := s.Update("missing", entity.NotePatch{Content: ptr("x")})
	assert.ErrorIs(t, err, constant.ErrNotFound)
}

func TestUpdatePreservesIdentityAndUntouchedFields(t *testing.T) {
	s := NewNoteStore()
	require.NoError(t, s.Insert(note("n1", ptr(20.0), base)))

	merged, err := s.Update("n1", entity.NotePatch{X: ptr(-5.0), Content: ptr("hi")})
	require.NoError(t, err)

	assert.Equal(t, "n1", merged.Id)
	assert.Equal(t, -5.0, merged.X)
	assert.Equal(t, 20.0, merged.Y)
	assert.Equal(t, "hi", merged.Content)
	assert.Equal(t, "#FFB3B3", merged.Color)
	assert.Equal(t, base, merged.CreatedAt)

	stored, _ := s.Get("n1")
	assert.Equal(t, merged, stored)
}

func TestReturnedNotesAreCopies(t *testing.T) {
	s := NewNoteStore()
	n := note("1", ptr(20.0), base)
	require.NoError(t, s.Insert(n))

	n.Content = "mutated after insert"
	snap := s.Snapshot()
	snap[0].X = 999
	*snap[0].Timer = 1

	got, _ := s.Get("1")
	assert.Equal(t, "", got.Content)
	assert.Equal(t, 10.0, got.X)
	assert.Equal(t, 20.0, *got.Timer)
}

func TestRemoveIsIdempotent(t *testing.T) {
	s := NewNoteStore()
	require.NoError(t, s.Insert(note("1", nil, base)))

	assert.True(t, s.Remove("1"))
	assert.False(t, s.Remove("1"))
	assert.False(t, s.Remove("never-existed"))
	assert.Equal(t, 0, s.Len())
}

func TestReplaceOnlyWhenLive(t *testing.T) {
	s := NewNoteStore()
	assert.ErrorIs(t, s.Replace(note("ghost", nil, base)), constant.ErrNotFound)

	require.NoError(t, s.Insert(note("1", nil, base)))
	updated := note("1", nil, base)
	updated.Content = "remote"
	require.NoError(t, s.Replace(updated))

	got, _ := s.Get("1")
	assert.Equal(t, "remote", got.Content)
}

func TestSnapshotOrderedByCreation(t *testing.T) {
	s := NewNoteStore()
	s.Put(note("c", nil, base.Add(2*time.Second)))
	s.Put(note("b", nil, base))
	s.Put(note("a", nil, base))

	var ids []string
	for _, n := range s.Snapshot() {
		ids = append(ids, n.Id)
	}
	assert.Equal(t, []string{"a", "b", "c"}, ids)
}

func TestSnapshotOfEmptyStoreIsEmptySlice(t *testing.T) {
	snap := NewNoteStore().Snapshot()
	assert.NotNil(t, snap)
	assert.Empty(t, snap)
}

func TestRemoveExpiredBoundaries(t *testing.T) {
	window := 24 * time.Hour
	s := NewNoteStore()
	s.Put(note("timed", ptr(20.0), base))
	s.Put(note("forever", nil, base))

	assert.Empty(t, s.RemoveExpired(base.Add(window-time.Second), window))
	assert.Empty(t, s.RemoveExpired(base.Add(window), window))

	removed := s.RemoveExpired(base.Add(window+time.Second), window)
	require.Len(t, removed, 1)
	assert.Equal(t, "timed", removed[0].Id)

	_, ok := s.Get("forever")
	assert.True(t, ok)
}

func TestNoTimerNotesSurviveAnySweep(t *testing.T) {
	s := NewNoteStore()
	s.Put(note("forever", nil, base))

	for _, elapsed := range []time.Duration{time.Hour, 48 * time.Hour, 10 * 365 * 24 * time.Hour} {
		assert.Empty(t, s.RemoveExpired(base.Add(elapsed), 24*time.Hour))
	}
	assert.Equal(t, 1, s.Len())
}

func TestLoadSkipsBlankIds(t *testing.T) {
	s := NewNoteStore()
	s.Load([]*entity.Note{note("1", nil, base), {Id: ""}, nil})
	assert.Equal(t, 1, s.Len())
}

func TestConcurrentUpdatesAreSerialised(t *testing.T) {
	s := NewNoteStore()
	require.NoError(t, s.Insert(note("1", nil, base)))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.Update("1", entity.NotePatch{Content: ptr(fmt.Sprintf("v%d", i))})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	got, ok := s.Get("1")
	require.True(t, ok)
	assert.Equal(t, "1", got.Id)
	assert.Contains(t, got.Content, "v")
}
