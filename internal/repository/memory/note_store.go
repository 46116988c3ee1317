package memory

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"whiteboard-relay/internal/constant"
	"whiteboard-relay/internal/entity"

	"github.com/patrickmn/go-cache"
)

// NoteStore is the authoritative in-memory set of live notes keyed by id.
// Every method is a single critical section; callers always get copies.
type NoteStore struct {
	mu    sync.Mutex
	cache *cache.Cache
}

func NewNoteStore() *NoteStore {
	// Items never expire on their own and no janitor runs: the sweeper owns
	// expiry because it needs the timer-aware predicate.
	return &NoteStore{
		cache: cache.New(cache.NoExpiration, 0),
	}
}

// Snapshot returns every live note ordered by creation time, then id.
func (s *NoteStore) Snapshot() []*entity.Note {
	s.mu.Lock()
	items := s.cache.Items()
	s.mu.Unlock()

	notes := make([]*entity.Note, 0, len(items))
	for _, item := range items {
		notes = append(notes, item.Object.(*entity.Note).Clone())
	}
	sortNotes(notes)
	return notes
}

func (s *NoteStore) Get(id string) (*entity.Note, bool) {
	if x, found := s.cache.Get(id); found {
		return x.(*entity.Note).Clone(), true
	}
	return nil, false
}

func (s *NoteStore) Insert(note *entity.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cache.Add(note.Id, note.Clone(), cache.NoExpiration); err != nil {
		return fmt.Errorf("insert %q: %w", note.Id, constant.ErrDuplicateId)
	}
	return nil
}

// Put inserts or overwrites.
func (s *NoteStore) Put(note *entity.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cache.Set(note.Id, note.Clone(), cache.NoExpiration)
}

// Update merges patch into the stored note and returns the merged copy.
func (s *NoteStore) Update(id string, patch entity.NotePatch) (*entity.Note, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	x, found := s.cache.Get(id)
	if !found {
		return nil, fmt.Errorf("update %q: %w", id, constant.ErrNotFound)
	}

	merged := patch.Apply(x.(*entity.Note))
	s.cache.Set(id, merged, cache.NoExpiration)
	return merged.Clone(), nil
}

// Replace overwrites a note only if it is still live.
func (s *NoteStore) Replace(note *entity.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.cache.Replace(note.Id, note.Clone(), cache.NoExpiration); err != nil {
		return fmt.Errorf("replace %q: %w", note.Id, constant.ErrNotFound)
	}
	return nil
}

// Remove deletes the note if present. Removing an absent id is not an error.
func (s *NoteStore) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, found := s.cache.Get(id); !found {
		return false
	}
	s.cache.Delete(id)
	return true
}

// RemoveExpired drops and returns every note with a timer whose age exceeds window.
func (s *NoteStore) RemoveExpired(now time.Time, window time.Duration) []*entity.Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []*entity.Note
	for id, item := range s.cache.Items() {
		note := item.Object.(*entity.Note)
		if note.Expired(now, window) {
			s.cache.Delete(id)
			removed = append(removed, note)
		}
	}
	sortNotes(removed)
	return removed
}

// Load seeds the store, typically from the durable snapshot at startup.
func (s *NoteStore) Load(notes []*entity.Note) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range notes {
		if n == nil || n.Id == "" {
			continue
		}
		s.cache.Set(n.Id, n.Clone(), cache.NoExpiration)
	}
}

func (s *NoteStore) Len() int {
	return s.cache.ItemCount()
}

func sortNotes(notes []*entity.Note) {
	sort.Slice(notes, func(i, j int) bool {
		if !notes[i].CreatedAt.Equal(notes[j].CreatedAt) {
			return notes[i].CreatedAt.Before(notes[j].CreatedAt)
		}
		return notes[i].Id < notes[j].Id
	})
}
