package service

import (
	"context"
	"sync"
	"time"

	"whiteboard-relay/internal/entity"
)

// fakeRepository is an in-memory NoteRepository that records call order and
// can be switched into a failing state.
type fakeRepository struct {
	mu      sync.Mutex
	notes   map[string]*entity.Note
	log     []string
	err     error
	cutoffs []time.Time
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{notes: make(map[string]*entity.Note)}
}

func (r *fakeRepository) failWith(err error) {
	r.mu.Lock()
	r.err = err
	r.mu.Unlock()
}

func (r *fakeRepository) calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.log...)
}

func (r *fakeRepository) get(id string) *entity.Note {
	r.mu.Lock()
	defer r.mu.Unlock()
	if n, ok := r.notes[id]; ok {
		return n.Clone()
	}
	return nil
}

func (r *fakeRepository) FindAll(ctx context.Context) ([]*entity.Note, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*entity.Note, 0, len(r.notes))
	for _, n := range r.notes {
		out = append(out, n.Clone())
	}
	return out, nil
}

func (r *fakeRepository) Upsert(ctx context.Context, note *entity.Note) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, "upsert:"+note.Id)
	if r.err != nil {
		return r.err
	}
	r.notes[note.Id] = note.Clone()
	return nil
}

func (r *fakeRepository) Merge(ctx context.Context, id string, patch entity.NotePatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, "merge:"+id)
	if r.err != nil {
		return r.err
	}
	if n, ok := r.notes[id]; ok {
		r.notes[id] = patch.Apply(n)
	}
	return nil
}

func (r *fakeRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, "delete:"+id)
	if r.err != nil {
		return r.err
	}
	delete(r.notes, id)
	return nil
}

func (r *fakeRepository) DeleteExpired(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.log = append(r.log, "delete_expired")
	r.cutoffs = append(r.cutoffs, cutoff)
	if r.err != nil {
		return 0, r.err
	}
	var n int64
	for id, note := range r.notes {
		if note.HasTimer() && note.CreatedAt.Before(cutoff) {
			delete(r.notes, id)
			n++
		}
	}
	return n, nil
}

func (r *fakeRepository) Ping(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

func (r *fakeRepository) Close(ctx context.Context) error { return nil }

func (r *fakeRepository) Name() string { return "fake" }
