package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"whiteboard-relay/internal/constant"
	"whiteboard-relay/internal/dto"
	"whiteboard-relay/internal/entity"
	"whiteboard-relay/internal/mapper"
	"whiteboard-relay/internal/pkg/logger"
	"whiteboard-relay/internal/pkg/metrics"
	"whiteboard-relay/internal/pkg/serverutils"
	"whiteboard-relay/internal/repository/memory"
	"whiteboard-relay/pkg/events"
)

// NoteDelivery pushes one event to every connected client.
// Typically implemented by the WebSocket Hub.
type NoteDelivery interface {
	Broadcast(event string, payload interface{})
}

// Replicator forwards locally applied events to other relay instances.
type Replicator interface {
	Publish(event string, payload interface{})
}

type INoteService interface {
	// Join runs attach with the current snapshot inside the writer critical
	// section, so the joining client sees exactly the snapshot followed by
	// every later broadcast.
	Join(attach func(snapshot []*entity.Note))
	Snapshot() []*entity.Note
	Count() int
	Add(ctx context.Context, req *dto.AddNoteRequest) (*entity.Note, error)
	Update(ctx context.Context, req *dto.UpdateNoteRequest) (*entity.Note, error)
	Delete(ctx context.Context, req *dto.DeleteNoteRequest) error
	SweepExpired(now time.Time, window time.Duration) []*entity.Note
	ApplyRemote(evt events.Event) error
	SetReplicator(r Replicator)
}

type NoteServiceOptions struct {
	// BroadcastExpiry emits note-deleted for notes removed by the sweeper.
	BroadcastExpiry bool
	// Now is the clock used to stamp createdAt. Defaults to time.Now.
	Now func() time.Time
}

type noteService struct {
	// mu is the single-writer section: store mutation and broadcast enqueue
	// happen under it so every client observes mutations in store order.
	mu         sync.Mutex
	store      *memory.NoteStore
	delivery   NoteDelivery
	mirror     IMirrorService
	replicator Replicator
	mapper     *mapper.NoteMapper
	logger     logger.ILogger
	opts       NoteServiceOptions
}

func NewNoteService(
	store *memory.NoteStore,
	delivery NoteDelivery,
	mirror IMirrorService,
	log logger.ILogger,
	opts NoteServiceOptions,
) INoteService {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &noteService{
		store:    store,
		delivery: delivery,
		mirror:   mirror,
		mapper:   mapper.NewNoteMapper(),
		logger:   log,
		opts:     opts,
	}
}

func (s *noteService) SetReplicator(r Replicator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replicator = r
}

func (s *noteService) Join(attach func(snapshot []*entity.Note)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	attach(s.store.Snapshot())
}

func (s *noteService) Snapshot() []*entity.Note {
	return s.store.Snapshot()
}

func (s *noteService) Count() int {
	return s.store.Len()
}

func (s *noteService) Add(ctx context.Context, req *dto.AddNoteRequest) (*entity.Note, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		metrics.NoteMutationsTotal.WithLabelValues("add", "malformed").Inc()
		return nil, err
	}

	note := s.mapper.FromAddRequest(req)
	note.CreatedAt = s.opts.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Insert(note); err != nil {
		if !errors.Is(err, constant.ErrDuplicateId) {
			return nil, err
		}
		// Client-chosen ids (timestamps) can collide; last write wins.
		s.logger.Warn("NoteService", "Duplicate note id on add, overwriting", map[string]interface{}{"note_id": note.Id})
		s.store.Put(note)
	}

	payload := s.mapper.ToResponse(note)
	s.delivery.Broadcast(constant.EventNoteAdded, payload)
	s.mirror.Upsert(note)
	s.replicate(constant.EventNoteAdded, payload)

	metrics.NoteMutationsTotal.WithLabelValues("add", "ok").Inc()
	metrics.LiveNotes.Set(float64(s.store.Len()))
	s.logger.Debug("NoteService", "Note added", map[string]interface{}{"note_id": note.Id})
	return note, nil
}

func (s *noteService) Update(ctx context.Context, req *dto.UpdateNoteRequest) (*entity.Note, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		metrics.NoteMutationsTotal.WithLabelValues("update", "malformed").Inc()
		return nil, err
	}

	patch := s.mapper.FromUpdateRequest(req)

	s.mu.Lock()
	defer s.mu.Unlock()

	before, _ := s.store.Get(req.Id)
	merged, err := s.store.Update(req.Id, patch)
	if err != nil {
		metrics.NoteMutationsTotal.WithLabelValues("update", "not_found").Inc()
		s.logger.Warn("NoteService", "Note not found for update", map[string]interface{}{"note_id": req.Id})
		return nil, err
	}

	if patch.MovesNote() && before != nil {
		s.logger.Debug("NoteService", "Position update", map[string]interface{}{
			"note_id": req.Id,
			"from":    map[string]float64{"x": before.X, "y": before.Y},
			"to":      map[string]float64{"x": merged.X, "y": merged.Y},
		})
	}

	payload := s.mapper.ToResponse(merged)
	s.delivery.Broadcast(constant.EventNoteUpdated, payload)
	if !patch.IsEmpty() {
		s.mirror.Merge(req.Id, patch)
	}
	s.replicate(constant.EventNoteUpdated, payload)

	metrics.NoteMutationsTotal.WithLabelValues("update", "ok").Inc()
	return merged, nil
}

func (s *noteService) Delete(ctx context.Context, req *dto.DeleteNoteRequest) error {
	if err := serverutils.ValidateRequest(req); err != nil {
		metrics.NoteMutationsTotal.WithLabelValues("delete", "malformed").Inc()
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.store.Remove(req.Id)

	// Broadcast even when nothing was removed: duplicate deletes and races
	// with expiry are expected and harmless for clients.
	s.delivery.Broadcast(constant.EventNoteDeleted, req.Id)
	s.mirror.Delete(req.Id)
	s.replicate(constant.EventNoteDeleted, req.Id)

	metrics.NoteMutationsTotal.WithLabelValues("delete", "ok").Inc()
	metrics.LiveNotes.Set(float64(s.store.Len()))
	s.logger.Debug("NoteService", "Note deleted", map[string]interface{}{"note_id": req.Id, "was_live": removed})
	return nil
}

// SweepExpired removes expired notes from memory only. The durable side is
// handled by the sweeper through the mirror with the same window.
func (s *noteService) SweepExpired(now time.Time, window time.Duration) []*entity.Note {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := s.store.RemoveExpired(now, window)
	if s.opts.BroadcastExpiry {
		for _, n := range removed {
			s.delivery.Broadcast(constant.EventNoteDeleted, n.Id)
		}
	}

	metrics.NotesExpiredTotal.Add(float64(len(removed)))
	metrics.LiveNotes.Set(float64(s.store.Len()))
	return removed
}

// ApplyRemote applies an event published by another relay instance to the
// local store and broadcasts it to local clients. It is not mirrored or
// re-published: the origin instance already did both.
func (s *noteService) ApplyRemote(evt events.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch evt.EventType() {
	case constant.EventNoteAdded, constant.EventNoteUpdated:
		var payload dto.NoteResponse
		if err := json.Unmarshal(evt.Payload(), &payload); err != nil || payload.Id == "" {
			return fmt.Errorf("%w: remote %s", constant.ErrMalformedPayload, evt.EventType())
		}
		note := s.mapper.FromResponse(&payload)
		if evt.EventType() == constant.EventNoteAdded {
			s.store.Put(note)
		} else if err := s.store.Replace(note); err != nil {
			// Deleted here already; do not resurrect it.
			return nil
		}
		s.delivery.Broadcast(evt.EventType(), s.mapper.ToResponse(note))

	case constant.EventNoteDeleted:
		var id string
		if err := json.Unmarshal(evt.Payload(), &id); err != nil || id == "" {
			return fmt.Errorf("%w: remote %s", constant.ErrMalformedPayload, evt.EventType())
		}
		s.store.Remove(id)
		s.delivery.Broadcast(constant.EventNoteDeleted, id)

	default:
		return fmt.Errorf("%w: unknown remote event %q", constant.ErrMalformedPayload, evt.EventType())
	}

	metrics.NoteMutationsTotal.WithLabelValues("remote", "ok").Inc()
	metrics.LiveNotes.Set(float64(s.store.Len()))
	return nil
}

func (s *noteService) replicate(event string, payload interface{}) {
	if s.replicator != nil {
		s.replicator.Publish(event, payload)
	}
}
