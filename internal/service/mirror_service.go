package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"whiteboard-relay/internal/constant"
	"whiteboard-relay/internal/entity"
	"whiteboard-relay/internal/pkg/logger"
	"whiteboard-relay/internal/pkg/metrics"
	"whiteboard-relay/internal/repository/contract"
	"whiteboard-relay/pkg/worker"
)

// IMirrorService mirrors note store mutations onto the durable backing.
// Every call returns immediately; writes happen later, in order, on one worker.
type IMirrorService interface {
	Enabled() bool
	Backend() string
	Load(ctx context.Context) ([]*entity.Note, error)
	Upsert(note *entity.Note)
	Merge(id string, patch entity.NotePatch)
	Delete(id string)
	DeleteExpired(cutoff time.Time)
	Close(ctx context.Context) error
}

type mirrorService struct {
	repo   contract.NoteRepository
	queue  *worker.Queue
	logger logger.ILogger
}

// NewMirrorService wraps repo. A nil repo yields a disabled mirror (store-only mode).
func NewMirrorService(repo contract.NoteRepository, queueSize int, writeTimeout time.Duration, log logger.ILogger) IMirrorService {
	m := &mirrorService{
		repo:   repo,
		logger: log,
	}
	if repo == nil {
		return m
	}
	m.queue = worker.NewQueue(queueSize, writeTimeout, m.onResult)
	m.queue.Start()
	return m
}

func (m *mirrorService) Enabled() bool {
	return m.repo != nil
}

func (m *mirrorService) Backend() string {
	if m.repo == nil {
		return "memory"
	}
	return m.repo.Name()
}

// Load reads the durable snapshot used to hydrate the store at startup.
func (m *mirrorService) Load(ctx context.Context) ([]*entity.Note, error) {
	if m.repo == nil {
		return nil, nil
	}
	notes, err := m.repo.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: load notes: %v", constant.ErrDurableUnavailable, err)
	}
	return notes, nil
}

func (m *mirrorService) Upsert(note *entity.Note) {
	n := note.Clone()
	m.submit("upsert", n.Id, func(ctx context.Context) error {
		return m.repo.Upsert(ctx, n)
	})
}

func (m *mirrorService) Merge(id string, patch entity.NotePatch) {
	m.submit("merge", id, func(ctx context.Context) error {
		return m.repo.Merge(ctx, id, patch)
	})
}

func (m *mirrorService) Delete(id string) {
	m.submit("delete", id, func(ctx context.Context) error {
		return m.repo.Delete(ctx, id)
	})
}

func (m *mirrorService) DeleteExpired(cutoff time.Time) {
	m.submit("delete_expired", "", func(ctx context.Context) error {
		n, err := m.repo.DeleteExpired(ctx, cutoff)
		if err == nil && n > 0 {
			m.logger.Info("MirrorService", "Expired notes removed from durable backing", map[string]interface{}{
				"count":  n,
				"cutoff": cutoff,
			})
		}
		return err
	})
}

func (m *mirrorService) submit(operation, noteID string, run func(ctx context.Context) error) {
	if m.repo == nil {
		return
	}
	job := worker.Job{Name: operation, Run: run}
	if !m.queue.Submit(job) {
		metrics.DurableWritesTotal.WithLabelValues(operation, "dropped").Inc()
		m.logger.Warn("MirrorService", "Mirror queue full or closed, dropping durable write", map[string]interface{}{
			"operation": operation,
			"note_id":   noteID,
		})
	}
}

func (m *mirrorService) onResult(job worker.Job, err error, elapsed time.Duration) {
	metrics.DurableWriteDuration.WithLabelValues(job.Name).Observe(elapsed.Seconds())
	if err != nil {
		metrics.DurableWritesTotal.WithLabelValues(job.Name, "error").Inc()
		m.logger.Error("MirrorService", "Durable write failed, in-memory state kept", map[string]interface{}{
			"operation": job.Name,
			"error":     fmt.Errorf("%w: %v", constant.ErrDurableUnavailable, err),
		})
		return
	}
	metrics.DurableWritesTotal.WithLabelValues(job.Name, "ok").Inc()
}

// Close drains pending writes within ctx, then closes the connection.
func (m *mirrorService) Close(ctx context.Context) error {
	if m.repo == nil {
		return nil
	}
	drainErr := m.queue.Close(ctx)
	if drainErr != nil && !errors.Is(drainErr, worker.ErrQueueClosed) {
		m.logger.Warn("MirrorService", "Mirror queue not fully drained", map[string]interface{}{
			"pending": m.queue.Len(),
			"error":   drainErr.Error(),
		})
	}
	return m.repo.Close(ctx)
}
