package service

import (
	"context"
	"time"

	"whiteboard-relay/internal/pkg/logger"
	"whiteboard-relay/pkg/events"
	"whiteboard-relay/pkg/worker"

	"github.com/google/uuid"
)

// ClusterBus moves encoded events between relay instances.
// Implemented by pkg/redis.Bus and pkg/nats.Bus.
type ClusterBus interface {
	Name() string
	Publish(ctx context.Context, data []byte) error
	Subscribe(ctx context.Context, handler func(data []byte)) error
	Close() error
}

type IReplicationService interface {
	Replicator
	Origin() string
	Start(ctx context.Context, applier INoteService) error
	Close(ctx context.Context) error
}

type replicationService struct {
	bus    ClusterBus
	origin string
	queue  *worker.Queue
	logger logger.ILogger
}

func NewReplicationService(bus ClusterBus, publishTimeout time.Duration, log logger.ILogger) IReplicationService {
	r := &replicationService{
		bus:    bus,
		origin: uuid.NewString(),
		logger: log,
	}
	r.queue = worker.NewQueue(1024, publishTimeout, r.onResult)
	r.queue.Start()
	return r
}

func (r *replicationService) Origin() string {
	return r.origin
}

// Start subscribes to the bus and applies events from other origins.
func (r *replicationService) Start(ctx context.Context, applier INoteService) error {
	err := r.bus.Subscribe(ctx, func(data []byte) {
		evt, err := events.Decode(data)
		if err != nil {
			r.logger.Warn("Replication", "Dropping undecodable cluster event", map[string]interface{}{"error": err.Error()})
			return
		}
		if evt.Origin == r.origin {
			return
		}
		if err := applier.ApplyRemote(evt); err != nil {
			r.logger.Warn("Replication", "Failed to apply remote event", map[string]interface{}{
				"type":   evt.Type,
				"origin": evt.Origin,
				"error":  err.Error(),
			})
		}
	})
	if err != nil {
		return err
	}
	r.logger.Info("Replication", "Cluster replication started", map[string]interface{}{
		"bus":    r.bus.Name(),
		"origin": r.origin,
	})
	return nil
}

// Publish enqueues the event; the bus write happens on the queue worker so a
// slow bus never stalls mutation handling.
func (r *replicationService) Publish(event string, payload interface{}) {
	evt, err := events.NewEvent(r.origin, event, payload)
	if err != nil {
		r.logger.Error("Replication", "Failed to encode cluster event", map[string]interface{}{"error": err})
		return
	}
	data, err := events.Encode(evt)
	if err != nil {
		r.logger.Error("Replication", "Failed to encode cluster event", map[string]interface{}{"error": err})
		return
	}
	ok := r.queue.Submit(worker.Job{Name: event, Run: func(ctx context.Context) error {
		return r.bus.Publish(ctx, data)
	}})
	if !ok {
		r.logger.Warn("Replication", "Replication queue full, event not published", map[string]interface{}{"type": event})
	}
}

func (r *replicationService) onResult(job worker.Job, err error, _ time.Duration) {
	if err != nil {
		r.logger.Error("Replication", "Cluster publish failed", map[string]interface{}{
			"type":  job.Name,
			"error": err,
		})
	}
}

func (r *replicationService) Close(ctx context.Context) error {
	_ = r.queue.Close(ctx)
	return r.bus.Close()
}
