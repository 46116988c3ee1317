package service

import (
	"context"
	"time"

	"whiteboard-relay/internal/pkg/logger"
)

type ISweeperService interface {
	Start(ctx context.Context)
	SweepOnce(now time.Time) int
}

// sweeperService periodically prunes expired notes from the store and,
// through the mirror, from the durable backing. It never notifies clients
// unless the note service was built with BroadcastExpiry.
type sweeperService struct {
	notes    INoteService
	mirror   IMirrorService
	window   time.Duration
	interval time.Duration
	now      func() time.Time
	logger   logger.ILogger
}

func NewSweeperService(notes INoteService, mirror IMirrorService, window, interval time.Duration, now func() time.Time, log logger.ILogger) ISweeperService {
	if now == nil {
		now = time.Now
	}
	return &sweeperService{
		notes:    notes,
		mirror:   mirror,
		window:   window,
		interval: interval,
		now:      now,
		logger:   log,
	}
}

// Start blocks until ctx is cancelled.
func (s *sweeperService) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Sweeper", "Expiry sweeper started", map[string]interface{}{
		"window":   s.window.String(),
		"interval": s.interval.String(),
	})

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Sweeper", "Expiry sweeper stopped", nil)
			return
		case <-ticker.C:
			s.SweepOnce(s.now())
		}
	}
}

// SweepOnce runs one pass and returns how many in-memory notes were removed.
func (s *sweeperService) SweepOnce(now time.Time) int {
	removed := s.notes.SweepExpired(now, s.window)
	s.mirror.DeleteExpired(now.Add(-s.window))

	if len(removed) > 0 {
		ids := make([]string, 0, len(removed))
		for _, n := range removed {
			ids = append(ids, n.Id)
		}
		s.logger.Info("Sweeper", "Expired notes removed", map[string]interface{}{
			"count":    len(removed),
			"note_ids": ids,
		})
	}
	return len(removed)
}
