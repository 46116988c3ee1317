package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Session Metrics
	ConnectedSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "whiteboard_connected_sessions",
			Help: "Current number of connected websocket sessions",
		},
	)

	DroppedDeliveries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "whiteboard_dropped_deliveries_total",
			Help: "Sessions evicted because their outbound buffer was full",
		},
	)

	// Note Metrics
	LiveNotes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "whiteboard_live_notes",
			Help: "Notes currently held by the in-memory store",
		},
	)

	NoteMutationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whiteboard_note_mutations_total",
			Help: "Total number of note mutations handled",
		},
		[]string{"operation", "result"}, // add/update/delete/remote, ok/not_found/malformed
	)

	NotesExpiredTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "whiteboard_notes_expired_total",
			Help: "Notes removed by the expiry sweeper",
		},
	)

	// Durable Backing Metrics
	DurableWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "whiteboard_durable_writes_total",
			Help: "Mirror writes to the durable backing",
		},
		[]string{"operation", "result"}, // upsert/merge/delete/delete_expired, ok/error/dropped
	)

	DurableWriteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "whiteboard_durable_write_duration_seconds",
			Help:    "Duration of durable mirror writes",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"operation"},
	)
)
