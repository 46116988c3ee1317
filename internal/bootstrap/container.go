package bootstrap

import (
	"context"
	"fmt"
	"time"

	"whiteboard-relay/internal/config"
	"whiteboard-relay/internal/handler"
	"whiteboard-relay/internal/model"
	"whiteboard-relay/internal/pkg/logger"
	"whiteboard-relay/internal/pkg/metrics"
	"whiteboard-relay/internal/repository/contract"
	"whiteboard-relay/internal/repository/implementation"
	"whiteboard-relay/internal/repository/memory"
	"whiteboard-relay/internal/service"
	"whiteboard-relay/internal/websocket"
	"whiteboard-relay/pkg/database"
	pktNats "whiteboard-relay/pkg/nats"
	pktRedis "whiteboard-relay/pkg/redis"

	"gorm.io/gorm"
)

type Container struct {
	Config *config.Config
	Logger logger.ILogger

	// Core
	Store       *memory.NoteStore
	Mirror      service.IMirrorService
	NoteService service.INoteService
	Sweeper     service.ISweeperService

	// Optional; nil when CLUSTER_DRIVER is unset or the bus is unreachable.
	Replication service.IReplicationService

	// WebSockets
	WebSocketHub *websocket.Hub
	BoardHandler *handler.BoardHandler
}

// NewContainer wires the relay. An unreachable durable backing is logged and
// the relay continues in store-only mode.
func NewContainer(ctx context.Context, cfg *config.Config) *Container {
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	// 1. Durable backing + mirror
	repo, err := OpenDurable(ctx, cfg, sysLogger)
	if err != nil {
		sysLogger.Error("Bootstrap", "Durable backing unavailable, running store-only", map[string]interface{}{"error": err})
	}
	var mirror service.IMirrorService
	if repo != nil {
		mirror = service.NewMirrorService(repo, cfg.Durable.QueueSize, cfg.Durable.WriteTimeout, sysLogger)
	} else {
		mirror = service.NewMirrorService(nil, 0, 0, sysLogger)
	}

	// 2. Note store, hydrated from the durable snapshot
	store := memory.NewNoteStore()
	loadCtx, cancel := context.WithTimeout(ctx, cfg.Durable.ConnectTimeout)
	notes, err := mirror.Load(loadCtx)
	cancel()
	if err != nil {
		sysLogger.Error("Bootstrap", "Failed to load notes, starting empty", map[string]interface{}{"error": err})
	}
	store.Load(notes)
	metrics.LiveNotes.Set(float64(store.Len()))
	sysLogger.Info("Bootstrap", "Note store ready", map[string]interface{}{
		"notes":   store.Len(),
		"durable": mirror.Backend(),
	})

	// 3. WebSocket Hub
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	wsHub := websocket.NewHub(wsLogger)

	// 4. Services
	noteService := service.NewNoteService(store, wsHub, mirror, sysLogger, service.NoteServiceOptions{
		BroadcastExpiry: cfg.Expiry.Broadcast,
	})
	sweeper := service.NewSweeperService(noteService, mirror, cfg.Expiry.Window, cfg.Expiry.Interval, nil, sysLogger)

	// 5. Cluster replication
	replication := newReplication(ctx, cfg, sysLogger)
	if replication != nil {
		noteService.SetReplicator(replication)
	}

	boardHandler := handler.NewBoardHandler(noteService, mirror, wsHub, cfg, sysLogger)

	return &Container{
		Config:       cfg,
		Logger:       sysLogger,
		Store:        store,
		Mirror:       mirror,
		NoteService:  noteService,
		Sweeper:      sweeper,
		Replication:  replication,
		WebSocketHub: wsHub,
		BoardHandler: boardHandler,
	}
}

// Start launches background work: one sweep immediately, then the ticker,
// plus the cluster subscription. All of it stops when ctx is cancelled.
func (c *Container) Start(ctx context.Context) {
	c.Sweeper.SweepOnce(time.Now())
	go c.Sweeper.Start(ctx)

	if c.Replication != nil {
		if err := c.Replication.Start(ctx, c.NoteService); err != nil {
			c.Logger.Error("Bootstrap", "Cluster subscription failed, running single-instance", map[string]interface{}{"error": err})
		}
	}
}

// Close disconnects sessions, then drains the mirror and replication queues.
func (c *Container) Close(ctx context.Context) {
	c.WebSocketHub.Shutdown()

	if c.Replication != nil {
		if err := c.Replication.Close(ctx); err != nil {
			c.Logger.Warn("Bootstrap", "Cluster bus close failed", map[string]interface{}{"error": err.Error()})
		}
	}
	if err := c.Mirror.Close(ctx); err != nil {
		c.Logger.Warn("Bootstrap", "Durable backing close failed", map[string]interface{}{"error": err.Error()})
	}
	_ = c.Logger.Sync()
}

// OpenDurable connects the backing selected by DB_CONNECTION_STRING. It
// returns (nil, nil) when no connection string is configured.
func OpenDurable(ctx context.Context, cfg *config.Config, log logger.ILogger) (contract.NoteRepository, error) {
	conn := cfg.Durable.Connection
	driver := database.DetectDriver(conn)

	ctx, cancel := context.WithTimeout(ctx, cfg.Durable.ConnectTimeout)
	defer cancel()

	switch driver {
	case database.DriverNone:
		log.Info("Bootstrap", "No DB_CONNECTION_STRING, running store-only", nil)
		return nil, nil

	case database.DriverMongo:
		client, err := database.NewMongoClient(ctx, conn)
		if err != nil {
			return nil, err
		}
		repo := implementation.NewMongoNoteRepository(client, cfg.Durable.MongoDatabase)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Warn("Bootstrap", "Failed to ensure mongo indexes", map[string]interface{}{"error": err.Error()})
		}
		log.Info("Bootstrap", "Connected to MongoDB", map[string]interface{}{"database": cfg.Durable.MongoDatabase})
		return repo, nil

	default:
		db, err := openGorm(ctx, conn)
		if err != nil {
			return nil, err
		}
		if err := db.WithContext(ctx).AutoMigrate(&model.Note{}); err != nil {
			return nil, fmt.Errorf("migrate notes: %w", err)
		}
		log.Info("Bootstrap", "Connected to Postgres", nil)
		return implementation.NewGormNoteRepository(db), nil
	}
}

// openGorm bounds gorm.Open, which has no context of its own, by ctx.
func openGorm(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := openBounded(ctx,
		func() (*gorm.DB, error) { return database.NewGormDBFromDSN(dsn) },
		func(db *gorm.DB) {
			if sqlDB, err := db.DB(); err == nil {
				_ = sqlDB.Close()
			}
		},
	)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db, nil
}

// openBounded runs open in the background and waits for it or ctx. A
// connection that arrives after ctx ended is handed to discard.
func openBounded[T any](ctx context.Context, open func() (T, error), discard func(T)) (T, error) {
	type result struct {
		value T
		err   error
	}
	done := make(chan result, 1)
	go func() {
		v, err := open()
		done <- result{value: v, err: err}
	}()

	select {
	case r := <-done:
		return r.value, r.err
	case <-ctx.Done():
		go func() {
			if r := <-done; r.err == nil {
				discard(r.value)
			}
		}()
		var zero T
		return zero, ctx.Err()
	}
}

func newReplication(ctx context.Context, cfg *config.Config, log logger.ILogger) service.IReplicationService {
	var (
		bus service.ClusterBus
		err error
	)
	switch cfg.Cluster.Driver {
	case "":
		return nil
	case "redis":
		bus, err = pktRedis.NewBus(ctx, cfg.Cluster.RedisURL, "")
	case "nats":
		bus, err = pktNats.NewBus(cfg.Cluster.NatsURL, "")
	default:
		err = fmt.Errorf("unknown CLUSTER_DRIVER %q", cfg.Cluster.Driver)
	}
	if err != nil {
		log.Warn("Bootstrap", "Cluster bus unavailable, running single-instance", map[string]interface{}{
			"driver": cfg.Cluster.Driver,
			"error":  err.Error(),
		})
		return nil
	}
	return service.NewReplicationService(bus, cfg.Durable.WriteTimeout, log)
}
