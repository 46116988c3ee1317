package nats

import (
	"context"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"
)

// DefaultSubject carries relay events between instances.
const DefaultSubject = "whiteboard.events"

// Bus is a plain NATS pub/sub channel. Broadcasts are ephemeral, so core NATS
// is used rather than a JetStream stream.
type Bus struct {
	nc      *nats.Conn
	subject string
	sub     *nats.Subscription
}

// NewBus creates a new NATS-backed cluster bus.
func NewBus(url, subject string) (*Bus, error) {
	// The initial connect must succeed; reconnects only apply afterwards.
	nc, err := nats.Connect(url,
		nats.Name("whiteboard-relay"),
		nats.Timeout(2*time.Second),
		nats.MaxReconnects(5),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	if subject == "" {
		subject = DefaultSubject
	}
	return &Bus{nc: nc, subject: subject}, nil
}

func (b *Bus) Name() string {
	return "nats"
}

// Publish sends one encoded envelope.
func (b *Bus) Publish(ctx context.Context, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := b.nc.Publish(b.subject, data); err != nil {
		return fmt.Errorf("failed to publish to subject %s: %w", b.subject, err)
	}
	return nil
}

// Subscribe delivers every message on the subject to handler until Close.
func (b *Bus) Subscribe(ctx context.Context, handler func(data []byte)) error {
	sub, err := b.nc.Subscribe(b.subject, func(msg *nats.Msg) {
		handler(msg.Data)
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.subject, err)
	}
	b.sub = sub

	go func() {
		<-ctx.Done()
		_ = sub.Unsubscribe()
	}()
	return nil
}

// Close drains the subscription and closes the connection.
func (b *Bus) Close() error {
	if b.nc != nil {
		return b.nc.Drain()
	}
	return nil
}
