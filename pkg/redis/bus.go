package redis

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
)

// DefaultChannel carries relay events between instances.
const DefaultChannel = "whiteboard_events"

// Bus fans relay events out over Redis pub/sub.
type Bus struct {
	rdb     *goredis.Client
	channel string
	pubsub  *goredis.PubSub
}

// NewBus parses the URL (falling back to a bare address) and pings the server.
func NewBus(ctx context.Context, url, channel string) (*Bus, error) {
	opt, err := goredis.ParseURL(url)
	if err != nil {
		opt = &goredis.Options{Addr: url}
	}
	rdb := goredis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	if channel == "" {
		channel = DefaultChannel
	}
	return &Bus{rdb: rdb, channel: channel}, nil
}

func (b *Bus) Name() string {
	return "redis"
}

func (b *Bus) Publish(ctx context.Context, data []byte) error {
	if err := b.rdb.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish to channel %s: %w", b.channel, err)
	}
	return nil
}

// Subscribe starts a goroutine that forwards channel messages to handler
// until ctx is cancelled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context, handler func(data []byte)) error {
	pubsub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}
	b.pubsub = pubsub

	go func() {
		ch := pubsub.Channel()
		for {
			select {
			case <-ctx.Done():
				_ = pubsub.Close()
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()
	return nil
}

func (b *Bus) Close() error {
	if b.pubsub != nil {
		_ = b.pubsub.Close()
	}
	return b.rdb.Close()
}
