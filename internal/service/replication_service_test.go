package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"whiteboard-relay/internal/constant"
	"whiteboard-relay/internal/dto"
	"whiteboard-relay/internal/pkg/logger"
	"whiteboard-relay/pkg/events"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// loopbackBus delivers every published message to all subscribers, like a
// shared redis channel would.
type loopbackBus struct {
	mu       sync.Mutex
	handlers []func([]byte)
}

func (b *loopbackBus) Name() string { return "loopback" }

func (b *loopbackBus) Publish(ctx context.Context, data []byte) error {
	b.mu.Lock()
	handlers := append([]func([]byte){}, b.handlers...)
	b.mu.Unlock()
	for _, h := range handlers {
		h(data)
	}
	return nil
}

func (b *loopbackBus) Subscribe(ctx context.Context, handler func([]byte)) error {
	b.mu.Lock()
	b.handlers = append(b.handlers, handler)
	b.mu.Unlock()
	return nil
}

func (b *loopbackBus) Close() error { return nil }

func TestReplicationBetweenTwoInstances(t *testing.T) {
	bus := &loopbackBus{}
	ctx := context.Background()

	svcA, _, storeA, _ := newTestService(t, nil, NoteServiceOptions{})
	svcB, deliveryB, storeB, _ := newTestService(t, nil, NoteServiceOptions{})

	repA := NewReplicationService(bus, time.Second, logger.NewNopLogger())
	repB := NewReplicationService(bus, time.Second, logger.NewNopLogger())
	defer repA.Close(ctx)
	defer repB.Close(ctx)
	assert.NotEqual(t, repA.Origin(), repB.Origin())

	svcA.SetReplicator(repA)
	svcB.SetReplicator(repB)
	require.NoError(t, repA.Start(ctx, svcA))
	require.NoError(t, repB.Start(ctx, svcB))

	_, err := svcA.Add(ctx, addReq("shared"))
	require.NoError(t, err)

	require.Eventually(t, func() bool { return len(deliveryB.events()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 1, storeB.Len())
	assert.Equal(t, 1, storeA.Len())

	sent := deliveryB.events()
	require.Len(t, sent, 1)
	assert.Equal(t, constant.EventNoteAdded, sent[0].Event)

	require.NoError(t, svcB.Delete(ctx, &dto.DeleteNoteRequest{Id: "shared"}))
	assert.Eventually(t, func() bool { return storeA.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestReplicationIgnoresOwnOriginAndGarbage(t *testing.T) {
	bus := &loopbackBus{}
	ctx := context.Background()

	svc, delivery, _, _ := newTestService(t, nil, NoteServiceOptions{})
	rep := NewReplicationService(bus, time.Second, logger.NewNopLogger())
	defer rep.Close(ctx)
	require.NoError(t, rep.Start(ctx, svc))

	own, err := events.NewEvent(rep.Origin(), constant.EventNoteDeleted, "1")
	require.NoError(t, err)
	data, err := events.Encode(own)
	require.NoError(t, err)
	require.NoError(t, bus.Publish(ctx, data))
	require.NoError(t, bus.Publish(ctx, []byte("not json")))

	assert.Empty(t, delivery.events())
}
