package websocket

import (
	"encoding/json"
	"sync"
	"testing"

	"whiteboard-relay/internal/dto"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedLog struct {
	level   string
	message string
}

// recordingLogger keeps every entry in memory.
type recordingLogger struct {
	mu      sync.Mutex
	entries []recordedLog
}

func (l *recordingLogger) add(level, message string) {
	l.mu.Lock()
	l.entries = append(l.entries, recordedLog{level: level, message: message})
	l.mu.Unlock()
}

func (l *recordingLogger) Debug(module, message string, details map[string]interface{}) {
	l.add("debug", message)
}
func (l *recordingLogger) Info(module, message string, details map[string]interface{}) {
	l.add("info", message)
}
func (l *recordingLogger) Warn(module, message string, details map[string]interface{}) {
	l.add("warn", message)
}
func (l *recordingLogger) Error(module, message string, details map[string]interface{}) {
	l.add("error", message)
}
func (l *recordingLogger) Sync() error { return nil }

func (l *recordingLogger) count(level, message string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, e := range l.entries {
		if e.level == level && e.message == message {
			n++
		}
	}
	return n
}

type dispatched struct {
	event string
	data  string
}

type recordingDispatcher struct {
	calls []dispatched
}

func (d *recordingDispatcher) Join(c *Client)  {}
func (d *recordingDispatcher) Leave(c *Client) {}
func (d *recordingDispatcher) Dispatch(c *Client, event string, data json.RawMessage) {
	d.calls = append(d.calls, dispatched{event: event, data: string(data)})
}

func TestHandleFrameDispatchesValidFrames(t *testing.T) {
	log := &recordingLogger{}
	hub := NewHub(log)
	d := &recordingDispatcher{}
	c := &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, 4), dispatcher: d}
	hub.Register(c)

	c.handleFrame([]byte(`{"event":"delete-note","data":"1"}`))

	require.Len(t, d.calls, 1)
	assert.Equal(t, "delete-note", d.calls[0].event)
	assert.Equal(t, `"1"`, d.calls[0].data)
	assert.Len(t, c.Send, 0)
	assert.Equal(t, 0, log.count("warn", "Malformed frame"))
}

func TestHandleFrameRejectsMalformedFrames(t *testing.T) {
	frames := []string{
		`not json`,
		`{"data":{"id":"1"}}`,
		`["add-note"]`,
	}

	for _, frame := range frames {
		t.Run(frame, func(t *testing.T) {
			log := &recordingLogger{}
			hub := NewHub(log)
			d := &recordingDispatcher{}
			c := &Client{Hub: hub, ID: uuid.New(), Send: make(chan []byte, 4), dispatcher: d}
			hub.Register(c)

			c.handleFrame([]byte(frame))

			assert.Empty(t, d.calls)
			assert.Equal(t, 1, log.count("warn", "Malformed frame"))

			require.Len(t, c.Send, 1)
			var msg dto.SocketMessage
			require.NoError(t, json.Unmarshal(<-c.Send, &msg))
			assert.Equal(t, "error", msg.Event)

			var body dto.ErrorResponse
			require.NoError(t, json.Unmarshal(msg.Data, &body))
			assert.Equal(t, "Invalid payload", body.Message)
		})
	}
}
