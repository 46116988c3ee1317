package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Event defines the contract for events exchanged between relay instances.
type Event interface {
	// EventType returns the relay event name (e.g. "note-added").
	EventType() string

	// Payload returns the JSON payload as broadcast to clients.
	Payload() json.RawMessage

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the envelope published on the cluster bus.
type BaseEvent struct {
	Origin     string          `json:"origin"`
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data"`
	OccurredAt time.Time       `json:"occurredAt"`
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() json.RawMessage {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

// NewEvent marshals payload into an envelope stamped with origin.
func NewEvent(origin, eventType string, payload interface{}) (BaseEvent, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return BaseEvent{}, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return BaseEvent{
		Origin:     origin,
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now().UTC(),
	}, nil
}

func Encode(e BaseEvent) ([]byte, error) {
	return json.Marshal(e)
}

func Decode(raw []byte) (BaseEvent, error) {
	var e BaseEvent
	if err := json.Unmarshal(raw, &e); err != nil {
		return BaseEvent{}, fmt.Errorf("failed to decode event: %w", err)
	}
	if e.Type == "" || e.Origin == "" {
		return BaseEvent{}, fmt.Errorf("failed to decode event: missing type or origin")
	}
	return e, nil
}
