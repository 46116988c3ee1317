package dto

import (
	"bytes"
	"encoding/json"
	"time"
)

// SocketMessage is the frame exchanged over the websocket and the polling endpoint.
type SocketMessage struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type AddNoteRequest struct {
	Id      string   `json:"id" validate:"required"`
	X       *float64 `json:"x" validate:"required"`
	Y       *float64 `json:"y" validate:"required"`
	Content string   `json:"content"`
	Color   string   `json:"color" validate:"required"`
	Timer   *float64 `json:"timer" validate:"omitempty,gte=0"`
}

// UpdateNoteRequest carries the id plus any subset of the mutable fields.
type UpdateNoteRequest struct {
	Id      string   `json:"id" validate:"required"`
	X       *float64 `json:"x"`
	Y       *float64 `json:"y"`
	Content *string  `json:"content"`
	Color   *string  `json:"color" validate:"omitempty,min=1"`
	Timer   *float64 `json:"timer" validate:"omitempty,gte=0"`
}

// DeleteNoteRequest accepts either a bare JSON string or {"id": "..."}.
type DeleteNoteRequest struct {
	Id string `json:"id" validate:"required"`
}

func (r *DeleteNoteRequest) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		return json.Unmarshal(trimmed, &r.Id)
	}
	type plain DeleteNoteRequest
	var p plain
	if err := json.Unmarshal(trimmed, &p); err != nil {
		return err
	}
	*r = DeleteNoteRequest(p)
	return nil
}

type NoteResponse struct {
	Id        string    `json:"id"`
	X         float64   `json:"x"`
	Y         float64   `json:"y"`
	Content   string    `json:"content"`
	Color     string    `json:"color"`
	Timer     *float64  `json:"timer,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

type RelayInfoResponse struct {
	SocketURL           string `json:"socketUrl"`
	Durable             bool   `json:"durable"`
	ExpiryWindowSeconds int64  `json:"expiryWindowSeconds"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Sessions int    `json:"sessions"`
	Notes    int    `json:"notes"`
	Durable  bool   `json:"durable"`
}
