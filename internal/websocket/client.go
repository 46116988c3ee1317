package websocket

import (
	"encoding/json"
	"errors"
	"time"

	"whiteboard-relay/internal/constant"
	"whiteboard-relay/internal/dto"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
	sendBufferSize = 256
)

// Dispatcher receives session lifecycle and inbound events.
// Implemented by handler.BoardHandler.
type Dispatcher interface {
	// Join registers the client with the hub and sends it the initial snapshot.
	Join(c *Client)
	Dispatch(c *Client, event string, data json.RawMessage)
	Leave(c *Client)
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	Hub *Hub

	// The websocket connection.
	Conn *websocket.Conn

	// Session id, unique per connection.
	ID uuid.UUID

	// Buffered channel of outbound messages.
	Send chan []byte

	dispatcher Dispatcher
}

func NewClient(hub *Hub, conn *websocket.Conn, dispatcher Dispatcher) *Client {
	return &Client{
		Hub:        hub,
		Conn:       conn,
		ID:         uuid.New(),
		Send:       make(chan []byte, sendBufferSize),
		dispatcher: dispatcher,
	}
}

// readPump pumps messages from the websocket connection to the dispatcher.
func (c *Client) readPump() {
	defer func() {
		c.dispatcher.Leave(c)
		c.Conn.Close()
	}()
	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.Hub.logger.Warn("Client", "Unexpected close", map[string]interface{}{"session_id": c.ID, "error": err.Error()})
			}
			return
		}

		c.handleFrame(raw)
	}
}

// handleFrame decodes one inbound {event, data} frame and hands it to the
// dispatcher. Undecodable frames are answered with an error event.
func (c *Client) handleFrame(raw []byte) {
	var msg dto.SocketMessage
	err := json.Unmarshal(raw, &msg)
	if err == nil && msg.Event == "" {
		err = errors.New("missing event")
	}
	if err != nil {
		c.Hub.logger.Warn("Client", "Malformed frame", map[string]interface{}{
			"session_id": c.ID,
			"error":      err.Error(),
			"size":       len(raw),
		})
		c.Hub.Unicast(c.ID, constant.EventError, dto.ErrorResponse{Message: constant.MessageInvalidPayload, Error: err.Error()})
		return
	}
	c.dispatcher.Dispatch(c, msg.Event, msg.Data)
}

// writePump pumps messages from the hub to the websocket connection.
// Every message is its own text frame.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.Hub.logger.Warn("Client", "Write failed", map[string]interface{}{"session_id": c.ID, "error": err.Error()})
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
