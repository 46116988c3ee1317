package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs runs one session until the peer goes away.
func ServeWs(hub *Hub, conn *websocket.Conn, dispatcher Dispatcher) {
	client := NewClient(hub, conn, dispatcher)
	dispatcher.Join(client)

	go client.writePump()
	client.readPump() // Run readPump in current goroutine (handler)
}
