package websocket

import "github.com/gofiber/websocket/v2"

// ServeWs registers the connection with the hub and blocks until the peer
// disconnects.
func ServeWs(hub *Hub, c *websocket.Conn, sessionKey string) {
	client := NewClient(hub, c, sessionKey)
	select {
	case hub.register <- client:
	case <-hub.done:
		c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
