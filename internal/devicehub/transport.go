package devicehub

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Connect wires a raw gorilla/websocket connection into the hub as device
// deviceID's Client, launching its read/write pumps, grounded on the
// teacher's Client.readPump/writePump.
func Connect(hub *Hub, deviceID string, conn *websocket.Conn) *Client {
	c := NewClient(deviceID)
	hub.Register(c)

	go c.writePump(conn)
	go c.readPump(hub, conn)

	return c
}

func (c *Client) readPump(hub *Hub, conn *websocket.Conn) {
	defer func() {
		hub.Unregister(c)
		conn.Close()
	}()

	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return
		}

		var ack Ack
		if err := json.Unmarshal(message, &ack); err == nil && ack.CommandID != "" {
			hub.resolveAck(&ack)
			continue
		}
	}
}

func (c *Client) writePump(conn *websocket.Conn) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case env, ok := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteJSON(env); err != nil {
				return
			}

		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.closed:
			return
		}
	}
}
