package realtime

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
)

// Serve pumps messages for an upgraded connection until either side closes
// it. Inbound text frames are handed to onMessage; its reply, if any, is sent
// back to the same connection. Serve reports whether the closed connection
// was the user's last one.
func Serve(conn *websocket.Conn, c *Client, onMessage func(msg []byte) []byte) bool {
	done := make(chan struct{})
	go func() {
		writePump(conn, c)
		close(done)
	}()
	readPump(conn, c, onMessage)
	last := c.Close()
	<-done
	return last
}

func writePump(conn *websocket.Conn, c *Client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.Send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func readPump(conn *websocket.Conn, c *Client, onMessage func(msg []byte) []byte) {
	conn.SetReadLimit(maxMessageSize)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if onMessage == nil {
			continue
		}
		if reply := onMessage(msg); reply != nil {
			c.enqueue(reply)
		}
	}
}
