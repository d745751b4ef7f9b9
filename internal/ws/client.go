package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Origin is enforced by the reverse proxy in deployment.
	},
}

// Client is one live websocket session. The identity and subscription fields
// are owned by the hub goroutine; the pumps only touch conn and send.
type Client struct {
	id   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte

	// Set by the hub after a successful registerUser/joinRoom.
	userID    string
	firstName string
	lastName  string

	// currentRoom is the single public room this connection may occupy.
	// scopes holds every subscribed fan-out scope: the public room plus any
	// number of private channel ids.
	currentRoom string
	scopes      map[string]struct{}
}

func (c *Client) fullName() string {
	return c.firstName + " " + c.lastName
}

func (c *Client) inScope(scope string) bool {
	_, ok := c.scopes[scope]
	return ok
}

// readPump forwards parsed envelopes to the hub. It runs in its own goroutine
// per connection; the hub loop is the only place client state is mutated.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("client %s read error: %v", c.id, err)
			}
			break
		}

		var env envelope
		if err := json.Unmarshal(raw, &env); err != nil || env.Event == "" {
			log.Printf("client %s sent malformed event: %v", c.id, err)
			continue
		}
		c.hub.inbound <- inbound{client: c, env: env}
	}
}

// writePump drains the send channel to the socket and keeps the connection
// alive with pings. The hub closes send to stop it.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ServeWs upgrades an HTTP request to a websocket connection and hands the
// resulting client to the hub.
func ServeWs(hub *Hub, w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		id:     uuid.NewString(),
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		scopes: make(map[string]struct{}),
	}
	hub.register <- client

	go client.writePump()
	go client.readPump()
}
