package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/wricardo/mcp-training/snakegame/game/engine"
	"github.com/wricardo/mcp-training/snakegame/game/service"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Time allowed for one inbound action to reach the game.
	actionTimeout = 5 * time.Second
)

// Outbound event names
const (
	EventStateUpdate = "state_update"
	EventError       = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// The browser view is served from the same process; any origin may watch.
		return true
	},
}

// Message is what the hub sends to clients
type Message struct {
	Event    string              `json:"event"`
	Version  uint64              `json:"version,omitempty"`
	Snapshot *engine.Snapshot    `json:"snapshot,omitempty"`
	Events   []service.GameEvent `json:"events,omitempty"`
	Error    string              `json:"error,omitempty"`
}

// ClientMessage is an action sent by a client
type ClientMessage struct {
	Action    string `json:"action"`
	Direction string `json:"direction,omitempty"`

	// DX and DY give the direction as a unit delta when Direction is empty
	DX int `json:"dx,omitempty"`
	DY int `json:"dy,omitempty"`
}

// direction resolves the named or delta direction of a message
func (m ClientMessage) direction() (string, error) {
	if m.Direction != "" {
		return m.Direction, nil
	}
	d, err := engine.DirectionFromDelta(m.DX, m.DY)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

// Controller is the part of the game service clients may drive.
// service.GameService satisfies it.
type Controller interface {
	Start(ctx context.Context) (*service.ActionResult, error)
	Pause(ctx context.Context) (*service.ActionResult, error)
	Toggle(ctx context.Context) (*service.ActionResult, error)
	Restart(ctx context.Context) (*service.ActionResult, error)
	PrimaryAction(ctx context.Context) (*service.ActionResult, error)
	SetDirection(ctx context.Context, direction string) (*service.ActionResult, error)
}

// Client represents a WebSocket client
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

type outbound struct {
	version uint64
	data    []byte
}

type directMessage struct {
	client *Client
	data   []byte
}

// Hub maintains the set of active clients and fans every game update out to
// all of them. Only the Run loop touches the client set.
type Hub struct {
	controller Controller
	logger     zerolog.Logger

	clients map[*Client]bool

	// latest is replayed to new clients
	latest        []byte
	latestVersion uint64

	broadcast  chan outbound
	direct     chan directMessage
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	count atomic.Int64
}

// NewHub creates a new WebSocket hub. A nil controller makes clients
// watch-only.
func NewHub(controller Controller, logger zerolog.Logger) *Hub {
	return &Hub{
		controller: controller,
		logger:     logger,
		clients:    make(map[*Client]bool),
		broadcast:  make(chan outbound, 64),
		direct:     make(chan directMessage, 16),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's event loop and closes every client when ctx is done
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for client := range h.clients {
				h.unregisterClient(client)
			}
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case message := <-h.direct:
			if h.clients[message.client] {
				h.deliver(message.client, message.data)
			}
		}
	}
}

// ServeWS handles WebSocket requests from clients
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}

	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}

	// Start client goroutines
	go client.writePump()
	go client.readPump()
}

// Broadcast sends a game update to every client. It has the shape of a
// service.Observer.
func (h *Hub) Broadcast(update service.Update) {
	if update.Snapshot == nil {
		return
	}
	message := &Message{
		Event:    EventStateUpdate,
		Version:  update.Snapshot.Version,
		Snapshot: update.Snapshot,
		Events:   update.Events,
	}

	data, err := json.Marshal(message)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal websocket message")
		return
	}

	select {
	case h.broadcast <- outbound{version: message.Version, data: data}:
	default:
		h.logger.Warn().Uint64("version", message.Version).Msg("hub backlog full, dropping update")
	}
}

// ClientCount reports the number of connected clients
func (h *Hub) ClientCount() int {
	return int(h.count.Load())
}

// registerClient adds a client and replays the latest state to it
func (h *Hub) registerClient(client *Client) {
	h.clients[client] = true
	h.count.Store(int64(len(h.clients)))

	if h.latest != nil {
		h.deliver(client, h.latest)
	}

	h.logger.Debug().Int("clients", len(h.clients)).Msg("websocket client registered")
}

// unregisterClient removes a client and closes its send channel
func (h *Hub) unregisterClient(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		h.count.Store(int64(len(h.clients)))

		h.logger.Debug().Int("clients", len(h.clients)).Msg("websocket client unregistered")
	}
}

// broadcastMessage sends a message to all clients. Updates older than the
// last one sent are dropped, since observers may be called out of order.
func (h *Hub) broadcastMessage(message outbound) {
	if h.latest != nil && message.version <= h.latestVersion {
		return
	}
	h.latest = message.data
	h.latestVersion = message.version

	for client := range h.clients {
		h.deliver(client, message.data)
	}
}

func (h *Hub) deliver(client *Client, data []byte) {
	select {
	case client.send <- data:
	default:
		// Client's send channel is full, close it
		h.unregisterClient(client)
	}
}

// handle applies one client message to the game
func (h *Hub) handle(ctx context.Context, msg ClientMessage) error {
	if h.controller == nil {
		return fmt.Errorf("this view is read-only")
	}

	var err error
	switch strings.ToLower(strings.TrimSpace(msg.Action)) {
	case "start":
		_, err = h.controller.Start(ctx)
	case "pause":
		_, err = h.controller.Pause(ctx)
	case "toggle":
		_, err = h.controller.Toggle(ctx)
	case "restart":
		_, err = h.controller.Restart(ctx)
	case "primary":
		_, err = h.controller.PrimaryAction(ctx)
	case "direction":
		var direction string
		if direction, err = msg.direction(); err == nil {
			_, err = h.controller.SetDirection(ctx, direction)
		}
	default:
		err = fmt.Errorf("unknown action %q", msg.Action)
	}
	return err
}

func (h *Hub) replyError(client *Client, err error) {
	data, marshalErr := json.Marshal(&Message{Event: EventError, Error: err.Error()})
	if marshalErr != nil {
		return
	}
	select {
	case h.direct <- directMessage{client: client, data: data}:
	default:
	}
}

// readPump reads client actions and applies them until the connection closes
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.hub.logger.Debug().Err(err).Msg("websocket read failed")
			}
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil || msg.Action == "" {
			c.hub.logger.Debug().Str("payload", string(data)).Msg("ignoring malformed websocket message")
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), actionTimeout)
		err = c.hub.handle(ctx, msg)
		cancel()
		if err != nil {
			c.hub.logger.Debug().Err(err).Str("action", msg.Action).Msg("websocket action rejected")
			c.hub.replyError(c, err)
		}
	}
}

// writePump pumps messages from the hub to the WebSocket connection
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
				// The hub closed the channel
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
