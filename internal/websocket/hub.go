package dashws

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"

	websocket "github.com/gofiber/contrib/websocket"
	"github.com/renren-chavez/MatchUpBack/internal/notify"
)

// Hub pushes booking events to the coach's connected dashboard sessions.
// It satisfies notify.Notifier so services can treat it as one more
// fire-and-forget delivery channel.
type Hub struct {
	clients    map[string]map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan notify.Event
	logger     *slog.Logger
}

type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	userID string
	send   chan []byte
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan notify.Event, 64),
		logger:     logger,
	}
}

func NewClient(hub *Hub, conn *websocket.Conn, userID string) *Client {
	return &Client{
		hub:    hub,
		conn:   conn,
		userID: userID,
		send:   make(chan []byte, 32),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			set, ok := h.clients[client.userID]
			if !ok {
				set = make(map[*Client]struct{})
				h.clients[client.userID] = set
			}
			set[client] = struct{}{}
		case client := <-h.unregister:
			set, ok := h.clients[client.userID]
			if !ok {
				continue
			}
			if _, exists := set[client]; exists {
				delete(set, client)
				close(client.send)
			}
			if len(set) == 0 {
				delete(h.clients, client.userID)
			}
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Notify queues the event for the owning coach's dashboard sessions. Events
// for coaches with no open session are dropped; the dashboard re-fetches on
// load anyway.
func (h *Hub) Notify(_ context.Context, event notify.Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("dashboard feed full, dropping event",
			"type", event.Type,
			"booking_reference", event.BookingReference,
		)
	}
}

func (h *Hub) deliver(event notify.Event) {
	encoded, err := json.Marshal(event)
	if err != nil {
		h.logger.Error("dashboard feed encode event", "err", err)
		return
	}
	h.sendToUser(strconv.FormatInt(event.CoachID, 10), encoded)
}

func (h *Hub) sendToUser(userID string, payload []byte) {
	set, ok := h.clients[userID]
	if !ok {
		return
	}

	for client := range set {
		select {
		case client.send <- payload:
		default:
			delete(set, client)
			close(client.send)
		}
	}
	if len(set) == 0 {
		delete(h.clients, userID)
	}
}

// ReadPump drains inbound frames until the connection drops. The feed is
// one-way; clients send nothing but pings.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for payload := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
}
