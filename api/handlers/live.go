package handlers

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/civiclens/civic-complaints-api/api"
	"github.com/civiclens/civic-complaints-api/api/policy"
	"github.com/civiclens/civic-complaints-api/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Adjust CORS as needed, e.g., check r.Header.Get("Origin")
	},
}

const (
	EventComplaintCreated = "complaint.created"
	EventComplaintStatus  = "complaint.status"
)

// Event is a live feed message pushed to subscribed staff dashboards
type Event struct {
	Type       string             `json:"type"`
	Complaint  primitive.ObjectID `json:"complaintId"`
	Department primitive.ObjectID `json:"departmentId"`
	Category   string             `json:"category"`
	Status     string             `json:"status"`
	Priority   string             `json:"priority"`
	Timestamp  time.Time          `json:"timestamp"`
}

type liveClient struct {
	conn     *websocket.Conn
	identity models.Identity
	send     chan Event
}

// Hub fans complaint events out to connected staff and admin clients.
// Department staff only receive events for their own department.
type Hub struct {
	clients    map[*liveClient]struct{}
	register   chan *liveClient
	unregister chan *liveClient
	events     chan Event
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*liveClient]struct{}),
		register:   make(chan *liveClient),
		unregister: make(chan *liveClient),
		events:     make(chan Event, 64),
	}
}

// Run owns the client set, all mutation happens on this goroutine
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = struct{}{}
			zap.S().Infow("live feed client connected", "role", c.identity.Role)
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case ev := <-h.events:
			for c := range h.clients {
				if !h.wants(c.identity, ev) {
					continue
				}
				select {
				case c.send <- ev:
				default:
					// slow consumer, drop it rather than block the hub
					delete(h.clients, c)
					close(c.send)
				}
			}
		}
	}
}

func (h *Hub) wants(identity models.Identity, ev Event) bool {
	if identity.Role == models.RoleAdmin {
		return true
	}
	return identity.IsStaffOf(ev.Department)
}

// Publish queues an event for delivery. It never blocks the caller, if the
// hub buffer is full the event is dropped.
func (h *Hub) Publish(ev Event) {
	if h == nil {
		return
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now().UTC()
	}
	select {
	case h.events <- ev:
	default:
		zap.S().Warn("live feed buffer full, dropping event")
	}
}

// SubscribeHandler upgrades the request and streams events to the caller
func (h *Hub) SubscribeHandler(w http.ResponseWriter, r *http.Request) {
	identity, ok := api.IdentityFrom(r.Context())
	if !ok || !policy.CanSubscribeFeed(identity) {
		http.Error(w, "forbidden", http.StatusForbidden)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zap.S().With(err).Error("websocket upgrade failed")
		return
	}

	c := &liveClient{conn: conn, identity: identity, send: make(chan Event, 16)}
	h.register <- c

	go c.writeLoop()
	c.readLoop(h)
}

func (c *liveClient) writeLoop() {
	for ev := range c.send {
		if err := c.conn.WriteJSON(ev); err != nil {
			c.conn.Close()
			return
		}
	}
	c.conn.Close()
}

// readLoop drains client frames so pings and close handshakes are handled
func (c *liveClient) readLoop(h *Hub) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.NextReader(); err != nil {
			return
		}
	}
}
