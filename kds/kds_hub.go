package kds

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yeremiapane/club-pos/models"
	"github.com/yeremiapane/club-pos/utils"
)

// Event types
const (
	EventSessionOpened = "session_opened"
	EventSessionClosed = "session_checked_out"
	EventOrdersAdded   = "orders_added"
	EventOrderStatus   = "order_status"
	EventCastChanged   = "cast_changed"
	EventTableMoved    = "table_moved"
	EventTableUpdate   = "table_update"
)

const writeWait = 5 * time.Second

type Message struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// kitchenEvents are the only events kitchen terminals receive.
var kitchenEvents = map[string]bool{
	EventOrdersAdded:   true,
	EventOrderStatus:   true,
	EventSessionClosed: true,
}

// Hub tracks connected floor and kitchen terminals and fans events out to
// them. The zero value is not usable; call NewHub.
type Hub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]string // conn -> role
}

func NewHub() *Hub {
	return &Hub{clients: make(map[*websocket.Conn]string)}
}

func (h *Hub) Register(conn *websocket.Conn, role string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[conn] = role
	utils.InfoLogger.Printf("KDS client connected (role=%s, clients=%d)", role, len(h.clients))
}

func (h *Hub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		conn.Close()
	}
}

func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *Hub) SessionOpened(s models.Session) {
	h.Broadcast(Message{Event: EventSessionOpened, Data: s})
}

func (h *Hub) SessionCheckedOut(s models.Session) {
	h.Broadcast(Message{Event: EventSessionClosed, Data: s})
}

func (h *Hub) OrdersAdded(orders []models.Order) {
	h.Broadcast(Message{Event: EventOrdersAdded, Data: orders})
}

func (h *Hub) OrderStatus(o models.Order) {
	h.Broadcast(Message{Event: EventOrderStatus, Data: o})
}

func (h *Hub) CastChanged(s models.Session) {
	h.Broadcast(Message{Event: EventCastChanged, Data: s})
}

func (h *Hub) TableMoved(s models.Session) {
	h.Broadcast(Message{Event: EventTableMoved, Data: s})
}

func (h *Hub) TableUpdate(t models.Table) {
	h.Broadcast(Message{Event: EventTableUpdate, Data: t})
}

// Broadcast sends msg to every interested client. A client that cannot be
// written to is dropped.
func (h *Hub) Broadcast(msg Message) {
	if h == nil {
		return
	}
	data, err := json.Marshal(msg)
	if err != nil {
		utils.ErrorLogger.Printf("Error marshaling %s message: %v", msg.Event, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, role := range h.clients {
		if role == models.RoleKitchen && !kitchenEvents[msg.Event] {
			continue
		}
		_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			utils.ErrorLogger.Printf("Dropping KDS client (role=%s): %v", role, err)
			delete(h.clients, conn)
			conn.Close()
		}
	}
}
