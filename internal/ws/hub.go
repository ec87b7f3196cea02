package ws

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/mhutchin/wordrush/internal/dependencies/random"
	"github.com/mhutchin/wordrush/internal/model"
	"github.com/mhutchin/wordrush/internal/services/presence"
)

const connIDLength = 16

// Dispatcher handles decoded client events and connection teardown
type Dispatcher interface {
	Dispatch(ctx context.Context, connID model.ConnID, ev model.ClientEvent)
	Disconnect(ctx context.Context, connID model.ConnID) error
}

// Hub owns all live websocket connections and implements the fanout
// used by the presence coordinator. Room subscriptions are tracked
// here, not in storage: they follow the socket, not the player.
type Hub struct {
	logger     *slog.Logger
	random     random.Random
	dispatcher Dispatcher
	upgrader   websocket.Upgrader

	mu       sync.RWMutex
	clients  map[model.ConnID]*Client
	roomSubs map[model.RoomName]map[model.ConnID]struct{}
}

var _ presence.Fanout = (*Hub)(nil)

// NewHub creates a Hub without a dispatcher; call SetDispatcher before
// serving connections
func NewHub(rnd random.Random, logger *slog.Logger) *Hub {
	return &Hub{
		logger: logger,
		random: rnd,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		clients:  make(map[model.ConnID]*Client),
		roomSubs: make(map[model.RoomName]map[model.ConnID]struct{}),
	}
}

// SetDispatcher wires the event handler. The hub and the coordinator
// reference each other, so one side is attached after construction.
func (h *Hub) SetDispatcher(d Dispatcher) {
	h.dispatcher = d
}

// ServeWS upgrades an HTTP request to a websocket connection
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	connID := model.ConnID("c_" + h.random.String(connIDLength, random.TokenAlphabet))
	client := newClient(connID, conn, h)

	h.mu.Lock()
	h.clients[connID] = client
	h.mu.Unlock()

	go client.writePump()
	go client.readPump()

	h.logger.Info("websocket connected", "conn_id", connID)
}

// dropClient removes a client from the hub and runs disconnect cleanup
func (h *Hub) dropClient(client *Client) {
	h.mu.Lock()
	current, ok := h.clients[client.id]
	if !ok || current != client {
		h.mu.Unlock()
		return
	}
	delete(h.clients, client.id)
	for name, subs := range h.roomSubs {
		delete(subs, client.id)
		if len(subs) == 0 {
			delete(h.roomSubs, name)
		}
	}
	h.mu.Unlock()

	client.close()

	if err := h.dispatcher.Disconnect(context.Background(), client.id); err != nil {
		h.logger.Error("disconnect cleanup failed", "conn_id", client.id, "error", err)
	}
	h.logger.Info("websocket disconnected", "conn_id", client.id)
}

// handleFrame decodes one inbound frame and hands it to the dispatcher
func (h *Hub) handleFrame(client *Client, raw []byte) {
	ev, err := DecodeClientEvent(raw)
	if err != nil {
		h.logger.Warn("ignoring malformed frame", "conn_id", client.id, "error", err)
		return
	}
	h.dispatcher.Dispatch(context.Background(), client.id, ev)
}

// SendTo delivers an event to a single connection
func (h *Hub) SendTo(connID model.ConnID, event string, payload any) {
	raw, err := EncodeFrame(event, payload)
	if err != nil {
		h.logger.Error("encoding frame failed", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	client, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}
	client.enqueue(raw)
}

// BroadcastAll delivers an event to every live connection
func (h *Hub) BroadcastAll(event string, payload any) {
	raw, err := EncodeFrame(event, payload)
	if err != nil {
		h.logger.Error("encoding frame failed", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		client.enqueue(raw)
	}
}

// BroadcastRoom delivers an event to every connection subscribed to a room
func (h *Hub) BroadcastRoom(name model.RoomName, event string, payload any) {
	raw, err := EncodeFrame(event, payload)
	if err != nil {
		h.logger.Error("encoding frame failed", "event", event, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for connID := range h.roomSubs[name] {
		if client, ok := h.clients[connID]; ok {
			client.enqueue(raw)
		}
	}
}

// SubscribeRoom adds a connection to a room's broadcast set
func (h *Hub) SubscribeRoom(connID model.ConnID, name model.RoomName) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.roomSubs[name] == nil {
		h.roomSubs[name] = make(map[model.ConnID]struct{})
	}
	h.roomSubs[name][connID] = struct{}{}
}

// UnsubscribeRoom removes a connection from a room's broadcast set
func (h *Hub) UnsubscribeRoom(connID model.ConnID, name model.RoomName) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs, ok := h.roomSubs[name]
	if !ok {
		return
	}
	delete(subs, connID)
	if len(subs) == 0 {
		delete(h.roomSubs, name)
	}
}

// DropRoom discards a room's entire broadcast set
func (h *Hub) DropRoom(name model.RoomName) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.roomSubs, name)
}

// ConnectionCount returns the number of live connections
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Shutdown closes every live connection
func (h *Hub) Shutdown() {
	h.mu.Lock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.clients = make(map[model.ConnID]*Client)
	h.roomSubs = make(map[model.RoomName]map[model.ConnID]struct{})
	h.mu.Unlock()

	for _, client := range clients {
		client.close()
	}
	h.logger.Info("websocket hub stopped")
}
