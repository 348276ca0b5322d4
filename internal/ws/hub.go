package ws

import (
	"log/slog"
	"sync"

	"squabble_server/internal/logger"
	"squabble_server/internal/metrics"
)

// Hub - реестр соединений и подписок на комнаты.
// Отправка не блокирует: отстающий клиент отключается.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	rooms   map[string]map[string]struct{}
	log     *slog.Logger
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		rooms:   make(map[string]map[string]struct{}),
		log:     logger.Component("ws_hub"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(n))
}

// Unregister убирает соединение из всех комнат
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c.ID]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.ID)
	for gameID, members := range h.rooms {
		delete(members, c.ID)
		if len(members) == 0 {
			delete(h.rooms, gameID)
		}
	}
	n := len(h.clients)
	h.mu.Unlock()
	metrics.WSConnections.Set(float64(n))
}

func (h *Hub) Subscribe(connID, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[connID]; !ok {
		return
	}
	members, ok := h.rooms[gameID]
	if !ok {
		members = make(map[string]struct{})
		h.rooms[gameID] = members
	}
	members[connID] = struct{}{}
}

func (h *Hub) Unsubscribe(connID, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if members, ok := h.rooms[gameID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(h.rooms, gameID)
		}
	}
}

func (h *Hub) DropRoom(gameID string) {
	h.mu.Lock()
	delete(h.rooms, gameID)
	h.mu.Unlock()
}

func (h *Hub) BroadcastToRoom(gameID, event string, payload any) {
	data, err := encode(event, payload)
	if err != nil {
		h.log.Error("broadcast encode failed", "game_id", gameID, "event", event, "error", err)
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.rooms[gameID]))
	for connID := range h.rooms[gameID] {
		if c, ok := h.clients[connID]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		h.deliver(c, event, data)
	}
}

func (h *Hub) SendTo(connID, event string, payload any) {
	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return
	}

	data, err := encode(event, payload)
	if err != nil {
		h.log.Error("send encode failed", "conn_id", connID, "event", event, "error", err)
		return
	}
	h.deliver(c, event, data)
}

func (h *Hub) deliver(c *Client, event string, data []byte) {
	if c.enqueue(data) {
		return
	}
	h.log.Warn("slow client dropped", "conn_id", c.ID, "player_id", c.PlayerID, "event", event)
	c.Close()
}

// Members - соединения, подписанные на комнату
func (h *Hub) Members(gameID string) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]string, 0, len(h.rooms[gameID]))
	for connID := range h.rooms[gameID] {
		out = append(out, connID)
	}
	return out
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
