// internal/websocket/hub.go
package websocket

import (
	"context"
	"sync"

	"instaup-service/internal/domain/ws"

	"go.uber.org/zap"
)

// Hub fans session and order changes out to the storefront UI. A user may
// hold several connections (tabs); every one of them gets every event.
type Hub struct {
	clients map[string]map[*Client]bool
	mu      sync.RWMutex

	register   chan *Client
	unregister chan *Client

	broadcast chan *BroadcastMessage

	logger *zap.Logger
}

type BroadcastMessage struct {
	UserID  string
	Message *ws.Message
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients:    make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		logger:     logger,
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case msg := <-h.broadcast:
			h.deliver(msg)
		}
	}
}

// Register hands a freshly upgraded connection to the hub loop.
func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.userID] == nil {
		h.clients[client.userID] = make(map[*Client]bool)
	}
	h.clients[client.userID][client] = true

	h.logger.Info("ws client connected",
		zap.String("user_id", client.userID),
		zap.Int("total", h.totalClients()),
	)

	client.SendMessage(ws.NewMessage(ws.EventTypeConnected, map[string]interface{}{
		"user_id": client.userID,
	}))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.clients[client.userID]; ok {
		if _, exists := clients[client]; exists {
			delete(clients, client)
			client.Close()

			if len(clients) == 0 {
				delete(h.clients, client.userID)
			}

			h.logger.Info("ws client disconnected",
				zap.String("user_id", client.userID),
				zap.Int("total", h.totalClients()),
			)
		}
	}
}

func (h *Hub) deliver(msg *BroadcastMessage) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients[msg.UserID] {
		client.SendMessage(msg.Message)
	}
}

// BroadcastBalance pushes the merged balance to every connection of a user.
func (h *Hub) BroadcastBalance(userID string, balance int64) {
	h.broadcast <- &BroadcastMessage{
		UserID:  userID,
		Message: ws.NewMessage(ws.EventTypeBalance, ws.BalanceData{Balance: balance}),
	}
}

// BroadcastOrderUpdate pushes a merged ledger entry to every connection of a
// user.
func (h *Hub) BroadcastOrderUpdate(userID string, data ws.OrderUpdateData) {
	h.broadcast <- &BroadcastMessage{
		UserID:  userID,
		Message: ws.NewMessage(ws.EventTypeOrderUpdate, data),
	}
}

// ForceLogout tells every connection of a user that the session ended, then
// disconnects them.
func (h *Hub) ForceLogout(userID, reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients, ok := h.clients[userID]
	if !ok {
		return
	}

	msg := ws.NewMessage(ws.EventTypeForceLogout, ws.SessionEventData{
		Reason:  reason,
		Message: "You have been logged out",
	})
	for client := range clients {
		client.SendMessage(msg)
		client.Close()
	}
	delete(h.clients, userID)

	h.logger.Info("ws clients force-disconnected",
		zap.String("user_id", userID),
		zap.String("reason", reason),
	)
}

func (h *Hub) ConnectedClients(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) TotalClients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalClients()
}

func (h *Hub) totalClients() int {
	total := 0
	for _, clients := range h.clients {
		total += len(clients)
	}
	return total
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, clients := range h.clients {
		for client := range clients {
			client.Close()
		}
	}
	h.clients = make(map[string]map[*Client]bool)
}
