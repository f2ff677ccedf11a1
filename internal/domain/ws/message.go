// internal/domain/ws/message.go
package ws

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventTypeConnected   EventType = "connected"
	EventTypeBalance     EventType = "balance"
	EventTypeOrderUpdate EventType = "order_update"
	EventTypeForceLogout EventType = "force_logout"
	EventTypePing        EventType = "ping"
	EventTypePong        EventType = "pong"
	EventTypeError       EventType = "error"
)

// Message is the frame exchanged with the storefront UI.
type Message struct {
	Type      EventType       `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewMessage(t EventType, data interface{}) *Message {
	msg := &Message{Type: t, Timestamp: time.Now()}
	if data != nil {
		raw, err := json.Marshal(data)
		if err == nil {
			msg.Data = raw
		}
	}
	return msg
}

func ParseMessage(raw []byte) (*Message, error) {
	var msg Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *Message) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// BalanceData carries the merged session snapshot's balance.
type BalanceData struct {
	Balance int64 `json:"balance"`
}

// OrderUpdateData mirrors the ledger entry after a merge.
type OrderUpdateData struct {
	OrderID  string `json:"order_id"`
	Status   string `json:"status"`
	Progress int    `json:"progress"`
}

// SessionEventData explains a forced disconnect.
type SessionEventData struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
