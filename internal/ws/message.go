package ws

import (
	"encoding/json"
	"fmt"
)

// Message - конверт всех сообщений в обе стороны
type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// служебные события транспорта
const (
	EventReady = "ready"

	CodeUnauthorized = "unauthorized"
	CodeRateLimited  = "rate_limited"
	CodeUnknownEvent = "unknown_event"
)

type readyPayload struct {
	ConnectionID string `json:"connectionId"`
	PlayerID     int64  `json:"playerId,omitempty"`
}

func encode(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(Message{Type: event, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return data, nil
}

func decode(raw []byte) (*inbound, error) {
	var msg inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	if msg.Type == "" {
		return nil, fmt.Errorf("decode envelope: missing type")
	}
	return &msg, nil
}
