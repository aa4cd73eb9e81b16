package websocket

import (
	"encoding/json"
	"time"

	"bookmarket/pkg/logger"
)

// Event types emitted on conversation and personal channels.
const (
	EventChatMessage = "chat:message"
	EventChatJoined  = "chat:joined"
	EventChatLeft    = "chat:left"
	EventChatTyping  = "chat:typing"
	EventNotify      = "notify:new-message"
	EventUserStatus  = "user:status"
	EventError       = "error"
	EventPong        = "pong"
)

// Event is the JSON envelope for every frame pushed to a client.
type Event struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// NotifyNewMessage is the lightweight notification pushed to a user's
// personal channel when someone messages them.
type NotifyNewMessage struct {
	FromUserID     string `json:"fromUserId"`
	FromName       string `json:"fromName"`
	ConversationID string `json:"conversationId"`
	Preview        string `json:"preview"`
	BookID         string `json:"bookId,omitempty"`
	At             string `json:"at"`
}

func encodeEvent(eventType string, payload interface{}) ([]byte, bool) {
	raw, err := json.Marshal(Event{
		Type:      eventType,
		Data:      payload,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
	if err != nil {
		logger.Error("websocket: failed to marshal %s event: %v", eventType, err)
		return nil, false
	}
	return raw, true
}
