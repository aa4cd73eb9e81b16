package handler

import (
	"encoding/json"
	"net/http"

	gorillaws "github.com/gorilla/websocket"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"bookmarket/internal/adapter/api/middleware"
	"bookmarket/internal/domain/entity"
	"bookmarket/internal/infrastructure/ratelimit"
	ws "bookmarket/internal/infrastructure/websocket"
	"bookmarket/pkg/errors"
	"bookmarket/pkg/logger"
)

var upgrader = gorillaws.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // restricted by CORS_ORIGIN in production deployments
	},
}

// ChatWebSocketHandler serves the chat socket: conversation channel
// membership, typing relays and presence. Messages themselves go
// through the REST send endpoint; the socket only receives them.
type ChatWebSocketHandler struct {
	wsManager      *ws.Manager
	authMiddleware *middleware.AuthMiddleware
	rateLimiter    *ratelimit.RateLimiter
}

func NewChatWebSocketHandler(wsManager *ws.Manager, authMiddleware *middleware.AuthMiddleware) *ChatWebSocketHandler {
	return &ChatWebSocketHandler{
		wsManager:      wsManager,
		authMiddleware: authMiddleware,
		rateLimiter:    ratelimit.NewRateLimiter(),
	}
}

type chatFrame struct {
	Type           string `json:"type"`
	ConversationID string `json:"conversation_id"`
	UserName       string `json:"user_name"`
	IsTyping       bool   `json:"is_typing"`
}

func (h *ChatWebSocketHandler) HandleWebSocket(c echo.Context) error {
	// Browsers cannot set headers on WebSocket upgrades, so the token
	// rides in the query string.
	token := c.QueryParam("token")
	if token == "" {
		return errors.Unauthorized("Authentication token is required", nil)
	}

	userID, err := h.authMiddleware.GetUIDFromToken(c.Request().Context(), token)
	if err != nil {
		return errors.Unauthorized("Invalid or expired token", err)
	}

	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := &ws.Client{
		ID:     uuid.New().String(),
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}

	h.wsManager.Add(client)
	h.wsManager.BroadcastAll(ws.EventUserStatus, map[string]string{
		"userId": userID,
		"status": "online",
	})

	go client.WritePump()
	go client.ReadPump(h.wsManager,
		func(raw []byte) { h.handleFrame(client, raw) },
		func() {
			h.wsManager.BroadcastAll(ws.EventUserStatus, map[string]string{
				"userId": userID,
				"status": "offline",
			})
		},
	)

	return nil
}

func (h *ChatWebSocketHandler) handleFrame(client *ws.Client, raw []byte) {
	var frame chatFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		logger.Warn("chat ws: client %s sent malformed frame: %v", client.ID, err)
		h.wsManager.SendToClient(client.ID, ws.EventError, map[string]string{
			"message": "Malformed frame",
		})
		return
	}

	switch frame.Type {
	case "chat:join":
		if !h.isParticipant(client.UserID, frame.ConversationID) {
			h.wsManager.SendToClient(client.ID, ws.EventError, map[string]string{
				"message": "Not a participant of this conversation",
			})
			return
		}
		h.wsManager.JoinConversation(client.ID, frame.ConversationID)
		h.wsManager.SendToClient(client.ID, ws.EventChatJoined, map[string]string{
			"conversationId": frame.ConversationID,
		})

	case "chat:leave":
		h.wsManager.LeaveConversation(client.ID, frame.ConversationID)
		h.wsManager.SendToClient(client.ID, ws.EventChatLeft, map[string]string{
			"conversationId": frame.ConversationID,
		})

	case "chat:typing":
		if allowed, _ := h.rateLimiter.Allow(client.UserID, "typing"); !allowed {
			return
		}
		h.wsManager.BroadcastToConversationExcept(frame.ConversationID, client.UserID, ws.EventChatTyping, map[string]interface{}{
			"conversationId": frame.ConversationID,
			"userId":         client.UserID,
			"userName":       frame.UserName,
			"isTyping":       frame.IsTyping,
		})

	case "ping":
		h.wsManager.SendToClient(client.ID, ws.EventPong, nil)

	default:
		logger.Debug("chat ws: client %s sent unknown frame type %q", client.ID, frame.Type)
	}
}

func (h *ChatWebSocketHandler) isParticipant(userID, conversationID string) bool {
	_, partA, partB, err := entity.ParseConversationID(conversationID)
	if err != nil {
		return false
	}
	return userID == partA || userID == partB
}
