package handler

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"bookmarket/internal/infrastructure/videochat"
	ws "bookmarket/internal/infrastructure/websocket"
	"bookmarket/pkg/errors"
	"bookmarket/pkg/logger"
)

// VideoChatHandler serves the video-chat socket. Connections are
// anonymous; a participant exists only for the lifetime of its socket.
// Frames either drive the one-on-one matcher or, when they carry a
// room id, the named room registry.
type VideoChatHandler struct {
	wsManager *ws.Manager
	matcher   *videochat.Matcher
	rooms     *videochat.Rooms
}

func NewVideoChatHandler(wsManager *ws.Manager, matcher *videochat.Matcher, rooms *videochat.Rooms) *VideoChatHandler {
	return &VideoChatHandler{
		wsManager: wsManager,
		matcher:   matcher,
		rooms:     rooms,
	}
}

// ManagerEmitter adapts the fanout manager to the videochat emitter.
// SendToClient never blocks, which the matcher requires.
type ManagerEmitter struct {
	Manager *ws.Manager
}

func (e ManagerEmitter) Emit(connID, eventType string, payload interface{}) {
	e.Manager.SendToClient(connID, eventType, payload)
}

type videoFrame struct {
	Type         string          `json:"type"`
	Name         string          `json:"name"`
	RoomID       string          `json:"roomId"`
	UserName     string          `json:"userName"`
	FavoriteBook string          `json:"favoriteBook"`
	Text         string          `json:"text"`
	IsEmoji      bool            `json:"isEmoji"`
	To           string          `json:"to"`
	Offer        json.RawMessage `json:"offer"`
	Answer       json.RawMessage `json:"answer"`
	Candidate    json.RawMessage `json:"candidate"`
	Payload      json.RawMessage `json:"payload"`
}

func (h *VideoChatHandler) HandleWebSocket(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return errors.Internal("Failed to upgrade connection", err)
	}

	client := &ws.Client{
		ID:   uuid.New().String(),
		Conn: conn,
		Send: make(chan []byte, 256),
	}

	h.wsManager.Add(client)

	go client.WritePump()
	go client.ReadPump(h.wsManager,
		func(raw []byte) { h.handleFrame(client, raw) },
		func() {
			h.matcher.Disconnect(client.ID)
			h.rooms.Leave(client.ID)
		},
	)

	return nil
}

func (h *VideoChatHandler) handleFrame(client *ws.Client, raw []byte) {
	var frame videoFrame
	if err := json.Unmarshal(raw, &frame); err != nil {
		logger.Warn("video ws: client %s sent malformed frame: %v", client.ID, err)
		return
	}

	switch frame.Type {
	case "register":
		h.matcher.Register(client.ID, frame.Name)

	case "find-peer":
		h.matcher.FindNewPartner(client.ID)

	case "offer":
		if frame.RoomID != "" {
			h.rooms.RelaySignal(frame.RoomID, client.ID, videochat.EventRoomOffer, frame.Offer)
			return
		}
		h.matcher.RelayOffer(client.ID, frame.Offer)

	case "answer":
		if frame.RoomID != "" {
			h.rooms.RelaySignal(frame.RoomID, client.ID, videochat.EventRoomAnswer, frame.Answer)
			return
		}
		h.matcher.RelayAnswer(client.ID, frame.To, frame.Answer)

	case "ice-candidate":
		if frame.RoomID != "" {
			h.rooms.RelaySignal(frame.RoomID, client.ID, videochat.EventRoomICE, frame.Candidate)
			return
		}
		h.matcher.RelayICECandidate(client.ID, frame.Candidate)

	case "chat-message":
		payload := frame.Payload
		if payload == nil {
			payload = raw
		}
		h.matcher.RelayChatMessage(client.ID, payload)

	case "get-status":
		participants, waiting := h.matcher.Counts()
		h.wsManager.SendToClient(client.ID, "status", map[string]interface{}{
			"participants": participants,
			"waiting":      waiting,
			"rooms":        h.rooms.Count(),
			"partnerId":    h.matcher.Partner(client.ID),
		})

	case "create-room":
		h.rooms.Create(frame.RoomID, client.ID, frame.UserName, frame.FavoriteBook)

	case "join-room":
		h.rooms.Join(frame.RoomID, client.ID, frame.UserName)

	case "message":
		h.rooms.Message(frame.RoomID, client.ID, frame.UserName, frame.Text, frame.IsEmoji)

	case "leave-room":
		h.rooms.Leave(client.ID)

	default:
		logger.Debug("video ws: client %s sent unknown frame type %q", client.ID, frame.Type)
	}
}
