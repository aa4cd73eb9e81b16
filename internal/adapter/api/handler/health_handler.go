package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"bookmarket/internal/infrastructure/videochat"
	"bookmarket/internal/infrastructure/websocket"
)

type HealthHandler struct {
	wsManager *websocket.Manager
	matcher   *videochat.Matcher
	rooms     *videochat.Rooms
}

func NewHealthHandler(wsManager *websocket.Manager, matcher *videochat.Matcher, rooms *videochat.Rooms) *HealthHandler {
	return &HealthHandler{
		wsManager: wsManager,
		matcher:   matcher,
		rooms:     rooms,
	}
}

func (h *HealthHandler) CheckHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "Server is running",
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Status reports live realtime counters for operational checks.
func (h *HealthHandler) Status(c echo.Context) error {
	participants, waiting := h.matcher.Counts()

	return c.JSON(http.StatusOK, map[string]interface{}{
		"connections": h.wsManager.ClientCount(),
		"videoChat": map[string]int{
			"participants": participants,
			"waiting":      waiting,
		},
		"rooms": h.rooms.Count(),
		"time":  time.Now().Format(time.RFC3339),
	})
}
