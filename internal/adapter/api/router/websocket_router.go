package router

import (
	"github.com/labstack/echo/v4"

	"bookmarket/internal/adapter/api/handler"
)

// SetupWebSocketRouter registers the realtime endpoints. Auth happens
// inside the handlers: the chat socket verifies a query token, the
// video socket is anonymous.
func SetupWebSocketRouter(e *echo.Echo, chatWsHandler *handler.ChatWebSocketHandler, videoHandler *handler.VideoChatHandler) {
	e.GET("/v1/ws/chat", chatWsHandler.HandleWebSocket)
	e.GET("/v1/ws/video", videoHandler.HandleWebSocket)
}
