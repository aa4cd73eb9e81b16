package router

import (
	"github.com/labstack/echo/v4"

	"bookmarket/internal/adapter/api/handler"
	"bookmarket/internal/adapter/api/middleware"
)

// Setup wires every route group onto the echo instance.
func Setup(
	e *echo.Echo,
	authMiddleware *middleware.AuthMiddleware,
	messageHandler *handler.MessageHandler,
	wishlistHandler *handler.WishlistHandler,
	healthHandler *handler.HealthHandler,
	chatWsHandler *handler.ChatWebSocketHandler,
	videoHandler *handler.VideoChatHandler,
) {
	SetupHealthRouter(e, healthHandler)
	SetupMessageRouter(e, messageHandler, authMiddleware)
	SetupWishlistRouter(e, wishlistHandler, authMiddleware)
	SetupWebSocketRouter(e, chatWsHandler, videoHandler)
}
