package router

import (
	"github.com/labstack/echo/v4"

	"bookmarket/internal/adapter/api/handler"
	"bookmarket/internal/adapter/api/middleware"
)

func SetupMessageRouter(e *echo.Echo, messageHandler *handler.MessageHandler, authMiddleware *middleware.AuthMiddleware) {
	messages := e.Group("/v1/messages")
	messages.Use(authMiddleware.Authenticate)

	messages.POST("", messageHandler.SendMessage)
	messages.GET("/partner", messageHandler.GetLatestPartner)
	messages.GET("/unread/:userId", messageHandler.GetUnreadCount)
	messages.GET("/:conversationId", messageHandler.GetMessages)
	messages.POST("/:conversationId/read", messageHandler.MarkAsRead)

	conversations := e.Group("/v1/conversations")
	conversations.Use(authMiddleware.Authenticate)

	conversations.GET("/user/:userId", messageHandler.GetUserConversations)
	conversations.DELETE("/:conversationId", messageHandler.DeactivateConversation)
}
