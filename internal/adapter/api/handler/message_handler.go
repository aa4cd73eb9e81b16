package handler

import (
	"github.com/labstack/echo/v4"

	"bookmarket/internal/usecase"
	"bookmarket/pkg/errors"
	"bookmarket/pkg/response"
	"bookmarket/pkg/utils"
)

type MessageHandler struct {
	messageUseCase *usecase.MessageUseCase
}

func NewMessageHandler(messageUseCase *usecase.MessageUseCase) *MessageHandler {
	return &MessageHandler{
		messageUseCase: messageUseCase,
	}
}

type sendMessageRequest struct {
	ConversationID string `json:"conversation_id" validate:"required"`
	SenderID       string `json:"sender_id" validate:"required"`
	SenderName     string `json:"sender_name"`
	RecipientID    string `json:"recipient_id"`
	RecipientName  string `json:"recipient_name"`
	Message        string `json:"message" validate:"required"`
	MessageType    string `json:"message_type" validate:"omitempty,oneof=text image file"`
}

func (h *MessageHandler) SendMessage(c echo.Context) error {
	userID := c.Get("uid").(string)

	var req sendMessageRequest
	if err := c.Bind(&req); err != nil {
		return response.Error(c, errors.BadRequest("Invalid request body", err))
	}
	if err := c.Validate(&req); err != nil {
		return response.Error(c, err)
	}

	result, err := h.messageUseCase.SendMessage(c.Request().Context(), userID, usecase.SendMessageInput{
		ConversationID: req.ConversationID,
		SenderID:       req.SenderID,
		SenderName:     req.SenderName,
		RecipientID:    req.RecipientID,
		RecipientName:  req.RecipientName,
		Message:        req.Message,
		MessageType:    req.MessageType,
	})
	if err != nil {
		return response.Error(c, err)
	}

	return response.Created(c, result)
}

func (h *MessageHandler) GetMessages(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversationID := c.Param("conversationId")

	pagination := utils.GetPaginationParams(c)

	messages, total, err := h.messageUseCase.GetMessages(
		c.Request().Context(),
		userID,
		conversationID,
		pagination.Page,
		pagination.PageSize,
	)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, messages, total, pagination.Page, pagination.PageSize)
}

func (h *MessageHandler) MarkAsRead(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversationID := c.Param("conversationId")

	if err := h.messageUseCase.MarkAsRead(c.Request().Context(), conversationID, userID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Conversation marked as read",
	})
}

func (h *MessageHandler) GetUnreadCount(c echo.Context) error {
	userID := c.Get("uid").(string)
	if c.Param("userId") != userID {
		return response.Error(c, errors.Forbidden("Cannot read another user's unread count", nil))
	}

	count, err := h.messageUseCase.GetUnreadCount(c.Request().Context(), userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"count": count,
	})
}

func (h *MessageHandler) GetLatestPartner(c echo.Context) error {
	userID := c.Get("uid").(string)
	bookID := c.QueryParam("bookId")

	partner, err := h.messageUseCase.GetLatestPartnerForBook(c.Request().Context(), bookID, userID)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]interface{}{
		"partner": partner,
	})
}

func (h *MessageHandler) GetUserConversations(c echo.Context) error {
	userID := c.Get("uid").(string)
	if c.Param("userId") != userID {
		return response.Error(c, errors.Forbidden("Cannot list another user's conversations", nil))
	}

	pagination := utils.GetPaginationParams(c)

	conversations, total, err := h.messageUseCase.GetUserConversations(
		c.Request().Context(),
		userID,
		pagination.Page,
		pagination.PageSize,
	)
	if err != nil {
		return response.Error(c, err)
	}

	return response.Paginated(c, conversations, total, pagination.Page, pagination.PageSize)
}

func (h *MessageHandler) DeactivateConversation(c echo.Context) error {
	userID := c.Get("uid").(string)
	conversationID := c.Param("conversationId")

	if err := h.messageUseCase.DeactivateConversation(c.Request().Context(), conversationID, userID); err != nil {
		return response.Error(c, err)
	}

	return response.Success(c, map[string]string{
		"message": "Conversation removed",
	})
}
