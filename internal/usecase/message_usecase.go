package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"bookmarket/internal/domain/entity"
	"bookmarket/internal/domain/repository"
	"bookmarket/internal/infrastructure/ratelimit"
	"bookmarket/internal/infrastructure/websocket"
	"bookmarket/pkg/errors"
	"bookmarket/pkg/logger"
)

// Fanout publishes events to live subscribers. Delivery is best
// effort; the messaging path never waits on it and never fails
// because of it.
type Fanout interface {
	BroadcastToConversation(conversationID, eventType string, payload interface{})
	SendToUser(userID, eventType string, payload interface{})
}

type MessageUseCase struct {
	conversationRepo repository.ConversationRepository
	bookRepo         repository.BookRepository
	userRepo         repository.UserRepository
	fanout           Fanout
	rateLimiter      *ratelimit.RateLimiter
}

func NewMessageUseCase(
	conversationRepo repository.ConversationRepository,
	bookRepo repository.BookRepository,
	userRepo repository.UserRepository,
	fanout Fanout,
) *MessageUseCase {
	return &MessageUseCase{
		conversationRepo: conversationRepo,
		bookRepo:         bookRepo,
		userRepo:         userRepo,
		fanout:           fanout,
		rateLimiter:      ratelimit.NewRateLimiter(),
	}
}

type SendMessageInput struct {
	ConversationID string
	SenderID       string
	SenderName     string
	RecipientID    string
	RecipientName  string
	Message        string
	MessageType    string
}

type SendMessageResult struct {
	Message      *entity.Message      `json:"message"`
	Conversation *entity.Conversation `json:"conversation"`
}

type ConversationResponse struct {
	*entity.Conversation
	Book *entity.BookSummary `json:"book,omitempty"`
}

type PartnerInfo struct {
	BuyerID   string `json:"buyerId"`
	BuyerName string `json:"buyerName"`
}

// SendMessage validates and records a chat message. The conversation
// is resolved or created from the deterministic id, the message row
// and the conversation aggregates are written as one unit of work, and
// subscribers are notified only after the write committed.
func (uc *MessageUseCase) SendMessage(ctx context.Context, callerUID string, input SendMessageInput) (*SendMessageResult, error) {
	if allowed, wait := uc.rateLimiter.Allow(input.SenderID, "send_message"); !allowed {
		logger.Warn("SendMessage rate limited: sender %s must wait %v", input.SenderID, wait)
		return nil, errors.TooManyRequests("You are sending messages too quickly. Please slow down.")
	}

	if input.ConversationID == "" || input.SenderID == "" || strings.TrimSpace(input.Message) == "" {
		return nil, errors.BadRequest("conversationId, senderId and message are required", nil)
	}

	bookID, partA, partB, err := entity.ParseConversationID(input.ConversationID)
	if err != nil {
		return nil, errors.BadRequest("Invalid conversation id", err)
	}

	if callerUID != "" && callerUID != input.SenderID {
		logger.Warn("SendMessage: caller %s attempted to send as %s", callerUID, input.SenderID)
		return nil, errors.Forbidden("Sender does not match authenticated user", nil)
	}

	conversation, err := uc.resolveConversation(ctx, input, bookID, partA, partB)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	messageType := input.MessageType
	if messageType == "" {
		messageType = entity.MessageTypeText
	}

	recipientID := input.RecipientID
	if recipientID == "" {
		recipientID = conversation.OtherParticipant(input.SenderID)
	}

	message := &entity.Message{
		ID:             uuid.New().String(),
		ConversationID: conversation.ID,
		SenderID:       input.SenderID,
		SenderName:     input.SenderName,
		RecipientID:    recipientID,
		RecipientName:  input.RecipientName,
		Message:        input.Message,
		BookID:         bookID,
		MessageType:    messageType,
		CreatedAt:      now,
	}

	// The repository applies the message to the stored aggregates
	// inside its transaction; mutating the snapshot here would let two
	// concurrent sends both commit the same counter value.
	if err := uc.conversationRepo.AppendMessage(ctx, conversation, message); err != nil {
		logger.Error("SendMessage: failed to persist message for conversation %s: %v", conversation.ID, err)
		return nil, err
	}

	// Fanout happens strictly after the write committed and must not
	// delay the response to the sender.
	go uc.notifyMessage(conversation, message)

	return &SendMessageResult{
		Message:      message,
		Conversation: conversation,
	}, nil
}

// resolveConversation reuses the stored conversation for the id when
// one exists; otherwise it fixes seller/buyer roles by the book's
// owner and creates the record. Missing referential data degrades to
// heuristics instead of failing the send.
func (uc *MessageUseCase) resolveConversation(ctx context.Context, input SendMessageInput, bookID, partA, partB string) (*entity.Conversation, error) {
	existing, err := uc.conversationRepo.GetByID(ctx, input.ConversationID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, "NOT_FOUND") {
		logger.Error("SendMessage: failed to load conversation %s: %v", input.ConversationID, err)
		return nil, err
	}

	sellerID, buyerID := partA, partB
	book, bookErr := uc.bookRepo.GetByID(ctx, bookID)
	if bookErr != nil {
		// Best-effort fallback: without the book the first participant
		// token is treated as the seller.
		logger.Warn("SendMessage: book %s lookup failed, falling back to positional roles: %v", bookID, bookErr)
	} else if book.OwnerID == partB {
		sellerID, buyerID = partB, partA
	}

	return &entity.Conversation{
		ID:            input.ConversationID,
		BookID:        bookID,
		SellerID:      sellerID,
		BuyerID:       buyerID,
		SellerName:    uc.displayName(ctx, sellerID, input),
		BuyerName:     uc.displayName(ctx, buyerID, input),
		IsActive:      true,
		LastMessageAt: time.Now(),
	}, nil
}

// displayName resolves a participant's name from the user directory,
// falling back to names supplied with the message and finally to the
// raw id.
func (uc *MessageUseCase) displayName(ctx context.Context, userID string, input SendMessageInput) string {
	if user, err := uc.userRepo.GetByID(ctx, userID); err == nil && user.Username != "" {
		return user.Username
	}
	if userID == input.SenderID && input.SenderName != "" {
		return input.SenderName
	}
	if userID == input.RecipientID && input.RecipientName != "" {
		return input.RecipientName
	}
	return userID
}

func (uc *MessageUseCase) notifyMessage(conversation *entity.Conversation, message *entity.Message) {
	uc.fanout.BroadcastToConversation(conversation.ID, websocket.EventChatMessage, message)

	if message.RecipientID == "" {
		return
	}
	uc.fanout.SendToUser(message.RecipientID, websocket.EventNotify, websocket.NotifyNewMessage{
		FromUserID:     message.SenderID,
		FromName:       message.SenderName,
		ConversationID: conversation.ID,
		Preview:        message.Message,
		BookID:         conversation.BookID,
		At:             message.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// GetMessages returns a page of the conversation's messages in
// ascending time order. Opening a conversation acknowledges it: every
// message authored by the other party is marked read as a side effect.
func (uc *MessageUseCase) GetMessages(ctx context.Context, callerUID, conversationID string, page, pageSize int) ([]*entity.Message, int64, error) {
	if _, _, _, err := entity.ParseConversationID(conversationID); err != nil {
		return nil, 0, errors.BadRequest("Invalid conversation id", err)
	}

	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	offset := (page - 1) * pageSize

	messages, total, err := uc.conversationRepo.GetMessages(ctx, conversationID, pageSize, offset)
	if err != nil {
		logger.Error("GetMessages: failed to load messages for %s: %v", conversationID, err)
		return nil, 0, err
	}

	// Stored newest first; delivered oldest first.
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	if callerUID != "" {
		if err := uc.MarkAsRead(ctx, conversationID, callerUID); err != nil && !errors.Is(err, "NOT_FOUND") {
			logger.Warn("GetMessages: read acknowledgement failed for %s: %v", conversationID, err)
		}
	}

	return messages, total, nil
}

// MarkAsRead flips IsRead on every message not authored by userID and
// resets that user's unread counter on the conversation. Calling it
// twice has the same effect as calling it once.
func (uc *MessageUseCase) MarkAsRead(ctx context.Context, conversationID, userID string) error {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}

	if _, err := uc.conversationRepo.MarkMessagesRead(ctx, conversationID, userID); err != nil {
		logger.Error("MarkAsRead: bulk update failed for %s: %v", conversationID, err)
		return err
	}

	if userID == conversation.SellerID {
		conversation.UnreadCount.Seller = 0
	} else {
		conversation.UnreadCount.Buyer = 0
	}

	if err := uc.conversationRepo.Update(ctx, conversation); err != nil {
		logger.Error("MarkAsRead: failed to reset unread counter for %s: %v", conversationID, err)
		return err
	}

	return nil
}

// GetUnreadCount sums the stored role counters across the user's
// active conversations. It deliberately never recounts the message
// table; the counters are maintained on the send path.
func (uc *MessageUseCase) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	conversations, _, err := uc.conversationRepo.ListActiveByUser(ctx, userID, -1, 0)
	if err != nil {
		return 0, err
	}

	total := 0
	for _, conversation := range conversations {
		switch userID {
		case conversation.SellerID:
			total += conversation.UnreadCount.Seller
		case conversation.BuyerID:
			total += conversation.UnreadCount.Buyer
		}
	}

	return total, nil
}

// GetLatestPartnerForBook returns the buyer of the most recently
// active conversation for the book/seller pair, or nil when the seller
// has no active conversation for that book.
func (uc *MessageUseCase) GetLatestPartnerForBook(ctx context.Context, bookID, sellerID string) (*PartnerInfo, error) {
	if bookID == "" || sellerID == "" {
		return nil, errors.BadRequest("bookId and sellerId are required", nil)
	}

	conversation, err := uc.conversationRepo.LatestActiveByBookSeller(ctx, bookID, sellerID)
	if err != nil {
		if errors.Is(err, "NOT_FOUND") {
			return nil, nil
		}
		return nil, err
	}

	return &PartnerInfo{
		BuyerID:   conversation.BuyerID,
		BuyerName: conversation.BuyerName,
	}, nil
}

// GetUserConversations lists the user's active conversations, newest
// activity first, each enriched with a book summary when the listing
// still resolves.
func (uc *MessageUseCase) GetUserConversations(ctx context.Context, userID string, page, pageSize int) ([]*ConversationResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	conversations, total, err := uc.conversationRepo.ListActiveByUser(ctx, userID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*ConversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		resp := &ConversationResponse{Conversation: conversation}

		book, err := uc.bookRepo.GetByID(ctx, conversation.BookID)
		if err == nil {
			resp.Book = book.Summary()
		} else {
			logger.Warn("GetUserConversations: book %s not found for conversation %s: %v", conversation.BookID, conversation.ID, err)
		}

		responses = append(responses, resp)
	}

	return responses, total, nil
}

// DeactivateConversation soft-removes a conversation for both parties.
// Conversations are never hard-deleted.
func (uc *MessageUseCase) DeactivateConversation(ctx context.Context, conversationID, userID string) error {
	conversation, err := uc.conversationRepo.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}

	if userID != conversation.SellerID && userID != conversation.BuyerID {
		return errors.Forbidden("User is not a participant in this conversation", nil)
	}

	return uc.conversationRepo.Deactivate(ctx, conversationID)
}
