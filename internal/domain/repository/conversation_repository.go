package repository

import (
	"context"

	"bookmarket/internal/domain/entity"
)

type ConversationRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Conversation, error)
	Update(ctx context.Context, conversation *entity.Conversation) error
	Deactivate(ctx context.Context, id string) error

	// AppendMessage persists the message and applies it to the
	// conversation aggregates (preview, activity timestamp, unread
	// counter) as a single unit of work: either both writes commit or
	// neither does. The aggregates are recomputed against the stored
	// conversation under the same lock or transaction, so concurrent
	// sends each count exactly once; conversation is updated in place
	// to the committed state.
	AppendMessage(ctx context.Context, conversation *entity.Conversation, message *entity.Message) error

	// ListActiveByUser returns active conversations where the user is
	// seller or buyer, newest activity first. limit <= 0 means no limit.
	ListActiveByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error)

	// LatestActiveByBookSeller returns the most recently active
	// conversation for the book/seller pair.
	LatestActiveByBookSeller(ctx context.Context, bookID, sellerID string) (*entity.Conversation, error)

	// GetMessages returns the conversation's messages newest first,
	// paginated by limit/offset.
	GetMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error)

	// MarkMessagesRead flips IsRead on every unread message in the
	// conversation not authored by excludeSenderID, returning the number
	// of messages updated.
	MarkMessagesRead(ctx context.Context, conversationID, excludeSenderID string) (int, error)
}
