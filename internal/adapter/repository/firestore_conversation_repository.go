package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bookmarket/internal/domain/entity"
	"bookmarket/internal/domain/repository"
	"bookmarket/pkg/errors"
	"bookmarket/pkg/logger"
)

type firestoreConversationRepository struct {
	client *firestore.Client
}

func NewFirestoreConversationRepository(client *firestore.Client) repository.ConversationRepository {
	return &firestoreConversationRepository{
		client: client,
	}
}

func (r *firestoreConversationRepository) conversationRef(id string) *firestore.DocumentRef {
	return r.client.Collection("conversations").Doc(id)
}

func (r *firestoreConversationRepository) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	doc, err := r.conversationRef(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Conversation", err)
		}
		return nil, errors.Internal("Failed to get conversation", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	conversation.ID = doc.Ref.ID

	return &conversation, nil
}

func (r *firestoreConversationRepository) Update(ctx context.Context, conversation *entity.Conversation) error {
	conversation.UpdatedAt = time.Now()

	_, err := r.conversationRef(conversation.ID).Set(ctx, conversation)
	if err != nil {
		return errors.Internal("Failed to update conversation", err)
	}

	return nil
}

func (r *firestoreConversationRepository) Deactivate(ctx context.Context, id string) error {
	_, err := r.conversationRef(id).Update(ctx, []firestore.Update{
		{Path: "isActive", Value: false},
		{Path: "updatedAt", Value: time.Now()},
	})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return errors.NotFound("Conversation", err)
		}
		return errors.Internal("Failed to deactivate conversation", err)
	}

	return nil
}

// AppendMessage writes the message document and the conversation
// snapshot in one transaction. The conversation is re-read via tx.Get
// so the counter update is a guarded read-modify-write: a blind Set
// would let two concurrent sends both commit the same counter value
// and lose an increment.
func (r *firestoreConversationRepository) AppendMessage(ctx context.Context, conversation *entity.Conversation, message *entity.Message) error {
	convRef := r.conversationRef(conversation.ID)
	msgRef := convRef.Collection("messages").Doc(message.ID)

	// base stays untouched so transaction retries always start from
	// the caller's resolved state, not a half-applied one.
	base := *conversation
	var committed entity.Conversation

	err := r.client.RunTransaction(ctx, func(_ context.Context, tx *firestore.Transaction) error {
		now := time.Now()
		committed = base

		doc, err := tx.Get(convRef)
		switch {
		case err == nil:
			var stored entity.Conversation
			if err := doc.DataTo(&stored); err != nil {
				return err
			}
			stored.ID = doc.Ref.ID
			committed = stored
		case status.Code(err) == codes.NotFound:
			committed.CreatedAt = now
		default:
			return err
		}

		committed.RecordMessage(message.SenderID, message.Message, message.CreatedAt)
		committed.UpdatedAt = now

		if err := tx.Set(convRef, &committed); err != nil {
			return err
		}
		return tx.Set(msgRef, message)
	})
	if err != nil {
		return errors.Internal("Failed to persist message", err)
	}

	*conversation = committed
	return nil
}

func (r *firestoreConversationRepository) ListActiveByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	// A participant is either the seller or the buyer; Firestore has no
	// OR queries across fields, so run both and merge.
	queries := []firestore.Query{
		r.client.Collection("conversations").Where("sellerId", "==", userID).Where("isActive", "==", true),
		r.client.Collection("conversations").Where("buyerId", "==", userID).Where("isActive", "==", true),
	}

	seen := make(map[string]bool)
	var conversations []*entity.Conversation
	for _, query := range queries {
		docs, err := query.Documents(ctx).GetAll()
		if err != nil {
			logger.Error("Firestore error while fetching conversations for user %s: %v", userID, err)
			return nil, 0, errors.Internal("Failed to fetch conversations", err)
		}

		for _, doc := range docs {
			if seen[doc.Ref.ID] {
				continue
			}
			seen[doc.Ref.ID] = true

			var conversation entity.Conversation
			if err := doc.DataTo(&conversation); err != nil {
				logger.Warn("Skipping malformed conversation %s: %v", doc.Ref.ID, err)
				continue
			}
			conversation.ID = doc.Ref.ID
			conversations = append(conversations, &conversation)
		}
	}

	sort.Slice(conversations, func(i, j int) bool {
		return conversations[i].LastMessageAt.After(conversations[j].LastMessageAt)
	})

	total := int64(len(conversations))

	// Paginate in memory; the merged result is already fully loaded.
	start := offset
	if start > len(conversations) {
		start = len(conversations)
	}
	end := len(conversations)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	return conversations[start:end], total, nil
}

func (r *firestoreConversationRepository) LatestActiveByBookSeller(ctx context.Context, bookID, sellerID string) (*entity.Conversation, error) {
	query := r.client.Collection("conversations").
		Where("bookId", "==", bookID).
		Where("sellerId", "==", sellerID).
		Where("isActive", "==", true).
		OrderBy("lastMessageAt", firestore.Desc).
		Limit(1)

	doc, err := query.Documents(ctx).Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Conversation", nil)
		}
		return nil, errors.Internal("Failed to query conversation by book and seller", err)
	}

	var conversation entity.Conversation
	if err := doc.DataTo(&conversation); err != nil {
		return nil, errors.Internal("Failed to parse conversation data", err)
	}
	conversation.ID = doc.Ref.ID

	return &conversation, nil
}

func (r *firestoreConversationRepository) GetMessages(ctx context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	query := r.conversationRef(conversationID).Collection("messages").OrderBy("createdAt", firestore.Desc)

	countDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while counting messages for conversation %s: %v", conversationID, err)
		return nil, 0, errors.Internal("Failed to count messages", err)
	}
	total := int64(len(countDocs))

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	iter := query.Documents(ctx)
	var messages []*entity.Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			logger.Error("Firestore error while iterating messages for conversation %s: %v", conversationID, err)
			return nil, 0, errors.Internal("Failed to iterate messages", err)
		}

		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Warn("Skipping malformed message %s in conversation %s: %v", doc.Ref.ID, conversationID, err)
			continue
		}
		messages = append(messages, &message)
	}

	return messages, total, nil
}

func (r *firestoreConversationRepository) MarkMessagesRead(ctx context.Context, conversationID, excludeSenderID string) (int, error) {
	query := r.conversationRef(conversationID).Collection("messages").Where("isRead", "==", false)

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return 0, errors.Internal("Failed to query unread messages", err)
	}

	updated := 0
	for _, doc := range docs {
		var message entity.Message
		if err := doc.DataTo(&message); err != nil {
			logger.Warn("Skipping malformed message %s in conversation %s: %v", doc.Ref.ID, conversationID, err)
			continue
		}
		if message.SenderID == excludeSenderID {
			continue
		}

		if _, err := doc.Ref.Update(ctx, []firestore.Update{{Path: "isRead", Value: true}}); err != nil {
			return updated, errors.Internal("Failed to mark message as read", err)
		}
		updated++
	}

	return updated, nil
}
