package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"

	"bookmarket/internal/domain/entity"
	"bookmarket/internal/domain/repository"
	"bookmarket/pkg/errors"
	"bookmarket/pkg/logger"
)

type firestoreWishlistRepository struct {
	client *firestore.Client
}

func NewFirestoreWishlistRepository(client *firestore.Client) repository.WishlistRepository {
	return &firestoreWishlistRepository{
		client: client,
	}
}

func (r *firestoreWishlistRepository) Add(ctx context.Context, userID, bookID string) (*entity.WishlistItem, error) {
	item := &entity.WishlistItem{
		ID:        uuid.New().String(),
		UserID:    userID,
		BookID:    bookID,
		CreatedAt: time.Now(),
	}

	_, err := r.client.Collection("wishlists").Doc(item.ID).Set(ctx, item)
	if err != nil {
		return nil, errors.Internal("Failed to add wishlist item", err)
	}

	return item, nil
}

func (r *firestoreWishlistRepository) Remove(ctx context.Context, userID, bookID string) error {
	docs, err := r.client.Collection("wishlists").
		Where("userId", "==", userID).
		Where("bookId", "==", bookID).
		Documents(ctx).GetAll()
	if err != nil {
		return errors.Internal("Failed to query wishlist item", err)
	}

	for _, doc := range docs {
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return errors.Internal("Failed to remove wishlist item", err)
		}
	}

	return nil
}

func (r *firestoreWishlistRepository) GetByUserAndBook(ctx context.Context, userID, bookID string) (*entity.WishlistItem, error) {
	query := r.client.Collection("wishlists").
		Where("userId", "==", userID).
		Where("bookId", "==", bookID).
		Limit(1)

	doc, err := query.Documents(ctx).Next()
	if err != nil {
		if err == iterator.Done {
			return nil, errors.NotFound("Wishlist item", nil)
		}
		return nil, errors.Internal("Failed to query wishlist item", err)
	}

	var item entity.WishlistItem
	if err := doc.DataTo(&item); err != nil {
		return nil, errors.Internal("Failed to parse wishlist data", err)
	}
	item.ID = doc.Ref.ID

	return &item, nil
}

func (r *firestoreWishlistRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.WishlistItem, int64, error) {
	query := r.client.Collection("wishlists").
		Where("userId", "==", userID).
		OrderBy("createdAt", firestore.Desc)

	allDocs, err := query.Documents(ctx).GetAll()
	if err != nil {
		logger.Error("Firestore error while fetching wishlist for user %s: %v", userID, err)
		return nil, 0, errors.Internal("Failed to fetch wishlist", err)
	}

	total := int64(len(allDocs))

	start := offset
	if start > len(allDocs) {
		start = len(allDocs)
	}
	end := len(allDocs)
	if limit > 0 && start+limit < end {
		end = start + limit
	}

	var items []*entity.WishlistItem
	for _, doc := range allDocs[start:end] {
		var item entity.WishlistItem
		if err := doc.DataTo(&item); err != nil {
			logger.Warn("Skipping malformed wishlist item %s: %v", doc.Ref.ID, err)
			continue
		}
		item.ID = doc.Ref.ID
		items = append(items, &item)
	}

	return items, total, nil
}
