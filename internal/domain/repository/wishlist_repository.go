package repository

import (
	"context"

	"bookmarket/internal/domain/entity"
)

type WishlistRepository interface {
	Add(ctx context.Context, userID, bookID string) (*entity.WishlistItem, error)
	Remove(ctx context.Context, userID, bookID string) error
	GetByUserAndBook(ctx context.Context, userID, bookID string) (*entity.WishlistItem, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*entity.WishlistItem, int64, error)
}
