package usecase

import (
	"context"

	"bookmarket/internal/domain/entity"
	"bookmarket/internal/domain/repository"
	"bookmarket/pkg/errors"
	"bookmarket/pkg/logger"
)

type WishlistUseCase struct {
	wishlistRepo repository.WishlistRepository
	bookRepo     repository.BookRepository
}

func NewWishlistUseCase(wishlistRepo repository.WishlistRepository, bookRepo repository.BookRepository) *WishlistUseCase {
	return &WishlistUseCase{
		wishlistRepo: wishlistRepo,
		bookRepo:     bookRepo,
	}
}

type WishlistResponse struct {
	ID        string              `json:"id"`
	UserID    string              `json:"user_id"`
	BookID    string              `json:"book_id"`
	Book      *entity.BookSummary `json:"book,omitempty"`
	CreatedAt string              `json:"created_at"`
}

func (uc *WishlistUseCase) Add(ctx context.Context, userID, bookID string) (*WishlistResponse, error) {
	book, err := uc.bookRepo.GetByID(ctx, bookID)
	if err != nil {
		return nil, errors.NotFound("Book", err)
	}

	if book.OwnerID == userID {
		return nil, errors.BadRequest("Cannot add your own listing to wishlist", nil)
	}

	if _, err := uc.wishlistRepo.GetByUserAndBook(ctx, userID, bookID); err == nil {
		return nil, errors.Conflict("Book is already in wishlist")
	} else if !errors.Is(err, "NOT_FOUND") {
		return nil, err
	}

	item, err := uc.wishlistRepo.Add(ctx, userID, bookID)
	if err != nil {
		return nil, err
	}

	return &WishlistResponse{
		ID:        item.ID,
		UserID:    item.UserID,
		BookID:    item.BookID,
		Book:      book.Summary(),
		CreatedAt: item.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}, nil
}

func (uc *WishlistUseCase) Remove(ctx context.Context, userID, bookID string) error {
	return uc.wishlistRepo.Remove(ctx, userID, bookID)
}

func (uc *WishlistUseCase) List(ctx context.Context, userID string, page, pageSize int) ([]WishlistResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	items, total, err := uc.wishlistRepo.ListByUser(ctx, userID, pageSize, offset)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]WishlistResponse, 0, len(items))
	for _, item := range items {
		resp := WishlistResponse{
			ID:        item.ID,
			UserID:    item.UserID,
			BookID:    item.BookID,
			CreatedAt: item.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		}

		book, err := uc.bookRepo.GetByID(ctx, item.BookID)
		if err == nil {
			resp.Book = book.Summary()
		} else {
			logger.Warn("Wishlist: book %s no longer resolves for item %s: %v", item.BookID, item.ID, err)
		}

		responses = append(responses, resp)
	}

	return responses, total, nil
}

func (uc *WishlistUseCase) Contains(ctx context.Context, userID, bookID string) (bool, error) {
	_, err := uc.wishlistRepo.GetByUserAndBook(ctx, userID, bookID)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, "NOT_FOUND") {
		return false, nil
	}
	return false, err
}
