package repository

import (
	"context"

	"bookmarket/internal/domain/entity"
)

type BookRepository interface {
	GetByID(ctx context.Context, id string) (*entity.Book, error)
}
