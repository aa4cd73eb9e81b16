package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"bookmarket/internal/domain/entity"
	"bookmarket/internal/domain/repository"
	"bookmarket/pkg/errors"
)

type firestoreBookRepository struct {
	client *firestore.Client
}

func NewFirestoreBookRepository(client *firestore.Client) repository.BookRepository {
	return &firestoreBookRepository{
		client: client,
	}
}

func (r *firestoreBookRepository) GetByID(ctx context.Context, id string) (*entity.Book, error) {
	doc, err := r.client.Collection("books").Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, errors.NotFound("Book", err)
		}
		return nil, errors.Internal("Failed to get book", err)
	}

	var book entity.Book
	if err := doc.DataTo(&book); err != nil {
		return nil, errors.Internal("Failed to parse book data", err)
	}
	book.ID = doc.Ref.ID

	return &book, nil
}
