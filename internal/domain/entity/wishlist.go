package entity

import "time"

type WishlistItem struct {
	ID        string    `json:"id" firestore:"id"`
	UserID    string    `json:"user_id" firestore:"userId"`
	BookID    string    `json:"book_id" firestore:"bookId"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
}
