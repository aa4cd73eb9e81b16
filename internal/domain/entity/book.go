package entity

import "time"

// Book is a marketplace listing. The messaging core only reads books:
// the owner lookup fixes seller/buyer roles when a conversation is
// created, and conversation listings are enriched with a summary.
type Book struct {
	ID        string    `json:"id" firestore:"id"`
	Title     string    `json:"title" firestore:"title"`
	Author    string    `json:"author" firestore:"author"`
	Genre     string    `json:"genre,omitempty" firestore:"genre,omitempty"`
	Condition string    `json:"condition,omitempty" firestore:"condition,omitempty"`
	Subject   string    `json:"subject,omitempty" firestore:"subject,omitempty"`
	Price     float64   `json:"price" firestore:"price"`
	Image     string    `json:"image,omitempty" firestore:"image,omitempty"`
	Address   string    `json:"address,omitempty" firestore:"address,omitempty"`
	OwnerID   string    `json:"owner_id" firestore:"ownerId"`
	CreatedAt time.Time `json:"created_at" firestore:"createdAt"`
	UpdatedAt time.Time `json:"updated_at" firestore:"updatedAt"`
}

// BookSummary is the minimal listing view attached to conversation
// responses.
type BookSummary struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Author string  `json:"author"`
	Image  string  `json:"image,omitempty"`
	Price  float64 `json:"price"`
}

// Summary projects a book into the minimal view used by conversation
// listings.
func (b *Book) Summary() *BookSummary {
	return &BookSummary{
		ID:     b.ID,
		Title:  b.Title,
		Author: b.Author,
		Image:  b.Image,
		Price:  b.Price,
	}
}
