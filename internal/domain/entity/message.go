package entity

import "time"

// Message types accepted on the send path.
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
	MessageTypeFile  = "file"
)

// Message is a single chat message inside a conversation. Messages are
// immutable after creation except for the IsRead flag, which flips on
// the read-acknowledgement path.
type Message struct {
	ID             string    `json:"id" firestore:"id"`
	ConversationID string    `json:"conversation_id" firestore:"conversationId"`
	SenderID       string    `json:"sender_id" firestore:"senderId"`
	SenderName     string    `json:"sender_name" firestore:"senderName"`
	RecipientID    string    `json:"recipient_id" firestore:"recipientId"`
	RecipientName  string    `json:"recipient_name,omitempty" firestore:"recipientName,omitempty"`
	Message        string    `json:"message" firestore:"message"`
	BookID         string    `json:"book_id,omitempty" firestore:"bookId,omitempty"`
	IsRead         bool      `json:"is_read" firestore:"isRead"`
	MessageType    string    `json:"message_type" firestore:"messageType"`
	CreatedAt      time.Time `json:"timestamp" firestore:"createdAt"`
}
