package entity

import (
	"fmt"
	"strings"
	"time"
)

// UnreadCount tracks per-role counters of messages not yet acknowledged
// as read by that role's user.
type UnreadCount struct {
	Seller int `json:"seller" firestore:"seller"`
	Buyer  int `json:"buyer" firestore:"buyer"`
}

// Conversation is a two-party message thread scoped to a single book
// listing. Its document id is the deterministic composite key produced
// by BuildConversationID, so the same pair of users talking about the
// same book always lands in the same conversation regardless of who
// sent first.
type Conversation struct {
	ID            string      `json:"conversation_id" firestore:"conversationId"`
	BookID        string      `json:"book_id" firestore:"bookId"`
	SellerID      string      `json:"seller_id" firestore:"sellerId"`
	BuyerID       string      `json:"buyer_id" firestore:"buyerId"`
	SellerName    string      `json:"seller_name" firestore:"sellerName"`
	BuyerName     string      `json:"buyer_name" firestore:"buyerName"`
	LastMessage   string      `json:"last_message,omitempty" firestore:"lastMessage,omitempty"`
	LastMessageAt time.Time   `json:"last_message_at" firestore:"lastMessageAt"`
	IsActive      bool        `json:"is_active" firestore:"isActive"`
	UnreadCount   UnreadCount `json:"unread_count" firestore:"unreadCount"`
	CreatedAt     time.Time   `json:"created_at" firestore:"createdAt"`
	UpdatedAt     time.Time   `json:"updated_at" firestore:"updatedAt"`
}

// BuildConversationID derives the conversation identifier
// "bookId|idA:idB" with the two participant ids in lexicographic
// order, so the id is independent of who initiated the conversation.
func BuildConversationID(bookID, userA, userB string) string {
	if userB < userA {
		userA, userB = userB, userA
	}
	return fmt.Sprintf("%s|%s:%s", bookID, userA, userB)
}

// ParseConversationID splits a raw conversation id into its book id
// and the two participant ids. The wire format is "bookId|idA:idB".
func ParseConversationID(raw string) (bookID, partA, partB string, err error) {
	bookID, rest, ok := strings.Cut(raw, "|")
	if !ok || bookID == "" {
		return "", "", "", fmt.Errorf("malformed conversation id %q: missing book separator", raw)
	}

	partA, partB, ok = strings.Cut(rest, ":")
	if !ok || partA == "" || partB == "" {
		return "", "", "", fmt.Errorf("malformed conversation id %q: expected two participant ids", raw)
	}
	if strings.Contains(partB, ":") {
		return "", "", "", fmt.Errorf("malformed conversation id %q: expected two participant ids", raw)
	}

	return bookID, partA, partB, nil
}

// RecordMessage applies a just-sent message to the conversation
// aggregates: the preview, the activity timestamp and the unread
// counter of the role opposite the sender. Callers must apply it to
// the authoritative stored state, never to a stale snapshot.
func (c *Conversation) RecordMessage(senderID, preview string, at time.Time) {
	c.LastMessage = preview
	c.LastMessageAt = at
	if senderID == c.SellerID {
		c.UnreadCount.Buyer++
	} else {
		c.UnreadCount.Seller++
	}
}

// OtherParticipant returns the counterpart of the given user in this
// conversation, or an empty string if the user is not a participant.
func (c *Conversation) OtherParticipant(userID string) string {
	switch userID {
	case c.SellerID:
		return c.BuyerID
	case c.BuyerID:
		return c.SellerID
	}
	return ""
}
