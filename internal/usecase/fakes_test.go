package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookmarket/internal/domain/entity"
	"bookmarket/pkg/errors"
)

// memConversationRepo is an in-memory ConversationRepository with
// write counting and failure injection for exercising the atomic
// send path.
type memConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]*entity.Conversation
	messages      map[string][]*entity.Message // newest last
	writes        int
	failAppend    bool
}

func newMemConversationRepo() *memConversationRepo {
	return &memConversationRepo{
		conversations: make(map[string]*entity.Conversation),
		messages:      make(map[string][]*entity.Message),
	}
}

func (r *memConversationRepo) GetByID(_ context.Context, id string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	copied := *conv
	return &copied, nil
}

func (r *memConversationRepo) Update(_ context.Context, conversation *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	copied := *conversation
	r.conversations[conversation.ID] = &copied
	r.writes++
	return nil
}

func (r *memConversationRepo) Deactivate(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	conv, ok := r.conversations[id]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	conv.IsActive = false
	r.writes++
	return nil
}

func (r *memConversationRepo) AppendMessage(_ context.Context, conversation *entity.Conversation, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.failAppend {
		return errors.Internal("Failed to persist message", nil)
	}

	// Aggregates are recomputed against the stored state under the
	// repository lock, matching the adapter's transaction.
	committed := *conversation
	if stored, ok := r.conversations[conversation.ID]; ok {
		committed = *stored
	} else {
		committed.CreatedAt = time.Now()
	}
	committed.RecordMessage(message.SenderID, message.Message, message.CreatedAt)
	committed.UpdatedAt = time.Now()

	r.conversations[committed.ID] = &committed

	msg := *message
	r.messages[committed.ID] = append(r.messages[committed.ID], &msg)
	r.writes += 2

	*conversation = committed
	return nil
}

func (r *memConversationRepo) ListActiveByUser(_ context.Context, userID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*entity.Conversation
	for _, conv := range r.conversations {
		if !conv.IsActive {
			continue
		}
		if conv.SellerID == userID || conv.BuyerID == userID {
			copied := *conv
			matched = append(matched, &copied)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		return matched[i].LastMessageAt.After(matched[j].LastMessageAt)
	})

	total := int64(len(matched))
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (r *memConversationRepo) LatestActiveByBookSeller(_ context.Context, bookID, sellerID string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var latest *entity.Conversation
	for _, conv := range r.conversations {
		if !conv.IsActive || conv.BookID != bookID || conv.SellerID != sellerID {
			continue
		}
		if latest == nil || conv.LastMessageAt.After(latest.LastMessageAt) {
			latest = conv
		}
	}
	if latest == nil {
		return nil, errors.NotFound("Conversation", nil)
	}
	copied := *latest
	return &copied, nil
}

func (r *memConversationRepo) GetMessages(_ context.Context, conversationID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := r.messages[conversationID]
	total := int64(len(stored))

	// Newest first, as the adapter delivers them.
	newestFirst := make([]*entity.Message, 0, len(stored))
	for i := len(stored) - 1; i >= 0; i-- {
		copied := *stored[i]
		newestFirst = append(newestFirst, &copied)
	}

	if offset > len(newestFirst) {
		offset = len(newestFirst)
	}
	newestFirst = newestFirst[offset:]
	if limit > 0 && limit < len(newestFirst) {
		newestFirst = newestFirst[:limit]
	}
	return newestFirst, total, nil
}

func (r *memConversationRepo) MarkMessagesRead(_ context.Context, conversationID, excludeSenderID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	updated := 0
	for _, msg := range r.messages[conversationID] {
		if msg.SenderID != excludeSenderID && !msg.IsRead {
			msg.IsRead = true
			updated++
		}
	}
	if updated > 0 {
		r.writes++
	}
	return updated, nil
}

func (r *memConversationRepo) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.writes
}

type memBookRepo struct {
	mu    sync.Mutex
	books map[string]*entity.Book
}

func newMemBookRepo(books ...*entity.Book) *memBookRepo {
	repo := &memBookRepo{books: make(map[string]*entity.Book)}
	for _, b := range books {
		repo.books[b.ID] = b
	}
	return repo
}

func (r *memBookRepo) GetByID(_ context.Context, id string) (*entity.Book, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	book, ok := r.books[id]
	if !ok {
		return nil, errors.NotFound("Book", nil)
	}
	copied := *book
	return &copied, nil
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newMemUserRepo(users ...*entity.User) *memUserRepo {
	repo := &memUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		repo.users[u.ID] = u
	}
	return repo
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*entity.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return nil, errors.NotFound("User", nil)
	}
	copied := *user
	return &copied, nil
}

type memWishlistRepo struct {
	mu    sync.Mutex
	items map[string]*entity.WishlistItem // userID|bookID
}

func newMemWishlistRepo() *memWishlistRepo {
	return &memWishlistRepo{items: make(map[string]*entity.WishlistItem)}
}

func (r *memWishlistRepo) Add(_ context.Context, userID, bookID string) (*entity.WishlistItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item := &entity.WishlistItem{
		ID:        uuid.New().String(),
		UserID:    userID,
		BookID:    bookID,
		CreatedAt: time.Now(),
	}
	r.items[userID+"|"+bookID] = item
	return item, nil
}

func (r *memWishlistRepo) Remove(_ context.Context, userID, bookID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.items, userID+"|"+bookID)
	return nil
}

func (r *memWishlistRepo) GetByUserAndBook(_ context.Context, userID, bookID string) (*entity.WishlistItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	item, ok := r.items[userID+"|"+bookID]
	if !ok {
		return nil, errors.NotFound("Wishlist item", nil)
	}
	copied := *item
	return &copied, nil
}

func (r *memWishlistRepo) ListByUser(_ context.Context, userID string, limit, offset int) ([]*entity.WishlistItem, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var matched []*entity.WishlistItem
	for _, item := range r.items {
		if item.UserID == userID {
			copied := *item
			matched = append(matched, &copied)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	total := int64(len(matched))
	if offset > len(matched) {
		offset = len(matched)
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

type fanoutEvent struct {
	Channel string // conversation id or "user:"+userID
	Type    string
	Payload interface{}
}

// recordingFanout captures published events; fanout runs on a
// goroutine, so reads go through snapshot().
type recordingFanout struct {
	mu     sync.Mutex
	events []fanoutEvent
}

func (f *recordingFanout) BroadcastToConversation(conversationID, eventType string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fanoutEvent{Channel: conversationID, Type: eventType, Payload: payload})
}

func (f *recordingFanout) SendToUser(userID, eventType string, payload interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fanoutEvent{Channel: "user:" + userID, Type: eventType, Payload: payload})
}

func (f *recordingFanout) snapshot() []fanoutEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]fanoutEvent, len(f.events))
	copy(out, f.events)
	return out
}
