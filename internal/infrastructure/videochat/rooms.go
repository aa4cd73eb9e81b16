package videochat

import (
	"encoding/json"
	"sync"

	"bookmarket/pkg/logger"
)

// Events emitted to room members.
const (
	EventRoomCreated  = "room-created"
	EventRoomJoined   = "room-joined"
	EventRoomNotFound = "room-not-found"
	EventUserJoined   = "user-joined"
	EventUserLeft     = "user-left"
	EventRoomMessage  = "message"
	EventRoomOffer    = "offer"
	EventRoomAnswer   = "answer"
	EventRoomICE      = "ice-candidate"
)

// RoomUser is a member of a named chat room.
type RoomUser struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Room is a named multi-user chat room with optional room-scoped
// WebRTC signaling.
type Room struct {
	ID           string     `json:"id"`
	Users        []RoomUser `json:"users"`
	FavoriteBook string     `json:"favorite_book,omitempty"`
}

// Rooms owns the registry of named chat rooms. Rooms are created on
// demand and deleted when the last member leaves.
type Rooms struct {
	mu      sync.Mutex
	rooms   map[string]*Room
	emitter Emitter
}

func NewRooms(emitter Emitter) *Rooms {
	return &Rooms{
		rooms:   make(map[string]*Room),
		emitter: emitter,
	}
}

// Create registers a room with the caller as its first member.
func (r *Rooms) Create(roomID, connID, userName, favoriteBook string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room := &Room{
		ID:           roomID,
		Users:        []RoomUser{{ID: connID, Name: userName}},
		FavoriteBook: favoriteBook,
	}
	r.rooms[roomID] = room

	logger.Info("videochat: room %s created by %s", roomID, userName)

	r.emitter.Emit(connID, EventRoomCreated, map[string]string{"roomId": roomID})
	r.emitter.Emit(connID, EventRoomJoined, map[string]interface{}{"users": room.Users})
}

// Join adds the caller to an existing room; unknown rooms answer with
// room-not-found.
func (r *Rooms) Join(roomID, connID, userName string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		r.emitter.Emit(connID, EventRoomNotFound, nil)
		return
	}

	user := RoomUser{ID: connID, Name: userName}
	room.Users = append(room.Users, user)

	r.emitter.Emit(connID, EventRoomJoined, map[string]interface{}{"users": room.Users})
	for _, member := range room.Users {
		if member.ID != connID {
			r.emitter.Emit(member.ID, EventUserJoined, user)
		}
	}
}

// Message relays a chat message to every other member of the room.
func (r *Rooms) Message(roomID, fromID, userName, text string, isEmoji bool) {
	r.relay(roomID, fromID, EventRoomMessage, map[string]interface{}{
		"user":    userName,
		"text":    text,
		"isEmoji": isEmoji,
	})
}

// RelaySignal forwards a room-scoped WebRTC signaling payload (offer,
// answer or ICE candidate) to the other members.
func (r *Rooms) RelaySignal(roomID, fromID, eventType string, payload json.RawMessage) {
	r.relay(roomID, fromID, eventType, payload)
}

// Leave removes a connection from whatever room holds it, notifying
// the remaining members and deleting the room once it empties.
func (r *Rooms) Leave(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for roomID, room := range r.rooms {
		for i, member := range room.Users {
			if member.ID != connID {
				continue
			}

			room.Users = append(room.Users[:i], room.Users[i+1:]...)
			for _, remaining := range room.Users {
				r.emitter.Emit(remaining.ID, EventUserLeft, map[string]string{"id": connID})
			}
			if len(room.Users) == 0 {
				delete(r.rooms, roomID)
				logger.Info("videochat: room %s emptied and removed", roomID)
			}
			break
		}
	}
}

// Count reports the number of live rooms.
func (r *Rooms) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rooms)
}

func (r *Rooms) relay(roomID, fromID, eventType string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return
	}

	for _, member := range room.Users {
		if member.ID != fromID {
			r.emitter.Emit(member.ID, eventType, payload)
		}
	}
}
