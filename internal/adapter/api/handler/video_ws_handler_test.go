package handler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookmarket/internal/infrastructure/videochat"
	ws "bookmarket/internal/infrastructure/websocket"
)

func TestVideoStatusReportsCounters(t *testing.T) {
	m := ws.NewManager()
	emitter := ManagerEmitter{Manager: m}
	h := NewVideoChatHandler(m, videochat.NewMatcher(emitter), videochat.NewRooms(emitter))

	alice := newChatTestClient(m, "conn-a", "")

	h.handleFrame(alice, []byte(`{"type":"register","name":"Alice"}`))
	require.Equal(t, videochat.EventWaitingForPeer, receiveEvent(t, alice).Type)

	h.handleFrame(alice, []byte(`{"type":"create-room","roomId":"room-1","userName":"Alice","favoriteBook":"Dune"}`))
	require.Equal(t, videochat.EventRoomCreated, receiveEvent(t, alice).Type)
	require.Equal(t, videochat.EventRoomJoined, receiveEvent(t, alice).Type)

	h.handleFrame(alice, []byte(`{"type":"get-status"}`))

	ev := receiveEvent(t, alice)
	require.Equal(t, "status", ev.Type)
	data, ok := ev.Data.(map[string]interface{})
	require.True(t, ok)
	assert.EqualValues(t, 1, data["participants"])
	assert.EqualValues(t, 1, data["waiting"])
	assert.EqualValues(t, 1, data["rooms"])
}
