package videochat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomCreateAndJoin(t *testing.T) {
	emitter := &recordingEmitter{}
	r := NewRooms(emitter)

	r.Create("room-1", "c1", "Alice", "Dune")

	created := emitter.byType(EventRoomCreated)
	require.Len(t, created, 1)
	assert.Equal(t, "c1", created[0].ConnID)

	emitter.reset()
	r.Join("room-1", "c2", "Bob")

	joined := emitter.byType(EventRoomJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "c2", joined[0].ConnID)

	userJoined := emitter.byType(EventUserJoined)
	require.Len(t, userJoined, 1)
	assert.Equal(t, "c1", userJoined[0].ConnID)

	assert.Equal(t, 1, r.Count())
}

func TestJoinUnknownRoom(t *testing.T) {
	emitter := &recordingEmitter{}
	r := NewRooms(emitter)

	r.Join("nope", "c1", "Alice")

	notFound := emitter.byType(EventRoomNotFound)
	require.Len(t, notFound, 1)
	assert.Equal(t, "c1", notFound[0].ConnID)
}

func TestRoomMessageSkipsSender(t *testing.T) {
	emitter := &recordingEmitter{}
	r := NewRooms(emitter)

	r.Create("room-1", "c1", "Alice", "")
	r.Join("room-1", "c2", "Bob")
	r.Join("room-1", "c3", "Carol")
	emitter.reset()

	r.Message("room-1", "c1", "Alice", "hello", false)

	msgs := emitter.byType(EventRoomMessage)
	require.Len(t, msgs, 2)
	for _, ev := range msgs {
		assert.NotEqual(t, "c1", ev.ConnID)
	}
}

func TestRoomSignalRelay(t *testing.T) {
	emitter := &recordingEmitter{}
	r := NewRooms(emitter)

	r.Create("room-1", "c1", "Alice", "")
	r.Join("room-1", "c2", "Bob")
	emitter.reset()

	r.RelaySignal("room-1", "c1", EventRoomOffer, json.RawMessage(`{"sdp":"v=0"}`))

	offers := emitter.byType(EventRoomOffer)
	require.Len(t, offers, 1)
	assert.Equal(t, "c2", offers[0].ConnID)

	// Signals to unknown rooms vanish quietly.
	emitter.reset()
	r.RelaySignal("nope", "c1", EventRoomOffer, nil)
	assert.Empty(t, emitter.events)
}

func TestLeaveRemovesUserAndEmptiesRoom(t *testing.T) {
	emitter := &recordingEmitter{}
	r := NewRooms(emitter)

	r.Create("room-1", "c1", "Alice", "")
	r.Join("room-1", "c2", "Bob")
	emitter.reset()

	r.Leave("c1")

	left := emitter.byType(EventUserLeft)
	require.Len(t, left, 1)
	assert.Equal(t, "c2", left[0].ConnID)
	assert.Equal(t, 1, r.Count())

	r.Leave("c2")
	assert.Equal(t, 0, r.Count())
}
