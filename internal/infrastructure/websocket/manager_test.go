package websocket

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(id, userID string) *Client {
	return &Client{
		ID:     id,
		UserID: userID,
		Send:   make(chan []byte, 16),
	}
}

func drainOne(t *testing.T, c *Client) Event {
	t.Helper()
	select {
	case raw := <-c.Send:
		var ev Event
		require.NoError(t, json.Unmarshal(raw, &ev))
		return ev
	default:
		t.Fatalf("client %s received nothing", c.ID)
		return Event{}
	}
}

func assertEmpty(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("client %s unexpectedly received %s", c.ID, raw)
	default:
	}
}

func TestSendToUserReachesAllConnections(t *testing.T) {
	m := NewManager()

	phone := newTestClient("conn-1", "u1")
	laptop := newTestClient("conn-2", "u1")
	other := newTestClient("conn-3", "u2")
	m.Add(phone)
	m.Add(laptop)
	m.Add(other)

	m.SendToUser("u1", EventNotify, map[string]string{"hello": "there"})

	ev := drainOne(t, phone)
	assert.Equal(t, EventNotify, ev.Type)
	drainOne(t, laptop)
	assertEmpty(t, other)
}

func TestConversationBroadcastAndExcept(t *testing.T) {
	m := NewManager()

	seller := newTestClient("conn-1", "seller-1")
	buyer := newTestClient("conn-2", "buyer-1")
	outsider := newTestClient("conn-3", "u3")
	m.Add(seller)
	m.Add(buyer)
	m.Add(outsider)

	m.JoinConversation(seller.ID, "b1|buyer-1:seller-1")
	m.JoinConversation(buyer.ID, "b1|buyer-1:seller-1")

	m.BroadcastToConversation("b1|buyer-1:seller-1", EventChatMessage, map[string]string{"message": "halo"})
	drainOne(t, seller)
	drainOne(t, buyer)
	assertEmpty(t, outsider)

	// Typing relays never echo back to the typist.
	m.BroadcastToConversationExcept("b1|buyer-1:seller-1", "buyer-1", EventChatTyping, nil)
	ev := drainOne(t, seller)
	assert.Equal(t, EventChatTyping, ev.Type)
	assertEmpty(t, buyer)
}

func TestRemoveLeavesEveryChannel(t *testing.T) {
	m := NewManager()

	client := newTestClient("conn-1", "u1")
	m.Add(client)
	m.JoinConversation(client.ID, "b1|u1:u2")
	require.Equal(t, 1, m.ClientCount())

	m.Remove(client.ID)
	assert.Equal(t, 0, m.ClientCount())

	// The send channel is closed exactly once.
	_, open := <-client.Send
	assert.False(t, open)

	// Publishing to abandoned channels is a no-op.
	m.BroadcastToConversation("b1|u1:u2", EventChatMessage, nil)
	m.SendToUser("u1", EventNotify, nil)

	// Removing twice is safe.
	m.Remove(client.ID)
}

func TestJoinUnknownClientIgnored(t *testing.T) {
	m := NewManager()

	m.JoinConversation("ghost", "b1|u1:u2")
	m.BroadcastToConversation("b1|u1:u2", EventChatMessage, nil)
	m.SendToClient("ghost", EventPong, nil)
}

func TestLeaveConversationStopsDelivery(t *testing.T) {
	m := NewManager()

	client := newTestClient("conn-1", "u1")
	m.Add(client)
	m.JoinConversation(client.ID, "b1|u1:u2")
	m.LeaveConversation(client.ID, "b1|u1:u2")

	m.BroadcastToConversation("b1|u1:u2", EventChatMessage, nil)
	assertEmpty(t, client)
}
