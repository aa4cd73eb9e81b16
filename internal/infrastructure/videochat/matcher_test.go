package videochat

import (
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	ConnID  string
	Type    string
	Payload interface{}
}

type recordingEmitter struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (e *recordingEmitter) Emit(connID, eventType string, payload interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, recordedEvent{ConnID: connID, Type: eventType, Payload: payload})
}

func (e *recordingEmitter) byType(eventType string) []recordedEvent {
	e.mu.Lock()
	defer e.mu.Unlock()

	var out []recordedEvent
	for _, ev := range e.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

func (e *recordingEmitter) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = nil
}

func TestRegisterFirstParticipantWaits(t *testing.T) {
	emitter := &recordingEmitter{}
	m := NewMatcher(emitter)

	m.Register("c1", "Alice")

	waiting := emitter.byType(EventWaitingForPeer)
	require.Len(t, waiting, 1)
	assert.Equal(t, "c1", waiting[0].ConnID)

	participants, queued := m.Counts()
	assert.Equal(t, 1, participants)
	assert.Equal(t, 1, queued)
}

func TestRegisterTwoParticipantsPairsSymmetrically(t *testing.T) {
	emitter := &recordingEmitter{}
	m := NewMatcher(emitter)

	m.Register("c1", "Alice")
	m.Register("c2", "Bob")

	assert.Equal(t, "c1", m.Partner("c2"))
	assert.Equal(t, "c2", m.Partner("c1"))

	// The requester that completed the pair initiates the offer.
	joined := emitter.byType(EventPeerJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "c2", joined[0].ConnID)
	assert.Equal(t, PeerInfo{PeerID: "c1", PeerName: "Alice"}, joined[0].Payload)

	ready := emitter.byType(EventPeerReady)
	require.Len(t, ready, 1)
	assert.Equal(t, "c1", ready[0].ConnID)
	assert.Equal(t, PeerInfo{PeerID: "c2", PeerName: "Bob"}, ready[0].Payload)

	_, queued := m.Counts()
	assert.Equal(t, 0, queued)
}

func TestThirdParticipantWaitsWhilePairIsBusy(t *testing.T) {
	emitter := &recordingEmitter{}
	m := NewMatcher(emitter)

	m.Register("c1", "Alice")
	m.Register("c2", "Bob")
	m.Register("c3", "Carol")

	assert.Equal(t, "", m.Partner("c3"))

	waiting := emitter.byType(EventWaitingForPeer)
	require.Len(t, waiting, 2) // Alice initially, then Carol
	assert.Equal(t, "c3", waiting[1].ConnID)
}

func TestDisconnectNotifiesPartnerExactlyOnce(t *testing.T) {
	emitter := &recordingEmitter{}
	m := NewMatcher(emitter)

	m.Register("c1", "Alice")
	m.Register("c2", "Bob")
	emitter.reset()

	m.Disconnect("c1")

	gone := emitter.byType(EventPeerDisconnected)
	require.Len(t, gone, 1)
	assert.Equal(t, "c2", gone[0].ConnID)

	// Bob is unpaired but not auto-rematched.
	assert.Equal(t, "", m.Partner("c2"))
	participants, queued := m.Counts()
	assert.Equal(t, 1, participants)
	assert.Equal(t, 0, queued)
}

func TestFindNewPartnerAfterDisconnectRepairs(t *testing.T) {
	emitter := &recordingEmitter{}
	m := NewMatcher(emitter)

	m.Register("c1", "Alice")
	m.Register("c2", "Bob")
	m.Register("c3", "Carol") // waiting

	m.Disconnect("c1")
	emitter.reset()

	m.FindNewPartner("c2")

	assert.Equal(t, "c3", m.Partner("c2"))
	assert.Equal(t, "c2", m.Partner("c3"))

	joined := emitter.byType(EventPeerJoined)
	require.Len(t, joined, 1)
	assert.Equal(t, "c2", joined[0].ConnID)
}

func TestFindNewPartnerVoluntarySkipDoesNotNotifyStalePartner(t *testing.T) {
	emitter := &recordingEmitter{}
	m := NewMatcher(emitter)

	m.Register("c1", "Alice")
	m.Register("c2", "Bob")
	emitter.reset()

	m.FindNewPartner("c1")

	assert.Empty(t, emitter.byType(EventPeerDisconnected))
	assert.Equal(t, "", m.Partner("c1"))
	// Bob still believes he is paired until he acts himself.
	assert.Equal(t, "c1", m.Partner("c2"))
}

func TestRelayOfferReachesPartner(t *testing.T) {
	emitter := &recordingEmitter{}
	m := NewMatcher(emitter)

	m.Register("c1", "Alice")
	m.Register("c2", "Bob")
	emitter.reset()

	offer := json.RawMessage(`{"sdp":"v=0"}`)
	m.RelayOffer("c1", offer)

	received := emitter.byType(EventOfferReceived)
	require.Len(t, received, 1)
	assert.Equal(t, "c2", received[0].ConnID)

	payload, ok := received[0].Payload.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "c1", payload["from"])
}

func TestRelayFromUnpairedSenderIsSilentlyDropped(t *testing.T) {
	emitter := &recordingEmitter{}
	m := NewMatcher(emitter)

	m.Register("c1", "Alice")
	emitter.reset()

	m.RelayOffer("c1", json.RawMessage(`{}`))
	m.RelayICECandidate("c1", json.RawMessage(`{}`))
	m.RelayChatMessage("c1", json.RawMessage(`{}`))
	m.RelayOffer("ghost", json.RawMessage(`{}`))

	assert.Empty(t, emitter.events)
}

func TestRelayAnswerTargetsExplicitPeer(t *testing.T) {
	emitter := &recordingEmitter{}
	m := NewMatcher(emitter)

	m.Register("c1", "Alice")
	m.Register("c2", "Bob")
	emitter.reset()

	m.RelayAnswer("c1", "c2", json.RawMessage(`{"sdp":"answer"}`))

	received := emitter.byType(EventAnswerReceived)
	require.Len(t, received, 1)
	assert.Equal(t, "c2", received[0].ConnID)

	// Missing target is dropped.
	emitter.reset()
	m.RelayAnswer("c1", "", json.RawMessage(`{}`))
	assert.Empty(t, emitter.events)
}

func TestWaitingQueueIsFIFO(t *testing.T) {
	emitter := &recordingEmitter{}
	m := NewMatcher(emitter)

	m.Register("c1", "Alice")
	m.Register("c2", "Bob")
	m.Register("c3", "Carol")
	m.Register("c4", "Dave")

	// c3 waited first, so c4 pairs with c3.
	assert.Equal(t, "c3", m.Partner("c4"))
	assert.Equal(t, "c4", m.Partner("c3"))
}

func TestDisconnectUnknownParticipantIsNoop(t *testing.T) {
	emitter := &recordingEmitter{}
	m := NewMatcher(emitter)

	m.Disconnect("ghost")

	assert.Empty(t, emitter.events)
}
