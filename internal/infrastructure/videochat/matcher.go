package videochat

import (
	"encoding/json"
	"sync"

	"bookmarket/pkg/logger"
)

// Events emitted to video-chat participants.
const (
	EventPeerJoined           = "peer-joined"
	EventPeerReady            = "peer-ready"
	EventWaitingForPeer       = "waiting-for-peer"
	EventOfferReceived        = "offer-received"
	EventAnswerReceived       = "answer-received"
	EventICECandidateReceived = "ice-candidate-received"
	EventChatMessage          = "chat-message"
	EventPeerDisconnected     = "peer-disconnected"
)

// Emitter delivers an event to a single connection. Implementations
// must not block; the matcher calls them while holding its lock.
type Emitter interface {
	Emit(connID, eventType string, payload interface{})
}

// Participant is the ephemeral state of one video-chat user. PartnerID
// is empty while unpaired; pairing is always symmetric.
type Participant struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	PartnerID   string `json:"partner_id,omitempty"`
	InVideoChat bool   `json:"in_video_chat"`
}

// PeerInfo is the payload sent with peer-joined and peer-ready events.
type PeerInfo struct {
	PeerID   string `json:"peerId"`
	PeerName string `json:"peerName"`
}

// Matcher pairs video-chat participants one-on-one and relays
// signaling payloads between paired peers. All state is process-local;
// one mutex makes the scan-and-assign step atomic so two concurrent
// registrations can never claim the same peer.
type Matcher struct {
	mu           sync.Mutex
	participants map[string]*Participant
	waiting      []string // FIFO of unpaired participant ids
	emitter      Emitter
}

func NewMatcher(emitter Emitter) *Matcher {
	return &Matcher{
		participants: make(map[string]*Participant),
		emitter:      emitter,
	}
}

// Register adds a participant and immediately attempts to pair it.
func (m *Matcher) Register(id, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.participants[id] = &Participant{
		ID:          id,
		Name:        name,
		InVideoChat: true,
	}

	logger.Info("videochat: %s registered (%s)", name, id)
	m.matchLocked(id)
}

// FindNewPartner clears the participant's current pairing and re-runs
// matching. The stale partner is not notified here: either it already
// cleared its own side on disconnect, or this is a voluntary skip.
func (m *Matcher) FindNewPartner(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.participants[id]
	if !ok {
		return
	}
	p.PartnerID = ""
	m.removeWaitingLocked(id)

	m.matchLocked(id)
}

// Disconnect removes a participant. A paired partner has its
// PartnerID cleared and receives exactly one peer-disconnected event;
// it is not re-queued automatically.
func (m *Matcher) Disconnect(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.participants[id]
	if !ok {
		return
	}

	if p.PartnerID != "" {
		if partner, ok := m.participants[p.PartnerID]; ok {
			partner.PartnerID = ""
			logger.Info("videochat: notifying %s that partner %s disconnected", partner.Name, p.Name)
			m.emitter.Emit(partner.ID, EventPeerDisconnected, nil)
		}
	}

	delete(m.participants, id)
	m.removeWaitingLocked(id)
}

// RelayOffer forwards a WebRTC offer to the sender's partner. Unknown
// or unpaired senders are dropped silently: signaling racing a
// disconnect is expected.
func (m *Matcher) RelayOffer(fromID string, offer json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.participants[fromID]
	if !ok || p.PartnerID == "" || !p.InVideoChat {
		return
	}

	m.emitter.Emit(p.PartnerID, EventOfferReceived, map[string]interface{}{
		"offer": offer,
		"from":  fromID,
	})
}

// RelayAnswer forwards a WebRTC answer to the peer that sent the
// offer. The target comes from the payload because the answerer knows
// its offerer from the offer-received event.
func (m *Matcher) RelayAnswer(fromID, to string, answer json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.participants[fromID]
	if !ok || !p.InVideoChat || to == "" {
		return
	}

	m.emitter.Emit(to, EventAnswerReceived, map[string]interface{}{
		"answer": answer,
	})
}

// RelayICECandidate forwards an ICE candidate to the sender's partner.
func (m *Matcher) RelayICECandidate(fromID string, candidate json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.participants[fromID]
	if !ok || p.PartnerID == "" || !p.InVideoChat {
		return
	}

	m.emitter.Emit(p.PartnerID, EventICECandidateReceived, map[string]interface{}{
		"candidate": candidate,
	})
}

// RelayChatMessage forwards an in-call chat payload verbatim to the
// sender's partner.
func (m *Matcher) RelayChatMessage(fromID string, payload json.RawMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.participants[fromID]
	if !ok || p.PartnerID == "" || !p.InVideoChat {
		return
	}

	m.emitter.Emit(p.PartnerID, EventChatMessage, payload)
}

// Partner reports the current partner id of a participant, empty when
// unpaired or unknown.
func (m *Matcher) Partner(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p, ok := m.participants[id]; ok {
		return p.PartnerID
	}
	return ""
}

// Counts reports the number of registered participants and how many
// are waiting for a partner.
func (m *Matcher) Counts() (participants, waiting int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.participants), len(m.waiting)
}

// matchLocked pairs the requester with the first waiting participant,
// FIFO. The requester becomes the offer initiator (peer-joined), the
// matched peer the answerer (peer-ready). Requires m.mu held.
func (m *Matcher) matchLocked(id string) {
	requester, ok := m.participants[id]
	if !ok {
		return
	}

	for len(m.waiting) > 0 {
		candidateID := m.waiting[0]
		m.waiting = m.waiting[1:]

		candidate, ok := m.participants[candidateID]
		if !ok || candidateID == id || candidate.PartnerID != "" || !candidate.InVideoChat {
			continue
		}

		requester.PartnerID = candidate.ID
		candidate.PartnerID = requester.ID

		logger.Info("videochat: matched %s with %s", requester.Name, candidate.Name)

		m.emitter.Emit(requester.ID, EventPeerJoined, PeerInfo{
			PeerID:   candidate.ID,
			PeerName: candidate.Name,
		})
		m.emitter.Emit(candidate.ID, EventPeerReady, PeerInfo{
			PeerID:   requester.ID,
			PeerName: requester.Name,
		})
		return
	}

	logger.Info("videochat: %s is waiting for a partner", requester.Name)
	m.waiting = append(m.waiting, id)
	m.emitter.Emit(id, EventWaitingForPeer, nil)
}

func (m *Matcher) removeWaitingLocked(id string) {
	for i, waitingID := range m.waiting {
		if waitingID == id {
			m.waiting = append(m.waiting[:i], m.waiting[i+1:]...)
			return
		}
	}
}
