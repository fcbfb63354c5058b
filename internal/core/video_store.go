package core

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/samber/lo"

	"chat-relay/internal/domain"
)

// SessionRemoval reports one participant removed from a video session by a
// connection purge.
type SessionRemoval struct {
	SessionID   domain.SessionID
	Participant domain.Participant
}

// VideoSessionStore is a threadsafe in-memory registry of video-chat
// sessions. Membership is a set keyed by peer id; sessions carry no
// human-readable name and no display order.
//
// Same emptiness invariant as RoomStore: empty sessions are deleted eagerly.
type VideoSessionStore struct {
	mu       sync.RWMutex
	sessions map[domain.SessionID]map[domain.PeerID]domain.Participant
}

func NewVideoSessionStore() *VideoSessionStore {
	return &VideoSessionStore{sessions: make(map[domain.SessionID]map[domain.PeerID]domain.Participant)}
}

// Join adds the participant to the session, creating it on demand.
// Returns false when a member with the same peer id is already present.
func (s *VideoSessionStore) Join(id domain.SessionID, p domain.Participant) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.sessions[id]
	if !ok {
		members = make(map[domain.PeerID]domain.Participant)
		s.sessions[id] = members
	}
	if _, exists := members[p.PeerID]; exists {
		return false
	}
	members[p.PeerID] = p
	log.Info().Str("module", "core.video").Str("session", string(id)).Str("peer", string(p.PeerID)).Int("members", len(members)).Msg("participant joined video session")
	return true
}

// Leave removes the session member bound to the connection and deletes the
// session if it becomes empty. Returns the removed participant, if any.
func (s *VideoSessionStore) Leave(id domain.SessionID, cid domain.ConnectionID) (domain.Participant, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members, ok := s.sessions[id]
	if !ok {
		return domain.Participant{}, false
	}
	for peerID, p := range members {
		if p.ConnectionID != cid {
			continue
		}
		delete(members, peerID)
		if len(members) == 0 {
			delete(s.sessions, id)
			log.Info().Str("module", "core.video").Str("session", string(id)).Msg("video session deleted, no participants left")
		}
		return p, true
	}
	return domain.Participant{}, false
}

func (s *VideoSessionStore) Get(id domain.SessionID) (domain.VideoSession, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	members, ok := s.sessions[id]
	if !ok {
		return domain.VideoSession{}, false
	}
	return domain.VideoSession{ID: id, Participants: lo.Values(members)}, true
}

// Participants returns the session members in unspecified order.
func (s *VideoSessionStore) Participants(id domain.SessionID) []domain.Participant {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return lo.Values(s.sessions[id])
}

// PurgeConnection sweeps every session for members bound to the connection,
// deleting sessions that become empty. Returns the removals for notification.
func (s *VideoSessionStore) PurgeConnection(cid domain.ConnectionID) []SessionRemoval {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []SessionRemoval
	for id, members := range s.sessions {
		for peerID, p := range members {
			if p.ConnectionID != cid {
				continue
			}
			delete(members, peerID)
			removed = append(removed, SessionRemoval{SessionID: id, Participant: p})
		}
		if len(members) == 0 {
			delete(s.sessions, id)
			log.Info().Str("module", "core.video").Str("session", string(id)).Msg("video session deleted on disconnect")
		}
	}
	return removed
}
