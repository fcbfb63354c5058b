package core

import (
	"sync"

	"github.com/rs/zerolog/log"

	"chat-relay/internal/domain"
)

// RoomInfo is a read-only view for APIs (no transport fields).
// Participants carries the count, matching the client contract.
type RoomInfo struct {
	ID           domain.RoomID `json:"id"`
	Name         string        `json:"name"`
	Participants int           `json:"participants"`
}

// RoomRemoval reports one participant removed by a connection purge so the
// caller can emit leave notifications.
type RoomRemoval struct {
	RoomID      domain.RoomID
	Participant domain.Participant
}

type roomState struct {
	name         string
	participants []domain.Participant
}

// RoomStore is a threadsafe in-memory registry of chat rooms.
// It owns the participant records; nobody else mutates them.
//
// Invariants: a room never holds two participants with the same peer id,
// and a room with zero participants is deleted eagerly.
type RoomStore struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*roomState
}

func NewRoomStore() *RoomStore {
	return &RoomStore{rooms: make(map[domain.RoomID]*roomState)}
}

// CreateOrJoin appends the participant to the room, creating the room if the
// id is unknown. Joining twice with the same peer id is a no-op. Never fails.
func (s *RoomStore) CreateOrJoin(id domain.RoomID, name string, p domain.Participant) domain.Room {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		if name == "" {
			name = string(id)
		}
		room = &roomState{name: name, participants: []domain.Participant{p}}
		s.rooms[id] = room
		log.Info().Str("module", "core.rooms").Str("room", string(id)).Str("peer", string(p.PeerID)).Msg("room created")
		return snapshotRoom(id, room)
	}
	for _, existing := range room.participants {
		if existing.PeerID == p.PeerID {
			return snapshotRoom(id, room)
		}
	}
	room.participants = append(room.participants, p)
	log.Info().Str("module", "core.rooms").Str("room", string(id)).Str("peer", string(p.PeerID)).Msg("participant joined")
	return snapshotRoom(id, room)
}

// Leave removes every participant of the room bound to the connection
// (normally at most one) and deletes the room if it becomes empty.
func (s *RoomStore) Leave(id domain.RoomID, cid domain.ConnectionID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[id]
	if !ok {
		return
	}
	room.participants = withoutConnection(room.participants, cid)
	if len(room.participants) == 0 {
		delete(s.rooms, id)
		log.Info().Str("module", "core.rooms").Str("room", string(id)).Msg("room deleted, no participants left")
	}
}

func (s *RoomStore) Get(id domain.RoomID) (domain.Room, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, false
	}
	return snapshotRoom(id, room), true
}

// Participants returns the room's participant list in insertion order.
func (s *RoomStore) Participants(id domain.RoomID) ([]domain.Participant, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[id]
	if !ok {
		return nil, false
	}
	out := make([]domain.Participant, len(room.participants))
	copy(out, room.participants)
	return out, true
}

// ListActive lists every room with at least one participant.
// Order is unspecified; callers must not depend on it.
func (s *RoomStore) ListActive() []RoomInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RoomInfo, 0, len(s.rooms))
	for id, room := range s.rooms {
		if len(room.participants) == 0 {
			continue
		}
		out = append(out, RoomInfo{ID: id, Name: room.name, Participants: len(room.participants)})
	}
	return out
}

// PurgeConnection sweeps every room for participants bound to the connection,
// deleting rooms that become empty. Returns the removals for notification.
func (s *RoomStore) PurgeConnection(cid domain.ConnectionID) []RoomRemoval {
	s.mu.Lock()
	defer s.mu.Unlock()

	var removed []RoomRemoval
	for id, room := range s.rooms {
		kept := room.participants[:0]
		for _, p := range room.participants {
			if p.ConnectionID == cid {
				removed = append(removed, RoomRemoval{RoomID: id, Participant: p})
				continue
			}
			kept = append(kept, p)
		}
		room.participants = kept
		if len(room.participants) == 0 {
			delete(s.rooms, id)
			log.Info().Str("module", "core.rooms").Str("room", string(id)).Msg("room deleted on disconnect")
		}
	}
	return removed
}

func snapshotRoom(id domain.RoomID, room *roomState) domain.Room {
	participants := make([]domain.Participant, len(room.participants))
	copy(participants, room.participants)
	return domain.Room{ID: id, Name: room.name, Participants: participants}
}

func withoutConnection(participants []domain.Participant, cid domain.ConnectionID) []domain.Participant {
	kept := participants[:0]
	for _, p := range participants {
		if p.ConnectionID != cid {
			kept = append(kept, p)
		}
	}
	return kept
}
