package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/internal/domain"
)

func participant(name, peer, conn string) domain.Participant {
	return domain.Participant{Name: name, PeerID: domain.PeerID(peer), ConnectionID: domain.ConnectionID(conn)}
}

func TestRoomStore_CreateOrJoin_CreatesRoomOnFirstJoin(t *testing.T) {
	store := NewRoomStore()

	room := store.CreateOrJoin("r1", "general", participant("alice", "p1", "c1"))

	require.Equal(t, domain.RoomID("r1"), room.ID)
	require.Equal(t, "general", room.Name)
	require.Len(t, room.Participants, 1)

	got, ok := store.Get("r1")
	require.True(t, ok)
	require.Equal(t, room, got)
}

func TestRoomStore_CreateOrJoin_NameDefaultsToID(t *testing.T) {
	store := NewRoomStore()

	room := store.CreateOrJoin("r1", "", participant("alice", "p1", "c1"))

	require.Equal(t, "r1", room.Name)
}

func TestRoomStore_CreateOrJoin_KeepsInsertionOrder(t *testing.T) {
	store := NewRoomStore()

	store.CreateOrJoin("r1", "general", participant("alice", "p1", "c1"))
	room := store.CreateOrJoin("r1", "", participant("bob", "p2", "c2"))

	require.Len(t, room.Participants, 2)
	require.Equal(t, "alice", room.Participants[0].Name)
	require.Equal(t, "bob", room.Participants[1].Name)
}

func TestRoomStore_CreateOrJoin_IdempotentOnPeerID(t *testing.T) {
	store := NewRoomStore()

	store.CreateOrJoin("r1", "general", participant("alice", "p1", "c1"))
	room := store.CreateOrJoin("r1", "", participant("alice", "p1", "c1"))

	require.Len(t, room.Participants, 1)

	// Same peer id from a fresh connection is still one entry.
	room = store.CreateOrJoin("r1", "", participant("alice", "p1", "c9"))
	require.Len(t, room.Participants, 1)
}

func TestRoomStore_Leave_RemovesByConnection(t *testing.T) {
	store := NewRoomStore()
	store.CreateOrJoin("r1", "general", participant("alice", "p1", "c1"))
	store.CreateOrJoin("r1", "", participant("bob", "p2", "c2"))

	store.Leave("r1", "c2")

	participants, ok := store.Participants("r1")
	require.True(t, ok)
	require.Len(t, participants, 1)
	require.Equal(t, "alice", participants[0].Name)
}

func TestRoomStore_Leave_DeletesEmptyRoom(t *testing.T) {
	store := NewRoomStore()
	store.CreateOrJoin("r1", "general", participant("alice", "p1", "c1"))

	store.Leave("r1", "c1")

	_, ok := store.Get("r1")
	require.False(t, ok)
}

func TestRoomStore_Leave_UnknownRoomIsNoop(t *testing.T) {
	store := NewRoomStore()
	store.Leave("ghost", "c1")
	require.Empty(t, store.ListActive())
}

func TestRoomStore_ListActive_CountsParticipants(t *testing.T) {
	store := NewRoomStore()
	store.CreateOrJoin("r1", "general", participant("alice", "p1", "c1"))
	store.CreateOrJoin("r1", "", participant("bob", "p2", "c2"))
	store.CreateOrJoin("r2", "random", participant("carol", "p3", "c3"))

	infos := store.ListActive()
	require.Len(t, infos, 2)

	byID := make(map[domain.RoomID]RoomInfo)
	for _, info := range infos {
		byID[info.ID] = info
	}
	require.Equal(t, 2, byID["r1"].Participants)
	require.Equal(t, "general", byID["r1"].Name)
	require.Equal(t, 1, byID["r2"].Participants)
}

func TestRoomStore_PurgeConnection_SweepsEveryRoom(t *testing.T) {
	store := NewRoomStore()
	store.CreateOrJoin("r1", "general", participant("alice", "p1", "c1"))
	store.CreateOrJoin("r1", "", participant("bob", "p2", "c2"))
	store.CreateOrJoin("r2", "random", participant("alice", "p1", "c1"))

	removed := store.PurgeConnection("c1")
	require.Len(t, removed, 2)
	for _, rm := range removed {
		require.Equal(t, domain.PeerID("p1"), rm.Participant.PeerID)
	}

	// r2 held only alice and must be gone; r1 keeps bob untouched.
	_, ok := store.Get("r2")
	require.False(t, ok)

	participants, ok := store.Participants("r1")
	require.True(t, ok)
	require.Len(t, participants, 1)
	require.Equal(t, "bob", participants[0].Name)
}

func TestRoomStore_PurgeConnection_NoMembershipReturnsNothing(t *testing.T) {
	store := NewRoomStore()
	store.CreateOrJoin("r1", "general", participant("alice", "p1", "c1"))

	require.Empty(t, store.PurgeConnection("c9"))

	participants, ok := store.Participants("r1")
	require.True(t, ok)
	require.Len(t, participants, 1)
}

func TestRoomStore_NoDuplicatePeerIDsUnderAnySequence(t *testing.T) {
	store := NewRoomStore()

	joins := []domain.Participant{
		participant("alice", "p1", "c1"),
		participant("bob", "p2", "c2"),
		participant("alice", "p1", "c1"),
		participant("carol", "p3", "c3"),
		participant("bob", "p2", "c4"),
	}
	for _, p := range joins {
		store.CreateOrJoin("r1", "", p)
	}
	store.Leave("r1", "c3")
	store.CreateOrJoin("r1", "", participant("carol", "p3", "c5"))

	participants, ok := store.Participants("r1")
	require.True(t, ok)
	seen := make(map[domain.PeerID]bool)
	for _, p := range participants {
		require.False(t, seen[p.PeerID], "duplicate peer id %s", p.PeerID)
		seen[p.PeerID] = true
	}
}
