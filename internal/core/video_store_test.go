package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"chat-relay/internal/domain"
)

func TestVideoSessionStore_Join_CreatesSessionOnDemand(t *testing.T) {
	store := NewVideoSessionStore()

	joined := store.Join("v1", participant("alice", "p1", "c1"))

	require.True(t, joined)
	session, ok := store.Get("v1")
	require.True(t, ok)
	require.Len(t, session.Participants, 1)
}

func TestVideoSessionStore_Join_AlreadyMemberIsNoop(t *testing.T) {
	store := NewVideoSessionStore()
	store.Join("v1", participant("alice", "p1", "c1"))

	joined := store.Join("v1", participant("alice", "p1", "c1"))

	require.False(t, joined)
	require.Len(t, store.Participants("v1"), 1)
}

func TestVideoSessionStore_Leave_RemovesByConnection(t *testing.T) {
	store := NewVideoSessionStore()
	store.Join("v1", participant("alice", "p1", "c1"))
	store.Join("v1", participant("bob", "p2", "c2"))

	removed, ok := store.Leave("v1", "c1")

	require.True(t, ok)
	require.Equal(t, domain.PeerID("p1"), removed.PeerID)
	require.Len(t, store.Participants("v1"), 1)
}

func TestVideoSessionStore_Leave_DeletesEmptySession(t *testing.T) {
	store := NewVideoSessionStore()
	store.Join("v1", participant("alice", "p1", "c1"))

	_, ok := store.Leave("v1", "c1")
	require.True(t, ok)

	_, ok = store.Get("v1")
	require.False(t, ok)
}

func TestVideoSessionStore_Leave_UnknownSessionOrMember(t *testing.T) {
	store := NewVideoSessionStore()

	_, ok := store.Leave("ghost", "c1")
	require.False(t, ok)

	store.Join("v1", participant("alice", "p1", "c1"))
	_, ok = store.Leave("v1", "c9")
	require.False(t, ok)
	require.Len(t, store.Participants("v1"), 1)
}

func TestVideoSessionStore_PurgeConnection_ReportsRemovals(t *testing.T) {
	store := NewVideoSessionStore()
	store.Join("v1", participant("alice", "p1", "c1"))
	store.Join("v1", participant("bob", "p2", "c2"))
	store.Join("v2", participant("alice", "p1", "c1"))

	removed := store.PurgeConnection("c1")

	require.Len(t, removed, 2)
	_, ok := store.Get("v2")
	require.False(t, ok)
	require.Len(t, store.Participants("v1"), 1)
}
