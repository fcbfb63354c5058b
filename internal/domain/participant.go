// Package domain contains entity without logic, just meta-data
package domain

import "errors"

const MaxNameLen = 64

var (
	ErrNameTooLong = errors.New("name too long")
	ErrNameEmpty   = errors.New("name empty")
	ErrPeerIDEmpty = errors.New("peer id empty")
)

// ConnectionID is the transport-session identifier. It is assigned by the
// server per live connection and never leaves for the client to pick.
type ConnectionID string

// PeerID is the client-supplied peer-to-peer signaling address. Within a
// room or video session it is the de-duplication key for a participant.
type PeerID string

type Participant struct {
	Name         string       `json:"name"`
	PeerID       PeerID       `json:"peerId"`
	ConnectionID ConnectionID `json:"connectionId"`
}

// NewParticipant is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewParticipant(name string, peerID PeerID, cid ConnectionID) (Participant, error) {
	if len(name) == 0 {
		return Participant{}, ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return Participant{}, ErrNameTooLong
	}
	if len(peerID) == 0 {
		return Participant{}, ErrPeerIDEmpty
	}
	return Participant{Name: name, PeerID: peerID, ConnectionID: cid}, nil
}
