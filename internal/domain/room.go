package domain

type (
	RoomID    string
	SessionID string
)

// Room is a snapshot of a chat room. Participants keep insertion order.
type Room struct {
	ID           RoomID        `json:"id"`
	Name         string        `json:"name"`
	Participants []Participant `json:"participants"`
}

// VideoSession is a snapshot of a video-chat coordination group. Only
// signaling presence lives here; no media flows through the server.
type VideoSession struct {
	ID           SessionID     `json:"id"`
	Participants []Participant `json:"participants"`
}
