package domain

import "time"

// Message is a chat message in flight. An empty RoomID addresses every
// connected client (the global channel). Messages are never stored.
type Message struct {
	Text      string `json:"text"`
	Sender    string `json:"sender"`
	RoomID    RoomID `json:"roomId,omitempty"`
	Timestamp string `json:"timestamp"`
}

// Stamp fills Timestamp with the current UTC time if the client left it out.
func (m *Message) Stamp(now time.Time) {
	if m.Timestamp == "" {
		m.Timestamp = now.UTC().Format(time.RFC3339)
	}
}
