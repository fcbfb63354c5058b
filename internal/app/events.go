package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"chat-relay/internal/core"
	"chat-relay/internal/domain"
)

// Server→client event names.
const (
	EvReceiveMessage    = "receive_message"
	EvUserJoinedVideo   = "user_joined_video_chat"
	EvUserLeftVideo     = "user_left_video_chat"
	EvUserTyping        = "user_typing"
	EvUserStoppedTyping = "user_stopped_typing"
)

type messageEvent struct {
	Type string `json:"type"`
	domain.Message
}

type videoPresenceEvent struct {
	Type string             `json:"type"`
	User domain.Participant `json:"user"`
}

type typingEvent struct {
	Type   string        `json:"type"`
	User   string        `json:"user"`
	RoomID domain.RoomID `json:"roomId"`
}

func encode(v any) core.Frame {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.events").Msg("encode event")
		return nil
	}
	return b
}

func receiveMessageFrame(msg domain.Message) core.Frame {
	return encode(messageEvent{Type: EvReceiveMessage, Message: msg})
}

func videoPresenceFrame(eventType string, p domain.Participant) core.Frame {
	return encode(videoPresenceEvent{Type: eventType, User: p})
}

func typingFrame(eventType string, user string, roomID domain.RoomID) core.Frame {
	return encode(typingEvent{Type: eventType, User: user, RoomID: roomID})
}
