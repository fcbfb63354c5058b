package app

import (
	"time"

	"github.com/rs/zerolog/log"

	"chat-relay/internal/core"
	"chat-relay/internal/domain"
)

// EventRouter maps inbound client events to store mutations and fans
// notifications out to the right audience: every connected client, the
// members of a room, or the members of a video session minus the sender.
//
// The routing table is fixed per event kind; there is no subscription
// logic. Delivery is best-effort in-process fanout with no retries.
type EventRouter struct {
	Registry *Registry
	Rooms    *core.RoomStore
	Videos   *core.VideoSessionStore
}

// SendMessage delivers a chat message. An empty room id addresses every
// connected client, sender included; a room id addresses that room's
// members, sender included, so the sender's UI confirms delivery through
// the same channel as everyone else.
func (r *EventRouter) SendMessage(msg domain.Message) {
	msg.Stamp(time.Now())
	frame := receiveMessageFrame(msg)
	if msg.RoomID == "" {
		r.broadcastAll(frame)
		return
	}
	r.broadcastRoom(msg.RoomID, "", frame)
}

// CreateRoom registers a room with its creator as the first participant.
// The creator already holds the result locally, so nothing is fanned out.
func (r *EventRouter) CreateRoom(id domain.RoomID, name string, creator domain.Participant) domain.Room {
	return r.Rooms.CreateOrJoin(id, name, creator)
}

// JoinRoom adds the participant to the room, creating it on demand.
func (r *EventRouter) JoinRoom(id domain.RoomID, p domain.Participant) domain.Room {
	return r.Rooms.CreateOrJoin(id, "", p)
}

// LeaveRoom removes the caller's participant from the room. Membership is
// keyed by the underlying connection, not by the advertised identity.
func (r *EventRouter) LeaveRoom(id domain.RoomID, cid domain.ConnectionID) {
	r.Rooms.Leave(id, cid)
}

// JoinVideo adds the participant to the video session and tells the other
// members. Joining twice with the same peer id leaves the store untouched
// but still notifies, mirroring the reference relay; clients de-duplicate.
func (r *EventRouter) JoinVideo(id domain.SessionID, p domain.Participant) {
	r.Videos.Join(id, p)
	r.broadcastSessionExcept(id, p.ConnectionID, videoPresenceFrame(EvUserJoinedVideo, p))
}

// LeaveVideo removes the caller from the video session and tells the
// remaining members.
func (r *EventRouter) LeaveVideo(id domain.SessionID, p domain.Participant) {
	r.Videos.Leave(id, p.ConnectionID)
	r.broadcastSessionExcept(id, p.ConnectionID, videoPresenceFrame(EvUserLeftVideo, p))
}

// TypingStart tells the other room members that user started typing.
func (r *EventRouter) TypingStart(id domain.RoomID, user string, from domain.ConnectionID) {
	if id == "" {
		return
	}
	r.broadcastRoom(id, from, typingFrame(EvUserTyping, user, id))
}

// TypingStop tells the other room members that user stopped typing.
func (r *EventRouter) TypingStop(id domain.RoomID, user string, from domain.ConnectionID) {
	if id == "" {
		return
	}
	r.broadcastRoom(id, from, typingFrame(EvUserStoppedTyping, user, id))
}

// Disconnect sweeps both stores for the dropped connection. Room removals
// are silent; remaining video session members are told who left. Both
// purges complete before the registry entry goes away, so an immediate
// reconnect never observes a ghost participant.
func (r *EventRouter) Disconnect(cid domain.ConnectionID) {
	roomRemovals := r.Rooms.PurgeConnection(cid)
	sessionRemovals := r.Videos.PurgeConnection(cid)

	for _, rm := range sessionRemovals {
		r.broadcastSessionExcept(rm.SessionID, cid, videoPresenceFrame(EvUserLeftVideo, rm.Participant))
	}
	r.Registry.Unbind(cid)

	log.Info().Str("module", "app.router").Str("cid", string(cid)).
		Int("rooms_left", len(roomRemovals)).Int("sessions_left", len(sessionRemovals)).
		Msg("connection purged")
}

func (r *EventRouter) broadcastAll(frame core.Frame) {
	if frame == nil {
		return
	}
	sent, dropped := 0, 0
	for _, snap := range r.Registry.Snapshot() {
		if err := snap.Conn.TrySend(frame); err != nil {
			dropped++
			continue
		}
		sent++
	}
	log.Debug().Str("module", "app.router").Int("sent_to", sent).Int("dropped", dropped).Msg("global broadcast")
}

// broadcastRoom delivers to each connection with a participant in the room,
// once per connection, skipping except when set.
func (r *EventRouter) broadcastRoom(id domain.RoomID, except domain.ConnectionID, frame core.Frame) {
	participants, ok := r.Rooms.Participants(id)
	if !ok || frame == nil {
		return
	}
	r.deliver(participants, except, frame)
}

func (r *EventRouter) broadcastSessionExcept(id domain.SessionID, except domain.ConnectionID, frame core.Frame) {
	if frame == nil {
		return
	}
	r.deliver(r.Videos.Participants(id), except, frame)
}

func (r *EventRouter) deliver(participants []domain.Participant, except domain.ConnectionID, frame core.Frame) {
	seen := make(map[domain.ConnectionID]bool, len(participants))
	for _, p := range participants {
		cid := p.ConnectionID
		if cid == except || seen[cid] {
			continue
		}
		seen[cid] = true
		conn, ok := r.Registry.Get(cid)
		if !ok {
			continue
		}
		if err := conn.TrySend(frame); err != nil {
			log.Warn().Str("module", "app.router").Str("cid", string(cid)).Err(err).Msg("dropped frame")
		}
	}
}
