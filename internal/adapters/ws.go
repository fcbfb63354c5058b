package adapters

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"chat-relay/internal/app"
	"chat-relay/internal/config"
	"chat-relay/internal/core"
	"chat-relay/internal/domain"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// Time allowed to write a frame to the peer.
const writeWait = 5 * time.Second

var validate = validator.New()

// EventsWSController owns the client event channel: it upgrades the HTTP
// request, runs the connection pumps and dispatches decoded envelopes to
// the event router.
type EventsWSController struct {
	Router *app.EventRouter
	Cfg    *config.Config
}

func NewEventsWSController(router *app.EventRouter, cfg *config.Config) *EventsWSController {
	return &EventsWSController{Router: router, Cfg: cfg}
}

type wsConn struct {
	conn *websocket.Conn

	mu     sync.Mutex
	send   chan core.Frame
	closed bool
}

// TrySend holds the mutex across the channel send so Close cannot close the
// channel underneath a concurrent fanout; a late frame gets ErrConnClosed
// instead of a panic.
func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
		return nil
	default:
		return ErrBackpressure
	}
}

func (c *wsConn) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleEvents upgrades the request and registers the connection. The
// connection id is assigned here; clients never learn or choose it.
func (ctl *EventsWSController) HandleEvents(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn().Str("module", "adapters.ws").Err(err).Msg("ws upgrade")
		return
	}

	cid := domain.ConnectionID(uuid.NewString())
	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.Router.Registry.Bind(cid, conn, cancel)
	log.Info().Str("module", "adapters.ws").Str("cid", string(cid)).Msg("client connected")

	// ReadMessage only returns on conn errors, so cancellation (registry
	// cancel or server shutdown) must close the conn to unblock the pumps.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	go ctl.writePump(ctx, conn)
	go ctl.readPump(cid, conn)
}

func (ctl *EventsWSController) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Warn().Str("module", "adapters.ws").Err(err).Msg("write frame")
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump is the single reader for the connection; per-connection event
// order is whatever order frames arrive here. On exit the disconnect sweep
// purges both stores before the connection is forgotten.
func (ctl *EventsWSController) readPump(cid domain.ConnectionID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "adapters.ws").Str("cid", string(cid)).Msg("client disconnected")
		ctl.Router.Disconnect(cid)
		c.Close()
	}()

	pongWait := ctl.Cfg.PingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Str("module", "adapters.ws").Str("cid", string(cid)).Err(err).Msg("read frame")
			}
			return
		}
		ctl.handleEvent(cid, data)
	}
}

func (ctl *EventsWSController) handleEvent(cid domain.ConnectionID, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Str("module", "adapters.ws").Str("cid", string(cid)).Err(err).Msg("bad envelope, event dropped")
		return
	}

	switch env.Type {
	case "send_message":
		ctl.handleSendMessage(cid, data)
	case "create_room":
		ctl.handleCreateRoom(cid, data)
	case "join_room":
		ctl.handleJoinRoom(cid, data)
	case "leave_room":
		ctl.handleLeaveRoom(cid, data)
	case "join_video_chat":
		ctl.handleJoinVideo(cid, data)
	case "leave_video_chat":
		ctl.handleLeaveVideo(cid, data)
	case "typing_start":
		ctl.handleTyping(cid, data, true)
	case "typing_stop":
		ctl.handleTyping(cid, data, false)
	default:
		log.Warn().Str("module", "adapters.ws").Str("type", env.Type).Msg("unknown event")
	}
}

// bind decodes and validates an inbound payload. A failure is the
// malformed-input case: the event is dropped, nobody is notified.
func bind(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return err
	}
	return validate.Struct(v)
}

type userRef struct {
	Name   string `json:"name" validate:"required"`
	PeerID string `json:"peerId" validate:"required"`
}

func (ctl *EventsWSController) handleSendMessage(cid domain.ConnectionID, data []byte) {
	var p struct {
		Text      string `json:"text" validate:"required"`
		Sender    string `json:"sender" validate:"required"`
		RoomID    string `json:"roomId"`
		Timestamp string `json:"timestamp"`
	}
	if err := bind(data, &p); err != nil {
		log.Warn().Str("module", "adapters.ws").Str("cid", string(cid)).Err(err).Msg("bad send_message payload")
		return
	}
	ctl.Router.SendMessage(domain.Message{
		Text:      p.Text,
		Sender:    p.Sender,
		RoomID:    domain.RoomID(p.RoomID),
		Timestamp: p.Timestamp,
	})
}

func (ctl *EventsWSController) handleCreateRoom(cid domain.ConnectionID, data []byte) {
	var p struct {
		RoomID   string `json:"roomId" validate:"required"`
		RoomName string `json:"roomName"`
		User     struct {
			Creator string `json:"creator" validate:"required"`
			ID      string `json:"id" validate:"required"`
		} `json:"user"`
	}
	if err := bind(data, &p); err != nil {
		log.Warn().Str("module", "adapters.ws").Str("cid", string(cid)).Err(err).Msg("bad create_room payload")
		return
	}
	creator, err := domain.NewParticipant(p.User.Creator, domain.PeerID(p.User.ID), cid)
	if err != nil {
		log.Warn().Str("module", "adapters.ws").Str("cid", string(cid)).Err(err).Msg("bad create_room participant")
		return
	}
	ctl.Router.CreateRoom(domain.RoomID(p.RoomID), p.RoomName, creator)
}

func (ctl *EventsWSController) handleJoinRoom(cid domain.ConnectionID, data []byte) {
	var p struct {
		RoomID string  `json:"roomId" validate:"required"`
		User   userRef `json:"user"`
	}
	if err := bind(data, &p); err != nil {
		log.Warn().Str("module", "adapters.ws").Str("cid", string(cid)).Err(err).Msg("bad join_room payload")
		return
	}
	member, err := domain.NewParticipant(p.User.Name, domain.PeerID(p.User.PeerID), cid)
	if err != nil {
		log.Warn().Str("module", "adapters.ws").Str("cid", string(cid)).Err(err).Msg("bad join_room participant")
		return
	}
	ctl.Router.JoinRoom(domain.RoomID(p.RoomID), member)
}

// handleLeaveRoom carries no identity on purpose: membership is filtered by
// the caller's own connection, so a client cannot leave on behalf of
// someone else.
func (ctl *EventsWSController) handleLeaveRoom(cid domain.ConnectionID, data []byte) {
	var p struct {
		RoomID string `json:"roomId" validate:"required"`
	}
	if err := bind(data, &p); err != nil {
		log.Warn().Str("module", "adapters.ws").Str("cid", string(cid)).Err(err).Msg("bad leave_room payload")
		return
	}
	ctl.Router.LeaveRoom(domain.RoomID(p.RoomID), cid)
}

func (ctl *EventsWSController) handleJoinVideo(cid domain.ConnectionID, data []byte) {
	var p struct {
		SessionID string  `json:"videoChatId" validate:"required"`
		User      userRef `json:"user"`
	}
	if err := bind(data, &p); err != nil {
		log.Warn().Str("module", "adapters.ws").Str("cid", string(cid)).Err(err).Msg("bad join_video_chat payload")
		return
	}
	member, err := domain.NewParticipant(p.User.Name, domain.PeerID(p.User.PeerID), cid)
	if err != nil {
		log.Warn().Str("module", "adapters.ws").Str("cid", string(cid)).Err(err).Msg("bad join_video_chat participant")
		return
	}
	ctl.Router.JoinVideo(domain.SessionID(p.SessionID), member)
}

func (ctl *EventsWSController) handleLeaveVideo(cid domain.ConnectionID, data []byte) {
	var p struct {
		SessionID string  `json:"videoChatId" validate:"required"`
		User      userRef `json:"user"`
	}
	if err := bind(data, &p); err != nil {
		log.Warn().Str("module", "adapters.ws").Str("cid", string(cid)).Err(err).Msg("bad leave_video_chat payload")
		return
	}
	member, err := domain.NewParticipant(p.User.Name, domain.PeerID(p.User.PeerID), cid)
	if err != nil {
		log.Warn().Str("module", "adapters.ws").Str("cid", string(cid)).Err(err).Msg("bad leave_video_chat participant")
		return
	}
	ctl.Router.LeaveVideo(domain.SessionID(p.SessionID), member)
}

func (ctl *EventsWSController) handleTyping(cid domain.ConnectionID, data []byte, start bool) {
	var p struct {
		RoomID string `json:"roomId"`
		User   string `json:"user"`
	}
	if err := bind(data, &p); err != nil {
		log.Warn().Str("module", "adapters.ws").Str("cid", string(cid)).Err(err).Msg("bad typing payload")
		return
	}
	if start {
		ctl.Router.TypingStart(domain.RoomID(p.RoomID), p.User, cid)
		return
	}
	ctl.Router.TypingStop(domain.RoomID(p.RoomID), p.User, cid)
}
