package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"chat-relay/internal/core"
	"chat-relay/internal/domain"
)

// PresenceHandlers exposes the read-only room presence surface. Pure reads
// against the room store; all formatting happens here.
type PresenceHandlers struct {
	Rooms *core.RoomStore
}

// ListRooms answers GET /api/rooms with every active room and its
// participant count.
func (h *PresenceHandlers) ListRooms(c *gin.Context) {
	c.JSON(http.StatusOK, h.Rooms.ListActive())
}

// ListParticipants answers GET /api/:roomId/participants. An unknown room
// is a 404; "known but empty" cannot happen, empty rooms are deleted.
func (h *PresenceHandlers) ListParticipants(c *gin.Context) {
	roomID := domain.RoomID(c.Param("roomId"))
	participants, ok := h.Rooms.Participants(roomID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Room not found"})
		return
	}
	c.JSON(http.StatusOK, participants)
}
