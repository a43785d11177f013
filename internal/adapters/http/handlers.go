package http

import (
	"errors"
	"net/http"

	"github.com/dkeye/CodeRoom/internal/app/orch"
	"github.com/dkeye/CodeRoom/internal/core"
	"github.com/dkeye/CodeRoom/internal/domain"
	"github.com/gin-gonic/gin"
)

// Handlers serves the read-only room API.
type Handlers struct {
	Orch *orch.Orchestrator
}

// Health reports readiness. It never touches room state.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// GET /api/rooms
func (h *Handlers) ListRooms(c *gin.Context) {
	rooms, err := h.Orch.ListRooms(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// GET /api/rooms/:id
func (h *Handlers) GetRoom(c *gin.Context) {
	snap, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, snap)
}

// GET /api/rooms/:id/participants
func (h *Handlers) GetParticipants(c *gin.Context) {
	snap, ok := h.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"participants": snap.Participants})
}

func (h *Handlers) lookup(c *gin.Context) (core.RoomSnapshot, bool) {
	s, found, err := h.Orch.RoomSnapshot(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, domain.ErrMissingField), errors.Is(err, domain.ErrFieldTooLong):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid room id"})
		return core.RoomSnapshot{}, false
	case err != nil:
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return core.RoomSnapshot{}, false
	case !found:
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return core.RoomSnapshot{}, false
	}
	return s, true
}
