package http

import (
	stdhttp "net/http"

	"github.com/dkeye/fastcall/internal/app"
	"github.com/dkeye/fastcall/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"
)

type roomHandlers struct {
	dispatcher *app.Dispatcher
	ice        []webrtc.ICEServer
}

// GET /api/rooms
func (h *roomHandlers) listRooms(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, h.dispatcher.Registry.List())
}

// GET /api/rooms/:name/members
func (h *roomHandlers) listMembers(c *gin.Context) {
	name := domain.RoomName(c.Param("name"))
	sessions := h.dispatcher.Registry.Members(name)
	if sessions == nil {
		c.JSON(stdhttp.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	members := make([]domain.Member, 0, len(sessions))
	for _, s := range sessions {
		members = append(members, *s.Meta())
	}
	c.JSON(stdhttp.StatusOK, members)
}

// DELETE /api/rooms/:name/members/:sid
func (h *roomHandlers) kickMember(c *gin.Context) {
	name := domain.RoomName(c.Param("name"))
	sid := domain.SessionID(c.Param("sid"))

	if room, ok := h.dispatcher.Registry.RoomOf(sid); !ok || room != name {
		c.JSON(stdhttp.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	if !h.dispatcher.Kick(sid) {
		c.JSON(stdhttp.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	log.Info().Str("module", "adapters.http").Str("room", string(name)).Str("sid", string(sid)).Msg("member kicked")
	c.Status(stdhttp.StatusNoContent)
}

// GET /api/ice
func (h *roomHandlers) iceServers(c *gin.Context) {
	c.JSON(stdhttp.StatusOK, gin.H{"iceServers": h.ice})
}
