package api

import (
	"context"
	"net/http"

	"github.com/chiebuka-eze/msgcore/internal/middleware"
	"github.com/chiebuka-eze/msgcore/internal/models"
	"github.com/chiebuka-eze/msgcore/internal/rooms"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RoomService is what the room handler needs from the room engine.
type RoomService interface {
	Create(ctx context.Context, orgID, creatorID string, req rooms.CreateRequest) (*models.Room, error)
	Update(ctx context.Context, orgID, roomID, actorID string, patch rooms.UpdatePatch) (*models.Room, error)
	GetRoom(ctx context.Context, orgID, roomID string) (*models.Room, error)
	OrgRooms(ctx context.Context, orgID string) ([]models.Room, error)
	MemberRooms(ctx context.Context, orgID, memberID string) ([]models.Room, error)
	AddMembers(ctx context.Context, orgID, roomID, actorID string, newMembers map[string]models.RoomMember) (*models.Room, error)
	RemoveMember(ctx context.Context, orgID, roomID, actorID, targetID string) (*models.Room, error)
}

type RoomHandler struct {
	svc    RoomService
	logger *zap.Logger
}

func NewRoomHandler(svc RoomService, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{svc: svc, logger: logger}
}

// Create handles POST /org/:org_id/rooms
func (h *RoomHandler) Create(c *gin.Context) {
	orgID := requireOrg(c)
	if orgID == "" {
		return
	}
	var req rooms.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Status: "error", Message: err.Error()})
		return
	}
	creatorID := middleware.GetMemberID(c)

	room, err := h.svc.Create(c.Request.Context(), orgID, creatorID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondSuccess(c, http.StatusCreated, "room created", room)
}

// Get handles GET /org/:org_id/rooms/:room_id
func (h *RoomHandler) Get(c *gin.Context) {
	orgID := requireOrg(c)
	if orgID == "" {
		return
	}
	room, err := h.svc.GetRoom(c.Request.Context(), orgID, c.Param("room_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondSuccess(c, http.StatusOK, "room retrieved", room)
}

// List handles GET /org/:org_id/rooms
func (h *RoomHandler) List(c *gin.Context) {
	orgID := requireOrg(c)
	if orgID == "" {
		return
	}
	list, err := h.svc.OrgRooms(c.Request.Context(), orgID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondSuccess(c, http.StatusOK, "rooms retrieved", list)
}

// MemberRooms handles GET /org/:org_id/members/:member_id/rooms
func (h *RoomHandler) MemberRooms(c *gin.Context) {
	orgID := requireOrg(c)
	if orgID == "" {
		return
	}
	list, err := h.svc.MemberRooms(c.Request.Context(), orgID, c.Param("member_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondSuccess(c, http.StatusOK, "rooms retrieved", list)
}

// Update handles PATCH /org/:org_id/rooms/:room_id
func (h *RoomHandler) Update(c *gin.Context) {
	orgID := requireOrg(c)
	if orgID == "" {
		return
	}
	var patch rooms.UpdatePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Status: "error", Message: err.Error()})
		return
	}
	actorID := middleware.GetMemberID(c)

	room, err := h.svc.Update(c.Request.Context(), orgID, c.Param("room_id"), actorID, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondSuccess(c, http.StatusOK, "room updated", room)
}

// AddMembers handles PUT /org/:org_id/rooms/:room_id/members
func (h *RoomHandler) AddMembers(c *gin.Context) {
	orgID := requireOrg(c)
	if orgID == "" {
		return
	}
	var newMembers map[string]models.RoomMember
	if err := c.ShouldBindJSON(&newMembers); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Status: "error", Message: err.Error()})
		return
	}
	actorID := middleware.GetMemberID(c)

	room, err := h.svc.AddMembers(c.Request.Context(), orgID, c.Param("room_id"), actorID, newMembers)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondSuccess(c, http.StatusOK, "member(s) successfully added", gin.H{
		"room_members": room.RoomMembers,
	})
}

// RemoveMember handles DELETE /org/:org_id/rooms/:room_id/members/:member_id
func (h *RoomHandler) RemoveMember(c *gin.Context) {
	orgID := requireOrg(c)
	if orgID == "" {
		return
	}
	actorID := middleware.GetMemberID(c)
	targetID := c.Param("member_id")

	room, err := h.svc.RemoveMember(c.Request.Context(), orgID, c.Param("room_id"), actorID, targetID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondSuccess(c, http.StatusOK, "member removed from room", gin.H{
		"room_id":   room.ID,
		"member_id": targetID,
	})
}
