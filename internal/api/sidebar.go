package api

import (
	"context"
	"net/http"

	"github.com/chiebuka-eze/msgcore/internal/models"
	"github.com/chiebuka-eze/msgcore/internal/sidebar"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SidebarService builds per-member sidebar payloads.
type SidebarService interface {
	Build(ctx context.Context, orgID, memberID string, roomType models.RoomType) (*sidebar.Data, error)
}

type SidebarHandler struct {
	svc    SidebarService
	logger *zap.Logger
}

func NewSidebarHandler(svc SidebarService, logger *zap.Logger) *SidebarHandler {
	return &SidebarHandler{svc: svc, logger: logger}
}

// Get handles GET /org/:org_id/members/:member_id/sidebar?room_type=CHANNEL
func (h *SidebarHandler) Get(c *gin.Context) {
	orgID := requireOrg(c)
	if orgID == "" {
		return
	}
	roomType := models.RoomType(c.DefaultQuery("room_type", string(models.RoomTypeChannel)))
	if !roomType.Valid() {
		c.JSON(http.StatusBadRequest, envelope{Status: "error", Message: "invalid room_type"})
		return
	}

	data, err := h.svc.Build(c.Request.Context(), orgID, c.Param("member_id"), roomType)
	if err != nil {
		h.logger.Error("sidebar build failed", zap.Error(err))
		c.JSON(http.StatusFailedDependency, envelope{Status: "error", Message: "unable to build sidebar"})
		return
	}
	respondSuccess(c, http.StatusOK, "sidebar retrieved", data)
}
