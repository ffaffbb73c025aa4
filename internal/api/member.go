package api

import (
	"context"
	"net/http"

	"github.com/chiebuka-eze/msgcore/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MemberDirectory exposes the org member directory from the store.
type MemberDirectory interface {
	OrgMembers(ctx context.Context, orgID string) ([]models.OrgMember, error)
}

type MemberHandler struct {
	directory MemberDirectory
	logger    *zap.Logger
}

func NewMemberHandler(directory MemberDirectory, logger *zap.Logger) *MemberHandler {
	return &MemberHandler{directory: directory, logger: logger}
}

// List handles GET /org/:org_id/members
func (h *MemberHandler) List(c *gin.Context) {
	orgID := requireOrg(c)
	if orgID == "" {
		return
	}
	members, err := h.directory.OrgMembers(c.Request.Context(), orgID)
	if err != nil {
		h.logger.Error("member directory lookup failed", zap.Error(err))
		c.JSON(http.StatusFailedDependency, envelope{Status: "error", Message: "unable to list members"})
		return
	}
	if members == nil {
		members = []models.OrgMember{}
	}
	respondSuccess(c, http.StatusOK, "members retrieved", members)
}
