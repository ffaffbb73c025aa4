package api

import (
	"net/http"
	"time"

	"github.com/chiebuka-eze/msgcore/internal/auth"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AuthHandler mints tokens for already-authenticated members. Identity
// verification happens upstream (the platform gateway); this endpoint
// only binds an org/member pair into a bearer token for this service.
type AuthHandler struct {
	jwtSecret string
	tokenTTL  time.Duration
	logger    *zap.Logger
}

func NewAuthHandler(jwtSecret string, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{jwtSecret: jwtSecret, tokenTTL: 24 * time.Hour, logger: logger}
}

type tokenRequest struct {
	OrgID    string `json:"org_id" binding:"required"`
	MemberID string `json:"member_id" binding:"required"`
	Email    string `json:"email"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

// Token handles POST /v1/auth/token
func (h *AuthHandler) Token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Status: "error", Message: err.Error()})
		return
	}

	token, err := auth.GenerateToken(req.MemberID, req.OrgID, req.Email, h.jwtSecret, h.tokenTTL)
	if err != nil {
		h.logger.Error("token generation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, envelope{Status: "error", Message: "token generation failed"})
		return
	}
	respondSuccess(c, http.StatusOK, "token issued", tokenResponse{Token: token})
}
