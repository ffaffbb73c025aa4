package api

import (
	"net/http"

	"github.com/chiebuka-eze/msgcore/internal/apperr"
	"github.com/chiebuka-eze/msgcore/internal/middleware"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// envelope is the response shape shared by all endpoints.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func respondSuccess(c *gin.Context, code int, message string, data any) {
	c.JSON(code, envelope{Status: "success", Message: message, Data: data})
}

// respondError translates domain errors to HTTP responses. An
// AlreadyExists outcome is success-shaped: it answers 200 with the
// existing room id, because duplicate DM creation is idempotent.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	code := apperr.CodeOf(err)
	if code == "" {
		logger.Error("unhandled error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, envelope{
			Status:  "error",
			Message: "internal server error",
		})
		return
	}

	if code == apperr.CodeAlreadyExists {
		respondSuccess(c, http.StatusOK, "room already exists", gin.H{
			"room_id": apperr.RefOf(err),
		})
		return
	}

	c.JSON(apperr.HTTPStatus(code), envelope{
		Status:  "error",
		Message: err.Error(),
	})
}

// requireOrg checks that the path org matches the authenticated org.
// Returns the org id, or "" after writing the response.
func requireOrg(c *gin.Context) string {
	orgID := c.Param("org_id")
	if orgID == "" {
		c.JSON(http.StatusBadRequest, envelope{Status: "error", Message: "missing org id"})
		return ""
	}
	if tokenOrg := middleware.GetOrgID(c); tokenOrg != "" && tokenOrg != orgID {
		c.JSON(http.StatusForbidden, envelope{Status: "error", Message: "token not valid for this org"})
		return ""
	}
	return orgID
}
