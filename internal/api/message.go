package api

import (
	"context"
	"net/http"
	"strconv"

	"github.com/chiebuka-eze/msgcore/internal/messages"
	"github.com/chiebuka-eze/msgcore/internal/middleware"
	"github.com/chiebuka-eze/msgcore/internal/models"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// MessageService is what the message handler needs from the engine.
type MessageService interface {
	Create(ctx context.Context, orgID, roomID, senderID string, req messages.CreateRequest) (*models.Message, error)
	Edit(ctx context.Context, orgID, roomID, messageID, senderID string, patch messages.Patch) (*models.Message, error)
	GetMessage(ctx context.Context, orgID, roomID, messageID string) (*models.Message, error)
	RoomMessages(ctx context.Context, orgID, roomID string, page, limit int) ([]models.Message, error)
	AddThread(ctx context.Context, orgID, roomID, messageID string, req messages.ThreadRequest) (*models.Message, error)
	EditThread(ctx context.Context, orgID, messageID, threadID, senderID string, patch messages.ThreadPatch) (*models.Message, error)
	Threads(ctx context.Context, orgID, roomID, messageID string) ([]models.Thread, error)
}

type MessageHandler struct {
	svc    MessageService
	logger *zap.Logger
}

func NewMessageHandler(svc MessageService, logger *zap.Logger) *MessageHandler {
	return &MessageHandler{svc: svc, logger: logger}
}

// Create handles POST /org/:org_id/rooms/:room_id/messages
func (h *MessageHandler) Create(c *gin.Context) {
	orgID := requireOrg(c)
	if orgID == "" {
		return
	}
	var req messages.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Status: "error", Message: err.Error()})
		return
	}
	senderID := middleware.GetMemberID(c)

	msg, err := h.svc.Create(c.Request.Context(), orgID, c.Param("room_id"), senderID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondSuccess(c, http.StatusCreated, "new message sent", msg)
}

// Edit handles PUT /org/:org_id/rooms/:room_id/messages/:message_id
func (h *MessageHandler) Edit(c *gin.Context) {
	orgID := requireOrg(c)
	if orgID == "" {
		return
	}
	var patch messages.Patch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Status: "error", Message: err.Error()})
		return
	}
	senderID := middleware.GetMemberID(c)

	msg, err := h.svc.Edit(c.Request.Context(), orgID, c.Param("room_id"), c.Param("message_id"), senderID, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondSuccess(c, http.StatusOK, "message edited", msg)
}

// Get handles GET /org/:org_id/rooms/:room_id/messages/:message_id
func (h *MessageHandler) Get(c *gin.Context) {
	orgID := requireOrg(c)
	if orgID == "" {
		return
	}
	msg, err := h.svc.GetMessage(c.Request.Context(), orgID, c.Param("room_id"), c.Param("message_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondSuccess(c, http.StatusOK, "message retrieved", msg)
}

// List handles GET /org/:org_id/rooms/:room_id/messages?page=1&limit=15
func (h *MessageHandler) List(c *gin.Context) {
	orgID := requireOrg(c)
	if orgID == "" {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "15"))

	list, err := h.svc.RoomMessages(c.Request.Context(), orgID, c.Param("room_id"), page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondSuccess(c, http.StatusOK, "messages retrieved", gin.H{
		"data": list,
		"page": page,
		"size": limit,
	})
}

// AddThread handles POST /org/:org_id/rooms/:room_id/messages/:message_id/threads
func (h *MessageHandler) AddThread(c *gin.Context) {
	orgID := requireOrg(c)
	if orgID == "" {
		return
	}
	var req messages.ThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Status: "error", Message: err.Error()})
		return
	}
	if req.SenderID == "" {
		req.SenderID = middleware.GetMemberID(c)
	}

	msg, err := h.svc.AddThread(c.Request.Context(), orgID, c.Param("room_id"), c.Param("message_id"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondSuccess(c, http.StatusCreated, "thread added", msg)
}

// ListThreads handles GET /org/:org_id/rooms/:room_id/messages/:message_id/threads
func (h *MessageHandler) ListThreads(c *gin.Context) {
	orgID := requireOrg(c)
	if orgID == "" {
		return
	}
	threads, err := h.svc.Threads(c.Request.Context(), orgID, c.Param("room_id"), c.Param("message_id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondSuccess(c, http.StatusOK, "threads retrieved", threads)
}

// EditThread handles PUT /org/:org_id/messages/:message_id/threads/:thread_id
func (h *MessageHandler) EditThread(c *gin.Context) {
	orgID := requireOrg(c)
	if orgID == "" {
		return
	}
	var patch messages.ThreadPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, envelope{Status: "error", Message: err.Error()})
		return
	}
	senderID := middleware.GetMemberID(c)

	msg, err := h.svc.EditThread(c.Request.Context(), orgID, c.Param("message_id"), c.Param("thread_id"), senderID, patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	respondSuccess(c, http.StatusOK, "thread edited", msg)
}
