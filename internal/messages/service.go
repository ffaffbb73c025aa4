// Package messages implements message and thread mutations. Threads
// are not standalone documents: every thread mutation rewrites the
// parent message in the store.
package messages

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/chiebuka-eze/msgcore/internal/apperr"
	"github.com/chiebuka-eze/msgcore/internal/fanout"
	"github.com/chiebuka-eze/msgcore/internal/models"
	"github.com/chiebuka-eze/msgcore/internal/notify"
	"github.com/chiebuka-eze/msgcore/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Collection is the store collection holding message documents.
const Collection = "messages"

// RoomLoader resolves rooms for membership checks. Satisfied by
// rooms.Service.
type RoomLoader interface {
	GetRoom(ctx context.Context, orgID, roomID string) (*models.Room, error)
}

// Service is the message/thread engine.
type Service struct {
	store    store.Gateway
	rooms    RoomLoader
	fanout   *fanout.Coordinator
	notifier notify.Triggerer
	logger   *zap.Logger

	// Tracks in-flight notification triggers so tests and shutdown can
	// drain them; triggers are side channels, never part of the
	// mutation outcome.
	notifyWG sync.WaitGroup
}

func NewService(st store.Gateway, rooms RoomLoader, fo *fanout.Coordinator, nt notify.Triggerer, logger *zap.Logger) *Service {
	return &Service{store: st, rooms: rooms, fanout: fo, notifier: nt, logger: logger}
}

// CreateRequest carries the caller-controlled fields of a new message.
type CreateRequest struct {
	RichContent models.RichContent `json:"richUiData"`
	Files       []string           `json:"files"`
}

// Create validates the sender's membership, persists the message, and
// fans out message_create. The store assigns the message id; it is set
// on the returned message before any fan-out is scheduled.
func (s *Service) Create(ctx context.Context, orgID, roomID, senderID string, req CreateRequest) (*models.Message, error) {
	room, err := s.rooms.GetRoom(ctx, orgID, roomID)
	if err != nil {
		return nil, err
	}
	if _, ok := room.Member(senderID); !ok {
		return nil, apperr.Forbidden("sender is not a member of this room")
	}

	msg := &models.Message{
		SenderID:    senderID,
		RoomID:      roomID,
		OrgID:       orgID,
		Emojis:      []models.Emoji{},
		RichContent: req.RichContent,
		Files:       emptyIfNil(req.Files),
		SavedBy:     []string{},
		Threads:     []models.Thread{},
		CreatedAt:   time.Now().UTC(),
	}

	id, err := s.store.Write(ctx, orgID, Collection, msg)
	if err != nil {
		s.logger.Error("message write failed", zap.String("room_id", roomID), zap.Error(err))
		return nil, apperr.Dependency("message not sent: %v", err)
	}
	msg.MessageID = id

	s.fanout.Publish(roomID, fanout.EventMessageCreate, msg)
	s.dispatchNotifications(room, msg)
	return msg, nil
}

// Patch holds the editable message fields. Nil fields retain their
// stored values (partial update semantics).
type Patch struct {
	RichContent *models.RichContent `json:"richUiData"`
	Files       *[]string           `json:"files"`
	Emojis      *[]models.Emoji     `json:"emojis"`
	SavedBy     *[]string           `json:"saved_by"`
}

// Edit merges the patch into an existing message. Only the original
// sender may edit; an edit that changes something marks the message
// edited, while an all-nil patch is a no-op.
func (s *Service) Edit(ctx context.Context, orgID, roomID, messageID, senderID string, patch Patch) (*models.Message, error) {
	msg, err := s.GetMessage(ctx, orgID, roomID, messageID)
	if err != nil {
		return nil, err
	}
	if msg.SenderID != senderID {
		return nil, apperr.Forbidden("only the sender may edit this message")
	}

	fields := make(map[string]any)
	if patch.RichContent != nil {
		msg.RichContent = *patch.RichContent
		fields["richUiData"] = *patch.RichContent
	}
	if patch.Files != nil {
		msg.Files = *patch.Files
		fields["files"] = *patch.Files
	}
	if patch.Emojis != nil {
		msg.Emojis = *patch.Emojis
		fields["emojis"] = *patch.Emojis
	}
	if patch.SavedBy != nil {
		msg.SavedBy = *patch.SavedBy
		fields["saved_by"] = *patch.SavedBy
	}
	if len(fields) == 0 {
		return msg, nil
	}
	fields["edited"] = true
	msg.Edited = true

	if err := s.store.Update(ctx, orgID, Collection, messageID, fields); err != nil {
		s.logger.Error("message edit failed", zap.String("message_id", messageID), zap.Error(err))
		return nil, apperr.Dependency("message not edited: %v", err)
	}

	s.fanout.Publish(roomID, fanout.EventMessageUpdate, msg)
	return msg, nil
}

// ThreadRequest carries a new thread reply.
type ThreadRequest struct {
	SenderID    string             `json:"sender_id"`
	RichContent models.RichContent `json:"richUiData"`
	Files       []string           `json:"files"`
}

// AddThread prepends a reply to the parent message's thread list.
// Newest-first ordering is a hard invariant: clients render the list
// without re-sorting.
func (s *Service) AddThread(ctx context.Context, orgID, roomID, messageID string, req ThreadRequest) (*models.Message, error) {
	msg, err := s.GetMessage(ctx, orgID, roomID, messageID)
	if err != nil {
		return nil, err
	}

	thread := models.Thread{
		ThreadID:    uuid.NewString(),
		SenderID:    req.SenderID,
		RichContent: req.RichContent,
		Files:       emptyIfNil(req.Files),
		CreatedAt:   time.Now().UTC(),
	}
	msg.Threads = append([]models.Thread{thread}, msg.Threads...)

	if err := s.store.Update(ctx, orgID, Collection, messageID, map[string]any{"threads": msg.Threads}); err != nil {
		s.logger.Error("thread add failed", zap.String("message_id", messageID), zap.Error(err))
		return nil, apperr.Dependency("thread not added: %v", err)
	}

	s.fanout.Publish(roomID, fanout.EventMessageUpdate, msg)
	return msg, nil
}

// ThreadPatch holds the editable thread fields.
type ThreadPatch struct {
	RichContent *models.RichContent `json:"richUiData"`
	Files       *[]string           `json:"files"`
}

// EditThread edits the thread entry matching BOTH threadID and
// senderID. A thread that exists under a different sender is reported
// as NotFound, not Forbidden: from the caller's view no such entry
// exists.
func (s *Service) EditThread(ctx context.Context, orgID, messageID, threadID, senderID string, patch ThreadPatch) (*models.Message, error) {
	msg, err := s.getMessageByID(ctx, orgID, messageID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i, t := range msg.Threads {
		if t.ThreadID == threadID && t.SenderID == senderID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, apperr.NotFound("thread %s not found for sender %s", threadID, senderID)
	}

	if patch.RichContent != nil {
		msg.Threads[idx].RichContent = *patch.RichContent
	}
	if patch.Files != nil {
		msg.Threads[idx].Files = *patch.Files
	}
	msg.Threads[idx].Edited = true

	if err := s.store.Update(ctx, orgID, Collection, messageID, map[string]any{"threads": msg.Threads}); err != nil {
		s.logger.Error("thread edit failed", zap.String("message_id", messageID), zap.Error(err))
		return nil, apperr.Dependency("thread not edited: %v", err)
	}

	s.fanout.Publish(msg.RoomID, fanout.EventMessageUpdate, msg)
	return msg, nil
}

// GetMessage loads one message scoped to a room, or reports NotFound.
func (s *Service) GetMessage(ctx context.Context, orgID, roomID, messageID string) (*models.Message, error) {
	raw, err := s.store.ReadOne(ctx, orgID, Collection, store.Query{
		"_id":     messageID,
		"room_id": roomID,
	}, nil)
	if err != nil {
		return nil, apperr.Dependency("unable to load message: %v", err)
	}
	if raw == nil {
		return nil, apperr.NotFound("message %s not found", messageID)
	}
	return decodeMessage(raw)
}

func (s *Service) getMessageByID(ctx context.Context, orgID, messageID string) (*models.Message, error) {
	raw, err := s.store.ReadOne(ctx, orgID, Collection, store.Query{"_id": messageID}, nil)
	if err != nil {
		return nil, apperr.Dependency("unable to load message: %v", err)
	}
	if raw == nil {
		return nil, apperr.NotFound("message %s not found", messageID)
	}
	return decodeMessage(raw)
}

// RoomMessages lists a room's messages, newest first, with page/limit
// pagination.
func (s *Service) RoomMessages(ctx context.Context, orgID, roomID string, page, limit int) ([]models.Message, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 15
	}
	opts := store.DefaultReadOptions()
	opts.Limit = limit
	opts.Skip = (page - 1) * limit

	raws, err := s.store.ReadMany(ctx, orgID, Collection, store.Query{"room_id": roomID}, opts)
	if err != nil {
		return nil, apperr.Dependency("unable to list messages: %v", err)
	}
	out := make([]models.Message, 0, len(raws))
	for _, raw := range raws {
		msg, err := decodeMessage(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, *msg)
	}
	return out, nil
}

// Threads lists the replies of a message, newest first.
func (s *Service) Threads(ctx context.Context, orgID, roomID, messageID string) ([]models.Thread, error) {
	msg, err := s.GetMessage(ctx, orgID, roomID, messageID)
	if err != nil {
		return nil, err
	}
	return msg.Threads, nil
}

// WaitNotifications blocks until in-flight notification triggers have
// completed.
func (s *Service) WaitNotifications() {
	s.notifyWG.Wait()
}

func decodeMessage(raw json.RawMessage) (*models.Message, error) {
	var msg models.Message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("decode message document: %w", err)
	}
	return &msg, nil
}

func emptyIfNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
