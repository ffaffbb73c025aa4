// Package rooms implements room creation, update, and membership
// rules. All room state lives in the remote store; every mutation is
// validate -> persist -> fan out, with fan-out strictly after the
// store accepted the write.
package rooms

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/chiebuka-eze/msgcore/internal/apperr"
	"github.com/chiebuka-eze/msgcore/internal/fanout"
	"github.com/chiebuka-eze/msgcore/internal/models"
	"github.com/chiebuka-eze/msgcore/internal/store"
	"go.uber.org/zap"
)

// Collection is the store collection holding room documents.
const Collection = "rooms"

const (
	groupDMMinMembers = 3
	groupDMMaxMembers = 9
	dmMembers         = 2
)

// SidebarPublisher pushes refreshed sidebar state to a member after a
// room-shape mutation. Implementations are asynchronous.
type SidebarPublisher interface {
	PublishUpdate(orgID, memberID string, roomType models.RoomType)
}

// Service is the room model and membership engine. It holds no mutable
// state of its own; the store is the single source of truth and the
// sole arbiter of concurrent writes. There is no version check, so
// concurrent updates to the same room are last write wins.
type Service struct {
	store   store.Gateway
	fanout  *fanout.Coordinator
	sidebar SidebarPublisher
	logger  *zap.Logger
}

func NewService(st store.Gateway, fo *fanout.Coordinator, sb SidebarPublisher, logger *zap.Logger) *Service {
	return &Service{store: st, fanout: fo, sidebar: sb, logger: logger}
}

// CreateRequest carries the caller-controlled fields of a new room.
type CreateRequest struct {
	RoomType    models.RoomType              `json:"room_type"`
	RoomName    string                       `json:"room_name"`
	RoomMembers map[string]models.RoomMember `json:"room_members"`
	Topic       *string                      `json:"topic"`
	Description *string                      `json:"description"`
	IsPrivate   bool                         `json:"is_private"`
}

// Create validates a room request against the type-specific rules,
// persists it, and fans out the creation.
//
// Duplicate handling differs by type: a CHANNEL whose name collides
// case-insensitively is an invariant violation, while a DM/GROUP_DM
// whose member set already exists yields an AlreadyExists carrying the
// existing room id, an idempotent success rather than a failure.
func (s *Service) Create(ctx context.Context, orgID, creatorID string, req CreateRequest) (*models.Room, error) {
	if !req.RoomType.Valid() {
		return nil, apperr.Invariant("unknown room type %q", req.RoomType)
	}

	members := make(map[string]models.RoomMember, len(req.RoomMembers)+1)
	for id, m := range req.RoomMembers {
		if m.Role != models.RoleAdmin {
			m.Role = models.RoleMember
		}
		members[id] = m
	}
	// The creator is always a member and always an admin.
	creator := members[creatorID]
	creator.Role = models.RoleAdmin
	members[creatorID] = creator

	room := &models.Room{
		OrgID:       orgID,
		CreatedBy:   creatorID,
		RoomType:    req.RoomType,
		RoomMembers: members,
		IsPrivate:   req.IsPrivate,
		CreatedAt:   time.Now().UTC(),
	}

	switch req.RoomType {
	case models.RoomTypeChannel:
		if strings.TrimSpace(req.RoomName) == "" {
			return nil, apperr.Invariant("channel requires a room name")
		}
		room.RoomName = req.RoomName
		room.Topic = req.Topic
		room.Description = req.Description
		if err := s.checkChannelName(ctx, orgID, req.RoomName, ""); err != nil {
			return nil, err
		}

	case models.RoomTypeDM:
		if req.Topic != nil || req.Description != nil {
			return nil, apperr.Invariant("topic and description are not allowed on a DM")
		}
		if len(members) != dmMembers {
			return nil, apperr.Invariant("DM requires exactly %d members, got %d", dmMembers, len(members))
		}
		room.IsPrivate = true
		if err := s.checkDuplicateMemberSet(ctx, orgID, room); err != nil {
			return nil, err
		}

	case models.RoomTypeGroupDM:
		if req.Topic != nil || req.Description != nil {
			return nil, apperr.Invariant("topic and description are not allowed on a group DM")
		}
		if len(members) < groupDMMinMembers || len(members) > groupDMMaxMembers {
			return nil, apperr.Invariant(
				"group DM requires between %d and %d members, got %d",
				groupDMMinMembers, groupDMMaxMembers, len(members),
			)
		}
		room.IsPrivate = true
		if err := s.checkDuplicateMemberSet(ctx, orgID, room); err != nil {
			return nil, err
		}
	}

	id, err := s.store.Write(ctx, orgID, Collection, room)
	if err != nil {
		s.logger.Error("room write failed", zap.String("org_id", orgID), zap.Error(err))
		return nil, apperr.Dependency("unable to create room: %v", err)
	}
	room.ID = id

	s.fanout.Publish(room.ID, fanout.EventRoomCreate, room)
	s.sidebar.PublishUpdate(orgID, creatorID, room.RoomType)
	return room, nil
}

// UpdatePatch holds the channel-mutable room fields. Nil means "leave
// unchanged".
type UpdatePatch struct {
	RoomName    *string `json:"room_name"`
	Topic       *string `json:"topic"`
	Description *string `json:"description"`
	IsArchived  *bool   `json:"is_archived"`
}

// Update applies a structural patch to a channel. Admin-only; DM and
// GROUP_DM rooms accept no structural patch beyond membership.
func (s *Service) Update(ctx context.Context, orgID, roomID, actorID string, patch UpdatePatch) (*models.Room, error) {
	room, err := s.GetRoom(ctx, orgID, roomID)
	if err != nil {
		return nil, err
	}
	if !room.IsAdmin(actorID) {
		return nil, apperr.Forbidden("only an admin may update the room")
	}
	if room.RoomType != models.RoomTypeChannel {
		return nil, apperr.Invariant("%s rooms accept no structural updates", room.RoomType)
	}

	fields := make(map[string]any)
	if patch.RoomName != nil {
		if strings.TrimSpace(*patch.RoomName) == "" {
			return nil, apperr.Invariant("channel requires a room name")
		}
		if err := s.checkChannelName(ctx, orgID, *patch.RoomName, room.ID); err != nil {
			return nil, err
		}
		room.RoomName = *patch.RoomName
		fields["room_name"] = *patch.RoomName
	}
	if patch.Topic != nil {
		room.Topic = patch.Topic
		fields["topic"] = *patch.Topic
	}
	if patch.Description != nil {
		room.Description = patch.Description
		fields["description"] = *patch.Description
	}
	if patch.IsArchived != nil {
		room.IsArchived = *patch.IsArchived
		fields["is_archived"] = *patch.IsArchived
	}
	if len(fields) == 0 {
		return room, nil
	}

	if err := s.store.Update(ctx, orgID, Collection, roomID, fields); err != nil {
		s.logger.Error("room update failed", zap.String("room_id", roomID), zap.Error(err))
		return nil, apperr.Dependency("unable to update room: %v", err)
	}

	s.fanout.Publish(room.ID, fanout.EventRoomUpdate, room)
	return room, nil
}

// GetRoom loads one room or reports NotFound.
func (s *Service) GetRoom(ctx context.Context, orgID, roomID string) (*models.Room, error) {
	raw, err := s.store.ReadOne(ctx, orgID, Collection, store.Query{"_id": roomID}, nil)
	if err != nil {
		return nil, apperr.Dependency("unable to load room: %v", err)
	}
	if raw == nil {
		return nil, apperr.NotFound("room %s not found", roomID)
	}
	return decodeRoom(raw)
}

// OrgRooms lists all rooms in the organization, newest first.
func (s *Service) OrgRooms(ctx context.Context, orgID string) ([]models.Room, error) {
	return s.queryRooms(ctx, orgID, store.Query{"org_id": orgID})
}

// MemberRooms lists the rooms a member belongs to.
func (s *Service) MemberRooms(ctx context.Context, orgID, memberID string) ([]models.Room, error) {
	return s.queryRooms(ctx, orgID, store.Query{
		"org_id":                   orgID,
		"room_members." + memberID: store.Exists(),
	})
}

func (s *Service) queryRooms(ctx context.Context, orgID string, query store.Query) ([]models.Room, error) {
	raws, err := s.store.ReadMany(ctx, orgID, Collection, query, nil)
	if err != nil {
		return nil, apperr.Dependency("unable to list rooms: %v", err)
	}
	rooms := make([]models.Room, 0, len(raws))
	for _, raw := range raws {
		room, err := decodeRoom(raw)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, *room)
	}
	return rooms, nil
}

// checkChannelName enforces case-insensitive channel-name uniqueness
// inside the org. The check must complete: a store failure here aborts
// the mutation rather than risking a duplicate.
func (s *Service) checkChannelName(ctx context.Context, orgID, name, excludeRoomID string) error {
	existing, err := s.store.ReadMany(ctx, orgID, Collection, store.Query{
		"org_id":    orgID,
		"room_type": models.RoomTypeChannel,
	}, nil)
	if err != nil {
		return apperr.Dependency("unable to verify channel name: %v", err)
	}
	for _, raw := range existing {
		room, err := decodeRoom(raw)
		if err != nil {
			return err
		}
		if room.ID != excludeRoomID && strings.EqualFold(room.RoomName, name) {
			return apperr.Invariant("a channel named %q already exists", room.RoomName)
		}
	}
	return nil
}

// checkDuplicateMemberSet enforces that no two DM/GROUP_DM rooms in an
// org share the same member set, ignoring order. A hit is reported as
// AlreadyExists carrying the existing room's id.
func (s *Service) checkDuplicateMemberSet(ctx context.Context, orgID string, room *models.Room) error {
	existing, err := s.store.ReadMany(ctx, orgID, Collection, store.Query{
		"org_id":    orgID,
		"room_type": room.RoomType,
	}, nil)
	if err != nil {
		return apperr.Dependency("unable to verify existing rooms: %v", err)
	}
	want := room.MemberIDSet()
	for _, raw := range existing {
		other, err := decodeRoom(raw)
		if err != nil {
			return err
		}
		if sameMemberSet(want, other.MemberIDSet()) {
			return apperr.AlreadyExists(other.ID, "a %s with these members already exists", room.RoomType)
		}
	}
	return nil
}

func sameMemberSet(a, b map[string]struct{}) bool {
	if len(a) != len(b) {
		return false
	}
	for id := range a {
		if _, ok := b[id]; !ok {
			return false
		}
	}
	return true
}

func decodeRoom(raw json.RawMessage) (*models.Room, error) {
	var room models.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, fmt.Errorf("decode room document: %w", err)
	}
	return &room, nil
}
