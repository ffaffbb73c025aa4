package rooms

import (
	"context"

	"github.com/chiebuka-eze/msgcore/internal/apperr"
	"github.com/chiebuka-eze/msgcore/internal/fanout"
	"github.com/chiebuka-eze/msgcore/internal/models"
	"go.uber.org/zap"
)

// AddMembers admits new members to a room on behalf of actorID. The
// batch is atomic: if the resulting member set would break a bound,
// nothing is written.
//
// Rules, in precedence order: the room must exist; DM rooms never
// admit anyone; GROUP_DM admissions require an admin actor and a
// resulting set of at most nine unique members; private channels
// require an admin actor; public channels allow self-join by anyone
// and additions by any existing member. Re-adding a current member is
// an idempotent no-op that keeps the existing entry.
func (s *Service) AddMembers(ctx context.Context, orgID, roomID, actorID string, newMembers map[string]models.RoomMember) (*models.Room, error) {
	room, err := s.GetRoom(ctx, orgID, roomID)
	if err != nil {
		return nil, err
	}
	if room.RoomType == models.RoomTypeDM {
		return nil, apperr.Forbidden("DM room cannot be joined")
	}
	if len(newMembers) == 0 {
		return nil, apperr.Invariant("no members to add")
	}

	_, selfJoin := newMembers[actorID]
	selfJoin = selfJoin && len(newMembers) == 1

	switch room.RoomType {
	case models.RoomTypeGroupDM:
		if !room.IsAdmin(actorID) {
			return nil, apperr.Forbidden("member not in room or not an admin")
		}
	case models.RoomTypeChannel:
		if room.IsPrivate {
			if !room.IsAdmin(actorID) {
				return nil, apperr.Forbidden("only an admin may add members to a private channel")
			}
		} else if !selfJoin {
			if _, ok := room.Member(actorID); !ok {
				return nil, apperr.Forbidden("only room members may add others")
			}
		}
	}

	updated := make(map[string]models.RoomMember, len(room.RoomMembers)+len(newMembers))
	for id, m := range room.RoomMembers {
		updated[id] = m
	}
	added := make(map[string]models.RoomMember, len(newMembers))
	for id, m := range newMembers {
		if _, exists := updated[id]; exists {
			continue
		}
		if m.Role != models.RoleAdmin {
			m.Role = models.RoleMember
		}
		updated[id] = m
		added[id] = m
	}

	// The cap applies to the resulting set, so a batch that would
	// overflow is rejected whole even if part of it would fit.
	if room.RoomType == models.RoomTypeGroupDM && len(updated) > groupDMMaxMembers {
		return nil, apperr.Invariant(
			"group DM cannot exceed %d members, adding %d would make %d",
			groupDMMaxMembers, len(added), len(updated),
		)
	}

	if len(added) == 0 {
		return room, nil
	}

	if err := s.store.Update(ctx, orgID, Collection, roomID, map[string]any{"room_members": updated}); err != nil {
		s.logger.Error("member add failed",
			zap.String("room_id", roomID),
			zap.Int("count", len(added)),
			zap.Error(err),
		)
		return nil, apperr.Dependency("unable to add members: %v", err)
	}
	room.RoomMembers = updated

	s.fanout.Publish(roomID, fanout.EventRoomMemberAdd, added)
	for id := range added {
		s.sidebar.PublishUpdate(orgID, id, room.RoomType)
	}
	return room, nil
}

// RemoveMember removes targetID from a room. When actorID equals
// targetID this is a voluntary leave; otherwise the actor must hold
// the admin role. The room creator can never leave or be removed.
func (s *Service) RemoveMember(ctx context.Context, orgID, roomID, actorID, targetID string) (*models.Room, error) {
	room, err := s.GetRoom(ctx, orgID, roomID)
	if err != nil {
		return nil, err
	}
	if room.RoomType == models.RoomTypeDM {
		return nil, apperr.Forbidden("members cannot be removed from a DM")
	}
	if room.CreatedBy == targetID {
		return nil, apperr.Forbidden("room owner cannot leave or be removed")
	}
	if _, ok := room.Member(targetID); !ok {
		return nil, apperr.NotFound("member %s is not in the room", targetID)
	}
	if actorID != targetID && !room.IsAdmin(actorID) {
		return nil, apperr.Forbidden("only an admin may remove another member")
	}
	if room.RoomType == models.RoomTypeGroupDM && len(room.RoomMembers)-1 < groupDMMinMembers {
		return nil, apperr.Invariant(
			"group DM cannot have fewer than %d members", groupDMMinMembers,
		)
	}

	updated := make(map[string]models.RoomMember, len(room.RoomMembers)-1)
	for id, m := range room.RoomMembers {
		if id != targetID {
			updated[id] = m
		}
	}

	if err := s.store.Update(ctx, orgID, Collection, roomID, map[string]any{"room_members": updated}); err != nil {
		s.logger.Error("member remove failed",
			zap.String("room_id", roomID),
			zap.String("target_id", targetID),
			zap.Error(err),
		)
		return nil, apperr.Dependency("unable to remove room member: %v", err)
	}
	room.RoomMembers = updated

	s.fanout.Publish(roomID, fanout.EventRoomMemberRemove, map[string]string{
		"room_id":   roomID,
		"member_id": targetID,
	})
	s.fanout.Unsubscribe(targetID, roomID)
	s.sidebar.PublishUpdate(orgID, targetID, room.RoomType)
	return room, nil
}
