package rooms

import (
	"context"
	"testing"

	"github.com/chiebuka-eze/msgcore/internal/apperr"
	"github.com/chiebuka-eze/msgcore/internal/fanout"
	"github.com/chiebuka-eze/msgcore/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (f *fixture) mustCreate(t *testing.T, creatorID string, req CreateRequest) *models.Room {
	t.Helper()
	room, err := f.svc.Create(context.Background(), testOrg, creatorID, req)
	require.NoError(t, err)
	return room
}

func TestAddMembersToDM(t *testing.T) {
	f := newFixture(t)
	room := f.mustCreate(t, "alice", CreateRequest{
		RoomType:    models.RoomTypeDM,
		RoomMembers: members("alice", "bob"),
	})

	_, err := f.svc.AddMembers(context.Background(), testOrg, room.ID, "alice", members("carol"))
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
}

func TestAddMembersEmptyBatch(t *testing.T) {
	f := newFixture(t)
	room := f.mustCreate(t, "alice", CreateRequest{
		RoomType:    models.RoomTypeChannel,
		RoomName:    "general",
		RoomMembers: members("alice"),
	})

	_, err := f.svc.AddMembers(context.Background(), testOrg, room.ID, "alice", nil)
	assert.Equal(t, apperr.CodeInvariant, apperr.CodeOf(err))
}

func TestAddMembersPublicChannelSelfJoin(t *testing.T) {
	f := newFixture(t)
	room := f.mustCreate(t, "alice", CreateRequest{
		RoomType:    models.RoomTypeChannel,
		RoomName:    "general",
		RoomMembers: members("alice"),
	})

	updated, err := f.svc.AddMembers(context.Background(), testOrg, room.ID, "dave", members("dave"))
	require.NoError(t, err)
	entry, ok := updated.Member("dave")
	require.True(t, ok)
	assert.Equal(t, models.RoleMember, entry.Role)

	f.co.Wait()
	added := f.rec.ByEvent(fanout.EventRoomMemberAdd)
	require.Len(t, added, 1)
	assert.Equal(t, room.ID, added[0].Channel)
}

func TestAddMembersPublicChannelNonMemberCannotAddOthers(t *testing.T) {
	f := newFixture(t)
	room := f.mustCreate(t, "alice", CreateRequest{
		RoomType:    models.RoomTypeChannel,
		RoomName:    "general",
		RoomMembers: members("alice"),
	})

	_, err := f.svc.AddMembers(context.Background(), testOrg, room.ID, "dave", members("erin"))
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
}

func TestAddMembersPublicChannelMemberAddsOthers(t *testing.T) {
	f := newFixture(t)
	room := f.mustCreate(t, "alice", CreateRequest{
		RoomType:    models.RoomTypeChannel,
		RoomName:    "general",
		RoomMembers: members("alice", "bob"),
	})

	updated, err := f.svc.AddMembers(context.Background(), testOrg, room.ID, "bob", members("erin", "frank"))
	require.NoError(t, err)
	assert.Len(t, updated.RoomMembers, 4)

	require.Len(t, f.sidebar.updates, 3, "creator on create plus one per added member")
}

func TestAddMembersPrivateChannelRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	room := f.mustCreate(t, "alice", CreateRequest{
		RoomType:    models.RoomTypeChannel,
		RoomName:    "secrets",
		RoomMembers: members("alice", "bob"),
		IsPrivate:   true,
	})
	ctx := context.Background()

	_, err := f.svc.AddMembers(ctx, testOrg, room.ID, "bob", members("carol"))
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	// Self-join is not an exception on a private channel either.
	_, err = f.svc.AddMembers(ctx, testOrg, room.ID, "dave", members("dave"))
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	_, err = f.svc.AddMembers(ctx, testOrg, room.ID, "alice", members("carol"))
	assert.NoError(t, err)
}

func TestAddMembersGroupDMRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	room := f.mustCreate(t, "alice", CreateRequest{
		RoomType:    models.RoomTypeGroupDM,
		RoomMembers: members("alice", "bob", "carol"),
	})

	_, err := f.svc.AddMembers(context.Background(), testOrg, room.ID, "bob", members("dave"))
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
}

func TestAddMembersGroupDMCapIsAtomic(t *testing.T) {
	f := newFixture(t)
	room := f.mustCreate(t, "alice", CreateRequest{
		RoomType: models.RoomTypeGroupDM,
		RoomMembers: members(
			"alice", "b", "c", "d", "e", "f", "g", "h",
		),
	})
	updatesBefore := f.store.Updates

	// Eight current members; adding two would land on ten. The whole
	// batch is rejected even though one more would fit.
	_, err := f.svc.AddMembers(context.Background(), testOrg, room.ID, "alice", members("i", "j"))
	assert.Equal(t, apperr.CodeInvariant, apperr.CodeOf(err))
	assert.Equal(t, updatesBefore, f.store.Updates)

	updated, err := f.svc.AddMembers(context.Background(), testOrg, room.ID, "alice", members("i"))
	require.NoError(t, err)
	assert.Len(t, updated.RoomMembers, 9)
}

func TestAddMembersIdempotentReAdd(t *testing.T) {
	f := newFixture(t)
	room := f.mustCreate(t, "alice", CreateRequest{
		RoomType:    models.RoomTypeChannel,
		RoomName:    "general",
		RoomMembers: members("alice", "bob"),
	})
	updatesBefore := f.store.Updates

	updated, err := f.svc.AddMembers(context.Background(), testOrg, room.ID, "alice",
		map[string]models.RoomMember{"bob": {Role: models.RoleAdmin}})
	require.NoError(t, err)

	// Existing entry kept as-is, no write, no fan-out.
	entry, _ := updated.Member("bob")
	assert.Equal(t, models.RoleMember, entry.Role)
	assert.Equal(t, updatesBefore, f.store.Updates)
	f.co.Wait()
	assert.Empty(t, f.rec.ByEvent(fanout.EventRoomMemberAdd))
}

func TestRemoveMemberFromDM(t *testing.T) {
	f := newFixture(t)
	room := f.mustCreate(t, "alice", CreateRequest{
		RoomType:    models.RoomTypeDM,
		RoomMembers: members("alice", "bob"),
	})

	_, err := f.svc.RemoveMember(context.Background(), testOrg, room.ID, "bob", "bob")
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
}

func TestRemoveCreator(t *testing.T) {
	f := newFixture(t)
	room := f.mustCreate(t, "alice", CreateRequest{
		RoomType:    models.RoomTypeChannel,
		RoomName:    "general",
		RoomMembers: members("alice", "bob"),
	})
	ctx := context.Background()

	// Not even voluntarily, not even by another admin.
	_, err := f.svc.RemoveMember(ctx, testOrg, room.ID, "alice", "alice")
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	_, err = f.svc.AddMembers(ctx, testOrg, room.ID, "alice",
		map[string]models.RoomMember{"carol": {Role: models.RoleAdmin}})
	require.NoError(t, err)
	_, err = f.svc.RemoveMember(ctx, testOrg, room.ID, "carol", "alice")
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))
}

func TestRemoveMemberVoluntaryLeave(t *testing.T) {
	f := newFixture(t)
	room := f.mustCreate(t, "alice", CreateRequest{
		RoomType:    models.RoomTypeChannel,
		RoomName:    "general",
		RoomMembers: members("alice", "bob"),
	})

	updated, err := f.svc.RemoveMember(context.Background(), testOrg, room.ID, "bob", "bob")
	require.NoError(t, err)
	_, stillThere := updated.Member("bob")
	assert.False(t, stillThere)

	f.co.Wait()
	removed := f.rec.ByEvent(fanout.EventRoomMemberRemove)
	require.Len(t, removed, 1)
	assert.Equal(t, room.ID, removed[0].Channel)

	unsubs := f.rec.Unsubscribed()
	require.Len(t, unsubs, 1)
	assert.Equal(t, "bob", unsubs[0].MemberID)
	assert.Equal(t, room.ID, unsubs[0].Channel)
}

func TestRemoveMemberRequiresAdmin(t *testing.T) {
	f := newFixture(t)
	room := f.mustCreate(t, "alice", CreateRequest{
		RoomType:    models.RoomTypeChannel,
		RoomName:    "general",
		RoomMembers: members("alice", "bob", "carol"),
	})
	ctx := context.Background()

	_, err := f.svc.RemoveMember(ctx, testOrg, room.ID, "bob", "carol")
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	_, err = f.svc.RemoveMember(ctx, testOrg, room.ID, "alice", "carol")
	assert.NoError(t, err)
}

func TestRemoveMemberNotInRoom(t *testing.T) {
	f := newFixture(t)
	room := f.mustCreate(t, "alice", CreateRequest{
		RoomType:    models.RoomTypeChannel,
		RoomName:    "general",
		RoomMembers: members("alice"),
	})

	_, err := f.svc.RemoveMember(context.Background(), testOrg, room.ID, "alice", "ghost")
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))
}

func TestRemoveMemberGroupDMFloor(t *testing.T) {
	f := newFixture(t)
	room := f.mustCreate(t, "alice", CreateRequest{
		RoomType:    models.RoomTypeGroupDM,
		RoomMembers: members("alice", "bob", "carol"),
	})

	_, err := f.svc.RemoveMember(context.Background(), testOrg, room.ID, "bob", "bob")
	assert.Equal(t, apperr.CodeInvariant, apperr.CodeOf(err))
}
