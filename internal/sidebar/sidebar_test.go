package sidebar

import (
	"context"
	"fmt"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/chiebuka-eze/msgcore/internal/fanout"
	"github.com/chiebuka-eze/msgcore/internal/fanout/fanouttest"
	"github.com/chiebuka-eze/msgcore/internal/models"
	"github.com/chiebuka-eze/msgcore/internal/store/storetest"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const testOrg = "org-1"

type fixture struct {
	svc   *Service
	store *storetest.Fake
	rec   *fanouttest.Recorder
	co    *fanout.Coordinator
}

func newFixture(t *testing.T, cache *redis.Client) *fixture {
	t.Helper()
	f := &fixture{
		store: storetest.New(),
		rec:   fanouttest.New(),
	}
	f.co = fanout.NewCoordinator(f.rec, zap.NewNop())
	f.svc = NewService(f.store, f.co, cache, zap.NewNop())
	return f
}

func newCache(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func (f *fixture) seedRoom(t *testing.T, room models.Room) string {
	t.Helper()
	room.OrgID = testOrg
	id, err := f.store.Write(context.Background(), testOrg, "rooms", room)
	require.NoError(t, err)
	return id
}

func TestBuildChannelView(t *testing.T) {
	f := newFixture(t, nil)

	joined := f.seedRoom(t, models.Room{
		RoomType: models.RoomTypeChannel,
		RoomName: "general",
		RoomMembers: map[string]models.RoomMember{
			"alice": {Role: models.RoleMember},
		},
	})
	starred := f.seedRoom(t, models.Room{
		RoomType: models.RoomTypeChannel,
		RoomName: "announcements",
		RoomMembers: map[string]models.RoomMember{
			"alice": {Role: models.RoleMember, Starred: true},
		},
	})
	f.seedRoom(t, models.Room{
		RoomType: models.RoomTypeChannel,
		RoomName: "random",
		RoomMembers: map[string]models.RoomMember{
			"bob": {Role: models.RoleAdmin},
		},
	})
	// DMs never appear in the channel view.
	f.seedRoom(t, models.Room{
		RoomType:  models.RoomTypeDM,
		IsPrivate: true,
		RoomMembers: map[string]models.RoomMember{
			"alice": {}, "bob": {},
		},
	})

	data, err := f.svc.Build(context.Background(), testOrg, "alice", models.RoomTypeChannel)
	require.NoError(t, err)

	assert.Equal(t, "channels", data.Category)
	assert.Equal(t, testOrg, data.OrganisationID)
	assert.Equal(t, "alice", data.UserID)

	require.Len(t, data.JoinedRooms, 2)
	ids := map[string]bool{}
	for _, p := range data.JoinedRooms {
		ids[p.RoomID] = true
	}
	assert.True(t, ids[joined])
	assert.True(t, ids[starred])

	require.Len(t, data.StarredRooms, 1)
	assert.Equal(t, starred, data.StarredRooms[0].RoomID)

	// All three channels are public, so all show up for discovery.
	assert.Len(t, data.PublicRooms, 3)
}

func TestBuildSkipsClosedConversations(t *testing.T) {
	f := newFixture(t, nil)

	f.seedRoom(t, models.Room{
		RoomType:  models.RoomTypeDM,
		IsPrivate: true,
		RoomMembers: map[string]models.RoomMember{
			"alice": {Closed: true}, "bob": {},
		},
	})

	data, err := f.svc.Build(context.Background(), testOrg, "alice", models.RoomTypeDM)
	require.NoError(t, err)
	assert.Empty(t, data.JoinedRooms)
}

func TestBuildDMDisplayNames(t *testing.T) {
	f := newFixture(t, nil)
	f.store.Members = []models.OrgMember{
		{ID: "bob", FirstName: "Bob", LastName: "Marley", ImageURL: "https://img.example/bob.png"},
	}

	id := f.seedRoom(t, models.Room{
		RoomType:  models.RoomTypeDM,
		IsPrivate: true,
		RoomMembers: map[string]models.RoomMember{
			"alice": {}, "bob": {},
		},
	})

	data, err := f.svc.Build(context.Background(), testOrg, "alice", models.RoomTypeDM)
	require.NoError(t, err)

	assert.Equal(t, "direct messages", data.Category)
	require.Len(t, data.JoinedRooms, 1)
	profile := data.JoinedRooms[0]
	assert.Equal(t, id, profile.RoomID)
	assert.Equal(t, "Bob Marley", profile.RoomName)
	assert.Equal(t, "https://img.example/bob.png", profile.ImageURL)
	assert.Equal(t, "/dm/"+id, profile.RoomURL)
}

func TestBuildDMNameFallsBackToID(t *testing.T) {
	f := newFixture(t, nil)

	f.seedRoom(t, models.Room{
		RoomType:  models.RoomTypeDM,
		IsPrivate: true,
		RoomMembers: map[string]models.RoomMember{
			"alice": {}, "bob": {},
		},
	})

	data, err := f.svc.Build(context.Background(), testOrg, "alice", models.RoomTypeDM)
	require.NoError(t, err)
	require.Len(t, data.JoinedRooms, 1)
	assert.Equal(t, "bob", data.JoinedRooms[0].RoomName)
}

func TestBuildServesFromCache(t *testing.T) {
	cache := newCache(t)
	f := newFixture(t, cache)

	f.seedRoom(t, models.Room{
		RoomType: models.RoomTypeChannel,
		RoomName: "general",
		RoomMembers: map[string]models.RoomMember{
			"alice": {},
		},
	})
	ctx := context.Background()

	first, err := f.svc.Build(ctx, testOrg, "alice", models.RoomTypeChannel)
	require.NoError(t, err)
	readsAfterMiss := f.store.Reads
	require.Positive(t, readsAfterMiss)

	second, err := f.svc.Build(ctx, testOrg, "alice", models.RoomTypeChannel)
	require.NoError(t, err)
	assert.Equal(t, readsAfterMiss, f.store.Reads, "a cache hit must not touch the store")
	assert.Equal(t, first, second)
}

func TestPublishUpdateInvalidatesAndFansOut(t *testing.T) {
	cache := newCache(t)
	f := newFixture(t, cache)

	f.seedRoom(t, models.Room{
		RoomType: models.RoomTypeChannel,
		RoomName: "general",
		RoomMembers: map[string]models.RoomMember{
			"alice": {},
		},
	})
	ctx := context.Background()

	// Warm the cache, then mutate the underlying rooms.
	_, err := f.svc.Build(ctx, testOrg, "alice", models.RoomTypeChannel)
	require.NoError(t, err)
	f.seedRoom(t, models.Room{
		RoomType: models.RoomTypeChannel,
		RoomName: "random",
		RoomMembers: map[string]models.RoomMember{
			"alice": {},
		},
	})

	f.svc.PublishUpdate(testOrg, "alice", models.RoomTypeChannel)
	f.svc.Wait()
	f.co.Wait()

	published := f.rec.ByEvent(fanout.EventSidebarUpdate)
	require.Len(t, published, 1)
	assert.Equal(t, fmt.Sprintf("%s_alice_sidebar", testOrg), published[0].Channel)

	data, ok := published[0].Data.(*Data)
	require.True(t, ok)
	assert.Len(t, data.JoinedRooms, 2, "the stale cached payload must not be republished")
}
