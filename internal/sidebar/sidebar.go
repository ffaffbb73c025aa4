// Package sidebar builds the per-member sidebar payload and publishes
// sidebar_update events after room-shape mutations.
package sidebar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/chiebuka-eze/msgcore/internal/fanout"
	"github.com/chiebuka-eze/msgcore/internal/models"
	"github.com/chiebuka-eze/msgcore/internal/store"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RoomProfile is one sidebar entry.
type RoomProfile struct {
	RoomID   string `json:"room_id"`
	RoomName string `json:"room_name"`
	RoomURL  string `json:"room_url"`
	ImageURL string `json:"image_url"`
	Starred  bool   `json:"starred"`
}

// Data is the full sidebar payload for one member and category.
type Data struct {
	Name           string        `json:"name"`
	Description    string        `json:"description"`
	OrganisationID string        `json:"organisation_id"`
	UserID         string        `json:"user_id"`
	Category       string        `json:"category"`
	ShowGroup      bool          `json:"show_group"`
	ButtonURL      string        `json:"button_url"`
	JoinedRooms    []RoomProfile `json:"joined_rooms"`
	StarredRooms   []RoomProfile `json:"starred_rooms"`
	PublicRooms    []RoomProfile `json:"public_rooms"`
}

// Service assembles sidebar payloads from the store, caching them in
// Redis for a short TTL. The cache is an optimization only: a nil
// client or a cache failure falls through to the store.
type Service struct {
	store  store.Gateway
	fanout *fanout.Coordinator
	cache  *redis.Client
	ttl    time.Duration
	logger *zap.Logger
	wg     sync.WaitGroup
}

func NewService(st store.Gateway, fo *fanout.Coordinator, cache *redis.Client, logger *zap.Logger) *Service {
	return &Service{store: st, fanout: fo, cache: cache, ttl: 30 * time.Second, logger: logger}
}

func cacheKey(orgID, memberID string, roomType models.RoomType) string {
	return fmt.Sprintf("sidebar:%s:%s:%s", orgID, memberID, category(roomType))
}

func category(roomType models.RoomType) string {
	if roomType == models.RoomTypeChannel {
		return "channels"
	}
	return "direct messages"
}

// Build returns the sidebar payload for one member and room category,
// serving from cache when possible.
func (s *Service) Build(ctx context.Context, orgID, memberID string, roomType models.RoomType) (*Data, error) {
	key := cacheKey(orgID, memberID, roomType)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key).Bytes()
		switch {
		case err == nil:
			var data Data
			if err := json.Unmarshal(cached, &data); err == nil {
				return &data, nil
			}
		case !errors.Is(err, redis.Nil):
			s.logger.Debug("sidebar cache read failed", zap.String("key", key), zap.Error(err))
		}
	}

	data, err := s.build(ctx, orgID, memberID, roomType)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(data); err == nil {
			if err := s.cache.Set(ctx, key, encoded, s.ttl).Err(); err != nil {
				s.logger.Debug("sidebar cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
	}
	return data, nil
}

func (s *Service) build(ctx context.Context, orgID, memberID string, roomType models.RoomType) (*Data, error) {
	raws, err := s.store.ReadMany(ctx, orgID, "rooms", store.Query{
		"org_id":                   orgID,
		"room_members." + memberID: store.Exists(),
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("load member rooms: %w", err)
	}

	// Directory lookup is best-effort: without it DM names fall back
	// to member ids.
	directory := map[string]models.OrgMember{}
	if members, err := s.store.OrgMembers(ctx, orgID); err == nil {
		for _, m := range members {
			directory[m.ID] = m
		}
	} else {
		s.logger.Debug("org directory lookup failed", zap.String("org_id", orgID), zap.Error(err))
	}

	isChannelView := roomType == models.RoomTypeChannel
	data := &Data{
		OrganisationID: orgID,
		UserID:         memberID,
		Category:       category(roomType),
		JoinedRooms:    []RoomProfile{},
		StarredRooms:   []RoomProfile{},
		PublicRooms:    []RoomProfile{},
	}
	if isChannelView {
		data.Name = "Channels"
		data.Description = "Sends messages between users in a channel"
		data.ButtonURL = "/channels"
	} else {
		data.Name = "Direct Messages"
		data.Description = "Sends direct messages between users"
		data.ButtonURL = "/dm"
	}

	for _, raw := range raws {
		var room models.Room
		if err := json.Unmarshal(raw, &room); err != nil {
			return nil, fmt.Errorf("decode room document: %w", err)
		}
		if (room.RoomType == models.RoomTypeChannel) != isChannelView {
			continue
		}
		entry, ok := room.Member(memberID)
		if !ok {
			continue
		}
		profile := s.profile(&room, memberID, directory)
		profile.Starred = entry.Starred
		if !entry.Closed {
			data.JoinedRooms = append(data.JoinedRooms, profile)
		}
		if entry.Starred {
			data.StarredRooms = append(data.StarredRooms, profile)
		}
	}

	if isChannelView {
		public, err := s.publicChannels(ctx, orgID, memberID, directory)
		if err != nil {
			return nil, err
		}
		data.PublicRooms = public
	}
	return data, nil
}

func (s *Service) publicChannels(ctx context.Context, orgID, memberID string, directory map[string]models.OrgMember) ([]RoomProfile, error) {
	raws, err := s.store.ReadMany(ctx, orgID, "rooms", store.Query{
		"org_id":     orgID,
		"room_type":  models.RoomTypeChannel,
		"is_private": false,
	}, nil)
	if err != nil {
		return nil, fmt.Errorf("load public channels: %w", err)
	}
	profiles := make([]RoomProfile, 0, len(raws))
	for _, raw := range raws {
		var room models.Room
		if err := json.Unmarshal(raw, &room); err != nil {
			return nil, fmt.Errorf("decode room document: %w", err)
		}
		profiles = append(profiles, s.profile(&room, memberID, directory))
	}
	return profiles, nil
}

// profile derives the display entry for a room. DM and group DM names
// are the other members' names joined, computed at display time.
func (s *Service) profile(room *models.Room, memberID string, directory map[string]models.OrgMember) RoomProfile {
	p := RoomProfile{
		RoomID:  room.ID,
		RoomURL: fmt.Sprintf("/%s/%s", strings.ToLower(string(room.RoomType)), room.ID),
	}
	if room.RoomType == models.RoomTypeChannel {
		p.RoomName = room.RoomName
		return p
	}

	names := make([]string, 0, len(room.RoomMembers))
	for id := range room.RoomMembers {
		if id == memberID {
			continue
		}
		if m, ok := directory[id]; ok {
			names = append(names, m.FullName())
			if p.ImageURL == "" {
				p.ImageURL = m.ImageURL
			}
		} else {
			names = append(names, id)
		}
	}
	p.RoomName = strings.Join(names, ",")
	return p
}

// PublishUpdate invalidates the member's cached sidebar, rebuilds it,
// and fans out a sidebar_update on the member's sidebar channel. Runs
// asynchronously; failures are logged only.
func (s *Service) PublishUpdate(orgID, memberID string, roomType models.RoomType) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if s.cache != nil {
			if err := s.cache.Del(ctx, cacheKey(orgID, memberID, roomType)).Err(); err != nil {
				s.logger.Debug("sidebar cache invalidation failed", zap.Error(err))
			}
		}

		data, err := s.Build(ctx, orgID, memberID, roomType)
		if err != nil {
			s.logger.Warn("sidebar build failed",
				zap.String("org_id", orgID),
				zap.String("member_id", memberID),
				zap.Error(err),
			)
			return
		}
		channel := fmt.Sprintf("%s_%s_sidebar", orgID, memberID)
		s.fanout.Publish(channel, fanout.EventSidebarUpdate, data)
	}()
}

// Wait blocks until scheduled sidebar updates have been handed to the
// fan-out coordinator.
func (s *Service) Wait() {
	s.wg.Wait()
}
