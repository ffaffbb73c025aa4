package messages

import (
	"context"
	"time"

	"github.com/chiebuka-eze/msgcore/internal/models"
	"github.com/chiebuka-eze/msgcore/internal/notify"
	"go.uber.org/zap"
)

// dispatchNotifications schedules best-effort notification triggers
// for a freshly created message: one for the room's members and, when
// the body mentions members, one for the mentioned members. Failures
// are logged and dropped.
func (s *Service) dispatchNotifications(room *models.Room, msg *models.Message) {
	recipients := make([]string, 0, len(room.RoomMembers))
	for id := range room.RoomMembers {
		if id != msg.SenderID {
			recipients = append(recipients, id)
		}
	}

	// DM and group DM rooms have no display name of their own, so both
	// notify as direct messages.
	kind := notify.KindChannelMessage
	channelName := room.RoomName
	if room.RoomType != models.RoomTypeChannel {
		kind = notify.KindDirectMessage
		channelName = ""
	}

	mentions := ExtractMentions(msg.RichContent)
	senderID := msg.SenderID
	body := msg.RichContent.PlainText()
	orgID := msg.OrgID

	s.notifyWG.Add(1)
	go func() {
		defer s.notifyWG.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		senderName := s.lookupSenderName(ctx, orgID, senderID)
		payload := notify.Payload{
			SenderName:  senderName,
			ChannelName: channelName,
			MessageBody: body,
		}

		if err := s.notifier.Trigger(ctx, notify.Trigger{
			Name:    kind,
			Payload: payload,
			To:      recipients,
		}); err != nil {
			s.logger.Warn("message notification failed",
				zap.String("room_id", msg.RoomID),
				zap.Error(err),
			)
		}

		tagged := s.resolveMentions(ctx, orgID, mentions)
		if len(tagged) == 0 {
			return
		}
		if err := s.notifier.Trigger(ctx, notify.Trigger{
			Name:    notify.KindChannelMessage,
			Payload: payload,
			To:      tagged,
		}); err != nil {
			s.logger.Warn("mention notification failed",
				zap.String("room_id", msg.RoomID),
				zap.Error(err),
			)
		}
	}()
}

func (s *Service) lookupSenderName(ctx context.Context, orgID, senderID string) string {
	members, err := s.store.OrgMembers(ctx, orgID)
	if err != nil {
		s.logger.Debug("sender lookup failed", zap.String("org_id", orgID), zap.Error(err))
		return senderID
	}
	for _, m := range members {
		if m.ID == senderID {
			if name := m.FullName(); name != "" {
				return name
			}
			break
		}
	}
	return senderID
}

// resolveMentions maps mention entities to member ids. Mentions may
// carry the member id directly or only an email-shaped link that is
// resolved against the org directory.
func (s *Service) resolveMentions(ctx context.Context, orgID string, mentions []models.Mention) []string {
	var needLookup []models.Mention
	ids := make([]string, 0, len(mentions))
	for _, m := range mentions {
		if m.MemberID != "" {
			ids = append(ids, m.MemberID)
			continue
		}
		if m.Link != "" {
			needLookup = append(needLookup, m)
		}
	}
	if len(needLookup) == 0 {
		return ids
	}

	members, err := s.store.OrgMembers(ctx, orgID)
	if err != nil {
		s.logger.Debug("mention lookup failed", zap.String("org_id", orgID), zap.Error(err))
		return ids
	}
	byEmail := make(map[string]string, len(members))
	for _, m := range members {
		byEmail[m.Email] = m.ID
	}
	for _, m := range needLookup {
		if id, ok := byEmail[m.Link]; ok {
			ids = append(ids, id)
		}
	}
	return ids
}
