package messages

import "github.com/chiebuka-eze/msgcore/internal/models"

// ExtractMentions pulls mention entities out of a rich-content entity
// map without altering the message structure. A body with no mentions
// yields an empty slice; that is not an error.
func ExtractMentions(rc models.RichContent) []models.Mention {
	mentions := make([]models.Mention, 0, len(rc.EntityMap))
	for _, entity := range rc.EntityMap {
		if entity.Data.Mention == nil {
			continue
		}
		m := *entity.Data.Mention
		if m.MemberID == "" && m.Link == "" {
			continue
		}
		mentions = append(mentions, m)
	}
	return mentions
}
