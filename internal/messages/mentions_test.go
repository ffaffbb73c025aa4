package messages

import (
	"testing"

	"github.com/chiebuka-eze/msgcore/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestExtractMentions(t *testing.T) {
	rc := models.RichContent{
		Blocks: []models.ContentBlock{{Key: "b1", Text: "ping @carol", Type: "unstyled"}},
		EntityMap: map[string]models.Entity{
			"0": {Type: "mention", Data: models.EntityData{
				Mention: &models.Mention{MemberID: "carol", Name: "Carol"},
			}},
			"1": {Type: "mention", Data: models.EntityData{
				Mention: &models.Mention{Link: "dave@example.com"},
			}},
			"2": {Type: "link", Data: models.EntityData{}},
			"3": {Type: "mention", Data: models.EntityData{
				Mention: &models.Mention{},
			}},
		},
	}

	mentions := ExtractMentions(rc)
	assert.Len(t, mentions, 2, "entities without member id or link are skipped")
}

func TestExtractMentionsEmptyBody(t *testing.T) {
	mentions := ExtractMentions(models.RichContent{})
	assert.NotNil(t, mentions)
	assert.Empty(t, mentions)
}
