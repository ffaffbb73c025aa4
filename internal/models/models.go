package models

import (
	"encoding/json"
	"time"
)

// RoomType discriminates the three kinds of rooms. The type is fixed at
// creation and never changes afterwards.
type RoomType string

const (
	RoomTypeDM      RoomType = "DM"
	RoomTypeGroupDM RoomType = "GROUP_DM"
	RoomTypeChannel RoomType = "CHANNEL"
)

// Valid reports whether rt is one of the known room types.
func (rt RoomType) Valid() bool {
	switch rt {
	case RoomTypeDM, RoomTypeGroupDM, RoomTypeChannel:
		return true
	}
	return false
}

// Role of a member inside a room.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// RoomMember is the per-member value embedded in Room.RoomMembers.
// Starred and Closed are per-member UI state (sidebar pinning and
// hidden conversations) carried alongside the role.
type RoomMember struct {
	Role    Role `json:"role"`
	Starred bool `json:"starred"`
	Closed  bool `json:"closed"`
}

// Room is a DM, group DM, or channel within an organization.
//
// The store assigns ID on the first write; before that it is empty.
// RoomMembers is owned exclusively by the room document; membership
// mutations rewrite the whole map via an update.
//
// Topic and Description are pointers because they must serialize as
// absent for DM and GROUP_DM rooms, not as empty strings.
type Room struct {
	ID          string                `json:"_id,omitempty"`
	OrgID       string                `json:"org_id"`
	CreatedBy   string                `json:"created_by"`
	RoomType    RoomType              `json:"room_type"`
	RoomName    string                `json:"room_name,omitempty"`
	RoomMembers map[string]RoomMember `json:"room_members"`
	Topic       *string               `json:"topic,omitempty"`
	Description *string               `json:"description,omitempty"`
	IsPrivate   bool                  `json:"is_private"`
	IsArchived  bool                  `json:"is_archived"`
	CreatedAt   time.Time             `json:"created_at"`
}

// Member returns the membership entry for id, if present.
func (r *Room) Member(id string) (RoomMember, bool) {
	m, ok := r.RoomMembers[id]
	return m, ok
}

// IsAdmin reports whether id is a member holding the admin role.
func (r *Room) IsAdmin(id string) bool {
	m, ok := r.RoomMembers[id]
	return ok && m.Role == RoleAdmin
}

// MemberIDSet returns the member ids as a set, used for the
// order-independent DM/GROUP_DM duplicate check.
func (r *Room) MemberIDSet() map[string]struct{} {
	set := make(map[string]struct{}, len(r.RoomMembers))
	for id := range r.RoomMembers {
		set[id] = struct{}{}
	}
	return set
}

// Emoji is a named reaction on a message with the members who reacted.
type Emoji struct {
	Name           string   `json:"name"`
	Emoji          string   `json:"emoji"`
	Count          int      `json:"count"`
	ReactedUsersID []string `json:"reactedUsersId"`
}

// ContentBlock is one block of rich text. The core treats blocks as
// opaque rendering data.
type ContentBlock struct {
	Key               string         `json:"key"`
	Text              string         `json:"text"`
	Type              string         `json:"type"`
	Depth             int            `json:"depth"`
	InlineStyleRanges []any          `json:"inlineStyleRanges"`
	EntityRanges      []any          `json:"entityRanges"`
	Data              map[string]any `json:"data"`
}

// Mention identifies a member referenced from a rich-content entity.
type Mention struct {
	MemberID string `json:"member_id,omitempty"`
	Link     string `json:"link,omitempty"`
	Name     string `json:"name,omitempty"`
}

// EntityData is the payload of one entity-map entry. Only mentions are
// inspected by the core; every other key is carried through Extra as
// raw JSON so persisting a message never alters its body.
type EntityData struct {
	Mention *Mention
	Extra   map[string]json.RawMessage
}

func (d *EntityData) UnmarshalJSON(b []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(b, &fields); err != nil {
		return err
	}
	if raw, ok := fields["mention"]; ok {
		var m Mention
		if err := json.Unmarshal(raw, &m); err != nil {
			return err
		}
		d.Mention = &m
		delete(fields, "mention")
	}
	d.Extra = fields
	return nil
}

func (d EntityData) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.Extra)+1)
	for k, v := range d.Extra {
		out[k] = v
	}
	if d.Mention != nil {
		raw, err := json.Marshal(d.Mention)
		if err != nil {
			return nil, err
		}
		out["mention"] = raw
	}
	return json.Marshal(out)
}

// Entity is one entry in the rich-content entity map.
type Entity struct {
	Type       string     `json:"type,omitempty"`
	Mutability string     `json:"mutability,omitempty"`
	Data       EntityData `json:"data"`
}

// RichContent is the structured message body (draft.js shape on the
// wire). The core never validates or rewrites it; it only reads the
// entity map for mention extraction and the first block's text for
// notification bodies.
type RichContent struct {
	Blocks    []ContentBlock    `json:"blocks"`
	EntityMap map[string]Entity `json:"entityMap"`
}

// PlainText returns the text of the first block, the best-effort body
// used for notification payloads.
func (rc RichContent) PlainText() string {
	if len(rc.Blocks) == 0 {
		return ""
	}
	return rc.Blocks[0].Text
}

// Thread is a reply nested under a message. Threads are not standalone
// documents: they live inside the parent message and are rewritten with
// it on every thread mutation. ThreadID is generated locally and is
// unique within the parent.
type Thread struct {
	ThreadID    string      `json:"thread_id"`
	SenderID    string      `json:"sender_id"`
	RichContent RichContent `json:"richUiData"`
	Files       []string    `json:"files"`
	Edited      bool        `json:"edited"`
	CreatedAt   time.Time   `json:"created_at"`
}

// Message is a chat message in a room. MessageID is assigned by the
// store on creation. Threads is ordered newest-first: replies are
// prepended, never appended, because clients render the list as-is.
type Message struct {
	MessageID   string      `json:"_id,omitempty"`
	SenderID    string      `json:"sender_id"`
	RoomID      string      `json:"room_id"`
	OrgID       string      `json:"org_id"`
	Emojis      []Emoji     `json:"emojis"`
	RichContent RichContent `json:"richUiData"`
	Files       []string    `json:"files"`
	SavedBy     []string    `json:"saved_by"`
	Threads     []Thread    `json:"threads"`
	Edited      bool        `json:"edited"`
	CreatedAt   time.Time   `json:"created_at"`
}

// OrgMember is a member record from the organization directory,
// trimmed to the fields the sidebar and notifications need.
type OrgMember struct {
	ID          string `json:"_id"`
	UserName    string `json:"user_name"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	ImageURL    string `json:"image_url"`
}

// FullName joins first and last name, falling back to the user name.
func (m OrgMember) FullName() string {
	switch {
	case m.FirstName == "" && m.LastName == "":
		return m.UserName
	case m.LastName == "":
		return m.FirstName
	case m.FirstName == "":
		return m.LastName
	}
	return m.FirstName + " " + m.LastName
}
