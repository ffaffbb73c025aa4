// Package fanout propagates committed mutations to the realtime
// pub/sub service. Publishing always happens after the store accepted
// the mutation and never influences the mutation's outcome.
package fanout

import "context"

// Event names the kind of change being fanned out.
type Event string

const (
	EventMessageCreate    Event = "message_create"
	EventMessageUpdate    Event = "message_update"
	EventRoomCreate       Event = "room_create"
	EventRoomUpdate       Event = "room_update"
	EventRoomMemberAdd    Event = "room_member_add"
	EventRoomMemberRemove Event = "room_member_remove"
	EventSidebarUpdate    Event = "sidebar_update"
)

// Envelope is the payload published to subscribers.
type Envelope struct {
	Status    int    `json:"status"`
	Event     Event  `json:"event"`
	PluginURL string `json:"plugin_url"`
	Data      any    `json:"data"`
}

// Gateway is the pub/sub transport. Publish attempts delivery at most
// once; there is no retry and no delivery guarantee beyond that.
type Gateway interface {
	Publish(ctx context.Context, channel string, event Event, data any) error
	Unsubscribe(ctx context.Context, memberID, channel string) error
}
