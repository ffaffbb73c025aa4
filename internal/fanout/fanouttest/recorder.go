// Package fanouttest provides a recording Gateway for asserting what
// the coordinator dispatched.
package fanouttest

import (
	"context"
	"sync"

	"github.com/chiebuka-eze/msgcore/internal/fanout"
)

// Publication is one recorded publish call.
type Publication struct {
	Channel string
	Event   fanout.Event
	Data    any
}

// Unsubscription is one recorded unsubscribe call.
type Unsubscription struct {
	MemberID string
	Channel  string
}

// Recorder is a Gateway that records every call. Dispatches arrive from
// coordinator goroutines, so all access is locked.
type Recorder struct {
	mu sync.Mutex

	// Errors returned by the next calls. Applied to every call.
	PublishErr     error
	UnsubscribeErr error

	published    []Publication
	unsubscribed []Unsubscription
}

func New() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Publish(ctx context.Context, channel string, event fanout.Event, data any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.published = append(r.published, Publication{Channel: channel, Event: event, Data: data})
	return r.PublishErr
}

func (r *Recorder) Unsubscribe(ctx context.Context, memberID, channel string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.unsubscribed = append(r.unsubscribed, Unsubscription{MemberID: memberID, Channel: channel})
	return r.UnsubscribeErr
}

// Published returns a copy of the recorded publishes.
func (r *Recorder) Published() []Publication {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Publication(nil), r.published...)
}

// ByEvent returns recorded publishes carrying the given event.
func (r *Recorder) ByEvent(event fanout.Event) []Publication {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Publication
	for _, p := range r.published {
		if p.Event == event {
			out = append(out, p)
		}
	}
	return out
}

// Unsubscribed returns a copy of the recorded unsubscribes.
func (r *Recorder) Unsubscribed() []Unsubscription {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Unsubscription(nil), r.unsubscribed...)
}
