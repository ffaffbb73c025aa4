// Package store is the client side of the remote document store. All
// persistent state lives there; this core holds no database of its own.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/chiebuka-eze/msgcore/internal/models"
)

// ErrUnavailable marks a transport-level failure: the store never
// produced a response. Callers map it to a dependency error and abort
// the mutation.
var ErrUnavailable = errors.New("store unavailable")

// RemoteError is a rejection from the store itself: the request was
// processed and refused with a status code.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("store rejected request: %d %s", e.StatusCode, e.Message)
}

// Query is an equality/existence filter over document field paths,
// e.g. Query{"org_id": org, "room_type": "CHANNEL"}.
type Query map[string]any

// Exists builds an existence predicate for a field path. Used for
// membership lookups: Query{"room_members."+id: store.Exists()}.
func Exists() map[string]any {
	return map[string]any{"$exists": true}
}

// ReadOptions modify a read. A nil options pointer means the default
// ordering: created_at descending.
type ReadOptions struct {
	Sort       map[string]int `json:"sort,omitempty"`
	Limit      int            `json:"limit,omitempty"`
	Skip       int            `json:"skip,omitempty"`
	Projection map[string]int `json:"projection,omitempty"`
}

// DefaultReadOptions sorts by creation time, newest first.
func DefaultReadOptions() *ReadOptions {
	return &ReadOptions{Sort: map[string]int{"created_at": -1}}
}

// Gateway is the contract every engine depends on. Implementations:
// *Client (remote HTTP store) and storetest.Fake (in-memory, tests).
//
// Error contract:
//   - wrapped ErrUnavailable: transport failure, no response received
//   - *RemoteError: the store processed and rejected the request
//   - ReadOne returns (nil, nil) when no document matches
type Gateway interface {
	// Write inserts a document and returns the store-assigned id.
	Write(ctx context.Context, orgID, collection string, doc any) (string, error)

	// Update patches the document with the given id. Fields present in
	// patch replace the stored values; absent fields are untouched.
	Update(ctx context.Context, orgID, collection, id string, patch any) error

	// ReadOne returns the first document matching query, or nil, nil.
	ReadOne(ctx context.Context, orgID, collection string, query Query, opts *ReadOptions) (json.RawMessage, error)

	// ReadMany returns all documents matching query, newest first by
	// default. Returns an empty slice when nothing matches.
	ReadMany(ctx context.Context, orgID, collection string, query Query, opts *ReadOptions) ([]json.RawMessage, error)

	// Delete removes the document with the given id.
	Delete(ctx context.Context, orgID, collection, id string) error

	// OrgMembers fetches the organization's member directory.
	OrgMembers(ctx context.Context, orgID string) ([]models.OrgMember, error)
}
