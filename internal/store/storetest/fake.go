// Package storetest provides an in-memory store.Gateway for engine
// tests. It honors the same error contract as the HTTP client and can
// be told to fail or reject calls.
package storetest

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/chiebuka-eze/msgcore/internal/models"
	"github.com/chiebuka-eze/msgcore/internal/store"
)

// Fake is a memory-backed Gateway. Zero value is usable.
type Fake struct {
	mu   sync.Mutex
	seq  int
	docs map[string]map[string]map[string]any // org/collection -> id -> document

	Members []models.OrgMember

	// Failure injection. Fail* simulates a transport failure
	// (ErrUnavailable); Reject* simulates a store-side rejection.
	FailWrite   bool
	FailUpdate  bool
	FailRead    bool
	FailDelete  bool
	FailMembers bool
	RejectWrite *store.RemoteError

	// Call counters for asserting that short-circuited mutations
	// never reached the store.
	Writes  int
	Updates int
	Reads   int
	Deletes int
}

func New() *Fake {
	return &Fake{docs: make(map[string]map[string]map[string]any)}
}

func (f *Fake) bucket(orgID, collection string) map[string]map[string]any {
	if f.docs == nil {
		f.docs = make(map[string]map[string]map[string]any)
	}
	key := orgID + "/" + collection
	b, ok := f.docs[key]
	if !ok {
		b = make(map[string]map[string]any)
		f.docs[key] = b
	}
	return b
}

func (f *Fake) Write(ctx context.Context, orgID, collection string, doc any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrite {
		return "", fmt.Errorf("%w: injected", store.ErrUnavailable)
	}
	if f.RejectWrite != nil {
		return "", f.RejectWrite
	}
	decoded, err := toMap(doc)
	if err != nil {
		return "", err
	}
	f.seq++
	id := fmt.Sprintf("%024x", f.seq)
	decoded["_id"] = id
	f.bucket(orgID, collection)[id] = decoded
	f.Writes++
	return id, nil
}

func (f *Fake) Update(ctx context.Context, orgID, collection, id string, patch any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailUpdate {
		return fmt.Errorf("%w: injected", store.ErrUnavailable)
	}
	doc, ok := f.bucket(orgID, collection)[id]
	if !ok {
		return &store.RemoteError{StatusCode: 404, Message: "document not found"}
	}
	decoded, err := toMap(patch)
	if err != nil {
		return err
	}
	for k, v := range decoded {
		doc[k] = v
	}
	f.Updates++
	return nil
}

func (f *Fake) ReadOne(ctx context.Context, orgID, collection string, query store.Query, opts *store.ReadOptions) (json.RawMessage, error) {
	docs, err := f.ReadMany(ctx, orgID, collection, query, opts)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, nil
	}
	return docs[0], nil
}

func (f *Fake) ReadMany(ctx context.Context, orgID, collection string, query store.Query, opts *store.ReadOptions) ([]json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailRead {
		return nil, fmt.Errorf("%w: injected", store.ErrUnavailable)
	}
	f.Reads++

	matched := make([]map[string]any, 0)
	for _, doc := range f.bucket(orgID, collection) {
		if matches(doc, query) {
			matched = append(matched, doc)
		}
	}
	// Default ordering mirrors the real store: created_at descending.
	// RFC3339 strings compare correctly lexicographically.
	sort.Slice(matched, func(i, j int) bool {
		a, _ := matched[i]["created_at"].(string)
		b, _ := matched[j]["created_at"].(string)
		if a != b {
			return a > b
		}
		ai, _ := matched[i]["_id"].(string)
		bi, _ := matched[j]["_id"].(string)
		return ai > bi
	})

	if opts != nil {
		if opts.Skip > 0 {
			if opts.Skip >= len(matched) {
				matched = nil
			} else {
				matched = matched[opts.Skip:]
			}
		}
		if opts.Limit > 0 && opts.Limit < len(matched) {
			matched = matched[:opts.Limit]
		}
	}

	out := make([]json.RawMessage, 0, len(matched))
	for _, doc := range matched {
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func (f *Fake) Delete(ctx context.Context, orgID, collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailDelete {
		return fmt.Errorf("%w: injected", store.ErrUnavailable)
	}
	delete(f.bucket(orgID, collection), id)
	f.Deletes++
	return nil
}

func (f *Fake) OrgMembers(ctx context.Context, orgID string) ([]models.OrgMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailMembers {
		return nil, fmt.Errorf("%w: injected", store.ErrUnavailable)
	}
	return f.Members, nil
}

// Doc returns the stored document with the given id, for assertions.
func (f *Fake) Doc(orgID, collection, id string) (map[string]any, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.bucket(orgID, collection)[id]
	return doc, ok
}

func toMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return decoded, nil
}

// matches evaluates equality and $exists predicates over dotted field
// paths, the only query shapes the engines use.
func matches(doc map[string]any, query store.Query) bool {
	for path, want := range query {
		got, present := lookup(doc, path)
		if pred, ok := want.(map[string]any); ok {
			if exists, ok := pred["$exists"].(bool); ok {
				if exists != present {
					return false
				}
				continue
			}
		}
		if !present || fmt.Sprint(got) != fmt.Sprint(want) {
			return false
		}
	}
	return true
}

func lookup(doc map[string]any, path string) (any, bool) {
	parts := strings.Split(path, ".")
	var cur any = doc
	for _, part := range parts {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}
