package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientTrigger(t *testing.T) {
	var got Trigger
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/events/trigger", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.Trigger(context.Background(), Trigger{
		Name: KindChannelMessage,
		Payload: Payload{
			SenderName:  "Alice Doe",
			ChannelName: "general",
			MessageBody: "standup in five",
		},
		To: []string{"bob", "carol"},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
	assert.Equal(t, KindChannelMessage, got.Name)
	assert.Equal(t, []string{"bob", "carol"}, got.To)
}

func TestClientTriggerEmptyRecipients(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.Trigger(context.Background(), Trigger{Name: KindDirectMessage})
	require.NoError(t, err)
	assert.Zero(t, calls, "nothing to deliver, nothing sent")
}

func TestClientTriggerRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	err := client.Trigger(context.Background(), Trigger{
		Name: KindDirectMessage,
		To:   []string{"bob"},
	})
	assert.Error(t, err)
}
