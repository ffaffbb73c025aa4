package fanout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientPublish(t *testing.T) {
	var got command
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-key", "messaging.example.com")
	err := client.Publish(context.Background(), "room-1", EventMessageCreate, map[string]string{"body": "hi"})
	require.NoError(t, err)

	assert.Equal(t, "apikey secret-key", auth)
	assert.Equal(t, "publish", got.Method)
	assert.Equal(t, "room-1", got.Params["channel"])

	envelope, ok := got.Params["data"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(200), envelope["status"])
	assert.Equal(t, string(EventMessageCreate), envelope["event"])
	assert.Equal(t, "messaging.example.com", envelope["plugin_url"])
}

func TestClientUnsubscribe(t *testing.T) {
	var got command
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "secret-key", "messaging.example.com")
	err := client.Unsubscribe(context.Background(), "member-1", "room-1")
	require.NoError(t, err)

	assert.Equal(t, "unsubscribe", got.Method)
	assert.Equal(t, "room-1", got.Params["channel"])
	assert.Equal(t, "member-1", got.Params["user"])
}

func TestClientRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, "wrong-key", "messaging.example.com")
	err := client.Publish(context.Background(), "room-1", EventRoomUpdate, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
}

func TestClientTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(srv.URL, "key", "messaging.example.com")
	err := client.Publish(context.Background(), "room-1", EventRoomUpdate, nil)
	require.Error(t, err)
}
