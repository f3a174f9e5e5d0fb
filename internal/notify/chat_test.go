package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laundry-reservation-backend/config"
	"laundry-reservation-backend/internal/engine"
)

func TestChatSender_PostsWithBearerToken(t *testing.T) {
	var got chatMessage
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sender := NewChatSender(config.ChatConfig{
		Enabled:    true,
		WebhookURL: server.URL,
		Token:      "secret-token",
		Recipient:  "hostel-laundry",
	})

	sender.Send(context.Background(), engine.Event{
		Machine: "Washing Machine 1",
		Title:   "Washing Machine 1 is free",
		Body:    "Alice finished early. Bob is next in line.",
	})

	assert.Equal(t, "Bearer secret-token", auth)
	assert.Equal(t, "hostel-laundry", got.Recipient)
	assert.Equal(t, "Washing Machine 1 is free", got.Title)
	assert.Equal(t, "Alice finished early. Bob is next in line.", got.Body)
}

func TestChatSender_DisabledDoesNothing(t *testing.T) {
	var called bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	sender := NewChatSender(config.ChatConfig{Enabled: false, WebhookURL: server.URL})
	sender.Send(context.Background(), engine.Event{Machine: "Dryer 1", Title: "t", Body: "b"})

	assert.False(t, called)
}

func TestChatSender_SwallowsFailures(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	server.Close() // Shut down immediately so the request fails outright.

	sender := NewChatSender(config.ChatConfig{Enabled: true, WebhookURL: server.URL})

	// Must not panic; delivery failures are logged and dropped.
	sender.Send(context.Background(), engine.Event{Machine: "Dryer 1", Title: "t", Body: "b"})
}
