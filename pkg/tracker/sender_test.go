package tracker

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulsekit-dev/pulsekit/pkg/event"
)

func TestHTTPSender_PostsJSONPayload(t *testing.T) {
	var got Payload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	sender := NewHTTPSender(srv.URL)
	err := sender.Deliver(context.Background(), Payload{
		SessionID: "s1",
		ProjectID: "p1",
		Events: []event.TrackingEvent{
			{Type: event.TypeCustom, Name: "signup", SessionID: "s1"},
		},
		Timestamp: 123,
	})

	require.NoError(t, err)
	assert.Equal(t, "s1", got.SessionID)
	assert.Equal(t, "p1", got.ProjectID)
	require.Len(t, got.Events, 1)
	assert.Equal(t, "signup", got.Events[0].Name)
}

func TestHTTPSender_NonSuccessStatusIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	sender := NewHTTPSender(srv.URL)
	err := sender.Deliver(context.Background(), Payload{})
	assert.Error(t, err)
}

func TestHTTPSender_TransportFailureIsError(t *testing.T) {
	sender := NewHTTPSender("http://127.0.0.1:1/unroutable")
	err := sender.Deliver(context.Background(), Payload{})
	assert.Error(t, err)
}

func TestHTTPSender_RespectsContextCancellation(t *testing.T) {
	var reached atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached.Store(true)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sender := NewHTTPSender(srv.URL)
	err := sender.Deliver(ctx, Payload{})
	assert.Error(t, err)
	_ = reached.Load() // request may or may not have left; either way we returned
}
