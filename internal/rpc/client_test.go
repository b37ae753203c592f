package rpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDaemon records calls made against a mux router standing in for the daemon
type fakeDaemon struct {
	syncCalls    []string
	refreshCalls int
	authHeaders  []string
	syncStatus   int
	syncBody     string
}

func (f *fakeDaemon) server(t *testing.T) *httptest.Server {
	router := mux.NewRouter()
	router.HandleFunc("/integrations/{id}/sessions/sync", func(w http.ResponseWriter, r *http.Request) {
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		f.syncCalls = append(f.syncCalls, mux.Vars(r)["id"])
		w.Header().Set("Content-Type", "application/json")
		if f.syncStatus != 0 {
			w.WriteHeader(f.syncStatus)
		}
		_, _ = w.Write([]byte(f.syncBody))
	}).Methods("POST")
	router.HandleFunc("/sessions/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.authHeaders = append(f.authHeaders, r.Header.Get("Authorization"))
		f.refreshCalls++
		w.WriteHeader(http.StatusNoContent)
	}).Methods("POST")
	router.HandleFunc("/ping", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestSyncSessions(t *testing.T) {
	daemon := &fakeDaemon{syncBody: `{"sessionsToAdd":["a","b"],"sessionsToDelete":["c"]}`}
	srv := daemon.server(t)

	client := NewClient(srv.URL+"/", "daemon-token", 5*time.Second)
	diff, err := client.SyncSessions(context.Background(), "id1")

	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, diff.SessionsToAdd)
	assert.Equal(t, []string{"c"}, diff.SessionsToDelete)
	assert.Equal(t, []string{"id1"}, daemon.syncCalls)
	assert.Equal(t, []string{"Bearer daemon-token"}, daemon.authHeaders)
}

func TestSyncSessions_APIError(t *testing.T) {
	daemon := &fakeDaemon{syncStatus: http.StatusNotFound, syncBody: `{"error":"integration id1 is not logged in"}`}
	srv := daemon.server(t)

	client := NewClient(srv.URL, "", 5*time.Second)
	_, err := client.SyncSessions(context.Background(), "id1")

	require.Error(t, err)
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Equal(t, "integration id1 is not logged in", apiErr.Message)
}

func TestSyncSessions_PlainError(t *testing.T) {
	daemon := &fakeDaemon{syncStatus: http.StatusInternalServerError, syncBody: "internal failure"}
	srv := daemon.server(t)

	client := NewClient(srv.URL, "", 5*time.Second)
	_, err := client.SyncSessions(context.Background(), "id1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTTP 500: internal failure")
}

func TestSyncSessions_InvalidBody(t *testing.T) {
	daemon := &fakeDaemon{syncBody: "not json"}
	srv := daemon.server(t)

	client := NewClient(srv.URL, "", 5*time.Second)
	_, err := client.SyncSessions(context.Background(), "id1")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to decode session diff")
}

func TestRefreshSessions(t *testing.T) {
	daemon := &fakeDaemon{}
	srv := daemon.server(t)

	client := NewClient(srv.URL, "", 5*time.Second)
	require.NoError(t, client.RefreshSessions(context.Background()))

	assert.Equal(t, 1, daemon.refreshCalls)
	assert.Equal(t, []string{""}, daemon.authHeaders)
}

func TestPing(t *testing.T) {
	daemon := &fakeDaemon{}
	srv := daemon.server(t)

	client := NewClient(srv.URL, "", 5*time.Second)
	assert.NoError(t, client.Ping(context.Background()))

	srv.Close()
	assert.Error(t, client.Ping(context.Background()))
}
