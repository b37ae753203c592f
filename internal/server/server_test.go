package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/gobeyondidentity/ssoctl/internal/command"
	"github.com/gobeyondidentity/ssoctl/internal/config"
	"github.com/gobeyondidentity/ssoctl/internal/integration"
)

// Mock sync runner for testing
type mockRunner struct {
	mu    sync.Mutex
	err   error
	diff  *integration.SessionDiff
	calls []string
}

func (m *mockRunner) RunSync(ctx context.Context, integrationID string) (*integration.SessionDiff, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, integrationID)
	if m.err != nil {
		return nil, m.err
	}
	return m.diff, nil
}

type mockLister struct {
	online []*integration.Integration
	err    error
}

func (m *mockLister) GetOnlineIntegrations(ctx context.Context) ([]*integration.Integration, error) {
	return m.online, m.err
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.FatalLevel) // Reduce log noise during tests
	return logger
}

// Helper to create a test server without external dependencies
func createTestServer(t *testing.T, scheduleEnabled bool) (*Server, *mockRunner) {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:            8080,
			ScheduleEnabled: scheduleEnabled,
			Schedule:        "*/30 * * * *",
		},
	}

	runner := &mockRunner{
		diff: &integration.SessionDiff{
			SessionsToAdd:    []string{"a", "b", "c"},
			SessionsToDelete: []string{"d"},
		},
	}

	return NewServer(cfg, runner, &mockLister{}, quietLogger()), runner
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	router := mux.NewRouter()
	s.registerRoutes(router)

	req := httptest.NewRequest(method, path, bytes.NewBuffer([]byte{}))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestHandleHealth(t *testing.T) {
	server, _ := createTestServer(t, false)

	rr := serve(server, "GET", "/health")

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", status)
	}

	var response HealthResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Errorf("Failed to parse response: %v", err)
	}

	if response.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", response.Status)
	}

	if response.Version != Version {
		t.Errorf("Expected version %s, got %s", Version, response.Version)
	}

	if response.SyncEnabled {
		t.Error("Expected sync to be disabled when no scheduler is configured")
	}
}

func TestHandleSync_Success(t *testing.T) {
	server, runner := createTestServer(t, false)

	rr := serve(server, "POST", "/integrations/id1/sync")

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", status)
	}

	var response SyncResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Errorf("Failed to parse response: %v", err)
	}

	if response.Status != "success" {
		t.Errorf("Expected status 'success', got '%s'", response.Status)
	}

	if response.IntegrationID != "id1" {
		t.Errorf("Expected integration id 'id1', got '%s'", response.IntegrationID)
	}

	if response.Result == nil {
		t.Fatal("Expected result to be present")
	}
	if response.Result.SessionsAdded != 3 {
		t.Errorf("Expected 3 sessions added, got %d", response.Result.SessionsAdded)
	}
	if response.Result.SessionsRemoved != 1 {
		t.Errorf("Expected 1 session removed, got %d", response.Result.SessionsRemoved)
	}

	if len(runner.calls) != 1 || runner.calls[0] != "id1" {
		t.Errorf("Expected one run for id1, got %v", runner.calls)
	}

	if stats := server.metrics.GetStats(); stats.TotalSessionsAdded != 3 {
		t.Errorf("Expected metrics to record 3 added sessions, got %d", stats.TotalSessionsAdded)
	}
}

func TestHandleSync_Errors(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{
			name:           "collaborator failure",
			err:            command.Normalize(errors.New("daemon not running")),
			expectedStatus: http.StatusInternalServerError,
		},
		{
			name:           "unknown integration",
			err:            &command.Error{Kind: command.KindNotFound, Message: `integration "nope" not found`},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, runner := createTestServer(t, false)
			runner.err = tt.err

			rr := serve(server, "POST", "/integrations/nope/sync")

			if status := rr.Code; status != tt.expectedStatus {
				t.Errorf("Expected status code %d, got %d", tt.expectedStatus, status)
			}

			var response SyncResponse
			if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
				t.Errorf("Failed to parse response: %v", err)
			}

			if response.Status != "error" {
				t.Errorf("Expected status 'error', got '%s'", response.Status)
			}

			if response.Error != tt.err.Error() {
				t.Errorf("Expected error %q, got %q", tt.err.Error(), response.Error)
			}

			if response.Result != nil {
				t.Error("Expected result to be nil on error")
			}

			if stats := server.metrics.GetStats(); stats.FailedSyncs != 1 {
				t.Errorf("Expected 1 failed sync, got %d", stats.FailedSyncs)
			}
		})
	}
}

func TestHandleSync_WrongMethod(t *testing.T) {
	server, _ := createTestServer(t, false)

	rr := serve(server, "GET", "/integrations/id1/sync")

	if rr.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected status code 405, got %d", rr.Code)
	}
}

func TestHandleMetrics(t *testing.T) {
	server, _ := createTestServer(t, false)
	server.metrics.RecordSync(&integration.SessionDiff{SessionsToAdd: []string{"a"}}, 150*time.Millisecond)

	rr := serve(server, "GET", "/metrics")

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", status)
	}

	var response MetricsStats
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Errorf("Failed to parse response: %v", err)
	}

	if response.TotalSyncs != 1 {
		t.Errorf("Expected 1 total sync, got %d", response.TotalSyncs)
	}

	if response.TotalSessionsAdded != 1 {
		t.Errorf("Expected 1 session added, got %d", response.TotalSessionsAdded)
	}
}

func TestSchedulerRoutes_NoScheduler(t *testing.T) {
	server, _ := createTestServer(t, false)

	routes := []struct {
		method string
		path   string
	}{
		{"POST", "/scheduler/start"},
		{"POST", "/scheduler/stop"},
		{"GET", "/scheduler/status"},
	}

	for _, route := range routes {
		t.Run(route.path, func(t *testing.T) {
			rr := serve(server, route.method, route.path)

			// When scheduler is nil, the route doesn't get registered, so we get 404
			if status := rr.Code; status != http.StatusNotFound {
				t.Errorf("Expected status code 404, got %d", status)
			}
		})
	}
}

func TestSchedulerRoutes(t *testing.T) {
	server, _ := createTestServer(t, true)
	defer server.scheduler.Stop()

	if rr := serve(server, "POST", "/scheduler/start"); rr.Code != http.StatusOK {
		t.Errorf("Expected start to succeed, got %d", rr.Code)
	}

	if rr := serve(server, "POST", "/scheduler/start"); rr.Code != http.StatusConflict {
		t.Errorf("Expected second start to conflict, got %d", rr.Code)
	}

	rr := serve(server, "GET", "/scheduler/status")
	var status map[string]interface{}
	if err := json.Unmarshal(rr.Body.Bytes(), &status); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if status["running"] != true {
		t.Errorf("Expected scheduler to be running, got %v", status["running"])
	}
	if status["schedule"] != "*/30 * * * *" {
		t.Errorf("Unexpected schedule: %v", status["schedule"])
	}

	if rr := serve(server, "POST", "/scheduler/stop"); rr.Code != http.StatusOK {
		t.Errorf("Expected stop to succeed, got %d", rr.Code)
	}
	if server.scheduler.IsRunning() {
		t.Error("Expected scheduler to be stopped")
	}
}

func TestHandleVersion(t *testing.T) {
	server, _ := createTestServer(t, false)

	rr := serve(server, "GET", "/version")

	if status := rr.Code; status != http.StatusOK {
		t.Errorf("Expected status code 200, got %d", status)
	}

	var response map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &response); err != nil {
		t.Errorf("Failed to parse response: %v", err)
	}

	if response["version"] == "" {
		t.Error("Expected version to be set")
	}

	if response["mode"] != "server" {
		t.Errorf("Expected mode 'server', got '%s'", response["mode"])
	}
}

func TestSchedulerRunSync(t *testing.T) {
	online := []*integration.Integration{
		{ID: "id1", Alias: "acme"},
		{ID: "id2", Alias: "globex"},
	}

	tests := []struct {
		name           string
		lister         *mockLister
		runnerErr      error
		expectedCalls  []string
		expectedTotal  int
		expectedFailed int
	}{
		{
			name:          "syncs each online integration once",
			lister:        &mockLister{online: online},
			expectedCalls: []string{"id1", "id2"},
			expectedTotal: 2,
		},
		{
			name:           "records runner failures",
			lister:         &mockLister{online: online},
			runnerErr:      fmt.Errorf("daemon not running"),
			expectedCalls:  []string{"id1", "id2"},
			expectedTotal:  2,
			expectedFailed: 2,
		},
		{
			name:          "no online integrations",
			lister:        &mockLister{},
			expectedTotal: 0,
		},
		{
			name:           "lister failure",
			lister:         &mockLister{err: fmt.Errorf("cache unreadable")},
			expectedTotal:  1,
			expectedFailed: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &mockRunner{err: tt.runnerErr, diff: &integration.SessionDiff{}}
			metrics := NewMetrics()
			scheduler := NewScheduler("@every 1h", runner, tt.lister, quietLogger(), metrics)

			scheduler.runSync()

			if len(runner.calls) != len(tt.expectedCalls) {
				t.Fatalf("Expected calls %v, got %v", tt.expectedCalls, runner.calls)
			}
			for i, id := range tt.expectedCalls {
				if runner.calls[i] != id {
					t.Errorf("Expected call %d to be %s, got %s", i, id, runner.calls[i])
				}
			}

			stats := metrics.GetStats()
			if stats.TotalSyncs != tt.expectedTotal {
				t.Errorf("Expected %d total syncs, got %d", tt.expectedTotal, stats.TotalSyncs)
			}
			if stats.FailedSyncs != tt.expectedFailed {
				t.Errorf("Expected %d failed syncs, got %d", tt.expectedFailed, stats.FailedSyncs)
			}
			if scheduler.GetLastSync() == nil {
				t.Error("Expected last sync time to be recorded")
			}
		})
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", &command.Error{Kind: command.KindNotFound}, http.StatusNotFound},
		{"usage", command.NewUsageError("bad"), http.StatusBadRequest},
		{"selection", &command.Error{Kind: command.KindSelection}, http.StatusInternalServerError},
		{"plain error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.expected {
				t.Errorf("Expected %d, got %d", tt.expected, got)
			}
		})
	}
}
