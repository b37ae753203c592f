package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gobeyondidentity/ssoctl/internal/command"
	"github.com/gobeyondidentity/ssoctl/internal/config"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

// Version is reported by the health and version endpoints
const Version = "0.1.0"

// Server exposes session syncs over HTTP and runs them on a schedule
type Server struct {
	httpServer *http.Server
	logger     *logrus.Logger
	config     *config.Config
	runner     SyncRunner
	scheduler  *Scheduler
	metrics    *Metrics
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status      string     `json:"status"`
	Version     string     `json:"version"`
	Timestamp   time.Time  `json:"timestamp"`
	LastSync    *time.Time `json:"last_sync,omitempty"`
	NextSync    *time.Time `json:"next_sync,omitempty"`
	SyncEnabled bool       `json:"sync_enabled"`
}

// SyncResponse represents the manual sync response
type SyncResponse struct {
	Status        string     `json:"status"`
	Message       string     `json:"message"`
	IntegrationID string     `json:"integration_id"`
	Timestamp     time.Time  `json:"timestamp"`
	Result        *SyncStats `json:"result,omitempty"`
	Error         string     `json:"error,omitempty"`
}

// SyncStats represents the outcome of one integration sync
type SyncStats struct {
	SessionsAdded   int           `json:"sessions_added"`
	SessionsRemoved int           `json:"sessions_removed"`
	Duration        time.Duration `json:"duration"`
}

// NewServer creates a new HTTP server instance
func NewServer(cfg *config.Config, runner SyncRunner, lister IntegrationLister, logger *logrus.Logger) *Server {
	metrics := NewMetrics()

	var scheduler *Scheduler
	if cfg.Server.ScheduleEnabled {
		scheduler = NewScheduler(cfg.Server.Schedule, runner, lister, logger, metrics)
	}

	server := &Server{
		logger:    logger,
		config:    cfg,
		runner:    runner,
		scheduler: scheduler,
		metrics:   metrics,
	}

	router := mux.NewRouter()
	server.registerRoutes(router)

	server.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	return server
}

// registerRoutes sets up HTTP endpoints
func (s *Server) registerRoutes(router *mux.Router) {
	router.HandleFunc("/health", s.handleHealth).Methods("GET")
	router.HandleFunc("/integrations/{id}/sync", s.handleSync).Methods("POST")
	router.HandleFunc("/metrics", s.handleMetrics).Methods("GET")

	if s.scheduler != nil {
		router.HandleFunc("/scheduler/start", s.handleSchedulerStart).Methods("POST")
		router.HandleFunc("/scheduler/stop", s.handleSchedulerStop).Methods("POST")
		router.HandleFunc("/scheduler/status", s.handleSchedulerStatus).Methods("GET")
	}

	router.HandleFunc("/version", s.handleVersion).Methods("GET")
}

// Start runs the HTTP server and scheduler until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.logger.Infof("Starting session sync server on port %d", s.config.Server.Port)

	if s.scheduler != nil {
		if err := s.scheduler.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	s.logger.Info("Session sync server started successfully")

	select {
	case err := <-serveErr:
		if s.scheduler != nil {
			s.scheduler.Stop()
		}
		if err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	case <-ctx.Done():
		s.logger.Info("Shutdown requested, stopping server...")
	}

	s.shutdown()
	return nil
}

// shutdown stops the scheduler and drains the HTTP server
func (s *Server) shutdown() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.logger.Errorf("HTTP server shutdown error: %v", err)
	} else {
		s.logger.Info("HTTP server stopped gracefully")
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:      "healthy",
		Version:     Version,
		Timestamp:   time.Now(),
		SyncEnabled: s.scheduler != nil,
	}

	if s.scheduler != nil {
		response.LastSync = s.scheduler.GetLastSync()
		response.NextSync = s.scheduler.GetNextSync()
	}

	writeJSON(w, http.StatusOK, response)
}

// handleSync runs one sync invocation for the integration in the path
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	integrationID := mux.Vars(r)["id"]
	s.logger.Infof("Manual sync of %s requested via API", integrationID)

	startTime := time.Now()
	diff, err := s.runner.RunSync(r.Context(), integrationID)
	duration := time.Since(startTime)

	response := SyncResponse{
		IntegrationID: integrationID,
		Timestamp:     time.Now(),
	}

	if err != nil {
		s.logger.Errorf("Manual sync of %s failed: %v", integrationID, err)
		s.metrics.RecordFailedSync(err, duration)
		response.Status = "error"
		response.Message = "Sync operation failed"
		response.Error = err.Error()
		writeJSON(w, statusFor(err), response)
		return
	}

	s.metrics.RecordSync(diff, duration)
	response.Status = "success"
	response.Message = "Sync operation completed"
	response.Result = &SyncStats{Duration: duration}
	if diff != nil {
		response.Result.SessionsAdded = len(diff.SessionsToAdd)
		response.Result.SessionsRemoved = len(diff.SessionsToDelete)
	}
	writeJSON(w, http.StatusOK, response)
}

// statusFor maps command error kinds to HTTP status codes
func statusFor(err error) int {
	var cmdErr *command.Error
	if errors.As(err, &cmdErr) {
		switch cmdErr.Kind {
		case command.KindNotFound:
			return http.StatusNotFound
		case command.KindUsage:
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}

// handleMetrics handles metrics requests
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.metrics.GetStats())
}

// handleSchedulerStart handles scheduler start requests
func (s *Server) handleSchedulerStart(w http.ResponseWriter, r *http.Request) {
	if err := s.scheduler.Start(); err != nil {
		http.Error(w, fmt.Sprintf("Failed to start scheduler: %v", err), http.StatusConflict)
		return
	}

	s.logger.Info("Scheduler started via API")
	writeJSON(w, http.StatusOK, map[string]string{"status": "started"})
}

// handleSchedulerStop handles scheduler stop requests
func (s *Server) handleSchedulerStop(w http.ResponseWriter, r *http.Request) {
	s.scheduler.Stop()
	s.logger.Info("Scheduler stopped via API")

	writeJSON(w, http.StatusOK, map[string]string{"status": "stopped"})
}

// handleSchedulerStatus handles scheduler status requests
func (s *Server) handleSchedulerStatus(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"running":   s.scheduler.IsRunning(),
		"schedule":  s.config.Server.Schedule,
		"last_sync": s.scheduler.GetLastSync(),
		"next_sync": s.scheduler.GetNextSync(),
	}

	writeJSON(w, http.StatusOK, status)
}

// handleVersion handles version requests
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"version": Version,
		"mode":    "server",
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
