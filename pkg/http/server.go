// Package http serves the robot's operational surface: a health endpoint
// reporting session and dialogue status, and the Prometheus scrape path.
package http

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"

	"campus-robot/pkg/metrics"
)

// StatusProvider exposes the live dialogue status for health reporting.
type StatusProvider interface {
	Session() string
	StateName() string
	IsAwake() bool
}

// HealthStatus is the health endpoint payload.
type HealthStatus struct {
	Status    string     `json:"status"`
	Timestamp string     `json:"timestamp"`
	Uptime    string     `json:"uptime"`
	Session   string     `json:"session,omitempty"`
	State     string     `json:"state,omitempty"`
	Awake     bool       `json:"awake"`
	System    SystemInfo `json:"system"`
}

// SystemInfo carries basic runtime resource numbers.
type SystemInfo struct {
	GoRoutines int    `json:"goroutines"`
	MemoryMB   uint64 `json:"memory_mb"`
	CPUCount   int    `json:"cpu_count"`
}

// Server hosts the health and metrics endpoints.
type Server struct {
	logger     *logrus.Entry
	httpServer *http.Server
	status     StatusProvider
	startTime  time.Time
}

// NewServer builds the server on the given port. status may be nil; the
// health endpoint then omits dialogue fields.
func NewServer(logger *logrus.Logger, port int, status StatusProvider) *Server {
	s := &Server{
		logger:    logger.WithField("component", "http_server"),
		status:    status,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.healthHandler)
	mux.Handle("/metrics", metrics.Handler())

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	health := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		System: SystemInfo{
			GoRoutines: runtime.NumGoroutine(),
			MemoryMB:   memStats.Alloc / 1024 / 1024,
			CPUCount:   runtime.NumCPU(),
		},
	}
	if s.status != nil {
		health.Session = s.status.Session()
		health.State = s.status.StateName()
		health.Awake = s.status.IsAwake()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(health); err != nil {
		s.logger.WithError(err).Warn("Failed to write health response")
	}
}

// Start begins serving in the background. Errors other than a clean
// shutdown are logged.
func (s *Server) Start() {
	go func() {
		s.logger.WithField("addr", s.httpServer.Addr).Info("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("HTTP server stopped")
		}
	}()
}

// Shutdown drains the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
