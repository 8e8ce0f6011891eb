package service

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

// Pinger is anything whose reachability the health check reports.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthService reports liveness and store connectivity.
type HealthService struct {
	db          Pinger
	startedAt   time.Time
	environment string
	version     string
	logger      *slog.Logger
	now         func() time.Time
}

// NewHealthService creates a HealthService; uptime counts from this call.
func NewHealthService(db Pinger, environment, version string, logger *slog.Logger) *HealthService {
	return &HealthService{
		db:          db,
		startedAt:   time.Now(),
		environment: environment,
		version:     version,
		logger:      logger,
		now:         time.Now,
	}
}

// HealthReport is the body of the health endpoint.
type HealthReport struct {
	Status      string         `json:"status"` // "healthy" or "unhealthy"
	Timestamp   time.Time      `json:"timestamp"`
	Uptime      float64        `json:"uptime"` // seconds
	Services    HealthServices `json:"services"`
	Environment string         `json:"environment"`
	Version     string         `json:"version"`
	Error       string         `json:"error,omitempty"`
}

// HealthServices reports each dependency as a display string.
type HealthServices struct {
	Database string `json:"database"`
	API      string `json:"api"`
	Memory   string `json:"memory"`
}

// Healthy reports whether the report describes a usable service.
func (r *HealthReport) Healthy() bool {
	return r.Status == "healthy"
}

// Check pings the store with a short timeout and samples heap usage.
func (s *HealthService) Check(ctx context.Context) *HealthReport {
	now := s.now()
	report := &HealthReport{
		Status:      "healthy",
		Timestamp:   now.UTC(),
		Uptime:      now.Sub(s.startedAt).Seconds(),
		Environment: s.environment,
		Version:     s.version,
		Services: HealthServices{
			Database: "Connected",
			API:      "Running",
			Memory:   heapUsage(),
		},
	}

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.Ping(pingCtx); err != nil {
		s.logger.ErrorContext(ctx, "health check: database unreachable", slog.String("error", err.Error()))
		report.Status = "unhealthy"
		report.Services.Database = "Disconnected"
		report.Error = "Database connection failed"
	}

	return report
}

func heapUsage() string {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return fmt.Sprintf("%d MB", m.HeapAlloc/1024/1024)
}
