package handler

import (
	"context"
	"net/http"

	"github.com/sakif/linkbio/internal/service"
)

// HealthChecker produces a health report.
type HealthChecker interface {
	Check(ctx context.Context) *service.HealthReport
}

// HealthHandler serves the health endpoint.
type HealthHandler struct {
	health HealthChecker
}

func NewHealthHandler(health HealthChecker) *HealthHandler {
	return &HealthHandler{health: health}
}

// HandleHealth handles GET /api/health. Unhealthy reports use 503 so probes fail.
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	report := h.health.Check(r.Context())
	status := http.StatusOK
	if !report.Healthy() {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, report)
}
