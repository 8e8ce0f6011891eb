package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sakif/linkbio/internal/handler"
	"github.com/sakif/linkbio/internal/service"
	"github.com/stretchr/testify/assert"
)

type fakeHealth struct{ status string }

func (f fakeHealth) Check(context.Context) *service.HealthReport {
	return &service.HealthReport{Status: f.status}
}

func TestHealthHandler_HandleHealth(t *testing.T) {
	tests := []struct {
		status string
		want   int
	}{
		{"healthy", http.StatusOK},
		{"unhealthy", http.StatusServiceUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			h := handler.NewHealthHandler(fakeHealth{status: tt.status})
			rr := httptest.NewRecorder()
			h.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/api/health", nil))

			assert.Equal(t, tt.want, rr.Code)
			assert.Equal(t, tt.status, decodeBody(t, rr)["status"])
		})
	}
}
