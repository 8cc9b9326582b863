package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsiec/chrono/pkg/version"
)

func TestHandleHealth(t *testing.T) {
	manager := NewManager(testLogger())
	manager.Register(NewCatalogChecker())
	handler := NewHandler(manager)

	rr := httptest.NewRecorder()
	handler.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	assert.Equal(t, "no-cache, no-store, must-revalidate", rr.Header().Get("Cache-Control"))

	var response Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))

	assert.Equal(t, StatusOK, response.Status)
	assert.Equal(t, version.Name, response.Service)
	assert.NotZero(t, response.Timestamp)
	assert.NotEmpty(t, response.Version)
	assert.NotEmpty(t, response.Uptime)
	require.Contains(t, response.Checks, "catalog")
	assert.Equal(t, StatusOK, response.Checks["catalog"].Status)
}

func TestHandleHealthStatusCodes(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status Status
		code   int
	}{
		{"down", assert.AnError, StatusDown, http.StatusServiceUnavailable},
		{"degraded", Degraded(errors.New("info unavailable")), StatusDegraded, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			manager := NewManager(testLogger())
			manager.Register(&mockChecker{name: "backend", err: tt.err})
			handler := NewHandler(manager)

			rr := httptest.NewRecorder()
			handler.HandleHealth(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
			assert.Equal(t, tt.code, rr.Code)

			var response Response
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
			assert.Equal(t, tt.status, response.Status)
		})
	}
}

func TestHandleReady(t *testing.T) {
	manager := NewManager(testLogger())
	manager.Register(&mockChecker{name: "test"})
	handler := NewHandler(manager)

	// nothing has run yet
	rr := httptest.NewRecorder()
	handler.HandleReady(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

	manager.RunChecks(context.Background())

	rr = httptest.NewRecorder()
	handler.HandleReady(rr, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		Status    Status    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, StatusOK, response.Status)
	assert.NotZero(t, response.Timestamp)
}

func TestHandleLive(t *testing.T) {
	handler := NewHandler(NewManager(testLogger()))

	rr := httptest.NewRecorder()
	handler.HandleLive(rr, httptest.NewRequest(http.MethodGet, "/live", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	var response struct {
		Status string `json:"status"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &response))
	assert.Equal(t, "alive", response.Status)
}

func TestUptime(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	handler := NewHandler(NewManager(testLogger()))
	handler.startTime = start
	handler.now = func() time.Time { return start.Add(3*time.Hour + 15*time.Minute + 45*time.Second + 400*time.Millisecond) }

	assert.Equal(t, "3h15m45s", handler.uptime().String())
}
