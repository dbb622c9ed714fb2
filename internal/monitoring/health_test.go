package monitoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func staticCheck(name string, critical bool, status HealthStatus) HealthChecker {
	return NewHealthCheckFunc(name, critical, func(ctx context.Context) HealthCheck {
		return HealthCheck{Status: status, Message: string(status)}
	})
}

func TestCalculateOverallStatus(t *testing.T) {
	tests := []struct {
		name   string
		checks map[string]HealthCheck
		want   HealthStatus
	}{
		{"no checks", map[string]HealthCheck{}, HealthStatusHealthy},
		{
			"all healthy",
			map[string]HealthCheck{
				"a": {Status: HealthStatusHealthy, Critical: true},
				"b": {Status: HealthStatusHealthy},
			},
			HealthStatusHealthy,
		},
		{
			"non-critical failure degrades",
			map[string]HealthCheck{
				"a": {Status: HealthStatusHealthy, Critical: true},
				"b": {Status: HealthStatusUnhealthy},
			},
			HealthStatusDegraded,
		},
		{
			"critical failure",
			map[string]HealthCheck{
				"a": {Status: HealthStatusUnhealthy, Critical: true},
				"b": {Status: HealthStatusDegraded},
			},
			HealthStatusUnhealthy,
		},
		{
			"critical degraded",
			map[string]HealthCheck{"a": {Status: HealthStatusDegraded, Critical: true}},
			HealthStatusDegraded,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calculateOverallStatus(tt.checks))
		})
	}
}

func TestHealthMonitor_GetHealth(t *testing.T) {
	hm := NewHealthMonitor(Options{})
	hm.RegisterCheck(staticCheck("sheets", true, HealthStatusHealthy))
	hm.RegisterCheck(staticCheck("dir", false, HealthStatusUnhealthy))
	hm.RegisterCheck(staticCheck("blank", false, ""))

	health := hm.GetHealth(context.Background())

	assert.Equal(t, HealthStatusDegraded, health.Status)
	assert.Equal(t, []string{"blank", "dir", "sheets"}, hm.Names())
	require.Len(t, health.Checks, 3)
	assert.Equal(t, "sheets", health.Checks["sheets"].Name)
	assert.True(t, health.Checks["sheets"].Critical)
	assert.Equal(t, HealthStatusUnknown, health.Checks["blank"].Status)
	assert.Equal(t, HealthSummary{Total: 3, Healthy: 1, Unhealthy: 1, Unknown: 1, Critical: 1}, health.Summary)
	assert.NotEmpty(t, health.Version)
}

func TestHealthMonitor_Timeout(t *testing.T) {
	hm := NewHealthMonitor(Options{Timeout: 20 * time.Millisecond})
	hm.RegisterCheck(NewHealthCheckFunc("slow", true, func(ctx context.Context) HealthCheck {
		select {
		case <-ctx.Done():
			return HealthCheck{Status: HealthStatusUnhealthy, Message: ctx.Err().Error()}
		case <-time.After(time.Second):
			return HealthCheck{Status: HealthStatusHealthy}
		}
	}))

	health := hm.GetHealth(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, health.Status)
	assert.Contains(t, health.Checks["slow"].Message, "deadline")
}

func TestHealthMonitor_Cache(t *testing.T) {
	var calls atomic.Int32
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	hm := NewHealthMonitor(Options{Cache: time.Minute})
	hm.now = func() time.Time { return now }
	hm.RegisterCheck(NewHealthCheckFunc("count", false, func(ctx context.Context) HealthCheck {
		calls.Add(1)
		return HealthCheck{Status: HealthStatusHealthy}
	}))

	hm.GetHealth(context.Background())
	hm.GetHealth(context.Background())
	assert.Equal(t, int32(1), calls.Load())

	now = now.Add(2 * time.Minute)
	hm.GetHealth(context.Background())
	assert.Equal(t, int32(2), calls.Load())

	hm.RegisterCheck(staticCheck("other", false, HealthStatusHealthy))
	hm.GetHealth(context.Background())
	assert.Equal(t, int32(3), calls.Load())
}

func TestHTTPHandler_StatusCodes(t *testing.T) {
	tests := []struct {
		name     string
		critical bool
		status   HealthStatus
		code     int
	}{
		{"healthy", true, HealthStatusHealthy, http.StatusOK},
		{"degraded", false, HealthStatusUnhealthy, http.StatusOK},
		{"unhealthy", true, HealthStatusUnhealthy, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hm := NewHealthMonitor(Options{})
			hm.RegisterCheck(staticCheck("check", tt.critical, tt.status))

			rec := httptest.NewRecorder()
			hm.HTTPHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

			var body HealthResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Contains(t, body.Checks, "check")
		})
	}
}

func TestDirectoryHealthChecker(t *testing.T) {
	dir := t.TempDir()

	check := DirectoryHealthChecker("sheet_dir", dir, false).Check(context.Background())
	assert.Equal(t, HealthStatusHealthy, check.Status)
	assert.Equal(t, 0, check.Metadata["entries"])

	check = DirectoryHealthChecker("sheet_dir", filepath.Join(dir, "missing"), false).Check(context.Background())
	assert.Equal(t, HealthStatusUnhealthy, check.Status)
	assert.Contains(t, check.Message, "missing")
}

func TestRuntimeCheckers(t *testing.T) {
	for _, c := range []HealthChecker{MemoryHealthChecker(), GoroutineHealthChecker()} {
		assert.False(t, c.IsCritical(), c.Name())
		assert.Equal(t, HealthStatusHealthy, c.Check(context.Background()).Status, c.Name())
	}
}
