// Package monitoring runs the health checks behind the /health endpoint.
package monitoring

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"runtime"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/devkitlanka/devkit/internal/logging"
	"github.com/devkitlanka/devkit/internal/version"
)

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnknown   HealthStatus = "unknown"
)

// HealthCheck represents a single health check
type HealthCheck struct {
	Name        string                 `json:"name"`
	Status      HealthStatus           `json:"status"`
	Message     string                 `json:"message,omitempty"`
	LastChecked time.Time              `json:"last_checked"`
	Duration    time.Duration          `json:"duration"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Critical    bool                   `json:"critical"`
}

// HealthChecker defines the interface for health check functions
type HealthChecker interface {
	Check(ctx context.Context) HealthCheck
	Name() string
	IsCritical() bool
}

// HealthCheckFunc adapts a function to HealthChecker.
type HealthCheckFunc struct {
	name     string
	checkFn  func(ctx context.Context) HealthCheck
	critical bool
}

// Check executes the health check function
func (h *HealthCheckFunc) Check(ctx context.Context) HealthCheck {
	return h.checkFn(ctx)
}

// Name returns the health check name
func (h *HealthCheckFunc) Name() string {
	return h.name
}

// IsCritical returns whether this check is critical
func (h *HealthCheckFunc) IsCritical() bool {
	return h.critical
}

// NewHealthCheckFunc creates a new health check function
func NewHealthCheckFunc(
	name string,
	critical bool,
	checkFn func(ctx context.Context) HealthCheck,
) *HealthCheckFunc {
	return &HealthCheckFunc{
		name:     name,
		checkFn:  checkFn,
		critical: critical,
	}
}

// HealthMonitor runs registered checks on demand. Results are reused for
// the cache window so a busy /health does not hammer slow dependencies.
type HealthMonitor struct {
	checks  map[string]HealthChecker
	mutex   sync.RWMutex
	logger  logging.Logger
	timeout time.Duration
	cache   time.Duration

	last    map[string]HealthCheck
	lastRun time.Time
	now     func() time.Time
}

// HealthResponse represents the overall health response
type HealthResponse struct {
	Status      HealthStatus           `json:"status"`
	Timestamp   time.Time              `json:"timestamp"`
	Version     string                 `json:"version,omitempty"`
	Uptime      time.Duration          `json:"uptime"`
	Checks      map[string]HealthCheck `json:"checks"`
	Summary     HealthSummary          `json:"summary"`
	SystemInfo  SystemInfo             `json:"system_info"`
	Environment string                 `json:"environment,omitempty"`
}

// HealthSummary provides a summary of health check results
type HealthSummary struct {
	Total     int `json:"total"`
	Healthy   int `json:"healthy"`
	Unhealthy int `json:"unhealthy"`
	Degraded  int `json:"degraded"`
	Unknown   int `json:"unknown"`
	Critical  int `json:"critical"`
}

// SystemInfo provides system information
type SystemInfo struct {
	Platform  string    `json:"platform"`
	GoVersion string    `json:"go_version"`
	StartTime time.Time `json:"start_time"`
}

// Options configure a HealthMonitor.
type Options struct {
	// Timeout bounds each check; 0 means 5s.
	Timeout time.Duration
	// Cache reuses results for this long; 0 runs checks on every call.
	Cache  time.Duration
	Logger logging.Logger
}

// NewHealthMonitor creates a new health monitor
func NewHealthMonitor(opts Options) *HealthMonitor {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	timeout := opts.Timeout
	if timeout == 0 {
		timeout = 5 * time.Second
	}

	return &HealthMonitor{
		checks:  make(map[string]HealthChecker),
		logger:  logger.WithComponent("health_monitor"),
		timeout: timeout,
		cache:   opts.Cache,
		now:     time.Now,
	}
}

// RegisterCheck registers a health check, replacing one with the same name.
func (hm *HealthMonitor) RegisterCheck(checker HealthChecker) {
	hm.mutex.Lock()
	defer hm.mutex.Unlock()

	hm.checks[checker.Name()] = checker
	hm.last = nil
	hm.logger.Debug(context.Background(), "Registered health check",
		"name", checker.Name(),
		"critical", checker.IsCritical())
}

// Names lists the registered checks in sorted order.
func (hm *HealthMonitor) Names() []string {
	hm.mutex.RLock()
	defer hm.mutex.RUnlock()

	names := make([]string, 0, len(hm.checks))
	for name := range hm.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// runHealthChecks executes all registered checks concurrently.
func (hm *HealthMonitor) runHealthChecks(ctx context.Context) map[string]HealthCheck {
	hm.mutex.RLock()
	checks := make([]HealthChecker, 0, len(hm.checks))
	for _, checker := range hm.checks {
		checks = append(checks, checker)
	}
	hm.mutex.RUnlock()

	results := make([]HealthCheck, len(checks))
	var g errgroup.Group
	for i, checker := range checks {
		g.Go(func() error {
			checkCtx, cancel := context.WithTimeout(ctx, hm.timeout)
			defer cancel()

			start := hm.now()
			result := checker.Check(checkCtx)
			result.Name = checker.Name()
			result.Critical = checker.IsCritical()
			result.Duration = hm.now().Sub(start)
			result.LastChecked = hm.now()
			if result.Status == "" {
				result.Status = HealthStatusUnknown
			}
			results[i] = result

			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]HealthCheck, len(results))
	for _, result := range results {
		out[result.Name] = result
		if result.Status != HealthStatusHealthy {
			hm.logger.Warn(ctx, nil, "Health check failed",
				"name", result.Name,
				"status", string(result.Status),
				"message", result.Message)
		}
	}

	return out
}

// GetHealth returns the current health status
func (hm *HealthMonitor) GetHealth(ctx context.Context) HealthResponse {
	hm.mutex.RLock()
	cached := hm.last
	fresh := cached != nil && hm.cache > 0 && hm.now().Sub(hm.lastRun) < hm.cache
	hm.mutex.RUnlock()

	checks := cached
	if !fresh {
		checks = hm.runHealthChecks(ctx)
		hm.mutex.Lock()
		hm.last = checks
		hm.lastRun = hm.now()
		hm.mutex.Unlock()
	}

	return HealthResponse{
		Status:      calculateOverallStatus(checks),
		Timestamp:   hm.now().UTC(),
		Version:     version.Get().Short(),
		Uptime:      time.Since(startTime),
		Checks:      checks,
		Summary:     calculateSummary(checks),
		SystemInfo:  getSystemInfo(),
		Environment: environment,
	}
}

// calculateSummary calculates health check summary
func calculateSummary(checks map[string]HealthCheck) HealthSummary {
	summary := HealthSummary{
		Total: len(checks),
	}

	for _, check := range checks {
		switch check.Status {
		case HealthStatusHealthy:
			summary.Healthy++
		case HealthStatusUnhealthy:
			summary.Unhealthy++
		case HealthStatusDegraded:
			summary.Degraded++
		case HealthStatusUnknown:
			summary.Unknown++
		}

		if check.Critical {
			summary.Critical++
		}
	}

	return summary
}

// calculateOverallStatus: a failing critical check makes the service
// unhealthy; any other problem only degrades it.
func calculateOverallStatus(checks map[string]HealthCheck) HealthStatus {
	status := HealthStatusHealthy
	for _, check := range checks {
		switch {
		case check.Critical && check.Status == HealthStatusUnhealthy:
			return HealthStatusUnhealthy
		case check.Status != HealthStatusHealthy:
			status = HealthStatusDegraded
		}
	}

	return status
}

// HTTPHandler returns an HTTP handler for health checks
func (hm *HealthMonitor) HTTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		health := hm.GetHealth(r.Context())

		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "no-store")

		switch health.Status {
		case HealthStatusHealthy, HealthStatusDegraded:
			w.WriteHeader(http.StatusOK)
		case HealthStatusUnhealthy:
			w.WriteHeader(http.StatusServiceUnavailable)
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}

		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(health); err != nil {
			hm.logger.Error(r.Context(), err, "Failed to encode health response")
		}
	}
}

// Predefined health checks

// DirectoryHealthChecker reports whether dir can be listed. It backs the
// cheat-sheet directory check.
func DirectoryHealthChecker(name, dir string, critical bool) HealthChecker {
	return NewHealthCheckFunc(name, critical, func(ctx context.Context) HealthCheck {
		entries, err := os.ReadDir(dir)
		if err != nil {
			return HealthCheck{
				Status:  HealthStatusUnhealthy,
				Message: fmt.Sprintf("Cannot read %s: %v", dir, err),
			}
		}

		return HealthCheck{
			Status:   HealthStatusHealthy,
			Message:  "Directory is readable",
			Metadata: map[string]interface{}{"path": dir, "entries": len(entries)},
		}
	})
}

// MemoryHealthChecker checks memory usage
func MemoryHealthChecker() HealthChecker {
	return NewHealthCheckFunc("memory", false, func(ctx context.Context) HealthCheck {
		var mem runtime.MemStats
		runtime.ReadMemStats(&mem)

		const maxHeapSize = 1 << 30

		status := HealthStatusHealthy
		message := "Memory usage is normal"
		if mem.HeapAlloc > maxHeapSize {
			status = HealthStatusDegraded
			message = fmt.Sprintf("High memory usage: %d bytes", mem.HeapAlloc)
		}

		return HealthCheck{
			Status:  status,
			Message: message,
			Metadata: map[string]interface{}{
				"heap_alloc": mem.HeapAlloc,
				"heap_sys":   mem.HeapSys,
				"gc_runs":    mem.NumGC,
			},
		}
	})
}

// GoroutineHealthChecker checks for goroutine leaks such as abandoned
// websocket readers.
func GoroutineHealthChecker() HealthChecker {
	return NewHealthCheckFunc("goroutines", false, func(ctx context.Context) HealthCheck {
		goroutines := runtime.NumGoroutine()

		status := HealthStatusHealthy
		message := "Goroutine count is normal"
		if goroutines > 1000 {
			status = HealthStatusDegraded
			message = fmt.Sprintf("High goroutine count: %d", goroutines)
		}
		if goroutines > 10000 {
			status = HealthStatusUnhealthy
			message = fmt.Sprintf("Very high goroutine count: %d", goroutines)
		}

		return HealthCheck{
			Status:   status,
			Message:  message,
			Metadata: map[string]interface{}{"count": goroutines},
		}
	})
}

var (
	startTime   = time.Now()
	environment = "development"
)

// SetEnvironment records the deployment environment reported by /health.
func SetEnvironment(env string) {
	if env != "" {
		environment = env
	}
}

func getSystemInfo() SystemInfo {
	return SystemInfo{
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		GoVersion: runtime.Version(),
		StartTime: startTime,
	}
}
