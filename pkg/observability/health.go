package observability

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"time"
)

// HealthStatus represents the health status of the service
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheck is a named dependency probe.
type HealthCheck struct {
	Name      string
	CheckFunc func(context.Context) error
	Timeout   time.Duration
}

// HealthChecker manages health checks
type HealthChecker struct {
	checks []*HealthCheck
	mu     sync.RWMutex
}

// CheckStatus represents the status of a single health check
type CheckStatus struct {
	Status  HealthStatus `json:"status"`
	Message string       `json:"message,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    HealthStatus           `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	System    SystemInfo             `json:"system"`
}

// SystemInfo represents system information
type SystemInfo struct {
	NumGoroutines int    `json:"num_goroutines"`
	NumCPU        int    `json:"num_cpu"`
	MemAllocMB    uint64 `json:"mem_alloc_mb"`
}

// NewHealthChecker creates a health checker with no checks registered.
func NewHealthChecker() *HealthChecker {
	return &HealthChecker{}
}

// RegisterCheck adds a dependency probe.
func (h *HealthChecker) RegisterCheck(name string, fn func(context.Context) error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks = append(h.checks, &HealthCheck{
		Name:      name,
		CheckFunc: fn,
		Timeout:   5 * time.Second,
	})
}

// Run executes all checks and reports the aggregate status.
func (h *HealthChecker) Run(ctx context.Context) HealthResponse {
	h.mu.RLock()
	checks := make([]*HealthCheck, len(h.checks))
	copy(checks, h.checks)
	h.mu.RUnlock()

	resp := HealthResponse{
		Status:    HealthStatusHealthy,
		Timestamp: time.Now().UTC(),
		Checks:    make(map[string]CheckStatus, len(checks)),
	}

	for _, check := range checks {
		cctx, cancel := context.WithTimeout(ctx, check.Timeout)
		err := check.CheckFunc(cctx)
		cancel()

		if err != nil {
			resp.Status = HealthStatusUnhealthy
			resp.Checks[check.Name] = CheckStatus{Status: HealthStatusUnhealthy, Message: err.Error()}
		} else {
			resp.Checks[check.Name] = CheckStatus{Status: HealthStatusHealthy}
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	resp.System = SystemInfo{
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		MemAllocMB:    mem.Alloc / 1024 / 1024,
	}

	return resp
}

// Handler returns an HTTP handler serving the health report.
func (h *HealthChecker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := h.Run(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if resp.Status != HealthStatusHealthy {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}
}
