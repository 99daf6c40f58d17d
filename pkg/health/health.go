package health

import (
	"context"
	"sync"
	"time"
)

const (
	defaultTimeout = 5 * time.Second

	// StatusHealthy indicates all checks passed.
	StatusHealthy = "healthy"
	// StatusUnhealthy indicates one or more checks failed.
	StatusUnhealthy = "unhealthy"
)

// CheckFunc is the standard health check function signature.
// Healthcheck closures from the redis and plugin packages satisfy it.
type CheckFunc func(ctx context.Context) error

// Checks is a map of named health check functions.
type Checks map[string]CheckFunc

// Result is the aggregated outcome of a readiness probe.
type Result struct {
	Checks  map[string]Check `json:"checks,omitempty"`
	Status  string           `json:"status"`
	Healthy bool             `json:"-"`
}

// Check represents the status of a single health check.
type Check struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Option configures check execution.
type Option func(*config)

type config struct {
	timeout time.Duration
}

// WithTimeout sets the timeout for all checks.
// Defaults to 5 seconds.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// Run executes all checks in parallel and returns the aggregated
// result. An empty check set is healthy.
func Run(ctx context.Context, checks Checks, opts ...Option) Result {
	cfg := &config{timeout: defaultTimeout}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(checks) == 0 {
		return Result{Status: StatusHealthy, Healthy: true}
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]Check, len(checks))
		failed  bool
	)

	for name, check := range checks {
		wg.Add(1)
		go func(name string, check CheckFunc) {
			defer wg.Done()

			result := Check{Status: StatusHealthy}
			if err := check(ctx); err != nil {
				result.Status = StatusUnhealthy
				result.Error = err.Error()
			}

			mu.Lock()
			results[name] = result
			if result.Status == StatusUnhealthy {
				failed = true
			}
			mu.Unlock()
		}(name, check)
	}

	wg.Wait()

	status := StatusHealthy
	if failed {
		status = StatusUnhealthy
	}

	return Result{
		Status:  status,
		Checks:  results,
		Healthy: !failed,
	}
}
