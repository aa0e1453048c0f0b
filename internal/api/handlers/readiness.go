package handlers

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/render"
	"github.com/redis/go-redis/v9"
)

// ReadinessChecker checks if a dependency is ready.
type ReadinessChecker interface {
	Name() string
	Check(ctx context.Context) error
}

// RedisReadinessChecker pings the Redis behind the shared rate limiter.
type RedisReadinessChecker struct {
	rdb *redis.Client
}

func NewRedisReadinessChecker(rdb *redis.Client) *RedisReadinessChecker {
	return &RedisReadinessChecker{rdb: rdb}
}

func (c *RedisReadinessChecker) Name() string { return "redis" }

func (c *RedisReadinessChecker) Check(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// ReadinessHandler handles /readyz and /healthz endpoints.
type ReadinessHandler struct {
	checkers []ReadinessChecker
	timeout  time.Duration
}

func NewReadinessHandler(checkers ...ReadinessChecker) *ReadinessHandler {
	return &ReadinessHandler{checkers: checkers, timeout: 2 * time.Second}
}

// Healthz is a liveness check: the process is up.
func (h *ReadinessHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

type checkResult struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Readyz runs every checker concurrently. The places and image APIs are not
// probed; their outages show up as degraded results.
func (h *ReadinessHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	results := make([]checkResult, len(h.checkers))
	var wg sync.WaitGroup
	for i, c := range h.checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res := checkResult{Name: c.Name(), Status: "healthy"}
			if err := c.Check(ctx); err != nil {
				res.Status = "unhealthy"
				res.Error = err.Error()
			}
			results[i] = res
		}()
	}
	wg.Wait()

	resp := struct {
		Status string        `json:"status"`
		Checks []checkResult `json:"checks"`
	}{Status: "ready", Checks: results}

	status := http.StatusOK
	for _, res := range results {
		if res.Status != "healthy" {
			resp.Status = "not_ready"
			status = http.StatusServiceUnavailable
			break
		}
	}

	render.Status(r, status)
	render.JSON(w, r, resp)
}
