package middleware

import (
	"net/http"
	"sync"
	"time"

	apperrors "circulation/pkg/errors"
	"circulation/pkg/logger"
)

const OperatorIDHeader = "X-Operator-ID"

// OperatorRateLimiter is a sliding-window limiter keyed by the operator id header.
type OperatorRateLimiter struct {
	mu       sync.Mutex
	requests map[string][]time.Time
	limit    int
	window   time.Duration
	log      *logger.Logger
	stopCh   chan struct{}
	once     sync.Once
}

func NewOperatorRateLimiter(limit int, window time.Duration, log *logger.Logger) *OperatorRateLimiter {
	limiter := &OperatorRateLimiter{
		requests: make(map[string][]time.Time),
		limit:    limit,
		window:   window,
		log:      log,
		stopCh:   make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

func (rl *OperatorRateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.mu.Lock()
			for operator, timestamps := range rl.requests {
				if len(timestamps) == 0 || time.Since(timestamps[len(timestamps)-1]) > rl.window {
					delete(rl.requests, operator)
				}
			}
			rl.mu.Unlock()
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *OperatorRateLimiter) Stop() {
	rl.once.Do(func() { close(rl.stopCh) })
}

// Allow records a request for operator and reports whether it fits in the window.
// Requests without an operator are not limited here.
func (rl *OperatorRateLimiter) Allow(operator string) bool {
	if operator == "" {
		return true
	}

	now := time.Now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	valid := rl.requests[operator][:0]
	for _, ts := range rl.requests[operator] {
		if now.Sub(ts) < rl.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= rl.limit {
		rl.requests[operator] = valid
		return false
	}
	rl.requests[operator] = append(valid, now)
	return true
}

func OperatorRateLimit(limiter *OperatorRateLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operator := r.Header.Get(OperatorIDHeader)
			if !limiter.Allow(operator) {
				limiter.log.Warn("Rate limit exceeded",
					"request_id", RequestIDFromContext(r.Context()),
					"operator_id", operator,
					"path", r.URL.Path,
				)
				_ = apperrors.WriteError(w, apperrors.TooManyRequests("Rate limit exceeded"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
