package limiter

import (
	"context"
	"fmt"
	"time"

	"github.com/civicreport/api/internal/cache"
)

const (
	ActionSubmitReport = "submit_report"
	ActionLogin        = "login"
	ActionRegister     = "register"
	ActionExport       = "export"
)

type ActionConfig struct {
	Limit  int64
	Window time.Duration
}

var DefaultLimits = map[string]ActionConfig{
	ActionSubmitReport: {Limit: 10, Window: time.Minute},
	ActionLogin:        {Limit: 20, Window: time.Minute},
	ActionRegister:     {Limit: 5, Window: time.Minute},
	ActionExport:       {Limit: 10, Window: time.Minute},
}

// Counter is a fixed-window counter store, satisfied by *cache.RedisCache.
type Counter interface {
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)
	TTL(ctx context.Context, key string) (time.Duration, error)
}

type Limiter struct {
	counter Counter
	limits  map[string]ActionConfig
}

type CheckResult struct {
	Allowed   bool  `json:"allowed"`
	Remaining int64 `json:"remaining"`
	ResetAt   int64 `json:"reset_at"`
	Limit     int64 `json:"limit"`
}

func NewLimiter(counter Counter) *Limiter {
	return &Limiter{counter: counter, limits: DefaultLimits}
}

// WithLimits returns a copy of l using limits instead of DefaultLimits.
func (l *Limiter) WithLimits(limits map[string]ActionConfig) *Limiter {
	return &Limiter{counter: l.counter, limits: limits}
}

func (l *Limiter) Check(ctx context.Context, clientID, action string) (*CheckResult, error) {
	config, ok := l.limits[action]
	if !ok {
		// Default limit for unknown actions
		config = ActionConfig{Limit: 100, Window: time.Minute}
	}

	key := cache.RateKey(clientID, action)

	count, err := l.counter.Incr(ctx, key, config.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to increment counter: %w", err)
	}

	ttl, err := l.counter.TTL(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to get TTL: %w", err)
	}

	resetAt := time.Now().Add(ttl).Unix()
	remaining := config.Limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &CheckResult{
		Allowed:   count <= config.Limit,
		Remaining: remaining,
		ResetAt:   resetAt,
		Limit:     config.Limit,
	}, nil
}
