package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wolfman30/buyer-lead-intake/pkg/logging"
)

// Limiter throttles how many create/update/import calls an actor may issue
// per time window. It is an injected capability, not a module singleton.
type Limiter struct {
	redis  *redis.Client
	logger *logging.Logger
	config Config
}

// Config contains the per-window quotas.
type Config struct {
	// Max create/update requests per actor per window
	WriteLimit  int
	WriteWindow time.Duration

	// Max CSV imports per actor per window
	ImportLimit  int
	ImportWindow time.Duration
}

// DefaultConfig returns the product's default quotas.
func DefaultConfig() Config {
	return Config{
		WriteLimit:   10,
		WriteWindow:  time.Minute,
		ImportLimit:  3,
		ImportWindow: 5 * time.Minute,
	}
}

// Result contains the outcome of one limiter check.
type Result struct {
	Allowed      bool
	CurrentCount int
	MaxAllowed   int
	WindowExpiry time.Time
}

// New creates a limiter backed by redis counters.
func New(redisClient *redis.Client, config Config, logger *logging.Logger) *Limiter {
	if logger == nil {
		logger = logging.Default()
	}
	return &Limiter{redis: redisClient, logger: logger, config: config}
}

// AllowWrite checks the create/update quota for the actor.
func (l *Limiter) AllowWrite(ctx context.Context, actorID string) *Result {
	return l.allow(ctx, "write", actorID, l.config.WriteLimit, l.config.WriteWindow)
}

// AllowImport checks the CSV import quota for the actor.
func (l *Limiter) AllowImport(ctx context.Context, actorID string) *Result {
	return l.allow(ctx, "import", actorID, l.config.ImportLimit, l.config.ImportWindow)
}

func (l *Limiter) allow(ctx context.Context, kind, actorID string, limit int, window time.Duration) *Result {
	key := fmt.Sprintf("ratelimit:%s:%s", kind, actorID)

	count, expiry, err := l.incrementAndGet(ctx, key, window)
	if err != nil {
		l.logger.Error("rate limit check failed", "error", err, "key", key)
		// Fail open - allow the request if redis is down
		return &Result{Allowed: true, MaxAllowed: limit}
	}

	result := &Result{
		Allowed:      count <= limit,
		CurrentCount: count,
		MaxAllowed:   limit,
		WindowExpiry: expiry,
	}
	if !result.Allowed {
		l.logger.Warn("rate limit exceeded",
			"kind", kind,
			"actor_id", actorID,
			"count", count,
			"max", limit,
		)
	}
	return result
}

// incrementAndGet increments a counter and returns the new value with expiry time.
func (l *Limiter) incrementAndGet(ctx context.Context, key string, window time.Duration) (int, time.Time, error) {
	count, err := l.redis.Incr(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, err
	}

	// Set expiry only on first increment
	if count == 1 {
		l.redis.Expire(ctx, key, window)
	}

	ttl, err := l.redis.TTL(ctx, key).Result()
	if err != nil {
		ttl = window
	}
	return int(count), time.Now().Add(ttl), nil
}

// Reset clears an actor's counter for a given kind (admin use).
func (l *Limiter) Reset(ctx context.Context, kind, actorID string) error {
	return l.redis.Del(ctx, fmt.Sprintf("ratelimit:%s:%s", kind, actorID)).Err()
}
