package middleware

import (
	"context"
	"errors"
	"sync"
	"time"

	"connectrpc.com/connect"
	"golang.org/x/time/rate"
)

// ErrRateLimited is returned when a caller exceeds its request budget.
var ErrRateLimited = errors.New("rate limit exceeded")

// idleLimiterTTL is how long an unused per-caller limiter is kept.
const idleLimiterTTL = 10 * time.Minute

type callerLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per caller. Callers are keyed by
// user ID when authenticated and by peer address otherwise.
type RateLimiter struct {
	mu      sync.Mutex
	rps     rate.Limit
	burst   int
	callers map[string]*callerLimiter
	now     func() time.Time
}

// NewRateLimiter creates a limiter allowing rps sustained requests per second
// with the given burst per caller. rps <= 0 disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   burst,
		callers: make(map[string]*callerLimiter),
		now:     time.Now,
	}
}

// Allow reports whether key may make a request now.
func (l *RateLimiter) Allow(key string) bool {
	if l.rps <= 0 {
		return true
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	c, ok := l.callers[key]
	if !ok {
		l.evictIdle(now)
		c = &callerLimiter{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.callers[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// evictIdle drops limiters unused for idleLimiterTTL. Callers hold l.mu.
func (l *RateLimiter) evictIdle(now time.Time) {
	for key, c := range l.callers {
		if now.Sub(c.lastSeen) > idleLimiterTTL {
			delete(l.callers, key)
		}
	}
}

// Interceptor rejects requests over budget with ResourceExhausted. Install
// it inside the auth interceptor so authenticated callers are keyed by user.
func (l *RateLimiter) Interceptor() connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			key := GetUserID(ctx)
			if key == "" {
				key = "peer:" + req.Peer().Addr
			}
			if !l.Allow(key) {
				return nil, connect.NewError(connect.CodeResourceExhausted, ErrRateLimited)
			}
			return next(ctx, req)
		}
	}
}
