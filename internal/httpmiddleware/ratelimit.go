package httpmiddleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"quizreg/internal/metrics"
)

// Limiter admits at most a fixed number of events per key within a rolling
// window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// SlidingWindow is an in-memory rolling-window limiter. Each key keeps the
// timestamps of its admitted requests inside the window.
type SlidingWindow struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu    sync.Mutex
	state map[string][]time.Time
	calls int
}

// NewSlidingWindow allows limit requests per key in any window-long interval.
func NewSlidingWindow(limit int, window time.Duration) *SlidingWindow {
	if limit <= 0 {
		limit = 1
	}
	return &SlidingWindow{
		limit:  limit,
		window: window,
		now:    time.Now,
		state:  make(map[string][]time.Time),
	}
}

func (l *SlidingWindow) Allow(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	cutoff := now.Add(-l.window)
	hits := trim(l.state[key], cutoff)

	l.calls++
	if l.calls%1024 == 0 {
		l.sweep(cutoff)
	}

	if len(hits) >= l.limit {
		l.state[key] = hits
		return false, nil
	}
	l.state[key] = append(hits, now)
	return true, nil
}

// sweep drops keys with no hits left in the window.
func (l *SlidingWindow) sweep(cutoff time.Time) {
	for k, hits := range l.state {
		if len(trim(hits, cutoff)) == 0 {
			delete(l.state, k)
		}
	}
}

func trim(hits []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(hits) && !hits[i].After(cutoff) {
		i++
	}
	return hits[i:]
}

// RateLimit rejects requests over the limit per client IP with 429. Limiter
// failures let the request through.
func RateLimit(l Limiter, logger zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		if ip == "" {
			ip = "unknown"
		}
		ok, err := l.Allow(c.Request.Context(), ip)
		if err != nil {
			logger.Error().Err(err).Str("ip", ip).Msg("rate limiter unavailable")
			c.Next()
			return
		}
		if !ok {
			metrics.RateLimited.Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests, please try again later."})
			return
		}
		c.Next()
	}
}
