package httpmiddleware

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// slideScript trims expired hits, then records the new one only while the
// key is under its limit. ARGV: now, cutoff, limit, ttl in ms, member.
var slideScript = redis.NewScript(`
local key = KEYS[1]

redis.call('ZREMRANGEBYSCORE', key, '-inf', ARGV[2])
if redis.call('ZCARD', key) >= tonumber(ARGV[3]) then
  return 0
end
redis.call('ZADD', key, ARGV[1], ARGV[5])
redis.call('PEXPIRE', key, ARGV[4])
return 1
`)

// RedisWindow is a rolling-window limiter shared by every API instance. Each
// key is a sorted set of request timestamps.
type RedisWindow struct {
	client *redis.Client
	prefix string
	limit  int
	window time.Duration
	now    func() time.Time
}

// NewRedisWindow allows limit requests per key in any window-long interval.
func NewRedisWindow(client *redis.Client, prefix string, limit int, window time.Duration) *RedisWindow {
	if limit <= 0 {
		limit = 1
	}
	return &RedisWindow{client: client, prefix: prefix, limit: limit, window: window, now: time.Now}
}

func (l *RedisWindow) Allow(ctx context.Context, key string) (bool, error) {
	now := l.now()
	admitted, err := slideScript.Run(ctx, l.client, []string{l.prefix + key},
		now.UnixMicro(),
		now.Add(-l.window).UnixMicro(),
		l.limit,
		l.window.Milliseconds(),
		uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("rate window: %w", err)
	}
	return admitted == 1, nil
}
