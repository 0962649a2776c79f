package ratelimit

import (
	"context"
	"time"

	"github.com/justsurfingit/InternConnect/internal/logging"
	"github.com/redis/go-redis/v9"
)

const rateLimitScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
if current > tonumber(ARGV[2]) then
  return 0
end
return 1
`

// Redis shares counters between instances. It fails open when Redis is unreachable.
type Redis struct {
	client *redis.Client
	script *redis.Script
	prefix string
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{
		client: client,
		script: redis.NewScript(rateLimitScript),
		prefix: "internconnect:ratelimit:",
	}
}

// Connect parses url and verifies the server answers.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (l *Redis) Allow(ctx context.Context, key string, limit int, window time.Duration) bool {
	if l == nil || l.client == nil {
		return true
	}
	if key == "" || limit <= 0 || window <= 0 {
		return true
	}
	ttl := window.Milliseconds()
	if ttl <= 0 {
		ttl = 1
	}
	ctx, cancel := context.WithTimeout(ctx, 250*time.Millisecond)
	defer cancel()
	allowed, err := l.script.Run(ctx, l.client, []string{l.prefix + key}, ttl, limit).Int64()
	if err != nil {
		logging.L.Warn("rate limiter unavailable, allowing request", "key", key, "error", err)
		return true
	}
	return allowed == 1
}
