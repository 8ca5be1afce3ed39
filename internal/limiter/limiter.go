package limiter

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter is a fixed-window request counter. Allow reports whether one more
// request fits in the current window for the given key.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

type Config struct {
	Capacity int
	Window   time.Duration
}

func DefaultConfig() Config {
	return Config{Capacity: 100, Window: time.Minute}
}

// FixedWindow counts requests per key in-process. Each instance of the
// service keeps its own counters, so the effective limit scales with the
// number of instances; use RedisFixedWindow when that matters.
type FixedWindow struct {
	cfg Config

	mu      sync.Mutex
	windows map[string]*window
}

type window struct {
	count     atomic.Int64
	startedAt time.Time
}

func NewFixedWindow(cfg Config) *FixedWindow {
	if cfg.Capacity <= 0 || cfg.Window <= 0 {
		cfg = DefaultConfig()
	}
	return &FixedWindow{
		cfg:     cfg,
		windows: make(map[string]*window),
	}
}

func (l *FixedWindow) Allow(_ context.Context, key string) bool {
	now := time.Now()

	l.mu.Lock()
	w, ok := l.windows[key]
	if !ok || now.Sub(w.startedAt) > l.cfg.Window {
		w = &window{startedAt: now}
		l.windows[key] = w
	}
	l.mu.Unlock()

	for {
		current := w.count.Load()
		if current+1 > int64(l.cfg.Capacity) {
			return false
		}
		if w.count.CompareAndSwap(current, current+1) {
			return true
		}
	}
}

// RedisFixedWindow shares one window counter across all service instances.
// INCR and the initial EXPIRE run atomically via a small Lua script.
type RedisFixedWindow struct {
	cfg    Config
	client *redis.Client
	prefix string
}

var fixedWindowScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
return current
`)

func NewRedisFixedWindow(client *redis.Client, cfg Config) *RedisFixedWindow {
	if cfg.Capacity <= 0 || cfg.Window <= 0 {
		cfg = DefaultConfig()
	}
	return &RedisFixedWindow{cfg: cfg, client: client, prefix: "ratelimit:"}
}

func (l *RedisFixedWindow) Allow(ctx context.Context, key string) bool {
	count, err := fixedWindowScript.Run(ctx, l.client,
		[]string{l.prefix + key}, l.cfg.Window.Milliseconds()).Int64()
	if err != nil {
		// Fail open: a broken limiter store should not take the API down.
		return true
	}
	return count <= int64(l.cfg.Capacity)
}
