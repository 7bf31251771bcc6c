// Package limiter ограничивает частоту запросов к чату виджета.
package limiter

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter решает, пропустить ли очередной запрос с ключом key.
type Limiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// Strategy: алгоритм ограничения поверх Redis.
// key: идентификатор (публичный ключ виджета, IP)
// limit: число запросов (или ёмкость бакета)
// window: окно (или единица скорости пополнения)
type Strategy interface {
	Allow(ctx context.Context, rdb *redis.Client, key string, limit int, window time.Duration) (bool, error)
}

// Manager: Limiter, выполняющий стратегию на общем клиенте Redis.
type Manager struct {
	rdb      *redis.Client
	strategy Strategy
}

func NewManager(rdb *redis.Client, strategy Strategy) *Manager {
	return &Manager{
		rdb:      rdb,
		strategy: strategy,
	}
}

func (m *Manager) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return m.strategy.Allow(ctx, m.rdb, key, limit, window)
}

// StrategyByName возвращает стратегию по имени из конфигурации: "fixed" или "token".
func StrategyByName(name string) Strategy {
	if name == "token" {
		return &TokenBucketStrategy{}
	}
	return &FixedWindowStrategy{}
}

func windowSeconds(window time.Duration) int {
	s := int(window.Seconds())
	if s < 1 {
		return 1
	}
	return s
}

// FixedWindowStrategy считает запросы в фиксированном окне (INCR + EXPIRE атомарно в Lua).
type FixedWindowStrategy struct{}

var fixedWindowScript = redis.NewScript(`
	local current = redis.call("INCR", KEYS[1])
	if current == 1 then
		redis.call("EXPIRE", KEYS[1], tonumber(ARGV[2]))
	end
	if current > tonumber(ARGV[1]) then
		return 0
	end
	return 1
`)

func (s *FixedWindowStrategy) Allow(ctx context.Context, rdb *redis.Client, key string, limit int, window time.Duration) (bool, error) {
	result, err := fixedWindowScript.Run(ctx, rdb, []string{key}, limit, windowSeconds(window)).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}

// TokenBucketStrategy: токен-бакет ёмкостью limit, пополняется на limit токенов за window.
type TokenBucketStrategy struct {
	// nowFunc подменяется в тестах
	nowFunc func() time.Time
}

var tokenBucketScript = redis.NewScript(`
	local capacity = tonumber(ARGV[1])
	local rate = tonumber(ARGV[2])
	local now = tonumber(ARGV[3])
	local ttl = tonumber(ARGV[4])

	local info = redis.call("HMGET", KEYS[1], "tokens", "last_time")
	local tokens = tonumber(info[1])
	local last_time = tonumber(info[2])
	if tokens == nil then
		tokens = capacity
		last_time = now
	end

	local delta = math.max(0, now - last_time)
	tokens = math.min(capacity, tokens + delta * rate)

	if tokens < 1 then
		return 0
	end
	redis.call("HSET", KEYS[1], "tokens", tokens - 1, "last_time", now)
	redis.call("EXPIRE", KEYS[1], ttl)
	return 1
`)

func (s *TokenBucketStrategy) Allow(ctx context.Context, rdb *redis.Client, key string, limit int, window time.Duration) (bool, error) {
	rate := float64(limit) / window.Seconds()
	if rate <= 0 {
		rate = 1
	}
	now := time.Now
	if s.nowFunc != nil {
		now = s.nowFunc
	}

	ts := float64(now().UnixMilli()) / 1000
	result, err := tokenBucketScript.Run(ctx, rdb, []string{key}, limit, rate, ts, 2*windowSeconds(window)).Int()
	if err != nil {
		return false, err
	}
	return result == 1, nil
}
