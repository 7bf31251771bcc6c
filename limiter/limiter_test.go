package limiter

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestMemoryFixedWindow(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	m.nowFunc = func() time.Time { return now }

	for i := 1; i <= 3; i++ {
		ok, err := m.Allow(ctx, "PUB_a", 3, time.Minute)
		if err != nil || !ok {
			t.Fatalf("request %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := m.Allow(ctx, "PUB_a", 3, time.Minute); ok {
		t.Fatal("4th request in window allowed")
	}

	// другой ключ считается отдельно
	if ok, _ := m.Allow(ctx, "PUB_b", 3, time.Minute); !ok {
		t.Error("independent key limited")
	}

	now = now.Add(time.Minute)
	if ok, _ := m.Allow(ctx, "PUB_a", 3, time.Minute); !ok {
		t.Error("new window should allow again")
	}
}

func TestMemorySweepsExpiredWindows(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	now := time.Unix(0, 0)
	m.nowFunc = func() time.Time { return now }

	for i := 0; i < 2000; i++ {
		m.Allow(ctx, "ip:"+strconv.Itoa(i), 1, time.Second)
	}
	now = now.Add(time.Hour)
	m.Allow(ctx, "fresh", 1, time.Second)

	if n := len(m.windows); n != 1 {
		t.Errorf("windows after sweep = %d, want 1", n)
	}
}

type stubStrategy struct {
	key   string
	limit int
	err   error
}

func (s *stubStrategy) Allow(_ context.Context, _ *redis.Client, key string, limit int, _ time.Duration) (bool, error) {
	s.key, s.limit = key, limit
	return s.err == nil, s.err
}

func TestManagerDelegatesToStrategy(t *testing.T) {
	st := &stubStrategy{}
	m := NewManager(nil, st)

	ok, err := m.Allow(context.Background(), "limiter:chat:PUB_x", 5, time.Minute)
	if err != nil || !ok {
		t.Fatalf("ok=%v err=%v", ok, err)
	}
	if st.key != "limiter:chat:PUB_x" || st.limit != 5 {
		t.Errorf("strategy got key=%q limit=%d", st.key, st.limit)
	}

	st.err = errors.New("redis down")
	if _, err := m.Allow(context.Background(), "k", 5, time.Minute); err == nil {
		t.Error("strategy error not propagated")
	}
}

func TestStrategyByName(t *testing.T) {
	if _, ok := StrategyByName("token").(*TokenBucketStrategy); !ok {
		t.Error("token strategy expected")
	}
	if _, ok := StrategyByName("fixed").(*FixedWindowStrategy); !ok {
		t.Error("fixed strategy expected")
	}
	if _, ok := StrategyByName("").(*FixedWindowStrategy); !ok {
		t.Error("fixed strategy is the default")
	}
}

func TestRedisStrategiesReportConnectionErrors(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1", DialTimeout: 100 * time.Millisecond, MaxRetries: -1})
	defer rdb.Close()

	for _, s := range []Strategy{&FixedWindowStrategy{}, &TokenBucketStrategy{}} {
		if _, err := NewManager(rdb, s).Allow(context.Background(), "k", 1, time.Second); err == nil {
			t.Errorf("%T: expected connection error", s)
		}
	}
}
