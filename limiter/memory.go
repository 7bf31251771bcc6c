package limiter

import (
	"context"
	"sync"
	"time"
)

// Memory: фиксированное окно в памяти процесса. Используется без Redis
// (одна реплика, разработка) и в тестах.
type Memory struct {
	mu      sync.Mutex
	windows map[string]*window
	nowFunc func() time.Time
}

type window struct {
	count   int
	resetAt time.Time
}

func NewMemory() *Memory {
	return &Memory{
		windows: make(map[string]*window),
		nowFunc: time.Now,
	}
}

func (m *Memory) Allow(_ context.Context, key string, limit int, win time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFunc()
	w, ok := m.windows[key]
	if !ok || !now.Before(w.resetAt) {
		w = &window{resetAt: now.Add(win)}
		m.windows[key] = w
		m.sweepLocked(now)
	}
	w.count++
	return w.count <= limit, nil
}

// sweepLocked удаляет истёкшие окна, чтобы карта не росла бесконечно.
func (m *Memory) sweepLocked(now time.Time) {
	if len(m.windows) < 1024 {
		return
	}
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
}
