// Package ratelimit ограничивает число запросов клиента за скользящее окно.
//
// Memory хранит отметки времени в памяти процесса и подходит только для
// одного экземпляра сервиса. Redis хранит их в общем redis и годится для
// нескольких экземпляров за балансировщиком.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// DefaultWindow длина скользящего окна.
const DefaultWindow = time.Minute

// Memory скользящее окно в памяти процесса.
type Memory struct {
	mu     sync.Mutex
	hits   map[string][]time.Time
	window time.Duration
	now    func() time.Time
}

// NewMemory создаёт лимитер с окном window (DefaultWindow, если window <= 0).
func NewMemory(window time.Duration) *Memory {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Memory{
		hits:   make(map[string][]time.Time),
		window: window,
		now:    time.Now,
	}
}

// Allow пропускает запрос, если за последнее окно от key было меньше limit запросов.
// Отклонённые запросы в окно не записываются.
func (m *Memory) Allow(_ context.Context, key string, limit int) (bool, error) {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	recent := prune(m.hits[key], now.Add(-m.window))
	if len(recent) >= limit {
		m.hits[key] = recent
		return false, nil
	}
	m.hits[key] = append(recent, now)
	return true, nil
}

// Sweep удаляет ключи без запросов в текущем окне.
func (m *Memory) Sweep() {
	cutoff := m.now().Add(-m.window)

	m.mu.Lock()
	defer m.mu.Unlock()

	for key, ts := range m.hits {
		if recent := prune(ts, cutoff); len(recent) == 0 {
			delete(m.hits, key)
		} else {
			m.hits[key] = recent
		}
	}
}

// Run периодически вызывает Sweep до отмены ctx.
func (m *Memory) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// Keys количество отслеживаемых клиентов.
func (m *Memory) Keys() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.hits)
}

// prune отбрасывает отметки не позже cutoff. Отметки хранятся по возрастанию.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0:0], ts[i:]...)
}
