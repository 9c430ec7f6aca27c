// Package cache хранит результаты проверки хешей по базе сигнатур.
//
// Кеш никогда не является источником истины: промах всегда ведёт в хранилище,
// а запись новой сигнатуры кеш не сбрасывает.
package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/magabrotheeeer/antivirus-core/internal/models"
)

// Memory ограниченный по размеру LRU-кеш с временем жизни записей в памяти процесса.
type Memory struct {
	lru *expirable.LRU[string, models.Verdict]
}

// NewMemory создаёт кеш на size записей со сроком жизни ttl.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = 1
	}
	return &Memory{lru: expirable.NewLRU[string, models.Verdict](size, nil, ttl)}
}

// Get возвращает вердикт, если он есть и не устарел.
func (c *Memory) Get(_ context.Context, hash string) (models.Verdict, bool, error) {
	v, ok := c.lru.Get(hash)
	return v, ok, nil
}

// Set сохраняет вердикт, вытесняя самый давно использованный при переполнении.
func (c *Memory) Set(_ context.Context, hash string, v models.Verdict) error {
	c.lru.Add(hash, v)
	return nil
}

// Len количество живых записей.
func (c *Memory) Len(_ context.Context) (int, error) {
	return c.lru.Len(), nil
}
