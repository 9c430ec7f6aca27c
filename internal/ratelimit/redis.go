package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "ratelimit:"

// slidingWindow удаляет отметки старше окна, считает оставшиеся и добавляет
// новую, только если лимит не исчерпан. Возвращает 1, если запрос пропущен.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
if redis.call('ZCARD', key) >= limit then
	return 0
end
redis.call('ZADD', key, now, member)
redis.call('PEXPIRE', key, window)
return 1
`)

// Redis скользящее окно в redis, общее для всех экземпляров сервиса.
type Redis struct {
	db     *redis.Client
	window time.Duration
	now    func() time.Time
}

// NewRedis создаёт лимитер поверх открытого клиента.
func NewRedis(db *redis.Client, window time.Duration) *Redis {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Redis{db: db, window: window, now: time.Now}
}

// Allow атомарно проверяет и пополняет окно key.
func (r *Redis) Allow(ctx context.Context, key string, limit int) (bool, error) {
	const op = "ratelimit.Redis.Allow"

	res, err := slidingWindow.Run(ctx, r.db,
		[]string{keyPrefix + key},
		r.now().UnixMilli(), r.window.Milliseconds(), limit, uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return res == 1, nil
}
