package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/magabrotheeeer/antivirus-core/internal/config"
	"github.com/magabrotheeeer/antivirus-core/internal/models"
)

const (
	verdictPrefix = "verdict:"
	// indexKey упорядоченное множество хешей со временем записи в миллисекундах.
	indexKey = "verdict-index"
)

// setBounded записывает вердикт, убирает из индекса записи старше ttl
// и вытесняет самые давние, пока в кеше больше size записей.
var setBounded = redis.NewScript(`
local index = KEYS[1]
local prefix = ARGV[1]
local hash = ARGV[2]
local value = ARGV[3]
local now = tonumber(ARGV[4])
local ttl = tonumber(ARGV[5])
local size = tonumber(ARGV[6])

redis.call('SET', prefix .. hash, value, 'PX', ttl)
redis.call('ZADD', index, now, hash)
redis.call('ZREMRANGEBYSCORE', index, '-inf', now - ttl)

local excess = redis.call('ZCARD', index) - size
if excess > 0 then
	local evicted = redis.call('ZRANGE', index, 0, excess - 1)
	for _, h in ipairs(evicted) do
		redis.call('DEL', prefix .. h)
	end
	redis.call('ZREMRANGEBYRANK', index, 0, excess - 1)
end
return excess
`)

// Redis кеш вердиктов в redis, общий для нескольких экземпляров сервиса.
// Размер ограничен size записями: при переполнении вытесняются самые давно
// записанные, устаревшие по ttl уходят сами.
type Redis struct {
	Db   *redis.Client
	size int
	ttl  time.Duration
	now  func() time.Time
}

// Connect открывает соединение с redis и проверяет его.
func Connect(ctx context.Context, cfg config.RedisConnection) (*redis.Client, error) {
	const op = "cache.Connect"
	db := redis.NewClient(&redis.Options{
		Addr:         cfg.AddressRedis,
		Password:     cfg.Password,
		DB:           cfg.DB,
		Username:     cfg.User,
		MaxRetries:   cfg.MaxRetries,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.TimeoutRedis,
		WriteTimeout: cfg.TimeoutRedis,
	})

	if err := db.Ping(ctx).Err(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return db, nil
}

// NewRedis создаёт кеш на size записей со сроком жизни ttl поверх открытого клиента.
func NewRedis(db *redis.Client, size int, ttl time.Duration) *Redis {
	if size <= 0 {
		size = 1
	}
	if ttl < time.Millisecond {
		ttl = time.Millisecond
	}
	return &Redis{Db: db, size: size, ttl: ttl, now: time.Now}
}

// Get возвращает вердикт по хешу.
func (c *Redis) Get(ctx context.Context, hash string) (models.Verdict, bool, error) {
	const op = "cache.Redis.Get"
	val, err := c.Db.Get(ctx, verdictPrefix+hash).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Verdict{}, false, nil
	}
	if err != nil {
		return models.Verdict{}, false, fmt.Errorf("%s: %w", op, err)
	}
	var v models.Verdict
	if err = json.Unmarshal(val, &v); err != nil {
		return models.Verdict{}, false, fmt.Errorf("%s: %w", op, err)
	}
	return v, true, nil
}

// Set сохраняет вердикт с временем жизни кеша.
func (c *Redis) Set(ctx context.Context, hash string, v models.Verdict) error {
	const op = "cache.Redis.Set"
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	err = setBounded.Run(ctx, c.Db,
		[]string{indexKey},
		verdictPrefix, hash, data, c.now().UnixMilli(), c.ttl.Milliseconds(), c.size,
	).Err()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Len количество записей, не устаревших по ttl.
func (c *Redis) Len(ctx context.Context) (int, error) {
	const op = "cache.Redis.Len"
	minScore := "(" + strconv.FormatInt(c.now().Add(-c.ttl).UnixMilli(), 10)
	n, err := c.Db.ZCount(ctx, indexKey, minScore, "+inf").Result()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(n), nil
}
