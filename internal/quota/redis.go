package quota

import (
	"context"
	"strconv"
	"time"

	"github.com/gorhill/cronexpr"
	"github.com/redis/go-redis/v9"
)

const quotaKeyPrefix = "quota:"

// consumeScript initializes the window counter on first touch, denies at
// zero without decrementing, and decrements otherwise. Running it as a
// script keeps check-and-decrement atomic across concurrent requests.
var consumeScript = redis.NewScript(`
local rem = redis.call('GET', KEYS[1])
if rem == false then
  redis.call('SET', KEYS[1], ARGV[1] - 1, 'PX', ARGV[2])
  return ARGV[1] - 1
end
rem = tonumber(rem)
if rem <= 0 then
  return -1
end
return redis.call('DECR', KEYS[1])
`)

// RedisStore keeps per-user quota state in Redis, keyed quota:<user>, with
// the key expiring at the daily boundary so windows reset themselves.
type RedisStore struct {
	client   *redis.Client
	limit    int
	boundary *cronexpr.Expression
	now      func() time.Time
}

func NewRedisStore(client *redis.Client, limit int, resetCron string) *RedisStore {
	if limit <= 0 {
		limit = DefaultDailyLimit
	}
	if resetCron == "" {
		resetCron = DefaultResetCron
	}
	return &RedisStore{
		client:   client,
		limit:    limit,
		boundary: cronexpr.MustParse(resetCron),
		now:      time.Now,
	}
}

func (s *RedisStore) CheckAndConsume(ctx context.Context, userID string) (bool, error) {
	ttl := s.boundary.Next(s.now()).Sub(s.now())
	res, err := consumeScript.Run(ctx, s.client,
		[]string{quotaKeyPrefix + userID},
		s.limit, ttl.Milliseconds(),
	).Int()
	if err != nil {
		return false, err
	}
	return res >= 0, nil
}

func (s *RedisStore) Remaining(ctx context.Context, userID string) (int, error) {
	val, err := s.client.Get(ctx, quotaKeyPrefix+userID).Result()
	if err == redis.Nil {
		return s.limit, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(val)
}
