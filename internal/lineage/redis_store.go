package lineage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/spreadlab/claimtrace/models"
)

const (
	claimKeyPrefix = "claim:"
	recordTTL      = 90 * 24 * time.Hour
)

var (
	connOnce   sync.Once
	connClient *redis.Client
	connErr    error
)

// Conn establishes the shared Redis connection. Safe to call repeatedly:
// only the first call dials and pings.
func Conn(ctx context.Context, host, port, pass string, db int, timeout time.Duration) (*redis.Client, error) {
	connOnce.Do(func() {
		client := redis.NewClient(&redis.Options{
			Addr:        fmt.Sprintf("%s:%s", host, port),
			DialTimeout: timeout,
			Password:    pass,
			DB:          db,
		})
		pong, err := client.Ping(ctx).Result()
		if err != nil {
			connErr = err
			return
		}
		if pong != "PONG" {
			connErr = fmt.Errorf("expected PONG, got %s", pong)
			return
		}
		connClient = client
	})
	return connClient, connErr
}

// redisStore implements Store using Redis
type redisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *redisStore {
	return &redisStore{client: client}
}

func (r *redisStore) SaveLineage(ctx context.Context, primary models.PrimaryClaim, secondaries []models.Claim) error {
	primaryKey := claimKeyPrefix + primary.ID
	listKey := primaryKey + ":secondaries"

	data, err := json.Marshal(primary)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Set(ctx, primaryKey, data, recordTTL)
	pipe.Del(ctx, listKey)
	for i, sec := range secondaries {
		secData, err := json.Marshal(sec)
		if err != nil {
			return err
		}
		secKey := fmt.Sprintf("%s:secondary:%d", primaryKey, i)
		pipe.Set(ctx, secKey, secData, recordTTL)
		pipe.RPush(ctx, listKey, secKey)
	}
	pipe.Expire(ctx, listKey, recordTTL)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *redisStore) GetPrimary(ctx context.Context, id string) (models.PrimaryClaim, error) {
	val, err := r.client.Get(ctx, claimKeyPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.PrimaryClaim{}, ErrNotFound
		}
		return models.PrimaryClaim{}, err
	}

	var primary models.PrimaryClaim
	if err := json.Unmarshal([]byte(val), &primary); err != nil {
		return models.PrimaryClaim{}, err
	}
	return primary, nil
}

func (r *redisStore) ListSecondaries(ctx context.Context, id string) ([]models.Claim, error) {
	listKey := claimKeyPrefix + id + ":secondaries"
	keys, err := r.client.LRange(ctx, listKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}

	var claims []models.Claim
	for _, key := range keys {
		val, err := r.client.Get(ctx, key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			return nil, err
		}
		var claim models.Claim
		if err := json.Unmarshal([]byte(val), &claim); err != nil {
			return nil, err
		}
		claims = append(claims, claim)
	}
	return claims, nil
}
