package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// statusTTL bounds how long finished-job state lingers in Redis.
const statusTTL = 24 * time.Hour

type RedisCache struct {
	client *redis.Client
}

func NewRedisCache(addr, password string, db int) (*RedisCache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	// Ping Redis to check the connection
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("cannot connect to Redis at %s: %w", addr, err)
	}

	return &RedisCache{client: rdb}, nil
}

// Client exposes the raw connection for collaborators sharing it (the redis
// lock backend).
func (r *RedisCache) Client() *redis.Client {
	return r.client
}

func (r *RedisCache) SetImportStatus(jobID, status string) error {
	return r.client.Set(context.Background(), statusKey(jobID), status, statusTTL).Err()
}

func (r *RedisCache) GetImportStatus(jobID string) (string, error) {
	return r.client.Get(context.Background(), statusKey(jobID)).Result()
}

func (r *RedisCache) SetImportHistoryID(jobID string, historyID int64) error {
	return r.client.Set(context.Background(), historyKey(jobID), historyID, statusTTL).Err()
}

func (r *RedisCache) GetImportHistoryID(jobID string) (int64, error) {
	return r.client.Get(context.Background(), historyKey(jobID)).Int64()
}

func (r *RedisCache) ClearImport(jobID string) error {
	return r.client.Del(context.Background(), statusKey(jobID), historyKey(jobID)).Err()
}

func (r *RedisCache) Clear() error {
	return r.client.FlushDB(context.Background()).Err()
}

// helpers to standardize keys
func statusKey(jobID string) string {
	return fmt.Sprintf("import:status:%s", jobID)
}

func historyKey(jobID string) string {
	return fmt.Sprintf("import:history:%s", jobID)
}
