package importer

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still carries this instance's
// token. A holder that outlived the TTL must not remove a successor's lock.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLock implements Locker on SETNX for deployments running more than one
// importer instance against a shared converter host. The TTL bounds how long
// a crashed holder can wedge the cluster.
type RedisLock struct {
	Client   *redis.Client
	Key      string
	TTL      time.Duration
	Retries  int
	Interval time.Duration

	token string
}

func (l *RedisLock) Acquire(ctx context.Context) error {
	retries := l.Retries
	if retries <= 0 {
		retries = 60
	}
	interval := l.Interval
	if interval <= 0 {
		interval = time.Second
	}
	ttl := l.TTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}

	token := uuid.NewString()
	for attempt := 0; attempt < retries; attempt++ {
		ok, err := l.Client.SetNX(ctx, l.Key, token, ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			l.token = token
			return nil
		}
		if attempt == retries-1 {
			break
		}

		select {
		case <-ctx.Done():
			return ErrBusy
		case <-time.After(interval):
		}
	}
	return ErrBusy
}

func (l *RedisLock) Release() {
	if l.token == "" {
		return
	}
	err := releaseScript.Run(context.Background(), l.Client, []string{l.Key}, l.token).Err()
	if err != nil {
		slog.Warn("table_importer.importer.lock_release_failed",
			slog.String("key", l.Key),
			slog.String("error", err.Error()),
		)
	}
	l.token = ""
}
