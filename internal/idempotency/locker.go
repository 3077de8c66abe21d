package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrInFlight means another request holds the same key.
var ErrInFlight = errors.New("operation already in progress")

// Locker guards one-shot operations with short-lived Redis keys.
type Locker struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewLocker(rdb *redis.Client, ttl time.Duration) *Locker {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Locker{rdb: rdb, ttl: ttl}
}

// CaptureKey is the key held while a project's escrow is being captured.
func CaptureKey(projectID int) string {
	return fmt.Sprintf("capture:%d", projectID)
}

// Acquire takes key or returns ErrInFlight. The returned release func deletes the key.
// A nil Locker or a Redis outage lets the call through; the database version check still applies.
func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	if l == nil || l.rdb == nil {
		return func() {}, nil
	}
	ok, err := l.rdb.SetNX(ctx, key, 1, l.ttl).Result()
	if err != nil {
		return func() {}, nil
	}
	if !ok {
		return nil, ErrInFlight
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		l.rdb.Del(ctx, key)
	}, nil
}

// Ping checks connectivity.
func (l *Locker) Ping(ctx context.Context) error {
	if l == nil || l.rdb == nil {
		return nil
	}
	return l.rdb.Ping(ctx).Err()
}
