package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const lockTTL = 10 * time.Second

// PlateLock serializes concurrent check-ins per normalized plate with a
// short-lived SET NX key. It narrows the check-then-act window between the
// duplicate guard and the session insert; the partial unique index on the
// sessions collection remains the hard guarantee.
// Key format: entrylock:<normalized_plate>
type PlateLock struct {
	client *redis.Client
}

// NewPlateLock creates a PlateLock wrapping the given Redis client.
func NewPlateLock(client *redis.Client) *PlateLock {
	return &PlateLock{client: client}
}

// Acquire takes the lock for the plate. Returns false when another check-in
// for the same plate is in flight.
func (l *PlateLock) Acquire(ctx context.Context, plate string) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key(plate), "1", lockTTL).Result()
	if err != nil {
		return false, fmt.Errorf("plate lock: %w", err)
	}
	return ok, nil
}

// Release frees the lock. Best-effort: an unreleased lock expires with the TTL.
func (l *PlateLock) Release(ctx context.Context, plate string) {
	_ = l.client.Del(ctx, l.key(plate)).Err()
}

func (l *PlateLock) key(plate string) string {
	return fmt.Sprintf("entrylock:%s", plate)
}
