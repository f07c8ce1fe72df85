package pipeline

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "podforge/internal/app/errors"
)

// DefaultLockTTL bounds how long a crashed run can hold an episode lock
const DefaultLockTTL = 30 * time.Minute

// Locker serializes pipeline runs per episode so a re-enqueued task cannot
// race a live run. Acquire returns false without error when the lock is
// already held.
type Locker interface {
	Acquire(ctx context.Context, episodeID string) (bool, error)
	Release(ctx context.Context, episodeID string) error
}

// RedisLocker implements Locker with a SET NX key per episode
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisLocker creates a redis-backed episode locker
func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func lockKey(episodeID string) string {
	return "podforge:episode-lock:" + episodeID
}

func (l *RedisLocker) Acquire(ctx context.Context, episodeID string) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKey(episodeID), "1", l.ttl).Result()
	if err != nil {
		return false, apperrors.Wrapf(err, "failed to acquire lock for episode %s", episodeID)
	}
	return ok, nil
}

func (l *RedisLocker) Release(ctx context.Context, episodeID string) error {
	if err := l.client.Del(ctx, lockKey(episodeID)).Err(); err != nil {
		return apperrors.Wrapf(err, "failed to release lock for episode %s", episodeID)
	}
	return nil
}

// MemoryLocker is an in-process Locker for tests and single-node setups
type MemoryLocker struct {
	mu   sync.Mutex
	held map[string]bool
}

// NewMemoryLocker creates an in-memory episode locker
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{held: make(map[string]bool)}
}

func (l *MemoryLocker) Acquire(ctx context.Context, episodeID string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[episodeID] {
		return false, nil
	}
	l.held[episodeID] = true
	return true, nil
}

func (l *MemoryLocker) Release(ctx context.Context, episodeID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, episodeID)
	return nil
}
