package billing

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/subsync/subsync/internal/pkg/cache"
)

const (
	recordKeyPrefix = "billing:record:"
	lockKeyPrefix   = "billing:resync_lock:"
)

// RecordStore persists cache records keyed by upstream customer id. Writes
// are whole-record replacements; the engine is the only writer.
type RecordStore interface {
	GetRecord(ctx context.Context, customerID string) (*Record, error)
	SetRecord(ctx context.Context, customerID string, rec *Record) error
}

// Locker is the lock-with-expiry primitive the engine serializes resyncs
// with. Implementations must be backed by shared storage so the exclusion
// holds across instances, not just within one process.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (string, error)
	Release(ctx context.Context, key string, token string) error
}

type redisRecordStore struct{}

// NewRecordStore returns the Redis-backed record store.
func NewRecordStore() RecordStore {
	return redisRecordStore{}
}

func (redisRecordStore) GetRecord(ctx context.Context, customerID string) (*Record, error) {
	val, err := cache.Get(ctx, recordKeyPrefix+customerID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}

	var rec Record
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

func (redisRecordStore) SetRecord(ctx context.Context, customerID string, rec *Record) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	// Records never expire on their own; every resync overwrites in full.
	return cache.Set(ctx, recordKeyPrefix+customerID, payload, 0)
}

type redisLocker struct{}

// NewLocker returns the Redis-backed lock-with-expiry implementation.
func NewLocker() Locker {
	return redisLocker{}
}

func (redisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, error) {
	token, err := cache.AcquireLock(ctx, key, ttl)
	if err != nil {
		if errors.Is(err, cache.ErrLockBusy) {
			return "", ErrLockBusy
		}
		return "", err
	}
	return token, nil
}

func (redisLocker) Release(ctx context.Context, key string, token string) error {
	return cache.ReleaseLock(ctx, key, token)
}
