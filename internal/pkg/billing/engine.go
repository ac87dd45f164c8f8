package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"
)

const (
	// DefaultLockTTL must outlive a slow upstream read so a crashed holder
	// self-heals instead of wedging the customer forever.
	DefaultLockTTL = 30 * time.Second
	// DefaultLockWait bounds how long a caller queues behind an in-flight
	// resync before ErrLockContention is surfaced.
	DefaultLockWait = 20 * time.Second

	lockPollInterval = 250 * time.Millisecond
)

// Engine is the single choke point through which cache records are ever
// written. Resync is safe to call redundantly, concurrently and out of
// order: the per-customer lease serializes attempts, and every attempt
// replaces the record with one consistent upstream read.
type Engine struct {
	upstream Upstream
	records  RecordStore
	locks    Locker

	lockTTL  time.Duration
	lockWait time.Duration
}

// NewEngine wires an engine from its collaborators.
func NewEngine(upstream Upstream, records RecordStore, locks Locker) *Engine {
	return &Engine{
		upstream: upstream,
		records:  records,
		locks:    locks,
		lockTTL:  DefaultLockTTL,
		lockWait: DefaultLockWait,
	}
}

// NewEngineFromEnv wires the production engine: upstream REST client plus
// Redis-backed record store and locker.
func NewEngineFromEnv() *Engine {
	return NewEngine(NewUpstreamClientFromEnv(), NewRecordStore(), NewLocker())
}

// Resync re-derives the cached record for one upstream customer from a
// single authoritative upstream read and overwrites the stored record with
// it. Exactly one upstream call is made per attempt. On upstream failure the
// lease is released without writing, so the previous record stays
// authoritative; retry policy belongs to the caller.
//
// No identity mapping is required: a resync for an id this service never
// created still queries upstream directly and caches whatever it finds.
func (e *Engine) Resync(ctx context.Context, customerID string) (*Record, error) {
	if customerID == "" {
		return nil, errors.New("customer id is required")
	}

	lockKey := lockKeyPrefix + customerID
	token, err := e.acquireWithWait(ctx, lockKey)
	if err != nil {
		return nil, err
	}
	defer func() {
		// The request context may already be canceled (upstream timeout);
		// the release must still go through or the lease only heals by TTL.
		if err := e.locks.Release(context.Background(), lockKey, token); err != nil {
			log.Warnf("[Billing] Releasing resync lock for %s failed: %v", customerID, err)
		}
	}()

	raw, err := e.upstream.ListLatestSubscription(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("list latest subscription for %s: %w", customerID, err)
	}

	rec, err := Normalize(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize upstream response for %s: %w", customerID, err)
	}

	if err := e.records.SetRecord(ctx, customerID, rec); err != nil {
		return nil, fmt.Errorf("write record for %s: %w", customerID, err)
	}
	log.Debugf("[Billing] Resynced customer %s: kind=%s", customerID, rec.Kind)
	return rec, nil
}

// acquireWithWait queues behind an in-flight resync by polling the lease
// until it frees up, the wait window closes, or the context is done.
func (e *Engine) acquireWithWait(ctx context.Context, lockKey string) (string, error) {
	deadline := time.Now().Add(e.lockWait)
	for {
		token, err := e.locks.Acquire(ctx, lockKey, e.lockTTL)
		if err == nil {
			return token, nil
		}
		if !errors.Is(err, ErrLockBusy) {
			return "", err
		}
		if time.Now().After(deadline) {
			return "", ErrLockContention
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}
