package counter

import (
	"context"
	"strconv"

	"github.com/subsync/subsync/internal/pkg/cache"
)

const (
	webhookEventsKey  = "billing:counters:webhook_events"
	resyncOutcomesKey = "billing:counters:resync_outcomes"
)

// AddWebhookEvent increments the received counter for a notification kind in Redis
func AddWebhookEvent(eventType string) error {
	if eventType == "" {
		eventType = "unknown"
	}
	return cache.GetClient().HIncrBy(context.Background(), webhookEventsKey, eventType, 1).Err()
}

// AddResyncOutcome increments the outcome counter ("ok", "upstream_error",
// "contention") for completed resync attempts in Redis
func AddResyncOutcome(outcome string) error {
	return cache.GetClient().HIncrBy(context.Background(), resyncOutcomesKey, outcome, 1).Err()
}

// Snapshot returns the current webhook and resync counters.
func Snapshot(ctx context.Context) (map[string]int64, map[string]int64, error) {
	rdb := cache.GetClient()

	webhooks, err := rdb.HGetAll(ctx, webhookEventsKey).Result()
	if err != nil {
		return nil, nil, err
	}
	resyncs, err := rdb.HGetAll(ctx, resyncOutcomesKey).Result()
	if err != nil {
		return nil, nil, err
	}

	return parseCounts(webhooks), parseCounts(resyncs), nil
}

func parseCounts(raw map[string]string) map[string]int64 {
	out := make(map[string]int64, len(raw))
	for field, val := range raw {
		n, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			continue
		}
		out[field] = n
	}
	return out
}
