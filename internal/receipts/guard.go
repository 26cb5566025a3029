package receipts

import (
	"context"
	"time"

	"github.com/wecantrust/donations-backend/pkg/redis"
)

// pipelineGuard keeps concurrent pipeline runs for the same donation from
// racing each other. The lock expires on its own if a run dies mid-flight.
type pipelineGuard struct {
	locks redis.LockStore
	ttl   time.Duration
}

func newPipelineGuard(locks redis.LockStore, ttl time.Duration) *pipelineGuard {
	if ttl <= 0 {
		ttl = 2 * time.Minute
	}
	return &pipelineGuard{locks: locks, ttl: ttl}
}

// acquire claims the per-donation lock. When it returns false another run
// holds the lock and the caller should back off. The release func is safe to
// call unconditionally.
func (g *pipelineGuard) acquire(ctx context.Context, donationID string) (bool, func(), error) {
	if g == nil || g.locks == nil {
		return true, func() {}, nil
	}

	key := g.locks.LockKey("receipt-pipeline", donationID)
	ok, err := g.locks.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), g.ttl)
	if err != nil {
		return false, func() {}, err
	}
	if !ok {
		return false, func() {}, nil
	}

	release := func() {
		_ = g.locks.Del(context.Background(), key)
	}
	return true, release, nil
}
