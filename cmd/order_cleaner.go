package main

import (
	"context"
	"time"

	"trusthire/internal/logger"
	"trusthire/internal/metrics"
)

const orderCleanerTimeout = 1 * time.Minute

// staleOrderExpirer is implemented by repositories.PaymentOrderRepository.
type staleOrderExpirer interface {
	ExpireStale(ctx context.Context, cutoff time.Time) (int64, error)
}

// startOrderCleaner periodically expires checkout orders that were opened
// but never paid within ttl.
func startOrderCleaner(ctx context.Context, repo staleOrderExpirer, ttl, interval time.Duration, log logger.Logger) {
	if repo == nil || ttl <= 0 || interval <= 0 {
		return
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		runOnce := func() {
			runCtx, cancel := context.WithTimeout(ctx, orderCleanerTimeout)
			expired, err := repo.ExpireStale(runCtx, time.Now().Add(-ttl))
			cancel()
			if err != nil {
				log.Errorf("order cleaner: failed to expire stale orders: %v", err)
				return
			}
			if expired > 0 {
				metrics.ExpiredOrders.Add(float64(expired))
				log.Infof("order cleaner: expired %d unpaid payment orders", expired)
			}
		}

		runOnce()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				runOnce()
			}
		}
	}()
}
