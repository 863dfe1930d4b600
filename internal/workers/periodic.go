package workers

import (
	"context"
	"fmt"
	"time"

	"adventurebuddha/internal/utils"
)

// Every runs task every interval until ctx is done. Errors are logged and the
// loop keeps going.
func Every(ctx context.Context, name string, interval time.Duration, task func(ctx context.Context) error) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := task(ctx); err != nil {
				utils.LogEvent(utils.WorkerTag(name), name, "tick_failed", err.Error())
			}
		}
	}
}

// SeatLockCleaner is the part of the seat service the cleanup loop needs.
type SeatLockCleaner interface {
	CleanupExpired(ctx context.Context) (int64, error)
}

// RunLockCleanup purges expired seat locks periodically.
func RunLockCleanup(ctx context.Context, seats SeatLockCleaner, interval time.Duration) {
	Every(ctx, "locks", interval, func(ctx context.Context) error {
		n, err := seats.CleanupExpired(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			utils.LogEvent(utils.WorkerTag("locks"), "seats", "cleanup", fmt.Sprintf("removed=%d", n))
		}
		return nil
	})
}
