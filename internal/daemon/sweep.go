package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/freekieb7/casetrack/internal/kv"
)

// SweepTask periodically removes expired sessions and login state from a
// backend that does not expire entries by itself.
func SweepTask(logger *slog.Logger, sweeper kv.Sweeper, interval time.Duration) DaemonFunc {
	return func(ctx context.Context, name string) error {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-ticker.C:
				removed, err := sweeper.DeleteExpired()
				if err != nil {
					return fmt.Errorf("failed to sweep expired entries: %w", err)
				}
				if removed > 0 {
					logger.Debug("swept expired entries", "task", name, "removed", removed)
				}
			}
		}
	}
}
