package membership

import (
	"context"
	"fmt"
	"time"

	"gymbeta/internal/logger"

	"github.com/robfig/cron/v3"
)

// StartSweepCron runs SweepAll on the given cron schedule until ctx is done.
// An empty schedule disables the job and returns a nil scheduler.
func StartSweepCron(ctx context.Context, svc Service, schedule string) (*cron.Cron, error) {
	if schedule == "" {
		return nil, nil
	}

	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		started := time.Now()
		stats, err := svc.SweepAll(ctx, started)
		if err != nil {
			logger.WithError(err).Error("scheduled sweep aborted")
			return
		}
		logger.Info("scheduled sweep finished",
			"members", stats.Members,
			"expired", stats.Expired,
			"promoted", stats.Promoted,
			"failed", stats.Failed,
			"took", time.Since(started).String(),
		)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid sweep schedule %q: %w", schedule, err)
	}

	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()

	logger.Info("sweep scheduler started", "schedule", schedule)
	return c, nil
}
