package worker

import (
	"context"
	"time"
)

const dailyJobTimeout = 5 * time.Minute

// Job is a unit of scheduled work
type Job func(ctx context.Context) error

// ScheduleDailyUTC runs job at every UTC midnight until the pool shuts down
func (p *Pool) ScheduleDailyUTC(name string, job Job) {
	p.Submit(func(ctx context.Context) {
		for {
			wait := untilNextUTCMidnight(p.now())
			p.logger.Debug("⏰ [Worker] Next scheduled run", "job", name, "in", wait)

			select {
			case <-ctx.Done():
				return
			case <-p.after(wait):
			}

			p.SubmitWithTimeout(dailyJobTimeout, func(ctx context.Context) {
				start := p.now()
				if err := job(ctx); err != nil {
					p.logger.Error("❌ [Worker] Scheduled job failed", "job", name, "error", err)
					return
				}
				p.logger.Info("✅ [Worker] Scheduled job completed", "job", name, "duration", p.now().Sub(start))
			})
		}
	})
}

func untilNextUTCMidnight(now time.Time) time.Duration {
	now = now.UTC()
	next := time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, time.UTC)
	return next.Sub(now)
}
