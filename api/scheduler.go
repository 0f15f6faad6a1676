/*
scheduler.go - Cron-driven background sweeps

PURPOSE:
  Runs the two scheduled jobs:
  - Auto-reject sweep: daily, rejects pending requests past the age
    threshold so stale requests cannot linger indefinitely
  - Year-end rollover: yearly, applies carry-forward rules to every
    balance

DESIGN:
  - Wraps robfig/cron with recovery so a panicking job cannot take the
    process down
  - Both sweeps are idempotent; an extra run (or a manual trigger racing
    a scheduled one) is harmless
  - Each execution is recorded as a sweep run for audit and UI display

CONFIGURATION:
  Cron expressions and the pending-age threshold come from config; see
  config/config.go for the defaults.

USAGE:
  sched := NewScheduler(svc, cfg.AutoRejectAfter)
  sched.Register(cfg.AutoRejectCron, "auto-reject", sched.RunAutoReject)
  sched.Register(cfg.RolloverCron, "rollover", sched.RunRollover)
  sched.Start()
  // ... later
  sched.Stop()

SEE ALSO:
  - leave/sweep.go: The sweep implementations
  - handlers.go: Manual trigger endpoints
*/
package api

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/warp/leave-engine/leave"
)

// Scheduler runs the periodic sweeps on cron schedules.
type Scheduler struct {
	Service         *leave.Service
	AutoRejectAfter time.Duration

	cron *cron.Cron
}

// NewScheduler creates a scheduler. Jobs run sequentially per schedule;
// a panic in one job is logged and does not stop the scheduler.
func NewScheduler(svc *leave.Service, autoRejectAfter time.Duration) *Scheduler {
	return &Scheduler{
		Service:         svc,
		AutoRejectAfter: autoRejectAfter,
		cron: cron.New(cron.WithChain(
			cron.Recover(cron.DefaultLogger),
		)),
	}
}

// Register adds a job under the given cron expression.
func (s *Scheduler) Register(spec, name string, job func()) error {
	_, err := s.cron.AddFunc(spec, job)
	if err != nil {
		return err
	}
	log.Printf("[Scheduler] Registered %s: %q", name, spec)
	return nil
}

// Start begins running registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("[Scheduler] Started")
}

// Stop stops the scheduler and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("[Scheduler] Stopped")
}

// RunAutoReject executes the auto-reject sweep once.
func (s *Scheduler) RunAutoReject() {
	ctx := context.Background()
	rejected, err := s.Service.AutoRejectSweep(ctx, time.Now(), s.AutoRejectAfter)
	if err != nil {
		log.Printf("[Scheduler] Auto-reject sweep failed: %v", err)
		return
	}
	if rejected > 0 {
		log.Printf("[Scheduler] Auto-reject sweep completed: %d rejected", rejected)
	}
}

// RunRollover executes the year-end rollover once.
func (s *Scheduler) RunRollover() {
	ctx := context.Background()
	result, err := s.Service.YearEndRollover(ctx, time.Now())
	if err != nil {
		log.Printf("[Scheduler] Rollover failed: %v", err)
		return
	}
	log.Printf("[Scheduler] Rollover completed: %d updated, %d skipped, %d errors",
		result.Updated, result.Skipped, result.Errors)
}
