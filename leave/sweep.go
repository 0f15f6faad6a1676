/*
sweep.go - Scheduled batch jobs

PURPOSE:
  The two time-driven bulk operations:
  - AutoRejectSweep (daily): pending requests older than a threshold are
    transitioned to AutoRejected with a generated reason.
  - YearEndRollover (annual): balances not yet reset for the current year
    get their carry-forward applied and quotas refreshed.

IDEMPOTENCY:
  Both sweeps are safe to re-run. Auto-rejection moves requests out of the
  Pending selection, so a second pass finds nothing. Rollover skips any
  balance whose LastResetDate is already current. Overlapping executions
  are therefore tolerable without a distributed lock.

FAILURE ISOLATION:
  A failure on one record is logged and that record skipped; it never
  aborts the sweep for the remaining records.

SEE ALSO:
  - api/scheduler.go: Registers these on cron schedules
  - ledger.go: Rollover per-balance semantics
*/
package leave

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// AUTO-REJECT SWEEP
// =============================================================================

// AutoRejectSweep rejects every Pending request created more than
// olderThan before now, with a generated rejection reason. Returns the
// number of requests transitioned. Balances are never touched: pending
// requests were never deducted.
func (s *Service) AutoRejectSweep(ctx context.Context, now time.Time, olderThan time.Duration) (int, error) {
	run := SweepRun{
		ID:        uuid.NewString(),
		Kind:      SweepAutoReject,
		Status:    "completed",
		StartedAt: now,
	}

	cutoff := now.Add(-olderThan)
	stale, err := s.store.ListPendingCreatedBefore(ctx, cutoff)
	if err != nil {
		return 0, s.failRun(ctx, run, fmt.Errorf("failed to list stale requests: %w", err))
	}

	reason := fmt.Sprintf("automatically rejected: pending for more than %d days", int(olderThan.Hours()/24))
	rejected := 0
	for i := range stale {
		req := &stale[i]
		// Re-check under the selection: another actor may have raced us.
		if req.Status != StatusPending {
			continue
		}
		req.RejectionReason = &reason
		req.recordTransition(StatusAutoRejected, "system", reason, now)
		if err := s.store.UpdateRequest(ctx, req); err != nil {
			log.Printf("[Sweep] auto-reject failed for request %s: %v", req.ID, err)
			run.Errors++
			continue
		}
		rejected++
	}

	run.Rejected = rejected
	s.completeRun(ctx, run)
	log.Printf("[Sweep] auto-reject completed: %d rejected, %d errors", rejected, run.Errors)
	return rejected, nil
}

// =============================================================================
// YEAR-END ROLLOVER SWEEP
// =============================================================================

// RolloverResult summarizes one rollover sweep.
type RolloverResult struct {
	Updated int
	Skipped int
	Errors  int
}

// YearEndRollover applies the annual reset to every balance whose
// LastResetDate year is behind now's year. Already-current balances are
// skipped unmodified, so running the sweep twice, or late, produces no
// additional change.
func (s *Service) YearEndRollover(ctx context.Context, now time.Time) (RolloverResult, error) {
	var result RolloverResult
	run := SweepRun{
		ID:        uuid.NewString(),
		Kind:      SweepRollover,
		Status:    "completed",
		StartedAt: now,
	}

	balances, err := s.store.ListBalances(ctx)
	if err != nil {
		return result, s.failRun(ctx, run, fmt.Errorf("failed to list balances: %w", err))
	}

	today := DateOf(now)
	for _, bal := range balances {
		if !bal.Rollover(today, s.quotas) {
			result.Skipped++
			continue
		}
		if err := s.store.SaveBalance(ctx, bal); err != nil {
			log.Printf("[Sweep] rollover save failed for employee %s: %v", bal.EmployeeID, err)
			result.Errors++
			continue
		}
		result.Updated++
	}

	run.Updated = result.Updated
	run.Skipped = result.Skipped
	run.Errors = result.Errors
	s.completeRun(ctx, run)
	log.Printf("[Sweep] rollover completed: %d updated, %d skipped, %d errors",
		result.Updated, result.Skipped, result.Errors)
	return result, nil
}

// =============================================================================
// RUN RECORDING
// =============================================================================

func (s *Service) completeRun(ctx context.Context, run SweepRun) {
	done := s.now()
	run.CompletedAt = &done
	if err := s.store.SaveSweepRun(ctx, run); err != nil {
		// A lost run record is an observability gap, not a sweep failure.
		log.Printf("[Sweep] failed to record %s run: %v", run.Kind, err)
	}
}

func (s *Service) failRun(ctx context.Context, run SweepRun, cause error) error {
	run.Status = "failed"
	run.Error = cause.Error()
	done := s.now()
	run.CompletedAt = &done
	if err := s.store.SaveSweepRun(ctx, run); err != nil {
		log.Printf("[Sweep] failed to record %s run: %v", run.Kind, err)
	}
	return cause
}

// SweepRuns lists past sweep executions of the given kind, newest first.
func (s *Service) SweepRuns(ctx context.Context, kind SweepKind) ([]SweepRun, error) {
	return s.store.ListSweepRuns(ctx, kind)
}
