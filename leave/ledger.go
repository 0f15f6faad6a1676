/*
ledger.go - Balance ledger operations

PURPOSE:
  Deduct, refund, and rollover semantics for a per-employee Balance.
  These methods mutate the in-memory record; persistence and atomicity
  are the store's job (see TxStore.WithTx).

INVARIANTS:
  - Current never goes negative. Deduct clamps at zero as a safety net,
    but the primary guard is the CheckAvailable pre-check in the service.
  - Refund has no upper cap: entitlement grants cannot be exceeded in the
    direction that matters for correctness.
  - Rollover is re-entrant per record: a balance already reset for the
    current year is left untouched.

SEE ALSO:
  - service.go: Drives deduct/refund through the request state machine
  - sweep.go: Drives Rollover in bulk
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

func intToDecimal(n int) decimal.Decimal { return decimal.NewFromInt(int64(n)) }

// =============================================================================
// AVAILABILITY CHECK
// =============================================================================

// CheckAvailable reports whether the balance covers days of leave type t.
// Unpaid leave always passes without inspecting any counter.
func (b *Balance) CheckAvailable(t Type, days int) bool {
	if t == TypeUnpaid {
		return true
	}
	entry, ok := b.Entries[t]
	if !ok {
		return false
	}
	return entry.Current.GreaterThanOrEqual(decimal.NewFromInt(int64(days)))
}

// Available returns the current counter for t, or zero if untracked.
func (b *Balance) Available(t Type) decimal.Decimal {
	return b.Entries[t].Current
}

// =============================================================================
// DEDUCT / REFUND
// =============================================================================

// Deduct decrements the counter for t by days, floored at zero. The floor
// is a clamp only; callers must CheckAvailable first. Unpaid is a no-op.
func (b *Balance) Deduct(t Type, days int) {
	if t == TypeUnpaid {
		return
	}
	entry, ok := b.Entries[t]
	if !ok {
		return
	}
	entry.Current = entry.Current.Sub(decimal.NewFromInt(int64(days)))
	if entry.Current.IsNegative() {
		entry.Current = decimal.Zero
	}
	b.Entries[t] = entry
}

// Refund increments the counter for t by days, unconditionally.
// Unpaid is a no-op.
func (b *Balance) Refund(t Type, days int) {
	if t == TypeUnpaid {
		return
	}
	entry, ok := b.Entries[t]
	if !ok {
		return
	}
	entry.Current = entry.Current.Add(decimal.NewFromInt(int64(days)))
	b.Entries[t] = entry
}

// =============================================================================
// YEAR-END ROLLOVER
// =============================================================================

// Rollover applies the year-end reset as of now, using quotas for the new
// year's grants:
//
//   - carry-eligible types: carried = min(current, maxCarryForward),
//     current = annualQuota + carried
//   - accrued, non-carry types (sick): current = annualQuota, no carry
//   - granted types (maternity, paternity, compensatory): untouched
//
// Returns false without modifying anything when the balance is already
// reset for now's year, which makes the annual sweep safe to re-run.
func (b *Balance) Rollover(now Date, quotas map[Type]Quota) bool {
	if b.LastResetDate.Year() >= now.Year() {
		return false
	}

	for t, entry := range b.Entries {
		quota, ok := quotas[t]
		if !ok || quota.Granted {
			continue
		}

		if quota.CarryEligible {
			carried := entry.Current
			if carried.GreaterThan(entry.MaxCarryForward) {
				carried = entry.MaxCarryForward
			}
			entry.Carried = carried
			entry.Current = quota.AnnualQuota.Add(carried)
		} else {
			entry.Carried = decimal.Zero
			entry.Current = quota.AnnualQuota
		}
		b.Entries[t] = entry
	}

	b.LastResetDate = NewDate(now.Year(), time.January, 1)
	return true
}
