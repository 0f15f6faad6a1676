package leave_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/leave-engine/factory"
	"github.com/warp/leave-engine/leave"
	"github.com/warp/leave-engine/leave/store"
)

// =============================================================================
// AUTO-REJECT SWEEP
// =============================================================================

func TestAutoRejectSweep_RejectsStale_KeepsFresh(t *testing.T) {
	// GIVEN: One request pending for 8 days and one pending for 2 days
	// WHEN: The sweep runs with a 7-day threshold
	// THEN: Only the stale one flips to AutoRejected with a generated reason

	svc, mem := newTestService(t)
	ctx := context.Background()

	stale, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, tue, "old")
	require.NoError(t, err)

	// Age the first request by backdating, then create a fresh one.
	svc.SetClock(func() time.Time { return testClock.Add(8 * 24 * time.Hour) })
	fresh, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, wed, fri, "new")
	require.NoError(t, err)

	now := testClock.Add(8 * 24 * time.Hour)
	rejected, err := svc.AutoRejectSweep(ctx, now, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, rejected)

	got, err := mem.GetRequest(ctx, stale.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusAutoRejected, got.Status)
	require.NotNil(t, got.RejectionReason)
	assert.Contains(t, *got.RejectionReason, "pending for more than 7 days")

	last := got.History[len(got.History)-1]
	assert.Equal(t, "system", last.Actor)

	got, err = mem.GetRequest(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, got.Status)
}

func TestAutoRejectSweep_NoBalanceEffect(t *testing.T) {
	// GIVEN: A stale pending request (never deducted)
	// WHEN: The sweep auto-rejects it
	// THEN: The balance is untouched

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, wed, "")
	require.NoError(t, err)

	now := testClock.Add(10 * 24 * time.Hour)
	_, err = svc.AutoRejectSweep(ctx, now, 7*24*time.Hour)
	require.NoError(t, err)

	bal, err := svc.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, bal.Available(leave.TypeCasual).Equal(days(12)))
}

func TestAutoRejectSweep_Idempotent(t *testing.T) {
	// GIVEN: A sweep that has already rejected a stale request
	// WHEN: The sweep runs again immediately
	// THEN: The second pass finds nothing

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, tue, "")
	require.NoError(t, err)

	now := testClock.Add(8 * 24 * time.Hour)
	first, err := svc.AutoRejectSweep(ctx, now, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	second, err := svc.AutoRejectSweep(ctx, now, 7*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 0, second)
}

func TestAutoRejectSweep_RecordsRun(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AutoRejectSweep(ctx, testClock, 7*24*time.Hour)
	require.NoError(t, err)

	runs, err := svc.SweepRuns(ctx, leave.SweepAutoReject)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, 0, runs[0].Rejected)
	assert.NotNil(t, runs[0].CompletedAt)
}

// =============================================================================
// YEAR-END ROLLOVER SWEEP
// =============================================================================

func TestYearEndRollover_AppliesToEveryStaleBalance(t *testing.T) {
	// GIVEN: Two employees with 2026 balances, one partially consumed
	// WHEN: The rollover runs on Jan 1 2027
	// THEN: Both balances reset with the carry rules applied

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Onboard(ctx, leave.Employee{
		ID: "emp-2", Name: "Ravi", CountryCode: "IN",
		HireDate: leave.NewDate(2026, time.February, 2),
	})
	require.NoError(t, err)

	// emp-1 consumes 3 casual days.
	req, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, wed, "")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, req.ID, "mgr-1")
	require.NoError(t, err)

	jan1 := time.Date(2027, time.January, 1, 0, 30, 0, 0, time.UTC)
	result, err := svc.YearEndRollover(ctx, jan1)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)
	assert.Equal(t, 0, result.Skipped)

	// emp-1 had 9 left; carry cap 6, so 12 + 6 = 18.
	bal, err := svc.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, bal.Available(leave.TypeCasual).Equal(days(18)))
	assert.True(t, bal.Entries[leave.TypeCasual].Carried.Equal(days(6)))

	// emp-2 untouched all year: full 12 capped at 6 carried.
	bal, err = svc.GetBalance(ctx, "emp-2")
	require.NoError(t, err)
	assert.True(t, bal.Available(leave.TypeCasual).Equal(days(18)))

	// Sick never carries.
	assert.True(t, bal.Available(leave.TypeSick).Equal(days(10)))
	assert.True(t, bal.Entries[leave.TypeSick].Carried.IsZero())
}

func TestYearEndRollover_SecondRunSkipsAll(t *testing.T) {
	// GIVEN: A rollover that already ran for 2027
	// WHEN: It runs again (late trigger, manual re-run)
	// THEN: Every balance is skipped and nothing changes

	svc, _ := newTestService(t)
	ctx := context.Background()

	jan1 := time.Date(2027, time.January, 1, 0, 30, 0, 0, time.UTC)
	first, err := svc.YearEndRollover(ctx, jan1)
	require.NoError(t, err)
	assert.Equal(t, 1, first.Updated)

	before, err := svc.GetBalance(ctx, "emp-1")
	require.NoError(t, err)

	second, err := svc.YearEndRollover(ctx, jan1.Add(48*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, second.Updated)
	assert.Equal(t, 1, second.Skipped)

	after, err := svc.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, after.Available(leave.TypeCasual).Equal(before.Available(leave.TypeCasual)))
}

func TestYearEndRollover_RecordsRun(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	jan1 := time.Date(2027, time.January, 1, 0, 30, 0, 0, time.UTC)
	_, err := svc.YearEndRollover(ctx, jan1)
	require.NoError(t, err)

	runs, err := svc.SweepRuns(ctx, leave.SweepRollover)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "completed", runs[0].Status)
	assert.Equal(t, 1, runs[0].Updated)
}

// =============================================================================
// ROLLOVER AND MID-YEAR ONBOARDING
// =============================================================================

func TestYearEndRollover_NewHire_NotDoubleReset(t *testing.T) {
	// GIVEN: An employee onboarded in 2027 with a fresh 2027 balance
	// WHEN: The 2027 rollover runs
	// THEN: Their balance is skipped; only pre-2027 balances roll

	mem := store.NewTxMemory()
	cal := leave.NewCalendar(mem, nil)
	svc := leave.NewService(mem, cal, factory.DefaultQuotas())
	ctx := context.Background()

	_, err := svc.Onboard(ctx, leave.Employee{
		ID: "emp-new", Name: "Neha", CountryCode: "IN",
		HireDate: leave.NewDate(2027, time.January, 4),
	})
	require.NoError(t, err)

	result, err := svc.YearEndRollover(ctx, time.Date(2027, time.January, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.Skipped)
}
