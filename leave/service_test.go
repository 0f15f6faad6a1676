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
// TEST SETUP
// =============================================================================

// testClock is a fixed Tuesday in March 2026.
var testClock = time.Date(2026, time.March, 3, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*leave.Service, *store.TxMemory) {
	mem := store.NewTxMemory()
	cal := leave.NewCalendar(mem, nil)
	svc := leave.NewService(mem, cal, factory.DefaultQuotas())
	svc.SetClock(func() time.Time { return testClock })

	_, err := svc.Onboard(context.Background(), leave.Employee{
		ID:          "emp-1",
		Name:        "Asha",
		CountryCode: "IN",
		HireDate:    leave.NewDate(2026, time.January, 5),
	})
	require.NoError(t, err)

	return svc, mem
}

// Monday March 2 .. Friday March 6 2026, all working days.
var (
	mon = leave.NewDate(2026, time.March, 2)
	tue = leave.NewDate(2026, time.March, 3)
	wed = leave.NewDate(2026, time.March, 4)
	fri = leave.NewDate(2026, time.March, 6)
)

// =============================================================================
// ONBOARDING
// =============================================================================

func TestOnboard_CreatesBalanceOnce(t *testing.T) {
	// GIVEN: An onboarded employee
	// WHEN: Onboarding the same id again
	// THEN: The second call fails; the balance exists exactly once

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Onboard(ctx, leave.Employee{ID: "emp-1", Name: "Asha"})
	assert.ErrorIs(t, err, leave.ErrAlreadyExists)

	bal, err := svc.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, bal.Available(leave.TypeCasual).Equal(days(12)))
	assert.Equal(t, 2026, bal.LastResetDate.Year())
}

// =============================================================================
// APPLY
// =============================================================================

func TestApply_CreatesPending_NoDeduction(t *testing.T) {
	// GIVEN: A fresh employee with 12 casual days
	// WHEN: Applying for Monday through Wednesday
	// THEN: A pending request for 3 working days exists and the balance
	//       still shows 12

	svc, _ := newTestService(t)
	ctx := context.Background()

	req, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, wed, "family visit")
	require.NoError(t, err)

	assert.Equal(t, leave.StatusPending, req.Status)
	assert.Equal(t, 3, req.NumberOfDays)
	require.Len(t, req.History, 1)
	assert.Equal(t, leave.StatusPending, req.History[0].To)

	bal, err := svc.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, bal.Available(leave.TypeCasual).Equal(days(12)), "no deduction at apply")
}

func TestApply_UnknownType_Rejected(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Apply(context.Background(), "emp-1", "sabbatical", mon, wed, "")
	assert.ErrorIs(t, err, leave.ErrUnknownLeaveType)
}

func TestApply_StartAfterEnd_Rejected(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Apply(context.Background(), "emp-1", leave.TypeCasual, wed, mon, "")
	assert.ErrorIs(t, err, leave.ErrInvalidDateRange)
}

func TestApply_UnknownEmployee_NotFound(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.Apply(context.Background(), "ghost", leave.TypeCasual, mon, wed, "")
	assert.True(t, leave.IsNotFound(err))
}

func TestApply_StartsOnWeekend_Rejected(t *testing.T) {
	// GIVEN: Saturday March 7
	// WHEN: Applying for Saturday through Monday
	// THEN: Rejected because leave must start on a working day

	svc, _ := newTestService(t)
	sat := leave.NewDate(2026, time.March, 7)
	nextMon := leave.NewDate(2026, time.March, 9)

	_, err := svc.Apply(context.Background(), "emp-1", leave.TypeCasual, sat, nextMon, "")
	assert.ErrorIs(t, err, leave.ErrInvalidDateRange)
}

func TestApply_InsufficientBalance_Rejected(t *testing.T) {
	// GIVEN: 10 sick days
	// WHEN: Applying for 15 working days of sick leave
	// THEN: Rejected with the shortfall available in the error

	svc, _ := newTestService(t)

	// March 2 .. March 20 2026 spans 15 working days.
	_, err := svc.Apply(context.Background(), "emp-1", leave.TypeSick,
		mon, leave.NewDate(2026, time.March, 20), "long illness")
	require.ErrorIs(t, err, leave.ErrInsufficientBalance)

	var insufficient *leave.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.True(t, insufficient.Shortfall().Equal(days(5)))
}

func TestApply_Unpaid_BypassesBalance(t *testing.T) {
	// GIVEN: Any balance state
	// WHEN: Applying for a long unpaid stretch
	// THEN: The request is created; unpaid has no balance entry

	svc, _ := newTestService(t)

	req, err := svc.Apply(context.Background(), "emp-1", leave.TypeUnpaid,
		mon, leave.NewDate(2026, time.March, 27), "unpaid sabbatical")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusPending, req.Status)
	assert.Equal(t, 20, req.NumberOfDays)
}

// =============================================================================
// OVERLAP GUARD
// =============================================================================

func TestApply_OverlapWithPending_Rejected(t *testing.T) {
	// GIVEN: A pending request Monday through Wednesday
	// WHEN: Applying Wednesday through Friday (shared Wednesday)
	// THEN: Rejected with the conflicting request identified

	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, wed, "")
	require.NoError(t, err)

	_, err = svc.Apply(ctx, "emp-1", leave.TypeSick, wed, fri, "")
	require.ErrorIs(t, err, leave.ErrOverlap)

	var overlap *leave.OverlapError
	require.ErrorAs(t, err, &overlap)
	require.Len(t, overlap.Conflicts, 1)
	assert.Equal(t, first.ID, overlap.Conflicts[0].RequestID)
}

func TestApply_OverlapWithApproved_Rejected(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, wed, "")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, first.ID, "mgr-1")
	require.NoError(t, err)

	_, err = svc.Apply(ctx, "emp-1", leave.TypeCasual, tue, tue, "")
	assert.ErrorIs(t, err, leave.ErrOverlap)
}

func TestApply_AfterRejection_SameRangeAllowed(t *testing.T) {
	// GIVEN: A rejected request Monday through Wednesday
	// WHEN: Re-applying for the same range
	// THEN: Allowed; only pending and approved requests block

	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, wed, "")
	require.NoError(t, err)
	_, err = svc.Reject(ctx, first.ID, "mgr-1", "team crunch")
	require.NoError(t, err)

	_, err = svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, wed, "second try")
	assert.NoError(t, err)
}

func TestApply_AdjacentRanges_NoOverlap(t *testing.T) {
	// GIVEN: A pending request Monday through Tuesday
	// WHEN: Applying Wednesday through Friday
	// THEN: Allowed; the ranges touch but do not intersect

	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, tue, "")
	require.NoError(t, err)

	_, err = svc.Apply(ctx, "emp-1", leave.TypeCasual, wed, fri, "")
	assert.NoError(t, err)
}

// =============================================================================
// APPROVE
// =============================================================================

func TestApprove_DeductsBalance(t *testing.T) {
	// GIVEN: A pending 3-day casual request and 12 days available
	// WHEN: Approving
	// THEN: The request is approved and the balance drops to 9

	svc, _ := newTestService(t)
	ctx := context.Background()

	req, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, wed, "")
	require.NoError(t, err)

	approved, err := svc.Approve(ctx, req.ID, "mgr-1")
	require.NoError(t, err)

	assert.Equal(t, leave.StatusApproved, approved.Status)
	require.NotNil(t, approved.ApproverID)
	assert.Equal(t, "mgr-1", *approved.ApproverID)
	assert.NotNil(t, approved.ApprovedAt)

	bal, err := svc.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, bal.Available(leave.TypeCasual).Equal(days(9)))
}

func TestApprove_NonPending_StateConflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, wed, "")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, req.ID, "mgr-1")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, req.ID, "mgr-2")
	require.ErrorIs(t, err, leave.ErrWrongState)

	var conflict *leave.StateConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, leave.StatusApproved, conflict.Current)
}

func TestApprove_JointlyExceedingPending_SecondFails(t *testing.T) {
	// GIVEN: Two pending sick requests that together exceed 10 days
	// WHEN: Approving both
	// THEN: The first succeeds; the second fails the approval-time re-check

	svc, _ := newTestService(t)
	ctx := context.Background()

	// 7 working days: March 2 .. March 10.
	first, err := svc.Apply(ctx, "emp-1", leave.TypeSick,
		mon, leave.NewDate(2026, time.March, 10), "")
	require.NoError(t, err)

	// 5 working days: March 16 .. March 20. Passes the pre-check alone.
	second, err := svc.Apply(ctx, "emp-1", leave.TypeSick,
		leave.NewDate(2026, time.March, 16), leave.NewDate(2026, time.March, 20), "")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, first.ID, "mgr-1")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, second.ID, "mgr-1")
	assert.ErrorIs(t, err, leave.ErrInsufficientBalance)

	// The failed approval left the request pending and the balance intact.
	bal, err := svc.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, bal.Available(leave.TypeSick).Equal(days(3)))

	reqs, err := svc.PendingRequests(ctx)
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, second.ID, reqs[0].ID)
}

func TestApprove_ExactRemainingBalance_Succeeds(t *testing.T) {
	// GIVEN: Exactly 12 casual days and a 12-working-day request
	// WHEN: Approving
	// THEN: Succeeds and the balance is exactly zero

	svc, _ := newTestService(t)
	ctx := context.Background()

	// March 2 .. March 17 2026 spans 12 working days.
	req, err := svc.Apply(ctx, "emp-1", leave.TypeCasual,
		mon, leave.NewDate(2026, time.March, 17), "")
	require.NoError(t, err)

	_, err = svc.Approve(ctx, req.ID, "mgr-1")
	require.NoError(t, err)

	bal, err := svc.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, bal.Available(leave.TypeCasual).IsZero())
}

// =============================================================================
// REJECT
// =============================================================================

func TestReject_RequiresReason(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, wed, "")
	require.NoError(t, err)

	_, err = svc.Reject(ctx, req.ID, "mgr-1", "")
	assert.ErrorIs(t, err, leave.ErrMissingReason)
}

func TestReject_SetsReasonAndHistory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, wed, "")
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, req.ID, "mgr-1", "project deadline")
	require.NoError(t, err)

	assert.Equal(t, leave.StatusRejected, rejected.Status)
	require.NotNil(t, rejected.RejectionReason)
	assert.Equal(t, "project deadline", *rejected.RejectionReason)

	last := rejected.History[len(rejected.History)-1]
	assert.Equal(t, leave.StatusPending, last.From)
	assert.Equal(t, leave.StatusRejected, last.To)
	assert.Equal(t, "mgr-1", last.Actor)

	// No balance effect.
	bal, err := svc.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, bal.Available(leave.TypeCasual).Equal(days(12)))
}

func TestReject_NonPending_StateConflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, wed, "")
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, req.ID, "emp-1")
	require.NoError(t, err)

	_, err = svc.Reject(ctx, req.ID, "mgr-1", "too late")
	assert.ErrorIs(t, err, leave.ErrWrongState)
}

// =============================================================================
// CANCEL
// =============================================================================

func TestCancel_Pending_NoBalanceEffect(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, wed, "")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, req.ID, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusCancelled, cancelled.Status)

	bal, err := svc.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, bal.Available(leave.TypeCasual).Equal(days(12)))
}

func TestCancel_Approved_RefundsBalance(t *testing.T) {
	// GIVEN: An approved 3-day request (balance at 9)
	// WHEN: The owner cancels it
	// THEN: The balance returns to 12

	svc, _ := newTestService(t)
	ctx := context.Background()

	req, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, wed, "")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, req.ID, "mgr-1")
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, req.ID, "emp-1")
	require.NoError(t, err)
	assert.Equal(t, leave.StatusCancelled, cancelled.Status)

	bal, err := svc.GetBalance(ctx, "emp-1")
	require.NoError(t, err)
	assert.True(t, bal.Available(leave.TypeCasual).Equal(days(12)))
}

func TestCancel_NotOwner_Forbidden(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, wed, "")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, req.ID, "emp-2")
	assert.ErrorIs(t, err, leave.ErrForbidden)
}

func TestCancel_Rejected_StateConflict(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	req, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, wed, "")
	require.NoError(t, err)
	_, err = svc.Reject(ctx, req.ID, "mgr-1", "no")
	require.NoError(t, err)

	_, err = svc.Cancel(ctx, req.ID, "emp-1")
	assert.ErrorIs(t, err, leave.ErrWrongState)
}

// =============================================================================
// HISTORY
// =============================================================================

func TestRequestHistory_FullLifecycle(t *testing.T) {
	// GIVEN: A request that is applied, approved, then cancelled
	// WHEN: Reading it back
	// THEN: History holds the three transitions in order

	svc, mem := newTestService(t)
	ctx := context.Background()

	req, err := svc.Apply(ctx, "emp-1", leave.TypeCasual, mon, wed, "trip")
	require.NoError(t, err)
	_, err = svc.Approve(ctx, req.ID, "mgr-1")
	require.NoError(t, err)
	_, err = svc.Cancel(ctx, req.ID, "emp-1")
	require.NoError(t, err)

	stored, err := mem.GetRequest(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, stored.History, 3)
	assert.Equal(t, leave.StatusPending, stored.History[0].To)
	assert.Equal(t, leave.StatusApproved, stored.History[1].To)
	assert.Equal(t, leave.StatusCancelled, stored.History[2].To)
}
