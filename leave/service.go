/*
service.go - Leave request lifecycle

PURPOSE:
  Owns the request state machine and drives the balance ledger:
  1. Apply: validate dates, count working days, guard overlaps, pre-check
     balance, create Pending. No deduction here.
  2. Approve: re-check balance, deduct and flip to Approved atomically.
  3. Reject: mandatory reason, no balance effect.
  4. Cancel: owner only; refunds when leaving Approved.

DEFERRED DEDUCTION:
  Balance is consumed at approval, not application, so requests that are
  ultimately rejected never touch the ledger. The cost is a second
  availability check at approval time, which guards against several
  concurrently pending requests that jointly exceed the balance.

ATOMIC APPROVE:
  The status flip and the deduction commit together inside TxStore.WithTx.
  The balance write is optimistic-locked; on a version conflict the whole
  transaction retries from a fresh read, so two racing approvals cannot
  both pass a stale availability check.

AUTHORIZATION:
  The approver/rejector identity is accepted as a parameter. Callers are
  assumed to have already verified the actor may perform the action; only
  the ownership rule on Cancel is enforced here.

SEE ALSO:
  - ledger.go: Deduct/refund semantics
  - sweep.go: Bulk auto-reject and rollover
*/
package leave

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// approveRetries bounds optimistic-lock retries on the approve and cancel
// paths before surfacing ErrConcurrentModification.
const approveRetries = 3

// =============================================================================
// SERVICE
// =============================================================================

// Service orchestrates the leave request lifecycle.
type Service struct {
	store  TxStore
	cal    *Calendar
	quotas map[Type]Quota

	// now is injectable for tests.
	now func() time.Time
}

func NewService(store TxStore, cal *Calendar, quotas map[Type]Quota) *Service {
	return &Service{
		store:  store,
		cal:    cal,
		quotas: quotas,
		now:    time.Now,
	}
}

// SetClock overrides the service clock. Tests only.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

// =============================================================================
// ONBOARDING
// =============================================================================

// Onboard registers an employee and creates their balance with the default
// annual quotas. The balance exists exactly once per employee.
func (s *Service) Onboard(ctx context.Context, e Employee) (*Balance, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	if err := s.store.CreateEmployee(ctx, e); err != nil {
		return nil, err
	}

	asOf := e.HireDate
	if asOf.IsZero() {
		asOf = DateOf(s.now())
	}
	bal := NewBalance(e.ID, s.quotas, asOf)
	if err := s.store.CreateBalance(ctx, bal); err != nil {
		return nil, err
	}
	return bal, nil
}

// GetBalance returns the employee's balance record.
func (s *Service) GetBalance(ctx context.Context, employeeID string) (*Balance, error) {
	return s.store.GetBalance(ctx, employeeID)
}

// Requests returns the employee's full request history, newest first.
func (s *Service) Requests(ctx context.Context, employeeID string) ([]Request, error) {
	return s.store.ListRequestsByEmployee(ctx, employeeID)
}

// PendingRequests returns every pending request across employees.
func (s *Service) PendingRequests(ctx context.Context) ([]Request, error) {
	return s.store.ListRequestsByStatus(ctx, StatusPending)
}

// =============================================================================
// APPLY
// =============================================================================

// Apply creates a Pending leave request for the employee. The balance is
// checked but NOT deducted; deduction happens at approval.
func (s *Service) Apply(ctx context.Context, employeeID string, t Type, start, end Date, reason string) (*Request, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLeaveType, t)
	}
	if start.IsZero() || end.IsZero() || start.After(end) {
		return nil, ErrInvalidDateRange
	}

	emp, err := s.store.GetEmployee(ctx, employeeID)
	if err != nil {
		return nil, err
	}

	// Leave must start and end on working days.
	for _, boundary := range []Date{start, end} {
		off, err := s.cal.IsNonWorkingDay(ctx, boundary, emp.CountryCode)
		if err != nil {
			return nil, err
		}
		if off {
			return nil, fmt.Errorf("%w: %s is not a working day", ErrInvalidDateRange, boundary)
		}
	}

	days, err := WorkingDays(ctx, s.cal, start, end, emp.CountryCode)
	if err != nil {
		return nil, err
	}
	if days == 0 {
		return nil, ErrNoWorkingDays
	}

	// Overlap guard: any intersecting pending or approved request blocks
	// creation.
	conflicts, err := s.store.FindActiveOverlapping(ctx, employeeID, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to check overlaps: %w", err)
	}
	if len(conflicts) > 0 {
		overlap := &OverlapError{EmployeeID: employeeID, StartDate: start, EndDate: end}
		for _, c := range conflicts {
			overlap.Conflicts = append(overlap.Conflicts, Conflict{
				RequestID: c.ID,
				Type:      c.Type,
				StartDate: c.StartDate,
				EndDate:   c.EndDate,
				Status:    c.Status,
			})
		}
		return nil, overlap
	}

	// Pre-check only. Several pending requests may jointly exceed the
	// balance; the approve path re-checks.
	if t.Tracked() {
		bal, err := s.store.GetBalance(ctx, employeeID)
		if err != nil {
			return nil, err
		}
		if !bal.CheckAvailable(t, days) {
			return nil, &InsufficientBalanceError{
				EmployeeID: employeeID,
				Type:       t,
				Available:  bal.Available(t),
				Requested:  intToDecimal(days),
			}
		}
	}

	now := s.now()
	req := &Request{
		ID:           RequestID(uuid.NewString()),
		EmployeeID:   employeeID,
		Type:         t,
		StartDate:    start,
		EndDate:      end,
		NumberOfDays: days,
		Reason:       reason,
		Status:       StatusPending,
		CreatedAt:    now,
		UpdatedAt:    now,
		History: []StatusChange{
			{To: StatusPending, Actor: employeeID, Note: reason, At: now},
		},
	}

	if err := s.store.CreateRequest(ctx, req); err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return req, nil
}

// =============================================================================
// APPROVE
// =============================================================================

// Approve transitions a Pending request to Approved and deducts its
// working days from the matching balance. The availability re-check, the
// deduction, and the status flip are one atomic unit.
func (s *Service) Approve(ctx context.Context, id RequestID, approverID string) (*Request, error) {
	var approved *Request
	err := s.retryOnConflict(func() error {
		return s.store.WithTx(ctx, func(tx Store) error {
			req, err := tx.GetRequest(ctx, id)
			if err != nil {
				return err
			}
			if req.Status != StatusPending {
				return &StateConflictError{RequestID: id, Current: req.Status, Attempted: StatusApproved}
			}

			if req.Type.Tracked() {
				bal, err := tx.GetBalance(ctx, req.EmployeeID)
				if err != nil {
					return err
				}
				// Balance may have shifted since application.
				if !bal.CheckAvailable(req.Type, req.NumberOfDays) {
					return &InsufficientBalanceError{
						EmployeeID: req.EmployeeID,
						Type:       req.Type,
						Available:  bal.Available(req.Type),
						Requested:  intToDecimal(req.NumberOfDays),
					}
				}
				bal.Deduct(req.Type, req.NumberOfDays)
				if err := tx.SaveBalance(ctx, bal); err != nil {
					return err
				}
			}

			now := s.now()
			req.ApproverID = &approverID
			req.ApprovedAt = &now
			req.recordTransition(StatusApproved, approverID, "", now)

			if err := tx.UpdateRequest(ctx, req); err != nil {
				return err
			}
			approved = req
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// =============================================================================
// REJECT
// =============================================================================

// Reject transitions a Pending request to Rejected. The reason is
// mandatory. No balance effect: pending requests were never deducted.
func (s *Service) Reject(ctx context.Context, id RequestID, rejectorID, reason string) (*Request, error) {
	if reason == "" {
		return nil, ErrMissingReason
	}

	req, err := s.store.GetRequest(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusPending {
		return nil, &StateConflictError{RequestID: id, Current: req.Status, Attempted: StatusRejected}
	}

	req.RejectionReason = &reason
	req.recordTransition(StatusRejected, rejectorID, reason, s.now())

	if err := s.store.UpdateRequest(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// =============================================================================
// CANCEL
// =============================================================================

// Cancel transitions a Pending or Approved request to Cancelled. Only the
// owning employee may cancel. Cancelling an Approved non-unpaid request
// refunds its working days; cancelling a Pending one has no balance
// effect.
func (s *Service) Cancel(ctx context.Context, id RequestID, employeeID string) (*Request, error) {
	var cancelled *Request
	err := s.retryOnConflict(func() error {
		return s.store.WithTx(ctx, func(tx Store) error {
			req, err := tx.GetRequest(ctx, id)
			if err != nil {
				return err
			}
			if req.EmployeeID != employeeID {
				return ErrForbidden
			}
			if !CanTransition(req.Status, StatusCancelled) {
				return &StateConflictError{RequestID: id, Current: req.Status, Attempted: StatusCancelled}
			}

			if req.Status == StatusApproved && req.Type.Tracked() {
				bal, err := tx.GetBalance(ctx, req.EmployeeID)
				if err != nil {
					return err
				}
				bal.Refund(req.Type, req.NumberOfDays)
				if err := tx.SaveBalance(ctx, bal); err != nil {
					return err
				}
			}

			req.recordTransition(StatusCancelled, employeeID, "", s.now())
			if err := tx.UpdateRequest(ctx, req); err != nil {
				return err
			}
			cancelled = req
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// =============================================================================
// HELPERS
// =============================================================================

// retryOnConflict re-runs fn when a transaction loses an optimistic-lock
// race, up to approveRetries attempts.
func (s *Service) retryOnConflict(fn func() error) error {
	var err error
	for attempt := 0; attempt < approveRetries; attempt++ {
		err = fn()
		if !IsRetryable(err) {
			return err
		}
	}
	return err
}
