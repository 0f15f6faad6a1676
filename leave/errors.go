/*
errors.go - Centralized error types for the leave engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Callers classify with errors.Is against the sentinels; structured types
  carry context and Unwrap to their sentinel.

ERROR CATEGORIES:
  1. Validation errors - Malformed input, invalid date ranges
  2. State conflicts - Operation attempted from an illegal status
  3. Balance errors - Insufficient balance, concurrent modification
  4. Lookup errors - Missing request, employee, or balance

USAGE:
  if errors.Is(err, leave.ErrOverlap) {
      var overlap *leave.OverlapError
      errors.As(err, &overlap) // overlap.Conflicts for user feedback
  }

SEE ALSO:
  - service.go: Produces most of these
  - api/handlers.go: Maps them to HTTP status codes
*/
package leave

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidDateRange is returned when start > end or a date is invalid.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrNoWorkingDays is returned when a requested range contains no
	// working days. Callers must treat this as a rejection, not a
	// zero-length leave.
	ErrNoWorkingDays = errors.New("no working days in range")

	// ErrInsufficientBalance is returned when a request exceeds the
	// available balance, at application or at approval time.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrOverlap is returned when a new request intersects an existing
	// pending or approved request.
	ErrOverlap = errors.New("overlapping leave request")

	// ErrWrongState is returned when an operation is attempted from a
	// status that does not permit it.
	ErrWrongState = errors.New("operation not allowed in current status")

	// ErrForbidden is returned when the acting employee is not the owner
	// of the request. Authorization policy itself lives outside this core.
	ErrForbidden = errors.New("actor is not the request owner")

	// ErrMissingReason is returned when a rejection has no reason.
	ErrMissingReason = errors.New("rejection reason is required")

	// ErrNotFound is returned when a request, employee, or balance
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when onboarding an employee that
	// already has a balance record.
	ErrAlreadyExists = errors.New("already exists")

	// ErrConcurrentModification is returned when optimistic locking
	// detects a conflicting balance write.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrUnknownLeaveType is returned for a leave type outside the
	// configured set.
	ErrUnknownLeaveType = errors.New("unknown leave type")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError provides details about a balance shortage.
type InsufficientBalanceError struct {
	EmployeeID string
	Type       Type
	Available  decimal.Decimal
	Requested  decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient %s balance: available %s, requested %s",
		e.Type, e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// Shortfall returns how many days short the balance is.
func (e *InsufficientBalanceError) Shortfall() decimal.Decimal {
	return e.Requested.Sub(e.Available)
}

// Conflict identifies one existing request that blocks a new one.
type Conflict struct {
	RequestID RequestID
	Type      Type
	StartDate Date
	EndDate   Date
	Status    Status
}

// OverlapError enumerates the existing requests whose ranges intersect the
// new request, for user feedback.
type OverlapError struct {
	EmployeeID string
	StartDate  Date
	EndDate    Date
	Conflicts  []Conflict
}

func (e *OverlapError) Error() string {
	parts := make([]string, len(e.Conflicts))
	for i, c := range e.Conflicts {
		parts[i] = fmt.Sprintf("%s %s..%s (%s)", c.Type, c.StartDate, c.EndDate, c.Status)
	}
	return fmt.Sprintf("leave %s..%s overlaps existing: %s",
		e.StartDate, e.EndDate, strings.Join(parts, ", "))
}

func (e *OverlapError) Unwrap() error { return ErrOverlap }

// StateConflictError reports an illegal transition attempt.
type StateConflictError struct {
	RequestID RequestID
	Current   Status
	Attempted Status
}

func (e *StateConflictError) Error() string {
	return fmt.Sprintf("request %s is %s, cannot transition to %s",
		e.RequestID, e.Current, e.Attempted)
}

func (e *StateConflictError) Unwrap() error { return ErrWrongState }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input
// or a business-rule rejection (HTTP 4xx territory).
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidDateRange) ||
		errors.Is(err, ErrNoWorkingDays) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrOverlap) ||
		errors.Is(err, ErrWrongState) ||
		errors.Is(err, ErrForbidden) ||
		errors.Is(err, ErrMissingReason) ||
		errors.Is(err, ErrUnknownLeaveType)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsRetryable returns true if the operation might succeed on retry.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
