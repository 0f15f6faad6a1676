/*
store.go - Persistence interfaces for the leave engine

PURPOSE:
  Defines the contract between the domain logic and the database.
  Two logical stores back the engine: leave_requests (keyed by generated
  id) and leave_balances (keyed uniquely by employee id), plus the
  supporting employee, holiday, and sweep-run records.

MUTATION CONTRACT:
  - Requests are never deleted. UpdateRequest persists the current status
    and appends any new history entries; history rows are append-only.
  - SaveBalance is an optimistic-locked write: it must match the record's
    Version, increment it on success, and return
    ErrConcurrentModification when the stored version has moved on.

ATOMICITY:
  TxStore.WithTx executes a closure against a transactional view. The
  approve path commits the status flip and the balance deduction together
  or not at all; the system never observes "approved but not deducted".

IMPLEMENTATIONS:
  - store/sqlite: Production SQLite
  - leave/store: In-memory for tests

SEE ALSO:
  - service.go: The consumer of these interfaces
*/
package leave

import (
	"context"
	"time"
)

// =============================================================================
// STORE - Persistence for requests, balances, employees, holidays
// =============================================================================

type Store interface {
	// Employees
	CreateEmployee(ctx context.Context, e Employee) error
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	ListEmployees(ctx context.Context) ([]Employee, error)

	// Leave requests
	CreateRequest(ctx context.Context, r *Request) error
	GetRequest(ctx context.Context, id RequestID) (*Request, error)
	UpdateRequest(ctx context.Context, r *Request) error
	ListRequestsByEmployee(ctx context.Context, employeeID string) ([]Request, error)
	ListRequestsByStatus(ctx context.Context, status Status) ([]Request, error)

	// ListPendingCreatedBefore selects the auto-reject sweep's candidates:
	// pending requests created strictly before cutoff.
	ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]Request, error)

	// FindActiveOverlapping returns the employee's pending and approved
	// requests whose inclusive [start, end] intersects the given range.
	FindActiveOverlapping(ctx context.Context, employeeID string, start, end Date) ([]Request, error)

	// Balances
	CreateBalance(ctx context.Context, b *Balance) error
	GetBalance(ctx context.Context, employeeID string) (*Balance, error)
	SaveBalance(ctx context.Context, b *Balance) error
	ListBalances(ctx context.Context) ([]*Balance, error)

	// Holidays
	AddHoliday(ctx context.Context, h Holiday) error
	ListHolidays(ctx context.Context, countryCode string) ([]Holiday, error)
	HolidaysForYear(ctx context.Context, countryCode string, year int) ([]Holiday, error)

	// Sweep runs
	SaveSweepRun(ctx context.Context, run SweepRun) error
	ListSweepRuns(ctx context.Context, kind SweepKind) ([]SweepRun, error)
}

// =============================================================================
// TRANSACTIONAL STORE - Atomic multi-record operations
// =============================================================================

// TxStore wraps Store with transaction support.
type TxStore interface {
	Store

	// WithTx executes fn within a transaction. If fn returns an error the
	// transaction is rolled back, otherwise it is committed.
	WithTx(ctx context.Context, fn func(Store) error) error
}
