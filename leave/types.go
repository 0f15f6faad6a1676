/*
Package leave provides the leave-accounting and approval-workflow engine.

PURPOSE:
  This package contains the domain types and algorithms for managing
  employee leave: per-type balance accounting, a request approval state
  machine, calendar-aware working-day arithmetic, and the two scheduled
  sweeps (daily auto-rejection, annual carry-forward rollover).

KEY CONCEPTS IN THIS FILE (types.go):
  - Type: A leave category (casual, sick, earned, ...)
  - Status: Request lifecycle state with a fixed transition table
  - Request: A leave request with an append-only status history
  - Balance: Per-employee, per-type counters with carry-forward caps
  - Employee: The fields consumed from the employee collaborator

DESIGN PRINCIPLES:
  1. Precision: Balance counters use decimal.Decimal, never float64
  2. Traceability: Every status transition is appended to Request.History
  3. One-way lifecycle: Terminal states accept no further transitions,
     with the single exception of Approved -> Cancelled
  4. Deferred deduction: Balance is consumed at approval, not application

USAGE:
  bal := leave.NewBalance("emp-1", factory.DefaultQuotas(), leave.NewDate(2026, time.January, 1))
  ok := bal.CheckAvailable(leave.TypeCasual, 3)

SEE ALSO:
  - service.go: Request lifecycle operations
  - ledger.go: Balance deduct/refund/rollover
  - calendar.go: Holiday calendar resolver
  - workdays.go: Working-day calculator
*/
package leave

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEAVE TYPE - Category of leave
// =============================================================================

type Type string

const (
	TypeCasual        Type = "casual"
	TypeSick          Type = "sick"
	TypeEarned        Type = "earned"
	TypeMaternity     Type = "maternity"
	TypePaternity     Type = "paternity"
	TypeCompensatory  Type = "compensatory"

	// TypeUnpaid has no balance entry and bypasses every balance check.
	TypeUnpaid Type = "unpaid"
)

// BalanceTypes lists the types that carry a balance entry. Unpaid is
// deliberately absent.
func BalanceTypes() []Type {
	return []Type{TypeCasual, TypeSick, TypeEarned, TypeMaternity, TypePaternity, TypeCompensatory}
}

// Valid reports whether t is a known leave type.
func (t Type) Valid() bool {
	switch t {
	case TypeCasual, TypeSick, TypeEarned, TypeMaternity, TypePaternity, TypeCompensatory, TypeUnpaid:
		return true
	}
	return false
}

// Tracked reports whether t has a balance entry.
func (t Type) Tracked() bool {
	return t.Valid() && t != TypeUnpaid
}

// =============================================================================
// REQUEST STATUS - Lifecycle states and the transition table
// =============================================================================

type Status string

const (
	StatusPending      Status = "pending"
	StatusApproved     Status = "approved"
	StatusRejected     Status = "rejected"
	StatusAutoRejected Status = "auto_rejected"
	StatusCancelled    Status = "cancelled"
)

// transitions is the complete set of legal status edges. Everything not
// listed here is a state conflict.
var transitions = map[Status][]Status{
	StatusPending:  {StatusApproved, StatusRejected, StatusAutoRejected, StatusCancelled},
	StatusApproved: {StatusCancelled},
}

// CanTransition reports whether from -> to is a legal status edge.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether s accepts no further transitions.
func (s Status) Terminal() bool {
	return len(transitions[s]) == 0
}

// =============================================================================
// DATE - Day-granularity point in time (UTC)
// =============================================================================

// Date is a calendar day. All leave arithmetic is day-granular; times are
// normalized to midnight UTC.
type Date struct {
	Time time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day in UTC.
func DateOf(t time.Time) Date {
	return NewDate(t.UTC().Year(), t.UTC().Month(), t.UTC().Day())
}

func Today() Date { return DateOf(time.Now()) }

func (d Date) Before(o Date) bool        { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool         { return d.Time.After(o.Time) }
func (d Date) Equal(o Date) bool         { return d.Time.Equal(o.Time) }
func (d Date) BeforeOrEqual(o Date) bool { return !d.After(o) }
func (d Date) AfterOrEqual(o Date) bool  { return !d.Before(o) }
func (d Date) AddDays(n int) Date        { return Date{Time: d.Time.AddDate(0, 0, n)} }
func (d Date) Weekday() time.Weekday     { return d.Time.Weekday() }
func (d Date) Year() int                 { return d.Time.Year() }
func (d Date) IsZero() bool              { return d.Time.IsZero() }

func (d Date) String() string { return d.Time.Format("2006-01-02") }

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return DateOf(t), nil
}

// =============================================================================
// LEAVE REQUEST - The approval workflow entity
// =============================================================================

type RequestID string

// Request is a leave request. Once a terminal status is reached the record
// is immutable, except for the single Approved -> Cancelled edge. Requests
// are never deleted; they form a permanent record of activity.
type Request struct {
	ID         RequestID
	EmployeeID string
	Type       Type
	StartDate  Date
	EndDate    Date

	// NumberOfDays is the working-day count of [StartDate, EndDate],
	// computed at application time. Always > 0 for a persisted request.
	NumberOfDays int

	Reason string
	Status Status

	// Set on rejection (manual or automatic).
	RejectionReason *string

	// Set on approval.
	ApproverID *string
	ApprovedAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time

	// History is the append-only record of status transitions.
	History []StatusChange
}

// StatusChange records one transition in a request's lifecycle.
type StatusChange struct {
	From  Status
	To    Status
	Actor string // employee id, approver id, or "system"
	Note  string
	At    time.Time
}

// recordTransition appends a history entry and flips the status.
// Callers must have already verified the edge with CanTransition.
func (r *Request) recordTransition(to Status, actor, note string, at time.Time) {
	r.History = append(r.History, StatusChange{
		From:  r.Status,
		To:    to,
		Actor: actor,
		Note:  note,
		At:    at,
	})
	r.Status = to
	r.UpdatedAt = at
}

// =============================================================================
// LEAVE BALANCE - Per-employee, per-type counters
// =============================================================================

// Entry is the counter set for one leave type.
type Entry struct {
	// Current is the spendable balance. Never negative.
	Current decimal.Decimal

	// Carried is the portion of Current that was carried over at the last
	// rollover. Informational; Current already includes it.
	Carried decimal.Decimal

	// MaxCarryForward caps Carried at rollover. Zero means no carry.
	MaxCarryForward decimal.Decimal
}

// CarryEligible reports whether this entry participates in carry-forward.
func (e Entry) CarryEligible() bool { return e.MaxCarryForward.IsPositive() }

// Balance holds every tracked leave type's counters for one employee.
// It is created once at onboarding and mutated only by approval (deduct),
// cancellation after approval (refund), and the annual rollover sweep.
type Balance struct {
	EmployeeID string
	Entries    map[Type]Entry

	// LastResetDate marks the year the balance was last rolled over
	// (January 1 of that year). Year granularity.
	LastResetDate Date

	// Version is the optimistic-locking token. Every mutation increments
	// it; stores reject writes against a stale version.
	Version int
}

// Quota describes the annual grant for one leave type.
type Quota struct {
	AnnualQuota     decimal.Decimal
	CarryEligible   bool
	MaxCarryForward decimal.Decimal

	// Granted types (maternity, paternity, compensatory) are not refreshed
	// by the annual rollover.
	Granted bool
}

// NewBalance creates an onboarding balance with the given quotas, dated to
// January 1 of asOf's year.
func NewBalance(employeeID string, quotas map[Type]Quota, asOf Date) *Balance {
	entries := make(map[Type]Entry, len(quotas))
	for t, q := range quotas {
		if !t.Tracked() {
			continue
		}
		cap := decimal.Zero
		if q.CarryEligible {
			cap = q.MaxCarryForward
		}
		entries[t] = Entry{
			Current:         q.AnnualQuota,
			Carried:         decimal.Zero,
			MaxCarryForward: cap,
		}
	}
	return &Balance{
		EmployeeID:    employeeID,
		Entries:       entries,
		LastResetDate: NewDate(asOf.Year(), time.January, 1),
	}
}

// =============================================================================
// HOLIDAY & EMPLOYEE - Collaborator-facing records
// =============================================================================

// Holiday is one non-working day in a country's calendar.
type Holiday struct {
	ID          string
	CountryCode string
	Date        Date
	Name        string
}

// Employee carries the fields this engine consumes from the employee
// collaborator: an identifier and a country code for holiday lookups.
// Authorization of actors happens outside this core.
type Employee struct {
	ID          string
	Name        string
	CountryCode string
	HireDate    Date
	CreatedAt   time.Time
}

// =============================================================================
// SWEEP RUNS - Audit records for scheduled batch jobs
// =============================================================================

type SweepKind string

const (
	SweepAutoReject SweepKind = "auto_reject"
	SweepRollover   SweepKind = "rollover"
)

// SweepRun records one execution of a scheduled sweep. Both sweeps are
// idempotent, so a run that finds nothing to do is still recorded.
type SweepRun struct {
	ID          string
	Kind        SweepKind
	Status      string // "completed" or "failed"
	Rejected    int    // auto-reject sweep
	Updated     int    // rollover sweep
	Skipped     int    // rollover sweep
	Errors      int
	Error       string
	StartedAt   time.Time
	CompletedAt *time.Time
}
