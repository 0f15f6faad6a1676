/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the internal domain model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Employee:
    EmployeeDTO, OnboardEmployeeRequest

  Balance:
    BalanceDTO, BalanceEntryDTO

  Leave requests:
    SubmitLeaveRequest, LeaveRequestDTO, StatusChangeDTO
    ApproveRequest, RejectRequest, CancelRequest

  Holidays:
    HolidayDTO, CreateHolidayRequest

  Sweeps:
    SweepRunDTO

VALIDATION:
  Request bodies carry go-playground/validator struct tags; handlers run
  them through a shared *validator.Validate before touching domain logic.

SEE ALSO:
  - handlers.go: Uses these types
  - leave/types.go: Domain model these map from
*/
package api

import (
	"time"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// EMPLOYEE TYPES
// =============================================================================

// EmployeeDTO represents an employee in API responses.
type EmployeeDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	CountryCode string `json:"country_code,omitempty"`
	HireDate    string `json:"hire_date"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// OnboardEmployeeRequest is the request to onboard an employee. Both the
// employee record and the initial balance are created in one call.
type OnboardEmployeeRequest struct {
	ID          string `json:"id" validate:"required"`
	Name        string `json:"name" validate:"required"`
	CountryCode string `json:"country_code" validate:"omitempty,len=2"`
	HireDate    string `json:"hire_date" validate:"required,datetime=2006-01-02"`
}

// =============================================================================
// BALANCE TYPES
// =============================================================================

// BalanceEntryDTO is one leave type's counters within a balance.
type BalanceEntryDTO struct {
	Type            string `json:"type"`
	Current         string `json:"current"`
	Carried         string `json:"carried"`
	MaxCarryForward string `json:"max_carry_forward"`
}

// BalanceDTO is an employee's full balance sheet.
type BalanceDTO struct {
	EmployeeID    string            `json:"employee_id"`
	Entries       []BalanceEntryDTO `json:"entries"`
	LastResetDate string            `json:"last_reset_date"`
	Version       int               `json:"version"`
}

// =============================================================================
// LEAVE REQUEST TYPES
// =============================================================================

// SubmitLeaveRequest is the body for submitting a new leave request.
type SubmitLeaveRequest struct {
	Type      string `json:"type" validate:"required,oneof=casual sick earned maternity paternity compensatory unpaid"`
	StartDate string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string `json:"end_date" validate:"required,datetime=2006-01-02"`
	Reason    string `json:"reason"`
}

// ApproveRequest identifies who is approving.
type ApproveRequest struct {
	ApproverID string `json:"approver_id" validate:"required"`
}

// RejectRequest identifies who is rejecting and why. The reason is
// mandatory: rejected employees always learn why.
type RejectRequest struct {
	RejectorID string `json:"rejector_id" validate:"required"`
	Reason     string `json:"reason" validate:"required"`
}

// CancelRequest identifies the owner cancelling their own request.
type CancelRequest struct {
	EmployeeID string `json:"employee_id" validate:"required"`
}

// StatusChangeDTO is one transition in a request's history.
type StatusChangeDTO struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Actor string `json:"actor"`
	Note  string `json:"note,omitempty"`
	At    string `json:"at"`
}

// LeaveRequestDTO represents a leave request in API responses.
type LeaveRequestDTO struct {
	ID              string            `json:"id"`
	EmployeeID      string            `json:"employee_id"`
	Type            string            `json:"type"`
	StartDate       string            `json:"start_date"`
	EndDate         string            `json:"end_date"`
	NumberOfDays    int               `json:"number_of_days"`
	Reason          string            `json:"reason,omitempty"`
	Status          string            `json:"status"`
	RejectionReason *string           `json:"rejection_reason,omitempty"`
	ApproverID      *string           `json:"approver_id,omitempty"`
	ApprovedAt      *string           `json:"approved_at,omitempty"`
	CreatedAt       string            `json:"created_at"`
	UpdatedAt       string            `json:"updated_at"`
	History         []StatusChangeDTO `json:"history,omitempty"`
}

// =============================================================================
// HOLIDAY TYPES
// =============================================================================

// HolidayDTO represents a holiday in API responses.
type HolidayDTO struct {
	ID          string `json:"id"`
	CountryCode string `json:"country_code"`
	Date        string `json:"date"`
	Name        string `json:"name"`
}

// CreateHolidayRequest is the body for registering a holiday.
type CreateHolidayRequest struct {
	CountryCode string `json:"country_code" validate:"required,len=2"`
	Date        string `json:"date" validate:"required,datetime=2006-01-02"`
	Name        string `json:"name" validate:"required"`
}

// =============================================================================
// SWEEP TYPES
// =============================================================================

// SweepRunDTO is one scheduled-job execution record.
type SweepRunDTO struct {
	ID          string  `json:"id"`
	Kind        string  `json:"kind"`
	Status      string  `json:"status"`
	Rejected    int     `json:"rejected"`
	Updated     int     `json:"updated"`
	Skipped     int     `json:"skipped"`
	Errors      int     `json:"errors"`
	Error       string  `json:"error,omitempty"`
	StartedAt   string  `json:"started_at"`
	CompletedAt *string `json:"completed_at,omitempty"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// =============================================================================
// CONVERTERS
// =============================================================================

func toEmployeeDTO(e leave.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:          e.ID,
		Name:        e.Name,
		CountryCode: e.CountryCode,
		HireDate:    e.HireDate.String(),
		CreatedAt:   e.CreatedAt.Format(time.RFC3339),
	}
}

func toBalanceDTO(b *leave.Balance) BalanceDTO {
	dto := BalanceDTO{
		EmployeeID:    b.EmployeeID,
		Entries:       make([]BalanceEntryDTO, 0, len(b.Entries)),
		LastResetDate: b.LastResetDate.String(),
		Version:       b.Version,
	}
	for _, t := range leave.BalanceTypes() {
		e, ok := b.Entries[t]
		if !ok {
			continue
		}
		dto.Entries = append(dto.Entries, BalanceEntryDTO{
			Type:            string(t),
			Current:         e.Current.String(),
			Carried:         e.Carried.String(),
			MaxCarryForward: e.MaxCarryForward.String(),
		})
	}
	return dto
}

func toLeaveRequestDTO(r *leave.Request) LeaveRequestDTO {
	dto := LeaveRequestDTO{
		ID:              string(r.ID),
		EmployeeID:      r.EmployeeID,
		Type:            string(r.Type),
		StartDate:       r.StartDate.String(),
		EndDate:         r.EndDate.String(),
		NumberOfDays:    r.NumberOfDays,
		Reason:          r.Reason,
		Status:          string(r.Status),
		RejectionReason: r.RejectionReason,
		ApproverID:      r.ApproverID,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       r.UpdatedAt.Format(time.RFC3339),
	}
	if r.ApprovedAt != nil {
		s := r.ApprovedAt.Format(time.RFC3339)
		dto.ApprovedAt = &s
	}
	for _, h := range r.History {
		dto.History = append(dto.History, StatusChangeDTO{
			From:  string(h.From),
			To:    string(h.To),
			Actor: h.Actor,
			Note:  h.Note,
			At:    h.At.Format(time.RFC3339),
		})
	}
	return dto
}

func toLeaveRequestDTOs(reqs []leave.Request) []LeaveRequestDTO {
	dtos := make([]LeaveRequestDTO, len(reqs))
	for i := range reqs {
		dtos[i] = toLeaveRequestDTO(&reqs[i])
	}
	return dtos
}

func toSweepRunDTO(run leave.SweepRun) SweepRunDTO {
	dto := SweepRunDTO{
		ID:        run.ID,
		Kind:      string(run.Kind),
		Status:    run.Status,
		Rejected:  run.Rejected,
		Updated:   run.Updated,
		Skipped:   run.Skipped,
		Errors:    run.Errors,
		Error:     run.Error,
		StartedAt: run.StartedAt.Format(time.RFC3339),
	}
	if run.CompletedAt != nil {
		s := run.CompletedAt.Format(time.RFC3339)
		dto.CompletedAt = &s
	}
	return dto
}
