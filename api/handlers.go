/*
handlers.go - HTTP API handlers for the leave engine

PURPOSE:
  Exposes the leave engine via REST API. Handles HTTP request/response,
  JSON serialization, input validation, and delegates to domain logic.

ENDPOINTS:
  Employees:
    GET    /api/employees                     List all employees
    POST   /api/employees                     Onboard employee (record + balance)
    GET    /api/employees/{id}                Get employee details
    GET    /api/employees/{id}/balance        Get balance sheet
    GET    /api/employees/{id}/leave-requests Request history
    POST   /api/employees/{id}/leave-requests Submit leave request

  Leave requests:
    GET    /api/leave-requests/pending        Approval queue
    GET    /api/leave-requests/{id}           Request with history
    POST   /api/leave-requests/{id}/approve   Approve (deducts balance)
    POST   /api/leave-requests/{id}/reject    Reject (reason mandatory)
    POST   /api/leave-requests/{id}/cancel    Cancel (owner only)

  Holidays:
    GET    /api/holidays                      List holidays
    POST   /api/holidays                      Register a holiday
    POST   /api/holidays/defaults             Seed common holidays

  Admin:
    POST   /api/admin/sweeps/auto-reject      Run auto-reject sweep now
    POST   /api/admin/sweeps/rollover         Run year-end rollover now
    GET    /api/admin/sweeps/runs             Sweep audit records

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (go-playground/validator)
  3. Call domain logic (leave.Service)
  4. Serialize response
  5. Map domain errors to HTTP status

ERROR HANDLING:
  Domain errors map to JSON error responses:
  - 400: Validation errors, invalid date range, no working days
  - 403: Actor is not the request owner
  - 404: Employee, balance, or request not found
  - 409: State conflict, overlap, concurrent modification, duplicate
  - 422: Insufficient balance
  - 500: Internal errors

SECURITY NOTE:
  No authentication middleware currently. Actor identity comes from the
  request body; an auth layer in front is expected in production.

SEE ALSO:
  - dto.go: Request/response data structures
  - server.go: Router setup and middleware
  - leave/errors.go: The domain error taxonomy mapped here
*/
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Service *leave.Service
	Store   leave.TxStore

	// Calendar is invalidated when holidays change.
	Calendar *leave.Calendar

	// AutoRejectAfter is the pending-age threshold for manual sweep runs.
	AutoRejectAfter time.Duration

	validate *validator.Validate
}

// NewHandler creates a new handler wired to the service and store.
func NewHandler(svc *leave.Service, store leave.TxStore, cal *leave.Calendar, autoRejectAfter time.Duration) *Handler {
	return &Handler{
		Service:         svc,
		Store:           store,
		Calendar:        cal,
		AutoRejectAfter: autoRejectAfter,
		validate:        validator.New(),
	}
}

// decodeAndValidate parses the body into dst and runs struct validation.
func (h *Handler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		writeError(w, http.StatusBadRequest, "Validation failed", err)
		return false
	}
	return true
}

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Store.ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.Store.GetEmployee(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get employee", err)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// OnboardEmployee creates an employee record together with an initial
// balance seeded from the configured quotas.
func (h *Handler) OnboardEmployee(w http.ResponseWriter, r *http.Request) {
	var req OnboardEmployeeRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	hireDate, err := leave.ParseDate(req.HireDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hire_date format (use YYYY-MM-DD)", err)
		return
	}

	balance, err := h.Service.Onboard(r.Context(), leave.Employee{
		ID:          req.ID,
		Name:        req.Name,
		CountryCode: req.CountryCode,
		HireDate:    hireDate,
	})
	if err != nil {
		writeDomainError(w, "Failed to onboard employee", err)
		return
	}

	writeJSON(w, http.StatusCreated, toBalanceDTO(balance))
}

// GetBalance returns the employee's balance sheet.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	balance, err := h.Service.GetBalance(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get balance", err)
		return
	}
	writeJSON(w, http.StatusOK, toBalanceDTO(balance))
}

// =============================================================================
// LEAVE REQUEST HANDLERS
// =============================================================================

// SubmitLeaveRequest submits a new leave request for an employee.
func (h *Handler) SubmitLeaveRequest(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	var req SubmitLeaveRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	start, err := leave.ParseDate(req.StartDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid start_date format (use YYYY-MM-DD)", err)
		return
	}
	end, err := leave.ParseDate(req.EndDate)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid end_date format (use YYYY-MM-DD)", err)
		return
	}

	lr, err := h.Service.Apply(r.Context(), employeeID, leave.Type(req.Type), start, end, req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to submit leave request", err)
		return
	}

	writeJSON(w, http.StatusCreated, toLeaveRequestDTO(lr))
}

// ListEmployeeRequests returns an employee's request history.
func (h *Handler) ListEmployeeRequests(w http.ResponseWriter, r *http.Request) {
	employeeID := chi.URLParam(r, "id")

	reqs, err := h.Service.Requests(r.Context(), employeeID)
	if err != nil {
		writeDomainError(w, "Failed to list requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTOs(reqs))
}

// GetLeaveRequest returns a single request with its transition history.
func (h *Handler) GetLeaveRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	lr, err := h.Store.GetRequest(r.Context(), id)
	if err != nil {
		writeDomainError(w, "Failed to get request", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(lr))
}

// ListPendingRequests returns the approval queue.
func (h *Handler) ListPendingRequests(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.Service.PendingRequests(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list pending requests", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTOs(reqs))
}

// ApproveLeaveRequest approves a pending request and deducts the balance.
func (h *Handler) ApproveLeaveRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	var req ApproveRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	lr, err := h.Service.Approve(r.Context(), id, req.ApproverID)
	if err != nil {
		writeDomainError(w, "Failed to approve request", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(lr))
}

// RejectLeaveRequest rejects a pending request with a mandatory reason.
func (h *Handler) RejectLeaveRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	var req RejectRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	lr, err := h.Service.Reject(r.Context(), id, req.RejectorID, req.Reason)
	if err != nil {
		writeDomainError(w, "Failed to reject request", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(lr))
}

// CancelLeaveRequest cancels the caller's own request. Cancelling an
// approved request refunds the deducted days.
func (h *Handler) CancelLeaveRequest(w http.ResponseWriter, r *http.Request) {
	id := leave.RequestID(chi.URLParam(r, "id"))

	var req CancelRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	lr, err := h.Service.Cancel(r.Context(), id, req.EmployeeID)
	if err != nil {
		writeDomainError(w, "Failed to cancel request", err)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveRequestDTO(lr))
}

// =============================================================================
// HOLIDAY HANDLERS
// =============================================================================

// ListHolidays returns holidays, optionally filtered by country.
// GET /api/holidays?country=IN
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	country := r.URL.Query().Get("country")

	holidays, err := h.Store.ListHolidays(r.Context(), country)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list holidays", err)
		return
	}

	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, HolidayDTO{
			ID:          hol.ID,
			CountryCode: hol.CountryCode,
			Date:        hol.Date.String(),
			Name:        hol.Name,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"holidays": dtos})
}

// CreateHoliday registers a holiday and invalidates the calendar cache.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	date, err := leave.ParseDate(req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date format (use YYYY-MM-DD)", err)
		return
	}

	holiday := leave.Holiday{
		ID:          uuid.NewString(),
		CountryCode: req.CountryCode,
		Date:        date,
		Name:        req.Name,
	}
	if err := h.Store.AddHoliday(r.Context(), holiday); err != nil {
		writeDomainError(w, "Failed to create holiday", err)
		return
	}
	h.Calendar.Invalidate()

	writeJSON(w, http.StatusCreated, map[string]any{
		"status":  "created",
		"holiday": holiday.ID,
	})
}

// AddDefaultHolidays seeds a small set of common holidays for a country.
// POST /api/holidays/defaults
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CountryCode string `json:"country_code"`
	}
	json.NewDecoder(r.Body).Decode(&req)
	if req.CountryCode == "" {
		req.CountryCode = "US"
	}

	defaults := []struct {
		month int
		day   int
		name  string
	}{
		{1, 1, "New Year's Day"},
		{7, 4, "Independence Day"},
		{12, 25, "Christmas Day"},
		{12, 31, "New Year's Eve"},
	}

	year := time.Now().Year()
	count := 0
	for _, d := range defaults {
		holiday := leave.Holiday{
			ID:          fmt.Sprintf("holiday-%s-%02d%02d", req.CountryCode, d.month, d.day),
			CountryCode: req.CountryCode,
			Date:        leave.NewDate(year, time.Month(d.month), d.day),
			Name:        d.name,
		}
		if err := h.Store.AddHoliday(r.Context(), holiday); err == nil {
			count++
		}
	}
	h.Calendar.Invalidate()

	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "created",
		"count":  count,
	})
}

// =============================================================================
// ADMIN HANDLERS
// =============================================================================

// TriggerAutoRejectSweep runs the auto-reject sweep immediately.
// POST /api/admin/sweeps/auto-reject
func (h *Handler) TriggerAutoRejectSweep(w http.ResponseWriter, r *http.Request) {
	rejected, err := h.Service.AutoRejectSweep(r.Context(), time.Now(), h.AutoRejectAfter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Auto-reject sweep failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "completed",
		"rejected": rejected,
	})
}

// TriggerRollover runs the year-end rollover immediately.
// POST /api/admin/sweeps/rollover
func (h *Handler) TriggerRollover(w http.ResponseWriter, r *http.Request) {
	result, err := h.Service.YearEndRollover(r.Context(), time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Rollover failed", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "completed",
		"updated": result.Updated,
		"skipped": result.Skipped,
		"errors":  result.Errors,
	})
}

// ListSweepRuns returns sweep audit records, optionally filtered by kind.
// GET /api/admin/sweeps/runs?kind=auto_reject
func (h *Handler) ListSweepRuns(w http.ResponseWriter, r *http.Request) {
	kind := leave.SweepKind(r.URL.Query().Get("kind"))

	runs, err := h.Service.SweepRuns(r.Context(), kind)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sweep runs", err)
		return
	}

	dtos := make([]SweepRunDTO, len(runs))
	for i, run := range runs {
		dtos[i] = toSweepRunDTO(run)
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": dtos})
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// writeDomainError maps the domain error taxonomy to HTTP status codes.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case leave.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case errors.Is(err, leave.ErrForbidden):
		writeError(w, http.StatusForbidden, message, err)
	case errors.Is(err, leave.ErrInsufficientBalance):
		writeError(w, http.StatusUnprocessableEntity, message, err)
	case errors.Is(err, leave.ErrOverlap),
		errors.Is(err, leave.ErrWrongState),
		errors.Is(err, leave.ErrAlreadyExists),
		errors.Is(err, leave.ErrConcurrentModification):
		writeError(w, http.StatusConflict, message, err)
	case leave.IsClientError(err):
		writeError(w, http.StatusBadRequest, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}
