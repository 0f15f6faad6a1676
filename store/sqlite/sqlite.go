/*
Package sqlite provides a SQLite-backed implementation of the storage
interfaces.

PURPOSE:
  Implements leave.Store and leave.TxStore using SQLite. In production,
  the same patterns apply to PostgreSQL - only minor SQL dialect
  differences.

KEY TABLES:
  employees:             Employee records
  leave_requests:        Request rows; never deleted
  leave_request_history: Append-only status transition log
  leave_balances:        One row per employee, JSON entries, version column
  holidays:              Country holiday calendars
  sweep_runs:            Scheduled job audit records

OPTIMISTIC LOCKING:
  leave_balances carries a version column. SaveBalance updates
  `WHERE employee_id = ? AND version = ?`; zero affected rows against an
  existing record is leave.ErrConcurrentModification. Combined with
  WithTx, the approve path's check-then-deduct is a single atomic unit.

INDEXES:
  - idx_requests_employee_status: Overlap guard candidate scan
  - idx_requests_status_created: Auto-reject sweep selection
  - idx_holidays_country_date: Calendar resolver lookups

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WithTx holds the write lock for
  the whole transaction; the transactional view therefore skips
  per-method locking.

USAGE:
  store, err := sqlite.New("./data/leave.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := leave.NewService(store, calendar, quotas)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - leave/store.go: Interface definitions
  - leave/store/memory.go: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/leave-engine/leave"
)

// Store implements leave.TxStore using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		country_code TEXT NOT NULL DEFAULT '',
		hire_date TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	-- Requests are a permanent record of activity: no DELETE, ever.
	CREATE TABLE IF NOT EXISTS leave_requests (
		id TEXT PRIMARY KEY,
		employee_id TEXT NOT NULL REFERENCES employees(id),
		leave_type TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		number_of_days INTEGER NOT NULL,
		reason TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		rejection_reason TEXT,
		approver_id TEXT,
		approved_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Overlap guard: scan an employee's pending/approved requests
	CREATE INDEX IF NOT EXISTS idx_requests_employee_status
		ON leave_requests(employee_id, status);
	-- Auto-reject sweep: pending-older-than selection
	CREATE INDEX IF NOT EXISTS idx_requests_status_created
		ON leave_requests(status, created_at);
	CREATE INDEX IF NOT EXISTS idx_requests_employee_dates
		ON leave_requests(employee_id, start_date, end_date);

	-- Append-only status transition log
	CREATE TABLE IF NOT EXISTS leave_request_history (
		request_id TEXT NOT NULL REFERENCES leave_requests(id),
		seq INTEGER NOT NULL,
		from_status TEXT NOT NULL,
		to_status TEXT NOT NULL,
		actor TEXT NOT NULL,
		note TEXT,
		at TEXT NOT NULL,
		PRIMARY KEY (request_id, seq)
	);

	-- One balance row per employee; version backs optimistic locking
	CREATE TABLE IF NOT EXISTS leave_balances (
		employee_id TEXT PRIMARY KEY REFERENCES employees(id),
		entries_json TEXT NOT NULL,
		last_reset_date TEXT NOT NULL,
		version INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		country_code TEXT NOT NULL,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_country_date
		ON holidays(country_code, date);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_unique
		ON holidays(country_code, date, name);

	CREATE TABLE IF NOT EXISTS sweep_runs (
		id TEXT PRIMARY KEY,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		rejected INTEGER NOT NULL DEFAULT 0,
		updated INTEGER NOT NULL DEFAULT 0,
		skipped INTEGER NOT NULL DEFAULT 0,
		errors INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		started_at TEXT NOT NULL,
		completed_at TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_sweep_runs_kind
		ON sweep_runs(kind, started_at DESC);
	`

	_, err := s.db.Exec(schema)
	return err
}

// querier abstracts *sql.DB and *sql.Tx so the same query helpers serve
// both the plain store and the transactional view.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (s *Store) CreateEmployee(ctx context.Context, e leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createEmployee(ctx, s.db, e)
}

func createEmployee(ctx context.Context, q querier, e leave.Employee) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO employees (id, name, country_code, hire_date, created_at) VALUES (?, ?, ?, ?, ?)`,
		e.ID, e.Name, e.CountryCode, e.HireDate.String(), e.CreatedAt.UTC().Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return leave.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetEmployee(ctx context.Context, id string) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getEmployee(ctx, s.db, id)
}

func getEmployee(ctx context.Context, q querier, id string) (*leave.Employee, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, name, country_code, hire_date, created_at FROM employees WHERE id = ?`, id)

	var e leave.Employee
	var hireDate, createdAt string
	err := row.Scan(&e.ID, &e.Name, &e.CountryCode, &hireDate, &createdAt)
	if err == sql.ErrNoRows {
		return nil, leave.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	e.HireDate, _ = leave.ParseDate(hireDate)
	e.CreatedAt = parseTime(createdAt)
	return &e, nil
}

func (s *Store) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, country_code, hire_date, created_at FROM employees ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Employee
	for rows.Next() {
		var e leave.Employee
		var hireDate, createdAt string
		if err := rows.Scan(&e.ID, &e.Name, &e.CountryCode, &hireDate, &createdAt); err != nil {
			return nil, err
		}
		e.HireDate, _ = leave.ParseDate(hireDate)
		e.CreatedAt = parseTime(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

const requestColumns = `id, employee_id, leave_type, start_date, end_date, number_of_days,
	reason, status, rejection_reason, approver_id, approved_at, created_at, updated_at`

func (s *Store) CreateRequest(ctx context.Context, r *leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createRequest(ctx, s.db, r)
}

func createRequest(ctx context.Context, q querier, r *leave.Request) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO leave_requests (`+requestColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.EmployeeID, r.Type, r.StartDate.String(), r.EndDate.String(), r.NumberOfDays,
		r.Reason, r.Status, nullString(r.RejectionReason), nullString(r.ApproverID),
		nullTime(r.ApprovedAt), r.CreatedAt.UTC().Format(time.RFC3339), r.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return leave.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert request: %w", err)
	}
	return appendHistoryTail(ctx, q, r, 0)
}

func (s *Store) GetRequest(ctx context.Context, id leave.RequestID) (*leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getRequest(ctx, s.db, id)
}

func getRequest(ctx context.Context, q querier, id leave.RequestID) (*leave.Request, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM leave_requests WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	reqs, err := scanRequests(rows)
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, leave.ErrNotFound
	}
	r := &reqs[0]
	r.History, err = loadHistory(ctx, q, id)
	return r, err
}

// UpdateRequest persists the current row state and appends any history
// entries not yet stored. History rows are never rewritten.
func (s *Store) UpdateRequest(ctx context.Context, r *leave.Request) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return updateRequest(ctx, s.db, r)
}

func updateRequest(ctx context.Context, q querier, r *leave.Request) error {
	res, err := q.ExecContext(ctx, `
		UPDATE leave_requests
		SET status = ?, rejection_reason = ?, approver_id = ?, approved_at = ?, updated_at = ?
		WHERE id = ?`,
		r.Status, nullString(r.RejectionReason), nullString(r.ApproverID),
		nullTime(r.ApprovedAt), r.UpdatedAt.UTC().Format(time.RFC3339), r.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update request: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		return leave.ErrNotFound
	}

	var stored int
	if err := q.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM leave_request_history WHERE request_id = ?`, r.ID,
	).Scan(&stored); err != nil {
		return err
	}
	return appendHistoryTail(ctx, q, r, stored)
}

func appendHistoryTail(ctx context.Context, q querier, r *leave.Request, from int) error {
	for i := from; i < len(r.History); i++ {
		h := r.History[i]
		_, err := q.ExecContext(ctx, `
			INSERT INTO leave_request_history (request_id, seq, from_status, to_status, actor, note, at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			r.ID, i, h.From, h.To, h.Actor, h.Note, h.At.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to append history: %w", err)
		}
	}
	return nil
}

func loadHistory(ctx context.Context, q querier, id leave.RequestID) ([]leave.StatusChange, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT from_status, to_status, actor, note, at
		FROM leave_request_history WHERE request_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.StatusChange
	for rows.Next() {
		var h leave.StatusChange
		var note sql.NullString
		var at string
		if err := rows.Scan(&h.From, &h.To, &h.Actor, &note, &at); err != nil {
			return nil, err
		}
		h.Note = note.String
		h.At = parseTime(at)
		out = append(out, h)
	}
	return out, rows.Err()
}

func (s *Store) ListRequestsByEmployee(ctx context.Context, employeeID string) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM leave_requests WHERE employee_id = ? ORDER BY created_at DESC`,
		employeeID)
	if err != nil {
		return nil, err
	}
	return scanRequests(rows)
}

func (s *Store) ListRequestsByStatus(ctx context.Context, status leave.Status) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM leave_requests WHERE status = ? ORDER BY created_at`,
		status)
	if err != nil {
		return nil, err
	}
	return scanRequests(rows)
}

func (s *Store) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM leave_requests
		 WHERE status = ? AND created_at < ? ORDER BY created_at`,
		leave.StatusPending, cutoff.UTC().Format(time.RFC3339))
	if err != nil {
		return nil, err
	}
	return scanRequests(rows)
}

func (s *Store) FindActiveOverlapping(ctx context.Context, employeeID string, start, end leave.Date) ([]leave.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return findActiveOverlapping(ctx, s.db, employeeID, start, end)
}

func findActiveOverlapping(ctx context.Context, q querier, employeeID string, start, end leave.Date) ([]leave.Request, error) {
	// Inclusive intersection: existingStart <= newEnd AND existingEnd >= newStart.
	rows, err := q.QueryContext(ctx,
		`SELECT `+requestColumns+` FROM leave_requests
		 WHERE employee_id = ?
		   AND status IN (?, ?)
		   AND start_date <= ? AND end_date >= ?
		 ORDER BY start_date`,
		employeeID, leave.StatusPending, leave.StatusApproved, end.String(), start.String())
	if err != nil {
		return nil, err
	}
	return scanRequests(rows)
}

func scanRequests(rows *sql.Rows) ([]leave.Request, error) {
	defer rows.Close()

	var out []leave.Request
	for rows.Next() {
		var r leave.Request
		var startDate, endDate, createdAt, updatedAt string
		var rejection, approver, approvedAt sql.NullString
		err := rows.Scan(&r.ID, &r.EmployeeID, &r.Type, &startDate, &endDate, &r.NumberOfDays,
			&r.Reason, &r.Status, &rejection, &approver, &approvedAt, &createdAt, &updatedAt)
		if err != nil {
			return nil, err
		}
		r.StartDate, _ = leave.ParseDate(startDate)
		r.EndDate, _ = leave.ParseDate(endDate)
		if rejection.Valid {
			r.RejectionReason = &rejection.String
		}
		if approver.Valid {
			r.ApproverID = &approver.String
		}
		if approvedAt.Valid {
			t := parseTime(approvedAt.String)
			r.ApprovedAt = &t
		}
		r.CreatedAt = parseTime(createdAt)
		r.UpdatedAt = parseTime(updatedAt)
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// BALANCES
// =============================================================================

func (s *Store) CreateBalance(ctx context.Context, b *leave.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return createBalance(ctx, s.db, b)
}

func createBalance(ctx context.Context, q querier, b *leave.Balance) error {
	entries, err := json.Marshal(b.Entries)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx,
		`INSERT INTO leave_balances (employee_id, entries_json, last_reset_date, version) VALUES (?, ?, ?, ?)`,
		b.EmployeeID, string(entries), b.LastResetDate.String(), b.Version,
	)
	if isUniqueConstraintError(err) {
		return leave.ErrAlreadyExists
	}
	return err
}

func (s *Store) GetBalance(ctx context.Context, employeeID string) (*leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getBalance(ctx, s.db, employeeID)
}

func getBalance(ctx context.Context, q querier, employeeID string) (*leave.Balance, error) {
	var entriesJSON, lastReset string
	b := &leave.Balance{EmployeeID: employeeID}
	err := q.QueryRowContext(ctx,
		`SELECT entries_json, last_reset_date, version FROM leave_balances WHERE employee_id = ?`,
		employeeID,
	).Scan(&entriesJSON, &lastReset, &b.Version)
	if err == sql.ErrNoRows {
		return nil, leave.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(entriesJSON), &b.Entries); err != nil {
		return nil, fmt.Errorf("corrupt balance entries for %s: %w", employeeID, err)
	}
	b.LastResetDate, _ = leave.ParseDate(lastReset)
	return b, nil
}

// SaveBalance writes the balance with an optimistic version check.
func (s *Store) SaveBalance(ctx context.Context, b *leave.Balance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveBalance(ctx, s.db, b)
}

func saveBalance(ctx context.Context, q querier, b *leave.Balance) error {
	entries, err := json.Marshal(b.Entries)
	if err != nil {
		return err
	}
	res, err := q.ExecContext(ctx, `
		UPDATE leave_balances
		SET entries_json = ?, last_reset_date = ?, version = version + 1
		WHERE employee_id = ? AND version = ?`,
		string(entries), b.LastResetDate.String(), b.EmployeeID, b.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to save balance: %w", err)
	}
	affected, _ := res.RowsAffected()
	if affected == 0 {
		// Distinguish a missing record from a version race.
		var exists int
		if err := q.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM leave_balances WHERE employee_id = ?`, b.EmployeeID,
		).Scan(&exists); err != nil {
			return err
		}
		if exists == 0 {
			return leave.ErrNotFound
		}
		return leave.ErrConcurrentModification
	}
	b.Version++
	return nil
}

func (s *Store) ListBalances(ctx context.Context) ([]*leave.Balance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT employee_id, entries_json, last_reset_date, version FROM leave_balances ORDER BY employee_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*leave.Balance
	for rows.Next() {
		b := &leave.Balance{}
		var entriesJSON, lastReset string
		if err := rows.Scan(&b.EmployeeID, &entriesJSON, &lastReset, &b.Version); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(entriesJSON), &b.Entries); err != nil {
			return nil, fmt.Errorf("corrupt balance entries for %s: %w", b.EmployeeID, err)
		}
		b.LastResetDate, _ = leave.ParseDate(lastReset)
		out = append(out, b)
	}
	return out, rows.Err()
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (s *Store) AddHoliday(ctx context.Context, h leave.Holiday) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO holidays (id, country_code, date, name, created_at) VALUES (?, ?, ?, ?, ?)`,
		h.ID, h.CountryCode, h.Date.String(), h.Name, time.Now().UTC().Format(time.RFC3339),
	)
	if isUniqueConstraintError(err) {
		return leave.ErrAlreadyExists
	}
	return err
}

func (s *Store) ListHolidays(ctx context.Context, countryCode string) ([]leave.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, country_code, date, name FROM holidays`
	args := []any{}
	if countryCode != "" {
		query += ` WHERE country_code = ?`
		args = append(args, countryCode)
	}
	query += ` ORDER BY date`

	return s.queryHolidays(ctx, query, args...)
}

func (s *Store) HolidaysForYear(ctx context.Context, countryCode string, year int) ([]leave.Holiday, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryHolidays(ctx,
		`SELECT id, country_code, date, name FROM holidays
		 WHERE country_code = ? AND date >= ? AND date <= ? ORDER BY date`,
		countryCode, fmt.Sprintf("%04d-01-01", year), fmt.Sprintf("%04d-12-31", year))
}

func (s *Store) queryHolidays(ctx context.Context, query string, args ...any) ([]leave.Holiday, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.Holiday
	for rows.Next() {
		var h leave.Holiday
		var date string
		if err := rows.Scan(&h.ID, &h.CountryCode, &date, &h.Name); err != nil {
			return nil, err
		}
		h.Date, _ = leave.ParseDate(date)
		out = append(out, h)
	}
	return out, rows.Err()
}

// =============================================================================
// SWEEP RUNS
// =============================================================================

func (s *Store) SaveSweepRun(ctx context.Context, run leave.SweepRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var completed any
	if run.CompletedAt != nil {
		completed = run.CompletedAt.UTC().Format(time.RFC3339)
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sweep_runs (id, kind, status, rejected, updated, skipped, errors, error, started_at, completed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Kind, run.Status, run.Rejected, run.Updated, run.Skipped, run.Errors,
		run.Error, run.StartedAt.UTC().Format(time.RFC3339), completed,
	)
	return err
}

func (s *Store) ListSweepRuns(ctx context.Context, kind leave.SweepKind) ([]leave.SweepRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `SELECT id, kind, status, rejected, updated, skipped, errors, error, started_at, completed_at FROM sweep_runs`
	args := []any{}
	if kind != "" {
		query += ` WHERE kind = ?`
		args = append(args, kind)
	}
	query += ` ORDER BY started_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []leave.SweepRun
	for rows.Next() {
		var run leave.SweepRun
		var errMsg, started, completed sql.NullString
		if err := rows.Scan(&run.ID, &run.Kind, &run.Status, &run.Rejected, &run.Updated,
			&run.Skipped, &run.Errors, &errMsg, &started, &completed); err != nil {
			return nil, err
		}
		run.Error = errMsg.String
		run.StartedAt = parseTime(started.String)
		if completed.Valid {
			t := parseTime(completed.String)
			run.CompletedAt = &t
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a database transaction. The store's write
// lock is held for the duration, so the transactional view skips
// per-method locking.
func (s *Store) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&txStore{tx: tx}); err != nil {
		return err
	}
	return tx.Commit()
}

// txStore is the transactional view handed to WithTx closures. The
// operations the service performs inside transactions share helpers
// with the plain store; the listing methods are not needed in
// transactions and report as unsupported.
type txStore struct {
	tx *sql.Tx
}

func (t *txStore) CreateEmployee(ctx context.Context, e leave.Employee) error {
	return createEmployee(ctx, t.tx, e)
}

func (t *txStore) GetEmployee(ctx context.Context, id string) (*leave.Employee, error) {
	return getEmployee(ctx, t.tx, id)
}

func (t *txStore) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	return nil, errUnsupportedInTx("ListEmployees")
}

func (t *txStore) CreateRequest(ctx context.Context, r *leave.Request) error {
	return createRequest(ctx, t.tx, r)
}

func (t *txStore) GetRequest(ctx context.Context, id leave.RequestID) (*leave.Request, error) {
	return getRequest(ctx, t.tx, id)
}

func (t *txStore) UpdateRequest(ctx context.Context, r *leave.Request) error {
	return updateRequest(ctx, t.tx, r)
}

func (t *txStore) ListRequestsByEmployee(ctx context.Context, employeeID string) ([]leave.Request, error) {
	return nil, errUnsupportedInTx("ListRequestsByEmployee")
}

func (t *txStore) ListRequestsByStatus(ctx context.Context, status leave.Status) ([]leave.Request, error) {
	return nil, errUnsupportedInTx("ListRequestsByStatus")
}

func (t *txStore) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time) ([]leave.Request, error) {
	return nil, errUnsupportedInTx("ListPendingCreatedBefore")
}

func (t *txStore) FindActiveOverlapping(ctx context.Context, employeeID string, start, end leave.Date) ([]leave.Request, error) {
	return findActiveOverlapping(ctx, t.tx, employeeID, start, end)
}

func (t *txStore) CreateBalance(ctx context.Context, b *leave.Balance) error {
	return createBalance(ctx, t.tx, b)
}

func (t *txStore) GetBalance(ctx context.Context, employeeID string) (*leave.Balance, error) {
	return getBalance(ctx, t.tx, employeeID)
}

func (t *txStore) SaveBalance(ctx context.Context, b *leave.Balance) error {
	return saveBalance(ctx, t.tx, b)
}

func (t *txStore) ListBalances(ctx context.Context) ([]*leave.Balance, error) {
	return nil, errUnsupportedInTx("ListBalances")
}

func (t *txStore) AddHoliday(ctx context.Context, h leave.Holiday) error {
	return errUnsupportedInTx("AddHoliday")
}

func (t *txStore) ListHolidays(ctx context.Context, countryCode string) ([]leave.Holiday, error) {
	return nil, errUnsupportedInTx("ListHolidays")
}

func (t *txStore) HolidaysForYear(ctx context.Context, countryCode string, year int) ([]leave.Holiday, error) {
	return nil, errUnsupportedInTx("HolidaysForYear")
}

func (t *txStore) SaveSweepRun(ctx context.Context, run leave.SweepRun) error {
	return errUnsupportedInTx("SaveSweepRun")
}

func (t *txStore) ListSweepRuns(ctx context.Context, kind leave.SweepKind) ([]leave.SweepRun, error) {
	return nil, errUnsupportedInTx("ListSweepRuns")
}

func errUnsupportedInTx(method string) error {
	return fmt.Errorf("%s not supported inside a transaction", method)
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
