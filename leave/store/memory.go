// Package store provides an in-memory leave.Store implementation for
// testing and development.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/leave-engine/leave"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	employees map[string]leave.Employee
	requests  map[leave.RequestID]*leave.Request
	balances  map[string]*leave.Balance
	holidays  []leave.Holiday
	runs      []leave.SweepRun
}

func NewMemory() *Memory {
	return &Memory{
		employees: make(map[string]leave.Employee),
		requests:  make(map[leave.RequestID]*leave.Request),
		balances:  make(map[string]*leave.Balance),
	}
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func (m *Memory) CreateEmployee(_ context.Context, e leave.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.employees[e.ID]; exists {
		return leave.ErrAlreadyExists
	}
	m.employees[e.ID] = e
	return nil
}

func (m *Memory) GetEmployee(_ context.Context, id string) (*leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.employees[id]
	if !ok {
		return nil, leave.ErrNotFound
	}
	return &e, nil
}

func (m *Memory) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]leave.Employee, 0, len(m.employees))
	for _, e := range m.employees {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// =============================================================================
// LEAVE REQUESTS
// =============================================================================

func (m *Memory) CreateRequest(_ context.Context, r *leave.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.requests[r.ID]; exists {
		return leave.ErrAlreadyExists
	}
	m.requests[r.ID] = cloneRequest(r)
	return nil
}

func (m *Memory) GetRequest(_ context.Context, id leave.RequestID) (*leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	if !ok {
		return nil, leave.ErrNotFound
	}
	return cloneRequest(r), nil
}

func (m *Memory) UpdateRequest(_ context.Context, r *leave.Request) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.requests[r.ID]; !ok {
		return leave.ErrNotFound
	}
	m.requests[r.ID] = cloneRequest(r)
	return nil
}

func (m *Memory) ListRequestsByEmployee(_ context.Context, employeeID string) ([]leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.Request
	for _, r := range m.requests {
		if r.EmployeeID == employeeID {
			out = append(out, *cloneRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListRequestsByStatus(_ context.Context, status leave.Status) ([]leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.Request
	for _, r := range m.requests {
		if r.Status == status {
			out = append(out, *cloneRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) ListPendingCreatedBefore(_ context.Context, cutoff time.Time) ([]leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.Request
	for _, r := range m.requests {
		if r.Status == leave.StatusPending && r.CreatedAt.Before(cutoff) {
			out = append(out, *cloneRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *Memory) FindActiveOverlapping(_ context.Context, employeeID string, start, end leave.Date) ([]leave.Request, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.Request
	for _, r := range m.requests {
		if r.EmployeeID != employeeID {
			continue
		}
		if r.Status != leave.StatusPending && r.Status != leave.StatusApproved {
			continue
		}
		// Inclusive intersection test.
		if r.StartDate.BeforeOrEqual(end) && r.EndDate.AfterOrEqual(start) {
			out = append(out, *cloneRequest(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

// =============================================================================
// BALANCES
// =============================================================================

func (m *Memory) CreateBalance(_ context.Context, b *leave.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.balances[b.EmployeeID]; exists {
		return leave.ErrAlreadyExists
	}
	m.balances[b.EmployeeID] = cloneBalance(b)
	return nil
}

func (m *Memory) GetBalance(_ context.Context, employeeID string) (*leave.Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.balances[employeeID]
	if !ok {
		return nil, leave.ErrNotFound
	}
	return cloneBalance(b), nil
}

// SaveBalance is an optimistic-locked write: the in-flight record must
// carry the stored version, and the version increments on success.
func (m *Memory) SaveBalance(_ context.Context, b *leave.Balance) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, ok := m.balances[b.EmployeeID]
	if !ok {
		return leave.ErrNotFound
	}
	if current.Version != b.Version {
		return leave.ErrConcurrentModification
	}
	b.Version++
	m.balances[b.EmployeeID] = cloneBalance(b)
	return nil
}

func (m *Memory) ListBalances(_ context.Context) ([]*leave.Balance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*leave.Balance, 0, len(m.balances))
	for _, b := range m.balances {
		out = append(out, cloneBalance(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeID < out[j].EmployeeID })
	return out, nil
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func (m *Memory) AddHoliday(_ context.Context, h leave.Holiday) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.holidays {
		if existing.CountryCode == h.CountryCode && existing.Date.Equal(h.Date) && existing.Name == h.Name {
			return leave.ErrAlreadyExists
		}
	}
	m.holidays = append(m.holidays, h)
	return nil
}

func (m *Memory) ListHolidays(_ context.Context, countryCode string) ([]leave.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.Holiday
	for _, h := range m.holidays {
		if countryCode == "" || h.CountryCode == countryCode {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (m *Memory) HolidaysForYear(_ context.Context, countryCode string, year int) ([]leave.Holiday, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.Holiday
	for _, h := range m.holidays {
		if h.CountryCode == countryCode && h.Date.Year() == year {
			out = append(out, h)
		}
	}
	return out, nil
}

// =============================================================================
// SWEEP RUNS
// =============================================================================

func (m *Memory) SaveSweepRun(_ context.Context, run leave.SweepRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *Memory) ListSweepRuns(_ context.Context, kind leave.SweepKind) ([]leave.SweepRun, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []leave.SweepRun
	for _, r := range m.runs {
		if kind == "" || r.Kind == kind {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.After(out[j].StartedAt) })
	return out, nil
}

// =============================================================================
// TRANSACTIONAL MEMORY STORE
// =============================================================================

// TxMemory wraps Memory with transaction support via snapshot + restore.
type TxMemory struct {
	*Memory
	txMu sync.Mutex
}

func NewTxMemory() *TxMemory {
	return &TxMemory{Memory: NewMemory()}
}

// WithTx executes fn against the store. On error the pre-transaction state
// is restored, giving all-or-nothing semantics.
func (tm *TxMemory) WithTx(ctx context.Context, fn func(leave.Store) error) error {
	tm.txMu.Lock()
	defer tm.txMu.Unlock()

	snapshot := tm.snapshot()
	if err := fn(tm.Memory); err != nil {
		tm.restore(snapshot)
		return err
	}
	return nil
}

type memorySnapshot struct {
	employees map[string]leave.Employee
	requests  map[leave.RequestID]*leave.Request
	balances  map[string]*leave.Balance
	holidays  []leave.Holiday
	runs      []leave.SweepRun
}

func (tm *TxMemory) snapshot() memorySnapshot {
	tm.mu.RLock()
	defer tm.mu.RUnlock()

	s := memorySnapshot{
		employees: make(map[string]leave.Employee, len(tm.employees)),
		requests:  make(map[leave.RequestID]*leave.Request, len(tm.requests)),
		balances:  make(map[string]*leave.Balance, len(tm.balances)),
		holidays:  append([]leave.Holiday{}, tm.holidays...),
		runs:      append([]leave.SweepRun{}, tm.runs...),
	}
	for k, v := range tm.employees {
		s.employees[k] = v
	}
	for k, v := range tm.requests {
		s.requests[k] = cloneRequest(v)
	}
	for k, v := range tm.balances {
		s.balances[k] = cloneBalance(v)
	}
	return s
}

func (tm *TxMemory) restore(s memorySnapshot) {
	tm.mu.Lock()
	defer tm.mu.Unlock()
	tm.employees = s.employees
	tm.requests = s.requests
	tm.balances = s.balances
	tm.holidays = s.holidays
	tm.runs = s.runs
}

// =============================================================================
// CLONE HELPERS - Keep callers from aliasing stored state
// =============================================================================

func cloneRequest(r *leave.Request) *leave.Request {
	cp := *r
	cp.History = append([]leave.StatusChange{}, r.History...)
	if r.RejectionReason != nil {
		v := *r.RejectionReason
		cp.RejectionReason = &v
	}
	if r.ApproverID != nil {
		v := *r.ApproverID
		cp.ApproverID = &v
	}
	if r.ApprovedAt != nil {
		v := *r.ApprovedAt
		cp.ApprovedAt = &v
	}
	return &cp
}

func cloneBalance(b *leave.Balance) *leave.Balance {
	cp := *b
	cp.Entries = make(map[leave.Type]leave.Entry, len(b.Entries))
	for t, e := range b.Entries {
		cp.Entries[t] = e
	}
	return &cp
}
