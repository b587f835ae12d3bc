// Package store provides an in-memory Store implementation (tests/dev).
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/holiday-engine/holiday"
)

// =============================================================================
// MEMORY STORE - In-memory implementation of holiday.TxStore
// =============================================================================

type Memory struct {
	mu        sync.RWMutex
	employees map[holiday.EmployeeID]holiday.Employee
	requests  map[holiday.RequestID]holiday.HolidayRequest
	entries   []holiday.LedgerEntry

	nextEmployeeID holiday.EmployeeID
	nextRequestID  holiday.RequestID
	nextEntryID    int64
}

func NewMemory() *Memory {
	return &Memory{
		employees:      make(map[holiday.EmployeeID]holiday.Employee),
		requests:       make(map[holiday.RequestID]holiday.HolidayRequest),
		nextEmployeeID: 1,
		nextRequestID:  1,
		nextEntryID:    1,
	}
}

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

func (m *Memory) GetEmployee(_ context.Context, id holiday.EmployeeID) (holiday.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getEmployeeLocked(id)
}

func (m *Memory) getEmployeeLocked(id holiday.EmployeeID) (holiday.Employee, error) {
	e, ok := m.employees[id]
	if !ok {
		return holiday.Employee{}, holiday.ErrEmployeeNotFound
	}
	return e, nil
}

func (m *Memory) GetEmployeeByUsername(_ context.Context, username string) (holiday.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.employees {
		if e.Username == username {
			return e, nil
		}
	}
	return holiday.Employee{}, holiday.ErrEmployeeNotFound
}

func (m *Memory) GetEmployeeByEmail(_ context.Context, email string) (holiday.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.employees {
		if e.Email == email {
			return e, nil
		}
	}
	return holiday.Employee{}, holiday.ErrEmployeeNotFound
}

func (m *Memory) SaveEmployee(_ context.Context, e holiday.Employee) (holiday.EmployeeID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveEmployeeLocked(e)
}

func (m *Memory) saveEmployeeLocked(e holiday.Employee) (holiday.EmployeeID, error) {
	for _, other := range m.employees {
		if other.ID == e.ID {
			continue
		}
		if other.Username == e.Username || other.Email == e.Email {
			return 0, holiday.ErrAlreadyExists
		}
	}

	if e.ID == 0 {
		e.ID = m.nextEmployeeID
		m.nextEmployeeID++
		e.Version = 1
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		m.employees[e.ID] = e
		return e.ID, nil
	}

	stored, ok := m.employees[e.ID]
	if !ok {
		return 0, holiday.ErrEmployeeNotFound
	}
	if stored.Version != e.Version {
		return 0, holiday.ErrConcurrentModification
	}
	e.Version++
	m.employees[e.ID] = e
	return e.ID, nil
}

func (m *Memory) ListEmployees(_ context.Context, f holiday.EmployeeFilter) ([]holiday.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []holiday.Employee
	for _, e := range m.employees {
		if f.Matches(e) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// =============================================================================
// REQUEST STORE
// =============================================================================

func (m *Memory) GetRequest(_ context.Context, id holiday.RequestID) (holiday.HolidayRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.requests[id]
	if !ok {
		return holiday.HolidayRequest{}, holiday.ErrRequestNotFound
	}
	return r, nil
}

func (m *Memory) SaveRequest(_ context.Context, r holiday.HolidayRequest) (holiday.RequestID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.saveRequestLocked(r)
}

func (m *Memory) saveRequestLocked(r holiday.HolidayRequest) (holiday.RequestID, error) {
	// The (start, end) pair is unique across all requests, mirroring the
	// schema constraint on the holidays table.
	for _, other := range m.requests {
		if other.ID != r.ID && other.StartDate.Equal(r.StartDate) && other.EndDate.Equal(r.EndDate) {
			return 0, holiday.ErrDuplicatePeriod
		}
	}

	if r.ID == 0 {
		r.ID = m.nextRequestID
		m.nextRequestID++
	} else if _, ok := m.requests[r.ID]; !ok {
		return 0, holiday.ErrRequestNotFound
	}
	m.requests[r.ID] = r
	return r.ID, nil
}

func (m *Memory) ListRequests(_ context.Context, f holiday.RequestFilter) ([]holiday.HolidayRequest, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []holiday.HolidayRequest
	for _, r := range m.requests {
		if f.Matches(r) {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *Memory) HasOverlap(_ context.Context, employeeID holiday.EmployeeID, start, end time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.requests {
		if r.EmployeeID != employeeID || r.Status == holiday.StatusRejected {
			continue
		}
		if between(start, r.StartDate, r.EndDate) || between(end, r.StartDate, r.EndDate) {
			return true, nil
		}
	}
	return false, nil
}

// between is inclusive on both ends, matching the SQL BETWEEN the sqlite
// store uses for the same check.
func between(t, lo, hi time.Time) bool {
	return !t.Before(lo) && !t.After(hi)
}

// =============================================================================
// LEDGER STORE
// =============================================================================

func (m *Memory) AppendEntry(_ context.Context, entry holiday.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.appendEntryLocked(entry)
}

func (m *Memory) appendEntryLocked(entry holiday.LedgerEntry) error {
	entry.ID = m.nextEntryID
	m.nextEntryID++
	m.entries = append(m.entries, entry)
	return nil
}

func (m *Memory) LoadEntries(_ context.Context, employeeID holiday.EmployeeID) ([]holiday.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var result []holiday.LedgerEntry
	for _, e := range m.entries {
		if e.EmployeeID == employeeID {
			result = append(result, e)
		}
	}
	return result, nil
}

// =============================================================================
// TRANSACTIONAL VIEW - snapshot + rollback on error
// =============================================================================

// WithTx executes fn under the store lock against a view that writes
// directly; on error the pre-transaction snapshot is restored.
func (m *Memory) WithTx(ctx context.Context, fn func(holiday.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()

	if err := fn(&txView{parent: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

type memorySnapshot struct {
	employees      map[holiday.EmployeeID]holiday.Employee
	requests       map[holiday.RequestID]holiday.HolidayRequest
	entries        []holiday.LedgerEntry
	nextEmployeeID holiday.EmployeeID
	nextRequestID  holiday.RequestID
	nextEntryID    int64
}

func (m *Memory) snapshot() memorySnapshot {
	employees := make(map[holiday.EmployeeID]holiday.Employee, len(m.employees))
	for k, v := range m.employees {
		employees[k] = v
	}
	requests := make(map[holiday.RequestID]holiday.HolidayRequest, len(m.requests))
	for k, v := range m.requests {
		requests[k] = v
	}
	entries := append([]holiday.LedgerEntry{}, m.entries...)
	return memorySnapshot{
		employees:      employees,
		requests:       requests,
		entries:        entries,
		nextEmployeeID: m.nextEmployeeID,
		nextRequestID:  m.nextRequestID,
		nextEntryID:    m.nextEntryID,
	}
}

func (m *Memory) restore(s memorySnapshot) {
	m.employees = s.employees
	m.requests = s.requests
	m.entries = s.entries
	m.nextEmployeeID = s.nextEmployeeID
	m.nextRequestID = s.nextRequestID
	m.nextEntryID = s.nextEntryID
}

// txView bypasses the parent mutex (held for the whole transaction).
type txView struct {
	parent *Memory
}

func (tv *txView) GetEmployee(_ context.Context, id holiday.EmployeeID) (holiday.Employee, error) {
	return tv.parent.getEmployeeLocked(id)
}

func (tv *txView) GetEmployeeByUsername(_ context.Context, username string) (holiday.Employee, error) {
	for _, e := range tv.parent.employees {
		if e.Username == username {
			return e, nil
		}
	}
	return holiday.Employee{}, holiday.ErrEmployeeNotFound
}

func (tv *txView) GetEmployeeByEmail(_ context.Context, email string) (holiday.Employee, error) {
	for _, e := range tv.parent.employees {
		if e.Email == email {
			return e, nil
		}
	}
	return holiday.Employee{}, holiday.ErrEmployeeNotFound
}

func (tv *txView) SaveEmployee(_ context.Context, e holiday.Employee) (holiday.EmployeeID, error) {
	return tv.parent.saveEmployeeLocked(e)
}

func (tv *txView) ListEmployees(ctx context.Context, f holiday.EmployeeFilter) ([]holiday.Employee, error) {
	var result []holiday.Employee
	for _, e := range tv.parent.employees {
		if f.Matches(e) {
			result = append(result, e)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (tv *txView) GetRequest(_ context.Context, id holiday.RequestID) (holiday.HolidayRequest, error) {
	r, ok := tv.parent.requests[id]
	if !ok {
		return holiday.HolidayRequest{}, holiday.ErrRequestNotFound
	}
	return r, nil
}

func (tv *txView) SaveRequest(_ context.Context, r holiday.HolidayRequest) (holiday.RequestID, error) {
	return tv.parent.saveRequestLocked(r)
}

func (tv *txView) ListRequests(_ context.Context, f holiday.RequestFilter) ([]holiday.HolidayRequest, error) {
	var result []holiday.HolidayRequest
	for _, r := range tv.parent.requests {
		if f.Matches(r) {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (tv *txView) HasOverlap(_ context.Context, employeeID holiday.EmployeeID, start, end time.Time) (bool, error) {
	for _, r := range tv.parent.requests {
		if r.EmployeeID != employeeID || r.Status == holiday.StatusRejected {
			continue
		}
		if between(start, r.StartDate, r.EndDate) || between(end, r.StartDate, r.EndDate) {
			return true, nil
		}
	}
	return false, nil
}

func (tv *txView) AppendEntry(_ context.Context, entry holiday.LedgerEntry) error {
	return tv.parent.appendEntryLocked(entry)
}

func (tv *txView) LoadEntries(_ context.Context, employeeID holiday.EmployeeID) ([]holiday.LedgerEntry, error) {
	var result []holiday.LedgerEntry
	for _, e := range tv.parent.entries {
		if e.EmployeeID == employeeID {
			result = append(result, e)
		}
	}
	return result, nil
}
