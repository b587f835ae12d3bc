/*
store.go - Persistence interfaces for the holiday engine

PURPOSE:
  Defines the boundary between domain logic and the database. Two
  implementations exist: store/sqlite (production) and holiday/store
  (in-memory, for tests and dev).

VERSIONED WRITES:
  SaveEmployee performs a compare-and-swap on the employee's version column.
  A write whose version no longer matches the stored row fails with
  ErrConcurrentModification, which callers treat as retryable. This is what
  keeps two concurrent creates from both passing the balance check against
  a stale balance.

TRANSACTIONS:
  TxStore.WithTx executes a function against a transactional view of the
  store. The engine runs each create/change-status operation entirely inside
  WithTx so that the overlap read, the balance read, and both writes happen
  at one snapshot with no partial writes visible on failure.
*/
package holiday

import (
	"context"
	"time"
)

// =============================================================================
// EMPLOYEE STORE
// =============================================================================

type EmployeeStore interface {
	// GetEmployee returns the employee or ErrEmployeeNotFound.
	GetEmployee(ctx context.Context, id EmployeeID) (Employee, error)

	// GetEmployeeByUsername returns the employee or ErrEmployeeNotFound.
	GetEmployeeByUsername(ctx context.Context, username string) (Employee, error)

	// GetEmployeeByEmail returns the employee or ErrEmployeeNotFound.
	GetEmployeeByEmail(ctx context.Context, email string) (Employee, error)

	// SaveEmployee inserts (ID zero) or updates (ID set) an employee and
	// returns the persisted id. Updates are version-checked: a stale version
	// fails with ErrConcurrentModification; a duplicate username or email
	// fails with ErrAlreadyExists.
	SaveEmployee(ctx context.Context, e Employee) (EmployeeID, error)

	// ListEmployees returns employees matching the filter, every employee
	// for the zero-value filter.
	ListEmployees(ctx context.Context, f EmployeeFilter) ([]Employee, error)
}

// =============================================================================
// REQUEST STORE
// =============================================================================

type RequestStore interface {
	// GetRequest returns the request or ErrRequestNotFound.
	GetRequest(ctx context.Context, id RequestID) (HolidayRequest, error)

	// SaveRequest inserts (ID zero) or updates (ID set) a request and returns
	// the persisted id. An insert colliding on the (start, end) uniqueness
	// constraint fails with ErrDuplicatePeriod.
	SaveRequest(ctx context.Context, r HolidayRequest) (RequestID, error)

	// ListRequests returns requests matching the filter.
	ListRequests(ctx context.Context, f RequestFilter) ([]HolidayRequest, error)

	// HasOverlap is the overlap guard: it reports whether any non-rejected
	// request of the employee has the candidate start OR end falling inside
	// its own [start, end], boundaries included. Read-only.
	HasOverlap(ctx context.Context, employeeID EmployeeID, start, end time.Time) (bool, error)
}

// =============================================================================
// LEDGER STORE - append-only audit trail of debits and credits
// =============================================================================

type LedgerStore interface {
	// AppendEntry records a balance mutation. Append-only: no update, no
	// delete; a credit reverses a debit instead.
	AppendEntry(ctx context.Context, entry LedgerEntry) error

	// LoadEntries returns all entries for an employee, oldest first.
	LoadEntries(ctx context.Context, employeeID EmployeeID) ([]LedgerEntry, error)
}

// =============================================================================
// COMPOSED STORE
// =============================================================================

// Store is the full persistence surface the engine operates on.
type Store interface {
	EmployeeStore
	RequestStore
	LedgerStore
}

// TxStore extends Store with transactional execution.
type TxStore interface {
	Store

	// WithTx executes fn against a transactional view. fn returning an error
	// rolls everything back; nil commits.
	WithTx(ctx context.Context, fn func(Store) error) error
}
