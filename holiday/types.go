/*
Package holiday implements the holiday balance and request lifecycle engine.

PURPOSE:
  This package contains the core domain for managing employee time-off
  requests against a per-employee balance of accrued holiday hours:
  converting a date span into billable hours, guarding against overlapping
  requests, and atomically debiting/crediting the balance as requests move
  through their lifecycle.

KEY CONCEPTS IN THIS FILE (types.go):
  - Employee: the balance holder, updated copy-on-write with versioning
  - HolidayRequest: a time-off request with a three-state lifecycle
  - Status: Processing -> Accepted | Rejected
  - Role: Worker or Admin

DESIGN PRINCIPLES:
  1. Value-like entities: field changes go through With* constructors
     producing a new version, never in-place mutation
  2. Versioned writes: Employee carries a version counter so concurrent
     balance updates are detectable at the store
  3. Whole hours: balances and debits are integral hours; the audit ledger
     (ledger.go) keeps decimal deltas

SEE ALSO:
  - hours.go: date span -> billable hours
  - engine.go: request lifecycle orchestration
  - filter.go: dynamic query criteria
*/
package holiday

import "time"

// =============================================================================
// IDENTIFIERS
// =============================================================================

type EmployeeID int64
type RequestID int64

// =============================================================================
// ROLE & STATUS
// =============================================================================

type Role string

const (
	RoleWorker Role = "worker"
	RoleAdmin  Role = "admin"
)

// Status is the lifecycle state of a holiday request. Every request starts
// in StatusProcessing; StatusRejected is terminal (the debit has been
// credited back, re-opening it would double-credit the balance).
type Status string

const (
	StatusProcessing Status = "processing"
	StatusAccepted   Status = "accepted"
	StatusRejected   Status = "rejected"
)

// Valid reports whether s is one of the three known states.
func (s Status) Valid() bool {
	switch s {
	case StatusProcessing, StatusAccepted, StatusRejected:
		return true
	}
	return false
}

// =============================================================================
// EMPLOYEE - Balance holder
// =============================================================================

// Employee is the account that owns holiday requests and the hour balance
// they are billed against. The balance is mutated exclusively by the Engine.
type Employee struct {
	ID           EmployeeID
	Name         string
	Surname      string
	Username     string
	PasswordHash string
	Email        string
	Age          int
	Role         Role
	HolidayHours int64
	Enabled      bool

	// Version increments on every persisted write; stores reject a save
	// whose version does not match the stored row.
	Version   int64
	CreatedAt time.Time
}

func (e Employee) IsAdmin() bool { return e.Role == RoleAdmin }

// WithHours returns a copy with the balance shifted by delta hours.
// A negative delta debits, a positive delta credits.
func (e Employee) WithHours(delta int64) Employee {
	e.HolidayHours += delta
	return e
}

// WithPassword returns a copy with a new credential hash.
func (e Employee) WithPassword(hash string) Employee {
	e.PasswordHash = hash
	return e
}

// WithActivation returns a copy with the account enabled.
func (e Employee) WithActivation() Employee {
	e.Enabled = true
	return e
}

// WithDeactivation returns a copy with the account disabled.
func (e Employee) WithDeactivation() Employee {
	e.Enabled = false
	return e
}

// WithDelete returns a copy marked as soft-deleted: the account is disabled
// and the email is suffixed so the address can be registered again.
// Rows are never removed.
func (e Employee) WithDelete() Employee {
	e.Email += "-delete"
	e.Enabled = false
	return e
}

// WithNewEmail returns a copy with a new email address, re-enabled.
func (e Employee) WithNewEmail(email string) Employee {
	e.Email = email
	e.Enabled = true
	return e
}

// WithRoleAndHours returns a copy with an updated role and balance, enabled.
// Used by the admin update path.
func (e Employee) WithRoleAndHours(role Role, hours int64) Employee {
	e.Role = role
	e.HolidayHours = hours
	e.Enabled = true
	return e
}

// =============================================================================
// HOLIDAY REQUEST
// =============================================================================

// HolidayRequest is a time-off request for [StartDate, EndDate], owned by
// exactly one employee. Requests are never deleted; only their status moves.
type HolidayRequest struct {
	ID         RequestID
	EmployeeID EmployeeID
	StartDate  time.Time
	EndDate    time.Time
	Status     Status
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// WithStatus returns a copy with the given status.
func (r HolidayRequest) WithStatus(s Status) HolidayRequest {
	r.Status = s
	return r
}
