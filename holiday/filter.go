/*
filter.go - Dynamic query criteria for requests and employees

PURPOSE:
  Translates a sparse set of optional criteria into a conjunctive predicate.
  Each present field contributes one AND clause; absent fields contribute
  nothing, so the zero-value filter matches everything. Clauses are
  commutative - there is no ordering dependency.

  The same filters drive two query paths:
  - Matches(...) evaluates the predicate over in-memory collections
  - store/sqlite folds the present fields into WHERE clauses

  Callers must guard against the all-absent case themselves where "no
  filter" is not an acceptable default.
*/
package holiday

import "time"

// =============================================================================
// REQUEST FILTER
// =============================================================================

// RequestFilter selects holiday requests. Present fields AND together:
// StartDate bounds from below (request.StartDate >= StartDate), EndDate
// bounds from above (request.EndDate <= EndDate).
type RequestFilter struct {
	ID         *RequestID
	EmployeeID *EmployeeID
	StartDate  *time.Time
	EndDate    *time.Time
	Status     *Status
}

// Matches reports whether r satisfies every present criterion.
func (f RequestFilter) Matches(r HolidayRequest) bool {
	if f.ID != nil && r.ID != *f.ID {
		return false
	}
	if f.EmployeeID != nil && r.EmployeeID != *f.EmployeeID {
		return false
	}
	if f.StartDate != nil && r.StartDate.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && r.EndDate.After(*f.EndDate) {
		return false
	}
	if f.Status != nil && r.Status != *f.Status {
		return false
	}
	return true
}

// =============================================================================
// EMPLOYEE FILTER
// =============================================================================

// EmployeeFilter selects employees: exact match on the string fields
// (empty strings count as absent), inclusive ranges on age and balance.
type EmployeeFilter struct {
	Name     *string
	Surname  *string
	Username *string
	Email    *string
	MinAge   *int
	MaxAge   *int
	MinHours *int64
	MaxHours *int64
}

// Matches reports whether e satisfies every present criterion.
func (f EmployeeFilter) Matches(e Employee) bool {
	if present(f.Name) && e.Name != *f.Name {
		return false
	}
	if present(f.Surname) && e.Surname != *f.Surname {
		return false
	}
	if present(f.Username) && e.Username != *f.Username {
		return false
	}
	if present(f.Email) && e.Email != *f.Email {
		return false
	}
	if f.MinAge != nil && e.Age < *f.MinAge {
		return false
	}
	if f.MaxAge != nil && e.Age > *f.MaxAge {
		return false
	}
	if f.MinHours != nil && e.HolidayHours < *f.MinHours {
		return false
	}
	if f.MaxHours != nil && e.HolidayHours > *f.MaxHours {
		return false
	}
	return true
}

func present(s *string) bool { return s != nil && *s != "" }
