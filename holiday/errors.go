/*
errors.go - Centralized error types for the holiday engine

PURPOSE:
  All domain error types in one place. Callers classify with errors.Is /
  errors.As or the helper predicates at the bottom; the HTTP layer maps the
  classes onto response codes.

ERROR CATEGORIES:
  1. Lookup errors      - referenced employee/request does not exist
  2. Admission errors   - overlap, duplicate period, insufficient balance
  3. Validation errors  - malformed input, reported as a full violation list
  4. Storage conflicts  - versioned-write races, retryable
*/
package holiday

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrEmployeeNotFound is returned when a referenced employee id does not exist.
	ErrEmployeeNotFound = errors.New("employee not found")

	// ErrRequestNotFound is returned when a referenced request id does not exist.
	ErrRequestNotFound = errors.New("holiday request not found")

	// ErrHolidayOverlap is returned when a candidate interval collides with an
	// existing non-rejected request of the same employee.
	ErrHolidayOverlap = errors.New("holiday already exists")

	// ErrDuplicatePeriod is returned when another request already holds the
	// identical (start, end) pair. Enforced at schema level.
	ErrDuplicatePeriod = errors.New("holiday period already taken")

	// ErrInvalidRange is returned when start is after end. Upstream validation
	// normally catches this first; the calculator refuses it regardless.
	ErrInvalidRange = errors.New("invalid range: start after end")

	// ErrInsufficientBalance is returned when the requested hours exceed the
	// employee's available balance.
	ErrInsufficientBalance = errors.New("insufficient holiday balance")

	// ErrDailyLimitExceeded is returned for a same-day span above eight hours.
	ErrDailyLimitExceeded = errors.New("daily holiday limit exceeded")

	// ErrStatusRequired is returned when a status transition names no status.
	ErrStatusRequired = errors.New("status cannot be empty")

	// ErrRequestFinalized is returned when a transition tries to move a
	// request out of the rejected state. The rejection credit has already
	// been applied; re-opening would corrupt the balance.
	ErrRequestFinalized = errors.New("rejected request cannot change status")

	// ErrConcurrentModification is returned when a versioned write loses a
	// race. Retryable: the caller is expected to resubmit.
	ErrConcurrentModification = errors.New("concurrent modification detected")

	// ErrAlreadyExists is returned for duplicate usernames/emails at
	// registration, or a still-valid token where a fresh one was requested.
	ErrAlreadyExists = errors.New("resource already exists")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// InsufficientBalanceError reports a balance shortage with both sides of the
// comparison, so the message can tell the employee exactly what was available
// and what was asked for.
type InsufficientBalanceError struct {
	EmployeeID EmployeeID
	Available  int64
	Requested  int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("you have only %d holiday hours, you applied for %d hours",
		e.Available, e.Requested)
}

func (e *InsufficientBalanceError) Unwrap() error { return ErrInsufficientBalance }

// DailyLimitError reports a same-day span exceeding the working-day cap.
type DailyLimitError struct {
	Start time.Time
	End   time.Time
	Hours int64
}

func (e *DailyLimitError) Error() string {
	return fmt.Sprintf("wrong hours for a single-day holiday: %d hours requested, at most %d allowed",
		e.Hours, workingDayHours)
}

func (e *DailyLimitError) Unwrap() error { return ErrDailyLimitExceeded }

// =============================================================================
// VALIDATION ERRORS - Full violation list, not just the first
// =============================================================================

// Violations accumulates validation failures keyed by field.
type Violations map[string]string

func (v Violations) Add(field, message string) { v[field] = message }
func (v Violations) Empty() bool               { return len(v) == 0 }

// Err returns a ValidationError carrying all collected violations, or nil
// when nothing was violated.
func (v Violations) Err() error {
	if v.Empty() {
		return nil
	}
	return &ValidationError{Violations: v}
}

// ValidationError carries every violation found in a single validation pass,
// so one failed call reports all problems at once.
type ValidationError struct {
	Violations Violations
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Violations))
	for _, m := range e.Violations {
		msgs = append(msgs, m)
	}
	sort.Strings(msgs)
	return strings.Join(msgs, "\n")
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound reports whether err indicates a missing employee or request.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrEmployeeNotFound) || errors.Is(err, ErrRequestNotFound)
}

// IsConflict reports whether err is an admission or storage conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrHolidayOverlap) ||
		errors.Is(err, ErrDuplicatePeriod) ||
		errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrRequestFinalized) ||
		errors.Is(err, ErrAlreadyExists)
}

// IsRetryable reports whether the operation might succeed on resubmit.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}

// IsClientError reports whether err is due to invalid client input rather
// than a server-side failure.
func IsClientError(err error) bool {
	var vErr *ValidationError
	return errors.As(err, &vErr) ||
		errors.Is(err, ErrInvalidRange) ||
		errors.Is(err, ErrInsufficientBalance) ||
		errors.Is(err, ErrDailyLimitExceeded) ||
		errors.Is(err, ErrStatusRequired)
}
