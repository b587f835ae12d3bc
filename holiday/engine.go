/*
engine.go - Request lifecycle orchestration

PURPOSE:
  The Engine drives holiday requests through their three-state lifecycle and
  is the only code allowed to mutate an employee's hour balance.

REQUEST FLOW:

  validate input
       |
       v
  WithTx {  resolve employee
            overlap guard            -> ErrHolidayOverlap
            HoursBetween             -> ErrInvalidRange / DailyLimitError
            balance check            -> InsufficientBalanceError
            debit + versioned save   -> ErrConcurrentModification (retry)
            insert request           -> status Processing
            ledger debit entry    }

  ChangeStatus runs in the same transactional shape; a transition to
  Rejected recomputes the hours from the request's stored interval and
  credits them back atomically with the status write.

TRANSITION RULES:
  - applying the current status again is a no-op (idempotent; in particular
    a second Rejected cannot double-credit)
  - Rejected is terminal: leaving it fails with ErrRequestFinalized
  - Processing -> Accepted | Rejected and Accepted -> Rejected are allowed
*/
package holiday

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine orchestrates the request lifecycle over a transactional store.
type Engine struct {
	store TxStore
	log   *logrus.Logger
	now   func() time.Time
}

// NewEngine creates an engine over the given store.
func NewEngine(store TxStore, log *logrus.Logger) *Engine {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Engine{store: store, log: log, now: time.Now}
}

// =============================================================================
// CREATE
// =============================================================================

// CreateRequest admits a new holiday request for the employee, debits the
// balance, and persists the request in StatusProcessing. The overlap check,
// the balance check and both writes execute in one transaction; nothing is
// visible on failure.
//
// Create is deliberately not idempotent: resubmitting the same span after a
// failure is a fresh attempt, re-checked against overlap and balance.
func (en *Engine) CreateRequest(ctx context.Context, employeeID EmployeeID, start, end *time.Time) (RequestID, error) {
	if err := ValidateHolidayInput(start, end); err != nil {
		return 0, err
	}

	var requestID RequestID
	err := en.store.WithTx(ctx, func(s Store) error {
		employee, err := s.GetEmployee(ctx, employeeID)
		if err != nil {
			return err
		}

		blocked, err := s.HasOverlap(ctx, employeeID, *start, *end)
		if err != nil {
			return fmt.Errorf("overlap check failed: %w", err)
		}
		if blocked {
			return ErrHolidayOverlap
		}

		hours, err := HoursBetween(*start, *end)
		if err != nil {
			return err
		}

		if hours > employee.HolidayHours {
			return &InsufficientBalanceError{
				EmployeeID: employeeID,
				Available:  employee.HolidayHours,
				Requested:  hours,
			}
		}

		if _, err := s.SaveEmployee(ctx, employee.WithHours(-hours)); err != nil {
			return err
		}

		now := en.now()
		requestID, err = s.SaveRequest(ctx, HolidayRequest{
			EmployeeID: employeeID,
			StartDate:  *start,
			EndDate:    *end,
			Status:     StatusProcessing,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		if err != nil {
			return err
		}

		return s.AppendEntry(ctx, DebitEntry(employeeID, requestID, hours, now))
	})
	if err != nil {
		return 0, err
	}

	en.log.WithFields(logrus.Fields{
		"employee_id": employeeID,
		"request_id":  requestID,
		"start":       start.Format(time.RFC3339),
		"end":         end.Format(time.RFC3339),
	}).Info("holiday request created")

	return requestID, nil
}

// =============================================================================
// STATUS TRANSITIONS
// =============================================================================

// ChangeStatus moves a request to the given status. A transition to
// Rejected credits the original debit back to the owning employee, computed
// from the request's own stored interval; HoursBetween being pure makes this
// equal to the amount debited at creation.
func (en *Engine) ChangeStatus(ctx context.Context, id RequestID, status Status) (RequestID, error) {
	if status == "" {
		return 0, ErrStatusRequired
	}
	if !status.Valid() {
		return 0, fmt.Errorf("%w: unknown status %q", ErrStatusRequired, status)
	}

	err := en.store.WithTx(ctx, func(s Store) error {
		request, err := s.GetRequest(ctx, id)
		if err != nil {
			return err
		}

		// Re-applying the current status is a no-op; in particular a second
		// rejection must not credit the balance twice.
		if request.Status == status {
			return nil
		}
		if request.Status == StatusRejected {
			return ErrRequestFinalized
		}

		updated := request.WithStatus(status)
		updated.UpdatedAt = en.now()
		if _, err := s.SaveRequest(ctx, updated); err != nil {
			return err
		}

		if status != StatusRejected {
			return nil
		}

		hours, err := HoursBetween(request.StartDate, request.EndDate)
		if err != nil {
			return fmt.Errorf("recomputing hours for request %d: %w", id, err)
		}

		employee, err := s.GetEmployee(ctx, request.EmployeeID)
		if err != nil {
			return err
		}
		if _, err := s.SaveEmployee(ctx, employee.WithHours(hours)); err != nil {
			return err
		}

		return s.AppendEntry(ctx, CreditEntry(request.EmployeeID, id, hours, en.now()))
	})
	if err != nil {
		return 0, err
	}

	en.log.WithFields(logrus.Fields{
		"request_id": id,
		"status":     status,
	}).Info("holiday request status changed")

	return id, nil
}

// =============================================================================
// READS
// =============================================================================

// GetRequest returns a request by id.
func (en *Engine) GetRequest(ctx context.Context, id RequestID) (HolidayRequest, error) {
	return en.store.GetRequest(ctx, id)
}

// ListRequests returns all requests matching the filter. An all-absent
// filter returns every request.
func (en *Engine) ListRequests(ctx context.Context, f RequestFilter) ([]HolidayRequest, error) {
	return en.store.ListRequests(ctx, f)
}

// ListByDate returns an employee's requests bounded by the optional from/to
// dates. This is the read path behind "my holidays in a range".
func (en *Engine) ListByDate(ctx context.Context, employeeID EmployeeID, from, to *time.Time) ([]HolidayRequest, error) {
	return en.store.ListRequests(ctx, RequestFilter{
		EmployeeID: &employeeID,
		StartDate:  from,
		EndDate:    to,
	})
}

// LoadLedger returns the employee's full audit trail, oldest first.
func (en *Engine) LoadLedger(ctx context.Context, employeeID EmployeeID) ([]LedgerEntry, error) {
	return en.store.LoadEntries(ctx, employeeID)
}
