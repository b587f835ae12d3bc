/*
ledger.go - Append-only audit trail of balance mutations

PURPOSE:
  Every debit and credit the engine applies to an employee balance is also
  recorded as an immutable ledger entry. The entries are never consulted to
  compute the live balance (the users row is authoritative); they exist so
  the balance-conservation invariant can be audited after the fact:

    original balance - current balance == sum of entries, negated

  holding for every employee at all times, with rejected requests' debits
  cancelled out by their credits.

  Deltas are decimal rather than int64 so the trail survives a future move
  to fractional accrual without rewriting history.
*/
package holiday

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// LEDGER ENTRY
// =============================================================================

type EntryType string

const (
	EntryDebit  EntryType = "debit"  // hours reserved when a request is created
	EntryCredit EntryType = "credit" // hours returned when a request is rejected
)

// LedgerEntry is one immutable balance mutation. Delta is negative for
// debits and positive for credits, always tied to the request that caused it.
type LedgerEntry struct {
	ID         int64
	EmployeeID EmployeeID
	RequestID  RequestID
	Delta      decimal.Decimal
	Type       EntryType
	Reason     string
	CreatedAt  time.Time
}

// DebitEntry builds the entry recorded when hours are reserved for a request.
func DebitEntry(employeeID EmployeeID, requestID RequestID, hours int64, at time.Time) LedgerEntry {
	return LedgerEntry{
		EmployeeID: employeeID,
		RequestID:  requestID,
		Delta:      decimal.NewFromInt(hours).Neg(),
		Type:       EntryDebit,
		Reason:     "holiday request created",
		CreatedAt:  at,
	}
}

// CreditEntry builds the entry recorded when a rejection returns hours.
func CreditEntry(employeeID EmployeeID, requestID RequestID, hours int64, at time.Time) LedgerEntry {
	return LedgerEntry{
		EmployeeID: employeeID,
		RequestID:  requestID,
		Delta:      decimal.NewFromInt(hours),
		Type:       EntryCredit,
		Reason:     "holiday request rejected",
		CreatedAt:  at,
	}
}

// LedgerBalance folds all deltas. Applied to one employee's entries it
// yields current balance minus original balance.
func LedgerBalance(entries []LedgerEntry) decimal.Decimal {
	sum := decimal.Zero
	for _, e := range entries {
		sum = sum.Add(e.Delta)
	}
	return sum
}
