package sqlite_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/holiday-engine/auth"
	"github.com/warp/holiday-engine/holiday"
	"github.com/warp/holiday-engine/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedEmployee(t *testing.T, s *sqlite.Store, username, email string, hours int64) holiday.EmployeeID {
	t.Helper()
	id, err := s.SaveEmployee(context.Background(), holiday.Employee{
		Name: "Jane", Surname: "Doe", Username: username, PasswordHash: "x",
		Email: email, Age: 30, Role: holiday.RoleWorker, HolidayHours: hours,
		Enabled: true, CreatedAt: time.Now(),
	})
	require.NoError(t, err)
	return id
}

func seedRequest(t *testing.T, s *sqlite.Store, empID holiday.EmployeeID, startDay, endDay int, status holiday.Status) holiday.RequestID {
	t.Helper()
	now := time.Now()
	id, err := s.SaveRequest(context.Background(), holiday.HolidayRequest{
		EmployeeID: empID,
		StartDate:  date(startDay),
		EndDate:    date(endDay),
		Status:     status,
		CreatedAt:  now,
		UpdatedAt:  now,
	})
	require.NoError(t, err)
	return id
}

func date(d int) time.Time {
	return time.Date(2025, time.June, d, 0, 0, 0, 0, time.UTC)
}

// =============================================================================
// EMPLOYEES
// =============================================================================

func TestStore_EmployeeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	id := seedEmployee(t, s, "jane", "jane@example.com", 40)

	e, err := s.GetEmployee(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "jane", e.Username)
	assert.Equal(t, int64(40), e.HolidayHours)
	assert.Equal(t, int64(1), e.Version)
	assert.True(t, e.Enabled)

	byUsername, err := s.GetEmployeeByUsername(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, id, byUsername.ID)

	byEmail, err := s.GetEmployeeByEmail(ctx, "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, byEmail.ID)
}

func TestStore_UnknownEmployee_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetEmployee(context.Background(), 99)
	assert.ErrorIs(t, err, holiday.ErrEmployeeNotFound)
}

func TestStore_DuplicateUsername_AlreadyExists(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	seedEmployee(t, s, "jane", "jane@example.com", 40)

	_, err := s.SaveEmployee(ctx, holiday.Employee{
		Name: "Other", Surname: "Doe", Username: "jane", PasswordHash: "x",
		Email: "other@example.com", Age: 30, Role: holiday.RoleWorker,
		CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, holiday.ErrAlreadyExists)
}

func TestStore_StaleVersionUpdate_ConcurrentModification(t *testing.T) {
	// GIVEN: Two snapshots of the same row
	// WHEN: Both are written back
	// THEN: The compare-and-swap on version rejects the second writer

	ctx := context.Background()
	s := newTestStore(t)

	id := seedEmployee(t, s, "jane", "jane@example.com", 40)

	first, err := s.GetEmployee(ctx, id)
	require.NoError(t, err)
	second, err := s.GetEmployee(ctx, id)
	require.NoError(t, err)

	_, err = s.SaveEmployee(ctx, first.WithHours(-8))
	require.NoError(t, err)

	_, err = s.SaveEmployee(ctx, second.WithHours(-16))
	assert.ErrorIs(t, err, holiday.ErrConcurrentModification)

	e, err := s.GetEmployee(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(32), e.HolidayHours, "only the first write lands")
	assert.Equal(t, int64(2), e.Version)
}

func TestStore_ListEmployees_FilterFolding(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	seedEmployee(t, s, "jane", "jane@example.com", 40)
	seedEmployee(t, s, "john", "john@example.com", 120)

	all, err := s.ListEmployees(ctx, holiday.EmployeeFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	min := int64(100)
	rich, err := s.ListEmployees(ctx, holiday.EmployeeFilter{MinHours: &min})
	require.NoError(t, err)
	require.Len(t, rich, 1)
	assert.Equal(t, "john", rich[0].Username)

	username := "jane"
	named, err := s.ListEmployees(ctx, holiday.EmployeeFilter{Username: &username})
	require.NoError(t, err)
	require.Len(t, named, 1)
	assert.Equal(t, "jane", named[0].Username)
}

// =============================================================================
// REQUESTS
// =============================================================================

func TestStore_DuplicatePeriod_RejectedAcrossEmployees(t *testing.T) {
	// The (start_date, end_date) uniqueness is global, not per employee.

	s := newTestStore(t)
	jane := seedEmployee(t, s, "jane", "jane@example.com", 40)
	john := seedEmployee(t, s, "john", "john@example.com", 40)

	seedRequest(t, s, jane, 2, 6, holiday.StatusProcessing)

	now := time.Now()
	_, err := s.SaveRequest(context.Background(), holiday.HolidayRequest{
		EmployeeID: john, StartDate: date(2), EndDate: date(6),
		Status: holiday.StatusProcessing, CreatedAt: now, UpdatedAt: now,
	})
	assert.ErrorIs(t, err, holiday.ErrDuplicatePeriod)
}

func TestStore_RequestStatusUpdate(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	jane := seedEmployee(t, s, "jane", "jane@example.com", 40)

	id := seedRequest(t, s, jane, 2, 6, holiday.StatusProcessing)

	r, err := s.GetRequest(ctx, id)
	require.NoError(t, err)

	updated := r.WithStatus(holiday.StatusAccepted)
	updated.UpdatedAt = time.Now()
	_, err = s.SaveRequest(ctx, updated)
	require.NoError(t, err)

	r, err = s.GetRequest(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, holiday.StatusAccepted, r.Status)
}

func TestStore_HasOverlap_BetweenSemantics(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	jane := seedEmployee(t, s, "jane", "jane@example.com", 40)

	seedRequest(t, s, jane, 2, 6, holiday.StatusProcessing)

	cases := []struct {
		name       string
		start, end time.Time
		want       bool
	}{
		{"inside", date(3), date(5), true},
		{"start on boundary", date(6), date(10), true},
		{"end on boundary", date(1), date(2), true},
		{"disjoint", date(10), date(12), false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.HasOverlap(ctx, jane, tc.start, tc.end)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestStore_HasOverlap_RejectedExcluded(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	jane := seedEmployee(t, s, "jane", "jane@example.com", 40)

	seedRequest(t, s, jane, 2, 6, holiday.StatusRejected)

	got, err := s.HasOverlap(ctx, jane, date(3), date(5))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestStore_ListRequests_DateAndStatusClauses(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	jane := seedEmployee(t, s, "jane", "jane@example.com", 40)

	early := seedRequest(t, s, jane, 2, 6, holiday.StatusAccepted)
	late := seedRequest(t, s, jane, 16, 20, holiday.StatusProcessing)

	from := date(10)
	laterOnly, err := s.ListRequests(ctx, holiday.RequestFilter{StartDate: &from})
	require.NoError(t, err)
	require.Len(t, laterOnly, 1)
	assert.Equal(t, late, laterOnly[0].ID)

	status := holiday.StatusAccepted
	accepted, err := s.ListRequests(ctx, holiday.RequestFilter{Status: &status})
	require.NoError(t, err)
	require.Len(t, accepted, 1)
	assert.Equal(t, early, accepted[0].ID)
}

// =============================================================================
// LEDGER
// =============================================================================

func TestStore_LedgerAppendAndFold(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	jane := seedEmployee(t, s, "jane", "jane@example.com", 40)

	now := time.Now()
	require.NoError(t, s.AppendEntry(ctx, holiday.DebitEntry(jane, 1, 32, now)))
	require.NoError(t, s.AppendEntry(ctx, holiday.CreditEntry(jane, 1, 32, now)))

	entries, err := s.LoadEntries(ctx, jane)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, holiday.EntryDebit, entries[0].Type)
	assert.Equal(t, holiday.EntryCredit, entries[1].Type)
	assert.True(t, holiday.LedgerBalance(entries).IsZero())
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

func TestStore_WithTx_RollsBackOnError(t *testing.T) {
	// GIVEN: A transaction debiting an employee and inserting a request
	// WHEN: The callback fails afterwards
	// THEN: Neither write is visible

	ctx := context.Background()
	s := newTestStore(t)
	jane := seedEmployee(t, s, "jane", "jane@example.com", 40)

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx holiday.Store) error {
		e, err := tx.GetEmployee(ctx, jane)
		if err != nil {
			return err
		}
		if _, err := tx.SaveEmployee(ctx, e.WithHours(-8)); err != nil {
			return err
		}
		now := time.Now()
		if _, err := tx.SaveRequest(ctx, holiday.HolidayRequest{
			EmployeeID: jane, StartDate: date(2), EndDate: date(6),
			Status: holiday.StatusProcessing, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	e, err := s.GetEmployee(ctx, jane)
	require.NoError(t, err)
	assert.Equal(t, int64(40), e.HolidayHours)

	requests, err := s.ListRequests(ctx, holiday.RequestFilter{})
	require.NoError(t, err)
	assert.Empty(t, requests)
}

func TestStore_WithTx_ReadsSeeUncommittedWrites(t *testing.T) {
	// The overlap guard runs in the same transaction as the insert; writes
	// must be visible to subsequent reads inside the callback.

	ctx := context.Background()
	s := newTestStore(t)
	jane := seedEmployee(t, s, "jane", "jane@example.com", 40)

	err := s.WithTx(ctx, func(tx holiday.Store) error {
		now := time.Now()
		if _, err := tx.SaveRequest(ctx, holiday.HolidayRequest{
			EmployeeID: jane, StartDate: date(2), EndDate: date(6),
			Status: holiday.StatusProcessing, CreatedAt: now, UpdatedAt: now,
		}); err != nil {
			return err
		}

		blocked, err := tx.HasOverlap(ctx, jane, date(3), date(5))
		if err != nil {
			return err
		}
		assert.True(t, blocked)
		return nil
	})
	require.NoError(t, err)
}

// =============================================================================
// TOKENS
// =============================================================================

func TestStore_TokenRoundTripAndReplacement(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	jane := seedEmployee(t, s, "jane", "jane@example.com", 40)

	first := auth.NewVerificationToken(jane, auth.PurposeActivation, time.Hour)
	require.NoError(t, s.SaveToken(ctx, first))

	got, err := s.GetToken(ctx, first.Token)
	require.NoError(t, err)
	assert.Equal(t, jane, got.EmployeeID)
	assert.Equal(t, auth.PurposeActivation, got.Purpose)

	// Saving a second activation token replaces the first.
	second := auth.NewVerificationToken(jane, auth.PurposeActivation, time.Hour)
	require.NoError(t, s.SaveToken(ctx, second))

	_, err = s.GetToken(ctx, first.Token)
	assert.ErrorIs(t, err, auth.ErrTokenNotFound)

	byPurpose, err := s.GetTokenForEmployee(ctx, jane, auth.PurposeActivation)
	require.NoError(t, err)
	assert.Equal(t, second.Token, byPurpose.Token)
}

func TestStore_DeleteExpiredTokens(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	jane := seedEmployee(t, s, "jane", "jane@example.com", 40)
	john := seedEmployee(t, s, "john", "john@example.com", 40)

	expired := auth.NewVerificationToken(jane, auth.PurposeActivation, -time.Hour)
	live := auth.NewVerificationToken(john, auth.PurposeRecovery, time.Hour)
	require.NoError(t, s.SaveToken(ctx, expired))
	require.NoError(t, s.SaveToken(ctx, live))

	swept, err := s.DeleteExpiredTokens(ctx, time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(1), swept)

	_, err = s.GetToken(ctx, expired.Token)
	assert.ErrorIs(t, err, auth.ErrTokenNotFound)
	_, err = s.GetToken(ctx, live.Token)
	assert.NoError(t, err)
}
