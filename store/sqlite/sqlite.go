/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Implements all persistence interfaces using SQLite. In production, the
  same patterns apply to PostgreSQL - only minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  holiday.TxStore: employees, holiday requests, balance ledger, transactions
  auth.TokenStore: activation and password-recovery tokens

KEY TABLES:
  users:               Employee accounts with balance, role and row version
  holidays:            Holiday requests, globally unique (start, end) pair
  ledger_entries:      Append-only audit trail of balance debits and credits
  verification_tokens: Activation / recovery tokens, one per user and purpose

APPEND-ONLY ENFORCEMENT:
  ledger_entries is append-only: the only statement touching it besides
  SELECT is INSERT. Balance corrections appear as compensating credits.

INDEXES:
  - idx_holidays_unique_period: Enforces global (start, end) uniqueness
  - idx_holidays_user_span:     Overlap guard (hot path)
  - idx_ledger_user:            Ledger reads per employee

CONCURRENCY:
  Employee rows carry a version column; updates are compare-and-swap and a
  lost race surfaces as holiday.ErrConcurrentModification (retryable).
  A sync.RWMutex serializes writers, matching SQLite's single-writer model.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) for better concurrency:
  - Multiple readers don't block
  - Single writer at a time
  - Better crash recovery

TIMESTAMPS:
  Stored as RFC3339 UTC text. RFC3339 UTC sorts lexically, which the
  overlap BETWEEN query and the filter range clauses rely on.

USAGE:
  store, err := sqlite.New("./data/holiday.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := holiday.NewEngine(store, logger)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - holiday/store.go: Interface definitions
  - holiday/engine.go: Request lifecycle using TxStore
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/warp/holiday-engine/auth"
	"github.com/warp/holiday-engine/holiday"
)

// ===== STORE TYPE =====

// Store implements all storage interfaces using SQLite.
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

// ===== SCHEMA =====

func (s *Store) migrate() error {
	schema := `
	-- Employee accounts (balance holders)
	CREATE TABLE IF NOT EXISTS users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		surname TEXT NOT NULL,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		age INTEGER NOT NULL,
		role TEXT NOT NULL,
		holiday_hours INTEGER NOT NULL DEFAULT 0,
		enabled BOOLEAN NOT NULL DEFAULT FALSE,
		version INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);

	-- Holiday requests
	CREATE TABLE IF NOT EXISTS holidays (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL REFERENCES users(id),
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- No two requests may share an identical (start, end) pair,
	-- regardless of employee.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_unique_period
		ON holidays(start_date, end_date);

	CREATE INDEX IF NOT EXISTS idx_holidays_user_span
		ON holidays(user_id, start_date, end_date);
	CREATE INDEX IF NOT EXISTS idx_holidays_status
		ON holidays(status);

	-- Append-only ledger of balance mutations
	CREATE TABLE IF NOT EXISTS ledger_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id INTEGER NOT NULL,
		request_id INTEGER NOT NULL,
		delta TEXT NOT NULL,
		entry_type TEXT NOT NULL,
		reason TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_user
		ON ledger_entries(user_id);

	-- Activation / recovery tokens
	CREATE TABLE IF NOT EXISTS verification_tokens (
		token TEXT PRIMARY KEY,
		user_id INTEGER NOT NULL,
		purpose TEXT NOT NULL,
		expires_at TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_tokens_user_purpose
		ON verification_tokens(user_id, purpose);
	`

	_, err := s.db.Exec(schema)
	return err
}

// dbtx is satisfied by both *sql.DB and *sql.Tx.
type dbtx interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func formatTime(t time.Time) string { return t.UTC().Format(time.RFC3339) }

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

// ===== EMPLOYEE STORE =====

const employeeColumns = `id, name, surname, username, password_hash, email, age, role, holiday_hours, enabled, version, created_at`

// GetEmployee returns the employee or holiday.ErrEmployeeNotFound.
func (s *Store) GetEmployee(ctx context.Context, id holiday.EmployeeID) (holiday.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEmployee(ctx, s.db, "id = ?", int64(id))
}

// GetEmployeeByUsername returns the employee or holiday.ErrEmployeeNotFound.
func (s *Store) GetEmployeeByUsername(ctx context.Context, username string) (holiday.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEmployee(ctx, s.db, "username = ?", username)
}

// GetEmployeeByEmail returns the employee or holiday.ErrEmployeeNotFound.
func (s *Store) GetEmployeeByEmail(ctx context.Context, email string) (holiday.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getEmployee(ctx, s.db, "email = ?", email)
}

func (s *Store) getEmployee(ctx context.Context, db dbtx, where string, arg any) (holiday.Employee, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+employeeColumns+" FROM users WHERE "+where, arg)

	var (
		e         holiday.Employee
		createdAt string
	)
	err := row.Scan(&e.ID, &e.Name, &e.Surname, &e.Username, &e.PasswordHash,
		&e.Email, &e.Age, &e.Role, &e.HolidayHours, &e.Enabled, &e.Version, &createdAt)
	if err == sql.ErrNoRows {
		return holiday.Employee{}, holiday.ErrEmployeeNotFound
	}
	if err != nil {
		return holiday.Employee{}, fmt.Errorf("failed to scan employee: %w", err)
	}
	e.CreatedAt = parseTime(createdAt)
	return e, nil
}

// SaveEmployee inserts (ID zero) or updates (ID set) an employee.
// Updates are compare-and-swap on the version column.
func (s *Store) SaveEmployee(ctx context.Context, e holiday.Employee) (holiday.EmployeeID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveEmployee(ctx, s.db, e)
}

func (s *Store) saveEmployee(ctx context.Context, db dbtx, e holiday.Employee) (holiday.EmployeeID, error) {
	if e.ID == 0 {
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		res, err := db.ExecContext(ctx, `
			INSERT INTO users (name, surname, username, password_hash, email, age, role, holiday_hours, enabled, version, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 1, ?)`,
			e.Name, e.Surname, e.Username, e.PasswordHash, e.Email, e.Age,
			string(e.Role), e.HolidayHours, e.Enabled, formatTime(e.CreatedAt),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return 0, holiday.ErrAlreadyExists
			}
			return 0, fmt.Errorf("failed to insert employee: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		return holiday.EmployeeID(id), nil
	}

	res, err := db.ExecContext(ctx, `
		UPDATE users
		SET name = ?, surname = ?, username = ?, password_hash = ?, email = ?,
		    age = ?, role = ?, holiday_hours = ?, enabled = ?, version = version + 1
		WHERE id = ? AND version = ?`,
		e.Name, e.Surname, e.Username, e.PasswordHash, e.Email, e.Age,
		string(e.Role), e.HolidayHours, e.Enabled, int64(e.ID), e.Version,
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return 0, holiday.ErrAlreadyExists
		}
		return 0, fmt.Errorf("failed to update employee: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		// Either the row is gone or another writer bumped the version.
		var count int
		if err := db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM users WHERE id = ?", int64(e.ID)).Scan(&count); err != nil {
			return 0, err
		}
		if count == 0 {
			return 0, holiday.ErrEmployeeNotFound
		}
		return 0, holiday.ErrConcurrentModification
	}
	return e.ID, nil
}

// ListEmployees returns employees matching the filter. A zero-value filter
// matches every row.
func (s *Store) ListEmployees(ctx context.Context, f holiday.EmployeeFilter) ([]holiday.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listEmployees(ctx, s.db, f)
}

func (s *Store) listEmployees(ctx context.Context, db dbtx, f holiday.EmployeeFilter) ([]holiday.Employee, error) {
	query := "SELECT " + employeeColumns + " FROM users"

	var clauses []string
	var args []any
	addStr := func(column string, v *string) {
		if v != nil && *v != "" {
			clauses = append(clauses, column+" = ?")
			args = append(args, *v)
		}
	}
	addStr("name", f.Name)
	addStr("surname", f.Surname)
	addStr("username", f.Username)
	addStr("email", f.Email)
	if f.MinAge != nil {
		clauses = append(clauses, "age >= ?")
		args = append(args, *f.MinAge)
	}
	if f.MaxAge != nil {
		clauses = append(clauses, "age <= ?")
		args = append(args, *f.MaxAge)
	}
	if f.MinHours != nil {
		clauses = append(clauses, "holiday_hours >= ?")
		args = append(args, *f.MinHours)
	}
	if f.MaxHours != nil {
		clauses = append(clauses, "holiday_hours <= ?")
		args = append(args, *f.MaxHours)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query employees: %w", err)
	}
	defer rows.Close()

	var employees []holiday.Employee
	for rows.Next() {
		var (
			e         holiday.Employee
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.Name, &e.Surname, &e.Username, &e.PasswordHash,
			&e.Email, &e.Age, &e.Role, &e.HolidayHours, &e.Enabled, &e.Version, &createdAt); err != nil {
			return nil, err
		}
		e.CreatedAt = parseTime(createdAt)
		employees = append(employees, e)
	}
	return employees, rows.Err()
}

// ===== REQUEST STORE =====

const requestColumns = `id, user_id, start_date, end_date, status, created_at, updated_at`

// GetRequest returns the request or holiday.ErrRequestNotFound.
func (s *Store) GetRequest(ctx context.Context, id holiday.RequestID) (holiday.HolidayRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getRequest(ctx, s.db, id)
}

func (s *Store) getRequest(ctx context.Context, db dbtx, id holiday.RequestID) (holiday.HolidayRequest, error) {
	row := db.QueryRowContext(ctx,
		"SELECT "+requestColumns+" FROM holidays WHERE id = ?", int64(id))

	var (
		r                    holiday.HolidayRequest
		startDate, endDate   string
		createdAt, updatedAt string
	)
	err := row.Scan(&r.ID, &r.EmployeeID, &startDate, &endDate, &r.Status, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return holiday.HolidayRequest{}, holiday.ErrRequestNotFound
	}
	if err != nil {
		return holiday.HolidayRequest{}, fmt.Errorf("failed to scan request: %w", err)
	}
	r.StartDate = parseTime(startDate)
	r.EndDate = parseTime(endDate)
	r.CreatedAt = parseTime(createdAt)
	r.UpdatedAt = parseTime(updatedAt)
	return r, nil
}

// SaveRequest inserts (ID zero) or updates (ID set) a request. Inserts
// colliding on the (start_date, end_date) index fail with
// holiday.ErrDuplicatePeriod.
func (s *Store) SaveRequest(ctx context.Context, r holiday.HolidayRequest) (holiday.RequestID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveRequest(ctx, s.db, r)
}

func (s *Store) saveRequest(ctx context.Context, db dbtx, r holiday.HolidayRequest) (holiday.RequestID, error) {
	if r.ID == 0 {
		res, err := db.ExecContext(ctx, `
			INSERT INTO holidays (user_id, start_date, end_date, status, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			int64(r.EmployeeID), formatTime(r.StartDate), formatTime(r.EndDate),
			string(r.Status), formatTime(r.CreatedAt), formatTime(r.UpdatedAt),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return 0, holiday.ErrDuplicatePeriod
			}
			return 0, fmt.Errorf("failed to insert request: %w", err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		return holiday.RequestID(id), nil
	}

	// Only the status is mutable after creation.
	res, err := db.ExecContext(ctx, `
		UPDATE holidays SET status = ?, updated_at = ? WHERE id = ?`,
		string(r.Status), formatTime(r.UpdatedAt), int64(r.ID),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to update request: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, holiday.ErrRequestNotFound
	}
	return r.ID, nil
}

// ListRequests folds the present filter fields into WHERE clauses.
func (s *Store) ListRequests(ctx context.Context, f holiday.RequestFilter) ([]holiday.HolidayRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listRequests(ctx, s.db, f)
}

func (s *Store) listRequests(ctx context.Context, db dbtx, f holiday.RequestFilter) ([]holiday.HolidayRequest, error) {
	query := "SELECT " + requestColumns + " FROM holidays"

	var clauses []string
	var args []any
	if f.ID != nil {
		clauses = append(clauses, "id = ?")
		args = append(args, int64(*f.ID))
	}
	if f.EmployeeID != nil {
		clauses = append(clauses, "user_id = ?")
		args = append(args, int64(*f.EmployeeID))
	}
	if f.StartDate != nil {
		clauses = append(clauses, "start_date >= ?")
		args = append(args, formatTime(*f.StartDate))
	}
	if f.EndDate != nil {
		clauses = append(clauses, "end_date <= ?")
		args = append(args, formatTime(*f.EndDate))
	}
	if f.Status != nil {
		clauses = append(clauses, "status = ?")
		args = append(args, string(*f.Status))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY id ASC"

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query requests: %w", err)
	}
	defer rows.Close()

	var requests []holiday.HolidayRequest
	for rows.Next() {
		var (
			r                    holiday.HolidayRequest
			startDate, endDate   string
			createdAt, updatedAt string
		)
		if err := rows.Scan(&r.ID, &r.EmployeeID, &startDate, &endDate, &r.Status, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		r.StartDate = parseTime(startDate)
		r.EndDate = parseTime(endDate)
		r.CreatedAt = parseTime(createdAt)
		r.UpdatedAt = parseTime(updatedAt)
		requests = append(requests, r)
	}
	return requests, rows.Err()
}

// HasOverlap reports whether any non-rejected request of the employee
// contains the candidate start or end, boundaries included.
func (s *Store) HasOverlap(ctx context.Context, employeeID holiday.EmployeeID, start, end time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasOverlap(ctx, s.db, employeeID, start, end)
}

func (s *Store) hasOverlap(ctx context.Context, db dbtx, employeeID holiday.EmployeeID, start, end time.Time) (bool, error) {
	query := `
		SELECT COUNT(*) FROM holidays
		WHERE user_id = ?
		  AND (? BETWEEN start_date AND end_date
		       OR ? BETWEEN start_date AND end_date)
		  AND status != ?`

	var count int
	err := db.QueryRowContext(ctx, query,
		int64(employeeID), formatTime(start), formatTime(end),
		string(holiday.StatusRejected),
	).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("overlap query failed: %w", err)
	}
	return count > 0, nil
}

// ===== LEDGER STORE =====

// AppendEntry records a balance mutation. Append-only: besides SELECT,
// INSERT is the only statement touching ledger_entries.
func (s *Store) AppendEntry(ctx context.Context, entry holiday.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.appendEntry(ctx, s.db, entry)
}

func (s *Store) appendEntry(ctx context.Context, db dbtx, entry holiday.LedgerEntry) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO ledger_entries (user_id, request_id, delta, entry_type, reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		int64(entry.EmployeeID), int64(entry.RequestID), entry.Delta.String(),
		string(entry.Type), entry.Reason, formatTime(entry.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to append ledger entry: %w", err)
	}
	return nil
}

// LoadEntries returns all entries for an employee, oldest first.
func (s *Store) LoadEntries(ctx context.Context, employeeID holiday.EmployeeID) ([]holiday.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loadEntries(ctx, s.db, employeeID)
}

func (s *Store) loadEntries(ctx context.Context, db dbtx, employeeID holiday.EmployeeID) ([]holiday.LedgerEntry, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT id, user_id, request_id, delta, entry_type, reason, created_at
		FROM ledger_entries
		WHERE user_id = ?
		ORDER BY id ASC`, int64(employeeID))
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []holiday.LedgerEntry
	for rows.Next() {
		var (
			e         holiday.LedgerEntry
			delta     string
			reason    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.RequestID, &delta, &e.Type, &reason, &createdAt); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(delta)
		if err != nil {
			return nil, fmt.Errorf("bad ledger delta %q: %w", delta, err)
		}
		e.Delta = d
		e.Reason = reason.String
		e.CreatedAt = parseTime(createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ===== TOKEN STORE =====

// SaveToken stores a verification token, replacing any previous token for
// the same employee and purpose.
func (s *Store) SaveToken(ctx context.Context, t auth.VerificationToken) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO verification_tokens (token, user_id, purpose, expires_at, created_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, purpose) DO UPDATE SET
			token = excluded.token,
			expires_at = excluded.expires_at,
			created_at = excluded.created_at`,
		t.Token, int64(t.EmployeeID), string(t.Purpose),
		formatTime(t.ExpiresAt), formatTime(time.Now()),
	)
	return err
}

// GetToken returns a token by value or auth.ErrTokenNotFound.
func (s *Store) GetToken(ctx context.Context, token string) (auth.VerificationToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanToken(s.db.QueryRowContext(ctx, `
		SELECT token, user_id, purpose, expires_at FROM verification_tokens WHERE token = ?`, token))
}

// GetTokenForEmployee returns the employee's token for a purpose, or
// auth.ErrTokenNotFound.
func (s *Store) GetTokenForEmployee(ctx context.Context, employeeID holiday.EmployeeID, purpose auth.Purpose) (auth.VerificationToken, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return scanToken(s.db.QueryRowContext(ctx, `
		SELECT token, user_id, purpose, expires_at FROM verification_tokens
		WHERE user_id = ? AND purpose = ?`, int64(employeeID), string(purpose)))
}

func scanToken(row *sql.Row) (auth.VerificationToken, error) {
	var (
		t         auth.VerificationToken
		expiresAt string
	)
	err := row.Scan(&t.Token, &t.EmployeeID, &t.Purpose, &expiresAt)
	if err == sql.ErrNoRows {
		return auth.VerificationToken{}, auth.ErrTokenNotFound
	}
	if err != nil {
		return auth.VerificationToken{}, fmt.Errorf("failed to scan token: %w", err)
	}
	t.ExpiresAt = parseTime(expiresAt)
	return t, nil
}

// DeleteExpiredTokens removes every token whose expiry is before the given
// instant, returning how many were swept.
func (s *Store) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		"DELETE FROM verification_tokens WHERE expires_at < ?", formatTime(before))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteToken removes a consumed or expired token.
func (s *Store) DeleteToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, "DELETE FROM verification_tokens WHERE token = ?", token)
	return err
}

// ===== TRANSACTIONS =====

// WithTx executes fn within a database transaction. The store mutex is held
// for the duration, matching SQLite's single-writer model.
func (s *Store) WithTx(ctx context.Context, fn func(store holiday.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, parent: s}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore routes holiday.Store calls through an open transaction. The
// parent mutex is already held, so no locking here.
type txStore struct {
	tx     *sql.Tx
	parent *Store
}

func (ts *txStore) GetEmployee(ctx context.Context, id holiday.EmployeeID) (holiday.Employee, error) {
	return ts.parent.getEmployee(ctx, ts.tx, "id = ?", int64(id))
}

func (ts *txStore) GetEmployeeByUsername(ctx context.Context, username string) (holiday.Employee, error) {
	return ts.parent.getEmployee(ctx, ts.tx, "username = ?", username)
}

func (ts *txStore) GetEmployeeByEmail(ctx context.Context, email string) (holiday.Employee, error) {
	return ts.parent.getEmployee(ctx, ts.tx, "email = ?", email)
}

func (ts *txStore) SaveEmployee(ctx context.Context, e holiday.Employee) (holiday.EmployeeID, error) {
	return ts.parent.saveEmployee(ctx, ts.tx, e)
}

func (ts *txStore) ListEmployees(ctx context.Context, f holiday.EmployeeFilter) ([]holiday.Employee, error) {
	return ts.parent.listEmployees(ctx, ts.tx, f)
}

func (ts *txStore) GetRequest(ctx context.Context, id holiday.RequestID) (holiday.HolidayRequest, error) {
	return ts.parent.getRequest(ctx, ts.tx, id)
}

func (ts *txStore) SaveRequest(ctx context.Context, r holiday.HolidayRequest) (holiday.RequestID, error) {
	return ts.parent.saveRequest(ctx, ts.tx, r)
}

func (ts *txStore) ListRequests(ctx context.Context, f holiday.RequestFilter) ([]holiday.HolidayRequest, error) {
	return ts.parent.listRequests(ctx, ts.tx, f)
}

func (ts *txStore) HasOverlap(ctx context.Context, employeeID holiday.EmployeeID, start, end time.Time) (bool, error) {
	return ts.parent.hasOverlap(ctx, ts.tx, employeeID, start, end)
}

func (ts *txStore) AppendEntry(ctx context.Context, entry holiday.LedgerEntry) error {
	return ts.parent.appendEntry(ctx, ts.tx, entry)
}

func (ts *txStore) LoadEntries(ctx context.Context, employeeID holiday.EmployeeID) ([]holiday.LedgerEntry, error) {
	return ts.parent.loadEntries(ctx, ts.tx, employeeID)
}

// ===== UTILITIES =====

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{"ledger_entries", "verification_tokens", "holidays", "users"}
	for _, table := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
