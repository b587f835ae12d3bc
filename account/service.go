/*
Package account manages employee accounts around the holiday engine.

PURPOSE:
  Everything about WHO holds a balance lives here: registration with
  activation by email token, login, password change and recovery, email
  change, admin adjustments of role and allowance, soft deletion, and the
  idempotent seeding of the initial administrator.

KEY CONCEPTS:
  Accounts start disabled. A registration mints an activation token and
  hands it to the Mailer; the account becomes usable only after the token
  comes back through Activate. Password recovery follows the same
  token-roundtrip shape with a different purpose.

  Deletion is soft: the account is disabled and its email is suffixed so
  the address can be registered again, while holiday history stays intact.

SEE ALSO:
  - auth/auth.go:        Password hashing, API tokens, verification tokens
  - holiday/validate.go: Registration rule set
*/
package account

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/warp/holiday-engine/auth"
	"github.com/warp/holiday-engine/holiday"
)

// ===== ERRORS =====

var (
	// ErrSelfDelete indicates an admin tried to delete their own account.
	ErrSelfDelete = errors.New("cannot delete own account")

	// ErrAlreadyActive indicates an activation attempt on an enabled account.
	ErrAlreadyActive = errors.New("account is already active")
)

// ===== MAILER =====

// Mailer delivers verification tokens to account holders.
type Mailer interface {
	SendActivation(ctx context.Context, email, token string) error
	SendRecovery(ctx context.Context, email, token string) error
}

// LogMailer writes outgoing mail to the log instead of sending it. Used in
// development and tests.
type LogMailer struct {
	Log *logrus.Logger
}

func (m *LogMailer) SendActivation(ctx context.Context, email, token string) error {
	m.Log.WithFields(logrus.Fields{"email": email, "token": token}).Info("activation mail")
	return nil
}

func (m *LogMailer) SendRecovery(ctx context.Context, email, token string) error {
	m.Log.WithFields(logrus.Fields{"email": email, "token": token}).Info("recovery mail")
	return nil
}

// ===== SERVICE =====

// Config tunes the account service.
type Config struct {
	// DefaultHours is the holiday allowance granted to new accounts.
	DefaultHours int64

	// ActivationTTL bounds how long an activation token stays valid.
	ActivationTTL time.Duration

	// RecoveryTTL bounds how long a password-recovery token stays valid.
	RecoveryTTL time.Duration
}

// DefaultConfig returns the stock configuration.
func DefaultConfig() Config {
	return Config{
		DefaultHours:  0,
		ActivationTTL: 24 * time.Hour,
		RecoveryTTL:   time.Hour,
	}
}

// Service implements the account lifecycle.
type Service struct {
	employees holiday.EmployeeStore
	tokens    auth.TokenStore
	issuer    *auth.TokenIssuer
	mailer    Mailer
	rules     holiday.RegistrationRules
	cfg       Config
	log       *logrus.Logger
	now       func() time.Time
}

// NewService wires an account service. A nil logger falls back to the
// standard logger.
func NewService(employees holiday.EmployeeStore, tokens auth.TokenStore, issuer *auth.TokenIssuer, mailer Mailer, cfg Config, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{
		employees: employees,
		tokens:    tokens,
		issuer:    issuer,
		mailer:    mailer,
		rules:     holiday.DefaultRegistrationRules(),
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// ===== REGISTRATION AND ACTIVATION =====

// Register creates a disabled account and mails an activation token.
// Every rule violation is collected before failing; a taken username or
// email fails with holiday.ErrAlreadyExists.
func (s *Service) Register(ctx context.Context, in holiday.RegistrationInput) (holiday.EmployeeID, error) {
	if err := s.rules.Validate(in); err != nil {
		return 0, err
	}

	if _, err := s.employees.GetEmployeeByUsername(ctx, in.Username); err == nil {
		return 0, fmt.Errorf("username %q: %w", in.Username, holiday.ErrAlreadyExists)
	} else if !errors.Is(err, holiday.ErrEmployeeNotFound) {
		return 0, err
	}
	if _, err := s.employees.GetEmployeeByEmail(ctx, in.Email); err == nil {
		return 0, fmt.Errorf("email %q: %w", in.Email, holiday.ErrAlreadyExists)
	} else if !errors.Is(err, holiday.ErrEmployeeNotFound) {
		return 0, err
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return 0, err
	}

	id, err := s.employees.SaveEmployee(ctx, holiday.Employee{
		Name:         in.Name,
		Surname:      in.Surname,
		Username:     in.Username,
		PasswordHash: hash,
		Email:        in.Email,
		Age:          in.Age,
		Role:         holiday.RoleWorker,
		HolidayHours: s.cfg.DefaultHours,
		Enabled:      false,
		CreatedAt:    s.now(),
	})
	if err != nil {
		return 0, err
	}

	if err := s.sendToken(ctx, id, in.Email, auth.PurposeActivation); err != nil {
		return 0, err
	}

	s.log.WithFields(logrus.Fields{
		"employee_id": id,
		"username":    in.Username,
	}).Info("account registered")
	return id, nil
}

// Activate enables the account bound to an activation token and consumes
// the token. Expired tokens are removed and reported as expired.
func (s *Service) Activate(ctx context.Context, token string) error {
	t, err := s.tokens.GetToken(ctx, token)
	if err != nil {
		return err
	}
	if t.Purpose != auth.PurposeActivation {
		return auth.ErrTokenNotFound
	}
	if t.Expired(s.now()) {
		_ = s.tokens.DeleteToken(ctx, token)
		return auth.ErrTokenExpired
	}

	e, err := s.employees.GetEmployee(ctx, t.EmployeeID)
	if err != nil {
		return err
	}
	if _, err := s.employees.SaveEmployee(ctx, e.WithActivation()); err != nil {
		return err
	}
	if err := s.tokens.DeleteToken(ctx, token); err != nil {
		return err
	}

	s.log.WithField("employee_id", e.ID).Info("account activated")
	return nil
}

// RefreshActivation mints and mails a fresh activation token for a not yet
// activated account. While a live token exists the call fails with
// holiday.ErrAlreadyExists; an expired token is replaced.
func (s *Service) RefreshActivation(ctx context.Context, email string) error {
	e, err := s.employees.GetEmployeeByEmail(ctx, email)
	if err != nil {
		return err
	}
	if e.Enabled {
		return ErrAlreadyActive
	}

	if t, err := s.tokens.GetTokenForEmployee(ctx, e.ID, auth.PurposeActivation); err == nil {
		if !t.Expired(s.now()) {
			return fmt.Errorf("activation token for %q: %w", email, holiday.ErrAlreadyExists)
		}
		if err := s.tokens.DeleteToken(ctx, t.Token); err != nil {
			return err
		}
	} else if !errors.Is(err, auth.ErrTokenNotFound) {
		return err
	}

	return s.sendToken(ctx, e.ID, e.Email, auth.PurposeActivation)
}

func (s *Service) sendToken(ctx context.Context, id holiday.EmployeeID, email string, purpose auth.Purpose) error {
	ttl := s.cfg.ActivationTTL
	if purpose == auth.PurposeRecovery {
		ttl = s.cfg.RecoveryTTL
	}
	t := auth.NewVerificationToken(id, purpose, ttl)
	if err := s.tokens.SaveToken(ctx, t); err != nil {
		return err
	}
	if purpose == auth.PurposeRecovery {
		return s.mailer.SendRecovery(ctx, email, t.Token)
	}
	return s.mailer.SendActivation(ctx, email, t.Token)
}

// ===== LOGIN =====

// Login verifies credentials and returns a signed API token. Disabled
// accounts cannot log in.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	e, err := s.employees.GetEmployeeByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, holiday.ErrEmployeeNotFound) {
			return "", auth.ErrInvalidCredentials
		}
		return "", err
	}
	if !auth.CheckPassword(e.PasswordHash, password) {
		return "", auth.ErrInvalidCredentials
	}
	if !e.Enabled {
		return "", auth.ErrAccountDisabled
	}
	return s.issuer.Issue(e)
}

// ===== PASSWORDS =====

// ChangePassword swaps the password after verifying the current one.
func (s *Service) ChangePassword(ctx context.Context, id holiday.EmployeeID, current, next string) error {
	e, err := s.employees.GetEmployee(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(e.PasswordHash, current) {
		return auth.ErrInvalidCredentials
	}
	return s.setPassword(ctx, e, next)
}

// LostPassword mails a recovery token to the account's address.
func (s *Service) LostPassword(ctx context.Context, email string) error {
	e, err := s.employees.GetEmployeeByEmail(ctx, email)
	if err != nil {
		return err
	}
	return s.sendToken(ctx, e.ID, e.Email, auth.PurposeRecovery)
}

// NewPassword sets a password via a recovery token and consumes the token.
func (s *Service) NewPassword(ctx context.Context, token, next string) error {
	t, err := s.tokens.GetToken(ctx, token)
	if err != nil {
		return err
	}
	if t.Purpose != auth.PurposeRecovery {
		return auth.ErrTokenNotFound
	}
	if t.Expired(s.now()) {
		_ = s.tokens.DeleteToken(ctx, token)
		return auth.ErrTokenExpired
	}

	e, err := s.employees.GetEmployee(ctx, t.EmployeeID)
	if err != nil {
		return err
	}
	if err := s.setPassword(ctx, e, next); err != nil {
		return err
	}
	return s.tokens.DeleteToken(ctx, token)
}

func (s *Service) setPassword(ctx context.Context, e holiday.Employee, next string) error {
	v := holiday.Violations{}
	holiday.ValidatePassword(v, next, s.rules.PasswordMinLen)
	if err := v.Err(); err != nil {
		return err
	}

	hash, err := auth.HashPassword(next)
	if err != nil {
		return err
	}
	if _, err := s.employees.SaveEmployee(ctx, e.WithPassword(hash)); err != nil {
		return err
	}

	s.log.WithField("employee_id", e.ID).Info("password changed")
	return nil
}

// ===== EMAIL =====

// ChangeEmail swaps the account email after verifying the password.
func (s *Service) ChangeEmail(ctx context.Context, id holiday.EmployeeID, password, email string) error {
	e, err := s.employees.GetEmployee(ctx, id)
	if err != nil {
		return err
	}
	if !auth.CheckPassword(e.PasswordHash, password) {
		return auth.ErrInvalidCredentials
	}

	v := holiday.Violations{}
	holiday.ValidateEmail(v, email, s.rules.EmailPattern)
	if err := v.Err(); err != nil {
		return err
	}

	if _, err := s.employees.SaveEmployee(ctx, e.WithNewEmail(email)); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{"employee_id": id, "email": email}).Info("email changed")
	return nil
}

// ===== ADMINISTRATION =====

// Update sets role and holiday allowance. Admin surface.
func (s *Service) Update(ctx context.Context, id holiday.EmployeeID, role holiday.Role, hours int64) error {
	if role != holiday.RoleWorker && role != holiday.RoleAdmin {
		v := holiday.Violations{}
		v.Add("role", "role must be worker or admin")
		return v.Err()
	}
	if hours < 0 {
		v := holiday.Violations{}
		v.Add("holiday hours", "holiday hours cannot be negative")
		return v.Err()
	}

	e, err := s.employees.GetEmployee(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.employees.SaveEmployee(ctx, e.WithRoleAndHours(role, hours)); err != nil {
		return err
	}

	s.log.WithFields(logrus.Fields{
		"employee_id": id,
		"role":        role,
		"hours":       hours,
	}).Info("account updated")
	return nil
}

// Delete soft-deletes an account: the row stays, disabled and with a
// suffixed email, so holiday history keeps its owner. Admins cannot delete
// themselves.
func (s *Service) Delete(ctx context.Context, actor, id holiday.EmployeeID) error {
	if actor == id {
		return ErrSelfDelete
	}

	e, err := s.employees.GetEmployee(ctx, id)
	if err != nil {
		return err
	}
	if _, err := s.employees.SaveEmployee(ctx, e.WithDelete()); err != nil {
		return err
	}

	s.log.WithField("employee_id", id).Info("account deleted")
	return nil
}

// DeleteSelf soft-deletes the caller's own account. Admins are refused so
// the system can never lose its last administrator by accident.
func (s *Service) DeleteSelf(ctx context.Context, id holiday.EmployeeID) error {
	e, err := s.employees.GetEmployee(ctx, id)
	if err != nil {
		return err
	}
	if e.IsAdmin() {
		return ErrSelfDelete
	}
	if _, err := s.employees.SaveEmployee(ctx, e.WithDelete()); err != nil {
		return err
	}

	s.log.WithField("employee_id", id).Info("account deleted")
	return nil
}

// Get returns a single account.
func (s *Service) Get(ctx context.Context, id holiday.EmployeeID) (holiday.Employee, error) {
	return s.employees.GetEmployee(ctx, id)
}

// List returns accounts matching the filter.
func (s *Service) List(ctx context.Context, f holiday.EmployeeFilter) ([]holiday.Employee, error) {
	return s.employees.ListEmployees(ctx, f)
}

// SeedAdmin ensures the initial administrator exists. Idempotent: when the
// username is taken the call is a no-op.
func (s *Service) SeedAdmin(ctx context.Context, username, password, email string, hours int64) (holiday.EmployeeID, error) {
	if e, err := s.employees.GetEmployeeByUsername(ctx, username); err == nil {
		s.log.WithField("username", username).Debug("admin already seeded")
		return e.ID, nil
	} else if !errors.Is(err, holiday.ErrEmployeeNotFound) {
		return 0, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}

	id, err := s.employees.SaveEmployee(ctx, holiday.Employee{
		Name:         "Admin",
		Surname:      "Admin",
		Username:     username,
		PasswordHash: hash,
		Email:        email,
		Age:          30,
		Role:         holiday.RoleAdmin,
		HolidayHours: hours,
		Enabled:      true,
		CreatedAt:    s.now(),
	})
	if err != nil {
		if errors.Is(err, holiday.ErrAlreadyExists) {
			// Lost a race with another seeder; treat as seeded.
			e, gerr := s.employees.GetEmployeeByUsername(ctx, username)
			if gerr != nil {
				return 0, gerr
			}
			return e.ID, nil
		}
		return 0, err
	}

	s.log.WithFields(logrus.Fields{"employee_id": id, "username": username}).Info("admin seeded")
	return id, nil
}
