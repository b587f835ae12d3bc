/*
Package auth provides authentication primitives for the holiday engine.

PURPOSE:
  Three concerns live here:
  - Password hashing and verification (bcrypt)
  - Signed API tokens for the HTTP surface (JWT, HS256)
  - One-shot verification tokens for account activation and password
    recovery (random UUIDs with an expiry, persisted via TokenStore)

KEY CONCEPTS:
  API tokens are stateless: the subject is the employee id and the role
  travels as a claim, so the middleware can authorize without a store
  round-trip. Verification tokens are stateful and single-purpose: one
  live token per employee and purpose, consumed on use.

SEE ALSO:
  - account/service.go: Registration and recovery flows using these tokens
  - api/middleware.go:  Bearer-token authentication
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/warp/holiday-engine/holiday"
)

// ===== ERRORS =====

var (
	// ErrTokenNotFound indicates no verification token matches.
	ErrTokenNotFound = errors.New("verification token not found")

	// ErrTokenExpired indicates the verification token is past its expiry.
	ErrTokenExpired = errors.New("verification token expired")

	// ErrInvalidCredentials indicates a failed username/password check.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrAccountDisabled indicates the account exists but is not active.
	ErrAccountDisabled = errors.New("account is disabled")

	// ErrInvalidAPIToken indicates a malformed, forged or expired API token.
	ErrInvalidAPIToken = errors.New("invalid api token")
)

// ===== PASSWORDS =====

// HashPassword returns the bcrypt hash of a plaintext password.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// CheckPassword verifies a plaintext password against a bcrypt hash.
func CheckPassword(hash, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain)) == nil
}

// ===== API TOKENS =====

// Claims is the JWT payload for API tokens.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// TokenIssuer mints and verifies signed API tokens.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer creates an issuer signing with the given secret. Tokens
// expire after ttl.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed token for the employee.
func (ti *TokenIssuer) Issue(e holiday.Employee) (string, error) {
	now := ti.now()
	claims := Claims{
		Role: string(e.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", e.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a signed token, returning its claims.
func (ti *TokenIssuer) Verify(tokenString string) (Claims, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil || !token.Valid {
		return Claims{}, ErrInvalidAPIToken
	}
	return claims, nil
}

// EmployeeID extracts the subject as an employee id.
func (c Claims) EmployeeID() (holiday.EmployeeID, error) {
	var id int64
	if _, err := fmt.Sscanf(c.Subject, "%d", &id); err != nil || id <= 0 {
		return 0, ErrInvalidAPIToken
	}
	return holiday.EmployeeID(id), nil
}

// IsAdmin reports whether the token carries the admin role.
func (c Claims) IsAdmin() bool {
	return c.Role == string(holiday.RoleAdmin)
}

// ===== VERIFICATION TOKENS =====

// Purpose distinguishes what a verification token unlocks.
type Purpose string

const (
	// PurposeActivation tokens confirm a freshly registered account.
	PurposeActivation Purpose = "activation"

	// PurposeRecovery tokens authorize a password reset.
	PurposeRecovery Purpose = "recovery"
)

// VerificationToken is a one-shot, expiring token bound to an employee.
type VerificationToken struct {
	Token      string
	EmployeeID holiday.EmployeeID
	Purpose    Purpose
	ExpiresAt  time.Time
}

// Expired reports whether the token is past its expiry at the given time.
func (t VerificationToken) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// NewVerificationToken mints a random token for the employee.
func NewVerificationToken(employeeID holiday.EmployeeID, purpose Purpose, ttl time.Duration) VerificationToken {
	return VerificationToken{
		Token:      uuid.NewString(),
		EmployeeID: employeeID,
		Purpose:    purpose,
		ExpiresAt:  time.Now().Add(ttl),
	}
}

// TokenStore persists verification tokens. At most one live token exists
// per employee and purpose; SaveToken replaces any previous one.
type TokenStore interface {
	SaveToken(ctx context.Context, t VerificationToken) error
	GetToken(ctx context.Context, token string) (VerificationToken, error)
	GetTokenForEmployee(ctx context.Context, employeeID holiday.EmployeeID, purpose Purpose) (VerificationToken, error)
	DeleteToken(ctx context.Context, token string) error
}
