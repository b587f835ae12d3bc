package store

import (
	"context"
	"sync"
	"time"

	"github.com/warp/holiday-engine/auth"
	"github.com/warp/holiday-engine/holiday"
)

// TokenMemory is an in-memory auth.TokenStore for tests and demos.
type TokenMemory struct {
	mu     sync.RWMutex
	tokens map[string]auth.VerificationToken
}

// NewTokenMemory creates an empty in-memory token store.
func NewTokenMemory() *TokenMemory {
	return &TokenMemory{tokens: make(map[string]auth.VerificationToken)}
}

func (m *TokenMemory) SaveToken(ctx context.Context, t auth.VerificationToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	// One live token per employee and purpose.
	for k, existing := range m.tokens {
		if existing.EmployeeID == t.EmployeeID && existing.Purpose == t.Purpose {
			delete(m.tokens, k)
		}
	}
	m.tokens[t.Token] = t
	return nil
}

func (m *TokenMemory) GetToken(ctx context.Context, token string) (auth.VerificationToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	t, ok := m.tokens[token]
	if !ok {
		return auth.VerificationToken{}, auth.ErrTokenNotFound
	}
	return t, nil
}

func (m *TokenMemory) GetTokenForEmployee(ctx context.Context, employeeID holiday.EmployeeID, purpose auth.Purpose) (auth.VerificationToken, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.tokens {
		if t.EmployeeID == employeeID && t.Purpose == purpose {
			return t, nil
		}
	}
	return auth.VerificationToken{}, auth.ErrTokenNotFound
}

// DeleteExpiredTokens removes every token expired before the given instant.
func (m *TokenMemory) DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var swept int64
	for k, t := range m.tokens {
		if t.ExpiresAt.Before(before) {
			delete(m.tokens, k)
			swept++
		}
	}
	return swept, nil
}

func (m *TokenMemory) DeleteToken(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.tokens, token)
	return nil
}
