/*
sweeper.go - Background sweep of expired verification tokens

PURPOSE:
  Activation and recovery tokens expire; consumed tokens are deleted on
  use, but abandoned ones would pile up forever. The sweeper periodically
  deletes every token past its expiry.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Sweeps immediately on start, then on every tick
  - Stop() waits for the goroutine to drain

CONFIGURATION:
  - Interval: How often to sweep (default: 1 hour)
  - Enabled: Whether the sweeper is active (default: true)

USAGE:
  sweeper := NewTokenSweeper(store, log)
  sweeper.Start()
  // ... later
  sweeper.Stop()

SEE ALSO:
  - auth/auth.go: Verification token lifecycle
*/
package api

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// ExpiredTokenStore is the slice of the token store the sweeper needs.
type ExpiredTokenStore interface {
	DeleteExpiredTokens(ctx context.Context, before time.Time) (int64, error)
}

// TokenSweeper deletes expired verification tokens in the background.
type TokenSweeper struct {
	Store    ExpiredTokenStore
	Log      *logrus.Logger
	Interval time.Duration
	Enabled  bool

	ticker *time.Ticker
	stop   chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewTokenSweeper creates a sweeper with the default interval.
func NewTokenSweeper(store ExpiredTokenStore, log *logrus.Logger) *TokenSweeper {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &TokenSweeper{
		Store:    store,
		Log:      log,
		Interval: time.Hour,
		Enabled:  true,
		stop:     make(chan struct{}),
	}
}

// Start begins the sweeper.
func (ts *TokenSweeper) Start() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.Enabled {
		ts.Log.Debug("token sweeper disabled, not starting")
		return
	}

	ts.ticker = time.NewTicker(ts.Interval)
	ts.wg.Add(1)

	go ts.run()

	ts.Log.WithField("interval", ts.Interval).Info("token sweeper started")
}

// Stop stops the sweeper and waits for the in-flight sweep.
func (ts *TokenSweeper) Stop() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.ticker != nil {
		ts.ticker.Stop()
		close(ts.stop)
		ts.wg.Wait()
		ts.Log.Info("token sweeper stopped")
	}
}

// RunNow triggers an immediate sweep (for testing/admin).
func (ts *TokenSweeper) RunNow() {
	ts.sweep()
}

func (ts *TokenSweeper) run() {
	defer ts.wg.Done()

	// Sweep immediately on start
	ts.sweep()

	for {
		select {
		case <-ts.ticker.C:
			ts.sweep()
		case <-ts.stop:
			return
		}
	}
}

func (ts *TokenSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	swept, err := ts.Store.DeleteExpiredTokens(ctx, time.Now())
	if err != nil {
		ts.Log.WithError(err).Error("token sweep failed")
		return
	}
	if swept > 0 {
		ts.Log.WithField("swept", swept).Info("expired tokens removed")
	}
}
