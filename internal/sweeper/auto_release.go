package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/codeternalx123/agropulseAI/internal/adapter"
	"github.com/codeternalx123/agropulseAI/internal/domain"
	"github.com/codeternalx123/agropulseAI/internal/logger"
	"github.com/codeternalx123/agropulseAI/internal/store"
	"github.com/codeternalx123/agropulseAI/internal/store/schema"
)

const (
	SWEEP_CYCLE_INTERVAL = 1 * time.Minute // Time to sleep between sweep cycles
)

// TransactionReleaser settles a transaction whose acceptance window has lapsed
type TransactionReleaser interface {
	AutoRelease(ctx context.Context, transactionID string) (*schema.Transaction, error)
}

// ListingExpirer cancels listings whose expiry has passed
type ListingExpirer interface {
	ExpireActive(ctx context.Context) (int64, error)
}

// AutoReleaseSweeperConfig holds configuration for the auto-release sweeper
type AutoReleaseSweeperConfig struct {
	BatchSize      int // Transactions to settle per cycle
	WorkerPoolSize int // Concurrent workers
}

// autoReleaseSweeper implements the Sweeper interface for escrow auto-release
type autoReleaseSweeper struct {
	config    *AutoReleaseSweeperConfig
	store     store.Store
	releaser  TransactionReleaser
	expirer   ListingExpirer
	pool      pond.Pool
	clock     adapter.Clock
	running   atomic.Bool
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewAutoReleaseSweeper creates a new auto-release sweeper
func NewAutoReleaseSweeper(
	config *AutoReleaseSweeperConfig,
	st store.Store,
	releaser TransactionReleaser,
	expirer ListingExpirer,
	clock adapter.Clock,
) Sweeper {
	return &autoReleaseSweeper{
		config:    config,
		store:     st,
		releaser:  releaser,
		expirer:   expirer,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *autoReleaseSweeper) Name() string {
	return "auto-release-sweeper"
}

// Start begins the sweeper's main loop
func (s *autoReleaseSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh) // Signal that we've stopped
	}()

	logger.InfoCtx(ctx, "Starting auto-release sweeper",
		zap.Int("batch_size", s.config.BatchSize),
		zap.Int("worker_pool_size", s.config.WorkerPoolSize),
	)

	// Create worker pool
	s.pool = pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(s.config.BatchSize),
		pond.WithContext(ctx),
	)

	// Continuous loop - stops when context is canceled or stop is requested
	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Auto-release sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			s.cleanup()
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Auto-release sweeper stop requested")
			s.cleanup()
			return nil
		default:
			if err := s.runSweepCycle(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.ErrorCtx(ctx, err)
				}
			}
		}
	}
}

// cleanup stops the worker pool and waits for tasks to complete
func (s *autoReleaseSweeper) cleanup() {
	if s.pool != nil {
		s.pool.StopAndWait()
	}
}

// Stop gracefully stops the sweeper with timeout support
func (s *autoReleaseSweeper) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return nil // Already stopped
	}

	logger.InfoCtx(ctx, "Stopping auto-release sweeper")

	// Signal stop to the main loop
	close(s.stopChan)

	// Wait for main loop to exit, but respect context cancellation
	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Auto-release sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Auto-release sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// runSweepCycle runs a single sweep cycle
func (s *autoReleaseSweeper) runSweepCycle(ctx context.Context) error {
	startTime := s.clock.Now()

	// Lapsed listings are cancelled opportunistically on every cycle
	if _, err := s.expirer.ExpireActive(ctx); err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to expire listings: %w", err))
	}

	ids, err := s.dueTransactionsWithRetry(ctx)
	if err != nil {
		return fmt.Errorf("failed to get due transactions: %w", err)
	}

	if len(ids) == 0 {
		// Sleep briefly to avoid a tight loop when nothing is due
		// Use context-aware sleep so we can be interrupted
		if !s.sleep(ctx, SWEEP_CYCLE_INTERVAL) {
			return ctx.Err() // Context canceled during sleep
		}
		return nil
	}

	logger.InfoCtx(ctx, "Found transactions due for release", zap.Int("count", len(ids)))

	var releasedCount, skippedCount, failedCount atomic.Int32

	// Submit all releases to the worker pool. AutoRelease is idempotent, so
	// a transaction picked up by an overlapping cycle settles at most once.
	for _, id := range ids {
		s.pool.Submit(func() {
			s.release(ctx, id, &releasedCount, &skippedCount, &failedCount)
		})
	}

	// Wait for all releases to complete
	s.pool.StopAndWait()

	// Recreate pool for next cycle
	s.pool = pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(s.config.BatchSize),
		pond.WithContext(ctx),
	)

	duration := s.clock.Since(startTime)
	logger.InfoCtx(ctx, "Sweep cycle completed",
		zap.Duration("duration", duration),
		zap.Int("total_due", len(ids)),
		zap.Int32("released", releasedCount.Load()),
		zap.Int32("skipped", skippedCount.Load()),
		zap.Int32("failed", failedCount.Load()),
	)

	if !s.sleep(ctx, SWEEP_CYCLE_INTERVAL) {
		return ctx.Err() // Context canceled during sleep
	}

	return nil
}

// release settles one transaction and updates the cycle counters
func (s *autoReleaseSweeper) release(ctx context.Context, transactionID string, releasedCount, skippedCount, failedCount *atomic.Int32) {
	_, err := s.releaser.AutoRelease(ctx, transactionID)
	switch {
	case err == nil:
		releasedCount.Add(1)
	case errors.Is(err, domain.ErrWindowNotExpired),
		errors.Is(err, domain.ErrTransactionFrozen),
		errors.Is(err, domain.ErrInvalidTransition):
		// Disputed or settled between the due query and the release
		skippedCount.Add(1)
		logger.DebugCtx(ctx, "Skipped transaction", zap.String("transaction_id", transactionID), zap.Error(err))
	default:
		failedCount.Add(1)
		logger.ErrorCtx(ctx, err, zap.String("transaction_id", transactionID))
	}
}

// dueTransactionsWithRetry queries due transactions with exponential backoff retry
func (s *autoReleaseSweeper) dueTransactionsWithRetry(ctx context.Context) ([]string, error) {
	var ids []string

	// Configure exponential backoff
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 5 * time.Second
	b.MaxInterval = 1 * time.Minute
	b.MaxElapsedTime = 10 * time.Minute // Total retry time limit
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5 // Add jitter to prevent thundering herd

	backoffWithContext := backoff.WithContext(b, ctx)

	operation := func() error {
		var err error
		ids, err = s.store.ListTransactionsDueForRelease(ctx, s.clock.Now().UTC(), s.config.BatchSize)
		return err
	}

	var attemptCount int
	notifyOnError := func(err error, duration time.Duration) {
		attemptCount++
		logger.WarnCtx(ctx, "Due transaction query failed, retrying",
			zap.Error(err),
			zap.Int("attempt", attemptCount),
			zap.Duration("next_retry_in", duration),
		)
	}

	if err := backoff.RetryNotify(operation, backoffWithContext, notifyOnError); err != nil {
		return nil, fmt.Errorf("failed after %d attempts: %w", attemptCount, err)
	}

	return ids, nil
}

// sleep sleeps for the given duration but can be interrupted by context cancellation
// Returns true if sleep completed normally, false if interrupted by context
func (s *autoReleaseSweeper) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-s.clock.After(duration):
		return true // Sleep completed
	case <-ctx.Done():
		return false // Interrupted by context cancellation
	case <-s.stopChan:
		return false // Interrupted by stop signal
	}
}
