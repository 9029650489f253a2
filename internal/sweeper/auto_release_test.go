package sweeper

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeternalx123/agropulseAI/internal/domain"
	"github.com/codeternalx123/agropulseAI/internal/logger"
	"github.com/codeternalx123/agropulseAI/internal/mocks"
	"github.com/codeternalx123/agropulseAI/internal/store"
	"github.com/codeternalx123/agropulseAI/internal/store/schema"
)

func TestMain(m *testing.M) {
	// Initialize logger for tests
	err := logger.Initialize(logger.Config{
		Debug: false,
	})
	if err != nil {
		panic(err)
	}

	code := m.Run()
	os.Exit(code)
}

// fakeReleaser records which transactions were released
type fakeReleaser struct {
	mu       sync.Mutex
	released []string
	errs     map[string]error
	done     chan struct{}
	expect   int
}

func (f *fakeReleaser) AutoRelease(ctx context.Context, transactionID string) (*schema.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.released = append(f.released, transactionID)
	if len(f.released) == f.expect {
		close(f.done)
	}
	if err, ok := f.errs[transactionID]; ok {
		return nil, err
	}
	return &schema.Transaction{ID: transactionID}, nil
}

func (f *fakeReleaser) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.released)
}

// fakeExpirer counts expiry passes
type fakeExpirer struct {
	mu    sync.Mutex
	calls int
	first chan struct{}
}

func (f *fakeExpirer) ExpireActive(ctx context.Context) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls == 1 && f.first != nil {
		close(f.first)
	}
	return 0, nil
}

func seedDueTransaction(t *testing.T, s store.Store, assetID string, windowEnd time.Time) string {
	tx := &schema.Transaction{
		ID:                  uuid.NewString(),
		AssetID:             assetID,
		BuyerID:             "buyer-1",
		SellerID:            "farmer-1",
		QuantityKG:          100,
		UnitPrice:           40,
		TotalAmount:         4000,
		PaymentMethod:       domain.PaymentMethodMpesa,
		EscrowAccountID:     "ESC-1",
		Status:              domain.TransactionStatusInAcceptanceWindow,
		AcceptanceWindowEnd: &windowEnd,
	}
	require.NoError(t, s.CreateTransaction(context.Background(), tx))
	return tx.ID
}

func seedSweeperAsset(t *testing.T, s store.Store) string {
	asset := &schema.Asset{
		ID:                  uuid.NewString(),
		SellerID:            "farmer-1",
		CropType:            "maize",
		QuantityKG:          1000,
		AvailableQuantityKG: 1000,
		UnitPrice:           40,
		TotalValue:          40000,
		QualityGrade:        domain.GradeStandard,
		VerificationScore:   70,
		Status:              domain.AssetStatusActive,
	}
	require.NoError(t, s.CreateAsset(context.Background(), asset))
	return asset.ID
}

func TestAutoReleaseSweeper_ReleasesDueTransactions(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockClock(ctrl)
	memStore := store.NewMemoryStore()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	clock.EXPECT().Now().Return(now).AnyTimes()
	clock.EXPECT().Since(gomock.Any()).Return(time.Second).AnyTimes()
	// Sleep never completes on its own; Stop interrupts it
	clock.EXPECT().After(gomock.Any()).Return(make(chan time.Time)).AnyTimes()

	assetID := seedSweeperAsset(t, memStore)
	dueA := seedDueTransaction(t, memStore, assetID, now.Add(-2*time.Hour))
	dueB := seedDueTransaction(t, memStore, assetID, now.Add(-time.Hour))
	seedDueTransaction(t, memStore, assetID, now.Add(time.Hour)) // not yet due

	releaser := &fakeReleaser{
		done:   make(chan struct{}),
		expect: 2,
		errs:   map[string]error{dueB: domain.ErrTransactionFrozen},
	}
	expirer := &fakeExpirer{}

	s := NewAutoReleaseSweeper(&AutoReleaseSweeperConfig{
		BatchSize:      10,
		WorkerPoolSize: 2,
	}, memStore, releaser, expirer, clock)

	assert.Equal(t, "auto-release-sweeper", s.Name())

	startErr := make(chan error, 1)
	go func() {
		startErr <- s.Start(context.Background())
	}()

	select {
	case <-releaser.done:
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not release due transactions in time")
	}

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	require.NoError(t, <-startErr)

	// Only the two lapsed windows were picked up; the frozen one was
	// tolerated, not retried into a failure
	assert.Equal(t, 2, releaser.count())
	assert.Contains(t, releaser.released, dueA)
	assert.Contains(t, releaser.released, dueB)
	assert.GreaterOrEqual(t, expirer.calls, 1)
}

func TestAutoReleaseSweeper_StartTwice(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockClock(ctrl)
	memStore := store.NewMemoryStore()

	clock.EXPECT().Now().Return(time.Now()).AnyTimes()
	clock.EXPECT().Since(gomock.Any()).Return(time.Second).AnyTimes()
	clock.EXPECT().After(gomock.Any()).Return(make(chan time.Time)).AnyTimes()

	expirer := &fakeExpirer{first: make(chan struct{})}
	s := NewAutoReleaseSweeper(&AutoReleaseSweeperConfig{
		BatchSize:      10,
		WorkerPoolSize: 1,
	}, memStore, &fakeReleaser{done: make(chan struct{}), expect: -1}, expirer, clock)

	startErr := make(chan error, 1)
	go func() {
		startErr <- s.Start(context.Background())
	}()

	// Wait for the first cycle to begin, then a second Start must refuse
	select {
	case <-expirer.first:
	case <-time.After(5 * time.Second):
		t.Fatal("sweeper did not start in time")
	}
	assert.Error(t, s.Start(context.Background()))

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(stopCtx))
	require.NoError(t, <-startErr)
}

func TestAutoReleaseSweeper_StopWithoutStart(t *testing.T) {
	ctrl := gomock.NewController(t)
	clock := mocks.NewMockClock(ctrl)

	s := NewAutoReleaseSweeper(&AutoReleaseSweeperConfig{
		BatchSize:      10,
		WorkerPoolSize: 1,
	}, store.NewMemoryStore(), &fakeReleaser{done: make(chan struct{}), expect: -1}, &fakeExpirer{}, clock)

	assert.NoError(t, s.Stop(context.Background()))
}
