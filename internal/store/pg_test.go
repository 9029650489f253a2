package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/codeternalx123/agropulseAI/internal/domain"
	"github.com/codeternalx123/agropulseAI/internal/store/schema"
)

var (
	testDB      *gorm.DB
	pgContainer *postgres.PostgresContainer
)

// TestMain sets up the test database before running tests
func TestMain(m *testing.M) {
	ctx := context.Background()

	// Check if we should use an external database (for CI or local development)
	dbHost := os.Getenv("TEST_DB_HOST")
	dbPort := os.Getenv("TEST_DB_PORT")
	dbUser := os.Getenv("TEST_DB_USER")
	dbPassword := os.Getenv("TEST_DB_PASSWORD")
	dbName := os.Getenv("TEST_DB_NAME")

	var dsn string
	var err error

	if dbHost != "" {
		// Use external database
		if dbPort == "" {
			dbPort = "5432"
		}
		if dbUser == "" {
			dbUser = "postgres"
		}
		if dbPassword == "" {
			dbPassword = "postgres"
		}
		if dbName == "" {
			dbName = "test_db"
		}

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
			dbHost, dbPort, dbUser, dbPassword, dbName)

		fmt.Printf("Using external database: %s:%s/%s\n", dbHost, dbPort, dbName)
	} else {
		// Start a PostgreSQL container for testing
		pgContainer, err = postgres.Run(ctx,
			"postgres:18-alpine",
			postgres.WithDatabase("test_db"),
			postgres.WithUsername("postgres"),
			postgres.WithPassword("postgres"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		if err != nil {
			fmt.Printf("Failed to start PostgreSQL container: %v\n", err)
			os.Exit(1)
		}

		dsn, err = pgContainer.ConnectionString(ctx, "sslmode=disable")
		if err != nil {
			fmt.Printf("Failed to get connection string: %v\n", err)
			terminateContainer(ctx)
			os.Exit(1)
		}

		fmt.Printf("Started PostgreSQL container\n")
	}

	// Connect to the database
	testDB, err = gorm.Open(pgdriver.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		fmt.Printf("Failed to connect to database: %v\n", err)
		terminateContainer(ctx)
		os.Exit(1)
	}

	// Initialize the database schema
	if err := initializeTestDatabase(testDB); err != nil {
		fmt.Printf("Failed to initialize database: %v\n", err)
		terminateContainer(ctx)
		os.Exit(1)
	}

	// Run tests
	code := m.Run()

	terminateContainer(ctx)
	os.Exit(code)
}

func terminateContainer(ctx context.Context) {
	if pgContainer != nil {
		if err := pgContainer.Terminate(ctx); err != nil {
			fmt.Printf("Failed to terminate PostgreSQL container: %v\n", err)
		}
	}
}

// initializeTestDatabase runs the schema initialization SQL
func initializeTestDatabase(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	schemaPath := filepath.Join("..", "..", "db", "init_pg_db.sql")
	schemaSQL, err := os.ReadFile(schemaPath) //nolint:gosec,G304
	if err != nil {
		return fmt.Errorf("failed to read schema file: %w", err)
	}

	if _, err := sqlDB.Exec(string(schemaSQL)); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}

	return nil
}

// initPGTestDB initializes a transaction-isolated store for each test
func initPGTestDB(t *testing.T) Store {
	tx := testDB.Begin()
	require.NotNil(t, tx)
	require.NoError(t, tx.Error)

	t.Cleanup(func() {
		tx.Rollback()
	})

	return NewPGStore(tx)
}

func seedActiveAsset(t *testing.T, s Store, quantityKG, unitPrice float64) *schema.Asset {
	now := time.Now().UTC()
	asset := &schema.Asset{
		ID:                  uuid.NewString(),
		SellerID:            "seller-1",
		CropType:            "maize",
		QuantityKG:          quantityKG,
		AvailableQuantityKG: quantityKG,
		UnitPrice:           unitPrice,
		TotalValue:          quantityKG * unitPrice,
		QualityGrade:        domain.GradePremium,
		VerificationScore:   93,
		Status:              domain.AssetStatusActive,
		ListedAt:            &now,
	}
	require.NoError(t, s.CreateAsset(context.Background(), asset))
	return asset
}

func seedTransaction(t *testing.T, s Store, asset *schema.Asset, status domain.TransactionStatus, windowEnd *time.Time) *schema.Transaction {
	tx := &schema.Transaction{
		ID:                  uuid.NewString(),
		AssetID:             asset.ID,
		BuyerID:             "buyer-1",
		SellerID:            asset.SellerID,
		QuantityKG:          100,
		UnitPrice:           asset.UnitPrice,
		TotalAmount:         100 * asset.UnitPrice,
		PlatformFee:         2 * asset.UnitPrice,
		SellerPayout:        98 * asset.UnitPrice,
		PaymentMethod:       domain.PaymentMethodMpesa,
		EscrowAccountID:     "ESC-TEST",
		Status:              status,
		AcceptanceWindowEnd: windowEnd,
	}
	require.NoError(t, s.CreateTransaction(context.Background(), tx))
	return tx
}

func TestPGStore_ReserveAssetQuantity(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	asset := seedActiveAsset(t, s, 1000, 40)

	updated, err := s.ReserveAssetQuantity(ctx, asset.ID, 600)
	require.NoError(t, err)
	assert.Equal(t, 400.0, updated.AvailableQuantityKG)
	assert.Equal(t, domain.AssetStatusActive, updated.Status)

	// Over-reservation fails without mutating anything
	_, err = s.ReserveAssetQuantity(ctx, asset.ID, 500)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)
	assert.Equal(t, "available=400.00kg", domain.CurrentState(err))

	after, err := s.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, 400.0, after.AvailableQuantityKG)

	// Reserving the remainder flips the asset to InEscrow
	updated, err = s.ReserveAssetQuantity(ctx, asset.ID, 400)
	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.AvailableQuantityKG)
	assert.Equal(t, domain.AssetStatusInEscrow, updated.Status)

	// Nothing left to reserve
	_, err = s.ReserveAssetQuantity(ctx, asset.ID, 1)
	assert.ErrorIs(t, err, domain.ErrAssetUnavailable)
}

func TestPGStore_ReserveAssetQuantity_NotFound(t *testing.T) {
	s := initPGTestDB(t)

	_, err := s.ReserveAssetQuantity(context.Background(), uuid.NewString(), 10)
	assert.ErrorIs(t, err, domain.ErrAssetNotFound)
}

func TestPGStore_ReleaseAssetQuantity(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	asset := seedActiveAsset(t, s, 500, 25)
	_, err := s.ReserveAssetQuantity(ctx, asset.ID, 500)
	require.NoError(t, err)

	restored, err := s.ReleaseAssetQuantity(ctx, asset.ID, 500)
	require.NoError(t, err)
	assert.Equal(t, 500.0, restored.AvailableQuantityKG)
	assert.Equal(t, domain.AssetStatusActive, restored.Status)

	// Release never exceeds the originally listed quantity
	restored, err = s.ReleaseAssetQuantity(ctx, asset.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, 500.0, restored.AvailableQuantityKG)
}

func TestPGStore_ExpireActiveAssets(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	expired := seedActiveAsset(t, s, 100, 10)
	expired.ExpiresAt = &past
	require.NoError(t, s.UpdateAsset(ctx, expired))

	fresh := seedActiveAsset(t, s, 100, 10)
	fresh.ExpiresAt = &future
	require.NoError(t, s.UpdateAsset(ctx, fresh))

	count, err := s.ExpireActiveAssets(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := s.GetAsset(ctx, expired.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusCancelled, got.Status)

	got, err = s.GetAsset(ctx, fresh.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AssetStatusActive, got.Status)
}

func TestPGStore_ListTransactionsDueForRelease(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	now := time.Now().UTC()
	expired := now.Add(-time.Hour)
	open := now.Add(time.Hour)

	asset := seedActiveAsset(t, s, 1000, 40)
	due := seedTransaction(t, s, asset, domain.TransactionStatusInAcceptanceWindow, &expired)
	seedTransaction(t, s, asset, domain.TransactionStatusInAcceptanceWindow, &open)
	seedTransaction(t, s, asset, domain.TransactionStatusFundsEscrowed, &expired)

	released := seedTransaction(t, s, asset, domain.TransactionStatusInAcceptanceWindow, &expired)
	released.PayoutReleased = true
	require.NoError(t, s.UpdateTransaction(ctx, released))

	ids, err := s.ListTransactionsDueForRelease(ctx, now, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{due.ID}, ids)
}

func TestPGStore_GetOpenDisputeByTransaction(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	asset := seedActiveAsset(t, s, 1000, 40)
	tx := seedTransaction(t, s, asset, domain.TransactionStatusDisputed, nil)

	none, err := s.GetOpenDisputeByTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Nil(t, none)

	dispute := &schema.Dispute{
		ID:             uuid.NewString(),
		TransactionID:  tx.ID,
		RaisedBy:       domain.PartyBuyer,
		RaisedByUserID: "buyer-1",
		Category:       domain.DisputeCategoryQuality,
		Status:         domain.DisputeStatusOpen,
		EvidenceSnapshot: domain.EvidenceSnapshot{
			VerificationScore: 93,
			QualityGrade:      domain.GradePremium,
			SnapshotAt:        time.Now().UTC(),
		},
	}
	require.NoError(t, s.CreateDispute(ctx, dispute))

	found, err := s.GetOpenDisputeByTransaction(ctx, tx.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, dispute.ID, found.ID)
	assert.Equal(t, 93.0, found.EvidenceSnapshot.VerificationScore)

	// Resolved disputes no longer block
	found.Status = domain.DisputeStatusResolved
	require.NoError(t, s.UpdateDispute(ctx, found))

	none, err = s.GetOpenDisputeByTransaction(ctx, tx.ID)
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestPGStore_Atomic_RollsBackOnError(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	asset := seedActiveAsset(t, s, 1000, 40)

	err := s.Atomic(ctx, func(txStore Store) error {
		if _, err := txStore.ReserveAssetQuantity(ctx, asset.ID, 600); err != nil {
			return err
		}
		return fmt.Errorf("forced failure")
	})
	require.Error(t, err)

	after, err := s.GetAsset(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, 1000.0, after.AvailableQuantityKG)
}

func TestPGStore_UpsertMarketInventory(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	inv := &schema.MarketInventory{
		ID:              uuid.NewString(),
		FarmID:          "farm-9",
		CropType:        "avocado",
		TotalQuantityKG: 800,
	}
	require.NoError(t, s.UpsertMarketInventory(ctx, inv))

	// Second upsert for the same (farm, crop) updates in place
	inv2 := &schema.MarketInventory{
		ID:               uuid.NewString(),
		FarmID:           "farm-9",
		CropType:         "avocado",
		TotalQuantityKG:  900,
		ListedQuantityKG: 300,
	}
	require.NoError(t, s.UpsertMarketInventory(ctx, inv2))

	rows, err := s.GetMarketInventoryByFarm(ctx, "farm-9")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 900.0, rows[0].TotalQuantityKG)
	assert.Equal(t, 300.0, rows[0].ListedQuantityKG)
}

func TestPGStore_MarketplaceStats(t *testing.T) {
	s := initPGTestDB(t)
	ctx := context.Background()

	asset := seedActiveAsset(t, s, 1000, 40)

	completed := seedTransaction(t, s, asset, domain.TransactionStatusCompleted, nil)
	seedTransaction(t, s, asset, domain.TransactionStatusDisputed, nil)

	stats, err := s.MarketplaceStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.TotalAssets)
	assert.Equal(t, int64(1), stats.ActiveAssets)
	assert.Equal(t, int64(2), stats.TotalTransactions)
	assert.Equal(t, int64(1), stats.CompletedTransactions)
	assert.Equal(t, int64(1), stats.DisputedTransactions)
	assert.Equal(t, completed.TotalAmount, stats.TotalTradedValue)
	assert.Equal(t, 0.5, stats.CompletionRate)
	assert.Equal(t, int64(1), stats.GradeDistribution[domain.GradePremium])
}
