package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codeternalx123/agropulseAI/internal/domain"
	"github.com/codeternalx123/agropulseAI/internal/store/schema"
)

type pgStore struct {
	db *gorm.DB
}

// NewPGStore creates a new PostgreSQL store instance
func NewPGStore(db *gorm.DB) Store {
	return &pgStore{db: db}
}

// ConfigureConnectionPool configures the connection pool settings for a GORM database connection.
// If any of the pool settings are 0, reasonable defaults are used:
//   - MaxOpenConns: 20 (if 0)
//   - MaxIdleConns: 5 (if 0)
//   - ConnMaxLifetime: 5 minutes (if 0)
//   - ConnMaxIdleTime: 10 minutes (if 0)
func ConfigureConnectionPool(db *gorm.DB, maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime =
		NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime)

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(connMaxLifetime)
	sqlDB.SetConnMaxIdleTime(connMaxIdleTime)

	return nil
}

// NormalizeConnectionPoolSettings applies defaults and clamps pool settings into safe values.
//
// Notes:
//   - database/sql treats MaxOpenConns=0 as "unlimited"
//   - database/sql treats MaxIdleConns=0 as "no idle connections"
func NormalizeConnectionPoolSettings(maxOpenConns, maxIdleConns int, connMaxLifetime, connMaxIdleTime time.Duration) (int, int, time.Duration, time.Duration) {
	if maxOpenConns == 0 {
		maxOpenConns = 20
	}
	if maxIdleConns == 0 {
		maxIdleConns = 5
	}
	if connMaxLifetime == 0 {
		connMaxLifetime = 5 * time.Minute
	}
	if connMaxIdleTime == 0 {
		connMaxIdleTime = 10 * time.Minute
	}

	// Ensure MaxIdleConns doesn't exceed MaxOpenConns
	if maxIdleConns > maxOpenConns {
		maxIdleConns = maxOpenConns
	}

	return maxOpenConns, maxIdleConns, connMaxLifetime, connMaxIdleTime
}

// Atomic executes fn inside a single database transaction
func (s *pgStore) Atomic(ctx context.Context, fn func(Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&pgStore{db: tx})
	})
}

// CreateAsset inserts a new asset
func (s *pgStore) CreateAsset(ctx context.Context, asset *schema.Asset) error {
	if err := s.db.WithContext(ctx).Create(asset).Error; err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

// GetAsset retrieves an asset by id
func (s *pgStore) GetAsset(ctx context.Context, id string) (*schema.Asset, error) {
	var asset schema.Asset
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return &asset, nil
}

// GetAssetForUpdate retrieves an asset by id with a row lock
func (s *pgStore) GetAssetForUpdate(ctx context.Context, id string) (*schema.Asset, error) {
	var asset schema.Asset
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&asset).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get asset for update: %w", err)
	}
	return &asset, nil
}

// UpdateAsset persists all fields of an asset
func (s *pgStore) UpdateAsset(ctx context.Context, asset *schema.Asset) error {
	asset.UpdatedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Save(asset).Error; err != nil {
		return fmt.Errorf("failed to update asset: %w", err)
	}
	return nil
}

// ListActiveAssets retrieves active listings matching the filter
func (s *pgStore) ListActiveAssets(ctx context.Context, filter AssetFilter) ([]*schema.Asset, error) {
	q := s.db.WithContext(ctx).
		Model(&schema.Asset{}).
		Where("status = ?", domain.AssetStatusActive)

	if filter.CropType != nil {
		q = q.Where("crop_type = ?", *filter.CropType)
	}
	if filter.QualityGrade != nil {
		q = q.Where("quality_grade = ?", *filter.QualityGrade)
	}
	if filter.MaxUnitPrice != nil {
		q = q.Where("unit_price <= ?", *filter.MaxUnitPrice)
	}
	if filter.MinQuantityKG != nil {
		q = q.Where("available_quantity_kg >= ?", *filter.MinQuantityKG)
	}
	if filter.Near != nil && filter.RadiusKM > 0 {
		// Haversine distance in kilometers
		q = q.Where(
			"latitude IS NOT NULL AND longitude IS NOT NULL AND "+
				"2 * 6371 * asin(sqrt("+
				"power(sin(radians(latitude - ?) / 2), 2) + "+
				"cos(radians(?)) * cos(radians(latitude)) * "+
				"power(sin(radians(longitude - ?) / 2), 2))) <= ?",
			filter.Near.Latitude, filter.Near.Latitude, filter.Near.Longitude, filter.RadiusKM,
		)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	q = q.Order("listed_at DESC NULLS LAST").Limit(limit).Offset(filter.Offset)

	var assets []*schema.Asset
	if err := q.Find(&assets).Error; err != nil {
		return nil, fmt.Errorf("failed to list active assets: %w", err)
	}
	return assets, nil
}

// ReserveAssetQuantity atomically decrements available quantity on an active asset.
// A single conditional UPDATE performs the check-and-decrement so concurrent
// buyers cannot jointly oversell; the losing reservation matches zero rows.
func (s *pgStore) ReserveAssetQuantity(ctx context.Context, assetID string, quantityKG float64) (*schema.Asset, error) {
	res := s.db.WithContext(ctx).
		Model(&schema.Asset{}).
		Where("id = ? AND status = ? AND available_quantity_kg >= ?",
			assetID, domain.AssetStatusActive, quantityKG).
		Updates(map[string]interface{}{
			"available_quantity_kg": gorm.Expr("available_quantity_kg - ?", quantityKG),
			"status": gorm.Expr("CASE WHEN available_quantity_kg - ? <= 0 THEN ? ELSE status END",
				quantityKG, domain.AssetStatusInEscrow),
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to reserve asset quantity: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		// Classify the rejection from the current row state
		asset, err := s.GetAssetForUpdate(ctx, assetID)
		if err != nil {
			return nil, err
		}
		if asset == nil {
			return nil, domain.ErrAssetNotFound
		}
		if asset.Status != domain.AssetStatusActive {
			return nil, domain.NewStateError(domain.ErrAssetUnavailable, string(asset.Status))
		}
		return nil, domain.NewStateError(domain.ErrInsufficientQuantity,
			fmt.Sprintf("available=%.2fkg", asset.AvailableQuantityKG))
	}

	return s.GetAsset(ctx, assetID)
}

// ReleaseAssetQuantity atomically returns quantity to an asset
func (s *pgStore) ReleaseAssetQuantity(ctx context.Context, assetID string, quantityKG float64) (*schema.Asset, error) {
	asset, err := s.GetAssetForUpdate(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, domain.ErrAssetNotFound
	}

	asset.AvailableQuantityKG += quantityKG
	if asset.AvailableQuantityKG > asset.QuantityKG {
		asset.AvailableQuantityKG = asset.QuantityKG
	}
	if asset.Status == domain.AssetStatusInEscrow || asset.Status == domain.AssetStatusSold {
		asset.Status = domain.AssetStatusActive
	}

	if err := s.UpdateAsset(ctx, asset); err != nil {
		return nil, err
	}
	return asset, nil
}

// ExpireActiveAssets cancels active listings whose expiry has passed
func (s *pgStore) ExpireActiveAssets(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).
		Model(&schema.Asset{}).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", domain.AssetStatusActive, now).
		Updates(map[string]interface{}{
			"status":     domain.AssetStatusCancelled,
			"updated_at": now.UTC(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to expire active assets: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// CreateTransaction inserts a new transaction
func (s *pgStore) CreateTransaction(ctx context.Context, tx *schema.Transaction) error {
	if err := s.db.WithContext(ctx).Create(tx).Error; err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	return nil
}

// GetTransaction retrieves a transaction by id
func (s *pgStore) GetTransaction(ctx context.Context, id string) (*schema.Transaction, error) {
	var tx schema.Transaction
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return &tx, nil
}

// GetTransactionForUpdate retrieves a transaction by id with a row lock.
// The lock serializes racing transitions (buyer_accept vs auto_release,
// dispute opening vs auto_release) on the same transaction.
func (s *pgStore) GetTransactionForUpdate(ctx context.Context, id string) (*schema.Transaction, error) {
	var tx schema.Transaction
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&tx).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get transaction for update: %w", err)
	}
	return &tx, nil
}

// UpdateTransaction persists all fields of a transaction
func (s *pgStore) UpdateTransaction(ctx context.Context, tx *schema.Transaction) error {
	tx.UpdatedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Save(tx).Error; err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// ListTransactionsDueForRelease returns ids of transactions due for auto-release
func (s *pgStore) ListTransactionsDueForRelease(ctx context.Context, now time.Time, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}

	var ids []string
	err := s.db.WithContext(ctx).
		Model(&schema.Transaction{}).
		Where("status = ? AND acceptance_window_end <= ? AND payout_released = ?",
			domain.TransactionStatusInAcceptanceWindow, now, false).
		Order("acceptance_window_end ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions due for release: %w", err)
	}
	return ids, nil
}

// CreateDispute inserts a new dispute
func (s *pgStore) CreateDispute(ctx context.Context, dispute *schema.Dispute) error {
	if err := s.db.WithContext(ctx).Create(dispute).Error; err != nil {
		return fmt.Errorf("failed to create dispute: %w", err)
	}
	return nil
}

// GetDispute retrieves a dispute by id
func (s *pgStore) GetDispute(ctx context.Context, id string) (*schema.Dispute, error) {
	var dispute schema.Dispute
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&dispute).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get dispute: %w", err)
	}
	return &dispute, nil
}

// GetDisputeForUpdate retrieves a dispute by id with a row lock
func (s *pgStore) GetDisputeForUpdate(ctx context.Context, id string) (*schema.Dispute, error) {
	var dispute schema.Dispute
	err := s.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&dispute).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get dispute for update: %w", err)
	}
	return &dispute, nil
}

// UpdateDispute persists all fields of a dispute
func (s *pgStore) UpdateDispute(ctx context.Context, dispute *schema.Dispute) error {
	dispute.UpdatedAt = time.Now().UTC()
	if err := s.db.WithContext(ctx).Save(dispute).Error; err != nil {
		return fmt.Errorf("failed to update dispute: %w", err)
	}
	return nil
}

// GetOpenDisputeByTransaction returns the unresolved dispute for a transaction
func (s *pgStore) GetOpenDisputeByTransaction(ctx context.Context, transactionID string) (*schema.Dispute, error) {
	var dispute schema.Dispute
	err := s.db.WithContext(ctx).
		Where("transaction_id = ? AND status <> ?", transactionID, domain.DisputeStatusResolved).
		First(&dispute).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get open dispute: %w", err)
	}
	return &dispute, nil
}

// UpsertMarketInventory creates or updates the (farm, crop) inventory row
func (s *pgStore) UpsertMarketInventory(ctx context.Context, inventory *schema.MarketInventory) error {
	inventory.UpdatedAt = time.Now().UTC()
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "farm_id"}, {Name: "crop_type"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"total_quantity_kg", "listed_quantity_kg", "sold_quantity_kg",
				"linked_asset_id", "updated_at",
			}),
		}).
		Create(inventory).Error
	if err != nil {
		return fmt.Errorf("failed to upsert market inventory: %w", err)
	}
	return nil
}

// GetMarketInventoryByFarm lists inventory rows for a farm
func (s *pgStore) GetMarketInventoryByFarm(ctx context.Context, farmID string) ([]*schema.MarketInventory, error) {
	var rows []*schema.MarketInventory
	err := s.db.WithContext(ctx).
		Where("farm_id = ?", farmID).
		Order("crop_type ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to get market inventory: %w", err)
	}
	return rows, nil
}

// CreateBuyerOrder inserts a new buyer order
func (s *pgStore) CreateBuyerOrder(ctx context.Context, order *schema.BuyerOrder) error {
	if err := s.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("failed to create buyer order: %w", err)
	}
	return nil
}

// ListBuyerOrders lists orders placed by a buyer, newest first
func (s *pgStore) ListBuyerOrders(ctx context.Context, buyerID string) ([]*schema.BuyerOrder, error) {
	var orders []*schema.BuyerOrder
	err := s.db.WithContext(ctx).
		Where("buyer_id = ?", buyerID).
		Order("created_at DESC").
		Find(&orders).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list buyer orders: %w", err)
	}
	return orders, nil
}

// MarketplaceStats computes marketplace-wide aggregates
func (s *pgStore) MarketplaceStats(ctx context.Context) (*MarketplaceStats, error) {
	stats := &MarketplaceStats{
		GradeDistribution: make(map[domain.QualityGrade]int64),
	}

	db := s.db.WithContext(ctx)

	if err := db.Model(&schema.Asset{}).Count(&stats.TotalAssets).Error; err != nil {
		return nil, fmt.Errorf("failed to count assets: %w", err)
	}
	if err := db.Model(&schema.Asset{}).
		Where("status = ?", domain.AssetStatusActive).
		Count(&stats.ActiveAssets).Error; err != nil {
		return nil, fmt.Errorf("failed to count active assets: %w", err)
	}
	if err := db.Model(&schema.Transaction{}).Count(&stats.TotalTransactions).Error; err != nil {
		return nil, fmt.Errorf("failed to count transactions: %w", err)
	}
	if err := db.Model(&schema.Transaction{}).
		Where("status = ?", domain.TransactionStatusCompleted).
		Count(&stats.CompletedTransactions).Error; err != nil {
		return nil, fmt.Errorf("failed to count completed transactions: %w", err)
	}
	if err := db.Model(&schema.Transaction{}).
		Where("status = ?", domain.TransactionStatusDisputed).
		Count(&stats.DisputedTransactions).Error; err != nil {
		return nil, fmt.Errorf("failed to count disputed transactions: %w", err)
	}
	if err := db.Model(&schema.Dispute{}).
		Where("status <> ?", domain.DisputeStatusResolved).
		Count(&stats.OpenDisputes).Error; err != nil {
		return nil, fmt.Errorf("failed to count open disputes: %w", err)
	}

	var totalValue *float64
	if err := db.Model(&schema.Transaction{}).
		Where("status = ?", domain.TransactionStatusCompleted).
		Select("SUM(total_amount)").
		Scan(&totalValue).Error; err != nil {
		return nil, fmt.Errorf("failed to sum traded value: %w", err)
	}
	if totalValue != nil {
		stats.TotalTradedValue = *totalValue
	}

	type gradeCount struct {
		QualityGrade domain.QualityGrade
		Count        int64
	}
	var grades []gradeCount
	if err := db.Model(&schema.Asset{}).
		Select("quality_grade, COUNT(*) AS count").
		Group("quality_grade").
		Scan(&grades).Error; err != nil {
		return nil, fmt.Errorf("failed to compute grade distribution: %w", err)
	}
	for _, g := range grades {
		stats.GradeDistribution[g.QualityGrade] = g.Count
	}

	if stats.TotalTransactions > 0 {
		stats.CompletionRate = float64(stats.CompletedTransactions) / float64(stats.TotalTransactions)
		stats.DisputeRate = float64(stats.DisputedTransactions) / float64(stats.TotalTransactions)
	}

	return stats, nil
}
