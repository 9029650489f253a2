package store

import (
	"context"
	"time"

	"github.com/codeternalx123/agropulseAI/internal/domain"
	"github.com/codeternalx123/agropulseAI/internal/store/schema"
)

// AssetFilter narrows ListActiveAssets results
type AssetFilter struct {
	CropType      *string
	QualityGrade  *domain.QualityGrade
	MaxUnitPrice  *float64
	MinQuantityKG *float64
	Near          *domain.GeoPoint
	RadiusKM      float64
	Limit         int
	Offset        int
}

// MarketplaceStats holds marketplace-wide aggregates
type MarketplaceStats struct {
	TotalAssets           int64                         `json:"total_assets"`
	ActiveAssets          int64                         `json:"active_assets"`
	TotalTransactions     int64                         `json:"total_transactions"`
	CompletedTransactions int64                         `json:"completed_transactions"`
	DisputedTransactions  int64                         `json:"disputed_transactions"`
	OpenDisputes          int64                         `json:"open_disputes"`
	TotalTradedValue      float64                       `json:"total_traded_value"`
	CompletionRate        float64                       `json:"completion_rate"`
	DisputeRate           float64                       `json:"dispute_rate"`
	GradeDistribution     map[domain.QualityGrade]int64 `json:"grade_distribution"`
}

// Store defines the interface for database operations.
//
// Atomic runs fn against a transaction-bound Store; row-locking reads
// (GetXxxForUpdate, ReserveAssetQuantity) are only meaningful inside Atomic.
// Every escrow state transition executes inside one Atomic call so a rejected
// operation mutates nothing.
type Store interface {
	// Atomic executes fn inside a single database transaction, rolling back if fn errors
	Atomic(ctx context.Context, fn func(Store) error) error

	// CreateAsset inserts a new asset
	CreateAsset(ctx context.Context, asset *schema.Asset) error
	// GetAsset retrieves an asset by id, (nil, nil) when absent
	GetAsset(ctx context.Context, id string) (*schema.Asset, error)
	// GetAssetForUpdate retrieves an asset by id with a row lock
	GetAssetForUpdate(ctx context.Context, id string) (*schema.Asset, error)
	// UpdateAsset persists all fields of an asset
	UpdateAsset(ctx context.Context, asset *schema.Asset) error
	// ListActiveAssets retrieves active listings matching the filter
	ListActiveAssets(ctx context.Context, filter AssetFilter) ([]*schema.Asset, error)
	// ReserveAssetQuantity atomically decrements available quantity on an active
	// asset, flipping it to InEscrow when fully reserved. Fails with
	// domain.ErrAssetNotFound, domain.ErrAssetUnavailable or
	// domain.ErrInsufficientQuantity; a failed reservation changes nothing.
	ReserveAssetQuantity(ctx context.Context, assetID string, quantityKG float64) (*schema.Asset, error)
	// ReleaseAssetQuantity atomically returns quantity to an asset, reverting
	// InEscrow/Sold back to Active
	ReleaseAssetQuantity(ctx context.Context, assetID string, quantityKG float64) (*schema.Asset, error)
	// ExpireActiveAssets cancels active listings whose expiry has passed
	ExpireActiveAssets(ctx context.Context, now time.Time) (int64, error)

	// CreateTransaction inserts a new transaction
	CreateTransaction(ctx context.Context, tx *schema.Transaction) error
	// GetTransaction retrieves a transaction by id, (nil, nil) when absent
	GetTransaction(ctx context.Context, id string) (*schema.Transaction, error)
	// GetTransactionForUpdate retrieves a transaction by id with a row lock
	GetTransactionForUpdate(ctx context.Context, id string) (*schema.Transaction, error)
	// UpdateTransaction persists all fields of a transaction
	UpdateTransaction(ctx context.Context, tx *schema.Transaction) error
	// ListTransactionsDueForRelease returns ids of transactions in the acceptance
	// window whose window end is at or before now and whose payout is unreleased
	ListTransactionsDueForRelease(ctx context.Context, now time.Time, limit int) ([]string, error)

	// CreateDispute inserts a new dispute
	CreateDispute(ctx context.Context, dispute *schema.Dispute) error
	// GetDispute retrieves a dispute by id, (nil, nil) when absent
	GetDispute(ctx context.Context, id string) (*schema.Dispute, error)
	// GetDisputeForUpdate retrieves a dispute by id with a row lock
	GetDisputeForUpdate(ctx context.Context, id string) (*schema.Dispute, error)
	// UpdateDispute persists all fields of a dispute
	UpdateDispute(ctx context.Context, dispute *schema.Dispute) error
	// GetOpenDisputeByTransaction returns the unresolved dispute for a
	// transaction, (nil, nil) when there is none
	GetOpenDisputeByTransaction(ctx context.Context, transactionID string) (*schema.Dispute, error)

	// UpsertMarketInventory creates or updates the (farm, crop) inventory row
	UpsertMarketInventory(ctx context.Context, inventory *schema.MarketInventory) error
	// GetMarketInventoryByFarm lists inventory rows for a farm
	GetMarketInventoryByFarm(ctx context.Context, farmID string) ([]*schema.MarketInventory, error)
	// CreateBuyerOrder inserts a new buyer order
	CreateBuyerOrder(ctx context.Context, order *schema.BuyerOrder) error
	// ListBuyerOrders lists orders placed by a buyer, newest first
	ListBuyerOrders(ctx context.Context, buyerID string) ([]*schema.BuyerOrder, error)

	// MarketplaceStats computes marketplace-wide aggregates
	MarketplaceStats(ctx context.Context) (*MarketplaceStats, error)
}
