package schema

import (
	"time"

	"github.com/codeternalx123/agropulseAI/internal/domain"
)

// BuyerOrderStatus is the lifecycle state of a standing bulk order
type BuyerOrderStatus string

const (
	BuyerOrderStatusOpen      BuyerOrderStatus = "open"
	BuyerOrderStatusMatched   BuyerOrderStatus = "matched"
	BuyerOrderStatusFulfilled BuyerOrderStatus = "fulfilled"
	BuyerOrderStatusCancelled BuyerOrderStatus = "cancelled"
)

// BuyerOrder represents the buyer_orders table - a standing bulk purchase order
// matched against active listings
type BuyerOrder struct {
	// ID is the order's UUID primary key
	ID string `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	// BuyerID identifies the ordering party
	BuyerID string `gorm:"column:buyer_id;not null;type:text;index:idx_buyer_orders_buyer" json:"buyer_id"`
	// CropType is the requested commodity
	CropType string `gorm:"column:crop_type;not null;type:text;index:idx_buyer_orders_crop" json:"crop_type"`
	// QuantityKG is the requested quantity
	QuantityKG float64 `gorm:"column:quantity_kg;not null" json:"quantity_kg"`
	// MaxUnitPrice caps the acceptable per-kilogram price, nil for no cap
	MaxUnitPrice *float64 `gorm:"column:max_unit_price" json:"max_unit_price,omitempty"`
	// MinQualityGrade is the lowest acceptable grade, nil for any
	MinQualityGrade *domain.QualityGrade `gorm:"column:min_quality_grade;type:text" json:"min_quality_grade,omitempty"`
	// Status is the order lifecycle state
	Status BuyerOrderStatus `gorm:"column:status;not null;type:text;index:idx_buyer_orders_status" json:"status"`
	// MatchedAssetIDs are active listings matching the order at creation time
	MatchedAssetIDs []string `gorm:"column:matched_asset_ids;type:jsonb;serializer:json" json:"matched_asset_ids"`
	// CreatedAt is when the record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`
	// UpdatedAt is when the record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz" json:"updated_at"`
}

// TableName specifies the table name for the BuyerOrder model
func (BuyerOrder) TableName() string {
	return "buyer_orders"
}
