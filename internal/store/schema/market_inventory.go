package schema

import (
	"time"
)

// MarketInventory represents the market_inventory table - a per-farm, per-crop
// stock aggregate kept in sync as listings are created and settled
type MarketInventory struct {
	// ID is the inventory row's UUID primary key
	ID string `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	// FarmID identifies the farm holding the stock
	FarmID string `gorm:"column:farm_id;not null;type:text;uniqueIndex:idx_inventory_farm_crop,priority:1" json:"farm_id"`
	// CropType is the commodity name
	CropType string `gorm:"column:crop_type;not null;type:text;uniqueIndex:idx_inventory_farm_crop,priority:2" json:"crop_type"`
	// TotalQuantityKG is the stock reported by the farm
	TotalQuantityKG float64 `gorm:"column:total_quantity_kg;not null" json:"total_quantity_kg"`
	// ListedQuantityKG is the portion currently listed on the marketplace
	ListedQuantityKG float64 `gorm:"column:listed_quantity_kg;not null;default:0" json:"listed_quantity_kg"`
	// SoldQuantityKG is the portion sold through settled transactions
	SoldQuantityKG float64 `gorm:"column:sold_quantity_kg;not null;default:0" json:"sold_quantity_kg"`
	// LinkedAssetID is the most recent listing created from this inventory
	LinkedAssetID *string `gorm:"column:linked_asset_id;type:uuid" json:"linked_asset_id,omitempty"`
	// CreatedAt is when the record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`
	// UpdatedAt is when the record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz" json:"updated_at"`
}

// TableName specifies the table name for the MarketInventory model
func (MarketInventory) TableName() string {
	return "market_inventory"
}
