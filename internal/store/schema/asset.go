package schema

import (
	"time"

	"github.com/codeternalx123/agropulseAI/internal/domain"
)

// Asset represents the assets table - a tokenized commodity listing with an
// AI-derived quality grade and a reservable quantity
type Asset struct {
	// ID is the asset's UUID primary key
	ID string `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	// SellerID identifies the listing farmer
	SellerID string `gorm:"column:seller_id;not null;type:text;index:idx_assets_seller" json:"seller_id"`
	// FarmID identifies the originating farm (optional, links to market inventory)
	FarmID *string `gorm:"column:farm_id;type:text" json:"farm_id,omitempty"`
	// CropType is the commodity name (e.g., "maize", "avocado")
	CropType string `gorm:"column:crop_type;not null;type:text;index:idx_assets_crop_type" json:"crop_type"`
	// QuantityKG is the originally listed quantity
	QuantityKG float64 `gorm:"column:quantity_kg;not null" json:"quantity_kg"`
	// AvailableQuantityKG is the quantity not yet reserved by open transactions.
	// Only ReserveAssetQuantity/ReleaseAssetQuantity may change it.
	AvailableQuantityKG float64 `gorm:"column:available_quantity_kg;not null" json:"available_quantity_kg"`
	// UnitPrice is the price per kilogram
	UnitPrice float64 `gorm:"column:unit_price;not null" json:"unit_price"`
	// TotalValue is QuantityKG * UnitPrice at listing time
	TotalValue float64 `gorm:"column:total_value;not null" json:"total_value"`
	// QualityGrade is derived from the verification score and never set directly
	QualityGrade domain.QualityGrade `gorm:"column:quality_grade;not null;type:text;index:idx_assets_quality_grade" json:"quality_grade"`
	// VerificationScore is the AI confidence score the grade was derived from
	VerificationScore float64 `gorm:"column:verification_score;not null" json:"verification_score"`
	// VerificationReport holds the typed evidence backing the score
	VerificationReport *domain.VerificationReport `gorm:"column:verification_report;type:jsonb;serializer:json" json:"verification_report,omitempty"`
	// Status is the listing lifecycle state
	Status domain.AssetStatus `gorm:"column:status;not null;type:text;index:idx_assets_status_expires,priority:1" json:"status"`
	// ImageURLs are listing photos
	ImageURLs []string `gorm:"column:image_urls;type:jsonb;serializer:json" json:"image_urls"`
	// StorageLocation is where the produce is held pending delivery
	StorageLocation *string `gorm:"column:storage_location;type:text" json:"storage_location,omitempty"`
	// Latitude/Longitude locate the farm for radius search
	Latitude  *float64 `gorm:"column:latitude" json:"latitude,omitempty"`
	Longitude *float64 `gorm:"column:longitude" json:"longitude,omitempty"`
	// ListedAt is when the asset was published to the marketplace
	ListedAt *time.Time `gorm:"column:listed_at;type:timestamptz" json:"listed_at,omitempty"`
	// ExpiresAt is when an Active listing lapses if unsold
	ExpiresAt *time.Time `gorm:"column:expires_at;type:timestamptz;index:idx_assets_status_expires,priority:2" json:"expires_at,omitempty"`
	// CreatedAt is when the record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`
	// UpdatedAt is when the record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz" json:"updated_at"`
}

// TableName specifies the table name for the Asset model
func (Asset) TableName() string {
	return "assets"
}
