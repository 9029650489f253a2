package schema

import (
	"time"

	"github.com/codeternalx123/agropulseAI/internal/domain"
)

// Transaction represents the transactions table - one escrowed trade of a
// quantity of an asset between a buyer and a seller
type Transaction struct {
	// ID is the transaction's UUID primary key
	ID string `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	// AssetID references the traded asset
	AssetID string `gorm:"column:asset_id;not null;type:uuid;index:idx_transactions_asset" json:"asset_id"`
	// BuyerID identifies the purchasing party
	BuyerID string `gorm:"column:buyer_id;not null;type:text;index:idx_transactions_buyer" json:"buyer_id"`
	// SellerID identifies the selling party (denormalized from the asset)
	SellerID string `gorm:"column:seller_id;not null;type:text;index:idx_transactions_seller" json:"seller_id"`
	// QuantityKG is the traded quantity, reserved from the asset at creation
	QuantityKG float64 `gorm:"column:quantity_kg;not null" json:"quantity_kg"`
	// UnitPrice is the per-kilogram price at creation time
	UnitPrice float64 `gorm:"column:unit_price;not null" json:"unit_price"`
	// TotalAmount is QuantityKG * UnitPrice
	TotalAmount float64 `gorm:"column:total_amount;not null" json:"total_amount"`
	// PlatformFee is the fixed-rate fee computed at creation
	PlatformFee float64 `gorm:"column:platform_fee;not null" json:"platform_fee"`
	// SellerPayout is TotalAmount - PlatformFee, adjusted by arbitration
	SellerPayout float64 `gorm:"column:seller_payout;not null" json:"seller_payout"`
	// BuyerRefund is the refunded amount set by arbitration (0 otherwise)
	BuyerRefund float64 `gorm:"column:buyer_refund;not null;default:0" json:"buyer_refund"`
	// PaymentMethod is how the buyer funds the escrow account
	PaymentMethod domain.PaymentMethod `gorm:"column:payment_method;not null;type:text" json:"payment_method"`
	// DeliveryTerms is the free-text delivery agreement
	DeliveryTerms *string `gorm:"column:delivery_terms;type:text" json:"delivery_terms,omitempty"`
	// EscrowAccountID is the platform-side account holding the locked funds
	EscrowAccountID string `gorm:"column:escrow_account_id;not null;type:text" json:"escrow_account_id"`
	// FundsLocked transitions false->true exactly once, at escrow_funds
	FundsLocked bool `gorm:"column:funds_locked;not null;default:false" json:"funds_locked"`
	// PaymentReference is the provider reference recorded when funds were locked
	PaymentReference *string `gorm:"column:payment_reference;type:text" json:"payment_reference,omitempty"`
	// DeliveryProof is the seller's proof of delivery
	DeliveryProof *domain.DeliveryProof `gorm:"column:delivery_proof;type:jsonb;serializer:json" json:"delivery_proof,omitempty"`
	// AcceptanceWindowStart/End bound the buyer's dispute window
	AcceptanceWindowStart *time.Time `gorm:"column:acceptance_window_start;type:timestamptz" json:"acceptance_window_start,omitempty"`
	AcceptanceWindowEnd   *time.Time `gorm:"column:acceptance_window_end;type:timestamptz;index:idx_transactions_status_window,priority:2" json:"acceptance_window_end,omitempty"`
	// Status is the escrow state machine state
	Status domain.TransactionStatus `gorm:"column:status;not null;type:text;index:idx_transactions_status_window,priority:1" json:"status"`
	// PayoutReleased is set in the same transaction as the terminal status, before
	// the gateway call. Guarantees funds are never released twice.
	PayoutReleased bool `gorm:"column:payout_released;not null;default:false" json:"payout_released"`
	// PayoutReference is the gateway receipt for the seller payout
	PayoutReference *string `gorm:"column:payout_reference;type:text" json:"payout_reference,omitempty"`
	// RefundReference is the gateway receipt for the buyer refund
	RefundReference *string `gorm:"column:refund_reference;type:text" json:"refund_reference,omitempty"`
	// ReleaseReason records how the payout was triggered
	ReleaseReason *domain.ReleaseReason `gorm:"column:release_reason;type:text" json:"release_reason,omitempty"`
	// CompletedAt is when the transaction reached a terminal state
	CompletedAt *time.Time `gorm:"column:completed_at;type:timestamptz" json:"completed_at,omitempty"`
	// CreatedAt is when the record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`
	// UpdatedAt is when the record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz" json:"updated_at"`
}

// TableName specifies the table name for the Transaction model
func (Transaction) TableName() string {
	return "transactions"
}
