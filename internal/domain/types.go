package domain

import "time"

// AssetStatus represents the lifecycle state of a listed commodity
type AssetStatus string

const (
	// AssetStatusDraft represents an asset that has been graded but not yet listed
	AssetStatusDraft AssetStatus = "draft"
	// AssetStatusActive represents an asset available for purchase
	AssetStatusActive AssetStatus = "active"
	// AssetStatusInEscrow represents an asset whose full quantity is reserved by open transactions
	AssetStatusInEscrow AssetStatus = "in_escrow"
	// AssetStatusSold represents an asset fully sold and settled
	AssetStatusSold AssetStatus = "sold"
	// AssetStatusCancelled represents a delisted or expired asset
	AssetStatusCancelled AssetStatus = "cancelled"
)

// QualityGrade is the tiered classification derived from the AI verification score
type QualityGrade string

const (
	GradePremium  QualityGrade = "premium"
	GradeStandard QualityGrade = "standard"
	GradeBasic    QualityGrade = "basic"
)

// GradeRank orders grades for minimum-grade filtering; higher is better
func GradeRank(g QualityGrade) int {
	switch g {
	case GradePremium:
		return 3
	case GradeStandard:
		return 2
	case GradeBasic:
		return 1
	}
	return 0
}

// Verification score thresholds for grade derivation
const (
	PremiumScoreThreshold  = 90.0
	StandardScoreThreshold = 60.0
)

// GradeForScore derives the quality grade from a verification score
func GradeForScore(score float64) QualityGrade {
	switch {
	case score >= PremiumScoreThreshold:
		return GradePremium
	case score >= StandardScoreThreshold:
		return GradeStandard
	default:
		return GradeBasic
	}
}

// TransactionStatus represents the escrow state machine states
type TransactionStatus string

const (
	// TransactionStatusPending represents a created transaction with quantity reserved but no funds locked
	TransactionStatusPending TransactionStatus = "pending"
	// TransactionStatusFundsEscrowed represents a transaction whose buyer funds are locked in escrow
	TransactionStatusFundsEscrowed TransactionStatus = "funds_escrowed"
	// TransactionStatusDeliveryProofSubmitted represents a transaction with delivery proof recorded
	TransactionStatusDeliveryProofSubmitted TransactionStatus = "delivery_proof_submitted"
	// TransactionStatusInAcceptanceWindow represents a transaction inside the buyer acceptance window
	TransactionStatusInAcceptanceWindow TransactionStatus = "in_acceptance_window"
	// TransactionStatusCompleted represents a settled transaction with the seller paid out
	TransactionStatusCompleted TransactionStatus = "completed"
	// TransactionStatusDisputed represents a transaction frozen by an open dispute
	TransactionStatusDisputed TransactionStatus = "disputed"
	// TransactionStatusRefunded represents a transaction fully refunded to the buyer
	TransactionStatusRefunded TransactionStatus = "refunded"
)

// Terminal reports whether the status is a terminal state of the escrow state machine
func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusCompleted || s == TransactionStatusRefunded
}

// Disputable reports whether a dispute may be opened against a transaction in this status
func (s TransactionStatus) Disputable() bool {
	return s == TransactionStatusDeliveryProofSubmitted || s == TransactionStatusInAcceptanceWindow
}

// PaymentMethod identifies how the buyer funded the escrow account
type PaymentMethod string

const (
	PaymentMethodMpesa        PaymentMethod = "mpesa"
	PaymentMethodBankTransfer PaymentMethod = "bank_transfer"
	PaymentMethodEscrowWallet PaymentMethod = "escrow_wallet"
)

// IsValidPaymentMethod checks if a payment method is supported
func IsValidPaymentMethod(m PaymentMethod) bool {
	return m == PaymentMethodMpesa || m == PaymentMethodBankTransfer || m == PaymentMethodEscrowWallet
}

// Party identifies which side of a transaction performed an action
type Party string

const (
	PartyBuyer  Party = "buyer"
	PartySeller Party = "seller"
)

// IsValidParty checks if a party value is known
func IsValidParty(p Party) bool {
	return p == PartyBuyer || p == PartySeller
}

// DisputeStatus represents the dispute lifecycle state
type DisputeStatus string

const (
	DisputeStatusOpen        DisputeStatus = "open"
	DisputeStatusUnderReview DisputeStatus = "under_review"
	DisputeStatusResolved    DisputeStatus = "resolved"
)

// DisputeCategory classifies the grounds for a dispute
type DisputeCategory string

const (
	DisputeCategoryQuality     DisputeCategory = "quality_mismatch"
	DisputeCategoryQuantity    DisputeCategory = "quantity_shortfall"
	DisputeCategorySpoilage    DisputeCategory = "spoilage"
	DisputeCategoryNonDelivery DisputeCategory = "non_delivery"
	DisputeCategoryOther       DisputeCategory = "other"
)

// IsValidDisputeCategory checks if a dispute category is known
func IsValidDisputeCategory(c DisputeCategory) bool {
	switch c {
	case DisputeCategoryQuality, DisputeCategoryQuantity, DisputeCategorySpoilage,
		DisputeCategoryNonDelivery, DisputeCategoryOther:
		return true
	}
	return false
}

// ReleaseReason records why escrowed funds were released to the seller
type ReleaseReason string

const (
	ReleaseReasonBuyerAccept ReleaseReason = "buyer_accept"
	ReleaseReasonAutoRelease ReleaseReason = "auto_release"
	ReleaseReasonArbitration ReleaseReason = "arbitration"
)

// DeliveryProof holds the evidence a seller submits to prove delivery
type DeliveryProof struct {
	ImageURLs   []string   `json:"image_urls"`
	Signature   *string    `json:"signature,omitempty"`
	SubmittedAt time.Time  `json:"submitted_at"`
	Note        *string    `json:"note,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`
}

// PayoutSplit is the money breakdown of a settled transaction
type PayoutSplit struct {
	TotalAmount  float64 `json:"total_amount"`
	PlatformFee  float64 `json:"platform_fee"`
	SellerPayout float64 `json:"seller_payout"`
	BuyerRefund  float64 `json:"buyer_refund"`
}

// GeoPoint is a WGS84 coordinate used for radius filtering of listings
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}
