package schema

import (
	"time"

	"github.com/codeternalx123/agropulseAI/internal/domain"
)

// Dispute represents the disputes table - one arbitration case against a transaction.
// At most one unresolved dispute may exist per transaction.
type Dispute struct {
	// ID is the dispute's UUID primary key
	ID string `gorm:"column:id;primaryKey;type:uuid" json:"id"`
	// TransactionID references the frozen transaction
	TransactionID string `gorm:"column:transaction_id;not null;type:uuid;index:idx_disputes_transaction" json:"transaction_id"`
	// RaisedBy identifies which side opened the dispute
	RaisedBy domain.Party `gorm:"column:raised_by;not null;type:text" json:"raised_by"`
	// RaisedByUserID is the user id of the opener
	RaisedByUserID string `gorm:"column:raised_by_user_id;not null;type:text" json:"raised_by_user_id"`
	// Category classifies the grounds for the dispute
	Category domain.DisputeCategory `gorm:"column:category;not null;type:text" json:"category"`
	// Description is the opener's free-text account
	Description *string `gorm:"column:description;type:text" json:"description,omitempty"`
	// EvidenceImageURLs are images attached by the opener
	EvidenceImageURLs []string `gorm:"column:evidence_image_urls;type:jsonb;serializer:json" json:"evidence_image_urls"`
	// EvidenceSnapshot is the immutable verification evidence frozen at opening
	EvidenceSnapshot domain.EvidenceSnapshot `gorm:"column:evidence_snapshot;not null;type:jsonb;serializer:json" json:"evidence_snapshot"`
	// Status is the dispute lifecycle state
	Status domain.DisputeStatus `gorm:"column:status;not null;type:text;index:idx_disputes_status" json:"status"`
	// ArbitratorID is the assigned arbitrator, nil until assignment
	ArbitratorID *string `gorm:"column:arbitrator_id;type:text" json:"arbitrator_id,omitempty"`
	// RefundPercentage is the binding resolution outcome (0-100), nil until resolved
	RefundPercentage *float64 `gorm:"column:refund_percentage" json:"refund_percentage,omitempty"`
	// RefundAmount is total * RefundPercentage / 100, nil until resolved
	RefundAmount *float64 `gorm:"column:refund_amount" json:"refund_amount,omitempty"`
	// ResolutionNotes is the arbitrator's written reasoning
	ResolutionNotes *string `gorm:"column:resolution_notes;type:text" json:"resolution_notes,omitempty"`
	// ResolvedAt is when the binding resolution was issued
	ResolvedAt *time.Time `gorm:"column:resolved_at;type:timestamptz" json:"resolved_at,omitempty"`
	// CreatedAt is when the record was created
	CreatedAt time.Time `gorm:"column:created_at;not null;default:now();type:timestamptz" json:"created_at"`
	// UpdatedAt is when the record was last updated
	UpdatedAt time.Time `gorm:"column:updated_at;not null;default:now();type:timestamptz" json:"updated_at"`
}

// TableName specifies the table name for the Dispute model
func (Dispute) TableName() string {
	return "disputes"
}
