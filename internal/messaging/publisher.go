package messaging

import (
	"context"
	"time"
)

// Marketplace event types carried on the broker
const (
	EventTransactionCreated   = "transaction.created"
	EventEscrowFunded         = "escrow.funded"
	EventDeliveryProof        = "delivery.proof_submitted"
	EventTransactionCompleted = "transaction.completed"
	EventTransactionRefunded  = "transaction.refunded"
	EventDisputeOpened        = "dispute.opened"
	EventDisputeResolved      = "dispute.resolved"
	EventAssetListed          = "asset.listed"
)

// MarketplaceEvent is the envelope published for every escrow state change
type MarketplaceEvent struct {
	EventID       string      `json:"event_id"`
	EventType     string      `json:"event_type"`
	AssetID       string      `json:"asset_id,omitempty"`
	TransactionID string      `json:"transaction_id,omitempty"`
	DisputeID     string      `json:"dispute_id,omitempty"`
	OccurredAt    time.Time   `json:"occurred_at"`
	Payload       interface{} `json:"payload,omitempty"`
}

// Publisher defines the interface for publishing events to message queue
//
//go:generate mockgen -source=publisher.go -destination=../mocks/publisher.go -package=mocks -mock_names=Publisher=MockPublisher
type Publisher interface {
	// PublishEvent publishes a marketplace event to the message broker
	PublishEvent(ctx context.Context, event *MarketplaceEvent) error
	// Close closes the connection
	Close()
}

// NopPublisher discards all events. Used when no broker is configured.
type NopPublisher struct{}

func NewNopPublisher() Publisher {
	return &NopPublisher{}
}

func (p *NopPublisher) PublishEvent(ctx context.Context, event *MarketplaceEvent) error {
	return nil
}

func (p *NopPublisher) Close() {}
