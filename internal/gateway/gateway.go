package gateway

import (
	"context"
	"fmt"
	"time"

	"github.com/codeternalx123/agropulseAI/internal/domain"
)

// Payout instructs the gateway to move escrowed funds to the seller
type Payout struct {
	TransactionID   string
	EscrowAccountID string
	SellerID        string
	Amount          float64
	Currency        string
	Method          domain.PaymentMethod
	// IdempotencyKey is deterministic per transaction so retries after a
	// gateway timeout cannot double-pay
	IdempotencyKey string
}

// Refund instructs the gateway to return escrowed funds to the buyer
type Refund struct {
	TransactionID   string
	DisputeID       string
	EscrowAccountID string
	BuyerID         string
	Amount          float64
	Currency        string
	Method          domain.PaymentMethod
	IdempotencyKey  string
}

// Receipt is the gateway's confirmation of a transfer
type Receipt struct {
	Reference   string
	ProcessedAt time.Time
}

// PaymentGateway moves money out of escrow. Implementations talk to an
// external payment provider; callers must treat any returned error as
// "transfer did not happen" and roll back their own state.
//
//go:generate mockgen -source=gateway.go -destination=../mocks/gateway.go -package=mocks -mock_names=PaymentGateway=MockPaymentGateway
type PaymentGateway interface {
	// ReleaseFunds pays the seller from the escrow account
	ReleaseFunds(ctx context.Context, payout Payout) (*Receipt, error)
	// RefundBuyer returns funds from the escrow account to the buyer
	RefundBuyer(ctx context.Context, refund Refund) (*Receipt, error)
}

// PayoutKey builds the idempotency key for a seller payout
func PayoutKey(transactionID string) string {
	return fmt.Sprintf("payout-%s", transactionID)
}

// RefundKey builds the idempotency key for a buyer refund
func RefundKey(disputeID string) string {
	return fmt.Sprintf("refund-%s", disputeID)
}
