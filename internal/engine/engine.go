package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codeternalx123/agropulseAI/internal/adapter"
	"github.com/codeternalx123/agropulseAI/internal/domain"
	"github.com/codeternalx123/agropulseAI/internal/features"
	"github.com/codeternalx123/agropulseAI/internal/gateway"
	"github.com/codeternalx123/agropulseAI/internal/logger"
	"github.com/codeternalx123/agropulseAI/internal/messaging"
	"github.com/codeternalx123/agropulseAI/internal/store"
	"github.com/codeternalx123/agropulseAI/internal/store/schema"
)

// Config holds escrow policy settings
type Config struct {
	// PlatformFeeRate is the fixed fee fraction taken from every trade
	PlatformFeeRate float64
	// AcceptanceWindow is how long the buyer has to accept or dispute
	// after delivery proof is submitted
	AcceptanceWindow time.Duration
}

// CreateInput carries everything needed to open an escrowed trade
type CreateInput struct {
	AssetID       string
	BuyerID       string
	QuantityKG    float64
	PaymentMethod domain.PaymentMethod
	DeliveryTerms *string
}

// Engine drives the escrow state machine. Every transition runs inside a
// single store transaction; the payout flag is written under the row lock
// before the gateway is called, so a gateway failure rolls the whole
// transition back.
type Engine struct {
	cfg       Config
	store     store.Store
	clock     adapter.Clock
	gateway   gateway.PaymentGateway
	publisher messaging.Publisher
	access    features.AccessChecker
}

// New creates a transaction engine
func New(cfg Config, s store.Store, clock adapter.Clock, gw gateway.PaymentGateway, publisher messaging.Publisher, access features.AccessChecker) *Engine {
	if cfg.PlatformFeeRate <= 0 {
		cfg.PlatformFeeRate = 0.02
	}
	if cfg.AcceptanceWindow <= 0 {
		cfg.AcceptanceWindow = 48 * time.Hour
	}
	return &Engine{
		cfg:       cfg,
		store:     s,
		clock:     clock,
		gateway:   gw,
		publisher: publisher,
		access:    access,
	}
}

// Create reserves quantity on the asset and opens a Pending transaction.
// The reservation and the transaction row commit together: an oversell
// attempt leaves no partial state behind.
func (e *Engine) Create(ctx context.Context, input CreateInput) (*schema.Transaction, error) {
	if input.AssetID == "" {
		return nil, domain.NewValidationError("asset_id", "required")
	}
	if input.BuyerID == "" {
		return nil, domain.NewValidationError("buyer_id", "required")
	}
	if input.QuantityKG <= 0 {
		return nil, domain.NewValidationError("quantity_kg", "must be positive")
	}
	if !domain.IsValidPaymentMethod(input.PaymentMethod) {
		return nil, domain.NewValidationError("payment_method", "unknown payment method")
	}

	if !e.access.Allowed(input.BuyerID, features.FeatureBuy) {
		return nil, fmt.Errorf("buyer %s: %w", input.BuyerID, domain.ErrFeatureNotAllowed)
	}

	var tx *schema.Transaction

	err := e.store.Atomic(ctx, func(s store.Store) error {
		asset, err := s.ReserveAssetQuantity(ctx, input.AssetID, input.QuantityKG)
		if err != nil {
			return err
		}
		if asset.SellerID == input.BuyerID {
			return domain.NewValidationError("buyer_id", "buyer cannot purchase own listing")
		}

		now := e.clock.Now().UTC()
		total := input.QuantityKG * asset.UnitPrice
		fee := total * e.cfg.PlatformFeeRate

		tx = &schema.Transaction{
			ID:              uuid.NewString(),
			AssetID:         asset.ID,
			BuyerID:         input.BuyerID,
			SellerID:        asset.SellerID,
			QuantityKG:      input.QuantityKG,
			UnitPrice:       asset.UnitPrice,
			TotalAmount:     total,
			PlatformFee:     fee,
			SellerPayout:    total - fee,
			PaymentMethod:   input.PaymentMethod,
			DeliveryTerms:   input.DeliveryTerms,
			EscrowAccountID: fmt.Sprintf("ESC-%s", messaging.NewEventID(now)),
			Status:          domain.TransactionStatusPending,
		}
		return s.CreateTransaction(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "transaction created",
		zap.String("transaction_id", tx.ID),
		zap.String("asset_id", tx.AssetID),
		zap.Float64("total_amount", tx.TotalAmount))

	e.publish(ctx, &messaging.MarketplaceEvent{
		EventType:     messaging.EventTransactionCreated,
		AssetID:       tx.AssetID,
		TransactionID: tx.ID,
		Payload: map[string]interface{}{
			"quantity_kg":  tx.QuantityKG,
			"total_amount": tx.TotalAmount,
		},
	})

	return tx, nil
}

// EscrowFunds records the buyer's payment into the escrow account, locking
// the funds. Valid only from Pending.
func (e *Engine) EscrowFunds(ctx context.Context, transactionID string, paymentReference string) (*schema.Transaction, error) {
	var tx *schema.Transaction

	err := e.store.Atomic(ctx, func(s store.Store) error {
		var err error
		tx, err = e.lockTransaction(ctx, s, transactionID)
		if err != nil {
			return err
		}
		if tx.Status == domain.TransactionStatusFundsEscrowed {
			return domain.NewStateError(domain.ErrAlreadyEscrowed, string(tx.Status))
		}
		if tx.Status != domain.TransactionStatusPending {
			return domain.NewStateError(domain.ErrInvalidTransition, string(tx.Status))
		}

		tx.Status = domain.TransactionStatusFundsEscrowed
		tx.FundsLocked = true
		if paymentReference != "" {
			tx.PaymentReference = &paymentReference
		}
		return s.UpdateTransaction(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	e.publish(ctx, &messaging.MarketplaceEvent{
		EventType:     messaging.EventEscrowFunded,
		AssetID:       tx.AssetID,
		TransactionID: tx.ID,
		Payload:       map[string]interface{}{"total_amount": tx.TotalAmount},
	})

	return tx, nil
}

// SubmitDeliveryProof records the seller's proof of delivery and opens the
// buyer's acceptance window. Valid only from FundsEscrowed.
func (e *Engine) SubmitDeliveryProof(ctx context.Context, transactionID string, proof domain.DeliveryProof) (*schema.Transaction, error) {
	var tx *schema.Transaction

	err := e.store.Atomic(ctx, func(s store.Store) error {
		var err error
		tx, err = e.lockTransaction(ctx, s, transactionID)
		if err != nil {
			return err
		}
		if tx.Status != domain.TransactionStatusFundsEscrowed {
			return domain.NewStateError(domain.ErrInvalidTransition, string(tx.Status))
		}

		now := e.clock.Now().UTC()
		windowEnd := now.Add(e.cfg.AcceptanceWindow)
		proof.SubmittedAt = now

		tx.DeliveryProof = &proof
		tx.Status = domain.TransactionStatusInAcceptanceWindow
		tx.AcceptanceWindowStart = &now
		tx.AcceptanceWindowEnd = &windowEnd
		return s.UpdateTransaction(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	e.publish(ctx, &messaging.MarketplaceEvent{
		EventType:     messaging.EventDeliveryProof,
		AssetID:       tx.AssetID,
		TransactionID: tx.ID,
		Payload:       map[string]interface{}{"window_end": tx.AcceptanceWindowEnd},
	})

	return tx, nil
}

// BuyerAccept settles the trade on the buyer's explicit confirmation,
// paying the seller immediately. Only the transaction's buyer may accept.
func (e *Engine) BuyerAccept(ctx context.Context, transactionID string, buyerID string) (*schema.Transaction, error) {
	var tx *schema.Transaction

	err := e.store.Atomic(ctx, func(s store.Store) error {
		var err error
		tx, err = e.lockTransaction(ctx, s, transactionID)
		if err != nil {
			return err
		}
		if tx.BuyerID != buyerID {
			return domain.ErrNotBuyer
		}
		if tx.Status == domain.TransactionStatusDisputed {
			return domain.NewStateError(domain.ErrTransactionFrozen, string(tx.Status))
		}
		if tx.Status != domain.TransactionStatusInAcceptanceWindow {
			return domain.NewStateError(domain.ErrInvalidTransition, string(tx.Status))
		}

		return e.completeAndPay(ctx, s, tx, domain.ReleaseReasonBuyerAccept)
	})
	if err != nil {
		return nil, err
	}

	e.publishCompleted(ctx, tx)

	return tx, nil
}

// AutoRelease settles the trade after the acceptance window lapses without
// buyer action. Calling it on an already settled transaction is a no-op, so
// overlapping sweeper runs are harmless.
func (e *Engine) AutoRelease(ctx context.Context, transactionID string) (*schema.Transaction, error) {
	var tx *schema.Transaction
	var settled bool

	err := e.store.Atomic(ctx, func(s store.Store) error {
		var err error
		tx, err = e.lockTransaction(ctx, s, transactionID)
		if err != nil {
			return err
		}

		// Already settled by a prior run or a concurrent accept
		if tx.Status == domain.TransactionStatusCompleted && tx.PayoutReleased {
			settled = true
			return nil
		}
		if tx.Status == domain.TransactionStatusDisputed {
			return domain.NewStateError(domain.ErrTransactionFrozen, string(tx.Status))
		}
		if tx.Status != domain.TransactionStatusInAcceptanceWindow {
			return domain.NewStateError(domain.ErrInvalidTransition, string(tx.Status))
		}
		if tx.AcceptanceWindowEnd == nil || e.clock.Now().UTC().Before(*tx.AcceptanceWindowEnd) {
			return domain.ErrWindowNotExpired
		}

		return e.completeAndPay(ctx, s, tx, domain.ReleaseReasonAutoRelease)
	})
	if err != nil {
		return nil, err
	}

	if !settled {
		e.publishCompleted(ctx, tx)
	}

	return tx, nil
}

// Get retrieves a transaction by id
func (e *Engine) Get(ctx context.Context, transactionID string) (*schema.Transaction, error) {
	tx, err := e.store.GetTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domain.ErrTransactionNotFound
	}
	return tx, nil
}

// lockTransaction fetches a transaction under a row lock
func (e *Engine) lockTransaction(ctx context.Context, s store.Store, transactionID string) (*schema.Transaction, error) {
	tx, err := s.GetTransactionForUpdate(ctx, transactionID)
	if err != nil {
		return nil, err
	}
	if tx == nil {
		return nil, domain.ErrTransactionNotFound
	}
	return tx, nil
}

// completeAndPay settles a transaction: the terminal status and the payout
// flag are written first, then the gateway is called. Both run inside the
// caller's store transaction, so a gateway failure rolls everything back and
// the payout flag never leaks without a matching transfer.
func (e *Engine) completeAndPay(ctx context.Context, s store.Store, tx *schema.Transaction, reason domain.ReleaseReason) error {
	now := e.clock.Now().UTC()

	tx.Status = domain.TransactionStatusCompleted
	tx.PayoutReleased = true
	tx.ReleaseReason = &reason
	tx.CompletedAt = &now
	if err := s.UpdateTransaction(ctx, tx); err != nil {
		return err
	}

	// A fully reserved listing is sold once its last trade settles
	asset, err := s.GetAssetForUpdate(ctx, tx.AssetID)
	if err != nil {
		return err
	}
	if asset != nil && asset.Status == domain.AssetStatusInEscrow && asset.AvailableQuantityKG <= 0 {
		asset.Status = domain.AssetStatusSold
		if err := s.UpdateAsset(ctx, asset); err != nil {
			return err
		}
	}

	receipt, err := e.gateway.ReleaseFunds(ctx, gateway.Payout{
		TransactionID:   tx.ID,
		EscrowAccountID: tx.EscrowAccountID,
		SellerID:        tx.SellerID,
		Amount:          tx.SellerPayout,
		Method:          tx.PaymentMethod,
		IdempotencyKey:  gateway.PayoutKey(tx.ID),
	})
	if err != nil {
		return fmt.Errorf("failed to release funds: %w", err)
	}

	tx.PayoutReference = &receipt.Reference
	return s.UpdateTransaction(ctx, tx)
}

func (e *Engine) publishCompleted(ctx context.Context, tx *schema.Transaction) {
	logger.InfoCtx(ctx, "transaction completed",
		zap.String("transaction_id", tx.ID),
		zap.Float64("seller_payout", tx.SellerPayout),
		zap.String("release_reason", string(*tx.ReleaseReason)))

	e.publish(ctx, &messaging.MarketplaceEvent{
		EventType:     messaging.EventTransactionCompleted,
		AssetID:       tx.AssetID,
		TransactionID: tx.ID,
		Payload: map[string]interface{}{
			"seller_payout":  tx.SellerPayout,
			"platform_fee":   tx.PlatformFee,
			"release_reason": tx.ReleaseReason,
		},
	})
}

func (e *Engine) publish(ctx context.Context, event *messaging.MarketplaceEvent) {
	now := e.clock.Now().UTC()
	event.EventID = messaging.NewEventID(now)
	event.OccurredAt = now

	if err := e.publisher.PublishEvent(ctx, event); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("event_type", event.EventType))
	}
}
