package arbitration

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codeternalx123/agropulseAI/internal/adapter"
	"github.com/codeternalx123/agropulseAI/internal/domain"
	"github.com/codeternalx123/agropulseAI/internal/gateway"
	"github.com/codeternalx123/agropulseAI/internal/logger"
	"github.com/codeternalx123/agropulseAI/internal/messaging"
	"github.com/codeternalx123/agropulseAI/internal/store"
	"github.com/codeternalx123/agropulseAI/internal/store/schema"
)

// OpenInput carries everything needed to open a dispute
type OpenInput struct {
	TransactionID     string
	RaisedBy          domain.Party
	RaisedByUserID    string
	Category          domain.DisputeCategory
	Description       *string
	EvidenceImageURLs []string
}

// ResolveInput carries an arbitrator's binding resolution
type ResolveInput struct {
	DisputeID        string
	ArbitratorID     string
	RefundPercentage float64
	ResolutionNotes  *string
}

// Service runs dispute arbitration: opening freezes the transaction and
// snapshots the verification evidence; resolution splits the escrowed funds
// and settles the transaction.
type Service struct {
	store     store.Store
	clock     adapter.Clock
	gateway   gateway.PaymentGateway
	publisher messaging.Publisher
}

// New creates an arbitration service
func New(s store.Store, clock adapter.Clock, gw gateway.PaymentGateway, publisher messaging.Publisher) *Service {
	return &Service{
		store:     s,
		clock:     clock,
		gateway:   gw,
		publisher: publisher,
	}
}

// Open files a dispute against a transaction in its delivery phase. The
// transaction freezes to Disputed and the asset's verification evidence is
// snapshotted so later report edits cannot touch the case.
func (a *Service) Open(ctx context.Context, input OpenInput) (*schema.Dispute, error) {
	if input.TransactionID == "" {
		return nil, domain.NewValidationError("transaction_id", "required")
	}
	if input.RaisedByUserID == "" {
		return nil, domain.NewValidationError("raised_by_user_id", "required")
	}
	if !domain.IsValidParty(input.RaisedBy) {
		return nil, domain.NewValidationError("raised_by", "must be buyer or seller")
	}
	if !domain.IsValidDisputeCategory(input.Category) {
		return nil, domain.NewValidationError("category", "unknown dispute category")
	}

	var dispute *schema.Dispute

	err := a.store.Atomic(ctx, func(s store.Store) error {
		tx, err := s.GetTransactionForUpdate(ctx, input.TransactionID)
		if err != nil {
			return err
		}
		if tx == nil {
			return domain.ErrTransactionNotFound
		}

		if existing, err := s.GetOpenDisputeByTransaction(ctx, tx.ID); err != nil {
			return err
		} else if existing != nil {
			return domain.ErrDisputeAlreadyOpen
		}

		if tx.Status.Terminal() {
			return domain.NewStateError(domain.ErrTransactionClosed, string(tx.Status))
		}
		if !tx.Status.Disputable() {
			return domain.NewStateError(domain.ErrDisputeNotAllowed, string(tx.Status))
		}

		asset, err := s.GetAsset(ctx, tx.AssetID)
		if err != nil {
			return err
		}
		if asset == nil {
			return domain.ErrAssetNotFound
		}

		now := a.clock.Now().UTC()
		dispute = &schema.Dispute{
			ID:                uuid.NewString(),
			TransactionID:     tx.ID,
			RaisedBy:          input.RaisedBy,
			RaisedByUserID:    input.RaisedByUserID,
			Category:          input.Category,
			Description:       input.Description,
			EvidenceImageURLs: input.EvidenceImageURLs,
			EvidenceSnapshot:  domain.SnapshotEvidence(asset.VerificationReport, asset.QualityGrade, now),
			Status:            domain.DisputeStatusOpen,
		}
		if err := s.CreateDispute(ctx, dispute); err != nil {
			return err
		}

		tx.Status = domain.TransactionStatusDisputed
		return s.UpdateTransaction(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "dispute opened",
		zap.String("dispute_id", dispute.ID),
		zap.String("transaction_id", dispute.TransactionID),
		zap.String("category", string(dispute.Category)))

	a.publish(ctx, &messaging.MarketplaceEvent{
		EventType:     messaging.EventDisputeOpened,
		TransactionID: dispute.TransactionID,
		DisputeID:     dispute.ID,
		Payload:       map[string]interface{}{"category": dispute.Category},
	})

	return dispute, nil
}

// AssignArbitrator assigns (or reassigns) the case while it is unresolved
// and moves it to UnderReview. Assigning the same arbitrator twice is a
// no-op.
func (a *Service) AssignArbitrator(ctx context.Context, disputeID string, arbitratorID string) (*schema.Dispute, error) {
	if arbitratorID == "" {
		return nil, domain.NewValidationError("arbitrator_id", "required")
	}

	var dispute *schema.Dispute

	err := a.store.Atomic(ctx, func(s store.Store) error {
		var err error
		dispute, err = s.GetDisputeForUpdate(ctx, disputeID)
		if err != nil {
			return err
		}
		if dispute == nil {
			return domain.ErrDisputeNotFound
		}
		if dispute.Status == domain.DisputeStatusResolved {
			return domain.ErrDisputeAlreadyResolved
		}

		dispute.ArbitratorID = &arbitratorID
		dispute.Status = domain.DisputeStatusUnderReview
		return s.UpdateDispute(ctx, dispute)
	})
	if err != nil {
		return nil, err
	}

	return dispute, nil
}

// Resolve issues the assigned arbitrator's binding resolution. The refund
// percentage splits the escrowed total between buyer and seller; the
// platform fee is retained either way. A full refund restores the reserved
// quantity to the listing; any other outcome leaves inventory unchanged.
func (a *Service) Resolve(ctx context.Context, input ResolveInput) (*schema.Dispute, error) {
	if input.RefundPercentage < 0 || input.RefundPercentage > 100 {
		return nil, domain.NewValidationError("refund_percentage", "must be between 0 and 100")
	}
	if input.ArbitratorID == "" {
		return nil, domain.NewValidationError("arbitrator_id", "required")
	}

	var dispute *schema.Dispute
	var tx *schema.Transaction

	err := a.store.Atomic(ctx, func(s store.Store) error {
		var err error
		dispute, err = s.GetDisputeForUpdate(ctx, input.DisputeID)
		if err != nil {
			return err
		}
		if dispute == nil {
			return domain.ErrDisputeNotFound
		}
		if dispute.Status == domain.DisputeStatusResolved {
			return domain.ErrDisputeAlreadyResolved
		}
		if dispute.ArbitratorID == nil {
			return domain.ErrNoArbitratorAssigned
		}
		if *dispute.ArbitratorID != input.ArbitratorID {
			return domain.ErrNotAssignedArbitrator
		}

		tx, err = s.GetTransactionForUpdate(ctx, dispute.TransactionID)
		if err != nil {
			return err
		}
		if tx == nil {
			return domain.ErrTransactionNotFound
		}

		now := a.clock.Now().UTC()
		refund := tx.TotalAmount * input.RefundPercentage / 100
		payout := tx.TotalAmount - refund - tx.PlatformFee
		if payout < 0 {
			payout = 0
		}

		dispute.Status = domain.DisputeStatusResolved
		dispute.RefundPercentage = &input.RefundPercentage
		dispute.RefundAmount = &refund
		dispute.ResolutionNotes = input.ResolutionNotes
		dispute.ResolvedAt = &now
		if err := s.UpdateDispute(ctx, dispute); err != nil {
			return err
		}

		reason := domain.ReleaseReasonArbitration
		tx.BuyerRefund = refund
		tx.SellerPayout = payout
		tx.PayoutReleased = true
		tx.ReleaseReason = &reason
		tx.CompletedAt = &now

		if input.RefundPercentage == 100 {
			tx.Status = domain.TransactionStatusRefunded
			// The trade is void: give the quantity back to the listing
			if _, err := s.ReleaseAssetQuantity(ctx, tx.AssetID, tx.QuantityKG); err != nil {
				return err
			}
		} else {
			tx.Status = domain.TransactionStatusCompleted
		}
		if err := s.UpdateTransaction(ctx, tx); err != nil {
			return err
		}

		if refund > 0 {
			receipt, err := a.gateway.RefundBuyer(ctx, gateway.Refund{
				TransactionID:   tx.ID,
				DisputeID:       dispute.ID,
				EscrowAccountID: tx.EscrowAccountID,
				BuyerID:         tx.BuyerID,
				Amount:          refund,
				Method:          tx.PaymentMethod,
				IdempotencyKey:  gateway.RefundKey(dispute.ID),
			})
			if err != nil {
				return fmt.Errorf("failed to refund buyer: %w", err)
			}
			tx.RefundReference = &receipt.Reference
		}

		if payout > 0 {
			receipt, err := a.gateway.ReleaseFunds(ctx, gateway.Payout{
				TransactionID:   tx.ID,
				EscrowAccountID: tx.EscrowAccountID,
				SellerID:        tx.SellerID,
				Amount:          payout,
				Method:          tx.PaymentMethod,
				IdempotencyKey:  gateway.PayoutKey(tx.ID),
			})
			if err != nil {
				return fmt.Errorf("failed to release funds: %w", err)
			}
			tx.PayoutReference = &receipt.Reference
		}

		return s.UpdateTransaction(ctx, tx)
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "dispute resolved",
		zap.String("dispute_id", dispute.ID),
		zap.Float64("refund_percentage", *dispute.RefundPercentage),
		zap.Float64("seller_payout", tx.SellerPayout))

	eventType := messaging.EventDisputeResolved
	a.publish(ctx, &messaging.MarketplaceEvent{
		EventType:     eventType,
		TransactionID: tx.ID,
		DisputeID:     dispute.ID,
		Payload: map[string]interface{}{
			"refund_percentage": *dispute.RefundPercentage,
			"buyer_refund":      tx.BuyerRefund,
			"seller_payout":     tx.SellerPayout,
			"final_status":      tx.Status,
		},
	})
	if tx.Status == domain.TransactionStatusRefunded {
		a.publish(ctx, &messaging.MarketplaceEvent{
			EventType:     messaging.EventTransactionRefunded,
			AssetID:       tx.AssetID,
			TransactionID: tx.ID,
			DisputeID:     dispute.ID,
			Payload:       map[string]interface{}{"buyer_refund": tx.BuyerRefund},
		})
	}

	return dispute, nil
}

// Get retrieves a dispute by id
func (a *Service) Get(ctx context.Context, disputeID string) (*schema.Dispute, error) {
	dispute, err := a.store.GetDispute(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if dispute == nil {
		return nil, domain.ErrDisputeNotFound
	}
	return dispute, nil
}

func (a *Service) publish(ctx context.Context, event *messaging.MarketplaceEvent) {
	now := a.clock.Now().UTC()
	event.EventID = messaging.NewEventID(now)
	event.OccurredAt = now

	if err := a.publisher.PublishEvent(ctx, event); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("event_type", event.EventType))
	}
}
