package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/codeternalx123/agropulseAI/internal/adapter"
	"github.com/codeternalx123/agropulseAI/internal/domain"
	"github.com/codeternalx123/agropulseAI/internal/features"
	"github.com/codeternalx123/agropulseAI/internal/logger"
	"github.com/codeternalx123/agropulseAI/internal/messaging"
	"github.com/codeternalx123/agropulseAI/internal/store"
	"github.com/codeternalx123/agropulseAI/internal/store/schema"
)

// Config holds ledger policy settings
type Config struct {
	// MinVerificationScore is the floor below which a listing is rejected outright
	MinVerificationScore float64
	// ListingTTL is how long a published listing stays active
	ListingTTL time.Duration
}

// CreateInput carries everything needed to tokenize a verified harvest
type CreateInput struct {
	SellerID           string
	FarmID             *string
	CropType           string
	QuantityKG         float64
	UnitPrice          float64
	VerificationReport *domain.VerificationReport
	ImageURLs          []string
	StorageLocation    *string
	Location           *domain.GeoPoint
}

// Ledger manages asset listings: grading, publication, quantity
// reservation and expiry
type Ledger struct {
	cfg       Config
	store     store.Store
	clock     adapter.Clock
	publisher messaging.Publisher
	access    features.AccessChecker
}

// New creates an asset ledger
func New(cfg Config, s store.Store, clock adapter.Clock, publisher messaging.Publisher, access features.AccessChecker) *Ledger {
	if cfg.ListingTTL <= 0 {
		cfg.ListingTTL = 30 * 24 * time.Hour
	}
	return &Ledger{
		cfg:       cfg,
		store:     s,
		clock:     clock,
		publisher: publisher,
		access:    access,
	}
}

// Create validates and grades a harvest, recording it as a Draft listing.
// The quality grade is derived from the verification score and cannot be
// supplied by the seller.
func (l *Ledger) Create(ctx context.Context, input CreateInput) (*schema.Asset, error) {
	if input.SellerID == "" {
		return nil, domain.NewValidationError("seller_id", "required")
	}
	if input.CropType == "" {
		return nil, domain.NewValidationError("crop_type", "required")
	}
	if input.QuantityKG <= 0 {
		return nil, domain.NewValidationError("quantity_kg", "must be positive")
	}
	if input.UnitPrice <= 0 {
		return nil, domain.NewValidationError("unit_price", "must be positive")
	}
	if input.VerificationReport == nil {
		return nil, domain.NewValidationError("verification_report", "required")
	}

	if !l.access.Allowed(input.SellerID, features.FeatureSell) {
		return nil, fmt.Errorf("seller %s: %w", input.SellerID, domain.ErrFeatureNotAllowed)
	}

	score := input.VerificationReport.Score
	if score < l.cfg.MinVerificationScore {
		return nil, fmt.Errorf("score %.1f below minimum %.1f: %w",
			score, l.cfg.MinVerificationScore, domain.ErrVerificationTooLow)
	}

	asset := &schema.Asset{
		ID:                  uuid.NewString(),
		SellerID:            input.SellerID,
		FarmID:              input.FarmID,
		CropType:            input.CropType,
		QuantityKG:          input.QuantityKG,
		AvailableQuantityKG: input.QuantityKG,
		UnitPrice:           input.UnitPrice,
		TotalValue:          input.QuantityKG * input.UnitPrice,
		QualityGrade:        domain.GradeForScore(score),
		VerificationScore:   score,
		VerificationReport:  input.VerificationReport,
		Status:              domain.AssetStatusDraft,
		ImageURLs:           input.ImageURLs,
		StorageLocation:     input.StorageLocation,
	}
	if input.Location != nil {
		lat, lng := input.Location.Latitude, input.Location.Longitude
		asset.Latitude = &lat
		asset.Longitude = &lng
	}

	err := l.store.Atomic(ctx, func(s store.Store) error {
		if err := s.CreateAsset(ctx, asset); err != nil {
			return err
		}
		return l.syncInventory(ctx, s, asset, 0)
	})
	if err != nil {
		return nil, err
	}

	logger.InfoCtx(ctx, "asset created",
		zap.String("asset_id", asset.ID),
		zap.String("crop_type", asset.CropType),
		zap.String("quality_grade", string(asset.QualityGrade)))

	return asset, nil
}

// Publish moves a Draft listing to Active, making it purchasable until
// its expiry
func (l *Ledger) Publish(ctx context.Context, assetID string) (*schema.Asset, error) {
	var asset *schema.Asset

	err := l.store.Atomic(ctx, func(s store.Store) error {
		var err error
		asset, err = s.GetAssetForUpdate(ctx, assetID)
		if err != nil {
			return err
		}
		if asset == nil {
			return domain.ErrAssetNotFound
		}
		if asset.Status != domain.AssetStatusDraft {
			return domain.NewStateError(domain.ErrInvalidTransition, string(asset.Status))
		}

		now := l.clock.Now().UTC()
		expires := now.Add(l.cfg.ListingTTL)
		asset.Status = domain.AssetStatusActive
		asset.ListedAt = &now
		asset.ExpiresAt = &expires

		if err := s.UpdateAsset(ctx, asset); err != nil {
			return err
		}
		return l.syncInventory(ctx, s, asset, asset.QuantityKG)
	})
	if err != nil {
		return nil, err
	}

	l.publish(ctx, &messaging.MarketplaceEvent{
		EventType: messaging.EventAssetListed,
		AssetID:   asset.ID,
		Payload: map[string]interface{}{
			"crop_type":     asset.CropType,
			"quantity_kg":   asset.QuantityKG,
			"unit_price":    asset.UnitPrice,
			"quality_grade": asset.QualityGrade,
		},
	})

	return asset, nil
}

// Get retrieves an asset by id
func (l *Ledger) Get(ctx context.Context, assetID string) (*schema.Asset, error) {
	asset, err := l.store.GetAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset == nil {
		return nil, domain.ErrAssetNotFound
	}
	return asset, nil
}

// ListActive retrieves active listings matching the filter
func (l *Ledger) ListActive(ctx context.Context, filter store.AssetFilter) ([]*schema.Asset, error) {
	return l.store.ListActiveAssets(ctx, filter)
}

// Reserve atomically takes quantity from an active listing
func (l *Ledger) Reserve(ctx context.Context, assetID string, quantityKG float64) (*schema.Asset, error) {
	if quantityKG <= 0 {
		return nil, domain.NewValidationError("quantity_kg", "must be positive")
	}
	return l.store.ReserveAssetQuantity(ctx, assetID, quantityKG)
}

// Release atomically returns quantity to a listing
func (l *Ledger) Release(ctx context.Context, assetID string, quantityKG float64) (*schema.Asset, error) {
	if quantityKG <= 0 {
		return nil, domain.NewValidationError("quantity_kg", "must be positive")
	}
	return l.store.ReleaseAssetQuantity(ctx, assetID, quantityKG)
}

// ExpireActive cancels active listings whose expiry has passed
func (l *Ledger) ExpireActive(ctx context.Context) (int64, error) {
	count, err := l.store.ExpireActiveAssets(ctx, l.clock.Now().UTC())
	if err != nil {
		return 0, err
	}
	if count > 0 {
		logger.InfoCtx(ctx, "expired listings", zap.Int64("count", count))
	}
	return count, nil
}

// InventoryByFarm lists per-crop inventory rows for a farm
func (l *Ledger) InventoryByFarm(ctx context.Context, farmID string) ([]*schema.MarketInventory, error) {
	return l.store.GetMarketInventoryByFarm(ctx, farmID)
}

// syncInventory keeps the per-farm inventory row aligned with the listing
func (l *Ledger) syncInventory(ctx context.Context, s store.Store, asset *schema.Asset, listedKG float64) error {
	if asset.FarmID == nil {
		return nil
	}
	return s.UpsertMarketInventory(ctx, &schema.MarketInventory{
		ID:               uuid.NewString(),
		FarmID:           *asset.FarmID,
		CropType:         asset.CropType,
		TotalQuantityKG:  asset.QuantityKG,
		ListedQuantityKG: listedKG,
		LinkedAssetID:    &asset.ID,
	})
}

func (l *Ledger) publish(ctx context.Context, event *messaging.MarketplaceEvent) {
	now := l.clock.Now().UTC()
	event.EventID = messaging.NewEventID(now)
	event.OccurredAt = now

	if err := l.publisher.PublishEvent(ctx, event); err != nil {
		logger.ErrorCtx(ctx, err, zap.String("event_type", event.EventType))
	}
}
