package market

import (
	"context"

	"github.com/google/uuid"

	"github.com/codeternalx123/agropulseAI/internal/domain"
	"github.com/codeternalx123/agropulseAI/internal/store"
	"github.com/codeternalx123/agropulseAI/internal/store/schema"
)

// SyncInput is a farm's reported stock for one crop
type SyncInput struct {
	FarmID          string
	CropType        string
	TotalQuantityKG float64
}

// OrderInput is a standing bulk purchase order to match against listings
type OrderInput struct {
	BuyerID         string
	CropType        string
	QuantityKG      float64
	MaxUnitPrice    *float64
	MinQualityGrade *domain.QualityGrade
}

// Service maintains the secondary marketplace bookkeeping: per-farm
// inventory rows, standing buyer orders and marketplace aggregates
type Service struct {
	store store.Store
}

// New creates a market bookkeeping service
func New(s store.Store) *Service {
	return &Service{store: s}
}

// SyncInventory upserts the (farm, crop) inventory row with the stock the
// farm reports
func (s *Service) SyncInventory(ctx context.Context, input SyncInput) (*schema.MarketInventory, error) {
	if input.FarmID == "" {
		return nil, domain.NewValidationError("farm_id", "must not be empty")
	}
	if input.CropType == "" {
		return nil, domain.NewValidationError("crop_type", "must not be empty")
	}
	if input.TotalQuantityKG < 0 {
		return nil, domain.NewValidationError("total_quantity_kg", "must not be negative")
	}

	row := &schema.MarketInventory{
		ID:              uuid.NewString(),
		FarmID:          input.FarmID,
		CropType:        input.CropType,
		TotalQuantityKG: input.TotalQuantityKG,
	}
	// Carry listing bookkeeping forward; a stock report must not wipe it
	err := s.store.Atomic(ctx, func(st store.Store) error {
		existing, err := st.GetMarketInventoryByFarm(ctx, input.FarmID)
		if err != nil {
			return err
		}
		for _, inv := range existing {
			if inv.CropType == input.CropType {
				row.ListedQuantityKG = inv.ListedQuantityKG
				row.SoldQuantityKG = inv.SoldQuantityKG
				row.LinkedAssetID = inv.LinkedAssetID
			}
		}
		return st.UpsertMarketInventory(ctx, row)
	})
	if err != nil {
		return nil, err
	}
	return row, nil
}

// InventoryByFarm lists the inventory rows of one farm
func (s *Service) InventoryByFarm(ctx context.Context, farmID string) ([]*schema.MarketInventory, error) {
	if farmID == "" {
		return nil, domain.NewValidationError("farm_id", "must not be empty")
	}
	return s.store.GetMarketInventoryByFarm(ctx, farmID)
}

// PlaceOrder records a standing bulk order and matches it against active
// listings at creation time. Matching is advisory; it does not reserve
// quantity.
func (s *Service) PlaceOrder(ctx context.Context, input OrderInput) (*schema.BuyerOrder, error) {
	if input.BuyerID == "" {
		return nil, domain.NewValidationError("buyer_id", "must not be empty")
	}
	if input.CropType == "" {
		return nil, domain.NewValidationError("crop_type", "must not be empty")
	}
	if input.QuantityKG <= 0 {
		return nil, domain.NewValidationError("quantity_kg", "must be positive")
	}
	if input.MaxUnitPrice != nil && *input.MaxUnitPrice <= 0 {
		return nil, domain.NewValidationError("max_unit_price", "must be positive")
	}
	if input.MinQualityGrade != nil && domain.GradeRank(*input.MinQualityGrade) == 0 {
		return nil, domain.NewValidationError("min_quality_grade", "unknown grade")
	}

	matches, err := s.store.ListActiveAssets(ctx, store.AssetFilter{
		CropType:     &input.CropType,
		MaxUnitPrice: input.MaxUnitPrice,
	})
	if err != nil {
		return nil, err
	}

	var matchedIDs []string
	for _, asset := range matches {
		if input.MinQualityGrade != nil &&
			domain.GradeRank(asset.QualityGrade) < domain.GradeRank(*input.MinQualityGrade) {
			continue
		}
		matchedIDs = append(matchedIDs, asset.ID)
	}

	status := schema.BuyerOrderStatusOpen
	if len(matchedIDs) > 0 {
		status = schema.BuyerOrderStatusMatched
	}

	order := &schema.BuyerOrder{
		ID:              uuid.NewString(),
		BuyerID:         input.BuyerID,
		CropType:        input.CropType,
		QuantityKG:      input.QuantityKG,
		MaxUnitPrice:    input.MaxUnitPrice,
		MinQualityGrade: input.MinQualityGrade,
		Status:          status,
		MatchedAssetIDs: matchedIDs,
	}
	if err := s.store.CreateBuyerOrder(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

// ListOrders lists orders placed by a buyer, newest first
func (s *Service) ListOrders(ctx context.Context, buyerID string) ([]*schema.BuyerOrder, error) {
	if buyerID == "" {
		return nil, domain.NewValidationError("buyer_id", "must not be empty")
	}
	return s.store.ListBuyerOrders(ctx, buyerID)
}

// Stats computes marketplace-wide aggregates
func (s *Service) Stats(ctx context.Context) (*store.MarketplaceStats, error) {
	return s.store.MarketplaceStats(ctx)
}
