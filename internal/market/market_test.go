package market

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codeternalx123/agropulseAI/internal/domain"
	"github.com/codeternalx123/agropulseAI/internal/store"
	"github.com/codeternalx123/agropulseAI/internal/store/schema"
)

func seedActiveListing(t *testing.T, s store.Store, crop string, unitPrice float64, grade domain.QualityGrade) string {
	t.Helper()
	now := time.Now().UTC()
	expires := now.Add(30 * 24 * time.Hour)
	asset := &schema.Asset{
		ID:                  uuid.NewString(),
		SellerID:            "farmer-1",
		CropType:            crop,
		QuantityKG:          1000,
		AvailableQuantityKG: 1000,
		UnitPrice:           unitPrice,
		TotalValue:          1000 * unitPrice,
		QualityGrade:        grade,
		VerificationScore:   75,
		Status:              domain.AssetStatusActive,
		ListedAt:            &now,
		ExpiresAt:           &expires,
	}
	require.NoError(t, s.CreateAsset(context.Background(), asset))
	return asset.ID
}

func TestMarket_SyncInventory_Upsert(t *testing.T) {
	svc := New(store.NewMemoryStore())
	ctx := context.Background()

	row, err := svc.SyncInventory(ctx, SyncInput{
		FarmID:          "farm-1",
		CropType:        "maize",
		TotalQuantityKG: 5000,
	})
	require.NoError(t, err)
	assert.Equal(t, 5000.0, row.TotalQuantityKG)

	// Updating the stock keeps one row per (farm, crop)
	_, err = svc.SyncInventory(ctx, SyncInput{
		FarmID:          "farm-1",
		CropType:        "maize",
		TotalQuantityKG: 4200,
	})
	require.NoError(t, err)

	rows, err := svc.InventoryByFarm(ctx, "farm-1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 4200.0, rows[0].TotalQuantityKG)
	assert.Equal(t, row.ID, rows[0].ID)
}

func TestMarket_SyncInventory_KeepsListingBookkeeping(t *testing.T) {
	memStore := store.NewMemoryStore()
	svc := New(memStore)
	ctx := context.Background()

	assetID := uuid.NewString()
	require.NoError(t, memStore.UpsertMarketInventory(ctx, &schema.MarketInventory{
		ID:               uuid.NewString(),
		FarmID:           "farm-1",
		CropType:         "avocado",
		TotalQuantityKG:  800,
		ListedQuantityKG: 300,
		SoldQuantityKG:   100,
		LinkedAssetID:    &assetID,
	}))

	row, err := svc.SyncInventory(ctx, SyncInput{
		FarmID:          "farm-1",
		CropType:        "avocado",
		TotalQuantityKG: 900,
	})
	require.NoError(t, err)
	assert.Equal(t, 900.0, row.TotalQuantityKG)
	assert.Equal(t, 300.0, row.ListedQuantityKG)
	assert.Equal(t, 100.0, row.SoldQuantityKG)
	require.NotNil(t, row.LinkedAssetID)
	assert.Equal(t, assetID, *row.LinkedAssetID)
}

func TestMarket_SyncInventory_Validation(t *testing.T) {
	svc := New(store.NewMemoryStore())
	ctx := context.Background()

	tests := []struct {
		name  string
		input SyncInput
	}{
		{"missing farm", SyncInput{CropType: "maize", TotalQuantityKG: 1}},
		{"missing crop", SyncInput{FarmID: "farm-1", TotalQuantityKG: 1}},
		{"negative quantity", SyncInput{FarmID: "farm-1", CropType: "maize", TotalQuantityKG: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SyncInventory(ctx, tt.input)
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.Kind(err))
		})
	}
}

func TestMarket_PlaceOrder_Matching(t *testing.T) {
	memStore := store.NewMemoryStore()
	svc := New(memStore)
	ctx := context.Background()

	premium := seedActiveListing(t, memStore, "maize", 45, domain.GradePremium)
	standard := seedActiveListing(t, memStore, "maize", 38, domain.GradeStandard)
	seedActiveListing(t, memStore, "maize", 70, domain.GradePremium) // over the price cap
	seedActiveListing(t, memStore, "avocado", 30, domain.GradePremium)

	maxPrice := 50.0
	minGrade := domain.GradeStandard
	order, err := svc.PlaceOrder(ctx, OrderInput{
		BuyerID:         "buyer-1",
		CropType:        "maize",
		QuantityKG:      2000,
		MaxUnitPrice:    &maxPrice,
		MinQualityGrade: &minGrade,
	})
	require.NoError(t, err)
	assert.Equal(t, schema.BuyerOrderStatusMatched, order.Status)
	assert.ElementsMatch(t, []string{premium, standard}, order.MatchedAssetIDs)

	// A minimum grade above every affordable listing filters them all out
	minGrade = domain.GradePremium
	maxPrice = 40.0
	order, err = svc.PlaceOrder(ctx, OrderInput{
		BuyerID:         "buyer-1",
		CropType:        "maize",
		QuantityKG:      500,
		MaxUnitPrice:    &maxPrice,
		MinQualityGrade: &minGrade,
	})
	require.NoError(t, err)
	assert.Equal(t, schema.BuyerOrderStatusOpen, order.Status)
	assert.Empty(t, order.MatchedAssetIDs)
}

func TestMarket_PlaceOrder_Validation(t *testing.T) {
	svc := New(store.NewMemoryStore())
	ctx := context.Background()

	badPrice := -2.0
	badGrade := domain.QualityGrade("gold")
	tests := []struct {
		name  string
		input OrderInput
	}{
		{"missing buyer", OrderInput{CropType: "maize", QuantityKG: 10}},
		{"missing crop", OrderInput{BuyerID: "buyer-1", QuantityKG: 10}},
		{"zero quantity", OrderInput{BuyerID: "buyer-1", CropType: "maize"}},
		{"bad price cap", OrderInput{BuyerID: "buyer-1", CropType: "maize", QuantityKG: 10, MaxUnitPrice: &badPrice}},
		{"unknown grade", OrderInput{BuyerID: "buyer-1", CropType: "maize", QuantityKG: 10, MinQualityGrade: &badGrade}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.PlaceOrder(ctx, tt.input)
			require.Error(t, err)
			assert.Equal(t, domain.KindValidation, domain.Kind(err))
		})
	}
}

func TestMarket_ListOrders(t *testing.T) {
	svc := New(store.NewMemoryStore())
	ctx := context.Background()

	first, err := svc.PlaceOrder(ctx, OrderInput{BuyerID: "buyer-1", CropType: "maize", QuantityKG: 100})
	require.NoError(t, err)
	second, err := svc.PlaceOrder(ctx, OrderInput{BuyerID: "buyer-1", CropType: "avocado", QuantityKG: 50})
	require.NoError(t, err)
	_, err = svc.PlaceOrder(ctx, OrderInput{BuyerID: "buyer-2", CropType: "maize", QuantityKG: 25})
	require.NoError(t, err)

	orders, err := svc.ListOrders(ctx, "buyer-1")
	require.NoError(t, err)
	require.Len(t, orders, 2)
	ids := []string{orders[0].ID, orders[1].ID}
	assert.ElementsMatch(t, []string{first.ID, second.ID}, ids)
}

func TestMarket_Stats(t *testing.T) {
	memStore := store.NewMemoryStore()
	svc := New(memStore)
	ctx := context.Background()

	seedActiveListing(t, memStore, "maize", 40, domain.GradePremium)
	seedActiveListing(t, memStore, "maize", 40, domain.GradeBasic)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalAssets)
	assert.Equal(t, int64(2), stats.ActiveAssets)
	assert.Equal(t, int64(1), stats.GradeDistribution[domain.GradePremium])
	assert.Equal(t, int64(1), stats.GradeDistribution[domain.GradeBasic])
}
