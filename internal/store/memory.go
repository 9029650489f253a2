package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/codeternalx123/agropulseAI/internal/domain"
	"github.com/codeternalx123/agropulseAI/internal/store/schema"
)

// memoryStore is an in-memory Store used for tests and local development.
// Records are stored immutably: reads return copies and writes replace whole
// records, so Atomic can roll back by restoring the map snapshot.
type memoryStore struct {
	mu sync.Mutex

	assets       map[string]*schema.Asset
	transactions map[string]*schema.Transaction
	disputes     map[string]*schema.Dispute
	inventory    map[string]*schema.MarketInventory // keyed by farm_id/crop_type
	orders       map[string]*schema.BuyerOrder
}

// NewMemoryStore creates a new in-memory store instance
func NewMemoryStore() Store {
	return &memoryStore{
		assets:       make(map[string]*schema.Asset),
		transactions: make(map[string]*schema.Transaction),
		disputes:     make(map[string]*schema.Dispute),
		inventory:    make(map[string]*schema.MarketInventory),
		orders:       make(map[string]*schema.BuyerOrder),
	}
}

// txMemoryStore is the transaction-bound view handed to Atomic callbacks.
// The parent's mutex is already held, so it calls the unlocked methods directly.
type txMemoryStore struct {
	parent *memoryStore
}

type memorySnapshot struct {
	assets       map[string]*schema.Asset
	transactions map[string]*schema.Transaction
	disputes     map[string]*schema.Dispute
	inventory    map[string]*schema.MarketInventory
	orders       map[string]*schema.BuyerOrder
}

func (m *memoryStore) snapshot() memorySnapshot {
	snap := memorySnapshot{
		assets:       make(map[string]*schema.Asset, len(m.assets)),
		transactions: make(map[string]*schema.Transaction, len(m.transactions)),
		disputes:     make(map[string]*schema.Dispute, len(m.disputes)),
		inventory:    make(map[string]*schema.MarketInventory, len(m.inventory)),
		orders:       make(map[string]*schema.BuyerOrder, len(m.orders)),
	}
	for k, v := range m.assets {
		snap.assets[k] = v
	}
	for k, v := range m.transactions {
		snap.transactions[k] = v
	}
	for k, v := range m.disputes {
		snap.disputes[k] = v
	}
	for k, v := range m.inventory {
		snap.inventory[k] = v
	}
	for k, v := range m.orders {
		snap.orders[k] = v
	}
	return snap
}

func (m *memoryStore) restore(snap memorySnapshot) {
	m.assets = snap.assets
	m.transactions = snap.transactions
	m.disputes = snap.disputes
	m.inventory = snap.inventory
	m.orders = snap.orders
}

// Atomic serializes all writers and rolls back on error, mirroring the
// all-or-nothing contract of the PostgreSQL store
func (m *memoryStore) Atomic(ctx context.Context, fn func(Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.snapshot()
	if err := fn(&txMemoryStore{parent: m}); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func copyAsset(a *schema.Asset) *schema.Asset {
	if a == nil {
		return nil
	}
	cp := *a
	cp.ImageURLs = append([]string(nil), a.ImageURLs...)
	cp.VerificationReport = copyVerificationReport(a.VerificationReport)
	return &cp
}

func copyVerificationReport(r *domain.VerificationReport) *domain.VerificationReport {
	if r == nil {
		return nil
	}
	cp := *r
	if r.HarvestHealth != nil {
		hh := *r.HarvestHealth
		cp.HarvestHealth = &hh
	}
	cp.StorageConditions = append([]domain.StorageConditionProof(nil), r.StorageConditions...)
	if r.PestCertification != nil {
		pc := *r.PestCertification
		cp.PestCertification = &pc
	}
	if r.SoilReport != nil {
		sr := *r.SoilReport
		cp.SoilReport = &sr
	}
	if r.SpoilageRisk != nil {
		sp := *r.SpoilageRisk
		cp.SpoilageRisk = &sp
	}
	return &cp
}

func copyTransaction(t *schema.Transaction) *schema.Transaction {
	if t == nil {
		return nil
	}
	cp := *t
	if t.DeliveryProof != nil {
		dp := *t.DeliveryProof
		dp.ImageURLs = append([]string(nil), t.DeliveryProof.ImageURLs...)
		cp.DeliveryProof = &dp
	}
	return &cp
}

func copyDispute(d *schema.Dispute) *schema.Dispute {
	if d == nil {
		return nil
	}
	cp := *d
	cp.EvidenceImageURLs = append([]string(nil), d.EvidenceImageURLs...)
	return &cp
}

func copyInventory(i *schema.MarketInventory) *schema.MarketInventory {
	if i == nil {
		return nil
	}
	cp := *i
	return &cp
}

func copyOrder(o *schema.BuyerOrder) *schema.BuyerOrder {
	if o == nil {
		return nil
	}
	cp := *o
	cp.MatchedAssetIDs = append([]string(nil), o.MatchedAssetIDs...)
	return &cp
}

func inventoryKey(farmID, cropType string) string {
	return farmID + "/" + cropType
}

// --- unlocked implementations ---

func (m *memoryStore) createAsset(asset *schema.Asset) error {
	if _, ok := m.assets[asset.ID]; ok {
		return fmt.Errorf("asset %s already exists", asset.ID)
	}
	now := time.Now().UTC()
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = now
	}
	asset.UpdatedAt = now
	m.assets[asset.ID] = copyAsset(asset)
	return nil
}

func (m *memoryStore) getAsset(id string) *schema.Asset {
	return copyAsset(m.assets[id])
}

func (m *memoryStore) updateAsset(asset *schema.Asset) error {
	if _, ok := m.assets[asset.ID]; !ok {
		return fmt.Errorf("asset %s does not exist", asset.ID)
	}
	asset.UpdatedAt = time.Now().UTC()
	m.assets[asset.ID] = copyAsset(asset)
	return nil
}

func (m *memoryStore) listActiveAssets(filter AssetFilter) []*schema.Asset {
	var out []*schema.Asset
	for _, a := range m.assets {
		if a.Status != domain.AssetStatusActive {
			continue
		}
		if filter.CropType != nil && a.CropType != *filter.CropType {
			continue
		}
		if filter.QualityGrade != nil && a.QualityGrade != *filter.QualityGrade {
			continue
		}
		if filter.MaxUnitPrice != nil && a.UnitPrice > *filter.MaxUnitPrice {
			continue
		}
		if filter.MinQuantityKG != nil && a.AvailableQuantityKG < *filter.MinQuantityKG {
			continue
		}
		if filter.Near != nil && filter.RadiusKM > 0 {
			if a.Latitude == nil || a.Longitude == nil {
				continue
			}
			dist := domain.HaversineKM(*filter.Near, domain.GeoPoint{
				Latitude:  *a.Latitude,
				Longitude: *a.Longitude,
			})
			if dist > filter.RadiusKM {
				continue
			}
		}
		out = append(out, copyAsset(a))
	}

	sort.Slice(out, func(i, j int) bool {
		ti, tj := out[i].ListedAt, out[j].ListedAt
		if ti == nil || tj == nil {
			return tj == nil && ti != nil
		}
		return ti.After(*tj)
	})

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return nil
		}
		out = out[filter.Offset:]
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (m *memoryStore) reserveAssetQuantity(assetID string, quantityKG float64) (*schema.Asset, error) {
	asset, ok := m.assets[assetID]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}
	if asset.Status != domain.AssetStatusActive {
		return nil, domain.NewStateError(domain.ErrAssetUnavailable, string(asset.Status))
	}
	if asset.AvailableQuantityKG < quantityKG {
		return nil, domain.NewStateError(domain.ErrInsufficientQuantity,
			fmt.Sprintf("available=%.2fkg", asset.AvailableQuantityKG))
	}

	cp := copyAsset(asset)
	cp.AvailableQuantityKG -= quantityKG
	if cp.AvailableQuantityKG <= 0 {
		cp.Status = domain.AssetStatusInEscrow
	}
	cp.UpdatedAt = time.Now().UTC()
	m.assets[assetID] = cp
	return copyAsset(cp), nil
}

func (m *memoryStore) releaseAssetQuantity(assetID string, quantityKG float64) (*schema.Asset, error) {
	asset, ok := m.assets[assetID]
	if !ok {
		return nil, domain.ErrAssetNotFound
	}

	cp := copyAsset(asset)
	cp.AvailableQuantityKG += quantityKG
	if cp.AvailableQuantityKG > cp.QuantityKG {
		cp.AvailableQuantityKG = cp.QuantityKG
	}
	if cp.Status == domain.AssetStatusInEscrow || cp.Status == domain.AssetStatusSold {
		cp.Status = domain.AssetStatusActive
	}
	cp.UpdatedAt = time.Now().UTC()
	m.assets[assetID] = cp
	return copyAsset(cp), nil
}

func (m *memoryStore) expireActiveAssets(now time.Time) int64 {
	var expired int64
	for id, a := range m.assets {
		if a.Status == domain.AssetStatusActive && a.ExpiresAt != nil && !a.ExpiresAt.After(now) {
			cp := copyAsset(a)
			cp.Status = domain.AssetStatusCancelled
			cp.UpdatedAt = now.UTC()
			m.assets[id] = cp
			expired++
		}
	}
	return expired
}

func (m *memoryStore) createTransaction(tx *schema.Transaction) error {
	if _, ok := m.transactions[tx.ID]; ok {
		return fmt.Errorf("transaction %s already exists", tx.ID)
	}
	now := time.Now().UTC()
	if tx.CreatedAt.IsZero() {
		tx.CreatedAt = now
	}
	tx.UpdatedAt = now
	m.transactions[tx.ID] = copyTransaction(tx)
	return nil
}

func (m *memoryStore) getTransaction(id string) *schema.Transaction {
	return copyTransaction(m.transactions[id])
}

func (m *memoryStore) updateTransaction(tx *schema.Transaction) error {
	if _, ok := m.transactions[tx.ID]; !ok {
		return fmt.Errorf("transaction %s does not exist", tx.ID)
	}
	tx.UpdatedAt = time.Now().UTC()
	m.transactions[tx.ID] = copyTransaction(tx)
	return nil
}

func (m *memoryStore) listTransactionsDueForRelease(now time.Time, limit int) []string {
	if limit <= 0 {
		limit = 100
	}

	type due struct {
		id  string
		end time.Time
	}
	var dues []due
	for id, tx := range m.transactions {
		if tx.Status != domain.TransactionStatusInAcceptanceWindow || tx.PayoutReleased {
			continue
		}
		if tx.AcceptanceWindowEnd == nil || tx.AcceptanceWindowEnd.After(now) {
			continue
		}
		dues = append(dues, due{id: id, end: *tx.AcceptanceWindowEnd})
	}

	sort.Slice(dues, func(i, j int) bool { return dues[i].end.Before(dues[j].end) })
	if len(dues) > limit {
		dues = dues[:limit]
	}

	ids := make([]string, 0, len(dues))
	for _, d := range dues {
		ids = append(ids, d.id)
	}
	return ids
}

func (m *memoryStore) createDispute(dispute *schema.Dispute) error {
	if _, ok := m.disputes[dispute.ID]; ok {
		return fmt.Errorf("dispute %s already exists", dispute.ID)
	}
	now := time.Now().UTC()
	if dispute.CreatedAt.IsZero() {
		dispute.CreatedAt = now
	}
	dispute.UpdatedAt = now
	m.disputes[dispute.ID] = copyDispute(dispute)
	return nil
}

func (m *memoryStore) getDispute(id string) *schema.Dispute {
	return copyDispute(m.disputes[id])
}

func (m *memoryStore) updateDispute(dispute *schema.Dispute) error {
	if _, ok := m.disputes[dispute.ID]; !ok {
		return fmt.Errorf("dispute %s does not exist", dispute.ID)
	}
	dispute.UpdatedAt = time.Now().UTC()
	m.disputes[dispute.ID] = copyDispute(dispute)
	return nil
}

func (m *memoryStore) getOpenDisputeByTransaction(transactionID string) *schema.Dispute {
	for _, d := range m.disputes {
		if d.TransactionID == transactionID && d.Status != domain.DisputeStatusResolved {
			return copyDispute(d)
		}
	}
	return nil
}

func (m *memoryStore) upsertMarketInventory(inventory *schema.MarketInventory) error {
	key := inventoryKey(inventory.FarmID, inventory.CropType)
	now := time.Now().UTC()
	if existing, ok := m.inventory[key]; ok {
		inventory.ID = existing.ID
		inventory.CreatedAt = existing.CreatedAt
	} else if inventory.CreatedAt.IsZero() {
		inventory.CreatedAt = now
	}
	inventory.UpdatedAt = now
	m.inventory[key] = copyInventory(inventory)
	return nil
}

func (m *memoryStore) getMarketInventoryByFarm(farmID string) []*schema.MarketInventory {
	var rows []*schema.MarketInventory
	for _, inv := range m.inventory {
		if inv.FarmID == farmID {
			rows = append(rows, copyInventory(inv))
		}
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].CropType < rows[j].CropType })
	return rows
}

func (m *memoryStore) createBuyerOrder(order *schema.BuyerOrder) error {
	if _, ok := m.orders[order.ID]; ok {
		return fmt.Errorf("buyer order %s already exists", order.ID)
	}
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now
	m.orders[order.ID] = copyOrder(order)
	return nil
}

func (m *memoryStore) listBuyerOrders(buyerID string) []*schema.BuyerOrder {
	var orders []*schema.BuyerOrder
	for _, o := range m.orders {
		if o.BuyerID == buyerID {
			orders = append(orders, copyOrder(o))
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].CreatedAt.After(orders[j].CreatedAt) })
	return orders
}

func (m *memoryStore) marketplaceStats() *MarketplaceStats {
	stats := &MarketplaceStats{
		GradeDistribution: make(map[domain.QualityGrade]int64),
	}
	for _, a := range m.assets {
		stats.TotalAssets++
		if a.Status == domain.AssetStatusActive {
			stats.ActiveAssets++
		}
		stats.GradeDistribution[a.QualityGrade]++
	}
	for _, tx := range m.transactions {
		stats.TotalTransactions++
		switch tx.Status {
		case domain.TransactionStatusCompleted:
			stats.CompletedTransactions++
			stats.TotalTradedValue += tx.TotalAmount
		case domain.TransactionStatusDisputed:
			stats.DisputedTransactions++
		}
	}
	for _, d := range m.disputes {
		if d.Status != domain.DisputeStatusResolved {
			stats.OpenDisputes++
		}
	}
	if stats.TotalTransactions > 0 {
		stats.CompletionRate = float64(stats.CompletedTransactions) / float64(stats.TotalTransactions)
		stats.DisputeRate = float64(stats.DisputedTransactions) / float64(stats.TotalTransactions)
	}
	return stats
}

// --- locked Store implementation ---

func (m *memoryStore) CreateAsset(ctx context.Context, asset *schema.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createAsset(asset)
}

func (m *memoryStore) GetAsset(ctx context.Context, id string) (*schema.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getAsset(id), nil
}

func (m *memoryStore) GetAssetForUpdate(ctx context.Context, id string) (*schema.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getAsset(id), nil
}

func (m *memoryStore) UpdateAsset(ctx context.Context, asset *schema.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateAsset(asset)
}

func (m *memoryStore) ListActiveAssets(ctx context.Context, filter AssetFilter) ([]*schema.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listActiveAssets(filter), nil
}

func (m *memoryStore) ReserveAssetQuantity(ctx context.Context, assetID string, quantityKG float64) (*schema.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reserveAssetQuantity(assetID, quantityKG)
}

func (m *memoryStore) ReleaseAssetQuantity(ctx context.Context, assetID string, quantityKG float64) (*schema.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.releaseAssetQuantity(assetID, quantityKG)
}

func (m *memoryStore) ExpireActiveAssets(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.expireActiveAssets(now), nil
}

func (m *memoryStore) CreateTransaction(ctx context.Context, tx *schema.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createTransaction(tx)
}

func (m *memoryStore) GetTransaction(ctx context.Context, id string) (*schema.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getTransaction(id), nil
}

func (m *memoryStore) GetTransactionForUpdate(ctx context.Context, id string) (*schema.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getTransaction(id), nil
}

func (m *memoryStore) UpdateTransaction(ctx context.Context, tx *schema.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateTransaction(tx)
}

func (m *memoryStore) ListTransactionsDueForRelease(ctx context.Context, now time.Time, limit int) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listTransactionsDueForRelease(now, limit), nil
}

func (m *memoryStore) CreateDispute(ctx context.Context, dispute *schema.Dispute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createDispute(dispute)
}

func (m *memoryStore) GetDispute(ctx context.Context, id string) (*schema.Dispute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getDispute(id), nil
}

func (m *memoryStore) GetDisputeForUpdate(ctx context.Context, id string) (*schema.Dispute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getDispute(id), nil
}

func (m *memoryStore) UpdateDispute(ctx context.Context, dispute *schema.Dispute) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateDispute(dispute)
}

func (m *memoryStore) GetOpenDisputeByTransaction(ctx context.Context, transactionID string) (*schema.Dispute, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOpenDisputeByTransaction(transactionID), nil
}

func (m *memoryStore) UpsertMarketInventory(ctx context.Context, inventory *schema.MarketInventory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.upsertMarketInventory(inventory)
}

func (m *memoryStore) GetMarketInventoryByFarm(ctx context.Context, farmID string) ([]*schema.MarketInventory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getMarketInventoryByFarm(farmID), nil
}

func (m *memoryStore) CreateBuyerOrder(ctx context.Context, order *schema.BuyerOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.createBuyerOrder(order)
}

func (m *memoryStore) ListBuyerOrders(ctx context.Context, buyerID string) ([]*schema.BuyerOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listBuyerOrders(buyerID), nil
}

func (m *memoryStore) MarketplaceStats(ctx context.Context) (*MarketplaceStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.marketplaceStats(), nil
}

// --- transaction-bound view ---

func (t *txMemoryStore) Atomic(ctx context.Context, fn func(Store) error) error {
	// Nested Atomic joins the outer transaction
	return fn(t)
}

func (t *txMemoryStore) CreateAsset(ctx context.Context, asset *schema.Asset) error {
	return t.parent.createAsset(asset)
}

func (t *txMemoryStore) GetAsset(ctx context.Context, id string) (*schema.Asset, error) {
	return t.parent.getAsset(id), nil
}

func (t *txMemoryStore) GetAssetForUpdate(ctx context.Context, id string) (*schema.Asset, error) {
	return t.parent.getAsset(id), nil
}

func (t *txMemoryStore) UpdateAsset(ctx context.Context, asset *schema.Asset) error {
	return t.parent.updateAsset(asset)
}

func (t *txMemoryStore) ListActiveAssets(ctx context.Context, filter AssetFilter) ([]*schema.Asset, error) {
	return t.parent.listActiveAssets(filter), nil
}

func (t *txMemoryStore) ReserveAssetQuantity(ctx context.Context, assetID string, quantityKG float64) (*schema.Asset, error) {
	return t.parent.reserveAssetQuantity(assetID, quantityKG)
}

func (t *txMemoryStore) ReleaseAssetQuantity(ctx context.Context, assetID string, quantityKG float64) (*schema.Asset, error) {
	return t.parent.releaseAssetQuantity(assetID, quantityKG)
}

func (t *txMemoryStore) ExpireActiveAssets(ctx context.Context, now time.Time) (int64, error) {
	return t.parent.expireActiveAssets(now), nil
}

func (t *txMemoryStore) CreateTransaction(ctx context.Context, tx *schema.Transaction) error {
	return t.parent.createTransaction(tx)
}

func (t *txMemoryStore) GetTransaction(ctx context.Context, id string) (*schema.Transaction, error) {
	return t.parent.getTransaction(id), nil
}

func (t *txMemoryStore) GetTransactionForUpdate(ctx context.Context, id string) (*schema.Transaction, error) {
	return t.parent.getTransaction(id), nil
}

func (t *txMemoryStore) UpdateTransaction(ctx context.Context, tx *schema.Transaction) error {
	return t.parent.updateTransaction(tx)
}

func (t *txMemoryStore) ListTransactionsDueForRelease(ctx context.Context, now time.Time, limit int) ([]string, error) {
	return t.parent.listTransactionsDueForRelease(now, limit), nil
}

func (t *txMemoryStore) CreateDispute(ctx context.Context, dispute *schema.Dispute) error {
	return t.parent.createDispute(dispute)
}

func (t *txMemoryStore) GetDispute(ctx context.Context, id string) (*schema.Dispute, error) {
	return t.parent.getDispute(id), nil
}

func (t *txMemoryStore) GetDisputeForUpdate(ctx context.Context, id string) (*schema.Dispute, error) {
	return t.parent.getDispute(id), nil
}

func (t *txMemoryStore) UpdateDispute(ctx context.Context, dispute *schema.Dispute) error {
	return t.parent.updateDispute(dispute)
}

func (t *txMemoryStore) GetOpenDisputeByTransaction(ctx context.Context, transactionID string) (*schema.Dispute, error) {
	return t.parent.getOpenDisputeByTransaction(transactionID), nil
}

func (t *txMemoryStore) UpsertMarketInventory(ctx context.Context, inventory *schema.MarketInventory) error {
	return t.parent.upsertMarketInventory(inventory)
}

func (t *txMemoryStore) GetMarketInventoryByFarm(ctx context.Context, farmID string) ([]*schema.MarketInventory, error) {
	return t.parent.getMarketInventoryByFarm(farmID), nil
}

func (t *txMemoryStore) CreateBuyerOrder(ctx context.Context, order *schema.BuyerOrder) error {
	return t.parent.createBuyerOrder(order)
}

func (t *txMemoryStore) ListBuyerOrders(ctx context.Context, buyerID string) ([]*schema.BuyerOrder, error) {
	return t.parent.listBuyerOrders(buyerID), nil
}

func (t *txMemoryStore) MarketplaceStats(ctx context.Context) (*MarketplaceStats, error) {
	return t.parent.marketplaceStats(), nil
}
