package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/codeternalx123/agropulseAI/internal/api/middleware"
	"github.com/codeternalx123/agropulseAI/internal/arbitration"
	"github.com/codeternalx123/agropulseAI/internal/domain"
	"github.com/codeternalx123/agropulseAI/internal/engine"
	"github.com/codeternalx123/agropulseAI/internal/ledger"
	"github.com/codeternalx123/agropulseAI/internal/market"
	"github.com/codeternalx123/agropulseAI/internal/store"
)

// Handler defines the interface for REST API handlers
// This interface allows for easy mocking and testing
//
//go:generate mockgen -source=handler.go -destination=../../mocks/api_handler.go -package=mocks -mock_names=Handler=MockAPIHandler
type Handler interface {
	// HealthCheck reports service liveness
	// GET /health
	HealthCheck(c *gin.Context)

	// CreateAsset tokenizes a verified harvest as a Draft listing
	// POST /api/v1/assets
	CreateAsset(c *gin.Context)

	// PublishAsset moves a Draft listing to Active
	// PUT /api/v1/assets/:id/publish
	PublishAsset(c *gin.Context)

	// GetAsset retrieves a single asset by id
	// GET /api/v1/assets/:id
	GetAsset(c *gin.Context)

	// ListAssets retrieves active listings with optional filters
	// GET /api/v1/assets?crop_type=<crop>&quality_grade=<grade>&max_unit_price=<price>&min_quantity_kg=<kg>&latitude=<lat>&longitude=<lng>&radius_km=<km>&limit=<limit>&offset=<offset>
	ListAssets(c *gin.Context)

	// CreateTransaction opens an escrowed trade, reserving quantity
	// POST /api/v1/transactions
	CreateTransaction(c *gin.Context)

	// EscrowFunds records the buyer's funds as locked in escrow
	// POST /api/v1/transactions/:id/escrow
	EscrowFunds(c *gin.Context)

	// SubmitDeliveryProof records delivery evidence and opens the acceptance window
	// POST /api/v1/transactions/:id/delivery-proof
	SubmitDeliveryProof(c *gin.Context)

	// AcceptDelivery completes the trade on the buyer's confirmation
	// POST /api/v1/transactions/:id/accept
	AcceptDelivery(c *gin.Context)

	// AutoRelease settles a transaction whose acceptance window lapsed (requires API key authentication)
	// POST /api/v1/transactions/:id/auto-release
	AutoRelease(c *gin.Context)

	// GetTransaction retrieves a single transaction by id
	// GET /api/v1/transactions/:id
	GetTransaction(c *gin.Context)

	// OpenDispute freezes a transaction and opens an arbitration case
	// POST /api/v1/disputes
	OpenDispute(c *gin.Context)

	// AssignArbitrator assigns the case to an arbitrator (requires authentication)
	// PUT /api/v1/disputes/:id/arbitrator
	AssignArbitrator(c *gin.Context)

	// ResolveDispute issues the binding resolution (requires authentication;
	// the JWT subject must be the assigned arbitrator)
	// POST /api/v1/disputes/:id/resolve
	ResolveDispute(c *gin.Context)

	// GetDispute retrieves a single dispute by id
	// GET /api/v1/disputes/:id
	GetDispute(c *gin.Context)

	// SyncInventory upserts a farm's reported stock for one crop
	// POST /api/v1/inventory/sync
	SyncInventory(c *gin.Context)

	// GetFarmInventory lists the inventory rows of one farm
	// GET /api/v1/inventory/:farm_id
	GetFarmInventory(c *gin.Context)

	// CreateOrder records a standing bulk order matched against active listings
	// POST /api/v1/orders
	CreateOrder(c *gin.Context)

	// ListOrders lists a buyer's orders, newest first
	// GET /api/v1/orders/:buyer_id
	ListOrders(c *gin.Context)

	// GetStats returns marketplace-wide aggregates
	// GET /api/v1/stats
	GetStats(c *gin.Context)
}

// handler implements the Handler interface
type handler struct {
	ledger      *ledger.Ledger
	engine      *engine.Engine
	arbitration *arbitration.Service
	market      *market.Service
}

// NewHandler creates a new REST API handler
func NewHandler(
	ledgerSvc *ledger.Ledger,
	engineSvc *engine.Engine,
	arbitrationSvc *arbitration.Service,
	marketSvc *market.Service,
) Handler {
	return &handler{
		ledger:      ledgerSvc,
		engine:      engineSvc,
		arbitration: arbitrationSvc,
		market:      marketSvc,
	}
}

func (h *handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type createAssetRequest struct {
	SellerID           string                     `json:"seller_id" binding:"required"`
	FarmID             *string                    `json:"farm_id"`
	CropType           string                     `json:"crop_type" binding:"required"`
	QuantityKG         float64                    `json:"quantity_kg" binding:"required"`
	UnitPrice          float64                    `json:"unit_price" binding:"required"`
	VerificationReport *domain.VerificationReport `json:"verification_report" binding:"required"`
	ImageURLs          []string                   `json:"image_urls"`
	StorageLocation    *string                    `json:"storage_location"`
	Location           *domain.GeoPoint           `json:"location"`
}

func (h *handler) CreateAsset(c *gin.Context) {
	var req createAssetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	asset, err := h.ledger.Create(c.Request.Context(), ledger.CreateInput{
		SellerID:           req.SellerID,
		FarmID:             req.FarmID,
		CropType:           req.CropType,
		QuantityKG:         req.QuantityKG,
		UnitPrice:          req.UnitPrice,
		VerificationReport: req.VerificationReport,
		ImageURLs:          req.ImageURLs,
		StorageLocation:    req.StorageLocation,
		Location:           req.Location,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, asset)
}

func (h *handler) PublishAsset(c *gin.Context) {
	asset, err := h.ledger.Publish(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, asset)
}

func (h *handler) GetAsset(c *gin.Context) {
	asset, err := h.ledger.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, asset)
}

type listAssetsQuery struct {
	CropType      *string  `form:"crop_type"`
	QualityGrade  *string  `form:"quality_grade"`
	MaxUnitPrice  *float64 `form:"max_unit_price"`
	MinQuantityKG *float64 `form:"min_quantity_kg"`
	Latitude      *float64 `form:"latitude"`
	Longitude     *float64 `form:"longitude"`
	RadiusKM      float64  `form:"radius_km"`
	Limit         int      `form:"limit"`
	Offset        int      `form:"offset"`
}

func (h *handler) ListAssets(c *gin.Context) {
	var query listAssetsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	filter := store.AssetFilter{
		CropType:      query.CropType,
		MaxUnitPrice:  query.MaxUnitPrice,
		MinQuantityKG: query.MinQuantityKG,
		RadiusKM:      query.RadiusKM,
		Limit:         query.Limit,
		Offset:        query.Offset,
	}
	if query.QualityGrade != nil {
		grade := domain.QualityGrade(*query.QualityGrade)
		filter.QualityGrade = &grade
	}
	if query.Latitude != nil && query.Longitude != nil {
		filter.Near = &domain.GeoPoint{Latitude: *query.Latitude, Longitude: *query.Longitude}
	}

	assets, err := h.ledger.ListActive(c.Request.Context(), filter)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"assets": assets, "count": len(assets)})
}

type createTransactionRequest struct {
	AssetID       string  `json:"asset_id" binding:"required"`
	BuyerID       string  `json:"buyer_id" binding:"required"`
	QuantityKG    float64 `json:"quantity_kg" binding:"required"`
	PaymentMethod string  `json:"payment_method" binding:"required"`
	DeliveryTerms *string `json:"delivery_terms"`
}

func (h *handler) CreateTransaction(c *gin.Context) {
	var req createTransactionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	tx, err := h.engine.Create(c.Request.Context(), engine.CreateInput{
		AssetID:       req.AssetID,
		BuyerID:       req.BuyerID,
		QuantityKG:    req.QuantityKG,
		PaymentMethod: domain.PaymentMethod(req.PaymentMethod),
		DeliveryTerms: req.DeliveryTerms,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tx)
}

type escrowFundsRequest struct {
	PaymentReference string `json:"payment_reference" binding:"required"`
}

func (h *handler) EscrowFunds(c *gin.Context) {
	var req escrowFundsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	tx, err := h.engine.EscrowFunds(c.Request.Context(), c.Param("id"), req.PaymentReference)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, tx)
}

type deliveryProofRequest struct {
	ImageURLs   []string `json:"image_urls" binding:"required"`
	Signature   *string  `json:"signature"`
	Note        *string  `json:"note"`
	DeliveredAt *string  `json:"delivered_at"`
}

func (h *handler) SubmitDeliveryProof(c *gin.Context) {
	var req deliveryProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	proof := domain.DeliveryProof{
		ImageURLs: req.ImageURLs,
		Signature: req.Signature,
		Note:      req.Note,
	}
	if req.DeliveredAt != nil {
		deliveredAt, err := time.Parse(time.RFC3339, *req.DeliveredAt)
		if err != nil {
			respondValidationError(c, "delivered_at must be RFC3339")
			return
		}
		proof.DeliveredAt = &deliveredAt
	}

	tx, err := h.engine.SubmitDeliveryProof(c.Request.Context(), c.Param("id"), proof)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, tx)
}

type acceptDeliveryRequest struct {
	BuyerID string `json:"buyer_id" binding:"required"`
}

func (h *handler) AcceptDelivery(c *gin.Context) {
	var req acceptDeliveryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	tx, err := h.engine.BuyerAccept(c.Request.Context(), c.Param("id"), req.BuyerID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, tx)
}

func (h *handler) AutoRelease(c *gin.Context) {
	tx, err := h.engine.AutoRelease(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, tx)
}

func (h *handler) GetTransaction(c *gin.Context) {
	tx, err := h.engine.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, tx)
}

type openDisputeRequest struct {
	TransactionID     string   `json:"transaction_id" binding:"required"`
	RaisedBy          string   `json:"raised_by" binding:"required"`
	RaisedByUserID    string   `json:"raised_by_user_id" binding:"required"`
	Category          string   `json:"category" binding:"required"`
	Description       *string  `json:"description"`
	EvidenceImageURLs []string `json:"evidence_image_urls"`
}

func (h *handler) OpenDispute(c *gin.Context) {
	var req openDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	dispute, err := h.arbitration.Open(c.Request.Context(), arbitration.OpenInput{
		TransactionID:     req.TransactionID,
		RaisedBy:          domain.Party(req.RaisedBy),
		RaisedByUserID:    req.RaisedByUserID,
		Category:          domain.DisputeCategory(req.Category),
		Description:       req.Description,
		EvidenceImageURLs: req.EvidenceImageURLs,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dispute)
}

type assignArbitratorRequest struct {
	ArbitratorID string `json:"arbitrator_id" binding:"required"`
}

func (h *handler) AssignArbitrator(c *gin.Context) {
	var req assignArbitratorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	dispute, err := h.arbitration.AssignArbitrator(c.Request.Context(), c.Param("id"), req.ArbitratorID)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

type resolveDisputeRequest struct {
	RefundPercentage *float64 `json:"refund_percentage" binding:"required"`
	ResolutionNotes  *string  `json:"resolution_notes"`
}

// ResolveDispute takes the arbitrator identity from the authenticated JWT
// subject, never from the request body
func (h *handler) ResolveDispute(c *gin.Context) {
	arbitratorID := authSubject(c)
	if arbitratorID == "" {
		respondForbidden(c, "Resolution requires an authenticated arbitrator")
		return
	}

	var req resolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	dispute, err := h.arbitration.Resolve(c.Request.Context(), arbitration.ResolveInput{
		DisputeID:        c.Param("id"),
		ArbitratorID:     arbitratorID,
		RefundPercentage: *req.RefundPercentage,
		ResolutionNotes:  req.ResolutionNotes,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

func (h *handler) GetDispute(c *gin.Context) {
	dispute, err := h.arbitration.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, dispute)
}

type syncInventoryRequest struct {
	FarmID          string   `json:"farm_id" binding:"required"`
	CropType        string   `json:"crop_type" binding:"required"`
	TotalQuantityKG *float64 `json:"total_quantity_kg" binding:"required"`
}

func (h *handler) SyncInventory(c *gin.Context) {
	var req syncInventoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	row, err := h.market.SyncInventory(c.Request.Context(), market.SyncInput{
		FarmID:          req.FarmID,
		CropType:        req.CropType,
		TotalQuantityKG: *req.TotalQuantityKG,
	})
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, row)
}

func (h *handler) GetFarmInventory(c *gin.Context) {
	rows, err := h.market.InventoryByFarm(c.Request.Context(), c.Param("farm_id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"inventory": rows, "count": len(rows)})
}

type createOrderRequest struct {
	BuyerID         string   `json:"buyer_id" binding:"required"`
	CropType        string   `json:"crop_type" binding:"required"`
	QuantityKG      float64  `json:"quantity_kg" binding:"required"`
	MaxUnitPrice    *float64 `json:"max_unit_price"`
	MinQualityGrade *string  `json:"min_quality_grade"`
}

func (h *handler) CreateOrder(c *gin.Context) {
	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidationError(c, err.Error())
		return
	}

	input := market.OrderInput{
		BuyerID:      req.BuyerID,
		CropType:     req.CropType,
		QuantityKG:   req.QuantityKG,
		MaxUnitPrice: req.MaxUnitPrice,
	}
	if req.MinQualityGrade != nil {
		grade := domain.QualityGrade(*req.MinQualityGrade)
		input.MinQualityGrade = &grade
	}

	order, err := h.market.PlaceOrder(c.Request.Context(), input)
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusCreated, order)
}

func (h *handler) ListOrders(c *gin.Context) {
	orders, err := h.market.ListOrders(c.Request.Context(), c.Param("buyer_id"))
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"orders": orders, "count": len(orders)})
}

func (h *handler) GetStats(c *gin.Context) {
	stats, err := h.market.Stats(c.Request.Context())
	if err != nil {
		respondDomainError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// authSubject extracts the authenticated subject set by the auth middleware
func authSubject(c *gin.Context) string {
	value, ok := c.Get(middleware.AUTH_SUBJECT_KEY)
	if !ok {
		return ""
	}
	subject, _ := value.(string)
	return subject
}
