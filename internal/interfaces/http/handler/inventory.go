package handler

import (
	inventoryapp "github.com/erp/billing/internal/application/inventory"
	"github.com/erp/billing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// InventoryHandler handles stock ledger endpoints
type InventoryHandler struct {
	BaseHandler
	ledgerService *inventoryapp.LedgerService
}

// NewInventoryHandler creates a new InventoryHandler
func NewInventoryHandler(ledgerService *inventoryapp.LedgerService) *InventoryHandler {
	return &InventoryHandler{ledgerService: ledgerService}
}

// Routes returns the /inventory route group
func (h *InventoryHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("inventory", "/inventory").
		GET("/products/:id/stock", h.StockLevel).
		GET("/movements", h.Movements).
		POST("/adjustments", h.Adjust)
}

// StockLevel returns on-hand, reserved and available stock of a product
// @ID           getStockLevel
// @Summary      Get stock level
// @Description  Return on-hand, reserved and available stock of a product
// @Tags         inventory
// @Produce      json
// @Param        id path string true "Product ID" format(uuid)
// @Success      200 {object} APIResponse[inventoryapp.StockLevelResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /inventory/products/{id}/stock [get]
func (h *InventoryHandler) StockLevel(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	level, err := h.ledgerService.StockLevel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, level)
}

// Movements lists the ledger movements of one source document
// @ID           listMovements
// @Summary      List movements
// @Description  List the ledger movements of one source document
// @Tags         inventory
// @Produce      json
// @Param        source_type query string true "offer, invoice, delivery_note or manual"
// @Param        source_id query string true "Source document ID" format(uuid)
// @Success      200 {object} APIResponse[[]inventoryapp.MovementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /inventory/movements [get]
func (h *InventoryHandler) Movements(c *gin.Context) {
	var q inventoryapp.MovementQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	sourceID, ok := h.queryUUID(c, "source_id")
	if !ok {
		return
	}
	if sourceID == nil {
		h.BadRequest(c, "source_id is required")
		return
	}
	q.SourceID = *sourceID

	movements, err := h.ledgerService.MovementsBySource(c.Request.Context(), q)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movements)
}

// Adjust books a manual stock correction
// @ID           adjustStock
// @Summary      Adjust stock
// @Description  Book a manual IN or OUT correction
// @Tags         inventory
// @Accept       json
// @Produce      json
// @Param        request body inventoryapp.AdjustStockRequest true "Adjustment"
// @Success      201 {object} APIResponse[inventoryapp.MovementResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /inventory/adjustments [post]
func (h *InventoryHandler) Adjust(c *gin.Context) {
	var req inventoryapp.AdjustStockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	movement, err := h.ledgerService.Adjust(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, movement)
}
