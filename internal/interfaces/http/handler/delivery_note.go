package handler

import (
	printingapp "github.com/erp/billing/internal/application/printing"
	tradeapp "github.com/erp/billing/internal/application/trade"
	"github.com/erp/billing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// DeliveryNoteHandler handles delivery note endpoints
type DeliveryNoteHandler struct {
	BaseHandler
	noteService  *tradeapp.DeliveryNoteService
	printService *printingapp.PrintService
}

// NewDeliveryNoteHandler creates a new DeliveryNoteHandler
func NewDeliveryNoteHandler(noteService *tradeapp.DeliveryNoteService, printService *printingapp.PrintService) *DeliveryNoteHandler {
	return &DeliveryNoteHandler{noteService: noteService, printService: printService}
}

// Routes returns the /delivery-notes route group
func (h *DeliveryNoteHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("delivery-notes", "/delivery-notes").
		POST("", h.Create).
		GET("", h.List).
		GET("/:id", h.GetByID).
		GET("/:id/pdf", h.PDF)
}

// Create records a delivery and books its stock out
// @ID           createDeliveryNote
// @Summary      Create a delivery note
// @Description  Record a delivery and book its stock out
// @Tags         delivery-notes
// @Accept       json
// @Produce      json
// @Param        request body tradeapp.CreateDeliveryNoteRequest true "Delivery note"
// @Success      201 {object} APIResponse[tradeapp.DeliveryNoteResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /delivery-notes [post]
func (h *DeliveryNoteHandler) Create(c *gin.Context) {
	var req tradeapp.CreateDeliveryNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	note, err := h.noteService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, note)
}

// GetByID returns a delivery note with its lines
// @ID           getDeliveryNoteById
// @Summary      Get delivery note by ID
// @Description  Retrieve a delivery note with its lines
// @Tags         delivery-notes
// @Produce      json
// @Param        id path string true "Delivery note ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.DeliveryNoteResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /delivery-notes/{id} [get]
func (h *DeliveryNoteHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	note, err := h.noteService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, note)
}

// List returns delivery notes
// @ID           listDeliveryNotes
// @Summary      List delivery notes
// @Description  Return delivery notes, optionally for one client or invoice
// @Tags         delivery-notes
// @Produce      json
// @Param        client_id query string false "Client ID" format(uuid)
// @Param        invoice_id query string false "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[[]tradeapp.DeliveryNoteResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /delivery-notes [get]
func (h *DeliveryNoteHandler) List(c *gin.Context) {
	var filter tradeapp.DeliveryNoteListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	var ok bool
	if filter.ClientID, ok = h.queryUUID(c, "client_id"); !ok {
		return
	}
	if filter.InvoiceID, ok = h.queryUUID(c, "invoice_id"); !ok {
		return
	}
	notes, err := h.noteService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, notes)
}

// PDF renders the delivery note
// @ID           getDeliveryNotePdf
// @Summary      Print a delivery note
// @Description  Render the delivery note as PDF
// @Tags         delivery-notes
// @Produce      application/pdf
// @Param        id path string true "Delivery note ID" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /delivery-notes/{id}/pdf [get]
func (h *DeliveryNoteHandler) PDF(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	doc, err := h.printService.DeliveryNote(c.Request.Context(), id)
	h.writePDF(c, doc, err)
}
