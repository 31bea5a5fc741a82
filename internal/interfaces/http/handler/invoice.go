package handler

import (
	"fmt"
	"strconv"
	"strings"

	financeapp "github.com/erp/billing/internal/application/finance"
	printingapp "github.com/erp/billing/internal/application/printing"
	tradeapp "github.com/erp/billing/internal/application/trade"
	"github.com/erp/billing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
)

// InvoiceHandler handles invoice endpoints, including the dunning history of an invoice
type InvoiceHandler struct {
	BaseHandler
	invoiceService *tradeapp.InvoiceService
	dunningService *financeapp.DunningService
	printService   *printingapp.PrintService
}

// NewInvoiceHandler creates a new InvoiceHandler
func NewInvoiceHandler(
	invoiceService *tradeapp.InvoiceService,
	dunningService *financeapp.DunningService,
	printService *printingapp.PrintService,
) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		dunningService: dunningService,
		printService:   printService,
	}
}

// Routes returns the /invoices route group
func (h *InvoiceHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("invoices", "/invoices").
		POST("", h.Create).
		GET("", h.List).
		GET("/:id", h.GetByID).
		POST("/:id/lines", h.AddLine).
		PUT("/:id/lines/:position", h.UpdateLine).
		DELETE("/:id/lines/:position", h.RemoveLine).
		POST("/:id/pay", h.MarkPaid).
		GET("/:id/pdf", h.PDF).
		GET("/:id/dunning", h.ListDunning).
		POST("/:id/dunning", h.CreateDunning)
}

// Create creates a direct invoice from JSON or from a form with parallel line arrays
// @ID           createInvoice
// @Summary      Create an invoice
// @Description  Number a direct invoice by issue date and book its product lines out. Accepts JSON or a form with product_id[], description[], quantity[] and unit_price[] arrays
// @Tags         invoices
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        request body tradeapp.CreateInvoiceRequest true "Invoice"
// @Success      201 {object} APIResponse[tradeapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices [post]
func (h *InvoiceHandler) Create(c *gin.Context) {
	var req tradeapp.CreateInvoiceRequest
	if isFormPost(c) {
		parsed, err := invoiceFromForm(c)
		if err != nil {
			h.BadRequest(c, err.Error())
			return
		}
		if err := binding.Validator.ValidateStruct(parsed); err != nil {
			h.BindError(c, err)
			return
		}
		req = *parsed
	} else if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	invoice, err := h.invoiceService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// GetByID returns an invoice with its lines
// @ID           getInvoiceById
// @Summary      Get invoice by ID
// @Description  Retrieve an invoice with its lines
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	invoice, err := h.invoiceService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// List returns a page of invoices
// @ID           listInvoices
// @Summary      List invoices
// @Description  Return a page of invoices
// @Tags         invoices
// @Produce      json
// @Param        status query string false "Invoice status"
// @Param        client_id query string false "Client ID" format(uuid)
// @Param        origin_offer_id query string false "Offer the invoice was converted from" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]tradeapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices [get]
func (h *InvoiceHandler) List(c *gin.Context) {
	var filter tradeapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	var ok bool
	if filter.ClientID, ok = h.queryUUID(c, "client_id"); !ok {
		return
	}
	if filter.OriginOfferID, ok = h.queryUUID(c, "origin_offer_id"); !ok {
		return
	}

	invoices, total, err := h.invoiceService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, invoices, total, page, pageSize)
}

// AddLine appends a line
// @ID           addInvoiceLine
// @Summary      Add an invoice line
// @Description  Append a line to an unpaid invoice and rebook its stock
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body tradeapp.LineRequest true "Line"
// @Success      200 {object} APIResponse[tradeapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id}/lines [post]
func (h *InvoiceHandler) AddLine(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.LineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	invoice, err := h.invoiceService.AddLine(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// UpdateLine replaces the line at :position
// @ID           updateInvoiceLine
// @Summary      Update an invoice line
// @Description  Replace the line at a position of an unpaid invoice
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        position path int true "Line position"
// @Param        request body tradeapp.LineRequest true "Line"
// @Success      200 {object} APIResponse[tradeapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id}/lines/{position} [put]
func (h *InvoiceHandler) UpdateLine(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	pos, ok := h.pathPosition(c)
	if !ok {
		return
	}
	var req tradeapp.LineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	invoice, err := h.invoiceService.UpdateLine(c.Request.Context(), id, pos, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// RemoveLine deletes the line at :position
// @ID           removeInvoiceLine
// @Summary      Remove an invoice line
// @Description  Delete the line at a position of an unpaid invoice
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        position path int true "Line position"
// @Success      200 {object} APIResponse[tradeapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id}/lines/{position} [delete]
func (h *InvoiceHandler) RemoveLine(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	pos, ok := h.pathPosition(c)
	if !ok {
		return
	}
	invoice, err := h.invoiceService.RemoveLine(c.Request.Context(), id, pos)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// MarkPaid settles the invoice. The body is optional.
// @ID           payInvoice
// @Summary      Mark an invoice paid
// @Description  Settle an invoice. Without paid_at the current time is used
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body tradeapp.MarkPaidRequest false "Payment date"
// @Success      200 {object} APIResponse[tradeapp.InvoiceResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id}/pay [post]
func (h *InvoiceHandler) MarkPaid(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.MarkPaidRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}
	invoice, err := h.invoiceService.MarkPaid(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// PDF renders the invoice
// @ID           getInvoicePdf
// @Summary      Print an invoice
// @Description  Render the invoice as PDF
// @Tags         invoices
// @Produce      application/pdf
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id}/pdf [get]
func (h *InvoiceHandler) PDF(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	doc, err := h.printService.Invoice(c.Request.Context(), id)
	h.writePDF(c, doc, err)
}

// ListDunning returns the dunning records of the invoice ordered by stage
// @ID           listInvoiceDunning
// @Summary      List dunning records of an invoice
// @Description  Return the dunning records of an invoice ordered by stage
// @Tags         invoices
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Success      200 {object} APIResponse[[]financeapp.DunningRecordResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id}/dunning [get]
func (h *InvoiceHandler) ListDunning(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	records, err := h.dunningService.ListForInvoice(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, records)
}

// CreateDunning escalates the invoice by one stage regardless of the schedule
// @ID           createInvoiceDunning
// @Summary      Escalate an invoice
// @Description  Raise the invoice by one dunning stage regardless of the schedule
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Param        id path string true "Invoice ID" format(uuid)
// @Param        request body financeapp.ManualDunningRequest false "Options"
// @Success      201 {object} APIResponse[financeapp.DunningRecordResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /invoices/{id}/dunning [post]
func (h *InvoiceHandler) CreateDunning(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req financeapp.ManualDunningRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}
	record, err := h.dunningService.CreateManual(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, record)
}

// invoiceFromForm reads client_id, issue_date, payment_term_days, note and the
// same line arrays as offerFromForm
func invoiceFromForm(c *gin.Context) (*tradeapp.CreateInvoiceRequest, error) {
	req := &tradeapp.CreateInvoiceRequest{Note: c.PostForm("note")}

	clientID, err := uuid.Parse(c.PostForm("client_id"))
	if err != nil {
		return nil, fmt.Errorf("invalid client_id")
	}
	req.ClientID = clientID

	if req.IssueDate, err = formDate(c, "issue_date"); err != nil {
		return nil, err
	}
	if raw := strings.TrimSpace(c.PostForm("payment_term_days")); raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid payment_term_days")
		}
		req.PaymentTermDays = &days
	}

	if req.Lines, err = linesFromForm(c); err != nil {
		return nil, err
	}
	return req, nil
}
