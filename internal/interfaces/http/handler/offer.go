package handler

import (
	"fmt"
	"strings"
	"time"

	printingapp "github.com/erp/billing/internal/application/printing"
	tradeapp "github.com/erp/billing/internal/application/trade"
	"github.com/erp/billing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// formDateLayout is the date format of form-encoded documents
const formDateLayout = "2006-01-02"

// OfferHandler handles offer endpoints
type OfferHandler struct {
	BaseHandler
	offerService *tradeapp.OfferService
	printService *printingapp.PrintService
}

// NewOfferHandler creates a new OfferHandler
func NewOfferHandler(offerService *tradeapp.OfferService, printService *printingapp.PrintService) *OfferHandler {
	return &OfferHandler{offerService: offerService, printService: printService}
}

// Mount adds the offer routes to the /offers group
func (h *OfferHandler) Mount(g *router.DomainGroup) {
	g.POST("", h.Create).
		GET("", h.List).
		GET("/:id", h.GetByID).
		POST("/:id/lines", h.AddLine).
		PUT("/:id/lines/:position", h.UpdateLine).
		DELETE("/:id/lines/:position", h.RemoveLine).
		POST("/:id/accept", h.Accept).
		POST("/:id/reject", h.Reject).
		GET("/:id/pdf", h.PDF)
}

// Create creates an offer from JSON or from a form with parallel line arrays
// @ID           createOffer
// @Summary      Create an offer
// @Description  Number a new offer by issue date and reserve stock for its product lines. Accepts JSON or a form with product_id[], description[], quantity[] and unit_price[] arrays
// @Tags         offers
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        request body tradeapp.CreateOfferRequest true "Offer"
// @Success      201 {object} APIResponse[tradeapp.OfferResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /offers [post]
func (h *OfferHandler) Create(c *gin.Context) {
	var req tradeapp.CreateOfferRequest
	if isFormPost(c) {
		parsed, err := offerFromForm(c)
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

	offer, err := h.offerService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, offer)
}

// GetByID returns an offer with its lines
// @ID           getOfferById
// @Summary      Get offer by ID
// @Description  Retrieve an offer with its lines
// @Tags         offers
// @Produce      json
// @Param        id path string true "Offer ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.OfferResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /offers/{id} [get]
func (h *OfferHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	offer, err := h.offerService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, offer)
}

// List returns a page of offers
// @ID           listOffers
// @Summary      List offers
// @Description  Return a page of offers
// @Tags         offers
// @Produce      json
// @Param        status query string false "open, accepted or rejected"
// @Param        client_id query string false "Client ID" format(uuid)
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]tradeapp.OfferResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /offers [get]
func (h *OfferHandler) List(c *gin.Context) {
	var filter tradeapp.OfferListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}
	clientID, ok := h.queryUUID(c, "client_id")
	if !ok {
		return
	}
	filter.ClientID = clientID

	offers, total, err := h.offerService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, offers, total, page, pageSize)
}

// AddLine appends a line
// @ID           addOfferLine
// @Summary      Add an offer line
// @Description  Append a line to an open offer and adjust its reservations
// @Tags         offers
// @Accept       json
// @Produce      json
// @Param        id path string true "Offer ID" format(uuid)
// @Param        request body tradeapp.LineRequest true "Line"
// @Success      200 {object} APIResponse[tradeapp.OfferResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /offers/{id}/lines [post]
func (h *OfferHandler) AddLine(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.LineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	offer, err := h.offerService.AddLine(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, offer)
}

// UpdateLine replaces the line at :position
// @ID           updateOfferLine
// @Summary      Update an offer line
// @Description  Replace the line at a position of an open offer
// @Tags         offers
// @Accept       json
// @Produce      json
// @Param        id path string true "Offer ID" format(uuid)
// @Param        position path int true "Line position"
// @Param        request body tradeapp.LineRequest true "Line"
// @Success      200 {object} APIResponse[tradeapp.OfferResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /offers/{id}/lines/{position} [put]
func (h *OfferHandler) UpdateLine(c *gin.Context) {
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
	offer, err := h.offerService.UpdateLine(c.Request.Context(), id, pos, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, offer)
}

// RemoveLine deletes the line at :position
// @ID           removeOfferLine
// @Summary      Remove an offer line
// @Description  Delete the line at a position of an open offer
// @Tags         offers
// @Produce      json
// @Param        id path string true "Offer ID" format(uuid)
// @Param        position path int true "Line position"
// @Success      200 {object} APIResponse[tradeapp.OfferResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /offers/{id}/lines/{position} [delete]
func (h *OfferHandler) RemoveLine(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	pos, ok := h.pathPosition(c)
	if !ok {
		return
	}
	offer, err := h.offerService.RemoveLine(c.Request.Context(), id, pos)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, offer)
}

// Accept marks the offer accepted
// @ID           acceptOffer
// @Summary      Accept an offer
// @Description  Mark an offer accepted and ship its reserved stock
// @Tags         offers
// @Produce      json
// @Param        id path string true "Offer ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.OfferResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /offers/{id}/accept [post]
func (h *OfferHandler) Accept(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	offer, err := h.offerService.Accept(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, offer)
}

// Reject marks the offer rejected and releases its reservations
// @ID           rejectOffer
// @Summary      Reject an offer
// @Description  Mark an open offer rejected and release its reservations
// @Tags         offers
// @Produce      json
// @Param        id path string true "Offer ID" format(uuid)
// @Success      200 {object} APIResponse[tradeapp.OfferResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /offers/{id}/reject [post]
func (h *OfferHandler) Reject(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	offer, err := h.offerService.Reject(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, offer)
}

// PDF renders the offer
// @ID           getOfferPdf
// @Summary      Print an offer
// @Description  Render the offer as PDF
// @Tags         offers
// @Produce      application/pdf
// @Param        id path string true "Offer ID" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /offers/{id}/pdf [get]
func (h *OfferHandler) PDF(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	doc, err := h.printService.Offer(c.Request.Context(), id)
	h.writePDF(c, doc, err)
}

// offerFromForm reads client_id, issue_date, valid_until, note and the line arrays
// product_id[], description[], quantity[] and unit_price[]. Row i of every array
// forms line i; rows left completely blank are skipped.
func offerFromForm(c *gin.Context) (*tradeapp.CreateOfferRequest, error) {
	req := &tradeapp.CreateOfferRequest{Note: c.PostForm("note")}

	clientID, err := uuid.Parse(c.PostForm("client_id"))
	if err != nil {
		return nil, fmt.Errorf("invalid client_id")
	}
	req.ClientID = clientID

	if req.IssueDate, err = formDate(c, "issue_date"); err != nil {
		return nil, err
	}
	if req.ValidUntil, err = formDate(c, "valid_until"); err != nil {
		return nil, err
	}

	lines, err := linesFromForm(c)
	if err != nil {
		return nil, err
	}
	req.Lines = lines
	return req, nil
}

func isFormPost(c *gin.Context) bool {
	ct := c.ContentType()
	return ct == binding.MIMEPOSTForm || ct == binding.MIMEMultipartPOSTForm
}

func formDate(c *gin.Context, field string) (*time.Time, error) {
	raw := strings.TrimSpace(c.PostForm(field))
	if raw == "" {
		return nil, nil
	}
	d, err := time.Parse(formDateLayout, raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s, expected YYYY-MM-DD", field)
	}
	return &d, nil
}

func linesFromForm(c *gin.Context) ([]tradeapp.LineRequest, error) {
	products := c.PostFormArray("product_id[]")
	descriptions := c.PostFormArray("description[]")
	quantities := c.PostFormArray("quantity[]")
	prices := c.PostFormArray("unit_price[]")

	rows := max(len(products), len(descriptions), len(quantities), len(prices))
	at := func(values []string, i int) string {
		if i < len(values) {
			return strings.TrimSpace(values[i])
		}
		return ""
	}

	var lines []tradeapp.LineRequest
	for i := 0; i < rows; i++ {
		productRaw, description := at(products, i), at(descriptions, i)
		quantityRaw, priceRaw := at(quantities, i), at(prices, i)
		if productRaw == "" && description == "" && quantityRaw == "" && priceRaw == "" {
			continue
		}

		line := tradeapp.LineRequest{Description: description}
		if productRaw != "" {
			pid, err := uuid.Parse(productRaw)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid product_id", i+1)
			}
			line.ProductID = &pid
		}
		qty, err := decimal.NewFromString(quantityRaw)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid quantity", i+1)
		}
		line.Quantity = qty
		if priceRaw != "" {
			price, err := decimal.NewFromString(priceRaw)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid unit_price", i+1)
			}
			line.UnitPrice = &price
		}
		lines = append(lines, line)
	}
	return lines, nil
}
