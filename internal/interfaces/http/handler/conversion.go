package handler

import (
	"net/http"

	tradeapp "github.com/erp/billing/internal/application/trade"
	"github.com/erp/billing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// maxBulkConversion caps the offers converted by one request
const maxBulkConversion = 100

// ConversionHandler turns offers into invoices
type ConversionHandler struct {
	BaseHandler
	conversionService *tradeapp.ConversionService
	guard             []gin.HandlerFunc
}

// NewConversionHandler creates a new ConversionHandler. guard runs before the
// mutating routes, typically the idempotency middleware.
func NewConversionHandler(conversionService *tradeapp.ConversionService, guard ...gin.HandlerFunc) *ConversionHandler {
	return &ConversionHandler{conversionService: conversionService, guard: guard}
}

// Mount adds the conversion routes to the /offers group
func (h *ConversionHandler) Mount(g *router.DomainGroup) {
	g.Match([]string{http.MethodGet, http.MethodPost}, "/convert", h.with(h.ConvertMany)...).
		POST("/:id/convert", h.with(h.Convert)...)
}

func (h *ConversionHandler) with(fn gin.HandlerFunc) []gin.HandlerFunc {
	return append(append([]gin.HandlerFunc{}, h.guard...), fn)
}

// BulkConversionResponse reports every requested offer
type BulkConversionResponse struct {
	Results   []tradeapp.ConversionOutcome `json:"results"`
	Succeeded int                          `json:"succeeded"`
	Failed    int                          `json:"failed"`
}

// Convert converts one offer
// @ID           convertOffer
// @Summary      Convert an offer
// @Description  Create an invoice from an offer, ship its reservations and mark it accepted. Honors Idempotency-Key
// @Tags         offers
// @Produce      json
// @Param        id path string true "Offer ID" format(uuid)
// @Param        Idempotency-Key header string false "Replay key"
// @Success      201 {object} APIResponse[tradeapp.ConversionResult]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /offers/{id}/convert [post]
func (h *ConversionHandler) Convert(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.conversionService.Convert(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ConvertMany converts the offers named by repeated id query values or by a
// JSON body {"offer_ids": [...]}. Each offer succeeds or fails on its own.
// @ID           convertOffers
// @Summary      Convert several offers
// @Description  Convert the offers named by repeated id query values or by a JSON body. Each offer succeeds or fails on its own
// @Tags         offers
// @Accept       json
// @Produce      json
// @Param        id query []string false "Offer IDs" collectionFormat(multi)
// @Param        request body tradeapp.ConvertOffersRequest false "Offer IDs"
// @Param        Idempotency-Key header string false "Replay key"
// @Success      200 {object} APIResponse[BulkConversionResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /offers/convert [post]
func (h *ConversionHandler) ConvertMany(c *gin.Context) {
	ids, ok := h.offerIDs(c)
	if !ok {
		return
	}

	outcomes := h.conversionService.ConvertMany(c.Request.Context(), ids)
	resp := BulkConversionResponse{Results: outcomes}
	for _, o := range outcomes {
		if o.Succeeded() {
			resp.Succeeded++
		} else {
			resp.Failed++
		}
	}
	h.Success(c, resp)
}

func (h *ConversionHandler) offerIDs(c *gin.Context) ([]uuid.UUID, bool) {
	if raw := c.QueryArray("id"); len(raw) > 0 {
		if len(raw) > maxBulkConversion {
			h.BadRequest(c, "Too many offers in one request")
			return nil, false
		}
		ids := make([]uuid.UUID, 0, len(raw))
		for _, r := range raw {
			id, err := uuid.Parse(r)
			if err != nil {
				h.BadRequest(c, "Invalid offer id "+r)
				return nil, false
			}
			ids = append(ids, id)
		}
		return ids, true
	}

	if c.Request.Method != http.MethodPost || c.Request.ContentLength == 0 {
		h.BadRequest(c, "No offers given")
		return nil, false
	}
	var req tradeapp.ConvertOffersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return nil, false
	}
	return req.OfferIDs, true
}
