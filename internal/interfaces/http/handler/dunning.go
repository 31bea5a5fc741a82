package handler

import (
	"context"

	financeapp "github.com/erp/billing/internal/application/finance"
	printingapp "github.com/erp/billing/internal/application/printing"
	"github.com/erp/billing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// SweepRunner runs one dunning sweep on demand
type SweepRunner interface {
	Run(ctx context.Context) (*financeapp.SweepReport, error)
}

// DunningHandler handles dunning sweep and dunning record endpoints
type DunningHandler struct {
	BaseHandler
	sweeper        SweepRunner
	dunningService *financeapp.DunningService
	printService   *printingapp.PrintService
}

// NewDunningHandler creates a new DunningHandler
func NewDunningHandler(sweeper SweepRunner, dunningService *financeapp.DunningService, printService *printingapp.PrintService) *DunningHandler {
	return &DunningHandler{sweeper: sweeper, dunningService: dunningService, printService: printService}
}

// Routes returns the /dunning route group
func (h *DunningHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("dunning", "/dunning").
		POST("/sweep", h.Sweep).
		PUT("/:id/send-outcome", h.RecordSendOutcome).
		GET("/:id/pdf", h.PDF)
}

// Sweep runs the dunning sweep now and returns its report
// @ID           runDunningSweep
// @Summary      Run the dunning sweep
// @Description  Escalate every overdue invoice that is due for its next stage
// @Tags         dunning
// @Produce      json
// @Success      200 {object} APIResponse[financeapp.SweepReport]
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /dunning/sweep [post]
func (h *DunningHandler) Sweep(c *gin.Context) {
	report, err := h.sweeper.Run(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// RecordSendOutcome stores the delivery result of a dunning letter
// @ID           recordDunningSendOutcome
// @Summary      Record a dunning send outcome
// @Description  Store whether a dunning letter was delivered
// @Tags         dunning
// @Accept       json
// @Produce      json
// @Param        id path string true "Dunning record ID" format(uuid)
// @Param        request body financeapp.SendOutcomeRequest true "Outcome"
// @Success      200 {object} APIResponse[financeapp.DunningRecordResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /dunning/{id}/send-outcome [put]
func (h *DunningHandler) RecordSendOutcome(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req financeapp.SendOutcomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	record, err := h.dunningService.RecordSendOutcome(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, record)
}

// PDF renders the dunning letter of a record
// @ID           getDunningLetterPdf
// @Summary      Print a dunning letter
// @Description  Render the dunning letter of a record as PDF
// @Tags         dunning
// @Produce      application/pdf
// @Param        id path string true "Dunning record ID" format(uuid)
// @Success      200 {file} binary
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /dunning/{id}/pdf [get]
func (h *DunningHandler) PDF(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	doc, err := h.printService.DunningLetter(c.Request.Context(), id)
	h.writePDF(c, doc, err)
}
