package handler

import (
	partnerapp "github.com/erp/billing/internal/application/partner"
	"github.com/erp/billing/internal/domain/shared"
	"github.com/erp/billing/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
)

// ClientHandler handles client master data endpoints
type ClientHandler struct {
	BaseHandler
	clientService *partnerapp.ClientService
}

// NewClientHandler creates a new ClientHandler
func NewClientHandler(clientService *partnerapp.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// Routes returns the /clients route group
func (h *ClientHandler) Routes() *router.DomainGroup {
	return router.NewDomainGroup("clients", "/clients").
		POST("", h.Create).
		GET("", h.List).
		GET("/:id", h.GetByID).
		PUT("/:id", h.Update)
}

// Create registers a client
// @ID           createClient
// @Summary      Create a client
// @Description  Register a client with address, country and VAT number
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        request body partnerapp.ClientRequest true "Client details"
// @Success      201 {object} APIResponse[partnerapp.ClientResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /clients [post]
func (h *ClientHandler) Create(c *gin.Context) {
	var req partnerapp.ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	client, err := h.clientService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, client)
}

// GetByID returns one client
// @ID           getClientById
// @Summary      Get client by ID
// @Description  Retrieve a client by its ID
// @Tags         clients
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Success      200 {object} APIResponse[partnerapp.ClientResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /clients/{id} [get]
func (h *ClientHandler) GetByID(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	client, err := h.clientService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// Update replaces a client's details
// @ID           updateClient
// @Summary      Update a client
// @Description  Replace a client's details. An unchanged VAT number keeps its check result
// @Tags         clients
// @Accept       json
// @Produce      json
// @Param        id path string true "Client ID" format(uuid)
// @Param        request body partnerapp.ClientRequest true "Client details"
// @Success      200 {object} APIResponse[partnerapp.ClientResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /clients/{id} [put]
func (h *ClientHandler) Update(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.ClientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	client, err := h.clientService.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, client)
}

// List returns a page of clients
// @ID           listClients
// @Summary      List clients
// @Description  Return a page of clients
// @Tags         clients
// @Produce      json
// @Param        search query string false "Name, city or VAT number"
// @Param        page query int false "Page number" default(1)
// @Param        page_size query int false "Page size" default(20)
// @Success      200 {object} APIResponse[[]partnerapp.ClientResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      500 {object} ErrorResponse
// @Router       /clients [get]
func (h *ClientHandler) List(c *gin.Context) {
	var filter partnerapp.ClientListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	clients, total, err := h.clientService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := pageOf(filter.Page, filter.PageSize)
	h.SuccessWithMeta(c, clients, total, page, pageSize)
}

// pageOf applies the list defaults to the requested page
func pageOf(page, pageSize int) (int, int) {
	def := shared.DefaultFilter()
	if page < 1 {
		page = def.Page
	}
	if pageSize < 1 {
		pageSize = def.PageSize
	}
	return page, pageSize
}
