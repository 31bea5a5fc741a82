package handler

import (
	"net/http"

	printingapp "github.com/erp/billing/internal/application/printing"
	"github.com/gin-gonic/gin"
)

// writePDF sends a rendered document as a download
func (h *BaseHandler) writePDF(c *gin.Context, doc *printingapp.Document, err error) {
	if err != nil {
		h.HandleError(c, err)
		return
	}
	c.Header("Content-Disposition", doc.ContentDisposition())
	c.Data(http.StatusOK, printingapp.ContentType, doc.Content)
}
