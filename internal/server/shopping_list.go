package server

import (
	"io"
	"net/http"

	shoppingdomain "github.com/bluecrumb/recipecost/internal/shoppinglist/domain"
	"github.com/gin-gonic/gin"
)

func (s *Server) BuildShoppingList(c *gin.Context) {
	var req shoppingdomain.BuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.shoppingSvc.Build(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ExportShoppingListPDF(c *gin.Context) {
	var req shoppingdomain.BuildRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	doc, err := s.shoppingSvc.ExportPDF(c.Request.Context(), req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="shopping-list.pdf"`)
	c.Header("Content-Type", "application/pdf")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, doc); err != nil {
		s.log.Warn("shopping list pdf write interrupted")
	}
}
