package server

import (
	"net/http"
	"strings"

	catalogdomain "github.com/bluecrumb/recipecost/internal/catalog/domain"
	"github.com/gin-gonic/gin"
)

type createCatalogEntryRequest struct {
	Kind     string         `json:"kind"`
	Name     string         `json:"name"`
	Price    float64        `json:"price"`
	Quantity float64        `json:"quantity"`
	Unit     string         `json:"unit"`
	Metadata map[string]any `json:"metadata"`
}

func (s *Server) CreateCatalogEntry(c *gin.Context) {
	var req createCatalogEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.Create(c.Request.Context(), catalogdomain.CreateRequest{
		Kind:     catalogdomain.Kind(strings.TrimSpace(req.Kind)),
		Name:     strings.TrimSpace(req.Name),
		Price:    req.Price,
		Quantity: req.Quantity,
		Unit:     strings.TrimSpace(req.Unit),
		Metadata: req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListCatalogEntries(c *gin.Context) {
	var query struct {
		Kind    string `form:"kind"`
		Name    string `form:"name"`
		SortBy  string `form:"sort_by"`
		OrderBy string `form:"order_by"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	kind := catalogdomain.Kind(strings.TrimSpace(query.Kind))
	if kind != "" && !kind.Valid() {
		AbortWithError(c, newValidationError("kind", "invalid_kind", "invalid kind"))
		return
	}

	resp, err := s.catalogSvc.List(c.Request.Context(), catalogdomain.ListRequest{
		Kind:    kind,
		Name:    strings.TrimSpace(query.Name),
		SortBy:  strings.TrimSpace(query.SortBy),
		OrderBy: strings.TrimSpace(query.OrderBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetCatalogEntryByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.catalogSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type updateCatalogEntryRequest struct {
	Name     *string        `json:"name"`
	Price    *float64       `json:"price"`
	Quantity *float64       `json:"quantity"`
	Unit     *string        `json:"unit"`
	Metadata map[string]any `json:"metadata"`
}

func (s *Server) UpdateCatalogEntry(c *gin.Context) {
	var req updateCatalogEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.catalogSvc.Update(c.Request.Context(), catalogdomain.UpdateRequest{
		ID:       strings.TrimSpace(c.Param("id")),
		Name:     req.Name,
		Price:    req.Price,
		Quantity: req.Quantity,
		Unit:     req.Unit,
		Metadata: req.Metadata,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteCatalogEntry(c *gin.Context) {
	if err := s.catalogSvc.Delete(c.Request.Context(), strings.TrimSpace(c.Param("id"))); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
