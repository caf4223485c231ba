package server

import (
	"net/http"
	"strings"

	recipedomain "github.com/bluecrumb/recipecost/internal/recipe/domain"
	"github.com/gin-gonic/gin"
)

type saveRecipeRequest struct {
	Title       string                  `json:"title"`
	Servings    int                     `json:"servings"`
	Ingredients []recipedomain.LineItem `json:"ingredients"`
	Packaging   []recipedomain.LineItem `json:"packaging"`
}

func (r saveRecipeRequest) toDomain() recipedomain.SaveRequest {
	return recipedomain.SaveRequest{
		Title:       strings.TrimSpace(r.Title),
		Servings:    r.Servings,
		Ingredients: r.Ingredients,
		Packaging:   r.Packaging,
	}
}

func (s *Server) CreateRecipe(c *gin.Context) {
	var req saveRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.recipeSvc.Create(c.Request.Context(), req.toDomain())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) ListRecipes(c *gin.Context) {
	var query struct {
		Title   string `form:"title"`
		SortBy  string `form:"sort_by"`
		OrderBy string `form:"order_by"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.recipeSvc.List(c.Request.Context(), recipedomain.ListRequest{
		Title:   strings.TrimSpace(query.Title),
		SortBy:  strings.TrimSpace(query.SortBy),
		OrderBy: strings.TrimSpace(query.OrderBy),
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) GetRecipeByID(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	resp, err := s.recipeSvc.Get(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) UpdateRecipe(c *gin.Context) {
	var req saveRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	resp, err := s.recipeSvc.Update(c.Request.Context(), strings.TrimSpace(c.Param("id")), req.toDomain())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) DeleteRecipe(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if err := s.recipeSvc.Delete(c.Request.Context(), id); err != nil {
		AbortWithError(c, err)
		return
	}

	s.drafts.Drop(id)
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}

// PutRecipeDraft buffers editor state in memory. The background flusher
// persists dirty drafts through the regular save path.
func (s *Server) PutRecipeDraft(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		AbortWithError(c, newValidationError("id", "invalid_id", "invalid id"))
		return
	}

	var req saveRecipeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	if err := s.drafts.Put(id, req.toDomain()); err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"accepted": true}})
}

func (s *Server) GetRecipeDraft(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	draft, ok := s.drafts.Get(id)
	if !ok {
		AbortWithError(c, ErrNotFound)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": draft})
}

func (s *Server) DeleteRecipeDraft(c *gin.Context) {
	s.drafts.Drop(strings.TrimSpace(c.Param("id")))
	c.JSON(http.StatusOK, gin.H{"data": gin.H{"deleted": true}})
}
