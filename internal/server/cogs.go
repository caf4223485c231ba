package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

func (s *Server) GetProductCost(c *gin.Context) {
	var query struct {
		ProductID   string `form:"product_id"`
		VariationID string `form:"variation_id"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	productID, err := parseRequiredInt64(query.ProductID)
	if err != nil {
		AbortWithError(c, newValidationError("product_id", "invalid_product_id", "invalid product_id"))
		return
	}
	variationID, err := parseOptionalInt64(query.VariationID)
	if err != nil {
		AbortWithError(c, newValidationError("variation_id", "invalid_variation_id", "invalid variation_id"))
		return
	}

	resp, err := s.commerceSvc.GetCost(c.Request.Context(), productID, variationID)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

type assignProductCostRequest struct {
	ProductID   int64    `json:"product_id"`
	VariationID int64    `json:"variation_id"`
	RecipeID    string   `json:"recipe_id"`
	Amount      *float64 `json:"amount"`
}

// AssignProductCost pushes a cost value to the commerce store. The
// amount comes either from the request or from a recipe's computed cost
// per serving.
func (s *Server) AssignProductCost(c *gin.Context) {
	var req assignProductCostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	amount, err := s.resolveCostAmount(c, req)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	resp, err := s.commerceSvc.AssignCost(c.Request.Context(), req.ProductID, req.VariationID, amount)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": resp})
}

func (s *Server) resolveCostAmount(c *gin.Context, req assignProductCostRequest) (float64, error) {
	if req.Amount != nil {
		return *req.Amount, nil
	}

	recipeID := strings.TrimSpace(req.RecipeID)
	if recipeID == "" {
		return 0, newValidationError("amount", "invalid_amount", "amount or recipe_id is required")
	}

	recipe, err := s.recipeSvc.Get(c.Request.Context(), recipeID)
	if err != nil {
		return 0, err
	}
	return recipe.CostPerServing, nil
}
