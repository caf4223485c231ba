package domain

import (
	"context"
	"errors"
	"io"
	"time"
)

// DefaultUnit labels quantities for lines that never linked a catalog
// entry, so no unit is known.
const DefaultUnit = "units"

type Selection struct {
	RecipeID string `json:"recipe_id"`
	Batches  int    `json:"batches"`
}

type BuildRequest struct {
	Selections []Selection `json:"selections"`
}

// Contribution records what a single recipe adds to an aggregated item.
type Contribution struct {
	RecipeID    string  `json:"recipe_id"`
	RecipeTitle string  `json:"recipe_title"`
	Batches     int     `json:"batches"`
	PerBatch    float64 `json:"per_batch"`
	Total       float64 `json:"total"`
}

// Item is one aggregated purchase line. PackagesToBuy is only present
// when the catalog knows a positive package quantity.
type Item struct {
	TermID           string         `json:"termId,omitempty"`
	Name             string         `json:"name"`
	Unit             string         `json:"unit"`
	RequiredQuantity float64        `json:"required_quantity"`
	PackageQuantity  float64        `json:"package_quantity,omitempty"`
	PackagePrice     float64        `json:"package_price,omitempty"`
	PackagesToBuy    *int           `json:"packages_to_buy,omitempty"`
	EstimatedCost    float64        `json:"estimated_cost,omitempty"`
	Contributions    []Contribution `json:"contributions"`
}

type List struct {
	Items       []Item    `json:"items"`
	GeneratedAt time.Time `json:"generated_at"`
}

type Service interface {
	Build(ctx context.Context, req BuildRequest) (*List, error)
	// ExportPDF renders the aggregated list as a printable document.
	ExportPDF(ctx context.Context, req BuildRequest) (io.Reader, error)
}

var (
	ErrNoSelection     = errors.New("no_selection")
	ErrInvalidRecipeID = errors.New("invalid_recipe_id")
	ErrInvalidBatches  = errors.New("invalid_batches")
)
