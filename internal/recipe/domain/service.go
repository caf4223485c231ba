package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bluecrumb/recipecost/internal/pricecheck"
)

type Service interface {
	Create(ctx context.Context, req SaveRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	// Get returns the saved recipe plus an advisory price drift report
	// against the live catalog. Drift never rewrites what was saved.
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, id string, req SaveRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
}

type ListRequest struct {
	Title   string
	SortBy  string
	OrderBy string
}

// SaveRequest carries the editor state. Costs and price snapshots on
// the incoming lines are ignored, a save always recomputes them from
// the live catalog. Servings below 1 are floored to 1.
type SaveRequest struct {
	Title       string     `json:"title"`
	Servings    int        `json:"servings"`
	Ingredients []LineItem `json:"ingredients"`
	Packaging   []LineItem `json:"packaging"`
}

type Response struct {
	ID             string              `json:"id"`
	Title          string              `json:"title"`
	Slug           string              `json:"slug"`
	Servings       int                 `json:"servings"`
	Ingredients    []LineItem          `json:"ingredients"`
	Packaging      []LineItem          `json:"packaging"`
	TotalCost      float64             `json:"total_cost"`
	CostPerServing float64             `json:"cost_per_serving"`
	PriceChanges   []pricecheck.Change `json:"price_changes,omitempty"`
	Warnings       []string            `json:"warnings,omitempty"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

var (
	ErrInvalidTitle    = errors.New("invalid_title")
	ErrInvalidID       = errors.New("invalid_id")
	ErrDuplicateRecipe = errors.New("duplicate_recipe")
	ErrNotFound        = errors.New("not_found")
)
