package domain

import (
	"context"
	"errors"
	"time"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	// Snapshot resolves live prices for the given entry ids, keyed by the
	// string form of the id. Missing ids are simply absent from the map.
	Snapshot(ctx context.Context, kind Kind, ids []string) (map[string]Entry, error)
}

type ListRequest struct {
	Kind    Kind
	Name    string
	SortBy  string
	OrderBy string
}

type CreateRequest struct {
	Kind     Kind           `json:"kind"`
	Name     string         `json:"name"`
	Price    float64        `json:"price"`
	Quantity float64        `json:"quantity"`
	Unit     string         `json:"unit"`
	Metadata map[string]any `json:"metadata"`
}

type UpdateRequest struct {
	ID       string         `json:"-"`
	Name     *string        `json:"name"`
	Price    *float64       `json:"price"`
	Quantity *float64       `json:"quantity"`
	Unit     *string        `json:"unit"`
	Metadata map[string]any `json:"metadata"`
}

type Response struct {
	ID        string         `json:"id"`
	Kind      Kind           `json:"kind"`
	Name      string         `json:"name"`
	Slug      string         `json:"slug"`
	Price     float64        `json:"price"`
	Quantity  float64        `json:"quantity"`
	Unit      string         `json:"unit"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

var (
	ErrInvalidKind     = errors.New("invalid_kind")
	ErrInvalidName     = errors.New("invalid_name")
	ErrInvalidPrice    = errors.New("invalid_price")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrInvalidID       = errors.New("invalid_id")
	ErrDuplicateEntry  = errors.New("duplicate_entry")
	ErrNotFound        = errors.New("not_found")
)
