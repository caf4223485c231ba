// Package commerce pushes recipe costs into an external store's
// cost-of-goods field over its REST API.
package commerce

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/bluecrumb/recipecost/internal/config"
	"github.com/bluecrumb/recipecost/internal/observability/logger"
	"github.com/bluecrumb/recipecost/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	ErrDisabled       = errors.New("commerce_disabled")
	ErrInvalidProduct = errors.New("invalid_product")
	ErrInvalidAmount  = errors.New("invalid_amount")
	ErrUnavailable    = errors.New("commerce_unavailable")
)

// Cost is the cost-of-goods state of one product or variation.
type Cost struct {
	ProductID   int64   `json:"product_id"`
	VariationID int64   `json:"variation_id,omitempty"`
	Amount      float64 `json:"amount"`
}

type Service interface {
	// GetCost reads the current defined cost value. VariationID 0 means
	// the parent product.
	GetCost(ctx context.Context, productID, variationID int64) (*Cost, error)
	// AssignCost writes a new defined cost value. The amount is
	// validated before any network call.
	AssignCost(ctx context.Context, productID, variationID int64, amount float64) (*Cost, error)
}

type Params struct {
	fx.In

	Log     *zap.Logger
	Holder  *config.CommerceConfigHolder
	Metrics *metrics.Metrics
}

type client struct {
	log     *zap.Logger
	holder  *config.CommerceConfigHolder
	metrics *metrics.Metrics
	http    *http.Client
}

func New(p Params) Service {
	return &client{
		log:     p.Log.Named("commerce.client"),
		holder:  p.Holder,
		metrics: p.Metrics,
		http:    &http.Client{},
	}
}

// costOfGoods mirrors the store's wire shape: the defined value rides
// inside a values array.
type costOfGoods struct {
	Values []definedValue `json:"values"`
}

type definedValue struct {
	DefinedValue float64 `json:"defined_value"`
}

type metaEntry struct {
	Key   string `json:"key"`
	Value any    `json:"value"`
}

type productPayload struct {
	ID          int64       `json:"id"`
	CostOfGoods costOfGoods `json:"cost_of_goods"`
	MetaData    []metaEntry `json:"meta_data,omitempty"`
}

// costAmount reads the defined value, falling back to the configured
// product meta key for stores that only carry the cost as meta.
func (p *productPayload) costAmount(metaKey string) float64 {
	if len(p.CostOfGoods.Values) > 0 {
		return p.CostOfGoods.Values[0].DefinedValue
	}
	for _, meta := range p.MetaData {
		if meta.Key != metaKey {
			continue
		}
		switch v := meta.Value.(type) {
		case float64:
			return v
		case string:
			if f, err := strconv.ParseFloat(v, 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func (c *client) GetCost(ctx context.Context, productID, variationID int64) (*Cost, error) {
	cfg := c.holder.Get()
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if productID <= 0 || variationID < 0 {
		return nil, ErrInvalidProduct
	}

	payload, err := c.doRequest(ctx, cfg, http.MethodGet, productPath(productID, variationID), nil)
	if err != nil {
		return nil, err
	}

	return &Cost{
		ProductID:   productID,
		VariationID: variationID,
		Amount:      payload.costAmount(cfg.CostMetaKey),
	}, nil
}

func (c *client) AssignCost(ctx context.Context, productID, variationID int64, amount float64) (*Cost, error) {
	cfg := c.holder.Get()
	if !cfg.Enabled {
		return nil, ErrDisabled
	}
	if productID <= 0 || variationID < 0 {
		return nil, ErrInvalidProduct
	}
	if amount < 0 {
		return nil, ErrInvalidAmount
	}

	// The cost is mirrored into the product meta key so storefront
	// templates reading only meta see the same value.
	body := map[string]any{
		"cost_of_goods": costOfGoods{Values: []definedValue{{DefinedValue: amount}}},
		"meta_data":     []metaEntry{{Key: cfg.CostMetaKey, Value: amount}},
	}
	payload, err := c.doRequest(ctx, cfg, http.MethodPut, productPath(productID, variationID), body)
	if err != nil {
		c.metrics.RecordCogsPush(ctx, "error")
		return nil, err
	}

	c.metrics.RecordCogsPush(ctx, "success")
	logger.WithContext(ctx, c.log).Info("cost of goods assigned",
		zap.Int64("product_id", productID),
		zap.Int64("variation_id", variationID),
		zap.Float64("amount", amount),
	)

	return &Cost{
		ProductID:   productID,
		VariationID: variationID,
		Amount:      payload.costAmount(cfg.CostMetaKey),
	}, nil
}

func (c *client) doRequest(ctx context.Context, cfg config.CommerceConfig, method, path string, body any) (*productPayload, error) {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(raw)
	}

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(cfg.BaseURL, "/")+path, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-WP-Nonce", cfg.Nonce)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, ErrInvalidProduct
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}

	var payload productPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return &payload, nil
}

func productPath(productID, variationID int64) string {
	if variationID > 0 {
		return fmt.Sprintf("/wp-json/wc/v3/products/%d/variations/%d", productID, variationID)
	}
	return fmt.Sprintf("/wp-json/wc/v3/products/%d", productID)
}
