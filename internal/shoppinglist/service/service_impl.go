package service

import (
	"context"
	"io"
	"math"
	"strings"

	catalogdomain "github.com/bluecrumb/recipecost/internal/catalog/domain"
	"github.com/bluecrumb/recipecost/internal/clock"
	"github.com/bluecrumb/recipecost/internal/costing"
	"github.com/bluecrumb/recipecost/internal/observability/logger"
	"github.com/bluecrumb/recipecost/internal/observability/metrics"
	recipedomain "github.com/bluecrumb/recipecost/internal/recipe/domain"
	"github.com/bluecrumb/recipecost/internal/shoppinglist/domain"
	"github.com/bluecrumb/recipecost/internal/shoppinglist/render"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Clock   clock.Clock
	Recipes recipedomain.Repository
	Catalog catalogdomain.Service
	Metrics *metrics.Metrics
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	clock   clock.Clock
	recipes recipedomain.Repository
	catalog catalogdomain.Service
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("shoppinglist.service"),
		clock:   p.Clock,
		recipes: p.Recipes,
		catalog: p.Catalog,
		metrics: p.Metrics,
	}
}

func (s *Service) Build(ctx context.Context, req domain.BuildRequest) (*domain.List, error) {
	selections, ids, err := validateSelections(req.Selections)
	if err != nil {
		return nil, err
	}

	recipes, err := s.recipes.FindByIDs(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*recipedomain.Recipe, len(recipes))
	for i := range recipes {
		byID[recipes[i].ID] = &recipes[i]
	}

	// aggregate in first-seen order so output is stable across calls
	var order []string
	items := make(map[string]*domain.Item)

	for _, sel := range selections {
		rec, ok := byID[sel.id]
		if !ok {
			logger.WithContext(ctx, s.log).Warn("shopping list selection skipped, recipe missing",
				zap.String("recipe_id", sel.raw),
			)
			continue
		}

		lines, err := recipedomain.DecodeLineItems(rec.Ingredients)
		if err != nil {
			logger.WithContext(ctx, s.log).Warn("shopping list selection skipped, stored lines malformed",
				zap.String("recipe_id", sel.raw),
				zap.Error(err),
			)
			continue
		}

		for _, line := range lines {
			amount, ok := costing.ParseAmount(line.RecipeAmount)
			if !ok {
				continue
			}

			key := line.TermID
			if key == "" {
				key = strings.ToLower(strings.TrimSpace(line.Name))
			}
			if key == "" {
				continue
			}

			item, exists := items[key]
			if !exists {
				item = &domain.Item{
					TermID: line.TermID,
					Name:   line.Name,
					Unit:   domain.DefaultUnit,
				}
				items[key] = item
				order = append(order, key)
			}

			total := amount * float64(sel.batches)
			item.RequiredQuantity += total
			item.Contributions = append(item.Contributions, domain.Contribution{
				RecipeID:    sel.raw,
				RecipeTitle: rec.Title,
				Batches:     sel.batches,
				PerBatch:    amount,
				Total:       total,
			})
		}
	}

	list := &domain.List{
		Items:       make([]domain.Item, 0, len(order)),
		GeneratedAt: s.clock.Now(),
	}

	termIDs := make([]string, 0, len(order))
	for _, key := range order {
		if items[key].TermID != "" {
			termIDs = append(termIDs, items[key].TermID)
		}
	}
	snap, err := s.catalog.Snapshot(ctx, catalogdomain.KindIngredient, termIDs)
	if err != nil {
		return nil, err
	}

	for _, key := range order {
		item := items[key]
		if entry, ok := snap[item.TermID]; ok {
			if item.Name == "" {
				item.Name = entry.Name
			}
			if entry.Unit != "" {
				item.Unit = entry.Unit
			}
			item.PackageQuantity = entry.Quantity
			item.PackagePrice = entry.Price
			if entry.Quantity > 0 {
				packages := int(math.Ceil(item.RequiredQuantity / entry.Quantity))
				item.PackagesToBuy = &packages
				item.EstimatedCost = float64(packages) * entry.Price
			}
		}
		list.Items = append(list.Items, *item)
	}

	s.metrics.RecordShoppingList(ctx)
	return list, nil
}

func (s *Service) ExportPDF(ctx context.Context, req domain.BuildRequest) (io.Reader, error) {
	list, err := s.Build(ctx, req)
	if err != nil {
		return nil, err
	}
	return render.PDF(list)
}

type selection struct {
	raw     string
	id      int64
	batches int
}

func validateSelections(in []domain.Selection) ([]selection, []int64, error) {
	selections := make([]selection, 0, len(in))
	ids := make([]int64, 0, len(in))

	for _, sel := range in {
		if sel.Batches < 0 {
			return nil, nil, domain.ErrInvalidBatches
		}
		if sel.Batches == 0 {
			// zero batches means not selected
			continue
		}

		id, err := snowflake.ParseString(strings.TrimSpace(sel.RecipeID))
		if err != nil {
			return nil, nil, domain.ErrInvalidRecipeID
		}

		selections = append(selections, selection{
			raw:     id.String(),
			id:      id.Int64(),
			batches: sel.Batches,
		})
		ids = append(ids, id.Int64())
	}

	if len(selections) == 0 {
		return nil, nil, domain.ErrNoSelection
	}
	return selections, ids, nil
}
