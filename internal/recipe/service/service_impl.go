package service

import (
	"context"
	"strings"
	"time"

	catalogdomain "github.com/bluecrumb/recipecost/internal/catalog/domain"
	"github.com/bluecrumb/recipecost/internal/costing"
	"github.com/bluecrumb/recipecost/internal/observability/logger"
	"github.com/bluecrumb/recipecost/internal/observability/metrics"
	"github.com/bluecrumb/recipecost/internal/pricecheck"
	"github.com/bluecrumb/recipecost/internal/recipe/domain"
	"github.com/bluecrumb/recipecost/pkg/db"
	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	GenID   *snowflake.Node
	Repo    domain.Repository
	Catalog catalogdomain.Service
	Metrics *metrics.Metrics
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	genID   *snowflake.Node
	catalog catalogdomain.Service
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("recipe.service"),
		repo:    p.Repo,
		genID:   p.GenID,
		catalog: p.Catalog,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, req domain.SaveRequest) (*domain.Response, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	servings := floorServings(req.Servings)

	costed, err := s.cost(ctx, req.Ingredients, req.Packaging, servings)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &domain.Recipe{
		ID:             s.genID.Generate().Int64(),
		Title:          title,
		Slug:           slug.Make(title),
		Servings:       servings,
		TotalCost:      costed.total,
		CostPerServing: costed.perServing,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if rec.Ingredients, err = domain.EncodeLineItems(costed.ingredients); err != nil {
		return nil, err
	}
	if rec.Packaging, err = domain.EncodeLineItems(costed.packaging); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, s.db, rec); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateRecipe
		}
		return nil, err
	}

	s.metrics.RecordRecipeSave(ctx, "create")
	logger.WithContext(ctx, s.log).Info("recipe created",
		zap.String("recipe_id", snowflake.ID(rec.ID).String()),
		zap.Float64("total_cost", rec.TotalCost),
	)

	resp := s.toResponse(ctx, rec, false)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, id string, req domain.SaveRequest) (*domain.Response, error) {
	recipeID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	rec, err := s.repo.FindByID(ctx, s.db, recipeID.Int64())
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	servings := floorServings(req.Servings)

	costed, err := s.cost(ctx, req.Ingredients, req.Packaging, servings)
	if err != nil {
		return nil, err
	}

	rec.Title = title
	rec.Slug = slug.Make(title)
	rec.Servings = servings
	rec.TotalCost = costed.total
	rec.CostPerServing = costed.perServing
	if rec.Ingredients, err = domain.EncodeLineItems(costed.ingredients); err != nil {
		return nil, err
	}
	if rec.Packaging, err = domain.EncodeLineItems(costed.packaging); err != nil {
		return nil, err
	}
	rec.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, rec); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrDuplicateRecipe
		}
		return nil, err
	}

	s.metrics.RecordRecipeSave(ctx, "update")
	logger.WithContext(ctx, s.log).Info("recipe updated",
		zap.String("recipe_id", id),
		zap.Float64("total_cost", rec.TotalCost),
	)

	resp := s.toResponse(ctx, rec, false)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	filter := domain.ListRequest{
		Title:   strings.TrimSpace(req.Title),
		SortBy:  strings.TrimSpace(req.SortBy),
		OrderBy: strings.TrimSpace(req.OrderBy),
	}

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, s.toResponse(ctx, &items[i], false))
	}
	return resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	recipeID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	rec, err := s.repo.FindByID(ctx, s.db, recipeID.Int64())
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, domain.ErrNotFound
	}

	resp := s.toResponse(ctx, rec, true)
	return &resp, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	recipeID, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}

	rec, err := s.repo.FindByID(ctx, s.db, recipeID.Int64())
	if err != nil {
		return err
	}
	if rec == nil {
		return domain.ErrNotFound
	}

	return s.repo.Delete(ctx, s.db, recipeID.Int64())
}

type costedLines struct {
	ingredients []domain.LineItem
	packaging   []domain.LineItem
	total       float64
	perServing  float64
}

// cost normalizes the editor lines, recomputes every cost from the live
// catalog and stamps the live price snapshot onto linked lines.
func (s *Service) cost(ctx context.Context, ingredients, packaging []domain.LineItem, servings int) (*costedLines, error) {
	ing := normalizeLines(ingredients)
	pkg := normalizeLines(packaging)

	ingSnap, err := s.snapshot(ctx, catalogdomain.KindIngredient, ing)
	if err != nil {
		return nil, err
	}
	pkgSnap, err := s.snapshot(ctx, catalogdomain.KindPackaging, pkg)
	if err != nil {
		return nil, err
	}

	breakdown := costing.Compute(toCostingLines(ing), toCostingLines(pkg), servings, ingSnap, pkgSnap)

	stampLines(ing, breakdown.IngredientCosts, ingSnap)
	stampLines(pkg, breakdown.PackagingCosts, pkgSnap)

	return &costedLines{
		ingredients: ing,
		packaging:   pkg,
		total:       breakdown.Total,
		perServing:  breakdown.PerServing,
	}, nil
}

func (s *Service) snapshot(ctx context.Context, kind catalogdomain.Kind, lines []domain.LineItem) (costing.Snapshot, error) {
	ids := make([]string, 0, len(lines))
	for _, line := range lines {
		if line.TermID != "" {
			ids = append(ids, line.TermID)
		}
	}

	entries, err := s.catalog.Snapshot(ctx, kind, ids)
	if err != nil {
		return nil, err
	}

	snap := make(costing.Snapshot, len(entries))
	for id, entry := range entries {
		snap[id] = costing.Item{
			Price:    entry.Price,
			Quantity: entry.Quantity,
			Unit:     entry.Unit,
			Name:     entry.Name,
		}
	}
	return snap, nil
}

func (s *Service) toResponse(ctx context.Context, rec *domain.Recipe, withDrift bool) domain.Response {
	log := logger.WithContext(ctx, s.log)

	var warnings []string
	ingredients, err := domain.DecodeLineItems(rec.Ingredients)
	if err != nil {
		warnings = append(warnings, "stored ingredient lines are malformed and were treated as empty")
		log.Warn("stored ingredient lines are malformed, treating as empty",
			zap.String("recipe_id", snowflake.ID(rec.ID).String()),
			zap.Error(err),
		)
	}
	packaging, err := domain.DecodeLineItems(rec.Packaging)
	if err != nil {
		warnings = append(warnings, "stored packaging lines are malformed and were treated as empty")
		log.Warn("stored packaging lines are malformed, treating as empty",
			zap.String("recipe_id", snowflake.ID(rec.ID).String()),
			zap.Error(err),
		)
	}

	resp := domain.Response{
		ID:             snowflake.ID(rec.ID).String(),
		Title:          rec.Title,
		Slug:           rec.Slug,
		Servings:       rec.Servings,
		Ingredients:    ingredients,
		Packaging:      packaging,
		TotalCost:      rec.TotalCost,
		CostPerServing: rec.CostPerServing,
		Warnings:       warnings,
		CreatedAt:      rec.CreatedAt,
		UpdatedAt:      rec.UpdatedAt,
	}

	if withDrift {
		changes := s.detectDrift(ctx, ingredients, packaging)
		if len(changes) > 0 {
			resp.PriceChanges = changes
			s.metrics.RecordPriceDrift(ctx, len(changes))
		}
	}

	return resp
}

func (s *Service) detectDrift(ctx context.Context, ingredients, packaging []domain.LineItem) []pricecheck.Change {
	ingSnap, err := s.snapshot(ctx, catalogdomain.KindIngredient, ingredients)
	if err != nil {
		logger.WithContext(ctx, s.log).Warn("ingredient drift check skipped", zap.Error(err))
		return nil
	}
	pkgSnap, err := s.snapshot(ctx, catalogdomain.KindPackaging, packaging)
	if err != nil {
		logger.WithContext(ctx, s.log).Warn("packaging drift check skipped", zap.Error(err))
		return nil
	}

	changes := pricecheck.Detect(toSavedLines(ingredients), ingSnap)
	changes = append(changes, pricecheck.Detect(toSavedLines(packaging), pkgSnap)...)
	if len(changes) == 0 {
		return nil
	}
	return changes
}

func floorServings(servings int) int {
	if servings < 1 {
		return 1
	}
	return servings
}

func normalizeLines(lines []domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(lines))
	for _, line := range lines {
		line.ID = strings.TrimSpace(line.ID)
		if line.ID == "" {
			line.ID = ulid.Make().String()
		}
		line.TermID = strings.TrimSpace(line.TermID)
		line.Name = strings.TrimSpace(line.Name)
		line.RecipeAmount = strings.TrimSpace(line.RecipeAmount)
		line.Cost = 0
		line.SavedPrice = nil
		line.SavedQuantity = nil
		out = append(out, line)
	}
	return out
}

func toCostingLines(lines []domain.LineItem) []costing.Line {
	out := make([]costing.Line, len(lines))
	for i, line := range lines {
		out[i] = costing.Line{TermID: line.TermID, Amount: line.RecipeAmount}
	}
	return out
}

func toSavedLines(lines []domain.LineItem) []pricecheck.Saved {
	out := make([]pricecheck.Saved, len(lines))
	for i, line := range lines {
		out[i] = pricecheck.Saved{
			TermID:        line.TermID,
			Name:          line.Name,
			SavedPrice:    line.SavedPrice,
			SavedQuantity: line.SavedQuantity,
		}
	}
	return out
}

// stampLines writes the recomputed cost and the live price snapshot
// back onto each line. Lines without a resolvable catalog entry keep no
// snapshot at all.
func stampLines(lines []domain.LineItem, costs []float64, snap costing.Snapshot) {
	for i := range lines {
		lines[i].Cost = costs[i]
		if lines[i].TermID == "" {
			continue
		}
		item, ok := snap[lines[i].TermID]
		if !ok {
			continue
		}
		price := item.Price
		quantity := item.Quantity
		lines[i].SavedPrice = &price
		lines[i].SavedQuantity = &quantity
		if lines[i].Name == "" {
			lines[i].Name = item.Name
		}
	}
}
