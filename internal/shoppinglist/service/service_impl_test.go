package service

import (
	"context"
	"testing"
	"time"

	catalogdomain "github.com/bluecrumb/recipecost/internal/catalog/domain"
	catalogrepo "github.com/bluecrumb/recipecost/internal/catalog/repository"
	catalogservice "github.com/bluecrumb/recipecost/internal/catalog/service"
	"github.com/bluecrumb/recipecost/internal/clock"
	"github.com/bluecrumb/recipecost/internal/observability/metrics"
	recipedomain "github.com/bluecrumb/recipecost/internal/recipe/domain"
	reciperepo "github.com/bluecrumb/recipecost/internal/recipe/repository"
	recipeservice "github.com/bluecrumb/recipecost/internal/recipe/service"
	"github.com/bluecrumb/recipecost/internal/shoppinglist/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fixture struct {
	svc     domain.Service
	recipes recipedomain.Service
	catalog catalogdomain.Service
	clock   *clock.FakeClock
}

func setupShoppingListTest(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&catalogdomain.Entry{}, &recipedomain.Recipe{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	m, err := metrics.New(metrics.Config{}, noop.NewMeterProvider())
	require.NoError(t, err)

	catalogSvc := catalogservice.New(catalogservice.Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  catalogrepo.Provide(),
	})

	recipeSvc := recipeservice.New(recipeservice.Params{
		DB:      db,
		Log:     zap.NewNop(),
		GenID:   node,
		Repo:    reciperepo.Provide(),
		Catalog: catalogSvc,
		Metrics: m,
	})

	fake := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	svc := New(Params{
		DB:      db,
		Log:     zap.NewNop(),
		Clock:   fake,
		Recipes: reciperepo.Provide(),
		Catalog: catalogSvc,
		Metrics: m,
	})

	return &fixture{svc: svc, recipes: recipeSvc, catalog: catalogSvc, clock: fake}
}

func (f *fixture) seedEntry(t *testing.T, name string, price, quantity float64, unit string) string {
	t.Helper()
	entry, err := f.catalog.Create(context.Background(), catalogdomain.CreateRequest{
		Kind:     catalogdomain.KindIngredient,
		Name:     name,
		Price:    price,
		Quantity: quantity,
		Unit:     unit,
	})
	require.NoError(t, err)
	return entry.ID
}

func (f *fixture) seedRecipe(t *testing.T, title string, lines []recipedomain.LineItem) string {
	t.Helper()
	rec, err := f.recipes.Create(context.Background(), recipedomain.SaveRequest{
		Title:       title,
		Servings:    2,
		Ingredients: lines,
	})
	require.NoError(t, err)
	return rec.ID
}

func TestBuild_AggregatesAcrossRecipes(t *testing.T) {
	f := setupShoppingListTest(t)
	ctx := context.Background()

	flourID := f.seedEntry(t, "Flour", 2.50, 1000, "g")
	butterID := f.seedEntry(t, "Butter", 4.00, 250, "g")

	breadID := f.seedRecipe(t, "Bread", []recipedomain.LineItem{
		{TermID: flourID, Name: "Flour", RecipeAmount: "500"},
	})
	pastryID := f.seedRecipe(t, "Pastry", []recipedomain.LineItem{
		{TermID: flourID, Name: "Flour", RecipeAmount: "200"},
		{TermID: butterID, Name: "Butter", RecipeAmount: "125"},
	})

	list, err := f.svc.Build(ctx, domain.BuildRequest{Selections: []domain.Selection{
		{RecipeID: breadID, Batches: 2},
		{RecipeID: pastryID, Batches: 3},
	}})
	require.NoError(t, err)

	require.Len(t, list.Items, 2)
	assert.Equal(t, time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC), list.GeneratedAt)

	flour := list.Items[0]
	assert.Equal(t, "Flour", flour.Name)
	assert.Equal(t, "g", flour.Unit)
	// 500*2 + 200*3
	assert.InDelta(t, 1600, flour.RequiredQuantity, 1e-9)
	require.NotNil(t, flour.PackagesToBuy)
	assert.Equal(t, 2, *flour.PackagesToBuy)
	assert.InDelta(t, 5.00, flour.EstimatedCost, 1e-9)
	require.Len(t, flour.Contributions, 2)
	assert.Equal(t, "Bread", flour.Contributions[0].RecipeTitle)
	assert.InDelta(t, 1000, flour.Contributions[0].Total, 1e-9)

	butter := list.Items[1]
	assert.InDelta(t, 375, butter.RequiredQuantity, 1e-9)
	require.NotNil(t, butter.PackagesToBuy)
	assert.Equal(t, 2, *butter.PackagesToBuy)
}

func TestBuild_ExactMultipleNeedsNoExtraPackage(t *testing.T) {
	f := setupShoppingListTest(t)

	flourID := f.seedEntry(t, "Flour", 2.50, 500, "g")
	recipeID := f.seedRecipe(t, "Bread", []recipedomain.LineItem{
		{TermID: flourID, Name: "Flour", RecipeAmount: "500"},
	})

	list, err := f.svc.Build(context.Background(), domain.BuildRequest{Selections: []domain.Selection{
		{RecipeID: recipeID, Batches: 2},
	}})
	require.NoError(t, err)

	require.Len(t, list.Items, 1)
	require.NotNil(t, list.Items[0].PackagesToBuy)
	assert.Equal(t, 2, *list.Items[0].PackagesToBuy)
}

func TestBuild_UnlinkedLinesKeyByNameAndDefaultUnit(t *testing.T) {
	f := setupShoppingListTest(t)

	aID := f.seedRecipe(t, "A", []recipedomain.LineItem{
		{Name: "Saffron", RecipeAmount: "2"},
	})
	bID := f.seedRecipe(t, "B", []recipedomain.LineItem{
		{Name: "saffron", RecipeAmount: "1"},
	})

	list, err := f.svc.Build(context.Background(), domain.BuildRequest{Selections: []domain.Selection{
		{RecipeID: aID, Batches: 1},
		{RecipeID: bID, Batches: 1},
	}})
	require.NoError(t, err)

	require.Len(t, list.Items, 1)
	item := list.Items[0]
	assert.Equal(t, domain.DefaultUnit, item.Unit)
	assert.InDelta(t, 3, item.RequiredQuantity, 1e-9)
	assert.Nil(t, item.PackagesToBuy)
}

func TestBuild_ZeroPackageQuantityOffersNoPackages(t *testing.T) {
	f := setupShoppingListTest(t)

	boxID := f.seedEntry(t, "Box", 12.00, 0, "pcs")
	recipeID := f.seedRecipe(t, "Hamper", []recipedomain.LineItem{
		{TermID: boxID, Name: "Box", RecipeAmount: "3"},
	})

	list, err := f.svc.Build(context.Background(), domain.BuildRequest{Selections: []domain.Selection{
		{RecipeID: recipeID, Batches: 1},
	}})
	require.NoError(t, err)

	require.Len(t, list.Items, 1)
	assert.Nil(t, list.Items[0].PackagesToBuy)
	assert.Zero(t, list.Items[0].EstimatedCost)
	assert.InDelta(t, 3, list.Items[0].RequiredQuantity, 1e-9)
}

func TestBuild_SelectionValidation(t *testing.T) {
	f := setupShoppingListTest(t)
	ctx := context.Background()

	_, err := f.svc.Build(ctx, domain.BuildRequest{})
	assert.ErrorIs(t, err, domain.ErrNoSelection)

	// zero batches means not selected
	recipeID := f.seedRecipe(t, "Bread", nil)
	_, err = f.svc.Build(ctx, domain.BuildRequest{Selections: []domain.Selection{
		{RecipeID: recipeID, Batches: 0},
	}})
	assert.ErrorIs(t, err, domain.ErrNoSelection)

	_, err = f.svc.Build(ctx, domain.BuildRequest{Selections: []domain.Selection{
		{RecipeID: recipeID, Batches: -1},
	}})
	assert.ErrorIs(t, err, domain.ErrInvalidBatches)

	_, err = f.svc.Build(ctx, domain.BuildRequest{Selections: []domain.Selection{
		{RecipeID: "not-a-snowflake", Batches: 1},
	}})
	assert.ErrorIs(t, err, domain.ErrInvalidRecipeID)
}

func TestExportPDF_ProducesADocument(t *testing.T) {
	f := setupShoppingListTest(t)

	flourID := f.seedEntry(t, "Flour", 2.50, 1000, "g")
	recipeID := f.seedRecipe(t, "Bread", []recipedomain.LineItem{
		{TermID: flourID, Name: "Flour", RecipeAmount: "500"},
	})

	reader, err := f.svc.ExportPDF(context.Background(), domain.BuildRequest{Selections: []domain.Selection{
		{RecipeID: recipeID, Batches: 1},
	}})
	require.NoError(t, err)
	require.NotNil(t, reader)

	buf := make([]byte, 5)
	_, err = reader.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(buf))
}
