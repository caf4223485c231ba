package autosave

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
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupFlusherTest(t *testing.T) (*Flusher, *Store, recipedomain.Service, *clock.FakeClock) {
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
	store := NewStore(Config{}, fake)

	flusher, err := New(Params{
		Log:     zap.NewNop(),
		Clock:   fake,
		Store:   store,
		Recipes: recipeSvc,
		Metrics: m,
	})
	require.NoError(t, err)

	return flusher, store, recipeSvc, fake
}

func TestStore_PutGetDrop(t *testing.T) {
	fake := clock.NewFakeClock(time.Now())
	store := NewStore(Config{}, fake)

	req := recipedomain.SaveRequest{Title: "Bread", Servings: 2}
	require.NoError(t, store.Put("1", req))

	got, ok := store.Get("1")
	require.True(t, ok)
	assert.Equal(t, "Bread", got.Title)
	assert.Equal(t, []string{"1"}, store.DirtyIDs())

	store.Drop("1")
	_, ok = store.Get("1")
	assert.False(t, ok)
	assert.Empty(t, store.DirtyIDs())
}

func TestStore_MarkCleanKeepsNewerEditsDirty(t *testing.T) {
	fake := clock.NewFakeClock(time.Now())
	store := NewStore(Config{}, fake)

	require.NoError(t, store.Put("1", recipedomain.SaveRequest{Title: "v1"}))
	flushedAt := fake.Now()

	// a newer edit lands while the flush is in flight
	fake.Advance(time.Second)
	require.NoError(t, store.Put("1", recipedomain.SaveRequest{Title: "v2"}))

	store.MarkClean("1", flushedAt)
	assert.Equal(t, []string{"1"}, store.DirtyIDs())

	store.MarkClean("1", fake.Now())
	assert.Empty(t, store.DirtyIDs())
}

func TestStore_DraftsExpire(t *testing.T) {
	fake := clock.NewFakeClock(time.Now())
	store := NewStore(Config{DraftTTL: time.Millisecond}, fake)

	require.NoError(t, store.Put("1", recipedomain.SaveRequest{Title: "Bread"}))
	time.Sleep(20 * time.Millisecond)

	_, ok := store.Get("1")
	assert.False(t, ok)
	assert.Empty(t, store.DirtyIDs())
}

func TestRunOnce_FlushesThroughSavePath(t *testing.T) {
	flusher, store, recipes, _ := setupFlusherTest(t)
	ctx := context.Background()

	created, err := recipes.Create(ctx, recipedomain.SaveRequest{Title: "Bread", Servings: 2})
	require.NoError(t, err)

	require.NoError(t, store.Put(created.ID, recipedomain.SaveRequest{Title: "Bread v2", Servings: 3}))
	require.NoError(t, flusher.RunOnce(ctx))

	got, err := recipes.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Bread v2", got.Title)
	assert.Equal(t, 3, got.Servings)

	// flushed draft is clean until the next edit
	assert.Empty(t, store.DirtyIDs())
}

func TestRunOnce_DropsDraftsForDeletedRecipes(t *testing.T) {
	flusher, store, recipes, _ := setupFlusherTest(t)
	ctx := context.Background()

	created, err := recipes.Create(ctx, recipedomain.SaveRequest{Title: "Bread", Servings: 2})
	require.NoError(t, err)
	require.NoError(t, store.Put(created.ID, recipedomain.SaveRequest{Title: "Bread v2"}))
	require.NoError(t, recipes.Delete(ctx, created.ID))

	require.NoError(t, flusher.RunOnce(ctx))

	_, ok := store.Get(created.ID)
	assert.False(t, ok)
}

func TestRunOnce_InvalidDraftStaysDirty(t *testing.T) {
	flusher, store, recipes, _ := setupFlusherTest(t)
	ctx := context.Background()

	created, err := recipes.Create(ctx, recipedomain.SaveRequest{Title: "Bread", Servings: 2})
	require.NoError(t, err)

	// an empty title fails validation, the draft retries next tick
	require.NoError(t, store.Put(created.ID, recipedomain.SaveRequest{Title: "  "}))
	require.NoError(t, flusher.RunOnce(ctx))

	assert.Equal(t, []string{created.ID}, store.DirtyIDs())
}

func TestRunOnce_SkipsWhileFlushInFlight(t *testing.T) {
	flusher, _, _, _ := setupFlusherTest(t)

	flusher.running.Store(true)
	err := flusher.RunOnce(context.Background())
	assert.ErrorIs(t, err, ErrFlushInFlight)

	flusher.running.Store(false)
	assert.NoError(t, flusher.RunOnce(context.Background()))
}
