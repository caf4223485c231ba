package autosave

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/bluecrumb/recipecost/internal/clock"
	"github.com/bluecrumb/recipecost/internal/observability/metrics"
	recipedomain "github.com/bluecrumb/recipecost/internal/recipe/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var ErrInvalidConfig = errors.New("autosave: invalid configuration")

// ErrFlushInFlight reports a skipped tick: the previous flush pass has
// not finished yet.
var ErrFlushInFlight = errors.New("autosave: flush already running")

type Params struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Store   *Store
	Recipes recipedomain.Service
	Metrics *metrics.Metrics
	Config  Config `optional:"true"`
}

// Flusher periodically pushes dirty drafts through the normal recipe
// save path.
type Flusher struct {
	log     *zap.Logger
	cfg     Config
	clock   clock.Clock
	store   *Store
	recipes recipedomain.Service
	metrics *metrics.Metrics
	running atomic.Bool
}

func New(p Params) (*Flusher, error) {
	if p.Log == nil || p.Clock == nil || p.Store == nil || p.Recipes == nil {
		return nil, ErrInvalidConfig
	}
	return &Flusher{
		log:     p.Log.Named("autosave").With(zap.String("component", "autosave")),
		cfg:     p.Config.withDefaults(),
		clock:   p.Clock,
		store:   p.Store,
		recipes: p.Recipes,
		metrics: p.Metrics,
	}, nil
}

func (f *Flusher) RunForever(ctx context.Context) {
	ticker := time.NewTicker(f.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		if err := f.RunOnce(ctx); err != nil && !errors.Is(err, ErrFlushInFlight) {
			f.log.Warn("autosave flush failed", zap.Error(err))
		}
	}
}

// RunOnce flushes every dirty draft. Ticks that arrive while a pass is
// still running are skipped, never stacked.
func (f *Flusher) RunOnce(parent context.Context) error {
	if !f.running.CompareAndSwap(false, true) {
		return ErrFlushInFlight
	}
	defer f.running.Store(false)

	ctx, cancel := context.WithTimeout(parent, f.cfg.FlushTimeout)
	defer cancel()

	for _, recipeID := range f.store.DirtyIDs() {
		req, ok := f.store.Get(recipeID)
		if !ok {
			continue
		}

		startedAt := f.clock.Now()
		_, err := f.recipes.Update(ctx, recipeID, *req)
		switch {
		case err == nil:
			f.store.MarkClean(recipeID, startedAt)
			f.metrics.RecordAutosaveFlush(ctx, "success")
		case errors.Is(err, recipedomain.ErrNotFound):
			// the recipe is gone, pending work has nowhere to land
			f.store.Drop(recipeID)
			f.metrics.RecordAutosaveFlush(ctx, "dropped")
			f.log.Warn("draft dropped, recipe no longer exists",
				zap.String("recipe_id", recipeID),
			)
		default:
			// leave the draft dirty, the next tick retries
			f.metrics.RecordAutosaveFlush(ctx, "error")
			f.log.Warn("draft flush failed",
				zap.String("recipe_id", recipeID),
				zap.Error(err),
			)
		}

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return nil
}
