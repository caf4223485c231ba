package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bluecrumb/recipecost/internal/authorization"
	"github.com/bluecrumb/recipecost/internal/autosave"
	"github.com/bluecrumb/recipecost/internal/catalog"
	catalogdomain "github.com/bluecrumb/recipecost/internal/catalog/domain"
	"github.com/bluecrumb/recipecost/internal/config"
	"github.com/bluecrumb/recipecost/internal/observability"
	obsmiddleware "github.com/bluecrumb/recipecost/internal/observability/logger"
	obsmetrics "github.com/bluecrumb/recipecost/internal/observability/metrics"
	obstracing "github.com/bluecrumb/recipecost/internal/observability/tracing"
	"github.com/bluecrumb/recipecost/internal/providers/commerce"
	"github.com/bluecrumb/recipecost/internal/ratelimit"
	"github.com/bluecrumb/recipecost/internal/recipe"
	recipedomain "github.com/bluecrumb/recipecost/internal/recipe/domain"
	"github.com/bluecrumb/recipecost/internal/shoppinglist"
	shoppingdomain "github.com/bluecrumb/recipecost/internal/shoppinglist/domain"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	catalog.Module,
	recipe.Module,
	shoppinglist.Module,
	autosave.Module,
	commerce.Module,
	ratelimit.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine      *gin.Engine
	cfg         config.Config
	log         *zap.Logger
	authzSvc    authorization.Service
	catalogSvc  catalogdomain.Service
	recipeSvc   recipedomain.Service
	shoppingSvc shoppingdomain.Service
	commerceSvc commerce.Service
	drafts      *autosave.Store
	limiter     *ratelimit.EndpointLimiter
	obsMetrics  *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin         *gin.Engine
	Cfg         config.Config
	Log         *zap.Logger
	AuthzSvc    authorization.Service
	CatalogSvc  catalogdomain.Service
	RecipeSvc   recipedomain.Service
	ShoppingSvc shoppingdomain.Service
	CommerceSvc commerce.Service
	Drafts      *autosave.Store
	Limiter     *ratelimit.EndpointLimiter `optional:"true"`
	ObsMetrics  *obsmetrics.Metrics        `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:      p.Gin,
		cfg:         p.Cfg,
		log:         p.Log,
		authzSvc:    p.AuthzSvc,
		catalogSvc:  p.CatalogSvc,
		recipeSvc:   p.RecipeSvc,
		shoppingSvc: p.ShoppingSvc,
		commerceSvc: p.CommerceSvc,
		drafts:      p.Drafts,
		limiter:     p.Limiter,
		obsMetrics:  p.ObsMetrics,
	}

	svc.registerAPIRoutes()

	return svc
}

// Engine exposes the underlying router for tests.
func (s *Server) Engine() *gin.Engine { return s.engine }

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")
	v1.Use(s.TokenRequired())

	// -------- Catalog --------
	v1.GET("/catalog", s.requireAccess(authorization.ObjectCatalog, authorization.ActionRead), s.ListCatalogEntries)
	v1.POST("/catalog", s.requireAccess(authorization.ObjectCatalog, authorization.ActionWrite), s.CreateCatalogEntry)
	v1.GET("/catalog/:id", s.requireAccess(authorization.ObjectCatalog, authorization.ActionRead), s.GetCatalogEntryByID)
	v1.PATCH("/catalog/:id", s.requireAccess(authorization.ObjectCatalog, authorization.ActionWrite), s.UpdateCatalogEntry)
	v1.DELETE("/catalog/:id", s.requireAccess(authorization.ObjectCatalog, authorization.ActionWrite), s.DeleteCatalogEntry)

	// -------- Recipes --------
	v1.GET("/recipes", s.requireAccess(authorization.ObjectRecipe, authorization.ActionRead), s.ListRecipes)
	v1.POST("/recipes", s.requireAccess(authorization.ObjectRecipe, authorization.ActionWrite), s.CreateRecipe)
	v1.GET("/recipes/:id", s.requireAccess(authorization.ObjectRecipe, authorization.ActionRead), s.GetRecipeByID)
	v1.PUT("/recipes/:id", s.requireAccess(authorization.ObjectRecipe, authorization.ActionWrite), s.UpdateRecipe)
	v1.DELETE("/recipes/:id", s.requireAccess(authorization.ObjectRecipe, authorization.ActionWrite), s.DeleteRecipe)

	// Drafts live in memory until the flusher persists them.
	v1.PUT("/recipes/:id/draft", s.requireAccess(authorization.ObjectRecipe, authorization.ActionWrite), s.PutRecipeDraft)
	v1.GET("/recipes/:id/draft", s.requireAccess(authorization.ObjectRecipe, authorization.ActionRead), s.GetRecipeDraft)
	v1.DELETE("/recipes/:id/draft", s.requireAccess(authorization.ObjectRecipe, authorization.ActionWrite), s.DeleteRecipeDraft)

	// -------- Shopping list --------
	v1.POST("/shopping-list", s.requireAccess(authorization.ObjectShoppingList, authorization.ActionRead), s.RateLimit("shopping_list"), s.BuildShoppingList)
	v1.POST("/shopping-list/export", s.requireAccess(authorization.ObjectShoppingList, authorization.ActionRead), s.RateLimit("shopping_list"), s.ExportShoppingListPDF)

	// -------- Cost of goods --------
	v1.GET("/cogs", s.requireAccess(authorization.ObjectCogs, authorization.ActionRead), s.GetProductCost)
	v1.POST("/cogs/assign", s.requireAccess(authorization.ObjectCogs, authorization.ActionWrite), s.RateLimit("cogs_assign"), s.AssignProductCost)
}
