package recipe

import (
	"github.com/bluecrumb/recipecost/internal/recipe/repository"
	"github.com/bluecrumb/recipecost/internal/recipe/service"
	"go.uber.org/fx"
)

var Module = fx.Module("recipe.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
