package catalog

import (
	"github.com/bluecrumb/recipecost/internal/catalog/repository"
	"github.com/bluecrumb/recipecost/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
