package shoppinglist

import (
	"github.com/bluecrumb/recipecost/internal/shoppinglist/service"
	"go.uber.org/fx"
)

var Module = fx.Module("shoppinglist.service",
	fx.Provide(service.New),
)
