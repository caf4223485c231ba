package commerce

import "go.uber.org/fx"

var Module = fx.Module("commerce.client",
	fx.Provide(New),
)
