package autosave

import (
	"context"

	"github.com/bluecrumb/recipecost/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("autosave",
	fx.Provide(ProvideConfig),
	fx.Provide(NewStore),
	fx.Provide(New),
	fx.Invoke(runFlusher),
)

func ProvideConfig(cfg config.Config) Config {
	return Config{
		FlushInterval: cfg.AutosaveInterval,
		DraftTTL:      cfg.DraftTTL,
	}.withDefaults()
}

func runFlusher(lc fx.Lifecycle, flusher *Flusher) {
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ctx, cancel := context.WithCancel(context.Background())

			go flusher.RunForever(ctx)

			lc.Append(fx.Hook{
				OnStop: func(context.Context) error {
					cancel()
					return nil
				},
			})

			return nil
		},
	})
}
