package main

import (
	"github.com/bluecrumb/recipecost/internal/clock"
	"github.com/bluecrumb/recipecost/internal/config"
	"github.com/bluecrumb/recipecost/internal/migration"
	"github.com/bluecrumb/recipecost/internal/observability"
	"github.com/bluecrumb/recipecost/internal/server"
	"github.com/bluecrumb/recipecost/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
