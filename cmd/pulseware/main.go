package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/pulseware/platform/internal/config"
	"github.com/pulseware/platform/internal/logger"
	"github.com/pulseware/platform/internal/migration"
	"github.com/pulseware/platform/internal/server"
	"github.com/pulseware/platform/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
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
