package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/vyoniqlabs/backoffice/internal/logger"
	"github.com/vyoniqlabs/backoffice/internal/migration"
	"github.com/vyoniqlabs/backoffice/internal/server"
	"github.com/vyoniqlabs/backoffice/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		fx.Provide(RegisterSnowflake),
		logger.Module,
		db.Module,
		server.Module,
		migration.Module,
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
