package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/perly101/purrfectpaw/internal/clock"
	"github.com/perly101/purrfectpaw/internal/config"
	"github.com/perly101/purrfectpaw/internal/migration"
	"github.com/perly101/purrfectpaw/internal/observability"
	"github.com/perly101/purrfectpaw/internal/server"
	"github.com/perly101/purrfectpaw/pkg/db"
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
