package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/vantage-sense/vantage/internal/alert"
	"github.com/vantage-sense/vantage/internal/alerting"
	"github.com/vantage-sense/vantage/internal/clock"
	"github.com/vantage-sense/vantage/internal/config"
	"github.com/vantage-sense/vantage/internal/logger"
	"github.com/vantage-sense/vantage/internal/measurement"
	"github.com/vantage-sense/vantage/internal/migration"
	"github.com/vantage-sense/vantage/internal/observability/metrics"
	"github.com/vantage-sense/vantage/internal/ratelimit"
	"github.com/vantage-sense/vantage/internal/redisconn"
	"github.com/vantage-sense/vantage/internal/server"
	"github.com/vantage-sense/vantage/internal/threshold"
	"github.com/vantage-sense/vantage/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		clock.Module,
		db.Module,
		redisconn.Module,
		metrics.Module,
		migration.Module,

		// Domains
		threshold.Module,
		alerting.Module,
		measurement.Module,
		alert.Module,
		ratelimit.Module,

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
