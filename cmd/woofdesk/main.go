package main

import (
	"os"
	"strconv"

	"github.com/bwmarrin/snowflake"
	"github.com/woofdesk/woofdesk/internal/appointment"
	"github.com/woofdesk/woofdesk/internal/audit"
	"github.com/woofdesk/woofdesk/internal/clock"
	"github.com/woofdesk/woofdesk/internal/commission"
	"github.com/woofdesk/woofdesk/internal/config"
	"github.com/woofdesk/woofdesk/internal/credit"
	"github.com/woofdesk/woofdesk/internal/entitlement"
	"github.com/woofdesk/woofdesk/internal/invoice"
	"github.com/woofdesk/woofdesk/internal/ledger"
	"github.com/woofdesk/woofdesk/internal/migration"
	"github.com/woofdesk/woofdesk/internal/scheduler"
	"github.com/woofdesk/woofdesk/internal/server"
	"github.com/woofdesk/woofdesk/internal/subscription"
	"github.com/woofdesk/woofdesk/internal/usage"
	"github.com/woofdesk/woofdesk/pkg/db"
	"github.com/woofdesk/woofdesk/pkg/log"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		log.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		subscription.Module,
		usage.Module,
		entitlement.Module,
		credit.Module,
		appointment.Module,
		commission.Module,
		invoice.Module,
		ledger.Module,
		audit.Module,

		// Transport and background work
		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	nodeID := int64(1)
	if raw := os.Getenv("SNOWFLAKE_NODE_ID"); raw != "" {
		if parsed, err := strconv.ParseInt(raw, 10, 64); err == nil {
			nodeID = parsed
		}
	}
	node, err := snowflake.NewNode(nodeID)
	if err != nil {
		panic(err)
	}
	return node
}
