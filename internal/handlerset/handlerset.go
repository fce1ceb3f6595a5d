// Package handlerset wires every concrete handler kind into a
// handler.Registry. It exists as a separate package (rather than living in
// internal/handler itself) so the handler package never imports its own
// kind subpackages, avoiding an import cycle while each kind subpackage
// freely imports handler.
package handlerset

import (
	"log/slog"

	"github.com/koopa0/nlqagent/internal/handler"
	"github.com/koopa0/nlqagent/internal/handler/kosis"
	"github.com/koopa0/nlqagent/internal/handler/mongoh"
	"github.com/koopa0/nlqagent/internal/handler/mysqlh"
	"github.com/koopa0/nlqagent/internal/handler/postgresh"
	"github.com/koopa0/nlqagent/internal/handler/restapi"
	"github.com/koopa0/nlqagent/internal/handler/sqliteh"
)

// NewDefaultRegistry builds a handler.Registry with every installed kind
// registered, plus describe-only entries for the kinds spec.md §4.1 lists
// as supported-in-describe-output-only (redis, oracle, mssql).
func NewDefaultRegistry(logger *slog.Logger) *handler.Registry {
	registry := handler.NewRegistry(logger)

	registry.Register(handler.KindMySQL, mysqlh.Describe, mysqlh.New)
	registry.Register(handler.KindPostgreSQL, postgresh.Describe, postgresh.New)
	registry.Register(handler.KindSQLite, sqliteh.Describe, sqliteh.New)
	registry.Register(handler.KindMongoDB, mongoh.Describe, mongoh.New)
	registry.Register(handler.KindKOSISAPI, kosis.Describe, kosis.New)
	registry.Register(handler.KindExternalAPI, restapi.Describe, restapi.New)

	registry.RegisterDescribeOnly(handler.KindRedis, describeUnsupported)
	registry.RegisterDescribeOnly(handler.KindOracle, describeUnsupported)
	registry.RegisterDescribeOnly(handler.KindMSSQL, describeUnsupported)

	return registry
}

func describeUnsupported() []handler.FieldSchema { return nil }
