package http

import (
	"github.com/nats-io/nats.go"
	"github.com/samirrijal/geoquery/internal/adapters/postgres"
	"github.com/samirrijal/geoquery/internal/adapters/valkey"
	"github.com/samirrijal/geoquery/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers. NATS, DB and Cache
// are optional; the file-backed gazetteer runs without a database.
type Dependencies struct {
	Parser      *usecases.ParseService
	Locations   *usecases.LocationService
	SearchAreas *usecases.SearchAreaService
	Batches     *usecases.BatchService
	NATS        *nats.Conn
	DB          *postgres.DB
	Cache       *valkey.Cache
	Version     string
}
