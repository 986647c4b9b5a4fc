// Package app assembles core services from configuration. Every binary
// builds its parser and gazetteer through here.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/samirrijal/geoquery/internal/adapters/geojsonfile"
	"github.com/samirrijal/geoquery/internal/adapters/llm"
	"github.com/samirrijal/geoquery/internal/adapters/postgres"
	"github.com/samirrijal/geoquery/internal/core/ports"
	"github.com/samirrijal/geoquery/internal/core/prompt"
	"github.com/samirrijal/geoquery/internal/core/relations"
	"github.com/samirrijal/geoquery/internal/core/spatial"
	"github.com/samirrijal/geoquery/internal/core/usecases"
	"github.com/samirrijal/geoquery/internal/core/validation"
	"github.com/samirrijal/geoquery/internal/pkg/config"
	"github.com/samirrijal/geoquery/internal/pkg/geometry"
)

// NewParseService wires the language model client, relation registry,
// validation pipeline and prompt builder. events may be nil.
func NewParseService(cfg *config.Config, events ports.EventPublisher) *usecases.ParseService {
	reg := relations.New()
	model := llm.New(llm.Config{
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		Timeout:     time.Duration(cfg.LLM.TimeoutSeconds) * time.Second,
		Temperature: cfg.LLM.Temperature,
	})
	slog.Info("parser configured",
		"model", model.Model(),
		"threshold", cfg.Parser.ConfidenceThreshold,
		"strict", cfg.Parser.StrictMode,
	)

	return usecases.NewParseService(
		model,
		reg,
		validation.NewPipeline(reg, cfg.Parser.ConfidenceThreshold, cfg.Parser.StrictMode),
		prompt.NewBuilder(reg, cfg.Parser.IncludeExamples),
		events,
	)
}

// NewSearchAreaService builds the transformation stack on top of parser.
func NewSearchAreaService(parser *usecases.ParseService, locations *usecases.LocationService) *usecases.SearchAreaService {
	reg := parser.Registry()
	return usecases.NewSearchAreaService(parser, locations, reg, spatial.NewTransformer(reg, geometry.New(0)))
}

// Gazetteer is an opened location data source. DB is set only for the
// postgres driver.
type Gazetteer struct {
	Source ports.GeoDataSource
	DB     *postgres.DB
	close  func()
}

// Close releases the underlying connection pool or index.
func (g *Gazetteer) Close() {
	if g.close != nil {
		g.close()
	}
}

// OpenGazetteer opens the data source selected by cfg.DataSource.
func OpenGazetteer(ctx context.Context, cfg *config.Config) (*Gazetteer, error) {
	switch cfg.DataSource.Driver {
	case config.DriverFile:
		src, err := geojsonfile.Load(cfg.DataSource.Path)
		if err != nil {
			return nil, fmt.Errorf("gazetteer: %w", err)
		}
		slog.Info("gazetteer loaded", "path", cfg.DataSource.Path, "features", src.Len())
		return &Gazetteer{Source: src, close: func() { _ = src.Close() }}, nil

	case config.DriverPostgres, "":
		db, err := postgres.New(ctx, cfg.Database.DSN(), 0)
		if err != nil {
			return nil, fmt.Errorf("gazetteer: %w", err)
		}
		return &Gazetteer{Source: postgres.NewFeatureRepo(db), DB: db, close: db.Close}, nil

	default:
		return nil, fmt.Errorf("gazetteer: unknown driver %q", cfg.DataSource.Driver)
	}
}
