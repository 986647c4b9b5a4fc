package usecases

import (
	"context"
	"time"

	"github.com/paulmach/orb"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/relations"
	"github.com/samirrijal/geoquery/internal/core/spatial"
	"github.com/samirrijal/geoquery/internal/core/validation"
	"github.com/samirrijal/geoquery/internal/pkg/metrics"
	"github.com/samirrijal/geoquery/internal/pkg/telemetry"
)

// SearchAreaService chains parsing, location resolution and spatial
// transformation.
type SearchAreaService struct {
	parser      *ParseService
	locations   *LocationService
	registry    *relations.Registry
	transformer *spatial.Transformer
}

// NewSearchAreaService creates a new SearchAreaService.
func NewSearchAreaService(
	parser *ParseService,
	locations *LocationService,
	reg *relations.Registry,
	transformer *spatial.Transformer,
) *SearchAreaService {
	return &SearchAreaService{
		parser:      parser,
		locations:   locations,
		registry:    reg,
		transformer: transformer,
	}
}

// Build parses query, resolves its reference location to the best matching
// feature and computes the search geometry.
func (s *SearchAreaService) Build(ctx context.Context, query string) (*domain.SearchArea, *domain.LowConfidenceAdvisory, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanBuildArea)
	defer span.End()

	q, advisory, err := s.parser.Parse(ctx, query)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	resolveCtx, resolveSpan := telemetry.Tracer().Start(ctx, telemetry.SpanResolve,
		trace.WithAttributes(telemetry.AttrLocation.String(q.ReferenceLocation.Name)))
	ref, err := s.locations.Resolve(resolveCtx, q.ReferenceLocation)
	resolveSpan.End()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	geom, err := s.Transform(ctx, ref.Geometry, q.SpatialRelation, q.BufferConfig)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, nil, err
	}

	return &domain.SearchArea{Query: q, Reference: ref, Geometry: geom}, advisory, nil
}

// Transform applies an already validated relation to geom.
func (s *SearchAreaService) Transform(ctx context.Context, geom orb.Geometry, rel domain.SpatialRelation, buf *domain.BufferConfig) (orb.Geometry, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanTransform, trace.WithAttributes(
		telemetry.AttrRelation.String(rel.Relation),
		telemetry.AttrCategory.String(string(rel.Category)),
	))
	defer span.End()

	start := time.Now()
	out, err := s.transformer.Apply(ctx, geom, rel, buf)
	metrics.TransformDuration.WithLabelValues(string(rel.Category)).Observe(time.Since(start).Seconds())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return out, nil
}

// TransformNamed resolves relation through the registry, derives its buffer
// parameters the same way a parsed query would get them and applies it to
// geom. distanceM overrides the registry default when set.
func (s *SearchAreaService) TransformNamed(ctx context.Context, geom orb.Geometry, relation string, distanceM *float64) (orb.Geometry, *domain.BufferConfig, error) {
	cfg, err := s.registry.Get(relation)
	if err != nil {
		return nil, nil, err
	}
	q := &domain.GeoQuery{SpatialRelation: domain.SpatialRelation{
		Relation:         cfg.Name,
		Category:         cfg.Category,
		ExplicitDistance: distanceM,
	}}
	if err := validation.Enrich(s.registry, q); err != nil {
		return nil, nil, err
	}

	out, err := s.Transform(ctx, geom, q.SpatialRelation, q.BufferConfig)
	if err != nil {
		return nil, nil, err
	}
	return out, q.BufferConfig, nil
}
