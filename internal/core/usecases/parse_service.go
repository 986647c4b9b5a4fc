package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/ports"
	"github.com/samirrijal/geoquery/internal/core/prompt"
	"github.com/samirrijal/geoquery/internal/core/relations"
	"github.com/samirrijal/geoquery/internal/core/validation"
	"github.com/samirrijal/geoquery/internal/pkg/metrics"
	"github.com/samirrijal/geoquery/internal/pkg/telemetry"
)

const (
	msgInvocationFailed = "LLM invocation failed"
	msgInvalidOutput    = "Failed to parse query into structured format. LLM may have returned invalid JSON or missed required fields."
)

// Parse outcomes, used for metrics and events.
const (
	OutcomeOK            = "ok"
	OutcomeLowConfidence = "low_confidence"
	OutcomeError         = "error"
)

// ParseService turns natural-language location queries into validated,
// enriched GeoQuery values.
type ParseService struct {
	llm      ports.LanguageModel
	registry *relations.Registry
	pipeline *validation.Pipeline
	prompts  *prompt.Builder
	events   ports.EventPublisher
}

// NewParseService creates a new ParseService. events may be nil.
func NewParseService(
	llm ports.LanguageModel,
	reg *relations.Registry,
	pipeline *validation.Pipeline,
	prompts *prompt.Builder,
	events ports.EventPublisher,
) *ParseService {
	return &ParseService{
		llm:      llm,
		registry: reg,
		pipeline: pipeline,
		prompts:  prompts,
		events:   events,
	}
}

// Registry exposes the relation registry the service validates against.
func (s *ParseService) Registry() *relations.Registry { return s.registry }

// Parse runs a single query through the language model and the validation
// pipeline. On success the advisory is non-nil only when the confidence was
// under the threshold in permissive mode.
func (s *ParseService) Parse(ctx context.Context, query string) (*domain.GeoQuery, *domain.LowConfidenceAdvisory, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanParse,
		trace.WithAttributes(telemetry.AttrQuery.String(query)))
	defer span.End()

	q, advisory, err := s.parse(ctx, query)

	outcome := OutcomeOK
	switch {
	case err != nil:
		outcome = OutcomeError
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	case advisory != nil:
		outcome = OutcomeLowConfidence
	}
	span.SetAttributes(telemetry.AttrOutcome.String(outcome))
	metrics.ParsesTotal.WithLabelValues(outcome).Inc()

	if q != nil {
		span.SetAttributes(
			telemetry.AttrRelation.String(q.SpatialRelation.Relation),
			telemetry.AttrLocation.String(q.ReferenceLocation.Name),
			telemetry.AttrConfidence.Float64(q.ConfidenceBreakdown.Overall),
		)
	}
	if err == nil {
		metrics.RelationsParsed.WithLabelValues(q.SpatialRelation.Relation).Inc()
	}
	if advisory != nil {
		metrics.LowConfidenceAdvisories.Inc()
		s.publishAdvisory(ctx, advisory)
	}
	s.publishOutcome(ctx, query, outcome, q, err)

	if err != nil {
		return nil, nil, err
	}
	return q, advisory, nil
}

func (s *ParseService) parse(ctx context.Context, query string) (*domain.GeoQuery, *domain.LowConfidenceAdvisory, error) {
	if strings.TrimSpace(query) == "" {
		return nil, nil, &domain.ValidationError{Message: "query must not be empty", Field: "query"}
	}

	messages, err := s.prompts.Messages(query)
	if err != nil {
		return nil, nil, fmt.Errorf("build prompt: %w", err)
	}

	inferCtx, inferSpan := telemetry.Tracer().Start(ctx, telemetry.SpanInfer)
	inf, err := s.llm.Infer(inferCtx, messages)
	inferSpan.End()
	if err != nil {
		return nil, nil, &domain.ParsingError{Message: msgInvocationFailed, Cause: err}
	}

	if inf == nil || inf.Candidate == nil {
		perr := &domain.ParsingError{Message: msgInvalidOutput}
		if inf != nil {
			perr.RawResponse = inf.Raw
			perr.Cause = inf.ParsingError
		}
		return nil, nil, perr
	}

	q := inf.Candidate
	if err := q.CheckShape(); err != nil {
		return nil, nil, &domain.ParsingError{Message: msgInvalidOutput, RawResponse: inf.Raw, Cause: err}
	}
	q.OriginalQuery = query

	valCtx, valSpan := telemetry.Tracer().Start(ctx, telemetry.SpanValidate)
	advisory, err := s.pipeline.Run(valCtx, q)
	valSpan.End()
	if err != nil {
		return q, nil, err
	}
	return q, advisory, nil
}

// ParseBatch parses queries one after another, in order. The first failure
// stops the batch; the queries parsed before it are returned together with
// the error, which carries the failing index.
func (s *ParseService) ParseBatch(ctx context.Context, queries []string) ([]*domain.GeoQuery, error) {
	ctx, span := telemetry.Tracer().Start(ctx, telemetry.SpanParseBatch,
		trace.WithAttributes(telemetry.AttrBatchSize.Int(len(queries))))
	defer span.End()

	results := make([]*domain.GeoQuery, 0, len(queries))
	for i, query := range queries {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		q, _, err := s.Parse(ctx, query)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return results, &BatchItemError{Index: i, Query: query, Err: err}
		}
		results = append(results, q)
	}
	return results, nil
}

// BatchItemError reports which query of a batch failed.
type BatchItemError struct {
	Index int
	Query string
	Err   error
}

func (e *BatchItemError) Error() string {
	return fmt.Sprintf("query %d (%q): %v", e.Index, e.Query, e.Err)
}

func (e *BatchItemError) Unwrap() error { return e.Err }

// AvailableRelations lists relation names, optionally restricted to category.
func (s *ParseService) AvailableRelations(category domain.Category) ([]string, error) {
	if category != "" && !category.Valid() {
		return nil, &domain.ValidationError{
			Message: "unknown relation category",
			Field:   "category",
			Detail:  string(category),
		}
	}
	return s.registry.List(category), nil
}

// RelationConfigs returns the registered configurations, optionally
// restricted to category, sorted by name.
func (s *ParseService) RelationConfigs(category domain.Category) ([]domain.RelationConfig, error) {
	if _, err := s.AvailableRelations(category); err != nil {
		return nil, err
	}
	return s.registry.Configs(category), nil
}

// DescribeRelation returns the registry description of name.
func (s *ParseService) DescribeRelation(name string) (string, error) {
	cfg, err := s.registry.Get(name)
	if err != nil {
		return "", err
	}
	return cfg.Description, nil
}

func (s *ParseService) publishOutcome(ctx context.Context, query, outcome string, q *domain.GeoQuery, err error) {
	if s.events == nil {
		return
	}
	event := &domain.ParseEvent{Query: query, Outcome: outcome, At: time.Now().UTC()}
	if q != nil {
		event.Relation = q.SpatialRelation.Relation
		event.Location = q.ReferenceLocation.Name
		event.Confidence = q.ConfidenceBreakdown.Overall
	}
	if err != nil {
		event.Error = err.Error()
	}
	if perr := s.events.PublishParseEvent(ctx, event); perr != nil {
		slog.WarnContext(ctx, "publish parse event failed", "error", perr)
	}
}

func (s *ParseService) publishAdvisory(ctx context.Context, advisory *domain.LowConfidenceAdvisory) {
	if s.events == nil {
		return
	}
	if err := s.events.PublishAdvisory(ctx, advisory); err != nil {
		slog.WarnContext(ctx, "publish advisory failed", "error", err)
	}
}
