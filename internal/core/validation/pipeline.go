package validation

import (
	"context"
	"log/slog"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/relations"
)

// Pipeline runs relation validation, enrichment and the confidence gate on
// a decoded candidate, in that order.
type Pipeline struct {
	registry  *relations.Registry
	threshold float64
	strict    bool
}

// NewPipeline creates a Pipeline. A threshold outside 0..1 falls back to
// DefaultConfidenceThreshold.
func NewPipeline(reg *relations.Registry, threshold float64, strict bool) *Pipeline {
	if threshold < 0 || threshold > 1 {
		threshold = DefaultConfidenceThreshold
	}
	return &Pipeline{registry: reg, threshold: threshold, strict: strict}
}

// Threshold returns the configured confidence threshold.
func (p *Pipeline) Threshold() float64 { return p.threshold }

// Strict reports whether low confidence is fatal.
func (p *Pipeline) Strict() bool { return p.strict }

// Run validates and enriches q in place. The advisory is non-nil only for a
// low-confidence result in permissive mode.
func (p *Pipeline) Run(ctx context.Context, q *domain.GeoQuery) (*domain.LowConfidenceAdvisory, error) {
	if err := ValidateRelation(ctx, p.registry, q); err != nil {
		return nil, err
	}
	if err := Enrich(p.registry, q); err != nil {
		return nil, err
	}

	advisory, err := CheckConfidence(q, p.threshold, p.strict)
	if err != nil {
		return nil, err
	}
	if advisory != nil {
		slog.WarnContext(ctx, "low confidence parse",
			"query", q.OriginalQuery,
			"confidence", advisory.Confidence,
			"threshold", advisory.Threshold,
		)
	}
	return advisory, nil
}
