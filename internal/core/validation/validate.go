package validation

import (
	"context"
	"log/slog"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/relations"
)

// DefaultConfidenceThreshold is the overall confidence below which a parse
// is flagged (permissive) or rejected (strict).
const DefaultConfidenceThreshold = 0.6

// ValidateRelation checks that the candidate's relation is registered and
// replaces the candidate's category with the registered one.
func ValidateRelation(ctx context.Context, reg *relations.Registry, q *domain.GeoQuery) error {
	cfg, err := reg.Get(q.SpatialRelation.Relation)
	if err != nil {
		return err
	}

	if q.SpatialRelation.Category != cfg.Category {
		slog.WarnContext(ctx, "relation category mismatch, using registry value",
			"relation", cfg.Name,
			"candidate_category", q.SpatialRelation.Category,
			"registry_category", cfg.Category,
		)
		q.SpatialRelation.Category = cfg.Category
	}
	return nil
}

// Enrich fills buffer parameters from the registry. Explicit distances and
// origins from the candidate take precedence; ring_only always comes from
// the registry. Containment queries end up without a buffer config.
// Running Enrich on its own output changes nothing.
func Enrich(reg *relations.Registry, q *domain.GeoQuery) error {
	cfg, err := reg.Get(q.SpatialRelation.Relation)
	if err != nil {
		return err
	}

	if cfg.Category == domain.CategoryContainment {
		q.BufferConfig = nil
		return nil
	}

	buf := q.BufferConfig
	if buf == nil {
		buf = &domain.BufferConfig{}
	}

	switch {
	case q.SpatialRelation.ExplicitDistance != nil:
		buf.DistanceM = *q.SpatialRelation.ExplicitDistance
		buf.Inferred = false
	case cfg.DefaultDistanceM != nil:
		buf.DistanceM = *cfg.DefaultDistanceM
		buf.Inferred = true
	default:
		return &domain.ValidationError{
			Message: "relation '" + cfg.Name + "' has no default distance and none was given",
			Field:   "buffer_config.distance_m",
			Detail:  "missing distance",
		}
	}

	if buf.BufferFrom == "" {
		buf.BufferFrom = cfg.BufferFrom
	}
	if buf.BufferFrom == "" {
		// Sectors always start at the centroid.
		buf.BufferFrom = domain.BufferFromCenter
	}
	buf.RingOnly = cfg.RingOnly

	q.BufferConfig = buf
	return nil
}

// CheckConfidence compares the overall confidence against threshold. Below
// the threshold it returns a *domain.LowConfidenceError in strict mode and
// an advisory otherwise.
func CheckConfidence(q *domain.GeoQuery, threshold float64, strict bool) (*domain.LowConfidenceAdvisory, error) {
	overall := q.ConfidenceBreakdown.Overall
	if overall >= threshold {
		return nil, nil
	}

	if strict {
		return nil, &domain.LowConfidenceError{
			Confidence: overall,
			Threshold:  threshold,
			Reasoning:  q.ConfidenceBreakdown.Reasoning,
		}
	}
	return &domain.LowConfidenceAdvisory{
		Query:      q.OriginalQuery,
		Confidence: overall,
		Threshold:  threshold,
		Reasoning:  q.ConfidenceBreakdown.Reasoning,
	}, nil
}
