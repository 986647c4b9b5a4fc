package domain

import (
	"fmt"
	"strings"
)

// Category groups spatial relations by the kind of search area they produce.
type Category string

const (
	CategoryContainment Category = "containment"
	CategoryBuffer      Category = "buffer"
	CategoryDirectional Category = "directional"
)

// Categories lists all categories in presentation order.
var Categories = []Category{CategoryContainment, CategoryBuffer, CategoryDirectional}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryContainment, CategoryBuffer, CategoryDirectional:
		return true
	}
	return false
}

// BufferOrigin selects where a buffer is measured from. The zero value means
// the origin was not specified.
type BufferOrigin string

const (
	BufferFromCenter   BufferOrigin = "center"
	BufferFromBoundary BufferOrigin = "boundary"
)

// Valid reports whether o is empty or one of the known origins.
func (o BufferOrigin) Valid() bool {
	return o == "" || o == BufferFromCenter || o == BufferFromBoundary
}

// QueryTypeSimple is the only query shape currently produced.
const QueryTypeSimple = "simple"

// SpatialRelation names the relation between the searched area and the
// reference location.
type SpatialRelation struct {
	Relation         string   `json:"relation"`
	Category         Category `json:"category"`
	ExplicitDistance *float64 `json:"explicit_distance,omitempty"` // meters, as stated by the user
}

// ReferenceLocation is the place phrase extracted from the query. It is not
// resolved to a geometry.
type ReferenceLocation struct {
	Name           string   `json:"name"`
	Type           *string  `json:"type,omitempty"`
	TypeConfidence *float64 `json:"type_confidence,omitempty"`
}

// BufferConfig holds the resolved buffer parameters. A negative DistanceM
// erodes the reference geometry.
type BufferConfig struct {
	DistanceM  float64      `json:"distance_m"`
	BufferFrom BufferOrigin `json:"buffer_from"`
	RingOnly   bool         `json:"ring_only"`
	Inferred   bool         `json:"inferred"`
}

// ConfidenceScore annotates a parse with confidence values in 0..1.
// Overall is the value checked against the confidence threshold.
type ConfidenceScore struct {
	Overall            float64  `json:"overall"`
	LocationConfidence float64  `json:"location_confidence"`
	RelationConfidence *float64 `json:"relation_confidence,omitempty"`
	Reasoning          *string  `json:"reasoning,omitempty"`
}

// GeoQuery is the structured form of a natural-language location query.
type GeoQuery struct {
	QueryType           string            `json:"query_type"`
	SpatialRelation     SpatialRelation   `json:"spatial_relation"`
	ReferenceLocation   ReferenceLocation `json:"reference_location"`
	BufferConfig        *BufferConfig     `json:"buffer_config"`
	ConfidenceBreakdown ConfidenceScore   `json:"confidence_breakdown"`
	OriginalQuery       string            `json:"original_query"`
}

// CheckShape verifies that a decoded candidate has every required field and
// that enum and range constrained fields hold legal values. It says nothing
// about business rules such as whether the relation is registered. An empty
// query_type is filled in as "simple".
func (q *GeoQuery) CheckShape() error {
	var problems []string

	if q.QueryType != "" && q.QueryType != QueryTypeSimple {
		problems = append(problems, fmt.Sprintf("query_type must be %q, got %q", QueryTypeSimple, q.QueryType))
	}
	if strings.TrimSpace(q.SpatialRelation.Relation) == "" {
		problems = append(problems, "spatial_relation.relation is required")
	}
	if !q.SpatialRelation.Category.Valid() {
		problems = append(problems, fmt.Sprintf("spatial_relation.category %q is not a known category", q.SpatialRelation.Category))
	}
	if strings.TrimSpace(q.ReferenceLocation.Name) == "" {
		problems = append(problems, "reference_location.name is required")
	}
	if tc := q.ReferenceLocation.TypeConfidence; tc != nil && !unit(*tc) {
		problems = append(problems, "reference_location.type_confidence must be within 0..1")
	}
	if b := q.BufferConfig; b != nil && !b.BufferFrom.Valid() {
		problems = append(problems, fmt.Sprintf("buffer_config.buffer_from %q is not a known origin", b.BufferFrom))
	}

	c := q.ConfidenceBreakdown
	if !unit(c.Overall) {
		problems = append(problems, "confidence_breakdown.overall must be within 0..1")
	}
	if !unit(c.LocationConfidence) {
		problems = append(problems, "confidence_breakdown.location_confidence must be within 0..1")
	}
	if c.RelationConfidence != nil && !unit(*c.RelationConfidence) {
		problems = append(problems, "confidence_breakdown.relation_confidence must be within 0..1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("malformed candidate: %s", strings.Join(problems, "; "))
	}
	if q.QueryType == "" {
		q.QueryType = QueryTypeSimple
	}
	return nil
}

func unit(v float64) bool { return v >= 0 && v <= 1 }

// LowConfidenceAdvisory is returned next to a successful parse when the
// overall confidence is under the threshold and strict mode is off.
type LowConfidenceAdvisory struct {
	Query      string  `json:"query"`
	Confidence float64 `json:"confidence"`
	Threshold  float64 `json:"threshold"`
	Reasoning  *string `json:"reasoning,omitempty"`
}

// Message renders the advisory for logs and user interfaces.
func (a *LowConfidenceAdvisory) Message() string {
	return fmt.Sprintf("confidence %.2f is below threshold %.2f", a.Confidence, a.Threshold)
}

// ConfidenceLevel buckets a score into high, medium or low.
func ConfidenceLevel(score float64) string {
	switch {
	case score >= 0.8:
		return "high"
	case score >= 0.5:
		return "medium"
	default:
		return "low"
	}
}
