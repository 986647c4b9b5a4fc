package llm

import (
	"fmt"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"

	"github.com/samirrijal/geoquery/internal/core/domain"
)

// ToolName is the function the model is forced to call.
const ToolName = "extract_geo_query"

func ptr(v float64) *float64 { return &v }

func unitInterval(desc string, nullable bool) *jsonschema.Schema {
	s := &jsonschema.Schema{Description: desc, Minimum: ptr(0), Maximum: ptr(1)}
	if nullable {
		s.Types = []string{"number", "null"}
	} else {
		s.Type = "number"
	}
	return s
}

func categoryEnum() []any {
	out := make([]any, len(domain.Categories))
	for i, c := range domain.Categories {
		out[i] = string(c)
	}
	return out
}

// GeoQuerySchema describes the arguments of the extraction tool. It mirrors
// domain.GeoQuery.
func GeoQuerySchema() *jsonschema.Schema {
	return &jsonschema.Schema{
		Type:        "object",
		Description: "Structured form of a natural-language location query",
		Properties: map[string]*jsonschema.Schema{
			"query_type": {
				Type: "string",
				Enum: []any{domain.QueryTypeSimple},
			},
			"spatial_relation": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"relation": {
						Type:        "string",
						Description: "Relation name from the list of available relations",
					},
					"category": {
						Type: "string",
						Enum: categoryEnum(),
					},
					"explicit_distance": {
						Types:       []string{"number", "null"},
						Description: "Distance in meters when the query states one, e.g. 'within 2km' is 2000",
					},
				},
				Required: []string{"relation", "category"},
			},
			"reference_location": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"name": {
						Type:        "string",
						Description: "Place name as written in the query",
					},
					"type": {
						Types:       []string{"string", "null"},
						Description: "Location type or type category, e.g. lake, city, water",
					},
					"type_confidence": unitInterval("Confidence in the type", true),
				},
				Required: []string{"name"},
			},
			"buffer_config": {
				Types: []string{"object", "null"},
				Properties: map[string]*jsonschema.Schema{
					"distance_m": {Type: "number"},
					"buffer_from": {
						Type: "string",
						Enum: []any{string(domain.BufferFromCenter), string(domain.BufferFromBoundary)},
					},
					"ring_only": {Type: "boolean"},
					"inferred":  {Type: "boolean"},
				},
			},
			"confidence_breakdown": {
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"overall":             unitInterval("Overall confidence in the parse", false),
					"location_confidence": unitInterval("Confidence in the reference location", false),
					"relation_confidence": unitInterval("Confidence in the spatial relation", true),
					"reasoning": {
						Types:       []string{"string", "null"},
						Description: "Short explanation, required when confidence is low",
					},
				},
				Required: []string{"overall", "location_confidence"},
			},
			"original_query": {Type: "string"},
		},
		Required: []string{"spatial_relation", "reference_location", "confidence_breakdown"},
	}
}

var resolveSchema = sync.OnceValues(func() (*jsonschema.Resolved, error) {
	return GeoQuerySchema().Resolve(nil)
})

// validateArguments checks decoded tool arguments against GeoQuerySchema.
func validateArguments(args map[string]any) error {
	resolved, err := resolveSchema()
	if err != nil {
		return fmt.Errorf("resolve schema: %w", err)
	}
	return resolved.Validate(args)
}
