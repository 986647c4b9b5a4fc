package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/geoquery/internal/core/domain"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	relationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Relation",
		Fields: graphql.Fields{
			"name":                 &graphql.Field{Type: graphql.String},
			"category":             &graphql.Field{Type: graphql.String},
			"description":          &graphql.Field{Type: graphql.String},
			"default_distance_m":   &graphql.Field{Type: graphql.Float},
			"buffer_from":          &graphql.Field{Type: graphql.String},
			"ring_only":            &graphql.Field{Type: graphql.Boolean},
			"sector_angle_degrees": &graphql.Field{Type: graphql.Float},
			"direction":            &graphql.Field{Type: graphql.String},
			"applies_to":           &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	spatialRelationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SpatialRelation",
		Fields: graphql.Fields{
			"relation":          &graphql.Field{Type: graphql.String},
			"category":          &graphql.Field{Type: graphql.String},
			"explicit_distance": &graphql.Field{Type: graphql.Float},
		},
	})

	referenceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ReferenceLocation",
		Fields: graphql.Fields{
			"name":            &graphql.Field{Type: graphql.String},
			"type":            &graphql.Field{Type: graphql.String},
			"type_confidence": &graphql.Field{Type: graphql.Float},
		},
	})

	bufferType := graphql.NewObject(graphql.ObjectConfig{
		Name: "BufferConfig",
		Fields: graphql.Fields{
			"distance_m":  &graphql.Field{Type: graphql.Float},
			"buffer_from": &graphql.Field{Type: graphql.String},
			"ring_only":   &graphql.Field{Type: graphql.Boolean},
			"inferred":    &graphql.Field{Type: graphql.Boolean},
		},
	})

	confidenceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ConfidenceScore",
		Fields: graphql.Fields{
			"overall":             &graphql.Field{Type: graphql.Float},
			"location_confidence": &graphql.Field{Type: graphql.Float},
			"relation_confidence": &graphql.Field{Type: graphql.Float},
			"reasoning":           &graphql.Field{Type: graphql.String},
		},
	})

	geoQueryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoQuery",
		Fields: graphql.Fields{
			"query_type":           &graphql.Field{Type: graphql.String},
			"spatial_relation":     &graphql.Field{Type: spatialRelationType},
			"reference_location":   &graphql.Field{Type: referenceType},
			"buffer_config":        &graphql.Field{Type: bufferType},
			"confidence_breakdown": &graphql.Field{Type: confidenceType},
			"original_query":       &graphql.Field{Type: graphql.String},
		},
	})

	parseResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "ParseResult",
		Fields: graphql.Fields{
			"query":            &graphql.Field{Type: geoQueryType},
			"confidence_level": &graphql.Field{Type: graphql.String},
			"advisory":         &graphql.Field{Type: graphql.String},
		},
	})

	geoPointType := graphql.NewObject(graphql.ObjectConfig{
		Name: "GeoPoint",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lon": &graphql.Field{Type: graphql.Float},
		},
	})

	boundsType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Bounds",
		Fields: graphql.Fields{
			"min_lat": &graphql.Field{Type: graphql.Float},
			"min_lon": &graphql.Field{Type: graphql.Float},
			"max_lat": &graphql.Field{Type: graphql.Float},
			"max_lon": &graphql.Field{Type: graphql.Float},
		},
	})

	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"id":         &graphql.Field{Type: graphql.String},
			"name":       &graphql.Field{Type: graphql.String},
			"type":       &graphql.Field{Type: graphql.String},
			"confidence": &graphql.Field{Type: graphql.Float},
			"center":     &graphql.Field{Type: geoPointType},
			"bounds":     &graphql.Field{Type: boundsType},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"relations": &graphql.Field{
				Type:        graphql.NewList(relationType),
				Description: "List spatial relations, optionally by category",
				Args: graphql.FieldConfigArgument{
					"category": &graphql.ArgumentConfig{Type: graphql.String},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					category, _ := p.Args["category"].(string)
					return deps.Parser.RelationConfigs(domain.Category(category))
				},
			},
			"relation": &graphql.Field{
				Type:        relationType,
				Description: "Get one spatial relation by name",
				Args: graphql.FieldConfigArgument{
					"name": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					cfg, err := deps.Parser.Registry().Get(p.Args["name"].(string))
					if err != nil {
						return nil, err
					}
					return cfg, nil
				},
			},
			"parse": &graphql.Field{
				Type:        parseResultType,
				Description: "Parse a natural-language location query",
				Args: graphql.FieldConfigArgument{
					"query": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q, advisory, err := deps.Parser.Parse(p.Context, p.Args["query"].(string))
					if err != nil {
						return nil, err
					}
					result := map[string]interface{}{
						"query":            q,
						"confidence_level": domain.ConfidenceLevel(q.ConfidenceBreakdown.Overall),
					}
					if advisory != nil {
						result["advisory"] = advisory.Message()
					}
					return result, nil
				},
			},
			"locations": &graphql.Field{
				Type:        graphql.NewList(locationType),
				Description: "Search the gazetteer by name",
				Args: graphql.FieldConfigArgument{
					"name":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"type":  &graphql.ArgumentConfig{Type: graphql.String},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 10},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var typeHint *string
					if t, ok := p.Args["type"].(string); ok && t != "" {
						typeHint = &t
					}
					features, err := deps.Locations.Search(p.Context, p.Args["name"].(string), typeHint, p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					out := make([]domain.LocationSummary, 0, len(features))
					for _, f := range features {
						out = append(out, domain.Summarize(f))
					}
					return out, nil
				},
			},
			"locationTypes": &graphql.Field{
				Type:        graphql.NewList(graphql.String),
				Description: "Feature types present in the gazetteer",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return deps.Locations.AvailableTypes(p.Context)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
