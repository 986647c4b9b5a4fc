package http

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/loctypes"
	"github.com/samirrijal/geoquery/internal/core/usecases"
)

const maxQueryLength = 500

type parseRequest struct {
	Query string `json:"query"`
}

type batchRequest struct {
	Queries []string `json:"queries"`
}

// ParseResponse is the body of a successful parse.
type ParseResponse struct {
	Query           *domain.GeoQuery `json:"query"`
	ConfidenceLevel string           `json:"confidence_level"`
	Advisory        *AdvisoryView    `json:"advisory,omitempty"`
}

// AdvisoryView renders a low-confidence advisory with its message.
type AdvisoryView struct {
	*domain.LowConfidenceAdvisory
	Message string `json:"message"`
}

func advisoryView(a *domain.LowConfidenceAdvisory) *AdvisoryView {
	if a == nil {
		return nil
	}
	return &AdvisoryView{LowConfidenceAdvisory: a, Message: a.Message()}
}

// parseQueryBody reads {"query": ...}. A non-empty problem means the body
// was rejected.
func parseQueryBody(c *fiber.Ctx) (query, problem string) {
	var req parseRequest
	if err := c.BodyParser(&req); err != nil {
		return "", "invalid request body"
	}
	q := strings.TrimSpace(req.Query)
	if q == "" {
		return "", "query is required"
	}
	if len(q) > maxQueryLength {
		return "", "query too long (max 500 characters)"
	}
	return q, ""
}

// ParseHandler turns one natural-language query into a GeoQuery.
func ParseHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query, problem := parseQueryBody(c)
		if problem != "" {
			return errBadRequest(c, problem)
		}

		q, advisory, err := deps.Parser.Parse(c.UserContext(), query)
		if err != nil {
			return errDomain(c, err)
		}
		annotate(c, q)
		return c.JSON(ParseResponse{
			Query:           q,
			ConfidenceLevel: domain.ConfidenceLevel(q.ConfidenceBreakdown.Overall),
			Advisory:        advisoryView(advisory),
		})
	}
}

// ParseBatchHandler parses up to MaxBatchSize queries in order and stops at
// the first failure.
func ParseBatchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req batchRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := usecases.ValidateQueries(req.Queries); err != nil {
			return errDomain(c, err)
		}

		results, err := deps.Parser.ParseBatch(c.UserContext(), req.Queries)
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(fiber.Map{
			"results": results,
			"count":   len(results),
		})
	}
}

// SubmitBatchHandler queues a batch for asynchronous parsing.
func SubmitBatchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req batchRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		pending, err := deps.Batches.Submit(c.UserContext(), req.Queries)
		if err != nil {
			return errDomain(c, err)
		}
		c.Location("/v1/batches/" + pending.ID)
		return c.Status(fiber.StatusAccepted).JSON(pending)
	}
}

// GetBatchHandler returns the state of a submitted batch.
func GetBatchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		result, err := deps.Batches.Get(c.UserContext(), c.Params("id"))
		if err != nil {
			return errDomain(c, err)
		}
		if result.Status == domain.BatchPending {
			c.Set("Cache-Control", "no-store")
		}
		return c.JSON(result)
	}
}

// SearchAreaResponse carries the parse, the resolved reference feature and
// the transformed area.
type SearchAreaResponse struct {
	Query           *domain.GeoQuery `json:"query"`
	Reference       *domain.Feature  `json:"reference"`
	SearchArea      *geojson.Feature `json:"search_area"`
	ConfidenceLevel string           `json:"confidence_level"`
	Advisory        *AdvisoryView    `json:"advisory,omitempty"`
}

// SearchAreaHandler parses a query, resolves its reference location and
// returns the search area as a GeoJSON feature.
func SearchAreaHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		query, problem := parseQueryBody(c)
		if problem != "" {
			return errBadRequest(c, problem)
		}

		area, advisory, err := deps.SearchAreas.Build(c.UserContext(), query)
		if err != nil {
			return errDomain(c, err)
		}
		annotate(c, area.Query)

		return c.JSON(SearchAreaResponse{
			Query:           area.Query,
			Reference:       area.Reference,
			SearchArea:      areaFeature(area.Geometry, area.Query.SpatialRelation, area.Query.BufferConfig),
			ConfidenceLevel: domain.ConfidenceLevel(area.Query.ConfidenceBreakdown.Overall),
			Advisory:        advisoryView(advisory),
		})
	}
}

func areaFeature(g orb.Geometry, rel domain.SpatialRelation, buf *domain.BufferConfig) *geojson.Feature {
	f := geojson.NewFeature(g)
	f.Properties["relation"] = rel.Relation
	f.Properties["category"] = string(rel.Category)
	if buf != nil {
		f.Properties["distance_m"] = buf.DistanceM
		f.Properties["buffer_from"] = string(buf.BufferFrom)
		f.Properties["ring_only"] = buf.RingOnly
	}
	f.BBox = geojson.NewBBox(g.Bound())
	return f
}

type transformRequest struct {
	Geometry  json.RawMessage `json:"geometry"`
	FeatureID string          `json:"feature_id"`
	Relation  string          `json:"relation"`
	DistanceM *float64        `json:"distance_m"`
}

// TransformHandler applies a named relation to a caller-supplied GeoJSON
// geometry, or to a stored feature referenced by feature_id.
func TransformHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req transformRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if req.Relation == "" {
			return errBadRequest(c, "relation is required")
		}

		var geom orb.Geometry
		switch {
		case len(req.Geometry) > 0 && string(req.Geometry) != "null":
			g, err := geojson.UnmarshalGeometry(req.Geometry)
			if err != nil {
				return errBadRequest(c, "geometry must be a GeoJSON geometry: "+err.Error())
			}
			geom = g.Geometry()
		case req.FeatureID != "":
			f, err := deps.Locations.GetByID(c.UserContext(), req.FeatureID)
			if err != nil {
				return errDomain(c, err)
			}
			geom = f.Geometry
		default:
			return errBadRequest(c, "geometry or feature_id is required")
		}
		if geom == nil {
			return errBadRequest(c, "geometry is empty")
		}

		out, buf, err := deps.SearchAreas.TransformNamed(c.UserContext(), geom, req.Relation, req.DistanceM)
		if err != nil {
			return errDomain(c, err)
		}

		cfg, _ := deps.Parser.Registry().Get(req.Relation)
		return c.JSON(areaFeature(out, domain.SpatialRelation{Relation: cfg.Name, Category: cfg.Category}, buf))
	}
}

// ListRelationsHandler returns the registered relations, optionally filtered
// by ?category=.
func ListRelationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		configs, err := deps.Parser.RelationConfigs(domain.Category(c.Query("category")))
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(paginate(c, configs, 100, 200))
	}
}

// DescribeRelationsHandler returns the human-readable registry listing that
// is also embedded in the system prompt.
func DescribeRelationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Content-Type", "text/plain; charset=utf-8")
		return c.SendString(deps.Parser.Registry().DescribeAll())
	}
}

// GetRelationHandler returns one relation configuration.
func GetRelationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		cfg, err := deps.Parser.Registry().Get(c.Params("name"))
		if err != nil {
			return newError(c, 404, "unknown_relation", err.Error())
		}
		return c.JSON(cfg)
	}
}

// SearchLocationsHandler resolves a place name to candidate features.
func SearchLocationsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		q := c.Query("q")
		if strings.TrimSpace(q) == "" {
			return errBadRequest(c, "q query parameter is required")
		}
		if len(q) > 200 {
			return errBadRequest(c, "query too long (max 200 characters)")
		}

		var typeHint *string
		if t := c.Query("type"); t != "" {
			typeHint = &t
		}

		features, err := deps.Locations.Search(c.UserContext(), q, typeHint, c.QueryInt("limit", 10))
		if err != nil {
			return errDomain(c, err)
		}

		fc := geojson.NewFeatureCollection()
		fc.Features = append(fc.Features, features...)
		return c.JSON(fc)
	}
}

// LocationTypesHandler lists the feature types present in the gazetteer and
// the type hierarchy used for filtering.
func LocationTypesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		types, err := deps.Locations.AvailableTypes(c.UserContext())
		if err != nil {
			return errDomain(c, err)
		}

		hierarchy := make(map[string][]string)
		for _, cat := range loctypes.AllCategories() {
			hierarchy[cat] = loctypes.MatchingTypes(cat)
		}
		return c.JSON(fiber.Map{
			"types":      types,
			"categories": hierarchy,
		})
	}
}

// GetLocationHandler returns one feature by id.
func GetLocationHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		f, err := deps.Locations.GetByID(c.UserContext(), c.Params("id"))
		if err != nil {
			return errDomain(c, err)
		}
		return c.JSON(f)
	}
}
