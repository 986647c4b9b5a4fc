// Package mcpserver exposes the query parser to MCP clients.
package mcpserver

import (
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/samirrijal/geoquery/internal/core/usecases"
)

// Services are the use cases the tools call. Locations and SearchAreas may
// be nil, in which case the location tools are not registered.
type Services struct {
	Parser      *usecases.ParseService
	Locations   *usecases.LocationService
	SearchAreas *usecases.SearchAreaService
}

// New creates an MCP server with all tools registered.
func New(version string, svc Services) *mcp.Server {
	t := &Tools{svc: svc}

	srv := mcp.NewServer(&mcp.Implementation{
		Name:    "geoquery",
		Version: version,
	}, nil)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "parse_location_query",
		Description: "Parse a natural-language location query (for example 'hiking trails north of Lausanne') into a structured geographic query with relation, reference location, buffer and confidence",
	}, t.ParseLocationQuery)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "list_relations",
		Description: "List the supported spatial relations, optionally filtered by category: containment, buffer or directional",
	}, t.ListRelations)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "describe_relation",
		Description: "Describe one spatial relation with its defaults, or all relations when no name is given",
	}, t.DescribeRelation)

	if svc.Locations != nil {
		mcp.AddTool(srv, &mcp.Tool{
			Name:        "search_locations",
			Description: "Search the gazetteer for places by name with an optional type hint such as city or lake",
		}, t.SearchLocations)
	}

	if svc.SearchAreas != nil {
		mcp.AddTool(srv, &mcp.Tool{
			Name:        "build_search_area",
			Description: "Parse a query, resolve its reference location and return the search area as GeoJSON",
		}, t.BuildSearchArea)
	}

	return srv
}
