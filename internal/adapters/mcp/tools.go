package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/geoquery/internal/core/domain"
)

// Tools holds the tool handlers.
type Tools struct {
	svc Services
}

// --- Input types ---

type ParseInput struct {
	Query string `json:"query" jsonschema:"Natural-language location query"`
}

type ListRelationsInput struct {
	Category string `json:"category,omitempty" jsonschema:"Optional category filter: containment, buffer or directional"`
}

type DescribeRelationInput struct {
	Name string `json:"name,omitempty" jsonschema:"Relation name such as near or north_of; empty describes all relations"`
}

type SearchLocationsInput struct {
	Name  string `json:"name" jsonschema:"Place name to look up"`
	Type  string `json:"type,omitempty" jsonschema:"Optional type or category hint, for example city, lake or water"`
	Limit int    `json:"limit,omitempty" jsonschema:"Maximum number of results (1-50, default 10)"`
}

// --- Handlers ---

func (t *Tools) ParseLocationQuery(ctx context.Context, _ *mcp.CallToolRequest, input ParseInput) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(input.Query) == "" {
		return toolError("query is required"), nil, nil
	}

	q, advisory, err := t.svc.Parser.Parse(ctx, input.Query)
	if err != nil {
		return toolError("Failed to parse query: %v", err), nil, nil
	}

	out := map[string]any{
		"query":            q,
		"confidence_level": domain.ConfidenceLevel(q.ConfidenceBreakdown.Overall),
	}
	if advisory != nil {
		out["advisory"] = advisory.Message()
	}
	return toolJSON(out)
}

func (t *Tools) ListRelations(_ context.Context, _ *mcp.CallToolRequest, input ListRelationsInput) (*mcp.CallToolResult, any, error) {
	configs, err := t.svc.Parser.RelationConfigs(domain.Category(input.Category))
	if err != nil {
		return toolError("Failed to list relations: %v", err), nil, nil
	}
	return toolJSON(configs)
}

func (t *Tools) DescribeRelation(_ context.Context, _ *mcp.CallToolRequest, input DescribeRelationInput) (*mcp.CallToolResult, any, error) {
	if input.Name == "" {
		return toolText(t.svc.Parser.Registry().DescribeAll()), nil, nil
	}
	cfg, err := t.svc.Parser.Registry().Get(input.Name)
	if err != nil {
		return toolError("%v", err), nil, nil
	}
	return toolJSON(cfg)
}

func (t *Tools) SearchLocations(ctx context.Context, _ *mcp.CallToolRequest, input SearchLocationsInput) (*mcp.CallToolResult, any, error) {
	var typeHint *string
	if input.Type != "" {
		typeHint = &input.Type
	}

	features, err := t.svc.Locations.Search(ctx, input.Name, typeHint, input.Limit)
	if err != nil {
		return toolError("Failed to search locations: %v", err), nil, nil
	}

	out := make([]domain.LocationSummary, 0, len(features))
	for _, f := range features {
		out = append(out, domain.Summarize(f))
	}
	return toolJSON(out)
}

func (t *Tools) BuildSearchArea(ctx context.Context, _ *mcp.CallToolRequest, input ParseInput) (*mcp.CallToolResult, any, error) {
	if strings.TrimSpace(input.Query) == "" {
		return toolError("query is required"), nil, nil
	}

	area, _, err := t.svc.SearchAreas.Build(ctx, input.Query)
	if err != nil {
		return toolError("Failed to build search area: %v", err), nil, nil
	}

	f := geojson.NewFeature(area.Geometry)
	f.Properties["relation"] = area.Query.SpatialRelation.Relation
	f.Properties["reference"] = domain.FeatureName(area.Reference)
	if b := area.Query.BufferConfig; b != nil {
		f.Properties["distance_m"] = b.DistanceM
	}
	return toolJSON(f)
}

// --- Helpers ---

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return toolText(string(data)), nil, nil
}
