package mcpserver_test

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/geoquery/internal/adapters/geojsonfile"
	mcpserver "github.com/samirrijal/geoquery/internal/adapters/mcp"
	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/ports"
	"github.com/samirrijal/geoquery/internal/core/prompt"
	"github.com/samirrijal/geoquery/internal/core/relations"
	"github.com/samirrijal/geoquery/internal/core/usecases"
	"github.com/samirrijal/geoquery/internal/core/validation"
)

type stubLLM struct {
	candidate func(query string) *domain.GeoQuery
}

func (s *stubLLM) Infer(ctx context.Context, messages []ports.Message) (*ports.Inference, error) {
	return &ports.Inference{Candidate: s.candidate(messages[len(messages)-1].Content)}, nil
}

func lakeCandidate(query string) *domain.GeoQuery {
	return &domain.GeoQuery{
		QueryType:         domain.QueryTypeSimple,
		SpatialRelation:   domain.SpatialRelation{Relation: "on_shores_of", Category: domain.CategoryBuffer},
		ReferenceLocation: domain.ReferenceLocation{Name: "Lake Thun", Type: domain.String("lake")},
		ConfidenceBreakdown: domain.ConfidenceScore{
			Overall:            0.85,
			LocationConfidence: 0.9,
		},
	}
}

func setup(t *testing.T) *mcp.ClientSession {
	t.Helper()

	lake := geojson.NewFeature(orb.Polygon{orb.Ring{
		{7.6, 46.65}, {7.85, 46.65}, {7.85, 46.76}, {7.6, 46.76}, {7.6, 46.65},
	}})
	lake.ID = "osm:lake-thun"
	lake.Properties["name"] = "Lake Thun"
	lake.Properties["type"] = "lake"
	fc := geojson.NewFeatureCollection()
	fc.Append(lake)
	src, err := geojsonfile.New(fc)
	if err != nil {
		t.Fatalf("build gazetteer: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })

	reg := relations.New()
	parser := usecases.NewParseService(
		&stubLLM{candidate: lakeCandidate},
		reg,
		validation.NewPipeline(reg, validation.DefaultConfidenceThreshold, false),
		prompt.NewBuilder(reg, false),
		nil,
	)
	srv := mcpserver.New("test", mcpserver.Services{
		Parser:    parser,
		Locations: usecases.NewLocationService(src, nil),
	})

	ctx := context.Background()
	clientTransport, serverTransport := mcp.NewInMemoryTransports()
	if _, err := srv.Connect(ctx, serverTransport, nil); err != nil {
		t.Fatalf("server connect: %v", err)
	}
	client := mcp.NewClient(&mcp.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

func callTool(t *testing.T, session *mcp.ClientSession, name string, args map[string]any) (string, bool) {
	t.Helper()
	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	if len(result.Content) == 0 {
		t.Fatalf("CallTool(%s): empty content", name)
	}
	tc, ok := result.Content[0].(*mcp.TextContent)
	if !ok {
		t.Fatalf("CallTool(%s): expected TextContent, got %T", name, result.Content[0])
	}
	return tc.Text, result.IsError
}

func TestListTools(t *testing.T) {
	session := setup(t)

	result, err := session.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatal(err)
	}
	got := map[string]bool{}
	for _, tool := range result.Tools {
		got[tool.Name] = true
	}
	for _, name := range []string{"parse_location_query", "list_relations", "describe_relation", "search_locations"} {
		if !got[name] {
			t.Errorf("missing tool %s", name)
		}
	}
	if got["build_search_area"] {
		t.Error("build_search_area should not be registered without a search area service")
	}
}

func TestParseLocationQuery(t *testing.T) {
	session := setup(t)

	text, isErr := callTool(t, session, "parse_location_query", map[string]any{"query": "campsites on the shores of Lake Thun"})
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}

	var out struct {
		Query           domain.GeoQuery `json:"query"`
		ConfidenceLevel string          `json:"confidence_level"`
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatal(err)
	}
	b := out.Query.BufferConfig
	if b == nil || b.DistanceM != 1000 || !b.RingOnly || b.BufferFrom != domain.BufferFromBoundary {
		t.Errorf("unexpected buffer config %+v", b)
	}
	if out.ConfidenceLevel != "high" {
		t.Errorf("expected high, got %s", out.ConfidenceLevel)
	}
}

func TestListRelations(t *testing.T) {
	session := setup(t)

	text, isErr := callTool(t, session, "list_relations", map[string]any{"category": "containment"})
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	var configs []domain.RelationConfig
	if err := json.Unmarshal([]byte(text), &configs); err != nil {
		t.Fatal(err)
	}
	if len(configs) != 1 || configs[0].Name != "in" {
		t.Errorf("unexpected relations %+v", configs)
	}

	_, isErr = callTool(t, session, "list_relations", map[string]any{"category": "radial"})
	if !isErr {
		t.Error("expected error for unknown category")
	}
}

func TestDescribeRelation(t *testing.T) {
	session := setup(t)

	text, isErr := callTool(t, session, "describe_relation", map[string]any{})
	if isErr || !strings.Contains(text, "DIRECTIONAL RELATIONS:") {
		t.Errorf("expected full description, got %s", text)
	}

	text, isErr = callTool(t, session, "describe_relation", map[string]any{"name": "beside"})
	if !isErr || !strings.Contains(text, "Unknown spatial relation: 'beside'") {
		t.Errorf("expected unknown relation error, got %s", text)
	}
}

func TestSearchLocations(t *testing.T) {
	session := setup(t)

	text, isErr := callTool(t, session, "search_locations", map[string]any{"name": "lake thun", "type": "water"})
	if isErr {
		t.Fatalf("unexpected tool error: %s", text)
	}
	var out []domain.LocationSummary
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		t.Fatal(err)
	}
	if len(out) != 1 || out[0].ID != "osm:lake-thun" {
		t.Errorf("unexpected results %+v", out)
	}
}
