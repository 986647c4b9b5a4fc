package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/spatial"
	"github.com/samirrijal/geoquery/internal/core/usecases"
	"github.com/samirrijal/geoquery/internal/pkg/geometry"
)

func newSearchAreaService(llm *mockLLM, src *mockSource) *usecases.SearchAreaService {
	parser := newParseService(llm, nil, false)
	reg := parser.Registry()
	return usecases.NewSearchAreaService(
		parser,
		usecases.NewLocationService(src, nil),
		reg,
		spatial.NewTransformer(reg, geometry.New(0)),
	)
}

func bernSource() *mockSource {
	return &mockSource{searchFn: func(ctx context.Context, name string, typeHint *string, maxResults int) ([]*domain.Feature, error) {
		if name != "Bern" {
			return nil, nil
		}
		return []*domain.Feature{bernFeature()}, nil
	}}
}

func TestSearchAreaService_Build(t *testing.T) {
	svc := newSearchAreaService(candidateLLM(nearCandidate), bernSource())

	area, advisory, err := svc.Build(context.Background(), "near Bern")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if advisory != nil {
		t.Errorf("expected no advisory, got %+v", advisory)
	}
	if domain.FeatureID(area.Reference) != "osm:bern" {
		t.Errorf("unexpected reference %v", area.Reference.ID)
	}
	poly, ok := area.Geometry.(orb.Polygon)
	if !ok {
		t.Fatalf("expected polygon, got %T", area.Geometry)
	}
	if !planar.PolygonContains(poly, orb.Point{7.4474, 46.948}) {
		t.Error("expected search area to contain the reference point")
	}
	if planar.PolygonContains(poly, orb.Point{7.6, 46.948}) {
		t.Error("expected point about 11km east to be outside a 5km buffer")
	}
}

func TestSearchAreaService_BuildUnresolvedLocation(t *testing.T) {
	llm := candidateLLM(func(query string) *domain.GeoQuery {
		q := nearCandidate(query)
		q.ReferenceLocation.Name = "Atlantis"
		return q
	})
	svc := newSearchAreaService(llm, bernSource())

	if _, _, err := svc.Build(context.Background(), "near Atlantis"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSearchAreaService_BuildPropagatesParseErrors(t *testing.T) {
	src := bernSource()
	svc := newSearchAreaService(unknownRelationLLM(), src)

	if _, _, err := svc.Build(context.Background(), "beside Bern"); !errors.Is(err, domain.ErrUnknownRelation) {
		t.Fatalf("expected unknown relation, got %v", err)
	}
	if src.searchCalls != 0 {
		t.Error("expected no location lookup after a failed parse")
	}
}

func unknownRelationLLM() *mockLLM {
	return candidateLLM(func(query string) *domain.GeoQuery {
		q := nearCandidate(query)
		q.SpatialRelation.Relation = "beside"
		return q
	})
}

func TestSearchAreaService_TransformNamed(t *testing.T) {
	svc := newSearchAreaService(&mockLLM{}, &mockSource{})

	out, buf, err := svc.TransformNamed(context.Background(), orb.Point{0, 0}, "north_of", domain.Float(50000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf.DistanceM != 50000 || buf.Inferred {
		t.Errorf("expected explicit 50km, got %+v", buf)
	}
	if !contains(out, orb.Point{0, 0.3}) || contains(out, orb.Point{0, -0.3}) {
		t.Error("expected a northern sector")
	}

	out, buf, err = svc.TransformNamed(context.Background(), orb.Point{0, 0}, "in", nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if buf != nil || !orb.Equal(out, orb.Point{0, 0}) {
		t.Errorf("expected identity for containment, got %v %+v", out, buf)
	}

	if _, _, err := svc.TransformNamed(context.Background(), orb.Point{0, 0}, "beside", nil); !errors.Is(err, domain.ErrUnknownRelation) {
		t.Errorf("expected unknown relation, got %v", err)
	}
}

func TestSearchAreaService_TransformRequiresGeometry(t *testing.T) {
	svc := newSearchAreaService(&mockLLM{}, &mockSource{})
	rel := domain.SpatialRelation{Relation: "in", Category: domain.CategoryContainment}

	if _, err := svc.Transform(context.Background(), nil, rel, nil); !errors.Is(err, domain.ErrGeometryInput) {
		t.Fatalf("expected geometry input error, got %v", err)
	}
}

func contains(g orb.Geometry, p orb.Point) bool {
	switch g := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, p)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, p)
	}
	return false
}
