package geojsonfile_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/geoquery/internal/adapters/geojsonfile"
	"github.com/samirrijal/geoquery/internal/core/domain"
)

func lake(minX, minY, maxX, maxY float64) orb.Polygon {
	return orb.Polygon{orb.Ring{{minX, minY}, {maxX, minY}, {maxX, maxY}, {minX, maxY}, {minX, minY}}}
}

func fixture(t *testing.T) *geojsonfile.Source {
	t.Helper()
	fc := geojson.NewFeatureCollection()
	fc.Append(domain.NewFeature("ch:leman", "Lac Léman", "lake", lake(6.1, 46.2, 6.9, 46.5)))
	fc.Append(domain.NewFeature("ch:zurichsee", "Zürichsee", "lake", lake(8.5, 47.2, 8.8, 47.35)))
	fc.Append(domain.NewFeature("ch:zurich", "Zürich", "city", orb.Point{8.54, 47.37}))
	fc.Append(domain.NewFeature("ch:bern", "Bern", "city", orb.Point{7.4474, 46.948}))
	fc.Append(domain.NewFeature("ch:aare", "Aare", "river", orb.LineString{{7.0, 46.9}, {7.5, 47.0}}))

	noName := geojson.NewFeature(orb.Point{0, 0})
	fc.Append(noName)

	src, err := geojsonfile.New(fc)
	if err != nil {
		t.Fatalf("build source: %v", err)
	}
	t.Cleanup(func() { _ = src.Close() })
	return src
}

func TestSource_SkipsUnnamedFeatures(t *testing.T) {
	if n := fixture(t).Len(); n != 5 {
		t.Fatalf("expected 5 features, got %d", n)
	}
}

func TestSource_SearchAccentInsensitive(t *testing.T) {
	src := fixture(t)

	for _, name := range []string{"Zürich", "zurich", "ZURICH"} {
		features, err := src.Search(context.Background(), name, nil, 5)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(features) == 0 {
			t.Fatalf("%s: expected matches", name)
		}
		if got := domain.FeatureID(features[0]); got != "ch:zurich" {
			t.Errorf("%s: expected exact match first, got %s", name, got)
		}
		if c := features[0].Properties.MustFloat64("confidence", 0); c != geojsonfile.ConfidenceExact {
			t.Errorf("%s: expected exact confidence, got %v", name, c)
		}
	}
}

func TestSource_SearchPrefixAfterExact(t *testing.T) {
	features, err := fixture(t).Search(context.Background(), "zurich", nil, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(features) < 2 {
		t.Fatalf("expected city and lake, got %d", len(features))
	}
	if got := domain.FeatureID(features[1]); got != "ch:zurichsee" {
		t.Errorf("expected prefix match second, got %s", got)
	}
}

func TestSource_SearchTypeFilter(t *testing.T) {
	src := fixture(t)

	features, err := src.Search(context.Background(), "zurich", domain.String("lake"), 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(features) != 1 || domain.FeatureID(features[0]) != "ch:zurichsee" {
		t.Fatalf("expected only the lake, got %v", features)
	}

	features, _ = src.Search(context.Background(), "zurich", domain.String("water"), 5)
	if len(features) != 1 {
		t.Errorf("expected category hint to match the lake, got %d", len(features))
	}

	features, _ = src.Search(context.Background(), "zurich", domain.String("spaceport"), 5)
	if len(features) != 2 {
		t.Errorf("expected unknown hint not to filter, got %d", len(features))
	}
}

func TestSource_SearchFuzzy(t *testing.T) {
	features, err := fixture(t).Search(context.Background(), "Bren", nil, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(features) == 0 || domain.FeatureID(features[0]) != "ch:bern" {
		t.Fatalf("expected fuzzy match on Bern, got %v", features)
	}
	if c := features[0].Properties.MustFloat64("confidence", 0); c != geojsonfile.ConfidenceFuzzy {
		t.Errorf("expected fuzzy confidence, got %v", c)
	}
}

func TestSource_SearchLimit(t *testing.T) {
	features, err := fixture(t).Search(context.Background(), "zurich", nil, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(features) != 1 {
		t.Errorf("expected 1 result, got %d", len(features))
	}
}

func TestSource_SearchDoesNotMutateIndex(t *testing.T) {
	src := fixture(t)
	features, _ := src.Search(context.Background(), "zurich", nil, 5)
	features[0].Properties["confidence"] = 0.0

	f, err := src.GetByID(context.Background(), "ch:zurich")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c := f.Properties.MustFloat64("confidence", 0); c != 1.0 {
		t.Errorf("expected stored confidence untouched, got %v", c)
	}
}

func TestSource_GetByID(t *testing.T) {
	src := fixture(t)

	f, err := src.GetByID(context.Background(), "ch:aare")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := f.Geometry.(orb.LineString); !ok {
		t.Errorf("expected line geometry, got %T", f.Geometry)
	}
	if _, err := src.GetByID(context.Background(), "ch:nowhere"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestSource_AvailableTypes(t *testing.T) {
	types, err := fixture(t).AvailableTypes(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"city", "lake", "river"}
	if len(types) != len(want) {
		t.Fatalf("expected %v, got %v", want, types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("types[%d] = %s, want %s", i, types[i], want[i])
		}
	}
}

func TestLoad(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(domain.NewFeature("ch:thun", "Thun", "city", orb.Point{7.63, 46.75}))
	data, err := fc.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "places.geojson")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	src, err := geojsonfile.Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	defer src.Close()
	if src.Len() != 1 {
		t.Errorf("expected 1 feature, got %d", src.Len())
	}

	if _, err := geojsonfile.Load(filepath.Join(t.TempDir(), "missing.geojson")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestNew_DuplicateIDs(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(domain.NewFeature("dup", "A", "city", orb.Point{0, 0}))
	fc.Append(domain.NewFeature("dup", "B", "city", orb.Point{1, 1}))
	if _, err := geojsonfile.New(fc); err == nil {
		t.Fatal("expected duplicate id error")
	}
}
