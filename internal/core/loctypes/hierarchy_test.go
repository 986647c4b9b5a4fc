package loctypes_test

import (
	"sort"
	"testing"

	"github.com/samirrijal/geoquery/internal/core/loctypes"
)

func TestMatchingTypes(t *testing.T) {
	if got := loctypes.MatchingTypes("lake"); len(got) != 1 || got[0] != "lake" {
		t.Errorf("lake: got %v", got)
	}

	water := loctypes.MatchingTypes("Water")
	if len(water) != 9 {
		t.Errorf("expected 9 water types, got %v", water)
	}

	if got := loctypes.MatchingTypes("spaceport"); got != nil {
		t.Errorf("expected nil for unknown type, got %v", got)
	}
}

func TestCategoryOf(t *testing.T) {
	tests := map[string]string{
		"lake":          "water",
		"City":          "settlement",
		"train_station": "transport",
		"spaceport":     "",
	}
	for in, want := range tests {
		if got := loctypes.CategoryOf(in); got != want {
			t.Errorf("CategoryOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAllTypesSortedAndUnique(t *testing.T) {
	types := loctypes.AllTypes()
	if !sort.StringsAreSorted(types) {
		t.Error("expected sorted types")
	}
	seen := map[string]bool{}
	for _, ty := range types {
		if seen[ty] {
			t.Errorf("duplicate type %q", ty)
		}
		seen[ty] = true
	}
	if len(loctypes.AllCategories()) != 11 {
		t.Errorf("expected 11 categories, got %v", loctypes.AllCategories())
	}
}

func TestFilter(t *testing.T) {
	water := "water"
	f := loctypes.Filter(&water)
	if !f("lake") || !f("River") {
		t.Error("expected water category to accept lake and river")
	}
	if f("city") {
		t.Error("expected water category to reject city")
	}

	unknown := "spaceport"
	if !loctypes.Filter(&unknown)("city") {
		t.Error("unknown hint must not filter")
	}
	if !loctypes.Filter(nil)("anything") {
		t.Error("nil hint must not filter")
	}
}
