// Package loctypes defines the location type hierarchy shared by all
// gazetteer sources. A type hint may name a concrete type ("lake") or a
// category ("water") that expands to all of its concrete types.
package loctypes

import (
	"sort"
	"strings"
)

var hierarchy = map[string][]string{
	"water":          {"lake", "river", "pond", "spring", "waterfall", "glacier", "ditch", "weir", "dam"},
	"landforms":      {"mountain", "peak", "hill", "pass", "valley", "ridge", "plain", "rock_head", "boulder", "massif"},
	"natural":        {"cave", "forest", "nature_reserve", "alpine_pasture"},
	"island":         {"island", "peninsula"},
	"administrative": {"country", "canton", "municipality", "region", "area", "border_marker"},
	"settlement":     {"city", "town", "village", "hamlet", "district"},
	"building":       {"building", "religious_building", "tower", "monument", "fountain"},
	"transport": {
		"train_station", "bus_stop", "boat_stop", "road", "bridge", "tunnel", "exit", "entrance_exit",
		"junction", "railway", "railway_area", "lift", "loading_station", "airport", "heliport", "ferry",
	},
	"amenity": {
		"restaurant", "hospital", "school", "parking", "park", "swimming_pool", "sports_facility",
		"leisure_facility", "zoo", "camping", "rest_area", "standing_area", "cemetery", "fairground",
	},
	"infrastructure": {"power_plant", "wastewater_treatment", "waste_incineration", "landfill", "quarry"},
	"other": {
		"field_name", "local_name", "viewpoint", "private_driving_area", "correctional_facility",
		"military_training_area", "customs", "historical_site", "monastery", "unknown",
	},
}

var typeToCategory = func() map[string]string {
	m := make(map[string]string)
	for cat, types := range hierarchy {
		for _, t := range types {
			m[t] = cat
		}
	}
	return m
}()

// Normalize lowercases and trims a type hint.
func Normalize(hint string) string {
	return strings.ToLower(strings.TrimSpace(hint))
}

// IsCategory reports whether hint names a category.
func IsCategory(hint string) bool {
	_, ok := hierarchy[Normalize(hint)]
	return ok
}

// Known reports whether hint is a category or a concrete type.
func Known(hint string) bool {
	h := Normalize(hint)
	_, isType := typeToCategory[h]
	return isType || IsCategory(h)
}

// MatchingTypes expands hint into concrete types: a category yields all of
// its types, a concrete type yields itself, anything else yields nil.
func MatchingTypes(hint string) []string {
	h := Normalize(hint)
	if types, ok := hierarchy[h]; ok {
		return append([]string(nil), types...)
	}
	if _, ok := typeToCategory[h]; ok {
		return []string{h}
	}
	return nil
}

// CategoryOf returns the category of a concrete type, or "" if unknown.
func CategoryOf(featureType string) string {
	return typeToCategory[Normalize(featureType)]
}

// AllTypes returns every concrete type, sorted.
func AllTypes() []string {
	out := make([]string, 0, len(typeToCategory))
	for t := range typeToCategory {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// AllCategories returns every category, sorted.
func AllCategories() []string {
	out := make([]string, 0, len(hierarchy))
	for c := range hierarchy {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Filter returns a predicate accepting feature types that match hint. A
// nil, empty or unknown hint accepts everything.
func Filter(hint *string) func(featureType string) bool {
	if hint == nil {
		return func(string) bool { return true }
	}
	types := MatchingTypes(*hint)
	if len(types) == 0 {
		return func(string) bool { return true }
	}
	set := make(map[string]struct{}, len(types))
	for _, t := range types {
		set[t] = struct{}{}
	}
	return func(featureType string) bool {
		_, ok := set[Normalize(featureType)]
		return ok
	}
}
