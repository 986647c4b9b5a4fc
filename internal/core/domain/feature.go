package domain

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature is a resolved geographic feature. Properties carry at least
// "name", "type" and "confidence".
type Feature = geojson.Feature

// NewFeature builds a feature with the standard properties set.
func NewFeature(id, name, featureType string, geom orb.Geometry) *Feature {
	f := geojson.NewFeature(geom)
	f.ID = id
	f.Properties["name"] = name
	f.Properties["type"] = featureType
	f.Properties["confidence"] = 1.0
	f.BBox = geojson.NewBBox(geom.Bound())
	return f
}

// FeatureID returns the feature id as a string.
func FeatureID(f *Feature) string {
	if f.ID == nil {
		return ""
	}
	if s, ok := f.ID.(string); ok {
		return s
	}
	return fmt.Sprint(f.ID)
}

// FeatureName returns the "name" property.
func FeatureName(f *Feature) string { return f.Properties.MustString("name", "") }

// FeatureType returns the "type" property.
func FeatureType(f *Feature) string { return f.Properties.MustString("type", "") }

// LocationSummary is a flat view of a feature for clients that do not want
// full geometries.
type LocationSummary struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	Confidence float64  `json:"confidence"`
	Center     GeoPoint `json:"center"`
	Bounds     Bounds   `json:"bounds"`
}

// Summarize flattens f.
func Summarize(f *Feature) LocationSummary {
	s := LocationSummary{
		ID:         FeatureID(f),
		Name:       FeatureName(f),
		Type:       FeatureType(f),
		Confidence: f.Properties.MustFloat64("confidence", 0),
	}
	if f.Geometry != nil {
		s.Bounds = BoundsOf(f.Geometry)
		s.Center = s.Bounds.Center()
	}
	return s
}

// SearchArea is the outcome of parsing a query, resolving its reference
// location and transforming the reference geometry.
type SearchArea struct {
	Query     *GeoQuery    `json:"query"`
	Reference *Feature     `json:"reference"`
	Geometry  orb.Geometry `json:"-"`
}
