package geospatial

import (
	"fmt"
	"math"
	"strings"
)

// MetersPerDegree is the length of one degree of latitude, and of longitude
// at the equator.
const MetersPerDegree = 111320.0

// MetersToDegrees converts a distance to an approximate offset in degrees at
// the given latitude. It averages the latitude and longitude degree lengths,
// which is good enough for search areas but is not a projection: east-west
// extents are understated away from the equator.
func MetersToDegrees(meters, lat float64) float64 {
	perLon := MetersPerDegree * math.Cos(toRad(lat))
	return meters / ((MetersPerDegree + perLon) / 2)
}

var bearings = map[string]float64{
	"north":     0,
	"northeast": 45,
	"east":      90,
	"southeast": 135,
	"south":     180,
	"southwest": 225,
	"west":      270,
	"northwest": 315,
}

// CompassBearing returns the bearing in degrees (0 = north, clockwise) of a
// compass direction name such as "north" or "SW".
func CompassBearing(direction string) (float64, error) {
	d := strings.ToLower(strings.TrimSpace(direction))
	switch d {
	case "n", "ne", "e", "se", "s", "sw", "w", "nw":
		d = expandAbbrev(d)
	}
	b, ok := bearings[d]
	if !ok {
		return 0, fmt.Errorf("unknown compass direction %q", direction)
	}
	return b, nil
}

func expandAbbrev(d string) string {
	var b strings.Builder
	for _, r := range d {
		switch r {
		case 'n':
			b.WriteString("north")
		case 's':
			b.WriteString("south")
		case 'e':
			b.WriteString("east")
		case 'w':
			b.WriteString("west")
		}
	}
	return b.String()
}

// MathAngle converts a navigation bearing (0 = north, clockwise) to a
// mathematical angle in radians (0 = east, counter-clockwise).
func MathAngle(bearing float64) float64 {
	return toRad(90 - bearing)
}

// Offset returns the point radiusDeg away from (lon, lat) along bearing,
// in the planar degree space used by MetersToDegrees.
func Offset(lon, lat, radiusDeg, bearing float64) (float64, float64) {
	a := MathAngle(bearing)
	return lon + radiusDeg*math.Cos(a), lat + radiusDeg*math.Sin(a)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
