package spatial

import (
	"context"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/samirrijal/geoquery/internal/core/domain"
	"github.com/samirrijal/geoquery/internal/core/relations"
	"github.com/samirrijal/geoquery/internal/pkg/geospatial"
)

// GeometryOps are the planar primitives the transformer needs. Buffer and
// Difference return nil when the result is empty.
type GeometryOps interface {
	Centroid(g orb.Geometry) (orb.Point, error)
	Buffer(g orb.Geometry, width float64) (orb.Geometry, error)
	Difference(a, b orb.Geometry) (orb.Geometry, error)
	Valid(g orb.Geometry) (bool, error)
	Repair(g orb.Geometry) (orb.Geometry, error)
}

const (
	// SectorSegments is the number of arc segments in a directional wedge.
	SectorSegments = 36

	defaultSectorAngle = 90.0
)

// Transformer turns a reference geometry and a validated relation into a
// search geometry. All coordinates are WGS84 longitude/latitude.
type Transformer struct {
	registry *relations.Registry
	ops      GeometryOps
}

// NewTransformer creates a Transformer.
func NewTransformer(reg *relations.Registry, ops GeometryOps) *Transformer {
	return &Transformer{registry: reg, ops: ops}
}

// Apply computes the search area for geom. Containment returns geom
// unchanged; buffer and directional relations require buf.
func (t *Transformer) Apply(ctx context.Context, geom orb.Geometry, rel domain.SpatialRelation, buf *domain.BufferConfig) (orb.Geometry, error) {
	if geom == nil {
		return nil, &domain.GeometryInputError{Message: "reference geometry is required"}
	}

	switch rel.Category {
	case domain.CategoryContainment:
		return geom, nil

	case domain.CategoryBuffer:
		if buf == nil {
			return nil, &domain.GeometryInputError{Message: "buffer relation '" + rel.Relation + "' requires a buffer config"}
		}
		return t.buffer(geom, buf)

	case domain.CategoryDirectional:
		if buf == nil {
			return nil, &domain.GeometryInputError{Message: "directional relation '" + rel.Relation + "' requires a buffer config"}
		}
		cfg, err := t.registry.Get(rel.Relation)
		if err != nil {
			return nil, err
		}
		bearing, err := geospatial.CompassBearing(cfg.Direction)
		if err != nil {
			return nil, &domain.GeometryInputError{Message: fmt.Sprintf("relation '%s': %v", rel.Relation, err)}
		}
		angle := defaultSectorAngle
		if cfg.SectorAngleDegrees != nil {
			angle = *cfg.SectorAngleDegrees
		}
		return t.sector(geom, buf.DistanceM, bearing, angle)

	default:
		return nil, &domain.GeometryInputError{Message: fmt.Sprintf("unsupported relation category %q", rel.Category)}
	}
}

func (t *Transformer) buffer(geom orb.Geometry, buf *domain.BufferConfig) (orb.Geometry, error) {
	centroid, err := t.ops.Centroid(geom)
	if err != nil {
		return nil, err
	}
	offset := geospatial.MetersToDegrees(buf.DistanceM, centroid.Lat())

	var out orb.Geometry
	if buf.BufferFrom == domain.BufferFromCenter {
		out, err = t.ops.Buffer(centroid, math.Abs(offset))
	} else {
		out, err = t.ops.Buffer(geom, offset)
	}
	if err != nil {
		return nil, err
	}

	// Erosion has no ring variant.
	if out != nil && buf.RingOnly && buf.DistanceM > 0 {
		out, err = t.ops.Difference(out, geom)
		if err != nil {
			return nil, err
		}
	}

	if out == nil {
		return geom, nil
	}
	return out, nil
}

// sector builds the directional wedge. An invalid wedge is repaired with a
// zero-width buffer; when nothing survives the repair, as with a zero
// radius, the reference geometry is returned instead of an empty area.
func (t *Transformer) sector(geom orb.Geometry, distanceM, bearing, angle float64) (orb.Geometry, error) {
	c, err := t.ops.Centroid(geom)
	if err != nil {
		return nil, err
	}
	radius := math.Abs(geospatial.MetersToDegrees(distanceM, c.Lat()))

	start := bearing - angle/2
	end := bearing + angle/2

	ring := make(orb.Ring, 0, SectorSegments+3)
	ring = append(ring, c)
	for i := 0; i <= SectorSegments; i++ {
		b := start + (end-start)*float64(i)/SectorSegments
		x, y := geospatial.Offset(c.Lon(), c.Lat(), radius, b)
		ring = append(ring, orb.Point{x, y})
	}
	ring = append(ring, c)

	var wedge orb.Geometry = orb.Polygon{ring}
	ok, err := t.ops.Valid(wedge)
	if err != nil {
		return nil, err
	}
	if !ok {
		repaired, err := t.ops.Repair(wedge)
		if err != nil {
			return nil, err
		}
		if repaired == nil {
			return geom, nil
		}
		wedge = repaired
	}
	return wedge, nil
}
