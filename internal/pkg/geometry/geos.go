// Package geometry runs planar geometry operations on orb values through
// GEOS. Geometries cross the cgo boundary as WKT.
package geometry

import (
	"fmt"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/wkt"
	"github.com/twpayne/go-geos"
)

// DefaultQuadSegs is the number of segments per quarter circle used when
// buffering.
const DefaultQuadSegs = 16

// GEOS performs geometry operations. It is safe for concurrent use.
type GEOS struct {
	mu       sync.Mutex
	ctx      *geos.Context
	quadSegs int
}

// New creates a GEOS-backed operation set. quadSegs <= 0 selects
// DefaultQuadSegs.
func New(quadSegs int) *GEOS {
	if quadSegs <= 0 {
		quadSegs = DefaultQuadSegs
	}
	return &GEOS{ctx: geos.NewContext(), quadSegs: quadSegs}
}

func (o *GEOS) toGEOS(g orb.Geometry) (*geos.Geom, error) {
	if g == nil {
		return nil, fmt.Errorf("nil geometry")
	}
	gg, err := o.ctx.NewGeomFromWKT(wkt.MarshalString(g))
	if err != nil {
		return nil, fmt.Errorf("geos from wkt: %w", err)
	}
	return gg, nil
}

// fromGEOS converts back to orb. Empty results come back as nil.
func fromGEOS(g *geos.Geom) (orb.Geometry, error) {
	if g == nil || g.IsEmpty() {
		return nil, nil
	}
	out, err := wkt.Unmarshal(g.ToWKT())
	if err != nil {
		return nil, fmt.Errorf("orb from wkt: %w", err)
	}
	return out, nil
}

// Centroid returns the center of mass of g.
func (o *GEOS) Centroid(g orb.Geometry) (orb.Point, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	gg, err := o.toGEOS(g)
	if err != nil {
		return orb.Point{}, err
	}
	c := gg.Centroid()
	if c.IsEmpty() {
		return orb.Point{}, fmt.Errorf("centroid of empty geometry")
	}
	return orb.Point{c.X(), c.Y()}, nil
}

// Buffer grows g by width degrees, or shrinks it when width is negative.
// A fully eroded geometry comes back as nil.
func (o *GEOS) Buffer(g orb.Geometry, width float64) (orb.Geometry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	gg, err := o.toGEOS(g)
	if err != nil {
		return nil, err
	}
	return fromGEOS(gg.Buffer(width, o.quadSegs))
}

// Difference returns the part of a not covered by b, or nil when nothing
// is left.
func (o *GEOS) Difference(a, b orb.Geometry) (orb.Geometry, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	ga, err := o.toGEOS(a)
	if err != nil {
		return nil, err
	}
	gb, err := o.toGEOS(b)
	if err != nil {
		return nil, err
	}
	return fromGEOS(ga.Difference(gb))
}

// Valid reports whether g is non-empty and topologically valid.
func (o *GEOS) Valid(g orb.Geometry) (bool, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	gg, err := o.toGEOS(g)
	if err != nil {
		return false, err
	}
	return !gg.IsEmpty() && gg.IsValid(), nil
}

// Repair fixes self-intersections with a zero-width buffer.
func (o *GEOS) Repair(g orb.Geometry) (orb.Geometry, error) {
	return o.Buffer(g, 0)
}
