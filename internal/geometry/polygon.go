package geometry

import (
	"fmt"

	geom "github.com/peterstace/simplefeatures/geom"

	"github.com/cradlewars/arena/pkg/core"
)

// Polygon returns the rectangle as a closed simplefeatures polygon.
func (r Rect) Polygon() (geom.Polygon, error) {
	c := r.Corners()
	coords := make([]float64, 0, 10)
	for _, p := range c {
		coords = append(coords, p.X, p.Y)
	}
	coords = append(coords, c[0].X, c[0].Y)
	ring, err := geom.NewLineString(geom.NewSequence(coords, geom.DimXY))
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("building rect ring: %w", err)
	}
	poly, err := geom.NewPolygon([]geom.LineString{ring})
	if err != nil {
		return geom.Polygon{}, fmt.Errorf("building rect polygon: %w", err)
	}
	return poly, nil
}

// SegmentIntersectsRect reports whether segment ab touches rect. A zero-length
// segment degrades to a containment test. Degenerate rectangles that
// simplefeatures rejects fall back to slab clipping.
func SegmentIntersectsRect(a, b core.Vec2, rect Rect) bool {
	if a.Dist(b) < epsilon {
		return rect.Contains(a)
	}
	poly, err := rect.Polygon()
	if err != nil {
		_, ok := SegmentEntryRect(a, b, rect)
		return ok
	}
	seg, err := geom.NewLineString(geom.NewSequence([]float64{a.X, a.Y, b.X, b.Y}, geom.DimXY))
	if err != nil {
		_, ok := SegmentEntryRect(a, b, rect)
		return ok
	}
	return geom.Intersects(seg.AsGeometry(), poly.AsGeometry())
}
