// Package geometry holds the distance and intersection primitives used by
// movement, collision and targeting.
package geometry

import (
	"math"

	"github.com/cradlewars/arena/pkg/core"
)

// DefaultDirection is used wherever a direction would be the zero vector.
var DefaultDirection = core.Vec2{X: 1, Y: 0}

const epsilon = 1e-9

// Normalize returns v scaled to unit length, or DefaultDirection when v has
// no length.
func Normalize(v core.Vec2) core.Vec2 {
	l := v.Len()
	if l < epsilon {
		return DefaultDirection
	}
	return core.Vec2{X: v.X / l, Y: v.Y / l}
}

// Direction returns the unit vector from a to b.
func Direction(from, to core.Vec2) core.Vec2 {
	return Normalize(to.Sub(from))
}

// Rotate turns v by angle radians counter-clockwise.
func Rotate(v core.Vec2, angle float64) core.Vec2 {
	if angle == 0 {
		return v
	}
	sin, cos := math.Sincos(angle)
	return core.Vec2{X: v.X*cos - v.Y*sin, Y: v.X*sin + v.Y*cos}
}

// MoveToward steps from p toward target by at most step and never overshoots.
func MoveToward(p, target core.Vec2, step float64) core.Vec2 {
	d := p.Dist(target)
	if d <= step {
		return target
	}
	return p.Add(Direction(p, target).Scale(step))
}

// ClosestPointOnSegment returns the point of segment ab nearest to p.
func ClosestPointOnSegment(p, a, b core.Vec2) core.Vec2 {
	ab := b.Sub(a)
	l2 := ab.Dot(ab)
	if l2 < epsilon {
		return a
	}
	t := p.Sub(a).Dot(ab) / l2
	t = math.Max(0, math.Min(1, t))
	return a.Add(ab.Scale(t))
}

// DistanceToSegment returns the distance from p to segment ab.
func DistanceToSegment(p, a, b core.Vec2) float64 {
	return p.Dist(ClosestPointOnSegment(p, a, b))
}

// Rect is a rectangle centred on Center and rotated by Rotation radians.
type Rect struct {
	Center   core.Vec2
	Width    float64
	Height   float64
	Rotation float64
}

// ToLocal maps p into the rectangle's unrotated frame, centred on the origin.
func (r Rect) ToLocal(p core.Vec2) core.Vec2 {
	return Rotate(p.Sub(r.Center), -r.Rotation)
}

// ToWorld is the inverse of ToLocal.
func (r Rect) ToWorld(p core.Vec2) core.Vec2 {
	return Rotate(p, r.Rotation).Add(r.Center)
}

// Contains reports whether p lies inside or on the rectangle.
func (r Rect) Contains(p core.Vec2) bool {
	l := r.ToLocal(p)
	return math.Abs(l.X) <= r.Width/2 && math.Abs(l.Y) <= r.Height/2
}

// ClosestPoint returns the point on or inside the rectangle nearest to p.
func (r Rect) ClosestPoint(p core.Vec2) core.Vec2 {
	l := r.ToLocal(p)
	hw, hh := r.Width/2, r.Height/2
	c := core.Vec2{
		X: math.Max(-hw, math.Min(hw, l.X)),
		Y: math.Max(-hh, math.Min(hh, l.Y)),
	}
	return r.ToWorld(c)
}

// Corners returns the four corners in counter-clockwise order.
func (r Rect) Corners() [4]core.Vec2 {
	hw, hh := r.Width/2, r.Height/2
	return [4]core.Vec2{
		r.ToWorld(core.Vec2{X: -hw, Y: -hh}),
		r.ToWorld(core.Vec2{X: hw, Y: -hh}),
		r.ToWorld(core.Vec2{X: hw, Y: hh}),
		r.ToWorld(core.Vec2{X: -hw, Y: hh}),
	}
}

// Contact describes an overlap between a circle and a shape. Normal points
// from the shape toward the circle centre; moving the circle by
// Normal*Depth separates them exactly.
type Contact struct {
	Overlap bool
	Normal  core.Vec2
	Depth   float64
}

// CircleCircle tests a circle at c with radius r against another at o with
// radius ro.
func CircleCircle(c core.Vec2, r float64, o core.Vec2, ro float64) Contact {
	d := c.Dist(o)
	if d >= r+ro {
		return Contact{}
	}
	return Contact{
		Overlap: true,
		Normal:  Direction(o, c),
		Depth:   r + ro - d,
	}
}

// CircleRect tests a circle at c with radius r against rect.
func CircleRect(c core.Vec2, r float64, rect Rect) Contact {
	l := rect.ToLocal(c)
	hw, hh := rect.Width/2, rect.Height/2

	if math.Abs(l.X) <= hw && math.Abs(l.Y) <= hh {
		// Centre is inside: leave through the nearest face.
		dx := hw - math.Abs(l.X)
		dy := hh - math.Abs(l.Y)
		var n core.Vec2
		var depth float64
		if dx < dy {
			n = core.Vec2{X: sign(l.X), Y: 0}
			depth = dx + r
		} else {
			n = core.Vec2{X: 0, Y: sign(l.Y)}
			depth = dy + r
		}
		return Contact{Overlap: true, Normal: Rotate(n, rect.Rotation), Depth: depth}
	}

	closest := rect.ClosestPoint(c)
	d := c.Dist(closest)
	if d >= r {
		return Contact{}
	}
	return Contact{
		Overlap: true,
		Normal:  Direction(closest, c),
		Depth:   r - d,
	}
}

// SegmentIntersectsCircle reports whether segment ab passes within r of c.
func SegmentIntersectsCircle(a, b, c core.Vec2, r float64) bool {
	return DistanceToSegment(c, a, b) <= r
}

// SegmentEntryRect returns the fraction along ab at which the segment first
// touches rect. It is 0 when a is already inside.
func SegmentEntryRect(a, b core.Vec2, rect Rect) (float64, bool) {
	la, lb := rect.ToLocal(a), rect.ToLocal(b)
	t0, t1 := 0.0, 1.0
	for _, ax := range [2]struct{ p, d, h float64 }{
		{la.X, lb.X - la.X, rect.Width / 2},
		{la.Y, lb.Y - la.Y, rect.Height / 2},
	} {
		if math.Abs(ax.d) < epsilon {
			if math.Abs(ax.p) > ax.h {
				return 0, false
			}
			continue
		}
		lo, hi := (-ax.h-ax.p)/ax.d, (ax.h-ax.p)/ax.d
		if lo > hi {
			lo, hi = hi, lo
		}
		t0, t1 = math.Max(t0, lo), math.Min(t1, hi)
		if t0 > t1 {
			return 0, false
		}
	}
	return t0, true
}

// SegmentEntryCircle returns the fraction along ab at which the segment first
// comes within r of c. It is 0 when a is already inside.
func SegmentEntryCircle(a, b, c core.Vec2, r float64) (float64, bool) {
	f := a.Sub(c)
	if f.Len() <= r {
		return 0, true
	}
	d := b.Sub(a)
	qa := d.Dot(d)
	if qa < epsilon {
		return 0, false
	}
	qb := 2 * f.Dot(d)
	qc := f.Dot(f) - r*r
	disc := qb*qb - 4*qa*qc
	if disc < 0 {
		return 0, false
	}
	t := (-qb - math.Sqrt(disc)) / (2 * qa)
	if t < 0 || t > 1 {
		return 0, false
	}
	return t, true
}

func sign(v float64) float64 {
	if v < 0 {
		return -1
	}
	return 1
}
