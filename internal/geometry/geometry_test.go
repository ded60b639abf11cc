package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cradlewars/arena/pkg/core"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   core.Vec2
		want core.Vec2
	}{
		{"unit x", core.Vec2{X: 5}, core.Vec2{X: 1}},
		{"diagonal", core.Vec2{X: 3, Y: 4}, core.Vec2{X: 0.6, Y: 0.8}},
		{"zero falls back", core.Vec2{}, DefaultDirection},
		{"tiny falls back", core.Vec2{X: 1e-12}, DefaultDirection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.in)
			assert.InDelta(t, tt.want.X, got.X, 1e-9)
			assert.InDelta(t, tt.want.Y, got.Y, 1e-9)
		})
	}
}

func TestMoveToward_DoesNotOvershoot(t *testing.T) {
	p := MoveToward(core.Vec2{}, core.Vec2{X: 3}, 10)
	assert.Equal(t, core.Vec2{X: 3}, p)

	p = MoveToward(core.Vec2{}, core.Vec2{X: 30}, 10)
	assert.InDelta(t, 10, p.X, 1e-9)
}

func TestRect_ClosestPointRotated(t *testing.T) {
	r := Rect{Center: core.Vec2{X: 100, Y: 100}, Width: 20, Height: 20, Rotation: math.Pi / 4}

	// A point straight to the right of the centre hits the rotated square at
	// its corner distance sqrt(2)*10 along the x axis.
	cp := r.ClosestPoint(core.Vec2{X: 200, Y: 100})
	assert.InDelta(t, 100+10*math.Sqrt2, cp.X, 1e-6)
	assert.InDelta(t, 100, cp.Y, 1e-6)

	assert.True(t, r.Contains(core.Vec2{X: 113, Y: 100}))
	assert.False(t, r.Contains(core.Vec2{X: 109, Y: 109}))
}

func TestCircleCircle(t *testing.T) {
	c := CircleCircle(core.Vec2{X: 15}, 10, core.Vec2{}, 10)
	assert.True(t, c.Overlap)
	assert.InDelta(t, 5, c.Depth, 1e-9)
	assert.InDelta(t, 1, c.Normal.X, 1e-9)

	c = CircleCircle(core.Vec2{X: 25}, 10, core.Vec2{}, 10)
	assert.False(t, c.Overlap)

	// Concentric circles push along the default direction.
	c = CircleCircle(core.Vec2{}, 10, core.Vec2{}, 10)
	assert.True(t, c.Overlap)
	assert.Equal(t, DefaultDirection, c.Normal)
	assert.InDelta(t, 20, c.Depth, 1e-9)
}

func TestCircleRect(t *testing.T) {
	rect := Rect{Center: core.Vec2{}, Width: 40, Height: 20}

	tests := []struct {
		name    string
		centre  core.Vec2
		radius  float64
		overlap bool
		normal  core.Vec2
		depth   float64
	}{
		{"outside", core.Vec2{X: 40}, 5, false, core.Vec2{}, 0},
		{"touching face", core.Vec2{X: 23}, 5, true, core.Vec2{X: 1}, 2},
		{"corner", core.Vec2{X: 23, Y: 14}, 6, true, core.Vec2{X: 0.6, Y: 0.8}, 1},
		{"centre inside near top", core.Vec2{X: 0, Y: 8}, 5, true, core.Vec2{Y: 1}, 7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := CircleRect(tt.centre, tt.radius, rect)
			assert.Equal(t, tt.overlap, c.Overlap)
			if !tt.overlap {
				return
			}
			assert.InDelta(t, tt.normal.X, c.Normal.X, 1e-9)
			assert.InDelta(t, tt.normal.Y, c.Normal.Y, 1e-9)
			if tt.depth > 0 {
				assert.InDelta(t, tt.depth, c.Depth, 1e-9)
			}
		})
	}
}

func TestSegmentIntersectsCircle(t *testing.T) {
	assert.True(t, SegmentIntersectsCircle(core.Vec2{X: -10}, core.Vec2{X: 10}, core.Vec2{Y: 3}, 5))
	assert.False(t, SegmentIntersectsCircle(core.Vec2{X: -10}, core.Vec2{X: 10}, core.Vec2{Y: 6}, 5))
	// Beyond the end point.
	assert.False(t, SegmentIntersectsCircle(core.Vec2{X: -10}, core.Vec2{X: 10}, core.Vec2{X: 20}, 5))
}

func TestSegmentIntersectsRect(t *testing.T) {
	thin := Rect{Center: core.Vec2{X: 50}, Width: 2, Height: 40}

	// A long step that jumps clean over the wall still hits it.
	assert.True(t, SegmentIntersectsRect(core.Vec2{X: 0}, core.Vec2{X: 100}, thin))
	assert.False(t, SegmentIntersectsRect(core.Vec2{X: 0, Y: 30}, core.Vec2{X: 100, Y: 30}, thin))
	assert.True(t, SegmentIntersectsRect(core.Vec2{X: 50}, core.Vec2{X: 50}, thin))

	rotated := Rect{Center: core.Vec2{X: 50}, Width: 2, Height: 40, Rotation: math.Pi / 2}
	assert.False(t, SegmentIntersectsRect(core.Vec2{X: 40, Y: 5}, core.Vec2{X: 60, Y: 5}, rotated))
	assert.True(t, SegmentIntersectsRect(core.Vec2{X: 40, Y: -5}, core.Vec2{X: 60, Y: 5}, rotated))
}

func TestRect_Polygon(t *testing.T) {
	poly, err := Rect{Center: core.Vec2{X: 10, Y: 10}, Width: 4, Height: 2}.Polygon()
	assert.NoError(t, err)
	assert.InDelta(t, 8, poly.Area(), 1e-9)
}

func TestSegmentEntryRect(t *testing.T) {
	wall := Rect{Center: core.Vec2{X: 50}, Width: 10, Height: 40}
	tests := []struct {
		name   string
		a, b   core.Vec2
		want   float64
		wantOK bool
	}{
		{"crosses the near face", core.Vec2{X: 0}, core.Vec2{X: 100}, 0.45, true},
		{"starts inside", core.Vec2{X: 50}, core.Vec2{X: 100}, 0, true},
		{"passes above", core.Vec2{X: 0, Y: 30}, core.Vec2{X: 100, Y: 30}, 0, false},
		{"stops short", core.Vec2{X: 0}, core.Vec2{X: 40}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := SegmentEntryRect(tt.a, tt.b, wall)
			assert.Equal(t, tt.wantOK, ok)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}

	rotated := Rect{Center: core.Vec2{X: 50}, Width: 40, Height: 10, Rotation: math.Pi / 2}
	got, ok := SegmentEntryRect(core.Vec2{X: 0}, core.Vec2{X: 100}, rotated)
	assert.True(t, ok)
	assert.InDelta(t, 0.45, got, 1e-9)
}

func TestSegmentEntryCircle(t *testing.T) {
	c := core.Vec2{X: 50}

	got, ok := SegmentEntryCircle(core.Vec2{X: 0}, core.Vec2{X: 100}, c, 10)
	assert.True(t, ok)
	assert.InDelta(t, 0.4, got, 1e-9)

	got, ok = SegmentEntryCircle(core.Vec2{X: 45}, core.Vec2{X: 100}, c, 10)
	assert.True(t, ok)
	assert.Zero(t, got)

	_, ok = SegmentEntryCircle(core.Vec2{X: 0, Y: 20}, core.Vec2{X: 100, Y: 20}, c, 10)
	assert.False(t, ok)
	_, ok = SegmentEntryCircle(core.Vec2{X: 0}, core.Vec2{X: 30}, c, 10)
	assert.False(t, ok)
}
