// Package viewport owns the zoom/pan transform of the map and the radius
// compensation applied to every symbol when the transform changes.
package viewport

import (
	"math"

	"github.com/golang/geo/r2"
)

// Transform is a uniform scale K followed by a translation (X, Y), the same
// shape as a d3-zoom transform: screen = plane·K + (X, Y).
type Transform struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k"`
}

// Identity is the unzoomed, unpanned transform.
var Identity = Transform{K: 1}

// Apply maps a plane point to the screen.
func (t Transform) Apply(p r2.Point) r2.Point {
	return r2.Point{X: p.X*t.K + t.X, Y: p.Y*t.K + t.Y}
}

// Invert maps a screen point back to the plane.
func (t Transform) Invert(p r2.Point) r2.Point {
	return r2.Point{X: (p.X - t.X) / t.K, Y: (p.Y - t.Y) / t.K}
}

// Translate shifts the transform by (dx, dy) plane units.
func (t Transform) Translate(dx, dy float64) Transform {
	return Transform{X: t.X + t.K*dx, Y: t.Y + t.K*dy, K: t.K}
}

// ScaleBy multiplies the scale, keeping the translation.
func (t Transform) ScaleBy(k float64) Transform {
	return Transform{X: t.X, Y: t.Y, K: t.K * k}
}

// Compensation is the factor applied to a base radius at zoom k so the
// symbol grows as k^e on screen instead of k. e = 0 keeps apparent size
// constant.
func Compensation(k, e float64) float64 {
	if k <= 0 {
		return 1
	}
	return math.Pow(k, e) / k
}

// anchor returns the transform at scale k that places plane point p1 on
// screen point p0.
func anchor(k float64, p0, p1 r2.Point) Transform {
	return Transform{X: p0.X - p1.X*k, Y: p0.Y - p1.Y*k, K: k}
}

// constrain clamps t so the viewport never leaves the translate extent,
// centring the extent when it is smaller than the viewport.
func constrain(t Transform, view, extent r2.Rect) Transform {
	lo := t.Invert(view.Lo())
	hi := t.Invert(view.Hi())
	dx0 := lo.X - extent.X.Lo
	dx1 := hi.X - extent.X.Hi
	dy0 := lo.Y - extent.Y.Lo
	dy1 := hi.Y - extent.Y.Hi
	return t.Translate(constrainAxis(dx0, dx1), constrainAxis(dy0, dy1))
}

func constrainAxis(d0, d1 float64) float64 {
	if d1 > d0 {
		return (d0 + d1) / 2
	}
	if v := math.Min(0, d0); v != 0 {
		return v
	}
	return math.Max(0, d1)
}

// interpolate blends two transforms through the viewport centre: the plane
// point under the centre moves linearly and the scale geometrically, which
// keeps zoom steps visually even.
func interpolate(a, b Transform, center r2.Point, t float64) Transform {
	ca := a.Invert(center)
	cb := b.Invert(center)
	c := r2.Point{X: ca.X + (cb.X-ca.X)*t, Y: ca.Y + (cb.Y-ca.Y)*t}
	k := math.Exp(math.Log(a.K) + (math.Log(b.K)-math.Log(a.K))*t)
	return anchor(k, center, c)
}
