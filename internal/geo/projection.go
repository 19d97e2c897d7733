// Package geo projects longitude/latitude onto the drawing plane and
// describes the basemap regions the explorer can switch between.
//
// The projection maths follows d3-geo so coordinates line up with a d3
// client drawing the same basemap: raw projections in radians, then
// rotation, scale, centre and translate.
package geo

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb/geojson"
)

const (
	radians = math.Pi / 180
	epsilon = 1e-6
)

// RawProjection maps (lambda, phi) in radians onto the unit plane, y up.
type RawProjection func(lambda, phi float64) (x, y float64)

// Projection is a configured cartographic projection.
type Projection struct {
	raw       RawProjection
	scale     float64
	translate r2.Point
	center    [2]float64 // degrees
	rotate    float64    // degrees added to longitude
	dx, dy    float64
}

// NewProjection builds a projection with d3's default translate [480, 250].
func NewProjection(raw RawProjection, scale float64) *Projection {
	p := &Projection{raw: raw, scale: scale, translate: r2.Point{X: 480, Y: 250}}
	p.recenter()
	return p
}

// Scale returns the projection scale.
func (p *Projection) Scale() float64 { return p.scale }

// Translate returns the plane offset of the projection centre.
func (p *Projection) Translate() r2.Point { return p.translate }

// WithScale sets the scale.
func (p *Projection) WithScale(k float64) *Projection {
	p.scale = k
	p.recenter()
	return p
}

// WithTranslate sets the plane offset of the projection centre.
func (p *Projection) WithTranslate(x, y float64) *Projection {
	p.translate = r2.Point{X: x, Y: y}
	p.recenter()
	return p
}

// WithCenter sets the geographic point placed at the translate offset.
func (p *Projection) WithCenter(lon, lat float64) *Projection {
	p.center = [2]float64{lon, lat}
	p.recenter()
	return p
}

// WithRotate sets the longitudinal rotation in degrees.
func (p *Projection) WithRotate(lambda float64) *Projection {
	p.rotate = lambda
	p.recenter()
	return p
}

// Clone returns an independent copy.
func (p *Projection) Clone() *Projection {
	c := *p
	return &c
}

func (p *Projection) recenter() {
	cx, cy := p.raw(p.center[0]*radians, p.center[1]*radians)
	p.dx = p.translate.X - cx*p.scale
	p.dy = p.translate.Y + cy*p.scale
}

// Project maps a coordinate onto the plane. ok is false when the result is
// not finite, e.g. Mercator at a pole.
func (p *Projection) Project(lon, lat float64) (pt r2.Point, ok bool) {
	lambda := wrapLongitude((lon + p.rotate) * radians)
	x, y := p.raw(lambda, lat*radians)
	pt = r2.Point{X: p.dx + x*p.scale, Y: p.dy - y*p.scale}
	return pt, finite(pt.X) && finite(pt.Y)
}

// FitSize scales and translates the projection so the features fill a
// width×height viewport.
func (p *Projection) FitSize(width, height float64, fc *geojson.FeatureCollection) *Projection {
	p.scale = 150
	p.translate = r2.Point{}
	p.recenter()
	b, ok := ProjectedBounds(p, fc)
	if !ok {
		return p
	}
	size := b.Size()
	k := math.Min(width/size.X, height/size.Y)
	if math.IsInf(k, 0) || math.IsNaN(k) || k <= 0 {
		return p
	}
	x := (width - k*(b.X.Hi+b.X.Lo)) / 2
	y := (height - k*(b.Y.Hi+b.Y.Lo)) / 2
	p.scale = 150 * k
	p.translate = r2.Point{X: x, Y: y}
	p.recenter()
	return p
}

func wrapLongitude(lambda float64) float64 {
	if lambda > math.Pi {
		return lambda - 2*math.Pi
	}
	if lambda < -math.Pi {
		return lambda + 2*math.Pi
	}
	return lambda
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// NaturalEarth1Raw is the Natural Earth I pseudo-cylindrical projection.
func NaturalEarth1Raw(lambda, phi float64) (float64, float64) {
	phi2 := phi * phi
	phi4 := phi2 * phi2
	x := lambda * (0.8707 - 0.131979*phi2 + phi4*(-0.013791+phi4*(0.003971*phi2-0.001529*phi4)))
	y := phi * (1.007226 + phi2*(0.015085+phi4*(-0.044475+0.028874*phi2-0.005916*phi4)))
	return x, y
}

// MercatorRaw is the spherical Mercator projection.
func MercatorRaw(lambda, phi float64) (float64, float64) {
	return lambda, math.Log(math.Tan((math.Pi/2 + phi) / 2))
}

// ConicEqualAreaRaw returns the Albers conic equal-area projection for the
// standard parallels phi0 and phi1 (radians).
func ConicEqualAreaRaw(phi0, phi1 float64) RawProjection {
	sy0 := math.Sin(phi0)
	n := (sy0 + math.Sin(phi1)) / 2
	if math.Abs(n) < epsilon {
		cosPhi0 := math.Cos(phi0)
		return func(lambda, phi float64) (float64, float64) {
			return lambda * cosPhi0, math.Sin(phi) / cosPhi0
		}
	}
	c := 1 + sy0*(2*n-sy0)
	r0 := math.Sqrt(c) / n
	return func(lambda, phi float64) (float64, float64) {
		r := math.Sqrt(c-2*n*math.Sin(phi)) / n
		lambda *= n
		return r * math.Sin(lambda), r0 - r*math.Cos(lambda)
	}
}

// NaturalEarth1 returns the projection with d3's default scale.
func NaturalEarth1() *Projection {
	return NewProjection(NaturalEarth1Raw, 175.295)
}

// Mercator returns the projection with d3's default scale.
func Mercator() *Projection {
	return NewProjection(MercatorRaw, 961/(2*math.Pi))
}

// Albers returns a conic equal-area projection for the given standard
// parallels in degrees.
func Albers(parallel0, parallel1 float64) *Projection {
	return NewProjection(ConicEqualAreaRaw(parallel0*radians, parallel1*radians), 1070)
}
