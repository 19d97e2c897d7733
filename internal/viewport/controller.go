package viewport

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/golang/geo/r2"

	"github.com/couchcryptid/quake-map-explorer/internal/anim"
	"github.com/couchcryptid/quake-map-explorer/internal/geo"
)

// ErrNoProjection is returned when a coordinate does not project to a finite
// point under the active projection.
var ErrNoProjection = errors.New("coordinate does not project")

const (
	// MinZoom and MaxZoom bound the scale extent.
	MinZoom = 1.0
	MaxZoom = 12.0

	// DefaultExponent lets symbols grow slightly on zoom-in.
	DefaultExponent = 0.23

	// ButtonStep is the zoom factor of one zoom-in/out press.
	ButtonStep = 1.3

	ZoomDuration  = 200 * time.Millisecond
	ResetDuration = 300 * time.Millisecond

	// The pan extent is the basemap's projected bounds plus padX either side
	// and padY plus padYShare of the bounds' height above and below.
	padX      = 120.0
	padY      = 60.0
	padYShare = 0.15

	owner = "viewport"
)

// Listener is called synchronously after every transform write with the new
// transform and its compensation factor.
type Listener func(t Transform, factor float64)

// Status summarizes the zoom level for the zoom buttons.
type Status struct {
	K      float64 `json:"k"`
	Factor float64 `json:"factor"`
	AtMin  bool    `json:"at_min"`
	AtMax  bool    `json:"at_max"`
}

// Config sizes the viewport.
type Config struct {
	Width    float64
	Height   float64
	Exponent float64
}

// Controller holds the active projection and the zoom transform. It is the
// only writer of the transform; every write notifies the listeners before
// returning.
type Controller struct {
	sched     *anim.Scheduler
	width     float64
	height    float64
	exponent  float64
	region    geo.Region
	extent    r2.Rect
	t         Transform
	listeners []Listener
}

// NewController creates a controller showing region at identity.
func NewController(sched *anim.Scheduler, cfg Config, region geo.Region) (*Controller, error) {
	if cfg.Exponent < 0 || cfg.Exponent >= 1 {
		return nil, fmt.Errorf("radius exponent %v outside [0, 1)", cfg.Exponent)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, fmt.Errorf("viewport %vx%v must be positive", cfg.Width, cfg.Height)
	}
	c := &Controller{
		sched:    sched,
		width:    cfg.Width,
		height:   cfg.Height,
		exponent: cfg.Exponent,
		t:        Identity,
	}
	c.useRegion(region)
	return c, nil
}

// OnChange registers a listener for transform writes.
func (c *Controller) OnChange(l Listener) { c.listeners = append(c.listeners, l) }

// Transform returns the current transform.
func (c *Controller) Transform() Transform { return c.t }

// Factor returns the compensation factor of the current transform.
func (c *Controller) Factor() float64 { return Compensation(c.t.K, c.exponent) }

// Exponent returns the radius growth exponent.
func (c *Controller) Exponent() float64 { return c.exponent }

// Region returns the active region.
func (c *Controller) Region() geo.Region { return c.region }

// TranslateExtent returns the plane rectangle the viewport is kept inside.
func (c *Controller) TranslateExtent() r2.Rect { return c.extent }

// Size returns the viewport width and height.
func (c *Controller) Size() (width, height float64) { return c.width, c.height }

// Status reports the zoom level against the scale extent.
func (c *Controller) Status() Status {
	return Status{
		K:      c.t.K,
		Factor: c.Factor(),
		AtMin:  c.t.K <= MinZoom+1e-9,
		AtMax:  c.t.K >= MaxZoom-1e-9,
	}
}

// Project maps a coordinate to the untransformed plane.
func (c *Controller) Project(lon, lat float64) (r2.Point, bool) {
	return c.region.Projection.Project(lon, lat)
}

// Animating reports whether a zoom or flight is in progress.
func (c *Controller) Animating() bool { return c.sched.Pending(owner) > 0 }

// SetRegion switches the projection, recomputes the pan extent and jumps to
// identity.
func (c *Controller) SetRegion(r geo.Region) {
	c.sched.CancelOwner(owner)
	c.useRegion(r)
	c.write(Identity)
}

func (c *Controller) useRegion(r geo.Region) {
	c.region = r
	c.extent = c.translateExtent()
	c.t = c.constrain(c.t)
}

func (c *Controller) translateExtent() r2.Rect {
	b, ok := geo.ProjectedBounds(c.region.Projection, c.region.Features)
	if !ok {
		return r2.RectFromPoints(
			r2.Point{X: -0.5 * c.width, Y: -0.2 * c.height},
			r2.Point{X: 1.5 * c.width, Y: 1.2 * c.height},
		)
	}
	return b.Expanded(r2.Point{X: padX, Y: padY + padYShare*b.Size().Y})
}

// PanTo jumps to t after clamping it to the scale and pan extents.
func (c *Controller) PanTo(t Transform) {
	c.sched.CancelOwner(owner)
	t.K = clampZoom(t.K)
	c.write(c.constrain(t))
}

// ZoomBy scales around the viewport centre, animated over ZoomDuration.
func (c *Controller) ZoomBy(factor float64) anim.Handle {
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return 0
	}
	center := c.center()
	k := clampZoom(c.t.K * factor)
	target := c.constrain(anchor(k, center, c.t.Invert(center)))
	return c.animate(target, ZoomDuration, anim.CubicInOut, nil)
}

// Reset animates back to identity over ResetDuration.
func (c *Controller) Reset() anim.Handle {
	return c.animate(Identity, ResetDuration, anim.CubicInOut, nil)
}

// FlyTo animates so (lon, lat) sits at the viewport centre at scale k. done
// runs when the flight lands; it does not run if the flight is interrupted.
func (c *Controller) FlyTo(lon, lat, k float64, d time.Duration, done func()) (anim.Handle, error) {
	p, ok := c.Project(lon, lat)
	if !ok {
		return 0, fmt.Errorf("fly to %.4f,%.4f: %w", lon, lat, ErrNoProjection)
	}
	target := c.constrain(anchor(clampZoom(k), c.center(), p))
	return c.animate(target, d, anim.CubicInOut, done), nil
}

func (c *Controller) animate(target Transform, d time.Duration, ease anim.Ease, done func()) anim.Handle {
	c.sched.CancelOwner(owner)
	from := c.t
	center := c.center()
	return c.sched.Tween(owner, d, ease, func(p float64) {
		if p >= 1 {
			c.write(target)
			return
		}
		c.write(c.constrain(interpolate(from, target, center, p)))
	}, done)
}

func (c *Controller) write(t Transform) {
	c.t = t
	f := c.Factor()
	for _, l := range c.listeners {
		l(t, f)
	}
}

func (c *Controller) constrain(t Transform) Transform {
	view := r2.RectFromPoints(r2.Point{}, r2.Point{X: c.width, Y: c.height})
	return constrain(t, view, c.extent)
}

func (c *Controller) center() r2.Point {
	return r2.Point{X: c.width / 2, Y: c.height / 2}
}

func clampZoom(k float64) float64 {
	return math.Max(MinZoom, math.Min(MaxZoom, k))
}
