package domain

import "math"

// Symbol radius bounds in pixels.
const (
	MinRadius = 4.0
	MaxRadius = 20.0
)

// Depth stroke mapping: [0, 700] km onto [0.6, 4] px.
const (
	depthDomainMax = 700.0
	minDepthStroke = 0.6
	maxDepthStroke = 4.0
)

// Scale is a clamped continuous mapping from a numeric domain to a pixel
// range. Exponent 1 is linear; 0.5 is a square-root scale.
type Scale struct {
	domain   [2]float64
	rng      [2]float64
	exponent float64
}

// NewScale builds a clamped power scale.
func NewScale(domain, rng [2]float64, exponent float64) Scale {
	return Scale{domain: domain, rng: rng, exponent: exponent}
}

// Domain returns the scale's input interval.
func (s Scale) Domain() [2]float64 { return s.domain }

// Range returns the scale's output interval.
func (s Scale) Range() [2]float64 { return s.rng }

// Exponent returns the power applied to inputs before interpolation.
func (s Scale) Exponent() float64 { return s.exponent }

// At maps v into the output range. Inputs outside the domain are clamped. A
// degenerate domain maps every input to the middle of the range.
func (s Scale) At(v float64) float64 {
	d0 := s.pow(s.domain[0])
	d1 := s.pow(s.domain[1])
	span := d1 - d0
	if span == 0 || math.IsNaN(span) {
		return s.rng[0] + (s.rng[1]-s.rng[0])*0.5
	}
	t := (s.pow(v) - d0) / span
	if math.IsNaN(t) {
		t = 0
	}
	t = math.Max(0, math.Min(1, t))
	return s.rng[0] + (s.rng[1]-s.rng[0])*t
}

func (s Scale) pow(v float64) float64 {
	if s.exponent == 1 {
		return v
	}
	if v < 0 {
		return -math.Pow(-v, s.exponent)
	}
	return math.Pow(v, s.exponent)
}

// ScaleSet holds the radius scale of every metric plus the depth stroke scale.
// It is built once per catalog load; filtering never rebuilds it, so the
// legend stays put while the view changes.
type ScaleSet struct {
	metrics map[Metric]Scale
	depth   Scale
}

// metricExponents gives the primary metric a cubic scale so small magnitude
// differences stay visible; the rest are square-root scales.
var metricExponents = map[Metric]float64{
	MetricPrimary:    3,
	MetricFelt:       0.5,
	MetricStructural: 0.5,
	MetricComposite:  0.5,
}

// NewScaleSet derives each metric's domain from the observed extent over the
// whole catalog, floored at 0 and ceilinged at no less than 1.
func NewScaleSet(events []Event) ScaleSet {
	s := ScaleSet{
		metrics: make(map[Metric]Scale, len(AllMetrics)),
		depth:   NewScale([2]float64{0, depthDomainMax}, [2]float64{minDepthStroke, maxDepthStroke}, 1),
	}
	for _, m := range AllMetrics {
		lo, hi, ok := extent(events, m)
		if !ok {
			lo, hi = 0, 1
		}
		domain := [2]float64{math.Max(0, lo), math.Max(1, hi)}
		s.metrics[m] = NewScale(domain, [2]float64{MinRadius, MaxRadius}, metricExponents[m])
	}
	return s
}

// ScaleFor returns the radius scale for m. Unknown metrics get the primary
// metric's scale.
func (s ScaleSet) ScaleFor(m Metric) Scale {
	if sc, ok := s.metrics[m]; ok {
		return sc
	}
	return s.metrics[MetricPrimary]
}

// Radius sizes e's reading for m; an absent reading sizes as zero.
func (s ScaleSet) Radius(e Event, m Metric) float64 {
	v := 0.0
	if p := e.Value(m); p != nil {
		v = *p
	}
	return s.ScaleFor(m).At(v)
}

// DepthStrokeWidth maps a depth in km to a ring stroke width. An absent depth
// maps as zero.
func (s ScaleSet) DepthStrokeWidth(depth *float64) float64 {
	v := 0.0
	if depth != nil {
		v = *depth
	}
	return s.depth.At(v)
}

// BaseRadius is the largest metric ring radius drawn for e; dependent rings
// sit just outside it.
func (s ScaleSet) BaseRadius(e Event, mode DisplayMode, active MetricSet) float64 {
	if mode != ModeCombination {
		return s.Radius(e, MetricComposite)
	}
	base := 0.0
	for _, m := range activeCombo(active) {
		base = math.Max(base, s.Radius(e, m))
	}
	return base
}

// activeCombo returns the toggled combination metrics in ring order, falling
// back to the primary metric so an event is never drawn without a disc.
func activeCombo(active MetricSet) []Metric {
	out := make([]Metric, 0, len(comboMetrics))
	for _, m := range comboMetrics {
		if active.Has(m) {
			out = append(out, m)
		}
	}
	if len(out) == 0 {
		out = append(out, MetricPrimary)
	}
	return out
}

func extent(events []Event, m Metric) (lo, hi float64, ok bool) {
	for _, e := range events {
		p := e.Value(m)
		if p == nil || math.IsNaN(*p) {
			continue
		}
		if !ok {
			lo, hi, ok = *p, *p, true
			continue
		}
		lo = math.Min(lo, *p)
		hi = math.Max(hi, *p)
	}
	return lo, hi, ok
}
