package domain

// Default filter bounds, matching the slider extents of the controls.
const (
	DefaultDepthMax  = 700.0
	DefaultMetricMax = 10.0
)

// Range is a closed numeric interval.
type Range struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
}

// Normalize swaps the bounds when they arrive out of order.
func (r Range) Normalize() Range {
	if r.Lo > r.Hi {
		return Range{Lo: r.Hi, Hi: r.Lo}
	}
	return r
}

// Contains reports whether v lies in the range. A nil value always passes.
func (r Range) Contains(v *float64) bool {
	if v == nil {
		return true
	}
	return *v >= r.Lo && *v <= r.Hi
}

// FilterState is the full set of user-controlled view options.
type FilterState struct {
	Depth   Range       `json:"depth"`
	Metric  Range       `json:"metric"` // applied to the primary metric
	Tsunami bool        `json:"tsunami_only"`
	Mode    DisplayMode `json:"mode"`
	Active  MetricSet   `json:"-"`
}

// DefaultFilterState returns the initial, unfiltered view options.
func DefaultFilterState() FilterState {
	return FilterState{
		Depth:  Range{Lo: 0, Hi: DefaultDepthMax},
		Metric: Range{Lo: 0, Hi: DefaultMetricMax},
		Mode:   ModeComposite,
		Active: NewMetricSet(MetricPrimary),
	}
}

// Normalize returns a copy with ordered ranges and a known display mode.
func (f FilterState) Normalize() FilterState {
	f.Depth = f.Depth.Normalize()
	f.Metric = f.Metric.Normalize()
	if f.Mode != ModeCombination {
		f.Mode = ModeComposite
	}
	if f.Active == nil {
		f.Active = NewMetricSet()
	} else {
		f.Active = f.Active.Clone()
	}
	return f
}

// ClearRanges resets the ranges and the tsunami flag, keeping display options.
func (f FilterState) ClearRanges() FilterState {
	d := DefaultFilterState()
	f.Depth = d.Depth
	f.Metric = d.Metric
	f.Tsunami = false
	return f
}

// Match reports whether e satisfies every predicate of f.
func (f FilterState) Match(e Event) bool {
	if !f.Depth.Contains(e.Depth) {
		return false
	}
	if !f.Metric.Contains(e.Metrics.Magnitude) {
		return false
	}
	if f.Tsunami && !e.Tsunami {
		return false
	}
	return true
}

// Apply returns the events of subset that match f, preserving order. It is
// idempotent: Apply(Apply(s, f), f) yields the same events as Apply(s, f).
func Apply(subset []Event, f FilterState) []Event {
	f = f.Normalize()
	out := make([]Event, 0, len(subset))
	for _, e := range subset {
		if f.Match(e) {
			out = append(out, e)
		}
	}
	return out
}
