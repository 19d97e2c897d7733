package domain

import (
	"fmt"
	"strings"
)

// Metric names one of the intensity measurements carried by an Event.
type Metric string

const (
	MetricPrimary    Metric = "mag"
	MetricFelt       Metric = "cdi"
	MetricStructural Metric = "mmi"
	MetricComposite  Metric = "sig"
)

// AllMetrics lists every metric in display order.
var AllMetrics = []Metric{MetricPrimary, MetricFelt, MetricStructural, MetricComposite}

// comboMetrics are the metrics that can be toggled in Combination mode, in
// ring order.
var comboMetrics = []Metric{MetricPrimary, MetricFelt, MetricStructural}

// ParseMetric accepts the short names ("mag") and the role names ("primary").
func ParseMetric(s string) (Metric, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mag", "magnitude", "primary":
		return MetricPrimary, nil
	case "cdi", "felt":
		return MetricFelt, nil
	case "mmi", "structural":
		return MetricStructural, nil
	case "sig", "significance", "composite":
		return MetricComposite, nil
	default:
		return "", fmt.Errorf("unknown metric %q", s)
	}
}

// MetricSet is the set of metrics toggled on in Combination mode.
type MetricSet map[Metric]bool

// NewMetricSet builds a set from the given metrics.
func NewMetricSet(ms ...Metric) MetricSet {
	s := make(MetricSet, len(ms))
	for _, m := range ms {
		s[m] = true
	}
	return s
}

// Has reports whether m is toggled on.
func (s MetricSet) Has(m Metric) bool { return s[m] }

// Clone returns an independent copy.
func (s MetricSet) Clone() MetricSet {
	out := make(MetricSet, len(s))
	for m, on := range s {
		if on {
			out[m] = true
		}
	}
	return out
}

// List returns the toggled metrics in display order.
func (s MetricSet) List() []Metric {
	out := make([]Metric, 0, len(s))
	for _, m := range AllMetrics {
		if s[m] {
			out = append(out, m)
		}
	}
	return out
}

// DisplayMode selects how many rings are drawn per event.
type DisplayMode string

const (
	// ModeComposite draws a single ring sized by the composite metric.
	ModeComposite DisplayMode = "composite"
	// ModeCombination draws up to three independently toggled metric rings.
	ModeCombination DisplayMode = "combination"
)

// ParseDisplayMode accepts the mode names plus the original UI values
// ("overall", "combo").
func ParseDisplayMode(s string) (DisplayMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "composite", "overall":
		return ModeComposite, nil
	case "combination", "combo":
		return ModeCombination, nil
	default:
		return "", fmt.Errorf("unknown display mode %q", s)
	}
}
