package domain

// Ring colours.
const (
	ColorMagnitude    = "#1b9e77"
	ColorFelt         = "#d95f02"
	ColorStructural   = "#7570b3"
	ColorSignificance = "#e7298a"
	ColorTsunami      = "#3b82f6"
	ColorDepthRing    = "#374151"
	colorOutline      = "#000"
	fillNone          = "none"
)

// Offsets of the dependent rings from the base radius.
const (
	depthRingOffset   = 1.5
	tsunamiRingOffset = 3.0
	tsunamiStroke     = 1.5
)

// Ring describes one concentric circle of an event's symbol.
type Ring struct {
	Key           string  `json:"key"`
	Radius        float64 `json:"radius"`
	Fill          string  `json:"fill"`
	FillOpacity   float64 `json:"fill_opacity"`
	Stroke        string  `json:"stroke"`
	StrokeOpacity float64 `json:"stroke_opacity"`
	StrokeWidth   float64 `json:"stroke_width,omitempty"`
}

type ringStyle struct {
	fill          string
	fillOpacity   float64
	strokeOpacity float64
}

// comboStyles gives each combination ring its own transparency so stacked
// discs stay distinguishable.
var comboStyles = map[Metric]ringStyle{
	MetricPrimary:    {fill: ColorMagnitude, fillOpacity: 0.55, strokeOpacity: 0.25},
	MetricFelt:       {fill: ColorFelt, fillOpacity: 0.45, strokeOpacity: 0.25},
	MetricStructural: {fill: ColorStructural, fillOpacity: 0.35, strokeOpacity: 0.25},
}

// RingSpec computes the ring stack for e under the given display options.
// Every ring geometry in the system comes from here.
func RingSpec(e Event, mode DisplayMode, active MetricSet, scales ScaleSet) []Ring {
	var rings []Ring
	if mode == ModeCombination {
		metrics := activeCombo(active)
		fallback := !anyCombo(active)
		for _, m := range metrics {
			st := comboStyles[m]
			key := string(m)
			if fallback {
				key += " fallback"
			}
			rings = append(rings, Ring{
				Key:           key,
				Radius:        scales.Radius(e, m),
				Fill:          st.fill,
				FillOpacity:   st.fillOpacity,
				Stroke:        colorOutline,
				StrokeOpacity: st.strokeOpacity,
			})
		}
	} else {
		rings = append(rings, Ring{
			Key:           string(MetricComposite),
			Radius:        scales.Radius(e, MetricComposite),
			Fill:          ColorSignificance,
			FillOpacity:   0.75,
			Stroke:        colorOutline,
			StrokeOpacity: 0.35,
		})
	}

	base := scales.BaseRadius(e, mode, active)
	rings = append(rings, Ring{
		Key:           "depth",
		Radius:        base + depthRingOffset,
		Fill:          fillNone,
		FillOpacity:   1,
		Stroke:        ColorDepthRing,
		StrokeOpacity: 0.9,
		StrokeWidth:   scales.DepthStrokeWidth(e.Depth),
	})
	if e.Tsunami {
		rings = append(rings, Ring{
			Key:           "tsunami",
			Radius:        base + tsunamiRingOffset,
			Fill:          fillNone,
			FillOpacity:   1,
			Stroke:        ColorTsunami,
			StrokeOpacity: 0.9,
			StrokeWidth:   tsunamiStroke,
		})
	}
	return rings
}

func anyCombo(active MetricSet) bool {
	for _, m := range comboMetrics {
		if active.Has(m) {
			return true
		}
	}
	return false
}
