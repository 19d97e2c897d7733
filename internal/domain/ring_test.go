package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ringKeys(rings []Ring) []string {
	out := make([]string, len(rings))
	for i, r := range rings {
		out[i] = r.Key
	}
	return out
}

func ringScales() ScaleSet {
	return NewScaleSet([]Event{
		{Metrics: Metrics{Magnitude: Float(6.5), Felt: Float(0), Structural: Float(0), Significance: Float(650)}},
		{Metrics: Metrics{Magnitude: Float(9.1), Felt: Float(9), Structural: Float(9), Significance: Float(2900)}},
	})
}

func TestRingSpec_Composite(t *testing.T) {
	scales := ringScales()
	e := Event{Depth: Float(30), Metrics: Metrics{Significance: Float(1200)}, Tsunami: true}

	rings := RingSpec(e, ModeComposite, NewMetricSet(MetricFelt), scales)

	require.Equal(t, []string{"sig", "depth", "tsunami"}, ringKeys(rings))
	sig := rings[0]
	assert.Equal(t, ColorSignificance, sig.Fill)
	assert.Equal(t, 0.75, sig.FillOpacity)
	assert.Equal(t, 0.35, sig.StrokeOpacity)
	assert.InDelta(t, sig.Radius+1.5, rings[1].Radius, 1e-9)
	assert.InDelta(t, sig.Radius+3, rings[2].Radius, 1e-9)
	assert.InDelta(t, scales.DepthStrokeWidth(Float(30)), rings[1].StrokeWidth, 1e-9)
	assert.Equal(t, 1.5, rings[2].StrokeWidth)
	assert.Equal(t, "none", rings[1].Fill)
}

func TestRingSpec_CombinationOrderAndOpacity(t *testing.T) {
	scales := ringScales()
	e := Event{Metrics: Metrics{Magnitude: Float(7), Felt: Float(8), Structural: Float(4)}}

	rings := RingSpec(e, ModeCombination, NewMetricSet(MetricStructural, MetricPrimary, MetricFelt), scales)

	require.Equal(t, []string{"mag", "cdi", "mmi", "depth"}, ringKeys(rings))
	assert.Equal(t, 0.55, rings[0].FillOpacity)
	assert.Equal(t, 0.45, rings[1].FillOpacity)
	assert.Equal(t, 0.35, rings[2].FillOpacity)

	largest := rings[0].Radius
	for _, r := range rings[:3] {
		largest = max(largest, r.Radius)
	}
	assert.InDelta(t, largest+1.5, rings[3].Radius, 1e-9)
}

func TestRingSpec_CombinationFallback(t *testing.T) {
	scales := ringScales()
	e := Event{Metrics: Metrics{Magnitude: Float(8)}}

	for name, active := range map[string]MetricSet{
		"empty set":      NewMetricSet(),
		"nil set":        nil,
		"composite only": NewMetricSet(MetricComposite),
	} {
		t.Run(name, func(t *testing.T) {
			rings := RingSpec(e, ModeCombination, active, scales)
			require.Equal(t, []string{"mag fallback", "depth"}, ringKeys(rings))
			assert.InDelta(t, scales.Radius(e, MetricPrimary), rings[0].Radius, 1e-9)
		})
	}
}

func TestRingSpec_NilMetricsStillDrawn(t *testing.T) {
	scales := ringScales()

	rings := RingSpec(Event{}, ModeComposite, nil, scales)

	require.Len(t, rings, 2)
	assert.InDelta(t, MinRadius, rings[0].Radius, 1e-9)
}
