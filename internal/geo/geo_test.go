package geo

import (
	"math"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNaturalEarth1_Defaults(t *testing.T) {
	p := NaturalEarth1()

	pt, ok := p.Project(0, 0)
	require.True(t, ok)
	assert.InDelta(t, 480, pt.X, 1e-9)
	assert.InDelta(t, 250, pt.Y, 1e-9)

	east, ok := p.Project(180, 0)
	require.True(t, ok)
	assert.InDelta(t, 480+math.Pi*0.8707*175.295, east.X, 1e-6)

	north, _ := p.Project(0, 45)
	assert.Less(t, north.Y, pt.Y, "north is up")
}

func TestMercator_PoleDoesNotProject(t *testing.T) {
	p := Mercator()

	_, ok := p.Project(10, -90)
	assert.False(t, ok)

	_, ok = p.Project(10, 60)
	assert.True(t, ok)
}

func TestProjection_CenterLandsOnTranslate(t *testing.T) {
	tests := []struct {
		name     string
		p        *Projection
		lon, lat float64
	}{
		{"mercator", Mercator().WithCenter(138, 38).WithScale(2000).WithTranslate(480, 300), 138, 38},
		{"albers rotated", Albers(29.5, 45.5).WithRotate(98).WithCenter(0, 38).WithTranslate(480, 300), -98, 38},
		{"natural earth", NaturalEarth1().WithCenter(20, 10).WithTranslate(480, 300), 20, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pt, ok := tt.p.Project(tt.lon, tt.lat)
			require.True(t, ok)
			assert.InDelta(t, 480, pt.X, 1e-6)
			assert.InDelta(t, 300, pt.Y, 1e-6)
		})
	}
}

func TestFitSize_FillsViewport(t *testing.T) {
	fc := Outline(-30, -20, 50, 40)
	p := NaturalEarth1().FitSize(960, 600, fc)

	b, ok := ProjectedBounds(p, fc)
	require.True(t, ok)

	filledX := math.Abs(b.X.Lo) < 1e-6 && math.Abs(b.X.Hi-960) < 1e-6
	filledY := math.Abs(b.Y.Lo) < 1e-6 && math.Abs(b.Y.Hi-600) < 1e-6
	assert.True(t, filledX || filledY, "one axis spans the viewport: %v", b)
	assert.InDelta(t, 480, b.Center().X, 1e-6)
	assert.InDelta(t, 300, b.Center().Y, 1e-6)
}

func TestProjectedBounds_Empty(t *testing.T) {
	_, ok := ProjectedBounds(NaturalEarth1(), nil)
	assert.False(t, ok)

	_, ok = ProjectedBounds(NaturalEarth1(), geojson.NewFeatureCollection())
	assert.False(t, ok)

	_, ok = ProjectedBounds(Mercator(), geojson.NewFeatureCollection().Append(geojson.NewFeature(orb.Point{0, -90})))
	assert.False(t, ok, "pole does not project under Mercator")
}

func TestBuildRegion(t *testing.T) {
	for _, name := range RegionNames() {
		t.Run(name, func(t *testing.T) {
			r, err := BuildRegion(name, 960, 600, Basemaps{})
			require.NoError(t, err)
			assert.Equal(t, name, r.Name)
			assert.NotEmpty(t, r.Features.Features)
			assert.Nil(t, r.Plates)
			_, ok := ProjectedBounds(r.Projection, r.Features)
			assert.True(t, ok)
		})
	}

	assert.Len(t, RegionNames(), 6)

	_, err := BuildRegion("atlantis", 960, 600, Basemaps{})
	require.ErrorIs(t, err, ErrUnknownRegion)
}

func TestBuildRegion_MercatorCentersTarget(t *testing.T) {
	r, err := BuildRegion(RegionJapan, 960, 600, Basemaps{})
	require.NoError(t, err)

	pt, ok := r.Projection.Project(138, 38)
	require.True(t, ok)
	assert.InDelta(t, 480, pt.X, 1e-6)
	assert.InDelta(t, 250, pt.Y, 1e-6)
	assert.InDelta(t, 2000, r.Projection.Scale(), 1e-9)

	small, err := BuildRegion(RegionJapan, 400, 300, Basemaps{})
	require.NoError(t, err)
	pt, _ = small.Projection.Project(138, 38)
	assert.InDelta(t, 250, pt.Y, 1e-6, "translate does not follow the viewport")
}

func TestBuildRegion_PlatesSharedByEveryRegion(t *testing.T) {
	plates := geojson.NewFeatureCollection().Append(geojson.NewFeature(orb.LineString{{-170, 0}, {-160, 10}}))
	maps := Basemaps{Plates: plates}
	for _, name := range RegionNames() {
		r, err := BuildRegion(name, 960, 600, maps)
		require.NoError(t, err)
		assert.Same(t, plates, r.Plates, name)
	}

	r, err := BuildRegion(RegionWorld, 960, 600, Basemaps{Plates: geojson.NewFeatureCollection()})
	require.NoError(t, err)
	assert.Nil(t, r.Plates, "empty plate layer is dropped")
}

func TestBuildRegion_WorldIsShrunkAfterFit(t *testing.T) {
	maps := Basemaps{World: Outline(-180, -85, 180, 85)}
	fitted := NaturalEarth1().FitSize(960, 600, maps.World)

	r, err := BuildRegion(RegionWorld, 960, 600, maps)
	require.NoError(t, err)
	assert.InDelta(t, fitted.Scale()*0.85, r.Projection.Scale(), 1e-9)
}

func TestDecodeFeatures(t *testing.T) {
	tests := []struct {
		name     string
		doc      string
		features int
		wantErr  bool
	}{
		{
			name:     "feature collection",
			doc:      `{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Polygon","coordinates":[[[0,0],[1,0],[1,1],[0,0]]]}}]}`,
			features: 1,
		},
		{
			name:     "single feature",
			doc:      `{"type":"Feature","properties":{"name":"x"},"geometry":{"type":"Point","coordinates":[10,20]}}`,
			features: 1,
		},
		{
			name:     "bare geometry",
			doc:      `{"type":"MultiPolygon","coordinates":[[[[0,0],[1,0],[1,1],[0,0]]]]}`,
			features: 1,
		},
		{name: "empty collection", doc: `{"type":"FeatureCollection","features":[]}`, wantErr: true},
		{name: "missing type", doc: `{}`, wantErr: true},
		{name: "not json", doc: `topojson?`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc, err := DecodeFeatures(strings.NewReader(tt.doc))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Len(t, fc.Features, tt.features)
		})
	}
}

func TestEachPoint(t *testing.T) {
	fc, err := DecodeFeatures(strings.NewReader(`{"type":"GeometryCollection","geometries":[
		{"type":"LineString","coordinates":[[0,0],[1,1]]},
		{"type":"MultiLineString","coordinates":[[[2,2],[3,3]]]}
	]}`))
	require.NoError(t, err)

	var got []orb.Point
	EachPoint(fc.Features[0].Geometry, func(p orb.Point) { got = append(got, p) })
	assert.Equal(t, []orb.Point{{0, 0}, {1, 1}, {2, 2}, {3, 3}}, got)

	n := 0
	EachPoint(Outline(-10, -10, 10, 10).Features[0].Geometry, func(orb.Point) { n++ })
	assert.Equal(t, 4*37, n)
}

// box is a quantized topology: two delta-encoded arcs forming a square, and
// a second object that must be ignored.
const box = `{
	"type": "Topology",
	"transform": {"scale": [0.5, 0.5], "translate": [-10, -10]},
	"objects": {
		"land": {"type": "GeometryCollection", "geometries": [
			{"type": "Polygon", "arcs": [[0, 1]], "id": "box", "properties": {"name": "box"}},
			{"type": "LineString", "arcs": [-1]},
			{"type": null}
		]},
		"aaa": {"type": "Point", "coordinates": [0, 0]}
	},
	"arcs": [
		[[0, 0], [10, 0], [0, 10]],
		[[10, 10], [-10, 0], [0, -10]]
	]
}`

func TestDecodeFeatures_Topology(t *testing.T) {
	fc, err := DecodeFeatures(strings.NewReader(box))
	require.NoError(t, err)
	require.Len(t, fc.Features, 3, "first object only")

	square := fc.Features[0]
	assert.Equal(t, orb.Polygon{{{-10, -10}, {-5, -10}, {-5, -5}, {-10, -5}, {-10, -10}}}, square.Geometry)
	assert.Equal(t, "box", square.ID)
	assert.Equal(t, "box", square.Properties["name"])

	assert.Equal(t, orb.LineString{{-5, -5}, {-5, -10}, {-10, -10}}, fc.Features[1].Geometry, "reversed arc")
	assert.Nil(t, fc.Features[2].Geometry)

	b, ok := ProjectedBounds(NaturalEarth1(), fc)
	require.True(t, ok)
	assert.Greater(t, b.Size().X, 0.0)
}

func TestDecodeFeatures_TopologyErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"no objects", `{"type":"Topology","objects":{},"arcs":[]}`},
		{"arc out of range", `{"type":"Topology","objects":{"a":{"type":"LineString","arcs":[3]}},"arcs":[[[0,0],[1,1]]]}`},
		{"unknown geometry", `{"type":"Topology","objects":{"a":{"type":"Curve"}},"arcs":[]}`},
		{"short position", `{"type":"Topology","objects":{"a":{"type":"LineString","arcs":[0]}},"arcs":[[[0]]]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFeatures(strings.NewReader(tt.doc))
			require.Error(t, err)
		})
	}

	pt, err := DecodeFeatures(strings.NewReader(`{"type":"Topology","objects":{"p":{"type":"Point","coordinates":[12.5,-3]}},"arcs":[]}`))
	require.NoError(t, err)
	assert.Equal(t, orb.Point{12.5, -3}, pt.Features[0].Geometry, "unquantized")
}
