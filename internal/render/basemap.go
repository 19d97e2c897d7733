package render

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/quake-map-explorer/internal/geo"
)

// Basemap layer names.
const (
	LayerPlates = "plates"
	LayerLand   = "land"
)

// LayerStyle is how a client strokes and fills a layer.
type LayerStyle struct {
	Fill          string  `json:"fill"`
	Stroke        string  `json:"stroke"`
	StrokeWidth   float64 `json:"stroke_width"`
	StrokeOpacity float64 `json:"stroke_opacity"`
}

var (
	plateStyle = LayerStyle{Fill: "none", Stroke: "#6b7280", StrokeWidth: 0.6, StrokeOpacity: 0.25}
	landStyle  = LayerStyle{Fill: "#e5e7eb", Stroke: "#1e2a4c", StrokeWidth: 0.5, StrokeOpacity: 1}
)

// Layer is one basemap layer projected onto the plane. Each path is a
// polyline in plane coordinates; a position that does not project splits
// the line it belongs to.
type Layer struct {
	Name     string         `json:"name"`
	Style    LayerStyle     `json:"style"`
	Features int            `json:"features"`
	Paths    [][][2]float64 `json:"paths"`
}

// Basemap is the layer stack drawn under the symbols, bottom first. Plate
// boundaries sit under the land.
type Basemap struct {
	Region string  `json:"region"`
	Layers []Layer `json:"layers"`
}

// LayerSummary counts what a region's basemap holds without its geometry.
type LayerSummary struct {
	Land   int `json:"land"`
	Plates int `json:"plates"`
}

// Summarize counts the features of each layer of r.
func Summarize(r geo.Region) LayerSummary {
	var s LayerSummary
	if !geo.Empty(r.Features) {
		s.Land = len(r.Features.Features)
	}
	if !geo.Empty(r.Plates) {
		s.Plates = len(r.Plates.Features)
	}
	return s
}

// ProjectBasemap projects the plate and land layers of r.
func ProjectBasemap(r geo.Region) Basemap {
	b := Basemap{Region: r.Name}
	if !geo.Empty(r.Plates) {
		b.Layers = append(b.Layers, projectLayer(LayerPlates, plateStyle, r.Projection, r.Plates))
	}
	b.Layers = append(b.Layers, projectLayer(LayerLand, landStyle, r.Projection, r.Features))
	return b
}

func projectLayer(name string, style LayerStyle, p *geo.Projection, fc *geojson.FeatureCollection) Layer {
	l := Layer{Name: name, Style: style, Paths: [][][2]float64{}}
	if fc == nil {
		return l
	}
	l.Features = len(fc.Features)
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		eachLine(f.Geometry, func(line []orb.Point) {
			var path [][2]float64
			for _, pos := range line {
				pt, ok := p.Project(pos.Lon(), pos.Lat())
				if !ok {
					l.Paths = appendPath(l.Paths, path)
					path = nil
					continue
				}
				path = append(path, [2]float64{pt.X, pt.Y})
			}
			l.Paths = appendPath(l.Paths, path)
		})
	}
	return l
}

func appendPath(paths [][][2]float64, path [][2]float64) [][][2]float64 {
	if len(path) < 2 {
		return paths
	}
	return append(paths, path)
}

// eachLine calls fn for every line and ring of g. Points draw no path.
func eachLine(g orb.Geometry, fn func([]orb.Point)) {
	switch g := g.(type) {
	case orb.LineString:
		fn(g)
	case orb.Ring:
		fn(g)
	case orb.MultiLineString:
		for _, ls := range g {
			fn(ls)
		}
	case orb.Polygon:
		for _, r := range g {
			fn(r)
		}
	case orb.MultiPolygon:
		for _, poly := range g {
			eachLine(poly, fn)
		}
	case orb.Collection:
		for _, child := range g {
			eachLine(child, fn)
		}
	case orb.Bound:
		fn(g.ToRing())
	}
}
