package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/golang/geo/r2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// ErrNoFeatures is returned when a basemap document holds no usable geometry.
var ErrNoFeatures = errors.New("basemap has no features")

// DecodeFeatures reads a GeoJSON FeatureCollection, Feature or bare geometry,
// or a TopoJSON topology, and normalizes it into a FeatureCollection.
func DecodeFeatures(r io.Reader) (*geojson.FeatureCollection, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read basemap: %w", err)
	}
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("decode basemap: %w", err)
	}

	var fc *geojson.FeatureCollection
	switch probe.Type {
	case "FeatureCollection":
		if fc, err = geojson.UnmarshalFeatureCollection(raw); err != nil {
			return nil, fmt.Errorf("decode feature collection: %w", err)
		}
	case "Feature":
		f, err := geojson.UnmarshalFeature(raw)
		if err != nil {
			return nil, fmt.Errorf("decode feature: %w", err)
		}
		fc = geojson.NewFeatureCollection().Append(f)
	case "Topology":
		if fc, err = decodeTopology(raw); err != nil {
			return nil, err
		}
	case "":
		return nil, errors.New("decode basemap: missing type")
	default:
		g, err := geojson.UnmarshalGeometry(raw)
		if err != nil {
			return nil, fmt.Errorf("decode geometry: %w", err)
		}
		fc = geojson.NewFeatureCollection().Append(geojson.NewFeature(g.Geometry()))
	}

	if len(fc.Features) == 0 {
		return nil, ErrNoFeatures
	}
	return fc, nil
}

// Empty reports whether fc has nothing to draw.
func Empty(fc *geojson.FeatureCollection) bool {
	return fc == nil || len(fc.Features) == 0
}

// EachPoint calls fn for every position of g, descending into multi
// geometries and collections.
func EachPoint(g orb.Geometry, fn func(orb.Point)) {
	switch g := g.(type) {
	case orb.Point:
		fn(g)
	case orb.MultiPoint:
		for _, p := range g {
			fn(p)
		}
	case orb.LineString:
		for _, p := range g {
			fn(p)
		}
	case orb.Ring:
		for _, p := range g {
			fn(p)
		}
	case orb.MultiLineString:
		for _, ls := range g {
			EachPoint(ls, fn)
		}
	case orb.Polygon:
		for _, r := range g {
			EachPoint(r, fn)
		}
	case orb.MultiPolygon:
		for _, poly := range g {
			EachPoint(poly, fn)
		}
	case orb.Collection:
		for _, child := range g {
			EachPoint(child, fn)
		}
	case orb.Bound:
		EachPoint(g.ToRing(), fn)
	}
}

// ProjectedBounds is the plane bounding box of every projectable position in
// fc. ok is false when nothing projects to a finite point.
func ProjectedBounds(p *Projection, fc *geojson.FeatureCollection) (r2.Rect, bool) {
	b := r2.EmptyRect()
	if fc == nil {
		return b, false
	}
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		EachPoint(f.Geometry, func(pos orb.Point) {
			if pt, ok := p.Project(pos.Lon(), pos.Lat()); ok {
				b = b.AddPoint(pt)
			}
		})
	}
	if b.IsEmpty() {
		return b, false
	}
	return b, true
}

// Outline is a rectangle feature spanning the given degrees, used as the
// basemap when no boundary file is configured.
func Outline(west, south, east, north float64) *geojson.FeatureCollection {
	const steps = 36
	ring := make(orb.Ring, 0, 4*(steps+1))
	for i := 0; i <= steps; i++ {
		ring = append(ring, orb.Point{west + (east-west)*float64(i)/steps, south})
	}
	for i := 0; i <= steps; i++ {
		ring = append(ring, orb.Point{east, south + (north-south)*float64(i)/steps})
	}
	for i := steps; i >= 0; i-- {
		ring = append(ring, orb.Point{west + (east-west)*float64(i)/steps, north})
	}
	for i := steps; i >= 0; i-- {
		ring = append(ring, orb.Point{west, south + (north-south)*float64(i)/steps})
	}
	return geojson.NewFeatureCollection().Append(geojson.NewFeature(orb.Polygon{ring}))
}
