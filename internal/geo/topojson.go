package geo

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

type topology struct {
	Transform *topoTransform  `json:"transform"`
	Objects   json.RawMessage `json:"objects"`
	Arcs      [][][]float64   `json:"arcs"`
}

// topoTransform dequantizes positions. When present, arc positions are
// delta-encoded integers.
type topoTransform struct {
	Scale     [2]float64 `json:"scale"`
	Translate [2]float64 `json:"translate"`
}

func (t *topoTransform) point(c []float64) orb.Point {
	if t == nil {
		return orb.Point{c[0], c[1]}
	}
	return orb.Point{c[0]*t.Scale[0] + t.Translate[0], c[1]*t.Scale[1] + t.Translate[1]}
}

type topoGeometry struct {
	Type        string          `json:"type"`
	ID          any             `json:"id"`
	Properties  map[string]any  `json:"properties"`
	Arcs        json.RawMessage `json:"arcs"`
	Coordinates json.RawMessage `json:"coordinates"`
	Geometries  []topoGeometry  `json:"geometries"`
}

// decodeTopology converts the first object of a topology into features. A
// GeometryCollection yields one feature per member.
func decodeTopology(raw []byte) (*geojson.FeatureCollection, error) {
	var t topology
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("decode topology: %w", err)
	}
	name, obj, err := firstObject(t.Objects)
	if err != nil {
		return nil, err
	}
	var root topoGeometry
	if err := json.Unmarshal(obj, &root); err != nil {
		return nil, fmt.Errorf("topology object %q: %w", name, err)
	}
	arcs, err := t.decodeArcs()
	if err != nil {
		return nil, err
	}

	members := []topoGeometry{root}
	if root.Type == "GeometryCollection" {
		members = root.Geometries
	}
	fc := geojson.NewFeatureCollection()
	for _, m := range members {
		g, err := m.geometry(arcs, t.Transform)
		if err != nil {
			return nil, fmt.Errorf("topology object %q: %w", name, err)
		}
		f := geojson.NewFeature(g)
		f.ID = m.ID
		for k, v := range m.Properties {
			f.Properties[k] = v
		}
		fc.Append(f)
	}
	return fc, nil
}

// firstObject returns the first member of the objects map in document order.
func firstObject(objects json.RawMessage) (string, json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(objects))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return "", nil, errors.New("decode topology: objects must be an object")
	}
	if !dec.More() {
		return "", nil, ErrNoFeatures
	}
	tok, err := dec.Token()
	if err != nil {
		return "", nil, fmt.Errorf("decode topology: %w", err)
	}
	name, _ := tok.(string)
	var obj json.RawMessage
	if err := dec.Decode(&obj); err != nil {
		return "", nil, fmt.Errorf("topology object %q: %w", name, err)
	}
	return name, obj, nil
}

func (t *topology) decodeArcs() ([]orb.LineString, error) {
	out := make([]orb.LineString, len(t.Arcs))
	for i, arc := range t.Arcs {
		ls := make(orb.LineString, 0, len(arc))
		var x, y float64
		for _, pos := range arc {
			if len(pos) < 2 {
				return nil, fmt.Errorf("arc %d: position has %d coordinates", i, len(pos))
			}
			if t.Transform == nil {
				ls = append(ls, orb.Point{pos[0], pos[1]})
				continue
			}
			x, y = x+pos[0], y+pos[1]
			ls = append(ls, t.Transform.point([]float64{x, y}))
		}
		out[i] = ls
	}
	return out, nil
}

// stitch joins arcs into one line. A negative index ^i is arc i reversed;
// consecutive arcs share their joining point.
func stitch(arcs []orb.LineString, ids []int) (orb.LineString, error) {
	var line orb.LineString
	for n, id := range ids {
		idx, reverse := id, id < 0
		if reverse {
			idx = ^id
		}
		if idx >= len(arcs) {
			return nil, fmt.Errorf("arc index %d out of range", id)
		}
		pts := slices.Clone(arcs[idx])
		if reverse {
			slices.Reverse(pts)
		}
		if n > 0 && len(pts) > 0 {
			pts = pts[1:]
		}
		line = append(line, pts...)
	}
	return line, nil
}

func stitchRings(arcs []orb.LineString, rings [][]int) (orb.Polygon, error) {
	poly := make(orb.Polygon, 0, len(rings))
	for _, ids := range rings {
		ls, err := stitch(arcs, ids)
		if err != nil {
			return nil, err
		}
		poly = append(poly, orb.Ring(ls))
	}
	return poly, nil
}

func (g topoGeometry) geometry(arcs []orb.LineString, tf *topoTransform) (orb.Geometry, error) {
	switch g.Type {
	case "":
		return nil, nil
	case "Point":
		var c []float64
		if err := json.Unmarshal(g.Coordinates, &c); err != nil || len(c) < 2 {
			return nil, fmt.Errorf("point: invalid coordinates")
		}
		return tf.point(c), nil
	case "MultiPoint":
		var cs [][]float64
		if err := json.Unmarshal(g.Coordinates, &cs); err != nil {
			return nil, fmt.Errorf("multipoint: %w", err)
		}
		mp := make(orb.MultiPoint, 0, len(cs))
		for _, c := range cs {
			if len(c) < 2 {
				return nil, fmt.Errorf("multipoint: invalid coordinates")
			}
			mp = append(mp, tf.point(c))
		}
		return mp, nil
	case "LineString":
		var ids []int
		if err := json.Unmarshal(g.Arcs, &ids); err != nil {
			return nil, fmt.Errorf("linestring: %w", err)
		}
		return stitch(arcs, ids)
	case "MultiLineString":
		var lines [][]int
		if err := json.Unmarshal(g.Arcs, &lines); err != nil {
			return nil, fmt.Errorf("multilinestring: %w", err)
		}
		mls := make(orb.MultiLineString, 0, len(lines))
		for _, ids := range lines {
			ls, err := stitch(arcs, ids)
			if err != nil {
				return nil, err
			}
			mls = append(mls, ls)
		}
		return mls, nil
	case "Polygon":
		var rings [][]int
		if err := json.Unmarshal(g.Arcs, &rings); err != nil {
			return nil, fmt.Errorf("polygon: %w", err)
		}
		return stitchRings(arcs, rings)
	case "MultiPolygon":
		var polys [][][]int
		if err := json.Unmarshal(g.Arcs, &polys); err != nil {
			return nil, fmt.Errorf("multipolygon: %w", err)
		}
		mp := make(orb.MultiPolygon, 0, len(polys))
		for _, rings := range polys {
			poly, err := stitchRings(arcs, rings)
			if err != nil {
				return nil, err
			}
			mp = append(mp, poly)
		}
		return mp, nil
	case "GeometryCollection":
		c := make(orb.Collection, 0, len(g.Geometries))
		for _, child := range g.Geometries {
			cg, err := child.geometry(arcs, tf)
			if err != nil {
				return nil, err
			}
			if cg != nil {
				c = append(c, cg)
			}
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}
}
