package geo

import (
	"errors"
	"fmt"
	"slices"

	"github.com/paulmach/orb/geojson"
)

// ErrUnknownRegion is returned for a region name that is not registered.
var ErrUnknownRegion = errors.New("unknown region")

// Region names.
const (
	RegionWorld        = "world"
	RegionNorthAmerica = "na"
	RegionIndonesia    = "indonesia"
	RegionJapan        = "japan"
	RegionAndes        = "andes"
	RegionNewZealand   = "nz"
)

// fitShrink leaves a margin around fitted basemaps.
const fitShrink = 0.85

// Mercator regions keep the projection's default translate rather than the
// viewport centre.
const mercatorTranslateX, mercatorTranslateY = 480, 250

// Basemaps holds the boundary features regions are drawn from. Empty land
// collections fall back to an outline of the region's extent. Plates is
// optional and shared by every region.
type Basemaps struct {
	World        *geojson.FeatureCollection
	NorthAmerica *geojson.FeatureCollection
	Plates       *geojson.FeatureCollection
}

// Region is a configured projection plus the boundaries it is drawn with.
// Plates is nil when no plate boundary layer was loaded.
type Region struct {
	Name       string
	Projection *Projection
	Features   *geojson.FeatureCollection
	Plates     *geojson.FeatureCollection
}

type regionBuilder func(width, height float64, maps Basemaps) Region

type mercatorView struct {
	lon, lat, scale float64
}

var mercatorRegions = map[string]mercatorView{
	RegionIndonesia:  {lon: 120, lat: -3, scale: 1450},
	RegionJapan:      {lon: 138, lat: 38, scale: 2000},
	RegionAndes:      {lon: -72, lat: -23, scale: 1650},
	RegionNewZealand: {lon: 172, lat: -41, scale: 2700},
}

var builders = map[string]regionBuilder{
	RegionWorld:        buildWorld,
	RegionNorthAmerica: buildNorthAmerica,
}

func init() {
	for name, v := range mercatorRegions {
		builders[name] = mercatorBuilder(name, v)
	}
}

// RegionNames lists the registered regions in a stable order.
func RegionNames() []string {
	names := make([]string, 0, len(builders))
	for name := range builders {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// BuildRegion configures the named region for a width×height viewport.
func BuildRegion(name string, width, height float64, maps Basemaps) (Region, error) {
	b, ok := builders[name]
	if !ok {
		return Region{}, fmt.Errorf("%w: %q", ErrUnknownRegion, name)
	}
	r := b(width, height, maps)
	if !Empty(maps.Plates) {
		r.Plates = maps.Plates
	}
	return r, nil
}

func buildWorld(width, height float64, maps Basemaps) Region {
	features := maps.World
	if Empty(features) {
		features = Outline(-180, -85, 180, 85)
	}
	p := NaturalEarth1().FitSize(width, height, features)
	p.WithScale(p.Scale() * fitShrink)
	return Region{Name: RegionWorld, Projection: p, Features: features}
}

func buildNorthAmerica(width, height float64, maps Basemaps) Region {
	features := maps.NorthAmerica
	if Empty(features) {
		features = Outline(-170, 10, -50, 75)
	}
	p := Albers(29.5, 45.5).WithRotate(98).WithCenter(0, 38).FitSize(width, height, features)
	p.WithScale(p.Scale() * fitShrink)
	return Region{Name: RegionNorthAmerica, Projection: p, Features: features}
}

func mercatorBuilder(name string, v mercatorView) regionBuilder {
	return func(_, _ float64, maps Basemaps) Region {
		features := maps.World
		if Empty(features) {
			features = Outline(-180, -85, 180, 85)
		}
		p := Mercator().
			WithCenter(v.lon, v.lat).
			WithScale(v.scale).
			WithTranslate(mercatorTranslateX, mercatorTranslateY)
		return Region{Name: name, Projection: p, Features: features}
	}
}
