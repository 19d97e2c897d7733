package catalog

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/paulmach/orb/geojson"

	"github.com/couchcryptid/quake-map-explorer/internal/geo"
)

// LoadFeatures reads a GeoJSON or TopoJSON boundary file.
func LoadFeatures(path string) (*geojson.FeatureCollection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open basemap: %w", err)
	}
	defer f.Close()
	fc, err := geo.DecodeFeatures(f)
	if err != nil {
		return nil, fmt.Errorf("basemap %s: %w", path, err)
	}
	return fc, nil
}

// LoadBasemaps reads the world and North America boundaries. An empty path
// leaves that basemap empty, so its regions fall back to an outline.
func LoadBasemaps(worldPath, naPath string) (geo.Basemaps, error) {
	var maps geo.Basemaps
	var err error
	if worldPath != "" {
		if maps.World, err = LoadFeatures(worldPath); err != nil {
			return geo.Basemaps{}, err
		}
	}
	if naPath != "" {
		if maps.NorthAmerica, err = LoadFeatures(naPath); err != nil {
			return geo.Basemaps{}, err
		}
	}
	return maps, nil
}

// LoadPlates reads the tectonic plate boundary layer. The layer is
// decorative: a missing or unreadable file is logged and yields nil.
func LoadPlates(path string, logger *slog.Logger) *geojson.FeatureCollection {
	if path == "" {
		return nil
	}
	fc, err := LoadFeatures(path)
	if err != nil {
		logger.Warn("plate boundaries unavailable, drawing without them", "path", path, "error", err)
		return nil
	}
	logger.Info("plate boundaries loaded", "path", path, "features", len(fc.Features))
	return fc
}
