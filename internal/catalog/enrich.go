package catalog

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/quake-map-explorer/internal/domain"
)

// EnrichPlaces fills empty place names by reverse geocoding the epicentre.
// A nil geocoder is a no-op. Failures are logged and leave the place empty;
// the load continues. It returns the number of events that gained a place.
func EnrichPlaces(ctx context.Context, events []domain.Event, geocoder domain.Geocoder, logger *slog.Logger) int {
	if geocoder == nil {
		return 0
	}
	enriched := 0
	for i := range events {
		if ctx.Err() != nil {
			logger.Warn("place enrichment interrupted", "remaining", len(events)-i, "error", ctx.Err())
			break
		}
		e := &events[i]
		if e.Place != "" {
			continue
		}
		result, err := geocoder.ReverseGeocode(ctx, e.Geo.Lat, e.Geo.Lon)
		if err != nil {
			logger.Warn("reverse geocoding failed",
				"lat", e.Geo.Lat,
				"lon", e.Geo.Lon,
				"error", err,
			)
			continue
		}
		if result.FormattedAddress != "" {
			e.Place = result.FormattedAddress
			enriched++
		}
	}
	return enriched
}
