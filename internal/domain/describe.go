package domain

import (
	"github.com/golang/geo/s1"
	"github.com/golang/geo/s2"
)

// EarthRadiusKm is the mean Earth radius used to turn arc angles into
// distances.
const EarthRadiusKm = 6371.0088

// Description is the read-only view of an event handed to tooltip and detail
// panel renderers.
type Description struct {
	Event
	Rings             []Ring   `json:"rings"`
	DisplayRadius     float64  `json:"display_radius"`
	StationDistanceKm *float64 `json:"station_distance_km,omitempty"`
	Bucket            string   `json:"bucket,omitempty"`
}

// Describe builds the description of e. displayRadius is the radius of the
// outermost ring as currently drawn, after zoom compensation.
func Describe(e Event, rings []Ring, displayRadius float64) Description {
	d := Description{Event: e, Rings: rings, DisplayRadius: displayRadius}
	if e.StationDistance != nil {
		km := arcToKm(s1.Angle(*e.StationDistance) * s1.Degree)
		d.StationDistanceKm = &km
	}
	return d
}

// GreatCircleKm returns the surface distance between two coordinates.
func GreatCircleKm(a, b Geo) float64 {
	p1 := s2.LatLngFromDegrees(a.Lat, a.Lon)
	p2 := s2.LatLngFromDegrees(b.Lat, b.Lon)
	return arcToKm(p1.Distance(p2))
}

func arcToKm(a s1.Angle) float64 {
	return a.Radians() * EarthRadiusKm
}
