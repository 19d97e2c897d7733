package domain

// Nearest finds the event closest to (lon, lat). When year is non-nil and at
// least one event falls in that year, the search is restricted to that year.
// Distance is squared Euclidean in degree space; targets and candidates are
// close enough that the geodesic difference does not change the winner.
//
// With no events at all, Nearest returns a placeholder located at the target
// and ok=false.
func Nearest(events []Event, lon, lat float64, year *int) (Event, bool) {
	candidates := events
	if year != nil {
		var inYear []Event
		for _, e := range events {
			if e.TimeKey.Year != nil && *e.TimeKey.Year == *year {
				inYear = append(inYear, e)
			}
		}
		if len(inYear) > 0 {
			candidates = inYear
		}
	}

	best := -1
	bestDist := 0.0
	for i, e := range candidates {
		dx := e.Geo.Lon - lon
		dy := e.Geo.Lat - lat
		d := dx*dx + dy*dy
		if best < 0 || d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return Placeholder(lon, lat), false
	}
	return candidates[best], true
}

// Placeholder is a synthetic event standing in for a missing match.
func Placeholder(lon, lat float64) Event {
	return Event{ID: "placeholder", Geo: Geo{Lat: lat, Lon: lon}}
}
