package tour

import "time"

// FlightDuration is how long the camera takes to reach each stop.
const FlightDuration = 1800 * time.Millisecond

// DefaultDwell is how long each stop stays on screen.
const DefaultDwell = 8 * time.Second

// Step is one stop of the tour.
type Step struct {
	Lon     float64       `json:"lon"`
	Lat     float64       `json:"lat"`
	Zoom    float64       `json:"zoom"`
	Dwell   time.Duration `json:"dwell"`
	Caption string        `json:"caption"`
	// Year narrows the nearest-event search when the catalog has events in
	// that year. Zero searches every year.
	Year int `json:"year,omitempty"`
}

// DefaultScript visits the great subduction earthquakes of the catalog period.
var DefaultScript = []Step{
	{
		Lon: 95.98, Lat: 3.30, Zoom: 5, Dwell: DefaultDwell, Year: 2004,
		Caption: "Sumatra–Andaman, December 2004: the megathrust rupture whose tsunami reached across the Indian Ocean.",
	},
	{
		Lon: 142.37, Lat: 38.30, Zoom: 6, Dwell: DefaultDwell, Year: 2011,
		Caption: "Tōhoku, March 2011: the Japan Trench slipped tens of metres and the tsunami overtopped coastal defences.",
	},
	{
		Lon: -72.73, Lat: -35.85, Zoom: 5, Dwell: DefaultDwell, Year: 2010,
		Caption: "Maule, February 2010: the Nazca plate lurched beneath central Chile.",
	},
	{
		Lon: 84.73, Lat: 28.23, Zoom: 6, Dwell: DefaultDwell, Year: 2015,
		Caption: "Gorkha, April 2015: a continental collision quake felt across Nepal and northern India.",
	},
	{
		Lon: 173.05, Lat: -42.74, Zoom: 6, Dwell: DefaultDwell, Year: 2016,
		Caption: "Kaikōura, November 2016: more than twenty faults ruptured together.",
	},
	{
		Lon: 119.84, Lat: -0.26, Zoom: 6, Dwell: DefaultDwell, Year: 2018,
		Caption: "Palu, September 2018: a strike-slip rupture with a surprising tsunami inside Palu Bay.",
	},
}
