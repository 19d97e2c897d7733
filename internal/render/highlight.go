package render

import (
	"math"
	"time"

	"github.com/golang/geo/r2"
)

// PulsePeriod is the length of one highlight pulse.
const PulsePeriod = 1200 * time.Millisecond

// pulseGrowth is how far the disc swells at the peak of a pulse.
const pulseGrowth = 0.6

// Highlight is the pulsing disc drawn above the symbol layer to mark the
// event a tour step landed on.
type Highlight struct {
	ID         string  `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	BaseRadius float64 `json:"base_radius"`
	Radius     float64 `json:"radius"`
	Opacity    float64 `json:"opacity"`

	factor float64
	phase  float64
}

func (h *Highlight) compensate(factor float64) {
	h.factor = factor
	h.Radius = h.BaseRadius * factor * (1 + pulseGrowth*h.phase)
}

func (h *Highlight) setPhase(phase float64) {
	h.phase = phase
	h.Opacity = 0.9 - 0.5*phase
	h.compensate(h.factor)
}

// ShowHighlight replaces the overlay with a disc at p and starts its pulse.
// The pulse task is scheduled under owner so the caller can cancel it with
// its own work.
func (s *Scene) ShowHighlight(owner, id string, p r2.Point, baseRadius float64) {
	s.ClearHighlight()
	h := &Highlight{ID: id, X: p.X, Y: p.Y, BaseRadius: baseRadius, factor: s.factor}
	h.setPhase(0)
	s.highlight = h

	start := s.sched.Now()
	s.pulse = s.sched.Every(owner, func(now time.Time) bool {
		if s.highlight != h {
			return false
		}
		cycle := float64(now.Sub(start)) / float64(PulsePeriod)
		h.setPhase(math.Abs(math.Sin(math.Pi * cycle)))
		return true
	})
}

// ClearHighlight removes the overlay and stops its pulse.
func (s *Scene) ClearHighlight() {
	if s.pulse != 0 {
		s.sched.Cancel(s.pulse)
		s.pulse = 0
	}
	s.highlight = nil
}

// Highlighted returns the overlay, if one is shown.
func (s *Scene) Highlighted() (Highlight, bool) {
	if s.highlight == nil {
		return Highlight{}, false
	}
	return *s.highlight, true
}
