package anim

import (
	"math"
	"time"
)

// Ease maps linear progress in [0,1] to eased progress.
type Ease func(t float64) float64

// Linear leaves progress unchanged.
func Linear(t float64) float64 { return t }

// CubicInOut is the default easing of d3 transitions.
func CubicInOut(t float64) float64 {
	t *= 2
	if t <= 1 {
		return t * t * t / 2
	}
	t -= 2
	return (t*t*t + 2) / 2
}

// SinInOut eases with a half cosine.
func SinInOut(t float64) float64 {
	return (1 - math.Cos(math.Pi*t)) / 2
}

// Tween interpolates over d starting at the next frame, calling step with the
// eased progress each frame and done once progress reaches 1. A zero or
// negative duration completes on the first frame.
func (s *Scheduler) Tween(owner string, d time.Duration, ease Ease, step func(t float64), done func()) Handle {
	if ease == nil {
		ease = Linear
	}
	start := s.clock.Now()
	return s.Every(owner, func(now time.Time) bool {
		p := 1.0
		if d > 0 {
			p = float64(now.Sub(start)) / float64(d)
		}
		p = math.Max(0, math.Min(1, p))
		step(ease(p))
		if p >= 1 {
			if done != nil {
				done()
			}
			return false
		}
		return true
	})
}

// Lerp interpolates linearly between a and b.
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
