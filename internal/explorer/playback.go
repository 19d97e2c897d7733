package explorer

import (
	"time"

	"github.com/couchcryptid/quake-map-explorer/internal/domain"
)

// PlaybackInterval is how long each bucket stays on screen during playback.
const PlaybackInterval = 900 * time.Millisecond

const playbackOwner = "playback"

// Play steps through the buckets, wrapping after the last one. Playback
// starts at the first bucket when all times are shown.
func (e *Explorer) Play() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.playing || len(e.timeline.Buckets) == 0 || e.tour.Running() {
		return
	}
	e.playing = true
	if e.timeline.Index == domain.AllBuckets {
		e.timeline.Select(0)
		e.refresh()
	}

	last := e.sched.Now()
	e.sched.Every(playbackOwner, func(now time.Time) bool {
		if now.Sub(last) < PlaybackInterval {
			return true
		}
		last = now
		e.timeline.Next()
		e.refresh()
		return true
	})
}

// Pause stops playback on the current bucket.
func (e *Explorer) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopPlayback()
}

// Next shows the following bucket, wrapping to the first.
func (e *Explorer) Next() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopPlayback()
	e.timeline.Next()
	e.refresh()
}

// Prev shows the preceding bucket, stopping at the first.
func (e *Explorer) Prev() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopPlayback()
	e.timeline.Prev()
	e.refresh()
}

// ShowAll removes the time restriction.
func (e *Explorer) ShowAll() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopPlayback()
	e.timeline.Select(domain.AllBuckets)
	e.refresh()
}

// Playing reports whether playback is running.
func (e *Explorer) Playing() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playing
}

func (e *Explorer) stopPlayback() {
	e.sched.CancelOwner(playbackOwner)
	e.playing = false
}
