// Package tour flies the camera through a scripted sequence of stops,
// highlighting the catalog event nearest each one.
//
// The coordinator is a per-frame state machine driven by one scheduler task
// registered under Owner. Pausing freezes the task's clock, skipping ends the
// current dwell, and ending or aborting cancels everything registered under
// Owner before returning.
package tour

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/golang/geo/r2"

	"github.com/couchcryptid/quake-map-explorer/internal/anim"
	"github.com/couchcryptid/quake-map-explorer/internal/domain"
	"github.com/couchcryptid/quake-map-explorer/internal/viewport"
)

// Owner tags every scheduler task the tour creates.
const Owner = "tour"

// placeholderRadius sizes the highlight when no event matched a stop.
const placeholderRadius = 12.0

// State is the coordinator's lifecycle stage.
type State string

const (
	StateIdle    State = "idle"
	StateRunning State = "running"
	StatePaused  State = "paused"
	StateEnding  State = "ending"
)

type phase int

const (
	phaseFlying phase = iota
	phaseDwelling
)

// Viewport is the camera the tour moves.
type Viewport interface {
	FlyTo(lon, lat, k float64, d time.Duration, done func()) (anim.Handle, error)
	Reset() anim.Handle
	Project(lon, lat float64) (r2.Point, bool)
}

// Overlay draws the highlight disc.
type Overlay interface {
	ShowHighlight(owner, id string, p r2.Point, baseRadius float64)
	ClearHighlight()
}

// Baseline gives the tour a known view to run against.
type Baseline interface {
	// ApplyBaseline switches to all times and composite display.
	ApplyBaseline()
	// Events returns the catalog the stops are matched against.
	Events() []domain.Event
	// BaseRadius sizes the highlight for e.
	BaseRadius(e domain.Event) float64
}

// Flags is the session state shared with the UI controls.
type Flags struct {
	Running       bool `json:"running"`
	Paused        bool `json:"paused"`
	EndRequested  bool `json:"end_requested"`
	SkipRequested bool `json:"skip_requested"`
	StepIndex     int  `json:"step_index"`
}

// Status is what the caption panel shows.
type Status struct {
	State    State   `json:"state"`
	Flags    Flags   `json:"flags"`
	Steps    int     `json:"steps"`
	Progress float64 `json:"progress"` // percent of the current dwell
	Caption  string  `json:"caption,omitempty"`
	EventID  string  `json:"event_id,omitempty"`
	Matched  bool    `json:"matched"`
	// OffsetKm is the surface distance from the stop's target to the
	// highlighted event; zero for a placeholder.
	OffsetKm float64 `json:"offset_km"`
}

// Hooks observe the tour, typically for metrics.
type Hooks struct {
	OnStep  func(index int)
	OnAbort func(err error)
}

// Coordinator runs one tour at a time.
type Coordinator struct {
	sched    *anim.Scheduler
	view     Viewport
	overlay  Overlay
	baseline Baseline
	script   []Step
	logger   *slog.Logger
	hooks    Hooks
	observer func(Status)

	state    State
	flags    Flags
	phase    phase
	elapsed  time.Duration
	lastTick time.Time
	gen      int

	progress float64
	caption  string
	eventID  string
	matched  bool
	offsetKm float64
}

// NewCoordinator creates an idle coordinator. A nil script uses
// DefaultScript.
func NewCoordinator(sched *anim.Scheduler, view Viewport, overlay Overlay, baseline Baseline, script []Step, logger *slog.Logger) *Coordinator {
	if script == nil {
		script = DefaultScript
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		sched:    sched,
		view:     view,
		overlay:  overlay,
		baseline: baseline,
		script:   script,
		logger:   logger,
		state:    StateIdle,
	}
}

// SetHooks installs metric hooks.
func (c *Coordinator) SetHooks(h Hooks) { c.hooks = h }

// Observe registers fn to receive every status change.
func (c *Coordinator) Observe(fn func(Status)) { c.observer = fn }

// Status returns the current status.
func (c *Coordinator) Status() Status {
	return Status{
		State:    c.state,
		Flags:    c.flags,
		Steps:    len(c.script),
		Progress: c.progress * 100,
		Caption:  c.caption,
		EventID:  c.eventID,
		Matched:  c.matched,
		OffsetKm: c.offsetKm,
	}
}

// Running reports whether a tour is in progress, paused or not.
func (c *Coordinator) Running() bool { return c.flags.Running }

// Start begins the tour from the first stop. Starting a running tour is a
// no-op.
func (c *Coordinator) Start() {
	if c.flags.Running {
		return
	}
	c.gen++
	c.baseline.ApplyBaseline()
	c.state = StateRunning
	c.flags = Flags{Running: true}
	c.lastTick = c.sched.Now()
	c.logger.Info("tour started", "steps", len(c.script))

	if len(c.script) == 0 {
		c.End()
		return
	}

	gen := c.gen
	c.sched.Every(Owner, func(now time.Time) bool { return c.tick(gen, now) })
	if err := c.beginStep(0); err != nil {
		c.Abort(err)
	}
}

// Pause freezes the tour clock. The flight in progress, if any, lands.
func (c *Coordinator) Pause() {
	if !c.flags.Running || c.flags.Paused {
		return
	}
	c.flags.Paused = true
	c.state = StatePaused
	c.notify()
}

// Resume restarts the tour clock where it stopped.
func (c *Coordinator) Resume() {
	if !c.flags.Running || !c.flags.Paused {
		return
	}
	c.flags.Paused = false
	c.state = StateRunning
	c.lastTick = c.sched.Now()
	c.notify()
}

// Skip ends the current dwell. A skip requested during a flight takes effect
// as soon as the camera lands. Skipping while paused also resumes.
func (c *Coordinator) Skip() {
	if !c.flags.Running {
		return
	}
	c.flags.SkipRequested = true
	c.Resume()
}

// End stops the tour immediately: every tour task is cancelled, the
// highlight is cleared, progress returns to zero and the camera resets.
func (c *Coordinator) End() {
	if c.state == StateIdle || c.state == StateEnding {
		return
	}
	c.flags.EndRequested = true
	c.unwind()
	c.logger.Info("tour ended")
}

// Abort ends the tour because a step failed.
func (c *Coordinator) Abort(err error) {
	if c.state == StateIdle || c.state == StateEnding {
		return
	}
	c.logger.Error("tour aborted", "step", c.flags.StepIndex, "error", err)
	if c.hooks.OnAbort != nil {
		c.hooks.OnAbort(err)
	}
	c.flags.EndRequested = true
	c.unwind()
}

// HandlePanic aborts a running tour when any animation task panics,
// whatever its owner. Camera flights run under the viewport's owner.
func (c *Coordinator) HandlePanic(owner string, err error) {
	if c.state == StateIdle || c.state == StateEnding {
		return
	}
	c.logger.Warn("animation task panicked during tour", "owner", owner)
	c.Abort(err)
}

func (c *Coordinator) unwind() {
	c.state = StateEnding
	c.gen++
	c.sched.CancelOwner(Owner)
	c.overlay.ClearHighlight()
	c.progress = 0
	c.caption = ""
	c.eventID = ""
	c.matched = false
	c.offsetKm = 0
	c.view.Reset()
	c.flags = Flags{}
	c.state = StateIdle
	c.notify()
}

func (c *Coordinator) beginStep(i int) error {
	c.flags.StepIndex = i
	c.phase = phaseFlying
	c.elapsed = 0
	c.progress = 0
	c.overlay.ClearHighlight()

	s := c.script[i]
	if _, err := c.view.FlyTo(s.Lon, s.Lat, s.Zoom, FlightDuration, nil); err != nil {
		return fmt.Errorf("tour step %d: %w", i, err)
	}
	if c.hooks.OnStep != nil {
		c.hooks.OnStep(i)
	}
	c.logger.Debug("tour step", "step", i, "lon", s.Lon, "lat", s.Lat)
	c.notify()
	return nil
}

// tick advances the tour by the time since the previous frame. It returns
// false once the tour it was started for is over.
func (c *Coordinator) tick(gen int, now time.Time) bool {
	if gen != c.gen {
		return false
	}
	dt := now.Sub(c.lastTick)
	c.lastTick = now
	if c.flags.Paused {
		return true
	}

	switch c.phase {
	case phaseFlying:
		c.elapsed += dt
		if c.elapsed < FlightDuration {
			return true
		}
		if err := c.land(); err != nil {
			c.Abort(err)
			return false
		}
	case phaseDwelling:
		s := c.script[c.flags.StepIndex]
		if c.flags.SkipRequested {
			c.flags.SkipRequested = false
			c.elapsed = s.Dwell
		} else {
			c.elapsed += dt
		}
		if s.Dwell > 0 {
			c.progress = min(1, float64(c.elapsed)/float64(s.Dwell))
		} else {
			c.progress = 1
		}
		c.notify()
		if gen != c.gen {
			return false
		}
		if c.elapsed >= s.Dwell {
			return c.advance(gen)
		}
	}
	return gen == c.gen
}

func (c *Coordinator) land() error {
	s := c.script[c.flags.StepIndex]
	var year *int
	if s.Year != 0 {
		year = domain.Int(s.Year)
	}
	e, ok := domain.Nearest(c.baseline.Events(), s.Lon, s.Lat, year)
	radius := placeholderRadius
	if ok {
		radius = c.baseline.BaseRadius(e)
	}
	p, projected := c.view.Project(e.Geo.Lon, e.Geo.Lat)
	if !projected {
		return fmt.Errorf("tour step %d: event %s: %w", c.flags.StepIndex, e.ID, viewport.ErrNoProjection)
	}

	c.overlay.ShowHighlight(Owner, e.ID, p, radius)
	c.caption = s.Caption
	c.eventID = e.ID
	c.matched = ok
	c.offsetKm = domain.GreatCircleKm(domain.Geo{Lat: s.Lat, Lon: s.Lon}, e.Geo)
	c.phase = phaseDwelling
	c.elapsed = 0
	c.progress = 0
	c.notify()
	return nil
}

func (c *Coordinator) advance(gen int) bool {
	next := c.flags.StepIndex + 1
	if next >= len(c.script) {
		c.End()
		return false
	}
	if err := c.beginStep(next); err != nil {
		c.Abort(err)
		return false
	}
	return gen == c.gen
}

func (c *Coordinator) notify() {
	if c.observer != nil {
		c.observer(c.Status())
	}
}
