package tour

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang/geo/r2"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-map-explorer/internal/anim"
	"github.com/couchcryptid/quake-map-explorer/internal/domain"
	"github.com/couchcryptid/quake-map-explorer/internal/render"
	"github.com/couchcryptid/quake-map-explorer/internal/viewport"
)

type fakeView struct {
	flights   []r2.Point
	resets    int
	failFly   bool
	noProject bool
}

func (v *fakeView) FlyTo(lon, lat, _ float64, _ time.Duration, _ func()) (anim.Handle, error) {
	if v.failFly {
		return 0, fmt.Errorf("fly: %w", viewport.ErrNoProjection)
	}
	v.flights = append(v.flights, r2.Point{X: lon, Y: lat})
	return 1, nil
}

func (v *fakeView) Reset() anim.Handle {
	v.resets++
	return 1
}

func (v *fakeView) Project(lon, lat float64) (r2.Point, bool) {
	return r2.Point{X: lon, Y: -lat}, !v.noProject
}

type fakeBaseline struct {
	applied int
	events  []domain.Event
	panics  bool
}

func (b *fakeBaseline) ApplyBaseline() { b.applied++ }

func (b *fakeBaseline) Events() []domain.Event {
	if b.panics {
		panic("catalog unavailable")
	}
	return b.events
}

func (b *fakeBaseline) BaseRadius(domain.Event) float64 { return 9 }

type harness struct {
	clock    *clockwork.FakeClock
	sched    *anim.Scheduler
	scene    *render.Scene
	view     *fakeView
	baseline *fakeBaseline
	coord    *Coordinator
	statuses []Status
	aborts   []error
	steps    []int
}

var testScript = []Step{
	{Lon: 95.98, Lat: 3.30, Zoom: 5, Dwell: 8 * time.Second, Caption: "first", Year: 2004},
	{Lon: 142.37, Lat: 38.30, Zoom: 6, Dwell: 8 * time.Second, Caption: "second", Year: 2011},
	{Lon: -72.73, Lat: -35.85, Zoom: 5, Dwell: 4 * time.Second, Caption: "third"},
}

func newHarness(t *testing.T, events []domain.Event) *harness {
	t.Helper()
	clock := clockwork.NewFakeClock()
	sched := anim.NewScheduler(clock)
	h := &harness{
		clock:    clock,
		sched:    sched,
		scene:    render.NewScene(sched),
		view:     &fakeView{},
		baseline: &fakeBaseline{events: events},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h.coord = NewCoordinator(sched, h.view, h.scene, h.baseline, testScript, logger)
	h.coord.Observe(func(s Status) { h.statuses = append(h.statuses, s) })
	h.coord.SetHooks(Hooks{
		OnStep:  func(i int) { h.steps = append(h.steps, i) },
		OnAbort: func(err error) { h.aborts = append(h.aborts, err) },
	})
	sched.OnPanic(h.coord.HandlePanic)
	return h
}

func (h *harness) step(d time.Duration) {
	h.clock.Advance(d)
	h.sched.Frame(h.clock.Now())
}

func catalog() []domain.Event {
	return []domain.Event{
		{ID: "sumatra", Geo: domain.Geo{Lat: 3.295, Lon: 95.982}, TimeKey: domain.TimeKey{Year: domain.Int(2004)}},
		{ID: "tohoku", Geo: domain.Geo{Lat: 38.297, Lon: 142.373}, TimeKey: domain.TimeKey{Year: domain.Int(2011)}},
		{ID: "maule", Geo: domain.Geo{Lat: -36.122, Lon: -72.898}, TimeKey: domain.TimeKey{Year: domain.Int(2010)}},
	}
}

func (h *harness) assertIdle(t *testing.T) {
	t.Helper()
	st := h.coord.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Equal(t, Flags{}, st.Flags)
	assert.Zero(t, st.Progress)
	assert.Empty(t, st.Caption)
	assert.Equal(t, 0, h.sched.Pending(Owner), "no tour task may outlive the tour")
	_, highlighted := h.scene.Highlighted()
	assert.False(t, highlighted)
}

func TestCoordinator_RunsWholeScript(t *testing.T) {
	h := newHarness(t, catalog())

	h.coord.Start()
	assert.Equal(t, 1, h.baseline.applied)
	assert.Equal(t, StateRunning, h.coord.Status().State)
	require.Len(t, h.view.flights, 1)

	h.step(FlightDuration)
	st := h.coord.Status()
	assert.Equal(t, "sumatra", st.EventID)
	assert.True(t, st.Matched)
	assert.Equal(t, "first", st.Caption)
	assert.InDelta(t, domain.GreatCircleKm(domain.Geo{Lat: 3.30, Lon: 95.98}, domain.Geo{Lat: 3.295, Lon: 95.982}), st.OffsetKm, 1e-9)
	assert.Less(t, st.OffsetKm, 1.0)
	hl, ok := h.scene.Highlighted()
	require.True(t, ok)
	assert.Equal(t, "sumatra", hl.ID)
	assert.Equal(t, 9.0, hl.BaseRadius)

	h.step(4 * time.Second)
	assert.InDelta(t, 50, h.coord.Status().Progress, 1e-9)

	for range 100 {
		if h.coord.Status().State == StateIdle {
			break
		}
		h.step(time.Second)
	}

	assert.Equal(t, []int{0, 1, 2}, h.steps)
	assert.Len(t, h.view.flights, 3)
	assert.Equal(t, 1, h.view.resets)
	assert.Empty(t, h.aborts)
	h.assertIdle(t)

	for _, s := range h.statuses {
		assert.LessOrEqual(t, s.Progress, 100.0)
		assert.GreaterOrEqual(t, s.Progress, 0.0)
	}
}

func TestCoordinator_EndMidFlight(t *testing.T) {
	h := newHarness(t, catalog())
	h.coord.Start()
	h.step(500 * time.Millisecond)

	h.coord.End()

	h.assertIdle(t)
	assert.Equal(t, 1, h.view.resets)

	h.step(10 * time.Second)
	assert.Len(t, h.view.flights, 1, "nothing resumes after end")
	assert.Equal(t, StateIdle, h.coord.Status().State)
}

func TestCoordinator_EndDuringDwellClearsHighlight(t *testing.T) {
	h := newHarness(t, catalog())
	h.coord.Start()
	h.step(FlightDuration)
	h.step(time.Second)
	_, ok := h.scene.Highlighted()
	require.True(t, ok)

	h.coord.End()

	h.assertIdle(t)
	last := h.statuses[len(h.statuses)-1]
	assert.Equal(t, StateIdle, last.State)
	assert.Zero(t, last.Progress)
}

func TestCoordinator_PauseFreezesDwell(t *testing.T) {
	h := newHarness(t, catalog())
	h.coord.Start()
	h.step(FlightDuration)
	h.step(2 * time.Second)
	require.InDelta(t, 25, h.coord.Status().Progress, 1e-9)

	h.coord.Pause()
	assert.Equal(t, StatePaused, h.coord.Status().State)
	for range 10 {
		h.step(time.Second)
	}
	assert.InDelta(t, 25, h.coord.Status().Progress, 1e-9)
	assert.Equal(t, 0, h.coord.Status().Flags.StepIndex)

	h.clock.Advance(time.Minute)
	h.coord.Resume()
	h.step(2 * time.Second)
	assert.InDelta(t, 50, h.coord.Status().Progress, 1e-9)
	assert.Equal(t, StateRunning, h.coord.Status().State)
}

func TestCoordinator_PauseDuringFlightDelaysLanding(t *testing.T) {
	h := newHarness(t, catalog())
	h.coord.Start()
	h.step(time.Second)

	h.coord.Pause()
	h.step(5 * time.Second)
	assert.Empty(t, h.coord.Status().EventID)

	h.coord.Resume()
	h.step(FlightDuration - time.Second)
	assert.Equal(t, "sumatra", h.coord.Status().EventID)
}

func TestCoordinator_SkipEndsDwell(t *testing.T) {
	h := newHarness(t, catalog())
	h.coord.Start()
	h.step(FlightDuration)

	h.coord.Skip()
	h.step(16 * time.Millisecond)

	assert.Equal(t, 1, h.coord.Status().Flags.StepIndex)
	assert.Len(t, h.view.flights, 2)
	_, ok := h.scene.Highlighted()
	assert.False(t, ok, "the highlight belongs to the previous stop")
}

func TestCoordinator_SkipDuringFlightAppliesAfterLanding(t *testing.T) {
	h := newHarness(t, catalog())
	h.coord.Start()
	h.step(500 * time.Millisecond)

	h.coord.Skip()
	h.step(FlightDuration)
	assert.Equal(t, "sumatra", h.coord.Status().EventID, "the stop is still shown")
	assert.Equal(t, 0, h.coord.Status().Flags.StepIndex)

	h.step(16 * time.Millisecond)
	assert.Equal(t, 1, h.coord.Status().Flags.StepIndex)
}

func TestCoordinator_SkipWhilePausedResumes(t *testing.T) {
	h := newHarness(t, catalog())
	h.coord.Start()
	h.step(FlightDuration)
	h.coord.Pause()

	h.coord.Skip()
	assert.False(t, h.coord.Status().Flags.Paused)
	h.step(16 * time.Millisecond)
	assert.Equal(t, 1, h.coord.Status().Flags.StepIndex)
}

func TestCoordinator_PanicAborts(t *testing.T) {
	h := newHarness(t, catalog())
	h.coord.Start()
	h.baseline.panics = true

	h.step(FlightDuration)

	require.Len(t, h.aborts, 1)
	assert.Contains(t, h.aborts[0].Error(), "catalog unavailable")
	h.assertIdle(t)
	assert.Equal(t, 1, h.view.resets)
}

func TestCoordinator_PanicInAnyOwnerAborts(t *testing.T) {
	h := newHarness(t, catalog())
	h.coord.Start()
	h.sched.After("viewport", 0, func() { panic("listener failed") })

	h.step(16 * time.Millisecond)

	require.Len(t, h.aborts, 1)
	assert.Contains(t, h.aborts[0].Error(), "listener failed")
	h.assertIdle(t)
}

func TestCoordinator_PanicWhileIdleIsIgnored(t *testing.T) {
	h := newHarness(t, catalog())
	h.sched.After(Owner, 0, func() { panic("stray") })

	h.step(16 * time.Millisecond)

	assert.Empty(t, h.aborts)
	assert.Zero(t, h.view.resets)
	assert.Equal(t, StateIdle, h.coord.Status().State)
}

func TestCoordinator_ProjectionFailureAborts(t *testing.T) {
	t.Run("at landing", func(t *testing.T) {
		h := newHarness(t, catalog())
		h.coord.Start()
		h.view.noProject = true

		h.step(FlightDuration)

		require.Len(t, h.aborts, 1)
		assert.True(t, errors.Is(h.aborts[0], viewport.ErrNoProjection))
		h.assertIdle(t)
	})

	t.Run("at takeoff", func(t *testing.T) {
		h := newHarness(t, catalog())
		h.view.failFly = true

		h.coord.Start()

		require.Len(t, h.aborts, 1)
		require.ErrorIs(t, h.aborts[0], viewport.ErrNoProjection)
		h.assertIdle(t)
	})
}

func TestCoordinator_EmptyCatalogUsesPlaceholder(t *testing.T) {
	h := newHarness(t, nil)
	h.coord.Start()
	h.step(FlightDuration)

	st := h.coord.Status()
	assert.Equal(t, "placeholder", st.EventID)
	assert.False(t, st.Matched)
	assert.Zero(t, st.OffsetKm)
	hl, ok := h.scene.Highlighted()
	require.True(t, ok)
	assert.Equal(t, placeholderRadius, hl.BaseRadius)
	assert.Equal(t, 95.98, hl.X)
}

func TestCoordinator_YearRestrictsMatch(t *testing.T) {
	events := []domain.Event{
		{ID: "near-wrong-year", Geo: domain.Geo{Lat: 3.3, Lon: 96}, TimeKey: domain.TimeKey{Year: domain.Int(2012)}},
		{ID: "far-right-year", Geo: domain.Geo{Lat: 7, Lon: 92}, TimeKey: domain.TimeKey{Year: domain.Int(2004)}},
	}
	h := newHarness(t, events)
	h.coord.Start()
	h.step(FlightDuration)

	assert.Equal(t, "far-right-year", h.coord.Status().EventID)
}

func TestCoordinator_StartIsIdempotentWhileRunning(t *testing.T) {
	h := newHarness(t, catalog())
	h.coord.Start()
	h.coord.Start()

	assert.Equal(t, 1, h.baseline.applied)
	assert.Len(t, h.view.flights, 1)
	assert.Equal(t, 1, h.sched.Pending(Owner))

	h.coord.End()
	h.coord.End()
	assert.Equal(t, 1, h.view.resets)

	h.coord.Start()
	assert.Equal(t, 2, h.baseline.applied)
	assert.True(t, h.coord.Running())
}

func TestCoordinator_ControlsIgnoredWhenIdle(t *testing.T) {
	h := newHarness(t, catalog())

	h.coord.Pause()
	h.coord.Resume()
	h.coord.Skip()
	h.coord.End()
	h.coord.Abort(errors.New("nothing running"))

	assert.Empty(t, h.statuses)
	assert.Empty(t, h.aborts)
	assert.Equal(t, 0, h.view.resets)
}

func TestDefaultScript(t *testing.T) {
	require.Len(t, DefaultScript, 6)
	for _, s := range DefaultScript {
		assert.NotEmpty(t, s.Caption)
		assert.NotZero(t, s.Year)
		assert.Greater(t, s.Zoom, 1.0)
		assert.Equal(t, DefaultDwell, s.Dwell)
	}
}
