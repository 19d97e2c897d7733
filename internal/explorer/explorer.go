// Package explorer is the central state of one map session. It owns the
// catalog view (timeline, filters, scales), the viewport, the scene and the
// tour, and exposes the entry points the UI drives.
//
// Every entry point and every animation frame runs under one mutex, so each
// event cycle has a single writer.
package explorer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/golang/geo/r2"
	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/quake-map-explorer/internal/anim"
	"github.com/couchcryptid/quake-map-explorer/internal/domain"
	"github.com/couchcryptid/quake-map-explorer/internal/geo"
	"github.com/couchcryptid/quake-map-explorer/internal/observability"
	"github.com/couchcryptid/quake-map-explorer/internal/render"
	"github.com/couchcryptid/quake-map-explorer/internal/tour"
	"github.com/couchcryptid/quake-map-explorer/internal/viewport"
)

// ErrEventNotFound is returned by Describe for an unknown event ID.
var ErrEventNotFound = errors.New("event not found")

// Options configures a session.
type Options struct {
	Width    float64
	Height   float64
	Exponent float64
	Region   string
	Basemaps geo.Basemaps
	Script   []tour.Step
	Clock    clockwork.Clock
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = 960
	}
	if o.Height <= 0 {
		o.Height = 600
	}
	if o.Region == "" {
		o.Region = geo.RegionWorld
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Metrics == nil {
		// Unregistered collectors; callers that export metrics pass their own.
		o.Metrics = observability.NewMetricsForTesting()
	}
	return o
}

// FilterUpdate changes some of the filter predicates. Nil fields are left
// as they are.
type FilterUpdate struct {
	Depth   *domain.Range
	Metric  *domain.Range
	Tsunami *bool
}

// Explorer is one map session.
type Explorer struct {
	mu sync.Mutex

	id       string
	opts     Options
	logger   *slog.Logger
	metrics  *observability.Metrics
	catalog  domain.Catalog
	scales   domain.ScaleSet
	timeline domain.Timeline
	filter   domain.FilterState
	visible  []domain.Event

	sched *anim.Scheduler
	scene *render.Scene
	view  *viewport.Controller
	tour  *tour.Coordinator

	playing     bool
	tourRunning bool
}

// New builds a session over catalog showing the configured region.
func New(id string, catalog domain.Catalog, opts Options) (*Explorer, error) {
	opts = opts.withDefaults()
	region, err := geo.BuildRegion(opts.Region, opts.Width, opts.Height, opts.Basemaps)
	if err != nil {
		return nil, err
	}

	sched := anim.NewScheduler(opts.Clock)
	view, err := viewport.NewController(sched, viewport.Config{
		Width:    opts.Width,
		Height:   opts.Height,
		Exponent: opts.Exponent,
	}, region)
	if err != nil {
		return nil, fmt.Errorf("create viewport: %w", err)
	}

	logger := opts.Logger.With("session", id)
	e := &Explorer{
		id:       id,
		opts:     opts,
		logger:   logger,
		metrics:  opts.Metrics,
		catalog:  catalog,
		scales:   domain.NewScaleSet(catalog.Events()),
		timeline: domain.NewTimeline(catalog.Events(), domain.GranularityYear),
		filter:   domain.DefaultFilterState(),
		sched:    sched,
		scene:    render.NewScene(sched),
		view:     view,
	}

	view.OnChange(func(_ viewport.Transform, factor float64) {
		e.scene.Compensate(factor)
	})
	e.scene.Compensate(view.Factor())

	e.tour = tour.NewCoordinator(sched, view, e.scene, baseline{e}, opts.Script, logger)
	e.tour.SetHooks(tour.Hooks{
		OnStep:  func(int) { e.metrics.TourSteps.Inc() },
		OnAbort: func(error) { e.metrics.TourAborts.Inc() },
	})
	e.tour.Observe(e.trackTour)
	sched.OnPanic(func(owner string, err error) {
		e.logger.Error("animation task panicked", "owner", owner, "error", err)
		e.tour.HandlePanic(owner, err)
	})

	e.refresh()
	return e, nil
}

// ID returns the session ID.
func (e *Explorer) ID() string { return e.id }

// Frame advances every animation of the session to now.
func (e *Explorer) Frame(now time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.sched.Frame(now)
}

// Close stops the tour and playback.
func (e *Explorer) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tour.End()
	e.stopPlayback()
}

// SetFilter updates the filter predicates and re-renders.
func (e *Explorer) SetFilter(u FilterUpdate) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if u.Depth != nil {
		e.filter.Depth = *u.Depth
	}
	if u.Metric != nil {
		e.filter.Metric = *u.Metric
	}
	if u.Tsunami != nil {
		e.filter.Tsunami = *u.Tsunami
	}
	e.refresh()
}

// ClearFilters restores the default ranges and tsunami flag.
func (e *Explorer) ClearFilters() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filter = e.filter.ClearRanges()
	e.refresh()
}

// SetBucket selects a time bucket; domain.AllBuckets shows every time.
// Manual selection stops playback.
func (e *Explorer) SetBucket(idx int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopPlayback()
	e.timeline.Select(idx)
	e.refresh()
}

// SetGranularity re-buckets the catalog and returns to all times.
func (e *Explorer) SetGranularity(g domain.Granularity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopPlayback()
	e.timeline = domain.NewTimeline(e.catalog.Events(), g)
	e.refresh()
}

// SetDisplayMode switches between composite and combination rings. A nil
// active set keeps the current toggles.
func (e *Explorer) SetDisplayMode(mode domain.DisplayMode, active domain.MetricSet) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.filter.Mode = mode
	if active != nil {
		e.filter.Active = active.Clone()
	}
	e.refresh()
}

// ZoomBy zooms around the viewport centre. A running tour ends first.
func (e *Explorer) ZoomBy(factor float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tour.End()
	e.view.ZoomBy(factor)
}

// PanTo jumps to t, clamped to the zoom and pan extents.
func (e *Explorer) PanTo(t viewport.Transform) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tour.End()
	e.view.PanTo(t)
}

// ResetZoom animates back to the whole region.
func (e *Explorer) ResetZoom() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tour.End()
	e.view.Reset()
}

// SetRegion switches the basemap region and redraws every symbol under the
// new projection.
func (e *Explorer) SetRegion(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	region, err := geo.BuildRegion(name, e.opts.Width, e.opts.Height, e.opts.Basemaps)
	if err != nil {
		return err
	}
	e.tour.End()
	e.view.SetRegion(region)
	e.refresh()
	return nil
}

// StartTour stops playback and starts the guided tour.
func (e *Explorer) StartTour() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopPlayback()
	e.tour.Start()
}

// PauseTour freezes the tour.
func (e *Explorer) PauseTour() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tour.Pause()
}

// ResumeTour continues a paused tour.
func (e *Explorer) ResumeTour() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tour.Resume()
}

// SkipTourStep ends the current tour dwell.
func (e *Explorer) SkipTourStep() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tour.Skip()
}

// EndTour stops the tour and resets the viewport.
func (e *Explorer) EndTour() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tour.End()
}

// Describe returns the tooltip/detail view of an event.
func (e *Explorer) Describe(id string) (domain.Description, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ev, ok := e.catalog.Lookup(id)
	if !ok {
		return domain.Description{}, fmt.Errorf("describe %q: %w", id, ErrEventNotFound)
	}
	rings := domain.RingSpec(ev, e.filter.Mode, e.filter.Active, e.scales)

	display := 0.0
	if n, drawn := e.scene.Node(id); drawn {
		display = n.DisplayRadius()
	} else {
		for _, r := range rings {
			display = max(display, r.Radius*e.view.Factor())
		}
	}

	d := domain.Describe(ev, rings, display)
	d.Bucket, _ = domain.BucketKey(ev, e.timeline.Granularity)
	return d, nil
}

// refresh runs the filter pipeline over the selected bucket and reconciles
// the scene, then re-applies compensation to the changed geometry.
func (e *Explorer) refresh() {
	e.filter = e.filter.Normalize()
	subset := e.timeline.Subset(e.catalog.Events())
	e.visible = domain.Apply(subset, e.filter)
	e.metrics.FilterPasses.Inc()
	e.metrics.FilteredEvents.Observe(float64(len(e.visible)))

	st := e.scene.Reconcile(e.visible, e.project, e.rings)
	e.scene.Compensate(e.view.Factor())

	e.metrics.ReconcileOps.WithLabelValues("enter").Add(float64(st.Entered))
	e.metrics.ReconcileOps.WithLabelValues("update").Add(float64(st.Updated))
	e.metrics.ReconcileOps.WithLabelValues("exit").Add(float64(st.Exited))
	e.metrics.ReconcileOps.WithLabelValues("revive").Add(float64(st.Revived))
	e.metrics.ReconcileOps.WithLabelValues("skip").Add(float64(st.Skipped))
	e.metrics.SceneNodes.Observe(float64(e.scene.Len()))
	if st.Skipped > 0 {
		e.logger.Debug("events skipped by projection", "count", st.Skipped, "region", e.view.Region().Name)
	}
}

func (e *Explorer) project(ev domain.Event) (r2.Point, bool) {
	return e.view.Project(ev.Geo.Lon, ev.Geo.Lat)
}

func (e *Explorer) rings(ev domain.Event) []domain.Ring {
	return domain.RingSpec(ev, e.filter.Mode, e.filter.Active, e.scales)
}

func (e *Explorer) trackTour(st tour.Status) {
	if st.Flags.Running == e.tourRunning {
		return
	}
	e.tourRunning = st.Flags.Running
	if e.tourRunning {
		e.metrics.ToursRunning.Inc()
	} else {
		e.metrics.ToursRunning.Dec()
	}
}

// baseline is the tour's view of the explorer. Its methods run with the
// explorer lock already held.
type baseline struct{ e *Explorer }

func (b baseline) ApplyBaseline() {
	b.e.stopPlayback()
	b.e.timeline.Select(domain.AllBuckets)
	b.e.filter.Mode = domain.ModeComposite
	b.e.refresh()
}

func (b baseline) Events() []domain.Event { return b.e.catalog.Events() }

func (b baseline) BaseRadius(ev domain.Event) float64 {
	return b.e.scales.BaseRadius(ev, b.e.filter.Mode, b.e.filter.Active)
}
