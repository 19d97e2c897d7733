package explorer

import (
	"github.com/couchcryptid/quake-map-explorer/internal/domain"
	"github.com/couchcryptid/quake-map-explorer/internal/render"
	"github.com/couchcryptid/quake-map-explorer/internal/tour"
	"github.com/couchcryptid/quake-map-explorer/internal/viewport"
)

// BucketView is one timeline entry.
type BucketView struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Count int    `json:"count"`
}

// TimelineView is the timeline control state.
type TimelineView struct {
	Granularity domain.Granularity `json:"granularity"`
	Index       int                `json:"index"`
	Label       string             `json:"label"`
	Navigation  bool               `json:"navigation"`
	Playing     bool               `json:"playing"`
	Buckets     []BucketView       `json:"buckets"`
}

// FilterView is the filter panel state.
type FilterView struct {
	domain.FilterState
	Active []domain.Metric `json:"active"`
}

// View is everything a client needs to draw one frame.
type View struct {
	Session   string              `json:"session"`
	Region    string              `json:"region"`
	Basemap   render.LayerSummary `json:"basemap"`
	Width     float64             `json:"width"`
	Height    float64             `json:"height"`
	Transform viewport.Transform  `json:"transform"`
	Zoom      viewport.Status     `json:"zoom"`
	Timeline  TimelineView        `json:"timeline"`
	Filter    FilterView          `json:"filter"`
	Catalog   int                 `json:"catalog"`
	Visible   int                 `json:"visible"`
	Scene     render.Snapshot     `json:"scene"`
	Tour      tour.Status         `json:"tour"`
}

// Snapshot copies the session state.
func (e *Explorer) Snapshot() View {
	e.mu.Lock()
	defer e.mu.Unlock()

	buckets := make([]BucketView, len(e.timeline.Buckets))
	for i, b := range e.timeline.Buckets {
		buckets[i] = BucketView{Key: b.Key, Label: b.Label, Count: len(b.Members)}
	}
	w, h := e.view.Size()

	return View{
		Session:   e.id,
		Region:    e.view.Region().Name,
		Basemap:   render.Summarize(e.view.Region()),
		Width:     w,
		Height:    h,
		Transform: e.view.Transform(),
		Zoom:      e.view.Status(),
		Timeline: TimelineView{
			Granularity: e.timeline.Granularity,
			Index:       e.timeline.Index,
			Label:       e.timeline.Label(),
			Navigation:  e.timeline.NavigationEnabled(),
			Playing:     e.playing,
			Buckets:     buckets,
		},
		Filter:  FilterView{FilterState: e.filter, Active: e.filter.Active.List()},
		Catalog: e.catalog.Len(),
		Visible: len(e.visible),
		Scene:   e.scene.Snapshot(),
		Tour:    e.tour.Status(),
	}
}

// Basemap projects the current region's plate and land layers.
func (e *Explorer) Basemap() render.Basemap {
	e.mu.Lock()
	defer e.mu.Unlock()
	return render.ProjectBasemap(e.view.Region())
}
