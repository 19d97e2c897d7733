package http

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/couchcryptid/quake-map-explorer/internal/domain"
	"github.com/couchcryptid/quake-map-explorer/internal/explorer"
	"github.com/couchcryptid/quake-map-explorer/internal/viewport"
)

type rangeRequest struct {
	Lo *float64 `json:"lo" validate:"required,gte=0"`
	Hi *float64 `json:"hi" validate:"required,gte=0"`
}

func (r *rangeRequest) toRange() *domain.Range {
	if r == nil {
		return nil
	}
	return &domain.Range{Lo: *r.Lo, Hi: *r.Hi}
}

type filterRequest struct {
	Depth       *rangeRequest `json:"depth"`
	Metric      *rangeRequest `json:"metric"`
	TsunamiOnly *bool         `json:"tsunami_only"`
}

type bucketRequest struct {
	Index *int `json:"index" validate:"required,gte=-1"`
}

type granularityRequest struct {
	Granularity string `json:"granularity" validate:"required"`
}

type displayRequest struct {
	Mode    string   `json:"mode" validate:"required"`
	Metrics []string `json:"metrics" validate:"omitempty,dive,required"`
}

type zoomRequest struct {
	Factor float64 `json:"factor" validate:"required,gt=0"`
}

type transformRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	K float64 `json:"k" validate:"required,gt=0"`
}

type regionRequest struct {
	Region string `json:"region" validate:"required"`
}

// action is a session command without a request body.
type action func(e *explorer.Explorer)

var tourActions = map[string]action{
	"start":  (*explorer.Explorer).StartTour,
	"pause":  (*explorer.Explorer).PauseTour,
	"resume": (*explorer.Explorer).ResumeTour,
	"skip":   (*explorer.Explorer).SkipTourStep,
	"end":    (*explorer.Explorer).EndTour,
}

var playbackActions = map[string]action{
	"play":  (*explorer.Explorer).Play,
	"pause": (*explorer.Explorer).Pause,
	"next":  (*explorer.Explorer).Next,
	"prev":  (*explorer.Explorer).Prev,
	"all":   (*explorer.Explorer).ShowAll,
}

func (s *Server) sessionRoutes(r chi.Router) {
	r.Post("/", s.handleCreate)
	r.Route("/{sessionID}", func(r chi.Router) {
		r.Get("/", s.handleSnapshot)
		r.Delete("/", s.handleDelete)

		r.Put("/filter", s.command(s.setFilter))
		r.Delete("/filter", s.command(func(e *explorer.Explorer, _ *http.Request) error {
			e.ClearFilters()
			return nil
		}))
		r.Put("/bucket", s.command(s.setBucket))
		r.Put("/granularity", s.command(s.setGranularity))
		r.Put("/display", s.command(s.setDisplay))

		r.Post("/zoom", s.command(s.zoom))
		r.Put("/transform", s.command(s.pan))
		r.Delete("/transform", s.command(func(e *explorer.Explorer, _ *http.Request) error {
			e.ResetZoom()
			return nil
		}))
		r.Put("/region", s.command(s.setRegion))

		r.Post("/tour/{action}", s.command(dispatch(tourActions)))
		r.Post("/playback/{action}", s.command(dispatch(playbackActions)))

		r.Get("/basemap", s.handleBasemap)
		r.Get("/events/{eventID}", s.handleDescribe)
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, _ *http.Request) {
	e, err := s.sessions.Create()
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, e.Snapshot())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	e, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.Snapshot())
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Delete(chi.URLParam(r, "sessionID")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBasemap(w http.ResponseWriter, r *http.Request) {
	e, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e.Basemap())
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	e, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeError(w, err)
		return
	}
	d, err := e.Describe(chi.URLParam(r, "eventID"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// command resolves the session, applies fn, and responds with the updated
// snapshot.
func (s *Server) command(fn func(e *explorer.Explorer, r *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		e, err := s.sessions.Get(chi.URLParam(r, "sessionID"))
		if err != nil {
			writeError(w, err)
			return
		}
		if err := fn(e, r); err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e.Snapshot())
	}
}

func dispatch(actions map[string]action) func(e *explorer.Explorer, r *http.Request) error {
	return func(e *explorer.Explorer, r *http.Request) error {
		name := chi.URLParam(r, "action")
		act, ok := actions[name]
		if !ok {
			return fmt.Errorf("%w: unknown action %q", errBadRequest, name)
		}
		act(e)
		return nil
	}
}

func (s *Server) setFilter(e *explorer.Explorer, r *http.Request) error {
	var req filterRequest
	if err := s.bind.decode(r, &req); err != nil {
		return err
	}
	e.SetFilter(explorer.FilterUpdate{
		Depth:   req.Depth.toRange(),
		Metric:  req.Metric.toRange(),
		Tsunami: req.TsunamiOnly,
	})
	return nil
}

func (s *Server) setBucket(e *explorer.Explorer, r *http.Request) error {
	var req bucketRequest
	if err := s.bind.decode(r, &req); err != nil {
		return err
	}
	e.SetBucket(*req.Index)
	return nil
}

func (s *Server) setGranularity(e *explorer.Explorer, r *http.Request) error {
	var req granularityRequest
	if err := s.bind.decode(r, &req); err != nil {
		return err
	}
	g, err := domain.ParseGranularity(req.Granularity)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	e.SetGranularity(g)
	return nil
}

func (s *Server) setDisplay(e *explorer.Explorer, r *http.Request) error {
	var req displayRequest
	if err := s.bind.decode(r, &req); err != nil {
		return err
	}
	mode, err := domain.ParseDisplayMode(req.Mode)
	if err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	var active domain.MetricSet
	if req.Metrics != nil {
		ms := make([]domain.Metric, 0, len(req.Metrics))
		for _, name := range req.Metrics {
			m, err := domain.ParseMetric(name)
			if err != nil {
				return fmt.Errorf("%w: %v", errBadRequest, err)
			}
			ms = append(ms, m)
		}
		active = domain.NewMetricSet(ms...)
	}
	e.SetDisplayMode(mode, active)
	return nil
}

func (s *Server) zoom(e *explorer.Explorer, r *http.Request) error {
	var req zoomRequest
	if err := s.bind.decode(r, &req); err != nil {
		return err
	}
	e.ZoomBy(req.Factor)
	return nil
}

func (s *Server) pan(e *explorer.Explorer, r *http.Request) error {
	var req transformRequest
	if err := s.bind.decode(r, &req); err != nil {
		return err
	}
	e.PanTo(viewport.Transform{X: req.X, Y: req.Y, K: req.K})
	return nil
}

func (s *Server) setRegion(e *explorer.Explorer, r *http.Request) error {
	var req regionRequest
	if err := s.bind.decode(r, &req); err != nil {
		return err
	}
	return e.SetRegion(req.Region)
}
