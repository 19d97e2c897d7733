package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/jonboulle/clockwork"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpadapter "github.com/couchcryptid/quake-map-explorer/internal/adapter/http"
	"github.com/couchcryptid/quake-map-explorer/internal/domain"
	"github.com/couchcryptid/quake-map-explorer/internal/explorer"
	"github.com/couchcryptid/quake-map-explorer/internal/geo"
	"github.com/couchcryptid/quake-map-explorer/internal/observability"
	"github.com/couchcryptid/quake-map-explorer/internal/render"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

func testCatalog() domain.Catalog {
	return domain.NewCatalog([]domain.Event{
		{
			Geo:     domain.Geo{Lat: 38.297, Lon: 142.373},
			TimeKey: domain.TimeKey{Year: domain.Int(2011), Month: domain.Int(3)},
			Depth:   domain.Float(29),
			Metrics: domain.Metrics{Magnitude: domain.Float(9.1), Significance: domain.Float(2184)},
			Tsunami: true,
		},
		{
			Geo:     domain.Geo{Lat: -36.122, Lon: -72.898},
			TimeKey: domain.TimeKey{Year: domain.Int(2010), Month: domain.Int(2)},
			Depth:   domain.Float(22.9),
			Metrics: domain.Metrics{Magnitude: domain.Float(8.8), Significance: domain.Float(2910)},
		},
	})
}

func newTestRegistry(maxSessions int) *explorer.Registry {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return explorer.NewRegistry(explorer.Options{
		Clock:   clockwork.NewFakeClock(),
		Logger:  logger,
		Metrics: observability.NewMetricsForTesting(),
	}, maxSessions)
}

func newTestServer(reg *explorer.Registry, readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(
		httpadapter.Options{Addr: ":0", AllowedOrigins: []string{"*"}},
		reg,
		&mockReadiness{err: readyErr},
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func do(t *testing.T, srv http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createSession(t *testing.T, srv http.Handler) explorer.View {
	t.Helper()
	rec := do(t, srv, http.MethodPost, "/api/sessions", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[explorer.View](t, rec)
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(newTestRegistry(1), nil)
	rec := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(newTestRegistry(1), nil)
	rec := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(newTestRegistry(1), fmt.Errorf("not ready yet"))
	rec := do(t, srv, http.MethodGet, "/readyz", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(newTestRegistry(1), nil)
	rec := do(t, srv, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	srv := newTestServer(newTestRegistry(1), nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/sessions", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "X-Request-ID")
	rec := httptest.NewRecorder()

	srv.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCreateSession_CatalogNotLoaded(t *testing.T) {
	srv := newTestServer(newTestRegistry(1), nil)
	rec := do(t, srv, http.MethodPost, "/api/sessions", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSessionLifecycle(t *testing.T) {
	reg := newTestRegistry(1)
	reg.SetCatalog(testCatalog())
	srv := newTestServer(reg, nil)

	view := createSession(t, srv)
	assert.Equal(t, 2, view.Catalog)
	assert.Equal(t, 2, view.Visible)
	assert.Equal(t, "world", view.Region)

	rec := do(t, srv, http.MethodPost, "/api/sessions", "")
	assert.Equal(t, http.StatusConflict, rec.Code, "session limit")

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+view.Session, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, view.Session, decode[explorer.View](t, rec).Session)

	rec = do(t, srv, http.MethodDelete, "/api/sessions/"+view.Session, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+view.Session, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSessionCommands(t *testing.T) {
	reg := newTestRegistry(4)
	reg.SetCatalog(testCatalog())
	srv := newTestServer(reg, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		check  func(t *testing.T, v explorer.View)
	}{
		{
			name: "tsunami filter", method: http.MethodPut, path: "/filter",
			body: `{"tsunami_only":true}`,
			check: func(t *testing.T, v explorer.View) {
				assert.True(t, v.Filter.Tsunami)
				assert.Equal(t, 1, v.Visible)
			},
		},
		{
			name: "metric range", method: http.MethodPut, path: "/filter",
			body: `{"metric":{"lo":9,"hi":10}}`,
			check: func(t *testing.T, v explorer.View) {
				assert.Equal(t, domain.Range{Lo: 9, Hi: 10}, v.Filter.Metric)
				assert.Equal(t, 1, v.Visible)
			},
		},
		{
			name: "clear filters", method: http.MethodDelete, path: "/filter",
			check: func(t *testing.T, v explorer.View) {
				assert.Equal(t, 2, v.Visible)
			},
		},
		{
			name: "select bucket", method: http.MethodPut, path: "/bucket",
			body: `{"index":0}`,
			check: func(t *testing.T, v explorer.View) {
				assert.Equal(t, 0, v.Timeline.Index)
				assert.Equal(t, "2010", v.Timeline.Label)
				assert.Equal(t, 1, v.Visible)
			},
		},
		{
			name: "month granularity", method: http.MethodPut, path: "/granularity",
			body: `{"granularity":"month"}`,
			check: func(t *testing.T, v explorer.View) {
				assert.Equal(t, domain.GranularityMonth, v.Timeline.Granularity)
				assert.Equal(t, domain.AllBuckets, v.Timeline.Index)
			},
		},
		{
			name: "combination mode", method: http.MethodPut, path: "/display",
			body: `{"mode":"combo","metrics":["mag","felt"]}`,
			check: func(t *testing.T, v explorer.View) {
				assert.Equal(t, domain.ModeCombination, v.Filter.Mode)
				assert.Equal(t, []domain.Metric{domain.MetricPrimary, domain.MetricFelt}, v.Filter.Active)
			},
		},
		{
			name: "pan", method: http.MethodPut, path: "/transform",
			body: `{"x":-100,"y":-50,"k":2}`,
			check: func(t *testing.T, v explorer.View) {
				assert.Equal(t, 2.0, v.Transform.K)
			},
		},
		{
			name: "region", method: http.MethodPut, path: "/region",
			body: `{"region":"na"}`,
			check: func(t *testing.T, v explorer.View) {
				assert.Equal(t, "na", v.Region)
			},
		},
		{
			name: "start tour", method: http.MethodPost, path: "/tour/start",
			check: func(t *testing.T, v explorer.View) {
				assert.True(t, v.Tour.Flags.Running)
			},
		},
		{
			name: "end tour", method: http.MethodPost, path: "/tour/end",
			check: func(t *testing.T, v explorer.View) {
				assert.False(t, v.Tour.Flags.Running)
			},
		},
		{
			name: "play", method: http.MethodPost, path: "/playback/play",
			check: func(t *testing.T, v explorer.View) {
				assert.True(t, v.Timeline.Playing)
			},
		},
		{
			name: "show all stops playback", method: http.MethodPost, path: "/playback/all",
			check: func(t *testing.T, v explorer.View) {
				assert.False(t, v.Timeline.Playing)
				assert.Equal(t, domain.AllBuckets, v.Timeline.Index)
			},
		},
	}

	id := createSession(t, srv).Session
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, tt.method, "/api/sessions/"+id+tt.path, tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			tt.check(t, decode[explorer.View](t, rec))
		})
	}
}

func TestSessionCommands_BadRequests(t *testing.T) {
	reg := newTestRegistry(1)
	reg.SetCatalog(testCatalog())
	srv := newTestServer(reg, nil)
	id := createSession(t, srv).Session

	tests := []struct {
		name  string
		path  string
		body  string
		field string
	}{
		{name: "missing index", path: "/bucket", body: `{}`, field: "index"},
		{name: "index below sentinel", path: "/bucket", body: `{"index":-2}`, field: "index"},
		{name: "range without hi", path: "/filter", body: `{"depth":{"lo":0}}`, field: "hi"},
		{name: "non-positive scale", path: "/transform", body: `{"x":0,"y":0,"k":0}`, field: "k"},
		{name: "unknown granularity", path: "/granularity", body: `{"granularity":"week"}`},
		{name: "unknown metric", path: "/display", body: `{"mode":"combination","metrics":["pga"]}`},
		{name: "unknown region", path: "/region", body: `{"region":"mars"}`},
		{name: "unknown field", path: "/bucket", body: `{"idx":1}`},
		{name: "empty body", path: "/region"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, srv, http.MethodPut, "/api/sessions/"+id+tt.path, tt.body)
			require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

			var body struct {
				Error  string            `json:"error"`
				Fields map[string]string `json:"fields"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
			if tt.field != "" {
				assert.Contains(t, body.Fields, tt.field)
			}
		})
	}

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/tour/rewind", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestZoom(t *testing.T) {
	reg := newTestRegistry(1)
	reg.SetCatalog(testCatalog())
	srv := newTestServer(reg, nil)
	id := createSession(t, srv).Session

	rec := do(t, srv, http.MethodPost, "/api/sessions/"+id+"/zoom", `{"factor":2}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = do(t, srv, http.MethodDelete, "/api/sessions/"+id+"/transform", "")
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDescribeEvent(t *testing.T) {
	reg := newTestRegistry(1)
	cat := testCatalog()
	reg.SetCatalog(cat)
	srv := newTestServer(reg, nil)
	id := createSession(t, srv).Session
	ev := cat.Events()[0]

	rec := do(t, srv, http.MethodGet, "/api/sessions/"+id+"/events/"+ev.ID, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	d := decode[domain.Description](t, rec)
	assert.Equal(t, ev.ID, d.ID)
	assert.NotEmpty(t, d.Rings)
	assert.Positive(t, d.DisplayRadius)

	rec = do(t, srv, http.MethodGet, "/api/sessions/"+id+"/events/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBasemap(t *testing.T) {
	plates := geojson.NewFeatureCollection().Append(geojson.NewFeature(orb.LineString{{140, 30}, {145, 40}}))
	reg := explorer.NewRegistry(explorer.Options{
		Basemaps: geo.Basemaps{Plates: plates},
		Clock:    clockwork.NewFakeClock(),
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:  observability.NewMetricsForTesting(),
	}, 1)
	reg.SetCatalog(testCatalog())
	srv := newTestServer(reg, nil)

	view := createSession(t, srv)
	assert.Equal(t, render.LayerSummary{Land: 1, Plates: 1}, view.Basemap)

	rec := do(t, srv, http.MethodGet, "/api/sessions/"+view.Session+"/basemap", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	b := decode[render.Basemap](t, rec)
	require.Len(t, b.Layers, 2)
	assert.Equal(t, render.LayerPlates, b.Layers[0].Name, "plates draw under land")
	assert.Equal(t, render.LayerLand, b.Layers[1].Name)
	assert.Len(t, b.Layers[0].Paths, 1)

	rec = do(t, srv, http.MethodGet, "/api/sessions/nope/basemap", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
