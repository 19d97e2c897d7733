package kafka

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/quake-map-explorer/internal/domain"
	"github.com/couchcryptid/quake-map-explorer/internal/observability"
)

// fakeFetcher replays msgs, then blocks until the fetch context ends.
type fakeFetcher struct {
	msgs   []kafkago.Message
	err    error
	closed bool
}

func (f *fakeFetcher) FetchMessage(ctx context.Context) (kafkago.Message, error) {
	if len(f.msgs) > 0 {
		m := f.msgs[0]
		f.msgs = f.msgs[1:]
		return m, nil
	}
	if f.err != nil {
		return kafkago.Message{}, f.err
	}
	<-ctx.Done()
	return kafkago.Message{}, ctx.Err()
}

func (f *fakeFetcher) Close() error {
	f.closed = true
	return nil
}

func testReader(f fetcher) (*Reader, *observability.Metrics) {
	m := observability.NewMetricsForTesting()
	return &Reader{
		reader:  f,
		idle:    20 * time.Millisecond,
		metrics: m,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, m
}

func message(t *testing.T, key string, e domain.Event) kafkago.Message {
	t.Helper()
	e.ID = key
	msg, err := serializeToMessage(e, time.Now())
	require.NoError(t, err)
	return msg
}

func TestSerializeToMessage(t *testing.T) {
	now := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	e := domain.Event{
		ID:      "eq-1",
		Geo:     domain.Geo{Lat: 38.297, Lon: 142.373},
		Metrics: domain.Metrics{Magnitude: domain.Float(9.1)},
		Tsunami: true,
	}

	msg, err := serializeToMessage(e, now)
	require.NoError(t, err)

	assert.Equal(t, []byte("eq-1"), msg.Key)
	assert.Contains(t, string(msg.Value), `"mag":9.1`)
	assert.Contains(t, string(msg.Value), `"tsunami":true`)
	require.Len(t, msg.Headers, 2)
	assert.Equal(t, "content_type", msg.Headers[0].Key)
	assert.Equal(t, "published_at", msg.Headers[1].Key)
	assert.Equal(t, []byte(now.Format(time.RFC3339)), msg.Headers[1].Value)
}

func TestDecodeMessage(t *testing.T) {
	msg := kafkago.Message{Value: []byte(`{"id":"old","geo":{"lat":3.3,"lon":95.98},"time_key":{"year":2004},"metrics":{"sig":1274}}`)}

	e, err := decodeMessage(msg)
	require.NoError(t, err)

	assert.Empty(t, e.ID, "IDs are reassigned by the catalog")
	assert.Equal(t, domain.Geo{Lat: 3.3, Lon: 95.98}, e.Geo)
	assert.Equal(t, 2004, *e.TimeKey.Year)
	assert.Equal(t, 1274.0, *e.Metrics.Significance)

	_, err = decodeMessage(kafkago.Message{Value: []byte("not json")})
	require.Error(t, err)
}

func TestReadCatalog_UntilIdle(t *testing.T) {
	f := &fakeFetcher{msgs: []kafkago.Message{
		message(t, "a", domain.Event{Geo: domain.Geo{Lat: 1, Lon: 1}}),
		{Value: []byte("garbage")},
		message(t, "b", domain.Event{Geo: domain.Geo{Lat: 2, Lon: 2}}),
		message(t, "a", domain.Event{Geo: domain.Geo{Lat: 3, Lon: 3}}),
	}}
	r, m := testReader(f)

	events, err := r.ReadCatalog(context.Background())
	require.NoError(t, err)

	require.Len(t, events, 2)
	assert.Equal(t, 3.0, events[0].Geo.Lat, "same key replaces in place")
	assert.Equal(t, 2.0, events[1].Geo.Lat)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.RecordsConsumed))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RecordsSkipped))

	require.NoError(t, r.Close())
	assert.True(t, f.closed)
}

func TestReadCatalog_Errors(t *testing.T) {
	r, _ := testReader(&fakeFetcher{err: errors.New("broker down")})
	_, err := r.ReadCatalog(context.Background())
	require.ErrorContains(t, err, "broker down")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r, _ = testReader(&fakeFetcher{})
	_, err = r.ReadCatalog(ctx)
	require.ErrorIs(t, err, context.Canceled)
}
