package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Aleph-Alpha/qdrant-http/v1/logger"
	"github.com/Aleph-Alpha/qdrant-http/v1/metrics"
	"github.com/Aleph-Alpha/qdrant-http/v1/tracer"
)

// recordedRequest is one request as seen by the fake server, body decompressed.
type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Header http.Header
	Body   []byte
}

// fakeQdrant serves the subset of the REST API the client uses.
//
// Collections named "missing" answer 404. A query with limit 99 fails with a
// 500. Batch queries against "partial" fail their second slot and against
// "short" return a single slot.
type fakeQdrant struct {
	*httptest.Server
	delay time.Duration

	mu       sync.Mutex
	requests []recordedRequest

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeQdrant(t *testing.T) *fakeQdrant {
	t.Helper()
	f := &fakeQdrant{}

	r := mux.NewRouter()
	r.HandleFunc("/", f.handleRoot).Methods(http.MethodGet)
	r.HandleFunc("/collections/{collection}/points/query", f.handleQuery).Methods(http.MethodPost)
	r.HandleFunc("/collections/{collection}/points/query/groups", f.handleGroups).Methods(http.MethodPost)
	r.HandleFunc("/collections/{collection}/points/query/batch", f.handleBatch).Methods(http.MethodPost)
	r.HandleFunc("/collections/{collection}/points/payload", f.handleUpdate).Methods(http.MethodPost)
	r.HandleFunc("/collections/{collection}/points/payload/delete", f.handleUpdate).Methods(http.MethodPost)
	r.Use(f.record)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Close)
	return f
}

func (f *fakeQdrant) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := f.inFlight.Add(1)
		defer f.inFlight.Add(-1)
		for {
			peak := f.maxInFlight.Load()
			if n <= peak || f.maxInFlight.CompareAndSwap(peak, n) {
				break
			}
		}

		var reader io.Reader = r.Body
		if r.Header.Get("Content-Encoding") == "gzip" {
			zr, err := gzip.NewReader(r.Body)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			defer zr.Close()
			reader = zr
		}
		body, err := io.ReadAll(reader)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.requests = append(f.requests, recordedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Header: r.Header.Clone(),
			Body:   body,
		})
		f.mu.Unlock()

		if f.delay > 0 {
			time.Sleep(f.delay)
		}
		r.Body = io.NopCloser(bytes.NewReader(body))
		next.ServeHTTP(w, r)
	})
}

func (f *fakeQdrant) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeQdrant) last(t *testing.T) recordedRequest {
	t.Helper()
	reqs := f.recorded()
	require.NotEmpty(t, reqs)
	return reqs[len(reqs)-1]
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func ok(result any) map[string]any {
	return map[string]any{"result": result, "status": "ok", "time": 0.001}
}

func notFound(w http.ResponseWriter, collection string) {
	writeJSON(w, http.StatusNotFound, map[string]any{
		"status": map[string]any{"error": "Not found: Collection `" + collection + "` doesn't exist!"},
		"time":   0,
	})
}

// points returns n hits with ids base+1..base+n and descending scores.
func points(base, n int64) []map[string]any {
	out := make([]map[string]any, 0, n)
	for i := int64(1); i <= n; i++ {
		out = append(out, map[string]any{
			"id":      base + i,
			"version": 1,
			"score":   1 - float64(i)/100,
			"payload": map[string]any{"document_id": "doc", "rank": i},
		})
	}
	return out
}

func limitOf(search gjson.Result) int64 {
	if l := search.Get("limit"); l.Exists() {
		return l.Int()
	}
	return 10
}

func (f *fakeQdrant) handleRoot(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"title": "qdrant - vector search engine", "version": "1.16.0"})
}

func (f *fakeQdrant) handleQuery(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]
	if collection == "missing" {
		notFound(w, collection)
		return
	}
	body, _ := io.ReadAll(r.Body)
	limit := limitOf(gjson.ParseBytes(body))
	if limit == 99 {
		writeJSON(w, http.StatusInternalServerError, map[string]any{"status": map[string]any{"error": "Service internal error"}})
		return
	}
	writeJSON(w, http.StatusOK, ok(map[string]any{"points": points(0, limit)}))
}

func (f *fakeQdrant) handleGroups(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	req := gjson.ParseBytes(body)
	size := req.Get("group_size").Int()
	groups := []map[string]any{
		{"id": "doc-a", "hits": points(0, size)},
		{"id": 7, "hits": points(100, 1)},
	}
	writeJSON(w, http.StatusOK, ok(map[string]any{"groups": groups[:min(int(req.Get("limit").Int()), len(groups))]}))
}

func (f *fakeQdrant) handleBatch(w http.ResponseWriter, r *http.Request) {
	collection := mux.Vars(r)["collection"]
	body, _ := io.ReadAll(r.Body)
	searches := gjson.GetBytes(body, "searches").Array()

	var slots []any
	for i, s := range searches {
		if collection == "partial" && i == 1 {
			slots = append(slots, map[string]any{"status": map[string]any{"error": "Wrong input: Not existing vector name"}})
			continue
		}
		slots = append(slots, map[string]any{"points": points(int64(i+1)*100, limitOf(s))})
	}
	if collection == "short" {
		slots = slots[:1]
	}
	writeJSON(w, http.StatusOK, ok(slots))
}

func (f *fakeQdrant) handleUpdate(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, ok(map[string]any{"operation_id": 42, "status": "completed"}))
}

func newTestClient(t *testing.T, f *fakeQdrant, opts ...Option) *QdrantClient {
	t.Helper()
	cfg := FromEndpoint(f.URL).WithCompatibilityCheck(false).WithDefaultCollection("docs")
	client, err := New(cfg, opts...)
	require.NoError(t, err)
	return client
}

func TestQueryPoints_RoundTrip(t *testing.T) {
	f := newFakeQdrant(t)
	cfg := FromEndpoint(f.URL + "/").WithApiKey("secret")
	client, err := New(cfg)
	require.NoError(t, err)

	req := QueryPointsRequest{
		Query:       NewNearestQuery(DenseVector{0.5, 0.25}),
		Using:       "dense",
		Limit:       u64(3),
		WithPayload: PayloadAll(),
	}
	res, err := client.QueryPoints(context.Background(), "my docs", req)
	require.NoError(t, err)
	require.Len(t, res.Points, 3)
	assert.Equal(t, NewPointIDUint(1), res.Points[0].ID)
	assert.Greater(t, res.Points[0].Score, res.Points[2].Score)

	var rank int
	require.NoError(t, res.Points[2].Payload.GetInto("rank", &rank))
	assert.Equal(t, 3, rank)

	got := f.last(t)
	assert.Equal(t, "/collections/my docs/points/query", got.Path)
	assert.Equal(t, "secret", got.Header.Get("api-key"))
	assert.Equal(t, "application/json", got.Header.Get("Content-Type"))
	assert.Empty(t, got.Header.Get("Content-Encoding"))

	want, err := EncodeRequest(req)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got.Body))
}

func TestQueryPoints_DefaultCollection(t *testing.T) {
	f := newFakeQdrant(t)
	client := newTestClient(t, f)

	_, err := client.QueryPoints(context.Background(), "", QueryPointsRequest{Limit: u64(1)})
	require.NoError(t, err)
	assert.Equal(t, "/collections/docs/points/query", f.last(t).Path)

	client.cfg.DefaultCollection = ""
	_, err = client.QueryPoints(context.Background(), "", QueryPointsRequest{Limit: u64(1)})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	var ve *ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, "collection", ve.Field)
	assert.Len(t, f.recorded(), 1)
}

func TestMissingCollectionCountsAsInvalid(t *testing.T) {
	f := newFakeQdrant(t)
	m := metrics.NewMetrics(metrics.Config{ServiceName: "search"})
	client, err := New(FromEndpoint(f.URL).WithCompatibilityCheck(false), WithMetrics(m))
	require.NoError(t, err)

	ctx := context.Background()
	_, err = client.QueryPoints(ctx, "", QueryPointsRequest{Limit: u64(1)})
	assert.True(t, IsValidationError(err))
	_, err = client.QueryPointsGrouped(ctx, "", QueryPointsGroupedRequest{GroupBy: "doc", Query: NewNearestQuery(DenseVector{0.5})})
	assert.True(t, IsValidationError(err))
	_, err = client.QueryPointsBatch(ctx, "", QueryPointsBatchRequest{Searches: []QueryPointsRequest{{Limit: u64(1)}}})
	assert.True(t, IsValidationError(err))
	assert.Empty(t, f.recorded())

	expected := `
# HELP qdrant_requests_total Total number of Qdrant requests by operation and outcome
# TYPE qdrant_requests_total counter
qdrant_requests_total{operation="query",service="search",status="invalid"} 1
qdrant_requests_total{operation="query_batch",service="search",status="invalid"} 1
qdrant_requests_total{operation="query_groups",service="search",status="invalid"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "qdrant_requests_total"))
}

func TestQueryPoints_InvalidRequestIsNotSent(t *testing.T) {
	f := newFakeQdrant(t)
	client := newTestClient(t, f)

	_, err := client.QueryPoints(context.Background(), "", QueryPointsRequest{
		Prefetch: []Prefetch{{Query: NewNearestQuery(DenseVector{0.5})}},
	})
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Empty(t, f.recorded())
}

func TestQueryPoints_RemoteErrors(t *testing.T) {
	f := newFakeQdrant(t)
	client := newTestClient(t, f)

	_, err := client.QueryPoints(context.Background(), "missing", QueryPointsRequest{})
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.StatusCode)
	assert.Contains(t, apiErr.Message, "doesn't exist")
	assert.ErrorIs(t, err, ErrRemote)

	_, err = client.QueryPoints(context.Background(), "", QueryPointsRequest{Limit: u64(99)})
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
	assert.Equal(t, "Service internal error", apiErr.Message)
}

func TestQueryPointsGrouped(t *testing.T) {
	f := newFakeQdrant(t)
	client := newTestClient(t, f)

	res, err := client.QueryPointsGrouped(context.Background(), "", QueryPointsGroupedRequest{
		Query:       NewNearestQuery(DenseVector{0.5}),
		GroupBy:     "document_id",
		GroupSize:   3,
		GroupsLimit: 2,
	})
	require.NoError(t, err)
	require.Len(t, res.Groups, 2)
	for _, g := range res.Groups {
		assert.LessOrEqual(t, len(g.Hits), 3)
	}
	assert.Equal(t, NewGroupIDString("doc-a"), res.Groups[0].ID)
	assert.Equal(t, NewGroupIDInt(7), res.Groups[1].ID)

	got := f.last(t)
	assert.Equal(t, "/collections/docs/points/query/groups", got.Path)
	assert.Equal(t, "document_id", gjson.GetBytes(got.Body, "group_by").String())
	assert.Equal(t, int64(2), gjson.GetBytes(got.Body, "limit").Int())

	_, err = client.QueryPointsGrouped(context.Background(), "", QueryPointsGroupedRequest{GroupBy: "x"})
	assert.True(t, IsValidationError(err))
	assert.Len(t, f.recorded(), 1)
}

func TestQueryPointsBatch(t *testing.T) {
	f := newFakeQdrant(t)
	client := newTestClient(t, f)

	req := QueryPointsBatchRequest{Searches: []QueryPointsRequest{
		{Query: NewNearestQuery(DenseVector{0.5}), Limit: u64(5)},
		{Query: NewNearestPointQuery(NewPointIDUint(3)), Limit: u64(5)},
	}}
	res, err := client.QueryPointsBatch(context.Background(), "", req)
	require.NoError(t, err)
	require.Len(t, res.Slots, 2)
	for i, slot := range res.Slots {
		require.NoError(t, slot.Err)
		require.Len(t, slot.Points, 5)
		assert.Equal(t, NewPointIDUint(uint64(i+1)*100+1), slot.Points[0].ID, "slot %d answers search %d", i, i)
	}
	assert.Equal(t, "/collections/docs/points/query/batch", f.last(t).Path)
	assert.Len(t, gjson.GetBytes(f.last(t).Body, "searches").Array(), 2)

	res, err = client.QueryPointsBatch(context.Background(), "partial", req)
	require.NoError(t, err)
	assert.NoError(t, res.Slots[0].Err)
	assert.ErrorIs(t, res.Slots[1].Err, ErrRemote)

	_, err = client.QueryPointsBatch(context.Background(), "short", req)
	assert.True(t, IsMalformedValue(err))
}

func TestSearchConcurrent(t *testing.T) {
	f := newFakeQdrant(t)
	f.delay = 20 * time.Millisecond
	client := newTestClient(t, f)
	client.cfg.MaxConcurrentSearches = 2

	reqs := make([]QueryPointsRequest, 6)
	for i := range reqs {
		reqs[i] = QueryPointsRequest{Query: NewNearestQuery(DenseVector{0.5}), Limit: u64(uint64(i + 1))}
	}
	reqs[4].Limit = u64(99)

	res, err := client.SearchConcurrent(context.Background(), "", reqs...)
	require.NoError(t, err)
	require.Len(t, res.Slots, 6)
	for i, slot := range res.Slots {
		if i == 4 {
			assert.ErrorIs(t, slot.Err, ErrRemote)
			continue
		}
		require.NoError(t, slot.Err)
		assert.Len(t, slot.Points, i+1)
	}
	assert.Len(t, f.recorded(), 6)
	assert.LessOrEqual(t, f.maxInFlight.Load(), int32(2))
}

func TestSearchConcurrent_ValidatesUpFront(t *testing.T) {
	f := newFakeQdrant(t)
	client := newTestClient(t, f)

	_, err := client.SearchConcurrent(context.Background(), "")
	assert.True(t, IsValidationError(err))

	_, err = client.SearchConcurrent(context.Background(), "",
		QueryPointsRequest{Limit: u64(1)},
		QueryPointsRequest{Query: NewFusionQuery(FusionRRF)},
	)
	require.Error(t, err)
	assert.True(t, IsValidationError(err))
	assert.Contains(t, err.Error(), "request [1]")
	assert.Empty(t, f.recorded())
}

func TestPayloadUpdates(t *testing.T) {
	f := newFakeQdrant(t)
	client := newTestClient(t, f)
	ctx := context.Background()

	res, err := client.SetPayload(ctx, "", SetPayloadRequest{
		Payload: map[string]any{"reviewed": true},
		Points:  []PointID{NewPointIDUint(1)},
	})
	require.NoError(t, err)
	assert.Equal(t, uint64(42), res.OperationID)
	assert.Equal(t, "completed", res.Status)

	got := f.last(t)
	assert.Equal(t, "/collections/docs/points/payload", got.Path)
	assert.Equal(t, "wait=true", got.Query)
	assert.JSONEq(t, `{"payload":{"reviewed":true},"points":[1]}`, string(got.Body))

	_, err = client.DeletePayloadKeys(ctx, "archive", DeletePayloadKeysRequest{
		Keys:   []string{"reviewed"},
		Filter: &FilterSet{Must: &ConditionSet{Conditions: []FilterCondition{BoolCondition{Key: "reviewed", Value: true}}}},
	})
	require.NoError(t, err)
	got = f.last(t)
	assert.Equal(t, "/collections/archive/points/payload/delete", got.Path)
	assert.JSONEq(t, `{"keys":["reviewed"],"filter":{"must":[{"key":"reviewed","match":{"value":true}}]}}`, string(got.Body))

	_, err = client.SetPayload(ctx, "", SetPayloadRequest{Payload: map[string]any{}})
	assert.True(t, IsValidationError(err))
	assert.Len(t, f.recorded(), 2)
}

func TestCompression(t *testing.T) {
	f := newFakeQdrant(t)
	client := newTestClient(t, f)
	client.cfg.Compression = true

	req := QueryPointsRequest{Query: NewNearestQuery(DenseVector{0.5}), Limit: u64(2)}
	res, err := client.QueryPoints(context.Background(), "", req)
	require.NoError(t, err)
	assert.Len(t, res.Points, 2)

	got := f.last(t)
	assert.Equal(t, "gzip", got.Header.Get("Content-Encoding"))
	want, err := EncodeRequest(req)
	require.NoError(t, err)
	assert.JSONEq(t, string(want), string(got.Body))
}

func TestTimeout(t *testing.T) {
	f := newFakeQdrant(t)
	f.delay = 200 * time.Millisecond
	client := newTestClient(t, f)
	client.cfg.Timeout = 20 * time.Millisecond

	_, err := client.QueryPoints(context.Background(), "", QueryPointsRequest{Limit: u64(1)})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestHealthCheckAndCompatibility(t *testing.T) {
	f := newFakeQdrant(t)
	client := newTestClient(t, f)

	info, err := client.HealthCheck(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.16.0", info.Version)

	_, err = NewQdrantClient(QdrantParams{Config: FromEndpoint(f.URL)})
	assert.NoError(t, err)

	down := httptest.NewServer(http.NotFoundHandler())
	down.Close()
	_, err = NewQdrantClient(QdrantParams{Config: FromEndpoint(down.URL)})
	assert.Error(t, err)

	_, err = NewQdrantClient(QdrantParams{Config: FromEndpoint("ftp://nowhere")})
	assert.Error(t, err)
}

func TestObservability(t *testing.T) {
	f := newFakeQdrant(t)

	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.NewFromZap(zap.New(core), true)
	m := metrics.NewMetrics(metrics.Config{ServiceName: "search"})
	recorder := tracetest.NewSpanRecorder()
	tr := tracer.NewWithProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)), log)

	client, err := NewQdrantClient(QdrantParams{
		Config:  FromEndpoint(f.URL).WithCompatibilityCheck(false).WithDefaultCollection("docs"),
		Logger:  log,
		Metrics: m,
		Tracer:  tr,
	})
	require.NoError(t, err)

	ctx := context.Background()
	_, err = client.QueryPoints(ctx, "", QueryPointsRequest{Limit: u64(1)})
	require.NoError(t, err)
	_, err = client.QueryPoints(ctx, "", QueryPointsRequest{Query: NewFusionQuery(FusionRRF)})
	require.Error(t, err)
	_, err = client.QueryPoints(ctx, "missing", QueryPointsRequest{})
	require.Error(t, err)

	expected := `
# HELP qdrant_requests_total Total number of Qdrant requests by operation and outcome
# TYPE qdrant_requests_total counter
qdrant_requests_total{operation="query",service="search",status="error"} 1
qdrant_requests_total{operation="query",service="search",status="invalid"} 1
qdrant_requests_total{operation="query",service="search",status="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(m.Registry, strings.NewReader(expected), "qdrant_requests_total"))

	spans := recorder.Ended()
	require.Len(t, spans, 3)
	for _, s := range spans {
		assert.Equal(t, "qdrant.query", s.Name())
	}
	assert.Equal(t, codes.Unset, spans[0].Status().Code)
	assert.Equal(t, codes.Error, spans[1].Status().Code)
	assert.Equal(t, codes.Error, spans[2].Status().Code)

	reqs := f.recorded()
	require.Len(t, reqs, 2)
	traceparent := reqs[0].Header.Get("traceparent")
	require.NotEmpty(t, traceparent)
	assert.Contains(t, traceparent, spans[0].SpanContext().TraceID().String())

	assert.Equal(t, 1, logs.FilterMessage("[Qdrant] request completed").Len())
	failed := logs.FilterMessage("[Qdrant] request failed").All()
	require.Len(t, failed, 2)
	assert.Equal(t, "invalid", failed[0].ContextMap()["status"])
	assert.Equal(t, "error", failed[1].ContextMap()["status"])
	assert.NotEmpty(t, failed[1].ContextMap()["trace_id"])
}

func TestFXModule(t *testing.T) {
	f := newFakeQdrant(t)

	var client *QdrantClient
	app := fxtest.New(t,
		FXModule,
		fx.Provide(func() *Config { return FromEndpoint(f.URL).WithDefaultCollection("docs") }),
		fx.Populate(&client),
	)
	app.RequireStart()

	res, err := client.QueryPoints(context.Background(), "", QueryPointsRequest{Limit: u64(2)})
	require.NoError(t, err)
	assert.Len(t, res.Points, 2)

	app.RequireStop()
	assert.Equal(t, "/", f.recorded()[0].Path, "startup runs the compatibility check")
}
