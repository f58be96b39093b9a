// Package qdrant provides a typed, dependency-injected client for the Qdrant REST API.
//
// The package models what a caller sends to and reads back from the
// /collections/{name}/points endpoints: vectors in all their wire shapes,
// point, shard and group identifiers, composable queries with nested
// prefetches, grouped and batched requests, and the responses they produce.
// Every request is validated before it is serialized, so a malformed query
// tree fails locally with a *ValidationError instead of a remote 400.
//
// # Core Features
//
//   - Vector codec for dense, sparse, multi and named vectors with byte detection
//   - Point ids, shard keys and group ids as integer-or-string values
//   - Nearest, fusion, order-by and sample queries with nested prefetches
//   - Grouped queries, batched queries and bounded concurrent fan-out
//   - Payload updates (set, delete keys) by id list or filter
//   - Filter builder rendering to REST JSON and to gRPC conditions
//   - Conversion of every request to the official gRPC client types
//   - Fx module, zap logging, Prometheus metrics and OpenTelemetry spans
//
// # Vectors
//
// A Vector is one of DenseVector, DenseByteVector, SparseVector,
// SparseByteVector, MultiVector or NamedVectors. Decoding picks the variant
// from the JSON shape; numeric arrays whose values are all integers in
// [0, 255] decode to the byte variants:
//
//	v, err := qdrant.DecodeVectorJSON([]byte(`[1, 2, 3]`))
//	// v is qdrant.DenseByteVector{1, 2, 3}
//
//	v, err = qdrant.DecodeVectorJSON([]byte(`{"indices": [0, 5], "values": [0.5, 0.7]}`))
//	// v is qdrant.SparseVector
//
// Named vectors keep their document order on both decode and encode.
//
// # Basic Usage
//
//	import "github.com/Aleph-Alpha/qdrant-http/v1/qdrant"
//
//	client, err := qdrant.New(qdrant.FromEndpoint("http://localhost:6333"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	limit := uint64(5)
//	res, err := client.QueryPoints(ctx, "documents", qdrant.QueryPointsRequest{
//	    Query:       qdrant.NewNearestQuery(qdrant.DenseVector{0.12, 0.43, 0.85}),
//	    Limit:       &limit,
//	    WithPayload: qdrant.PayloadAll(),
//	})
//	for _, p := range res.Points {
//	    fmt.Println(p.ID, p.Score)
//	}
//
// # Hybrid Queries
//
// Prefetches run first; the root query merges their results. A request with
// prefetches must carry a query, and a fusion query must have prefetches:
//
//	req := qdrant.QueryPointsRequest{
//	    Prefetch: []qdrant.Prefetch{
//	        {Query: qdrant.NewNearestQuery(dense), Using: "dense", Limit: &limit},
//	        {Query: qdrant.NewNearestQuery(sparse), Using: "sparse", Limit: &limit},
//	    },
//	    Query: qdrant.NewFusionQuery(qdrant.FusionRRF),
//	}
//
// # Grouping and Batching
//
//	groups, err := client.QueryPointsGrouped(ctx, "documents", qdrant.QueryPointsGroupedRequest{
//	    Query:       qdrant.NewNearestQuery(dense),
//	    GroupBy:     "document_id",
//	    GroupSize:   3,
//	    GroupsLimit: 10,
//	})
//
//	batch, err := client.QueryPointsBatch(ctx, "documents", qdrant.QueryPointsBatchRequest{
//	    Searches: []qdrant.QueryPointsRequest{first, second},
//	})
//	// batch.Slots[i] answers Searches[i]
//
// # Filtering
//
//	filters := &qdrant.FilterSet{
//	    Must: &qdrant.ConditionSet{
//	        Conditions: []qdrant.FilterCondition{
//	            qdrant.TextCondition{Key: "city", Value: "London"},
//	            qdrant.TextCondition{Key: "author", Value: "kim", FieldType: qdrant.UserField},
//	        },
//	    },
//	}
//	req.Filter = filters
//
// User fields live under the "custom." payload prefix; see BuildPayload.
//
// # Error Handling
//
// Decoding errors are *CodecError values; use IsMalformedValue, IsEmptyValue,
// IsTypeMismatch, IsKeyNotFound and IsUnsupportedVariant to classify them.
// Request validation fails with *ValidationError, whose Field is the path of
// the offending element (e.g. "prefetch[1].query"). Non-2xx responses and
// error statuses are *APIError.
//
// # Fx Integration
//
//	app := fx.New(
//	    logger.FXModule,
//	    metrics.FXModule,
//	    tracer.FXModule,
//	    qdrant.FXModule,
//	    fx.Provide(func() (*qdrant.Config, error) { return qdrant.LoadConfig("qdrant.yaml") }),
//	)
//
// # Configuration
//
// Config is read from YAML and then overridden from the environment:
//
//	QDRANT_ENDPOINT=http://qdrant:6333
//	QDRANT_API_KEY=secret
//	QDRANT_DEFAULT_COLLECTION=documents
//	QDRANT_TIMEOUT=10s
//	QDRANT_MAX_CONCURRENT_SEARCHES=8
//	QDRANT_COMPRESSION=true
//	QDRANT_CHECK_COMPATIBILITY=true
//
// # Thread Safety
//
// QdrantClient is safe for concurrent use. Vector, id and request values are
// immutable once built and may be shared between goroutines.
package qdrant
