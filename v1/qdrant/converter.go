package qdrant

import (
	"fmt"

	qdrant "github.com/qdrant/go-client/qdrant"
)

// ── gRPC Conversion ─────────────────────────────────────────────────────────
//
// The REST model converts to the request types of the official gRPC client,
// so the same request value can be sent over either transport. Byte vectors
// are widened to float32 because the gRPC vector messages carry floats only.

// ToQdrantPointID converts a point id. An unset id yields nil.
func ToQdrantPointID(id PointID) *qdrant.PointId {
	switch id.kind {
	case scalarInteger:
		return qdrant.NewIDNum(id.num)
	case scalarString:
		return qdrant.NewID(id.str)
	default:
		return nil
	}
}

func toQdrantPointIDs(ids []PointID) []*qdrant.PointId {
	out := make([]*qdrant.PointId, 0, len(ids))
	for _, id := range ids {
		if pid := ToQdrantPointID(id); pid != nil {
			out = append(out, pid)
		}
	}
	return out
}

// ToQdrantShardKey converts a shard key. An unset key yields nil.
func ToQdrantShardKey(key ShardKey) *qdrant.ShardKey {
	switch key.kind {
	case scalarInteger:
		return qdrant.NewShardKeyNum(key.num)
	case scalarString:
		return qdrant.NewShardKey(key.str)
	default:
		return nil
	}
}

// ToQdrantShardKeySelector converts a list of shard keys, nil when empty.
func ToQdrantShardKeySelector(keys []ShardKey) *qdrant.ShardKeySelector {
	if len(keys) == 0 {
		return nil
	}
	sel := &qdrant.ShardKeySelector{}
	for _, k := range keys {
		if sk := ToQdrantShardKey(k); sk != nil {
			sel.ShardKeys = append(sel.ShardKeys, sk)
		}
	}
	return sel
}

// ToQdrantVector converts a single (non-named) vector.
func ToQdrantVector(v Vector) (*qdrant.Vector, error) {
	switch t := v.(type) {
	case DenseVector:
		return qdrant.NewVectorDense(t), nil
	case DenseByteVector:
		return qdrant.NewVectorDense(widen(t)), nil
	case SparseVector:
		return qdrant.NewVectorSparse(t.Indices, t.Values), nil
	case SparseByteVector:
		return qdrant.NewVectorSparse(t.Indices, widen(t.Values)), nil
	case MultiVector:
		return qdrant.NewVectorMulti(t), nil
	default:
		return nil, unsupported("%s cannot be converted to a single gRPC vector", describe(v))
	}
}

// ToQdrantVectors converts the vectors of a point. Named vectors become a
// vector map.
func ToQdrantVectors(v Vector) (*qdrant.Vectors, error) {
	if v == nil {
		return nil, unsupported("no vector")
	}
	if err := v.validate(); err != nil {
		return nil, err
	}
	named, ok := v.(NamedVectors)
	if !ok {
		single, err := ToQdrantVector(v)
		if err != nil {
			return nil, err
		}
		return &qdrant.Vectors{VectorsOptions: &qdrant.Vectors_Vector{Vector: single}}, nil
	}
	m := make(map[string]*qdrant.Vector, named.Len())
	for _, e := range named.Entries() {
		vec, err := ToQdrantVector(e.Vector)
		if err != nil {
			return nil, withKey(err, e.Name)
		}
		m[e.Name] = vec
	}
	return qdrant.NewVectorsMap(m), nil
}

// ToQdrantPointStruct builds a point for the gRPC upsert call.
func ToQdrantPointStruct(id PointID, v Vector, payload map[string]any) (*qdrant.PointStruct, error) {
	pid := ToQdrantPointID(id)
	if pid == nil {
		return nil, invalid("id", "point id is not set")
	}
	vectors, err := ToQdrantVectors(v)
	if err != nil {
		return nil, err
	}
	return &qdrant.PointStruct{
		Id:      pid,
		Vectors: vectors,
		Payload: qdrant.NewValueMap(payload),
	}, nil
}

// ToQdrantQuery converts a query, nil when q is nil.
func ToQdrantQuery(q PointsQuery) (*qdrant.Query, error) {
	q = normalizeQuery(q)
	if q == nil {
		return nil, nil
	}
	if err := q.validate("query"); err != nil {
		return nil, err
	}
	switch t := q.(type) {
	case NearestQuery:
		if t.point != nil {
			return qdrant.NewQueryID(ToQdrantPointID(*t.point)), nil
		}
		return nearestToQdrant(t.vector)
	case FusionQuery:
		if t.Algorithm == FusionDBSF {
			return qdrant.NewQueryFusion(qdrant.Fusion_DBSF), nil
		}
		return qdrant.NewQueryFusion(qdrant.Fusion_RRF), nil
	case OrderByQuery:
		return qdrant.NewQueryOrderBy(orderByToQdrant(t)), nil
	case SampleQuery:
		return qdrant.NewQuerySample(qdrant.Sample_Random), nil
	default:
		return nil, unsupported("query %T has no gRPC form", q)
	}
}

func nearestToQdrant(v Vector) (*qdrant.Query, error) {
	switch t := v.(type) {
	case DenseVector:
		return qdrant.NewQueryDense(t), nil
	case DenseByteVector:
		return qdrant.NewQueryDense(widen(t)), nil
	case SparseVector:
		return qdrant.NewQuerySparse(t.Indices, t.Values), nil
	case SparseByteVector:
		return qdrant.NewQuerySparse(t.Indices, widen(t.Values)), nil
	case MultiVector:
		return qdrant.NewQueryMulti(t), nil
	default:
		return nil, unsupported("nearest query on %s; pick one vector and set Using", describe(v))
	}
}

func orderByToQdrant(q OrderByQuery) *qdrant.OrderBy {
	direction := qdrant.Direction_Asc
	if q.direction() == DirectionDesc {
		direction = qdrant.Direction_Desc
	}
	out := &qdrant.OrderBy{Key: q.Key, Direction: direction.Enum()}
	if s := q.StartFrom; s != nil {
		switch {
		case s.time != nil:
			out.StartFrom = qdrant.NewStartFromTimestamp(s.time.Unix(), int32(s.time.Nanosecond()))
		case s.num != nil:
			out.StartFrom = qdrant.NewStartFromFloat(*s.num)
		}
	}
	return out
}

// ToQdrantFilter converts a request filter. Only *FilterSet and FilterSet
// have a gRPC form; raw JSON filters are rejected.
func ToQdrantFilter(filter any) (*qdrant.Filter, error) {
	if isNil(filter) {
		return nil, nil
	}
	switch f := filter.(type) {
	case *FilterSet:
		return f.ToQdrantFilter(), nil
	case FilterSet:
		return f.ToQdrantFilter(), nil
	default:
		return nil, unsupported("filter of type %T has no gRPC form", filter)
	}
}

// ToQdrantPrefetch converts a prefetch tree.
func ToQdrantPrefetch(p Prefetch) (*qdrant.PrefetchQuery, error) {
	if err := validateQueryTree("", p.Query, p.Prefetch); err != nil {
		return nil, err
	}
	return prefetchToQdrant(p)
}

func prefetchToQdrant(p Prefetch) (*qdrant.PrefetchQuery, error) {
	nested, err := prefetchListToQdrant(p.Prefetch)
	if err != nil {
		return nil, err
	}
	query, err := ToQdrantQuery(p.Query)
	if err != nil {
		return nil, err
	}
	filter, err := ToQdrantFilter(p.Filter)
	if err != nil {
		return nil, err
	}
	return &qdrant.PrefetchQuery{
		Prefetch:       nested,
		Query:          query,
		Using:          optionalString(p.Using),
		Filter:         filter,
		Params:         searchParamsToQdrant(p.Params),
		ScoreThreshold: p.ScoreThreshold,
		Limit:          p.Limit,
		LookupFrom:     lookupLocationToQdrant(p.LookupFrom),
	}, nil
}

func prefetchListToQdrant(list []Prefetch) ([]*qdrant.PrefetchQuery, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := make([]*qdrant.PrefetchQuery, len(list))
	for i, p := range list {
		pq, err := prefetchToQdrant(p)
		if err != nil {
			return nil, fmt.Errorf("prefetch[%d]: %w", i, err)
		}
		out[i] = pq
	}
	return out, nil
}

// ToQdrantQueryPoints converts a query request for collection.
func ToQdrantQueryPoints(collection string, r QueryPointsRequest) (*qdrant.QueryPoints, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	base, err := prefetchToQdrant(Prefetch{Prefetch: r.Prefetch, Query: r.Query, Filter: r.Filter})
	if err != nil {
		return nil, err
	}
	return &qdrant.QueryPoints{
		CollectionName:   collection,
		Prefetch:         base.Prefetch,
		Query:            base.Query,
		Using:            optionalString(r.Using),
		Filter:           base.Filter,
		Params:           searchParamsToQdrant(r.Params),
		ScoreThreshold:   r.ScoreThreshold,
		Limit:            r.Limit,
		Offset:           r.Offset,
		WithPayload:      payloadSelectorToQdrant(r.WithPayload),
		WithVectors:      vectorSelectorToQdrant(r.WithVector),
		ShardKeySelector: ToQdrantShardKeySelector(r.ShardKey),
		LookupFrom:       lookupLocationToQdrant(r.LookupFrom),
	}, nil
}

// ToQdrantQueryGroups converts a grouped query request for collection.
func ToQdrantQueryGroups(collection string, r QueryPointsGroupedRequest) (*qdrant.QueryPointGroups, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	base, err := prefetchToQdrant(Prefetch{Prefetch: r.Prefetch, Query: r.Query, Filter: r.Filter})
	if err != nil {
		return nil, err
	}
	groupSize, limit := r.GroupSize, r.GroupsLimit
	out := &qdrant.QueryPointGroups{
		CollectionName:   collection,
		Prefetch:         base.Prefetch,
		Query:            base.Query,
		Using:            optionalString(r.Using),
		Filter:           base.Filter,
		Params:           searchParamsToQdrant(r.Params),
		ScoreThreshold:   r.ScoreThreshold,
		WithPayload:      payloadSelectorToQdrant(r.WithPayload),
		WithVectors:      vectorSelectorToQdrant(r.WithVector),
		LookupFrom:       lookupLocationToQdrant(r.LookupFrom),
		Limit:            &limit,
		GroupSize:        &groupSize,
		GroupBy:          r.GroupBy,
		ShardKeySelector: ToQdrantShardKeySelector(r.ShardKey),
	}
	if l := r.WithLookup; l != nil {
		out.WithLookup = &qdrant.WithLookup{
			Collection:  l.Collection,
			WithPayload: payloadSelectorToQdrant(l.WithPayload),
			WithVectors: vectorSelectorToQdrant(l.WithVectors),
		}
	}
	return out, nil
}

// ToQdrantQueryBatch converts a batch request for collection. Search order
// is preserved.
func ToQdrantQueryBatch(collection string, r QueryPointsBatchRequest) (*qdrant.QueryBatchPoints, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	out := &qdrant.QueryBatchPoints{CollectionName: collection}
	for i, s := range r.Searches {
		qp, err := ToQdrantQueryPoints(collection, s)
		if err != nil {
			return nil, fmt.Errorf("searches[%d]: %w", i, err)
		}
		out.QueryPoints = append(out.QueryPoints, qp)
	}
	return out, nil
}

func payloadSelectorToQdrant(s *PayloadSelector) *qdrant.WithPayloadSelector {
	switch {
	case s == nil:
		return nil
	case s.Enable && len(s.Include) > 0:
		return qdrant.NewWithPayloadInclude(s.Include...)
	case s.Enable && len(s.Exclude) > 0:
		return qdrant.NewWithPayloadExclude(s.Exclude...)
	default:
		return qdrant.NewWithPayload(s.Enable)
	}
}

func vectorSelectorToQdrant(s *VectorSelector) *qdrant.WithVectorsSelector {
	switch {
	case s == nil:
		return nil
	case s.Enable && len(s.Names) > 0:
		return qdrant.NewWithVectorsInclude(s.Names...)
	default:
		return qdrant.NewWithVectors(s.Enable)
	}
}

func searchParamsToQdrant(p *SearchParams) *qdrant.SearchParams {
	if p == nil {
		return nil
	}
	out := &qdrant.SearchParams{
		HnswEf:      p.HnswEf,
		Exact:       p.Exact,
		IndexedOnly: p.IndexedOnly,
	}
	if q := p.Quantization; q != nil {
		out.Quantization = &qdrant.QuantizationSearchParams{
			Ignore:       q.Ignore,
			Rescore:      q.Rescore,
			Oversampling: q.Oversampling,
		}
	}
	return out
}

func lookupLocationToQdrant(l *LookupLocation) *qdrant.LookupLocation {
	if l == nil {
		return nil
	}
	return &qdrant.LookupLocation{
		CollectionName: l.Collection,
		VectorName:     optionalString(l.Vector),
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
