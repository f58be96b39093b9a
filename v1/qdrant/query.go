package qdrant

import (
	"time"
)

// PointsQuery is the ranking strategy of a request or prefetch. The set of
// implementations is closed: NearestQuery, FusionQuery, OrderByQuery and
// SampleQuery. A nil PointsQuery means no query.
type PointsQuery interface {
	MarshalJSON() ([]byte, error)

	// validate checks the query; field is its path in the request.
	validate(field string) error
}

// NearestQuery ranks points by similarity to a vector or to a stored point.
type NearestQuery struct {
	vector Vector
	point  *PointID
}

// NewNearestQuery ranks by similarity to v.
func NewNearestQuery(v Vector) NearestQuery {
	return NearestQuery{vector: v}
}

// NewNearestPointQuery ranks by similarity to the vector of a stored point.
func NewNearestPointQuery(id PointID) NearestQuery {
	return NearestQuery{point: &id}
}

// Vector returns the target vector, if the query targets one.
func (q NearestQuery) Vector() (Vector, bool) { return q.vector, q.vector != nil }

// PointID returns the target point, if the query targets one.
func (q NearestQuery) PointID() (PointID, bool) {
	if q.point == nil {
		return PointID{}, false
	}
	return *q.point, true
}

func (q NearestQuery) validate(field string) error {
	switch {
	case q.vector != nil:
		if err := q.vector.validate(); err != nil {
			return invalid(field, "invalid nearest vector: %v", err)
		}
		return nil
	case q.point != nil:
		if q.point.kind == scalarUnset {
			return invalid(field, "nearest point id is not set")
		}
		return nil
	default:
		return invalid(field, "nearest query needs a vector or a point id")
	}
}

// MarshalJSON writes the raw vector or point id.
func (q NearestQuery) MarshalJSON() ([]byte, error) {
	if err := q.validate("query"); err != nil {
		return nil, err
	}
	if q.vector != nil {
		return EncodeVector(q.vector)
	}
	return q.point.MarshalJSON()
}

// Fusion is a rank fusion algorithm.
type Fusion string

const (
	// FusionRRF is reciprocal rank fusion.
	FusionRRF Fusion = "rrf"
	// FusionDBSF is distribution-based score fusion.
	FusionDBSF Fusion = "dbsf"
)

// FusionQuery merges the results of the prefetches.
type FusionQuery struct {
	Algorithm Fusion
}

// NewFusionQuery returns a fusion query using algorithm.
func NewFusionQuery(algorithm Fusion) FusionQuery {
	return FusionQuery{Algorithm: algorithm}
}

func (q FusionQuery) validate(field string) error {
	switch q.Algorithm {
	case FusionRRF, FusionDBSF:
		return nil
	default:
		return invalid(field, "unknown fusion algorithm %q", q.Algorithm)
	}
}

// MarshalJSON writes {"fusion": "rrf"|"dbsf"}.
func (q FusionQuery) MarshalJSON() ([]byte, error) {
	if err := q.validate("query"); err != nil {
		return nil, err
	}
	return marshalJSON(map[string]Fusion{"fusion": q.Algorithm})
}

// Direction is the sort direction of an order-by query.
type Direction string

const (
	DirectionAsc  Direction = "asc"
	DirectionDesc Direction = "desc"
)

// StartFrom is the value an order-by query starts from: a number or a
// timestamp.
type StartFrom struct {
	num  *float64
	time *time.Time
}

// StartFromNumber starts ordering at n.
func StartFromNumber(n float64) *StartFrom { return &StartFrom{num: &n} }

// StartFromTime starts ordering at t.
func StartFromTime(t time.Time) *StartFrom { return &StartFrom{time: &t} }

// MarshalJSON writes a number or an RFC 3339 timestamp.
func (s StartFrom) MarshalJSON() ([]byte, error) {
	if s.time != nil {
		return marshalJSON(s.time.UTC().Format(time.RFC3339Nano))
	}
	if s.num != nil {
		return marshalJSON(*s.num)
	}
	return []byte("null"), nil
}

// OrderByQuery orders points by a payload field. Ties and missing values are
// handled by the server.
type OrderByQuery struct {
	Key       string
	Direction Direction // defaults to ascending
	StartFrom *StartFrom
}

// NewOrderByQuery orders by key in direction.
func NewOrderByQuery(key string, direction Direction) OrderByQuery {
	return OrderByQuery{Key: key, Direction: direction}
}

func (q OrderByQuery) direction() Direction {
	if q.Direction == "" {
		return DirectionAsc
	}
	return q.Direction
}

func (q OrderByQuery) validate(field string) error {
	if q.Key == "" {
		return invalid(field, "order by key must not be empty")
	}
	switch q.direction() {
	case DirectionAsc, DirectionDesc:
	default:
		return invalid(field, "unknown order direction %q", q.Direction)
	}
	if q.StartFrom != nil && q.StartFrom.num == nil && q.StartFrom.time == nil {
		return invalid(field, "order by start_from has no value")
	}
	return nil
}

type orderByWire struct {
	Key       string     `json:"key"`
	Direction Direction  `json:"direction"`
	StartFrom *StartFrom `json:"start_from,omitempty"`
}

// MarshalJSON writes {"order_by": {"key": ..., "direction": ...}}.
func (q OrderByQuery) MarshalJSON() ([]byte, error) {
	if err := q.validate("query"); err != nil {
		return nil, err
	}
	return marshalJSON(map[string]orderByWire{"order_by": {
		Key:       q.Key,
		Direction: q.direction(),
		StartFrom: q.StartFrom,
	}})
}

// SampleQuery returns points in random order. It takes no target.
type SampleQuery struct{}

func (SampleQuery) validate(string) error { return nil }

// MarshalJSON writes {"sample": "random"}.
func (SampleQuery) MarshalJSON() ([]byte, error) {
	return []byte(`{"sample":"random"}`), nil
}

// normalizeQuery maps a nil pointer to the absent query and any other pointer
// to the query it points at.
func normalizeQuery(q PointsQuery) PointsQuery {
	switch t := q.(type) {
	case *NearestQuery:
		if t == nil {
			return nil
		}
		return *t
	case *FusionQuery:
		if t == nil {
			return nil
		}
		return *t
	case *OrderByQuery:
		if t == nil {
			return nil
		}
		return *t
	case *SampleQuery:
		if t == nil {
			return nil
		}
		return *t
	}
	return q
}
