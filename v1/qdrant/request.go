package qdrant

import (
	"encoding/json"
	"fmt"
)

// Request is a request body the client can send. Validate runs before any
// bytes are produced.
type Request interface {
	Validate() error
	MarshalJSON() ([]byte, error)
}

// EncodeRequest validates r and returns its JSON body.
func EncodeRequest(r Request) (json.RawMessage, error) {
	if r == nil {
		return nil, invalid("", "no request")
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r.MarshalJSON()
}

// QueryPointsRequest is the body of POST /collections/{name}/points/query.
//
// A request with prefetches must carry a Query that merges them. A request
// with neither returns points matching Filter, like a scroll.
type QueryPointsRequest struct {
	Prefetch       []Prefetch
	Query          PointsQuery
	Using          string
	Filter         any
	Params         *SearchParams
	ScoreThreshold *float32
	Limit          *uint64
	Offset         *uint64
	WithPayload    *PayloadSelector
	WithVector     *VectorSelector
	ShardKey       []ShardKey
	LookupFrom     *LookupLocation
}

type queryPointsWire struct {
	Prefetch       []prefetchWire    `json:"prefetch,omitempty"`
	Query          json.RawMessage   `json:"query,omitempty"`
	Using          string            `json:"using,omitempty"`
	Filter         json.RawMessage   `json:"filter,omitempty"`
	Params         *SearchParams     `json:"params,omitempty"`
	ScoreThreshold *float32          `json:"score_threshold,omitempty"`
	Limit          *uint64           `json:"limit,omitempty"`
	Offset         *uint64           `json:"offset,omitempty"`
	WithPayload    *PayloadSelector  `json:"with_payload,omitempty"`
	WithVector     *VectorSelector   `json:"with_vector,omitempty"`
	ShardKey       *shardKeySelector `json:"shard_key,omitempty"`
	LookupFrom     *LookupLocation   `json:"lookup_from,omitempty"`
}

// Validate checks the query tree.
func (r QueryPointsRequest) Validate() error {
	return validateQueryTree("", r.Query, r.Prefetch)
}

// MarshalJSON validates the request and writes it.
func (r QueryPointsRequest) MarshalJSON() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	w, err := r.wire()
	if err != nil {
		return nil, err
	}
	return marshalJSON(w)
}

func (r QueryPointsRequest) wire() (queryPointsWire, error) {
	root := Prefetch{
		Prefetch: r.Prefetch,
		Query:    r.Query,
		Filter:   r.Filter,
	}
	base, err := root.wire()
	if err != nil {
		return queryPointsWire{}, err
	}
	return queryPointsWire{
		Prefetch:       base.Prefetch,
		Query:          base.Query,
		Using:          r.Using,
		Filter:         base.Filter,
		Params:         r.Params,
		ScoreThreshold: r.ScoreThreshold,
		Limit:          r.Limit,
		Offset:         r.Offset,
		WithPayload:    r.WithPayload,
		WithVector:     r.WithVector,
		ShardKey:       selectShardKeys(r.ShardKey),
		LookupFrom:     r.LookupFrom,
	}, nil
}

// QueryPointsGroupedRequest is the body of
// POST /collections/{name}/points/query/groups. Hits are grouped by the
// payload field GroupBy; at most GroupsLimit groups of at most GroupSize hits
// each are returned.
type QueryPointsGroupedRequest struct {
	Prefetch       []Prefetch
	Query          PointsQuery
	Using          string
	Filter         any
	Params         *SearchParams
	ScoreThreshold *float32
	WithPayload    *PayloadSelector
	WithVector     *VectorSelector
	ShardKey       []ShardKey
	LookupFrom     *LookupLocation

	GroupBy     string
	GroupSize   uint64
	GroupsLimit uint64
	WithLookup  *WithLookup
}

type queryGroupsWire struct {
	Prefetch       []prefetchWire    `json:"prefetch,omitempty"`
	Query          json.RawMessage   `json:"query,omitempty"`
	Using          string            `json:"using,omitempty"`
	Filter         json.RawMessage   `json:"filter,omitempty"`
	Params         *SearchParams     `json:"params,omitempty"`
	ScoreThreshold *float32          `json:"score_threshold,omitempty"`
	WithPayload    *PayloadSelector  `json:"with_payload,omitempty"`
	WithVector     *VectorSelector   `json:"with_vector,omitempty"`
	ShardKey       *shardKeySelector `json:"shard_key,omitempty"`
	LookupFrom     *LookupLocation   `json:"lookup_from,omitempty"`
	GroupBy        string            `json:"group_by"`
	GroupSize      uint64            `json:"group_size"`
	Limit          uint64            `json:"limit"`
	WithLookup     *WithLookup       `json:"with_lookup,omitempty"`
}

// Validate checks the query tree and the grouping parameters.
func (r QueryPointsGroupedRequest) Validate() error {
	if err := validateQueryTree("", r.Query, r.Prefetch); err != nil {
		return err
	}
	switch {
	case r.GroupBy == "":
		return invalid("group_by", "group by field must not be empty")
	case r.GroupSize < 1:
		return invalid("group_size", "group size must be at least 1")
	case r.GroupsLimit < 1:
		return invalid("limit", "groups limit must be at least 1")
	case r.WithLookup != nil && r.WithLookup.Collection == "":
		return invalid("with_lookup.collection", "lookup collection must not be empty")
	}
	return nil
}

// MarshalJSON validates the request and writes it.
func (r QueryPointsGroupedRequest) MarshalJSON() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	base, err := Prefetch{Prefetch: r.Prefetch, Query: r.Query, Filter: r.Filter}.wire()
	if err != nil {
		return nil, err
	}
	return marshalJSON(queryGroupsWire{
		Prefetch:       base.Prefetch,
		Query:          base.Query,
		Using:          r.Using,
		Filter:         base.Filter,
		Params:         r.Params,
		ScoreThreshold: r.ScoreThreshold,
		WithPayload:    r.WithPayload,
		WithVector:     r.WithVector,
		ShardKey:       selectShardKeys(r.ShardKey),
		LookupFrom:     r.LookupFrom,
		GroupBy:        r.GroupBy,
		GroupSize:      r.GroupSize,
		Limit:          r.GroupsLimit,
		WithLookup:     r.WithLookup,
	})
}

// QueryPointsBatchRequest is the body of POST /collections/{name}/points/query/batch.
// Result slot i answers Searches[i].
type QueryPointsBatchRequest struct {
	Searches []QueryPointsRequest
}

// Validate checks every search; errors name the offending slot.
func (r QueryPointsBatchRequest) Validate() error {
	if len(r.Searches) == 0 {
		return invalid("searches", "batch needs at least one search")
	}
	for i, s := range r.Searches {
		if err := validateQueryTree(fmt.Sprintf("searches[%d]", i), s.Query, s.Prefetch); err != nil {
			return err
		}
	}
	return nil
}

// MarshalJSON validates the batch and writes {"searches": [...]}.
func (r QueryPointsBatchRequest) MarshalJSON() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	searches := make([]queryPointsWire, len(r.Searches))
	for i, s := range r.Searches {
		w, err := s.wire()
		if err != nil {
			return nil, fmt.Errorf("searches[%d]: %w", i, err)
		}
		searches[i] = w
	}
	return marshalJSON(map[string][]queryPointsWire{"searches": searches})
}
