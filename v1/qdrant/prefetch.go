package qdrant

import (
	"encoding/json"
)

// Prefetch is a sub-query whose results are merged by the query of the
// enclosing request or prefetch. Prefetches nest.
type Prefetch struct {
	Prefetch       []Prefetch
	Query          PointsQuery
	Using          string // named vector to search, "" for the default one
	Filter         any    // *FilterSet, json.RawMessage or any JSON-encodable value
	Params         *SearchParams
	ScoreThreshold *float32
	Limit          *uint64
	LookupFrom     *LookupLocation
}

type prefetchWire struct {
	Prefetch       []prefetchWire  `json:"prefetch,omitempty"`
	Query          json.RawMessage `json:"query,omitempty"`
	Using          string          `json:"using,omitempty"`
	Filter         json.RawMessage `json:"filter,omitempty"`
	Params         *SearchParams   `json:"params,omitempty"`
	ScoreThreshold *float32        `json:"score_threshold,omitempty"`
	Limit          *uint64         `json:"limit,omitempty"`
	LookupFrom     *LookupLocation `json:"lookup_from,omitempty"`
}

// MarshalJSON validates the prefetch tree and writes it.
func (p Prefetch) MarshalJSON() ([]byte, error) {
	if err := validateQueryTree("", p.Query, p.Prefetch); err != nil {
		return nil, err
	}
	w, err := p.wire()
	if err != nil {
		return nil, err
	}
	return marshalJSON(w)
}

func (p Prefetch) wire() (prefetchWire, error) {
	w := prefetchWire{
		Using:          p.Using,
		Params:         p.Params,
		ScoreThreshold: p.ScoreThreshold,
		Limit:          p.Limit,
		LookupFrom:     p.LookupFrom,
	}
	var err error
	if w.Prefetch, err = prefetchWires(p.Prefetch); err != nil {
		return prefetchWire{}, err
	}
	if w.Query, err = queryJSON(p.Query); err != nil {
		return prefetchWire{}, err
	}
	if w.Filter, err = filterJSON(p.Filter); err != nil {
		return prefetchWire{}, err
	}
	return w, nil
}

func prefetchWires(list []Prefetch) ([]prefetchWire, error) {
	if len(list) == 0 {
		return nil, nil
	}
	out := make([]prefetchWire, len(list))
	for i, p := range list {
		w, err := p.wire()
		if err != nil {
			return nil, err
		}
		out[i] = w
	}
	return out, nil
}

func queryJSON(q PointsQuery) (json.RawMessage, error) {
	q = normalizeQuery(q)
	if q == nil {
		return nil, nil
	}
	return q.MarshalJSON()
}
