package qdrant

import (
	"encoding/json"
)

// SetPayloadRequest is the body of POST /collections/{name}/points/payload.
// It targets either Points or the points matching Filter, never both.
type SetPayloadRequest struct {
	Payload  map[string]any
	Points   []PointID
	Filter   any
	Key      string // optional nested path to merge Payload into
	ShardKey []ShardKey
}

type setPayloadWire struct {
	Payload  map[string]any    `json:"payload"`
	Points   []PointID         `json:"points,omitempty"`
	Filter   json.RawMessage   `json:"filter,omitempty"`
	Key      string            `json:"key,omitempty"`
	ShardKey *shardKeySelector `json:"shard_key,omitempty"`
}

// Validate checks the payload and the point selection.
func (r SetPayloadRequest) Validate() error {
	if r.Payload == nil {
		return invalid("payload", "payload must not be nil")
	}
	return validatePointSelection(r.Points, r.Filter)
}

// MarshalJSON validates the request and writes it.
func (r SetPayloadRequest) MarshalJSON() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	filter, err := filterJSON(r.Filter)
	if err != nil {
		return nil, err
	}
	return marshalJSON(setPayloadWire{
		Payload:  r.Payload,
		Points:   r.Points,
		Filter:   filter,
		Key:      r.Key,
		ShardKey: selectShardKeys(r.ShardKey),
	})
}

// DeletePayloadKeysRequest is the body of
// POST /collections/{name}/points/payload/delete.
type DeletePayloadKeysRequest struct {
	Keys     []string
	Points   []PointID
	Filter   any
	ShardKey []ShardKey
}

type deletePayloadWire struct {
	Keys     []string          `json:"keys"`
	Points   []PointID         `json:"points,omitempty"`
	Filter   json.RawMessage   `json:"filter,omitempty"`
	ShardKey *shardKeySelector `json:"shard_key,omitempty"`
}

// Validate checks the keys and the point selection.
func (r DeletePayloadKeysRequest) Validate() error {
	if len(r.Keys) == 0 {
		return invalid("keys", "at least one payload key is required")
	}
	return validatePointSelection(r.Points, r.Filter)
}

// MarshalJSON validates the request and writes it.
func (r DeletePayloadKeysRequest) MarshalJSON() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	filter, err := filterJSON(r.Filter)
	if err != nil {
		return nil, err
	}
	return marshalJSON(deletePayloadWire{
		Keys:     r.Keys,
		Points:   r.Points,
		Filter:   filter,
		ShardKey: selectShardKeys(r.ShardKey),
	})
}

func validatePointSelection(points []PointID, filter any) error {
	hasPoints, hasFilter := len(points) > 0, !isNil(filter)
	switch {
	case hasPoints && hasFilter:
		return invalid("points", "points and filter are mutually exclusive")
	case !hasPoints && !hasFilter:
		return invalid("points", "either points or filter is required")
	}
	for i, id := range points {
		if id.kind == scalarUnset {
			return invalid("points", "point id %d is not set", i)
		}
	}
	return nil
}
