package qdrant

import (
	"fmt"

	"github.com/tidwall/gjson"
)

// ScoredPoint is one hit of a query.
type ScoredPoint struct {
	ID         PointID
	Version    uint64
	Score      float32
	Payload    Payload   // nil unless requested
	Vector     Vector    // nil unless requested
	ShardKey   *ShardKey // set on collections with custom sharding
	OrderValue *float64  // set for order-by queries
}

// Record is a point without a score, as returned by group lookups.
type Record struct {
	ID       PointID
	Payload  Payload
	Vector   Vector
	ShardKey *ShardKey
}

// QueryResult is the result of a points query.
type QueryResult struct {
	Points []ScoredPoint
	Time   float64 // server-side seconds
}

// PointGroup is one group of a grouped query.
type PointGroup struct {
	ID     GroupID
	Hits   []ScoredPoint
	Lookup *Record
}

// GroupsResult is the result of a grouped query. Groups keep server order.
type GroupsResult struct {
	Groups []PointGroup
	Time   float64
}

// BatchSlot is the outcome of one search of a batch. Err is set when the
// server reported a failure for this slot only.
type BatchSlot struct {
	Points []ScoredPoint
	Err    error
}

// BatchResult holds one slot per search, in request order.
type BatchResult struct {
	Slots []BatchSlot
	Time  float64
}

// UpdateResult is the result of a payload update.
type UpdateResult struct {
	OperationID uint64
	Status      string // "acknowledged" or "completed"
	Time        float64
}

// DecodeQueryResponse decodes the response of a points query.
func DecodeQueryResponse(data []byte) (*QueryResult, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	points, err := decodePointList(pointsOf(env.Result), "result.points")
	if err != nil {
		return nil, err
	}
	return &QueryResult{Points: points, Time: env.Time}, nil
}

// DecodeGroupsResponse decodes the response of a grouped query.
func DecodeGroupsResponse(data []byte) (*GroupsResult, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	groups := env.Result.Get("groups")
	if !groups.IsArray() {
		return nil, malformed(env.Result.Raw, "result has no groups array")
	}
	out := &GroupsResult{Time: env.Time}
	for i, g := range groups.Array() {
		group, err := decodeGroup(g)
		if err != nil {
			return nil, fmt.Errorf("result.groups[%d]: %w", i, err)
		}
		out.Groups = append(out.Groups, group)
	}
	return out, nil
}

// DecodeBatchResponse decodes the response of a batched query. A slot that
// carries its own error status does not fail the others.
func DecodeBatchResponse(data []byte) (*BatchResult, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	if !env.Result.IsArray() {
		return nil, malformed(env.Result.Raw, "batch result is not an array")
	}
	out := &BatchResult{Time: env.Time}
	for i, slot := range env.Result.Array() {
		if err := slotError(slot); err != nil {
			out.Slots = append(out.Slots, BatchSlot{Err: err})
			continue
		}
		points, err := decodePointList(pointsOf(slot), fmt.Sprintf("result[%d].points", i))
		if err != nil {
			return nil, err
		}
		out.Slots = append(out.Slots, BatchSlot{Points: points})
	}
	return out, nil
}

// DecodeUpdateResponse decodes the response of a payload update.
func DecodeUpdateResponse(data []byte) (*UpdateResult, error) {
	env, err := decodeEnvelope(data)
	if err != nil {
		return nil, err
	}
	return &UpdateResult{
		OperationID: env.Result.Get("operation_id").Uint(),
		Status:      env.Result.Get("status").String(),
		Time:        env.Time,
	}, nil
}

func slotError(slot gjson.Result) error {
	if !slot.IsObject() {
		return nil
	}
	if err := statusError(slot.Get("status"), 0); err != nil {
		return err
	}
	if msg := slot.Get("error"); msg.Exists() && msg.Type != gjson.Null {
		return &APIError{Message: msg.String()}
	}
	return nil
}

// pointsOf accepts both {"points": [...]} and a bare array of points.
func pointsOf(result gjson.Result) gjson.Result {
	if result.IsArray() {
		return result
	}
	return result.Get("points")
}

func decodePointList(list gjson.Result, field string) ([]ScoredPoint, error) {
	if !list.Exists() || list.Type == gjson.Null {
		return nil, nil
	}
	if !list.IsArray() {
		return nil, malformed(list.Raw, "%s is not an array", field)
	}
	elems := list.Array()
	points := make([]ScoredPoint, 0, len(elems))
	for i, raw := range elems {
		p, err := decodeScoredPoint(raw)
		if err != nil {
			return nil, fmt.Errorf("%s[%d]: %w", field, i, err)
		}
		points = append(points, p)
	}
	return points, nil
}

func decodeGroup(raw gjson.Result) (PointGroup, error) {
	id, err := DecodeGroupID(raw.Get("id"))
	if err != nil {
		return PointGroup{}, err
	}
	hits, err := decodePointList(raw.Get("hits"), "hits")
	if err != nil {
		return PointGroup{}, err
	}
	group := PointGroup{ID: id, Hits: hits}
	if lookup := raw.Get("lookup"); lookup.IsObject() {
		rec, err := decodeRecord(lookup)
		if err != nil {
			return PointGroup{}, fmt.Errorf("lookup: %w", err)
		}
		group.Lookup = &rec
	}
	return group, nil
}

func decodeScoredPoint(raw gjson.Result) (ScoredPoint, error) {
	rec, err := decodeRecord(raw)
	if err != nil {
		return ScoredPoint{}, err
	}
	p := ScoredPoint{
		ID:       rec.ID,
		Version:  raw.Get("version").Uint(),
		Score:    float32(raw.Get("score").Num),
		Payload:  rec.Payload,
		Vector:   rec.Vector,
		ShardKey: rec.ShardKey,
	}
	if ov := raw.Get("order_value"); ov.Type == gjson.Number {
		n := ov.Num
		p.OrderValue = &n
	}
	return p, nil
}

func decodeRecord(raw gjson.Result) (Record, error) {
	if !raw.IsObject() {
		return Record{}, malformed(raw.Raw, "point is not an object")
	}
	id, err := DecodePointID(raw.Get("id"))
	if err != nil {
		return Record{}, fmt.Errorf("id: %w", err)
	}
	rec := Record{ID: id}
	if payload := raw.Get("payload"); payload.IsObject() {
		rec.Payload = Payload(payload.Raw)
	}
	if vec := raw.Get("vector"); present(vec) && !emptyObject(vec) {
		if rec.Vector, err = DecodeVector(vec); err != nil {
			return Record{}, fmt.Errorf("vector: %w", err)
		}
	}
	if sk := raw.Get("shard_key"); present(sk) {
		key, err := DecodeShardKey(sk)
		if err != nil {
			return Record{}, fmt.Errorf("shard_key: %w", err)
		}
		rec.ShardKey = &key
	}
	return rec, nil
}

func present(r gjson.Result) bool {
	return r.Exists() && r.Type != gjson.Null
}

// emptyObject reports {}, which the server sends for points without vectors.
func emptyObject(r gjson.Result) bool {
	if !r.IsObject() {
		return false
	}
	none := true
	r.ForEach(func(_, _ gjson.Result) bool {
		none = false
		return false
	})
	return none
}
