package qdrant

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// Payload is the raw JSON payload object of a point.
type Payload json.RawMessage

// Len returns the number of top-level fields.
func (p Payload) Len() int {
	n := 0
	gjson.ParseBytes(p).ForEach(func(_, _ gjson.Result) bool {
		n++
		return true
	})
	return n
}

// Get returns the raw value of a top-level field or ErrKeyNotFound.
func (p Payload) Get(key string) (json.RawMessage, error) {
	var found json.RawMessage
	gjson.ParseBytes(p).ForEach(func(k, v gjson.Result) bool {
		if k.Str == key {
			found = json.RawMessage(v.Raw)
			return false
		}
		return true
	})
	if found == nil {
		return nil, keyNotFound(key, "payload field not found")
	}
	return found, nil
}

// GetInto decodes a top-level field into v.
func (p Payload) GetInto(key string, v any) error {
	raw, err := p.Get(key)
	if err != nil {
		return err
	}
	return unmarshalJSON(raw, v)
}

// As decodes the whole payload into v, typically a pointer to a struct.
func (p Payload) As(v any) error {
	if len(p) == 0 {
		return empty("point has no payload")
	}
	return unmarshalJSON(p, v)
}

// Map decodes the payload into a generic map.
func (p Payload) Map() (map[string]any, error) {
	var m map[string]any
	if err := p.As(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// MarshalJSON writes the payload as received, or null when there is none.
func (p Payload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

// BuildPayload lays out a payload for SetPayloadRequest: fields go to the top
// level and user fields under UserPayloadPrefix, where UserField filter
// conditions look for them.
//
//	req := qdrant.SetPayloadRequest{
//	    Payload: qdrant.BuildPayload(
//	        map[string]any{"lang": "en"},
//	        map[string]any{"author": "kim"},
//	    ), // {"lang": "en", "custom": {"author": "kim"}}
//	    Points: []qdrant.PointID{qdrant.NewPointIDUint(1)},
//	}
func BuildPayload(fields, user map[string]any) map[string]any {
	payload := make(map[string]any)

	for k, v := range fields {
		payload[k] = v
	}

	if len(user) > 0 {
		payload[UserPayloadPrefix] = user
	}

	return payload
}
