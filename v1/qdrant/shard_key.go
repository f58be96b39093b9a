package qdrant

import (
	"strconv"

	"github.com/tidwall/gjson"
)

// ShardKey identifies a custom shard. It is either an unsigned integer or a
// string. The zero value is not a valid shard key.
//
// ShardKey is comparable and can be used as a map key.
type ShardKey struct {
	kind scalarKind
	num  uint64
	str  string
}

// NewShardKeyUint creates an integer shard key.
func NewShardKeyUint(key uint64) ShardKey {
	return ShardKey{kind: scalarInteger, num: key}
}

// NewShardKeyInt creates an integer shard key from a signed value.
// Negative values are rejected.
func NewShardKeyInt(key int) (ShardKey, error) {
	if key < 0 {
		return ShardKey{}, malformed(strconv.Itoa(key), "shard key must not be negative")
	}
	return NewShardKeyUint(uint64(key)), nil
}

// NewShardKeyString creates a string shard key.
func NewShardKeyString(key string) ShardKey {
	return ShardKey{kind: scalarString, str: key}
}

// DecodeShardKey reads a shard key from a raw JSON value.
func DecodeShardKey(raw gjson.Result) (ShardKey, error) {
	kind, n, s, err := decodeUintScalar(raw, "shard key")
	if err != nil {
		return ShardKey{}, err
	}
	return ShardKey{kind: kind, num: n, str: s}, nil
}

// IsInteger reports whether the key holds the integer variant.
func (k ShardKey) IsInteger() bool { return k.kind == scalarInteger }

// IsString reports whether the key holds the string variant.
func (k ShardKey) IsString() bool { return k.kind == scalarString }

// Integer returns the integer value or ErrTypeMismatch.
func (k ShardKey) Integer() (uint64, error) {
	if k.kind != scalarInteger {
		return 0, mismatch("integer shard key", k.kind)
	}
	return k.num, nil
}

// Text returns the string value or ErrTypeMismatch.
func (k ShardKey) Text() (string, error) {
	if k.kind != scalarString {
		return "", mismatch("string shard key", k.kind)
	}
	return k.str, nil
}

// Equal reports whether both keys hold the same variant and value.
func (k ShardKey) Equal(other ShardKey) bool { return k == other }

// Compare orders integer keys before string keys, then by value.
func (k ShardKey) Compare(other ShardKey) int {
	return compareScalar(k.kind, fromUint(k.num), k.str, other.kind, fromUint(other.num), other.str)
}

func (k ShardKey) String() string {
	if k.kind == scalarInteger {
		return strconv.FormatUint(k.num, 10)
	}
	return k.str
}

// MarshalJSON writes the key as a JSON number or string.
func (k ShardKey) MarshalJSON() ([]byte, error) {
	return encodeScalar(k.kind, strconv.FormatUint(k.num, 10), k.str, "shard key")
}

// UnmarshalJSON reads a JSON number or string.
func (k *ShardKey) UnmarshalJSON(data []byte) error {
	raw, err := parseRaw(data)
	if err != nil {
		return err
	}
	v, err := DecodeShardKey(raw)
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// shardKeySelector renders the "shard_key" request field: a single key is
// written as a scalar, several keys as an array.
type shardKeySelector []ShardKey

func (s shardKeySelector) MarshalJSON() ([]byte, error) {
	if len(s) == 1 {
		return s[0].MarshalJSON()
	}
	return marshalJSON([]ShardKey(s))
}

// selectShardKeys returns nil for no keys so the field is omitted.
func selectShardKeys(keys []ShardKey) *shardKeySelector {
	if len(keys) == 0 {
		return nil
	}
	s := shardKeySelector(keys)
	return &s
}
