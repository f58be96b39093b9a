package qdrant

import (
	"math"
	"strconv"

	"github.com/tidwall/gjson"
)

// GroupID is the key of a group in a grouped query response. Groups are keyed
// by payload values, so the integer variant is signed.
//
// GroupID is comparable and can be used as a map key.
type GroupID struct {
	kind scalarKind
	num  int64
	str  string
}

// NewGroupIDInt creates an integer group id.
func NewGroupIDInt(id int64) GroupID {
	return GroupID{kind: scalarInteger, num: id}
}

// NewGroupIDUint creates an integer group id from an unsigned value.
// Values above math.MaxInt64 are rejected.
func NewGroupIDUint(id uint64) (GroupID, error) {
	if id > math.MaxInt64 {
		return GroupID{}, malformed(strconv.FormatUint(id, 10), "group id out of range")
	}
	return NewGroupIDInt(int64(id)), nil
}

// NewGroupIDString creates a string group id.
func NewGroupIDString(id string) GroupID {
	return GroupID{kind: scalarString, str: id}
}

// DecodeGroupID reads a group id from a raw JSON value.
func DecodeGroupID(raw gjson.Result) (GroupID, error) {
	switch raw.Type {
	case gjson.String:
		return NewGroupIDString(raw.Str), nil
	case gjson.Number:
		if n, ok := rawInt(raw); ok {
			return NewGroupIDInt(n), nil
		}
	}
	return GroupID{}, malformed(raw.Raw, "group id must be an integer or a string")
}

// IsInteger reports whether the id holds the integer variant.
func (g GroupID) IsInteger() bool { return g.kind == scalarInteger }

// IsString reports whether the id holds the string variant.
func (g GroupID) IsString() bool { return g.kind == scalarString }

// Integer returns the integer value or ErrTypeMismatch.
func (g GroupID) Integer() (int64, error) {
	if g.kind != scalarInteger {
		return 0, mismatch("integer group id", g.kind)
	}
	return g.num, nil
}

// Text returns the string value or ErrTypeMismatch.
func (g GroupID) Text() (string, error) {
	if g.kind != scalarString {
		return "", mismatch("string group id", g.kind)
	}
	return g.str, nil
}

// Equal reports whether both ids hold the same variant and value.
func (g GroupID) Equal(other GroupID) bool { return g == other }

// Compare orders integer ids before string ids, then by value.
func (g GroupID) Compare(other GroupID) int {
	return compareScalar(g.kind, fromInt(g.num), g.str, other.kind, fromInt(other.num), other.str)
}

func (g GroupID) String() string {
	if g.kind == scalarInteger {
		return strconv.FormatInt(g.num, 10)
	}
	return g.str
}

// MarshalJSON writes the id as a JSON number or string.
func (g GroupID) MarshalJSON() ([]byte, error) {
	return encodeScalar(g.kind, strconv.FormatInt(g.num, 10), g.str, "group id")
}

// UnmarshalJSON reads a JSON number or string.
func (g *GroupID) UnmarshalJSON(data []byte) error {
	raw, err := parseRaw(data)
	if err != nil {
		return err
	}
	v, err := DecodeGroupID(raw)
	if err != nil {
		return err
	}
	*g = v
	return nil
}
