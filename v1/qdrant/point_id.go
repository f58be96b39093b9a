package qdrant

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
)

// PointID identifies a point. The remote service accepts unsigned integers
// and UUID strings; the string variant is kept as received so responses from
// any server version decode.
//
// PointID is comparable and can be used as a map key.
type PointID struct {
	kind scalarKind
	num  uint64
	str  string
}

// NewPointIDUint creates an integer point id.
func NewPointIDUint(id uint64) PointID {
	return PointID{kind: scalarInteger, num: id}
}

// NewPointIDInt creates an integer point id from a signed value.
// Negative values are rejected.
func NewPointIDInt(id int) (PointID, error) {
	if id < 0 {
		return PointID{}, malformed(strconv.Itoa(id), "point id must not be negative")
	}
	return NewPointIDUint(uint64(id)), nil
}

// NewPointIDString creates a string point id.
func NewPointIDString(id string) PointID {
	return PointID{kind: scalarString, str: id}
}

// NewPointIDUUID creates a string point id from a UUID in canonical form.
func NewPointIDUUID(id uuid.UUID) PointID {
	return NewPointIDString(id.String())
}

// DecodePointID reads a point id from a raw JSON value.
func DecodePointID(raw gjson.Result) (PointID, error) {
	kind, n, s, err := decodeUintScalar(raw, "point id")
	if err != nil {
		return PointID{}, err
	}
	return PointID{kind: kind, num: n, str: s}, nil
}

// IsInteger reports whether the id holds the integer variant.
func (p PointID) IsInteger() bool { return p.kind == scalarInteger }

// IsString reports whether the id holds the string variant.
func (p PointID) IsString() bool { return p.kind == scalarString }

// Integer returns the integer value or ErrTypeMismatch.
func (p PointID) Integer() (uint64, error) {
	if p.kind != scalarInteger {
		return 0, mismatch("integer point id", p.kind)
	}
	return p.num, nil
}

// Text returns the string value or ErrTypeMismatch.
func (p PointID) Text() (string, error) {
	if p.kind != scalarString {
		return "", mismatch("string point id", p.kind)
	}
	return p.str, nil
}

// UUID parses the string variant as a UUID.
func (p PointID) UUID() (uuid.UUID, error) {
	s, err := p.Text()
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, malformed(s, "point id is not a uuid")
	}
	return id, nil
}

// Equal reports whether both ids hold the same variant and value.
func (p PointID) Equal(other PointID) bool { return p == other }

// Compare orders integer ids before string ids, then by value.
func (p PointID) Compare(other PointID) int {
	return compareScalar(p.kind, fromUint(p.num), p.str, other.kind, fromUint(other.num), other.str)
}

func (p PointID) String() string {
	if p.kind == scalarInteger {
		return strconv.FormatUint(p.num, 10)
	}
	return p.str
}

// MarshalJSON writes the id as a JSON number or string.
func (p PointID) MarshalJSON() ([]byte, error) {
	return encodeScalar(p.kind, strconv.FormatUint(p.num, 10), p.str, "point id")
}

// UnmarshalJSON reads a JSON number or string.
func (p *PointID) UnmarshalJSON(data []byte) error {
	raw, err := parseRaw(data)
	if err != nil {
		return err
	}
	v, err := DecodePointID(raw)
	if err != nil {
		return err
	}
	*p = v
	return nil
}
