package qdrant

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/tidwall/gjson"
)

// Profile selects which vector shapes a Codec accepts inside named collections.
type Profile uint8

const (
	// ProfileExtended allows multi vectors as named entries. It is the zero value.
	ProfileExtended Profile = iota
	// ProfileMinimal restricts named entries to dense and sparse vectors.
	ProfileMinimal
)

func (p Profile) String() string {
	if p == ProfileMinimal {
		return "minimal"
	}
	return "extended"
}

// Codec decodes and encodes vector values. The wire format carries no type
// tag, so decoding dispatches on the shape of the JSON value:
//
//   - an array of numbers is a dense vector. If every element is an integer
//     in [0, 255] the result is a DenseByteVector, otherwise a DenseVector;
//   - an array of arrays is a MultiVector. Rows are always float32: the byte
//     rule above is deliberately not applied two levels deep, and servers
//     rely on that;
//   - an object with "indices" and "values" is a sparse vector, with the
//     byte rule applied to the values;
//   - any other object is a NamedVectors collection.
//
// Encoding is driven by the Go type only. A float vector whose elements all
// happen to be small integers therefore comes back as a byte vector after a
// round trip.
//
// A Codec has no state and is safe for concurrent use.
type Codec struct {
	Profile Profile
}

var defaultCodec = Codec{Profile: ProfileExtended}

// DecodeVector decodes raw with the extended profile.
func DecodeVector(raw gjson.Result) (Vector, error) {
	return defaultCodec.Decode(raw)
}

// DecodeVectorJSON parses data and decodes it with the extended profile.
func DecodeVectorJSON(data []byte) (Vector, error) {
	return defaultCodec.DecodeJSON(data)
}

// EncodeVector encodes v with the extended profile.
func EncodeVector(v Vector) (json.RawMessage, error) {
	return defaultCodec.Encode(v)
}

// DecodeJSON parses data and decodes it.
func (c Codec) DecodeJSON(data []byte) (Vector, error) {
	raw, err := parseRaw(data)
	if err != nil {
		return nil, err
	}
	return c.Decode(raw)
}

// Decode classifies raw and builds the matching Vector.
func (c Codec) Decode(raw gjson.Result) (Vector, error) {
	switch {
	case raw.IsArray():
		return c.decodeArray(raw)
	case raw.IsObject():
		if isSparseShaped(raw) {
			return decodeSparse(raw)
		}
		return c.decodeNamed(raw)
	default:
		return nil, malformed(raw.Raw, "vector must be an array or an object")
	}
}

// Encode writes v as JSON. Values that break their invariants, and named
// entries the profile does not allow, fail with ErrUnsupportedVariant.
func (c Codec) Encode(v Vector) (json.RawMessage, error) {
	switch t := v.(type) {
	case nil:
		return nil, unsupported("no vector to encode")
	case NamedVectors:
		return encodeNamed(t, c.Profile)
	default:
		return t.MarshalJSON()
	}
}

// decodeArray implements the dense-or-multi rule.
func (c Codec) decodeArray(raw gjson.Result) (Vector, error) {
	elems := raw.Array()
	if len(elems) == 0 {
		return nil, empty("dense vector has no elements")
	}
	switch first := elems[0]; {
	case first.IsArray():
		return decodeMulti(raw, elems)
	case first.Type == gjson.Number:
		values, isByte, err := readNumbers(elems, "dense vector")
		if err != nil {
			return nil, err
		}
		if isByte {
			return DenseByteVector(narrow(values)), nil
		}
		return DenseVector(values), nil
	default:
		return nil, malformed(raw.Raw, "vector array must hold numbers or arrays")
	}
}

func decodeMulti(raw gjson.Result, rows []gjson.Result) (Vector, error) {
	out := make(MultiVector, 0, len(rows))
	width := -1
	for i, row := range rows {
		if !row.IsArray() {
			return nil, malformed(row.Raw, "multi vector row %d is not an array", i)
		}
		elems := row.Array()
		if len(elems) == 0 {
			return nil, empty("multi vector row %d has no elements", i)
		}
		if width >= 0 && len(elems) != width {
			return nil, malformed(raw.Raw, "multi vector rows have unequal lengths")
		}
		width = len(elems)
		// Byte eligibility is ignored for rows.
		values, _, err := readNumbers(elems, "multi vector")
		if err != nil {
			return nil, err
		}
		out = append(out, values)
	}
	return out, nil
}

func isSparseShaped(raw gjson.Result) bool {
	return raw.Get("indices").Exists() && raw.Get("values").Exists()
}

func decodeSparse(raw gjson.Result) (Vector, error) {
	idxRaw, valRaw := raw.Get("indices"), raw.Get("values")
	if !idxRaw.IsArray() || !valRaw.IsArray() {
		return nil, malformed(raw.Raw, "sparse indices and values must be arrays")
	}

	idxElems := idxRaw.Array()
	indices := make([]uint32, len(idxElems))
	for i, e := range idxElems {
		n, ok := rawUint(e)
		if !ok || n > math.MaxUint32 {
			return nil, malformed(e.Raw, "sparse index %d is not an unsigned 32-bit integer", i)
		}
		indices[i] = uint32(n)
	}

	values, isByte, err := readNumbers(valRaw.Array(), "sparse vector")
	if err != nil {
		return nil, err
	}

	var v Vector
	if isByte && len(values) > 0 {
		v = SparseByteVector{Indices: indices, Values: narrow(values)}
	} else {
		v = SparseVector{Indices: indices, Values: values}
	}
	if err := v.validate(); err != nil {
		return nil, withRaw(err, raw.Raw)
	}
	return v, nil
}

// decodeNamed walks the object in document order so that re-encoding keeps
// the entry order of the wire value.
func (c Codec) decodeNamed(raw gjson.Result) (Vector, error) {
	var (
		entries []NamedVector
		seen    = make(map[string]struct{})
		err     error
	)
	raw.ForEach(func(key, value gjson.Result) bool {
		name := key.Str
		if _, dup := seen[name]; dup {
			err = malformedKey(name, raw.Raw, "duplicate vector name")
			return false
		}
		seen[name] = struct{}{}

		var v Vector
		switch {
		case value.IsArray():
			v, err = c.decodeArray(value)
			if err == nil && v.Kind() == KindMulti && c.Profile == ProfileMinimal {
				err = unsupportedKey(name, "multi vectors are not allowed in named entries")
			}
		case value.IsObject():
			if !isSparseShaped(value) {
				err = malformedKey(name, value.Raw, "named vectors cannot be nested")
				break
			}
			v, err = decodeSparse(value)
		default:
			err = malformedKey(name, value.Raw, "named entry is not a vector")
		}
		if err != nil {
			err = withKey(err, name)
			return false
		}
		entries = append(entries, NamedVector{Name: name, Vector: v})
		return true
	})
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, empty("named vectors have no entries")
	}
	return NamedVectors{entries: entries}, nil
}

// readNumbers reads every element as a float and reports whether all of them
// pass the byte rule: integral and within [0, 255].
func readNumbers(elems []gjson.Result, what string) ([]float32, bool, error) {
	out := make([]float32, len(elems))
	isByte := true
	for i, e := range elems {
		if e.Type != gjson.Number {
			return nil, false, malformed(e.Raw, "%s element %d is not a number", what, i)
		}
		f := e.Num
		if math.Abs(f) > math.MaxFloat32 {
			return nil, false, malformed(e.Raw, "%s element %d overflows float32", what, i)
		}
		if isByte && (f < 0 || f > math.MaxUint8 || f != math.Trunc(f)) {
			isByte = false
		}
		out[i] = float32(f)
	}
	return out, isByte, nil
}

func narrow(values []float32) []uint8 {
	out := make([]uint8, len(values))
	for i, f := range values {
		out[i] = uint8(f)
	}
	return out
}

func withRaw(err error, raw string) error {
	ce, ok := err.(*CodecError)
	if !ok || ce.Raw != "" {
		return err
	}
	cp := *ce
	cp.Raw = raw
	return &cp
}

// MarshalJSON writes the vector as a flat array.
func (v DenseVector) MarshalJSON() ([]byte, error) {
	if err := v.validate(); err != nil {
		return nil, asUnsupported(err)
	}
	return marshalJSON([]float32(v))
}

// MarshalJSON writes the vector as a flat array of integers.
func (v DenseByteVector) MarshalJSON() ([]byte, error) {
	if err := v.validate(); err != nil {
		return nil, asUnsupported(err)
	}
	return appendByteArray(nil, v), nil
}

type sparseWire struct {
	Indices []uint32  `json:"indices"`
	Values  []float32 `json:"values"`
}

// MarshalJSON writes {"indices": [...], "values": [...]}.
func (v SparseVector) MarshalJSON() ([]byte, error) {
	if err := v.validate(); err != nil {
		return nil, asUnsupported(err)
	}
	return marshalJSON(sparseWire{Indices: v.Indices, Values: v.Values})
}

// MarshalJSON writes {"indices": [...], "values": [...]} with integer values.
func (v SparseByteVector) MarshalJSON() ([]byte, error) {
	if err := v.validate(); err != nil {
		return nil, asUnsupported(err)
	}
	indices, err := marshalJSON(v.Indices)
	if err != nil {
		return nil, err
	}
	buf := append([]byte(`{"indices":`), indices...)
	buf = append(buf, `,"values":`...)
	buf = appendByteArray(buf, v.Values)
	return append(buf, '}'), nil
}

// MarshalJSON writes the rows as an array of arrays.
func (v MultiVector) MarshalJSON() ([]byte, error) {
	if err := v.validate(); err != nil {
		return nil, asUnsupported(err)
	}
	return marshalJSON([][]float32(v))
}

// appendByteArray writes bytes as JSON numbers; a []uint8 handed to a JSON
// encoder would come out as a base64 string.
func appendByteArray(buf []byte, values []uint8) []byte {
	buf = append(buf, '[')
	for i, b := range values {
		if i > 0 {
			buf = append(buf, ',')
		}
		buf = strconv.AppendUint(buf, uint64(b), 10)
	}
	return append(buf, ']')
}
