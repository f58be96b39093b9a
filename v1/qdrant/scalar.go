package qdrant

import (
	"math"
	"strconv"

	gojson "github.com/goccy/go-json"
	"github.com/tidwall/gjson"
)

// scalarKind tags the active variant of ShardKey, PointID and GroupID.
// The zero value means "not constructed".
type scalarKind uint8

const (
	scalarUnset scalarKind = iota
	scalarInteger
	scalarString
)

func (k scalarKind) String() string {
	switch k {
	case scalarInteger:
		return "integer"
	case scalarString:
		return "string"
	default:
		return "unset"
	}
}

// maxExactFloat is the largest integer a float64 represents without loss.
const maxExactFloat = 1 << 53

// parseRaw validates data and returns it as a gjson tree.
func parseRaw(data []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, malformed(string(data), "invalid json")
	}
	return gjson.ParseBytes(data), nil
}

// rawUint reads an unsigned integer from a JSON number. Integral floats such
// as 3.0 or 1e3 are accepted while they stay exactly representable.
func rawUint(raw gjson.Result) (uint64, bool) {
	if raw.Type != gjson.Number {
		return 0, false
	}
	if n, err := strconv.ParseUint(raw.Raw, 10, 64); err == nil {
		return n, true
	}
	f := raw.Num
	if f < 0 || f > maxExactFloat || f != math.Trunc(f) {
		return 0, false
	}
	return uint64(f), true
}

// rawInt is the signed counterpart of rawUint.
func rawInt(raw gjson.Result) (int64, bool) {
	if raw.Type != gjson.Number {
		return 0, false
	}
	if n, err := strconv.ParseInt(raw.Raw, 10, 64); err == nil {
		return n, true
	}
	f := raw.Num
	if f < -maxExactFloat || f > maxExactFloat || f != math.Trunc(f) {
		return 0, false
	}
	return int64(f), true
}

// decodeUintScalar implements the shared decode contract for the unsigned
// scalar variants: integer-like to integer, text-like to string, anything
// else is malformed.
func decodeUintScalar(raw gjson.Result, what string) (scalarKind, uint64, string, error) {
	switch raw.Type {
	case gjson.String:
		return scalarString, 0, raw.Str, nil
	case gjson.Number:
		n, ok := rawUint(raw)
		if !ok {
			return scalarUnset, 0, "", malformed(raw.Raw, "%s must be an unsigned integer or a string", what)
		}
		return scalarInteger, n, "", nil
	default:
		return scalarUnset, 0, "", malformed(raw.Raw, "%s must be an unsigned integer or a string", what)
	}
}

// encodeScalar writes the held value back as a JSON number or string.
// digits is the decimal form of the integer variant.
func encodeScalar(kind scalarKind, digits string, str string, what string) ([]byte, error) {
	switch kind {
	case scalarInteger:
		return []byte(digits), nil
	case scalarString:
		return gojson.Marshal(str)
	default:
		return nil, unsupported("%s is not constructed", what)
	}
}

// compareScalar orders integers before strings, then by value.
func compareScalar(ak scalarKind, an int64OrUint, as string, bk scalarKind, bn int64OrUint, bs string) int {
	if ak != bk {
		if ak < bk {
			return -1
		}
		return 1
	}
	if ak == scalarInteger {
		return an.compare(bn)
	}
	switch {
	case as < bs:
		return -1
	case as > bs:
		return 1
	}
	return 0
}

// int64OrUint lets signed and unsigned integer variants share compareScalar.
type int64OrUint struct {
	neg bool
	abs uint64
}

func fromUint(n uint64) int64OrUint { return int64OrUint{abs: n} }

func fromInt(n int64) int64OrUint {
	if n < 0 {
		return int64OrUint{neg: true, abs: uint64(-(n + 1)) + 1}
	}
	return int64OrUint{abs: uint64(n)}
}

func (a int64OrUint) compare(b int64OrUint) int {
	switch {
	case a.neg && !b.neg:
		return -1
	case !a.neg && b.neg:
		return 1
	case a.abs == b.abs:
		return 0
	case (a.abs < b.abs) != a.neg:
		return -1
	default:
		return 1
	}
}
