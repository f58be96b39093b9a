package qdrant

import (
	"fmt"
	"math"
	"slices"
)

// VectorKind is the shape of a Vector.
type VectorKind uint8

const (
	KindDense VectorKind = iota + 1
	KindSparse
	KindMulti
	KindNamed
)

func (k VectorKind) String() string {
	switch k {
	case KindDense:
		return "dense"
	case KindSparse:
		return "sparse"
	case KindMulti:
		return "multi"
	case KindNamed:
		return "named"
	default:
		return "unknown"
	}
}

// DataType is the element type of a dense or sparse vector.
type DataType uint8

const (
	// DataTypeUnknown is reported by named collections, which hold entries of
	// mixed element types.
	DataTypeUnknown DataType = iota
	Float32
	Uint8
)

func (d DataType) String() string {
	switch d {
	case Float32:
		return "float32"
	case Uint8:
		return "uint8"
	default:
		return "unknown"
	}
}

// Vector is a vector value as exchanged with Qdrant. The set of
// implementations is closed: DenseVector, DenseByteVector, SparseVector,
// SparseByteVector, MultiVector and NamedVectors.
type Vector interface {
	Kind() VectorKind
	DataType() DataType
	MarshalJSON() ([]byte, error)

	// validate checks the invariants of the variant.
	validate() error
}

// DenseVector is a dense vector of 32-bit floats.
type DenseVector []float32

// DenseByteVector is a dense vector of bytes. The wire shape is the same as
// DenseVector; decoding picks it when every element is an integer in [0, 255].
type DenseByteVector []uint8

// SparseVector pairs indices with float values. Indices are unique and need
// not be sorted.
type SparseVector struct {
	Indices []uint32
	Values  []float32
}

// SparseByteVector pairs indices with byte values.
type SparseByteVector struct {
	Indices []uint32
	Values  []uint8
}

// MultiVector is a non-empty list of float rows of equal length.
// Rows are never narrowed to bytes when decoded.
type MultiVector [][]float32

func (DenseVector) Kind() VectorKind      { return KindDense }
func (DenseByteVector) Kind() VectorKind  { return KindDense }
func (SparseVector) Kind() VectorKind     { return KindSparse }
func (SparseByteVector) Kind() VectorKind { return KindSparse }
func (MultiVector) Kind() VectorKind      { return KindMulti }

func (DenseVector) DataType() DataType      { return Float32 }
func (DenseByteVector) DataType() DataType  { return Uint8 }
func (SparseVector) DataType() DataType     { return Float32 }
func (SparseByteVector) DataType() DataType { return Uint8 }
func (MultiVector) DataType() DataType      { return Float32 }

// NewDenseVector copies values into a DenseVector.
func NewDenseVector(values []float32) (DenseVector, error) {
	v := DenseVector(slices.Clone(values))
	if err := v.validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// NewDenseByteVector copies values into a DenseByteVector.
func NewDenseByteVector(values []uint8) (DenseByteVector, error) {
	v := DenseByteVector(slices.Clone(values))
	if err := v.validate(); err != nil {
		return nil, err
	}
	return v, nil
}

// NewSparseVector copies indices and values into a SparseVector.
func NewSparseVector(indices []uint32, values []float32) (SparseVector, error) {
	v := SparseVector{Indices: slices.Clone(indices), Values: slices.Clone(values)}
	if err := v.validate(); err != nil {
		return SparseVector{}, err
	}
	return v, nil
}

// NewSparseByteVector copies indices and values into a SparseByteVector.
func NewSparseByteVector(indices []uint32, values []uint8) (SparseByteVector, error) {
	v := SparseByteVector{Indices: slices.Clone(indices), Values: slices.Clone(values)}
	if err := v.validate(); err != nil {
		return SparseByteVector{}, err
	}
	return v, nil
}

// NewMultiVector copies rows into a MultiVector.
func NewMultiVector(rows [][]float32) (MultiVector, error) {
	v := make(MultiVector, len(rows))
	for i, row := range rows {
		v[i] = slices.Clone(row)
	}
	if err := v.validate(); err != nil {
		return nil, err
	}
	return v, nil
}

func (v DenseVector) validate() error {
	if len(v) == 0 {
		return empty("dense vector has no elements")
	}
	return checkFinite(v, "dense vector")
}

func (v DenseByteVector) validate() error {
	if len(v) == 0 {
		return empty("dense vector has no elements")
	}
	return nil
}

func (v SparseVector) validate() error {
	if err := checkSparse(v.Indices, len(v.Values)); err != nil {
		return err
	}
	return checkFinite(v.Values, "sparse vector")
}

func (v SparseByteVector) validate() error {
	return checkSparse(v.Indices, len(v.Values))
}

func (v MultiVector) validate() error {
	if len(v) == 0 {
		return empty("multi vector has no rows")
	}
	width := len(v[0])
	for i, row := range v {
		if len(row) == 0 {
			return empty("multi vector row %d has no elements", i)
		}
		if len(row) != width {
			return malformed("", "multi vector row %d has %d elements, want %d", i, len(row), width)
		}
		if err := checkFinite(row, "multi vector"); err != nil {
			return err
		}
	}
	return nil
}

func checkSparse(indices []uint32, values int) error {
	if len(indices) == 0 && values == 0 {
		return empty("sparse vector has no elements")
	}
	if len(indices) != values {
		return malformed("", "sparse vector has %d indices and %d values", len(indices), values)
	}
	seen := make(map[uint32]struct{}, len(indices))
	for _, idx := range indices {
		if _, ok := seen[idx]; ok {
			return malformed("", "sparse vector has duplicate index %d", idx)
		}
		seen[idx] = struct{}{}
	}
	return nil
}

func checkFinite(values []float32, what string) error {
	for i, f := range values {
		if math.IsNaN(float64(f)) || math.IsInf(float64(f), 0) {
			return malformed("", "%s element %d is not a finite number", what, i)
		}
	}
	return nil
}

// AsDense returns v as a float dense vector or ErrTypeMismatch.
func AsDense(v Vector) (DenseVector, error) {
	d, ok := v.(DenseVector)
	if !ok {
		return nil, mismatch("float dense vector", describe(v))
	}
	return d, nil
}

// AsDenseBytes returns v as a byte dense vector or ErrTypeMismatch.
func AsDenseBytes(v Vector) (DenseByteVector, error) {
	d, ok := v.(DenseByteVector)
	if !ok {
		return nil, mismatch("byte dense vector", describe(v))
	}
	return d, nil
}

// AsSparse returns v as a float sparse vector or ErrTypeMismatch.
func AsSparse(v Vector) (SparseVector, error) {
	s, ok := v.(SparseVector)
	if !ok {
		return SparseVector{}, mismatch("float sparse vector", describe(v))
	}
	return s, nil
}

// AsSparseBytes returns v as a byte sparse vector or ErrTypeMismatch.
func AsSparseBytes(v Vector) (SparseByteVector, error) {
	s, ok := v.(SparseByteVector)
	if !ok {
		return SparseByteVector{}, mismatch("byte sparse vector", describe(v))
	}
	return s, nil
}

// AsMulti returns v as a multi vector or ErrTypeMismatch.
func AsMulti(v Vector) (MultiVector, error) {
	m, ok := v.(MultiVector)
	if !ok {
		return nil, mismatch("multi vector", describe(v))
	}
	return m, nil
}

// AsNamed returns v as a named collection or ErrTypeMismatch.
func AsNamed(v Vector) (NamedVectors, error) {
	n, ok := v.(NamedVectors)
	if !ok {
		return NamedVectors{}, mismatch("named vectors", describe(v))
	}
	return n, nil
}

// FloatValues widens dense and sparse values to float32, whatever their data type.
func FloatValues(v Vector) ([]float32, error) {
	switch t := v.(type) {
	case DenseVector:
		return slices.Clone([]float32(t)), nil
	case DenseByteVector:
		return widen(t), nil
	case SparseVector:
		return slices.Clone(t.Values), nil
	case SparseByteVector:
		return widen(t.Values), nil
	default:
		return nil, mismatch("dense or sparse vector", describe(v))
	}
}

func widen(b []uint8) []float32 {
	out := make([]float32, len(b))
	for i, x := range b {
		out[i] = float32(x)
	}
	return out
}

// FirstOrDefault returns the first entry of a named collection by insertion
// order, or v itself for any other variant.
func FirstOrDefault(v Vector) (Vector, error) {
	switch t := v.(type) {
	case nil:
		return nil, empty("no vector")
	case NamedVectors:
		first, err := t.First()
		if err != nil {
			return nil, err
		}
		return first.Vector, nil
	default:
		return v, nil
	}
}

// ContainsVector reports whether v holds a vector under name. A single
// unnamed vector answers only to DefaultVectorName.
func ContainsVector(v Vector, name string) bool {
	switch t := v.(type) {
	case nil:
		return false
	case NamedVectors:
		return t.Contains(name)
	default:
		return name == DefaultVectorName
	}
}

// VectorByName looks up a vector by name or fails with ErrKeyNotFound.
func VectorByName(v Vector, name string) (Vector, error) {
	switch t := v.(type) {
	case NamedVectors:
		return t.Get(name)
	case nil:
	default:
		if name == DefaultVectorName {
			return v, nil
		}
	}
	return nil, keyNotFound(name, "vector not found")
}

// VectorsEqual reports whether a and b hold the same variant and elements.
// Named collections compare entries in insertion order.
func VectorsEqual(a, b Vector) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case DenseVector:
		y, ok := b.(DenseVector)
		return ok && slices.Equal(x, y)
	case DenseByteVector:
		y, ok := b.(DenseByteVector)
		return ok && slices.Equal(x, y)
	case SparseVector:
		y, ok := b.(SparseVector)
		return ok && slices.Equal(x.Indices, y.Indices) && slices.Equal(x.Values, y.Values)
	case SparseByteVector:
		y, ok := b.(SparseByteVector)
		return ok && slices.Equal(x.Indices, y.Indices) && slices.Equal(x.Values, y.Values)
	case MultiVector:
		y, ok := b.(MultiVector)
		return ok && slices.EqualFunc(x, y, func(r, s []float32) bool { return slices.Equal(r, s) })
	case NamedVectors:
		y, ok := b.(NamedVectors)
		return ok && slices.EqualFunc(x.entries, y.entries, func(e, f NamedVector) bool {
			return e.Name == f.Name && VectorsEqual(e.Vector, f.Vector)
		})
	default:
		return false
	}
}

// vectorDesc renders a vector variant in type mismatch errors.
type vectorDesc string

func (d vectorDesc) String() string { return string(d) }

func describe(v Vector) fmt.Stringer {
	if v == nil {
		return vectorDesc("nil")
	}
	if v.Kind() == KindNamed {
		return vectorDesc("named vectors")
	}
	return vectorDesc(v.DataType().String() + " " + v.Kind().String() + " vector")
}
