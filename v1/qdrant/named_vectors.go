package qdrant

import (
	"bytes"
)

// DefaultVectorName is the name Qdrant gives the single unnamed vector of a
// collection.
const DefaultVectorName = ""

// NamedVector is one entry of a NamedVectors collection.
type NamedVector struct {
	Name   string
	Vector Vector
}

// NamedVectors maps names to vectors and keeps insertion order, which is the
// order entries are encoded in. Entries are dense, sparse or multi vectors;
// a collection never contains another collection.
type NamedVectors struct {
	entries []NamedVector
}

// NewNamedVectors builds a collection from entries in the given order.
func NewNamedVectors(entries ...NamedVector) (NamedVectors, error) {
	n := NamedVectors{entries: append([]NamedVector(nil), entries...)}
	if err := n.validate(); err != nil {
		return NamedVectors{}, err
	}
	return n, nil
}

func (NamedVectors) Kind() VectorKind   { return KindNamed }
func (NamedVectors) DataType() DataType { return DataTypeUnknown }

func (n NamedVectors) validate() error {
	return n.validateProfile(ProfileExtended)
}

func (n NamedVectors) validateProfile(profile Profile) error {
	if len(n.entries) == 0 {
		return empty("named vectors have no entries")
	}
	seen := make(map[string]struct{}, len(n.entries))
	for _, e := range n.entries {
		if _, ok := seen[e.Name]; ok {
			return malformedKey(e.Name, "", "duplicate vector name")
		}
		seen[e.Name] = struct{}{}

		switch e.Vector.(type) {
		case nil:
			return malformedKey(e.Name, "", "named entry has no vector")
		case NamedVectors:
			return unsupportedKey(e.Name, "named vectors cannot be nested")
		case MultiVector:
			if profile == ProfileMinimal {
				return unsupportedKey(e.Name, "multi vectors are not allowed in named entries")
			}
		}
		if err := e.Vector.validate(); err != nil {
			return withKey(err, e.Name)
		}
	}
	return nil
}

// Len returns the number of entries.
func (n NamedVectors) Len() int { return len(n.entries) }

// Names returns the entry names in insertion order.
func (n NamedVectors) Names() []string {
	names := make([]string, len(n.entries))
	for i, e := range n.entries {
		names[i] = e.Name
	}
	return names
}

// Entries returns a copy of the entries in insertion order.
func (n NamedVectors) Entries() []NamedVector {
	return append([]NamedVector(nil), n.entries...)
}

// Contains reports whether an entry named name exists.
func (n NamedVectors) Contains(name string) bool {
	_, ok := n.index(name)
	return ok
}

// Get returns the vector named name or ErrKeyNotFound.
func (n NamedVectors) Get(name string) (Vector, error) {
	i, ok := n.index(name)
	if !ok {
		return nil, keyNotFound(name, "vector not found")
	}
	return n.entries[i].Vector, nil
}

// First returns the first entry by insertion order or ErrEmptyValue.
func (n NamedVectors) First() (NamedVector, error) {
	if len(n.entries) == 0 {
		return NamedVector{}, empty("named vectors have no entries")
	}
	return n.entries[0], nil
}

func (n NamedVectors) index(name string) (int, bool) {
	for i, e := range n.entries {
		if e.Name == name {
			return i, true
		}
	}
	return -1, false
}

// MarshalJSON writes {"<name>": <vector>, ...} in insertion order.
func (n NamedVectors) MarshalJSON() ([]byte, error) {
	return encodeNamed(n, ProfileExtended)
}

func encodeNamed(n NamedVectors, profile Profile) ([]byte, error) {
	if err := n.validateProfile(profile); err != nil {
		return nil, asUnsupported(err)
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range n.entries {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := marshalJSON(e.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		raw, err := e.Vector.MarshalJSON()
		if err != nil {
			return nil, withKey(err, e.Name)
		}
		buf.Write(raw)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
