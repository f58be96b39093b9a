package qdrant

// PayloadSelector controls which payload fields are attached to hits.
// The zero value returns no payload.
type PayloadSelector struct {
	Enable  bool
	Include []string
	Exclude []string
}

// PayloadAll attaches the whole payload.
func PayloadAll() *PayloadSelector { return &PayloadSelector{Enable: true} }

// PayloadNone attaches no payload.
func PayloadNone() *PayloadSelector { return &PayloadSelector{} }

// PayloadInclude attaches only the given fields.
func PayloadInclude(fields ...string) *PayloadSelector {
	return &PayloadSelector{Enable: true, Include: fields}
}

// PayloadExclude attaches every field except the given ones.
func PayloadExclude(fields ...string) *PayloadSelector {
	return &PayloadSelector{Enable: true, Exclude: fields}
}

// MarshalJSON writes true, false, {"include": [...]} or {"exclude": [...]}.
func (s PayloadSelector) MarshalJSON() ([]byte, error) {
	switch {
	case s.Enable && len(s.Include) > 0:
		return marshalJSON(map[string][]string{"include": s.Include})
	case s.Enable && len(s.Exclude) > 0:
		return marshalJSON(map[string][]string{"exclude": s.Exclude})
	default:
		return marshalJSON(s.Enable)
	}
}

// VectorSelector controls which vectors are attached to hits.
// The zero value returns no vectors.
type VectorSelector struct {
	Enable bool
	Names  []string
}

// VectorsAll attaches every vector.
func VectorsAll() *VectorSelector { return &VectorSelector{Enable: true} }

// VectorsNone attaches no vectors.
func VectorsNone() *VectorSelector { return &VectorSelector{} }

// VectorsInclude attaches only the named vectors.
func VectorsInclude(names ...string) *VectorSelector {
	return &VectorSelector{Enable: true, Names: names}
}

// MarshalJSON writes true, false or the list of names.
func (s VectorSelector) MarshalJSON() ([]byte, error) {
	if s.Enable && len(s.Names) > 0 {
		return marshalJSON(s.Names)
	}
	return marshalJSON(s.Enable)
}

// SearchParams tunes the search algorithm.
type SearchParams struct {
	HnswEf       *uint64                   `json:"hnsw_ef,omitempty"`
	Exact        *bool                     `json:"exact,omitempty"`
	Quantization *QuantizationSearchParams `json:"quantization,omitempty"`
	IndexedOnly  *bool                     `json:"indexed_only,omitempty"`
}

// QuantizationSearchParams tunes quantized search.
type QuantizationSearchParams struct {
	Ignore       *bool    `json:"ignore,omitempty"`
	Rescore      *bool    `json:"rescore,omitempty"`
	Oversampling *float64 `json:"oversampling,omitempty"`
}

// LookupLocation points a nearest query at vectors stored in another
// collection.
type LookupLocation struct {
	Collection string `json:"collection"`
	Vector     string `json:"vector,omitempty"`
}

// WithLookup attaches a record from another collection to every group,
// looked up by the group id.
type WithLookup struct {
	Collection  string           `json:"collection"`
	WithPayload *PayloadSelector `json:"with_payload,omitempty"`
	WithVectors *VectorSelector  `json:"with_vectors,omitempty"`
}
