package qdrant

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"
	"google.golang.org/protobuf/types/known/timestamppb"
)

// UserPayloadPrefix is the payload object holding user-defined fields. Conditions
// with FieldType UserField and payloads built by BuildPayload agree on it.
const UserPayloadPrefix = "custom"

// FilterCondition is the interface for all filter conditions.
// A condition renders both to the REST filter JSON and to gRPC conditions.
type FilterCondition interface {
	ToQdrantCondition() []*qdrant.Condition
	restConditions() []any
}

// FieldType indicates whether a field is internal or user-defined
type FieldType int

const (
	// InternalField - system-managed fields stored at top-level
	InternalField FieldType = iota
	// UserField - user-defined fields stored under "custom." prefix
	UserField
)

// TimeRange represents a time-based filter condition
type TimeRange struct {
	Gt  *time.Time // Greater than this time
	Gte *time.Time // Greater than or equal to this time
	Lt  *time.Time // Less than this time
	Lte *time.Time // Less than or equal to this time
}

// NumericRange represents a numeric range filter condition
type NumericRange struct {
	Gt  *float64
	Gte *float64
	Lt  *float64
	Lte *float64
}

type MatchCondition[T string | bool | int64] struct {
	Key       string
	Value     T
	FieldType FieldType // Internal or User field (default: InternalField)
}

func (c MatchCondition[T]) ToQdrantCondition() []*qdrant.Condition {
	key := resolveFieldKey(c.Key, c.FieldType)
	switch v := any(c.Value).(type) {
	case string:
		return []*qdrant.Condition{qdrant.NewMatch(key, v)}
	case bool:
		return []*qdrant.Condition{qdrant.NewMatchBool(key, v)}
	case int64:
		return []*qdrant.Condition{qdrant.NewMatchInt(key, v)}
	default:
		return nil
	}
}

func (c MatchCondition[T]) restConditions() []any {
	return []any{fieldCondition(resolveFieldKey(c.Key, c.FieldType), "match", map[string]any{"value": c.Value})}
}

// MatchAnyCondition matches if value is one of the given values (IN operator)
// Applicable to keyword (string) and integer payloads
type MatchAnyCondition[T string | int64] struct {
	Key       string
	Values    []T
	FieldType FieldType
}

func (c MatchAnyCondition[T]) ToQdrantCondition() []*qdrant.Condition {
	if len(c.Values) == 0 {
		return nil
	}
	key := resolveFieldKey(c.Key, c.FieldType)
	switch v := any(c.Values).(type) {
	case []string:
		return []*qdrant.Condition{qdrant.NewMatchKeywords(key, v...)}
	case []int64:
		return []*qdrant.Condition{qdrant.NewMatchInts(key, v...)}
	default:
		return nil
	}
}

func (c MatchAnyCondition[T]) restConditions() []any {
	if len(c.Values) == 0 {
		return nil
	}
	return []any{fieldCondition(resolveFieldKey(c.Key, c.FieldType), "match", map[string]any{"any": c.Values})}
}

// MatchExceptCondition matches if value is NOT one of the given values (NOT IN operator)
// Applicable to keyword (string) and integer payloads
type MatchExceptCondition[T string | int64] struct {
	Key       string
	Values    []T
	FieldType FieldType
}

func (c MatchExceptCondition[T]) ToQdrantCondition() []*qdrant.Condition {
	if len(c.Values) == 0 {
		return nil
	}
	key := resolveFieldKey(c.Key, c.FieldType)
	switch v := any(c.Values).(type) {
	case []string:
		return []*qdrant.Condition{qdrant.NewMatchExceptKeywords(key, v...)}
	case []int64:
		return []*qdrant.Condition{qdrant.NewMatchExceptInts(key, v...)}
	default:
		return nil
	}
}

func (c MatchExceptCondition[T]) restConditions() []any {
	if len(c.Values) == 0 {
		return nil
	}
	return []any{fieldCondition(resolveFieldKey(c.Key, c.FieldType), "match", map[string]any{"except": c.Values})}
}

type TextCondition = MatchCondition[string]
type BoolCondition = MatchCondition[bool]
type IntCondition = MatchCondition[int64]
type TextAnyCondition = MatchAnyCondition[string]
type IntAnyCondition = MatchAnyCondition[int64]
type TextExceptCondition = MatchExceptCondition[string]
type IntExceptCondition = MatchExceptCondition[int64]

// TimeRangeCondition represents a time range filter condition
type TimeRangeCondition struct {
	Key       string
	Value     TimeRange
	FieldType FieldType // Internal or User field (default: InternalField)
}

func (c TimeRangeCondition) ToQdrantCondition() []*qdrant.Condition {
	return buildDateTimeRangeConditions(resolveFieldKey(c.Key, c.FieldType), c.Value)
}

func (c TimeRangeCondition) restConditions() []any {
	bounds := map[string]any{}
	for name, t := range map[string]*time.Time{"gt": c.Value.Gt, "gte": c.Value.Gte, "lt": c.Value.Lt, "lte": c.Value.Lte} {
		if t != nil {
			bounds[name] = t.UTC().Format(time.RFC3339Nano)
		}
	}
	if len(bounds) == 0 {
		return nil
	}
	return []any{fieldCondition(resolveFieldKey(c.Key, c.FieldType), "range", bounds)}
}

// NumericRangeCondition filters on a numeric payload field
type NumericRangeCondition struct {
	Key       string
	Value     NumericRange
	FieldType FieldType
}

func (c NumericRangeCondition) ToQdrantCondition() []*qdrant.Condition {
	r := c.Value
	if r.Gt == nil && r.Gte == nil && r.Lt == nil && r.Lte == nil {
		return nil
	}
	return []*qdrant.Condition{qdrant.NewRange(resolveFieldKey(c.Key, c.FieldType), &qdrant.Range{
		Gt: r.Gt, Gte: r.Gte, Lt: r.Lt, Lte: r.Lte,
	})}
}

func (c NumericRangeCondition) restConditions() []any {
	bounds := map[string]any{}
	for name, f := range map[string]*float64{"gt": c.Value.Gt, "gte": c.Value.Gte, "lt": c.Value.Lt, "lte": c.Value.Lte} {
		if f != nil {
			bounds[name] = *f
		}
	}
	if len(bounds) == 0 {
		return nil
	}
	return []any{fieldCondition(resolveFieldKey(c.Key, c.FieldType), "range", bounds)}
}

// IsNullCondition matches points where the field is null
type IsNullCondition struct {
	Key       string
	FieldType FieldType
}

func (c IsNullCondition) ToQdrantCondition() []*qdrant.Condition {
	return []*qdrant.Condition{qdrant.NewIsNull(resolveFieldKey(c.Key, c.FieldType))}
}

func (c IsNullCondition) restConditions() []any {
	return []any{map[string]any{"is_null": map[string]any{"key": resolveFieldKey(c.Key, c.FieldType)}}}
}

// IsEmptyCondition matches points where the field is missing, null or []
type IsEmptyCondition struct {
	Key       string
	FieldType FieldType
}

func (c IsEmptyCondition) ToQdrantCondition() []*qdrant.Condition {
	return []*qdrant.Condition{qdrant.NewIsEmpty(resolveFieldKey(c.Key, c.FieldType))}
}

func (c IsEmptyCondition) restConditions() []any {
	return []any{map[string]any{"is_empty": map[string]any{"key": resolveFieldKey(c.Key, c.FieldType)}}}
}

// HasIDCondition matches points by id
type HasIDCondition struct {
	IDs []PointID
}

func (c HasIDCondition) ToQdrantCondition() []*qdrant.Condition {
	if len(c.IDs) == 0 {
		return nil
	}
	return []*qdrant.Condition{qdrant.NewHasID(toQdrantPointIDs(c.IDs)...)}
}

func (c HasIDCondition) restConditions() []any {
	if len(c.IDs) == 0 {
		return nil
	}
	return []any{map[string]any{"has_id": c.IDs}}
}

func fieldCondition(key, op string, body any) map[string]any {
	return map[string]any{"key": key, op: body}
}

// resolveFieldKey returns the payload path of a key: "lang" stays "lang",
// a user field "author" becomes "custom.author".
func resolveFieldKey(key string, fieldType FieldType) string {
	if fieldType == UserField {
		// Prevent double-prefixing
		if strings.HasPrefix(key, UserPayloadPrefix+".") {
			return key
		}
		return UserPayloadPrefix + "." + key
	}
	return key
}

// ConditionSet holds conditions for a single clause
type ConditionSet struct {
	Conditions []FilterCondition
}

// FilterSet supports Must (AND), Should (OR), and MustNot (NOT) clauses.
// It can be used as the Filter of any request or prefetch.
//
// Example:
//
//	filters := &FilterSet{
//	    Must: &ConditionSet{
//	        Conditions: []FilterCondition{
//	            TextCondition{Key: "city", Value: "London"},
//	        },
//	    },
//	}
type FilterSet struct {
	Must    *ConditionSet // AND - all conditions must match
	Should  *ConditionSet // OR - at least one condition must match
	MustNot *ConditionSet // NOT - none of the conditions should match
}

// MarshalJSON renders the REST filter object. Empty clauses are omitted.
func (f *FilterSet) MarshalJSON() ([]byte, error) {
	out := map[string][]any{}
	if f != nil {
		for name, cs := range map[string]*ConditionSet{"must": f.Must, "should": f.Should, "must_not": f.MustNot} {
			if conds := restConditionList(cs); len(conds) > 0 {
				out[name] = conds
			}
		}
	}
	return marshalJSON(out)
}

// ToQdrantFilter converts the set into a gRPC filter, nil when it has no conditions.
func (f *FilterSet) ToQdrantFilter() *qdrant.Filter {
	return buildFilter(f)
}

func restConditionList(cs *ConditionSet) []any {
	if cs == nil {
		return nil
	}
	var out []any
	for _, c := range cs.Conditions {
		out = append(out, c.restConditions()...)
	}
	return out
}

// buildFilter constructs a Qdrant filter from FilterSet
func buildFilter(filters *FilterSet) *qdrant.Filter {
	if filters == nil {
		return nil
	}

	filter := &qdrant.Filter{}

	if filters.Must != nil {
		filter.Must = buildConditions(filters.Must)
	}

	if filters.Should != nil {
		filter.Should = buildConditions(filters.Should)
	}

	if filters.MustNot != nil {
		filter.MustNot = buildConditions(filters.MustNot)
	}

	// Return nil if no conditions were added
	if len(filter.Must) == 0 && len(filter.Should) == 0 && len(filter.MustNot) == 0 {
		return nil
	}

	return filter
}

// buildConditions converts a ConditionSet to Qdrant conditions
func buildConditions(cs *ConditionSet) []*qdrant.Condition {
	if cs == nil {
		return nil
	}

	var conditions []*qdrant.Condition
	for _, c := range cs.Conditions {
		conditions = append(conditions, c.ToQdrantCondition()...)
	}
	return conditions
}

// buildDateTimeRangeConditions creates datetime range conditions
func buildDateTimeRangeConditions(key string, tr TimeRange) []*qdrant.Condition {
	dateRange := &qdrant.DatetimeRange{
		Gt:  toTimestamp(tr.Gt),
		Gte: toTimestamp(tr.Gte),
		Lt:  toTimestamp(tr.Lt),
		Lte: toTimestamp(tr.Lte),
	}

	if dateRange.Gt == nil && dateRange.Gte == nil && dateRange.Lt == nil && dateRange.Lte == nil {
		return nil
	}

	return []*qdrant.Condition{qdrant.NewDatetimeRange(key, dateRange)}
}

// toTimestamp converts a *time.Time to *timestamppb.Timestamp (nil-safe)
func toTimestamp(t *time.Time) *timestamppb.Timestamp {
	if t == nil {
		return nil
	}
	return timestamppb.New(*t)
}

// filterJSON renders an opaque filter value. Nil values, including typed nil
// pointers, mean "no filter".
func filterJSON(filter any) (json.RawMessage, error) {
	if isNil(filter) {
		return nil, nil
	}
	switch f := filter.(type) {
	case json.RawMessage:
		return f, nil
	case []byte:
		return json.RawMessage(f), nil
	case FilterSet:
		return f.MarshalJSON()
	default:
		return marshalJSON(f)
	}
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
