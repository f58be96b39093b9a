package qdrant

import (
	"encoding/json"
	"testing"
	"time"

	qdrant "github.com/qdrant/go-client/qdrant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterConditions_Render(t *testing.T) {
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	until := time.Date(2025, 4, 1, 12, 30, 0, 0, time.UTC)
	low, high := 0.25, 0.75

	tests := []struct {
		name  string
		cond  FilterCondition
		rest  string
		proto func(t *testing.T, c *qdrant.Condition)
	}{
		{
			name: "text match",
			cond: TextCondition{Key: "lang", Value: "en"},
			rest: `{"key":"lang","match":{"value":"en"}}`,
			proto: func(t *testing.T, c *qdrant.Condition) {
				assert.Equal(t, "lang", c.GetField().GetKey())
				assert.Equal(t, "en", c.GetField().GetMatch().GetKeyword())
			},
		},
		{
			name: "bool match",
			cond: BoolCondition{Key: "reviewed", Value: true},
			rest: `{"key":"reviewed","match":{"value":true}}`,
			proto: func(t *testing.T, c *qdrant.Condition) {
				assert.True(t, c.GetField().GetMatch().GetBoolean())
			},
		},
		{
			name: "int match",
			cond: IntCondition{Key: "year", Value: 2025},
			rest: `{"key":"year","match":{"value":2025}}`,
			proto: func(t *testing.T, c *qdrant.Condition) {
				assert.Equal(t, int64(2025), c.GetField().GetMatch().GetInteger())
			},
		},
		{
			name: "user field prefix",
			cond: TextCondition{Key: "author", Value: "kim", FieldType: UserField},
			rest: `{"key":"custom.author","match":{"value":"kim"}}`,
			proto: func(t *testing.T, c *qdrant.Condition) {
				assert.Equal(t, "custom.author", c.GetField().GetKey())
			},
		},
		{
			name: "user field already prefixed",
			cond: TextCondition{Key: "custom.author", Value: "kim", FieldType: UserField},
			rest: `{"key":"custom.author","match":{"value":"kim"}}`,
			proto: func(t *testing.T, c *qdrant.Condition) {
				assert.Equal(t, "custom.author", c.GetField().GetKey())
			},
		},
		{
			name: "text any",
			cond: TextAnyCondition{Key: "lang", Values: []string{"en", "de"}},
			rest: `{"key":"lang","match":{"any":["en","de"]}}`,
			proto: func(t *testing.T, c *qdrant.Condition) {
				assert.Equal(t, []string{"en", "de"}, c.GetField().GetMatch().GetKeywords().GetStrings())
			},
		},
		{
			name: "int any",
			cond: IntAnyCondition{Key: "rank", Values: []int64{1, 2}},
			rest: `{"key":"rank","match":{"any":[1,2]}}`,
			proto: func(t *testing.T, c *qdrant.Condition) {
				assert.Equal(t, []int64{1, 2}, c.GetField().GetMatch().GetIntegers().GetIntegers())
			},
		},
		{
			name: "text except",
			cond: TextExceptCondition{Key: "state", Values: []string{"draft"}},
			rest: `{"key":"state","match":{"except":["draft"]}}`,
			proto: func(t *testing.T, c *qdrant.Condition) {
				assert.Equal(t, []string{"draft"}, c.GetField().GetMatch().GetExceptKeywords().GetStrings())
			},
		},
		{
			name: "int except",
			cond: IntExceptCondition{Key: "rank", Values: []int64{3}},
			rest: `{"key":"rank","match":{"except":[3]}}`,
			proto: func(t *testing.T, c *qdrant.Condition) {
				assert.Equal(t, []int64{3}, c.GetField().GetMatch().GetExceptIntegers().GetIntegers())
			},
		},
		{
			name: "numeric range",
			cond: NumericRangeCondition{Key: "score", Value: NumericRange{Gte: &low, Lt: &high}},
			rest: `{"key":"score","range":{"gte":0.25,"lt":0.75}}`,
			proto: func(t *testing.T, c *qdrant.Condition) {
				r := c.GetField().GetRange()
				assert.Equal(t, 0.25, r.GetGte())
				assert.Equal(t, 0.75, r.GetLt())
				assert.Nil(t, r.Gt)
			},
		},
		{
			name: "time range",
			cond: TimeRangeCondition{Key: "published_at", Value: TimeRange{Gt: &from, Lte: &until}},
			rest: `{"key":"published_at","range":{"gt":"2025-03-01T00:00:00Z","lte":"2025-04-01T12:30:00Z"}}`,
			proto: func(t *testing.T, c *qdrant.Condition) {
				r := c.GetField().GetDatetimeRange()
				assert.True(t, from.Equal(r.GetGt().AsTime()))
				assert.True(t, until.Equal(r.GetLte().AsTime()))
				assert.Nil(t, r.GetGte())
			},
		},
		{
			name: "is null",
			cond: IsNullCondition{Key: "owner"},
			rest: `{"is_null":{"key":"owner"}}`,
			proto: func(t *testing.T, c *qdrant.Condition) {
				assert.Equal(t, "owner", c.GetIsNull().GetKey())
			},
		},
		{
			name: "is empty user field",
			cond: IsEmptyCondition{Key: "tags", FieldType: UserField},
			rest: `{"is_empty":{"key":"custom.tags"}}`,
			proto: func(t *testing.T, c *qdrant.Condition) {
				assert.Equal(t, "custom.tags", c.GetIsEmpty().GetKey())
			},
		},
		{
			name: "has id",
			cond: HasIDCondition{IDs: []PointID{NewPointIDUint(7), NewPointIDString("a1")}},
			rest: `{"has_id":[7,"a1"]}`,
			proto: func(t *testing.T, c *qdrant.Condition) {
				ids := c.GetHasId().GetHasId()
				require.Len(t, ids, 2)
				assert.Equal(t, uint64(7), ids[0].GetNum())
				assert.Equal(t, "a1", ids[1].GetUuid())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rest := tt.cond.restConditions()
			require.Len(t, rest, 1)
			data, err := marshalJSON(rest[0])
			require.NoError(t, err)
			assert.JSONEq(t, tt.rest, string(data))

			proto := tt.cond.ToQdrantCondition()
			require.Len(t, proto, 1)
			tt.proto(t, proto[0])
		})
	}
}

func TestFilterConditions_EmptyRenderNothing(t *testing.T) {
	tests := []struct {
		name string
		cond FilterCondition
	}{
		{"text any without values", TextAnyCondition{Key: "lang"}},
		{"int any without values", IntAnyCondition{Key: "rank", Values: []int64{}}},
		{"text except without values", TextExceptCondition{Key: "state"}},
		{"int except without values", IntExceptCondition{Key: "rank"}},
		{"numeric range without bounds", NumericRangeCondition{Key: "score"}},
		{"time range without bounds", TimeRangeCondition{Key: "published_at"}},
		{"has id without ids", HasIDCondition{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, tt.cond.restConditions())
			assert.Empty(t, tt.cond.ToQdrantCondition())
		})
	}
}

func TestFilterSet_Clauses(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	filters := &FilterSet{
		Must: &ConditionSet{Conditions: []FilterCondition{
			TextCondition{Key: "lang", Value: "en"},
			TimeRangeCondition{Key: "published_at", Value: TimeRange{Gte: &from}},
		}},
		Should: &ConditionSet{Conditions: []FilterCondition{
			TextAnyCondition{Key: "section", Values: []string{"news", "sport"}},
			HasIDCondition{IDs: []PointID{NewPointIDUint(7)}},
		}},
		MustNot: &ConditionSet{Conditions: []FilterCondition{
			BoolCondition{Key: "deleted", Value: true},
			IntExceptCondition{Key: "rank", Values: []int64{1, 2}},
			IsNullCondition{Key: "owner"},
			IsEmptyCondition{Key: "tags", FieldType: UserField},
		}},
	}

	data, err := filters.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"must": [
			{"key": "lang", "match": {"value": "en"}},
			{"key": "published_at", "range": {"gte": "2025-01-01T00:00:00Z"}}
		],
		"should": [
			{"key": "section", "match": {"any": ["news", "sport"]}},
			{"has_id": [7]}
		],
		"must_not": [
			{"key": "deleted", "match": {"value": true}},
			{"key": "rank", "match": {"except": [1, 2]}},
			{"is_null": {"key": "owner"}},
			{"is_empty": {"key": "custom.tags"}}
		]
	}`, string(data))

	proto := filters.ToQdrantFilter()
	require.NotNil(t, proto)
	assert.Len(t, proto.GetMust(), 2)
	assert.Len(t, proto.GetShould(), 2)
	assert.Len(t, proto.GetMustNot(), 4)
}

func TestFilterSet_EmptyRendersNoFilter(t *testing.T) {
	tests := []struct {
		name    string
		filters *FilterSet
	}{
		{"nil set", nil},
		{"no clauses", &FilterSet{}},
		{"empty clause", &FilterSet{Must: &ConditionSet{}}},
		{"only empty conditions", &FilterSet{
			Must:   &ConditionSet{Conditions: []FilterCondition{TextAnyCondition{Key: "lang"}}},
			Should: &ConditionSet{Conditions: []FilterCondition{NumericRangeCondition{Key: "score"}}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.filters.MarshalJSON()
			require.NoError(t, err)
			assert.JSONEq(t, `{}`, string(data))
			assert.Nil(t, tt.filters.ToQdrantFilter())
		})
	}
}

func TestFilterSet_EmptyConditionsAreSkipped(t *testing.T) {
	filters := &FilterSet{Must: &ConditionSet{Conditions: []FilterCondition{
		TextCondition{Key: "lang", Value: "en"},
		TextAnyCondition{Key: "section"},
		TimeRangeCondition{Key: "published_at"},
	}}}

	data, err := filters.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"must":[{"key":"lang","match":{"value":"en"}}]}`, string(data))
	assert.Len(t, filters.ToQdrantFilter().GetMust(), 1)
}

func TestFilterJSON_AcceptedShapes(t *testing.T) {
	set := FilterSet{Must: &ConditionSet{Conditions: []FilterCondition{TextCondition{Key: "a", Value: "b"}}}}
	want := `{"must":[{"key":"a","match":{"value":"b"}}]}`

	tests := []struct {
		name   string
		filter any
		want   string
	}{
		{"pointer", &set, want},
		{"value", set, want},
		{"raw message", json.RawMessage(want), want},
		{"bytes", []byte(want), want},
		{"map", map[string]any{"must": []any{}}, `{"must":[]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := filterJSON(tt.filter)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))
		})
	}
}

func TestFilterJSON_NilMeansNoFilter(t *testing.T) {
	var set *FilterSet
	for _, f := range []any{nil, set, json.RawMessage(nil), map[string]any(nil)} {
		data, err := filterJSON(f)
		require.NoError(t, err)
		assert.Nil(t, data)
	}
}

func TestFilterSet_InRequestBody(t *testing.T) {
	req := QueryPointsRequest{
		Query: NewNearestQuery(DenseVector{0.5}),
		Filter: &FilterSet{MustNot: &ConditionSet{Conditions: []FilterCondition{
			BoolCondition{Key: "deleted", Value: true},
		}}},
		Limit: u64(3),
	}
	assert.JSONEq(t,
		`{"query":[0.5],"filter":{"must_not":[{"key":"deleted","match":{"value":true}}]},"limit":3}`,
		encode(t, req))
}
