package qdrant

import (
	"fmt"
)

// msgMergeQueryRequired is reported for prefetches without a query to merge them.
const msgMergeQueryRequired = "a query is needed to merge the prefetches; " +
	"prefetches cannot be combined without an explicit root query"

// validateQueryTree checks a query and its prefetches, recursively.
//
//   - prefetches without a query cannot be merged;
//   - fusion only has something to merge when there is at least one prefetch;
//   - no prefetch and no query is a plain filtered scroll and is fine.
func validateQueryTree(prefix string, query PointsQuery, prefetch []Prefetch) error {
	query = normalizeQuery(query)
	if query == nil {
		if len(prefetch) > 0 {
			return invalid(joinField(prefix, "query"), msgMergeQueryRequired)
		}
	} else {
		if err := query.validate(joinField(prefix, "query")); err != nil {
			return err
		}
		if _, ok := query.(FusionQuery); ok && len(prefetch) == 0 {
			return invalid(joinField(prefix, "query"), "fusion needs at least one prefetch to merge")
		}
	}
	for i, p := range prefetch {
		if err := validateQueryTree(joinField(prefix, fmt.Sprintf("prefetch[%d]", i)), p.Query, p.Prefetch); err != nil {
			return err
		}
	}
	return nil
}

func joinField(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}
