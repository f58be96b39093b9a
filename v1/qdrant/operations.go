package qdrant

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// QueryPoints ──────────────────────────────────────────────────────────────
// QueryPoints
// ──────────────────────────────────────────────────────────────
//
// QueryPoints runs a universal query against a collection. An empty
// collection name falls back to Config.DefaultCollection.
//
// Example:
//
//	limit := uint64(10)
//	res, err := client.QueryPoints(ctx, "docs", qdrant.QueryPointsRequest{
//	    Query:       qdrant.NewNearestQuery(qdrant.DenseVector{0.1, 0.2, 0.3}),
//	    Limit:       &limit,
//	    WithPayload: qdrant.PayloadAll(),
//	})
func (c *QdrantClient) QueryPoints(ctx context.Context, collection string, req QueryPointsRequest) (*QueryResult, error) {
	name, err := c.resolveCollection(collection)
	if err != nil {
		return nil, c.reject(ctx, "query", err)
	}
	body, err := c.call(ctx, "query", collectionPath(name, "points", "query"), req)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] query on '%s' failed: %w", name, err)
	}
	res, err := DecodeQueryResponse(body)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] query on '%s' returned an unreadable response: %w", name, err)
	}
	c.logger.Debug("[Qdrant] query returned points", nil, map[string]interface{}{
		"collection": name,
		"points":     len(res.Points),
		"limit":      derefUint64(req.Limit),
	})
	return res, nil
}

// QueryPointsGrouped ──────────────────────────────────────────────────────────────
// QueryPointsGrouped
// ──────────────────────────────────────────────────────────────
//
// QueryPointsGrouped runs a query whose hits are grouped by a payload field.
// At most GroupsLimit groups with at most GroupSize hits each are returned.
func (c *QdrantClient) QueryPointsGrouped(ctx context.Context, collection string, req QueryPointsGroupedRequest) (*GroupsResult, error) {
	name, err := c.resolveCollection(collection)
	if err != nil {
		return nil, c.reject(ctx, "query_groups", err)
	}
	body, err := c.call(ctx, "query_groups", collectionPath(name, "points", "query", "groups"), req)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] grouped query on '%s' failed: %w", name, err)
	}
	res, err := DecodeGroupsResponse(body)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] grouped query on '%s' returned an unreadable response: %w", name, err)
	}
	c.logger.Debug("[Qdrant] grouped query returned groups", nil, map[string]interface{}{
		"collection": name,
		"groups":     len(res.Groups),
		"group_by":   req.GroupBy,
	})
	return res, nil
}

// QueryPointsBatch ──────────────────────────────────────────────────────────────
// QueryPointsBatch
// ──────────────────────────────────────────────────────────────
//
// QueryPointsBatch sends several independent queries in one request. Slot i
// of the result answers search i; a slot the server failed carries its own
// error and does not fail the others.
func (c *QdrantClient) QueryPointsBatch(ctx context.Context, collection string, req QueryPointsBatchRequest) (*BatchResult, error) {
	name, err := c.resolveCollection(collection)
	if err != nil {
		return nil, c.reject(ctx, "query_batch", err)
	}
	body, err := c.call(ctx, "query_batch", collectionPath(name, "points", "query", "batch"), req)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] batch query on '%s' failed: %w", name, err)
	}
	res, err := DecodeBatchResponse(body)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] batch query on '%s' returned an unreadable response: %w", name, err)
	}
	if len(res.Slots) != len(req.Searches) {
		return nil, fmt.Errorf("[Qdrant] batch query on '%s' returned %d results for %d searches: %w",
			name, len(res.Slots), len(req.Searches), ErrMalformedValue)
	}
	return res, nil
}

// SearchConcurrent ──────────────────────────────────────────────────────────────
// SearchConcurrent
// ──────────────────────────────────────────────────────────────
//
// SearchConcurrent sends each query as its own request, with at most
// Config.MaxConcurrentSearches in flight. Slot order matches the input and a
// failed request only fails its slot. Requests are validated up front; an
// invalid one fails the whole call before anything is sent.
func (c *QdrantClient) SearchConcurrent(ctx context.Context, collection string, reqs ...QueryPointsRequest) (*BatchResult, error) {
	if len(reqs) == 0 {
		return nil, invalid("searches", "at least one search request is required")
	}
	for i, r := range reqs {
		if err := r.Validate(); err != nil {
			return nil, fmt.Errorf("request [%d]: %w", i, err)
		}
	}

	limit := c.cfg.MaxConcurrentSearches
	if limit <= 0 {
		limit = defaultMaxConcurrentSearches
	}

	slots := make([]BatchSlot, len(reqs))
	var g errgroup.Group
	g.SetLimit(limit)
	for i, r := range reqs {
		g.Go(func() error {
			res, err := c.QueryPoints(ctx, collection, r)
			if err != nil {
				slots[i] = BatchSlot{Err: err}
				return nil
			}
			slots[i] = BatchSlot{Points: res.Points}
			return nil
		})
	}
	_ = g.Wait()

	return &BatchResult{Slots: slots}, nil
}

// SetPayload ──────────────────────────────────────────────────────────────
// SetPayload
// ──────────────────────────────────────────────────────────────
//
// SetPayload merges payload fields into the selected points and waits for
// the update to be applied.
func (c *QdrantClient) SetPayload(ctx context.Context, collection string, req SetPayloadRequest) (*UpdateResult, error) {
	return c.update(ctx, "set_payload", collection, "payload", req)
}

// DeletePayloadKeys ──────────────────────────────────────────────────────────────
// DeletePayloadKeys
// ──────────────────────────────────────────────────────────────
//
// DeletePayloadKeys removes payload fields from the selected points and waits
// for the update to be applied.
func (c *QdrantClient) DeletePayloadKeys(ctx context.Context, collection string, req DeletePayloadKeysRequest) (*UpdateResult, error) {
	return c.update(ctx, "delete_payload", collection, "payload/delete", req)
}

func (c *QdrantClient) update(ctx context.Context, op, collection, suffix string, req Request) (*UpdateResult, error) {
	name, err := c.resolveCollection(collection)
	if err != nil {
		return nil, c.reject(ctx, op, err)
	}
	body, err := c.call(ctx, op, collectionPath(name, "points", suffix)+"?wait=true", req)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] %s on '%s' failed: %w", op, name, err)
	}
	res, err := DecodeUpdateResponse(body)
	if err != nil {
		return nil, fmt.Errorf("[Qdrant] %s on '%s' returned an unreadable response: %w", op, name, err)
	}
	c.logger.Info("[Qdrant] payload updated", nil, map[string]interface{}{
		"collection":   name,
		"operation":    op,
		"operation_id": res.OperationID,
		"status":       res.Status,
	})
	return res, nil
}
