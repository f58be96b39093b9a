package qdrant

import (
	"net/url"
	"strings"

	gojson "github.com/goccy/go-json"
)

// marshalJSON is the single JSON encoder of the package.
func marshalJSON(v any) ([]byte, error) {
	return gojson.Marshal(v)
}

// unmarshalJSON is the single JSON decoder of the package.
func unmarshalJSON(data []byte, v any) error {
	if err := gojson.Unmarshal(data, v); err != nil {
		return &CodecError{Kind: ErrMalformedValue, Raw: string(data), Msg: err.Error()}
	}
	return nil
}

// collectionPath builds /collections/{name}/{suffix} with the name escaped.
func collectionPath(collection string, suffix ...string) string {
	parts := append([]string{"collections", url.PathEscape(collection)}, suffix...)
	return "/" + strings.Join(parts, "/")
}

// resolveCollection falls back to the configured default collection.
func (c *QdrantClient) resolveCollection(collection string) (string, error) {
	if collection != "" {
		return collection, nil
	}
	if c.cfg != nil && c.cfg.DefaultCollection != "" {
		return c.cfg.DefaultCollection, nil
	}
	return "", invalid("collection", "collection name cannot be empty and no default collection is configured")
}

// derefUint64 safely dereferences a *uint64 pointer.
// If the pointer is nil, it returns 0 instead of panicking.
func derefUint64(v *uint64) uint64 {
	if v != nil {
		return *v
	}
	return 0
}
