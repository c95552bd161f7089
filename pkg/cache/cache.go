// Package cache provides byte-oriented caching for parsed document
// snapshots.
//
// Parsing a production PLM-XML file dwarfs every other step of a CLI run,
// so snapshots are cached keyed by the source file's content digest: any
// edit to the file changes the key and the stale entry simply stops being
// hit. The file backend serves single-machine use; the Redis backend lets
// render-farm nodes share one cache.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-oriented key/value store with per-entry TTL.
type Cache interface {
	// Get retrieves a value. The second return is false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores a value. A ttl of 0 means the entry never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// Close releases backend resources.
	Close() error
}

// SnapshotKey builds the cache key for a document snapshot from the source
// file's content digest.
func SnapshotKey(digest string) string {
	return "snapshot:" + digest
}
