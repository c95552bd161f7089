package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/plmtools/lookconf/pkg/cache"
	"github.com/plmtools/lookconf/pkg/plmxml"
	"github.com/plmtools/lookconf/pkg/settings"
)

// openCache builds the snapshot cache from settings. Backend failures
// degrade to the null cache with a warning rather than failing the
// command: the cache only ever saves a re-parse.
func openCache(ctx context.Context, s settings.CacheCfg) cache.Cache {
	logger := loggerFromContext(ctx)

	switch s.Backend {
	case settings.CacheBackendNone:
		return cache.NewNullCache()
	case settings.CacheBackendRedis:
		c, err := cache.NewRedisCache(ctx, s.Redis, "lookconf:")
		if err != nil {
			logger.Warnf("redis cache unavailable, parsing uncached: %v", err)
			return cache.NewNullCache()
		}
		return c
	default:
		dir := s.Dir
		if dir == "" {
			base, err := os.UserCacheDir()
			if err != nil {
				logger.Warnf("no cache dir, parsing uncached: %v", err)
				return cache.NewNullCache()
			}
			dir = filepath.Join(base, "lookconf")
		}
		c, err := cache.NewFileCache(dir)
		if err != nil {
			logger.Warnf("file cache unavailable, parsing uncached: %v", err)
			return cache.NewNullCache()
		}
		return c
	}
}

// loadDocument parses a PLM-XML file, serving the parsed form from the
// snapshot cache when the file's content digest is known. The boolean
// reports a cache hit.
func loadDocument(ctx context.Context, opts *rootOpts, path string) (*plmxml.Document, bool, error) {
	logger := loggerFromContext(ctx)

	c := openCache(ctx, opts.settings.Cache)
	defer c.Close()

	digest, err := cache.FileDigest(path)
	if err != nil {
		return nil, false, err
	}
	key := cache.SnapshotKey(digest)

	if data, hit, err := c.Get(ctx, key); err == nil && hit {
		snap, err := plmxml.UnmarshalSnapshot(data)
		if err == nil {
			logger.Debug("document served from snapshot cache", "digest", digest[:12])
			doc := plmxml.FromSnapshot(snap)
			doc.Path = path
			return doc, true, nil
		}
		// A snapshot written by an older build; drop it and reparse.
		_ = c.Delete(ctx, key)
	}

	spin := newSpinnerWithContext(ctx, fmt.Sprintf("Parsing %s", filepath.Base(path)))
	spin.Start()
	doc, err := plmxml.ParseFile(path, logger)
	spin.Stop()
	if err != nil {
		return nil, false, err
	}

	if data, err := doc.Snapshot().Marshal(); err == nil {
		if err := c.Set(ctx, key, data, opts.settings.Cache.TTL()); err != nil {
			logger.Debug("snapshot cache write failed", "err", err)
		}
	}

	return doc, false, nil
}

// reportConflicts prints advisory variant conflicts, one summary line per
// affected target.
func reportConflicts(doc *plmxml.Document) {
	for _, line := range doc.Looks.ConflictSummary() {
		printWarning("variant overlap: %s", line)
	}
}
