package cli

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/plmtools/lookconf/pkg/settings"
)

const sampleDoc = `<?xml version="1.0" encoding="UTF-8"?>
<PLMXML>
  <ProductDef><InstanceGraph>
    <ProductInstance id="n1" name="Spoiler" type="SHAPE">
      <UserData>
        <UserValue title="PR_TAGS" value="AB"/>
        <UserValue title="LINC_ID" value="L001"/>
      </UserData>
    </ProductInstance>
    <ProductInstance id="n2" name="Skirt" type="SHAPE">
      <UserData>
        <UserValue title="PR_TAGS" value="CD"/>
        <UserValue title="LINC_ID" value="L002"/>
      </UserData>
    </ProductInstance>
    <ProductInstance id="ll" name="LookLibrary">
      <UserData>
        <UserValue title="t1" value="Seat~ [Nappa~ AB; ~ black nappa] [Cloth~ CD; ~ grey cloth]"/>
      </UserData>
    </ProductInstance>
  </InstanceGraph></ProductDef>
</PLMXML>`

func writeSampleDoc(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "structure.plmxml")
	if err := os.WriteFile(path, []byte(sampleDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func fileCacheOpts(t *testing.T) *rootOpts {
	t.Helper()
	s := settings.Default()
	s.Cache.Dir = t.TempDir()
	return &rootOpts{settings: s}
}

func TestLoadDocumentCachesSnapshot(t *testing.T) {
	ctx := context.Background()
	opts := fileCacheOpts(t)
	path := writeSampleDoc(t)

	doc, cached, err := loadDocument(ctx, opts, path)
	if err != nil {
		t.Fatalf("loadDocument() error = %v", err)
	}
	if cached {
		t.Error("first load should parse, not hit the cache")
	}
	if doc.Graph.Len() != 2 || doc.Looks.Len() != 1 {
		t.Fatalf("got %d nodes, %d targets", doc.Graph.Len(), doc.Looks.Len())
	}

	doc2, cached, err := loadDocument(ctx, opts, path)
	if err != nil {
		t.Fatalf("second loadDocument() error = %v", err)
	}
	if !cached {
		t.Error("second load should hit the snapshot cache")
	}
	if doc2.Path != path {
		t.Errorf("cached doc.Path = %q, want %q", doc2.Path, path)
	}
	if doc2.Graph.Len() != doc.Graph.Len() || doc2.Looks.Len() != doc.Looks.Len() {
		t.Error("cached document should match the parsed one")
	}
}

func TestLoadDocumentReparsesOnContentChange(t *testing.T) {
	ctx := context.Background()
	opts := fileCacheOpts(t)
	path := writeSampleDoc(t)

	if _, _, err := loadDocument(ctx, opts, path); err != nil {
		t.Fatal(err)
	}

	changed := strings.Replace(sampleDoc, `value="AB"`, `value="EF"`, 1)
	if err := os.WriteFile(path, []byte(changed), 0o644); err != nil {
		t.Fatal(err)
	}

	doc, cached, err := loadDocument(ctx, opts, path)
	if err != nil {
		t.Fatal(err)
	}
	if cached {
		t.Error("changed content must miss the cache")
	}
	if got := doc.Graph.Node("n1").PRTags; got != "EF" {
		t.Errorf("n1.PRTags = %q, want the reparsed value", got)
	}
}

func TestLoadDocumentMissingFile(t *testing.T) {
	opts := fileCacheOpts(t)
	if _, _, err := loadDocument(context.Background(), opts, filepath.Join(t.TempDir(), "nope.plmxml")); err == nil {
		t.Error("loadDocument should fail for a missing file")
	}
}

func TestOpenCacheNoneBackend(t *testing.T) {
	c := openCache(context.Background(), settings.CacheCfg{Backend: settings.CacheBackendNone})
	defer c.Close()

	if err := c.Set(context.Background(), "k", []byte("v"), 0); err != nil {
		t.Fatalf("null cache Set error = %v", err)
	}
	if _, hit, _ := c.Get(context.Background(), "k"); hit {
		t.Error("null cache should never hit")
	}
}

func TestOpenCacheRedisUnavailableFallsBack(t *testing.T) {
	// No listener on this port; openCache must degrade to the null cache.
	c := openCache(context.Background(), settings.CacheCfg{
		Backend: settings.CacheBackendRedis,
		Redis:   "localhost:1",
	})
	defer c.Close()

	_ = c.Set(context.Background(), "k", []byte("v"), 0)
	if _, hit, _ := c.Get(context.Background(), "k"); hit {
		t.Error("fallback cache should never hit")
	}
}
