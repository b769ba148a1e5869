// Package artifactcache implements the derived-artifact cache:
// content-hash-keyed thumbnail and tile paths under `<root>/.ddb/build/`,
// plus the invalidation hook that removes a hash's whole build subtree
// when its owning entry changes or is deleted.
package artifactcache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/dronedb/ddb/internal/adapters/pathutil"
	"github.com/dronedb/ddb/internal/domain"
)

// buildDirName is the subdirectory of the `.ddb` marker holding every
// hash-keyed derived artifact.
const buildDirName = "build"

// Cache implements output.ArtifactInvalidator and output.ArtifactCacheKey
// over a single working tree's `.ddb/build/` subtree.
type Cache struct {
	root string
}

// New returns a Cache rooted at the working tree root (the directory
// containing `.ddb`, not `.ddb` itself).
func New(root string) *Cache {
	return &Cache{root: root}
}

func (c *Cache) buildRoot() string {
	return filepath.Join(c.root, pathutil.DdbDir, buildDirName)
}

func (c *Cache) hashDir(hash string) string {
	return filepath.Join(c.buildRoot(), hash)
}

// Invalidate removes the entire build subtree for hash. A missing subtree
// is not an error, matching the port contract.
func (c *Cache) Invalidate(_ context.Context, hash string) error {
	if hash == "" {
		return nil
	}
	if err := os.RemoveAll(c.hashDir(hash)); err != nil {
		return &domain.FilesystemError{Op: "remove", Path: c.hashDir(hash), Err: err}
	}
	return nil
}

// ThumbnailPath returns the cache path for a thumbnail of hash at
// edgeLength, creating its parent directory if needed.
func (c *Cache) ThumbnailPath(_ context.Context, hash string, edgeLength int) (string, error) {
	dir := c.hashDir(hash)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", &domain.FilesystemError{Op: "mkdir", Path: dir, Err: err}
	}
	return filepath.Join(dir, fmt.Sprintf("thumb-%d.jpg", edgeLength)), nil
}

// TilePath returns the cache path for a z/x/y tile of hash, sized
// tileSize, in TMS (flipped-Y) or XYZ numbering.
func (c *Cache) TilePath(_ context.Context, hash string, z, x, y, tileSize int, tms bool) (string, error) {
	dir := filepath.Join(c.hashDir(hash), fmt.Sprintf("tiles-%d", tileSize), fmt.Sprintf("%d", z), fmt.Sprintf("%d", x))
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", &domain.FilesystemError{Op: "mkdir", Path: dir, Err: err}
	}
	scheme := "xyz"
	if tms {
		scheme = "tms"
	}
	return filepath.Join(dir, fmt.Sprintf("%d-%s.png", y, scheme)), nil
}
