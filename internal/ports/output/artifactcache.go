package output

import "context"

// ArtifactInvalidator is the secondary port for derived-artifact cache
// invalidation. Implementations remove the hash-keyed build subtree
// under `<root>/.ddb/build/<hash>/` before the owning entry's hash changes
// or the entry is deleted.
type ArtifactInvalidator interface {
	// Invalidate removes every cached artifact keyed by hash. A missing
	// subtree is not an error.
	Invalidate(ctx context.Context, hash string) error
}

// ArtifactCacheKey derives a deterministic cache path for a thumbnail or a
// map tile beneath a content hash, matching the getThumbnail/getTile
// operations exposed to hosts.
type ArtifactCacheKey interface {
	// ThumbnailPath returns the cache path for a thumbnail of the given
	// source hash and edge length, creating parent directories as needed.
	ThumbnailPath(ctx context.Context, hash string, edgeLength int) (string, error)

	// TilePath returns the cache path for a z/x/y tile of the given source
	// hash, tile size, and TMS (flipped-Y) flag.
	TilePath(ctx context.Context, hash string, z, x, y, tileSize int, tms bool) (string, error)
}
