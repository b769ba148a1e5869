// Package output defines the secondary/driven ports of the application.
package output

import (
	"context"

	"github.com/dronedb/ddb/internal/domain"
)

// IndexStore is the secondary port for the relational index facade.
// A single IndexStore handle owns one working tree's `.ddb/dbase.sqlite`.
// Mutating methods must only be called from inside a transaction opened by
// WithExclusiveTx; Lookup/Match/ListChildren/AllEntries/HasDirectoryAt may
// be called outside a transaction for read-only access.
type IndexStore interface {
	// Lookup returns the entry stored at path, if any.
	Lookup(ctx context.Context, path string) (*domain.Entry, error)

	// Insert adds a new row. Fails if path already exists.
	Insert(ctx context.Context, e domain.Entry) error

	// Update overwrites the row at e.Path with e's fields.
	Update(ctx context.Context, e domain.Entry) error

	// Delete removes the row at path. A no-op if absent.
	Delete(ctx context.Context, path string) error

	// Rename rewrites a row's path and depth in place, used by move.
	Rename(ctx context.Context, oldPath, newPath string) error

	// Match returns every entry whose path satisfies the given (already
	// sanitized) SQL LIKE pattern using '/' as the escape character.
	Match(ctx context.Context, likePattern string) ([]domain.Entry, error)

	// ListChildren returns every entry whose path equals path or begins
	// with path + "/".
	ListChildren(ctx context.Context, path string) ([]domain.Entry, error)

	// AllEntries returns every entry in the store's natural row order, used
	// by sync.
	AllEntries(ctx context.Context) ([]domain.Entry, error)

	// HasDirectoryAt reports whether a Directory row exists at path,
	// supporting the folder-consistency check in createMissingFolders.
	HasDirectoryAt(ctx context.Context, path string) (bool, error)

	// LastEditTime returns the stored last-edit timestamp.
	LastEditTime(ctx context.Context) (int64, error)

	// SetLastEditTime advances the stored last-edit timestamp.
	SetLastEditTime(ctx context.Context, unixSeconds int64) error

	// WithExclusiveTx runs fn inside a single exclusive transaction. If fn
	// returns an error, or panics, the transaction is rolled back; otherwise
	// it is committed. No operation may suspend inside a transaction
	// waiting on external input.
	WithExclusiveTx(ctx context.Context, fn func(ctx context.Context) error) error

	// Close releases the underlying database handle.
	Close() error
}

// CoordinateTransformer is the secondary port for reprojecting captured
// coordinates to EPSG:4326, backed by the store's spatial extension.
type CoordinateTransformer interface {
	// TransformPoint reprojects a single point from sourceSRID to
	// EPSG:4326.
	TransformPoint(ctx context.Context, lon, lat float64, sourceSRID int) (domain.Point, error)

	// TransformExtent reprojects the four corners of extent from
	// sourceSRID to EPSG:4326 and returns the resulting bounding polygon
	// plus its centroid.
	TransformExtent(ctx context.Context, e domain.Extent, sourceSRID int) (domain.Polygon, domain.Point, error)

	// GeoJSON renders a geometry's WKT as a GeoJSON fragment, delegating to
	// the store's spatial extension (AsGeoJSON).
	GeoJSON(ctx context.Context, wkt string, srid int) (string, error)
}
