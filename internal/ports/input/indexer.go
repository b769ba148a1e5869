// Package input defines the primary/driving ports of the application.
package input

import (
	"context"

	"github.com/dronedb/ddb/internal/domain"
)

// ParseOptions controls how ParseFiles/AddToIndex traverse directories and
// handle per-file errors.
type ParseOptions struct {
	WithHash          bool
	StopOnError       bool
	Recursive         bool
	MaxRecursionDepth int // <= 0 means unlimited
}

// ProgressFunc is invoked once per processed entry during add; returning
// false cancels the operation and rolls back its transaction.
type ProgressFunc func(e domain.Entry, wasUpdate bool) bool

// RemovedFunc is invoked once per deleted entry during remove; returning
// false cancels the operation and rolls back its transaction.
type RemovedFunc func(path string) bool

// ChangeLine is one status line emitted by sync, e.g. "D\ta/b/pic.jpg" or
// "U\ta/b/img.jpg".
type ChangeLine struct {
	Status domain.ChangeStatus
	Path   string
}

// Indexer is the primary port exposing working-tree indexing operations to
// hosts (the CLI, the HTTP server, the file watcher).
type Indexer interface {
	// ParseFiles classifies and extracts metadata for paths without
	// mutating the store.
	ParseFiles(ctx context.Context, paths []string, opts ParseOptions) ([]domain.Entry, error)

	// AddToIndex expands paths, reconciles each against the store, and
	// commits all changes inside one exclusive transaction.
	AddToIndex(ctx context.Context, paths []string, onProgress ProgressFunc) error

	// RemoveFromIndex matches paths against the store (LIKE-pattern,
	// directories match their descendants) and deletes every matched row,
	// invalidating derived artifacts. Fails if nothing matched.
	RemoveFromIndex(ctx context.Context, paths []string, onRemoved RemovedFunc) ([]ChangeLine, error)

	// SyncIndex reconciles every stored entry against the filesystem.
	SyncIndex(ctx context.Context) ([]ChangeLine, error)

	// MoveEntry renames a single entry or a directory subtree.
	MoveEntry(ctx context.Context, source, dest string) error

	// List returns path and every descendant entry.
	List(ctx context.Context, path string) ([]domain.Entry, error)

	// Match returns every entry whose path satisfies a glob-style pattern,
	// optionally restricted to subtree matches when isFolder.
	Match(ctx context.Context, pattern string, maxDepth int, isFolder bool) ([]domain.Entry, error)
}

// WorkingTreeOpener is the primary port for opening or initializing a
// working tree.
type WorkingTreeOpener interface {
	// InitIndex creates `<dir>/.ddb/dbase.sqlite`, either from a packaged
	// template or built from scratch, and returns the ddb marker path.
	InitIndex(ctx context.Context, dir string, fromScratch bool) (string, error)

	// OpenWorkingTree locates the `.ddb` marker at dir, optionally walking
	// up ancestor directories, and returns a ready IndexStore handle.
	OpenWorkingTree(ctx context.Context, dir string, traverseUp bool) (WorkingTree, error)
}

// WorkingTree is a handle to an opened working tree: its root directory
// plus its Indexer.
type WorkingTree interface {
	Indexer
	Root() string
	Close() error
}

// ArtifactService is the primary port for derived-artifact retrieval.
type ArtifactService interface {
	// GetThumbnail returns the cache path of a thumbnail for imagePath,
	// regenerating it if the source mtime advanced or forceRecreate is set.
	GetThumbnail(ctx context.Context, imagePath string, mtime int64, size int, forceRecreate bool) (string, error)

	// GetTile returns the cache path of a z/x/y raster tile, regenerating
	// it as needed.
	GetTile(ctx context.Context, geotiffPath string, z, x, y, tileSize int, tms, forceRecreate bool) (string, error)
}

// HealthChecker defines the primary port for status reporting, used by the
// optional status HTTP server.
type HealthChecker interface {
	// IsHealthy returns true if the engine can serve requests.
	IsHealthy(ctx context.Context) bool

	// IsReady returns true if at least one working tree is open.
	IsReady(ctx context.Context) bool

	// GetStatus returns detailed status information.
	GetStatus(ctx context.Context) Status
}

// Status reports the state of the open working trees.
type Status struct {
	Healthy      bool
	Ready        bool
	EntryCount   int
	LastEditTime int64
	Components   map[string]string
}
