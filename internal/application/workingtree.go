package application

import (
	"context"
	"log/slog"

	"github.com/dronedb/ddb/internal/adapters/artifactcache"
	"github.com/dronedb/ddb/internal/adapters/classify"
	"github.com/dronedb/ddb/internal/adapters/exif"
	"github.com/dronedb/ddb/internal/adapters/geotiff"
	"github.com/dronedb/ddb/internal/adapters/hashutil"
	"github.com/dronedb/ddb/internal/adapters/pointcloud"
	"github.com/dronedb/ddb/internal/adapters/sqlite"
	"github.com/dronedb/ddb/internal/adapters/vector"
	"github.com/dronedb/ddb/internal/ports/input"
	"github.com/dronedb/ddb/internal/ports/output"
)

// Opener implements input.WorkingTreeOpener,
// wiring a sqlite.Store to the classifier/extractor/hasher stack behind
// every opened tree.
type Opener struct {
	metrics output.MetricsCollector
	logger  *slog.Logger
}

// NewOpener builds an Opener. metrics may be nil (falls back to a
// no-op collector per working tree).
func NewOpener(metrics output.MetricsCollector, logger *slog.Logger) *Opener {
	return &Opener{metrics: metrics, logger: logger}
}

// InitIndex creates `<dir>/.ddb/dbase.sqlite`, delegating the schema build
// to internal/adapters/sqlite.
func (o *Opener) InitIndex(_ context.Context, dir string, fromScratch bool) (string, error) {
	return sqlite.Init(dir, fromScratch)
}

// OpenWorkingTree locates the `.ddb` marker at dir and returns a ready
// tree wired with a full classify/extract/hash pipeline.
func (o *Opener) OpenWorkingTree(_ context.Context, dir string, traverseUp bool) (input.WorkingTree, error) {
	store, root, err := sqlite.Open(dir, traverseUp, o.logger)
	if err != nil {
		return nil, err
	}

	classifier := classify.New(exif.GPSProbe, geotiff.GeoRasterProbe)
	extractors := []output.Extractor{
		exif.New(),
		geotiff.New(),
		pointcloud.New(),
		vector.New(),
	}
	hasher := hashutil.NewHasher()
	cache := artifactcache.New(root)

	parser := NewEntryParser(root, classifier, extractors, hasher, o.logger)
	idx := NewIndex(root, store, parser, cache, o.metrics, o.logger)

	return &workingTree{Index: idx, root: root, store: store}, nil
}

// workingTree adapts an *Index plus its owning store into input.WorkingTree.
type workingTree struct {
	*Index
	root  string
	store *sqlite.Store
}

func (w *workingTree) Root() string { return w.root }

func (w *workingTree) Close() error { return w.store.Close() }

var _ input.WorkingTreeOpener = (*Opener)(nil)
var _ input.WorkingTree = (*workingTree)(nil)
