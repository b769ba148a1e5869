package output

import "github.com/dronedb/ddb/internal/domain"

// Classifier is the secondary port for type classification. It
// never returns an error: unreadable or unrecognized files degrade to the
// most generic applicable tag instead of failing classification.
type Classifier interface {
	// Classify inspects the file at absPath (which exists) and returns its
	// entry type.
	Classify(absPath string) domain.EntryType
}

// Extractor is the secondary port implemented by each per-type metadata
// reader. Extractors are side-effect free: they open absPath
// read-only and never write to it.
type Extractor interface {
	// Handles reports whether this extractor applies to t.
	Handles(t domain.EntryType) bool

	// Extract reads absPath and returns its metadata document plus any
	// derived geometries. A nil *domain.Point/*domain.Polygon means the
	// corresponding geometry could not be derived, not that extraction
	// failed.
	Extract(absPath string, t domain.EntryType) (ExtractResult, error)
}

// ExtractResult is the output of a single extractor invocation.
type ExtractResult struct {
	Meta        domain.Metadata
	PointGeom   *domain.Point
	PolygonGeom *domain.Polygon
}

// Hasher is the secondary port for streaming content digests.
type Hasher interface {
	// HashFile streams absPath's content and returns its lowercase hex
	// SHA-256 digest.
	HashFile(absPath string) (string, error)
}
