package domain

import "strings"

// EntryType tags the semantic kind of an indexed path.
type EntryType int

const (
	Undefined EntryType = iota
	Directory
	Generic
	GeoImage
	GeoRaster
	PointCloud
	Image
	Vector
	// DroneDB marks the root of a working tree. Never produced by
	// classification of an ordinary file.
	DroneDB
)

func (t EntryType) String() string {
	switch t {
	case Directory:
		return "directory"
	case Generic:
		return "generic"
	case GeoImage:
		return "geoimage"
	case GeoRaster:
		return "georaster"
	case PointCloud:
		return "pointcloud"
	case Image:
		return "image"
	case Vector:
		return "vector"
	case DroneDB:
		return "dronedb"
	default:
		return "undefined"
	}
}

// Entry is the unit of the index: a single row describing a file,
// directory, or root marker.
type Entry struct {
	Path        string
	Hash        string
	Type        EntryType
	Meta        Metadata
	MTime       int64
	Size        int64
	Depth       int
	PointGeom   *Point
	PolygonGeom *Polygon
}

// NewDirectoryEntry builds a synthetic directory row satisfying invariant 5:
// empty hash, nil meta, zero size, no geometries.
func NewDirectoryEntry(path string, mtime int64) Entry {
	return Entry{
		Path:  path,
		Type:  Directory,
		MTime: mtime,
		Depth: PathDepth(path),
	}
}

// PathDepth returns the number of forward-slash separators in a relative
// path, matching the stored `depth` column definition.
func PathDepth(relPath string) int {
	return strings.Count(relPath, "/")
}

// IsDirectory reports whether the entry's type is Directory.
func (e Entry) IsDirectory() bool {
	return e.Type == Directory
}

// Validate checks the per-entry invariants from the data model: directory
// rows carry no hash/meta/size/geometry, and any present geometry lies
// within geographic bounds.
func (e Entry) Validate() error {
	if e.Path == "" {
		return &ValidationError{Field: "path", Value: e.Path, Constraint: "non-empty", Message: "path must not be empty"}
	}
	if strings.HasSuffix(e.Path, "/") {
		return &ValidationError{Field: "path", Value: e.Path, Constraint: "no trailing separator", Message: "path must not end in a separator"}
	}
	if e.Depth != PathDepth(e.Path) {
		return &ValidationError{Field: "depth", Value: e.Depth, Constraint: "count('/', path)", Message: "depth does not match path"}
	}
	if e.Type == Directory {
		if e.Hash != "" {
			return &ValidationError{Field: "hash", Value: e.Hash, Constraint: "empty", Message: "directory entries must have an empty hash"}
		}
		if e.Size != 0 {
			return &ValidationError{Field: "size", Value: e.Size, Constraint: "0", Message: "directory entries must have zero size"}
		}
		if e.Meta != nil {
			return &ValidationError{Field: "meta", Value: e.Meta, Constraint: "nil", Message: "directory entries must have nil metadata"}
		}
		if e.PointGeom != nil || e.PolygonGeom != nil {
			return &ValidationError{Field: "geom", Value: nil, Constraint: "nil", Message: "directory entries must carry no geometry"}
		}
	}
	if e.PointGeom != nil {
		if err := e.PointGeom.Validate(); err != nil {
			return err
		}
	}
	if e.PolygonGeom != nil {
		if err := e.PolygonGeom.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// ParentPath returns the longest proper prefix of path up to (but
// excluding) the last '/', or "" if path has no separator.
func ParentPath(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return ""
	}
	return path[:i]
}

// ProperPrefixes returns every '/'-separated proper prefix of path, in
// root-to-leaf order, used to verify invariant 2 (a Directory entry exists
// at every proper prefix).
func ProperPrefixes(path string) []string {
	parts := strings.Split(path, "/")
	if len(parts) <= 1 {
		return nil
	}
	prefixes := make([]string, 0, len(parts)-1)
	for i := 1; i < len(parts); i++ {
		prefixes = append(prefixes, strings.Join(parts[:i], "/"))
	}
	return prefixes
}
