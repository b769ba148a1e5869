// Package vector implements the Vector metadata extractor:
// combined footprint, feature count and geometry-type histogram for
// GeoJSON, Shapefile and KML/KMZ files.
package vector

import (
	"os"

	"github.com/dronedb/ddb/internal/adapters/pathutil"
	"github.com/dronedb/ddb/internal/domain"
	"github.com/dronedb/ddb/internal/ports/output"
)

// Extractor implements output.Extractor for Vector entries.
type Extractor struct{}

// New returns a ready Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Handles reports whether this extractor applies to t.
func (e *Extractor) Handles(t domain.EntryType) bool {
	return t == domain.Vector
}

// Extract dispatches on file extension to the format-specific reader. A
// format this extractor doesn't parse (GeoPackage, GML) degrades to empty
// metadata rather than an error, consistent with the other extractors'
// never-fail contract.
func (e *Extractor) Extract(absPath string, t domain.EntryType) (output.ExtractResult, error) {
	switch pathutil.Ext(absPath) {
	case "geojson", "json":
		return extractGeoJSON(absPath)
	case "shp":
		return extractShapefile(absPath)
	case "kml":
		return extractKML(absPath)
	case "kmz":
		return extractKMZ(absPath)
	default:
		return output.ExtractResult{Meta: domain.NewMetadata()}, nil
	}
}

func readFile(absPath string) ([]byte, error) {
	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, &domain.FilesystemError{Op: "read", Path: absPath, Err: err}
	}
	return data, nil
}

// geometrySummary accumulates a combined WGS84 extent, feature count and
// per-geometry-type tally across a collection of features. Every format
// reader builds one identically so the final metadata shape doesn't drift
// between GeoJSON, Shapefile and KML.
type geometrySummary struct {
	extent    domain.Extent
	hasExtent bool
	count     int
	types     map[string]int
}

func newGeometrySummary() *geometrySummary {
	return &geometrySummary{types: make(map[string]int)}
}

func (s *geometrySummary) addBound(geomType string, minLon, maxLon, minLat, maxLat float64) {
	s.count++
	s.types[geomType]++
	if !s.hasExtent {
		s.extent = domain.Extent{MinLon: minLon, MaxLon: maxLon, MinLat: minLat, MaxLat: maxLat}
		s.hasExtent = true
		return
	}
	if minLon < s.extent.MinLon {
		s.extent.MinLon = minLon
	}
	if maxLon > s.extent.MaxLon {
		s.extent.MaxLon = maxLon
	}
	if minLat < s.extent.MinLat {
		s.extent.MinLat = minLat
	}
	if maxLat > s.extent.MaxLat {
		s.extent.MaxLat = maxLat
	}
}

func (s *geometrySummary) result() output.ExtractResult {
	meta := domain.NewMetadata()
	meta.Set(domain.MetaFeatureCount, s.count)
	meta.Set(domain.MetaGeometryTypes, s.types)

	if !s.hasExtent || !s.extent.IsValid() {
		return output.ExtractResult{Meta: meta}
	}
	polygon := domain.NewPolygonFromExtent(s.extent)
	center := s.extent.Center()
	return output.ExtractResult{Meta: meta, PointGeom: &center, PolygonGeom: &polygon}
}
