package vector

import (
	"github.com/paulmach/orb/geojson"

	"github.com/dronedb/ddb/internal/domain"
	"github.com/dronedb/ddb/internal/ports/output"
)

// extractGeoJSON parses a RFC 7946 FeatureCollection (or a single bare
// Feature) and summarizes its geometries. GeoJSON coordinates are always
// WGS84, so no reprojection step is needed here.
func extractGeoJSON(absPath string) (output.ExtractResult, error) {
	data, err := readFile(absPath)
	if err != nil {
		return output.ExtractResult{}, err
	}

	summary := newGeometrySummary()

	fc, fcErr := geojson.UnmarshalFeatureCollection(data)
	if fcErr == nil {
		for _, f := range fc.Features {
			addFeatureGeometry(summary, f)
		}
		return summary.result(), nil
	}

	f, fErr := geojson.UnmarshalFeature(data)
	if fErr == nil {
		addFeatureGeometry(summary, f)
		return summary.result(), nil
	}

	return output.ExtractResult{}, &domain.ParseError{Path: absPath, Err: fcErr}
}

func addFeatureGeometry(s *geometrySummary, f *geojson.Feature) {
	if f == nil || f.Geometry == nil {
		return
	}
	bound := f.Geometry.Bound()
	s.addBound(f.Geometry.GeoJSONType(), bound.Min[0], bound.Max[0], bound.Min[1], bound.Max[1])
}
