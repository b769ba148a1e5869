package vector

import (
	"encoding/binary"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/airbusgeo/godal"

	"github.com/dronedb/ddb/internal/domain"
	"github.com/dronedb/ddb/internal/ports/output"
)

const shpFixedHeaderSize = 100

// shapeTypeNames maps the ESRI shape type codes (Shapefile Technical
// Description, "Main File Header") to a stable geometry-type label, so the
// histogram reads the same way GeoJSON's GeoJSONType() values do.
var shapeTypeNames = map[int32]string{
	0: "Null", 1: "Point", 3: "LineString", 5: "Polygon", 8: "MultiPoint",
	11: "Point", 13: "LineString", 15: "Polygon", 18: "MultiPoint",
	21: "Point", 23: "LineString", 25: "Polygon", 28: "MultiPoint",
	31: "MultiPatch",
}

// extractShapefile is grounded directly on the ESRI Shapefile Technical
// Description rather than a library: the pack carries only go-shapefile's
// go.mod manifest with no source to verify its entrypoint against (see
// DESIGN.md). The main file header's shape type and bounding box, plus one
// record header per feature, are all the fixed-offset binary format this
// extractor needs.
//
// If a sibling .prj file is present its WKT is used to reproject the
// header bounding box to EPSG:4326 via godal; otherwise the coordinates
// are assumed to already be geographic, which is the common case for
// survey-boundary shapefiles produced without a CRS sidecar.
func extractShapefile(absPath string) (output.ExtractResult, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return output.ExtractResult{}, &domain.FilesystemError{Op: "open", Path: absPath, Err: err}
	}
	defer f.Close()

	header := make([]byte, shpFixedHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		return output.ExtractResult{}, &domain.ParseError{Path: absPath, Err: err}
	}
	if binary.BigEndian.Uint32(header[0:4]) != 9994 {
		return output.ExtractResult{}, &domain.ValidationError{Field: "fileCode", Constraint: "9994", Message: "not a shapefile"}
	}

	shapeType := int32(binary.LittleEndian.Uint32(header[32:36]))
	geomType := shapeTypeNames[shapeType]
	if geomType == "" {
		geomType = "Unknown"
	}

	minLon := readLEFloat64(header, 36)
	minLat := readLEFloat64(header, 44)
	maxLon := readLEFloat64(header, 52)
	maxLat := readLEFloat64(header, 60)

	if wkt, ok := readSidecarWKT(absPath); ok {
		if reprojected, ok := reprojectWKTExtent(minLon, minLat, maxLon, maxLat, wkt); ok {
			minLon, minLat, maxLon, maxLat = reprojected.MinLon, reprojected.MinLat, reprojected.MaxLon, reprojected.MaxLat
		}
	}

	count, err := countShapefileRecords(f)
	if err != nil {
		count = 0
	}

	if count == 0 {
		count = 1 // header bbox always describes at least one feature
	}

	summary := newGeometrySummary()
	summary.count = count
	summary.types[geomType] = count
	summary.extent = domain.Extent{MinLon: minLon, MinLat: minLat, MaxLon: maxLon, MaxLat: maxLat}
	summary.hasExtent = true

	return summary.result(), nil
}

func readLEFloat64(buf []byte, offset int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[offset : offset+8]))
}

// countShapefileRecords walks the variable-length record headers following
// the fixed 100-byte main file header, counting one record per feature.
// Record content length is stored in 16-bit words, big-endian, per the
// format's "Main File Record Header" layout.
func countShapefileRecords(f *os.File) (int, error) {
	count := 0
	recHeader := make([]byte, 8)
	for {
		if _, err := io.ReadFull(f, recHeader); err != nil {
			break
		}
		count++
		contentWords := binary.BigEndian.Uint32(recHeader[4:8])
		if _, err := f.Seek(int64(contentWords)*2, io.SeekCurrent); err != nil {
			break
		}
	}
	return count, nil
}

func readSidecarWKT(shpPath string) (string, bool) {
	prjPath := strings.TrimSuffix(shpPath, filepath.Ext(shpPath)) + ".prj"
	data, err := os.ReadFile(prjPath)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

func reprojectWKTExtent(minLon, minLat, maxLon, maxLat float64, wkt string) (domain.Extent, bool) {
	src, err := godal.NewSpatialRefFromWKT(wkt)
	if err != nil {
		return domain.Extent{}, false
	}
	defer src.Close()

	dst, err := godal.NewSpatialRefFromEPSG(domain.SRIDWGS84)
	if err != nil {
		return domain.Extent{}, false
	}
	defer dst.Close()

	trn, err := godal.NewTransform(src, dst)
	if err != nil {
		return domain.Extent{}, false
	}
	defer trn.Close()

	xs := []float64{minLon, maxLon, maxLon, minLon}
	ys := []float64{minLat, minLat, maxLat, maxLat}
	if err := trn.TransformEx(xs, ys, nil, nil); err != nil {
		return domain.Extent{}, false
	}

	extent := domain.Extent{MinLon: xs[0], MaxLon: xs[0], MinLat: ys[0], MaxLat: ys[0]}
	for i := 1; i < len(xs); i++ {
		if xs[i] < extent.MinLon {
			extent.MinLon = xs[i]
		}
		if xs[i] > extent.MaxLon {
			extent.MaxLon = xs[i]
		}
		if ys[i] < extent.MinLat {
			extent.MinLat = ys[i]
		}
		if ys[i] > extent.MaxLat {
			extent.MaxLat = ys[i]
		}
	}
	return extent, true
}
