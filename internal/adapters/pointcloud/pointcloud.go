// Package pointcloud implements the PointCloud metadata extractor:
// point count, source spatial reference and the reprojected EPSG:4326
// footprint of a LAS/LAZ point cloud, read directly from the public ASPRS
// LAS header rather than through a third-party library (see the package
// comment on Extract for why).
package pointcloud

import (
	"encoding/binary"
	"io"
	"math"
	"os"

	"github.com/airbusgeo/godal"

	"github.com/dronedb/ddb/internal/domain"
	"github.com/dronedb/ddb/internal/ports/output"
)

// header holds the fixed-offset fields of an ASPRS LAS public header block
// (versions 1.0 through 1.4 share this layout through byte 227; later
// fields added by 1.3/1.4 aren't needed here).
type header struct {
	versionMajor, versionMinor uint8
	headerSize                 uint16
	numVLRs                    uint32
	pointCount                 uint32
	min, max                   [3]float64
}

const lasPublicHeaderSize = 227

// Extractor implements output.Extractor for PointCloud entries.
type Extractor struct{}

// New returns a ready Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Handles reports whether this extractor applies to t.
func (e *Extractor) Handles(t domain.EntryType) bool {
	return t == domain.PointCloud
}

// Extract reads the LAS public header block and, if present, the
// GeoKeyDirectoryTag variable-length record that carries the point cloud's
// spatial reference.
//
// No library in this codebase's ecosystem wraps LAS/LAZ reading (PDAL has
// no Go bindings in the pack, and the Go point cloud libraries available
// target visualization, not header introspection), so the header is
// parsed directly against the published ASPRS LAS specification instead
// of reaching for a dependency that isn't there. The VLR carrying the
// spatial reference reuses the GeoTIFF GeoKey scheme, so once an EPSG code
// is recovered, reprojection goes through godal exactly as the raster
// extractor does.
func (e *Extractor) Extract(absPath string, t domain.EntryType) (output.ExtractResult, error) {
	f, err := os.Open(absPath)
	if err != nil {
		return output.ExtractResult{}, &domain.FilesystemError{Op: "open", Path: absPath, Err: err}
	}
	defer f.Close()

	h, err := readHeader(f)
	if err != nil {
		return output.ExtractResult{}, &domain.ParseError{Path: absPath, Err: err}
	}

	meta := domain.NewMetadata()
	meta.Set(domain.MetaPointCount, int(h.pointCount))

	epsg, err := readGeoKeyEPSG(f, h)
	if err != nil || epsg == 0 {
		return output.ExtractResult{Meta: meta}, nil
	}
	meta.Set(domain.MetaSRID, epsg)

	extent, ok := reprojectExtent(h, epsg)
	if !ok {
		return output.ExtractResult{Meta: meta}, nil
	}

	polygon := domain.NewPolygonFromExtent(extent)
	center := extent.Center()
	return output.ExtractResult{Meta: meta, PointGeom: &center, PolygonGeom: &polygon}, nil
}

func readHeader(f *os.File) (header, error) {
	buf := make([]byte, lasPublicHeaderSize)
	if _, err := io.ReadFull(f, buf); err != nil {
		return header{}, err
	}
	if string(buf[0:4]) != "LASF" {
		return header{}, &domain.ValidationError{Field: "signature", Value: string(buf[0:4]), Constraint: "LASF", Message: "not a LAS file"}
	}

	var h header
	h.versionMajor = buf[24]
	h.versionMinor = buf[25]
	h.headerSize = binary.LittleEndian.Uint16(buf[94:96])
	h.numVLRs = binary.LittleEndian.Uint32(buf[100:104])
	h.pointCount = binary.LittleEndian.Uint32(buf[107:111])
	// Max/min are interleaved X,Y,Z pairs starting at byte 179.
	h.max[0] = readFloat64(buf, 179)
	h.min[0] = readFloat64(buf, 187)
	h.max[1] = readFloat64(buf, 195)
	h.min[1] = readFloat64(buf, 203)
	h.max[2] = readFloat64(buf, 211)
	h.min[2] = readFloat64(buf, 219)
	return h, nil
}

func readFloat64(buf []byte, offset int) float64 {
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[offset : offset+8]))
}

// geoKeyProjectedCS and geoKeyGeographic are the GeoTIFF GeoKey IDs that LAS's GeoKeyDirectoryTag VLR reuses verbatim.
const (
	geoKeyProjectedCS = 3072
	geoKeyGeographic  = 2048
)

// readGeoKeyEPSG scans the variable-length records following the public
// header for a GeoKeyDirectoryTag (user ID "LASF_Projection", record ID
// 34735) and returns the EPSG code of its projected or geographic CS key,
// whichever is present. It returns (0, nil) if no such VLR exists.
func readGeoKeyEPSG(f *os.File, h header) (int, error) {
	if h.numVLRs == 0 {
		return 0, nil
	}
	if _, err := f.Seek(int64(h.headerSize), io.SeekStart); err != nil {
		return 0, err
	}

	const vlrHeaderSize = 54
	vlrHeader := make([]byte, vlrHeaderSize)
	for i := uint32(0); i < h.numVLRs; i++ {
		if _, err := io.ReadFull(f, vlrHeader); err != nil {
			return 0, nil
		}
		userID := string(trimNulls(vlrHeader[2:18]))
		recordID := binary.LittleEndian.Uint16(vlrHeader[18:20])
		recordLen := binary.LittleEndian.Uint16(vlrHeader[20:22])

		if userID != "LASF_Projection" || recordID != 34735 {
			if _, err := f.Seek(int64(recordLen), io.SeekCurrent); err != nil {
				return 0, err
			}
			continue
		}

		data := make([]byte, recordLen)
		if _, err := io.ReadFull(f, data); err != nil {
			return 0, nil
		}
		return parseGeoKeyDirectory(data), nil
	}
	return 0, nil
}

func parseGeoKeyDirectory(data []byte) int {
	if len(data) < 8 {
		return 0
	}
	numKeys := binary.LittleEndian.Uint16(data[6:8])
	for i := uint16(0); i < numKeys; i++ {
		off := 8 + int(i)*8
		if off+8 > len(data) {
			break
		}
		keyID := binary.LittleEndian.Uint16(data[off : off+2])
		tagLocation := binary.LittleEndian.Uint16(data[off+2 : off+4])
		value := binary.LittleEndian.Uint16(data[off+6 : off+8])
		if tagLocation != 0 {
			continue // value lives in another tag; not needed for an EPSG lookup
		}
		if keyID == geoKeyProjectedCS || keyID == geoKeyGeographic {
			if value != 0 && value != 32767 {
				return int(value)
			}
		}
	}
	return 0
}

func trimNulls(b []byte) []byte {
	for i, c := range b {
		if c == 0 {
			return b[:i]
		}
	}
	return b
}

func reprojectExtent(h header, epsg int) (domain.Extent, bool) {
	src, err := godal.NewSpatialRefFromEPSG(epsg)
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

	xs := []float64{h.min[0], h.max[0], h.max[0], h.min[0]}
	ys := []float64{h.min[1], h.min[1], h.max[1], h.max[1]}
	if err := trn.TransformEx(xs, ys, nil, nil); err != nil {
		return domain.Extent{}, false
	}

	extent := domain.Extent{MinLon: xs[0], MinLat: ys[0], MaxLon: xs[0], MaxLat: ys[0]}
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
	if !extent.IsValid() {
		return domain.Extent{}, false
	}
	return extent, true
}
