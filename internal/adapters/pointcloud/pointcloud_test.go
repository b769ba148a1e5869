package pointcloud

import (
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/dronedb/ddb/internal/domain"
)

// buildLASFile writes a minimal LAS 1.2 file: a 227-byte public header
// followed, optionally, by a single GeoKeyDirectoryTag VLR declaring
// epsg as either a projected or geographic CS key.
func buildLASFile(t *testing.T, path string, pointCount uint32, min, max [3]float64, epsg int) {
	t.Helper()

	header := make([]byte, lasPublicHeaderSize)
	copy(header[0:4], "LASF")
	header[24] = 1
	header[25] = 2
	binary.LittleEndian.PutUint16(header[94:96], lasPublicHeaderSize)
	binary.LittleEndian.PutUint32(header[107:111], pointCount)
	putFloat64(header, 179, max[0])
	putFloat64(header, 187, min[0])
	putFloat64(header, 195, max[1])
	putFloat64(header, 203, min[1])
	putFloat64(header, 211, max[2])
	putFloat64(header, 219, min[2])

	var vlr []byte
	if epsg != 0 {
		vlr = buildGeoKeyVLR(epsg)
		binary.LittleEndian.PutUint32(header[100:104], 1)
		binary.LittleEndian.PutUint32(header[96:100], lasPublicHeaderSize+uint32(len(vlr)))
	}

	if err := os.WriteFile(path, append(header, vlr...), 0o644); err != nil {
		t.Fatal(err)
	}
}

func putFloat64(buf []byte, offset int, v float64) {
	binary.LittleEndian.PutUint64(buf[offset:offset+8], math.Float64bits(v))
}

func buildGeoKeyVLR(epsg int) []byte {
	vlrHeader := make([]byte, 54)
	copy(vlrHeader[2:18], "LASF_Projection")
	binary.LittleEndian.PutUint16(vlrHeader[18:20], 34735)

	data := make([]byte, 16) // directory header (4 shorts) + 1 key entry (4 shorts)
	binary.LittleEndian.PutUint16(data[0:2], 1)
	binary.LittleEndian.PutUint16(data[2:4], 1)
	binary.LittleEndian.PutUint16(data[4:6], 0)
	binary.LittleEndian.PutUint16(data[6:8], 1) // numKeys
	binary.LittleEndian.PutUint16(data[8:10], geoKeyProjectedCS)
	binary.LittleEndian.PutUint16(data[10:12], 0) // tagLocation 0: value is inline
	binary.LittleEndian.PutUint16(data[12:14], 1)
	binary.LittleEndian.PutUint16(data[14:16], uint16(epsg))

	binary.LittleEndian.PutUint16(vlrHeader[20:22], uint16(len(data)))
	return append(vlrHeader, data...)
}

func TestExtractorHandles(t *testing.T) {
	e := New()
	if !e.Handles(domain.PointCloud) {
		t.Error("expected PointCloud to be handled")
	}
	if e.Handles(domain.Vector) {
		t.Error("did not expect Vector to be handled")
	}
}

func TestExtractReadsPointCountWithoutVLR(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cloud.las")
	buildLASFile(t, path, 42, [3]float64{0, 0, 0}, [3]float64{1, 1, 1}, 0)

	e := New()
	result, err := e.Extract(path, domain.PointCloud)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if n, ok := result.Meta.GetInt(domain.MetaPointCount); !ok || n != 42 {
		t.Errorf("expected point count 42, got %v (ok=%v)", n, ok)
	}
	if result.PolygonGeom != nil {
		t.Error("expected no footprint without a spatial reference VLR")
	}
}

func TestExtractReprojectsFootprintFromGeoKeyVLR(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cloud.las")
	// EPSG:32633 (UTM zone 33N), a box roughly over central Europe.
	buildLASFile(t, path, 1000, [3]float64{500000, 5000000, 0}, [3]float64{501000, 5001000, 100}, 32633)

	e := New()
	result, err := e.Extract(path, domain.PointCloud)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if srid, ok := result.Meta.GetInt(domain.MetaSRID); !ok || srid != 32633 {
		t.Errorf("expected SRID 32633, got %v (ok=%v)", srid, ok)
	}
	if result.PolygonGeom == nil {
		t.Fatal("expected a reprojected footprint")
	}
	if result.PointGeom == nil {
		t.Fatal("expected a centroid point")
	}
}

func TestExtractRejectsNonLASFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "not-a-cloud.las")
	if err := os.WriteFile(path, make([]byte, 300), 0o644); err != nil {
		t.Fatal(err)
	}

	e := New()
	if _, err := e.Extract(path, domain.PointCloud); err == nil {
		t.Error("expected an error for a file missing the LASF signature")
	}
}
