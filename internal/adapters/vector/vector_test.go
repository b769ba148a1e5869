package vector

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dronedb/ddb/internal/domain"
)

func TestExtractorHandles(t *testing.T) {
	e := New()
	if !e.Handles(domain.Vector) {
		t.Error("expected Vector to be handled")
	}
	if e.Handles(domain.Generic) {
		t.Error("did not expect Generic to be handled")
	}
}

func TestExtractGeoJSONFeatureCollection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "area.geojson")
	data := `{
		"type": "FeatureCollection",
		"features": [
			{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [10.0, 45.0]}},
			{"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [11.0, 46.0]}}
		]
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	e := New()
	result, err := e.Extract(path, domain.Vector)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if n, ok := result.Meta.GetInt(domain.MetaFeatureCount); !ok || n != 2 {
		t.Errorf("expected feature count 2, got %v (ok=%v)", n, ok)
	}
	if result.PolygonGeom == nil {
		t.Fatal("expected a combined footprint polygon")
	}
	ring := result.PolygonGeom.Ring
	if ring[0].Lon != 10.0 || ring[2].Lon != 11.0 {
		t.Errorf("unexpected footprint ring: %+v", ring)
	}
}

func writeShapefile(t *testing.T, path string, minLon, minLat, maxLon, maxLat float64, recordCount int) {
	t.Helper()
	header := make([]byte, shpFixedHeaderSize)
	binary.BigEndian.PutUint32(header[0:4], 9994)
	binary.LittleEndian.PutUint32(header[32:36], 5) // Polygon
	putLEFloat64(header, 36, minLon)
	putLEFloat64(header, 44, minLat)
	putLEFloat64(header, 52, maxLon)
	putLEFloat64(header, 60, maxLat)

	buf := header
	for i := 0; i < recordCount; i++ {
		rec := make([]byte, 8)
		binary.BigEndian.PutUint32(rec[0:4], uint32(i+1))
		binary.BigEndian.PutUint32(rec[4:8], 2) // 2 words = 4 bytes content
		buf = append(buf, rec...)
		buf = append(buf, []byte{0, 0, 0, 0}...)
	}

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		t.Fatal(err)
	}
}

func putLEFloat64(buf []byte, offset int, v float64) {
	binary.LittleEndian.PutUint64(buf[offset:offset+8], math.Float64bits(v))
}

func TestExtractShapefileHeaderOnly(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "parcels.shp")
	writeShapefile(t, path, 10, 45, 11, 46, 3)

	e := New()
	result, err := e.Extract(path, domain.Vector)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if n, ok := result.Meta.GetInt(domain.MetaFeatureCount); !ok || n != 3 {
		t.Errorf("expected feature count 3, got %v (ok=%v)", n, ok)
	}
	if result.PolygonGeom == nil {
		t.Fatal("expected a footprint from the shapefile header bbox")
	}
}

func TestExtractKML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boundary.kml")
	data := `<?xml version="1.0" encoding="UTF-8"?>
<kml xmlns="http://www.opengis.net/kml/2.2">
  <Document>
    <Placemark>
      <Polygon>
        <outerBoundaryIs>
          <LinearRing>
            <coordinates>10,45,0 11,45,0 11,46,0 10,46,0 10,45,0</coordinates>
          </LinearRing>
        </outerBoundaryIs>
      </Polygon>
    </Placemark>
  </Document>
</kml>`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	e := New()
	result, err := e.Extract(path, domain.Vector)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if n, ok := result.Meta.GetInt(domain.MetaFeatureCount); !ok || n != 1 {
		t.Errorf("expected feature count 1, got %v (ok=%v)", n, ok)
	}
	if result.PolygonGeom == nil {
		t.Fatal("expected a footprint from the KML polygon")
	}
}

func TestExtractKMZ(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "boundary.kmz")

	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("doc.kml")
	if err != nil {
		t.Fatal(err)
	}
	_, err = w.Write([]byte(`<?xml version="1.0"?>
<kml><Document><Placemark><Point><coordinates>10,45,0</coordinates></Point></Placemark></Document></kml>`))
	if err != nil {
		t.Fatal(err)
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}

	e := New()
	result, err := e.Extract(path, domain.Vector)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if n, ok := result.Meta.GetInt(domain.MetaFeatureCount); !ok || n != 1 {
		t.Errorf("expected feature count 1, got %v (ok=%v)", n, ok)
	}
	if result.PointGeom == nil {
		t.Fatal("expected a point geometry from the KMZ placemark")
	}
}

func TestExtractUnsupportedFormatDegrades(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "layers.gpkg")
	if err := os.WriteFile(path, []byte("not parsed"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := New()
	result, err := e.Extract(path, domain.Vector)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.PolygonGeom != nil {
		t.Error("expected no footprint for an unsupported vector format")
	}
}

func TestWriteKMLRendersPointsAndPolygons(t *testing.T) {
	point := domain.NewPoint2D(11.5, 45.1)
	polygon := domain.NewPolygonFromExtent(domain.Extent{MinLon: 10, MinLat: 44, MaxLon: 11, MaxLat: 45})

	var buf bytes.Buffer
	err := WriteKML(&buf, []Footprint{
		{Path: "a/ortho.jpg", Point: &point},
		{Path: "a/survey.tif", Polygon: &polygon},
	})
	if err != nil {
		t.Fatalf("WriteKML() error = %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "a/ortho.jpg") || !strings.Contains(out, "a/survey.tif") {
		t.Errorf("expected both placemark names in output, got:\n%s", out)
	}
	if !strings.Contains(out, "<Point>") || !strings.Contains(out, "<Polygon>") {
		t.Errorf("expected both a Point and a Polygon element, got:\n%s", out)
	}
}
