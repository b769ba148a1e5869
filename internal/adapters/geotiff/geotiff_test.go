package geotiff

import (
	"path/filepath"
	"testing"

	"github.com/airbusgeo/godal"

	"github.com/dronedb/ddb/internal/domain"
)

func writeGeoTIFF(t *testing.T, path string) {
	t.Helper()
	ensureRegistered()

	ds, err := godal.Create(godal.GTiff, path, 1, godal.Byte, 10, 10)
	if err != nil {
		t.Fatal(err)
	}
	defer ds.Close()

	// 10x10 pixels at 1 degree resolution, origin at (10, 50).
	if err := ds.SetGeoTransform([6]float64{10, 1, 0, 50, 0, -1}); err != nil {
		t.Fatal(err)
	}
	sr, err := godal.NewSpatialRefFromEPSG(domain.SRIDWGS84)
	if err != nil {
		t.Fatal(err)
	}
	defer sr.Close()
	if err := ds.SetSpatialRef(sr); err != nil {
		t.Fatal(err)
	}
}

func TestExtractorHandles(t *testing.T) {
	e := New()
	if !e.Handles(domain.GeoRaster) {
		t.Error("expected GeoRaster to be handled")
	}
	if e.Handles(domain.Image) {
		t.Error("did not expect Image to be handled")
	}
}

func TestExtractReadsStructureAndFootprint(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ortho.tif")
	writeGeoTIFF(t, path)

	e := New()
	result, err := e.Extract(path, domain.GeoRaster)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if w, ok := result.Meta.GetInt(domain.MetaWidth); !ok || w != 10 {
		t.Errorf("expected width 10, got %v (ok=%v)", w, ok)
	}
	if n, ok := result.Meta.GetInt(domain.MetaBandCount); !ok || n != 1 {
		t.Errorf("expected 1 band, got %v (ok=%v)", n, ok)
	}
	if result.PolygonGeom == nil {
		t.Fatal("expected a polygon footprint for a georeferenced raster")
	}
	if result.PointGeom == nil {
		t.Fatal("expected a centroid point for a georeferenced raster")
	}
}

func TestGeoRasterProbe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ortho.tif")
	writeGeoTIFF(t, path)

	if !GeoRasterProbe(path) {
		t.Error("expected GeoRasterProbe to report true for a georeferenced raster")
	}
}
