package exif

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/dronedb/ddb/internal/domain"
)

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 10, G: 20, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestExtractorHandles(t *testing.T) {
	e := New()
	if !e.Handles(domain.GeoImage) {
		t.Error("expected GeoImage to be handled")
	}
	if !e.Handles(domain.Image) {
		t.Error("expected Image to be handled")
	}
	if e.Handles(domain.GeoRaster) {
		t.Error("did not expect GeoRaster to be handled")
	}
}

func TestExtractDegradesWithoutExif(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	writePNG(t, path, 16, 8)

	e := New()
	result, err := e.Extract(path, domain.Image)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if result.PointGeom != nil {
		t.Error("expected no point geometry without a GPS tag")
	}
	w, ok := result.Meta.GetInt(domain.MetaWidth)
	if !ok || w != 16 {
		t.Errorf("expected width 16, got %v (ok=%v)", w, ok)
	}
	h, ok := result.Meta.GetInt(domain.MetaHeight)
	if !ok || h != 8 {
		t.Errorf("expected height 8, got %v (ok=%v)", h, ok)
	}
}

func TestGPSProbeFalseWithoutExif(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "photo.png")
	writePNG(t, path, 4, 4)

	if GPSProbe(path) {
		t.Error("expected GPSProbe to report false for a file with no EXIF segment")
	}
}

func TestDecodeDimensionsUnknownExtension(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.bin")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, _, ok := decodeDimensions(path); ok {
		t.Error("expected decodeDimensions to report false for a non-image extension")
	}
}
