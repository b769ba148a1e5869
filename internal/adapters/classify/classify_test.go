package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dronedb/ddb/internal/domain"
)

func touch(t *testing.T, dir, name string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte("x"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return p
}

func TestClassifyByExtension(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		want domain.EntryType
	}{
		{"a.las", domain.PointCloud},
		{"a.geojson", domain.Vector},
		{"a.shp", domain.Vector},
		{"a.txt", domain.Generic},
		{"a.png", domain.Image},
	}

	c := New(nil, nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := touch(t, dir, tt.name)
			if got := c.Classify(p); got != tt.want {
				t.Errorf("Classify(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestClassifyDirectory(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	if err := os.Mkdir(sub, 0o750); err != nil {
		t.Fatalf("Mkdir: %v", err)
	}

	c := New(nil, nil)
	if got := c.Classify(sub); got != domain.Directory {
		t.Errorf("Classify(dir) = %v, want Directory", got)
	}
}

func TestClassifyEscalatesGeoImage(t *testing.T) {
	dir := t.TempDir()
	p := touch(t, dir, "a.jpg")

	c := New(func(string) bool { return true }, nil)
	if got := c.Classify(p); got != domain.GeoImage {
		t.Errorf("Classify() = %v, want GeoImage", got)
	}
}

func TestClassifyDegradesOnMissingFile(t *testing.T) {
	c := New(nil, nil)
	if got := c.Classify("/no/such/file.jpg"); got != domain.Generic {
		t.Errorf("Classify() = %v, want Generic", got)
	}
}

func TestClassifyProbePanicDegrades(t *testing.T) {
	dir := t.TempDir()
	p := touch(t, dir, "a.jpg")

	c := New(func(string) bool { panic("decoder blew up") }, nil)
	if got := c.Classify(p); got != domain.Image {
		t.Errorf("Classify() = %v, want Image after probe panic", got)
	}
}
