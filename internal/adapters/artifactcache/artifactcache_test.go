package artifactcache

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestThumbnailPathCreatesDir(t *testing.T) {
	root := t.TempDir()
	c := New(root)

	path, err := c.ThumbnailPath(context.Background(), "abc123", 256)
	if err != nil {
		t.Fatalf("ThumbnailPath() error = %v", err)
	}
	want := filepath.Join(root, ".ddb", "build", "abc123", "thumb-256.jpg")
	if path != want {
		t.Errorf("path = %q, want %q", path, want)
	}
	if _, err := os.Stat(filepath.Dir(path)); err != nil {
		t.Errorf("expected parent directory to exist: %v", err)
	}
}

func TestTilePathXYZAndTMS(t *testing.T) {
	root := t.TempDir()
	c := New(root)

	xyzPath, err := c.TilePath(context.Background(), "abc123", 10, 5, 3, 256, false)
	if err != nil {
		t.Fatalf("TilePath() error = %v", err)
	}
	if filepath.Base(xyzPath) != "3-xyz.png" {
		t.Errorf("xyz path = %q, want suffix 3-xyz.png", xyzPath)
	}

	tmsPath, err := c.TilePath(context.Background(), "abc123", 10, 5, 3, 256, true)
	if err != nil {
		t.Fatalf("TilePath() error = %v", err)
	}
	if filepath.Base(tmsPath) != "3-tms.png" {
		t.Errorf("tms path = %q, want suffix 3-tms.png", tmsPath)
	}
}

func TestInvalidateRemovesSubtree(t *testing.T) {
	root := t.TempDir()
	c := New(root)

	path, err := c.ThumbnailPath(context.Background(), "deadbeef", 256)
	if err != nil {
		t.Fatalf("ThumbnailPath() error = %v", err)
	}
	if err := os.WriteFile(path, []byte("jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := c.Invalidate(context.Background(), "deadbeef"); err != nil {
		t.Fatalf("Invalidate() error = %v", err)
	}
	if _, err := os.Stat(c.hashDir("deadbeef")); !os.IsNotExist(err) {
		t.Error("expected hash subtree to be removed")
	}
}

func TestInvalidateMissingSubtreeIsNotError(t *testing.T) {
	root := t.TempDir()
	c := New(root)

	if err := c.Invalidate(context.Background(), "nonexistent"); err != nil {
		t.Errorf("Invalidate() on missing subtree should not error, got %v", err)
	}
}
