package application

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"

	"github.com/airbusgeo/godal"
	"github.com/disintegration/imaging"

	"github.com/dronedb/ddb/internal/domain"
	"github.com/dronedb/ddb/internal/ports/input"
	"github.com/dronedb/ddb/internal/ports/output"
)

// webMercatorEarthCircumference is the EPSG:3857 world extent in meters
// (2*pi*R at R=6378137), used to derive a z/x/y tile's bounding box.
const webMercatorEarthCircumference = 2 * math.Pi * 6378137.0

// Artifacts implements input.ArtifactService.
// Cache paths are content-addressed: the source is hashed on every
// call and only re-rendered when the cached file is missing, older than
// the source's mtime, or forceRecreate is set, so a cache hit never pays
// for re-reading pixel data.
type Artifacts struct {
	root    string
	cache   output.ArtifactCacheKey
	hasher  output.Hasher
	metrics output.MetricsCollector
	logger  *slog.Logger
}

// NewArtifacts builds an Artifacts service rooted at root.
func NewArtifacts(root string, cache output.ArtifactCacheKey, hasher output.Hasher, metrics output.MetricsCollector, logger *slog.Logger) *Artifacts {
	if metrics == nil {
		metrics = &output.NoOpMetrics{}
	}
	return &Artifacts{root: root, cache: cache, hasher: hasher, metrics: metrics, logger: logger}
}

// GetThumbnail returns the cache path of a size x size thumbnail of
// imagePath, regenerating it with github.com/disintegration/imaging when
// missing, stale (mtime advanced past what produced the cached file), or
// forceRecreate is set.
func (a *Artifacts) GetThumbnail(ctx context.Context, imagePath string, mtime int64, size int, forceRecreate bool) (string, error) {
	absPath := filepath.Join(a.root, imagePath)
	hash, err := a.hasher.HashFile(absPath)
	if err != nil {
		return "", &domain.ParseError{Path: imagePath, Err: err}
	}

	cachePath, err := a.cache.ThumbnailPath(ctx, hash, size)
	if err != nil {
		return "", err
	}

	if !forceRecreate {
		if fresh, err := isFresh(cachePath, mtime); err != nil {
			return "", err
		} else if fresh {
			return cachePath, nil
		}
	}

	src, err := imaging.Open(absPath, imaging.AutoOrientation(true))
	if err != nil {
		return "", &domain.ParseError{Path: imagePath, Err: err}
	}

	thumb := imaging.Fit(src, size, size, imaging.Lanczos)
	if err := imaging.Save(thumb, cachePath, imaging.JPEGQuality(85)); err != nil {
		return "", &domain.FilesystemError{Op: "save-thumbnail", Path: cachePath, Err: err}
	}

	a.metrics.IncOperationCount("thumbnail", true)
	return cachePath, nil
}

// GetTile returns the cache path of a z/x/y raster tile of geotiffPath,
// reprojecting and resampling the source to EPSG:3857 with godal.Warp.
func (a *Artifacts) GetTile(ctx context.Context, geotiffPath string, z, x, y, tileSize int, tms, forceRecreate bool) (string, error) {
	absPath := filepath.Join(a.root, geotiffPath)
	hash, err := a.hasher.HashFile(absPath)
	if err != nil {
		return "", &domain.ParseError{Path: geotiffPath, Err: err}
	}

	cachePath, err := a.cache.TilePath(ctx, hash, z, x, y, tileSize, tms)
	if err != nil {
		return "", err
	}

	srcInfo, err := os.Stat(absPath)
	if err != nil {
		return "", &domain.FilesystemError{Op: "stat", Path: geotiffPath, Err: err}
	}

	if !forceRecreate {
		if fresh, err := isFresh(cachePath, srcInfo.ModTime().Unix()); err != nil {
			return "", err
		} else if fresh {
			return cachePath, nil
		}
	}

	yTile := y
	if tms {
		yTile = (1 << uint(z)) - 1 - y
	}
	minX, minY, maxX, maxY := tileBoundsWebMercator(z, x, yTile)

	src, err := godal.Open(absPath)
	if err != nil {
		return "", &domain.ParseError{Path: geotiffPath, Err: err}
	}
	defer src.Close()

	switches := []string{
		"-t_srs", "EPSG:3857",
		"-te", fmt.Sprint(minX), fmt.Sprint(minY), fmt.Sprint(maxX), fmt.Sprint(maxY),
		"-ts", fmt.Sprint(tileSize), fmt.Sprint(tileSize),
		"-r", "bilinear",
	}

	tmpPath := cachePath + ".tmp"
	warped, err := src.Warp(tmpPath, switches, godal.GTiff)
	if err != nil {
		return "", &domain.ParseError{Path: geotiffPath, Err: err}
	}
	warped.Close()
	defer os.Remove(tmpPath)

	img, err := imaging.Open(tmpPath)
	if err != nil {
		return "", &domain.ParseError{Path: geotiffPath, Err: err}
	}
	if err := imaging.Save(img, cachePath); err != nil {
		return "", &domain.FilesystemError{Op: "save-tile", Path: cachePath, Err: err}
	}

	a.metrics.IncOperationCount("tile", true)
	return cachePath, nil
}

// tileBoundsWebMercator returns the EPSG:3857 bounding box of an XYZ tile
// at level z, column x, row y (row 0 at the north, per the non-TMS
// convention; callers flip y themselves for TMS).
func tileBoundsWebMercator(z, x, y int) (minX, minY, maxX, maxY float64) {
	n := math.Exp2(float64(z))
	tileSize := webMercatorEarthCircumference / n
	origin := webMercatorEarthCircumference / 2

	minX = float64(x)*tileSize - origin
	maxX = minX + tileSize
	maxY = origin - float64(y)*tileSize
	minY = maxY - tileSize
	return
}

// isFresh reports whether cachePath exists and was produced no earlier
// than srcMtime (unix seconds).
func isFresh(cachePath string, srcMtime int64) (bool, error) {
	cacheInfo, err := os.Stat(cachePath)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, &domain.FilesystemError{Op: "stat", Path: cachePath, Err: err}
	}
	return cacheInfo.ModTime().Unix() >= srcMtime, nil
}

var _ input.ArtifactService = (*Artifacts)(nil)
