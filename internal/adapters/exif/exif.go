// Package exif implements the GeoImage metadata extractor: EXIF GPS
// position and camera metadata for geotagged photos.
package exif

import (
	"os"
	"strconv"
	"strings"
	"time"

	goexif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"

	"github.com/dronedb/ddb/internal/adapters/pathutil"
	"github.com/dronedb/ddb/internal/domain"
	"github.com/dronedb/ddb/internal/ports/output"
)

var imageExtensions = map[string]bool{
	"jpg": true, "jpeg": true, "tif": true, "tiff": true, "png": true, "webp": true,
}

// Extractor implements output.Extractor for GeoImage (and plain Image)
// entries, reading EXIF GPS and camera tags.
type Extractor struct{}

// New returns a ready Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Handles reports whether this extractor applies to t.
func (e *Extractor) Handles(t domain.EntryType) bool {
	return t == domain.GeoImage || t == domain.Image
}

// Extract reads EXIF metadata from absPath. It returns an error only when
// absPath cannot be opened: a missing or unreadable EXIF segment yields
// minimal metadata with no geometry, consistent with the classifier's own
// degrade-on-error rule.
func (e *Extractor) Extract(absPath string, t domain.EntryType) (output.ExtractResult, error) {
	meta := domain.NewMetadata()

	f, err := os.Open(absPath)
	if err != nil {
		return output.ExtractResult{}, &domain.FilesystemError{Op: "open", Path: absPath, Err: err}
	}
	defer f.Close()

	if w, h, ok := decodeDimensions(absPath); ok {
		meta.Set(domain.MetaWidth, w)
		meta.Set(domain.MetaHeight, h)
	}

	rawExif, err := goexif.SearchAndExtractExifWithReader(f)
	if err != nil {
		// No EXIF segment at all; return what we have.
		return output.ExtractResult{Meta: meta}, nil
	}

	applyFlatTags(meta, rawExif)

	var point *domain.Point
	if p, ok := gpsPoint(rawExif); ok {
		point = &p
	}

	return output.ExtractResult{Meta: meta, PointGeom: point}, nil
}

// GPSProbe implements classify.GPSProbe: reports whether absPath carries a
// parseable GPS position.
func GPSProbe(absPath string) bool {
	f, err := os.Open(absPath)
	if err != nil {
		return false
	}
	defer f.Close()

	rawExif, err := goexif.SearchAndExtractExifWithReader(f)
	if err != nil {
		return false
	}
	_, ok := gpsPoint(rawExif)
	return ok
}

func gpsPoint(rawExif []byte) (domain.Point, bool) {
	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return domain.Point{}, false
	}
	ti := goexif.NewTagIndex()
	_, index, err := goexif.Collect(im, ti, rawExif)
	if err != nil || index.RootIfd == nil {
		return domain.Point{}, false
	}

	gi, err := index.RootIfd.GpsInfo()
	if err != nil {
		return domain.Point{}, false
	}

	lat := gi.Latitude.Decimal()
	lon := gi.Longitude.Decimal()

	// gi.Altitude's zero value is indistinguishable from a genuine
	// GPSAltitude of 0 (sea level); such a fix is reported here as a 2D
	// point rather than a 3D point with Alt=0.
	if gi.Altitude != 0 {
		alt := float64(gi.Altitude)
		return domain.NewPoint3D(lon, lat, alt), true
	}
	return domain.NewPoint2D(lon, lat), true
}

func applyFlatTags(meta domain.Metadata, rawExif []byte) {
	entries, _, err := goexif.GetFlatExifData(rawExif, nil)
	if err != nil {
		return
	}

	for _, tag := range entries {
		switch tag.TagName {
		case "Make":
			meta.Set(domain.MetaCameraMake, strings.TrimSpace(tag.FormattedFirst))
		case "Model":
			meta.Set(domain.MetaCameraModel, strings.TrimSpace(tag.FormattedFirst))
		case "Orientation":
			if n, err := strconv.Atoi(tag.FormattedFirst); err == nil {
				meta.Set(domain.MetaOrientation, n)
			}
		case "DateTimeOriginal", "DateTimeDigitized", "DateTime":
			if _, ok := meta.Get(domain.MetaCaptureTime); ok {
				continue
			}
			if ts, err := time.Parse("2006:01:02 15:04:05", tag.FormattedFirst); err == nil {
				meta.Set(domain.MetaCaptureTime, ts.UTC())
			}
		case "FocalLength":
			if v, err := strconv.ParseFloat(tag.FormattedFirst, 64); err == nil {
				meta.Set(domain.MetaFocalLength, v)
			}
		}
	}
}

func decodeDimensions(absPath string) (width, height int, ok bool) {
	if !imageExtensions[pathutil.Ext(absPath)] {
		return 0, 0, false
	}
	f, err := os.Open(absPath)
	if err != nil {
		return 0, 0, false
	}
	defer f.Close()

	cfg, _, err := decodeConfig(f)
	if err != nil {
		return 0, 0, false
	}
	return cfg.Width, cfg.Height, true
}
