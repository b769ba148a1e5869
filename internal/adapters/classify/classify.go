// Package classify implements the type classifier: extension
// tables plus optional sniffing probes that escalate an Image to a
// GeoImage or a Generic raster to a GeoRaster when the file actually
// carries the geographic signal.
package classify

import (
	"os"

	"github.com/dronedb/ddb/internal/adapters/pathutil"
	"github.com/dronedb/ddb/internal/domain"
)

var imageExts = map[string]bool{
	"jpg": true, "jpeg": true, "tif": true, "tiff": true, "png": true, "webp": true,
}

var rasterExts = map[string]bool{
	"tif": true, "tiff": true, "img": true, "vrt": true, "ecw": true, "jp2": true,
}

var pointCloudExts = map[string]bool{
	"las": true, "laz": true, "ply": true, "xyz": true, "pcd": true,
}

var vectorExts = map[string]bool{
	"geojson": true, "json": true, "shp": true, "gpkg": true, "kml": true, "kmz": true, "gml": true,
}

// GPSProbe reports whether absPath carries parseable EXIF GPS
// coordinates. Implemented by internal/adapters/exif; injected here to
// avoid a dependency cycle between the classifier and the extractors.
type GPSProbe func(absPath string) bool

// GeoRasterProbe reports whether absPath carries a valid geotransform and
// spatial reference. Implemented by internal/adapters/geotiff.
type GeoRasterProbe func(absPath string) bool

// Classifier implements output.Classifier.
type Classifier struct {
	hasGPS       GPSProbe
	hasGeoRaster GeoRasterProbe
}

// New builds a Classifier. Either probe may be nil, in which case the
// corresponding escalation never fires and classification degrades to the
// plain Image/Generic tag.
func New(hasGPS GPSProbe, hasGeoRaster GeoRasterProbe) *Classifier {
	return &Classifier{hasGPS: hasGPS, hasGeoRaster: hasGeoRaster}
}

// Classify inspects absPath and returns its entry type. It never errors:
// an unreadable or unrecognized file degrades to Generic.
func (c *Classifier) Classify(absPath string) domain.EntryType {
	info, err := os.Stat(absPath)
	if err != nil {
		return domain.Generic
	}
	if info.IsDir() {
		return domain.Directory
	}

	ext := pathutil.Ext(absPath)

	switch {
	case pointCloudExts[ext]:
		return domain.PointCloud
	case vectorExts[ext]:
		return domain.Vector
	case imageExts[ext]:
		if c.hasGPS != nil && safeProbe(c.hasGPS, absPath) {
			return domain.GeoImage
		}
		if rasterExts[ext] && c.hasGeoRaster != nil && safeProbe(c.hasGeoRaster, absPath) {
			return domain.GeoRaster
		}
		return domain.Image
	case rasterExts[ext]:
		if c.hasGeoRaster != nil && safeProbe(c.hasGeoRaster, absPath) {
			return domain.GeoRaster
		}
		return domain.Generic
	default:
		return domain.Generic
	}
}

// safeProbe runs a probe and treats any panic (from a malformed file
// tripping a third-party decoder) as "no geographic signal", honoring the
// classifier's never-throw contract.
func safeProbe(probe func(string) bool, absPath string) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return probe(absPath)
}
