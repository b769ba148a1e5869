// Package geotiff implements the GeoRaster metadata extractor:
// raster size, band count, spatial reference, pixel resolution, and the
// reprojected footprint of georeferenced rasters such as orthophotos and
// digital elevation models.
package geotiff

import (
	"sync"

	"github.com/airbusgeo/godal"

	"github.com/dronedb/ddb/internal/domain"
	"github.com/dronedb/ddb/internal/ports/output"
)

var registerOnce sync.Once

func ensureRegistered() {
	registerOnce.Do(godal.RegisterAll)
}

// Extractor implements output.Extractor for GeoRaster entries.
type Extractor struct{}

// New returns a ready Extractor.
func New() *Extractor {
	ensureRegistered()
	return &Extractor{}
}

// Handles reports whether this extractor applies to t.
func (e *Extractor) Handles(t domain.EntryType) bool {
	return t == domain.GeoRaster
}

// Extract opens absPath with GDAL and reads its geospatial envelope,
// raster structure and spatial reference. A dataset with no geotransform
// (no georeferencing at all) yields metadata with no geometry rather than
// an error, since a .tif without a transform is still a valid raster on
// disk, just not one DroneDB can place on a map.
func (e *Extractor) Extract(absPath string, t domain.EntryType) (output.ExtractResult, error) {
	ds, err := godal.Open(absPath)
	if err != nil {
		return output.ExtractResult{}, &domain.ParseError{Path: absPath, Err: err}
	}
	defer ds.Close()

	meta := domain.NewMetadata()
	structure := ds.Structure()
	meta.Set(domain.MetaWidth, structure.SizeX)
	meta.Set(domain.MetaHeight, structure.SizeY)
	meta.Set(domain.MetaBandCount, structure.NBands)

	srcSR := ds.SpatialRef()
	if srcSR == nil {
		return output.ExtractResult{Meta: meta}, nil
	}
	defer srcSR.Close()

	if code := srcSR.AuthorityCode(""); code != "" {
		meta.Set(domain.MetaSRID, code)
	}

	gt, err := ds.GeoTransform()
	if err == nil {
		resX, resY := gt[1], gt[5]
		meta.Set(domain.MetaPixelResX, resX)
		meta.Set(domain.MetaPixelResY, resY)
	}

	wgs84, err := godal.NewSpatialRefFromEPSG(domain.SRIDWGS84)
	if err != nil {
		return output.ExtractResult{Meta: meta}, nil
	}
	defer wgs84.Close()

	bounds, err := ds.Bounds(wgs84)
	if err != nil {
		return output.ExtractResult{Meta: meta}, nil
	}

	extent := domain.Extent{MinLon: bounds[0], MinLat: bounds[1], MaxLon: bounds[2], MaxLat: bounds[3]}
	if !extent.IsValid() {
		return output.ExtractResult{Meta: meta}, nil
	}

	polygon := domain.NewPolygonFromExtent(extent)
	center := extent.Center()

	return output.ExtractResult{
		Meta:        meta,
		PointGeom:   &center,
		PolygonGeom: &polygon,
	}, nil
}

// GeoRasterProbe implements classify.GeoRasterProbe: reports whether
// absPath carries a spatial reference and a non-identity geotransform.
func GeoRasterProbe(absPath string) bool {
	ensureRegistered()
	ds, err := godal.Open(absPath)
	if err != nil {
		return false
	}
	defer ds.Close()

	if ds.SpatialRef() == nil {
		return false
	}
	_, err = ds.GeoTransform()
	return err == nil
}
