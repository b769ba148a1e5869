package vector

import (
	"archive/zip"
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	"github.com/twpayne/go-kml"

	"github.com/dronedb/ddb/internal/domain"
	"github.com/dronedb/ddb/internal/ports/output"
)

// Footprint pairs an entry's path with the geometry exported for it, either
// a single point or a closed polygon ring.
type Footprint struct {
	Path    string
	Point   *domain.Point
	Polygon *domain.Polygon
}

// WriteKML renders a set of entry footprints as a KML document of
// Placemarks (one per footprint), writing it to w. Unlike
// extractKML's encoding/xml-based parser above, this direction writes KML
// rather than reading it, so it uses go-kml's element builders instead.
func WriteKML(w io.Writer, footprints []Footprint) error {
	placemarks := make([]kml.Element, 0, len(footprints))
	for _, f := range footprints {
		switch {
		case f.Polygon != nil:
			coords := make([]kml.Coordinate, 0, len(f.Polygon.Ring))
			for _, v := range f.Polygon.Ring {
				coords = append(coords, kml.Coordinate{Lon: v.Lon, Lat: v.Lat})
			}
			placemarks = append(placemarks, kml.Placemark(
				kml.Name(f.Path),
				kml.Polygon(
					kml.OuterBoundaryIs(
						kml.LinearRing(
							kml.Coordinates(coords...),
						),
					),
				),
			))
		case f.Point != nil:
			placemarks = append(placemarks, kml.Placemark(
				kml.Name(f.Path),
				kml.Point(
					kml.Coordinates(kml.Coordinate{Lon: f.Point.Lon, Lat: f.Point.Lat, Alt: f.Point.Alt}),
				),
			))
		}
	}

	doc := kml.KML(kml.Document(placemarks...))
	return doc.WriteIndent(w, "", "  ")
}

// kmlDocument mirrors just enough of the OGC KML 2.2 schema to recover
// each Placemark's geometry: a Point, LineString or Polygon's coordinate
// list. KML coordinates are always WGS84 (lon,lat[,alt]), so no
// reprojection is needed here, unlike the Shapefile and raster readers.
type kmlDocument struct {
	XMLName    xml.Name       `xml:"kml"`
	Placemarks []kmlPlacemark `xml:"Document>Placemark"`
}

type kmlPlacemark struct {
	Point      *kmlCoordinates `xml:"Point"`
	LineString *kmlCoordinates `xml:"LineString"`
	Polygon    *kmlPolygon     `xml:"Polygon"`
}

type kmlCoordinates struct {
	Coordinates string `xml:"coordinates"`
}

type kmlPolygon struct {
	OuterBoundary struct {
		LinearRing kmlCoordinates `xml:"LinearRing"`
	} `xml:"outerBoundaryIs"`
}

func extractKML(absPath string) (output.ExtractResult, error) {
	data, err := readFile(absPath)
	if err != nil {
		return output.ExtractResult{}, err
	}
	return summarizeKML(absPath, data)
}

// extractKMZ unzips the first *.kml entry (by convention named "doc.kml")
// from a KMZ archive and summarizes it the same way as a plain KML file.
func extractKMZ(absPath string) (output.ExtractResult, error) {
	r, err := zip.OpenReader(absPath)
	if err != nil {
		return output.ExtractResult{}, &domain.FilesystemError{Op: "open", Path: absPath, Err: err}
	}
	defer r.Close()

	for _, zf := range r.File {
		if !strings.HasSuffix(strings.ToLower(zf.Name), ".kml") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return output.ExtractResult{}, &domain.ParseError{Path: absPath, Err: err}
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return output.ExtractResult{}, &domain.ParseError{Path: absPath, Err: err}
		}
		return summarizeKML(absPath, data)
	}
	return output.ExtractResult{Meta: domain.NewMetadata()}, nil
}

func summarizeKML(absPath string, data []byte) (output.ExtractResult, error) {
	var doc kmlDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return output.ExtractResult{}, &domain.ParseError{Path: absPath, Err: err}
	}

	summary := newGeometrySummary()
	for _, pm := range doc.Placemarks {
		switch {
		case pm.Point != nil:
			addKMLCoordinateString(summary, "Point", pm.Point.Coordinates)
		case pm.LineString != nil:
			addKMLCoordinateString(summary, "LineString", pm.LineString.Coordinates)
		case pm.Polygon != nil:
			addKMLCoordinateString(summary, "Polygon", pm.Polygon.OuterBoundary.LinearRing.Coordinates)
		}
	}
	return summary.result(), nil
}

// addKMLCoordinateString parses a KML "coordinates" element's
// whitespace-separated "lon,lat[,alt]" tuples and folds their bound into
// the running summary.
func addKMLCoordinateString(s *geometrySummary, geomType, raw string) {
	fields := strings.Fields(raw)
	if len(fields) == 0 {
		return
	}

	var minLon, minLat, maxLon, maxLat float64
	first := true
	for _, tuple := range fields {
		parts := strings.Split(tuple, ",")
		if len(parts) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(parts[0], 64)
		lat, err2 := strconv.ParseFloat(parts[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		if first {
			minLon, maxLon, minLat, maxLat = lon, lon, lat, lat
			first = false
			continue
		}
		if lon < minLon {
			minLon = lon
		}
		if lon > maxLon {
			maxLon = lon
		}
		if lat < minLat {
			minLat = lat
		}
		if lat > maxLat {
			maxLat = lat
		}
	}
	if !first {
		s.addBound(geomType, minLon, maxLon, minLat, maxLat)
	}
}
