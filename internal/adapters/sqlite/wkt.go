package sqlite

import (
	"strconv"
	"strings"

	"github.com/dronedb/ddb/internal/domain"
)

// parsePointWKT parses the two accepted point forms produced by
// domain.Point.WKT and echoed back by SpatiaLite's AsText: "POINT(x y)"
// and "POINT Z(x y z)".
func parsePointWKT(wkt string) (domain.Point, bool) {
	s := strings.TrimSpace(wkt)
	hasZ := false
	switch {
	case strings.HasPrefix(s, "POINT Z"):
		hasZ = true
		s = strings.TrimPrefix(s, "POINT Z")
	case strings.HasPrefix(s, "POINT"):
		s = strings.TrimPrefix(s, "POINT")
	default:
		return domain.Point{}, false
	}
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return domain.Point{}, false
	}
	lon, err1 := strconv.ParseFloat(fields[0], 64)
	lat, err2 := strconv.ParseFloat(fields[1], 64)
	if err1 != nil || err2 != nil {
		return domain.Point{}, false
	}
	if hasZ && len(fields) >= 3 {
		alt, err3 := strconv.ParseFloat(fields[2], 64)
		if err3 == nil {
			return domain.NewPoint3D(lon, lat, alt), true
		}
	}
	return domain.NewPoint2D(lon, lat), true
}

// parsePolygonWKT parses a single-ring "POLYGON((x y, x y, ...))" form.
func parsePolygonWKT(wkt string) (domain.Polygon, bool) {
	s := strings.TrimSpace(wkt)
	if !strings.HasPrefix(s, "POLYGON") {
		return domain.Polygon{}, false
	}
	s = strings.TrimPrefix(s, "POLYGON")
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "((")
	s = strings.TrimSuffix(s, "))")

	var ring []domain.Point
	for _, pair := range strings.Split(s, ",") {
		fields := strings.Fields(strings.TrimSpace(pair))
		if len(fields) < 2 {
			continue
		}
		lon, err1 := strconv.ParseFloat(fields[0], 64)
		lat, err2 := strconv.ParseFloat(fields[1], 64)
		if err1 != nil || err2 != nil {
			continue
		}
		ring = append(ring, domain.NewPoint2D(lon, lat))
	}
	if len(ring) < 4 {
		return domain.Polygon{}, false
	}
	return domain.Polygon{Ring: ring}, true
}
