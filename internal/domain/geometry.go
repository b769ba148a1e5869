package domain

import (
	"fmt"
	"strings"

	"github.com/paulmach/orb"
)

// SRIDWGS84 is the SRID under which every stored geometry lives.
const SRIDWGS84 = 4326

// Point is a 2D or 3D point in EPSG:4326 (longitude, latitude, optional
// altitude in meters).
type Point struct {
	Lon    float64
	Lat    float64
	Alt    float64
	HasAlt bool
}

// NewPoint2D builds a 2D geographic point.
func NewPoint2D(lon, lat float64) Point {
	return Point{Lon: lon, Lat: lat}
}

// NewPoint3D builds a 3D geographic point with an altitude component.
func NewPoint3D(lon, lat, alt float64) Point {
	return Point{Lon: lon, Lat: lat, Alt: alt, HasAlt: true}
}

// Validate checks that the point falls within [-180,180] x [-90,90].
func (p Point) Validate() error {
	if p.Lon < -180 || p.Lon > 180 {
		return &ValidationError{Field: "longitude", Value: p.Lon, Constraint: "[-180, 180]", Message: "longitude out of range"}
	}
	if p.Lat < -90 || p.Lat > 90 {
		return &ValidationError{Field: "latitude", Value: p.Lat, Constraint: "[-90, 90]", Message: "latitude out of range"}
	}
	return nil
}

// WKT returns the Well-Known Text representation of the point.
func (p Point) WKT() string {
	if p.HasAlt {
		return fmt.Sprintf("POINT Z(%f %f %f)", p.Lon, p.Lat, p.Alt)
	}
	return fmt.Sprintf("POINT(%f %f)", p.Lon, p.Lat)
}

// ToOrb converts the point to an orb.Point (lon, lat); the altitude
// component, if present, is not representable in orb's 2D model.
func (p Point) ToOrb() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// Polygon is a single closed ring in EPSG:4326, used as the areal
// footprint derived for georeferenced entries.
type Polygon struct {
	Ring []Point
}

// NewPolygonFromExtent builds the closed rectangular ring bounding an
// axis-aligned extent, in counter-clockwise winding.
func NewPolygonFromExtent(e Extent) Polygon {
	return Polygon{Ring: []Point{
		{Lon: e.MinLon, Lat: e.MinLat},
		{Lon: e.MaxLon, Lat: e.MinLat},
		{Lon: e.MaxLon, Lat: e.MaxLat},
		{Lon: e.MinLon, Lat: e.MaxLat},
		{Lon: e.MinLon, Lat: e.MinLat},
	}}
}

// Validate checks that the ring is closed and every vertex falls within
// geographic bounds.
func (poly Polygon) Validate() error {
	if len(poly.Ring) < 4 {
		return &ValidationError{Field: "polygon_geom", Value: len(poly.Ring), Constraint: ">= 4 points", Message: "ring must have at least 4 points to be closed"}
	}
	first, last := poly.Ring[0], poly.Ring[len(poly.Ring)-1]
	if first.Lon != last.Lon || first.Lat != last.Lat {
		return &ValidationError{Field: "polygon_geom", Value: nil, Constraint: "closed ring", Message: "first and last vertex must coincide"}
	}
	for _, v := range poly.Ring {
		if err := v.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// WKT returns the Well-Known Text representation of the polygon.
func (poly Polygon) WKT() string {
	var b strings.Builder
	b.WriteString("POLYGON((")
	for i, v := range poly.Ring {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%f %f", v.Lon, v.Lat)
	}
	b.WriteString("))")
	return b.String()
}

// Centroid returns the arithmetic mean of the ring's vertices (the closing
// vertex, identical to the first, is excluded from the average).
func (poly Polygon) Centroid() Point {
	if len(poly.Ring) <= 1 {
		if len(poly.Ring) == 1 {
			return poly.Ring[0]
		}
		return Point{}
	}
	pts := poly.Ring[:len(poly.Ring)-1]
	var sumLon, sumLat float64
	for _, v := range pts {
		sumLon += v.Lon
		sumLat += v.Lat
	}
	n := float64(len(pts))
	return Point{Lon: sumLon / n, Lat: sumLat / n}
}

// ToOrb converts the polygon to a single-ring orb.Polygon.
func (poly Polygon) ToOrb() orb.Polygon {
	ring := make(orb.Ring, 0, len(poly.Ring))
	for _, v := range poly.Ring {
		ring = append(ring, orb.Point{v.Lon, v.Lat})
	}
	return orb.Polygon{ring}
}

// Extent is an axis-aligned bounding rectangle in a source reference
// system, prior to reprojection to EPSG:4326.
type Extent struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// IsValid checks that the extent has non-inverted dimensions.
func (e Extent) IsValid() bool {
	return e.MinLon <= e.MaxLon && e.MinLat <= e.MaxLat
}

// Center returns the midpoint of the extent.
func (e Extent) Center() Point {
	return Point{Lon: (e.MinLon + e.MaxLon) / 2, Lat: (e.MinLat + e.MaxLat) / 2}
}

// Corners returns the four corners of the extent, starting at the
// lower-left and proceeding counter-clockwise — the order expected by a
// reprojection routine that maps each corner independently before forming
// the destination polygon's ring.
func (e Extent) Corners() [4]Point {
	return [4]Point{
		{Lon: e.MinLon, Lat: e.MinLat},
		{Lon: e.MaxLon, Lat: e.MinLat},
		{Lon: e.MaxLon, Lat: e.MaxLat},
		{Lon: e.MinLon, Lat: e.MaxLat},
	}
}
