package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dronedb/ddb/internal/domain"
)

// Transformer implements output.CoordinateTransformer using an in-memory
// SpatiaLite database seeded with the full EPSG definition table. A working
// tree's own database is opened without spatial_ref_sys populated, so
// reprojection runs against a separate, purpose-built connection.
type Transformer struct {
	db *sql.DB
}

// NewTransformer opens the in-memory transformer database.
func NewTransformer(ctx context.Context) (*Transformer, error) {
	db, err := sql.Open(driverName, ":memory:")
	if err != nil {
		return nil, &domain.StoreError{Op: "open-transformer", Err: err}
	}
	if _, err := db.ExecContext(ctx, "SELECT InitSpatialMetaDataFull(1)"); err != nil {
		_ = db.Close()
		return nil, &domain.StoreError{Op: "init-transformer", Err: err}
	}
	return &Transformer{db: db}, nil
}

// TransformPoint reprojects a single point to EPSG:4326.
func (t *Transformer) TransformPoint(ctx context.Context, lon, lat float64, sourceSRID int) (domain.Point, error) {
	if sourceSRID == domain.SRIDWGS84 {
		return domain.NewPoint2D(lon, lat), nil
	}

	wkt := fmt.Sprintf("POINT(%f %f)", lon, lat)
	query := `SELECT X(Transform(GeomFromText(?, ?), ?)), Y(Transform(GeomFromText(?, ?), ?))`

	var x, y float64
	err := t.db.QueryRowContext(ctx, query,
		wkt, sourceSRID, domain.SRIDWGS84,
		wkt, sourceSRID, domain.SRIDWGS84,
	).Scan(&x, &y)
	if err != nil {
		return domain.Point{}, &domain.StoreError{Op: "transform-point", Err: err}
	}
	return domain.NewPoint2D(x, y), nil
}

// TransformExtent reprojects the four corners of e to EPSG:4326 and
// returns the resulting bounding polygon plus its centroid.
func (t *Transformer) TransformExtent(ctx context.Context, e domain.Extent, sourceSRID int) (domain.Polygon, domain.Point, error) {
	corners := e.Corners()
	ring := make([]domain.Point, 0, len(corners)+1)
	for _, c := range corners {
		p, err := t.TransformPoint(ctx, c.Lon, c.Lat, sourceSRID)
		if err != nil {
			return domain.Polygon{}, domain.Point{}, err
		}
		ring = append(ring, p)
	}
	ring = append(ring, ring[0])

	poly := domain.Polygon{Ring: ring}
	return poly, poly.Centroid(), nil
}

// GeoJSON renders a geometry's WKT as a GeoJSON fragment via the spatial
// extension's AsGeoJSON.
func (t *Transformer) GeoJSON(ctx context.Context, wkt string, srid int) (string, error) {
	var out string
	err := t.db.QueryRowContext(ctx, `SELECT AsGeoJSON(GeomFromText(?, ?))`, wkt, srid).Scan(&out)
	if err != nil {
		return "", &domain.StoreError{Op: "as-geojson", Err: err}
	}
	return out, nil
}

// Close releases the transformer's database connection.
func (t *Transformer) Close() error {
	return t.db.Close()
}
