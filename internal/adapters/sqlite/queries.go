package sqlite

import (
	"database/sql"
	"encoding/json"

	"github.com/dronedb/ddb/internal/domain"
)

const entryColumns = `path, hash, type, meta, mtime, size, depth, AsText(point_geom), AsText(polygon_geom)`

const selectByPath = `SELECT ` + entryColumns + ` FROM entries WHERE path = ?`

const selectByLike = `SELECT ` + entryColumns + ` FROM entries WHERE path LIKE ? ESCAPE ?`

const selectListChildren = `SELECT ` + entryColumns + ` FROM entries WHERE path = ? OR path LIKE ? ESCAPE '/'`

const selectAll = `SELECT ` + entryColumns + ` FROM entries ORDER BY rowid`

const selectDirectoryExists = `SELECT COUNT(*) FROM entries WHERE path = ? AND type = ?`

const selectLastEdit = `SELECT last_edit FROM info WHERE id = 0`

const updateLastEdit = `UPDATE info SET last_edit = ? WHERE id = 0`

const insertEntry = `
INSERT INTO entries (path, hash, type, meta, mtime, size, depth, point_geom, polygon_geom)
VALUES (?, ?, ?, ?, ?, ?, ?, GeomFromText(?, 4326), GeomFromText(?, 4326))`

const updateEntry = `
UPDATE entries SET hash = ?, type = ?, meta = ?, mtime = ?, size = ?, depth = ?,
	point_geom = GeomFromText(?, 4326), polygon_geom = GeomFromText(?, 4326)
WHERE path = ?`

const deleteEntry = `DELETE FROM entries WHERE path = ?`

const renameEntry = `UPDATE entries SET path = ?, depth = ? WHERE path = ?`

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(row rowScanner) (domain.Entry, error) {
	var (
		path, hash      string
		typeTag         int
		meta            sql.NullString
		mtime, size     int64
		depth           int
		pointWKT, polyW sql.NullString
	)
	if err := row.Scan(&path, &hash, &typeTag, &meta, &mtime, &size, &depth, &pointWKT, &polyW); err != nil {
		return domain.Entry{}, err
	}

	e := domain.Entry{
		Path:  path,
		Hash:  hash,
		Type:  domain.EntryType(typeTag),
		MTime: mtime,
		Size:  size,
		Depth: depth,
	}
	if meta.Valid {
		var m domain.Metadata
		if err := json.Unmarshal([]byte(meta.String), &m); err == nil {
			e.Meta = m
		}
	}
	if pointWKT.Valid && pointWKT.String != "" {
		if pt, ok := parsePointWKT(pointWKT.String); ok {
			e.PointGeom = &pt
		}
	}
	if polyW.Valid && polyW.String != "" {
		if poly, ok := parsePolygonWKT(polyW.String); ok {
			e.PolygonGeom = &poly
		}
	}
	return e, nil
}

func scanEntries(rows *sql.Rows) ([]domain.Entry, error) {
	defer func() { _ = rows.Close() }()

	var out []domain.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
