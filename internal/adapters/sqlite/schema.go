package sqlite

import "database/sql"

// CurrentSchemaVersion is the schema revision a freshly built or migrated
// database ends up at.
const CurrentSchemaVersion = 1

const createEntriesTable = `
CREATE TABLE IF NOT EXISTS entries (
	path         TEXT PRIMARY KEY,
	hash         TEXT NOT NULL DEFAULT '',
	type         INTEGER NOT NULL,
	meta         TEXT,
	mtime        INTEGER NOT NULL,
	size         INTEGER NOT NULL DEFAULT 0,
	depth        INTEGER NOT NULL,
	point_geom   BLOB,
	polygon_geom BLOB
)`

const createEntriesDepthIndex = `CREATE INDEX IF NOT EXISTS idx_entries_depth ON entries(depth)`

const createInfoTable = `
CREATE TABLE IF NOT EXISTS info (
	id             INTEGER PRIMARY KEY CHECK (id = 0),
	last_edit      INTEGER NOT NULL DEFAULT 0,
	schema_version INTEGER NOT NULL DEFAULT 0
)`

const seedInfoRow = `INSERT OR IGNORE INTO info (id, last_edit, schema_version) VALUES (0, 0, ?)`

// buildSchema creates the entries/info tables from scratch. Both the
// template-copy init path and the from-scratch path must yield
// byte-identical schemas; this function is the single source of
// truth for the DDL either path runs.
func buildSchema(db *sql.DB) error {
	statements := []string{
		createEntriesTable,
		createEntriesDepthIndex,
		createInfoTable,
	}
	for _, stmt := range statements {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := db.Exec(seedInfoRow, CurrentSchemaVersion); err != nil {
		return err
	}
	return nil
}
