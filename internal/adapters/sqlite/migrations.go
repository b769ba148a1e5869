package sqlite

import (
	"database/sql"
	"fmt"

	"github.com/dronedb/ddb/internal/domain"
)

// migration upgrades a database from its index in the registry to the
// next schema version.
type migration func(db *sql.DB) error

// migrations is the registry of schema upgrades, applied in order
// starting from the database's current schema_version. Empty today because
// CurrentSchemaVersion is 1 and buildSchema already produces it; future
// revisions append here rather than mutating buildSchema in place.
var migrations []migration

// ensureSchema verifies the entries table exists and, if the stored
// schema_version trails CurrentSchemaVersion, runs the pending migrations.
func ensureSchema(db *sql.DB) error {
	var tableCount int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='entries'`,
	).Scan(&tableCount)
	if err != nil {
		return &domain.StoreError{Op: "schema-check", Err: err}
	}

	if tableCount == 0 {
		if err := buildSchema(db); err != nil {
			return &domain.StoreError{Op: "build-schema", Err: err}
		}
		return nil
	}

	version, err := readSchemaVersion(db)
	if err != nil {
		return &domain.StoreError{Op: "schema-version", Err: err}
	}

	for version < CurrentSchemaVersion {
		if version >= len(migrations) {
			return fmt.Errorf("%w: no migration registered from version %d to %d",
				domain.ErrSchemaDrift, version, CurrentSchemaVersion)
		}
		if err := migrations[version](db); err != nil {
			return fmt.Errorf("%w: migration %d failed: %v", domain.ErrSchemaDrift, version, err)
		}
		version++
		if _, err := db.Exec(`UPDATE info SET schema_version = ? WHERE id = 0`, version); err != nil {
			return &domain.StoreError{Op: "advance-schema-version", Err: err}
		}
	}
	return nil
}

func readSchemaVersion(db *sql.DB) (int, error) {
	var version int
	err := db.QueryRow(`SELECT schema_version FROM info WHERE id = 0`).Scan(&version)
	if err != nil {
		return 0, err
	}
	return version, nil
}
