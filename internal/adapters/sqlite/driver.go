// Package sqlite implements the index store facade on SQLite with
// the SpatiaLite extension, the relational store named as an external
// collaborator in: it is treated as an opaque engine exposing prepared
// statements, transactions, and a spatial extension able to parse
// well-known-text into 4326 geometries and emit GeoJSON.
package sqlite

import (
	"database/sql"
	"os"

	"github.com/mattn/go-sqlite3"
)

const driverName = "ddb_sqlite_with_extensions"

func init() {
	sql.Register(driverName, &sqlite3.SQLiteDriver{
		Extensions: spatialiteLibraryPaths(),
	})
}

// spatialiteLibraryPaths returns the candidate paths to try when loading
// the SpatiaLite extension, environment override first.
func spatialiteLibraryPaths() []string {
	if envPath := os.Getenv("SPATIALITE_LIBRARY_PATH"); envPath != "" {
		return []string{envPath}
	}

	return []string{
		"/usr/lib/mod_spatialite.so",
		"/usr/lib/mod_spatialite.so.8",
		"/usr/lib/x86_64-linux-gnu/mod_spatialite.so",
		"/usr/lib/x86_64-linux-gnu/mod_spatialite.so.8",
		"/usr/lib/aarch64-linux-gnu/mod_spatialite.so",
		"/usr/lib/aarch64-linux-gnu/mod_spatialite.so.8",
		"/usr/local/lib/mod_spatialite.dylib",
		"/opt/homebrew/lib/mod_spatialite.dylib",
		"mod_spatialite.so",
		"mod_spatialite",
		"mod_spatialite.dylib",
	}
}
