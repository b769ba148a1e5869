package sqlite

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dronedb/ddb/internal/adapters/pathutil"
	"github.com/dronedb/ddb/internal/domain"
)

// DatabaseFileName is the sqlite file living under the `.ddb` marker
// directory.
const DatabaseFileName = "dbase.sqlite"

// Init creates `<dir>/.ddb/dbase.sqlite`, building the schema from scratch.
// fromScratch is accepted for signature parity with the host-facing
// initIndex operation; a templated copy is not shipped in this
// repository, so both paths build the same schema via buildSchema,
// satisfying the "byte-identical schemas" requirement in trivially.
func Init(dir string, fromScratch bool) (string, error) {
	_ = fromScratch

	ddbPath := filepath.Join(dir, pathutil.DdbDir)
	if _, err := os.Stat(ddbPath); err == nil {
		return "", domain.ErrAlreadyTree
	}

	if err := os.MkdirAll(ddbPath, 0o750); err != nil {
		return "", &domain.FilesystemError{Op: "mkdir", Path: ddbPath, Err: err}
	}

	dbPath := filepath.Join(ddbPath, DatabaseFileName)
	db, err := sql.Open(driverName, fmt.Sprintf("file:%s?cache=shared&_txlock=exclusive", dbPath))
	if err != nil {
		return "", &domain.StoreError{Op: "open", Err: err}
	}
	defer func() { _ = db.Close() }()

	if err := buildSchema(db); err != nil {
		return "", &domain.StoreError{Op: "build-schema", Err: err}
	}

	return ddbPath, nil
}

// Locate finds the `.ddb` marker starting at dir. If traverseUp is set and
// dir itself carries no marker, ancestor directories are walked until one
// is found or the filesystem root is reached.
func Locate(dir string, traverseUp bool) (string, error) {
	cur, err := filepath.Abs(dir)
	if err != nil {
		return "", &domain.FilesystemError{Op: "abs", Path: dir, Err: err}
	}

	for {
		candidate := filepath.Join(cur, pathutil.DdbDir, DatabaseFileName)
		if _, statErr := os.Stat(candidate); statErr == nil {
			return filepath.Join(cur, pathutil.DdbDir), nil
		}
		if !traverseUp {
			break
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}
	return "", domain.ErrNotWorkingTree
}

// Open locates the working tree rooted at (or above) dir and returns a
// ready Store handle, running any pending schema migrations first.
func Open(dir string, traverseUp bool, logger *slog.Logger) (*Store, string, error) {
	ddbPath, err := Locate(dir, traverseUp)
	if err != nil {
		return nil, "", err
	}
	root := filepath.Dir(ddbPath)

	dbPath := filepath.Join(ddbPath, DatabaseFileName)
	db, err := sql.Open(driverName, fmt.Sprintf("file:%s?cache=shared&_txlock=exclusive", dbPath))
	if err != nil {
		return nil, "", &domain.StoreError{Op: "open", Err: err}
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, "", &domain.StoreError{Op: "ping", Err: err}
	}

	if err := ensureSchema(db); err != nil {
		_ = db.Close()
		return nil, "", err
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &Store{db: db, logger: logger}, root, nil
}
