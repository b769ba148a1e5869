package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/dronedb/ddb/internal/domain"
)

// Store implements output.IndexStore on a single SQLite+SpatiaLite
// connection, scoped to one working tree's `entries` table.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	mu sync.Mutex
	tx *sql.Tx // non-nil only while inside WithExclusiveTx
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

func (s *Store) conn() querier {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// WithExclusiveTx runs fn inside a single exclusive transaction (the DSN
// opens connections with _txlock=exclusive, so BeginTx issues BEGIN
// EXCLUSIVE). A false cancellation from a caller callback must surface as
// an error from fn so the transaction rolls back instead of partially
// committing.
func (s *Store) WithExclusiveTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	if s.tx != nil {
		s.mu.Unlock()
		return &domain.StoreError{Op: "begin", Err: fmt.Errorf("transaction already in progress")}
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.mu.Unlock()
		return &domain.StoreError{Op: "begin", Err: err}
	}
	s.tx = tx
	s.mu.Unlock()

	fnErr := fn(ctx)

	s.mu.Lock()
	s.tx = nil
	s.mu.Unlock()

	if fnErr != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			s.logger.Error("rollback failed", "error", rbErr)
		}
		return fnErr
	}
	if err := tx.Commit(); err != nil {
		return &domain.StoreError{Op: "commit", Err: err}
	}
	return nil
}

// Lookup returns the entry stored at path, if any.
func (s *Store) Lookup(ctx context.Context, path string) (*domain.Entry, error) {
	row := s.conn().QueryRowContext(ctx, selectByPath, path)
	e, err := scanEntry(row)
	if err == sql.ErrNoRows {
		return nil, nil //nolint:nilnil // absence is not an error for Lookup
	}
	if err != nil {
		return nil, &domain.StoreError{Op: "lookup", Err: err}
	}
	return &e, nil
}

// Insert adds a new row.
func (s *Store) Insert(ctx context.Context, e domain.Entry) error {
	metaJSON, pointWKT, polyWKT, err := encodeEntry(e)
	if err != nil {
		return &domain.StoreError{Op: "insert", Err: err}
	}
	_, err = s.conn().ExecContext(ctx, insertEntry,
		e.Path, e.Hash, int(e.Type), metaJSON, e.MTime, e.Size, e.Depth,
		nullableGeom(pointWKT), nullableGeom(polyWKT),
	)
	if err != nil {
		return &domain.StoreError{Op: "insert", Err: err}
	}
	return nil
}

// Update overwrites the row at e.Path.
func (s *Store) Update(ctx context.Context, e domain.Entry) error {
	metaJSON, pointWKT, polyWKT, err := encodeEntry(e)
	if err != nil {
		return &domain.StoreError{Op: "update", Err: err}
	}
	_, err = s.conn().ExecContext(ctx, updateEntry,
		e.Hash, int(e.Type), metaJSON, e.MTime, e.Size, e.Depth,
		nullableGeom(pointWKT), nullableGeom(polyWKT), e.Path,
	)
	if err != nil {
		return &domain.StoreError{Op: "update", Err: err}
	}
	return nil
}

// Delete removes the row at path.
func (s *Store) Delete(ctx context.Context, path string) error {
	if _, err := s.conn().ExecContext(ctx, deleteEntry, path); err != nil {
		return &domain.StoreError{Op: "delete", Err: err}
	}
	return nil
}

// Rename rewrites a row's path and depth in place.
func (s *Store) Rename(ctx context.Context, oldPath, newPath string) error {
	_, err := s.conn().ExecContext(ctx, renameEntry, newPath, domain.PathDepth(newPath), oldPath)
	if err != nil {
		return &domain.StoreError{Op: "rename", Err: err}
	}
	return nil
}

// Match returns every entry whose path satisfies likePattern.
func (s *Store) Match(ctx context.Context, likePattern string) ([]domain.Entry, error) {
	rows, err := s.conn().QueryContext(ctx, selectByLike, likePattern, LikeEscape)
	if err != nil {
		return nil, &domain.StoreError{Op: "match", Err: err}
	}
	return scanEntries(rows)
}

// ListChildren returns path and every entry nested under it.
func (s *Store) ListChildren(ctx context.Context, path string) ([]domain.Entry, error) {
	prefixPattern := EscapeLiteral(path) + "//%"
	rows, err := s.conn().QueryContext(ctx, selectListChildren, path, prefixPattern)
	if err != nil {
		return nil, &domain.StoreError{Op: "list", Err: err}
	}
	return scanEntries(rows)
}

// AllEntries returns every entry in natural row order, for sync.
func (s *Store) AllEntries(ctx context.Context) ([]domain.Entry, error) {
	rows, err := s.conn().QueryContext(ctx, selectAll)
	if err != nil {
		return nil, &domain.StoreError{Op: "scan-all", Err: err}
	}
	return scanEntries(rows)
}

// HasDirectoryAt reports whether a Directory row exists at path.
func (s *Store) HasDirectoryAt(ctx context.Context, path string) (bool, error) {
	var count int
	err := s.conn().QueryRowContext(ctx, selectDirectoryExists, path, int(domain.Directory)).Scan(&count)
	if err != nil {
		return false, &domain.StoreError{Op: "directory-check", Err: err}
	}
	return count > 0, nil
}

// LastEditTime returns the stored last-edit timestamp.
func (s *Store) LastEditTime(ctx context.Context) (int64, error) {
	var t int64
	err := s.conn().QueryRowContext(ctx, selectLastEdit).Scan(&t)
	if err != nil {
		return 0, &domain.StoreError{Op: "last-edit", Err: err}
	}
	return t, nil
}

// SetLastEditTime advances the stored last-edit timestamp.
func (s *Store) SetLastEditTime(ctx context.Context, unixSeconds int64) error {
	_, err := s.conn().ExecContext(ctx, updateLastEdit, unixSeconds)
	if err != nil {
		return &domain.StoreError{Op: "set-last-edit", Err: err}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB exposes the underlying *sql.DB for adapters that need direct access
// to the spatial extension (e.g. the coordinate transformer).
func (s *Store) DB() *sql.DB {
	return s.db
}

func encodeEntry(e domain.Entry) (metaJSON sql.NullString, pointWKT, polyWKT string, err error) {
	if e.Meta != nil {
		b, marshalErr := json.Marshal(e.Meta)
		if marshalErr != nil {
			return sql.NullString{}, "", "", marshalErr
		}
		metaJSON = sql.NullString{String: string(b), Valid: true}
	}
	if e.PointGeom != nil {
		pointWKT = e.PointGeom.WKT()
	}
	if e.PolygonGeom != nil {
		polyWKT = e.PolygonGeom.WKT()
	}
	return metaJSON, pointWKT, polyWKT, nil
}

// nullableGeom binds a WKT string for the GeomFromText(?, 4326) call
// written directly into insertEntry/updateEntry; an empty WKT (no
// geometry derived) is bound as SQL NULL instead.
func nullableGeom(wkt string) interface{} {
	if wkt == "" {
		return nil
	}
	return wkt
}
