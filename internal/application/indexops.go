package application

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dronedb/ddb/internal/adapters/pathutil"
	"github.com/dronedb/ddb/internal/domain"
	"github.com/dronedb/ddb/internal/ports/input"
	"github.com/dronedb/ddb/internal/ports/output"
)

// Index implements input.Indexer against one working tree.
type Index struct {
	root        string
	store       output.IndexStore
	parser      *EntryParser
	invalidator output.ArtifactInvalidator
	metrics     output.MetricsCollector
	logger      *slog.Logger
}

// NewIndex builds an Index rooted at root, backed by store.
func NewIndex(root string, store output.IndexStore, parser *EntryParser, invalidator output.ArtifactInvalidator, metrics output.MetricsCollector, logger *slog.Logger) *Index {
	if metrics == nil {
		metrics = &output.NoOpMetrics{}
	}
	return &Index{
		root:        root,
		store:       store,
		parser:      parser,
		invalidator: invalidator,
		metrics:     metrics,
		logger:      logger,
	}
}

// Root returns the working tree's root directory.
func (ix *Index) Root() string {
	return ix.root
}

// Close releases the underlying store handle.
func (ix *Index) Close() error {
	return ix.store.Close()
}

// ParseFiles classifies and extracts metadata without touching the store.
func (ix *Index) ParseFiles(ctx context.Context, paths []string, opts input.ParseOptions) ([]domain.Entry, error) {
	list, err := ix.getIndexPathList(paths, opts.Recursive, opts.MaxRecursionDepth)
	if err != nil {
		return nil, err
	}
	entries := make([]domain.Entry, 0, len(list))
	for _, absPath := range list {
		e, err := ix.parser.Parse(absPath, opts.WithHash)
		if err != nil {
			if opts.StopOnError {
				return nil, err
			}
			ix.logger.Warn("skipping unparsable path", "path", absPath, "error", err)
			continue
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// AddToIndex expands paths, reconciles each against the store, and commits
// the result inside one exclusive transaction.
func (ix *Index) AddToIndex(ctx context.Context, paths []string, onProgress input.ProgressFunc) error {
	start := time.Now()
	list, err := ix.getIndexPathList(paths, true, 0)
	if err != nil {
		return err
	}

	var changed bool
	err = ix.store.WithExclusiveTx(ctx, func(ctx context.Context) error {
		for _, absPath := range list {
			relPath, relErr := pathutil.ToRelSlash(ix.root, absPath)
			if relErr != nil {
				return relErr
			}
			if pathutil.HasBackslashSegment(filepath.Base(relPath)) {
				ix.logger.Warn("skipping path with backslash segment in final component", "path", relPath)
				continue
			}

			existing, lookupErr := ix.store.Lookup(ctx, relPath)
			if lookupErr != nil {
				return lookupErr
			}

			var entry domain.Entry
			var wasUpdate bool

			if existing == nil {
				parsed, parseErr := ix.parser.Parse(absPath, true)
				if parseErr != nil {
					return parseErr
				}
				entry = parsed
				if err := ix.store.Insert(ctx, entry); err != nil {
					return err
				}
				changed = true
			} else {
				status, newEntry, checkErr := ix.checkUpdate(absPath, *existing)
				if checkErr != nil {
					return checkErr
				}
				switch status {
				case domain.NotModified:
					entry = *existing
					if newEntry.Path != "" && newEntry.MTime != existing.MTime {
						if err := ix.store.Update(ctx, newEntry); err != nil {
							return err
						}
						entry = newEntry
					}
				case domain.Modified:
					// The row's hash must advance before the old artifact is
					// invalidated, so a crash between the two never leaves a
					// stale cached artifact served against the new hash.
					if err := ix.store.Update(ctx, newEntry); err != nil {
						return err
					}
					if existing.Hash != "" && existing.Hash != newEntry.Hash && ix.invalidator != nil {
						if err := ix.invalidator.Invalidate(ctx, existing.Hash); err != nil {
							return err
						}
					}
					entry = newEntry
					wasUpdate = true
					changed = true
				case domain.Deleted:
					// Handled by sync, not add; treat as not-modified here.
					entry = *existing
				}
			}

			ix.metrics.IncEntriesProcessed("add", 1)
			if onProgress != nil && !onProgress(entry, wasUpdate) {
				return errCanceledOp
			}
		}
		return nil
	})

	if err != nil {
		ix.metrics.IncOperationCount("add", false)
		ix.metrics.ObserveOperationDuration("add", time.Since(start))
		return err
	}

	if changed {
		if err := ix.store.SetLastEditTime(ctx, time.Now().Unix()); err != nil {
			return err
		}
	}

	ix.metrics.IncOperationCount("add", true)
	ix.metrics.ObserveOperationDuration("add", time.Since(start))
	return nil
}

// RemoveFromIndex matches paths against the store and deletes every
// matched row.
func (ix *Index) RemoveFromIndex(ctx context.Context, paths []string, onRemoved input.RemovedFunc) ([]input.ChangeLine, error) {
	start := time.Now()
	var lines []input.ChangeLine
	matchedAny := false

	err := ix.store.WithExclusiveTx(ctx, func(ctx context.Context) error {
		for _, raw := range paths {
			relPath, relErr := pathutil.ToRelSlash(ix.root, raw)
			if relErr != nil {
				relPath = filepath.ToSlash(raw)
			}

			pattern := domain.SanitizeLikePattern(relPath)
			matches, err := ix.store.Match(ctx, pattern)
			if err != nil {
				return err
			}

			// If this entry is a directory, also sweep its descendants.
			for _, m := range matches {
				if m.IsDirectory() {
					descendants, err := ix.store.Match(ctx, domain.DescendantPattern(pattern))
					if err != nil {
						return err
					}
					matches = append(matches, descendants...)
					break
				}
			}

			for _, m := range matches {
				matchedAny = true
				if err := ix.store.Delete(ctx, m.Path); err != nil {
					return err
				}
				if m.Hash != "" && ix.invalidator != nil {
					if err := ix.invalidator.Invalidate(ctx, m.Hash); err != nil {
						return err
					}
				}
				lines = append(lines, input.ChangeLine{Status: domain.Deleted, Path: m.Path})
				if onRemoved != nil && !onRemoved(m.Path) {
					return errCanceledOp
				}
			}
		}
		if !matchedAny {
			return domain.ErrNoMatch
		}
		return nil
	})

	if err != nil {
		ix.metrics.IncOperationCount("remove", false)
		ix.metrics.ObserveOperationDuration("remove", time.Since(start))
		return nil, err
	}

	if len(lines) > 0 {
		if err := ix.store.SetLastEditTime(ctx, time.Now().Unix()); err != nil {
			return nil, err
		}
	}

	ix.metrics.IncOperationCount("remove", true)
	ix.metrics.ObserveOperationDuration("remove", time.Since(start))
	return lines, nil
}

// SyncIndex reconciles every stored entry against the filesystem.
func (ix *Index) SyncIndex(ctx context.Context) ([]input.ChangeLine, error) {
	start := time.Now()
	var lines []input.ChangeLine
	changed := false

	err := ix.store.WithExclusiveTx(ctx, func(ctx context.Context) error {
		all, err := ix.store.AllEntries(ctx)
		if err != nil {
			return err
		}

		for _, existing := range all {
			if existing.Type == domain.DroneDB {
				continue
			}
			absPath := filepath.Join(ix.root, filepath.FromSlash(existing.Path))
			status, newEntry, err := ix.checkUpdate(absPath, existing)
			if err != nil {
				return err
			}
			switch status {
			case domain.Deleted:
				if err := ix.store.Delete(ctx, existing.Path); err != nil {
					return err
				}
				if existing.Hash != "" && ix.invalidator != nil {
					if err := ix.invalidator.Invalidate(ctx, existing.Hash); err != nil {
						return err
					}
				}
				lines = append(lines, input.ChangeLine{Status: domain.Deleted, Path: existing.Path})
				changed = true
			case domain.Modified:
				// Same ordering as AddToIndex: advance the row's hash before
				// invalidating the artifact it used to key.
				if err := ix.store.Update(ctx, newEntry); err != nil {
					return err
				}
				if existing.Hash != "" && existing.Hash != newEntry.Hash && ix.invalidator != nil {
					if err := ix.invalidator.Invalidate(ctx, existing.Hash); err != nil {
						return err
					}
				}
				lines = append(lines, input.ChangeLine{Status: domain.Modified, Path: existing.Path})
				changed = true
			case domain.NotModified:
				if newEntry.Path != "" && newEntry.MTime != existing.MTime {
					if err := ix.store.Update(ctx, newEntry); err != nil {
						return err
					}
				}
			}
		}

		if changed {
			return ix.createMissingFolders(ctx)
		}
		return nil
	})

	if err != nil {
		ix.metrics.IncOperationCount("sync", false)
		ix.metrics.ObserveOperationDuration("sync", time.Since(start))
		return nil, err
	}

	if changed {
		if err := ix.store.SetLastEditTime(ctx, time.Now().Unix()); err != nil {
			return nil, err
		}
	}

	ix.metrics.IncOperationCount("sync", true)
	ix.metrics.ObserveOperationDuration("sync", time.Since(start))
	return lines, nil
}

// MoveEntry renames a single entry or an entire directory subtree.
func (ix *Index) MoveEntry(ctx context.Context, source, dest string) error {
	source = strings.TrimSuffix(filepath.ToSlash(source), "/")
	dest = strings.TrimSuffix(filepath.ToSlash(dest), "/")

	if source == "" || dest == "" {
		return &domain.ValidationError{Field: "path", Value: source, Constraint: "non-empty, no trailing separator", Message: "move endpoints must not be empty or end in a separator"}
	}
	if hasDotSegment(source) || hasDotSegment(dest) {
		return &domain.ValidationError{Field: "path", Value: source, Constraint: "no dot segments", Message: "move endpoints must not contain '.' or '..' segments"}
	}
	if source == dest {
		return nil
	}

	return ix.store.WithExclusiveTx(ctx, func(ctx context.Context) error {
		src, err := ix.store.Lookup(ctx, source)
		if err != nil {
			return err
		}
		if src == nil {
			return domain.ErrEntryNotFound
		}

		existingDest, err := ix.store.Lookup(ctx, dest)
		if err != nil {
			return err
		}

		if src.IsDirectory() {
			if existingDest != nil {
				return &domain.ValidationError{Field: "dest", Value: dest, Constraint: "must not exist", Message: "cannot move a directory onto an existing entry"}
			}

			subtree, err := ix.store.ListChildren(ctx, source)
			if err != nil {
				return err
			}
			for _, e := range subtree {
				newPath := dest + strings.TrimPrefix(e.Path, source)
				if prior, err := ix.store.Lookup(ctx, newPath); err != nil {
					return err
				} else if prior != nil {
					if err := ix.store.Delete(ctx, newPath); err != nil {
						return err
					}
				}
				if err := ix.store.Rename(ctx, e.Path, newPath); err != nil {
					return err
				}
			}
		} else {
			if existingDest != nil {
				if existingDest.IsDirectory() {
					return &domain.ValidationError{Field: "dest", Value: dest, Constraint: "must not be a directory", Message: "cannot move a file onto an existing directory"}
				}
				if err := ix.store.Delete(ctx, dest); err != nil {
					return err
				}
			}
			if err := ix.store.Rename(ctx, source, dest); err != nil {
				return err
			}
		}

		return ix.createMissingFolders(ctx)
	})
}

// List returns path and every descendant entry; an empty path lists every
// entry of the working tree.
func (ix *Index) List(ctx context.Context, path string) ([]domain.Entry, error) {
	path = strings.TrimSuffix(filepath.ToSlash(path), "/")
	if path == "" {
		return ix.store.AllEntries(ctx)
	}
	return ix.store.ListChildren(ctx, path)
}

// Match returns every entry matching a glob-style pattern.
func (ix *Index) Match(ctx context.Context, pattern string, maxDepth int, isFolder bool) ([]domain.Entry, error) {
	sanitized := domain.SanitizeLikePattern(pattern)
	if isFolder {
		sanitized = domain.DescendantPattern(sanitized)
	}
	entries, err := ix.store.Match(ctx, sanitized)
	if err != nil {
		return nil, err
	}
	if maxDepth <= 0 {
		return entries, nil
	}
	filtered := entries[:0]
	for _, e := range entries {
		if e.Depth <= maxDepth {
			filtered = append(filtered, e)
		}
	}
	return filtered, nil
}

// getIndexPathList expands the requested paths into an ordered list of
// absolute filesystem paths to process: every input must be within the
// working root; directories are walked recursively (when recursive is
// set); `.ddb` subtrees are pruned.
func (ix *Index) getIndexPathList(paths []string, recursive bool, maxDepth int) ([]string, error) {
	var result []string
	seen := make(map[string]bool)

	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			result = append(result, p)
		}
	}

	for _, p := range paths {
		abs := p
		if !filepath.IsAbs(abs) {
			abs = filepath.Join(ix.root, abs)
		}
		if !pathutil.IsWithinRoot(ix.root, abs) {
			return nil, &domain.ValidationError{Field: "path", Value: p, Constraint: "within working root", Message: "path lies outside the working root"}
		}

		info, err := os.Stat(abs)
		if err != nil {
			return nil, &domain.FilesystemError{Op: "stat", Path: abs, Err: err}
		}

		if !info.IsDir() {
			add(abs)
			continue
		}

		if !recursive {
			add(abs)
			continue
		}

		rootDepth := strings.Count(filepath.ToSlash(abs), "/")
		err = filepath.WalkDir(abs, func(walked string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, relErr := pathutil.ToRelSlash(ix.root, walked)
			if relErr == nil && pathutil.IsDdbPath(rel) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if relErr == nil && rel == "." {
				// The working root itself is never an indexed entry.
				return nil
			}
			if maxDepth > 0 {
				depth := strings.Count(filepath.ToSlash(walked), "/") - rootDepth
				if depth > maxDepth {
					if d.IsDir() {
						return filepath.SkipDir
					}
					return nil
				}
			}
			add(walked)
			return nil
		})
		if err != nil {
			return nil, &domain.FilesystemError{Op: "walk", Path: abs, Err: err}
		}
	}

	return ix.withMaterializedAncestors(result), nil
}

// withMaterializedAncestors appends every proper ancestor directory (up to
// the working root) of each collected path so add() always restores
// invariant 2, then orders directories before their children.
func (ix *Index) withMaterializedAncestors(paths []string) []string {
	seen := make(map[string]bool, len(paths))
	for _, p := range paths {
		seen[p] = true
	}

	var ancestors []string
	for _, p := range paths {
		rel, err := pathutil.ToRelSlash(ix.root, p)
		if err != nil {
			continue
		}
		for _, prefix := range domain.ProperPrefixes(rel) {
			abs := filepath.Join(ix.root, filepath.FromSlash(prefix))
			if !seen[abs] {
				seen[abs] = true
				ancestors = append(ancestors, abs)
			}
		}
	}

	combined := append(ancestors, paths...)
	return combined
}

// checkUpdate reconciles a stored entry against the filesystem.
func (ix *Index) checkUpdate(absPath string, existing domain.Entry) (domain.ChangeStatus, domain.Entry, error) {
	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.Deleted, domain.Entry{}, nil
		}
		return domain.NotModified, domain.Entry{}, &domain.FilesystemError{Op: "stat", Path: absPath, Err: err}
	}

	if existing.IsDirectory() || info.IsDir() {
		return domain.NotModified, existing, nil
	}

	if info.ModTime().Unix() == existing.MTime {
		return domain.NotModified, existing, nil
	}

	newEntry, err := ix.parser.Parse(absPath, true)
	if err != nil {
		return domain.NotModified, domain.Entry{}, err
	}

	if newEntry.Hash == existing.Hash {
		// Content unchanged but mtime advanced (e.g. a touch); keep the
		// refreshed mtime so the next check doesn't re-hash for nothing.
		return domain.NotModified, newEntry, nil
	}

	return domain.Modified, newEntry, nil
}

// createMissingFolders restores invariant 2 by inserting a synthetic
// directory entry for every referenced-but-absent parent path.
func (ix *Index) createMissingFolders(ctx context.Context) error {
	all, err := ix.store.AllEntries(ctx)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	known := make(map[string]bool, len(all))
	for _, e := range all {
		known[e.Path] = true
	}

	var missing []string
	for _, e := range all {
		parent := domain.ParentPath(e.Path)
		if parent == "" || known[parent] {
			continue
		}
		known[parent] = true
		missing = append(missing, parent)
	}

	for _, path := range missing {
		exists, err := ix.store.HasDirectoryAt(ctx, path)
		if err != nil {
			return err
		}
		if exists {
			continue
		}
		if err := ix.store.Insert(ctx, domain.NewDirectoryEntry(path, now)); err != nil {
			return err
		}
	}

	return nil
}

func hasDotSegment(relPath string) bool {
	for _, seg := range strings.Split(relPath, "/") {
		if seg == "." || seg == ".." {
			return true
		}
	}
	return false
}

var errCanceledOp = domain.ErrCanceled
