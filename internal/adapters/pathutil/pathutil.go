// Package pathutil implements the relative/absolute path algebra used
// throughout the indexing engine: forward-slash normalization, depth,
// containment checks, and the backslash-segment rejection rule from.
package pathutil

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/dronedb/ddb/internal/domain"
)

// DdbDir is the marker directory name identifying a working tree.
const DdbDir = ".ddb"

// ToRelSlash makes absPath relative to root and normalizes it to use '/'
// as the separator, matching the stored path encoding.
func ToRelSlash(root, absPath string) (string, error) {
	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		return "", &domain.FilesystemError{Op: "relPath", Path: absPath, Err: err}
	}
	rel = filepath.ToSlash(rel)
	if strings.HasPrefix(rel, "../") || rel == ".." {
		return "", &domain.FilesystemError{Op: "relPath", Path: absPath, Err: os.ErrInvalid}
	}
	return rel, nil
}

// HasBackslashSegment reports whether any path component contains a
// literal backslash — the rule that silently filters entries produced by
// foreign-OS archives on add, and is fatal for move endpoints.
func HasBackslashSegment(relPath string) bool {
	return strings.Contains(relPath, `\`)
}

// IsWithinRoot reports whether absPath is root itself or a descendant of
// root.
func IsWithinRoot(root, absPath string) bool {
	rel, err := filepath.Rel(root, absPath)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return rel != ".." && !strings.HasPrefix(rel, "../")
}

// IsDdbPath reports whether relPath is the marker directory itself or
// falls under it — paths inside `.ddb/` are pruned from all traversals and
// never indexed.
func IsDdbPath(relPath string) bool {
	return relPath == DdbDir || strings.HasPrefix(relPath, DdbDir+"/")
}

// Parent returns the parent directory's relative path (domain.ParentPath
// alias, kept here so callers working in absolute-path space don't need to
// import internal/domain just for this).
func Parent(relPath string) string {
	return domain.ParentPath(relPath)
}

// Stat reads mtime (unix seconds) and size for absPath.
func Stat(absPath string) (mtime int64, size int64, isDir bool, err error) {
	info, statErr := os.Stat(absPath)
	if statErr != nil {
		return 0, 0, false, &domain.FilesystemError{Op: "stat", Path: absPath, Err: statErr}
	}
	return info.ModTime().Unix(), info.Size(), info.IsDir(), nil
}

// SafeRemove removes path if it exists, treating a missing path as
// success.
func SafeRemove(path string) error {
	err := os.RemoveAll(path)
	if err != nil && !os.IsNotExist(err) {
		return &domain.FilesystemError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// HasSuffixFold reports whether name ends with suffix, case-insensitively,
// used by the classifier's extension tables.
func HasSuffixFold(name, suffix string) bool {
	return len(name) >= len(suffix) && strings.EqualFold(name[len(name)-len(suffix):], suffix)
}

// Ext returns the lowercase extension of name without the leading dot, or
// "" if name has none.
func Ext(name string) string {
	e := filepath.Ext(name)
	if e == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(e, "."))
}
