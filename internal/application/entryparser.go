package application

import (
	"log/slog"

	"github.com/dronedb/ddb/internal/adapters/pathutil"
	"github.com/dronedb/ddb/internal/domain"
	"github.com/dronedb/ddb/internal/ports/output"
)

// EntryParser builds a domain.Entry for a single filesystem path, driving
// classification, optional hashing, and extraction.
type EntryParser struct {
	root       string
	classifier output.Classifier
	extractors []output.Extractor
	hasher     output.Hasher
	logger     *slog.Logger
}

// NewEntryParser constructs an EntryParser rooted at root.
func NewEntryParser(root string, classifier output.Classifier, extractors []output.Extractor, hasher output.Hasher, logger *slog.Logger) *EntryParser {
	return &EntryParser{
		root:       root,
		classifier: classifier,
		extractors: extractors,
		hasher:     hasher,
		logger:     logger,
	}
}

// Parse computes the relative path, stats the file, classifies it, hashes
// it when computeHash is set, and extracts metadata with the first
// extractor that handles its type. Directories are returned as bare
// directory entries with neither step. absPath must exist.
func (p *EntryParser) Parse(absPath string, computeHash bool) (domain.Entry, error) {
	relPath, err := pathutil.ToRelSlash(p.root, absPath)
	if err != nil {
		return domain.Entry{}, err
	}
	if pathutil.HasBackslashSegment(relPath) {
		return domain.Entry{}, &domain.ValidationError{
			Field:      "path",
			Value:      relPath,
			Constraint: "no backslash segment",
			Message:    "path contains a backslash segment and is filtered from the index",
		}
	}

	mtime, size, isDir, err := pathutil.Stat(absPath)
	if err != nil {
		return domain.Entry{}, err
	}

	if isDir {
		return domain.NewDirectoryEntry(relPath, mtime), nil
	}

	entryType := p.classifier.Classify(absPath)

	entry := domain.Entry{
		Path:  relPath,
		Type:  entryType,
		MTime: mtime,
		Size:  size,
		Depth: domain.PathDepth(relPath),
	}

	if computeHash {
		hash, err := p.hasher.HashFile(absPath)
		if err != nil {
			return domain.Entry{}, err
		}
		entry.Hash = hash
	}

	for _, ex := range p.extractors {
		if !ex.Handles(entryType) {
			continue
		}
		result, err := ex.Extract(absPath, entryType)
		if err != nil {
			p.logger.Warn("metadata extraction failed, keeping minimal metadata",
				"path", relPath, "type", entryType.String(), "error", err)
			break
		}
		entry.Meta = result.Meta
		entry.PointGeom = result.PointGeom
		entry.PolygonGeom = result.PolygonGeom
		break
	}

	return entry, nil
}
