package application

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"github.com/dronedb/ddb/internal/domain"
	"github.com/dronedb/ddb/internal/ports/output"
)

// memStore is an in-memory output.IndexStore used to exercise Index without
// a real SQLite handle.
type memStore struct {
	rows      map[string]domain.Entry
	lastEdit  int64
	inTx      bool
	insertErr error
}

func newMemStore() *memStore {
	return &memStore{rows: make(map[string]domain.Entry)}
}

func (m *memStore) Lookup(_ context.Context, path string) (*domain.Entry, error) {
	if e, ok := m.rows[path]; ok {
		cp := e
		return &cp, nil
	}
	return nil, nil
}

func (m *memStore) Insert(_ context.Context, e domain.Entry) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	if _, ok := m.rows[e.Path]; ok {
		return domain.ErrInvalidInput
	}
	m.rows[e.Path] = e
	return nil
}

func (m *memStore) Update(_ context.Context, e domain.Entry) error {
	m.rows[e.Path] = e
	return nil
}

func (m *memStore) Delete(_ context.Context, path string) error {
	delete(m.rows, path)
	return nil
}

func (m *memStore) Rename(_ context.Context, oldPath, newPath string) error {
	e, ok := m.rows[oldPath]
	if !ok {
		return domain.ErrEntryNotFound
	}
	delete(m.rows, oldPath)
	e.Path = newPath
	e.Depth = domain.PathDepth(newPath)
	m.rows[newPath] = e
	return nil
}

func (m *memStore) Match(_ context.Context, likePattern string) ([]domain.Entry, error) {
	var out []domain.Entry
	for _, e := range m.rows {
		if likeMatch(e.Path, likePattern) {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (m *memStore) ListChildren(_ context.Context, path string) ([]domain.Entry, error) {
	var out []domain.Entry
	for _, e := range m.rows {
		if e.Path == path || strings.HasPrefix(e.Path, path+"/") {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out, nil
}

func (m *memStore) AllEntries(_ context.Context) ([]domain.Entry, error) {
	var out []domain.Entry
	for _, e := range m.rows {
		out = append(out, e)
	}
	sortEntries(out)
	return out, nil
}

func (m *memStore) HasDirectoryAt(_ context.Context, path string) (bool, error) {
	e, ok := m.rows[path]
	return ok && e.IsDirectory(), nil
}

func (m *memStore) LastEditTime(_ context.Context) (int64, error) {
	return m.lastEdit, nil
}

func (m *memStore) SetLastEditTime(_ context.Context, unixSeconds int64) error {
	m.lastEdit = unixSeconds
	return nil
}

func (m *memStore) WithExclusiveTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.inTx = true
	defer func() { m.inTx = false }()
	snapshot := make(map[string]domain.Entry, len(m.rows))
	for k, v := range m.rows {
		snapshot[k] = v
	}
	if err := fn(ctx); err != nil {
		m.rows = snapshot
		return err
	}
	return nil
}

func (m *memStore) Close() error { return nil }

func sortEntries(entries []domain.Entry) {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
}

// likeMatch interprets a '/'-escaped SQL LIKE pattern ('%'=any run, '_'=any
// char, '/' escapes the following character) against a plain string,
// matching the semantics SQLite's LIKE ... ESCAPE '/' provides.
func likeMatch(s, pattern string) bool {
	var sb strings.Builder
	sb.WriteByte('^')
	i := 0
	for i < len(pattern) {
		c := pattern[i]
		switch {
		case c == '/' && i+1 < len(pattern):
			sb.WriteString(regexpQuote(pattern[i+1]))
			i += 2
		case c == '%':
			sb.WriteString(".*")
			i++
		case c == '_':
			sb.WriteString(".")
			i++
		default:
			sb.WriteString(regexpQuote(c))
			i++
		}
	}
	sb.WriteByte('$')
	matched, err := regexp.MatchString(sb.String(), s)
	return err == nil && matched
}

func regexpQuote(c byte) string {
	special := ".^$*+?()[]{}|\\"
	if strings.IndexByte(special, c) >= 0 {
		return "\\" + string(c)
	}
	return string(c)
}

// mockClassifier implements output.Classifier for testing.
type mockClassifier struct {
	byPath map[string]domain.EntryType
}

func (c *mockClassifier) Classify(absPath string) domain.EntryType {
	if t, ok := c.byPath[absPath]; ok {
		return t
	}
	return domain.Generic
}

// mockHasher implements output.Hasher for testing.
type mockHasher struct {
	byPath map[string]string
}

func (h *mockHasher) HashFile(absPath string) (string, error) {
	if v, ok := h.byPath[absPath]; ok {
		return v, nil
	}
	return "deadbeef", nil
}

// mockExtractor implements output.Extractor for testing.
type mockExtractor struct {
	handledType domain.EntryType
	meta        domain.Metadata
	point       *domain.Point
	polygon     *domain.Polygon
	err         error
}

func (e *mockExtractor) Handles(t domain.EntryType) bool {
	return t == e.handledType
}

func (e *mockExtractor) Extract(_ string, _ domain.EntryType) (output.ExtractResult, error) {
	return output.ExtractResult{Meta: e.meta, PointGeom: e.point, PolygonGeom: e.polygon}, e.err
}

// mockInvalidator implements output.ArtifactInvalidator for testing.
type mockInvalidator struct {
	invalidated []string
}

func (i *mockInvalidator) Invalidate(_ context.Context, hash string) error {
	i.invalidated = append(i.invalidated, hash)
	return nil
}
