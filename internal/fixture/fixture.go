// Package fixture loads `*.sushi.json` parse-tree fixture files from
// disk — a stand-in for the real external parser (§6 "the core accepts
// an already-built parse tree; producing one from source text is out of
// scope"). Each fixture is a JSON encoding of one internal/ast.Unit,
// letting tests and the CLI drive the pipeline without a Sushi front
// end.
//
// Files are matched with a doublestar glob over a single sequential
// walk, rather than a worker-pool traversal: fixture sets are small, and
// §5 requires every unit to enter the pipeline in a fixed, deterministic
// order, which a pool of concurrent workers would have to re-sort anyway.
package fixture

import (
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/oxhq/sushic/internal/ast"
)

// Load walks root and parses every file matching pattern (e.g.
// "**/*.sushi.json") as a JSON-encoded internal/ast.Unit, returning them
// sorted by path for a deterministic, reproducible loader order.
func Load(root, pattern string) ([]*ast.Unit, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			return fmt.Errorf("fixture: bad glob pattern %q: %w", pattern, err)
		}
		if matched {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fixture: walking %s: %w", root, err)
	}
	sort.Strings(paths)

	units := make([]*ast.Unit, 0, len(paths))
	for _, p := range paths {
		u, err := loadUnit(p)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, nil
}

func loadUnit(path string) (*ast.Unit, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("fixture: reading %s: %w", path, err)
	}
	var u ast.Unit
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("fixture: decoding %s: %w", path, err)
	}
	if u.Path == "" {
		u.Path = canonicalUnitPath(path)
	}
	return &u, nil
}

// canonicalUnitPath derives a unit's logical path from its fixture file
// name when the fixture omits one, stripping only the trailing ".json"
// (so "a.sushi.json" becomes "a.sushi").
func canonicalUnitPath(fixturePath string) string {
	base := filepath.Base(fixturePath)
	base = strings.TrimSuffix(base, ".json")
	return base
}

// Source reads the raw bytes backing a previously-loaded fixture, for
// internal/pipeline.UnitSource implementations that need the original
// text alongside the decoded unit (C9's content hash, §4.9).
type Source struct {
	units    []*ast.Unit
	fixtures map[string]string // unit path -> fixture file path
}

// LoadSource loads every fixture matching pattern under root and
// returns a ready-to-use internal/pipeline.UnitSource.
func LoadSource(root, pattern string) (*Source, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		matched, err := doublestar.Match(pattern, rel)
		if err != nil {
			return fmt.Errorf("fixture: bad glob pattern %q: %w", pattern, err)
		}
		if matched {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fixture: walking %s: %w", root, err)
	}
	sort.Strings(paths)

	src := &Source{fixtures: map[string]string{}}
	for _, p := range paths {
		u, err := loadUnit(p)
		if err != nil {
			return nil, err
		}
		src.units = append(src.units, u)
		src.fixtures[u.Path] = p
	}
	return src, nil
}

// Units implements internal/pipeline.UnitSource.
func (s *Source) Units() []*ast.Unit { return s.units }

// Source implements internal/pipeline.UnitSource, re-reading the
// fixture file's raw bytes for unit path.
func (s *Source) Source(path string) []byte {
	fp, ok := s.fixtures[path]
	if !ok {
		return nil
	}
	data, err := os.ReadFile(fp)
	if err != nil {
		return nil
	}
	return data
}
