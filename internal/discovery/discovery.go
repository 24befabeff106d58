// Package discovery walks a directory tree and collects the source files a
// run should consider, in a deterministic lexical order.
package discovery

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/mvp-joe/classmap/internal/pipeline"
)

// AlwaysSkipped are directory names never descended into, whatever the
// ignore patterns say.
var AlwaysSkipped = []string{".git", "__pycache__", ".ipynb_checkpoints", ".classmap"}

// compiledPattern holds both the pattern string and compiled glob
type compiledPattern struct {
	pattern string
	glob    glob.Glob
}

// Discoverer matches files under a root against include and ignore globs.
type Discoverer struct {
	root    string
	include []compiledPattern
	ignore  []compiledPattern
}

// New compiles the patterns. An empty include list accepts every file; the
// driver skips files no extractor claims.
func New(root string, include, ignore []string) (*Discoverer, error) {
	d := &Discoverer{root: root}

	var err error
	if d.include, err = compilePatterns(include); err != nil {
		return nil, err
	}
	if d.ignore, err = compilePatterns(ignore); err != nil {
		return nil, err
	}
	return d, nil
}

func compilePatterns(patterns []string) ([]compiledPattern, error) {
	compiled := make([]compiledPattern, 0, len(patterns))
	for _, pattern := range patterns {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		compiled = append(compiled, compiledPattern{pattern: pattern, glob: g})
	}
	return compiled, nil
}

// Discover is shorthand for New followed by Files.
func Discover(root string, include, ignore []string) ([]pipeline.SourceFile, error) {
	d, err := New(root, include, ignore)
	if err != nil {
		return nil, err
	}
	return d.Files()
}

// Paths returns the matching paths relative to the root, slash separated,
// in lexical walk order.
func (d *Discoverer) Paths() ([]string, error) {
	paths := []string{}

	err := filepath.WalkDir(d.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		relPath, err := filepath.Rel(d.root, path)
		if err != nil {
			return err
		}
		relPath = filepath.ToSlash(relPath)

		if entry.IsDir() {
			if relPath != "." && d.SkipsDir(entry.Name(), relPath) {
				return filepath.SkipDir
			}
			return nil
		}

		if !entry.Type().IsRegular() {
			return nil
		}
		if d.Match(relPath) {
			paths = append(paths, relPath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", d.root, err)
	}

	return paths, nil
}

// Files reads every matching file. Empty files are kept.
func (d *Discoverer) Files() ([]pipeline.SourceFile, error) {
	paths, err := d.Paths()
	if err != nil {
		return nil, err
	}

	files := make([]pipeline.SourceFile, 0, len(paths))
	for _, relPath := range paths {
		content, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(relPath)))
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", relPath, err)
		}
		files = append(files, pipeline.SourceFile{Path: relPath, Content: content})
	}
	return files, nil
}

// Match reports whether a root-relative, slash separated path would be
// discovered. Directory components are checked against the skip rules too.
func (d *Discoverer) Match(relPath string) bool {
	dirs := strings.Split(relPath, "/")
	for i := range dirs[:len(dirs)-1] {
		if d.SkipsDir(dirs[i], strings.Join(dirs[:i+1], "/")) {
			return false
		}
	}

	if d.shouldIgnore(relPath) {
		return false
	}
	if len(d.include) == 0 {
		return true
	}
	return matchesAnyPattern(relPath, d.include)
}

// SkipsDir reports whether a directory, given by base name and root-relative
// slash separated path, is pruned from the walk.
func (d *Discoverer) SkipsDir(name, relPath string) bool {
	for _, skipped := range AlwaysSkipped {
		if name == skipped {
			return true
		}
	}
	return d.shouldIgnore(relPath)
}

// Root returns the directory the discoverer walks.
func (d *Discoverer) Root() string {
	return d.root
}

// shouldIgnore checks if a path matches any ignore pattern.
func (d *Discoverer) shouldIgnore(relPath string) bool {
	if matchesAnyPattern(relPath, d.ignore) {
		return true
	}

	// "node_modules" should match pattern "node_modules/**"
	return matchesAnyPattern(relPath+"/**", d.ignore)
}

// matchesAnyPattern checks if a path matches any of the given patterns.
func matchesAnyPattern(path string, patterns []compiledPattern) bool {
	for _, cp := range patterns {
		if cp.glob.Match(path) {
			return true
		}
	}

	// Root-level files: "**/*.py" should match "setup.py" as well as "pkg/a.py".
	if !strings.Contains(path, "/") {
		for _, cp := range patterns {
			if !strings.HasPrefix(cp.pattern, "**/") {
				continue
			}
			simplified, err := glob.Compile(strings.TrimPrefix(cp.pattern, "**/"), '/')
			if err == nil && simplified.Match(path) {
				return true
			}
		}
	}

	return false
}
