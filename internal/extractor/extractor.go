// Package extractor turns source files into the language-neutral class model.
//
// Each supported language has one Extractor implementation. Most are backed by
// a tree-sitter grammar and reject syntactically invalid input with a
// *ParseError; C# uses a line-oriented heuristic scanner that never fails.
// A Registry dispatches files to extractors by extension.
package extractor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mvp-joe/classmap/internal/model"
)

// ErrUnsupportedFile indicates that no extractor handles a file's extension.
var ErrUnsupportedFile = errors.New("unsupported file type")

// Extractor extracts class-like entities from the full text of one source file.
// Implementations must be safe for concurrent use.
type Extractor interface {
	// Language returns the language name, e.g. "python".
	Language() string

	// Extensions returns the file extensions handled, with leading dot.
	Extensions() []string

	// Extract returns the entities declared in source, in declaration order.
	// path is used for diagnostics only.
	Extract(ctx context.Context, path string, source []byte) ([]model.ClassEntity, error)
}

// FunctionExtractor is implemented by extractors that can also list the
// module-level functions of a file.
type FunctionExtractor interface {
	ExtractFunctions(ctx context.Context, path string, source []byte) ([]model.MethodEntity, error)
}

// ParseError reports source text that could not be structurally interpreted.
type ParseError struct {
	Path    string
	Line    int // 1-indexed, 0 if unknown
	Column  int // 1-indexed, 0 if unknown
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Registry maps file extensions to extractors.
type Registry struct {
	byExt map[string]Extractor
}

// NewRegistry creates a registry containing the given extractors.
// Later extractors win when extensions overlap.
func NewRegistry(extractors ...Extractor) *Registry {
	r := &Registry{byExt: make(map[string]Extractor)}
	for _, e := range extractors {
		r.Register(e)
	}
	return r
}

// DefaultRegistry returns a registry with every built-in extractor.
func DefaultRegistry() *Registry {
	return NewRegistry(
		NewPythonExtractor(),
		NewJavaExtractor(),
		NewGoExtractor(),
		NewTypeScriptExtractor(),
		NewTSXExtractor(),
		NewPHPExtractor(),
		NewRubyExtractor(),
		NewRustExtractor(),
		NewCExtractor(),
		NewCSharpExtractor(),
	)
}

// Register adds an extractor for all of its extensions.
func (r *Registry) Register(e Extractor) {
	for _, ext := range e.Extensions() {
		r.byExt[strings.ToLower(ext)] = e
	}
}

// Lookup returns the extractor for path's extension.
// Returns an error wrapping ErrUnsupportedFile if none matches.
func (r *Registry) Lookup(path string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if e, ok := r.byExt[ext]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, path)
}

// Supports reports whether some extractor handles path.
func (r *Registry) Supports(path string) bool {
	_, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return ok
}

// Extensions returns all registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// isBlank reports whether source contains only whitespace.
func isBlank(source []byte) bool {
	return len(strings.TrimSpace(string(source))) == 0
}
