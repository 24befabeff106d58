package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for Registry:
// - Lookup dispatches by extension, case-insensitively
// - Unknown extensions wrap ErrUnsupportedFile
// - Extensions lists every registered extension, sorted
// - Every built-in extractor returns nothing for whitespace-only input
// - ParseError formats with and without a position

func TestRegistry_Lookup(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()

	tests := []struct {
		path string
		lang string
	}{
		{"pkg/models.py", "python"},
		{"stubs/models.pyi", "python"},
		{"src/Main.java", "java"},
		{"src/Main.JAVA", "java"},
		{"web/app.ts", "typescript"},
		{"web/App.tsx", "tsx"},
		{"main.go", "go"},
		{"index.php", "php"},
		{"lib/zoo.rb", "ruby"},
		{"src/lib.rs", "rust"},
		{"include/list.h", "c"},
		{"Program.cs", "csharp"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()

			e, err := reg.Lookup(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.lang, e.Language())
			assert.True(t, reg.Supports(tt.path))
		})
	}
}

func TestRegistry_Unsupported(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()
	for _, path := range []string{"README.md", "Makefile", "data.json"} {
		_, err := reg.Lookup(path)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnsupportedFile))
		assert.False(t, reg.Supports(path))
	}
}

func TestRegistry_Extensions(t *testing.T) {
	t.Parallel()

	reg := NewRegistry(NewPythonExtractor(), NewCSharpExtractor())
	assert.Equal(t, []string{".cs", ".py", ".pyi"}, reg.Extensions())
}

func TestExtractors_BlankInput(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()
	for _, ext := range reg.Extensions() {
		e, err := reg.Lookup("blank" + ext)
		require.NoError(t, err)

		classes, err := e.Extract(context.Background(), "blank"+ext, []byte("  \n\t\n"))
		require.NoError(t, err, ext)
		assert.Empty(t, classes, ext)
	}
}

func TestParseError_Error(t *testing.T) {
	t.Parallel()

	withPos := &ParseError{Path: "a.py", Line: 3, Column: 7, Message: "missing )"}
	assert.Equal(t, "a.py:3:7: missing )", withPos.Error())

	noPos := &ParseError{Path: "a.py", Message: "syntax error"}
	assert.Equal(t, "a.py: syntax error", noPos.Error())
}
