package cli

// Test Plan for the remaining commands:
// - extract prints one document per file, or the combined document
// - extract reports parse failures after printing the good files
// - encode reads files and stdin and matches the diagram encoder
// - dump writes the code and declarations files named after the root
// - cache clean empties an existing cache and tolerates a missing one
// - newLogger maps verbose/quiet to log levels
// - writeSummary lists failures

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvp-joe/classmap/internal/config"
	"github.com/mvp-joe/classmap/internal/diagram"
	"github.com/mvp-joe/classmap/internal/pipeline"
	"github.com/mvp-joe/classmap/internal/storage"
)

func TestExtract(t *testing.T) {
	t.Parallel()

	root := writeSources(t, map[string]string{
		"animal.py": animalSource,
		"dog.py":    dogSource,
	})
	paths := []string{filepath.Join(root, "animal.py"), filepath.Join(root, "dog.py")}

	var out bytes.Buffer
	require.NoError(t, runExtract(context.Background(), paths, false, &out, testLogger()))
	assert.Equal(t, 2, strings.Count(out.String(), "@startuml"))
	assert.Less(t, strings.Index(out.String(), "class Animal"), strings.Index(out.String(), "class Dog"))

	out.Reset()
	require.NoError(t, runExtract(context.Background(), paths, true, &out, testLogger()))
	assert.Equal(t, 1, strings.Count(out.String(), "@startuml"))
	assert.Contains(t, out.String(), diagram.ProvenanceTag(paths[1]))
}

func TestExtract_Failures(t *testing.T) {
	t.Parallel()

	root := writeSources(t, map[string]string{
		"bad.py": "class (:\n",
		"dog.py": dogSource,
	})

	var out bytes.Buffer
	err := runExtract(context.Background(), []string{filepath.Join(root, "bad.py"), filepath.Join(root, "dog.py")}, false, &out, testLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrRunHadFailures))
	assert.Contains(t, out.String(), "class Dog")

	err = runExtract(context.Background(), []string{filepath.Join(root, "missing.py")}, false, &out, testLogger())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestEncode(t *testing.T) {
	t.Parallel()

	doc := "@startuml\nclass Dog {\n}\n@enduml\n"
	want, err := diagram.Encode(doc)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runEncode("-", strings.NewReader(doc), &out, ""))
	assert.Equal(t, want+"\n", out.String())

	path := filepath.Join(t.TempDir(), "dog.puml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	out.Reset()
	require.NoError(t, runEncode(path, nil, &out, "http://example.com/plantuml/svg/"))
	assert.Equal(t, "http://example.com/plantuml/svg/"+want+"\n", out.String())

	assert.Error(t, runEncode(filepath.Join(t.TempDir(), "missing.puml"), nil, &out, ""))
}

func TestDump(t *testing.T) {
	t.Parallel()

	root := writeSources(t, map[string]string{
		"zoo/animal.py": animalSource,
		"zoo/empty.py":  "",
		"zoo/dog.py":    dogSource + "\n\ndef adopt(name) -> Dog:\n    return Dog()\n",
	})
	outDir := t.TempDir()

	codePath, declsPath, err := runDump(context.Background(), root, config.Default(), outDir, testLogger())
	require.NoError(t, err)

	name := filepath.Base(root)
	assert.Equal(t, filepath.Join(outDir, name+"_code.txt"), codePath)
	assert.Equal(t, filepath.Join(outDir, name+"_declarations.txt"), declsPath)

	code, err := os.ReadFile(codePath)
	require.NoError(t, err)
	assert.Contains(t, string(code), "# File: zoo/animal.py\n"+animalSource)
	assert.NotContains(t, string(code), "zoo/empty.py")
	assert.Equal(t, 2, strings.Count(string(code), strings.Repeat("=", 80)))

	decls, err := os.ReadFile(declsPath)
	require.NoError(t, err)
	assert.Contains(t, string(decls), "class Animal\n")
	assert.Contains(t, string(decls), "class Dog(Animal)\n")
	assert.Contains(t, string(decls), "def adopt(name) -> Dog\n  pass\n")
}

func TestCacheClean(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache", "renders.db")

	var out bytes.Buffer
	require.NoError(t, runCacheClean(ctx, path, &out))
	assert.Contains(t, out.String(), "No render cache found")

	cache, err := storage.Open(path)
	require.NoError(t, err)
	require.NoError(t, cache.Put(ctx, "tok", "png", []byte("img")))
	require.NoError(t, cache.Close())

	out.Reset()
	require.NoError(t, runCacheClean(ctx, path, &out))
	assert.Contains(t, out.String(), "Removed 1 cached artifacts")

	cache, err = storage.Open(path)
	require.NoError(t, err)
	defer cache.Close()
	_, hit, err := cache.Get(ctx, "tok", "png")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestNewLogger(t *testing.T) {
	t.Parallel()

	assert.Equal(t, logrus.WarnLevel, newLogger(&bytes.Buffer{}, false, false).GetLevel())
	assert.Equal(t, logrus.DebugLevel, newLogger(&bytes.Buffer{}, true, false).GetLevel())
	assert.Equal(t, logrus.ErrorLevel, newLogger(&bytes.Buffer{}, false, true).GetLevel())
}

func TestWriteSummary(t *testing.T) {
	t.Parallel()

	result := &pipeline.Result{
		Files:   []pipeline.FileResult{{Path: "dog.py"}},
		Skipped: []string{"notes.txt"},
		Diagnostics: []pipeline.Diagnostic{
			{Subject: "dog.py", Outcome: pipeline.OutcomeOK},
			{Subject: "bad.py", Outcome: pipeline.OutcomeFailed, Message: "syntax error"},
			{Subject: pipeline.CombinedSubject, Outcome: pipeline.OutcomeSkipped},
		},
	}

	var out bytes.Buffer
	writeSummary(&out, result)

	assert.Contains(t, out.String(), "0 classes from 1 files")
	assert.Contains(t, out.String(), "Skipped:  1 unsupported files")
	assert.Contains(t, out.String(), "bad.py: syntax error")
	assert.Contains(t, out.String(), "render skipped")
}
