package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mvp-joe/classmap/internal/hierarchy"
	"github.com/mvp-joe/classmap/internal/pipeline"
)

// Report is the YAML record of one generate run.
type Report struct {
	RunID       string                `yaml:"run_id"`
	GeneratedAt time.Time             `yaml:"generated_at"`
	Root        string                `yaml:"root"`
	Files       int                   `yaml:"files"`
	Classes     int                   `yaml:"classes"`
	Skipped     []string              `yaml:"skipped,omitempty"`
	RenderURL   string                `yaml:"render_url,omitempty"`
	Outputs     []string              `yaml:"outputs,omitempty"`
	Diagnostics []pipeline.Diagnostic `yaml:"diagnostics"`
	Hierarchy   *hierarchy.Summary    `yaml:"hierarchy,omitempty"`
	DurationMS  int64                 `yaml:"duration_ms"`
}

// NewReport builds a report for result. renderURL may be empty.
func NewReport(root string, result *pipeline.Result, renderURL string, outputs []string) *Report {
	return &Report{
		RunID:       result.RunID,
		GeneratedAt: time.Now().UTC().Truncate(time.Second),
		Root:        root,
		Files:       len(result.Files),
		Classes:     len(result.Classes()),
		Skipped:     result.Skipped,
		RenderURL:   renderURL,
		Outputs:     outputs,
		Diagnostics: result.Diagnostics,
		Hierarchy:   result.Hierarchy,
		DurationMS:  result.Duration.Milliseconds(),
	}
}

// WriteFile writes the report as YAML.
func (r *Report) WriteFile(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// outputWriter places generate outputs under one directory.
type outputWriter struct {
	dir    string
	name   string
	format string
}

func (o *outputWriter) path(suffix string) string {
	return filepath.Join(o.dir, o.name+suffix)
}

// writeResult writes the combined document, the rendered artifact and,
// when perFile is set, one document per extracted file. Returns the paths
// written, in that order.
func (o *outputWriter) writeResult(result *pipeline.Result, perFile bool) ([]string, error) {
	if err := os.MkdirAll(o.dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	write := func(path string, data []byte) error {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
		return nil
	}

	if result.Combined != "" {
		if err := write(o.path(".puml"), []byte(result.Combined)); err != nil {
			return written, err
		}
	}
	if len(result.Artifact) > 0 {
		if err := write(o.path("."+o.format), result.Artifact); err != nil {
			return written, err
		}
	}

	if perFile {
		for _, file := range result.Files {
			if err := write(o.perFilePath(file.Path), []byte(file.Document)); err != nil {
				return written, err
			}
		}
	}

	return written, nil
}

// perFilePath mirrors a source path under <dir>/files with a .puml suffix.
// Paths escaping the root are flattened.
func (o *outputWriter) perFilePath(source string) string {
	rel := filepath.ToSlash(filepath.Clean(source))
	rel = strings.TrimLeft(strings.ReplaceAll(rel, "../", ""), "/")
	return filepath.Join(o.dir, "files", filepath.FromSlash(rel)+".puml")
}
