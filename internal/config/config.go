// Package config loads classmap settings.
//
// Values are layered, highest priority first:
//  1. Environment variables (CLASSMAP_*, nested keys joined with "_")
//  2. Project config (<root>/.classmap/config.yml)
//  3. User config (~/.classmap/config.yml)
//  4. Built-in defaults
//
// Command line flags are applied on top by the CLI.
package config

import (
	"strings"

	"github.com/mvp-joe/classmap/internal/extractor"
	"github.com/mvp-joe/classmap/internal/plantuml"
)

// Config represents the complete classmap configuration.
type Config struct {
	Paths  PathsConfig  `yaml:"paths" mapstructure:"paths"`
	Render RenderConfig `yaml:"render" mapstructure:"render"`
	Run    RunConfig    `yaml:"run" mapstructure:"run"`
	Cache  CacheConfig  `yaml:"cache" mapstructure:"cache"`
	Output OutputConfig `yaml:"output" mapstructure:"output"`
}

// PathsConfig defines which files are discovered and which are ignored.
type PathsConfig struct {
	Include []string `yaml:"include" mapstructure:"include"` // glob patterns for source files
	Ignore  []string `yaml:"ignore" mapstructure:"ignore"`   // glob patterns to ignore
}

// RenderConfig configures the remote PlantUML server.
type RenderConfig struct {
	ServerURL      string `yaml:"server_url" mapstructure:"server_url"`
	Format         string `yaml:"format" mapstructure:"format"`                   // png, svg, txt, ...
	TimeoutSeconds int    `yaml:"timeout_seconds" mapstructure:"timeout_seconds"` // whole request, including body
	Disabled       bool   `yaml:"disabled" mapstructure:"disabled"`               // encode only
}

// RunConfig tunes the pipeline driver.
type RunConfig struct {
	Workers  int `yaml:"workers" mapstructure:"workers"`     // 1 is sequential
	MemoSize int `yaml:"memo_size" mapstructure:"memo_size"` // extraction memo entries, negative disables
}

// CacheConfig controls the on-disk render cache.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Location string `yaml:"location" mapstructure:"location"` // empty means ~/.classmap/cache/renders.db
}

// OutputConfig controls what generate writes.
type OutputConfig struct {
	Dir     string `yaml:"dir" mapstructure:"dir"`
	Name    string `yaml:"name" mapstructure:"name"` // base name of the combined document and artifact
	PerFile bool   `yaml:"per_file" mapstructure:"per_file"`
	Report  bool   `yaml:"report" mapstructure:"report"`
}

// SupportedFormats lists the output formats the PlantUML server accepts.
var SupportedFormats = []string{"png", "svg", "txt", "utxt", "eps", "pdf", "latex"}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Paths: PathsConfig{
			Include: DefaultIncludePatterns(),
			Ignore: []string{
				"node_modules/**",
				"vendor/**",
				"dist/**",
				"build/**",
				"target/**",
				".venv/**",
				"venv/**",
			},
		},
		Render: RenderConfig{
			ServerURL:      plantuml.DefaultBaseURL,
			Format:         plantuml.DefaultFormat,
			TimeoutSeconds: int(plantuml.DefaultTimeout.Seconds()),
		},
		Run: RunConfig{
			Workers: 1,
		},
		Cache: CacheConfig{
			Enabled: true,
		},
		Output: OutputConfig{
			Dir:  "classmap-out",
			Name: "classes",
		},
	}
}

// DefaultIncludePatterns returns one "**/*<ext>" pattern per extension the
// default extractor registry supports.
func DefaultIncludePatterns() []string {
	exts := extractor.DefaultRegistry().Extensions()
	patterns := make([]string, 0, len(exts))
	for _, ext := range exts {
		patterns = append(patterns, "**/*"+ext)
	}
	return patterns
}

// SourceExtensions extracts unique file extensions from the include patterns,
// in pattern order. Returns extensions with leading dot (e.g. ".py").
func (c *Config) SourceExtensions() []string {
	seen := make(map[string]bool)
	var extensions []string
	for _, pattern := range c.Paths.Include {
		ext := extractExtension(pattern)
		if ext == "" || seen[ext] {
			continue
		}
		seen[ext] = true
		extensions = append(extensions, ext)
	}
	return extensions
}

// extractExtension extracts the file extension from a glob pattern.
// Examples: "**/*.go" -> ".go", "*.ts" -> ".ts", "src/main.c" -> ""
func extractExtension(pattern string) string {
	idx := strings.LastIndex(pattern, "*.")
	if idx < 0 {
		return ""
	}
	ext := pattern[idx+1:]
	if strings.ContainsAny(ext, "/*?[{") {
		return ""
	}
	return ext
}
