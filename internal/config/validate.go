package config

import (
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/gobwas/glob"
)

var (
	// ErrInvalidServerURL indicates a missing or malformed PlantUML server URL
	ErrInvalidServerURL = errors.New("invalid server url")

	// ErrInvalidFormat indicates an output format the server does not produce
	ErrInvalidFormat = errors.New("invalid output format")

	// ErrInvalidTimeout indicates a non-positive render timeout
	ErrInvalidTimeout = errors.New("invalid render timeout")

	// ErrInvalidWorkers indicates a non-positive worker count
	ErrInvalidWorkers = errors.New("invalid worker count")

	// ErrInvalidPattern indicates a glob that does not compile
	ErrInvalidPattern = errors.New("invalid path pattern")

	// ErrEmptyOutput indicates a missing output directory or name
	ErrEmptyOutput = errors.New("empty output setting")
)

// Validate checks that the configuration is valid and complete. Every
// problem is reported; the result matches each sentinel with errors.Is.
func Validate(cfg *Config) error {
	return errors.Join(
		validatePaths(&cfg.Paths),
		validateRender(&cfg.Render),
		validateRun(&cfg.Run),
		validateOutput(&cfg.Output),
	)
}

func validatePaths(cfg *PathsConfig) error {
	var errs []error
	for _, pattern := range slices.Concat(cfg.Include, cfg.Ignore) {
		if _, err := glob.Compile(pattern, '/'); err != nil {
			errs = append(errs, fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err))
		}
	}
	return errors.Join(errs...)
}

func validateRender(cfg *RenderConfig) error {
	var errs []error

	u, err := url.Parse(strings.TrimSpace(cfg.ServerURL))
	switch {
	case strings.TrimSpace(cfg.ServerURL) == "":
		errs = append(errs, fmt.Errorf("%w: server_url is required", ErrInvalidServerURL))
	case err != nil:
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidServerURL, err))
	case u.Scheme != "http" && u.Scheme != "https":
		errs = append(errs, fmt.Errorf("%w: scheme must be http or https, got '%s'", ErrInvalidServerURL, u.Scheme))
	}

	if !slices.Contains(SupportedFormats, strings.ToLower(cfg.Format)) {
		errs = append(errs, fmt.Errorf("%w: must be one of %s, got '%s'", ErrInvalidFormat, strings.Join(SupportedFormats, ", "), cfg.Format))
	}

	if cfg.TimeoutSeconds <= 0 {
		errs = append(errs, fmt.Errorf("%w: timeout_seconds must be positive, got %d", ErrInvalidTimeout, cfg.TimeoutSeconds))
	}

	return errors.Join(errs...)
}

func validateRun(cfg *RunConfig) error {
	if cfg.Workers <= 0 {
		return fmt.Errorf("%w: workers must be positive, got %d", ErrInvalidWorkers, cfg.Workers)
	}
	return nil
}

func validateOutput(cfg *OutputConfig) error {
	var errs []error
	if strings.TrimSpace(cfg.Dir) == "" {
		errs = append(errs, fmt.Errorf("%w: output.dir is required", ErrEmptyOutput))
	}
	if strings.TrimSpace(cfg.Name) == "" {
		errs = append(errs, fmt.Errorf("%w: output.name is required", ErrEmptyOutput))
	}
	return errors.Join(errs...)
}
