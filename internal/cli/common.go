package cli

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mvp-joe/classmap/internal/config"
	"github.com/mvp-joe/classmap/internal/plantuml"
	"github.com/mvp-joe/classmap/internal/storage"
)

// resolveRoot returns the absolute project root from an optional argument.
func resolveRoot(args []string) (string, error) {
	root := "."
	if len(args) > 0 {
		root = args[0]
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s is not a directory", abs)
	}
	return abs, nil
}

// cacheLocation returns the configured render cache path or the default.
func cacheLocation(cfg *config.Config) (string, error) {
	if cfg.Cache.Location != "" {
		return cfg.Cache.Location, nil
	}
	return storage.DefaultPath()
}

// newRenderClient builds the PlantUML client for cfg. The returned closer
// releases the render cache, if one was opened; it is never nil.
func newRenderClient(cfg *config.Config, log logrus.FieldLogger) (*plantuml.Client, func(), error) {
	client := plantuml.NewClient(cfg.Render.ServerURL)
	client.Format = strings.ToLower(cfg.Render.Format)
	client.HTTPClient = &http.Client{Timeout: time.Duration(cfg.Render.TimeoutSeconds) * time.Second}
	client.Logger = log

	noop := func() {}
	if !cfg.Cache.Enabled {
		return client, noop, nil
	}

	path, err := cacheLocation(cfg)
	if err != nil {
		return nil, noop, fmt.Errorf("failed to locate render cache: %w", err)
	}
	cache, err := storage.Open(path)
	if err != nil {
		// A broken cache must not block rendering.
		log.WithError(err).WithField("path", path).Warn("render cache disabled")
		return client, noop, nil
	}

	client.Cache = cache
	return client, func() {
		if err := cache.Close(); err != nil {
			log.WithError(err).Warn("failed to close render cache")
		}
	}, nil
}
