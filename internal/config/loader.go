package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// DirName is the per-project and per-user configuration directory.
const DirName = ".classmap"

// Loader provides configuration loading capabilities.
type Loader interface {
	// Load loads configuration from files and environment variables.
	Load() (*Config, error)
}

type loader struct {
	rootDir string
	homeDir string // empty skips the user config
}

// NewLoader creates a loader for the project rooted at rootDir. The user
// config is read from the current user's home directory when it can be found.
func NewLoader(rootDir string) Loader {
	home, _ := os.UserHomeDir()
	return &loader{rootDir: rootDir, homeDir: home}
}

// NewLoaderWithHome is NewLoader with an explicit home directory.
func NewLoaderWithHome(rootDir, homeDir string) Loader {
	return &loader{rootDir: rootDir, homeDir: homeDir}
}

func (l *loader) Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	v.SetEnvPrefix("CLASSMAP")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnvVars(v)

	setDefaults(v)

	if l.homeDir != "" {
		if err := mergeConfigFile(v, filepath.Join(l.homeDir, DirName)); err != nil {
			return nil, err
		}
	}
	if err := mergeConfigFile(v, filepath.Join(l.rootDir, DirName)); err != nil {
		return nil, err
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// mergeConfigFile merges dir/config.yml or dir/config.yaml over what v
// already holds. A missing file is not an error.
func mergeConfigFile(v *viper.Viper, dir string) error {
	for _, name := range []string{"config.yml", "config.yaml"} {
		path := filepath.Join(dir, name)
		f, err := os.Open(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read config file: %w", err)
		}
		err = v.MergeConfig(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		return nil
	}
	return nil
}

func bindEnvVars(v *viper.Viper) {
	v.BindEnv("render.server_url")
	v.BindEnv("render.format")
	v.BindEnv("render.timeout_seconds")
	v.BindEnv("render.disabled")

	v.BindEnv("run.workers")
	v.BindEnv("run.memo_size")

	v.BindEnv("cache.enabled")
	v.BindEnv("cache.location")

	v.BindEnv("output.dir")
	v.BindEnv("output.name")
	v.BindEnv("output.per_file")
	v.BindEnv("output.report")
}

// setDefaults configures viper with default values.
func setDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("paths.include", defaults.Paths.Include)
	v.SetDefault("paths.ignore", defaults.Paths.Ignore)

	v.SetDefault("render.server_url", defaults.Render.ServerURL)
	v.SetDefault("render.format", defaults.Render.Format)
	v.SetDefault("render.timeout_seconds", defaults.Render.TimeoutSeconds)
	v.SetDefault("render.disabled", defaults.Render.Disabled)

	v.SetDefault("run.workers", defaults.Run.Workers)
	v.SetDefault("run.memo_size", defaults.Run.MemoSize)

	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.location", defaults.Cache.Location)

	v.SetDefault("output.dir", defaults.Output.Dir)
	v.SetDefault("output.name", defaults.Output.Name)
	v.SetDefault("output.per_file", defaults.Output.PerFile)
	v.SetDefault("output.report", defaults.Output.Report)
}

// LoadConfigFromDir loads configuration for the project at rootDir.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}
