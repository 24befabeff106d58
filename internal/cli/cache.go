package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/classmap/internal/config"
	"github.com/mvp-joe/classmap/internal/storage"
)

// cacheCmd represents the cache command
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the render cache",
	Long: `The render cache stores artifacts returned by the PlantUML server, keyed
by token and format, so an unchanged diagram is not requested twice.
Default location: ~/.classmap/cache/renders.db`,
}

var cacheCleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Delete every cached artifact",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cachePathFromConfig()
		if err != nil {
			return err
		}
		return runCacheClean(cmd.Context(), path, cmd.OutOrStdout())
	},
}

var cacheStatsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show render cache size",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := cachePathFromConfig()
		if err != nil {
			return err
		}
		return runCacheStats(cmd.Context(), path, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(cacheCmd)
	cacheCmd.AddCommand(cacheCleanCmd)
	cacheCmd.AddCommand(cacheStatsCmd)
}

func cachePathFromConfig() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	cfg, err := config.LoadConfigFromDir(wd)
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	return cacheLocation(cfg)
}

func runCacheClean(ctx context.Context, path string, out io.Writer) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if !quiet {
			fmt.Fprintln(out, "No render cache found")
		}
		return nil
	}

	cache, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer cache.Close()

	removed, err := cache.Clear(ctx)
	if err != nil {
		return err
	}
	if !quiet {
		fmt.Fprintf(out, "%s Removed %d cached artifacts\n", okColor.Sprint("✓"), removed)
	}
	return nil
}

func runCacheStats(ctx context.Context, path string, out io.Writer) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		fmt.Fprintln(out, "No render cache found")
		return nil
	}

	cache, err := storage.Open(path)
	if err != nil {
		return err
	}
	defer cache.Close()

	stats, err := cache.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Location: %s\n", path)
	fmt.Fprintf(out, "Entries:  %d\n", stats.Entries)
	fmt.Fprintf(out, "Size:     %.1f KB\n", float64(stats.Bytes)/1024)
	return nil
}
