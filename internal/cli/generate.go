package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/classmap/internal/config"
	"github.com/mvp-joe/classmap/internal/discovery"
	"github.com/mvp-joe/classmap/internal/extractor"
	"github.com/mvp-joe/classmap/internal/pipeline"
	"github.com/mvp-joe/classmap/internal/watcher"
)

var (
	noRenderFlag bool
	watchFlag    bool
	workersFlag  int
	formatFlag   string
	outFlag      string
	reportFlag   bool
	perFileFlag  bool
)

// ErrRunHadFailures is returned by generate when a file or the combined
// render failed. Outputs are still written.
var ErrRunHadFailures = errors.New("run finished with failures")

// generateCmd represents the generate command
var generateCmd = &cobra.Command{
	Use:   "generate [dir]",
	Short: "Generate a class diagram for a source tree",
	Long: `Generate discovers source files under dir (default: current directory),
extracts their classes, writes one combined PlantUML document and renders it
through the configured PlantUML server.

Outputs (under --out, default classmap-out/):
  classes.puml          combined document
  classes.<format>      rendered artifact, when rendering succeeded
  files/<path>.puml     per-file documents (--per-file)
  classes.report.yaml   run report (--report)

Examples:
  # Generate for the current directory
  classmap generate

  # Encode only, no network
  classmap generate --no-render ./src

  # Re-generate on every change, four extraction workers
  classmap generate --watch --workers 4
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().BoolVar(&noRenderFlag, "no-render", false, "encode the combined document without calling the server")
	generateCmd.Flags().BoolVarP(&watchFlag, "watch", "w", false, "watch for file changes and regenerate")
	generateCmd.Flags().IntVar(&workersFlag, "workers", 0, "parallel extraction workers (default from config)")
	generateCmd.Flags().StringVar(&formatFlag, "format", "", "artifact format: png, svg, txt, ...")
	generateCmd.Flags().StringVarP(&outFlag, "out", "o", "", "output directory")
	generateCmd.Flags().BoolVar(&reportFlag, "report", false, "write a YAML run report")
	generateCmd.Flags().BoolVar(&perFileFlag, "per-file", false, "write one document per source file")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfigFromDir(root)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	applyGenerateFlags(cmd, cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid flags: %w", err)
	}

	g, err := newGenerator(root, cfg, logger, cmd.OutOrStdout(), quiet)
	if err != nil {
		return err
	}
	defer g.Close()

	if watchFlag {
		return g.watch(ctx)
	}

	result, err := g.generate(ctx)
	if err != nil {
		return err
	}
	if len(result.Failed()) > 0 {
		return fmt.Errorf("%w: %d failed", ErrRunHadFailures, len(result.Failed()))
	}
	return nil
}

// applyGenerateFlags overrides config values with explicitly set flags.
func applyGenerateFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("no-render") {
		cfg.Render.Disabled = noRenderFlag
	}
	if flags.Changed("workers") {
		cfg.Run.Workers = workersFlag
	}
	if flags.Changed("format") {
		cfg.Render.Format = formatFlag
	}
	if flags.Changed("out") {
		cfg.Output.Dir = outFlag
	}
	if flags.Changed("report") {
		cfg.Output.Report = reportFlag
	}
	if flags.Changed("per-file") {
		cfg.Output.PerFile = perFileFlag
	}
}

// generator runs discovery, the pipeline and output writing for one root.
// It is reused across watch-mode runs so the extraction memo carries over.
type generator struct {
	root       string
	cfg        *config.Config
	log        logrus.FieldLogger
	out        io.Writer
	registry   *extractor.Registry
	discoverer *discovery.Discoverer
	driver     *pipeline.Driver
	renderURL  func(token string) string
	outputs    *outputWriter
	closeCache func()
}

func newGenerator(root string, cfg *config.Config, log logrus.FieldLogger, out io.Writer, quiet bool) (*generator, error) {
	d, err := discovery.New(root, cfg.Paths.Include, cfg.Paths.Ignore)
	if err != nil {
		return nil, err
	}

	g := &generator{
		root:       root,
		cfg:        cfg,
		log:        log,
		out:        out,
		registry:   extractor.DefaultRegistry(),
		discoverer: d,
		closeCache: func() {},
	}

	outDir := cfg.Output.Dir
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(root, outDir)
	}
	g.outputs = &outputWriter{dir: outDir, name: cfg.Output.Name, format: cfg.Render.Format}

	var renderer pipeline.Renderer
	if !cfg.Render.Disabled {
		client, closeCache, err := newRenderClient(cfg, log)
		if err != nil {
			return nil, err
		}
		renderer = client
		g.renderURL = client.URL
		g.outputs.format = client.Format
		g.closeCache = closeCache
	}

	g.driver = pipeline.New(pipeline.Options{
		Workers:    cfg.Run.Workers,
		SkipRender: cfg.Render.Disabled,
		MemoSize:   cfg.Run.MemoSize,
		Logger:     log,
		Progress:   NewCLIProgressReporter(out, quiet),
	}, g.registry, renderer)

	return g, nil
}

func (g *generator) Close() {
	g.driver.Close()
	g.closeCache()
}

// generate performs one full run and writes its outputs.
func (g *generator) generate(ctx context.Context) (*pipeline.Result, error) {
	files, err := g.discoverer.Files()
	if err != nil {
		return nil, err
	}
	g.log.WithField("files", len(files)).Debug("discovered source files")

	result, err := g.driver.Run(ctx, files)
	if err != nil {
		return result, err
	}

	written, err := g.outputs.writeResult(result, g.cfg.Output.PerFile)
	if err != nil {
		return result, err
	}

	if g.cfg.Output.Report {
		var url string
		if g.renderURL != nil && result.Token != "" {
			url = g.renderURL(result.Token)
		}
		reportPath := g.outputs.path(".report.yaml")
		if err := NewReport(g.root, result, url, written).WriteFile(reportPath); err != nil {
			return result, err
		}
		written = append(written, reportPath)
	}

	for _, path := range written {
		g.log.WithField("path", path).Debug("wrote output")
	}
	return result, nil
}

// watch generates once, then again after every debounced change, until ctx
// is cancelled.
func (g *generator) watch(ctx context.Context) error {
	if _, err := g.generate(ctx); err != nil {
		return err
	}

	w, err := watcher.New(g.root, watcher.Options{
		Extensions: g.watchedExtensions(),
		SkipDir: func(name, path string) bool {
			rel, err := filepath.Rel(g.root, path)
			if err != nil {
				return false
			}
			return path == g.outputs.dir || g.discoverer.SkipsDir(name, filepath.ToSlash(rel))
		},
		Logger: g.log,
	})
	if err != nil {
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	defer w.Stop()

	err = w.Start(ctx, func(changed []string) {
		w.Pause()
		defer w.Resume()

		g.log.WithField("changed", len(changed)).Info("regenerating")
		if _, err := g.generate(ctx); err != nil && ctx.Err() == nil {
			g.log.WithError(err).Error("regeneration failed")
		}
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(g.out, "Watching for changes (Ctrl+C to stop)...")
	<-ctx.Done()
	return nil
}

// watchedExtensions returns the configured source extensions that some
// extractor supports, or every supported extension when none are configured.
func (g *generator) watchedExtensions() []string {
	var exts []string
	for _, ext := range g.cfg.SourceExtensions() {
		if g.registry.Supports("x" + ext) {
			exts = append(exts, ext)
		}
	}
	if len(exts) == 0 {
		return g.registry.Extensions()
	}
	return exts
}
