package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/classmap/internal/config"
	"github.com/mvp-joe/classmap/internal/discovery"
	"github.com/mvp-joe/classmap/internal/dump"
	"github.com/mvp-joe/classmap/internal/extractor"
	"github.com/mvp-joe/classmap/internal/model"
	"github.com/mvp-joe/classmap/internal/pipeline"
)

var dumpOutFlag string

// dumpCmd represents the dump command
var dumpCmd = &cobra.Command{
	Use:   "dump [dir]",
	Short: "Concatenate a tree's sources and write a declarations outline",
	Long: `Dump writes two text files for dir (default: current directory):

  <name>_code.txt          every non-empty source file under a "# File:" header
  <name>_declarations.txt  the classes extracted from each file, signatures only,
                           followed by module-level functions where the language
                           supports it (Python)

<name> is the base name of dir. Files are written to --out (default: .).
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		root, err := resolveRoot(args)
		if err != nil {
			return err
		}
		cfg, err := config.LoadConfigFromDir(root)
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		codePath, declsPath, err := runDump(cmd.Context(), root, cfg, dumpOutFlag, logger)
		if err != nil {
			return err
		}
		if !quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n%s %s\n", okColor.Sprint("✓"), codePath, okColor.Sprint("✓"), declsPath)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(dumpCmd)
	dumpCmd.Flags().StringVarP(&dumpOutFlag, "out", "o", ".", "directory for the dump files")
}

func runDump(ctx context.Context, root string, cfg *config.Config, outDir string, log logrus.FieldLogger) (string, string, error) {
	files, err := discovery.Discover(root, cfg.Paths.Include, cfg.Paths.Ignore)
	if err != nil {
		return "", "", err
	}

	registry := extractor.DefaultRegistry()
	driver := pipeline.New(pipeline.Options{
		Workers:    cfg.Run.Workers,
		SkipRender: true,
		MemoSize:   -1,
		Logger:     log,
	}, registry, nil)
	defer driver.Close()

	result, err := driver.Run(ctx, files)
	if err != nil {
		return "", "", err
	}

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return "", "", fmt.Errorf("failed to create output directory: %w", err)
	}
	name := filepath.Base(root)
	codePath := filepath.Join(outDir, name+"_code.txt")
	declsPath := filepath.Join(outDir, name+"_declarations.txt")

	if err := writeFileWith(codePath, func(w io.Writer) error {
		n, err := dump.WriteSources(w, files)
		log.WithField("files", n).Debug("dumped sources")
		return err
	}); err != nil {
		return "", "", err
	}

	if err := writeFileWith(declsPath, func(w io.Writer) error {
		return dump.WriteDeclarations(w, result.Files, moduleFunctions(ctx, registry, files, log))
	}); err != nil {
		return "", "", err
	}

	return codePath, declsPath, nil
}

// moduleFunctions collects top-level functions for every file whose extractor
// can list them. Failures only drop that file's functions.
func moduleFunctions(ctx context.Context, registry *extractor.Registry, files []pipeline.SourceFile, log logrus.FieldLogger) map[string][]model.MethodEntity {
	functions := make(map[string][]model.MethodEntity)
	for _, file := range files {
		ext, err := registry.Lookup(file.Path)
		if err != nil {
			continue
		}
		fe, ok := ext.(extractor.FunctionExtractor)
		if !ok {
			continue
		}
		content := bytes.TrimPrefix(file.Content, []byte{0xEF, 0xBB, 0xBF})
		fns, err := fe.ExtractFunctions(ctx, file.Path, content)
		if err != nil {
			log.WithField("file", file.Path).WithError(err).Debug("function extraction failed")
			continue
		}
		if len(fns) > 0 {
			functions[file.Path] = fns
		}
	}
	return functions
}

func writeFileWith(path string, fill func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := fill(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}
