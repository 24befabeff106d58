package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/mvp-joe/classmap/internal/pipeline"
)

var extractCombinedFlag bool

// extractCmd represents the extract command
var extractCmd = &cobra.Command{
	Use:   "extract <file>...",
	Short: "Print the PlantUML document of each file",
	Long: `Extract parses each file with the extractor for its extension and prints
its PlantUML document. Nothing is sent to a server.

Examples:
  classmap extract zoo/animal.py zoo/dog.py

  # One document with a provenance comment per file
  classmap extract --combined src/*.java
`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runExtract(cmd.Context(), args, extractCombinedFlag, cmd.OutOrStdout(), logger)
	},
}

func init() {
	rootCmd.AddCommand(extractCmd)
	extractCmd.Flags().BoolVar(&extractCombinedFlag, "combined", false, "print the combined document instead of per-file documents")
}

func runExtract(ctx context.Context, paths []string, combined bool, out io.Writer, log logrus.FieldLogger) error {
	files := make([]pipeline.SourceFile, 0, len(paths))
	for _, path := range paths {
		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		files = append(files, pipeline.SourceFile{Path: path, Content: content})
	}

	driver := pipeline.New(pipeline.Options{SkipRender: true, MemoSize: -1, Logger: log}, nil, nil)
	defer driver.Close()

	result, err := driver.Run(ctx, files)
	if err != nil {
		return err
	}

	for _, skipped := range result.Skipped {
		log.WithField("file", skipped).Warn("no extractor for file")
	}

	if combined {
		if result.Combined != "" {
			fmt.Fprint(out, result.Combined)
		}
	} else {
		for i, file := range result.Files {
			if i > 0 {
				fmt.Fprintln(out)
			}
			fmt.Fprint(out, file.Document)
		}
	}

	var failed int
	for _, d := range result.Failed() {
		if d.Subject != pipeline.CombinedSubject {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d files failed to parse", ErrRunHadFailures, failed)
	}
	return nil
}
