package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mvp-joe/classmap/internal/config"
	"github.com/mvp-joe/classmap/internal/diagram"
	"github.com/mvp-joe/classmap/internal/plantuml"
)

var encodeURLFlag bool

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode [file|-]",
	Short: "Print the server token of a PlantUML document",
	Long: `Encode deflates a PlantUML document and prints it in the server's
64-symbol alphabet. Reads stdin when the file is "-" or omitted.

Examples:
  classmap encode classmap-out/classes.puml
  cat diagram.puml | classmap encode --url
`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := "-"
		if len(args) > 0 {
			path = args[0]
		}

		serverURL := ""
		if encodeURLFlag {
			wd, err := os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
			cfg, err := config.LoadConfigFromDir(wd)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			client := plantuml.NewClient(cfg.Render.ServerURL)
			client.Format = cfg.Render.Format
			serverURL = client.URL("")
		}

		return runEncode(path, cmd.InOrStdin(), cmd.OutOrStdout(), serverURL)
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)
	encodeCmd.Flags().BoolVar(&encodeURLFlag, "url", false, "print the full render URL instead of the bare token")
}

// runEncode prints the token of the document at path, prefixed by urlPrefix.
func runEncode(path string, stdin io.Reader, out io.Writer, urlPrefix string) error {
	var (
		text []byte
		err  error
	)
	if path == "-" {
		text, err = io.ReadAll(stdin)
	} else {
		text, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	token, err := diagram.Encode(string(text))
	if err != nil {
		return err
	}

	fmt.Fprintln(out, urlPrefix+token)
	return nil
}
