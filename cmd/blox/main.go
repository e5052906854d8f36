package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/timothycrosley/blox/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "blox",
		Short: "Build, compile and render HTML node trees",
		Long: `blox turns HTML and XML templates into trees of typed nodes.

Templates are compiled once into build programs, instantiated as fresh
trees on demand and rendered compact or formatted. Compiled templates can
also be emitted as Go source.

Examples:
  blox render home
  blox render pages/about.xhtml --formatted
  blox compile home -o home_gen.go --package pages --name Home
  blox serve --watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Config file (default: blox.json or blox.yaml in the project root)")
	flags.StringVar(&a.logFormat, "log-format", "text", "Log format: text or json")
	flags.BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		renderCmd(a),
		compileCmd(a),
		treeCmd(a),
		tagsCmd(),
		serveCmd(a),
		versionCmd(),
	)

	return rootCmd
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}
