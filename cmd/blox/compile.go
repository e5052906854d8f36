package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path"
	"strings"

	"github.com/spf13/cobra"

	"github.com/timothycrosley/blox/pkg/compile"
)

func compileCmd(a *app) *cobra.Command {
	var (
		output string
		opts   compile.GoOptions
		strict bool
	)

	cmd := &cobra.Command{
		Use:   "compile <template>",
		Short: "Compile a template to Go source",
		Long: `Compile a template into a Go file declaring a struct with one field per
accessor and query, plus a Build function that constructs a fresh tree.

The struct name defaults to the template's base name.

Examples:
  blox compile home                          # Print Go source for templates/home.html
  blox compile home -o home_gen.go --package pages --name HomePage
  blox compile ./card.xhtml --strict`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("strict") {
				a.cfg.Compile.Strict = strict
			}
			return runCompile(cmd.Context(), a, args[0], output, opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default: stdout)")
	cmd.Flags().StringVar(&opts.Package, "package", "templates", "Package name of the generated file")
	cmd.Flags().StringVar(&opts.Name, "name", "", "Struct name (default: from the template name)")
	cmd.Flags().BoolVar(&strict, "strict", false, "Reject duplicate accessors (default from config)")

	return cmd
}

func runCompile(ctx context.Context, a *app, arg, output string, opts compile.GoOptions, stdout, stderr io.Writer) error {
	set, name, err := a.open(arg, nil)
	if err != nil {
		return err
	}
	prog, err := set.Program(ctx, name)
	if err != nil {
		return err
	}

	if opts.Name == "" {
		opts.Name = path.Base(strings.TrimSuffix(name, path.Ext(name)))
	}
	var buf bytes.Buffer
	if err := prog.WriteGo(&buf, opts); err != nil {
		return err
	}

	if output == "" {
		_, err := stdout.Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(output, buf.Bytes(), 0644); err != nil {
		return err
	}
	success(stderr, "Compiled %s to %s (%d instructions, %d accessors, %d queries)",
		name, output, len(prog.Code), len(prog.Accessors), len(prog.Queries))
	return nil
}
