package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/timothycrosley/blox/pkg/blox"
	"github.com/timothycrosley/blox/pkg/render"
)

func renderCmd(a *app) *cobra.Command {
	var (
		formatted bool
		indent    string
		output    string
	)

	cmd := &cobra.Command{
		Use:   "render <template>",
		Short: "Render a template to HTML",
		Long: `Compile a template, build a fresh tree from it and render the tree.

The argument is a template name resolved against the configured template
directory (or bucket), or a path to a template file.

Examples:
  blox render home
  blox render partials/nav --formatted
  blox render ./page.xhtml --formatted --indent "\t" -o page.html`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("formatted") {
				a.cfg.Render.Formatted = formatted
			}
			if cmd.Flags().Changed("indent") {
				a.cfg.Render.Indent = indent
			}
			return runRender(cmd.Context(), a, args[0], output, cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVarP(&formatted, "formatted", "f", false, "Render one node per line with indentation (default from config)")
	cmd.Flags().StringVar(&indent, "indent", "", "Indentation unit for formatted output (default from config)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to a file instead of stdout")

	return cmd
}

func runRender(ctx context.Context, a *app, arg, output string, stdout io.Writer) (err error) {
	set, name, err := a.open(arg, nil)
	if err != nil {
		return err
	}
	tmpl, err := set.Build(ctx, name)
	if err != nil {
		return err
	}

	w := stdout
	if output != "" {
		f, ferr := os.Create(output)
		if ferr != nil {
			return ferr
		}
		defer func() {
			if cerr := f.Close(); err == nil {
				err = cerr
			}
		}()
		w = f
	}

	r := render.NewRenderer(a.rendererConfig(nil))
	if err := r.RenderToWriter(ctx, w, name, tmpl); err != nil {
		return err
	}
	if output == "" {
		fmt.Fprintln(w)
	}
	return nil
}

func treeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tree <template>",
		Short: "Print the node tree a template builds",
		Long: `Build a template and print its node tree, one node per line, with
element tags, attributes and text.

Example:
  blox tree home`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, name, err := a.open(args[0], nil)
			if err != nil {
				return err
			}
			tmpl, err := set.Build(cmd.Context(), name)
			if err != nil {
				return err
			}
			_, err = io.WriteString(cmd.OutOrStdout(), blox.Tree(tmpl))
			return err
		},
	}
}
