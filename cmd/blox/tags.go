package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/timothycrosley/blox/pkg/dom"
)

func tagsCmd() *cobra.Command {
	var voidOnly bool

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List the registered tags",
		Long: `List every tag the template compiler can build, in sorted order.
Void elements, which render without a closing tag and hold no children,
are marked.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			for _, name := range dom.Tags.Names() {
				void := dom.IsVoid(name)
				switch {
				case voidOnly && !void:
					continue
				case void:
					fmt.Fprintf(out, "%s (void)\n", name)
				default:
					fmt.Fprintln(out, name)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&voidOnly, "void", false, "List only void elements")

	return cmd
}
