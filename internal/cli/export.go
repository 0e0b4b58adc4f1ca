package cli

import (
	"fmt"

	"github.com/chazu/platen/pkg/graph"
	"github.com/chazu/platen/pkg/printable"
	"github.com/spf13/cobra"
)

func newExportCmd(a *app) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "export DOC --out DIR",
		Short: "Write one STL file per output class",
		Long: `Export merges the visible geometry of DOC by output class and writes
each class to DIR as <class>.stl, in world coordinates.

Example:
  platen export plate.json --out build/`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runExport(cmd, args[0], dir)
		},
	}
	cmd.Flags().StringVar(&dir, "out", "", "output directory (required)")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func (a *app) runExport(cmd *cobra.Command, path, dir string) error {
	root, codec, err := a.load(cmd.Context(), path)
	if err != nil {
		return err
	}
	files, err := printable.Export(cmd.Context(), root, codec.Assets(), dir)
	if err != nil {
		return err
	}
	for _, class := range graph.OutputClasses {
		if f, ok := files[class]; ok {
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", class, f)
		}
	}
	return nil
}
