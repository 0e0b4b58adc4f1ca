package cli

import (
	"fmt"
	"os"

	"github.com/chazu/platen/pkg/engine"
	"github.com/chazu/platen/pkg/graph"
	"github.com/chazu/platen/pkg/kernel/sdfx"
	"github.com/spf13/cobra"
)

func newBuildCmd(a *app) *cobra.Command {
	var (
		out   string
		cells int
	)
	cmd := &cobra.Command{
		Use:   "build SCRIPT -o DOC",
		Short: "Evaluate a scene script and save it as a document",
		Long: `Build evaluates SCRIPT, meshes every primitive it creates and saves the
resulting scene to DOC. Geometry is written to the assets directory.

Example:
  platen build stool.zy -o stool.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runBuild(cmd, args[0], out, cells)
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "document to write (required)")
	cmd.Flags().IntVar(&cells, "cells", sdfx.DefaultMeshCells, "meshing resolution along the longest axis")
	cmd.Flags().Duration("eval-timeout", 0, "script evaluation limit")
	_ = cmd.MarkFlagRequired("out")
	return cmd
}

func (a *app) runBuild(cmd *cobra.Command, script, out string, cells int) error {
	src, err := os.ReadFile(script)
	if err != nil {
		return fmt.Errorf("%w: %w", errUser, err)
	}

	eng := engine.NewEngine(sdfx.New(sdfx.WithCells(cells)),
		engine.WithTimeout(a.cfg.EvalTimeout),
		engine.WithLogger(a.log))
	root, evalErrs, err := eng.Evaluate(cmd.Context(), string(src))
	if err != nil {
		return err
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", script, e)
		}
		return fmt.Errorf("%w: %s has %d error(s)", errUser, script, len(evalErrs))
	}

	codec, err := a.documents()
	if err != nil {
		return err
	}
	if err := codec.Save(cmd.Context(), root, out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d nodes, %d assets)\n",
		out, len(root.Descendants()), codec.Assets().Len())
	return nil
}

// countKinds tallies the nodes of each kind below root.
func countKinds(root *graph.Node) map[string]int {
	counts := make(map[string]int)
	for _, n := range root.Descendants() {
		if k := n.Kind(); k != "" {
			counts[k]++
		}
	}
	return counts
}
