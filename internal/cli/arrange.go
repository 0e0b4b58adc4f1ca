package cli

import (
	"fmt"

	"github.com/chazu/platen/pkg/graph"
	"github.com/chazu/platen/pkg/scene"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/spf13/cobra"
)

func newArrangeCmd(a *app) *cobra.Command {
	var (
		center []float64
		names  []string
		out    string
	)
	cmd := &cobra.Command{
		Use:   "arrange DOC",
		Short: "Lay the objects of a document out on the build plate",
		Long: `Arrange places the top-level objects of DOC (or the nodes named with
--node) side by side without overlap, centred on --center and resting on
its Z height. The result is written back to DOC unless -o is given.

Example:
  platen arrange plate.json --center 100,100,0 --margin 3`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runArrange(cmd, args[0], out, center, names)
		},
	}
	cmd.Flags().Float64SliceVar(&center, "center", []float64{0, 0, 0}, "plate centre as x,y,z")
	cmd.Flags().StringSliceVar(&names, "node", nil, "arrange only the named nodes (repeatable)")
	cmd.Flags().StringVarP(&out, "out", "o", "", "document to write (default: DOC)")
	cmd.Flags().Float64("step", 0, "search step in millimetres")
	cmd.Flags().Float64("margin", 0, "gap kept between objects in millimetres")
	return cmd
}

func (a *app) runArrange(cmd *cobra.Command, path, out string, center []float64, names []string) error {
	if len(center) != 3 {
		return fmt.Errorf("%w: --center needs x,y,z, got %d values", errUser, len(center))
	}
	if out == "" {
		out = path
	}
	ctx := cmd.Context()
	codec, err := a.documents()
	if err != nil {
		return err
	}

	s := scene.New(scene.WithLogger(a.log))
	if err := s.Load(ctx, codec, path); err != nil {
		return err
	}
	root := s.Root()
	if err := graph.RebuildAll(root); err != nil {
		return err
	}

	nodes := root.Children()
	if len(names) > 0 {
		nodes = nodes[:0]
		for _, name := range names {
			n := graph.FindByName(root, name)
			if n == nil || n == root {
				return fmt.Errorf("%w: no node named %q", errUser, name)
			}
			nodes = append(nodes, n)
		}
	}

	opts := a.cfg.ArrangeOptions(a.log)
	target := mgl64.Vec3{center[0], center[1], center[2]}
	if err := s.Arrange(ctx, nodes, target, codec.Assets(), opts); err != nil {
		return err
	}
	if !s.CanUndo() {
		fmt.Fprintln(cmd.OutOrStdout(), "nothing to arrange")
		return nil
	}
	if err := s.Save(ctx, codec, out); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "arranged %d object(s) into %s\n", len(nodes), out)
	return nil
}
