package cli

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/chazu/platen/pkg/graph"
	"github.com/spf13/cobra"
)

func newInspectCmd(a *app) *cobra.Command {
	var bounds bool
	cmd := &cobra.Command{
		Use:   "inspect DOC",
		Short: "Print the node tree of a document",
		Long: `Inspect prints every node of DOC with its resolved output class, colour
and material, then reports any structural problems found in the tree.

Example:
  platen inspect stool.json --bounds`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInspect(cmd, args[0], bounds)
		},
	}
	cmd.Flags().BoolVar(&bounds, "bounds", false, "resolve geometry and print each node's bounds")
	return cmd
}

func (a *app) runInspect(cmd *cobra.Command, path string, bounds bool) error {
	ctx := cmd.Context()
	root, codec, err := a.load(ctx, path)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	header := "NODE\tKIND\tOUTPUT\tCOLOR\tMATERIAL\tMESH"
	if bounds {
		header += "\tMIN\tMAX"
	}
	fmt.Fprintln(w, header)
	err = graph.Walk(root, func(v graph.Visit) error {
		n := v.Node
		name := strings.Repeat("  ", v.Depth) + n.Name()
		if !n.Visible() {
			name += " (hidden)"
		}
		meshRef := n.MeshPath()
		if meshRef == "" {
			meshRef = "-"
		}
		kind := n.Kind()
		if kind == "" {
			kind = "-"
		}
		line := fmt.Sprintf("%s\t%s\t%s\t%s\t%d\t%s",
			name, kind, v.Output, v.Color, n.WorldMaterialIndex(v.Item), meshRef)
		if bounds {
			b, err := n.WorldBounds(ctx, codec.Assets(), root)
			if err != nil {
				return err
			}
			if b.IsEmpty() {
				line += "\t-\t-"
			} else {
				line += fmt.Sprintf("\t%s\t%s", formatVec(b.Min[:]), formatVec(b.Max[:]))
			}
		}
		fmt.Fprintln(w, line)
		return nil
	})
	if err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return err
	}

	counts := countKinds(root)
	kinds := make([]string, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", k, counts[k])
	}

	findings := graph.Validate(root)
	for _, f := range findings {
		fmt.Fprintln(cmd.ErrOrStderr(), f)
	}
	if graph.HasErrors(findings) {
		return fmt.Errorf("%w: %s has structural errors", errUser, path)
	}
	return nil
}

func formatVec(v []float64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = fmt.Sprintf("%.2f", x)
	}
	return strings.Join(parts, ",")
}
