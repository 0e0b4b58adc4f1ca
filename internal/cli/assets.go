package cli

import (
	"errors"
	"fmt"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/chazu/platen/internal/catalog"
	"github.com/chazu/platen/pkg/asset"
	"github.com/chazu/platen/pkg/mesh"
	"github.com/spf13/cobra"
)

func newAssetsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "assets [ID]",
		Short: "List the assets recorded in the catalog",
		Long: `Assets lists every mesh asset recorded in the catalog of the assets
directory, or shows a single asset given its identity.

Example:
  platen assets
  platen assets 3f9a...`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAssets(cmd, args)
		},
	}
}

func (a *app) runAssets(cmd *cobra.Command, args []string) error {
	if !a.cfg.Catalog {
		return fmt.Errorf("%w: the asset catalog is disabled", errUser)
	}
	cat, err := catalog.Open(filepath.Join(a.cfg.AssetsDir, catalog.FileName))
	if err != nil {
		return err
	}
	defer cat.Close()

	var entries []asset.Entry
	if len(args) == 1 {
		id, err := mesh.ParseID(args[0])
		if err != nil {
			return fmt.Errorf("%w: %w", errUser, err)
		}
		e, err := cat.Lookup(cmd.Context(), id)
		if errors.Is(err, catalog.ErrNotFound) {
			return fmt.Errorf("%w: %w", errUser, err)
		}
		if err != nil {
			return err
		}
		entries = append(entries, e)
	} else {
		entries, err = cat.List(cmd.Context())
		if err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTRIANGLES\tVERTICES\tBYTES\tSTORED\tPATH")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%s\t%s\n",
			e.ID.Short(), e.Triangles, e.Vertices, e.Bytes,
			e.StoredAt.Local().Format(time.DateTime), e.Path)
	}
	return w.Flush()
}
