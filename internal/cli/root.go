// Package cli implements the platen command-line interface.
package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/chazu/platen/internal/catalog"
	"github.com/chazu/platen/internal/config"
	"github.com/chazu/platen/pkg/asset"
	"github.com/chazu/platen/pkg/document"
	"github.com/chazu/platen/pkg/graph"
	"github.com/spf13/cobra"
)

// Exit codes.
const (
	exitSuccess   = 0
	exitUserError = 1
	exitSysError  = 2
)

// errUser marks failures caused by the input rather than the system.
var errUser = errors.New("invalid input")

// app is the state shared by the subcommands of one invocation.
type app struct {
	configFile string

	cfg     config.Config
	log     *slog.Logger
	catalog *catalog.Catalog
	codec   *document.Codec
}

// NewRootCmd creates the top-level "platen" command with global flags and
// all subcommands registered.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "platen",
		Short: "Build, arrange and export printable scenes",
		Long: "Platen evaluates scene scripts into documents, lays objects out on the\n" +
			"build plate and exports one STL per output class.",
		SilenceUsage:       true,
		SilenceErrors:      true,
		PersistentPreRunE:  a.setup,
		PersistentPostRunE: func(*cobra.Command, []string) error { return a.close() },
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "config file (default: ./platen.yaml, then the user config directory)")
	pf.String("assets-dir", "", "directory holding mesh assets")
	pf.Bool("catalog", true, "index stored assets in "+catalog.FileName)
	pf.Int("workers", 0, "parallel asset and bounds workers")
	pf.String("log-level", "", "debug, info, warn or error")

	root.AddCommand(newBuildCmd(a))
	root.AddCommand(newInspectCmd(a))
	root.AddCommand(newArrangeCmd(a))
	root.AddCommand(newExportCmd(a))
	root.AddCommand(newAssetsCmd(a))
	root.AddCommand(newConfigCmd(a))
	return root
}

// Execute runs the root command and exits with the appropriate code.
func Execute() {
	root := NewRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "platen:", err)
		if errors.Is(err, errUser) {
			os.Exit(exitUserError)
		}
		os.Exit(exitSysError)
	}
	os.Exit(exitSuccess)
}

// setup resolves the configuration and the logger.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(a.configFile, cmd.Flags())
	if err != nil {
		return fmt.Errorf("%w: %w", errUser, err)
	}
	level, err := cfg.Level()
	if err != nil {
		return fmt.Errorf("%w: %w", errUser, err)
	}
	a.cfg = cfg
	a.log = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
	a.log.Debug("config loaded", "assets", cfg.AssetsDir, "catalog", cfg.Catalog, "workers", cfg.Workers)
	return nil
}

// documents returns the codec for the configured assets directory,
// opening the catalog alongside it when enabled.
func (a *app) documents() (*document.Codec, error) {
	if a.codec != nil {
		return a.codec, nil
	}
	opts := []asset.Option{asset.WithLogger(a.log)}
	if a.cfg.Catalog {
		cat, err := catalog.Open(filepath.Join(a.cfg.AssetsDir, catalog.FileName))
		if err != nil {
			return nil, err
		}
		a.catalog = cat
		opts = append(opts, asset.WithIndex(cat))
	}
	assets, err := asset.New(a.cfg.AssetsDir, opts...)
	if err != nil {
		return nil, err
	}
	a.codec = document.New(assets, document.WithLogger(a.log), document.WithWorkers(a.cfg.Workers))
	return a.codec, nil
}

// load reads the document at path and runs the rebuild hooks of its
// nodes.
func (a *app) load(ctx context.Context, path string) (*graph.Node, *document.Codec, error) {
	codec, err := a.documents()
	if err != nil {
		return nil, nil, err
	}
	root, err := codec.Load(ctx, path)
	if err != nil {
		return nil, nil, err
	}
	if err := graph.RebuildAll(root); err != nil {
		return nil, nil, err
	}
	return root, codec, nil
}

func (a *app) close() error {
	if a.catalog == nil {
		return nil
	}
	err := a.catalog.Close()
	a.catalog = nil
	return err
}
