package cli

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/chazu/platen/internal/config"
	"github.com/spf13/cobra"
)

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage platen configuration",
	}

	var user bool
	initCmd := &cobra.Command{
		Use:   "init [PATH]",
		Short: "Write a config file with the default settings",
		Long: `Init writes the default settings to PATH, ./` + config.FileName + ` when no
path is given, or the user config directory with --user. An existing file
is never overwritten.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FileName
			switch {
			case len(args) == 1:
				path = args[0]
			case user:
				dir, err := config.DefaultDir()
				if err != nil {
					return err
				}
				path = filepath.Join(dir, config.FileName)
			}
			if err := config.WriteDefault(path); err != nil {
				if errors.Is(err, config.ErrExists) {
					return fmt.Errorf("%w: %w", errUser, err)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&user, "user", false, "write to the user config directory")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the resolved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := config.Marshal(a.cfg)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}
