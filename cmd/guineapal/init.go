package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/guineapal/internal/config"
)

func newInitCmd(c *cli) *cobra.Command {
	var backend string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Initialize guineapal storage",
		Long: `Init writes a default config.yaml to the configuration directory when none
exists, then opens the storage backend once so its data directory and schema
are created. Running it again leaves an existing config.yaml untouched.`,
		Args:        positional(cobra.NoArgs),
		Annotations: map[string]string{noStore: "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			configDir, err := c.resolveConfigDir()
			if err != nil {
				return fmt.Errorf("resolve config dir: %w", err)
			}

			f := config.Default()
			if backend != "" {
				f.Backend = backend
			}
			if c.flags.dataDir != "" {
				if f.DataDir, err = filepath.Abs(c.flags.dataDir); err != nil {
					return fmt.Errorf("resolve data dir: %w", err)
				}
			}
			wrote, err := config.Init(configDir, f)
			if err != nil {
				return err
			}

			if err := c.open(cmd); err != nil {
				return err
			}
			if err := c.app.auth.Init(cmd.Context()); err != nil {
				return err
			}

			created := ""
			if wrote {
				created = " (created)"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "GuineaPal initialized successfully")
			fmt.Fprintf(out, "  config:  %s%s\n", configDir, created)
			fmt.Fprintf(out, "  backend: %s\n", c.settings.Store.Backend)
			fmt.Fprintf(out, "  data:    %s\n", c.settings.Store.DataDir)
			return nil
		},
	}
	cmd.Flags().StringVar(&backend, "backend", "", "backend to write into a new config.yaml (sqlite, postgres, jsonl, memory)")
	return cmd
}
