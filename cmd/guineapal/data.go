package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/guineapal/internal/kv"
	"github.com/mesh-intelligence/guineapal/internal/logger"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

func newExportCmd(c *cli) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every stored key as JSONL",
		Long: `Export writes one {"key":...,"value":...} object per line, sorted by key.
The session token is never exported. Without --out the data goes to stdout.`,
		Args: positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if out == "" {
				_, err := kv.Export(ctx, c.app.store, cmd.OutOrStdout(), types.KeyAuthToken)
				return err
			}
			f, err := os.Create(out)
			if err != nil {
				return fmt.Errorf("create export file: %w", err)
			}
			n, err := kv.Export(ctx, c.app.store, f, types.KeyAuthToken)
			if cerr := f.Close(); err == nil {
				err = cerr
			}
			if err != nil {
				return err
			}
			c.log.Info("exported store", logger.Fields{"entries": n, "path": out})
			view := map[string]any{"path": out, "entries": n}
			return c.emit(cmd, view, func(w io.Writer) {
				fmt.Fprintf(w, "Exported %d entries to %s\n", n, out)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: stdout)")
	return cmd
}

func newImportCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import [file]",
		Short: "Load JSONL entries written by export",
		Long: `Import sets every entry into the store, overwriting existing keys.
Malformed lines are skipped and counted. Reads stdin when no file is given or
the file is "-".`,
		Args: positional(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			src := "stdin"
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return fmt.Errorf("open import file: %w", err)
				}
				defer f.Close()
				r, src = f, args[0]
			}
			res, err := kv.Import(cmd.Context(), c.app.store, r)
			if err != nil {
				return err
			}
			c.log.Info("imported store", logger.Fields{"imported": res.Imported, "skipped": res.Skipped, "source": src})
			return c.emit(cmd, res, func(w io.Writer) {
				fmt.Fprintf(w, "Imported %d entries", res.Imported)
				if res.Skipped > 0 {
					fmt.Fprintf(w, " (%d malformed lines skipped)", res.Skipped)
				}
				fmt.Fprintln(w)
			})
		},
	}
	return cmd
}

func newReconcileCmd(c *cli) *cobra.Command {
	var dryRun bool
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Remove records and links that point at deleted pets",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			rep, err := c.app.care.Reconcile(cmd.Context(), dryRun)
			if err != nil {
				return err
			}
			if rep.OrphanKeys == nil {
				rep.OrphanKeys = []string{}
			}
			return c.emit(cmd, rep, func(w io.Writer) {
				if rep.Clean() {
					fmt.Fprintln(w, "Nothing to reconcile.")
					return
				}
				verb := "Removed"
				if rep.DryRun {
					verb = "Would remove"
				}
				if len(rep.OrphanKeys) > 0 {
					fmt.Fprintf(w, "%s %d orphaned key(s): %s\n", verb, len(rep.OrphanKeys), strings.Join(rep.OrphanKeys, ", "))
				}
				if rep.PrunedPets > 0 {
					fmt.Fprintf(w, "%s dangling family links on %d pet(s)\n", verb, rep.PrunedPets)
				}
				if rep.OrphanSessions > 0 {
					fmt.Fprintf(w, "%s %d orphaned bonding session(s)\n", verb, rep.OrphanSessions)
				}
			})
		},
	}
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report without changing anything")
	return cmd
}
