package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/guineapal/internal/family"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

var kindsHelp = func() string {
	names := make([]string, len(family.Kinds))
	for i, k := range family.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}()

func newFamilyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "family",
		Short: "Parents, mates, siblings and children",
		Long: `Family links are stored on both pets. Relationship kinds: ` + kindsHelp + `.

Example:
  guineapal family link <pup-id> mother <mum-id>
  guineapal family tree <pup-id>`,
	}

	treeCmd := &cobra.Command{
		Use:   "tree <pet-id>",
		Short: "Show a pet's family",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			tree, err := c.app.family.Tree(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return c.emit(cmd, tree, func(w io.Writer) { printTree(w, tree) })
		},
	}

	linkCmd := &cobra.Command{
		Use:   "link <pet-id> <kind> <related-id>",
		Short: "Link two pets",
		Args:  positional(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editFamily(cmd, c, args, c.app.family.Link, "Linked")
		},
	}

	unlinkCmd := &cobra.Command{
		Use:   "unlink <pet-id> <kind> <related-id>",
		Short: "Remove a link between two pets",
		Args:  positional(cobra.ExactArgs(3)),
		RunE: func(cmd *cobra.Command, args []string) error {
			return editFamily(cmd, c, args, c.app.family.Unlink, "Unlinked")
		},
	}

	eligibleCmd := &cobra.Command{
		Use:   "eligible <pet-id> <kind>",
		Short: "List pets that can fill a relationship",
		Args:  positional(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := family.ParseKind(args[1])
			if err != nil {
				return err
			}
			pets, err := c.app.family.Eligible(cmd.Context(), args[0], kind)
			if err != nil {
				return err
			}
			if pets == nil {
				pets = []types.Pet{}
			}
			return c.emit(cmd, pets, func(w io.Writer) {
				if len(pets) == 0 {
					fmt.Fprintf(w, "No pets can be linked as %s.\n", kind)
					return
				}
				rows := make([][]string, 0, len(pets))
				for _, p := range pets {
					rows = append(rows, []string{p.ID, p.Name, orDash(p.Gender)})
				}
				printTable(w, []string{"ID", "NAME", "GENDER"}, rows)
			})
		},
	}

	cmd.AddCommand(treeCmd, linkCmd, unlinkCmd, eligibleCmd)
	return cmd
}

type familyEdit func(ctx context.Context, focalID, relatedID string, kind family.Kind) error

func editFamily(cmd *cobra.Command, c *cli, args []string, edit familyEdit, verb string) error {
	kind, err := family.ParseKind(args[1])
	if err != nil {
		return err
	}
	if err := edit(cmd.Context(), args[0], args[2], kind); err != nil {
		return err
	}
	view := map[string]string{"pet": args[0], "kind": string(kind), "related": args[2]}
	return c.emit(cmd, view, func(w io.Writer) {
		fmt.Fprintf(w, "%s %s as %s of %s\n", verb, args[2], kind, args[0])
	})
}

func printTree(w io.Writer, t family.Tree) {
	name := func(p *types.Pet) string {
		if p == nil {
			return "-"
		}
		return fmt.Sprintf("%s (%s)", p.Name, p.ID)
	}
	names := func(pets []types.Pet) string {
		if len(pets) == 0 {
			return "-"
		}
		out := make([]string, len(pets))
		for i := range pets {
			out[i] = name(&pets[i])
		}
		return strings.Join(out, ", ")
	}
	fmt.Fprintf(w, "  mother:   %s\n", name(t.Mother))
	fmt.Fprintf(w, "  father:   %s\n", name(t.Father))
	fmt.Fprintf(w, "  mate:     %s\n", name(t.Mate))
	fmt.Fprintf(w, "  siblings: %s\n", names(t.Siblings))
	fmt.Fprintf(w, "  children: %s\n", names(t.Children))
	if len(t.Missing) > 0 {
		fmt.Fprintf(w, "  missing:  %s (run: guineapal reconcile)\n", strings.Join(t.Missing, ", "))
	}
}
