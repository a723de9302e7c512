package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/guineapal/internal/records"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

func newBondingCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bonding",
		Short: "Bonding journal: handling and play sessions",
	}

	listCmd := &cobra.Command{
		Use:   "list [pet-id]",
		Short: "List sessions, newest first, for one pet or all",
		Args:  positional(cobra.MaximumNArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			petID := ""
			if len(args) == 1 {
				petID = args[0]
			}
			sessions, err := c.app.bonding.List(cmd.Context(), petID)
			if err != nil {
				return err
			}
			if sessions == nil {
				sessions = []types.BondingSession{}
			}
			sum := records.Summarize(sessions)
			view := struct {
				Sessions []types.BondingSession `json:"sessions"`
				Summary  records.BondingSummary `json:"summary"`
			}{sessions, sum}
			return c.emit(cmd, view, func(w io.Writer) {
				if len(sessions) == 0 {
					fmt.Fprintln(w, "No bonding sessions yet.")
					return
				}
				rows := make([][]string, 0, len(sessions))
				for _, s := range sessions {
					rows = append(rows, []string{
						s.ID, s.PetID, s.Date.String(), truncate(s.Activity, 28),
						strconv.Itoa(s.DurationMinutes) + "m", strconv.Itoa(s.Responsiveness) + "/5",
					})
				}
				printTable(w, []string{"ID", "PET", "DATE", "ACTIVITY", "TIME", "RESPONSE"}, rows)
				fmt.Fprintf(w, "%d session(s), %d minute(s), average response %.1f/5\n",
					sum.Sessions, sum.TotalMinutes, sum.Responsiveness)
			})
		},
	}

	var (
		s   types.BondingSession
		day string
	)
	addCmd := &cobra.Command{
		Use:   "add <pet-id>",
		Short: "Log a bonding session",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := c.now()
			d, err := parseDay(day, now)
			if err != nil {
				return err
			}
			s.ID, s.PetID, s.Date = types.NewRecordID(now), args[0], d
			if err := c.app.bonding.Add(cmd.Context(), s); err != nil {
				return err
			}
			return c.emit(cmd, s, func(w io.Writer) {
				fmt.Fprintf(w, "Logged %d minute(s) of %s with %s\n", s.DurationMinutes, s.Activity, args[0])
			})
		},
	}
	addCmd.Flags().StringVar(&s.Activity, "activity", "lap time", "what you did together")
	addCmd.Flags().IntVar(&s.DurationMinutes, "minutes", 15, "session length in minutes")
	addCmd.Flags().IntVar(&s.Responsiveness, "response", 3, "how responsive the pet was, 1-5")
	addCmd.Flags().StringVar(&s.Notes, "notes", "", "notes")
	addCmd.Flags().StringVar(&day, "date", "", "date (default: today)")

	deleteCmd := &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete a session",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.bonding.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			return c.emit(cmd, map[string]string{"deleted": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted session %s\n", args[0])
			})
		},
	}

	cmd.AddCommand(listCmd, addCmd, deleteCmd)
	return cmd
}

func newChecklistCmd(c *cli) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "checklist",
		Short: "Daily care checklist",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			return showChecklist(cmd, c, day)
		},
	}
	cmd.PersistentFlags().StringVar(&day, "date", "", "checklist day (default: today)")

	toggleCmd := &cobra.Command{
		Use:   "toggle <task>",
		Short: "Tick or untick a task",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDay(day, c.now())
			if err != nil {
				return err
			}
			if _, err := c.app.checklist.Toggle(cmd.Context(), d.Time, args[0]); err != nil {
				return err
			}
			return showChecklist(cmd, c, day)
		},
	}

	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Untick every task for the day",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := parseDay(day, c.now())
			if err != nil {
				return err
			}
			if err := c.app.checklist.Reset(cmd.Context(), d.Time); err != nil {
				return err
			}
			return showChecklist(cmd, c, day)
		},
	}

	cmd.AddCommand(toggleCmd, resetCmd)
	return cmd
}

// checklistItem is the JSON form of one checklist row.
type checklistItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Done  bool   `json:"done"`
}

func showChecklist(cmd *cobra.Command, c *cli, day string) error {
	d, err := parseDay(day, c.now())
	if err != nil {
		return err
	}
	state, err := c.app.checklist.Load(cmd.Context(), d.Time)
	if err != nil {
		return err
	}
	done, total, err := c.app.checklist.Progress(cmd.Context(), d.Time)
	if err != nil {
		return err
	}
	items := make([]checklistItem, 0, len(records.DailyTasks))
	for _, t := range records.DailyTasks {
		items = append(items, checklistItem{ID: t.ID, Label: t.Label, Done: state[t.ID]})
	}
	view := struct {
		Date  string          `json:"date"`
		Items []checklistItem `json:"items"`
		Done  int             `json:"done"`
		Total int             `json:"total"`
	}{d.String(), items, done, total}
	return c.emit(cmd, view, func(w io.Writer) {
		fmt.Fprintf(w, "Checklist for %s: %d/%d done\n", d, done, total)
		for _, it := range items {
			box := "[ ]"
			if it.Done {
				box = "[x]"
			}
			fmt.Fprintf(w, "  %s %-13s %s\n", box, it.ID, it.Label)
		}
	})
}
