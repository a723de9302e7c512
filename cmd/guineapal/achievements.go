package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/guineapal/internal/achievements"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// achievementView is the printable form of an achievement; definitions
// carry predicate funcs that do not marshal.
type achievementView struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Unlocked    bool       `json:"unlocked"`
	UnlockedAt  *time.Time `json:"unlockedAt,omitempty"`
	Progress    int        `json:"progress"`
}

func newAchievementsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "achievements",
		Aliases: []string{"ach"},
		Short:   "Care stats and achievements",
		Args:    positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			stats, err := c.app.achievements.Stats(ctx)
			if err != nil {
				return err
			}
			statuses, err := c.app.achievements.Progress(ctx)
			if err != nil {
				return err
			}
			list := make([]achievementView, 0, len(statuses))
			for _, s := range statuses {
				list = append(list, achievementView{
					ID:          s.Def.ID,
					Title:       s.Def.Title,
					Description: s.Def.Description,
					Unlocked:    s.Unlocked,
					UnlockedAt:  s.UnlockedAt,
					Progress:    s.Progress,
				})
			}
			view := struct {
				Stats        types.Stats       `json:"stats"`
				Achievements []achievementView `json:"achievements"`
			}{stats, list}
			return c.emit(cmd, view, func(w io.Writer) {
				printStats(w, stats)
				rows := make([][]string, 0, len(list))
				for _, a := range list {
					state := progressBar(a.Progress)
					if a.Unlocked && a.UnlockedAt != nil {
						state = "unlocked " + relative(*a.UnlockedAt, c.now())
					}
					rows = append(rows, []string{a.Title, a.Description, state})
				}
				printTable(w, []string{"ACHIEVEMENT", "GOAL", "STATE"}, rows)
			})
		},
	}

	eventNames := make([]string, len(achievements.Events))
	for i, e := range achievements.Events {
		eventNames[i] = string(e)
	}
	recordCmd := &cobra.Command{
		Use:       "record <event>",
		Short:     "Record a care action: " + strings.Join(eventNames, ", "),
		Args:      positional(cobra.ExactArgs(1)),
		ValidArgs: eventNames,
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := c.app.achievements.Record(cmd.Context(), achievements.Event(args[0]))
			if err != nil {
				return err
			}
			unlocked := make([]achievementView, 0, len(out.Unlocked))
			for _, a := range out.Unlocked {
				unlocked = append(unlocked, achievementView{ID: a.ID, Title: a.Title, Description: a.Description, Unlocked: true, Progress: 100})
			}
			view := struct {
				Stats    types.Stats       `json:"stats"`
				Unlocked []achievementView `json:"unlocked"`
			}{out.Stats, unlocked}
			return c.emit(cmd, view, func(w io.Writer) {
				printStats(w, out.Stats)
				for _, a := range unlocked {
					fmt.Fprintf(w, "Achievement unlocked: %s! %s\n", a.Title, a.Description)
				}
			})
		},
	}

	cmd.AddCommand(recordCmd)
	return cmd
}

func printStats(w io.Writer, s types.Stats) {
	fmt.Fprintf(w, "happiness %d  hunger %d  health %d  energy %d\n", s.Happiness, s.Hunger, s.Health, s.Energy)
	fmt.Fprintf(w, "fed %d  played %d  cleaned %d  groomed %d  interactions %d\n",
		s.FeedCount, s.PlayCount, s.CleanCount, s.GroomCount, s.Interactions)
}

// progressBar renders 0-100 as a ten-cell bar.
func progressBar(pct int) string {
	filled := pct / 10
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", 10-filled) + "] " + strconv.Itoa(pct) + "%"
}
