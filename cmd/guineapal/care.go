package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/guineapal/pkg/types"
)

func newCareCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "care",
		Short: "Recurring care schedule: cage cleaning, nail trims, baths, checkups",
	}

	showCmd := &cobra.Command{
		Use:   "show <pet-id>",
		Short: "Show the care schedule and what is due",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			sched, err := loadCareSchedule(cmd, c, args[0])
			if err != nil {
				return err
			}
			now := c.now()
			due := sched.DueTasks(now)
			view := struct {
				Schedule types.CareSchedule `json:"schedule"`
				Due      []string           `json:"due"`
			}{sched, due}
			return c.emit(cmd, view, func(w io.Writer) {
				rows := [][]string{}
				for _, t := range []struct {
					name string
					task types.CareTask
				}{
					{types.CareCageCleaning, sched.CageCleaning},
					{types.CareNailTrim, sched.NailTrim},
					{types.CareBath, sched.Bath},
					{types.CareVetCheckup, sched.VetCheckup},
				} {
					every, last := "off", "never"
					if t.task.IntervalDays > 0 {
						every = strconv.Itoa(t.task.IntervalDays) + "d"
					}
					if t.task.LastDone != nil {
						last = dayLabel(*t.task.LastDone, now)
					}
					rows = append(rows, []string{t.name, every, last, yesNo(t.task.Due(now))})
				}
				printTable(w, []string{"TASK", "EVERY", "LAST DONE", "DUE"}, rows)
			})
		},
	}

	var cage, nails, bath, vet int
	var notes string
	setCmd := &cobra.Command{
		Use:   "set <pet-id>",
		Short: "Change care intervals in days (0 disables a task)",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			sched, err := loadCareSchedule(cmd, c, args[0])
			if err != nil {
				return err
			}
			fs := cmd.Flags()
			for _, f := range []struct {
				flag string
				val  int
				task *types.CareTask
			}{
				{"cage-cleaning", cage, &sched.CageCleaning},
				{"nail-trim", nails, &sched.NailTrim},
				{"bath", bath, &sched.Bath},
				{"vet-checkup", vet, &sched.VetCheckup},
			} {
				if !fs.Changed(f.flag) {
					continue
				}
				if f.val < 0 {
					return fmt.Errorf("%w: --%s must not be negative", types.ErrInvalidRange, f.flag)
				}
				f.task.IntervalDays = f.val
			}
			if fs.Changed("notes") {
				sched.Notes = notes
			}
			if err := c.app.records.Care.Save(cmd.Context(), args[0], sched); err != nil {
				return err
			}
			return c.emit(cmd, sched, func(w io.Writer) {
				fmt.Fprintf(w, "Saved care schedule for %s\n", args[0])
			})
		},
	}
	setCmd.Flags().IntVar(&cage, "cage-cleaning", 0, "days between full cage cleans")
	setCmd.Flags().IntVar(&nails, "nail-trim", 0, "days between nail trims")
	setCmd.Flags().IntVar(&bath, "bath", 0, "days between baths")
	setCmd.Flags().IntVar(&vet, "vet-checkup", 0, "days between vet checkups")
	setCmd.Flags().StringVar(&notes, "notes", "", "notes")

	var day string
	doneCmd := &cobra.Command{
		Use:   "done <pet-id> <task>",
		Short: "Record a care task as done (cage_cleaning, nail_trim, bath, vet_checkup)",
		Args:  positional(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			sched, err := loadCareSchedule(cmd, c, args[0])
			if err != nil {
				return err
			}
			d, err := parseDay(day, c.now())
			if err != nil {
				return err
			}
			if err := sched.MarkDone(args[1], d); err != nil {
				return err
			}
			if err := c.app.records.Care.Save(cmd.Context(), args[0], sched); err != nil {
				return err
			}
			return c.emit(cmd, sched, func(w io.Writer) {
				fmt.Fprintf(w, "Marked %s done on %s\n", args[1], d)
			})
		},
	}
	doneCmd.Flags().StringVar(&day, "date", "", "date done (default: today)")

	cmd.AddCommand(showCmd, setCmd, doneCmd)
	return cmd
}

// loadCareSchedule returns the stored schedule or the defaults for a pet
// that has none yet.
func loadCareSchedule(cmd *cobra.Command, c *cli, petID string) (types.CareSchedule, error) {
	ctx := cmd.Context()
	if _, err := c.app.pets.Get(ctx, petID); err != nil {
		return types.CareSchedule{}, err
	}
	sched, ok, err := c.app.records.Care.Load(ctx, petID)
	if err != nil {
		return types.CareSchedule{}, err
	}
	if !ok {
		return types.DefaultCareSchedule(petID), nil
	}
	return sched, nil
}

func newDietCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "diet",
		Short: "Food likes, dislikes and allergies",
	}

	showCmd := &cobra.Command{
		Use:   "show <pet-id>",
		Short: "Show diet preferences",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			prefs, ok, err := c.app.records.Diet.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !ok {
				prefs = types.DietPreferences{PetID: args[0]}
			}
			return c.emit(cmd, prefs, func(w io.Writer) {
				fmt.Fprintf(w, "favorites: %s\n", orDash(strings.Join(prefs.Favorites, ", ")))
				fmt.Fprintf(w, "dislikes:  %s\n", orDash(strings.Join(prefs.Dislikes, ", ")))
				fmt.Fprintf(w, "allergies: %s\n", orDash(strings.Join(prefs.Allergies, ", ")))
				fmt.Fprintf(w, "pellets:   %s\n", orDash(prefs.PelletBrand))
				fmt.Fprintf(w, "hay:       %s\n", orDash(prefs.HayType))
				if prefs.Notes != "" {
					fmt.Fprintf(w, "notes:     %s\n", prefs.Notes)
				}
			})
		},
	}

	var in types.DietPreferences
	setCmd := &cobra.Command{
		Use:   "set <pet-id>",
		Short: "Change diet preferences; lists given replace the stored ones",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			prefs, _, err := c.app.records.Diet.Load(ctx, args[0])
			if err != nil {
				return err
			}
			prefs.PetID = args[0]
			fs := cmd.Flags()
			if fs.Changed("favorites") {
				prefs.Favorites = in.Favorites
			}
			if fs.Changed("dislikes") {
				prefs.Dislikes = in.Dislikes
			}
			if fs.Changed("allergies") {
				prefs.Allergies = in.Allergies
			}
			if fs.Changed("pellets") {
				prefs.PelletBrand = in.PelletBrand
			}
			if fs.Changed("hay") {
				prefs.HayType = in.HayType
			}
			if fs.Changed("notes") {
				prefs.Notes = in.Notes
			}
			if err := c.app.records.Diet.Save(ctx, args[0], prefs); err != nil {
				return err
			}
			return c.emit(cmd, prefs, func(w io.Writer) {
				fmt.Fprintf(w, "Saved diet preferences for %s\n", args[0])
			})
		},
	}
	setCmd.Flags().StringSliceVar(&in.Favorites, "favorites", nil, "favorite foods")
	setCmd.Flags().StringSliceVar(&in.Dislikes, "dislikes", nil, "disliked foods")
	setCmd.Flags().StringSliceVar(&in.Allergies, "allergies", nil, "foods to avoid")
	setCmd.Flags().StringVar(&in.PelletBrand, "pellets", "", "pellet brand")
	setCmd.Flags().StringVar(&in.HayType, "hay", "", "hay type")
	setCmd.Flags().StringVar(&in.Notes, "notes", "", "notes")

	cmd.AddCommand(showCmd, setCmd)
	return cmd
}

func newFeedingCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feeding",
		Short: "Daily feeding schedule",
	}

	showCmd := &cobra.Command{
		Use:   "show <pet-id>",
		Short: "Show the feeding schedule and the next meal",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			sched, _, err := c.app.records.Feeding.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			sched.PetID = args[0]
			return c.emit(cmd, sched, func(w io.Writer) {
				if len(sched.Feedings) == 0 {
					fmt.Fprintf(w, "No feedings scheduled for %s.\n", args[0])
					return
				}
				rows := make([][]string, 0, len(sched.Feedings))
				for _, f := range sched.Feedings {
					rows = append(rows, []string{f.Time, f.Food, orDash(f.Amount)})
				}
				printTable(w, []string{"TIME", "FOOD", "AMOUNT"}, rows)
				if next, ok := sched.Next(c.now()); ok {
					fmt.Fprintf(w, "Next: %s at %s\n", next.Food, next.Time)
				}
				if sched.VitaminC {
					fmt.Fprintln(w, "Vitamin C supplement: yes")
				}
			})
		},
	}

	var (
		feed     types.Feeding
		vitaminC bool
	)
	addCmd := &cobra.Command{
		Use:   "add <pet-id>",
		Short: "Add a meal to the schedule",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			sched, _, err := c.app.records.Feeding.Load(ctx, args[0])
			if err != nil {
				return err
			}
			sched.PetID = args[0]
			sched.Feedings = append(sched.Feedings, feed)
			if cmd.Flags().Changed("vitamin-c") {
				sched.VitaminC = vitaminC
			}
			if err := c.app.records.Feeding.Save(ctx, args[0], sched); err != nil {
				return err
			}
			return c.emit(cmd, sched, func(w io.Writer) {
				fmt.Fprintf(w, "Added %s at %s for %s\n", feed.Food, feed.Time, args[0])
			})
		},
	}
	addCmd.Flags().StringVar(&feed.Time, "time", "", "time of day (HH:MM)")
	addCmd.Flags().StringVar(&feed.Food, "food", "", "what is served")
	addCmd.Flags().StringVar(&feed.Amount, "amount", "", "how much")
	addCmd.Flags().BoolVar(&vitaminC, "vitamin-c", false, "pet gets a vitamin C supplement")
	_ = addCmd.MarkFlagRequired("time")
	_ = addCmd.MarkFlagRequired("food")

	clearCmd := &cobra.Command{
		Use:   "clear <pet-id>",
		Short: "Remove the feeding schedule",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.records.Feeding.Purge(cmd.Context(), args[0]); err != nil {
				return err
			}
			return c.emit(cmd, map[string]string{"cleared": args[0]}, func(w io.Writer) {
				fmt.Fprintf(w, "Cleared feeding schedule for %s\n", args[0])
			})
		},
	}

	cmd.AddCommand(showCmd, addCmd, clearCmd)
	return cmd
}
