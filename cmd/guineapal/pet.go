package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mesh-intelligence/guineapal/internal/care"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

func newPetCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pet",
		Short: "Manage pet profiles",
	}
	cmd.AddCommand(
		newPetListCmd(c),
		newPetShowCmd(c),
		newPetAddCmd(c),
		newPetUpdateCmd(c),
		newPetDeleteCmd(c),
		newPregnancyCmd(c),
		newPetInspectCmd(c),
		newPetRepairCmd(c),
	)
	return cmd
}

func newPetListCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all pets",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			pets := c.app.pets.Load(cmd.Context())
			now := c.now()
			return c.emit(cmd, pets, func(w io.Writer) {
				if len(pets) == 0 {
					fmt.Fprintln(w, "No pets yet. Add one with: guineapal pet add --name <name>")
					return
				}
				rows := make([][]string, 0, len(pets))
				for _, p := range pets {
					age := "-"
					if a, ok := p.AgeAt(now); ok {
						age = a.String()
					}
					weight := "-"
					if p.Weight != nil {
						weight = grams(*p.Weight)
					}
					rows = append(rows, []string{p.ID, truncate(p.Name, 24), orDash(p.Breed), orDash(p.Gender), age, weight, petFlags(p)})
				}
				printTable(w, []string{"ID", "NAME", "BREED", "GENDER", "AGE", "WEIGHT", ""}, rows)
				fmt.Fprintf(w, "Total: %d pet(s)\n", len(pets))
			})
		},
	}
}

func petFlags(p types.Pet) string {
	var flags []string
	if p.Favorite {
		flags = append(flags, "favorite")
	}
	if p.IsPregnant {
		flags = append(flags, "pregnant")
	}
	return strings.Join(flags, ",")
}

func newPetShowCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "show <pet-id>",
		Short: "Show a pet with its derived care state",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := c.now()
			ov, err := c.app.care.Overview(cmd.Context(), args[0], now)
			if err != nil {
				return err
			}
			return c.emit(cmd, ov, func(w io.Writer) { printOverview(w, ov, c) })
		},
	}
}

func printOverview(w io.Writer, ov care.Overview, c *cli) {
	p := ov.Pet
	now := c.now()
	fmt.Fprintf(w, "%s (%s)\n", p.Name, p.ID)
	fmt.Fprintf(w, "  breed:   %s\n", orDash(p.Breed))
	fmt.Fprintf(w, "  gender:  %s\n", orDash(p.Gender))
	if ov.Age != nil {
		fmt.Fprintf(w, "  age:     %s (born %s)\n", ov.Age, p.BirthDate)
	}
	if p.Weight != nil {
		fmt.Fprintf(w, "  weight:  %s\n", grams(*p.Weight))
	}
	if p.LastVetVisit != nil {
		fmt.Fprintf(w, "  vet:     last visit %s\n", dayLabel(*p.LastVetVisit, now))
	}
	if ov.DaysUntilDue != nil {
		fmt.Fprintf(w, "  pregnant: due %s, %d day(s) left\n", p.ExpectedDueDate, *ov.DaysUntilDue)
	}
	if p.Notes != "" {
		fmt.Fprintf(w, "  notes:   %s\n", p.Notes)
	}

	if ov.Weight.Latest != nil {
		line := fmt.Sprintf("  latest weigh-in: %s on %s", grams(ov.Weight.Latest.Weight), ov.Weight.Latest.Date)
		if ov.Weight.Previous != nil {
			line += fmt.Sprintf(" (%+.0f g)", ov.Weight.Delta)
		}
		fmt.Fprintln(w, line)
		if ov.Weight.Losing(weightLossAlert) {
			fmt.Fprintln(w, "  warning: weight dropped noticeably since the previous weigh-in")
		}
	}
	for _, m := range ov.Medications {
		fmt.Fprintf(w, "  medication: %s %s %s\n", m.Name, m.Dosage, m.Frequency)
	}
	for _, a := range ov.Appointments {
		fmt.Fprintf(w, "  appointment: %s %s with %s (%s)\n", dayLabel(a.Date, now), a.Time, a.VetName, a.Reason)
	}
	if len(ov.DueTasks) > 0 {
		fmt.Fprintf(w, "  care due: %s\n", strings.Join(ov.DueTasks, ", "))
	}
	printTree(w, ov.Family)
}

// weightLossAlert is the percentage drop between weigh-ins that is flagged.
const weightLossAlert = 5

// petFields binds the editable pet flags.
type petFields struct {
	id, name, breed, gender, color, birth, vetVisit, notes, image string
	weight                                                        float64
	favorite                                                      bool
}

func (f *petFields) bind(fs *pflag.FlagSet) {
	fs.StringVar(&f.name, "name", "", "pet name")
	fs.StringVar(&f.breed, "breed", "", "breed")
	fs.StringVar(&f.gender, "gender", "", "gender (male, female, unknown)")
	fs.StringVar(&f.color, "color", "", "coat color")
	fs.StringVar(&f.birth, "birth", "", "birth date (YYYY-MM-DD)")
	fs.StringVar(&f.vetVisit, "last-vet-visit", "", "last vet visit (YYYY-MM-DD)")
	fs.StringVar(&f.notes, "notes", "", "free-form notes")
	fs.StringVar(&f.image, "image", "", "image URI")
	fs.Float64Var(&f.weight, "weight", 0, "weight in grams")
	fs.BoolVar(&f.favorite, "favorite", false, "mark as favorite")
}

// apply copies every flag that was set on fs into p.
func (f *petFields) apply(fs *pflag.FlagSet, p *types.Pet) error {
	var err error
	if fs.Changed("name") {
		p.Name = f.name
	}
	if fs.Changed("breed") {
		p.Breed = f.breed
	}
	if fs.Changed("gender") {
		switch f.gender {
		case "", types.GenderMale, types.GenderFemale, types.GenderUnknown:
			p.Gender = f.gender
		default:
			return fmt.Errorf("%w: gender must be male, female or unknown", types.ErrInvalidData)
		}
	}
	if fs.Changed("color") {
		p.Color = f.color
	}
	if fs.Changed("birth") {
		if p.BirthDate, err = types.DatePtr(f.birth); err != nil {
			return err
		}
	}
	if fs.Changed("last-vet-visit") {
		if p.LastVetVisit, err = types.DatePtr(f.vetVisit); err != nil {
			return err
		}
	}
	if fs.Changed("notes") {
		p.Notes = f.notes
	}
	if fs.Changed("image") {
		if f.image == "" {
			p.ImageURI = nil
		} else {
			img := f.image
			p.ImageURI = &img
		}
	}
	if fs.Changed("weight") {
		if f.weight < 0 {
			return fmt.Errorf("%w: weight must not be negative", types.ErrInvalidRange)
		}
		w := f.weight
		p.Weight = &w
	}
	if fs.Changed("favorite") {
		p.Favorite = f.favorite
	}
	return nil
}

func newPetAddCmd(c *cli) *cobra.Command {
	var f petFields
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a pet",
		Long: `Add creates a pet profile. The id defaults to the current time in
milliseconds.

Example:
  guineapal pet add --name Hazel --breed Abyssinian --gender female --birth 2023-03-01`,
		Args: positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			now := c.now()
			p := types.Pet{ID: f.id, Gender: types.GenderUnknown}
			if p.ID == "" {
				p.ID = types.NewPetID(now)
			}
			if err := f.apply(cmd.Flags(), &p); err != nil {
				return err
			}
			ctx := cmd.Context()
			exists, err := c.app.pets.Exists(ctx, p.ID)
			if err != nil {
				return err
			}
			if exists {
				return fmt.Errorf("pet %q: %w", p.ID, types.ErrDuplicateID)
			}
			saved, err := c.app.pets.AddOrUpdate(ctx, p)
			if err != nil {
				return err
			}
			return c.emit(cmd, saved, func(w io.Writer) {
				fmt.Fprintf(w, "Added %s (%s)\n", saved.Name, saved.ID)
			})
		},
	}
	f.bind(cmd.Flags())
	cmd.Flags().StringVar(&f.id, "id", "", "explicit pet id")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newPetUpdateCmd(c *cli) *cobra.Command {
	var f petFields
	cmd := &cobra.Command{
		Use:   "update <pet-id>",
		Short: "Update fields of a pet",
		Long: `Update changes only the fields whose flags are given.

Example:
  guineapal pet update 1717236000000 --weight 1040 --favorite`,
		Args: positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := c.app.pets.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if err := f.apply(cmd.Flags(), &p); err != nil {
				return err
			}
			saved, err := c.app.pets.AddOrUpdate(ctx, p)
			if err != nil {
				return err
			}
			return c.emit(cmd, saved, func(w io.Writer) {
				fmt.Fprintf(w, "Updated %s (%s)\n", saved.Name, saved.ID)
			})
		},
	}
	f.bind(cmd.Flags())
	return cmd
}

func newPetDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <pet-id>",
		Short: "Delete a pet and everything recorded for it",
		Long: `Delete removes the pet, clears every family link that points at it and
purges its health, care and bonding records.`,
		Args: positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.app.care.DeletePet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if !res.Removed {
				return fmt.Errorf("pet %q: %w", args[0], types.ErrNotFound)
			}
			return c.emit(cmd, res, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted pet %s (%d family link(s) cleared, %d bonding session(s) removed)\n",
					args[0], res.Severed, res.Sessions)
			})
		},
	}
}

func newPregnancyCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pregnancy",
		Short: "Track a pregnancy",
	}

	var start, notes string
	startCmd := &cobra.Command{
		Use:   "start <pet-id>",
		Short: "Mark a pet pregnant; the due date is 68 days after the start",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := c.app.pets.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if p.Gender == types.GenderMale {
				return fmt.Errorf("pet %q is male: %w", p.ID, types.ErrIneligible)
			}
			day, err := parseDay(start, c.now())
			if err != nil {
				return err
			}
			p.StartPregnancy(day, notes)
			saved, err := c.app.pets.AddOrUpdate(ctx, p)
			if err != nil {
				return err
			}
			return c.emit(cmd, saved, func(w io.Writer) {
				fmt.Fprintf(w, "%s is expected to be due %s\n", saved.Name, dayLabel(*saved.ExpectedDueDate, c.now()))
			})
		},
	}
	startCmd.Flags().StringVar(&start, "start", "", "pregnancy start date (default: today)")
	startCmd.Flags().StringVar(&notes, "notes", "", "pregnancy notes")

	endCmd := &cobra.Command{
		Use:   "end <pet-id>",
		Short: "Clear a pet's pregnancy",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			p, err := c.app.pets.Get(ctx, args[0])
			if err != nil {
				return err
			}
			p.EndPregnancy()
			saved, err := c.app.pets.AddOrUpdate(ctx, p)
			if err != nil {
				return err
			}
			return c.emit(cmd, saved, func(w io.Writer) {
				fmt.Fprintf(w, "Cleared pregnancy for %s\n", saved.Name)
			})
		},
	}

	cmd.AddCommand(startCmd, endCmd)
	return cmd
}

// inspectView is the JSON form of pet inspect.
type inspectView struct {
	Source      string `json:"source"`
	Pets        int    `json:"pets"`
	Dropped     int    `json:"dropped"`
	NeedsRepair bool   `json:"needsRepair"`
	LastSync    string `json:"lastSync,omitempty"`
}

func newPetInspectCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect",
		Short: "Report the health of the stored pet list",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			snap, err := c.app.pets.Inspect(ctx)
			if err != nil {
				return err
			}
			view := inspectView{
				Source:      string(snap.Source),
				Pets:        len(snap.Pets),
				Dropped:     snap.Dropped,
				NeedsRepair: snap.NeedsRepair(),
			}
			synced, ok, err := c.app.pets.LastSync(ctx)
			if err != nil {
				return err
			}
			lastSync := "never"
			if ok {
				view.LastSync = synced.Format(time.RFC3339)
				lastSync = relative(synced, c.now())
			}
			return c.emit(cmd, view, func(w io.Writer) {
				fmt.Fprintf(w, "source:    %s\n", view.Source)
				fmt.Fprintf(w, "pets:      %d\n", view.Pets)
				fmt.Fprintf(w, "dropped:   %d\n", view.Dropped)
				fmt.Fprintf(w, "last sync: %s\n", lastSync)
				if view.NeedsRepair {
					fmt.Fprintln(w, "The stored list differs from what loads; run: guineapal pet repair")
				}
			})
		},
	}
}

func newPetRepairCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "repair",
		Short: "Rewrite the pet list from what loads cleanly",
		Args:  positional(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.app.pets.Repair(cmd.Context())
			if err != nil {
				return err
			}
			view := struct {
				Source   string `json:"source"`
				Pets     int    `json:"pets"`
				Dropped  int    `json:"dropped"`
				Repaired bool   `json:"repaired"`
			}{string(snap.Source), len(snap.Pets), snap.Dropped, snap.NeedsRepair()}
			return c.emit(cmd, view, func(w io.Writer) {
				if !snap.NeedsRepair() {
					fmt.Fprintln(w, "Pet list is healthy; nothing to repair")
					return
				}
				fmt.Fprintf(w, "Rewrote %d pet(s) from %s (%d dropped)\n", len(snap.Pets), snap.Source, snap.Dropped)
			})
		},
	}
}
