package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/mesh-intelligence/guineapal/internal/records"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// recordKind describes the CLI surface of one per-pet record list.
type recordKind[T types.Record] struct {
	use   string
	short string
	list  func(a *app) *records.List[T]
	date  func(T) types.Date

	header []string
	row    func(rec T, now time.Time) []string

	// bind registers the add flags and returns the builder for a new record.
	bind func(fs *pflag.FlagSet) func(petID, id string, day types.Date) (T, error)

	// current narrows list output under --current.
	current     func(list []T, now time.Time) []T
	currentHelp string

	// footer prints a summary below the table.
	footer func(w io.Writer, list []T)
}

func newRecordCmds(c *cli) []*cobra.Command {
	return []*cobra.Command{
		newRecordCmd(c, healthKind),
		withExtra(newRecordCmd(c, medicationKind), newMedicationStopCmd(c)),
		withExtra(newRecordCmd(c, appointmentKind), newAppointmentCompleteCmd(c)),
		newRecordCmd(c, weightKind),
		newRecordCmd(c, moodKind),
		newRecordCmd(c, wasteKind),
	}
}

func withExtra(parent *cobra.Command, extra ...*cobra.Command) *cobra.Command {
	parent.AddCommand(extra...)
	return parent
}

func newRecordCmd[T types.Record](c *cli, k recordKind[T]) *cobra.Command {
	cmd := &cobra.Command{
		Use:   k.use,
		Short: k.short,
	}

	var current bool
	listCmd := &cobra.Command{
		Use:   "list <pet-id>",
		Short: "List records for a pet, newest first",
		Args:  positional(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			list, err := k.list(c.app).Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			now := c.now()
			if current && k.current != nil {
				list = k.current(list, now)
			} else {
				records.NewestFirst(list, k.date)
			}
			if list == nil {
				list = []T{}
			}
			return c.emit(cmd, list, func(w io.Writer) {
				if len(list) == 0 {
					fmt.Fprintf(w, "No %s records for %s.\n", k.use, args[0])
					return
				}
				rows := make([][]string, 0, len(list))
				for _, rec := range list {
					rows = append(rows, k.row(rec, now))
				}
				printTable(w, k.header, rows)
				if k.footer != nil {
					k.footer(w, list)
				}
			})
		},
	}
	if k.current != nil {
		listCmd.Flags().BoolVar(&current, "current", false, k.currentHelp)
	}

	var day string
	addCmd := &cobra.Command{
		Use:   "add <pet-id>",
		Short: "Add a record for a pet",
		Args:  positional(cobra.ExactArgs(1)),
	}
	build := k.bind(addCmd.Flags())
	addCmd.Flags().StringVar(&day, "date", "", "date (YYYY-MM-DD, default: today)")
	addCmd.RunE = func(cmd *cobra.Command, args []string) error {
		now := c.now()
		d, err := parseDay(day, now)
		if err != nil {
			return err
		}
		rec, err := build(args[0], types.NewRecordID(now), d)
		if err != nil {
			return err
		}
		if err := k.list(c.app).Save(cmd.Context(), args[0], rec); err != nil {
			return err
		}
		return c.emit(cmd, rec, func(w io.Writer) {
			fmt.Fprintf(w, "Added %s record %s for %s\n", k.use, rec.RecordID(), args[0])
		})
	}

	deleteCmd := &cobra.Command{
		Use:   "delete <pet-id> <record-id>",
		Short: "Delete a record",
		Args:  positional(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := k.list(c.app).Delete(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			return c.emit(cmd, map[string]string{"deleted": args[1]}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted %s record %s\n", k.use, args[1])
			})
		},
	}

	cmd.AddCommand(listCmd, addCmd, deleteCmd)
	return cmd
}

var healthKind = recordKind[types.HealthRecord]{
	use:    "health",
	short:  "Health events: checkups, illness, injuries, vaccinations",
	list:   func(a *app) *records.List[types.HealthRecord] { return a.records.Health },
	date:   func(r types.HealthRecord) types.Date { return r.Date },
	header: []string{"ID", "DATE", "TYPE", "DESCRIPTION", "VET"},
	row: func(r types.HealthRecord, now time.Time) []string {
		return []string{r.ID, r.Date.String(), r.Type, truncate(r.Description, 40), orDash(r.VetName)}
	},
	bind: func(fs *pflag.FlagSet) func(petID, id string, day types.Date) (types.HealthRecord, error) {
		var r types.HealthRecord
		fs.StringVar(&r.Type, "type", types.HealthCheckup, "checkup, illness, injury, vaccination or other")
		fs.StringVar(&r.Description, "description", "", "what happened")
		fs.StringVar(&r.Treatment, "treatment", "", "treatment given")
		fs.StringVar(&r.VetName, "vet", "", "vet name")
		fs.StringVar(&r.Notes, "notes", "", "notes")
		return func(petID, id string, day types.Date) (types.HealthRecord, error) {
			switch r.Type {
			case types.HealthCheckup, types.HealthIllness, types.HealthInjury, types.HealthVaccination, types.HealthOther:
			default:
				return r, fmt.Errorf("%w: unknown health record type %q", types.ErrInvalidData, r.Type)
			}
			r.ID, r.PetID, r.Date = id, petID, day
			return r, nil
		}
	},
}

var medicationKind = recordKind[types.Medication]{
	use:    "medication",
	short:  "Medication courses",
	list:   func(a *app) *records.List[types.Medication] { return a.records.Medications },
	date:   func(m types.Medication) types.Date { return m.StartDate },
	header: []string{"ID", "NAME", "DOSAGE", "FREQUENCY", "START", "END", "ACTIVE"},
	row: func(m types.Medication, now time.Time) []string {
		end := "-"
		if m.EndDate != nil {
			end = m.EndDate.String()
		}
		return []string{m.ID, m.Name, orDash(m.Dosage), orDash(m.Frequency), m.StartDate.String(), end, yesNo(m.ActiveOn(now))}
	},
	bind: func(fs *pflag.FlagSet) func(petID, id string, day types.Date) (types.Medication, error) {
		var (
			m   types.Medication
			end string
		)
		fs.StringVar(&m.Name, "name", "", "medication name")
		fs.StringVar(&m.Dosage, "dosage", "", "dosage, e.g. 0.1 ml")
		fs.StringVar(&m.Frequency, "frequency", "", "frequency, e.g. twice daily")
		fs.StringVar(&end, "end", "", "last day of the course (YYYY-MM-DD)")
		fs.BoolVar(&m.ReminderEnabled, "reminder", false, "enable reminders")
		fs.StringVar(&m.Notes, "notes", "", "notes")
		return func(petID, id string, day types.Date) (types.Medication, error) {
			var err error
			if m.EndDate, err = types.DatePtr(end); err != nil {
				return m, err
			}
			m.ID, m.PetID, m.StartDate, m.Active = id, petID, day, true
			return m, nil
		}
	},
	current:     records.ActiveMedications,
	currentHelp: "only medications active today",
}

var appointmentKind = recordKind[types.VetAppointment]{
	use:    "appointment",
	short:  "Vet appointments",
	list:   func(a *app) *records.List[types.VetAppointment] { return a.records.Appointments },
	date:   func(a types.VetAppointment) types.Date { return a.Date },
	header: []string{"ID", "DATE", "TIME", "VET", "REASON", "DONE"},
	row: func(a types.VetAppointment, now time.Time) []string {
		return []string{a.ID, dayLabel(a.Date, now), orDash(a.Time), a.VetName, truncate(a.Reason, 32), yesNo(a.Completed)}
	},
	bind: func(fs *pflag.FlagSet) func(petID, id string, day types.Date) (types.VetAppointment, error) {
		var a types.VetAppointment
		fs.StringVar(&a.Time, "time", "", "time (HH:MM)")
		fs.StringVar(&a.VetName, "vet", "", "vet name")
		fs.StringVar(&a.Clinic, "clinic", "", "clinic")
		fs.StringVar(&a.Reason, "reason", "", "reason for the visit")
		fs.StringVar(&a.Notes, "notes", "", "notes")
		return func(petID, id string, day types.Date) (types.VetAppointment, error) {
			if a.Time != "" {
				if _, err := time.Parse("15:04", a.Time); err != nil {
					return a, fmt.Errorf("%w: time %q must be HH:MM", types.ErrInvalidData, a.Time)
				}
			}
			a.ID, a.PetID, a.Date = id, petID, day
			return a, nil
		}
	},
	current:     records.UpcomingAppointments,
	currentHelp: "only upcoming appointments, soonest first",
}

var weightKind = recordKind[types.WeightRecord]{
	use:    "weight",
	short:  "Weigh-ins in grams",
	list:   func(a *app) *records.List[types.WeightRecord] { return a.records.Weights },
	date:   func(r types.WeightRecord) types.Date { return r.Date },
	header: []string{"ID", "DATE", "WEIGHT", "NOTES"},
	row: func(r types.WeightRecord, now time.Time) []string {
		return []string{r.ID, r.Date.String(), grams(r.Weight), orDash(truncate(r.Notes, 32))}
	},
	bind: func(fs *pflag.FlagSet) func(petID, id string, day types.Date) (types.WeightRecord, error) {
		var r types.WeightRecord
		fs.Float64Var(&r.Weight, "grams", 0, "weight in grams")
		fs.StringVar(&r.Notes, "notes", "", "notes")
		return func(petID, id string, day types.Date) (types.WeightRecord, error) {
			r.ID, r.PetID, r.Date = id, petID, day
			return r, nil
		}
	},
	footer: func(w io.Writer, list []types.WeightRecord) {
		t := records.WeightTrend(list)
		if t.Previous == nil {
			return
		}
		fmt.Fprintf(w, "Change since previous weigh-in: %+.0f g\n", t.Delta)
		if t.Losing(weightLossAlert) {
			fmt.Fprintln(w, "Warning: weight dropped noticeably; consider a vet check")
		}
	},
}

var moodKind = recordKind[types.MoodEntry]{
	use:    "mood",
	short:  "Mood and energy observations",
	list:   func(a *app) *records.List[types.MoodEntry] { return a.records.Moods },
	date:   func(e types.MoodEntry) types.Date { return e.Date },
	header: []string{"ID", "DATE", "MOOD", "ENERGY", "NOTES"},
	row: func(e types.MoodEntry, now time.Time) []string {
		return []string{e.ID, e.Date.String(), e.Mood, strconv.Itoa(e.Energy) + "/5", orDash(truncate(e.Notes, 32))}
	},
	bind: func(fs *pflag.FlagSet) func(petID, id string, day types.Date) (types.MoodEntry, error) {
		var e types.MoodEntry
		fs.StringVar(&e.Mood, "mood", types.MoodContent, "happy, content, neutral, anxious, sad or sick")
		fs.IntVar(&e.Energy, "energy", 3, "energy level 1-5")
		fs.StringVar(&e.Notes, "notes", "", "notes")
		return func(petID, id string, day types.Date) (types.MoodEntry, error) {
			e.ID, e.PetID, e.Date = id, petID, day
			return e, nil
		}
	},
}

var wasteKind = recordKind[types.WasteLog]{
	use:    "waste",
	short:  "Droppings and urine observations",
	list:   func(a *app) *records.List[types.WasteLog] { return a.records.Waste },
	date:   func(l types.WasteLog) types.Date { return l.Date },
	header: []string{"ID", "DATE", "KIND", "CONSISTENCY", "COLOR", "CONCERNING"},
	row: func(l types.WasteLog, now time.Time) []string {
		return []string{l.ID, l.Date.String(), l.Kind, orDash(l.Consistency), orDash(l.Color), yesNo(l.Concerning)}
	},
	bind: func(fs *pflag.FlagSet) func(petID, id string, day types.Date) (types.WasteLog, error) {
		var l types.WasteLog
		fs.StringVar(&l.Kind, "kind", types.WasteDroppings, "droppings or urine")
		fs.StringVar(&l.Consistency, "consistency", "normal", "consistency")
		fs.StringVar(&l.Color, "color", "", "color")
		fs.BoolVar(&l.Concerning, "concerning", false, "flag as concerning")
		fs.StringVar(&l.Notes, "notes", "", "notes")
		return func(petID, id string, day types.Date) (types.WasteLog, error) {
			l.ID, l.PetID, l.Date = id, petID, day
			return l, nil
		}
	},
}

// findRecord returns the record with id from the pet's list.
func findRecord[T types.Record](cmd *cobra.Command, l *records.List[T], petID, id string) (T, error) {
	var zero T
	list, err := l.Load(cmd.Context(), petID)
	if err != nil {
		return zero, err
	}
	for _, rec := range list {
		if rec.RecordID() == id {
			return rec, nil
		}
	}
	return zero, fmt.Errorf("record %q: %w", id, types.ErrNotFound)
}

func newMedicationStopCmd(c *cli) *cobra.Command {
	var day string
	cmd := &cobra.Command{
		Use:   "stop <pet-id> <record-id>",
		Short: "End a medication course",
		Args:  positional(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			meds := c.app.records.Medications
			m, err := findRecord(cmd, meds, args[0], args[1])
			if err != nil {
				return err
			}
			end, err := parseDay(day, c.now())
			if err != nil {
				return err
			}
			m.Active = false
			m.EndDate = &end
			if err := meds.Update(cmd.Context(), args[0], m); err != nil {
				return err
			}
			return c.emit(cmd, m, func(w io.Writer) {
				fmt.Fprintf(w, "Stopped %s on %s\n", m.Name, end)
			})
		},
	}
	cmd.Flags().StringVar(&day, "date", "", "last day of the course (default: today)")
	return cmd
}

func newAppointmentCompleteCmd(c *cli) *cobra.Command {
	var notes string
	cmd := &cobra.Command{
		Use:   "complete <pet-id> <record-id>",
		Short: "Mark an appointment as done",
		Args:  positional(cobra.ExactArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			appts := c.app.records.Appointments
			a, err := findRecord(cmd, appts, args[0], args[1])
			if err != nil {
				return err
			}
			a.Completed = true
			if notes != "" {
				a.Notes = notes
			}
			if err := appts.Update(ctx, args[0], a); err != nil {
				return err
			}

			// The visit becomes the pet's last vet visit when it is the latest.
			p, err := c.app.pets.Get(ctx, args[0])
			if err != nil {
				return err
			}
			if p.LastVetVisit == nil || p.LastVetVisit.Before(a.Date.Time) {
				visit := a.Date
				p.LastVetVisit = &visit
				if _, err := c.app.pets.AddOrUpdate(ctx, p); err != nil {
					return err
				}
			}
			return c.emit(cmd, a, func(w io.Writer) {
				fmt.Fprintf(w, "Completed appointment %s with %s\n", a.ID, a.VetName)
			})
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "visit notes")
	return cmd
}
