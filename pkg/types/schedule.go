// Per-pet singleton configuration: care intervals, diet preferences and the
// feeding schedule. Each is overwritten wholesale on save.
package types

import (
	"fmt"
	"time"
)

// Care task names used by CareSchedule.DueTasks.
const (
	CareCageCleaning = "cage_cleaning"
	CareNailTrim     = "nail_trim"
	CareBath         = "bath"
	CareVetCheckup   = "vet_checkup"
)

// CareTask is one recurring task: every IntervalDays days since LastDone.
// An IntervalDays of zero disables the task.
type CareTask struct {
	IntervalDays int   `json:"intervalDays"`
	LastDone     *Date `json:"lastDone,omitempty"`
}

// Due reports whether the task is due on now's calendar day. A task that
// has never been done is due immediately.
func (t CareTask) Due(now time.Time) bool {
	if t.IntervalDays <= 0 {
		return false
	}
	if t.LastDone == nil {
		return true
	}
	return t.LastDone.AddDays(t.IntervalDays).DaysUntil(now) <= 0
}

// CareSchedule holds recurring care intervals for one pet.
type CareSchedule struct {
	PetID        string   `json:"petId"`
	CageCleaning CareTask `json:"cageCleaning"`
	NailTrim     CareTask `json:"nailTrim"`
	Bath         CareTask `json:"bath"`
	VetCheckup   CareTask `json:"vetCheckup"`
	Notes        string   `json:"notes,omitempty"`
}

// DefaultCareSchedule returns the intervals suggested for a new pet.
func DefaultCareSchedule(petID string) CareSchedule {
	return CareSchedule{
		PetID:        petID,
		CageCleaning: CareTask{IntervalDays: 7},
		NailTrim:     CareTask{IntervalDays: 30},
		Bath:         CareTask{IntervalDays: 0},
		VetCheckup:   CareTask{IntervalDays: 365},
	}
}

// DueTasks returns the names of tasks due on now's calendar day.
func (s CareSchedule) DueTasks(now time.Time) []string {
	var due []string
	for _, t := range []struct {
		name string
		task CareTask
	}{
		{CareCageCleaning, s.CageCleaning},
		{CareNailTrim, s.NailTrim},
		{CareBath, s.Bath},
		{CareVetCheckup, s.VetCheckup},
	} {
		if t.task.Due(now) {
			due = append(due, t.name)
		}
	}
	return due
}

// MarkDone records task as done on day.
func (s *CareSchedule) MarkDone(task string, day Date) error {
	switch task {
	case CareCageCleaning:
		s.CageCleaning.LastDone = &day
	case CareNailTrim:
		s.NailTrim.LastDone = &day
	case CareBath:
		s.Bath.LastDone = &day
	case CareVetCheckup:
		s.VetCheckup.LastDone = &day
	default:
		return fmt.Errorf("%w: unknown care task %q", ErrInvalidData, task)
	}
	return nil
}

// DietPreferences records what a pet likes and must avoid.
type DietPreferences struct {
	PetID       string   `json:"petId"`
	Favorites   []string `json:"favorites"`
	Dislikes    []string `json:"dislikes"`
	Allergies   []string `json:"allergies"`
	PelletBrand string   `json:"pelletBrand,omitempty"`
	HayType     string   `json:"hayType,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// Feeding is one scheduled meal. Time is "HH:MM".
type Feeding struct {
	Time   string `json:"time"`
	Food   string `json:"food"`
	Amount string `json:"amount,omitempty"`
}

// FeedingSchedule lists a pet's daily meals.
type FeedingSchedule struct {
	PetID    string    `json:"petId"`
	Feedings []Feeding `json:"feedings"`
	VitaminC bool      `json:"vitaminC"`
	Notes    string    `json:"notes,omitempty"`
}

// Validate checks every feeding time parses as HH:MM.
func (f FeedingSchedule) Validate() error {
	for _, feed := range f.Feedings {
		if _, err := time.Parse("15:04", feed.Time); err != nil {
			return fmt.Errorf("%w: feeding time %q must be HH:MM", ErrInvalidData, feed.Time)
		}
	}
	return nil
}

// Next returns the first feeding at or after now's clock time, wrapping to
// the earliest feeding of the next day.
func (f FeedingSchedule) Next(now time.Time) (Feeding, bool) {
	if len(f.Feedings) == 0 {
		return Feeding{}, false
	}
	clock := now.Format("15:04")
	var next, first *Feeding
	for i := range f.Feedings {
		feed := &f.Feedings[i]
		if first == nil || feed.Time < first.Time {
			first = feed
		}
		if feed.Time >= clock && (next == nil || feed.Time < next.Time) {
			next = feed
		}
	}
	if next == nil {
		next = first
	}
	return *next, true
}
