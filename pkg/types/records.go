// Per-pet sub-records: logged events stored as one JSON list per pet and
// category.
package types

import (
	"fmt"
	"slices"
	"strconv"
	"time"
)

// Record is implemented by every per-pet list entry.
type Record interface {
	RecordID() string
	OwnerID() string
}

// NewRecordID returns a timestamp-derived record identifier.
func NewRecordID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// Health record types.
const (
	HealthCheckup     = "checkup"
	HealthIllness     = "illness"
	HealthInjury      = "injury"
	HealthVaccination = "vaccination"
	HealthOther       = "other"
)

// HealthRecord is a logged health event.
type HealthRecord struct {
	ID          string `json:"id"`
	PetID       string `json:"petId"`
	Date        Date   `json:"date"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Treatment   string `json:"treatment,omitempty"`
	VetName     string `json:"vetName,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

func (r HealthRecord) RecordID() string { return r.ID }
func (r HealthRecord) OwnerID() string  { return r.PetID }

// Medication is a course of medication.
type Medication struct {
	ID              string `json:"id"`
	PetID           string `json:"petId"`
	Name            string `json:"name"`
	Dosage          string `json:"dosage"`
	Frequency       string `json:"frequency"`
	StartDate       Date   `json:"startDate"`
	EndDate         *Date  `json:"endDate,omitempty"`
	Active          bool   `json:"active"`
	ReminderEnabled bool   `json:"reminderEnabled"`
	Notes           string `json:"notes,omitempty"`
}

func (m Medication) RecordID() string { return m.ID }
func (m Medication) OwnerID() string  { return m.PetID }

// ActiveOn reports whether the medication is flagged active and day falls
// inside its course.
func (m Medication) ActiveOn(day time.Time) bool {
	if !m.Active {
		return false
	}
	d := NewDate(day).Time
	if d.Before(m.StartDate.Time) {
		return false
	}
	return m.EndDate == nil || !d.After(m.EndDate.Time)
}

// VetAppointment is a scheduled or past vet visit.
type VetAppointment struct {
	ID        string `json:"id"`
	PetID     string `json:"petId"`
	Date      Date   `json:"date"`
	Time      string `json:"time,omitempty"`
	VetName   string `json:"vetName"`
	Clinic    string `json:"clinic,omitempty"`
	Reason    string `json:"reason"`
	Completed bool   `json:"completed"`
	Notes     string `json:"notes,omitempty"`
}

func (a VetAppointment) RecordID() string { return a.ID }
func (a VetAppointment) OwnerID() string  { return a.PetID }

// WeightRecord is a weigh-in in grams.
type WeightRecord struct {
	ID     string  `json:"id"`
	PetID  string  `json:"petId"`
	Date   Date    `json:"date"`
	Weight float64 `json:"weight"`
	Notes  string  `json:"notes,omitempty"`
}

func (w WeightRecord) RecordID() string { return w.ID }
func (w WeightRecord) OwnerID() string  { return w.PetID }

// Moods.
const (
	MoodHappy   = "happy"
	MoodContent = "content"
	MoodNeutral = "neutral"
	MoodAnxious = "anxious"
	MoodSad     = "sad"
	MoodSick    = "sick"
)

// ValidMoods lists the accepted mood values.
var ValidMoods = []string{MoodHappy, MoodContent, MoodNeutral, MoodAnxious, MoodSad, MoodSick}

// MoodEntry is a mood observation. Energy runs 1-5.
type MoodEntry struct {
	ID     string `json:"id"`
	PetID  string `json:"petId"`
	Date   Date   `json:"date"`
	Mood   string `json:"mood"`
	Energy int    `json:"energy"`
	Notes  string `json:"notes,omitempty"`
}

func (e MoodEntry) RecordID() string { return e.ID }
func (e MoodEntry) OwnerID() string  { return e.PetID }

// Waste kinds.
const (
	WasteDroppings = "droppings"
	WasteUrine     = "urine"
)

// WasteLog records droppings or urine observations.
type WasteLog struct {
	ID          string `json:"id"`
	PetID       string `json:"petId"`
	Date        Date   `json:"date"`
	Kind        string `json:"kind"`
	Consistency string `json:"consistency"`
	Color       string `json:"color,omitempty"`
	Concerning  bool   `json:"concerning"`
	Notes       string `json:"notes,omitempty"`
}

func (w WasteLog) RecordID() string { return w.ID }
func (w WasteLog) OwnerID() string  { return w.PetID }

// BondingSession is time spent handling or playing with a pet.
// Responsiveness runs 1-5.
type BondingSession struct {
	ID              string `json:"id"`
	PetID           string `json:"petId"`
	Date            Date   `json:"date"`
	Activity        string `json:"activity"`
	DurationMinutes int    `json:"durationMinutes"`
	Responsiveness  int    `json:"responsiveness"`
	Notes           string `json:"notes,omitempty"`
}

func (b BondingSession) RecordID() string { return b.ID }
func (b BondingSession) OwnerID() string  { return b.PetID }

// Validator is implemented by records that check their own payload before
// being stored.
type Validator interface {
	Validate() error
}

func (w WeightRecord) Validate() error {
	if w.Weight <= 0 {
		return fmt.Errorf("%w: weight must be positive", ErrInvalidRange)
	}
	return nil
}

func (e MoodEntry) Validate() error {
	if !slices.Contains(ValidMoods, e.Mood) {
		return fmt.Errorf("%w: unknown mood %q", ErrInvalidData, e.Mood)
	}
	if e.Energy < 1 || e.Energy > 5 {
		return fmt.Errorf("%w: energy must be 1-5", ErrInvalidRange)
	}
	return nil
}

func (w WasteLog) Validate() error {
	if w.Kind != WasteDroppings && w.Kind != WasteUrine {
		return fmt.Errorf("%w: unknown waste kind %q", ErrInvalidData, w.Kind)
	}
	return nil
}

func (b BondingSession) Validate() error {
	if b.DurationMinutes < 0 {
		return fmt.Errorf("%w: duration must not be negative", ErrInvalidRange)
	}
	if b.Responsiveness < 1 || b.Responsiveness > 5 {
		return fmt.Errorf("%w: responsiveness must be 1-5", ErrInvalidRange)
	}
	return nil
}

func (m Medication) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: medication name is required", ErrInvalidData)
	}
	if m.EndDate != nil && m.EndDate.Before(m.StartDate.Time) {
		return fmt.Errorf("%w: end date before start date", ErrInvalidRange)
	}
	return nil
}
