// Pet entity: profile, pregnancy tracking, relationship fields, and the
// validity predicate applied to every pet record read from storage.
package types

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"
)

// Gender values.
const (
	GenderMale    = "male"
	GenderFemale  = "female"
	GenderUnknown = "unknown"
)

// GestationPeriod is the average guinea pig gestation (the range is 59-72 days).
const GestationPeriod = 68

// Pet is the root guinea pig profile.
type Pet struct {
	// ID is unique and caller-generated; see NewPetID.
	ID   string `json:"id"`
	Name string `json:"name"`

	Breed        string   `json:"breed"`
	BirthDate    *Date    `json:"birthDate,omitempty"`
	Gender       string   `json:"gender,omitempty"`
	Color        string   `json:"color,omitempty"`
	ImageURI     *string  `json:"imageUri"`
	Weight       *float64 `json:"weight,omitempty"`
	LastVetVisit *Date    `json:"lastVetVisit,omitempty"`
	Notes        string   `json:"notes,omitempty"`
	Favorite     bool     `json:"favorite"`

	IsPregnant         bool   `json:"isPregnant,omitempty"`
	PregnancyStartDate *Date  `json:"pregnancyStartDate,omitempty"`
	ExpectedDueDate    *Date  `json:"expectedDueDate,omitempty"`
	PregnancyNotes     string `json:"pregnancyNotes,omitempty"`

	MotherID string   `json:"motherId,omitempty"`
	FatherID string   `json:"fatherId,omitempty"`
	Mate     string   `json:"mate,omitempty"`
	Siblings []string `json:"siblings,omitempty"`
	Children []string `json:"children,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewPetID returns the millisecond timestamp of now as a decimal string.
func NewPetID(now time.Time) string {
	return strconv.FormatInt(now.UnixMilli(), 10)
}

// Valid reports whether p satisfies the pet validity predicate.
func (p Pet) Valid() bool {
	return strings.TrimSpace(p.ID) != "" && strings.TrimSpace(p.Name) != ""
}

// ValidPetRecord applies the validity predicate to a raw JSON record: it must
// be an object whose id and name fields are both non-empty strings.
func ValidPetRecord(raw json.RawMessage) bool {
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil {
		return false
	}
	id, ok := obj["id"].(string)
	if !ok || strings.TrimSpace(id) == "" {
		return false
	}
	name, ok := obj["name"].(string)
	if !ok || strings.TrimSpace(name) == "" {
		return false
	}
	return true
}

// DecodePet decodes a raw record that passes ValidPetRecord. Payload fields
// that do not fit Pet are dropped rather than failing the record: a blank
// or malformed date becomes nil, and a numeric string weight is parsed.
func DecodePet(raw json.RawMessage) (Pet, bool) {
	if !ValidPetRecord(raw) {
		return Pet{}, false
	}
	var p Pet
	if err := json.Unmarshal(raw, &p); err == nil {
		return p, true
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return Pet{}, false
	}
	for k, v := range fields {
		if fieldFits(k, v) {
			continue
		}
		delete(fields, k)
		if k == "weight" {
			if w, ok := numericString(v); ok {
				fields[k] = json.RawMessage(strconv.FormatFloat(w, 'f', -1, 64))
			}
		}
	}
	cleaned, err := json.Marshal(fields)
	if err != nil {
		return Pet{}, false
	}
	p = Pet{}
	if err := json.Unmarshal(cleaned, &p); err != nil {
		return Pet{}, false
	}
	return p, true
}

// fieldFits reports whether the single field key=v decodes into Pet.
func fieldFits(key string, v json.RawMessage) bool {
	one, err := json.Marshal(map[string]json.RawMessage{key: v})
	if err != nil {
		return false
	}
	var p Pet
	return json.Unmarshal(one, &p) == nil
}

func numericString(v json.RawMessage) (float64, bool) {
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// StartPregnancy marks the pet pregnant from start and projects the due date.
func (p *Pet) StartPregnancy(start Date, notes string) {
	due := start.AddDays(GestationPeriod)
	p.IsPregnant = true
	p.PregnancyStartDate = &start
	p.ExpectedDueDate = &due
	p.PregnancyNotes = notes
}

// EndPregnancy clears every pregnancy field.
func (p *Pet) EndPregnancy() {
	p.IsPregnant = false
	p.PregnancyStartDate = nil
	p.ExpectedDueDate = nil
	p.PregnancyNotes = ""
}

// DaysUntilDue returns the days left until the expected due date. ok is false
// when the pet is not pregnant.
func (p Pet) DaysUntilDue(now time.Time) (days int, ok bool) {
	if !p.IsPregnant || p.ExpectedDueDate == nil {
		return 0, false
	}
	return p.ExpectedDueDate.DaysUntil(now), true
}

// GestationDay returns how many days into the pregnancy the pet is.
func (p Pet) GestationDay(now time.Time) (day int, ok bool) {
	if !p.IsPregnant || p.PregnancyStartDate == nil {
		return 0, false
	}
	return -p.PregnancyStartDate.DaysUntil(now), true
}

// Age is a calendar age broken into whole years, months and days.
type Age struct {
	Years  int
	Months int
	Days   int
}

// AgeAt returns the pet's age at now. ok is false when the birth date is
// unknown or in the future.
func (p Pet) AgeAt(now time.Time) (Age, bool) {
	if p.BirthDate == nil {
		return Age{}, false
	}
	return AgeBetween(p.BirthDate.Time, now)
}

// AgeBetween computes the calendar difference between birth and now.
func AgeBetween(birth, now time.Time) (Age, bool) {
	b := NewDate(birth).Time
	n := NewDate(now).Time
	if n.Before(b) {
		return Age{}, false
	}

	years := n.Year() - b.Year()
	if b.AddDate(years, 0, 0).After(n) {
		years--
	}
	months := 0
	for !b.AddDate(years, months+1, 0).After(n) {
		months++
	}
	anchor := b.AddDate(years, months, 0)
	days := int(n.Sub(anchor).Hours() / 24)
	return Age{Years: years, Months: months, Days: days}, true
}

// String renders the age the way the profile screen shows it.
func (a Age) String() string {
	switch {
	case a.Years > 0 && a.Months > 0:
		return plural(a.Years, "year") + " " + plural(a.Months, "month")
	case a.Years > 0:
		return plural(a.Years, "year")
	case a.Months > 0:
		return plural(a.Months, "month")
	case a.Days >= 7:
		return plural(a.Days/7, "week")
	case a.Days > 0:
		return plural(a.Days, "day")
	default:
		return "newborn"
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return strconv.Itoa(n) + " " + unit + "s"
}
