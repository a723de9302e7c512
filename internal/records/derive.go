package records

import (
	"sort"
	"time"

	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// ActiveMedications returns the medications active on now's calendar day.
func ActiveMedications(list []types.Medication, now time.Time) []types.Medication {
	var out []types.Medication
	for _, m := range list {
		if m.ActiveOn(now) {
			out = append(out, m)
		}
	}
	return out
}

// UpcomingAppointments returns incomplete appointments dated today or later,
// soonest first.
func UpcomingAppointments(list []types.VetAppointment, now time.Time) []types.VetAppointment {
	today := types.NewDate(now)
	var out []types.VetAppointment
	for _, a := range list {
		if !a.Completed && !a.Date.Before(today.Time) {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Time < out[j].Time
		}
		return out[i].Date.Before(out[j].Date.Time)
	})
	return out
}

// Trend summarizes the two most recent weigh-ins.
type Trend struct {
	Latest   *types.WeightRecord
	Previous *types.WeightRecord
	// Delta is Latest minus Previous in grams; zero with fewer than two records.
	Delta float64
	Count int
}

// Losing reports a drop of more than pct percent between the last two
// weigh-ins.
func (t Trend) Losing(pct float64) bool {
	if t.Previous == nil || t.Previous.Weight <= 0 {
		return false
	}
	return -t.Delta/t.Previous.Weight*100 > pct
}

// WeightTrend orders list by date and compares the last two entries. Records
// sharing a date keep their stored order.
func WeightTrend(list []types.WeightRecord) Trend {
	if len(list) == 0 {
		return Trend{}
	}
	sorted := make([]types.WeightRecord, len(list))
	copy(sorted, list)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date.Time)
	})

	t := Trend{Count: len(sorted)}
	latest := sorted[len(sorted)-1]
	t.Latest = &latest
	if len(sorted) > 1 {
		prev := sorted[len(sorted)-2]
		t.Previous = &prev
		t.Delta = latest.Weight - prev.Weight
	}
	return t
}

// NewestFirst sorts records with a Date field newest first, in place.
func NewestFirst[T types.Record](list []T, date func(T) types.Date) {
	sort.SliceStable(list, func(i, j int) bool {
		return date(list[i]).After(date(list[j]).Time)
	})
}
