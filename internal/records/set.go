package records

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// Set bundles every per-pet store over one KVStore.
type Set struct {
	Health       *List[types.HealthRecord]
	Medications  *List[types.Medication]
	Appointments *List[types.VetAppointment]
	Weights      *List[types.WeightRecord]
	Moods        *List[types.MoodEntry]
	Waste        *List[types.WasteLog]

	Care    *Doc[types.CareSchedule]
	Diet    *Doc[types.DietPreferences]
	Feeding *Doc[types.FeedingSchedule]

	kv types.KVStore
}

func NewSet(store types.KVStore, opts ...Option) *Set {
	return &Set{
		Health:       NewList[types.HealthRecord](store, types.PrefixHealthRecords, opts...),
		Medications:  NewList[types.Medication](store, types.PrefixMedications, opts...),
		Appointments: NewList[types.VetAppointment](store, types.PrefixVetAppointments, opts...),
		Weights:      NewList[types.WeightRecord](store, types.PrefixWeightRecords, opts...),
		Moods:        NewList[types.MoodEntry](store, types.PrefixMoodEntries, opts...),
		Waste:        NewList[types.WasteLog](store, types.PrefixWasteLogs, opts...),
		Care:         NewDoc[types.CareSchedule](store, types.PrefixCareSchedule, opts...),
		Diet:         NewDoc[types.DietPreferences](store, types.PrefixDietPreferences, opts...),
		Feeding:      NewDoc[types.FeedingSchedule](store, types.PrefixFeedingSchedule, opts...),
		kv:           store,
	}
}

// Keys returns every per-pet key that can hold data for petID.
func (s *Set) Keys(petID string) []string {
	keys := make([]string, 0, len(types.PetKeyPrefixes))
	for _, p := range types.PetKeyPrefixes {
		keys = append(keys, types.PetKey(p, petID))
	}
	return keys
}

// PurgePet removes all of petID's sub-records in one MultiRemove.
func (s *Set) PurgePet(ctx context.Context, petID string) error {
	if petID == "" {
		return fmt.Errorf("%w: empty pet id", types.ErrInvalidID)
	}
	if err := s.kv.MultiRemove(ctx, s.Keys(petID)); err != nil {
		return fmt.Errorf("purging records of pet %q: %w", petID, err)
	}
	return nil
}
