package types

import (
	"strings"
	"time"
)

// Storage keys. All values are JSON-encoded strings.
const (
	KeyPets          = "pets"
	KeyPetsBackup    = "pets_backup"
	KeyPetsLastSync  = "pets_last_sync"
	KeyStats         = "pet_stats"
	KeyAchievements  = "achievements"
	KeyAuthToken     = "auth_token"
	KeyAuthUser      = "auth_user"
	KeyMockUsers     = "mock_users"
	KeyForumPosts    = "forum_posts"
	KeyGuineaGram    = "guinea_gram_posts"
	KeyBondingLog    = "bonding_sessions"
	KeyChecklistBase = "checklist_"
)

// Per-pet key prefixes. The full key is prefix + pet ID.
const (
	PrefixHealthRecords   = "health_records_"
	PrefixMedications     = "medications_"
	PrefixVetAppointments = "vet_appointments_"
	PrefixWeightRecords   = "weight_records_"
	PrefixMoodEntries     = "mood_entries_"
	PrefixWasteLogs       = "waste_logs_"
	PrefixCareSchedule    = "care_schedule_"
	PrefixDietPreferences = "diet_preferences_"
	PrefixFeedingSchedule = "feeding_schedule_"
)

// PetKeyPrefixes lists every per-pet prefix, used by cascade delete and
// reconciliation.
var PetKeyPrefixes = []string{
	PrefixHealthRecords,
	PrefixMedications,
	PrefixVetAppointments,
	PrefixWeightRecords,
	PrefixMoodEntries,
	PrefixWasteLogs,
	PrefixCareSchedule,
	PrefixDietPreferences,
	PrefixFeedingSchedule,
}

// PetKey returns the per-pet key for prefix and petID.
func PetKey(prefix, petID string) string {
	return prefix + petID
}

// SplitPetKey reports the pet ID encoded in key when key starts with one of
// the per-pet prefixes.
func SplitPetKey(key string) (prefix, petID string, ok bool) {
	for _, p := range PetKeyPrefixes {
		if id, found := strings.CutPrefix(key, p); found && id != "" {
			return p, id, true
		}
	}
	return "", "", false
}

// ChecklistKey returns the key holding the checklist for the given day.
func ChecklistKey(day time.Time) string {
	return KeyChecklistBase + day.Format(DateLayout)
}
