package types

import "time"

// Stats aggregates care activity. The four levels run 0-100; Hunger is how
// hungry the pet is, so lower is better.
type Stats struct {
	Happiness    int `json:"happiness"`
	Hunger       int `json:"hunger"`
	Health       int `json:"health"`
	Energy       int `json:"energy"`
	Interactions int `json:"interactions"`
	FeedCount    int `json:"feedCount"`
	PlayCount    int `json:"playCount"`
	CleanCount   int `json:"cleanCount"`
	GroomCount   int `json:"groomCount"`
}

// DefaultStats is the starting state for a new installation.
func DefaultStats() Stats {
	return Stats{Happiness: 50, Hunger: 50, Health: 100, Energy: 100}
}

// AchievementState is the persisted part of an achievement. Predicates live
// in code and are never serialized.
type AchievementState struct {
	ID         string     `json:"id"`
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlockedAt,omitempty"`
}
