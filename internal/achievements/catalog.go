// Package achievements derives achievement unlocks from aggregate care
// stats. Definitions live in code; only unlock flags are persisted.
package achievements

import (
	"time"

	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// Achievement is a code-side definition.
type Achievement struct {
	ID          string
	Title       string
	Description string
	// Unlocked is the unlock predicate.
	Unlocked func(types.Stats) bool
	// Progress returns 0-100, or is nil for all-or-nothing achievements.
	Progress func(types.Stats) int
}

// ProgressOf returns a's progress for stats, clamped to 0-100. Achievements
// without a progress function report 0 or 100.
func (a Achievement) ProgressOf(stats types.Stats) int {
	if a.Unlocked(stats) {
		return 100
	}
	if a.Progress == nil {
		return 0
	}
	return clamp(a.Progress(stats), 0, 100)
}

func countTo(n int, get func(types.Stats) int) (func(types.Stats) bool, func(types.Stats) int) {
	return func(s types.Stats) bool { return get(s) >= n },
		func(s types.Stats) int { return get(s) * 100 / n }
}

func counter(id, title, desc string, n int, get func(types.Stats) int) Achievement {
	unlocked, progress := countTo(n, get)
	return Achievement{ID: id, Title: title, Description: desc, Unlocked: unlocked, Progress: progress}
}

var catalog = []Achievement{
	counter("first_meal", "First Meal", "Feed your guinea pig for the first time", 1,
		func(s types.Stats) int { return s.FeedCount }),
	counter("well_fed", "Well Fed", "Feed your guinea pig 50 times", 50,
		func(s types.Stats) int { return s.FeedCount }),
	counter("playtime", "Playtime", "Play together 25 times", 25,
		func(s types.Stats) int { return s.PlayCount }),
	counter("spotless", "Spotless", "Clean the cage 20 times", 20,
		func(s types.Stats) int { return s.CleanCount }),
	counter("groomer", "Groomer", "Groom your guinea pig 10 times", 10,
		func(s types.Stats) int { return s.GroomCount }),
	counter("best_friends", "Best Friends", "Reach 100 interactions", 100,
		func(s types.Stats) int { return s.Interactions }),
	counter("popcorning", "Popcorning", "Max out happiness", 100,
		func(s types.Stats) int { return s.Happiness }),
	{
		ID:          "picture_of_health",
		Title:       "Picture of Health",
		Description: "Full health with hunger at 20 or below",
		Unlocked:    func(s types.Stats) bool { return s.Health >= 100 && s.Hunger <= 20 },
	},
}

// Catalog returns every achievement definition in display order.
func Catalog() []Achievement {
	out := make([]Achievement, len(catalog))
	copy(out, catalog)
	return out
}

// Lookup returns the definition with id.
func Lookup(id string) (Achievement, bool) {
	for _, a := range catalog {
		if a.ID == id {
			return a, true
		}
	}
	return Achievement{}, false
}

// Check evaluates every definition against stats and returns the updated
// states plus the ids unlocked by this call. It only flips unlocked from
// false to true; a stored unlock is never reverted. States for ids not in
// the catalog are kept as they are.
func Check(stats types.Stats, states []types.AchievementState, now time.Time) ([]types.AchievementState, []string) {
	byID := make(map[string]int, len(states))
	out := make([]types.AchievementState, len(states))
	copy(out, states)
	for i, st := range out {
		byID[st.ID] = i
	}

	var unlocked []string
	for _, a := range catalog {
		i, ok := byID[a.ID]
		if !ok {
			out = append(out, types.AchievementState{ID: a.ID})
			i = len(out) - 1
			byID[a.ID] = i
		}
		if out[i].Unlocked || !a.Unlocked(stats) {
			continue
		}
		at := now.UTC()
		out[i].Unlocked = true
		out[i].UnlockedAt = &at
		unlocked = append(unlocked, a.ID)
	}
	return out, unlocked
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
