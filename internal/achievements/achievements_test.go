package achievements

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/guineapal/internal/kv"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

var t0 = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func state(states []types.AchievementState, id string) types.AchievementState {
	for _, s := range states {
		if s.ID == id {
			return s
		}
	}
	return types.AchievementState{}
}

func TestCheck_IsMonotonic(t *testing.T) {
	happy := types.DefaultStats()
	happy.Happiness = 100

	states, unlocked := Check(happy, nil, t0)
	assert.Contains(t, unlocked, "popcorning")
	assert.Len(t, states, len(Catalog()))
	require.True(t, state(states, "popcorning").Unlocked)
	assert.True(t, t0.Equal(*state(states, "popcorning").UnlockedAt))

	sad := types.DefaultStats()
	sad.Happiness = 10
	later := t0.Add(time.Hour)
	states, unlocked = Check(sad, states, later)
	assert.Empty(t, unlocked)
	assert.True(t, state(states, "popcorning").Unlocked, "unlock is sticky")
	assert.True(t, t0.Equal(*state(states, "popcorning").UnlockedAt), "unlock time is kept")
}

func TestCheck_KeepsUnknownStates(t *testing.T) {
	stored := []types.AchievementState{{ID: "retired_badge", Unlocked: true}}
	states, _ := Check(types.DefaultStats(), stored, t0)
	assert.True(t, state(states, "retired_badge").Unlocked)
	assert.Equal(t, "retired_badge", states[0].ID)
}

func TestProgressOf(t *testing.T) {
	wellFed, ok := Lookup("well_fed")
	require.True(t, ok)

	s := types.DefaultStats()
	s.FeedCount = 10
	assert.Equal(t, 20, wellFed.ProgressOf(s))
	s.FeedCount = 80
	assert.Equal(t, 100, wellFed.ProgressOf(s))

	health, ok := Lookup("picture_of_health")
	require.True(t, ok)
	assert.Equal(t, 0, health.ProgressOf(types.DefaultStats()))

	_, ok = Lookup("nope")
	assert.False(t, ok)
}

func TestApply_ClampsLevels(t *testing.T) {
	s := types.DefaultStats()
	for i := 0; i < 5; i++ {
		var err error
		s, err = Apply(s, EventFeed)
		require.NoError(t, err)
	}
	assert.Equal(t, 0, s.Hunger)
	assert.Equal(t, 75, s.Happiness)
	assert.Equal(t, 5, s.FeedCount)
	assert.Equal(t, 5, s.Interactions)

	_, err := Apply(s, Event("nap"))
	assert.ErrorIs(t, err, types.ErrInvalidData)
}

func TestStore_RecordUnlocksAndPersists(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	store := NewStore(mem, WithClock(func() time.Time { return t0 }))

	stats, err := store.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultStats(), stats)

	out, err := store.Record(ctx, EventFeed)
	require.NoError(t, err)
	assert.Equal(t, 1, out.Stats.FeedCount)
	require.Len(t, out.Unlocked, 1)
	assert.Equal(t, "first_meal", out.Unlocked[0].ID)

	out, err = store.Record(ctx, EventPet)
	require.NoError(t, err)
	assert.Empty(t, out.Unlocked)
	assert.Equal(t, 2, out.Stats.Interactions)

	reopened := NewStore(mem)
	progress, err := reopened.Progress(ctx)
	require.NoError(t, err)
	require.Len(t, progress, len(Catalog()))
	assert.Equal(t, "first_meal", progress[0].Def.ID)
	assert.True(t, progress[0].Unlocked)
	assert.Equal(t, 100, progress[0].Progress)
	assert.Equal(t, 2, progress[1].Progress, "1 of 50 meals")
}

func TestStore_UnlockSurvivesStatDrop(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	store := NewStore(mem)

	require.NoError(t, kv.SetJSON(ctx, mem, types.KeyStats, types.Stats{Happiness: 100, Health: 100, Hunger: 10}))
	unlocked, err := store.Sync(ctx)
	require.NoError(t, err)
	assert.Len(t, unlocked, 2)

	require.NoError(t, kv.SetJSON(ctx, mem, types.KeyStats, types.Stats{Happiness: 0, Health: 10, Hunger: 90}))
	unlocked, err = store.Sync(ctx)
	require.NoError(t, err)
	assert.Empty(t, unlocked)

	states, err := store.States(ctx)
	require.NoError(t, err)
	assert.True(t, state(states, "popcorning").Unlocked)
	assert.True(t, state(states, "picture_of_health").Unlocked)
}

func TestStore_CorruptStatsFallBackToDefaults(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(ctx, types.KeyStats, "{oops"))

	stats, err := NewStore(mem).Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.DefaultStats(), stats)
}
