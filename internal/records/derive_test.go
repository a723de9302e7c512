package records

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/guineapal/internal/kv"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

func TestActiveMedications(t *testing.T) {
	end := date(t, "2024-05-10")
	meds := []types.Medication{
		{ID: "ongoing", Name: "Vitamin C", StartDate: date(t, "2024-04-01"), Active: true},
		{ID: "finished", Name: "Baytril", StartDate: date(t, "2024-05-01"), EndDate: &end, Active: true},
		{ID: "paused", Name: "Metacam", StartDate: date(t, "2024-04-01"), Active: false},
		{ID: "future", Name: "Critical Care", StartDate: date(t, "2024-07-01"), Active: true},
	}

	now := time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC)
	active := ActiveMedications(meds, now)
	require.Len(t, active, 1)
	assert.Equal(t, "ongoing", active[0].ID)

	onEndDay := ActiveMedications(meds, time.Date(2024, 5, 10, 23, 0, 0, 0, time.UTC))
	assert.Len(t, onEndDay, 2, "end date is inclusive")
}

func TestUpcomingAppointments(t *testing.T) {
	appts := []types.VetAppointment{
		{ID: "late", Date: date(t, "2024-06-20"), Time: "09:00"},
		{ID: "past", Date: date(t, "2024-05-20")},
		{ID: "today-pm", Date: date(t, "2024-06-01"), Time: "16:00"},
		{ID: "today-am", Date: date(t, "2024-06-01"), Time: "09:30"},
		{ID: "done", Date: date(t, "2024-06-05"), Completed: true},
	}

	got := UpcomingAppointments(appts, time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	var order []string
	for _, a := range got {
		order = append(order, a.ID)
	}
	assert.Equal(t, []string{"today-am", "today-pm", "late"}, order)
}

func TestWeightTrend(t *testing.T) {
	assert.Equal(t, Trend{}, WeightTrend(nil))

	single := WeightTrend([]types.WeightRecord{weight(t, "w1", "2024-05-01", 950)})
	assert.Equal(t, 1, single.Count)
	assert.Nil(t, single.Previous)
	assert.Zero(t, single.Delta)

	trend := WeightTrend([]types.WeightRecord{
		weight(t, "w3", "2024-05-15", 900),
		weight(t, "w1", "2024-05-01", 950),
		weight(t, "w2", "2024-05-08", 1000),
	})
	assert.Equal(t, 3, trend.Count)
	assert.Equal(t, "w3", trend.Latest.ID)
	assert.Equal(t, "w2", trend.Previous.ID)
	assert.Equal(t, -100.0, trend.Delta)
	assert.True(t, trend.Losing(5))
	assert.False(t, trend.Losing(15))
}

func TestCareSchedule_DueTasks(t *testing.T) {
	sched := types.DefaultCareSchedule("p1")
	now := time.Date(2024, 6, 10, 8, 0, 0, 0, time.UTC)

	assert.Equal(t, []string{types.CareCageCleaning, types.CareNailTrim, types.CareVetCheckup}, sched.DueTasks(now),
		"never-done tasks are due, disabled bath is not")

	require.NoError(t, sched.MarkDone(types.CareCageCleaning, date(t, "2024-06-05")))
	require.NoError(t, sched.MarkDone(types.CareNailTrim, date(t, "2024-05-01")))
	require.NoError(t, sched.MarkDone(types.CareVetCheckup, date(t, "2024-01-01")))
	assert.Equal(t, []string{types.CareNailTrim}, sched.DueTasks(now))

	assert.ErrorIs(t, sched.MarkDone("teeth", date(t, "2024-06-01")), types.ErrInvalidData)
}

func TestBondingLog(t *testing.T) {
	ctx := context.Background()
	log := NewBondingLog(kv.NewMemory(), WithPetChecker(knownPets{"p1": true, "p2": true}))

	session := func(id, pet, day string, minutes, resp int) types.BondingSession {
		return types.BondingSession{ID: id, PetID: pet, Date: date(t, day), Activity: "lap time",
			DurationMinutes: minutes, Responsiveness: resp}
	}

	require.NoError(t, log.Add(ctx, session("b1", "p1", "2024-05-01", 20, 3)))
	require.NoError(t, log.Add(ctx, session("b2", "p1", "2024-05-03", 10, 5)))
	require.NoError(t, log.Add(ctx, session("b3", "p2", "2024-05-02", 15, 4)))

	assert.ErrorIs(t, log.Add(ctx, session("b1", "p1", "2024-05-04", 5, 3)), types.ErrDuplicateID)
	assert.ErrorIs(t, log.Add(ctx, session("b4", "ghost", "2024-05-04", 5, 3)), types.ErrPetNotFound)
	assert.ErrorIs(t, log.Add(ctx, session("b4", "p1", "2024-05-04", 5, 0)), types.ErrInvalidRange)

	p1, err := log.List(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, p1, 2)
	assert.Equal(t, "b2", p1[0].ID, "newest first")

	sum := Summarize(p1)
	assert.Equal(t, BondingSummary{Sessions: 2, TotalMinutes: 30, Responsiveness: 4}, sum)

	n, err := log.PurgePet(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = log.PurgeOrphans(ctx, map[string]bool{"p1": true})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	all, err := log.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestChecklist(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	c := NewChecklist(mem)
	day := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

	state, err := c.Load(ctx, day)
	require.NoError(t, err)
	assert.Len(t, state, len(DailyTasks))

	on, err := c.Toggle(ctx, day, "hay")
	require.NoError(t, err)
	assert.True(t, on)
	_, err = c.Toggle(ctx, day, "fresh_water")
	require.NoError(t, err)
	on, err = c.Toggle(ctx, day, "fresh_water")
	require.NoError(t, err)
	assert.False(t, on)

	_, err = c.Toggle(ctx, day, "walk_the_dog")
	assert.ErrorIs(t, err, types.ErrNotFound)

	done, total, err := c.Progress(ctx, day)
	require.NoError(t, err)
	assert.Equal(t, 1, done)
	assert.Equal(t, len(DailyTasks), total)

	_, ok, err := mem.Get(ctx, "checklist_2024-06-01")
	require.NoError(t, err)
	assert.True(t, ok)

	next, _, err := c.Progress(ctx, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Zero(t, next, "each day starts empty")

	require.NoError(t, c.Reset(ctx, day))
	done, _, err = c.Progress(ctx, day)
	require.NoError(t, err)
	assert.Zero(t, done)
}
