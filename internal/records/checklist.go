package records

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mesh-intelligence/guineapal/internal/kv"
	"github.com/mesh-intelligence/guineapal/internal/logger"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// ChecklistTask is one item on the daily care checklist.
type ChecklistTask struct {
	ID    string
	Label string
}

// DailyTasks is the default checklist, in display order.
var DailyTasks = []ChecklistTask{
	{"fresh_water", "Refill fresh water"},
	{"hay", "Top up unlimited hay"},
	{"vegetables", "Serve fresh vegetables"},
	{"vitamin_c", "Give a vitamin C source"},
	{"pellets", "Measure out pellets"},
	{"spot_clean", "Spot clean the cage"},
	{"floor_time", "Floor time and play"},
	{"health_check", "Quick health check"},
}

// Checklist stores one completion map per calendar day.
type Checklist struct {
	kv  types.KVStore
	log logger.Logger
	mu  sync.Mutex
}

func NewChecklist(store types.KVStore, opts ...Option) *Checklist {
	o := buildOptions(opts)
	return &Checklist{kv: store, log: o.log.With(logger.Fields{"store": "checklist"})}
}

// Load returns the completion state of every daily task for day.
func (c *Checklist) Load(ctx context.Context, day time.Time) (map[string]bool, error) {
	stored := map[string]bool{}
	_, err := kv.GetJSON(ctx, c.kv, types.ChecklistKey(day), &stored)
	if errors.Is(err, types.ErrInvalidData) {
		c.log.Warn("unreadable checklist, starting fresh", logger.Fields{"day": day.Format(types.DateLayout)})
		stored = map[string]bool{}
	} else if err != nil {
		return nil, err
	}

	state := make(map[string]bool, len(DailyTasks))
	for _, t := range DailyTasks {
		state[t.ID] = stored[t.ID]
	}
	return state, nil
}

// Toggle flips task on day and returns its new state.
func (c *Checklist) Toggle(ctx context.Context, day time.Time, task string) (bool, error) {
	if !knownTask(task) {
		return false, fmt.Errorf("checklist task %q: %w", task, types.ErrNotFound)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	state, err := c.Load(ctx, day)
	if err != nil {
		return false, err
	}
	state[task] = !state[task]
	if err := kv.SetJSON(ctx, c.kv, types.ChecklistKey(day), state); err != nil {
		return false, err
	}
	return state[task], nil
}

// Reset clears day's checklist.
func (c *Checklist) Reset(ctx context.Context, day time.Time) error {
	key := types.ChecklistKey(day)
	if err := c.kv.Remove(ctx, key); err != nil {
		return fmt.Errorf("removing %s: %w", key, err)
	}
	return nil
}

// Progress returns how many of the daily tasks are done on day.
func (c *Checklist) Progress(ctx context.Context, day time.Time) (done, total int, err error) {
	state, err := c.Load(ctx, day)
	if err != nil {
		return 0, 0, err
	}
	for _, t := range DailyTasks {
		if state[t.ID] {
			done++
		}
	}
	return done, len(DailyTasks), nil
}

func knownTask(id string) bool {
	for _, t := range DailyTasks {
		if t.ID == id {
			return true
		}
	}
	return false
}
