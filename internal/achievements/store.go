package achievements

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

// Event is a care action that moves the stats.
type Event string

const (
	EventFeed  Event = "feed"
	EventPlay  Event = "play"
	EventClean Event = "clean"
	EventGroom Event = "groom"
	EventPet   Event = "pet"
)

// Events lists every event in display order.
var Events = []Event{EventFeed, EventPlay, EventClean, EventGroom, EventPet}

// Apply returns stats after e. Levels stay within 0-100.
func Apply(s types.Stats, e Event) (types.Stats, error) {
	switch e {
	case EventFeed:
		s.Hunger -= 20
		s.Happiness += 5
		s.FeedCount++
		s.Interactions++
	case EventPlay:
		s.Happiness += 15
		s.Energy -= 10
		s.Hunger += 5
		s.PlayCount++
		s.Interactions++
	case EventClean:
		s.Health += 10
		s.Happiness += 5
		s.CleanCount++
	case EventGroom:
		s.Happiness += 10
		s.Health += 5
		s.GroomCount++
		s.Interactions++
	case EventPet:
		s.Happiness += 5
		s.Interactions++
	default:
		return s, fmt.Errorf("%w: unknown event %q", types.ErrInvalidData, e)
	}
	s.Happiness = clamp(s.Happiness, 0, 100)
	s.Hunger = clamp(s.Hunger, 0, 100)
	s.Health = clamp(s.Health, 0, 100)
	s.Energy = clamp(s.Energy, 0, 100)
	return s, nil
}

// Status is an achievement with its persisted state and current progress.
type Status struct {
	Def        Achievement
	Unlocked   bool
	UnlockedAt *time.Time
	Progress   int
}

// Outcome is the result of recording an event.
type Outcome struct {
	Stats    types.Stats
	Unlocked []Achievement
}

// Store persists Stats under types.KeyStats and unlock flags under
// types.KeyAchievements.
type Store struct {
	kv  types.KVStore
	log logger.Logger
	now func() time.Time
	mu  sync.Mutex
}

type Option func(*Store)

func WithLogger(l logger.Logger) Option { return func(s *Store) { s.log = l } }

func WithClock(now func() time.Time) Option { return func(s *Store) { s.now = now } }

func NewStore(store types.KVStore, opts ...Option) *Store {
	s := &Store{kv: store, log: logger.Nop(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With(logger.Fields{"store": types.KeyAchievements})
	return s
}

// Stats returns the stored stats, or DefaultStats when none are stored or
// the stored value is unreadable.
func (s *Store) Stats(ctx context.Context) (types.Stats, error) {
	stats := types.DefaultStats()
	_, err := kv.GetJSON(ctx, s.kv, types.KeyStats, &stats)
	if errors.Is(err, types.ErrInvalidData) {
		s.log.Warn("unreadable stats, using defaults", logger.Fields{"err": err})
		return types.DefaultStats(), nil
	}
	if err != nil {
		return types.Stats{}, err
	}
	return stats, nil
}

// States returns the persisted unlock flags.
func (s *Store) States(ctx context.Context) ([]types.AchievementState, error) {
	var states []types.AchievementState
	_, err := kv.GetJSON(ctx, s.kv, types.KeyAchievements, &states)
	if errors.Is(err, types.ErrInvalidData) {
		s.log.Warn("unreadable achievements, starting over", logger.Fields{"err": err})
		return nil, nil
	}
	return states, err
}

// Record applies e to the stats, re-checks every achievement, and persists
// both.
func (s *Store) Record(ctx context.Context, e Event) (Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats, err := s.Stats(ctx)
	if err != nil {
		return Outcome{}, err
	}
	stats, err = Apply(stats, e)
	if err != nil {
		return Outcome{}, err
	}
	if err := kv.SetJSON(ctx, s.kv, types.KeyStats, stats); err != nil {
		return Outcome{}, err
	}

	unlocked, err := s.check(ctx, stats)
	if err != nil {
		return Outcome{Stats: stats}, err
	}
	return Outcome{Stats: stats, Unlocked: unlocked}, nil
}

// Sync re-checks achievements against the stored stats without changing
// them.
func (s *Store) Sync(ctx context.Context) ([]Achievement, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return s.check(ctx, stats)
}

func (s *Store) check(ctx context.Context, stats types.Stats) ([]Achievement, error) {
	states, err := s.States(ctx)
	if err != nil {
		return nil, err
	}
	next, ids := Check(stats, states, s.now())
	if len(ids) == 0 && len(next) == len(states) {
		return nil, nil
	}
	if err := kv.SetJSON(ctx, s.kv, types.KeyAchievements, next); err != nil {
		return nil, err
	}

	unlocked := make([]Achievement, 0, len(ids))
	for _, id := range ids {
		a, _ := Lookup(id)
		unlocked = append(unlocked, a)
		s.log.Info("achievement unlocked", logger.Fields{"id": id})
	}
	return unlocked, nil
}

// Progress lists every achievement with its state and progress.
func (s *Store) Progress(ctx context.Context) ([]Status, error) {
	stats, err := s.Stats(ctx)
	if err != nil {
		return nil, err
	}
	states, err := s.States(ctx)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]types.AchievementState, len(states))
	for _, st := range states {
		byID[st.ID] = st
	}

	out := make([]Status, 0, len(catalog))
	for _, a := range catalog {
		st := byID[a.ID]
		progress := a.ProgressOf(stats)
		if st.Unlocked {
			progress = 100
		}
		out = append(out, Status{
			Def:        a,
			Unlocked:   st.Unlocked,
			UnlockedAt: st.UnlockedAt,
			Progress:   progress,
		})
	}
	return out, nil
}
