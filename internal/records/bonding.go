package records

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mesh-intelligence/guineapal/internal/kv"
	"github.com/mesh-intelligence/guineapal/internal/logger"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// BondingLog is the journal of bonding sessions for all pets, stored under a
// single key.
type BondingLog struct {
	kv   types.KVStore
	opts options
	mu   sync.Mutex
}

func NewBondingLog(store types.KVStore, opts ...Option) *BondingLog {
	o := buildOptions(opts)
	o.log = o.log.With(logger.Fields{"store": types.KeyBondingLog})
	return &BondingLog{kv: store, opts: o}
}

func (b *BondingLog) load(ctx context.Context) ([]types.BondingSession, error) {
	var all []types.BondingSession
	_, err := kv.GetJSON(ctx, b.kv, types.KeyBondingLog, &all)
	if errors.Is(err, types.ErrInvalidData) {
		b.opts.log.Warn("unreadable bonding log, treating as empty", logger.Fields{"err": err})
		return nil, nil
	}
	return all, err
}

// Add records a session.
func (b *BondingLog) Add(ctx context.Context, s types.BondingSession) error {
	if err := b.opts.checkPet(ctx, s.PetID); err != nil {
		return err
	}
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("%w: empty session id", types.ErrInvalidID)
	}
	if err := s.Validate(); err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	all, err := b.load(ctx)
	if err != nil {
		return err
	}
	for _, existing := range all {
		if existing.ID == s.ID {
			return fmt.Errorf("session %q: %w", s.ID, types.ErrDuplicateID)
		}
	}
	return kv.SetJSON(ctx, b.kv, types.KeyBondingLog, append(all, s))
}

// List returns petID's sessions newest first, or every session when petID
// is empty.
func (b *BondingLog) List(ctx context.Context, petID string) ([]types.BondingSession, error) {
	all, err := b.load(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.BondingSession, 0, len(all))
	for _, s := range all {
		if petID == "" || s.PetID == petID {
			out = append(out, s)
		}
	}
	NewestFirst(out, func(s types.BondingSession) types.Date { return s.Date })
	return out, nil
}

// Delete removes the session with id. Missing ids are ignored.
func (b *BondingLog) Delete(ctx context.Context, id string) error {
	_, err := b.removeWhere(ctx, func(s types.BondingSession) bool { return s.ID == id })
	return err
}

// PurgePet removes every session of petID and returns how many went.
func (b *BondingLog) PurgePet(ctx context.Context, petID string) (int, error) {
	return b.removeWhere(ctx, func(s types.BondingSession) bool { return s.PetID == petID })
}

// PurgeOrphans removes sessions whose pet is not in known.
func (b *BondingLog) PurgeOrphans(ctx context.Context, known map[string]bool) (int, error) {
	return b.removeWhere(ctx, func(s types.BondingSession) bool { return !known[s.PetID] })
}

func (b *BondingLog) removeWhere(ctx context.Context, match func(types.BondingSession) bool) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	all, err := b.load(ctx)
	if err != nil {
		return 0, err
	}
	kept := all[:0]
	for _, s := range all {
		if !match(s) {
			kept = append(kept, s)
		}
	}
	removed := len(all) - len(kept)
	if removed == 0 {
		return 0, nil
	}
	return removed, kv.SetJSON(ctx, b.kv, types.KeyBondingLog, kept)
}

// BondingSummary aggregates a pet's sessions.
type BondingSummary struct {
	Sessions       int
	TotalMinutes   int
	Responsiveness float64
}

// Summarize totals sessions and averages responsiveness.
func Summarize(sessions []types.BondingSession) BondingSummary {
	var sum BondingSummary
	total := 0
	for _, s := range sessions {
		sum.Sessions++
		sum.TotalMinutes += s.DurationMinutes
		total += s.Responsiveness
	}
	if sum.Sessions > 0 {
		sum.Responsiveness = float64(total) / float64(sum.Sessions)
	}
	return sum
}
