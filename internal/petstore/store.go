// Package petstore owns the canonical pet list. Reads validate every record
// and fall back to a backup copy; writes rotate the previous list into that
// backup before replacing it.
package petstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/mesh-intelligence/guineapal/internal/logger"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// Source reports where a Snapshot's pets came from.
type Source string

const (
	// SourcePrimary: the primary key held a JSON array.
	SourcePrimary Source = "primary"
	// SourceRecovered: the primary key held a single pet object.
	SourceRecovered Source = "recovered"
	// SourceBackup: the primary key was unreadable and the backup was used.
	SourceBackup Source = "backup"
	// SourceEmpty: no pet list has been saved yet.
	SourceEmpty Source = "empty"
	// SourceReset: neither the primary nor the backup key was usable.
	SourceReset Source = "reset"
)

// Snapshot is the result of one validated read of the pet list.
type Snapshot struct {
	Pets    []types.Pet
	Dropped int
	Source  Source
}

// NeedsRepair reports whether writing Pets back would change stored state.
func (s Snapshot) NeedsRepair() bool {
	switch s.Source {
	case SourcePrimary:
		return s.Dropped > 0
	case SourceEmpty:
		return false
	default:
		return true
	}
}

// Store is the pet list persisted under types.KeyPets.
type Store struct {
	kv  types.KVStore
	log logger.Logger
	now func() time.Time

	// mu serializes load-mutate-save sequences within the process.
	mu sync.Mutex
}

type Option func(*Store)

func WithLogger(l logger.Logger) Option {
	return func(s *Store) { s.log = l }
}

// WithClock overrides time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(kv types.KVStore, opts ...Option) *Store {
	s := &Store{kv: kv, log: logger.Nop(), now: time.Now}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With(logger.Fields{"store": "pets"})
	return s
}

// Load returns the valid pets currently stored. It never fails and never
// writes: storage errors degrade to the backup copy, then to an empty list.
func (s *Store) Load(ctx context.Context) []types.Pet {
	snap, err := s.Inspect(ctx)
	if err != nil {
		s.log.Warn("loading pets failed, using empty list", logger.Fields{"err": err})
	}
	return snap.Pets
}

// Inspect performs the same read as Load and reports how it went. The error
// is set only when both the primary and the backup read failed.
func (s *Store) Inspect(ctx context.Context) (Snapshot, error) {
	raw, ok, err := s.kv.Get(ctx, types.KeyPets)
	if err == nil && !ok {
		return Snapshot{Pets: []types.Pet{}, Source: SourceEmpty}, nil
	}

	var primaryErr error
	if err != nil {
		primaryErr = fmt.Errorf("reading %s: %w", types.KeyPets, err)
	} else {
		pets, dropped, recovered, perr := decodeList(raw)
		if perr == nil {
			if dropped > 0 {
				s.log.Warn("dropped invalid pet records", logger.Fields{"dropped": dropped})
			}
			src := SourcePrimary
			if recovered {
				src = SourceRecovered
				s.log.Warn("recovered single pet object from primary key", nil)
			}
			return Snapshot{Pets: pets, Dropped: dropped, Source: src}, nil
		}
		primaryErr = fmt.Errorf("parsing %s: %w", types.KeyPets, perr)
	}

	s.log.Warn("pet list unreadable, restoring from backup", logger.Fields{"err": primaryErr})
	pets, dropped, berr := s.readBackup(ctx)
	if berr != nil {
		s.log.Warn("backup unusable", logger.Fields{"err": berr})
		snap := Snapshot{Pets: []types.Pet{}, Source: SourceReset}
		if err != nil {
			return snap, errors.Join(primaryErr, berr)
		}
		return snap, nil
	}
	return Snapshot{Pets: pets, Dropped: dropped, Source: SourceBackup}, nil
}

func (s *Store) readBackup(ctx context.Context) ([]types.Pet, int, error) {
	raw, ok, err := s.kv.Get(ctx, types.KeyPetsBackup)
	if err != nil {
		return nil, 0, fmt.Errorf("reading %s: %w", types.KeyPetsBackup, err)
	}
	if !ok {
		return nil, 0, types.ErrNoBackup
	}
	pets, dropped, _, err := decodeList(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("parsing %s: %w", types.KeyPetsBackup, err)
	}
	return pets, dropped, nil
}

// decodeList parses a stored pet list. A lone object that passes the validity
// predicate is accepted as a one-element list and reported as recovered.
func decodeList(raw string) (pets []types.Pet, dropped int, recovered bool, err error) {
	var items []json.RawMessage
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		trimmed := strings.TrimSpace(raw)
		if strings.HasPrefix(trimmed, "{") && types.ValidPetRecord(json.RawMessage(trimmed)) {
			items = []json.RawMessage{json.RawMessage(trimmed)}
			recovered = true
		} else {
			return nil, 0, false, fmt.Errorf("%w: not a pet array", types.ErrInvalidData)
		}
	}

	pets = make([]types.Pet, 0, len(items))
	for _, item := range items {
		p, ok := types.DecodePet(item)
		if !ok {
			dropped++
			continue
		}
		pets = append(pets, p)
	}
	return pets, dropped, recovered, nil
}

// Repair writes the validated list back when the last read dropped records
// or came from anywhere but a clean primary key. The backup is not rotated.
func (s *Store) Repair(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap, err := s.Inspect(ctx)
	if err != nil {
		return snap, err
	}
	if !snap.NeedsRepair() {
		return snap, nil
	}
	if err := s.writePrimary(ctx, snap.Pets); err != nil {
		return snap, err
	}
	s.log.Info("repaired pet list", logger.Fields{
		"source":  string(snap.Source),
		"dropped": snap.Dropped,
		"kept":    len(snap.Pets),
	})
	return snap, nil
}

// Save replaces the stored list with the valid entries of pets. The previous
// primary value is copied to the backup key first when it decodes as a pet
// list.
func (s *Store) Save(ctx context.Context, pets []types.Pet) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.save(ctx, pets)
}

func (s *Store) save(ctx context.Context, pets []types.Pet) error {
	s.rotateBackup(ctx)

	valid := make([]types.Pet, 0, len(pets))
	for _, p := range pets {
		if p.Valid() {
			valid = append(valid, p)
		}
	}
	if len(valid) != len(pets) {
		s.log.Warn("dropped invalid pets on save", logger.Fields{
			"given": len(pets),
			"saved": len(valid),
		})
	}
	return s.writePrimary(ctx, valid)
}

// rotateBackup is best-effort: failures are logged and the save continues.
func (s *Store) rotateBackup(ctx context.Context) {
	cur, ok, err := s.kv.Get(ctx, types.KeyPets)
	if err != nil {
		s.log.Warn("reading pet list for backup failed", logger.Fields{"err": err})
		return
	}
	if !ok {
		return
	}
	if _, _, _, err := decodeList(cur); err != nil {
		s.log.Warn("primary pet list unusable, keeping previous backup", logger.Fields{"err": err})
		return
	}
	if err := s.kv.Set(ctx, types.KeyPetsBackup, cur); err != nil {
		s.log.Warn("writing pet backup failed", logger.Fields{"err": err})
	}
}

func (s *Store) writePrimary(ctx context.Context, pets []types.Pet) error {
	if pets == nil {
		pets = []types.Pet{}
	}
	data, err := json.Marshal(pets)
	if err != nil {
		return fmt.Errorf("encoding pets: %w", err)
	}
	if err := s.kv.Set(ctx, types.KeyPets, string(data)); err != nil {
		return fmt.Errorf("writing %s: %w", types.KeyPets, err)
	}
	stamp := s.now().UTC().Format(time.RFC3339Nano)
	if err := s.kv.Set(ctx, types.KeyPetsLastSync, stamp); err != nil {
		s.log.Warn("stamping last sync failed", logger.Fields{"err": err})
	}
	return nil
}

// Mutate runs fn over the current list while holding the write lock and
// saves the result when fn reports a change. Use it for edits that touch
// several pets so they land in a single write.
func (s *Store) Mutate(ctx context.Context, fn func(pets []types.Pet) ([]types.Pet, bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed, err := fn(s.Load(ctx))
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	return s.save(ctx, next)
}

// Get returns the pet with id or types.ErrNotFound.
func (s *Store) Get(ctx context.Context, id string) (types.Pet, error) {
	for _, p := range s.Load(ctx) {
		if p.ID == id {
			return p, nil
		}
	}
	return types.Pet{}, fmt.Errorf("pet %q: %w", id, types.ErrNotFound)
}

// Exists reports whether a pet with id is stored.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	_, err := s.Get(ctx, id)
	if errors.Is(err, types.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

// AddOrUpdate replaces the pet with the same id or appends pet, stamping
// CreatedAt and UpdatedAt, and returns the stored value.
func (s *Store) AddOrUpdate(ctx context.Context, pet types.Pet) (types.Pet, error) {
	if !pet.Valid() {
		return types.Pet{}, types.ErrInvalidPet
	}

	err := s.Mutate(ctx, func(pets []types.Pet) ([]types.Pet, bool, error) {
		now := s.now().UTC()
		pet.UpdatedAt = now
		for i := range pets {
			if pets[i].ID != pet.ID {
				continue
			}
			if pet.CreatedAt.IsZero() {
				pet.CreatedAt = pets[i].CreatedAt
			}
			pets[i] = pet
			return pets, true, nil
		}
		if pet.CreatedAt.IsZero() {
			pet.CreatedAt = now
		}
		return append(pets, pet), true, nil
	})
	if err != nil {
		return types.Pet{}, err
	}
	return pet, nil
}

// Delete removes the pet with id. It reports whether anything was removed and
// skips the write, and so the backup rotation, when nothing matched.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	var removed bool
	err := s.Mutate(ctx, func(pets []types.Pet) ([]types.Pet, bool, error) {
		kept := pets[:0]
		for _, p := range pets {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		removed = len(kept) != len(pets)
		return kept, removed, nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// LastSync returns the time of the last successful write. ok is false when
// the list was never saved.
func (s *Store) LastSync(ctx context.Context) (time.Time, bool, error) {
	raw, ok, err := s.kv.Get(ctx, types.KeyPetsLastSync)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("reading %s: %w", types.KeyPetsLastSync, err)
	}
	if !ok {
		return time.Time{}, false, nil
	}
	t, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("%w: last sync %q", types.ErrInvalidData, raw)
	}
	return t, true, nil
}
