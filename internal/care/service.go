// Package care composes the pet, record and relationship stores into the
// operations that span them: cascade delete, reconciliation of dangling
// references, and the per-pet overview.
package care

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/mesh-intelligence/guineapal/internal/family"
	"github.com/mesh-intelligence/guineapal/internal/logger"
	"github.com/mesh-intelligence/guineapal/internal/petstore"
	"github.com/mesh-intelligence/guineapal/internal/records"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

type Service struct {
	kv      types.KVStore
	pets    *petstore.Store
	records *records.Set
	bonding *records.BondingLog
	log     logger.Logger
}

func NewService(store types.KVStore, pets *petstore.Store, recs *records.Set, bonding *records.BondingLog, log logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{
		kv:      store,
		pets:    pets,
		records: recs,
		bonding: bonding,
		log:     log.With(logger.Fields{"store": "care"}),
	}
}

// DeleteResult reports what DeletePet removed.
type DeleteResult struct {
	Removed  bool
	Severed  int
	Sessions int
}

// DeletePet removes the pet, strips every relationship edge pointing at it
// in the same write, then purges its sub-records and bonding sessions.
// Purging runs even when the pet was already gone.
func (s *Service) DeletePet(ctx context.Context, id string) (DeleteResult, error) {
	var res DeleteResult
	err := s.pets.Mutate(ctx, func(pets []types.Pet) ([]types.Pet, bool, error) {
		kept := make([]types.Pet, 0, len(pets))
		for _, p := range pets {
			if p.ID != id {
				kept = append(kept, p)
			}
		}
		res.Removed = len(kept) != len(pets)
		kept, res.Severed = family.Sever(kept, id)
		return kept, res.Removed || res.Severed > 0, nil
	})
	if err != nil {
		return res, err
	}

	if err := s.records.PurgePet(ctx, id); err != nil {
		return res, err
	}
	n, err := s.bonding.PurgePet(ctx, id)
	if err != nil {
		return res, err
	}
	res.Sessions = n

	s.log.Info("deleted pet", logger.Fields{
		"pet":      id,
		"removed":  res.Removed,
		"severed":  res.Severed,
		"sessions": res.Sessions,
	})
	return res, nil
}

// Report lists what Reconcile found, and removed unless DryRun.
type Report struct {
	DryRun         bool
	OrphanKeys     []string
	PrunedPets     int
	OrphanSessions int
}

// Clean reports whether nothing dangling was found.
func (r Report) Clean() bool {
	return len(r.OrphanKeys) == 0 && r.PrunedPets == 0 && r.OrphanSessions == 0
}

// Reconcile finds per-pet keys, relationship ids and bonding sessions that
// reference pets no longer stored, and removes them unless dryRun. It
// returns types.ErrPetListUnusable without touching anything when the pet
// list could not be read from the primary key.
func (s *Service) Reconcile(ctx context.Context, dryRun bool) (Report, error) {
	rep := Report{DryRun: dryRun}
	snap, err := s.pets.Inspect(ctx)
	if err != nil {
		return rep, fmt.Errorf("reading pets: %w", err)
	}
	switch snap.Source {
	case petstore.SourceBackup, petstore.SourceReset:
		return rep, fmt.Errorf("%w (source %s)", types.ErrPetListUnusable, snap.Source)
	}
	known := make(map[string]bool, len(snap.Pets))
	for _, p := range snap.Pets {
		known[p.ID] = true
	}

	keys, err := s.kv.Keys(ctx)
	if err != nil {
		return rep, fmt.Errorf("listing keys: %w", err)
	}
	for _, k := range keys {
		if _, petID, ok := types.SplitPetKey(k); ok && !known[petID] {
			rep.OrphanKeys = append(rep.OrphanKeys, k)
		}
	}
	sort.Strings(rep.OrphanKeys)

	sessions, err := s.bonding.List(ctx, "")
	if err != nil {
		return rep, err
	}
	for _, b := range sessions {
		if !known[b.PetID] {
			rep.OrphanSessions++
		}
	}

	if dryRun {
		_, rep.PrunedPets = family.Prune(snap.Pets)
		return rep, nil
	}

	err = s.pets.Mutate(ctx, func(pets []types.Pet) ([]types.Pet, bool, error) {
		var pruned []types.Pet
		pruned, rep.PrunedPets = family.Prune(pets)
		return pruned, rep.PrunedPets > 0, nil
	})
	if err != nil {
		return rep, err
	}
	if len(rep.OrphanKeys) > 0 {
		if err := s.kv.MultiRemove(ctx, rep.OrphanKeys); err != nil {
			return rep, fmt.Errorf("removing orphaned keys: %w", err)
		}
	}
	if rep.OrphanSessions > 0 {
		if _, err := s.bonding.PurgeOrphans(ctx, known); err != nil {
			return rep, err
		}
	}

	if !rep.Clean() {
		s.log.Info("reconciled store", logger.Fields{
			"orphan_keys":     len(rep.OrphanKeys),
			"pruned_pets":     rep.PrunedPets,
			"orphan_sessions": rep.OrphanSessions,
		})
	}
	return rep, nil
}

// Overview is everything the pet profile shows at a glance.
type Overview struct {
	Pet          types.Pet
	Age          *types.Age
	DaysUntilDue *int
	Medications  []types.Medication
	Appointments []types.VetAppointment
	Weight       records.Trend
	DueTasks     []string
	Family       family.Tree
}

// Overview gathers the derived state of one pet as of now.
func (s *Service) Overview(ctx context.Context, id string, now time.Time) (Overview, error) {
	all := s.pets.Load(ctx)
	var (
		pet   types.Pet
		found bool
	)
	for _, p := range all {
		if p.ID == id {
			pet, found = p, true
			break
		}
	}
	if !found {
		return Overview{}, fmt.Errorf("pet %q: %w", id, types.ErrNotFound)
	}

	ov := Overview{Pet: pet, Family: family.Resolve(pet, all)}
	if age, ok := pet.AgeAt(now); ok {
		ov.Age = &age
	}
	if days, ok := pet.DaysUntilDue(now); ok {
		ov.DaysUntilDue = &days
	}

	meds, err := s.records.Medications.Load(ctx, id)
	if err != nil {
		return ov, err
	}
	ov.Medications = records.ActiveMedications(meds, now)

	appts, err := s.records.Appointments.Load(ctx, id)
	if err != nil {
		return ov, err
	}
	ov.Appointments = records.UpcomingAppointments(appts, now)

	weights, err := s.records.Weights.Load(ctx, id)
	if err != nil {
		return ov, err
	}
	ov.Weight = records.WeightTrend(weights)

	sched, ok, err := s.records.Care.Load(ctx, id)
	if err != nil {
		return ov, err
	}
	if ok {
		ov.DueTasks = sched.DueTasks(now)
	}
	return ov, nil
}
