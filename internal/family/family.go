// Package family resolves and edits the relationship graph stored on pets:
// parents, mate, siblings and children. Every edit updates both sides.
package family

import (
	"fmt"
	"slices"

	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// Kind is a relationship slot as seen from the focal pet.
type Kind string

const (
	Mother  Kind = "mother"
	Father  Kind = "father"
	Mate    Kind = "mate"
	Sibling Kind = "sibling"
	Child   Kind = "child"
)

// Kinds lists every relationship kind.
var Kinds = []Kind{Mother, Father, Mate, Sibling, Child}

func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !slices.Contains(Kinds, k) {
		return "", fmt.Errorf("%w: %q", types.ErrUnknownRelation, s)
	}
	return k, nil
}

// Tree is the resolved family of one pet.
type Tree struct {
	Mother *types.Pet
	Father *types.Pet
	Mate   *types.Pet
	// Siblings holds explicit siblings followed by pets sharing a parent,
	// each pet once.
	Siblings []types.Pet
	Children []types.Pet
	// Missing lists referenced ids that match no pet.
	Missing []string
}

// Resolve builds focal's Tree from all. Shared-parent siblings are derived
// here only and never written back to the siblings field.
func Resolve(focal types.Pet, all []types.Pet) Tree {
	byID := make(map[string]types.Pet, len(all))
	for _, p := range all {
		byID[p.ID] = p
	}

	var t Tree
	lookup := func(id string) *types.Pet {
		if id == "" {
			return nil
		}
		p, ok := byID[id]
		if !ok {
			t.Missing = appendUnique(t.Missing, id)
			return nil
		}
		return &p
	}

	t.Mother = lookup(focal.MotherID)
	t.Father = lookup(focal.FatherID)
	t.Mate = lookup(focal.Mate)

	seen := map[string]bool{focal.ID: true}
	for _, id := range focal.Siblings {
		if seen[id] {
			continue
		}
		if p := lookup(id); p != nil {
			seen[id] = true
			t.Siblings = append(t.Siblings, *p)
		}
	}
	for _, p := range all {
		if seen[p.ID] {
			continue
		}
		if sharesParent(focal, p) {
			seen[p.ID] = true
			t.Siblings = append(t.Siblings, p)
		}
	}

	for _, id := range focal.Children {
		if p := lookup(id); p != nil {
			t.Children = append(t.Children, *p)
		}
	}
	return t
}

func sharesParent(a, b types.Pet) bool {
	return (a.MotherID != "" && a.MotherID == b.MotherID) ||
		(a.FatherID != "" && a.FatherID == b.FatherID)
}

// Eligible returns the pets that may fill kind for focal: not focal itself,
// not already in that slot, and for a mate not of focal's gender.
func Eligible(focal types.Pet, all []types.Pet, kind Kind) []types.Pet {
	var out []types.Pet
	for _, p := range all {
		if p.ID == focal.ID || inSlot(focal, kind, p.ID) {
			continue
		}
		if kind == Mate && sameGender(focal, p) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func inSlot(focal types.Pet, kind Kind, id string) bool {
	switch kind {
	case Mother:
		return focal.MotherID == id
	case Father:
		return focal.FatherID == id
	case Mate:
		return focal.Mate == id
	case Sibling:
		return slices.Contains(focal.Siblings, id)
	case Child:
		return slices.Contains(focal.Children, id)
	}
	return false
}

func knownGender(g string) bool {
	return g == types.GenderMale || g == types.GenderFemale
}

func sameGender(a, b types.Pet) bool {
	return knownGender(a.Gender) && a.Gender == b.Gender
}

// Link records that relatedID fills kind for focalID and updates the inverse
// field on the related pet. pets is not modified; the returned slice holds
// the edited copies. Filling an occupied single slot with a different pet
// returns types.ErrSlotOccupied.
func Link(pets []types.Pet, focalID, relatedID string, kind Kind) ([]types.Pet, error) {
	out, f, r, err := pair(pets, focalID, relatedID)
	if err != nil {
		return nil, err
	}
	focal, related := &out[f], &out[r]

	switch kind {
	case Mother:
		if err := claim(&focal.MotherID, relatedID); err != nil {
			return nil, err
		}
		related.Children = appendUnique(related.Children, focalID)
	case Father:
		if err := claim(&focal.FatherID, relatedID); err != nil {
			return nil, err
		}
		related.Children = appendUnique(related.Children, focalID)
	case Mate:
		if sameGender(*focal, *related) {
			return nil, fmt.Errorf("%w: mates must not share a gender", types.ErrIneligible)
		}
		if related.Mate != "" && related.Mate != focalID {
			return nil, fmt.Errorf("%s already has a mate: %w", related.Name, types.ErrSlotOccupied)
		}
		if err := claim(&focal.Mate, relatedID); err != nil {
			return nil, err
		}
		related.Mate = focalID
	case Sibling:
		focal.Siblings = appendUnique(focal.Siblings, relatedID)
		related.Siblings = appendUnique(related.Siblings, focalID)
	case Child:
		switch focal.Gender {
		case types.GenderFemale:
			if err := claim(&related.MotherID, focalID); err != nil {
				return nil, err
			}
		case types.GenderMale:
			if err := claim(&related.FatherID, focalID); err != nil {
				return nil, err
			}
		}
		focal.Children = appendUnique(focal.Children, relatedID)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownRelation, kind)
	}
	return out, nil
}

// Unlink removes a relationship added by Link, clearing both sides.
func Unlink(pets []types.Pet, focalID, relatedID string, kind Kind) ([]types.Pet, error) {
	out, f, r, err := pair(pets, focalID, relatedID)
	if err != nil {
		return nil, err
	}
	focal, related := &out[f], &out[r]

	switch kind {
	case Mother:
		if focal.MotherID != relatedID {
			return nil, types.ErrRelationNotLinked
		}
		focal.MotherID = ""
		related.Children = removeID(related.Children, focalID)
	case Father:
		if focal.FatherID != relatedID {
			return nil, types.ErrRelationNotLinked
		}
		focal.FatherID = ""
		related.Children = removeID(related.Children, focalID)
	case Mate:
		if focal.Mate != relatedID {
			return nil, types.ErrRelationNotLinked
		}
		focal.Mate = ""
		if related.Mate == focalID {
			related.Mate = ""
		}
	case Sibling:
		if !slices.Contains(focal.Siblings, relatedID) && !slices.Contains(related.Siblings, focalID) {
			return nil, types.ErrRelationNotLinked
		}
		focal.Siblings = removeID(focal.Siblings, relatedID)
		related.Siblings = removeID(related.Siblings, focalID)
	case Child:
		if !slices.Contains(focal.Children, relatedID) {
			return nil, types.ErrRelationNotLinked
		}
		focal.Children = removeID(focal.Children, relatedID)
		if related.MotherID == focalID {
			related.MotherID = ""
		}
		if related.FatherID == focalID {
			related.FatherID = ""
		}
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownRelation, kind)
	}
	return out, nil
}

// Sever removes every reference to id from the other pets and reports how
// many pets changed.
func Sever(pets []types.Pet, id string) ([]types.Pet, int) {
	return strip(pets, func(ref string) bool { return ref == id })
}

// Prune removes references to ids that match no pet in pets and reports how
// many pets changed.
func Prune(pets []types.Pet) ([]types.Pet, int) {
	known := make(map[string]bool, len(pets))
	for _, p := range pets {
		known[p.ID] = true
	}
	return strip(pets, func(ref string) bool { return !known[ref] })
}

func strip(pets []types.Pet, drop func(ref string) bool) ([]types.Pet, int) {
	out := slices.Clone(pets)
	changed := 0
	for i := range out {
		p := &out[i]
		before := fingerprint(*p)
		if p.MotherID != "" && drop(p.MotherID) {
			p.MotherID = ""
		}
		if p.FatherID != "" && drop(p.FatherID) {
			p.FatherID = ""
		}
		if p.Mate != "" && drop(p.Mate) {
			p.Mate = ""
		}
		p.Siblings = filterIDs(p.Siblings, drop)
		p.Children = filterIDs(p.Children, drop)
		if fingerprint(*p) != before {
			changed++
		}
	}
	return out, changed
}

func fingerprint(p types.Pet) string {
	return fmt.Sprint(p.MotherID, "|", p.FatherID, "|", p.Mate, "|", p.Siblings, "|", p.Children)
}

// pair copies pets and locates the two participants.
func pair(pets []types.Pet, focalID, relatedID string) ([]types.Pet, int, int, error) {
	if focalID == relatedID {
		return nil, 0, 0, types.ErrSelfRelation
	}
	f := slices.IndexFunc(pets, func(p types.Pet) bool { return p.ID == focalID })
	if f < 0 {
		return nil, 0, 0, fmt.Errorf("pet %q: %w", focalID, types.ErrPetNotFound)
	}
	r := slices.IndexFunc(pets, func(p types.Pet) bool { return p.ID == relatedID })
	if r < 0 {
		return nil, 0, 0, fmt.Errorf("pet %q: %w", relatedID, types.ErrPetNotFound)
	}
	return slices.Clone(pets), f, r, nil
}

// claim fills an empty single-valued slot. Re-claiming with the same id is
// a no-op.
func claim(slot *string, id string) error {
	if *slot != "" && *slot != id {
		return types.ErrSlotOccupied
	}
	*slot = id
	return nil
}

// appendUnique never writes into list's backing array.
func appendUnique(list []string, id string) []string {
	if slices.Contains(list, id) {
		return list
	}
	return append(slices.Clip(list), id)
}

func removeID(list []string, id string) []string {
	return filterIDs(list, func(ref string) bool { return ref == id })
}

// filterIDs returns a fresh slice without the dropped ids, or nil when none
// remain.
func filterIDs(list []string, drop func(string) bool) []string {
	var out []string
	for _, ref := range list {
		if !drop(ref) {
			out = append(out, ref)
		}
	}
	return out
}
