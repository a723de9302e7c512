package family

import (
	"context"
	"fmt"

	"github.com/mesh-intelligence/guineapal/internal/petstore"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// Service applies relationship edits to the pet store. Both sides of an edit
// are saved in one write.
type Service struct {
	pets *petstore.Store
}

func NewService(pets *petstore.Store) *Service {
	return &Service{pets: pets}
}

// Tree resolves the family of the pet with id.
func (s *Service) Tree(ctx context.Context, id string) (Tree, error) {
	all := s.pets.Load(ctx)
	for _, p := range all {
		if p.ID == id {
			return Resolve(p, all), nil
		}
	}
	return Tree{}, fmt.Errorf("pet %q: %w", id, types.ErrNotFound)
}

// Eligible lists the pets that may fill kind for the pet with id.
func (s *Service) Eligible(ctx context.Context, id string, kind Kind) ([]types.Pet, error) {
	all := s.pets.Load(ctx)
	for _, p := range all {
		if p.ID == id {
			return Eligible(p, all, kind), nil
		}
	}
	return nil, fmt.Errorf("pet %q: %w", id, types.ErrNotFound)
}

func (s *Service) Link(ctx context.Context, focalID, relatedID string, kind Kind) error {
	return s.apply(ctx, focalID, relatedID, kind, Link)
}

func (s *Service) Unlink(ctx context.Context, focalID, relatedID string, kind Kind) error {
	return s.apply(ctx, focalID, relatedID, kind, Unlink)
}

type editFunc func(pets []types.Pet, focalID, relatedID string, kind Kind) ([]types.Pet, error)

func (s *Service) apply(ctx context.Context, focalID, relatedID string, kind Kind, edit editFunc) error {
	return s.pets.Mutate(ctx, func(pets []types.Pet) ([]types.Pet, bool, error) {
		next, err := edit(pets, focalID, relatedID, kind)
		if err != nil {
			return nil, false, err
		}
		return next, true, nil
	})
}
