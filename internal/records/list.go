// Package records implements the per-pet sub-record stores: one JSON list
// or document per pet and category, plus the global bonding journal and the
// daily checklist.
package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mesh-intelligence/guineapal/internal/kv"
	"github.com/mesh-intelligence/guineapal/internal/logger"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// PetChecker reports whether a pet exists. petstore.Store satisfies it.
type PetChecker interface {
	Exists(ctx context.Context, id string) (bool, error)
}

type options struct {
	log   logger.Logger
	check PetChecker
}

type Option func(*options)

func WithLogger(l logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithPetChecker rejects writes for pets the checker does not know with
// types.ErrPetNotFound.
func WithPetChecker(c PetChecker) Option {
	return func(o *options) { o.check = c }
}

func buildOptions(opts []Option) options {
	o := options{log: logger.Nop()}
	for _, fn := range opts {
		fn(&o)
	}
	return o
}

func (o options) checkPet(ctx context.Context, petID string) error {
	if strings.TrimSpace(petID) == "" {
		return fmt.Errorf("%w: empty pet id", types.ErrInvalidID)
	}
	if o.check == nil {
		return nil
	}
	ok, err := o.check.Exists(ctx, petID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("pet %q: %w", petID, types.ErrPetNotFound)
	}
	return nil
}

func validate(v any) error {
	if val, ok := v.(types.Validator); ok {
		return val.Validate()
	}
	return nil
}

// List is a per-pet list of records stored under prefix+petID.
type List[T types.Record] struct {
	kv     types.KVStore
	prefix string
	opts   options
	mu     sync.Mutex
}

func NewList[T types.Record](store types.KVStore, prefix string, opts ...Option) *List[T] {
	o := buildOptions(opts)
	o.log = o.log.With(logger.Fields{"store": strings.TrimSuffix(prefix, "_")})
	return &List[T]{kv: store, prefix: prefix, opts: o}
}

// Key returns the storage key for petID.
func (l *List[T]) Key(petID string) string {
	return types.PetKey(l.prefix, petID)
}

// Load returns the pet's records in stored order. A value that does not
// parse degrades to an empty list; entries that fail to decode or have no id
// are dropped with a warning.
func (l *List[T]) Load(ctx context.Context, petID string) ([]T, error) {
	var raw []json.RawMessage
	ok, err := kv.GetJSON(ctx, l.kv, l.Key(petID), &raw)
	if errors.Is(err, types.ErrInvalidData) {
		l.opts.log.Warn("unreadable record list, treating as empty", logger.Fields{"pet": petID, "err": err})
		return []T{}, nil
	}
	if err != nil {
		return nil, err
	}
	if !ok {
		return []T{}, nil
	}

	out := make([]T, 0, len(raw))
	dropped := 0
	for _, item := range raw {
		var rec T
		if err := json.Unmarshal(item, &rec); err != nil || rec.RecordID() == "" {
			dropped++
			continue
		}
		out = append(out, rec)
	}
	if dropped > 0 {
		l.opts.log.Warn("dropped invalid records", logger.Fields{"pet": petID, "dropped": dropped})
	}
	return out, nil
}

func (l *List[T]) checkRecord(ctx context.Context, petID string, rec T) error {
	if err := l.opts.checkPet(ctx, petID); err != nil {
		return err
	}
	if strings.TrimSpace(rec.RecordID()) == "" {
		return fmt.Errorf("%w: empty record id", types.ErrInvalidID)
	}
	if owner := rec.OwnerID(); owner != "" && owner != petID {
		return fmt.Errorf("%w: record belongs to pet %q", types.ErrInvalidData, owner)
	}
	return validate(rec)
}

// Save appends rec to the pet's list.
func (l *List[T]) Save(ctx context.Context, petID string, rec T) error {
	if err := l.checkRecord(ctx, petID, rec); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	list, err := l.Load(ctx, petID)
	if err != nil {
		return err
	}
	for _, r := range list {
		if r.RecordID() == rec.RecordID() {
			return fmt.Errorf("record %q: %w", rec.RecordID(), types.ErrDuplicateID)
		}
	}
	return kv.SetJSON(ctx, l.kv, l.Key(petID), append(list, rec))
}

// Update replaces the record with rec's id.
func (l *List[T]) Update(ctx context.Context, petID string, rec T) error {
	if err := l.checkRecord(ctx, petID, rec); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	list, err := l.Load(ctx, petID)
	if err != nil {
		return err
	}
	for i, r := range list {
		if r.RecordID() == rec.RecordID() {
			list[i] = rec
			return kv.SetJSON(ctx, l.kv, l.Key(petID), list)
		}
	}
	return fmt.Errorf("record %q: %w", rec.RecordID(), types.ErrNotFound)
}

// Delete removes the record with id. Deleting a missing record succeeds
// without writing.
func (l *List[T]) Delete(ctx context.Context, petID, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	list, err := l.Load(ctx, petID)
	if err != nil {
		return err
	}
	kept := list[:0]
	for _, r := range list {
		if r.RecordID() != id {
			kept = append(kept, r)
		}
	}
	if len(kept) == len(list) {
		return nil
	}
	return kv.SetJSON(ctx, l.kv, l.Key(petID), kept)
}

// Purge removes the pet's key entirely.
func (l *List[T]) Purge(ctx context.Context, petID string) error {
	if err := l.kv.Remove(ctx, l.Key(petID)); err != nil {
		return fmt.Errorf("removing %s: %w", l.Key(petID), err)
	}
	return nil
}

// Doc is a per-pet singleton overwritten wholesale on each save.
type Doc[T any] struct {
	kv     types.KVStore
	prefix string
	opts   options
}

func NewDoc[T any](store types.KVStore, prefix string, opts ...Option) *Doc[T] {
	o := buildOptions(opts)
	o.log = o.log.With(logger.Fields{"store": strings.TrimSuffix(prefix, "_")})
	return &Doc[T]{kv: store, prefix: prefix, opts: o}
}

func (d *Doc[T]) Key(petID string) string {
	return types.PetKey(d.prefix, petID)
}

// Load returns the stored value. ok is false when nothing was saved or the
// stored value is unreadable.
func (d *Doc[T]) Load(ctx context.Context, petID string) (T, bool, error) {
	var v T
	ok, err := kv.GetJSON(ctx, d.kv, d.Key(petID), &v)
	if errors.Is(err, types.ErrInvalidData) {
		d.opts.log.Warn("unreadable document, treating as unset", logger.Fields{"pet": petID, "err": err})
		var zero T
		return zero, false, nil
	}
	if err != nil {
		var zero T
		return zero, false, err
	}
	return v, ok, nil
}

func (d *Doc[T]) Save(ctx context.Context, petID string, v T) error {
	if err := d.opts.checkPet(ctx, petID); err != nil {
		return err
	}
	if err := validate(v); err != nil {
		return err
	}
	return kv.SetJSON(ctx, d.kv, d.Key(petID), v)
}

func (d *Doc[T]) Purge(ctx context.Context, petID string) error {
	if err := d.kv.Remove(ctx, d.Key(petID)); err != nil {
		return fmt.Errorf("removing %s: %w", d.Key(petID), err)
	}
	return nil
}
