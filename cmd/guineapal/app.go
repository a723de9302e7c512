package main

import (
	"context"
	"errors"
	"time"

	"github.com/mesh-intelligence/guineapal/internal/achievements"
	"github.com/mesh-intelligence/guineapal/internal/auth"
	"github.com/mesh-intelligence/guineapal/internal/care"
	"github.com/mesh-intelligence/guineapal/internal/family"
	"github.com/mesh-intelligence/guineapal/internal/forum"
	"github.com/mesh-intelligence/guineapal/internal/kv"
	"github.com/mesh-intelligence/guineapal/internal/logger"
	"github.com/mesh-intelligence/guineapal/internal/petstore"
	"github.com/mesh-intelligence/guineapal/internal/records"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// app holds every store built over one opened backend.
type app struct {
	store   types.KVStore
	secrets types.KVStore

	pets         *petstore.Store
	records      *records.Set
	bonding      *records.BondingLog
	checklist    *records.Checklist
	family       *family.Service
	achievements *achievements.Store
	auth         *auth.Service
	forum        *forum.Store
	gram         *forum.Store
	care         *care.Service
}

func openApp(ctx context.Context, cfg types.Config, log logger.Logger, now func() time.Time) (*app, error) {
	store, err := kv.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	secrets, err := kv.OpenSecrets(cfg, store)
	if err != nil {
		return nil, errors.Join(err, store.Close())
	}

	pets := petstore.New(store, petstore.WithLogger(log), petstore.WithClock(now))
	recOpts := []records.Option{records.WithLogger(log), records.WithPetChecker(pets)}
	recs := records.NewSet(store, recOpts...)
	bonding := records.NewBondingLog(store, recOpts...)

	return &app{
		store:        store,
		secrets:      secrets,
		pets:         pets,
		records:      recs,
		bonding:      bonding,
		checklist:    records.NewChecklist(store, records.WithLogger(log)),
		family:       family.NewService(pets),
		achievements: achievements.NewStore(store, achievements.WithLogger(log), achievements.WithClock(now)),
		auth: auth.NewService(store,
			auth.WithSecrets(secrets),
			auth.WithLogger(log),
			auth.WithClock(now),
		),
		forum: forum.New(store, types.KeyForumPosts, forum.WithLogger(log), forum.WithClock(now)),
		gram:  forum.New(store, types.KeyGuineaGram, forum.WithLogger(log), forum.WithClock(now)),
		care:  care.NewService(store, pets, recs, bonding, log),
	}, nil
}

// Close releases the secrets store and then the main store.
func (a *app) Close() error {
	return errors.Join(a.secrets.Close(), a.store.Close())
}
