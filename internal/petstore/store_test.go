package petstore

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/guineapal/internal/kv"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

var fixedNow = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newStore(t *testing.T) (*Store, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	return New(mem, WithClock(func() time.Time { return fixedNow })), mem
}

func ids(pets []types.Pet) []string {
	out := make([]string, 0, len(pets))
	for _, p := range pets {
		out = append(out, p.ID)
	}
	return out
}

// flakyKV fails Get for the keys listed in failGet.
type flakyKV struct {
	*kv.Memory
	failGet map[string]bool
}

func (f *flakyKV) Get(ctx context.Context, key string) (string, bool, error) {
	if f.failGet[key] {
		return "", false, errors.New("disk unavailable")
	}
	return f.Memory.Get(ctx, key)
}

func TestLoad_EmptyWhenNothingSaved(t *testing.T) {
	s, _ := newStore(t)
	snap, err := s.Inspect(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SourceEmpty, snap.Source)
	assert.Empty(t, snap.Pets)
	assert.NotNil(t, s.Load(context.Background()))
}

func TestSaveLoad_KeepsValidPetsInOrder(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	in := []types.Pet{
		{ID: "3", Name: "Pepper"},
		{ID: "", Name: "No ID"},
		{ID: "1", Name: "Biscuit"},
		{ID: "2", Name: " "},
		{ID: "5", Name: "Clover"},
	}
	require.NoError(t, s.Save(ctx, in))
	assert.Equal(t, []string{"3", "1", "5"}, ids(s.Load(ctx)))

	last, ok, err := s.LastSync(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, fixedNow.Equal(last))
}

func TestSave_BackupHoldsPreviousPrimary(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t)

	require.NoError(t, s.Save(ctx, []types.Pet{{ID: "a", Name: "A"}}))
	primaryA, _, err := mem.Get(ctx, types.KeyPets)
	require.NoError(t, err)

	require.NoError(t, s.Save(ctx, []types.Pet{{ID: "b", Name: "B"}}))

	backup, ok, err := mem.Get(ctx, types.KeyPetsBackup)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, primaryA, backup)
	assert.Equal(t, []string{"b"}, ids(s.Load(ctx)))
}

func TestSave_SkipsBackupOfUnusablePrimary(t *testing.T) {
	for _, primary := range []string{`{not json`, `{"foo":1}`, `"x"`, `42`} {
		t.Run(primary, func(t *testing.T) {
			ctx := context.Background()
			s, mem := newStore(t)

			require.NoError(t, mem.Set(ctx, types.KeyPetsBackup, `[{"id":"old","name":"Old"}]`))
			require.NoError(t, mem.Set(ctx, types.KeyPets, primary))
			require.NoError(t, s.Save(ctx, []types.Pet{{ID: "new", Name: "New"}}))

			backup, _, err := mem.Get(ctx, types.KeyPetsBackup)
			require.NoError(t, err)
			assert.Equal(t, `[{"id":"old","name":"Old"}]`, backup)
		})
	}
}

func TestAddOrUpdate_UpdatesInPlace(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	first, err := s.AddOrUpdate(ctx, types.Pet{ID: "1", Name: "Biscuit"})
	require.NoError(t, err)
	assert.True(t, fixedNow.Equal(first.CreatedAt))

	_, err = s.AddOrUpdate(ctx, types.Pet{ID: "1", Name: "Biscuit Jr"})
	require.NoError(t, err)

	pets := s.Load(ctx)
	require.Len(t, pets, 1)
	assert.Equal(t, "1", pets[0].ID)
	assert.Equal(t, "Biscuit Jr", pets[0].Name)
	assert.True(t, fixedNow.Equal(pets[0].CreatedAt), "creation time survives updates")
}

func TestAddOrUpdate_RejectsInvalidPet(t *testing.T) {
	s, _ := newStore(t)
	_, err := s.AddOrUpdate(context.Background(), types.Pet{ID: "1"})
	assert.ErrorIs(t, err, types.ErrInvalidPet)
}

func TestDelete_Idempotent(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t)
	require.NoError(t, s.Save(ctx, []types.Pet{{ID: "1", Name: "Biscuit"}, {ID: "2", Name: "Pepper"}}))

	removed, err := s.Delete(ctx, "1")
	require.NoError(t, err)
	assert.True(t, removed)
	once := ids(s.Load(ctx))
	backupAfterFirst, _, err := mem.Get(ctx, types.KeyPetsBackup)
	require.NoError(t, err)

	removed, err = s.Delete(ctx, "1")
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, once, ids(s.Load(ctx)))

	backupAfterSecond, _, err := mem.Get(ctx, types.KeyPetsBackup)
	require.NoError(t, err)
	assert.Equal(t, backupAfterFirst, backupAfterSecond, "no-op delete does not rotate the backup")
}

func TestGetAndExists(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	require.NoError(t, s.Save(ctx, []types.Pet{{ID: "1", Name: "Biscuit"}}))

	p, err := s.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Biscuit", p.Name)

	_, err = s.Get(ctx, "9")
	assert.ErrorIs(t, err, types.ErrNotFound)

	ok, err := s.Exists(ctx, "1")
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = s.Exists(ctx, "9")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLoad_MalformedEntryIsFilteredAndRepairPersists(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t)
	raw := `[{"id":"1","name":"Biscuit"},{"id":"2"},{"id":"3","name":"Pepper"}]`
	require.NoError(t, mem.Set(ctx, types.KeyPets, raw))

	assert.Equal(t, []string{"1", "3"}, ids(s.Load(ctx)))
	assert.Equal(t, []string{"1", "3"}, ids(s.Load(ctx)))

	stored, _, err := mem.Get(ctx, types.KeyPets)
	require.NoError(t, err)
	assert.Equal(t, raw, stored, "load does not write")

	snap, err := s.Repair(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Dropped)
	assert.Equal(t, SourcePrimary, snap.Source)

	stored, _, err = mem.Get(ctx, types.KeyPets)
	require.NoError(t, err)
	var persisted []map[string]any
	require.NoError(t, json.Unmarshal([]byte(stored), &persisted))
	assert.Len(t, persisted, 2)

	_, hasBackup, err := mem.Get(ctx, types.KeyPetsBackup)
	require.NoError(t, err)
	assert.False(t, hasBackup, "repair does not rotate the backup")

	snap, err = s.Repair(ctx)
	require.NoError(t, err)
	assert.False(t, snap.NeedsRepair())
}

func TestLoad_KeepsValidPetsWithMalformedPayload(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t)
	raw := `[{"id":"1","name":"Biscuit","birthDate":""},{"id":"2","name":"Pip","weight":"900"}]`
	require.NoError(t, mem.Set(ctx, types.KeyPets, raw))

	snap, err := s.Inspect(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Dropped)
	assert.Equal(t, []string{"1", "2"}, ids(snap.Pets))
	assert.Nil(t, snap.Pets[0].BirthDate)
	require.NotNil(t, snap.Pets[1].Weight)
	assert.InDelta(t, 900.0, *snap.Pets[1].Weight, 0.001)

	snap, err = s.Repair(ctx)
	require.NoError(t, err)
	assert.False(t, snap.NeedsRepair())
	stored, _, err := mem.Get(ctx, types.KeyPets)
	require.NoError(t, err)
	assert.Equal(t, raw, stored)

	require.NoError(t, s.Save(ctx, s.Load(ctx)))
	assert.Equal(t, []string{"1", "2"}, ids(s.Load(ctx)))
}

func TestLoad_RecoversSingleObject(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t)
	require.NoError(t, mem.Set(ctx, types.KeyPets, `{"id":"1","name":"Biscuit"}`))

	snap, err := s.Inspect(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceRecovered, snap.Source)
	assert.Equal(t, []string{"1"}, ids(snap.Pets))
}

func TestLoad_FallsBackToBackup(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t)
	require.NoError(t, mem.Set(ctx, types.KeyPets, `garbage`))
	require.NoError(t, mem.Set(ctx, types.KeyPetsBackup, `[{"id":"1","name":"Biscuit"}]`))

	snap, err := s.Inspect(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourceBackup, snap.Source)
	assert.Equal(t, []string{"1"}, ids(snap.Pets))

	_, err = s.Repair(ctx)
	require.NoError(t, err)
	snap, err = s.Inspect(ctx)
	require.NoError(t, err)
	assert.Equal(t, SourcePrimary, snap.Source)
}

func TestLoad_ReadFailureDegrades(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	require.NoError(t, mem.Set(ctx, types.KeyPetsBackup, `[{"id":"1","name":"Biscuit"}]`))

	flaky := &flakyKV{Memory: mem, failGet: map[string]bool{types.KeyPets: true}}
	s := New(flaky)
	assert.Equal(t, []string{"1"}, ids(s.Load(ctx)))

	flaky.failGet[types.KeyPetsBackup] = true
	snap, err := s.Inspect(ctx)
	assert.Error(t, err)
	assert.Equal(t, SourceReset, snap.Source)
	assert.Empty(t, s.Load(ctx))
}

func TestMutate_NoChangeSkipsWrite(t *testing.T) {
	ctx := context.Background()
	s, mem := newStore(t)

	err := s.Mutate(ctx, func(pets []types.Pet) ([]types.Pet, bool, error) {
		return pets, false, nil
	})
	require.NoError(t, err)
	_, ok, err := mem.Get(ctx, types.KeyPets)
	require.NoError(t, err)
	assert.False(t, ok)

	boom := errors.New("boom")
	err = s.Mutate(ctx, func(pets []types.Pet) ([]types.Pet, bool, error) {
		return nil, true, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestLastSync_NeverSaved(t *testing.T) {
	s, _ := newStore(t)
	_, ok, err := s.LastSync(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}
