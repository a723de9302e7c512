package auth

import (
	"context"
	"strings"
	"testing"

	"github.com/99designs/keyring"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/guineapal/internal/kv"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

func newService(t *testing.T, opts ...Option) (*Service, *kv.Memory) {
	t.Helper()
	mem := kv.NewMemory()
	svc := NewService(mem, append([]Option{WithBcryptCost(bcrypt.MinCost)}, opts...)...)
	require.NoError(t, svc.Init(context.Background()))
	return svc, mem
}

func TestInit_SeedsDefaultAccountOnce(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	users, err := svc.Users(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, DefaultEmail, users[0].Email)

	parsed, err := uuid.Parse(users[0].ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())

	require.NoError(t, svc.Init(ctx))
	users, err = svc.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	_, err = svc.Login(ctx, DefaultEmail, DefaultPassword)
	assert.NoError(t, err)
}

func TestRegisterThenLogin(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Register(ctx, types.Credentials{
		Username: "alice", Email: "a@x.com", Password: "p1", ConfirmPassword: "p1",
	})
	require.NoError(t, err)

	sess, err := svc.Login(ctx, "a@x.com", "p1")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)
	assert.Equal(t, "alice", sess.User.Username)

	_, err = svc.Login(ctx, "a@x.com", "wrong")
	assert.ErrorIs(t, err, types.ErrIncorrectPassword)
	assert.EqualError(t, err, "incorrect password")
}

func TestLogin_DistinctFailures(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	_, err := svc.Login(ctx, "nobody@x.com", DefaultPassword)
	assert.ErrorIs(t, err, types.ErrNoAccount)
	assert.Contains(t, err.Error(), "no account found")

	_, err = svc.Login(ctx, DefaultEmail, "nope")
	assert.ErrorIs(t, err, types.ErrIncorrectPassword)
	assert.NotErrorIs(t, err, types.ErrNoAccount)
}

func TestInit_HashesLegacyPlaintextPasswords(t *testing.T) {
	ctx := context.Background()
	mem := kv.NewMemory()
	legacy := `[{"id":"1","email":"old@x.com","username":"oldie","password":"hay4ever","createdAt":"2023-01-01T00:00:00Z"}]`
	require.NoError(t, mem.Set(ctx, types.KeyMockUsers, legacy))
	svc := NewService(mem, WithBcryptCost(bcrypt.MinCost))

	_, err := svc.Login(ctx, "old@x.com", "hay4ever")
	require.ErrorIs(t, err, types.ErrIncorrectPassword, "unmigrated entry is a domain error")

	require.NoError(t, svc.Init(ctx))
	raw, _, err := mem.Get(ctx, types.KeyMockUsers)
	require.NoError(t, err)
	assert.NotContains(t, raw, "hay4ever")
	assert.NotContains(t, raw, `"password":`)

	sess, err := svc.Login(ctx, "old@x.com", "hay4ever")
	require.NoError(t, err)
	assert.Equal(t, "oldie", sess.User.Username)

	_, err = svc.Login(ctx, "old@x.com", "wrong")
	assert.ErrorIs(t, err, types.ErrIncorrectPassword)

	users, err := svc.Users(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1, "no default account is seeded over existing users")
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newService(t)

	tests := []struct {
		name    string
		creds   types.Credentials
		wantErr error
	}{
		{"missing username", types.Credentials{Email: "b@x.com", Password: "p", ConfirmPassword: "p"}, types.ErrMissingField},
		{"missing password", types.Credentials{Username: "bob", Email: "b@x.com"}, types.ErrMissingField},
		{"mismatch", types.Credentials{Username: "bob", Email: "b@x.com", Password: "p", ConfirmPassword: "q"}, types.ErrPasswordMismatch},
		{"duplicate email", types.Credentials{Username: "bob", Email: DefaultEmail, Password: "p", ConfirmPassword: "p"}, types.ErrEmailTaken},
		{"duplicate username", types.Credentials{Username: DefaultUsername, Email: "b@x.com", Password: "p", ConfirmPassword: "p"}, types.ErrUsernameTaken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.creds)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := svc.Register(ctx, types.Credentials{Username: "TestUser", Email: "Test@Example.com", Password: "p", ConfirmPassword: "p"})
	assert.NoError(t, err, "duplicate checks are case-sensitive")
}

func TestPasswordIsNeverStoredInPlaintext(t *testing.T) {
	ctx := context.Background()
	svc, mem := newService(t)

	_, err := svc.Register(ctx, types.Credentials{
		Username: "carol", Email: "c@x.com", Password: "hunter2-secret", ConfirmPassword: "hunter2-secret",
	})
	require.NoError(t, err)

	keys, err := mem.Keys(ctx)
	require.NoError(t, err)
	for _, k := range keys {
		v, _, err := mem.Get(ctx, k)
		require.NoError(t, err)
		assert.NotContains(t, v, "hunter2-secret", "key %s", k)
	}

	cached, _, err := mem.Get(ctx, types.KeyAuthUser)
	require.NoError(t, err)
	assert.NotContains(t, cached, "passwordHash")
}

func TestSessionLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, mem := newService(t)

	ok, err := svc.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	sess, err := svc.Login(ctx, DefaultEmail, DefaultPassword)
	require.NoError(t, err)

	restored, ok, err := svc.Session(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sess, restored)

	require.NoError(t, svc.Logout(ctx))
	ok, err = svc.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	for _, k := range []string{types.KeyAuthToken, types.KeyAuthUser} {
		_, present, err := mem.Get(ctx, k)
		require.NoError(t, err)
		assert.False(t, present, k)
	}
}

func TestTokensAreUnique(t *testing.T) {
	svc, _ := newService(t)
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		tok, err := svc.newToken()
		require.NoError(t, err)
		assert.False(t, seen[tok])
		assert.Equal(t, strings.ToLower(tok), tok, "base-36 digits")
		seen[tok] = true
	}
}

func TestKeyringSecrets(t *testing.T) {
	ctx := context.Background()
	secrets := kv.NewKeyring(keyring.NewArrayKeyring(nil))
	svc, mem := newService(t, WithSecrets(secrets))

	sess, err := svc.Login(ctx, DefaultEmail, DefaultPassword)
	require.NoError(t, err)

	_, inMain, err := mem.Get(ctx, types.KeyAuthToken)
	require.NoError(t, err)
	assert.False(t, inMain, "token stays out of the main store")

	tok, ok, err := secrets.Get(ctx, types.KeyAuthToken)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, sess.Token, tok)

	require.NoError(t, svc.Logout(ctx))
	_, ok, err = secrets.Get(ctx, types.KeyAuthToken)
	require.NoError(t, err)
	assert.False(t, ok)
}
