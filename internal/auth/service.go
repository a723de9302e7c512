// Package auth is the local account store: a user list with bcrypt password
// hashes and a single active session. It gates local state only and issues
// no credentials usable elsewhere.
package auth

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io"
	"math/big"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/guineapal/internal/kv"
	"github.com/mesh-intelligence/guineapal/internal/logger"
	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// The account seeded into an empty user list.
const (
	DefaultEmail    = "test@example.com"
	DefaultUsername = "testuser"
	DefaultPassword = "password123"
)

// Service manages accounts and the session. Construct one per process with
// NewService and call Init before use.
type Service struct {
	kv      types.KVStore
	secrets types.KVStore
	log     logger.Logger
	now     func() time.Time
	random  io.Reader
	cost    int

	mu sync.Mutex
}

type Option func(*Service)

func WithLogger(l logger.Logger) Option { return func(s *Service) { s.log = l } }

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

// WithSecrets stores the session token in secrets instead of the main store.
func WithSecrets(secrets types.KVStore) Option { return func(s *Service) { s.secrets = secrets } }

// WithBcryptCost overrides bcrypt.DefaultCost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option { return func(s *Service) { s.cost = cost } }

func NewService(store types.KVStore, opts ...Option) *Service {
	s := &Service{
		kv:      store,
		secrets: store,
		log:     logger.Nop(),
		now:     time.Now,
		random:  rand.Reader,
		cost:    bcrypt.DefaultCost,
	}
	for _, o := range opts {
		o(s)
	}
	s.log = s.log.With(logger.Fields{"store": "auth"})
	return s
}

// Init seeds the default account when no users are stored and hashes any
// plaintext passwords left by older user lists.
func (s *Service) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.loadUsers(ctx)
	if err != nil {
		return err
	}
	if len(users) > 0 {
		return s.migrateLegacy(ctx, users)
	}
	u, err := s.newUser(DefaultUsername, DefaultEmail, DefaultPassword)
	if err != nil {
		return err
	}
	s.log.Info("seeded default account", logger.Fields{"email": DefaultEmail})
	return kv.SetJSON(ctx, s.kv, types.KeyMockUsers, []types.User{u})
}

func (s *Service) migrateLegacy(ctx context.Context, users []types.User) error {
	migrated := 0
	for i := range users {
		u := &users[i]
		if u.LegacyPassword == "" {
			continue
		}
		if u.PasswordHash == "" {
			hash, err := bcrypt.GenerateFromPassword([]byte(u.LegacyPassword), s.cost)
			if err != nil {
				return fmt.Errorf("hashing password: %w", err)
			}
			u.PasswordHash = string(hash)
		}
		u.LegacyPassword = ""
		migrated++
	}
	if migrated == 0 {
		return nil
	}
	s.log.Info("hashed legacy passwords", logger.Fields{"users": migrated})
	return kv.SetJSON(ctx, s.kv, types.KeyMockUsers, users)
}

func (s *Service) loadUsers(ctx context.Context) ([]types.User, error) {
	var users []types.User
	_, err := kv.GetJSON(ctx, s.kv, types.KeyMockUsers, &users)
	if errors.Is(err, types.ErrInvalidData) {
		s.log.Warn("unreadable user list, treating as empty", logger.Fields{"err": err})
		return nil, nil
	}
	return users, err
}

func (s *Service) newUser(username, email, password string) (types.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return types.User{}, fmt.Errorf("hashing password: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return types.User{}, fmt.Errorf("generating user id: %w", err)
	}
	return types.User{
		ID:           id.String(),
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	}, nil
}

// Users lists the stored accounts without credentials.
func (s *Service) Users(ctx context.Context) ([]types.PublicUser, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]types.PublicUser, 0, len(users))
	for _, u := range users {
		out = append(out, u.Public())
	}
	return out, nil
}

// Login starts a session for the account with email. The two failure modes
// are distinct: types.ErrNoAccount and types.ErrIncorrectPassword.
func (s *Service) Login(ctx context.Context, email, password string) (types.Session, error) {
	users, err := s.loadUsers(ctx)
	if err != nil {
		return types.Session{}, err
	}
	email = strings.TrimSpace(email)
	for _, u := range users {
		if u.Email != email {
			continue
		}
		// A missing or malformed hash counts as a wrong password.
		if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
			s.log.Debug("password check failed", logger.Fields{"user": u.ID, "err": err})
			return types.Session{}, types.ErrIncorrectPassword
		}
		return s.startSession(ctx, u)
	}
	return types.Session{}, types.ErrNoAccount
}

// Register creates an account and logs it in. Email and username must be
// unused; both comparisons are case-sensitive.
func (s *Service) Register(ctx context.Context, c types.Credentials) (types.Session, error) {
	username := strings.TrimSpace(c.Username)
	email := strings.TrimSpace(c.Email)
	if username == "" || email == "" || c.Password == "" {
		return types.Session{}, types.ErrMissingField
	}
	if c.Password != c.ConfirmPassword {
		return types.Session{}, types.ErrPasswordMismatch
	}

	s.mu.Lock()
	users, err := s.loadUsers(ctx)
	if err != nil {
		s.mu.Unlock()
		return types.Session{}, err
	}
	for _, u := range users {
		if u.Email == email {
			s.mu.Unlock()
			return types.Session{}, types.ErrEmailTaken
		}
		if u.Username == username {
			s.mu.Unlock()
			return types.Session{}, types.ErrUsernameTaken
		}
	}
	u, err := s.newUser(username, email, c.Password)
	if err == nil {
		err = kv.SetJSON(ctx, s.kv, types.KeyMockUsers, append(users, u))
	}
	s.mu.Unlock()
	if err != nil {
		return types.Session{}, err
	}

	s.log.Info("registered account", logger.Fields{"user": u.ID})
	return s.startSession(ctx, u)
}

func (s *Service) startSession(ctx context.Context, u types.User) (types.Session, error) {
	token, err := s.newToken()
	if err != nil {
		return types.Session{}, err
	}
	sess := types.Session{Token: token, User: u.Public()}
	if err := s.secrets.Set(ctx, types.KeyAuthToken, token); err != nil {
		return types.Session{}, fmt.Errorf("storing session token: %w", err)
	}
	if err := kv.SetJSON(ctx, s.kv, types.KeyAuthUser, sess.User); err != nil {
		return types.Session{}, err
	}
	return sess, nil
}

// newToken returns random base-36 digits followed by the base-36 timestamp.
func (s *Service) newToken() (string, error) {
	n, err := rand.Int(s.random, new(big.Int).Lsh(big.NewInt(1), 128))
	if err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	return n.Text(36) + strconv.FormatInt(s.now().UnixMilli(), 36), nil
}

// Logout clears the token and the cached user.
func (s *Service) Logout(ctx context.Context) error {
	if err := s.secrets.Remove(ctx, types.KeyAuthToken); err != nil {
		return fmt.Errorf("removing session token: %w", err)
	}
	if err := s.kv.Remove(ctx, types.KeyAuthUser); err != nil {
		return fmt.Errorf("removing session user: %w", err)
	}
	return nil
}

// Session restores the active session. ok is false when no one is logged in
// or the stored session is incomplete.
func (s *Service) Session(ctx context.Context) (types.Session, bool, error) {
	token, ok, err := s.secrets.Get(ctx, types.KeyAuthToken)
	if err != nil {
		return types.Session{}, false, fmt.Errorf("reading session token: %w", err)
	}
	if !ok || token == "" {
		return types.Session{}, false, nil
	}

	var user types.PublicUser
	ok, err = kv.GetJSON(ctx, s.kv, types.KeyAuthUser, &user)
	if errors.Is(err, types.ErrInvalidData) || (err == nil && !ok) {
		s.log.Warn("session token without a readable user", logger.Fields{"err": err})
		return types.Session{}, false, nil
	}
	if err != nil {
		return types.Session{}, false, err
	}
	return types.Session{Token: token, User: user}, true, nil
}

// IsAuthenticated reports whether a session is active.
func (s *Service) IsAuthenticated(ctx context.Context) (bool, error) {
	_, ok, err := s.Session(ctx)
	return ok, err
}
