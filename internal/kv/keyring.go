package kv

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/99designs/keyring"

	"github.com/mesh-intelligence/guineapal/pkg/types"
)

const keyringService = "guineapal"

// Keyring adapts an OS keyring to KVStore. It holds the session token so the
// credential stays out of the main data file.
type Keyring struct {
	mu     sync.Mutex
	ring   keyring.Keyring
	closed bool
}

// OpenKeyring opens the platform keyring, falling back to an encrypted file
// keyring under dataDir/credentials.
func OpenKeyring(dataDir string) (*Keyring, error) {
	ring, err := keyring.Open(keyring.Config{
		ServiceName: keyringService,
		AllowedBackends: []keyring.BackendType{
			keyring.KeychainBackend,
			keyring.SecretServiceBackend,
			keyring.WinCredBackend,
			keyring.PassBackend,
			keyring.FileBackend,
		},
		FileDir:                  filepath.Join(dataDir, "credentials"),
		FilePasswordFunc:         keyring.FixedStringPrompt("guineapal-file-key"),
		KeychainTrustApplication: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening keyring: %w", err)
	}
	return NewKeyring(ring), nil
}

// NewKeyring wraps an already opened keyring.
func NewKeyring(ring keyring.Keyring) *Keyring {
	return &Keyring{ring: ring}
}

func (k *Keyring) Get(ctx context.Context, key string) (string, bool, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return "", false, types.ErrStoreClosed
	}
	item, err := k.ring.Get(key)
	if errors.Is(err, keyring.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("getting credential %q: %w", key, err)
	}
	return string(item.Data), true, nil
}

func (k *Keyring) Set(ctx context.Context, key, value string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return types.ErrStoreClosed
	}
	if err := k.ring.Set(keyring.Item{Key: key, Data: []byte(value)}); err != nil {
		return fmt.Errorf("setting credential %q: %w", key, err)
	}
	return nil
}

func (k *Keyring) Remove(ctx context.Context, key string) error {
	return k.MultiRemove(ctx, []string{key})
}

func (k *Keyring) MultiRemove(ctx context.Context, keys []string) error {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return types.ErrStoreClosed
	}
	for _, key := range keys {
		err := k.ring.Remove(key)
		if err != nil && !errors.Is(err, keyring.ErrKeyNotFound) {
			return fmt.Errorf("deleting credential %q: %w", key, err)
		}
	}
	return nil
}

func (k *Keyring) Keys(ctx context.Context) ([]string, error) {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.closed {
		return nil, types.ErrStoreClosed
	}
	keys, err := k.ring.Keys()
	if err != nil {
		return nil, fmt.Errorf("listing credentials: %w", err)
	}
	return keys, nil
}

func (k *Keyring) Close() error {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.closed = true
	return nil
}

var _ types.KVStore = (*Keyring)(nil)
