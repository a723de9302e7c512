package kv

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// DBFileName is the SQLite database created under the data dir.
const DBFileName = "guineapal.db"

// Open validates cfg and opens the main store for its backend.
func Open(ctx context.Context, cfg types.Config) (types.KVStore, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case types.BackendMemory:
		return NewMemory(), nil
	case types.BackendPostgres:
		return OpenPostgres(ctx, cfg.DSN)
	case types.BackendJSONL:
		return OpenFile(cfg.DataDir)
	case types.BackendSQLite:
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data directory: %w", err)
		}
		return OpenSQLite(filepath.Join(cfg.DataDir, DBFileName))
	default:
		return nil, types.ErrBackendUnknown
	}
}

// OpenSecrets returns the store that holds the session token. With the
// keyring secrets setting it opens the OS keyring; otherwise it shares main,
// and closing the returned store leaves main open.
func OpenSecrets(cfg types.Config, main types.KVStore) (types.KVStore, error) {
	if cfg.Secrets == types.SecretsKeyring {
		return OpenKeyring(cfg.DataDir)
	}
	return shared{main}, nil
}

type shared struct {
	types.KVStore
}

func (shared) Close() error { return nil }
