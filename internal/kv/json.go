package kv

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// GetJSON decodes the value under key into v. It reports false, leaving v
// untouched, when the key is absent. A value that does not decode returns an
// error wrapping types.ErrInvalidData.
func GetJSON(ctx context.Context, store types.KVStore, key string, v any) (bool, error) {
	raw, ok, err := store.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("reading %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		return false, fmt.Errorf("%w: decoding %s: %v", types.ErrInvalidData, key, err)
	}
	return true, nil
}

// SetJSON encodes v and stores it under key.
func SetJSON(ctx context.Context, store types.KVStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}
	if err := store.Set(ctx, key, string(data)); err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}
