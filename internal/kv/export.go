package kv

import (
	"context"
	"fmt"
	"io"
	"sort"

	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// ImportResult counts what Import applied.
type ImportResult struct {
	Imported int
	Skipped  int
}

// Export writes every entry of store to w as JSONL, sorted by key, and
// returns the number written. excluded keys are left out.
func Export(ctx context.Context, store types.KVStore, w io.Writer, excluded ...string) (int, error) {
	keys, err := store.Keys(ctx)
	if err != nil {
		return 0, err
	}
	sort.Strings(keys)

	skip := make(map[string]bool, len(excluded))
	for _, k := range excluded {
		skip[k] = true
	}

	entries := make([]Entry, 0, len(keys))
	for _, k := range keys {
		if skip[k] {
			continue
		}
		v, ok, err := store.Get(ctx, k)
		if err != nil {
			return 0, err
		}
		if !ok {
			continue
		}
		entries = append(entries, Entry{Key: k, Value: v})
	}
	if err := encodeEntries(w, entries); err != nil {
		return 0, err
	}
	return len(entries), nil
}

// Import reads JSONL entries from r and sets each into store. Malformed lines
// are skipped and counted; existing keys are overwritten.
func Import(ctx context.Context, store types.KVStore, r io.Reader) (ImportResult, error) {
	entries, skipped, err := decodeEntries(r)
	if err != nil {
		return ImportResult{}, err
	}
	res := ImportResult{Skipped: skipped}
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if err := store.Set(ctx, e.Key, e.Value); err != nil {
			return res, fmt.Errorf("importing key %q: %w", e.Key, err)
		}
		res.Imported++
	}
	return res, nil
}
