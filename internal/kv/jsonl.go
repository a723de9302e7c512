package kv

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/mesh-intelligence/guineapal/pkg/types"
)

// FileName is the JSONL file the File backend keeps under its data dir.
const FileName = "store.jsonl"

// maxLineBytes bounds one JSONL line; pet lists can outgrow bufio's 64 KiB
// default.
const maxLineBytes = 16 << 20

// Entry is one line of the JSONL layout used by the File backend and by
// Export/Import.
type Entry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// File keeps every entry in memory and rewrites the whole JSONL file on each
// mutation using the temp-file, fsync, rename pattern.
type File struct {
	mu     sync.RWMutex
	path   string
	data   map[string]string
	closed bool
}

// OpenFile loads dir/store.jsonl, creating dir when needed. Malformed lines
// are skipped.
func OpenFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	path := filepath.Join(dir, FileName)

	f := &File{path: path, data: make(map[string]string)}
	entries, err := readEntries(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, err
	}
	for _, e := range entries {
		f.data[e.Key] = e.Value
	}
	return f, nil
}

func (f *File) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return "", false, types.ErrStoreClosed
	}
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *File) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return types.ErrStoreClosed
	}
	prev, had := f.data[key]
	f.data[key] = value
	if err := f.persist(); err != nil {
		if had {
			f.data[key] = prev
		} else {
			delete(f.data, key)
		}
		return err
	}
	return nil
}

func (f *File) Remove(ctx context.Context, key string) error {
	return f.MultiRemove(ctx, []string{key})
}

func (f *File) MultiRemove(ctx context.Context, keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return types.ErrStoreClosed
	}
	removed := make(map[string]string)
	for _, k := range keys {
		if v, ok := f.data[k]; ok {
			removed[k] = v
			delete(f.data, k)
		}
	}
	if len(removed) == 0 {
		return nil
	}
	if err := f.persist(); err != nil {
		for k, v := range removed {
			f.data[k] = v
		}
		return err
	}
	return nil
}

func (f *File) Keys(ctx context.Context) ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, types.ErrStoreClosed
	}
	return sortedKeys(f.data), nil
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// persist must be called with mu held.
func (f *File) persist() error {
	entries := make([]Entry, 0, len(f.data))
	for _, k := range sortedKeys(f.data) {
		entries = append(entries, Entry{Key: k, Value: f.data[k]})
	}
	return writeEntries(f.path, entries)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func readEntries(path string) ([]Entry, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer fh.Close()

	entries, _, err := decodeEntries(fh)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return entries, nil
}

// decodeEntries reads one Entry per line. Blank lines are ignored; lines that
// are not a JSON entry with a non-empty key are counted in skipped.
func decodeEntries(r io.Reader) (entries []Entry, skipped int, err error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var e Entry
		if err := json.Unmarshal(line, &e); err != nil || e.Key == "" {
			skipped++
			continue
		}
		entries = append(entries, e)
	}
	if err := scanner.Err(); err != nil {
		return nil, skipped, fmt.Errorf("scanning: %w", err)
	}
	return entries, skipped, nil
}

func encodeEntries(w io.Writer, entries []Entry) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, e := range entries {
		if err := enc.Encode(e); err != nil {
			return fmt.Errorf("writing entry %q: %w", e.Key, err)
		}
	}
	return nil
}

// writeEntries atomically replaces path with entries.
func writeEntries(path string, entries []Entry) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".jsonl-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	w := bufio.NewWriter(tmp)
	if err := encodeEntries(w, entries); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := w.Flush(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("flushing buffer: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

var _ types.KVStore = (*File)(nil)
