package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileName is the name of the state file inside the LocalVault home directory.
const FileName = "session.json"

// File is a Store backed by a single JSON file readable only by the owner.
// Every write replaces the file atomically.
type File struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// OpenFile loads the store at dir/session.json, creating dir if needed.
// A missing file yields an empty store.
func OpenFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("store.OpenFile: create %s: %w", dir, err)
	}
	f := &File{
		path: filepath.Join(dir, FileName),
		data: make(map[string]string),
	}
	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return f, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store.OpenFile: read: %w", err)
	}
	if len(raw) == 0 {
		return f, nil
	}
	if err := json.Unmarshal(raw, &f.data); err != nil {
		return nil, fmt.Errorf("store.OpenFile: decode %s: %w", f.path, err)
	}
	if f.data == nil {
		f.data = make(map[string]string)
	}
	return f, nil
}

// Path returns the location of the backing file.
func (f *File) Path() string {
	return f.path
}

func (f *File) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok, nil
}

func (f *File) SetMany(values map[string]string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := make(map[string]string, len(f.data)+len(values))
	for k, v := range f.data {
		next[k] = v
	}
	for k, v := range values {
		next[k] = v
	}
	if err := f.flush(next); err != nil {
		return fmt.Errorf("store.SetMany: %w", err)
	}
	f.data = next
	return nil
}

func (f *File) Delete(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	next := make(map[string]string, len(f.data))
	for k, v := range f.data {
		next[k] = v
	}
	for _, k := range keys {
		delete(next, k)
	}
	if err := f.flush(next); err != nil {
		return fmt.Errorf("store.Delete: %w", err)
	}
	f.data = next
	return nil
}

// flush writes data to a temp file and renames it over the real one.
func (f *File) flush(data map[string]string) error {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(f.path), ".session-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath) //nolint:errcheck // no-op after a successful rename

	if err := tmp.Chmod(0600); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("chmod temp: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close() //nolint:errcheck
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("replace %s: %w", f.path, err)
	}
	return nil
}
