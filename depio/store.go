package depio

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// -----------------------------------------------------------------------------
// Filesystem ArchiveStore
// -----------------------------------------------------------------------------

// fsStore implements ArchiveStore on a local directory tree. Keys map to
// relative paths under the root.
type fsStore struct {
	root string
}

// NewFSStore creates a filesystem-backed ArchiveStore rooted at the given
// directory. The directory must exist.
//
// Consistency: immediate read-after-write on local filesystems.
func NewFSStore(root string) (ArchiveStore, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, os.ErrNotExist
	}
	return &fsStore{root: root}, nil
}

func (f *fsStore) Put(_ context.Context, key string, r io.Reader) error {
	full, err := f.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	file, err := os.OpenFile(full, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if os.IsExist(err) {
			return ErrKeyExists
		}
		return err
	}
	defer closer(file)()

	_, err = io.Copy(file, r)
	return err
}

func (f *fsStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	full, err := f.keyPath(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return file, nil
}

func (f *fsStore) Exists(_ context.Context, key string) (bool, error) {
	full, err := f.keyPath(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(full); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (f *fsStore) List(_ context.Context, prefix string) ([]string, error) {
	start, err := f.prefixPath(prefix)
	if err != nil {
		return nil, err
	}
	var keys []string
	err = filepath.Walk(start, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.root, path)
		if err != nil {
			return err
		}
		keys = append(keys, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func (f *fsStore) Delete(_ context.Context, key string) error {
	full, err := f.keyPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func (f *fsStore) keyPath(key string) (string, error) {
	norm, ok := normalizeKey(key)
	if !ok {
		return "", ErrInvalidKey
	}
	full := filepath.Join(f.root, filepath.FromSlash(norm))

	absRoot, err := filepath.Abs(f.root)
	if err != nil {
		return "", err
	}
	absFull, err := filepath.Abs(full)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(absFull, absRoot+string(filepath.Separator)) {
		return "", ErrInvalidKey
	}
	return full, nil
}

func (f *fsStore) prefixPath(prefix string) (string, error) {
	norm, ok := normalizeKeyPrefix(prefix)
	if !ok {
		return "", ErrInvalidKey
	}
	if norm == "" {
		return f.root, nil
	}
	return filepath.Join(f.root, filepath.FromSlash(norm)), nil
}

// -----------------------------------------------------------------------------
// Memory ArchiveStore
// -----------------------------------------------------------------------------

// memoryStore implements ArchiveStore with an in-memory map. Intended for
// tests and dry runs.
type memoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an in-memory ArchiveStore.
//
// Consistency: immediate. Safe for concurrent use.
func NewMemoryStore() ArchiveStore {
	return &memoryStore{data: make(map[string][]byte)}
}

func (m *memoryStore) Put(_ context.Context, key string, r io.Reader) error {
	norm, ok := normalizeKey(key)
	if !ok {
		return ErrInvalidKey
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.data[norm]; exists {
		return ErrKeyExists
	}
	m.data[norm] = data
	return nil
}

func (m *memoryStore) Get(_ context.Context, key string) (io.ReadCloser, error) {
	norm, ok := normalizeKey(key)
	if !ok {
		return nil, ErrInvalidKey
	}

	m.mu.RLock()
	data, exists := m.data[norm]
	m.mu.RUnlock()
	if !exists {
		return nil, ErrNotFound
	}
	buf := make([]byte, len(data))
	copy(buf, data)
	return io.NopCloser(bytes.NewReader(buf)), nil
}

func (m *memoryStore) Exists(_ context.Context, key string) (bool, error) {
	norm, ok := normalizeKey(key)
	if !ok {
		return false, ErrInvalidKey
	}

	m.mu.RLock()
	_, exists := m.data[norm]
	m.mu.RUnlock()
	return exists, nil
}

func (m *memoryStore) List(_ context.Context, prefix string) ([]string, error) {
	norm, ok := normalizeKeyPrefix(prefix)
	if !ok {
		return nil, ErrInvalidKey
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	var keys []string
	for k := range m.data {
		if strings.HasPrefix(k, norm) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}

func (m *memoryStore) Delete(_ context.Context, key string) error {
	norm, ok := normalizeKey(key)
	if !ok {
		return ErrInvalidKey
	}

	m.mu.Lock()
	delete(m.data, norm)
	m.mu.Unlock()
	return nil
}

func normalizeKey(key string) (string, bool) {
	if key == "" {
		return "", false
	}
	cleaned := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(key)), "/")
	if cleaned == "." || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	return cleaned, true
}

func normalizeKeyPrefix(prefix string) (string, bool) {
	if prefix == "" {
		return "", true
	}
	cleaned := strings.TrimPrefix(filepath.ToSlash(filepath.Clean(prefix)), "/")
	if cleaned == "." {
		return "", true
	}
	if cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", false
	}
	return cleaned, true
}
