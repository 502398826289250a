package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// ErrInvalidKey is returned when a key contains characters unsafe to use
// as a file name.
var ErrInvalidKey = errors.New("invalid storage key")

// FileBackend implements Backend as one file per key inside a namespace
// directory. This is the most durable tier: state survives process
// restarts on the same machine.
//
// Storage layout:
//
//	<dir>/<namespace>/
//	  └── <key>.json
type FileBackend struct {
	dir    string
	mu     sync.RWMutex
	closed bool
}

// NewFileBackend creates a file-based backend rooted at dir/namespace.
// If dir is empty, the OS user cache directory is used. Construction fails
// when the directory cannot be created or written, which lets Probe fall
// through to the next tier.
func NewFileBackend(dir, namespace string) (*FileBackend, error) {
	if dir == "" {
		cache, err := os.UserCacheDir()
		if err != nil {
			return nil, fmt.Errorf("resolve cache directory: %w", err)
		}
		dir = cache
	}
	if err := validateKey(namespace); err != nil {
		return nil, fmt.Errorf("invalid namespace: %w", err)
	}

	root := filepath.Join(dir, namespace)
	if err := os.MkdirAll(root, 0700); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}

	// Verify the directory is actually writable before committing to it.
	probe := filepath.Join(root, ".probe")
	if err := os.WriteFile(probe, nil, 0600); err != nil {
		return nil, fmt.Errorf("storage directory not writable: %w", err)
	}
	_ = os.Remove(probe)

	return &FileBackend{dir: root}, nil
}

// validateKey rejects empty keys, path separators, and traversal sequences.
func validateKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	if strings.ContainsAny(key, `/\`) || strings.Contains(key, "..") {
		return ErrInvalidKey
	}
	return nil
}

func (f *FileBackend) path(key string) string {
	return filepath.Join(f.dir, key+".json")
}

func (f *FileBackend) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.closed {
		return nil, ErrBackendClosed
	}
	if err := validateKey(key); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(f.path(key)) // #nosec G304 - key validated against traversal
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrKeyNotFound
		}
		return nil, fmt.Errorf("read %s: %w", key, err)
	}
	return data, nil
}

func (f *FileBackend) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrBackendClosed
	}
	if err := validateKey(key); err != nil {
		return err
	}

	// Write-then-rename keeps a crash from leaving a torn value behind.
	tmp := f.path(key) + ".tmp"
	if err := os.WriteFile(tmp, value, 0600); err != nil {
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := os.Rename(tmp, f.path(key)); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("commit %s: %w", key, err)
	}
	return nil
}

func (f *FileBackend) Remove(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrBackendClosed
	}
	if err := validateKey(key); err != nil {
		return err
	}

	if err := os.Remove(f.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove %s: %w", key, err)
	}
	return nil
}

func (f *FileBackend) Clear(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.closed {
		return ErrBackendClosed
	}

	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return fmt.Errorf("read storage directory: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, e.Name())); err != nil {
			return fmt.Errorf("clear %s: %w", e.Name(), err)
		}
	}
	return nil
}

func (f *FileBackend) Name() string { return "file" }

func (f *FileBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}
