// Package storage provides the tracker's persistence layer: a uniform
// key/value interface over the most durable backend actually available,
// plus the session- and queue-specific accessors built on top of it.
//
// Backend selection happens once, at construction. Callers talk to the
// Manager and never branch on which backend was chosen.
package storage

import (
	"context"
	"errors"
	"log"
)

// Common errors for storage operations.
var (
	// ErrKeyNotFound is returned when a key has no stored value.
	ErrKeyNotFound = errors.New("key not found")
	// ErrBackendClosed is returned when operating on a closed backend.
	ErrBackendClosed = errors.New("storage backend is closed")
)

// DefaultNamespace prefixes every key so pulsekit state never collides
// with anything else sharing the storage area.
const DefaultNamespace = "pulsekit"

// Backend abstracts raw namespaced byte storage. Implementations must be
// safe for concurrent use and must scope Clear to their own namespace.
type Backend interface {
	// Get retrieves the value for a key. Returns ErrKeyNotFound if absent.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores a value under a key, overwriting any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes a key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Clear removes every key in this backend's namespace, nothing else.
	Clear(ctx context.Context) error

	// Name identifies the backend kind, for debug logging only.
	Name() string

	// Close releases any resources held by the backend.
	Close() error
}

// ProbeConfig controls backend selection.
type ProbeConfig struct {
	// Dir is the directory for file-backed storage. Empty means a
	// per-user default under the OS cache directory.
	Dir string
	// RedisAddr enables the redis backend when the file tier is
	// unavailable. Empty skips the redis tier.
	RedisAddr string
	// RedisPassword is the optional redis password.
	RedisPassword string
	// Namespace overrides DefaultNamespace.
	Namespace string
	// Debug enables selection logging.
	Debug bool
}

func (c ProbeConfig) namespace() string {
	if c.Namespace != "" {
		return c.Namespace
	}
	return DefaultNamespace
}

// Probe selects the most durable backend available: file, then redis, then
// in-memory. It never fails; the memory backend is the floor every
// environment can satisfy.
func Probe(cfg ProbeConfig) Backend {
	if b, err := NewFileBackend(cfg.Dir, cfg.namespace()); err == nil {
		return b
	} else if cfg.Debug {
		log.Printf("pulsekit: file storage unavailable: %v", err)
	}

	if cfg.RedisAddr != "" {
		if b, err := NewRedisBackend(RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			Prefix:   cfg.namespace() + ":",
		}); err == nil {
			return b
		} else if cfg.Debug {
			log.Printf("pulsekit: redis storage unavailable: %v", err)
		}
	}

	return NewMemoryBackend()
}
