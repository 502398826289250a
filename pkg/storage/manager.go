package storage

import (
	"context"
	"encoding/json"
	"log"

	"github.com/pulsekit-dev/pulsekit/pkg/event"
)

// MaxQueueLen caps the persisted event queue. Oldest entries are trimmed
// first; bounding storage growth wins over completeness.
const MaxQueueLen = 100

// Keys for the session and queue state this library persists.
const (
	keySessionID      = "session_id"
	keyUserID         = "user_id"
	keyLastActivity   = "last_activity"
	keyUserProperties = "user_properties"
	keyEventQueue     = "event_queue"
)

// Manager is the storage interface the tracker programs against. It adds
// JSON (de)serialization that fails closed (decode errors yield the
// caller's default, never an error the tracker has to handle), plus the
// session- and queue-specific accessors.
type Manager struct {
	backend Backend
	debug   bool
}

// NewManager wraps a backend. Use Probe to select one.
func NewManager(backend Backend, debug bool) *Manager {
	return &Manager{backend: backend, debug: debug}
}

// BackendName reports which tier was selected, for debug logging.
func (m *Manager) BackendName() string { return m.backend.Name() }

// GetJSON decodes the value stored under key into T. Any failure, be it a
// missing key, a backend error, or malformed JSON, returns def.
func GetJSON[T any](ctx context.Context, m *Manager, key string, def T) T {
	data, err := m.backend.Get(ctx, key)
	if err != nil {
		return def
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		if m.debug {
			log.Printf("pulsekit: discarding malformed value for %q: %v", key, err)
		}
		return def
	}
	return out
}

// SetJSON stores v under key as JSON.
func (m *Manager) SetJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return m.backend.Set(ctx, key, data)
}

// Remove deletes a key.
func (m *Manager) Remove(ctx context.Context, key string) error {
	return m.backend.Remove(ctx, key)
}

// SessionID returns the persisted session id, or "" if none.
func (m *Manager) SessionID(ctx context.Context) string {
	return GetJSON(ctx, m, keySessionID, "")
}

// SetSessionID persists the session id.
func (m *Manager) SetSessionID(ctx context.Context, id string) error {
	return m.SetJSON(ctx, keySessionID, id)
}

// UserID returns the persisted user id, or "" if none.
func (m *Manager) UserID(ctx context.Context) string {
	return GetJSON(ctx, m, keyUserID, "")
}

// SetUserID persists the user id.
func (m *Manager) SetUserID(ctx context.Context, id string) error {
	return m.SetJSON(ctx, keyUserID, id)
}

// LastActivity returns the persisted last-activity timestamp in epoch
// milliseconds, or 0 if none.
func (m *Manager) LastActivity(ctx context.Context) int64 {
	return GetJSON(ctx, m, keyLastActivity, int64(0))
}

// SetLastActivity persists the last-activity timestamp.
func (m *Manager) SetLastActivity(ctx context.Context, millis int64) error {
	return m.SetJSON(ctx, keyLastActivity, millis)
}

// UserProperties returns the persisted user properties. User properties
// live outside the event queue and survive session rotation.
func (m *Manager) UserProperties(ctx context.Context) map[string]any {
	return GetJSON(ctx, m, keyUserProperties, map[string]any{})
}

// SetUserProperties persists the full user-properties map.
func (m *Manager) SetUserProperties(ctx context.Context, props map[string]any) error {
	return m.SetJSON(ctx, keyUserProperties, props)
}

// EventQueue returns the persisted queue, empty on any failure.
func (m *Manager) EventQueue(ctx context.Context) []event.QueuedEvent {
	return GetJSON(ctx, m, keyEventQueue, []event.QueuedEvent{})
}

// SetEventQueue persists the queue, trimming oldest entries beyond
// MaxQueueLen.
func (m *Manager) SetEventQueue(ctx context.Context, queue []event.QueuedEvent) error {
	if len(queue) > MaxQueueLen {
		queue = queue[len(queue)-MaxQueueLen:]
	}
	return m.SetJSON(ctx, keyEventQueue, queue)
}

// AddToQueue appends one entry to the persisted queue.
func (m *Manager) AddToQueue(ctx context.Context, qe event.QueuedEvent) error {
	queue := m.EventQueue(ctx)
	return m.SetEventQueue(ctx, append(queue, qe))
}

// RemoveFromQueue drops the entries whose EnqueuedAt appears in delivered.
// Matching by enqueue timestamp rather than index tolerates pushes that
// happened while a delivery was in flight.
func (m *Manager) RemoveFromQueue(ctx context.Context, delivered map[int64]struct{}) error {
	queue := m.EventQueue(ctx)
	kept := queue[:0]
	for _, qe := range queue {
		if _, ok := delivered[qe.EnqueuedAt]; !ok {
			kept = append(kept, qe)
		}
	}
	return m.SetEventQueue(ctx, kept)
}

// Clear removes every key this library wrote, and nothing else.
func (m *Manager) Clear(ctx context.Context) error {
	return m.backend.Clear(ctx)
}

// Close releases backend resources.
func (m *Manager) Close() error {
	return m.backend.Close()
}
