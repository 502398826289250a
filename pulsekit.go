// Package pulsekit is an embeddable telemetry client: it captures
// behavioral and performance events in the host application, persists them
// durably across restarts, and delivers them in batches to a collection
// endpoint. It is built to be a good guest: it degrades gracefully when
// storage or network is unavailable and never panics into the host.
//
// Most applications use the package-level API:
//
//	pulsekit.Init(pulsekit.Config{ProjectID: "my-project"})
//	pulsekit.Track("signup", map[string]any{"plan": "pro"})
//	defer pulsekit.Shutdown()
//
// Calls made before Init are buffered and replayed in order once the
// tracker is live, so instrumentation code never has to coordinate with
// startup ordering. For multiple isolated trackers, construct
// tracker.Tracker instances directly.
package pulsekit

import (
	"sync"

	"github.com/pulsekit-dev/pulsekit/pkg/tracker"
)

// Config is the tracker configuration. See tracker.Config for the fields.
type Config = tracker.Config

var (
	defaultRelay = NewRelay()
	initOnce     sync.Once
)

// Init constructs and starts the default tracker, then replays any calls
// buffered before it. Subsequent calls are no-ops.
func Init(cfg Config, opts ...tracker.Option) {
	initOnce.Do(func() {
		t := tracker.New(cfg, opts...)
		t.Init()
		defaultRelay.Attach(t)
	})
}

// Track captures a custom event.
func Track(name string, props map[string]any) { defaultRelay.Track(name, props) }

// Page captures a page-view event.
func Page(url, title string, props map[string]any) { defaultRelay.Page(url, title, props) }

// Click captures an interaction event.
func Click(target string, props map[string]any) { defaultRelay.Click(target, props) }

// Identify binds a user id to the session and merges user properties.
func Identify(userID string, props map[string]any) { defaultRelay.Identify(userID, props) }

// SetUserProperties merges properties into the persistent user map.
func SetUserProperties(props map[string]any) { defaultRelay.SetUserProperties(props) }

// CaptureError records a host error as telemetry data.
func CaptureError(err error, props map[string]any) { defaultRelay.CaptureError(err, props) }

// Flush forces an out-of-band delivery attempt.
func Flush() { defaultRelay.Flush() }

// NotifyHidden signals that the host is going to the background; pending
// vitals are reported and a delivery attempt fires.
func NotifyHidden() { defaultRelay.NotifyHidden() }

// Reset tears the tracker down and clears its persisted state without a
// final delivery.
func Reset() { defaultRelay.Reset() }

// Shutdown reports pending vitals, makes one best-effort final delivery,
// and tears the tracker down. Safe to call at process exit.
func Shutdown() { defaultRelay.Close() }

// SessionID returns the current session id, or "" before Init.
func SessionID() string { return defaultRelay.SessionID() }

// UserID returns the identified user id, or "" if none.
func UserID() string { return defaultRelay.UserID() }
