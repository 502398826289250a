// Package tracker implements the telemetry orchestrator: it owns the
// session lifecycle, the event queue, flush scheduling, and delivery to
// the collection endpoint. Everything here is written for an unreliable
// host: public entry points absorb their own failures and never panic
// into the embedding application.
package tracker

import (
	"context"
	"fmt"
	"log"
	"math/rand/v2"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pulsekit-dev/pulsekit/internal/metrics"
	"github.com/pulsekit-dev/pulsekit/internal/sched"
	"github.com/pulsekit-dev/pulsekit/internal/util"
	"github.com/pulsekit-dev/pulsekit/pkg/event"
	"github.com/pulsekit-dev/pulsekit/pkg/storage"
	"github.com/pulsekit-dev/pulsekit/pkg/vitals"
)

// closeFlushTimeout bounds the final delivery attempt during Close so a
// shutdown can never hang on the network.
const closeFlushTimeout = 2 * time.Second

// activityPersistInterval throttles last-activity writes to storage. The
// in-memory clock still updates on every capture; only the persisted copy
// is rate-limited.
const activityPersistInterval = time.Second

// state is the tracker's lifecycle position.
type state int

const (
	stateUninitialized state = iota
	stateActive
	stateExpired // session timed out; next activity rotates the id
	stateInert   // consent or sample gate declined, or config invalid
	stateDestroyed
)

// Tracker captures, queues, and delivers telemetry events. Construct with
// New, then call Init once. All methods are safe for concurrent use.
type Tracker struct {
	cfg       Config
	scheduler sched.Scheduler
	sender    Deliverer
	source    vitals.Source

	mu           sync.Mutex
	state        state
	store        *storage.Manager
	collector    *vitals.Collector
	sessionID    string
	userID       string
	userProps    map[string]any
	hostInfo     HostInfo
	lastActivity int64
	lastEnqueued int64
	queue        []event.QueuedEvent
	stopFlush    sched.CancelFunc
	stopExpiry   sched.CancelFunc

	// persistActivity writes lastActivity to storage, throttled.
	// Called only with mu held.
	persistActivity func()

	inFlight atomic.Bool
	sample   func() float64
}

// Option customizes a Tracker at construction.
type Option func(*Tracker)

// WithScheduler injects a Scheduler (tests use sched.Fake).
func WithScheduler(s sched.Scheduler) Option {
	return func(t *Tracker) { t.scheduler = s }
}

// WithDeliverer injects the delivery transport.
func WithDeliverer(d Deliverer) Option {
	return func(t *Tracker) { t.sender = d }
}

// WithVitalsSource provides the performance entry source observed when
// web vitals are enabled. Without one, vitals are skipped entirely.
func WithVitalsSource(src vitals.Source) Option {
	return func(t *Tracker) { t.source = src }
}

// WithStorage injects a pre-built storage manager, bypassing the probe.
func WithStorage(m *storage.Manager) Option {
	return func(t *Tracker) { t.store = m }
}

// withSample injects the sample-gate random draw for tests.
func withSample(fn func() float64) Option {
	return func(t *Tracker) { t.sample = fn }
}

// New creates an uninitialized Tracker. Nothing runs until Init.
func New(cfg Config, opts ...Option) *Tracker {
	t := &Tracker{
		cfg:       cfg.withDefaults(),
		userProps: map[string]any{},
		sample:    rand.Float64,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.scheduler == nil {
		t.scheduler = sched.NewReal()
	}
	if t.sender == nil {
		t.sender = NewHTTPSender(t.cfg.Endpoint)
	}
	return t
}

// Init starts the tracker: it evaluates the consent and sample gates,
// restores or creates the session, loads any persisted queue, starts the
// vitals collector and timers, and emits the initial page view. Init is
// idempotent; any call after the first is a no-op.
func (t *Tracker) Init() {
	t.mu.Lock()
	if t.state != stateUninitialized {
		t.mu.Unlock()
		t.debugf("init called twice; ignoring")
		return
	}

	if t.cfg.ProjectID == "" {
		t.state = stateInert
		t.mu.Unlock()
		t.debugf("missing project id; tracker stays inert")
		return
	}
	if !t.cfg.Consent() {
		t.state = stateInert
		t.mu.Unlock()
		t.debugf("consent declined; tracker stays inert")
		return
	}
	if t.sample() >= *t.cfg.SampleRate {
		t.state = stateInert
		t.mu.Unlock()
		t.debugf("instance not sampled (rate %v)", *t.cfg.SampleRate)
		return
	}

	metrics.Init()

	if t.store == nil {
		t.store = t.openStorage()
	}
	t.debugf("storage backend: %s", t.store.BackendName())

	t.persistActivity = util.Throttle(activityPersistInterval, func() {
		if err := t.store.SetLastActivity(context.Background(), t.lastActivity); err != nil {
			t.debugf("persist last activity: %v", err)
		}
	})

	ctx := context.Background()
	t.restoreSessionLocked(ctx)
	t.queue = t.store.EventQueue(ctx)
	metrics.QueueDepth.Set(float64(len(t.queue)))

	if *t.cfg.WebVitals && t.source != nil {
		t.collector = vitals.NewCollector(t.source, t.trackVital)
		t.collector.Start()
	}

	t.state = stateActive
	t.stopFlush = t.scheduler.Every(t.cfg.FlushInterval, t.Flush)
	t.armExpiryLocked()
	t.mu.Unlock()

	t.Page("", "", nil)
}

// openStorage selects the backend per the offline-storage setting.
func (t *Tracker) openStorage() *storage.Manager {
	if !*t.cfg.OfflineStorage {
		return storage.NewManager(storage.NewMemoryBackend(), t.cfg.Debug)
	}
	backend := storage.Probe(storage.ProbeConfig{
		Dir:           t.cfg.StorageDir,
		RedisAddr:     t.cfg.RedisAddr,
		RedisPassword: t.cfg.RedisPassword,
		Namespace:     t.cfg.Namespace,
		Debug:         t.cfg.Debug,
	})
	return storage.NewManager(backend, t.cfg.Debug)
}

// Track captures a custom event.
func (t *Tracker) Track(name string, props map[string]any) {
	t.capture(func(sessionID, userID string) event.TrackingEvent {
		return event.New(event.TypeCustom, name, sessionID, userID, props)
	})
}

// Page captures a page-view event. An empty url is filled with a
// process-scoped pseudo-URL so every view is attributable.
func (t *Tracker) Page(url, title string, props map[string]any) {
	if url == "" {
		url = processURL()
	}
	t.capture(func(sessionID, userID string) event.TrackingEvent {
		return event.NewPageView(url, title, "", sessionID, userID, props)
	})
}

// Click captures an interaction event on the named target.
func (t *Tracker) Click(target string, props map[string]any) {
	merged := map[string]any{"target": target}
	for k, v := range props {
		merged[k] = v
	}
	t.capture(func(sessionID, userID string) event.TrackingEvent {
		return event.New(event.TypeClick, "", sessionID, userID, merged)
	})
}

// CaptureError records a host error as telemetry data. The error is never
// logged as the tracker's own failure and never re-raised.
func (t *Tracker) CaptureError(err error, props map[string]any) {
	if err == nil {
		return
	}
	t.mu.Lock()
	enabled := *t.cfg.ErrorTracking
	t.mu.Unlock()
	if !enabled {
		return
	}
	t.capture(func(sessionID, userID string) event.TrackingEvent {
		return event.NewError(err, sessionID, userID, props)
	})
}

// CapturePanic is a defer helper: it records a recovered panic as an error
// event, then re-panics so the host's crash behavior is untouched.
func (t *Tracker) CapturePanic() {
	if r := recover(); r != nil {
		t.CaptureError(fmt.Errorf("panic: %v", r), map[string]any{"panic": true})
		panic(r)
	}
}

// trackVital enqueues one computed web-vital metric.
func (t *Tracker) trackVital(m vitals.Metric) {
	t.capture(func(sessionID, userID string) event.TrackingEvent {
		return event.New(event.TypeWebVital, m.Name, sessionID, userID, map[string]any{
			"metric": m.Name,
			"value":  m.Value,
			"rating": m.Rating,
		})
	})
}

// Identify binds a user id to the session and merges properties into the
// user-properties map. Both persist independently of the queue.
func (t *Tracker) Identify(userID string, props map[string]any) {
	t.mu.Lock()
	if t.state != stateActive && t.state != stateExpired {
		t.mu.Unlock()
		t.debugf("identify before init; ignoring")
		return
	}
	ctx := context.Background()
	t.userID = userID
	if err := t.store.SetUserID(ctx, userID); err != nil {
		t.debugf("persist user id: %v", err)
	}
	t.mergeUserPropsLocked(ctx, props)
	t.touchLocked()
	t.mu.Unlock()
}

// SetUserProperties merges properties into the user-properties map.
// Existing keys not named in props are kept.
func (t *Tracker) SetUserProperties(props map[string]any) {
	t.mu.Lock()
	if t.state != stateActive && t.state != stateExpired {
		t.mu.Unlock()
		t.debugf("setUserProperties before init; ignoring")
		return
	}
	t.mergeUserPropsLocked(context.Background(), props)
	t.touchLocked()
	t.mu.Unlock()
}

func (t *Tracker) mergeUserPropsLocked(ctx context.Context, props map[string]any) {
	for k, v := range util.SanitizeProperties(props) {
		t.userProps[k] = v
	}
	if err := t.store.SetUserProperties(ctx, t.userProps); err != nil {
		t.debugf("persist user properties: %v", err)
	}
}

// SessionID returns the current session id, or "" before init.
func (t *Tracker) SessionID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.sessionID
}

// UserID returns the identified user id, or "" if none.
func (t *Tracker) UserID() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.userID
}

// capture builds an event against the current session, enqueues it, and
// refreshes the inactivity clock. No-op with a debug warning when the
// tracker is not initialized.
func (t *Tracker) capture(build func(sessionID, userID string) event.TrackingEvent) {
	t.mu.Lock()
	if t.state != stateActive && t.state != stateExpired {
		t.mu.Unlock()
		t.debugf("capture before init; ignoring")
		return
	}
	t.touchLocked()
	ev := build(t.sessionID, t.userID)

	// EnqueuedAt doubles as the removal key; force it strictly monotonic
	// so two captures in the same nanosecond cannot alias.
	now := time.Now().UnixNano()
	if now <= t.lastEnqueued {
		now = t.lastEnqueued + 1
	}
	t.lastEnqueued = now

	ctx := context.Background()
	qe := event.QueuedEvent{Event: ev, EnqueuedAt: now}
	t.queue = append(t.queue, qe)
	if len(t.queue) > storage.MaxQueueLen {
		dropped := len(t.queue) - storage.MaxQueueLen
		t.queue = t.queue[dropped:]
		metrics.EventsDropped.WithLabelValues("queue_full").Add(float64(dropped))
	}
	if err := t.store.SetEventQueue(ctx, t.queue); err != nil {
		t.debugf("persist queue: %v", err)
	}

	metrics.EventsCaptured.WithLabelValues(string(ev.Type)).Inc()
	metrics.QueueDepth.Set(float64(len(t.queue)))
	reached := len(t.queue) >= t.cfg.BatchSize
	t.mu.Unlock()

	if reached {
		// Threshold delivery must not block the captured call.
		go t.Flush()
	}
}

// Flush forces a delivery attempt of the current queue, independent of the
// batch-size and timer thresholds. While another delivery is in flight the
// call coalesces into a no-op.
func (t *Tracker) Flush() {
	t.flush(context.Background())
}

func (t *Tracker) flush(ctx context.Context) {
	if !t.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer t.inFlight.Store(false)

	t.mu.Lock()
	if t.state != stateActive && t.state != stateExpired {
		t.mu.Unlock()
		return
	}
	if len(t.queue) == 0 {
		t.mu.Unlock()
		return
	}
	batch := make([]event.QueuedEvent, len(t.queue))
	copy(batch, t.queue)
	payload := t.payloadLocked(batch)
	t.mu.Unlock()

	start := time.Now()
	err := t.sender.Deliver(ctx, payload)
	metrics.DeliveryDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		metrics.Deliveries.WithLabelValues("error").Inc()
		t.debugf("delivery failed (%d events): %v", len(batch), err)
		t.recordFailure(batch)
		return
	}

	metrics.Deliveries.WithLabelValues("ok").Inc()
	t.removeDelivered(batch)
}

// payloadLocked assembles the delivery body for a batch snapshot.
func (t *Tracker) payloadLocked(batch []event.QueuedEvent) Payload {
	events := make([]event.TrackingEvent, len(batch))
	for i, qe := range batch {
		events[i] = qe.Event
	}
	props := make(map[string]any, len(t.userProps))
	for k, v := range t.userProps {
		props[k] = v
	}
	return Payload{
		SessionID:      t.sessionID,
		ProjectID:      t.cfg.ProjectID,
		UserID:         t.userID,
		UserProperties: props,
		DeviceInfo:     t.hostInfo,
		Events:         events,
		Timestamp:      util.NowMillis(),
	}
}

// removeDelivered drops exactly the delivered entries from the in-memory
// queue and storage, matched by enqueue timestamp so events pushed during
// the delivery survive.
func (t *Tracker) removeDelivered(batch []event.QueuedEvent) {
	delivered := make(map[int64]struct{}, len(batch))
	for _, qe := range batch {
		delivered[qe.EnqueuedAt] = struct{}{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.queue[:0]
	for _, qe := range t.queue {
		if _, ok := delivered[qe.EnqueuedAt]; !ok {
			kept = append(kept, qe)
		}
	}
	t.queue = kept
	if err := t.store.RemoveFromQueue(context.Background(), delivered); err != nil {
		t.debugf("prune delivered events: %v", err)
	}
	metrics.QueueDepth.Set(float64(len(t.queue)))
}

// recordFailure increments retries for every event of the failed batch and
// drops the ones that reached the cap. The next trigger redelivers the
// rest; there is no inter-retry backoff beyond the next trigger.
func (t *Tracker) recordFailure(batch []event.QueuedEvent) {
	failed := make(map[int64]struct{}, len(batch))
	for _, qe := range batch {
		failed[qe.EnqueuedAt] = struct{}{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.queue[:0]
	droppedCount := 0
	for _, qe := range t.queue {
		if _, ok := failed[qe.EnqueuedAt]; ok {
			qe.Retries++
			if qe.Retries >= event.MaxRetries {
				droppedCount++
				continue
			}
		}
		kept = append(kept, qe)
	}
	t.queue = kept
	if droppedCount > 0 {
		metrics.EventsDropped.WithLabelValues("retry_cap").Add(float64(droppedCount))
		t.debugf("dropped %d events at retry cap", droppedCount)
	}
	if err := t.store.SetEventQueue(context.Background(), t.queue); err != nil {
		t.debugf("persist queue after failure: %v", err)
	}
	metrics.QueueDepth.Set(float64(len(t.queue)))
}

// NotifyHidden signals that the host is going to the background: the
// retrospective vitals report and a delivery attempt both fire, since a
// backgrounded host may never come back.
func (t *Tracker) NotifyHidden() {
	t.mu.Lock()
	collector := t.collector
	t.mu.Unlock()
	if collector != nil {
		collector.ReportPending()
	}
	t.Flush()
}

// Reset cancels all timers, detaches instrumentation, and clears every
// piece of persisted state. The tracker is unusable afterwards.
func (t *Tracker) Reset() {
	t.teardown(false)
}

// Close is the shutdown path: like Reset, but first reports pending vitals
// and makes one best-effort delivery of the remaining queue. The attempt
// is bounded by a short timeout and the queue is cleared regardless of its
// outcome; a hung shutdown is worse than losing a final batch.
func (t *Tracker) Close() {
	t.teardown(true)
}

func (t *Tracker) teardown(finalFlush bool) {
	t.mu.Lock()
	if t.state == stateDestroyed || t.state == stateUninitialized || t.state == stateInert {
		t.state = stateDestroyed
		t.mu.Unlock()
		return
	}
	stopFlush, stopExpiry := t.stopFlush, t.stopExpiry
	t.stopFlush, t.stopExpiry = nil, nil
	collector := t.collector
	t.mu.Unlock()

	if stopFlush != nil {
		stopFlush()
	}
	if stopExpiry != nil {
		stopExpiry()
	}
	if collector != nil {
		if finalFlush {
			collector.ReportPending()
		}
		collector.Stop()
	}

	if finalFlush {
		ctx, cancel := context.WithTimeout(context.Background(), closeFlushTimeout)
		t.flush(ctx)
		cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = stateDestroyed
	t.queue = nil
	if err := t.store.Clear(context.Background()); err != nil {
		t.debugf("clear storage: %v", err)
	}
	if err := t.store.Close(); err != nil {
		t.debugf("close storage: %v", err)
	}
	metrics.QueueDepth.Set(0)
}

func (t *Tracker) debugf(format string, args ...any) {
	if t.cfg.Debug {
		log.Printf("pulsekit: "+format, args...)
	}
}

// processURL is the pseudo-URL attributed to page views captured without
// an explicit location.
func processURL() string {
	name := "unknown"
	if len(os.Args) > 0 && os.Args[0] != "" {
		name = filepath.Base(os.Args[0])
	}
	return "process://" + name
}
