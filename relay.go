package pulsekit

import "sync"

// instance is the tracker surface the relay drives. *tracker.Tracker
// satisfies it.
type instance interface {
	Track(name string, props map[string]any)
	Page(url, title string, props map[string]any)
	Click(target string, props map[string]any)
	Identify(userID string, props map[string]any)
	SetUserProperties(props map[string]any)
	CaptureError(err error, props map[string]any)
	Flush()
	Reset()
	Close()
	NotifyHidden()
	SessionID() string
	UserID() string
}

// Relay is the command-queue adapter between callers and a Tracker. Calls
// made before a tracker is attached are buffered in order, replayed once
// against the attached instance, and delegated directly from then on. A
// caller therefore never has to wait for initialization to finish before
// tracking.
type Relay struct {
	mu     sync.Mutex
	inst   instance
	buffer []func(instance)
}

// NewRelay creates an empty relay.
func NewRelay() *Relay {
	return &Relay{}
}

// Attach binds the live instance and replays the buffered calls once, in
// their original order. A second attach is ignored.
func (r *Relay) Attach(inst instance) {
	r.mu.Lock()
	if r.inst != nil {
		r.mu.Unlock()
		return
	}
	r.inst = inst
	buffered := r.buffer
	r.buffer = nil
	r.mu.Unlock()

	for _, call := range buffered {
		call(inst)
	}
}

// call delegates immediately when attached, otherwise buffers.
func (r *Relay) call(fn func(instance)) {
	r.mu.Lock()
	inst := r.inst
	if inst == nil {
		r.buffer = append(r.buffer, fn)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	fn(inst)
}

func (r *Relay) Track(name string, props map[string]any) {
	r.call(func(i instance) { i.Track(name, props) })
}

func (r *Relay) Page(url, title string, props map[string]any) {
	r.call(func(i instance) { i.Page(url, title, props) })
}

func (r *Relay) Click(target string, props map[string]any) {
	r.call(func(i instance) { i.Click(target, props) })
}

func (r *Relay) Identify(userID string, props map[string]any) {
	r.call(func(i instance) { i.Identify(userID, props) })
}

func (r *Relay) SetUserProperties(props map[string]any) {
	r.call(func(i instance) { i.SetUserProperties(props) })
}

func (r *Relay) CaptureError(err error, props map[string]any) {
	r.call(func(i instance) { i.CaptureError(err, props) })
}

func (r *Relay) Flush() {
	r.call(func(i instance) { i.Flush() })
}

func (r *Relay) Reset() {
	r.call(func(i instance) { i.Reset() })
}

func (r *Relay) Close() {
	r.call(func(i instance) { i.Close() })
}

func (r *Relay) NotifyHidden() {
	r.call(func(i instance) { i.NotifyHidden() })
}

// SessionID returns the attached tracker's session id, or "" before
// attachment. Accessors are never buffered; there is nothing meaningful to
// replay.
func (r *Relay) SessionID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inst == nil {
		return ""
	}
	return r.inst.SessionID()
}

// UserID returns the attached tracker's user id, or "" before attachment.
func (r *Relay) UserID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.inst == nil {
		return ""
	}
	return r.inst.UserID()
}
