package tracker

import (
	"context"

	"github.com/pulsekit-dev/pulsekit/internal/util"
)

// restoreSessionLocked restores the persisted session when its inactivity
// window has not elapsed, otherwise creates a fresh one. The host-info
// snapshot is taken once per session and never mutated afterwards.
func (t *Tracker) restoreSessionLocked(ctx context.Context) {
	now := t.scheduler.Now().UnixMilli()
	persisted := t.store.SessionID(ctx)
	lastActivity := t.store.LastActivity(ctx)

	if persisted != "" && lastActivity > 0 && now-lastActivity <= t.cfg.SessionTTL.Milliseconds() {
		t.sessionID = persisted
		t.debugf("restored session %s", t.sessionID)
	} else {
		t.sessionID = util.NewID()
		t.debugf("created session %s", t.sessionID)
	}

	t.userID = t.store.UserID(ctx)
	t.userProps = t.store.UserProperties(ctx)
	for k, v := range util.SanitizeProperties(t.cfg.UserProperties) {
		t.userProps[k] = v
	}

	t.hostInfo = CollectHostInfo()
	t.lastActivity = now

	if err := t.store.SetSessionID(ctx, t.sessionID); err != nil {
		t.debugf("persist session id: %v", err)
	}
	if err := t.store.SetLastActivity(ctx, now); err != nil {
		t.debugf("persist last activity: %v", err)
	}
	if len(t.userProps) > 0 {
		if err := t.store.SetUserProperties(ctx, t.userProps); err != nil {
			t.debugf("persist user properties: %v", err)
		}
	}
}

// touchLocked registers activity: it rotates an expired session, refreshes
// the persisted inactivity clock, and re-arms the expiry timer.
func (t *Tracker) touchLocked() {
	now := t.scheduler.Now().UnixMilli()
	if t.state == stateExpired || now-t.lastActivity > t.cfg.SessionTTL.Milliseconds() {
		t.rotateSessionLocked()
	}
	t.lastActivity = now
	t.persistActivity()
	t.armExpiryLocked()
}

// rotateSessionLocked starts a new session id. User identity and
// properties survive rotation; the host-info snapshot is retaken.
func (t *Tracker) rotateSessionLocked() {
	t.sessionID = util.NewID()
	t.hostInfo = CollectHostInfo()
	t.state = stateActive
	t.debugf("session rotated to %s", t.sessionID)
	if err := t.store.SetSessionID(context.Background(), t.sessionID); err != nil {
		t.debugf("persist session id: %v", err)
	}
}

// armExpiryLocked (re)starts the inactivity countdown.
func (t *Tracker) armExpiryLocked() {
	if t.stopExpiry != nil {
		t.stopExpiry()
	}
	t.stopExpiry = t.scheduler.After(t.cfg.SessionTTL, t.expire)
}

// expire marks the session expired after the inactivity window. The next
// activity transitions back to active under a new id.
func (t *Tracker) expire() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == stateActive {
		t.state = stateExpired
		t.debugf("session %s expired", t.sessionID)
	}
}
