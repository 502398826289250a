// Package event defines the tracking event model: the closed set of event
// variants captured by the tracker and the queued form they take while
// waiting for delivery.
package event

import (
	"net/url"
	"strings"

	"github.com/pulsekit-dev/pulsekit/internal/util"
)

// Type identifies an event variant. The set is closed: the tracker only
// ever produces these five.
type Type string

const (
	TypePageView Type = "page_view"
	TypeClick    Type = "click"
	TypeWebVital Type = "web_vital"
	TypeError    Type = "error"
	TypeCustom   Type = "custom"
)

// MaxRetries is the delivery retry cap. An event whose batch fails this
// many times is dropped for good; bounded loss is preferred over unbounded
// queue growth.
const MaxRetries = 3

// TrackingEvent is one discrete observation correlated to a session.
// Properties are always sanitized before construction completes, so a
// TrackingEvent is size-bounded no matter what the host supplied.
type TrackingEvent struct {
	Type       Type           `json:"type"`
	Name       string         `json:"name,omitempty"`
	Timestamp  int64          `json:"timestamp"`
	SessionID  string         `json:"sessionId"`
	UserID     string         `json:"userId,omitempty"`
	Properties map[string]any `json:"properties"`
}

// QueuedEvent wraps a TrackingEvent while it waits for delivery. EnqueuedAt
// is nanosecond-resolution and serves as the removal key after a delivery
// succeeds, so concurrent pushes during a delivery are never removed by
// mistake.
type QueuedEvent struct {
	Event      TrackingEvent `json:"event"`
	Retries    int           `json:"retries"`
	EnqueuedAt int64         `json:"enqueuedAt"`
}

// New builds a sanitized event of the given variant. Custom event names
// arrive via the name argument; other variants may leave it empty.
func New(typ Type, name, sessionID, userID string, props map[string]any) TrackingEvent {
	return TrackingEvent{
		Type:       typ,
		Name:       util.TruncateString(name, util.MaxStringLen),
		Timestamp:  util.NowMillis(),
		SessionID:  sessionID,
		UserID:     userID,
		Properties: util.SanitizeProperties(props),
	}
}

// NewPageView builds a page-view event, additionally capturing referrer and
// any UTM parameters found in the URL's query string.
func NewPageView(rawURL, title, referrer, sessionID, userID string, props map[string]any) TrackingEvent {
	merged := make(map[string]any, len(props)+8)
	for k, v := range props {
		merged[k] = v
	}
	if rawURL != "" {
		merged["url"] = rawURL
	}
	if title != "" {
		merged["title"] = title
	}
	if referrer != "" {
		merged["referrer"] = referrer
	}
	for k, v := range ParseUTM(rawURL) {
		merged[k] = v
	}
	return New(TypePageView, "", sessionID, userID, merged)
}

// NewError builds an error event. The error is recorded as data; the
// tracker never re-throws or logs it as its own failure.
func NewError(err error, sessionID, userID string, props map[string]any) TrackingEvent {
	merged := make(map[string]any, len(props)+1)
	for k, v := range props {
		merged[k] = v
	}
	if err != nil {
		merged["message"] = err.Error()
	}
	return New(TypeError, "", sessionID, userID, merged)
}

// utmParams are the query parameters lifted into page-view properties.
var utmParams = []string{"utm_source", "utm_medium", "utm_campaign", "utm_term", "utm_content"}

// ParseUTM extracts UTM campaign parameters from a URL, if any.
func ParseUTM(rawURL string) map[string]string {
	out := make(map[string]string)
	if rawURL == "" || !strings.Contains(rawURL, "?") {
		return out
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return out
	}
	q := u.Query()
	for _, p := range utmParams {
		if v := q.Get(p); v != "" {
			out[p] = v
		}
	}
	return out
}
