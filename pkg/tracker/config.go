package tracker

import "time"

// Defaults applied by Config.withDefaults.
const (
	DefaultEndpoint      = "https://collect.pulsekit.dev/v1/events"
	DefaultBatchSize     = 10
	DefaultFlushInterval = 5 * time.Second
	DefaultSessionTTL    = 30 * time.Minute
)

// Config controls a Tracker. ProjectID is the only required field; every
// other zero value maps to a sensible default.
type Config struct {
	// ProjectID identifies the tracked project. Required.
	ProjectID string `json:"projectId"`

	// Endpoint is the collection endpoint receiving delivery payloads.
	Endpoint string `json:"endpoint"`

	// SampleRate is the probability (0–1) that this tracker instance
	// captures at all. Unset means 1.0.
	SampleRate *float64 `json:"sampleRate"`

	// Debug enables the tracker's own logging. Off by default; the
	// library stays silent in the host's logs otherwise.
	Debug bool `json:"debug"`

	// UserProperties seeds the user-properties map at init.
	UserProperties map[string]any `json:"userProperties"`

	// OfflineStorage persists the queue and session across restarts.
	// Disabled, everything lives in memory only. Unset means enabled.
	OfflineStorage *bool `json:"offlineStorage"`

	// BatchSize is the queue length that triggers an immediate delivery.
	BatchSize int `json:"batchSize"`

	// FlushInterval is the period of the background delivery timer.
	FlushInterval time.Duration `json:"flushInterval"`

	// SessionTTL is the inactivity window after which the session
	// rotates to a new id.
	SessionTTL time.Duration `json:"sessionTtl"`

	// WebVitals starts the performance metric collector when a source
	// is supplied. Unset means enabled.
	WebVitals *bool `json:"webVitals"`

	// ErrorTracking enables CaptureError / CapturePanic events.
	// Unset means enabled.
	ErrorTracking *bool `json:"errorTracking"`

	// Consent is evaluated once at init; returning false leaves the
	// tracker inert. Nil means consent granted.
	Consent func() bool `json:"-"`

	// StorageDir overrides the directory used by the file storage tier.
	StorageDir string `json:"storageDir"`

	// RedisAddr enables the redis storage tier when the file tier is
	// unavailable.
	RedisAddr string `json:"redisAddr"`

	// RedisPassword is the optional redis password.
	RedisPassword string `json:"-"`

	// Namespace overrides the storage key namespace.
	Namespace string `json:"namespace"`
}

// withDefaults returns a copy with every unset field defaulted.
func (c Config) withDefaults() Config {
	if c.Endpoint == "" {
		c.Endpoint = DefaultEndpoint
	}
	if c.SampleRate == nil {
		one := 1.0
		c.SampleRate = &one
	}
	if c.UserProperties == nil {
		c.UserProperties = map[string]any{}
	}
	if c.OfflineStorage == nil {
		t := true
		c.OfflineStorage = &t
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.FlushInterval <= 0 {
		c.FlushInterval = DefaultFlushInterval
	}
	if c.SessionTTL <= 0 {
		c.SessionTTL = DefaultSessionTTL
	}
	if c.WebVitals == nil {
		t := true
		c.WebVitals = &t
	}
	if c.ErrorTracking == nil {
		t := true
		c.ErrorTracking = &t
	}
	if c.Consent == nil {
		c.Consent = func() bool { return true }
	}
	return c
}

// Bool is a convenience for the optional boolean config fields.
func Bool(v bool) *bool { return &v }

// Float is a convenience for the optional float config fields.
func Float(v float64) *float64 { return &v }
