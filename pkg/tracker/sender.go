package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/pulsekit-dev/pulsekit/pkg/event"
)

// Payload is the delivery body POSTed to the collection endpoint.
type Payload struct {
	SessionID      string                `json:"sessionId"`
	ProjectID      string                `json:"projectId"`
	UserID         string                `json:"userId,omitempty"`
	UserProperties map[string]any        `json:"userProperties"`
	DeviceInfo     HostInfo              `json:"deviceInfo"`
	Events         []event.TrackingEvent `json:"events"`
	Timestamp      int64                 `json:"timestamp"`
}

// Deliverer attempts one delivery of a payload. A non-nil error, whether a
// network failure or a non-success status, makes the whole batch retryable.
type Deliverer interface {
	Deliver(ctx context.Context, p Payload) error
}

// HTTPSender delivers payloads with a plain JSON POST.
type HTTPSender struct {
	endpoint string
	client   *http.Client
	tracer   trace.Tracer
}

// NewHTTPSender creates a sender for the given endpoint.
func NewHTTPSender(endpoint string) *HTTPSender {
	return &HTTPSender{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
		tracer:   otel.Tracer("github.com/pulsekit-dev/pulsekit"),
	}
}

// Deliver POSTs the payload. Any transport failure or non-2xx status is an
// error; the caller's retry policy treats them identically.
func (s *HTTPSender) Deliver(ctx context.Context, p Payload) error {
	ctx, span := s.tracer.Start(ctx, "pulsekit.deliver",
		trace.WithAttributes(
			attribute.String("pulsekit.endpoint", s.endpoint),
			attribute.Int("pulsekit.events", len(p.Events)),
		))
	defer span.End()

	err := s.deliver(ctx, p)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "delivery failed")
	}
	return err
}

func (s *HTTPSender) deliver(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post events: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("collection endpoint returned %d", resp.StatusCode)
	}
	return nil
}
