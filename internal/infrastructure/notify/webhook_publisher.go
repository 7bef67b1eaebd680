// Package notify delivers domain events to external subscribers over HTTP.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/supplyhub/backend/internal/domain/shared"
)

// WebhookConfig holds the outbound webhook settings
type WebhookConfig struct {
	// URL is the subscriber endpoint; empty disables delivery
	URL string
	// Secret is sent in the X-Webhook-Secret header when set
	Secret string
	// TimeoutSeconds is the per-delivery HTTP timeout
	TimeoutSeconds int
}

// WebhookPublisher posts domain events to a configured endpoint. Delivery is
// best effort: a failed post is logged and swallowed so the business
// operation that raised the event is never rolled back by a slow subscriber.
type WebhookPublisher struct {
	config     WebhookConfig
	httpClient *http.Client
	logger     *zap.Logger
}

// NewWebhookPublisher creates a webhook event publisher
func NewWebhookPublisher(config WebhookConfig, zapLogger *zap.Logger) *WebhookPublisher {
	if config.TimeoutSeconds <= 0 {
		config.TimeoutSeconds = 5
	}
	if zapLogger == nil {
		zapLogger = zap.NewNop()
	}
	return &WebhookPublisher{
		config: config,
		httpClient: &http.Client{
			Timeout: time.Duration(config.TimeoutSeconds) * time.Second,
		},
		logger: zapLogger.Named("webhook"),
	}
}

type eventEnvelope struct {
	EventID       string             `json:"event_id"`
	EventType     string             `json:"event_type"`
	OccurredAt    time.Time          `json:"occurred_at"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	CompanyID     string             `json:"company_id"`
	Payload       shared.DomainEvent `json:"payload"`
}

// Publish delivers the events one at a time. Errors are logged, never returned.
func (p *WebhookPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	if p.config.URL == "" {
		return nil
	}

	for _, event := range events {
		if err := p.deliver(ctx, event); err != nil {
			p.logger.Error("webhook delivery failed",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()),
				zap.Error(err))
		} else {
			p.logger.Debug("webhook delivered",
				zap.String("event_type", event.EventType()),
				zap.String("event_id", event.EventID().String()))
		}
	}
	return nil
}

func (p *WebhookPublisher) deliver(ctx context.Context, event shared.DomainEvent) error {
	body, err := json.Marshal(eventEnvelope{
		EventID:       event.EventID().String(),
		EventType:     event.EventType(),
		OccurredAt:    event.OccurredAt(),
		AggregateID:   event.AggregateID().String(),
		AggregateType: event.AggregateType(),
		CompanyID:     event.CompanyID().String(),
		Payload:       event,
	})
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Event-Type", event.EventType())
	if p.config.Secret != "" {
		req.Header.Set("X-Webhook-Secret", p.config.Secret)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 512))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("subscriber returned %d", resp.StatusCode)
	}
	return nil
}

// NopPublisher discards all events. Used when no webhook is configured and in
// tests that do not care about notifications.
type NopPublisher struct{}

// Publish implements shared.EventPublisher
func (NopPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	return nil
}

var (
	_ shared.EventPublisher = (*WebhookPublisher)(nil)
	_ shared.EventPublisher = NopPublisher{}
)
