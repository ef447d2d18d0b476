// Package events publishes one envelope per executed action so
// downstream systems (CRM sync, analytics, audit) can react without
// polling the ledger. Publishing is best effort: triage never fails
// because a broker is down.
package events

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fernwell/caseflow/internal/models"
)

// Envelope is the wire shape of an action event.
type Envelope struct {
	// ID is a fresh UUID per event.
	ID string `json:"id"`

	// Kind and Status mirror the execution result.
	Kind   string `json:"kind"`
	Status string `json:"status"`

	// MessageID ties the event back to the triaged message.
	MessageID string `json:"message_id"`

	OccurredAt time.Time `json:"occurred_at"`

	// Facts carries the handler's output (ticket IDs, ETAs, amounts).
	Facts map[string]string `json:"facts,omitempty"`
}

// Publisher delivers envelopes to interested consumers.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, env Envelope) error
	Close() error
}

// FromResult builds the envelope for one execution result.
func FromResult(messageID string, res models.ExecutionResult, occurredAt time.Time) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Kind:       string(res.Action.Kind),
		Status:     string(res.Status),
		MessageID:  messageID,
		OccurredAt: occurredAt,
		Facts:      res.Facts,
	}
}

// RoutingKey derives the topic key for a result, e.g.
// "action.issue_refund.applied". Consumers bind with patterns like
// "action.*.failed" or "action.escalate.#".
func RoutingKey(res models.ExecutionResult) string {
	return fmt.Sprintf("action.%s.%s", res.Action.Kind, res.Status)
}

// Connect returns an AMQP publisher when url is set and the broker is
// reachable, and the fallback publisher otherwise. Triage proceeds
// either way.
func Connect(ctx context.Context, url, exchange string, logger *zap.Logger) Publisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if url == "" {
		return NewFallback(logger)
	}
	pub, err := NewAMQP(ctx, url, exchange, logger)
	if err != nil {
		logger.Warn("broker unavailable, events will be dropped", zap.Error(err))
		return NewFallback(logger)
	}
	return pub
}
