package events

import (
	"context"

	"go.uber.org/zap"
)

// FallbackPublisher drops envelopes with a debug log line. It stands
// in whenever no broker is configured or dialing failed, so the rest
// of the pipeline runs identically with or without a broker.
type FallbackPublisher struct {
	logger *zap.Logger
}

// NewFallback builds the no-op publisher.
func NewFallback(logger *zap.Logger) *FallbackPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FallbackPublisher{logger: logger}
}

func (p *FallbackPublisher) Publish(_ context.Context, routingKey string, env Envelope) error {
	p.logger.Debug("event dropped, no broker configured",
		zap.String("key", routingKey),
		zap.String("kind", env.Kind))
	return nil
}

func (p *FallbackPublisher) Close() error { return nil }
