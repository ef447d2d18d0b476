// Package triage orchestrates the full message pipeline: sanitize,
// extract, classify, resolve, execute, publish, and draft a reply.
// Given identical text and identical construction, the understanding
// half of the result (emotion, intent, entities, plan) is always
// byte-for-byte identical.
package triage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fernwell/caseflow/internal/compose"
	"github.com/fernwell/caseflow/internal/emotion"
	"github.com/fernwell/caseflow/internal/events"
	"github.com/fernwell/caseflow/internal/executor"
	"github.com/fernwell/caseflow/internal/extract"
	"github.com/fernwell/caseflow/internal/intent"
	"github.com/fernwell/caseflow/internal/models"
	"github.com/fernwell/caseflow/internal/policy"
	"github.com/fernwell/caseflow/internal/polish"
	"github.com/fernwell/caseflow/internal/sanitize"
	"github.com/fernwell/caseflow/internal/store"
)

// Engine runs messages through the triage pipeline. Construct with
// New; the zero value is not usable.
type Engine struct {
	cfg       policy.PolicyConfig
	emotion   *emotion.Classifier
	resolver  *policy.Resolver
	executor  *executor.Executor
	publisher events.Publisher
	polisher  polish.Polisher
	logger    *zap.Logger
	now       func() time.Time

	// set by options, consumed in New
	analyzer     emotion.Analyzer
	analyzerSet  bool
	directory    store.OrderDirectory
	ledger       store.ActionLedger
	execOverride *executor.Executor
}

// Option customizes engine construction.
type Option func(*Engine)

// WithClock fixes the engine's notion of now. It threads through to
// the resolver's window checks and the executor's IDs and ETAs.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger attaches a logger for the summary line and best-effort
// failure notes.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithAnalyzer replaces the default lexicon polarity analyzer. Pass
// nil to disable refinement entirely.
func WithAnalyzer(a emotion.Analyzer) Option {
	return func(e *Engine) {
		e.analyzer = a
		e.analyzerSet = true
	}
}

// WithDirectory replaces the default in-memory demo order directory.
func WithDirectory(dir store.OrderDirectory) Option {
	return func(e *Engine) { e.directory = dir }
}

// WithLedger records execution results to the given ledger.
func WithLedger(l store.ActionLedger) Option {
	return func(e *Engine) { e.ledger = l }
}

// WithPublisher replaces the default fallback event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithPolisher replaces the default no-op reply polisher.
func WithPolisher(p polish.Polisher) Option {
	return func(e *Engine) { e.polisher = p }
}

// WithExecutor injects a fully built executor. The engine uses it
// as-is; the caller is responsible for aligning its clock and ledger.
func WithExecutor(ex *executor.Executor) Option {
	return func(e *Engine) { e.execOverride = ex }
}

// New builds an engine around the policy table. Every collaborator
// not supplied through an option defaults to the deterministic
// in-process implementation: lexicon analyzer, demo order directory,
// in-memory ledger, fallback publisher, no-op polisher.
func New(cfg policy.PolicyConfig, opts ...Option) *Engine {
	e := &Engine{
		cfg:    cfg.WithDefaults(),
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	if !e.analyzerSet {
		e.analyzer = emotion.LexiconAnalyzer{}
	}
	e.emotion = emotion.New(e.analyzer)

	if e.directory == nil {
		dir := store.NewMemoryDirectory()
		for _, order := range store.DemoOrders(e.now()) {
			_ = dir.Add(context.Background(), order)
		}
		e.directory = dir
	}
	if e.ledger == nil {
		e.ledger = store.NewMemoryLedger()
	}
	if e.publisher == nil {
		e.publisher = events.NewFallback(e.logger)
	}
	if e.polisher == nil {
		e.polisher = polish.Noop{}
	}

	e.resolver = &policy.Resolver{Orders: e.directory, Now: e.now}
	if e.execOverride != nil {
		e.executor = e.execOverride
	} else {
		e.executor = executor.New(e.cfg,
			executor.WithClock(e.now),
			executor.WithLedger(e.ledger),
			executor.WithLogger(e.logger),
		)
	}
	return e
}

// Process triages one message. The returned result always carries
// whatever was understood and executed; the error is non-nil only when
// the executor aborted (failed handler or unregistered action kind).
func (e *Engine) Process(ctx context.Context, text string) (models.TriageResult, error) {
	msg := models.Message{
		ID:         uuid.NewString(),
		Text:       sanitize.Message(text),
		ReceivedAt: e.now(),
	}

	// Empty input gets the neutral fallback: understood as a generic
	// complaint with nothing to act on.
	if msg.Text == "" {
		res := models.TriageResult{
			Message:  msg,
			Emotion:  models.EmotionNeutral,
			Intent:   models.IntentGenericComplaint,
			Entities: models.EntityBag{},
		}
		e.logSummary(res)
		return res, nil
	}

	bag := extract.Extract(msg.Text)
	tone := e.emotion.Classify(msg.Text)
	intentLabel := intent.Classify(msg.Text, bag)
	plan := e.resolver.Resolve(ctx, intentLabel, tone, bag, e.cfg)

	results, execErr := e.executor.Execute(ctx, msg.ID, plan, bag)

	res := models.TriageResult{
		Message:    msg,
		Emotion:    tone,
		Intent:     intentLabel,
		Entities:   bag,
		Plan:       plan,
		Executions: results,
	}
	if execErr != nil {
		return res, fmt.Errorf("executing plan: %w", execErr)
	}

	e.publish(ctx, msg.ID, results)
	e.logSummary(res)
	return res, nil
}

// Respond drafts the customer-facing reply for a triaged result,
// polishing it when the provider and the draft both qualify. Polish
// failures are silent; the deterministic draft always stands ready.
func (e *Engine) Respond(ctx context.Context, res models.TriageResult) string {
	draft := compose.Compose(res)
	if !polish.Eligible(res.Intent, draft) {
		return draft
	}
	if e.polisher == nil || !e.polisher.Available() {
		return draft
	}
	polished, err := e.polisher.Polish(ctx, draft, polish.Hint{Emotion: res.Emotion, Intent: res.Intent})
	if err != nil {
		e.logger.Debug("polish failed, keeping draft",
			zap.String("provider", e.polisher.Name()),
			zap.Error(err))
		return draft
	}
	return polished
}

// publish sends one envelope per execution result, best effort.
func (e *Engine) publish(ctx context.Context, messageID string, results []models.ExecutionResult) {
	for _, res := range results {
		env := events.FromResult(messageID, res, e.now())
		key := events.RoutingKey(res)
		if err := e.publisher.Publish(ctx, key, env); err != nil {
			e.logger.Debug("event publish failed",
				zap.String("key", key),
				zap.Error(err))
		}
	}
}

func (e *Engine) logSummary(res models.TriageResult) {
	applied := 0
	for _, exec := range res.Executions {
		if exec.Status == models.StatusApplied {
			applied++
		}
	}
	e.logger.Info("message triaged",
		zap.String("message_id", res.Message.ID),
		zap.String("emotion", string(res.Emotion)),
		zap.String("intent", string(res.Intent)),
		zap.Int("entities", res.Entities.Len()),
		zap.Int("planned", len(res.Plan)),
		zap.Int("applied", applied),
	)
}
