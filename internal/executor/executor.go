// Package executor carries out action plans in order, producing the
// operational facts (ticket IDs, ETAs, credit records) the response
// composer reads back to the customer. All effects are simulated
// against in-process counters; nothing external is charged or shipped.
package executor

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/fernwell/caseflow/internal/models"
	"github.com/fernwell/caseflow/internal/policy"
	"github.com/fernwell/caseflow/internal/store"
)

// ErrUnregisteredAction is returned when a plan names an action kind no
// handler was registered for. It aborts the remainder of the plan.
var ErrUnregisteredAction = errors.New("unregistered action kind")

const (
	// dateLayout renders customer-facing dates.
	dateLayout = "Jan 02, 2006"

	// partShipLeadDays is the fixed lead time for accessory shipments.
	partShipLeadDays = 4

	// offerValidityDays is how long a retention offer stays claimable.
	offerValidityDays = 7
)

// handlerFunc executes one action. Returned facts become the
// ExecutionResult's facts; a non-nil error marks the result failed and
// aborts the plan.
type handlerFunc func(ctx context.Context, a models.Action, bag models.EntityBag) (map[string]string, error)

// Executor runs action plans against a registry of handlers.
type Executor struct {
	cfg      policy.PolicyConfig
	now      func() time.Time
	ledger   store.ActionLedger
	logger   *zap.Logger
	handlers map[models.ActionKind]handlerFunc

	mu          sync.Mutex
	ticketSeq   int
	refundSeq   int
	replaceSeq  int
	creditSeq   int
	escalateSeq int
	shipmentSeq int
}

// Option configures an Executor.
type Option func(*Executor)

// WithClock injects the time source used for IDs and ETAs.
func WithClock(now func() time.Time) Option {
	return func(e *Executor) { e.now = now }
}

// WithLedger records every execution result to the given ledger.
// Ledger failures are logged and never propagate.
func WithLedger(l store.ActionLedger) Option {
	return func(e *Executor) { e.ledger = l }
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) { e.logger = logger }
}

// New returns an Executor with all built-in handlers registered.
func New(cfg policy.PolicyConfig, opts ...Option) *Executor {
	e := &Executor{
		cfg:    cfg.WithDefaults(),
		now:    time.Now,
		logger: zap.NewNop(),
		// Ticket numbers continue from 1001, shipments from 5001.
		ticketSeq:   1000,
		shipmentSeq: 5000,
	}
	for _, opt := range opts {
		opt(e)
	}

	e.handlers = map[models.ActionKind]handlerFunc{
		models.ActionCreateTicket:        e.createTicket,
		models.ActionIssueRefund:         e.issueRefund,
		models.ActionScheduleReplacement: e.scheduleReplacement,
		models.ActionShipMissingPart:     e.shipMissingPart,
		models.ActionIssueLoyaltyCredit:  e.issueLoyaltyCredit,
		models.ActionScheduleCallback:    e.scheduleCallback,
		models.ActionEscalate:            e.escalate,
		models.ActionApplyRetentionOffer: e.applyRetentionOffer,
	}
	return e
}

// Register adds or replaces the handler for a kind.
func (e *Executor) Register(kind models.ActionKind, h handlerFunc) {
	e.handlers[kind] = h
}

// Execute runs the plan strictly in order. Results for already-executed
// actions are returned even when a later action aborts the plan.
func (e *Executor) Execute(ctx context.Context, messageID string, plan models.ActionPlan, bag models.EntityBag) ([]models.ExecutionResult, error) {
	results := make([]models.ExecutionResult, 0, len(plan))
	creditGranted := false

	for _, a := range plan {
		handler, ok := e.handlers[a.Kind]
		if !ok {
			return results, fmt.Errorf("no handler for action %q: %w", a.Kind, ErrUnregisteredAction)
		}

		// One credit per message, whichever action gets there first.
		if grantsCredit(a.Kind) && creditGranted {
			res := models.ExecutionResult{
				Action: a,
				Status: models.StatusSkippedIneligible,
				Reason: "credit already granted",
			}
			results = append(results, res)
			e.record(ctx, messageID, res)
			continue
		}

		facts, err := handler(ctx, a, bag)
		if err != nil {
			res := models.ExecutionResult{
				Action: a,
				Status: models.StatusFailed,
				Reason: err.Error(),
			}
			results = append(results, res)
			e.record(ctx, messageID, res)
			return results, fmt.Errorf("action %s failed: %w", a.Kind, err)
		}
		if grantsCredit(a.Kind) {
			creditGranted = true
		}

		res := models.ExecutionResult{
			Action: a,
			Status: models.StatusApplied,
			Facts:  facts,
		}
		results = append(results, res)
		e.record(ctx, messageID, res)
	}

	return results, nil
}

func grantsCredit(kind models.ActionKind) bool {
	return kind == models.ActionIssueLoyaltyCredit || kind == models.ActionApplyRetentionOffer
}

func (e *Executor) record(ctx context.Context, messageID string, res models.ExecutionResult) {
	if e.ledger == nil {
		return
	}
	if err := e.ledger.Record(ctx, messageID, res); err != nil {
		e.logger.Warn("action ledger record failed",
			zap.String("kind", string(res.Action.Kind)),
			zap.Error(err))
	}
}

func (e *Executor) next(seq *int) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	*seq++
	return *seq
}

func (e *Executor) createTicket(_ context.Context, a models.Action, _ models.EntityBag) (map[string]string, error) {
	intent := a.Param("intent", string(models.IntentGenericComplaint))

	prefix := "TCK"
	if intent == string(models.IntentCancellationThreat) {
		prefix = "RET"
	}
	code := strings.ToUpper(intent)
	if len(code) > 2 {
		code = code[:2]
	}

	n := e.next(&e.ticketSeq)
	facts := map[string]string{
		"ticket_id": fmt.Sprintf("%s-%s-%s%d", prefix, e.now().Format("2006-01-02"), code, n),
		"topic":     strings.ReplaceAll(intent, "_", " "),
	}
	if amount := a.Param("amount", ""); amount != "" {
		facts["amount"] = amount
	}
	return facts, nil
}

func (e *Executor) issueRefund(_ context.Context, a models.Action, _ models.EntityBag) (map[string]string, error) {
	etaDays := paramInt(a, "eta_days", e.cfg.RefundETADays)
	n := e.next(&e.refundSeq)

	facts := map[string]string{
		"refund_id":  fmt.Sprintf("RF-%s-%04d", e.now().Format("20060102"), n),
		"refund_eta": e.now().AddDate(0, 0, etaDays).Format(dateLayout),
	}
	if amount := a.Param("amount", ""); amount != "" {
		facts["refund_amount"] = amount
	}
	if orderID := a.Param("order_id", ""); orderID != "" {
		facts["order_id"] = orderID
	}
	return facts, nil
}

func (e *Executor) scheduleReplacement(_ context.Context, a models.Action, _ models.EntityBag) (map[string]string, error) {
	etaDays := paramInt(a, "eta_days", e.cfg.ReplacementDeliveryDays)
	n := e.next(&e.replaceSeq)

	facts := map[string]string{
		"replacement_id": fmt.Sprintf("RP-%s-%04d", e.now().Format("20060102"), n),
		"delivery_eta":   e.now().AddDate(0, 0, etaDays).Format(dateLayout),
	}
	if serial := a.Param("serial_number", ""); serial != "" {
		facts["serial_number"] = serial
	}
	return facts, nil
}

func (e *Executor) shipMissingPart(_ context.Context, a models.Action, _ models.EntityBag) (map[string]string, error) {
	n := e.next(&e.shipmentSeq)
	return map[string]string{
		"shipment_id": fmt.Sprintf("S%d", n),
		"part":        a.Param("part", "accessory"),
		"ship_eta":    e.now().AddDate(0, 0, partShipLeadDays).Format(dateLayout),
	}, nil
}

func (e *Executor) issueLoyaltyCredit(_ context.Context, a models.Action, _ models.EntityBag) (map[string]string, error) {
	amount := a.Param("amount", money(e.cfg.LoyaltyCreditAmount))
	n := e.next(&e.creditSeq)

	return map[string]string{
		"credit_id":     fmt.Sprintf("CR-%s-%04d", e.now().Format("20060102"), n),
		"credit_amount": amount,
		"applied_on":    e.now().Format(dateLayout),
	}, nil
}

func (e *Executor) scheduleCallback(_ context.Context, a models.Action, _ models.EntityBag) (map[string]string, error) {
	return map[string]string{
		"callback_window": a.Param("window", e.cfg.CallbackWindow),
		"phone":           a.Param("phone", "(not provided)"),
	}, nil
}

func (e *Executor) escalate(_ context.Context, a models.Action, _ models.EntityBag) (map[string]string, error) {
	n := e.next(&e.escalateSeq)
	return map[string]string{
		"escalation_id": fmt.Sprintf("ESC-%s-%04d", e.now().Format("20060102"), n),
		"reason":        a.Param("reason", "unspecified"),
	}, nil
}

// applyRetentionOffer shares the credit counter: a retention offer is a
// goodwill credit wearing a different label.
func (e *Executor) applyRetentionOffer(_ context.Context, a models.Action, _ models.EntityBag) (map[string]string, error) {
	amount := a.Param("amount", money(e.cfg.GoodwillCreditDefault))
	n := e.next(&e.creditSeq)

	return map[string]string{
		"offer_id":     fmt.Sprintf("CR-%s-%04d", e.now().Format("20060102"), n),
		"offer_amount": amount,
		"expires_on":   e.now().AddDate(0, 0, offerValidityDays).Format(dateLayout),
	}, nil
}

func paramInt(a models.Action, key string, fallback int) int {
	v, err := strconv.Atoi(a.Param(key, ""))
	if err != nil || v <= 0 {
		return fallback
	}
	return v
}

func money(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
