// Package policy maps a classified message (intent, emotion, entities)
// to an ordered action plan. Resolution is a total dispatch table over
// intents; emotion and extracted entities refine each plan.
package policy

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/fernwell/caseflow/internal/models"
	"github.com/fernwell/caseflow/internal/store"
)

// Resolver plans actions for classified messages. The zero value works:
// without an order directory, refund eligibility is gated by order ID
// presence alone.
type Resolver struct {
	// Orders, when non-nil, is consulted to infer order age for the
	// refund window. A lookup miss or error leaves the purchase date
	// unknown, which counts in the customer's favor.
	Orders store.OrderDirectory

	// Now supplies the clock for order age computation. Nil means time.Now.
	Now func() time.Time
}

// planInput carries everything a planner may consult.
type planInput struct {
	emotion models.EmotionLabel
	bag     models.EntityBag
	cfg     PolicyConfig
}

type planFunc func(ctx context.Context, r *Resolver, in planInput) models.ActionPlan

// planners dispatches by intent. Every known intent has an entry;
// Resolve falls back to the generic_complaint entry for anything else.
var planners = map[models.Intent]planFunc{
	models.IntentRefundRequest:      planRefund,
	models.IntentDefectReport:       planDefect,
	models.IntentBillingIssue:       planBilling,
	models.IntentCancellationThreat: planCancellation,
	models.IntentMissingPart:        planMissingPart,
	models.IntentCallbackRequest:    planCallback,
	models.IntentFollowupExisting:   planFollowup,
	models.IntentPraise:             planPraise,
	models.IntentGenericComplaint:   planGeneric,
}

// Resolve builds the action plan for one classified message.
func (r *Resolver) Resolve(ctx context.Context, intent models.Intent, emotion models.EmotionLabel, bag models.EntityBag, cfg PolicyConfig) models.ActionPlan {
	in := planInput{emotion: emotion, bag: bag, cfg: cfg.WithDefaults()}

	planner, ok := planners[intent]
	if !ok {
		planner = planners[models.IntentGenericComplaint]
	}
	plan := planner(ctx, r, in)

	// Phone follow-through: a customer who left a number gets a callback
	// appended, unless the plan already schedules one.
	if intent != models.IntentCallbackRequest && in.bag.Has(models.EntityPhone) &&
		!plan.Contains(models.ActionScheduleCallback) {
		plan = append(plan, callbackAction(in, in.bag.FirstValue(models.EntityPhone)))
	}

	return withTicketLabels(plan, intent, emotion)
}

func (r *Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

// orderAge returns days since purchase for the order, and whether the
// purchase date could be inferred at all. Lookup misses and errors both
// mean "unknown".
func (r *Resolver) orderAge(ctx context.Context, orderID string) (days int, known bool, order *store.Order) {
	if r.Orders == nil {
		return 0, false, nil
	}
	o, err := r.Orders.Lookup(ctx, orderID)
	if err != nil || o == nil {
		return 0, false, nil
	}
	return o.AgeDays(r.now()), true, o
}

func planRefund(ctx context.Context, r *Resolver, in planInput) models.ActionPlan {
	orderID := in.bag.FirstValue(models.EntityOrderID)
	if orderID == "" {
		return models.ActionPlan{
			ticketAction(),
			escalateAction("refund_ineligible: no order reference"),
		}
	}

	age, known, order := r.orderAge(ctx, orderID)
	if known && age > in.cfg.RefundWindowDays {
		return models.ActionPlan{
			ticketAction(),
			escalateAction(fmt.Sprintf("refund_ineligible: outside %d-day window", in.cfg.RefundWindowDays)),
		}
	}

	refund := models.Action{
		Kind: models.ActionIssueRefund,
		Params: map[string]string{
			"order_id": orderID,
			"eta_days": strconv.Itoa(in.cfg.RefundETADays),
		},
	}
	if amount := refundAmount(in.bag, order); amount != "" {
		refund.Params["amount"] = amount
	}
	return models.ActionPlan{ticketAction(), refund}
}

// refundAmount prefers the amount the customer named over the directory
// record. Empty when neither is known.
func refundAmount(bag models.EntityBag, order *store.Order) string {
	if v := bag.FirstValue(models.EntityAmount); v != "" {
		return v
	}
	if order != nil && order.Amount > 0 {
		return strconv.FormatFloat(order.Amount, 'f', 2, 64)
	}
	return ""
}

func planDefect(_ context.Context, _ *Resolver, in planInput) models.ActionPlan {
	replacement := models.Action{
		Kind: models.ActionScheduleReplacement,
		Params: map[string]string{
			"eta_days": strconv.Itoa(in.cfg.ReplacementDeliveryDays),
		},
	}
	if serial := in.bag.FirstValue(models.EntitySerialNumber); serial != "" {
		replacement.Params["serial_number"] = serial
	}

	plan := models.ActionPlan{ticketAction(), replacement}
	if in.emotion == models.EmotionAngry {
		plan = append(plan, creditAction(in.cfg.GoodwillCreditDefault))
	}
	return plan
}

func planBilling(_ context.Context, _ *Resolver, in planInput) models.ActionPlan {
	ticket := ticketAction()
	if amount := in.bag.FirstValue(models.EntityAmount); amount != "" {
		ticket.Params = map[string]string{"amount": amount}
	}

	plan := models.ActionPlan{ticket}
	// Angry disputes go to a human; confused ones get an explanation
	// in the reply instead.
	if in.emotion == models.EmotionAngry {
		plan = append(plan, escalateAction("billing_dispute"))
	}
	return plan
}

func planCancellation(_ context.Context, _ *Resolver, in planInput) models.ActionPlan {
	return models.ActionPlan{
		ticketAction(),
		{
			Kind:   models.ActionApplyRetentionOffer,
			Params: map[string]string{"amount": money(in.cfg.GoodwillCreditDefault)},
		},
		escalateAction("churn_risk"),
	}
}

func planMissingPart(_ context.Context, _ *Resolver, in planInput) models.ActionPlan {
	part := in.bag.FirstValue(models.EntityMissingPartName)
	if part == "" {
		part = "accessory"
	}
	return models.ActionPlan{
		ticketAction(),
		{
			Kind:   models.ActionShipMissingPart,
			Params: map[string]string{"part": part},
		},
	}
}

func planCallback(_ context.Context, _ *Resolver, in planInput) models.ActionPlan {
	return models.ActionPlan{
		callbackAction(in, in.bag.FirstValue(models.EntityPhone)),
	}
}

func planFollowup(_ context.Context, _ *Resolver, in planInput) models.ActionPlan {
	// An existing ticket means nothing new to open; the reply restates
	// its status instead.
	if in.bag.Has(models.EntityTicketID) {
		return nil
	}
	return models.ActionPlan{ticketAction()}
}

func planPraise(_ context.Context, _ *Resolver, _ planInput) models.ActionPlan {
	return nil
}

func planGeneric(_ context.Context, _ *Resolver, in planInput) models.ActionPlan {
	plan := models.ActionPlan{ticketAction()}
	if in.emotion == models.EmotionAngry {
		plan = append(plan, creditAction(in.cfg.GoodwillCreditDefault))
	}
	return plan
}

func ticketAction() models.Action {
	return models.Action{Kind: models.ActionCreateTicket}
}

func escalateAction(reason string) models.Action {
	return models.Action{
		Kind:   models.ActionEscalate,
		Params: map[string]string{"reason": reason},
	}
}

func creditAction(amount float64) models.Action {
	return models.Action{
		Kind:   models.ActionIssueLoyaltyCredit,
		Params: map[string]string{"amount": money(amount)},
	}
}

func callbackAction(in planInput, phone string) models.Action {
	a := models.Action{
		Kind:   models.ActionScheduleCallback,
		Params: map[string]string{"window": in.cfg.CallbackWindow},
	}
	if phone != "" {
		a.Params["phone"] = phone
	}
	return a
}

// withTicketLabels stamps intent and emotion onto every create_ticket
// action so the ticket subsystem can choose prefixes and topics.
func withTicketLabels(plan models.ActionPlan, intent models.Intent, emotion models.EmotionLabel) models.ActionPlan {
	for i, a := range plan {
		if a.Kind != models.ActionCreateTicket {
			continue
		}
		if a.Params == nil {
			a.Params = make(map[string]string, 2)
		}
		a.Params["intent"] = string(intent)
		a.Params["emotion"] = string(emotion)
		plan[i] = a
	}
	return plan
}

func money(amount float64) string {
	return strconv.FormatFloat(amount, 'f', 2, 64)
}
