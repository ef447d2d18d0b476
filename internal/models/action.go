package models

// ActionKind identifies a concrete operational step the policy layer
// can plan. Every kind must have a registered executor.
type ActionKind string

const (
	ActionCreateTicket        ActionKind = "create_ticket"
	ActionIssueRefund         ActionKind = "issue_refund"
	ActionScheduleReplacement ActionKind = "schedule_replacement"
	ActionShipMissingPart     ActionKind = "ship_missing_part"
	ActionIssueLoyaltyCredit  ActionKind = "issue_loyalty_credit"
	ActionScheduleCallback    ActionKind = "schedule_callback"
	ActionEscalate            ActionKind = "escalate"
	ActionApplyRetentionOffer ActionKind = "apply_retention_offer"
)

// Valid reports whether the kind is one of the known actions.
func (k ActionKind) Valid() bool {
	switch k {
	case ActionCreateTicket, ActionIssueRefund, ActionScheduleReplacement,
		ActionShipMissingPart, ActionIssueLoyaltyCredit, ActionScheduleCallback,
		ActionEscalate, ActionApplyRetentionOffer:
		return true
	}
	return false
}

// Action is one planned step with resolver-supplied parameters.
type Action struct {
	Kind ActionKind `json:"kind" yaml:"kind"`

	// Free-form string parameters (amounts, reasons, part names).
	// Executors treat missing params as "use the policy default".
	Params map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
}

// Param returns the named parameter, or fallback when absent or empty.
func (a Action) Param(key, fallback string) string {
	if v, ok := a.Params[key]; ok && v != "" {
		return v
	}
	return fallback
}

// ActionPlan is an ordered list of actions. Order is part of the plan's
// meaning: the executor runs front to back.
type ActionPlan []Action

// Kinds returns the plan's action kinds in order, nil for an empty plan.
func (p ActionPlan) Kinds() []ActionKind {
	if len(p) == 0 {
		return nil
	}
	kinds := make([]ActionKind, len(p))
	for i, a := range p {
		kinds[i] = a.Kind
	}
	return kinds
}

// Contains reports whether the plan includes an action of the kind.
func (p ActionPlan) Contains(kind ActionKind) bool {
	for _, a := range p {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// ExecutionStatus is the outcome of executing a single action.
type ExecutionStatus string

const (
	// StatusApplied means the action ran and produced its facts.
	StatusApplied ExecutionStatus = "applied"

	// StatusSkippedIneligible means the action was deliberately not
	// applied because an eligibility rule said so at execution time.
	StatusSkippedIneligible ExecutionStatus = "skipped-ineligible"

	// StatusFailed means the action's handler reported an error.
	StatusFailed ExecutionStatus = "failed"
)

// ExecutionResult records what happened when one action was executed.
type ExecutionResult struct {
	Action Action          `json:"action" yaml:"action"`
	Status ExecutionStatus `json:"status" yaml:"status"`

	// Facts produced by the handler (ticket IDs, ETAs, amounts)
	Facts map[string]string `json:"facts,omitempty" yaml:"facts,omitempty"`

	// Why the action was skipped or failed; empty when applied
	Reason string `json:"reason,omitempty" yaml:"reason,omitempty"`
}
