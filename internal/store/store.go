// Package store defines the order directory consulted during policy
// resolution and the action ledger that records execution outcomes,
// with in-memory and SQLite implementations.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/fernwell/caseflow/internal/models"
)

// ErrOrderNotFound is returned by Lookup when the directory has no
// record of the order ID. Callers treat it as "date not inferable",
// never as a hard failure.
var ErrOrderNotFound = errors.New("order not found")

// Order is a purchase record in the order directory.
type Order struct {
	ID          string    `json:"id"`
	Status      string    `json:"status"` // "delivered", "in_transit", "carrier_damage_scan"
	Amount      float64   `json:"amount"`
	PurchasedAt time.Time `json:"purchased_at"`
}

// AgeDays returns whole days elapsed since purchase as of now.
func (o Order) AgeDays(now time.Time) int {
	return int(now.Sub(o.PurchasedAt).Hours() / 24)
}

// OrderDirectory resolves order IDs mentioned in messages to purchase
// records. Refund eligibility windows are computed from PurchasedAt.
type OrderDirectory interface {
	// Lookup returns the order or ErrOrderNotFound.
	Lookup(ctx context.Context, id string) (*Order, error)

	// Add inserts or replaces an order record.
	Add(ctx context.Context, o Order) error
}

// LedgerEntry is one recorded action execution.
type LedgerEntry struct {
	ID         int64                  `json:"id"`
	MessageID  string                 `json:"message_id,omitempty"`
	Kind       models.ActionKind      `json:"kind"`
	Status     models.ExecutionStatus `json:"status"`
	Facts      map[string]string      `json:"facts,omitempty"`
	Reason     string                 `json:"reason,omitempty"`
	RecordedAt time.Time              `json:"recorded_at"`
}

// ActionLedger persists execution results for audit and review.
// Recording is best effort from the pipeline's point of view: a ledger
// failure is logged by the caller and never aborts a triage.
type ActionLedger interface {
	Record(ctx context.Context, messageID string, res models.ExecutionResult) error

	// Recent returns up to limit entries, newest first.
	Recent(ctx context.Context, limit int) ([]LedgerEntry, error)
}
