package store

import (
	"context"
	"sync"
	"time"

	"github.com/fernwell/caseflow/internal/models"
)

// MemoryDirectory is an in-memory OrderDirectory. Safe for concurrent
// use. Used by the demo command and tests; production runs use SQLite.
type MemoryDirectory struct {
	mu     sync.RWMutex
	orders map[string]Order
}

// NewMemoryDirectory returns an empty in-memory directory.
func NewMemoryDirectory() *MemoryDirectory {
	return &MemoryDirectory{orders: make(map[string]Order)}
}

// Lookup implements OrderDirectory.
func (d *MemoryDirectory) Lookup(_ context.Context, id string) (*Order, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	o, ok := d.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return &o, nil
}

// Add implements OrderDirectory.
func (d *MemoryDirectory) Add(_ context.Context, o Order) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.orders[o.ID] = o
	return nil
}

// DemoOrders returns the sample purchase records used by the demo
// command, with purchase dates computed relative to now so the refund
// window cases stay meaningful on any day the demo runs.
func DemoOrders(now time.Time) []Order {
	return []Order{
		{ID: "ORD12345", Status: "delivered", Amount: 79.99, PurchasedAt: now.AddDate(0, 0, -20)},
		{ID: "ORD9ZX88", Status: "delivered", Amount: 129.00, PurchasedAt: now.AddDate(0, 0, -45)},
		{ID: "ORD-7842-CA", Status: "carrier_damage_scan", Amount: 149.00, PurchasedAt: now.AddDate(0, 0, -13)},
		{ID: "US-55291", Status: "delivered", Amount: 29.00, PurchasedAt: now.AddDate(0, 0, -7)},
		{ID: "CA-993144", Status: "delivered", Amount: 199.00, PurchasedAt: now.AddDate(0, 0, -21)},
	}
}

// MemoryLedger is an in-memory ActionLedger.
type MemoryLedger struct {
	mu      sync.Mutex
	entries []LedgerEntry
	nextID  int64
}

// NewMemoryLedger returns an empty in-memory ledger.
func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{nextID: 1}
}

// Record implements ActionLedger.
func (l *MemoryLedger) Record(_ context.Context, messageID string, res models.ExecutionResult) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, LedgerEntry{
		ID:         l.nextID,
		MessageID:  messageID,
		Kind:       res.Action.Kind,
		Status:     res.Status,
		Facts:      res.Facts,
		Reason:     res.Reason,
		RecordedAt: time.Now().UTC(),
	})
	l.nextID++
	return nil
}

// Recent implements ActionLedger.
func (l *MemoryLedger) Recent(_ context.Context, limit int) ([]LedgerEntry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if limit <= 0 || limit > len(l.entries) {
		limit = len(l.entries)
	}
	out := make([]LedgerEntry, 0, limit)
	for i := len(l.entries) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, l.entries[i])
	}
	return out, nil
}
