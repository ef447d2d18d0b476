package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/fernwell/caseflow/internal/models"
)

func TestMemoryDirectoryLookup(t *testing.T) {
	ctx := context.Background()
	dir := NewMemoryDirectory()

	order := Order{
		ID:          "ORD12345",
		Status:      "delivered",
		Amount:      79.99,
		PurchasedAt: time.Date(2026, 8, 5, 0, 0, 0, 0, time.UTC),
	}
	if err := dir.Add(ctx, order); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := dir.Lookup(ctx, "ORD12345")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got.Status != "delivered" || got.Amount != 79.99 {
		t.Errorf("Lookup returned %+v, want status=delivered amount=79.99", got)
	}

	if _, err := dir.Lookup(ctx, "ORD99999"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("Lookup(unknown) error = %v, want ErrOrderNotFound", err)
	}
}

func TestMemoryDirectoryAddReplaces(t *testing.T) {
	ctx := context.Background()
	dir := NewMemoryDirectory()

	o := Order{ID: "US-55291", Status: "in_transit", Amount: 29.00, PurchasedAt: time.Now()}
	if err := dir.Add(ctx, o); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	o.Status = "delivered"
	if err := dir.Add(ctx, o); err != nil {
		t.Fatalf("second Add failed: %v", err)
	}

	got, err := dir.Lookup(ctx, "US-55291")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got.Status != "delivered" {
		t.Errorf("status = %q, want replaced value %q", got.Status, "delivered")
	}
}

func TestDemoOrders(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	orders := DemoOrders(now)

	if len(orders) != 5 {
		t.Fatalf("DemoOrders returned %d orders, want 5", len(orders))
	}

	wantAges := map[string]int{
		"ORD12345":    20,
		"ORD9ZX88":    45,
		"ORD-7842-CA": 13,
		"US-55291":    7,
		"CA-993144":   21,
	}
	for _, o := range orders {
		want, ok := wantAges[o.ID]
		if !ok {
			t.Errorf("unexpected demo order %q", o.ID)
			continue
		}
		if got := o.AgeDays(now); got != want {
			t.Errorf("order %s age = %d days, want %d", o.ID, got, want)
		}
	}
}

func TestOrderAgeDays(t *testing.T) {
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		purchasedAt time.Time
		want        int
	}{
		{"same day", now, 0},
		{"thirty days", now.AddDate(0, 0, -30), 30},
		{"partial day rounds down", now.Add(-36 * time.Hour), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Order{PurchasedAt: tt.purchasedAt}
			if got := o.AgeDays(now); got != tt.want {
				t.Errorf("AgeDays = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMemoryLedger(t *testing.T) {
	ctx := context.Background()
	ledger := NewMemoryLedger()

	results := []models.ExecutionResult{
		{
			Action: models.Action{Kind: models.ActionCreateTicket},
			Status: models.StatusApplied,
			Facts:  map[string]string{"ticket_id": "TCK-2026-08-25-G1001"},
		},
		{
			Action: models.Action{Kind: models.ActionIssueLoyaltyCredit},
			Status: models.StatusSkippedIneligible,
			Reason: "credit already granted for this message",
		},
		{
			Action: models.Action{Kind: models.ActionEscalate},
			Status: models.StatusApplied,
			Facts:  map[string]string{"escalation_id": "ESC-20260825-1"},
		},
	}
	for _, res := range results {
		if err := ledger.Record(ctx, "msg-1", res); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	entries, err := ledger.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent(2) returned %d entries, want 2", len(entries))
	}
	// Newest first.
	if entries[0].Kind != models.ActionEscalate {
		t.Errorf("entries[0].Kind = %q, want escalate", entries[0].Kind)
	}
	if entries[1].Kind != models.ActionIssueLoyaltyCredit {
		t.Errorf("entries[1].Kind = %q, want issue_loyalty_credit", entries[1].Kind)
	}
	if entries[1].Status != models.StatusSkippedIneligible {
		t.Errorf("entries[1].Status = %q, want skipped-ineligible", entries[1].Status)
	}

	all, err := ledger.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent(0) failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("Recent(0) returned %d entries, want all 3", len(all))
	}
}

func TestSeedIdempotent(t *testing.T) {
	ctx := context.Background()
	dir := NewMemoryDirectory()
	now := time.Date(2026, 8, 25, 12, 0, 0, 0, time.UTC)
	orders := DemoOrders(now)

	first, err := Seed(ctx, dir, orders)
	if err != nil {
		t.Fatalf("first Seed failed: %v", err)
	}
	if len(first.Added) != 5 || len(first.Skipped) != 0 {
		t.Errorf("first Seed: added=%d skipped=%d, want 5/0", len(first.Added), len(first.Skipped))
	}

	// Mutate one record, then re-seed. The edit must survive.
	if err := dir.Add(ctx, Order{ID: "ORD12345", Status: "returned", Amount: 79.99, PurchasedAt: now}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	second, err := Seed(ctx, dir, orders)
	if err != nil {
		t.Fatalf("second Seed failed: %v", err)
	}
	if len(second.Added) != 0 || len(second.Skipped) != 5 {
		t.Errorf("second Seed: added=%d skipped=%d, want 0/5", len(second.Added), len(second.Skipped))
	}

	got, err := dir.Lookup(ctx, "ORD12345")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got.Status != "returned" {
		t.Errorf("re-seed overwrote edited order: status = %q, want %q", got.Status, "returned")
	}
}

func TestSQLiteStoreOrders(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "caseflow.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	purchased := time.Date(2026, 7, 26, 9, 30, 0, 0, time.UTC)
	if err := s.Add(ctx, Order{ID: "ORD-7842-CA", Status: "carrier_damage_scan", Amount: 149.00, PurchasedAt: purchased}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	got, err := s.Lookup(ctx, "ORD-7842-CA")
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if got.Status != "carrier_damage_scan" {
		t.Errorf("status = %q, want carrier_damage_scan", got.Status)
	}
	if !got.PurchasedAt.Equal(purchased) {
		t.Errorf("purchased_at = %v, want %v", got.PurchasedAt, purchased)
	}

	if _, err := s.Lookup(ctx, "ORD00000"); !errors.Is(err, ErrOrderNotFound) {
		t.Errorf("Lookup(unknown) error = %v, want ErrOrderNotFound", err)
	}

	// Upsert path.
	if err := s.Add(ctx, Order{ID: "ORD-7842-CA", Status: "refunded", Amount: 149.00, PurchasedAt: purchased}); err != nil {
		t.Fatalf("upsert Add failed: %v", err)
	}
	got, err = s.Lookup(ctx, "ORD-7842-CA")
	if err != nil {
		t.Fatalf("Lookup after upsert failed: %v", err)
	}
	if got.Status != "refunded" {
		t.Errorf("status after upsert = %q, want refunded", got.Status)
	}
}

func TestSQLiteStoreLedger(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "caseflow.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	res := models.ExecutionResult{
		Action: models.Action{Kind: models.ActionIssueRefund},
		Status: models.StatusApplied,
		Facts: map[string]string{
			"refund_id": "RF-20260825-1",
			"order_id":  "ORD12345",
		},
	}
	if err := s.Record(ctx, "msg-42", res); err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := s.Record(ctx, "msg-42", models.ExecutionResult{
		Action: models.Action{Kind: models.ActionEscalate},
		Status: models.StatusApplied,
	}); err != nil {
		t.Fatalf("second Record failed: %v", err)
	}

	entries, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("Recent returned %d entries, want 2", len(entries))
	}
	if entries[0].Kind != models.ActionEscalate {
		t.Errorf("entries[0].Kind = %q, want escalate (newest first)", entries[0].Kind)
	}
	if entries[1].Facts["refund_id"] != "RF-20260825-1" {
		t.Errorf("facts round-trip failed: %+v", entries[1].Facts)
	}
	if entries[1].MessageID != "msg-42" {
		t.Errorf("message_id = %q, want msg-42", entries[1].MessageID)
	}
}

func TestSQLiteStoreSeed(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "caseflow.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer s.Close()

	now := time.Now().UTC()
	result, err := Seed(ctx, s, DemoOrders(now))
	if err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	if len(result.Added) != 5 {
		t.Errorf("Seed added %d orders, want 5", len(result.Added))
	}

	again, err := Seed(ctx, s, DemoOrders(now))
	if err != nil {
		t.Fatalf("re-Seed failed: %v", err)
	}
	if len(again.Skipped) != 5 {
		t.Errorf("re-Seed skipped %d orders, want 5", len(again.Skipped))
	}
}
