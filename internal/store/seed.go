package store

import (
	"context"
	"errors"
	"fmt"
)

// SeedResult reports what Seed did.
type SeedResult struct {
	Added   []string // IDs of newly added orders
	Skipped []string // IDs already present
	Total   int      // Total number of seed orders
}

// Seed ensures the given orders exist in the directory. It is
// idempotent: orders already present are left untouched so locally
// edited records survive re-initialization.
func Seed(ctx context.Context, dir OrderDirectory, orders []Order) (*SeedResult, error) {
	result := &SeedResult{Total: len(orders)}

	for _, o := range orders {
		_, err := dir.Lookup(ctx, o.ID)
		if err == nil {
			result.Skipped = append(result.Skipped, o.ID)
			continue
		}
		if !errors.Is(err, ErrOrderNotFound) {
			return nil, fmt.Errorf("checking order %s: %w", o.ID, err)
		}

		if err := dir.Add(ctx, o); err != nil {
			return nil, fmt.Errorf("adding order %s: %w", o.ID, err)
		}
		result.Added = append(result.Added, o.ID)
	}

	return result, nil
}
