// scripts/loadorders/main.go
//
// Bulk-loads purchase records into the SQLite order directory.
// - Reads orders from a JSONL file, one order object per line
// - Upserts each record (existing IDs are replaced)
// - Skips malformed lines with a warning instead of aborting
//
// Usage: loadorders <orders.jsonl> [project-root]
package main

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/fernwell/caseflow/internal/store"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "loadorders failed: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("usage: loadorders <orders.jsonl> [project-root]")
	}
	inputPath := args[0]
	root := "."
	if len(args) == 2 {
		root = args[1]
	}

	f, err := os.Open(inputPath)
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	dbPath := store.DatabasePath(store.LocalDataPath(root))
	fmt.Printf("Loading orders from %s into %s\n\n", inputPath, dbPath)

	s, err := store.NewSQLiteStore(dbPath)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer s.Close()

	ctx := context.Background()
	added, updated, skipped := 0, 0, 0

	scanner := bufio.NewScanner(f)
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		var o store.Order
		if err := json.Unmarshal(line, &o); err != nil {
			fmt.Printf("  line %d: skipped (bad JSON: %v)\n", lineNo, err)
			skipped++
			continue
		}
		if o.ID == "" {
			fmt.Printf("  line %d: skipped (missing id)\n", lineNo)
			skipped++
			continue
		}
		if o.PurchasedAt.IsZero() {
			fmt.Printf("  line %d: skipped (missing purchased_at)\n", lineNo)
			skipped++
			continue
		}

		_, err := s.Lookup(ctx, o.ID)
		exists := err == nil
		if err != nil && !errors.Is(err, store.ErrOrderNotFound) {
			return fmt.Errorf("lookup order %s: %w", o.ID, err)
		}

		if err := s.Add(ctx, o); err != nil {
			return fmt.Errorf("upsert order %s: %w", o.ID, err)
		}
		if exists {
			updated++
		} else {
			added++
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	fmt.Printf("\n  Added %d orders\n", added)
	fmt.Printf("  Updated %d orders\n", updated)
	if skipped > 0 {
		fmt.Printf("  Skipped %d malformed lines\n", skipped)
	}

	fmt.Println("\nLoad complete!")
	return nil
}
