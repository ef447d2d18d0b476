package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/fernwell/caseflow/internal/config"
	"github.com/fernwell/caseflow/internal/store"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent actions from the ledger",
		Long: `List the most recent executed actions recorded in the SQLite
action ledger under .caseflow/, newest first. Only triage runs started
with --store write to the ledger.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			limit, _ := cmd.Flags().GetInt("limit")

			cfg, err := config.Load(filepath.Join(root, ".caseflow", "config.yaml"))
			if err != nil {
				return err
			}

			dbPath := resolveDBPath(root, cfg.Storage.Path)
			if _, err := os.Stat(dbPath); os.IsNotExist(err) {
				if jsonOut {
					json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
						"error": "store not initialized",
					})
				} else {
					fmt.Println("Not initialized. Run 'caseflow init' first.")
				}
				return nil
			}

			st, err := store.NewSQLiteStore(dbPath)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close()

			entries, err := st.Recent(cmd.Context(), limit)
			if err != nil {
				return fmt.Errorf("failed to read ledger: %w", err)
			}

			if jsonOut {
				if entries == nil {
					entries = []store.LedgerEntry{}
				}
				return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"entries": entries,
					"count":   len(entries),
				})
			}

			if len(entries) == 0 {
				fmt.Println("No actions recorded yet.")
				fmt.Println("\nUse 'caseflow triage --store \"...\"' to triage with the ledger enabled.")
				return nil
			}

			fmt.Printf("Recent actions (%d):\n\n", len(entries))
			for i, e := range entries {
				fmt.Printf("%d. [%s] %s: %s\n", i+1, e.RecordedAt.Format(time.RFC3339), e.Kind, e.Status)
				fmt.Printf("   Message: %s\n", e.MessageID)
				if e.Reason != "" {
					fmt.Printf("   Reason:  %s\n", e.Reason)
				}
				for _, k := range sortedKeys(e.Facts) {
					fmt.Printf("   %s = %s\n", k, e.Facts[k])
				}
				fmt.Println()
			}

			return nil
		},
	}

	cmd.Flags().Int("limit", 20, "Maximum number of entries to show")

	return cmd
}
