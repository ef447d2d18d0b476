package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/fernwell/caseflow/internal/config"
	"github.com/fernwell/caseflow/internal/models"
	"github.com/fernwell/caseflow/internal/store"
)

var version = "0.1.0-dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "caseflow",
		Short: "Deterministic triage for customer support messages",
		Long: `caseflow turns raw customer messages into classified, actioned cases.

It detects emotional tone, classifies intent, extracts order numbers and
other entities, resolves a policy-driven action plan, executes it, and
drafts a grounded reply. The understanding half of the pipeline is fully
deterministic; an optional LLM pass only rewords the final draft.`,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")

	// Add subcommands
	rootCmd.AddCommand(
		newVersionCmd(),
		newInitCmd(),
		newTriageCmd(),
		newDemoCmd(),
		newHistoryCmd(),
		newMCPServerCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]string{"version": version})
			} else {
				fmt.Printf("caseflow version %s\n", version)
			}
		},
	}
}

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize caseflow storage in the project root",
		Long: `Create the .caseflow/ data directory, write a commented config
skeleton and a .gitignore, open the SQLite store, and seed the demo
purchase records. Safe to run repeatedly: existing files and orders
are left untouched.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			dataDir := store.LocalDataPath(root)

			if err := store.EnsureDataDir(dataDir); err != nil {
				return err
			}
			if err := store.EnsureGitignore(dataDir); err != nil {
				return err
			}

			// Config skeleton, only when absent
			configPath := filepath.Join(dataDir, "config.yaml")
			if _, err := os.Stat(configPath); os.IsNotExist(err) {
				if err := os.WriteFile(configPath, []byte(config.Skeleton), 0600); err != nil {
					return fmt.Errorf("failed to create config.yaml: %w", err)
				}
			}

			st, err := store.NewSQLiteStore(store.DatabasePath(dataDir))
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer st.Close()

			seeded, err := store.Seed(cmd.Context(), st, store.DemoOrders(time.Now()))
			if err != nil {
				return fmt.Errorf("failed to seed demo orders: %w", err)
			}

			jsonOut, _ := cmd.Flags().GetBool("json")
			if jsonOut {
				json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"status":          "initialized",
					"path":            dataDir,
					"orders_added":    len(seeded.Added),
					"orders_existing": len(seeded.Skipped),
				})
			} else {
				fmt.Printf("Initialized .caseflow/ in %s\n", root)
				fmt.Printf("  Orders seeded:  %d\n", len(seeded.Added))
				fmt.Printf("  Already there:  %d\n", len(seeded.Skipped))
			}

			return nil
		},
	}
}

// entityPrintOrder fixes the display order of entity kinds; map
// iteration would shuffle them between runs.
var entityPrintOrder = []models.EntityKind{
	models.EntityOrderID,
	models.EntityTicketID,
	models.EntityAmount,
	models.EntitySerialNumber,
	models.EntityMissingPartName,
	models.EntityPhone,
	models.EntityAgentName,
}

func printResult(res models.TriageResult, reply string) {
	fmt.Printf("Emotion: %s\n", res.Emotion)
	fmt.Printf("Intent:  %s\n", res.Intent)

	if res.Entities.Len() > 0 {
		fmt.Println("Entities:")
		for _, kind := range entityPrintOrder {
			for _, value := range res.Entities.Values(kind) {
				fmt.Printf("  %-18s %s\n", string(kind)+":", value)
			}
		}
	}

	if len(res.Executions) > 0 {
		fmt.Println("Actions:")
		for i, exec := range res.Executions {
			fmt.Printf("  %d. %s: %s", i+1, exec.Action.Kind, exec.Status)
			if exec.Reason != "" {
				fmt.Printf(" (%s)", exec.Reason)
			}
			fmt.Println()
			for _, k := range sortedKeys(exec.Facts) {
				fmt.Printf("       %s = %s\n", k, exec.Facts[k])
			}
		}
	}

	fmt.Println()
	fmt.Println("Reply:")
	fmt.Println(reply)
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// resolveDBPath turns the configured database path into an absolute
// location under root when it is relative.
func resolveDBPath(root, configured string) string {
	if filepath.IsAbs(configured) {
		return configured
	}
	return filepath.Join(root, configured)
}
