package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fernwell/caseflow/internal/config"
	"github.com/fernwell/caseflow/internal/events"
	"github.com/fernwell/caseflow/internal/polish"
	"github.com/fernwell/caseflow/internal/store"
	"github.com/fernwell/caseflow/internal/triage"
)

func newTriageCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "triage [message...]",
		Short: "Triage one customer message and print the outcome",
		Long: `Run a single message through the full pipeline: tone, intent,
entities, policy plan, actions, and the drafted reply.

The message is taken from the arguments, or from stdin when no
arguments are given:

  caseflow triage "I want a refund for order ORD12345, it is broken!"
  cat complaint.txt | caseflow triage

By default orders are looked up in the built-in demo records and
nothing is persisted. With --store the SQLite directory and action
ledger under .caseflow/ are used instead (run 'caseflow init' first
to create and seed them).`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, _ := cmd.Flags().GetString("root")
			jsonOut, _ := cmd.Flags().GetBool("json")
			usePolish, _ := cmd.Flags().GetBool("polish")
			useStore, _ := cmd.Flags().GetBool("store")

			text := strings.Join(args, " ")
			if len(args) == 0 {
				data, err := io.ReadAll(os.Stdin)
				if err != nil {
					return fmt.Errorf("failed to read stdin: %w", err)
				}
				text = string(data)
			}

			engine, cleanup, err := buildEngine(root, usePolish, useStore)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			res, err := engine.Process(ctx, text)
			if err != nil {
				return fmt.Errorf("triage failed: %w", err)
			}
			reply := engine.Respond(ctx, res)

			if jsonOut {
				return json.NewEncoder(os.Stdout).Encode(map[string]interface{}{
					"result": res,
					"reply":  reply,
				})
			}

			printResult(res, reply)
			return nil
		},
	}

	cmd.Flags().Bool("polish", false, "Rewrite the reply with the configured LLM provider")
	cmd.Flags().Bool("store", false, "Use the SQLite order directory and action ledger under .caseflow/")

	return cmd
}

// buildEngine assembles a triage engine from the app config under
// root. The returned cleanup closes whatever was opened and must be
// called even when the engine is never used.
func buildEngine(root string, usePolish, useStore bool) (*triage.Engine, func(), error) {
	cfg, err := config.Load(filepath.Join(root, ".caseflow", "config.yaml"))
	if err != nil {
		return nil, nil, err
	}
	logger, err := cfg.Logging.Build()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to build logger: %w", err)
	}

	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		_ = logger.Sync()
	}

	opts := []triage.Option{triage.WithLogger(logger)}

	if useStore {
		st, err := store.NewSQLiteStore(resolveDBPath(root, cfg.Storage.Path))
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("failed to open store: %w", err)
		}
		closers = append(closers, func() { _ = st.Close() })
		opts = append(opts, triage.WithDirectory(st), triage.WithLedger(st))
	}

	publisher := events.Connect(context.Background(), cfg.Events.URL, cfg.Events.Exchange, logger)
	closers = append(closers, func() { _ = publisher.Close() })
	opts = append(opts, triage.WithPublisher(publisher))

	if usePolish {
		opts = append(opts, triage.WithPolisher(polish.FromSettings(cfg.Polish.Settings(), logger)))
	}

	return triage.New(cfg.Policy, opts...), cleanup, nil
}
