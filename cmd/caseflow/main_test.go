package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"github.com/fernwell/caseflow/internal/store"
)

// newTestRootCmd creates a root command with persistent flags for testing subcommands
func newTestRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use: "caseflow",
	}
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON")
	rootCmd.PersistentFlags().String("root", ".", "Project root directory")
	return rootCmd
}

// clearEnv blanks every environment variable the config loader reads
// so tests are not steered by the developer's shell.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CASEFLOW_POLISH_PROVIDER",
		"GEMINI_API_KEY",
		"OPENAI_API_KEY",
		"CASEFLOW_AMQP_URL",
		"CASEFLOW_DB",
		"CASEFLOW_DEBUG",
	} {
		t.Setenv(key, "")
	}
}

// captureStdout runs fn with os.Stdout redirected to a pipe and
// returns everything fn printed.
func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w
	defer func() { os.Stdout = old }()

	fn()

	w.Close()
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("failed to read captured output: %v", err)
	}
	return string(data)
}

func TestNewVersionCmd(t *testing.T) {
	cmd := newVersionCmd()
	if cmd.Use != "version" {
		t.Errorf("Use = %q, want %q", cmd.Use, "version")
	}
}

func TestNewInitCmd(t *testing.T) {
	cmd := newInitCmd()
	if cmd.Use != "init" {
		t.Errorf("Use = %q, want %q", cmd.Use, "init")
	}
}

func TestNewTriageCmd(t *testing.T) {
	cmd := newTriageCmd()
	if !strings.HasPrefix(cmd.Use, "triage") {
		t.Errorf("Use = %q, want prefix %q", cmd.Use, "triage")
	}

	if cmd.Flags().Lookup("polish") == nil {
		t.Error("missing --polish flag")
	}
	if cmd.Flags().Lookup("store") == nil {
		t.Error("missing --store flag")
	}
}

func TestNewDemoCmd(t *testing.T) {
	cmd := newDemoCmd()
	if cmd.Use != "demo" {
		t.Errorf("Use = %q, want %q", cmd.Use, "demo")
	}
	if cmd.Flags().Lookup("polish") == nil {
		t.Error("missing --polish flag")
	}
}

func TestNewHistoryCmd(t *testing.T) {
	cmd := newHistoryCmd()
	if cmd.Use != "history" {
		t.Errorf("Use = %q, want %q", cmd.Use, "history")
	}
	if cmd.Flags().Lookup("limit") == nil {
		t.Error("missing --limit flag")
	}
}

func TestNewMCPServerCmd(t *testing.T) {
	cmd := newMCPServerCmd()
	if cmd.Use != "mcp-server" {
		t.Errorf("Use = %q, want %q", cmd.Use, "mcp-server")
	}
}

func TestResolveDBPath(t *testing.T) {
	tests := []struct {
		name       string
		root       string
		configured string
		want       string
	}{
		{"relative joins root", "/proj", ".caseflow/caseflow.db", filepath.Join("/proj", ".caseflow", "caseflow.db")},
		{"absolute passes through", "/proj", "/var/data/caseflow.db", "/var/data/caseflow.db"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveDBPath(tt.root, tt.configured)
			if got != tt.want {
				t.Errorf("resolveDBPath(%q, %q) = %q, want %q", tt.root, tt.configured, got, tt.want)
			}
		})
	}
}

func TestSortedKeys(t *testing.T) {
	got := sortedKeys(map[string]string{"b": "2", "a": "1", "c": "3"})
	want := []string{"a", "b", "c"}
	if len(got) != len(want) {
		t.Fatalf("sortedKeys returned %v, want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Errorf("sortedKeys[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if keys := sortedKeys(nil); keys != nil {
		t.Errorf("sortedKeys(nil) = %v, want nil", keys)
	}
}

func TestInitCmdCreatesDataDir(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()

	rootCmd := newTestRootCmd()
	rootCmd.AddCommand(newInitCmd())
	rootCmd.SetArgs([]string{"init", "--root", tmpDir})
	rootCmd.SetOut(&bytes.Buffer{})
	_ = captureStdout(t, func() {
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("init failed: %v", err)
		}
	})

	dataDir := filepath.Join(tmpDir, ".caseflow")
	for _, name := range []string{"config.yaml", ".gitignore", "caseflow.db"} {
		path := filepath.Join(dataDir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
}

func TestInitCmdIdempotent(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()

	runInit := func() {
		rootCmd := newTestRootCmd()
		rootCmd.AddCommand(newInitCmd())
		rootCmd.SetArgs([]string{"init", "--root", tmpDir})
		rootCmd.SetOut(&bytes.Buffer{})
		_ = captureStdout(t, func() {
			if err := rootCmd.Execute(); err != nil {
				t.Fatalf("init failed: %v", err)
			}
		})
	}
	runInit()

	// Customized config must survive a second init
	configPath := filepath.Join(tmpDir, ".caseflow", "config.yaml")
	custom := []byte("policy:\n  refund_window_days: 45\n")
	if err := os.WriteFile(configPath, custom, 0600); err != nil {
		t.Fatalf("failed to write custom config: %v", err)
	}

	runInit()

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if string(data) != string(custom) {
		t.Error("second init overwrote customized config.yaml")
	}
}

func TestTriageCmdJSONOutput(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()

	rootCmd := newTestRootCmd()
	rootCmd.AddCommand(newTriageCmd())
	rootCmd.SetArgs([]string{
		"triage",
		"--root", tmpDir,
		"--json",
		"I want a refund for order ORD12345, it is broken!",
	})
	rootCmd.SetOut(&bytes.Buffer{})

	out := captureStdout(t, func() {
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("triage failed: %v", err)
		}
	})

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}

	result, ok := payload["result"].(map[string]interface{})
	if !ok {
		t.Fatal("result not present or not an object")
	}
	if result["emotion"] != "angry" {
		t.Errorf("emotion = %v, want %q", result["emotion"], "angry")
	}
	if result["intent"] != "refund_request" {
		t.Errorf("intent = %v, want %q", result["intent"], "refund_request")
	}

	reply, ok := payload["reply"].(string)
	if !ok || reply == "" {
		t.Error("reply missing or empty")
	}
}

func TestTriageCmdStoreWritesLedger(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()

	initCmd := newTestRootCmd()
	initCmd.AddCommand(newInitCmd())
	initCmd.SetArgs([]string{"init", "--root", tmpDir})
	initCmd.SetOut(&bytes.Buffer{})
	_ = captureStdout(t, func() {
		if err := initCmd.Execute(); err != nil {
			t.Fatalf("init failed: %v", err)
		}
	})

	triageCmd := newTestRootCmd()
	triageCmd.AddCommand(newTriageCmd())
	triageCmd.SetArgs([]string{
		"triage",
		"--root", tmpDir,
		"--store",
		"I want a refund for order ORD12345, it is broken!",
	})
	triageCmd.SetOut(&bytes.Buffer{})
	_ = captureStdout(t, func() {
		if err := triageCmd.Execute(); err != nil {
			t.Fatalf("triage failed: %v", err)
		}
	})

	st, err := store.NewSQLiteStore(store.DatabasePath(store.LocalDataPath(tmpDir)))
	if err != nil {
		t.Fatalf("failed to reopen store: %v", err)
	}
	defer st.Close()

	entries, err := st.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("failed to read ledger: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ledger entries = %d, want 2", len(entries))
	}
	for _, e := range entries {
		if e.Status != "applied" {
			t.Errorf("entry %s status = %q, want %q", e.Kind, e.Status, "applied")
		}
	}
}

func TestDemoCmdJSONOutput(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()

	rootCmd := newTestRootCmd()
	rootCmd.AddCommand(newDemoCmd())
	rootCmd.SetArgs([]string{"demo", "--root", tmpDir, "--json"})
	rootCmd.SetOut(&bytes.Buffer{})

	out := captureStdout(t, func() {
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("demo failed: %v", err)
		}
	})

	var outcomes []map[string]interface{}
	if err := json.Unmarshal([]byte(out), &outcomes); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if len(outcomes) != len(demoSamples) {
		t.Fatalf("outcomes = %d, want %d", len(outcomes), len(demoSamples))
	}

	first, ok := outcomes[0]["result"].(map[string]interface{})
	if !ok {
		t.Fatal("first result not present or not an object")
	}
	if first["intent"] != "refund_request" {
		t.Errorf("sample 1 intent = %v, want %q", first["intent"], "refund_request")
	}
	if first["emotion"] != "angry" {
		t.Errorf("sample 1 emotion = %v, want %q", first["emotion"], "angry")
	}

	for i, o := range outcomes {
		if reply, ok := o["reply"].(string); !ok || reply == "" {
			t.Errorf("sample %d reply missing or empty", i+1)
		}
	}
}

func TestHistoryCmdNotInitialized(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()

	rootCmd := newTestRootCmd()
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.SetArgs([]string{"history", "--root", tmpDir})
	rootCmd.SetOut(&bytes.Buffer{})

	out := captureStdout(t, func() {
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("history failed: %v", err)
		}
	})
	if !strings.Contains(out, "Not initialized") {
		t.Errorf("output = %q, want it to mention initialization", out)
	}
}

func TestHistoryCmdShowsLedgerEntries(t *testing.T) {
	clearEnv(t)
	tmpDir := t.TempDir()

	for _, args := range [][]string{
		{"init", "--root", tmpDir},
		{"triage", "--root", tmpDir, "--store", "I want a refund for order ORD12345, it is broken!"},
	} {
		rootCmd := newTestRootCmd()
		rootCmd.AddCommand(newInitCmd(), newTriageCmd())
		rootCmd.SetArgs(args)
		rootCmd.SetOut(&bytes.Buffer{})
		_ = captureStdout(t, func() {
			if err := rootCmd.Execute(); err != nil {
				t.Fatalf("%s failed: %v", args[0], err)
			}
		})
	}

	historyCmd := newTestRootCmd()
	historyCmd.AddCommand(newHistoryCmd())
	historyCmd.SetArgs([]string{"history", "--root", tmpDir, "--json"})
	historyCmd.SetOut(&bytes.Buffer{})

	out := captureStdout(t, func() {
		if err := historyCmd.Execute(); err != nil {
			t.Fatalf("history failed: %v", err)
		}
	})

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("failed to parse output: %v", err)
	}
	if count, ok := payload["count"].(float64); !ok || count != 2 {
		t.Errorf("count = %v, want 2", payload["count"])
	}
}
