package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLocalDataPath(t *testing.T) {
	got := LocalDataPath("/tmp/project")
	want := filepath.Join("/tmp/project", ".caseflow")
	if got != want {
		t.Errorf("LocalDataPath = %q, want %q", got, want)
	}
}

func TestDatabasePath(t *testing.T) {
	got := DatabasePath("/tmp/project/.caseflow")
	if filepath.Base(got) != "caseflow.db" {
		t.Errorf("DatabasePath = %q, want basename caseflow.db", got)
	}
}

func TestEnsureGitignore(t *testing.T) {
	dataDir := t.TempDir()

	if err := EnsureGitignore(dataDir); err != nil {
		t.Fatalf("EnsureGitignore failed: %v", err)
	}

	path := filepath.Join(dataDir, ".gitignore")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	content := string(data)
	for _, want := range []string{"caseflow.db", "caseflow.db-shm", "caseflow.db-wal", "config.yaml"} {
		if !strings.Contains(content, want) {
			t.Errorf(".gitignore missing %q", want)
		}
	}

	// A customized .gitignore must not be overwritten.
	custom := "# customized\ncaseflow.db\n"
	if err := os.WriteFile(path, []byte(custom), 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}
	if err := EnsureGitignore(dataDir); err != nil {
		t.Fatalf("second EnsureGitignore failed: %v", err)
	}
	data, err = os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != custom {
		t.Errorf("EnsureGitignore overwrote existing file: %q", string(data))
	}
}

func TestEnsureDataDir(t *testing.T) {
	root := t.TempDir()
	dataDir := filepath.Join(root, ".caseflow")

	if err := EnsureDataDir(dataDir); err != nil {
		t.Fatalf("EnsureDataDir failed: %v", err)
	}
	info, err := os.Stat(dataDir)
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if !info.IsDir() {
		t.Errorf("%s is not a directory", dataDir)
	}

	// Second call is a no-op.
	if err := EnsureDataDir(dataDir); err != nil {
		t.Fatalf("second EnsureDataDir failed: %v", err)
	}
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "caseflow.db")

	s, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	purchased := time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC)
	if err := s.Add(ctx, Order{ID: "CA-993144", Status: "delivered", Amount: 199.00, PurchasedAt: purchased}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened, err := NewSQLiteStore(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Lookup(ctx, "CA-993144")
	if err != nil {
		t.Fatalf("Lookup after reopen failed: %v", err)
	}
	if got.Amount != 199.00 || !got.PurchasedAt.Equal(purchased) {
		t.Errorf("reopened order = %+v, want amount=199.00 purchased=%v", got, purchased)
	}
}
