package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// GlobalDataPath returns the path to the global .caseflow directory.
// On Unix: ~/.caseflow
// On Windows: %USERPROFILE%\.caseflow
func GlobalDataPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".caseflow"), nil
}

// LocalDataPath returns the path to the local .caseflow directory
// for the given project root.
func LocalDataPath(projectRoot string) string {
	return filepath.Join(projectRoot, ".caseflow")
}

// DatabasePath returns the SQLite database path inside a .caseflow
// directory.
func DatabasePath(dataDir string) string {
	return filepath.Join(dataDir, "caseflow.db")
}

// EnsureDataDir creates the given .caseflow directory if it doesn't exist.
// Returns nil if the directory already exists or was successfully created.
func EnsureDataDir(dataDir string) error {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// dataGitignore is the default .gitignore content for .caseflow directories.
const dataGitignore = `# SQLite database files (runtime data, not version controlled)
caseflow.db
caseflow.db-shm
caseflow.db-wal

# Local config may hold API keys
config.yaml
`

// EnsureGitignore creates a .gitignore in the given .caseflow directory if
// one does not already exist. This prevents accidentally committing database
// files to version control.
func EnsureGitignore(dataDir string) error {
	gitignorePath := filepath.Join(dataDir, ".gitignore")
	if _, err := os.Stat(gitignorePath); err == nil {
		return nil // already exists, respect user customizations
	}
	if err := os.WriteFile(gitignorePath, []byte(dataGitignore), 0600); err != nil {
		return fmt.Errorf("failed to create .gitignore: %w", err)
	}
	return nil
}
