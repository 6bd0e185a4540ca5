package conventions

import (
	"path/filepath"
	"time"
)

const (
	// DefaultDataDir is the default maestroctl data directory name (relative to home).
	DefaultDataDir = ".maestro"
	// DBFile is the local history SQLite database filename.
	DBFile = "maestro.db"
	// ProfileFile is the optional YAML profile filename.
	ProfileFile = "profile.yaml"

	// Orchestrator API.

	// DefaultAPIURL is the orchestrator base URL.
	DefaultAPIURL = "http://localhost:8000"
	// APIPrefix is the path prefix of the orchestrator REST API.
	APIPrefix = "/api"
	// HealthPath is the orchestrator liveness endpoint (outside the API prefix).
	HealthPath = "/health"

	// Task polling.

	// DefaultPollInterval is the time between two task status checks.
	DefaultPollInterval = 2 * time.Second
	// DefaultPollTimeout is the time a task has to reach a terminal state since it was created.
	DefaultPollTimeout = 60 * time.Second
	// DefaultSubmitTimeout bounds the task creation request.
	DefaultSubmitTimeout = 30 * time.Second
	// DefaultRequestTimeout bounds every other orchestrator request.
	DefaultRequestTimeout = 10 * time.Second

	// DefaultHistoryLimit is the number of messages shown by history.
	DefaultHistoryLimit = 50
)

// DBPath returns the history database path inside a data directory.
func DBPath(dataDir string) string {
	return filepath.Join(dataDir, DBFile)
}

// ProfilePath returns the profile path inside a data directory.
func ProfilePath(dataDir string) string {
	return filepath.Join(dataDir, ProfileFile)
}
