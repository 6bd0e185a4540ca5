package main

import (
	"bytes"
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	dir := t.TempDir()
	base := []string{
		"maestroctl",
		"--fake",
		"--no-log",
		"--user-id", "alice",
		"--db-path", filepath.Join(dir, "maestro.db"),
		"--profile", filepath.Join(dir, "profile.yaml"),
	}

	var stdout, stderr bytes.Buffer
	err := Run(context.Background(), append(base, args...), strings.NewReader(stdin), &stdout, &stderr)
	return stdout.String(), err
}

func TestRunChat(t *testing.T) {
	out, err := runCLI(t, "", "chat", "summarize the news", "--poll-interval", "10ms")
	require.NoError(t, err)
	assert.Contains(t, out, "Done: summarize the news")
	assert.NotContains(t, out, "you:")
}

func TestRunChatREPL(t *testing.T) {
	out, err := runCLI(t, "ping\n\n/exit\nignored\n", "chat", "--poll-interval", "10ms")
	require.NoError(t, err)
	assert.Contains(t, out, "Done: ping")
	assert.NotContains(t, out, "ignored")
}

func TestRunAgentList(t *testing.T) {
	out, err := runCLI(t, "", "agent", "list", "--format", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"agent_type"`)
}

func TestRunDoctor(t *testing.T) {
	out, err := runCLI(t, "", "doctor")
	require.NoError(t, err)
	assert.Contains(t, out, "orchestrator_api")
	assert.Contains(t, out, "All checks passed!")
}

func TestRunInvalidCommand(t *testing.T) {
	_, err := runCLI(t, "", "sandbox", "create")
	assert.Error(t, err)
}
