package printer_test

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/printer"
)

var t0 = time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

func messagesFixture() []model.Message {
	return []model.Message{
		{ID: "m1", SessionID: "s1", Role: model.RoleUser, Kind: model.MessageKindText, Content: "ping", Timestamp: t0},
		{ID: "m2", SessionID: "s1", Role: model.RoleAssistant, Kind: model.MessageKindResult, Content: "pong\nsecond line", TaskID: "T1", Timestamp: t0},
	}
}

func TestTablePrinterPrintMessages(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintMessages(messagesFixture())
	require.NoError(t, err)

	exp := `[2026-03-10 09:00:00 UTC] you:
  ping

[2026-03-10 09:00:00 UTC] maestro:
  pong
  second line
`
	assert.Equal(t, exp, buf.String())
}

func TestTablePrinterPrintHistory(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	tasks := []model.Task{{ID: "T1", Status: model.TaskStatusCompleted, Phase: model.TaskPhaseCompleted, Description: "ping", CreatedAt: t0}}
	err := p.PrintHistory("s1", messagesFixture(), tasks)
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Session: s1\n"))
	assert.Contains(t, out, "TASK  STATUS     PHASE")
	assert.Contains(t, out, "T1    completed  completed")
}

func TestTablePrinterPrintAgentStats(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintAgentStats(model.AgentStats{Total: 3, Active: 2, Error: 1, ByType: map[string]int{"local": 1, "api": 2}})
	require.NoError(t, err)

	exp := `Total:      3
Active:     2
Inactive:   0
Error:      1
By type:
  api:        2
  local:      1
`
	assert.Equal(t, exp, buf.String())
}

func TestTablePrinterPrintChecks(t *testing.T) {
	tests := map[string]struct {
		results []model.CheckResult
		expLast string
	}{
		"All passed.": {
			results: []model.CheckResult{{ID: "history_db", Status: model.CheckStatusOK, Message: "fine"}},
			expLast: "All checks passed!",
		},
		"Errors and warnings.": {
			results: []model.CheckResult{
				{ID: "orchestrator_api", Status: model.CheckStatusError, Message: "down"},
				{ID: "active_agents", Status: model.CheckStatusWarning, Message: "none"},
			},
			expLast: "1 error(s), 1 warning(s)",
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			var buf bytes.Buffer
			p := printer.NewTablePrinter(&buf)

			require.NoError(t, p.PrintChecks(test.results))

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			assert.Equal(t, test.expLast, lines[len(lines)-1])
		})
	}
}

func TestTablePrinterPrintTaskStatus(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintTaskStatus(model.TaskState{ID: "42", Status: model.TaskStatusCompleted, CreatedAt: t0}, "pong")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Task:       42\n")
	assert.Contains(t, out, "Status:     completed\n")
	assert.True(t, strings.HasSuffix(out, "\npong\n"))
}

func TestJSONPrinterPrintTaskStatus(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintTaskStatus(model.TaskState{
		ID:        "42",
		Status:    model.TaskStatusCompleted,
		Result:    json.RawMessage(`{"summary":"pong"}`),
		CreatedAt: t0,
	}, "pong")
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "42", got["task_id"])
	assert.Equal(t, "pong", got["text"])
	assert.Equal(t, map[string]any{"summary": "pong"}, got["result"])
	assert.Nil(t, got["completed_at"])
}

func TestJSONPrinterPrintAgents(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewJSONPrinter(&buf)

	err := p.PrintAgents([]model.Agent{{ID: "1", Name: "research-agent", Type: model.AgentTypeAPI, Status: model.AgentStatusActive, CreatedAt: t0}})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `"agent_type": "api"`)
	assert.Contains(t, out, `"capabilities": []`)
}

func TestTablePrinterPrintMessage(t *testing.T) {
	var buf bytes.Buffer
	p := printer.NewTablePrinter(&buf)

	err := p.PrintMessage("ok")
	require.NoError(t, err)
	assert.Equal(t, "ok", strings.TrimSpace(buf.String()))
}
