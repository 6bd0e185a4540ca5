package rest_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/orchestrator/rest"
)

type request struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

func newTestClient(t *testing.T, status int, resp string, got *request) *rest.Client {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got != nil {
			got.Method = r.Method
			got.Path = r.URL.Path
			got.Query = r.URL.RawQuery
			data, _ := io.ReadAll(r.Body)
			if len(data) > 0 {
				_ = json.Unmarshal(data, &got.Body)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(resp))
	}))
	t.Cleanup(srv.Close)

	c, err := rest.NewClient(rest.ClientConfig{BaseURL: srv.URL + "/"})
	require.NoError(t, err)

	return c
}

func TestNewClient(t *testing.T) {
	tests := map[string]struct {
		config rest.ClientConfig
		expErr bool
	}{
		"Default config should be valid.": {
			config: rest.ClientConfig{},
		},

		"An HTTPS URL should be valid.": {
			config: rest.ClientConfig{BaseURL: "https://orchestrator.example.com"},
		},

		"A URL without HTTP scheme should fail.": {
			config: rest.ClientConfig{BaseURL: "ftp://orchestrator"},
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c, err := rest.NewClient(test.config)
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.NotNil(t, c)
			}
		})
	}
}

func TestClientCreateTask(t *testing.T) {
	tests := map[string]struct {
		status    int
		resp      string
		expHandle *model.TaskHandle
		expErr    error
	}{
		"A created task should return its handle.": {
			status: 200,
			resp:   `{"task_id": 42, "session_id": "s1", "status": "planning", "plan": {"steps": [{"agent_name": "a"}]}, "created_at": "2026-03-10T09:00:00.123456"}`,
			expHandle: &model.TaskHandle{
				TaskID:    "42",
				SessionID: "s1",
				Status:    model.TaskStatusRunning,
				Plan:      json.RawMessage(`{"steps": [{"agent_name": "a"}]}`),
				CreatedAt: time.Date(2026, 3, 10, 9, 0, 0, 123456000, time.UTC),
			},
		},

		"A string task ID should be used as is.": {
			status:    200,
			resp:      `{"task_id": "T1", "status": "pending"}`,
			expHandle: &model.TaskHandle{TaskID: "T1", Status: model.TaskStatusPending},
		},

		"A missing task ID should fail.": {
			status: 200,
			resp:   `{"status": "pending"}`,
			expErr: model.ErrNotValid,
		},

		"A server error should fail with the detail.": {
			status: 500,
			resp:   `{"detail": "planner unavailable"}`,
			expErr: &rest.APIError{StatusCode: 500, Detail: "planner unavailable", Body: []byte(`{"detail": "planner unavailable"}`)},
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			got := &request{}
			c := newTestClient(t, test.status, test.resp, got)

			h, err := c.CreateTask(context.Background(), model.TaskRequest{Description: "ping", UserID: "u1", SessionID: "s1"})

			assert.Equal(http.MethodPost, got.Method)
			assert.Equal("/api/tasks", got.Path)
			assert.Equal(map[string]any{"description": "ping", "user_id": "u1", "session_id": "s1"}, got.Body)

			if test.expErr != nil {
				require.Error(err)
				var apiErr *rest.APIError
				if asAPIErr, ok := test.expErr.(*rest.APIError); ok {
					require.ErrorAs(err, &apiErr)
					assert.Equal(asAPIErr, apiErr)
				} else {
					assert.ErrorIs(err, test.expErr)
				}
				return
			}
			require.NoError(err)
			assert.Equal(test.expHandle, h)
		})
	}
}

func TestClientGetTask(t *testing.T) {
	completedAt := time.Date(2026, 3, 10, 9, 1, 0, 0, time.UTC)

	tests := map[string]struct {
		status   int
		resp     string
		expState *model.TaskState
		expErr   error
	}{
		"A completed task should return the result.": {
			status: 200,
			resp:   `{"id": 42, "session_id": "s1", "description": "ping", "status": "completed", "result": {"summary": "pong"}, "created_at": "2026-03-10T09:00:00", "completed_at": "2026-03-10T09:01:00"}`,
			expState: &model.TaskState{
				ID:          "42",
				SessionID:   "s1",
				Description: "ping",
				Status:      model.TaskStatusCompleted,
				Result:      json.RawMessage(`{"summary": "pong"}`),
				CreatedAt:   time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
				CompletedAt: &completedAt,
			},
		},

		"A null result should be empty.": {
			status: 200,
			resp:   `{"id": 42, "status": "in_progress", "result": null, "completed_at": null}`,
			expState: &model.TaskState{
				ID:     "42",
				Status: model.TaskStatusRunning,
			},
		},

		"A missing task should return not found.": {
			status: 404,
			resp:   `{"detail": "Task not found"}`,
			expErr: model.ErrNotFound,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			assert := assert.New(t)
			require := require.New(t)

			got := &request{}
			c := newTestClient(t, test.status, test.resp, got)

			st, err := c.GetTask(context.Background(), "42")

			assert.Equal(http.MethodGet, got.Method)
			assert.Equal("/api/tasks/42", got.Path)

			if test.expErr != nil {
				assert.ErrorIs(err, test.expErr)
				return
			}
			require.NoError(err)
			assert.Equal(test.expState, st)
		})
	}
}

func TestClientCancelTask(t *testing.T) {
	got := &request{}
	c := newTestClient(t, 200, `{"status": "cancelled", "task_id": 42}`, got)

	err := c.CancelTask(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, got.Method)
	assert.Equal(t, "/api/tasks/42/cancel", got.Path)
}

func TestClientCreateSession(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	got := &request{}
	c := newTestClient(t, 200, `{"session_id": "s-1", "user_id": "u1", "created_at": "2026-03-10T09:00:00Z"}`, got)

	s, err := c.CreateSession(context.Background(), "u1")
	require.NoError(err)
	assert.Equal(&model.Session{ID: "s-1", UserID: "u1", CreatedAt: time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)}, s)
	assert.Equal("/api/sessions", got.Path)
	assert.Equal("user_id=u1", got.Query)
	assert.Equal(map[string]any{"user_id": "u1"}, got.Body)
}

func TestClientListSessionMessages(t *testing.T) {
	tests := map[string]struct {
		limit    int
		resp     string
		expQuery string
		expMsgs  []model.Message
		expErr   bool
	}{
		"Server messages should be returned in order.": {
			limit: 10,
			resp: `[
				{"id": 1, "role": "user", "content": "ping", "agent_id": null, "timestamp": "2026-03-10T09:00:00.250000", "metadata": {}},
				{"id": 2, "role": "system", "content": "pong", "agent_id": 3, "timestamp": "2026-03-10T09:00:05", "metadata": null}
			]`,
			expQuery: "limit=10",
			expMsgs: []model.Message{
				{ID: "1", SessionID: "s-1", Role: model.RoleUser, Kind: model.MessageKindText, Content: "ping", Timestamp: time.Date(2026, 3, 10, 9, 0, 0, 250000000, time.UTC)},
				{ID: "2", SessionID: "s-1", Role: model.RoleAssistant, Kind: model.MessageKindText, Content: "pong", Timestamp: time.Date(2026, 3, 10, 9, 0, 5, 0, time.UTC)},
			},
		},

		"Without limit the server default should be used.": {
			resp:    `[]`,
			expMsgs: []model.Message{},
		},

		"A non list response should fail.": {
			resp:   `{"detail": "nope"}`,
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := &request{}
			c := newTestClient(t, 200, test.resp, got)

			msgs, err := c.ListSessionMessages(context.Background(), "s-1", test.limit)
			if test.expErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expMsgs, msgs)
			assert.Equal(t, http.MethodGet, got.Method)
			assert.Equal(t, "/api/sessions/s-1/messages", got.Path)
			assert.Equal(t, test.expQuery, got.Query)
		})
	}
}

func TestClientListAgents(t *testing.T) {
	assert := assert.New(t)
	require := require.New(t)

	got := &request{}
	c := newTestClient(t, 200, `[
		{"id": 1, "name": "researcher", "description": "Searches", "agent_type": "a2a_server", "endpoint": "http://localhost:8001", "capabilities": ["search", "summarize"], "status": "active", "created_at": "2026-03-10T09:00:00"},
		{"id": 2, "name": "writer", "agent_type": "api", "status": "error"}
	]`, got)

	agents, err := c.ListAgents(context.Background(), model.AgentFilter{Status: model.AgentStatusActive})
	require.NoError(err)
	assert.Equal("status=active", got.Query)
	assert.Equal([]model.Agent{
		{
			ID:           "1",
			Name:         "researcher",
			Description:  "Searches",
			Type:         model.AgentTypeA2AServer,
			Endpoint:     "http://localhost:8001",
			Capabilities: []string{"search", "summarize"},
			Status:       model.AgentStatusActive,
			CreatedAt:    time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		},
		{
			ID:           "2",
			Name:         "writer",
			Type:         model.AgentTypeAPI,
			Capabilities: []string{},
			Status:       model.AgentStatusError,
		},
	}, agents)
}

func TestClientGetAgentStats(t *testing.T) {
	c := newTestClient(t, 200, `{"total": 3, "active": 2, "inactive": 0, "error": 1, "by_type": {"a2a_server": 2, "api": 1, "local": 0}}`, nil)

	stats, err := c.GetAgentStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &model.AgentStats{
		Total:  3,
		Active: 2,
		Error:  1,
		ByType: map[string]int{"a2a_server": 2, "api": 1, "local": 0},
	}, stats)
}

func TestClientCheckAgentHealth(t *testing.T) {
	tests := map[string]struct {
		status    int
		resp      string
		expHealth *model.AgentHealth
		expErr    error
	}{
		"A healthy agent.": {
			status: 200,
			resp:   `{"agent_id": 1, "status": "healthy", "response": {"status": "ok"}}`,
			expHealth: &model.AgentHealth{
				AgentID:  "1",
				Status:   "healthy",
				Response: json.RawMessage(`{"status": "ok"}`),
			},
		},

		"An unhealthy agent is not an error.": {
			status: 503,
			resp:   `{"detail": {"agent_id": 1, "status": "error", "error": "connection refused"}}`,
			expHealth: &model.AgentHealth{
				AgentID: "1",
				Status:  "error",
				Error:   "connection refused",
			},
		},

		"A missing agent should fail as not found.": {
			status: 503,
			resp:   `{"detail": {"error": "Agent 1 not found"}}`,
			expErr: model.ErrNotFound,
		},

		"A plain unavailable response should fail.": {
			status: 503,
			resp:   `{"detail": "Service unavailable"}`,
			expErr: errors.New("any"),
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			c := newTestClient(t, test.status, test.resp, nil)

			h, err := c.CheckAgentHealth(context.Background(), "1")
			if test.expErr != nil {
				assert.Error(t, err)
				if errors.Is(test.expErr, model.ErrNotFound) {
					assert.ErrorIs(t, err, model.ErrNotFound)
				} else {
					assert.NotErrorIs(t, err, model.ErrNotFound)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.expHealth, h)
		})
	}
}

func TestClientHealth(t *testing.T) {
	tests := map[string]struct {
		status int
		resp   string
		expErr bool
	}{
		"A healthy orchestrator.": {
			status: 200,
			resp:   `{"status": "healthy", "service": "multi-agent-orchestrator"}`,
		},

		"A degraded orchestrator.": {
			status: 200,
			resp:   `{"status": "degraded"}`,
			expErr: true,
		},

		"A failing orchestrator.": {
			status: 502,
			resp:   `bad gateway`,
			expErr: true,
		},
	}

	for name, test := range tests {
		t.Run(name, func(t *testing.T) {
			got := &request{}
			c := newTestClient(t, test.status, test.resp, got)

			err := c.Health(context.Background())
			assert.Equal(t, "/health", got.Path)
			if test.expErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
