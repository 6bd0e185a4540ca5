package fake

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/maestrohq/maestroctl/internal/conventions"
	"github.com/maestrohq/maestroctl/internal/log"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/orchestrator"
)

// OrchestratorConfig is the configuration for the fake orchestrator.
type OrchestratorConfig struct {
	// PollsToComplete is the number of status checks a task needs to finish.
	PollsToComplete int
	// FailKeyword makes tasks whose description contains it fail.
	FailKeyword string
	// Agents are the registered agents, a default registry is used if empty.
	Agents []model.Agent
	Logger log.Logger
}

func (c *OrchestratorConfig) defaults() error {
	if c.PollsToComplete <= 0 {
		c.PollsToComplete = 2
	}

	if c.Agents == nil {
		c.Agents = defaultAgents()
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "orchestrator.Fake"})

	return nil
}

type fakeTask struct {
	state model.TaskState
	polls int
}

// Orchestrator is a fake implementation of the orchestrator.Client interface.
// It simulates task execution without any agent, tasks move from pending to
// running and finish after a number of status checks.
type Orchestrator struct {
	pollsToComplete int
	failKeyword     string
	agents          []model.Agent
	tasks           map[string]*fakeTask
	messages        map[string][]model.Message
	lastID          int
	mu              sync.Mutex
	logger          log.Logger
}

var _ orchestrator.Client = &Orchestrator{}

// NewOrchestrator creates a new fake orchestrator.
func NewOrchestrator(cfg OrchestratorConfig) (*Orchestrator, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Orchestrator{
		pollsToComplete: cfg.PollsToComplete,
		failKeyword:     cfg.FailKeyword,
		agents:          cfg.Agents,
		tasks:           map[string]*fakeTask{},
		messages:        map[string][]model.Message{},
		logger:          cfg.Logger,
	}, nil
}

func (o *Orchestrator) CreateTask(ctx context.Context, r model.TaskRequest) (*model.TaskHandle, error) {
	if strings.TrimSpace(r.Description) == "" {
		return nil, fmt.Errorf("description is required: %w", model.ErrNotValid)
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	o.lastID++
	id := strconv.Itoa(o.lastID)
	sessionID := r.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	plan, err := json.Marshal(map[string]any{
		"steps": []map[string]any{{
			"agent_name":  o.agentName(),
			"description": r.Description,
		}},
	})
	if err != nil {
		return nil, fmt.Errorf("could not create plan: %w", err)
	}

	now := time.Now().UTC()
	o.tasks[id] = &fakeTask{state: model.TaskState{
		ID:          id,
		SessionID:   sessionID,
		Description: r.Description,
		Status:      model.TaskStatusPending,
		CreatedAt:   now,
	}}
	o.record(sessionID, model.RoleUser, r.Description)
	o.logger.Infof("Created fake task %s", id)

	return &model.TaskHandle{
		TaskID:    id,
		SessionID: sessionID,
		Status:    model.TaskStatusPending,
		Plan:      plan,
		CreatedAt: now,
	}, nil
}

func (o *Orchestrator) GetTask(ctx context.Context, id string) (*model.TaskState, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	t, ok := o.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}

	if !t.state.Status.IsTerminal() {
		t.polls++
		switch {
		case t.polls < o.pollsToComplete:
			t.state.Status = model.TaskStatusRunning
		case o.failKeyword != "" && strings.Contains(t.state.Description, o.failKeyword):
			o.finish(t, model.TaskStatusFailed, map[string]any{"error": "agent could not handle the task"})
		default:
			o.finish(t, model.TaskStatusCompleted, map[string]any{
				"steps": []map[string]any{{
					"content": map[string]any{"response": fmt.Sprintf("Done: %s", t.state.Description)},
				}},
				"summary": "Task executed by 1 agent",
			})
		}
	}

	st := t.state
	return &st, nil
}

func (o *Orchestrator) finish(t *fakeTask, status model.TaskStatus, result map[string]any) {
	// Static maps, marshaling can't fail.
	data, _ := json.Marshal(result)
	now := time.Now().UTC()
	t.state.Status = status
	t.state.Result = data
	t.state.CompletedAt = &now

	content := gjson.GetBytes(data, "steps.0.content.response").String()
	if content == "" {
		content = gjson.GetBytes(data, "error").String()
	}
	o.record(t.state.SessionID, model.RoleAssistant, content)
}

// record keeps a session conversation message, the lock must be held.
func (o *Orchestrator) record(sessionID string, role model.Role, content string) {
	msgs := o.messages[sessionID]
	o.messages[sessionID] = append(msgs, model.Message{
		ID:        strconv.Itoa(len(msgs) + 1),
		SessionID: sessionID,
		Role:      role,
		Kind:      model.MessageKindText,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
}

func (o *Orchestrator) ListSessionMessages(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	if limit <= 0 {
		limit = conventions.DefaultHistoryLimit
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	msgs := o.messages[sessionID]
	if len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	return append([]model.Message{}, msgs...), nil
}

func (o *Orchestrator) CancelTask(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	t, ok := o.tasks[id]
	if !ok {
		return fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}

	now := time.Now().UTC()
	t.state.Status = model.TaskStatusCancelled
	t.state.CompletedAt = &now

	return nil
}

func (o *Orchestrator) CreateSession(ctx context.Context, userID string) (*model.Session, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id is required: %w", model.ErrNotValid)
	}

	return &model.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}, nil
}

func (o *Orchestrator) ListAgents(ctx context.Context, filter model.AgentFilter) ([]model.Agent, error) {
	agents := []model.Agent{}
	for _, a := range o.agents {
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		agents = append(agents, a)
	}

	return agents, nil
}

func (o *Orchestrator) GetAgentStats(ctx context.Context) (*model.AgentStats, error) {
	stats := &model.AgentStats{ByType: map[string]int{
		string(model.AgentTypeA2AServer): 0,
		string(model.AgentTypeAPI):       0,
		string(model.AgentTypeLocal):     0,
	}}
	for _, a := range o.agents {
		stats.Total++
		stats.ByType[string(a.Type)]++
		switch a.Status {
		case model.AgentStatusActive:
			stats.Active++
		case model.AgentStatusInactive:
			stats.Inactive++
		case model.AgentStatusError:
			stats.Error++
		}
	}

	return stats, nil
}

func (o *Orchestrator) CheckAgentHealth(ctx context.Context, agentID string) (*model.AgentHealth, error) {
	for _, a := range o.agents {
		if a.ID != agentID {
			continue
		}

		if a.Status == model.AgentStatusActive {
			return &model.AgentHealth{
				AgentID:  agentID,
				Status:   "healthy",
				Response: json.RawMessage(`{"status":"healthy"}`),
			}, nil
		}

		return &model.AgentHealth{
			AgentID: agentID,
			Status:  "error",
			Error:   fmt.Sprintf("agent %s is %s", a.Name, a.Status),
		}, nil
	}

	return nil, fmt.Errorf("agent %s: %w", agentID, model.ErrNotFound)
}

func (o *Orchestrator) Health(ctx context.Context) error { return nil }

func (o *Orchestrator) agentName() string {
	names := []string{}
	for _, a := range o.agents {
		if a.Status == model.AgentStatusActive {
			names = append(names, a.Name)
		}
	}
	if len(names) == 0 {
		return "Agent"
	}
	sort.Strings(names)

	return names[0]
}

func defaultAgents() []model.Agent {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return []model.Agent{
		{
			ID:           "1",
			Name:         "research-agent",
			Description:  "Researches topics and summarizes findings",
			Type:         model.AgentTypeA2AServer,
			Endpoint:     "http://localhost:8001",
			Capabilities: []string{"research", "summarize"},
			Status:       model.AgentStatusActive,
			CreatedAt:    created,
		},
		{
			ID:           "2",
			Name:         "analysis-agent",
			Description:  "Analyzes data and produces reports",
			Type:         model.AgentTypeAPI,
			Endpoint:     "http://localhost:8002",
			Capabilities: []string{"analysis"},
			Status:       model.AgentStatusActive,
			CreatedAt:    created,
		},
		{
			ID:           "3",
			Name:         "local-agent",
			Description:  "Runs local tools",
			Type:         model.AgentTypeLocal,
			Capabilities: []string{"tools"},
			Status:       model.AgentStatusInactive,
			CreatedAt:    created,
		},
	}
}
