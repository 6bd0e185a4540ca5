package orchestrator

import (
	"context"

	"github.com/maestrohq/maestroctl/internal/model"
)

// Client is the multi agent orchestrator API client.
type Client interface {
	// CreateTask plans a new task, the orchestrator executes it in the background.
	CreateTask(ctx context.Context, r model.TaskRequest) (*model.TaskHandle, error)
	// GetTask returns the current state of a task.
	GetTask(ctx context.Context, id string) (*model.TaskState, error)
	CancelTask(ctx context.Context, id string) error

	CreateSession(ctx context.Context, userID string) (*model.Session, error)
	// ListSessionMessages returns the last messages the orchestrator keeps for a session in
	// chronological order. A limit of 0 or less uses the orchestrator default.
	ListSessionMessages(ctx context.Context, sessionID string, limit int) ([]model.Message, error)

	ListAgents(ctx context.Context, filter model.AgentFilter) ([]model.Agent, error)
	GetAgentStats(ctx context.Context) (*model.AgentStats, error)
	// CheckAgentHealth makes the orchestrator probe an agent. Unhealthy agents are
	// not an error, they are reported on the returned health.
	CheckAgentHealth(ctx context.Context, agentID string) (*model.AgentHealth, error)

	// Health checks the orchestrator itself is up.
	Health(ctx context.Context) error
}
