package orchestratormock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/orchestrator"
)

// MockClient is a mock of orchestrator.Client.
type MockClient struct {
	mock.Mock
}

var _ orchestrator.Client = &MockClient{}

func (m *MockClient) CreateTask(ctx context.Context, r model.TaskRequest) (*model.TaskHandle, error) {
	args := m.Called(ctx, r)
	h, _ := args.Get(0).(*model.TaskHandle)
	return h, args.Error(1)
}

func (m *MockClient) GetTask(ctx context.Context, id string) (*model.TaskState, error) {
	args := m.Called(ctx, id)
	st, _ := args.Get(0).(*model.TaskState)
	return st, args.Error(1)
}

func (m *MockClient) CancelTask(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockClient) CreateSession(ctx context.Context, userID string) (*model.Session, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*model.Session)
	return s, args.Error(1)
}

func (m *MockClient) ListSessionMessages(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	args := m.Called(ctx, sessionID, limit)
	msgs, _ := args.Get(0).([]model.Message)
	return msgs, args.Error(1)
}

func (m *MockClient) ListAgents(ctx context.Context, filter model.AgentFilter) ([]model.Agent, error) {
	args := m.Called(ctx, filter)
	agents, _ := args.Get(0).([]model.Agent)
	return agents, args.Error(1)
}

func (m *MockClient) GetAgentStats(ctx context.Context) (*model.AgentStats, error) {
	args := m.Called(ctx)
	stats, _ := args.Get(0).(*model.AgentStats)
	return stats, args.Error(1)
}

func (m *MockClient) CheckAgentHealth(ctx context.Context, agentID string) (*model.AgentHealth, error) {
	args := m.Called(ctx, agentID)
	h, _ := args.Get(0).(*model.AgentHealth)
	return h, args.Error(1)
}

func (m *MockClient) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
