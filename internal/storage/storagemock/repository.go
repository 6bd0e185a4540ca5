package storagemock

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/storage"
)

// MockRepository is a mock of storage.Repository.
type MockRepository struct {
	mock.Mock
}

var _ storage.Repository = &MockRepository{}

func (m *MockRepository) SaveSession(ctx context.Context, s model.Session) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockRepository) GetLatestSession(ctx context.Context, userID string) (*model.Session, error) {
	args := m.Called(ctx, userID)
	s, _ := args.Get(0).(*model.Session)
	return s, args.Error(1)
}

func (m *MockRepository) SaveTask(ctx context.Context, t model.Task) error {
	args := m.Called(ctx, t)
	return args.Error(0)
}

func (m *MockRepository) GetTask(ctx context.Context, id string) (*model.Task, error) {
	args := m.Called(ctx, id)
	t, _ := args.Get(0).(*model.Task)
	return t, args.Error(1)
}

func (m *MockRepository) ListTasks(ctx context.Context, sessionID string) ([]model.Task, error) {
	args := m.Called(ctx, sessionID)
	tasks, _ := args.Get(0).([]model.Task)
	return tasks, args.Error(1)
}

func (m *MockRepository) ResolveTask(ctx context.Context, t model.Task, msg model.Message) error {
	args := m.Called(ctx, t, msg)
	return args.Error(0)
}

func (m *MockRepository) AppendMessages(ctx context.Context, msgs ...model.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockRepository) ListMessages(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	args := m.Called(ctx, sessionID, limit)
	msgs, _ := args.Get(0).([]model.Message)
	return msgs, args.Error(1)
}
