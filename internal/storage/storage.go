package storage

import (
	"context"

	"github.com/maestrohq/maestroctl/internal/model"
)

// Repository is the interface for the local chat history persistence.
type Repository interface {
	// SaveSession stores a session, storing an existing one fails with ErrAlreadyExists.
	SaveSession(ctx context.Context, s model.Session) error
	// GetLatestSession returns the most recent session of a user.
	GetLatestSession(ctx context.Context, userID string) (*model.Session, error)

	// SaveTask creates or replaces a task.
	SaveTask(ctx context.Context, t model.Task) error
	GetTask(ctx context.Context, id string) (*model.Task, error)
	// ListTasks returns the tasks of a session newest first, all of them if the session is empty.
	ListTasks(ctx context.Context, sessionID string) ([]model.Task, error)

	// ResolveTask saves the task and appends its terminal message atomically.
	ResolveTask(ctx context.Context, t model.Task, msg model.Message) error

	AppendMessages(ctx context.Context, msgs ...model.Message) error
	// ListMessages returns the last messages of a session in chronological order.
	// A limit of 0 or less returns all of them.
	ListMessages(ctx context.Context, sessionID string, limit int) ([]model.Message, error)
}
