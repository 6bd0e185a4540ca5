package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/maestrohq/maestroctl/internal/log"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/storage"
)

// RepositoryConfig is the configuration for the memory repository.
type RepositoryConfig struct {
	Logger log.Logger
}

func (c *RepositoryConfig) defaults() error {
	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "storage.Memory"})
	return nil
}

// Repository is an in-memory implementation of storage.Repository.
type Repository struct {
	sessions  []model.Session
	tasks     map[string]model.Task
	taskOrder []string
	messages  []model.Message
	mu        sync.RWMutex
	logger    log.Logger
}

var _ storage.Repository = &Repository{}

// NewRepository creates a new memory repository.
func NewRepository(cfg RepositoryConfig) (*Repository, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Repository{
		tasks:  make(map[string]model.Task),
		logger: cfg.Logger,
	}, nil
}

// SaveSession stores a new session.
func (r *Repository) SaveSession(ctx context.Context, s model.Session) error {
	if s.ID == "" || s.UserID == "" {
		return fmt.Errorf("session id and user are required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.sessions {
		if existing.ID == s.ID {
			return fmt.Errorf("session %s: %w", s.ID, model.ErrAlreadyExists)
		}
	}

	r.sessions = append(r.sessions, s)
	r.logger.Debugf("Saved session in repository: %s", s.ID)

	return nil
}

// GetLatestSession returns the newest session of the user.
func (r *Repository) GetLatestSession(ctx context.Context, userID string) (*model.Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var latest *model.Session
	for i := range r.sessions {
		s := r.sessions[i]
		if s.UserID != userID {
			continue
		}
		// Same creation time, the last stored wins.
		if latest == nil || !s.CreatedAt.Before(latest.CreatedAt) {
			latest = &s
		}
	}

	if latest == nil {
		return nil, fmt.Errorf("session for user %s: %w", userID, model.ErrNotFound)
	}

	return latest, nil
}

// SaveTask creates or replaces a task.
func (r *Repository) SaveTask(ctx context.Context, t model.Task) error {
	if t.ID == "" {
		return fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID]; !ok {
		r.taskOrder = append(r.taskOrder, t.ID)
	}
	r.tasks[t.ID] = t
	r.logger.Debugf("Saved task in repository: %s", t.ID)

	return nil
}

// GetTask retrieves a task by ID.
func (r *Repository) GetTask(ctx context.Context, id string) (*model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tasks[id]
	if !ok {
		return nil, fmt.Errorf("task %s: %w", id, model.ErrNotFound)
	}

	return &t, nil
}

// ListTasks returns the session tasks, newest first.
func (r *Repository) ListTasks(ctx context.Context, sessionID string) ([]model.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tasks := []model.Task{}
	for i := len(r.taskOrder) - 1; i >= 0; i-- {
		t := r.tasks[r.taskOrder[i]]
		if sessionID != "" && t.SessionID != sessionID {
			continue
		}
		tasks = append(tasks, t)
	}

	// Stable keeps the insertion order on equal creation times.
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })

	return tasks, nil
}

// ResolveTask saves the task and appends its terminal message.
func (r *Repository) ResolveTask(ctx context.Context, t model.Task, msg model.Message) error {
	if t.ID == "" {
		return fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("invalid message: %w", err)
	}
	if msg.TaskID != t.ID || !msg.Kind.IsTerminal() {
		return fmt.Errorf("message %s does not resolve task %s: %w", msg.ID, t.ID, model.ErrNotValid)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.tasks[t.ID]; !ok {
		r.taskOrder = append(r.taskOrder, t.ID)
	}
	r.tasks[t.ID] = t
	r.messages = append(r.messages, msg)
	r.logger.Debugf("Resolved task in repository: %s", t.ID)

	return nil
}

// AppendMessages adds messages at the end of the history.
func (r *Repository) AppendMessages(ctx context.Context, msgs ...model.Message) error {
	for _, m := range msgs {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("invalid message: %w", err)
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.messages = append(r.messages, msgs...)

	return nil
}

// ListMessages returns the last messages of a session in chronological order.
func (r *Repository) ListMessages(ctx context.Context, sessionID string, limit int) ([]model.Message, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	msgs := []model.Message{}
	for _, m := range r.messages {
		if m.SessionID == sessionID {
			msgs = append(msgs, m)
		}
	}

	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}

	return msgs, nil
}
