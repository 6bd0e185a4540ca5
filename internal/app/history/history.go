package history

import (
	"context"
	"errors"
	"fmt"

	"github.com/maestrohq/maestroctl/internal/log"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/orchestrator"
	"github.com/maestrohq/maestroctl/internal/storage"
)

// ServiceConfig is the configuration for the history service.
type ServiceConfig struct {
	Repository storage.Repository
	// Orchestrator is only required for remote history requests.
	Orchestrator orchestrator.Client
	Logger       log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}

	return nil
}

// Service reads the conversation history, stored locally or by the orchestrator.
type Service struct {
	repo   storage.Repository
	orch   orchestrator.Client
	logger log.Logger
}

// NewService creates a new history service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		repo:   cfg.Repository,
		orch:   cfg.Orchestrator,
		logger: cfg.Logger,
	}, nil
}

// Request represents the history request parameters.
type Request struct {
	// SessionID is the conversation to show, the latest session of the user if empty.
	SessionID string
	UserID    string
	// Limit is the maximum number of (last) messages, 0 returns all of them.
	Limit int
	// Remote reads the messages the orchestrator keeps for the session, including the
	// ones sent by other clients. Tasks are not returned.
	Remote bool
}

// Response is a conversation history.
type Response struct {
	SessionID string
	Messages  []model.Message
	// Tasks are the session tasks, newest first.
	Tasks []model.Task
}

// Run returns the history of a session.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	if req.Limit < 0 {
		return nil, fmt.Errorf("limit can't be negative: %w", model.ErrNotValid)
	}
	if req.Remote && s.orch == nil {
		return nil, fmt.Errorf("remote history requires an orchestrator: %w", model.ErrNotValid)
	}

	sessionID := req.SessionID
	if sessionID == "" {
		if req.UserID == "" {
			return nil, fmt.Errorf("session or user is required: %w", model.ErrNotValid)
		}

		session, err := s.repo.GetLatestSession(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return nil, fmt.Errorf("no conversations for user %s: %w", req.UserID, model.ErrNotFound)
			}
			return nil, fmt.Errorf("could not get latest session: %w", err)
		}
		sessionID = session.ID
	}
	s.logger.Debugf("Reading history of session %s", sessionID)

	if req.Remote {
		msgs, err := s.orch.ListSessionMessages(ctx, sessionID, req.Limit)
		if err != nil {
			return nil, fmt.Errorf("could not list orchestrator messages: %w", err)
		}

		return &Response{
			SessionID: sessionID,
			Messages:  msgs,
			Tasks:     []model.Task{},
		}, nil
	}

	msgs, err := s.repo.ListMessages(ctx, sessionID, req.Limit)
	if err != nil {
		return nil, fmt.Errorf("could not list messages: %w", err)
	}

	tasks, err := s.repo.ListTasks(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("could not list tasks: %w", err)
	}

	return &Response{
		SessionID: sessionID,
		Messages:  msgs,
		Tasks:     tasks,
	}, nil
}
