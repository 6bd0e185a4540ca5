package sessioncreate

import (
	"context"
	"fmt"
	"time"

	"github.com/maestrohq/maestroctl/internal/log"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/orchestrator"
	"github.com/maestrohq/maestroctl/internal/storage"
)

// ServiceConfig is the configuration for the session create service.
type ServiceConfig struct {
	Orchestrator orchestrator.Client
	Repository   storage.Repository
	Logger       log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Orchestrator == nil {
		return fmt.Errorf("orchestrator is required")
	}

	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.SessionCreate"})

	return nil
}

// Service creates conversation sessions.
type Service struct {
	orch   orchestrator.Client
	repo   storage.Repository
	logger log.Logger
}

// NewService creates a new session create service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		orch:   cfg.Orchestrator,
		repo:   cfg.Repository,
		logger: cfg.Logger,
	}, nil
}

// Request represents the session create request parameters.
type Request struct {
	UserID string
}

// Run creates a session on the orchestrator and stores it as the latest user session.
func (s *Service) Run(ctx context.Context, req Request) (*model.Session, error) {
	if req.UserID == "" {
		return nil, fmt.Errorf("user id is required: %w", model.ErrNotValid)
	}

	session, err := s.orch.CreateSession(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("could not create session: %w", err)
	}
	if session.UserID == "" {
		session.UserID = req.UserID
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.SaveSession(ctx, *session); err != nil {
		return nil, fmt.Errorf("could not store session: %w", err)
	}

	s.logger.Infof("Session %s created", session.ID)

	return session, nil
}
