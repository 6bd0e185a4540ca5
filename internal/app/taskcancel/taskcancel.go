package taskcancel

import (
	"context"
	"fmt"

	"github.com/maestrohq/maestroctl/internal/log"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/orchestrator"
)

// ServiceConfig is the configuration for the task cancel service.
type ServiceConfig struct {
	Orchestrator orchestrator.Client
	Logger       log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Orchestrator == nil {
		return fmt.Errorf("orchestrator is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.TaskCancel"})

	return nil
}

// Service cancels orchestrator tasks.
type Service struct {
	orch   orchestrator.Client
	logger log.Logger
}

// NewService creates a new task cancel service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		orch:   cfg.Orchestrator,
		logger: cfg.Logger,
	}, nil
}

// Request represents the task cancel request parameters.
type Request struct {
	TaskID string
}

// Run cancels a task. The local history is not updated, the task resolution is
// observed by polling it (task status).
func (s *Service) Run(ctx context.Context, req Request) error {
	if req.TaskID == "" {
		return fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}

	if err := s.orch.CancelTask(ctx, req.TaskID); err != nil {
		return fmt.Errorf("could not cancel task %s: %w", req.TaskID, err)
	}

	s.logger.Infof("Task %s cancelled", req.TaskID)

	return nil
}
