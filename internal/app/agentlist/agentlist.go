package agentlist

import (
	"context"
	"fmt"

	"github.com/maestrohq/maestroctl/internal/log"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/orchestrator"
)

// ServiceConfig is the configuration for the agent list service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.AgentList"})

	return nil
}

// Service lists the orchestrator registered agents.
type Service struct {
	orch   orchestrator.Client
	logger log.Logger
}

// NewService creates a new agent list service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		orch:   cfg.Orchestrator,
		logger: cfg.Logger,
	}, nil
}

// Request represents the agent list request parameters, empty filters match everything.
type Request struct {
	Type   string
	Status string
}

// Run lists the agents.
func (s *Service) Run(ctx context.Context, req Request) ([]model.Agent, error) {
	filter := model.AgentFilter{
		Type:   model.AgentType(req.Type),
		Status: model.AgentStatus(req.Status),
	}

	switch filter.Type {
	case "", model.AgentTypeA2AServer, model.AgentTypeAPI, model.AgentTypeLocal:
	default:
		return nil, fmt.Errorf("unknown agent type %q: %w", req.Type, model.ErrNotValid)
	}

	switch filter.Status {
	case "", model.AgentStatusActive, model.AgentStatusInactive, model.AgentStatusError:
	default:
		return nil, fmt.Errorf("unknown agent status %q: %w", req.Status, model.ErrNotValid)
	}

	agents, err := s.orch.ListAgents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("could not list agents: %w", err)
	}
	s.logger.Debugf("Listed %d agents", len(agents))

	return agents, nil
}
