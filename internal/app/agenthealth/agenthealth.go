package agenthealth

import (
	"context"
	"errors"
	"fmt"

	"github.com/maestrohq/maestroctl/internal/log"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/orchestrator"
)

// ServiceConfig is the configuration for the agent health service.
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
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.AgentHealth"})

	return nil
}

// Service makes the orchestrator check the health of its agents.
type Service struct {
	orch   orchestrator.Client
	logger log.Logger
}

// NewService creates a new agent health service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		orch:   cfg.Orchestrator,
		logger: cfg.Logger,
	}, nil
}

// Request represents the agent health request parameters.
type Request struct {
	// AgentIDs are the agents to check, all the registered agents if empty.
	AgentIDs []string
}

// Run checks the agents health in order.
//
// A check that can't be made on an agent is reported as an error health entry
// and doesn't stop the rest of the checks. Unknown agents fail the request.
func (s *Service) Run(ctx context.Context, req Request) ([]model.AgentHealth, error) {
	ids := req.AgentIDs
	if len(ids) == 0 {
		agents, err := s.orch.ListAgents(ctx, model.AgentFilter{})
		if err != nil {
			return nil, fmt.Errorf("could not list agents: %w", err)
		}
		for _, a := range agents {
			ids = append(ids, a.ID)
		}
	}

	results := make([]model.AgentHealth, 0, len(ids))
	for _, id := range ids {
		h, err := s.orch.CheckAgentHealth(ctx, id)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) || errors.Is(err, context.Canceled) {
				return nil, fmt.Errorf("could not check agent %s: %w", id, err)
			}

			s.logger.Warningf("Health check of agent %s failed: %s", id, err)
			results = append(results, model.AgentHealth{AgentID: id, Status: "error", Error: err.Error()})
			continue
		}

		if h.AgentID == "" {
			h.AgentID = id
		}
		results = append(results, *h)
	}

	return results, nil
}
