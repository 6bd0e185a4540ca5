package agentstats

import (
	"context"
	"fmt"

	"github.com/maestrohq/maestroctl/internal/log"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/orchestrator"
)

// ServiceConfig is the configuration for the agent stats service.
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

	return nil
}

// Service gets the agent registry counters.
type Service struct {
	orch   orchestrator.Client
	logger log.Logger
}

// NewService creates a new agent stats service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		orch:   cfg.Orchestrator,
		logger: cfg.Logger,
	}, nil
}

// Run gets the agent stats.
func (s *Service) Run(ctx context.Context) (*model.AgentStats, error) {
	stats, err := s.orch.GetAgentStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not get agent stats: %w", err)
	}

	if stats.ByType == nil {
		stats.ByType = map[string]int{}
	}

	return stats, nil
}
