package doctor

import (
	"context"
	"errors"
	"fmt"

	"github.com/maestrohq/maestroctl/internal/log"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/orchestrator"
)

// ProfileRepository gets user profiles.
type ProfileRepository interface {
	GetProfile(ctx context.Context, path string) (model.Profile, error)
}

// SchemaVersionFunc opens the history database and returns its schema version.
type SchemaVersionFunc func(ctx context.Context) (uint, error)

// ServiceConfig is the configuration for the doctor service.
type ServiceConfig struct {
	Orchestrator      orchestrator.Client
	ProfileRepository ProfileRepository
	// ProfilePath is the profile to validate, the check is skipped if empty.
	ProfilePath   string
	SchemaVersion SchemaVersionFunc
	Logger        log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Orchestrator == nil {
		return fmt.Errorf("orchestrator is required")
	}

	if c.ProfileRepository == nil {
		return fmt.Errorf("profile repository is required")
	}

	if c.SchemaVersion == nil {
		return fmt.Errorf("schema version func is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Doctor"})

	return nil
}

// Service runs the preflight checks.
type Service struct {
	orch          orchestrator.Client
	profileRepo   ProfileRepository
	profilePath   string
	schemaVersion SchemaVersionFunc
	logger        log.Logger
}

// NewService creates a new doctor service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		orch:          cfg.Orchestrator,
		profileRepo:   cfg.ProfileRepository,
		profilePath:   cfg.ProfilePath,
		schemaVersion: cfg.SchemaVersion,
		logger:        cfg.Logger,
	}, nil
}

// Run runs all the checks, a failed check doesn't stop the next ones.
func (s *Service) Run(ctx context.Context) []model.CheckResult {
	results := []model.CheckResult{s.checkProfile(ctx), s.checkDatabase(ctx)}

	api := s.checkOrchestrator(ctx)
	results = append(results, api)
	if api.Status == model.CheckStatusOK {
		results = append(results, s.checkAgents(ctx))
	}

	for _, r := range results {
		s.logger.Debugf("Check %s: %s (%s)", r.ID, r.Status, r.Message)
	}

	return results
}

func (s *Service) checkProfile(ctx context.Context) model.CheckResult {
	const id = "profile_valid"

	if s.profilePath == "" {
		return model.CheckResult{ID: id, Status: model.CheckStatusOK, Message: "No profile configured, using defaults"}
	}

	_, err := s.profileRepo.GetProfile(ctx, s.profilePath)
	switch {
	case err == nil:
		return model.CheckResult{ID: id, Status: model.CheckStatusOK, Message: fmt.Sprintf("Profile %s is valid", s.profilePath)}
	case errors.Is(err, model.ErrNotFound):
		return model.CheckResult{ID: id, Status: model.CheckStatusOK, Message: fmt.Sprintf("Profile %s missing, using defaults", s.profilePath)}
	default:
		return model.CheckResult{ID: id, Status: model.CheckStatusError, Message: err.Error()}
	}
}

func (s *Service) checkDatabase(ctx context.Context) model.CheckResult {
	const id = "history_db"

	v, err := s.schemaVersion(ctx)
	if err != nil {
		return model.CheckResult{ID: id, Status: model.CheckStatusError, Message: fmt.Sprintf("History database not usable: %s", err)}
	}

	return model.CheckResult{ID: id, Status: model.CheckStatusOK, Message: fmt.Sprintf("History database at schema version %d", v)}
}

func (s *Service) checkOrchestrator(ctx context.Context) model.CheckResult {
	const id = "orchestrator_api"

	if err := s.orch.Health(ctx); err != nil {
		return model.CheckResult{ID: id, Status: model.CheckStatusError, Message: fmt.Sprintf("Orchestrator not reachable: %s", err)}
	}

	return model.CheckResult{ID: id, Status: model.CheckStatusOK, Message: "Orchestrator is healthy"}
}

func (s *Service) checkAgents(ctx context.Context) model.CheckResult {
	const id = "active_agents"

	agents, err := s.orch.ListAgents(ctx, model.AgentFilter{Status: model.AgentStatusActive})
	if err != nil {
		return model.CheckResult{ID: id, Status: model.CheckStatusError, Message: fmt.Sprintf("Could not list agents: %s", err)}
	}

	if len(agents) == 0 {
		return model.CheckResult{ID: id, Status: model.CheckStatusWarning, Message: "No active agents, tasks can't be executed"}
	}

	return model.CheckResult{ID: id, Status: model.CheckStatusOK, Message: fmt.Sprintf("%d active agent(s)", len(agents))}
}
