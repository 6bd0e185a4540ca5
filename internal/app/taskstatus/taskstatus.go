package taskstatus

import (
	"context"
	"errors"
	"fmt"

	"github.com/oklog/ulid/v2"
	"k8s.io/utils/clock"

	"github.com/maestrohq/maestroctl/internal/controller"
	"github.com/maestrohq/maestroctl/internal/log"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/orchestrator"
	"github.com/maestrohq/maestroctl/internal/storage"
)

// ServiceConfig is the configuration for the task status service.
type ServiceConfig struct {
	Orchestrator orchestrator.Client
	Repository   storage.Repository
	Clock        clock.PassiveClock
	IDGenerator  func() string
	Logger       log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Orchestrator == nil {
		return fmt.Errorf("orchestrator is required")
	}

	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.Clock == nil {
		c.Clock = clock.RealClock{}
	}

	if c.IDGenerator == nil {
		c.IDGenerator = func() string { return ulid.Make().String() }
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.TaskStatus"})

	return nil
}

// Service gets the orchestrator status of a task.
type Service struct {
	orch   orchestrator.Client
	repo   storage.Repository
	clock  clock.PassiveClock
	newID  func() string
	logger log.Logger
}

// NewService creates a new task status service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		orch:   cfg.Orchestrator,
		repo:   cfg.Repository,
		clock:  cfg.Clock,
		newID:  cfg.IDGenerator,
		logger: cfg.Logger,
	}, nil
}

// Request represents the task status request parameters.
type Request struct {
	TaskID string
}

// Response is the task status.
type Response struct {
	State model.TaskState
	// Text is the user facing outcome, empty while the task is in progress.
	Text string
	// Reconciled is true when a locally unresolved task was resolved with this status.
	Reconciled bool
}

// Run gets the task status from the orchestrator.
//
// Tasks that stopped being polled locally (e.g. timed out) are updated on the local
// history when the orchestrator already resolved them.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	if req.TaskID == "" {
		return nil, fmt.Errorf("task id is required: %w", model.ErrNotValid)
	}

	st, err := s.orch.GetTask(ctx, req.TaskID)
	if err != nil {
		return nil, fmt.Errorf("could not get task %s: %w", req.TaskID, err)
	}

	resp := &Response{State: *st}
	switch st.Status {
	case model.TaskStatusCompleted:
		resp.Text = controller.ExtractResult(st.Result)
	case model.TaskStatusFailed, model.TaskStatusCancelled:
		resp.Text = controller.ExtractError(st.Result, st.Error, st.Status)
	}

	reconciled, err := s.reconcile(ctx, *st)
	if err != nil {
		s.logger.Warningf("Could not reconcile local task %s: %s", req.TaskID, err)
	}
	resp.Reconciled = reconciled

	return resp, nil
}

// reconcile records the orchestrator outcome of a task that stopped being polled before
// resolving. Polling tasks move to their terminal phase, timed out tasks keep it and are
// marked as resolved. The terminal message is added to the task session history.
func (s *Service) reconcile(ctx context.Context, st model.TaskState) (bool, error) {
	if !st.Status.IsTerminal() {
		return false, nil
	}

	t, err := s.repo.GetTask(ctx, st.ID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	if t.ResolvedAt != nil || t.Phase == model.TaskPhaseCompleted || t.Phase == model.TaskPhaseFailed {
		return false, nil
	}

	now := s.clock.Now().UTC()
	phase := model.TaskPhaseCompleted
	msg := model.Message{
		ID:        s.newID(),
		SessionID: t.SessionID,
		Role:      model.RoleAssistant,
		Kind:      model.MessageKindResult,
		Content:   controller.ExtractResult(st.Result),
		TaskID:    t.ID,
		Timestamp: now,
	}
	if st.Status != model.TaskStatusCompleted {
		phase = model.TaskPhaseFailed
		t.Error = controller.ExtractError(st.Result, st.Error, st.Status)
		msg.Kind = model.MessageKindError
		msg.Content = controller.FailedText(t.Error)
	}

	if t.Phase.CanTransitionTo(phase) {
		t.Phase = phase
	}
	t.Status = st.Status
	t.Result = st.Result
	if st.CompletedAt != nil {
		finished := *st.CompletedAt
		t.FinishedAt = &finished
	}
	t.ResolvedAt = &now

	if err := s.repo.ResolveTask(ctx, *t, msg); err != nil {
		return false, err
	}
	s.logger.Infof("Local %s task %s resolved as %s", t.Phase, t.ID, st.Status)

	return true, nil
}
