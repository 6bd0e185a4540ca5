package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/maestrohq/maestroctl/internal/controller"
	"github.com/maestrohq/maestroctl/internal/log"
	"github.com/maestrohq/maestroctl/internal/model"
	"github.com/maestrohq/maestroctl/internal/orchestrator"
	"github.com/maestrohq/maestroctl/internal/storage"
)

// TaskController submits tasks and tracks them until they finish.
type TaskController interface {
	Submit(ctx context.Context, description, sessionID string) (*model.Task, error)
	Wait(ctx context.Context, taskID string) (*model.Task, error)
	Snapshot(ctx context.Context) (controller.State, error)
}

// ServiceConfig is the configuration for the chat service.
type ServiceConfig struct {
	Controller   TaskController
	Orchestrator orchestrator.Client
	Repository   storage.Repository
	UserID       string
	Logger       log.Logger
}

func (c *ServiceConfig) defaults() error {
	if c.Controller == nil {
		return fmt.Errorf("controller is required")
	}

	if c.Orchestrator == nil {
		return fmt.Errorf("orchestrator is required")
	}

	if c.Repository == nil {
		return fmt.Errorf("repository is required")
	}

	if c.UserID == "" {
		return fmt.Errorf("user id is required")
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "app.Chat"})

	return nil
}

// Service sends a message to the orchestrator and waits for its answer.
type Service struct {
	ctrl   TaskController
	orch   orchestrator.Client
	repo   storage.Repository
	userID string
	logger log.Logger
}

// NewService creates a new chat service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Service{
		ctrl:   cfg.Controller,
		orch:   cfg.Orchestrator,
		repo:   cfg.Repository,
		userID: cfg.UserID,
		logger: cfg.Logger,
	}, nil
}

// Request represents the chat request parameters.
type Request struct {
	// Message is the task description.
	Message string
	// SessionID forces the conversation session, if empty the latest stored session
	// of the user is used, or a new one is created.
	SessionID string
	// NewSession ignores the stored sessions and starts a new conversation.
	NewSession bool
}

// Response is a resolved chat exchange.
type Response struct {
	Session model.Session
	// Task is nil when the task could not be submitted.
	Task *model.Task
	// Messages are the exchange messages, the user message first.
	Messages []model.Message
}

// Run submits the message as a task and waits until the task finishes.
//
// Failed, timed out and rejected tasks return the response together with the error
// (ErrTaskFailed, ErrTimeoutExceeded, ErrSubmission) so the exchange can be shown.
func (s *Service) Run(ctx context.Context, req Request) (*Response, error) {
	if strings.TrimSpace(req.Message) == "" {
		return nil, fmt.Errorf("message is required: %w", model.ErrNotValid)
	}

	session, err := s.resolveSession(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("could not resolve session: %w", err)
	}
	logger := s.logger.WithValues(log.Kv{"session": session.ID})

	before, err := s.ctrl.Snapshot(ctx)
	if err != nil {
		return nil, err
	}

	resp := &Response{Session: *session}
	task, runErr := s.ctrl.Submit(ctx, req.Message, session.ID)
	if runErr == nil {
		logger.Debugf("Waiting for task %s", task.ID)
		task, runErr = s.ctrl.Wait(ctx, task.ID)
	}
	if runErr != nil && !IsDegraded(runErr) {
		return nil, runErr
	}
	resp.Task = task

	after, err := s.ctrl.Snapshot(ctx)
	if err != nil {
		return nil, err
	}
	resp.Messages = exchange(before.Messages, after.Messages, task)

	s.store(ctx, logger, resp)

	return resp, runErr
}

func (s *Service) resolveSession(ctx context.Context, req Request) (*model.Session, error) {
	if req.SessionID != "" {
		return &model.Session{ID: req.SessionID, UserID: s.userID}, nil
	}

	if !req.NewSession {
		session, err := s.repo.GetLatestSession(ctx, s.userID)
		if err == nil {
			return session, nil
		}
		if !errors.Is(err, model.ErrNotFound) {
			return nil, err
		}
	}

	session, err := s.orch.CreateSession(ctx, s.userID)
	if err != nil {
		return nil, err
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now().UTC()
	}

	if err := s.repo.SaveSession(ctx, *session); err != nil {
		return nil, fmt.Errorf("could not store session: %w", err)
	}
	s.logger.Infof("New session %s created", session.ID)

	return session, nil
}

// store saves the exchange on the local history, failures don't invalidate the exchange.
func (s *Service) store(ctx context.Context, logger log.Logger, resp *Response) {
	if resp.Task != nil {
		if err := s.repo.SaveTask(ctx, *resp.Task); err != nil {
			logger.Warningf("Could not store task %s: %s", resp.Task.ID, err)
		}
	}

	if len(resp.Messages) == 0 {
		return
	}
	if err := s.repo.AppendMessages(ctx, resp.Messages...); err != nil {
		logger.Warningf("Could not store messages: %s", err)
	}
}

// exchange returns the messages added by a submission.
func exchange(before, after []model.Message, task *model.Task) []model.Message {
	if len(after) < len(before) {
		return nil
	}

	msgs := []model.Message{}
	for _, m := range after[len(before):] {
		if m.TaskID != "" && (task == nil || m.TaskID != task.ID) {
			continue
		}
		msgs = append(msgs, m)
	}

	return msgs
}

// IsDegraded returns true if the error is a chat outcome that still produced a conversation
// exchange (rejected submission, failed task or polling timeout).
func IsDegraded(err error) bool {
	return errors.Is(err, model.ErrSubmission) ||
		errors.Is(err, model.ErrTaskFailed) ||
		errors.Is(err, model.ErrTimeoutExceeded)
}
