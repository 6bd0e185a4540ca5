// Package controller implements the task submission and polling workflow.
//
// The controller owns the lifecycle of user submitted tasks: it creates them on the
// orchestrator, tracks every task with a poll session (an interval timer plus a deadline
// timer) and resolves the conversation log once the task reaches a terminal state.
//
// All the state is owned by a single event loop goroutine (see Controller.Run). Network
// calls and timer callbacks happen outside of the loop and post their results back to it,
// so state is never shared and late responses can be discarded safely.
package controller

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"k8s.io/utils/clock"

	"github.com/maestrohq/maestroctl/internal/conventions"
	"github.com/maestrohq/maestroctl/internal/conversation"
	"github.com/maestrohq/maestroctl/internal/log"
	"github.com/maestrohq/maestroctl/internal/model"
)

// TaskAPI is the orchestrator task API used by the controller.
type TaskAPI interface {
	CreateTask(ctx context.Context, r model.TaskRequest) (*model.TaskHandle, error)
	GetTask(ctx context.Context, id string) (*model.TaskState, error)
}

// Clock is the time source used to schedule the poll sessions.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) clock.Timer
}

// Config is the controller configuration.
type Config struct {
	API    TaskAPI
	UserID string
	Clock  Clock
	// PollInterval is the time between task status checks.
	PollInterval time.Duration
	// PollTimeout is the time a task has to reach a terminal state since polling started.
	PollTimeout time.Duration
	// SubmitTimeout bounds the task creation request.
	SubmitTimeout time.Duration
	// RequestTimeout bounds each status check.
	RequestTimeout time.Duration
	IDGenerator    func() string
	Logger         log.Logger
}

func (c *Config) defaults() error {
	if c.API == nil {
		return fmt.Errorf("task api is required")
	}

	if c.UserID == "" {
		return fmt.Errorf("user id is required")
	}

	if c.Clock == nil {
		c.Clock = clock.RealClock{}
	}

	if c.PollInterval <= 0 {
		c.PollInterval = conventions.DefaultPollInterval
	}

	if c.PollTimeout <= 0 {
		c.PollTimeout = conventions.DefaultPollTimeout
	}

	if c.SubmitTimeout <= 0 {
		c.SubmitTimeout = conventions.DefaultSubmitTimeout
	}

	if c.RequestTimeout <= 0 {
		c.RequestTimeout = conventions.DefaultRequestTimeout
	}

	if c.IDGenerator == nil {
		c.IDGenerator = func() string { return ulid.Make().String() }
	}

	if c.Logger == nil {
		c.Logger = log.Noop
	}
	c.Logger = c.Logger.WithValues(log.Kv{"svc": "controller.Controller"})

	return nil
}

var errStopped = errors.New("controller stopped")

// State is a snapshot of the controller application state.
type State struct {
	// Messages is the conversation log in order.
	Messages []model.Message
	// Tasks are the tracked tasks, newest first.
	Tasks []model.Task
	// Loading is true while a task is being submitted or polled.
	Loading bool
	// Polling are the IDs of the tasks with an active poll session.
	Polling []string
}

// Controller is the task submission and polling controller.
type Controller struct {
	api            TaskAPI
	userID         string
	clock          Clock
	pollInterval   time.Duration
	pollTimeout    time.Duration
	submitTimeout  time.Duration
	requestTimeout time.Duration
	newID          func() string
	logger         log.Logger

	events  chan func()
	stopped chan struct{}
	running atomic.Bool
	runCtx  context.Context

	// Event loop owned state.
	messages   *conversation.Log
	tasks      map[string]*model.Task
	taskOrder  []string
	sessions   map[string]*pollSession
	submitting int
}

// New returns a new controller, it needs to be started with Run.
func New(cfg Config) (*Controller, error) {
	if err := cfg.defaults(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &Controller{
		api:            cfg.API,
		userID:         cfg.UserID,
		clock:          cfg.Clock,
		pollInterval:   cfg.PollInterval,
		pollTimeout:    cfg.PollTimeout,
		submitTimeout:  cfg.SubmitTimeout,
		requestTimeout: cfg.RequestTimeout,
		newID:          cfg.IDGenerator,
		logger:         cfg.Logger,

		events:  make(chan func()),
		stopped: make(chan struct{}),

		messages: conversation.NewLog(),
		tasks:    map[string]*model.Task{},
		sessions: map[string]*pollSession{},
	}, nil
}

// Run runs the controller event loop until the context is cancelled. When the loop ends
// every active poll session is terminated.
func (c *Controller) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return fmt.Errorf("controller already running")
	}
	c.runCtx = ctx
	defer close(c.stopped)

	c.logger.Debugf("Controller event loop started")
	for {
		select {
		case <-ctx.Done():
			c.shutdown()
			c.logger.Debugf("Controller event loop stopped")
			return nil
		case ev := <-c.events:
			ev()
		}
	}
}

// Submit creates a task on the orchestrator and starts polling it. On creation failure an
// error message is added to the conversation and no polling is started.
func (c *Controller) Submit(ctx context.Context, description, sessionID string) (*model.Task, error) {
	description = strings.TrimSpace(description)
	if description == "" {
		return nil, fmt.Errorf("task description is required: %w", model.ErrNotValid)
	}

	err := c.do(ctx, func() {
		c.submitting++
		c.appendMessage(model.Message{
			SessionID: sessionID,
			Role:      model.RoleUser,
			Kind:      model.MessageKindText,
			Content:   description,
		})
	})
	if err != nil {
		return nil, fmt.Errorf("could not register submission: %w", err)
	}

	submitCtx, cancel := context.WithTimeout(ctx, c.submitTimeout)
	handle, err := c.api.CreateTask(submitCtx, model.TaskRequest{
		Description: description,
		UserID:      c.userID,
		SessionID:   sessionID,
	})
	cancel()
	if err == nil && (handle == nil || handle.TaskID == "") {
		err = fmt.Errorf("orchestrator returned an empty task id")
	}

	// The submission needs to be resolved on the loop even if the caller is gone.
	var task model.Task
	loopErr := c.do(context.WithoutCancel(ctx), func() {
		c.submitting--
		if err != nil {
			c.appendMessage(model.Message{
				SessionID: sessionID,
				Role:      model.RoleAssistant,
				Kind:      model.MessageKindError,
				Content:   submissionErrorText(err),
			})
			return
		}
		task = c.startTask(description, sessionID, *handle)
	})
	if loopErr != nil {
		return nil, fmt.Errorf("could not resolve submission: %w", loopErr)
	}

	if err != nil {
		c.logger.Warningf("Task submission failed: %s", err)
		return nil, fmt.Errorf("%w: %w", model.ErrSubmission, err)
	}

	return &task, nil
}

// Wait blocks until the task poll session ends and returns the task. Tasks that failed
// or timed out are returned together with an error.
func (c *Controller) Wait(ctx context.Context, taskID string) (*model.Task, error) {
	var (
		found bool
		done  <-chan struct{}
	)
	err := c.do(ctx, func() {
		if _, ok := c.tasks[taskID]; !ok {
			return
		}
		found = true
		if s, ok := c.sessions[taskID]; ok {
			done = s.done
		}
	})
	if err != nil {
		return nil, fmt.Errorf("could not get task: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("task %s: %w", taskID, model.ErrNotFound)
	}

	if done != nil {
		select {
		case <-done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	var task model.Task
	err = c.do(ctx, func() { task = *c.tasks[taskID] })
	if err != nil {
		return nil, fmt.Errorf("could not get task: %w", err)
	}

	switch task.Phase {
	case model.TaskPhaseCompleted:
		return &task, nil
	case model.TaskPhaseFailed:
		return &task, fmt.Errorf("task %s: %s: %w", task.ID, task.Error, model.ErrTaskFailed)
	case model.TaskPhaseTimedOut:
		return &task, fmt.Errorf("task %s not finished after %s: %w", task.ID, c.pollTimeout, model.ErrTimeoutExceeded)
	default:
		return &task, fmt.Errorf("task %s polling stopped on phase %s", task.ID, task.Phase)
	}
}

// Snapshot returns a copy of the current application state.
func (c *Controller) Snapshot(ctx context.Context) (State, error) {
	var s State
	err := c.do(ctx, func() {
		s.Messages = c.messages.Messages()
		s.Tasks = make([]model.Task, 0, len(c.taskOrder))
		for i := len(c.taskOrder) - 1; i >= 0; i-- {
			s.Tasks = append(s.Tasks, *c.tasks[c.taskOrder[i]])
		}
		s.Loading = c.loading()
		s.Polling = make([]string, 0, len(c.sessions))
		for id := range c.sessions {
			s.Polling = append(s.Polling, id)
		}
		sort.Strings(s.Polling)
	})
	if err != nil {
		return State{}, fmt.Errorf("could not get state: %w", err)
	}

	return s, nil
}

// do runs fn on the event loop and waits for it.
func (c *Controller) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	ev := func() {
		defer close(done)
		fn()
	}

	select {
	case c.events <- ev:
	case <-ctx.Done():
		return ctx.Err()
	case <-c.stopped:
		return errStopped
	}

	// The loop runs the event as soon as it receives it.
	<-done
	return nil
}

// post sends fn to the event loop without waiting for it, it's used by timers and
// in flight requests.
func (c *Controller) post(fn func()) {
	select {
	case c.events <- fn:
	case <-c.stopped:
	}
}

// afterFunc schedules fn on the event loop. The clock callback must not block (fake
// clocks run callbacks while holding their lock) so the post happens on its own goroutine.
func (c *Controller) afterFunc(d time.Duration, fn func()) clock.Timer {
	return c.clock.AfterFunc(d, func() { go c.post(fn) })
}

func (c *Controller) loading() bool {
	return c.submitting > 0 || len(c.sessions) > 0
}

func (c *Controller) shutdown() {
	for id, s := range c.sessions {
		s.stop()
		delete(c.sessions, id)
		c.logger.Debugf("Poll session of task %s dismissed", id)
	}
}
