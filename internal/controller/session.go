package controller

import (
	"context"
	"fmt"

	"k8s.io/utils/clock"

	"github.com/maestrohq/maestroctl/internal/log"
	"github.com/maestrohq/maestroctl/internal/model"
)

// pollSession is the scheduling state of a task being polled.
type pollSession struct {
	taskID   string
	interval clock.Timer
	deadline clock.Timer
	done     chan struct{}

	// sent is the sequence of the last status check sent, applied the sequence of the
	// last response applied to the task.
	sent    int
	applied int
	stopped bool
}

// stop cancels both timers. It returns false if the session was already stopped.
func (s *pollSession) stop() bool {
	if s.stopped {
		return false
	}

	s.stopped = true
	s.interval.Stop()
	s.deadline.Stop()
	close(s.done)

	return true
}

func (c *Controller) startTask(description, sessionID string, h model.TaskHandle) model.Task {
	if existing, ok := c.tasks[h.TaskID]; ok {
		c.logger.Warningf("Orchestrator returned already tracked task %s", h.TaskID)
		return *existing
	}

	if h.SessionID != "" {
		sessionID = h.SessionID
	}
	createdAt := h.CreatedAt
	if createdAt.IsZero() {
		createdAt = c.clock.Now().UTC()
	}
	status := h.Status
	if status == "" {
		status = model.TaskStatusPending
	}

	t := &model.Task{
		ID:          h.TaskID,
		SessionID:   sessionID,
		Description: description,
		Status:      status,
		Phase:       model.TaskPhaseSubmitting,
		Plan:        h.Plan,
		CreatedAt:   createdAt,
	}
	c.tasks[t.ID] = t
	c.taskOrder = append(c.taskOrder, t.ID)

	c.upsertMessage(model.Message{
		SessionID: t.SessionID,
		Role:      model.RoleAssistant,
		Kind:      model.MessageKindProcessing,
		Content:   processingText(*t),
		TaskID:    t.ID,
	})

	c.transition(t, model.TaskPhasePolling)
	c.sessions[t.ID] = c.newPollSession(t.ID)
	c.logger.Infof("Task %s created, polling every %s", t.ID, c.pollInterval)

	return *t
}

func (c *Controller) newPollSession(taskID string) *pollSession {
	s := &pollSession{
		taskID: taskID,
		done:   make(chan struct{}),
	}
	s.interval = c.scheduleTick(s)
	s.deadline = c.afterFunc(c.pollTimeout, func() { c.expire(s) })

	return s
}

func (c *Controller) scheduleTick(s *pollSession) clock.Timer {
	return c.afterFunc(c.pollInterval, func() { c.tick(s) })
}

func (c *Controller) active(s *pollSession) bool {
	current, ok := c.sessions[s.taskID]
	return ok && current == s && !s.stopped
}

// tick sends a new status check and schedules the next one.
func (c *Controller) tick(s *pollSession) {
	if !c.active(s) {
		return
	}

	// A fired timer is replaced instead of reset, the interval restarts on every tick.
	s.interval = c.scheduleTick(s)
	s.sent++
	seq := s.sent

	ctx := c.runCtx
	go func() {
		ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
		defer cancel()

		st, err := c.api.GetTask(ctx, s.taskID)
		c.post(func() { c.applyPoll(s, seq, st, err) })
	}()
}

func (c *Controller) applyPoll(s *pollSession, seq int, st *model.TaskState, err error) {
	logger := c.logger.WithValues(log.Kv{"task": s.taskID, "poll": seq})

	if !c.active(s) {
		logger.Debugf("Discarding status of finished task")
		return
	}

	if err != nil {
		logger.Warningf("%s: %s", model.ErrPollTransport, err)
		return
	}

	if seq < s.applied {
		logger.Debugf("Discarding out of order status, already applied poll %d", s.applied)
		return
	}
	s.applied = seq

	t := c.tasks[s.taskID]
	t.Status = st.Status

	switch st.Status {
	case model.TaskStatusCompleted:
		t.Result = st.Result
		c.resolve(s, t, model.TaskPhaseCompleted, model.MessageKindResult, ExtractResult(st.Result))
		logger.Infof("Task completed")
	case model.TaskStatusFailed, model.TaskStatusCancelled:
		t.Result = st.Result
		t.Error = ExtractError(st.Result, st.Error, st.Status)
		c.resolve(s, t, model.TaskPhaseFailed, model.MessageKindError, FailedText(t.Error))
		logger.Warningf("Task failed: %s", t.Error)
	default:
		logger.Debugf("Task still %s", st.Status)
	}
}

// resolve replaces the task processing message with the terminal one and ends the session.
func (c *Controller) resolve(s *pollSession, t *model.Task, phase model.TaskPhase, kind model.MessageKind, content string) {
	if !c.transition(t, phase) {
		return
	}

	c.upsertMessage(model.Message{
		SessionID: t.SessionID,
		Role:      model.RoleAssistant,
		Kind:      kind,
		Content:   content,
		TaskID:    t.ID,
	})
	c.finish(s, t)
}

// expire force terminates a session that didn't reach a terminal state in time. The
// processing message is kept as is.
func (c *Controller) expire(s *pollSession) {
	if !c.active(s) {
		return
	}

	t := c.tasks[s.taskID]
	if !c.transition(t, model.TaskPhaseTimedOut) {
		return
	}
	t.Error = fmt.Sprintf("no terminal status after %s", c.pollTimeout)
	c.finish(s, t)
	c.logger.WithValues(log.Kv{"task": t.ID}).Warningf("Task polling timed out after %s (last status: %s)", c.pollTimeout, t.Status)
}

func (c *Controller) finish(s *pollSession, t *model.Task) {
	now := c.clock.Now().UTC()
	t.FinishedAt = &now
	s.stop()
	delete(c.sessions, s.taskID)
}

func (c *Controller) transition(t *model.Task, phase model.TaskPhase) bool {
	if !t.Phase.CanTransitionTo(phase) {
		c.logger.Errorf("Invalid task %s phase transition %s -> %s", t.ID, t.Phase, phase)
		return false
	}

	t.Phase = phase
	return true
}

func (c *Controller) appendMessage(m model.Message) {
	m.ID = c.newID()
	m.Timestamp = c.clock.Now().UTC()
	if err := c.messages.Append(m); err != nil {
		c.logger.Errorf("Could not append message: %s", err)
	}
}

func (c *Controller) upsertMessage(m model.Message) {
	m.ID = c.newID()
	m.Timestamp = c.clock.Now().UTC()
	if err := c.messages.Upsert(m); err != nil {
		c.logger.Errorf("Could not set task message: %s", err)
	}
}
